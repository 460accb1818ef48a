// Package api is the HTTP client for the project service's entity endpoints.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"projcal/internal/model"
)

const (
	projectsPath = "/projects/"
	epicsPath    = "/projects/big_tasks/big_tasks/"
	tasksPath    = "/projects/tasks/"

	defaultTimeout = 15 * time.Second
	maxErrorBody   = 512
)

type Options struct {
	BaseURL string
	Token   string
	Timeout time.Duration
	// MineOnly restricts the global epic listing to epics the caller is a
	// member of, as the dashboard does.
	MineOnly   bool
	HTTPClient *http.Client
}

type Client struct {
	base     *url.URL
	token    string
	mineOnly bool
	http     *http.Client
}

func NewClient(opts Options) (*Client, error) {
	raw := strings.TrimSpace(opts.BaseURL)
	if raw == "" {
		return nil, errors.New("api: base url is empty")
	}
	base, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("api: parse base url: %w", err)
	}
	if base.Scheme != "http" && base.Scheme != "https" {
		return nil, fmt.Errorf("api: unsupported url scheme %q", base.Scheme)
	}
	base.Path = strings.TrimRight(base.Path, "/")

	hc := opts.HTTPClient
	if hc == nil {
		timeout := opts.Timeout
		if timeout <= 0 {
			timeout = defaultTimeout
		}
		hc = &http.Client{Timeout: timeout}
	}
	return &Client{
		base:     base,
		token:    strings.TrimSpace(opts.Token),
		mineOnly: opts.MineOnly,
		http:     hc,
	}, nil
}

// Fetch returns the entities of one kind visible in scope, in API order.
func (c *Client) Fetch(ctx context.Context, kind model.Kind, scope model.Scope) ([]model.Entity, error) {
	switch kind {
	case model.KindProject:
		if scope.IsAll() {
			var ps []model.Project
			if err := c.getJSON(ctx, projectsPath, nil, &ps); err != nil {
				return nil, err
			}
			return entities(ps), nil
		}
		var p model.Project
		if err := c.getJSON(ctx, projectsPath+strconv.Itoa(scope.ProjectID), nil, &p); err != nil {
			return nil, err
		}
		return []model.Entity{p}, nil

	case model.KindEpic:
		q := url.Values{}
		if scope.IsAll() {
			if c.mineOnly {
				q.Set("mine_only", "true")
			}
		} else {
			q.Set("project_id", strconv.Itoa(scope.ProjectID))
		}
		var es []model.Epic
		if err := c.getJSON(ctx, epicsPath, q, &es); err != nil {
			return nil, err
		}
		return entities(es), nil

	case model.KindTask:
		q := url.Values{}
		if !scope.IsAll() {
			q.Set("project_id", strconv.Itoa(scope.ProjectID))
		}
		var ts []model.Task
		if err := c.getJSON(ctx, tasksPath, q, &ts); err != nil {
			return nil, err
		}
		return entities(ts), nil
	}
	return nil, fmt.Errorf("api: unknown entity kind %q", kind)
}

func (c *Client) endpoint(path string, q url.Values) string {
	u := *c.base
	u.Path = c.base.Path + path
	if len(q) > 0 {
		u.RawQuery = q.Encode()
	}
	return u.String()
}

func (c *Client) getJSON(ctx context.Context, path string, q url.Values, out any) error {
	target := c.endpoint(path, q)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	if c.token != "" {
		req.Header.Set("Authorization", "Bearer "+c.token)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("GET %s: %w", target, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		b, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &StatusError{
			Method: http.MethodGet,
			URL:    target,
			Code:   resp.StatusCode,
			Body:   strings.TrimSpace(string(b)),
		}
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s: %w", target, err)
	}
	return nil
}

func entities[T model.Entity](xs []T) []model.Entity {
	out := make([]model.Entity, 0, len(xs))
	for _, x := range xs {
		out = append(out, x)
	}
	return out
}
