package api

import (
	"errors"
	"net/url"
	"strconv"
	"strings"

	"projcal/internal/model"
)

// DashboardURL links an entity to its page in the web dashboard, where
// editing happens.
func DashboardURL(base string, e model.Entity) (string, error) {
	base = strings.TrimRight(strings.TrimSpace(base), "/")
	if base == "" {
		return "", errors.New("dashboard url is not configured")
	}
	u, err := url.Parse(base)
	if err != nil {
		return "", err
	}

	var path string
	switch v := e.(type) {
	case model.Project:
		path = "/projects/" + strconv.Itoa(v.ID) + "/summary"
	case model.Epic:
		path = "/projects/" + strconv.Itoa(v.ProjectID) + "/big_tasks"
	case model.Task:
		pid := v.OwningProjectID()
		if pid == 0 {
			return "", errors.New("task has no project")
		}
		path = "/projects/" + strconv.Itoa(pid) + "/board"
	default:
		return "", errors.New("unsupported entity")
	}
	u.Path = strings.TrimRight(u.Path, "/") + path
	return u.String(), nil
}
