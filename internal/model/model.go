package model

import (
	"fmt"
	"strconv"
	"strings"
)

type Kind string

const (
	KindProject Kind = "project"
	KindEpic    Kind = "epic"
	KindTask    Kind = "task"
)

// Kinds lists every entity kind in fetch (and bucket) order.
var Kinds = []Kind{KindProject, KindEpic, KindTask}

func (k Kind) Label() string {
	switch k {
	case KindProject:
		return "Project"
	case KindEpic:
		return "Epic"
	case KindTask:
		return "Task"
	}
	return string(k)
}

func ParseKind(s string) (Kind, error) {
	switch Kind(strings.ToLower(strings.TrimSpace(s))) {
	case KindProject:
		return KindProject, nil
	case KindEpic, "big_task", "bigtask":
		return KindEpic, nil
	case KindTask:
		return KindTask, nil
	}
	return "", fmt.Errorf("unknown entity kind: %q", s)
}

// Entity is a date-bearing calendar entry. The set of implementations is
// closed: Project, Epic and Task.
type Entity interface {
	Kind() Kind
	EntityID() int
	EntityTitle() string
	// DueRaw returns the due date exactly as the API sent it ("" when absent).
	DueRaw() string

	sealed()
}

type Project struct {
	ID          int     `json:"id"`
	Title       string  `json:"title"`
	Description string  `json:"description,omitempty"`
	DueDate     *string `json:"due_date,omitempty"`
	Status      string  `json:"status,omitempty"`
	OwnerID     int     `json:"owner_id,omitempty"`
}

type Epic struct {
	ID          int     `json:"id"`
	Title       string  `json:"title"`
	Description string  `json:"description,omitempty"`
	DueDate     *string `json:"due_date,omitempty"`
	Status      string  `json:"status,omitempty"`
	Priority    string  `json:"priority,omitempty"`
	ProjectID   int     `json:"project_id"`
}

type Task struct {
	ID          int      `json:"id"`
	Title       string   `json:"title"`
	Description string   `json:"description,omitempty"`
	DueDate     *string  `json:"due_date,omitempty"`
	Status      string   `json:"status,omitempty"`
	IssueType   string   `json:"issue_type,omitempty"`
	Priority    string   `json:"priority,omitempty"`
	BigTaskID   *int     `json:"big_task_id,omitempty"`
	AssigneeID  *int     `json:"assignee_id,omitempty"`
	CreatorName string   `json:"creator_name,omitempty"`
	Project     *Project `json:"project,omitempty"`
	ProjectID   int      `json:"project_id,omitempty"`
}

func (p Project) Kind() Kind          { return KindProject }
func (p Project) EntityID() int       { return p.ID }
func (p Project) EntityTitle() string { return p.Title }
func (p Project) DueRaw() string      { return deref(p.DueDate) }
func (Project) sealed()               {}

func (e Epic) Kind() Kind          { return KindEpic }
func (e Epic) EntityID() int       { return e.ID }
func (e Epic) EntityTitle() string { return e.Title }
func (e Epic) DueRaw() string      { return deref(e.DueDate) }
func (Epic) sealed()               {}

func (t Task) Kind() Kind          { return KindTask }
func (t Task) EntityID() int       { return t.ID }
func (t Task) EntityTitle() string { return t.Title }
func (t Task) DueRaw() string      { return deref(t.DueDate) }
func (Task) sealed()               {}

// OwningProjectID resolves the project a task belongs to. The API fills
// either the flat field or the nested project depending on the endpoint.
func (t Task) OwningProjectID() int {
	if t.ProjectID != 0 {
		return t.ProjectID
	}
	if t.Project != nil {
		return t.Project.ID
	}
	return 0
}

// Description returns the free-text description of any entity.
func Description(e Entity) string {
	switch v := e.(type) {
	case Project:
		return v.Description
	case Epic:
		return v.Description
	case Task:
		return v.Description
	}
	return ""
}

// Status returns the workflow status of any entity.
func Status(e Entity) string {
	switch v := e.(type) {
	case Project:
		return v.Status
	case Epic:
		return v.Status
	case Task:
		return v.Status
	}
	return ""
}

// Key identifies an entity across kinds ("task-7").
func Key(e Entity) string {
	return string(e.Kind()) + "-" + strconv.Itoa(e.EntityID())
}

// Ref is the flat projection used for machine-readable output.
type Ref struct {
	Type    Kind    `json:"type"`
	ID      int     `json:"id"`
	Title   string  `json:"title"`
	DueDate *string `json:"due_date"`
	Status  string  `json:"status,omitempty"`
}

func RefOf(e Entity) Ref {
	r := Ref{Type: e.Kind(), ID: e.EntityID(), Title: e.EntityTitle(), Status: Status(e)}
	if raw := e.DueRaw(); raw != "" {
		r.DueDate = &raw
	}
	return r
}

// Scope selects which entities the calendar shows: everything visible to the
// caller, or a single project.
type Scope struct {
	ProjectID int
}

func AllScope() Scope { return Scope{} }

func ProjectScope(id int) Scope { return Scope{ProjectID: id} }

func (s Scope) IsAll() bool { return s.ProjectID <= 0 }

func (s Scope) String() string {
	if s.IsAll() {
		return "all"
	}
	return "project-" + strconv.Itoa(s.ProjectID)
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return strings.TrimSpace(*s)
}
