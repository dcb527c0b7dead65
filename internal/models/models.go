package models

import "time"

// User is the authenticated account as reported by the whoami endpoint.
type User struct {
	ID       int64    `json:"id"`
	Email    string   `json:"email"`
	Username string   `json:"username"`
	Roles    []string `json:"roles"`
}

// HasRole reports whether the user carries the given role.
func (u User) HasRole(role string) bool {
	for _, r := range u.Roles {
		if r == role {
			return true
		}
	}
	return false
}

// Project groups tasks. Progress and counters are computed by the server.
type Project struct {
	ID                 int64      `json:"id"`
	Title              string     `json:"title"`
	Description        string     `json:"description,omitempty"`
	ProgressPercentage int        `json:"progressPercentage"`
	CompletedTaskCount int        `json:"completedTaskCount"`
	TaskCount          int        `json:"taskCount"`
	CreatedAt          *time.Time `json:"createdAt,omitempty"`
	UpdatedAt          *time.Time `json:"updatedAt,omitempty"`
}

// Task is a single unit of work inside a project.
type Task struct {
	ID          int64  `json:"id"`
	Title       string `json:"title"`
	Description string `json:"description"`
	DueDate     string `json:"dueDate"`
	Completed   bool   `json:"completed"`
	ProjectID   int64  `json:"projectId"`
}

// DueTime parses the due date. A missing or unparsable date yields the zero
// time and false.
func (t Task) DueTime() (time.Time, bool) {
	return ParseDate(t.DueDate)
}

// Page is one window over a server-paginated collection. Number is zero-based.
type Page[T any] struct {
	Content       []T  `json:"content"`
	TotalElements int  `json:"totalElements"`
	TotalPages    int  `json:"totalPages"`
	Number        int  `json:"number"`
	Size          int  `json:"size"`
	First         bool `json:"first"`
	Last          bool `json:"last"`
	Empty         bool `json:"empty"`
}

// ProjectRequest is the body of project create and update calls.
type ProjectRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

// TaskRequest is the body of the task create call.
type TaskRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	DueDate     string `json:"dueDate"`
	ProjectID   int64  `json:"projectId"`
}

// Credentials is the sign-in body.
type Credentials struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Registration is the sign-up body.
type Registration struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

var dateLayouts = []string{
	"2006-01-02",
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
}

// ParseDate accepts the date formats the API and date inputs produce.
func ParseDate(raw string) (time.Time, bool) {
	if raw == "" {
		return time.Time{}, false
	}
	for _, layout := range dateLayouts {
		if ts, err := time.Parse(layout, raw); err == nil {
			return ts, true
		}
	}
	return time.Time{}, false
}
