package apiclient

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"taskaura/internal/models"
)

// ProjectQuery selects one page of the project collection. Page is zero-based.
type ProjectQuery struct {
	Page   int
	Size   int
	Search string
}

// Values renders the query string. The search parameter is omitted when blank.
func (q ProjectQuery) Values() url.Values {
	values := url.Values{}
	values.Set("page", strconv.Itoa(q.Page))
	values.Set("size", strconv.Itoa(q.Size))
	if term := strings.TrimSpace(q.Search); term != "" {
		values.Set("search", term)
	}
	return values
}

// CurrentUser asks the whoami endpoint. It never retries so an anonymous
// visitor is probed once.
func (c *Client) CurrentUser(ctx context.Context) (models.User, error) {
	var user models.User
	err := c.do(ctx, request{method: http.MethodGet, path: "/auth/user", out: &user})
	return user, err
}

// SignIn exchanges credentials for a session cookie.
func (c *Client) SignIn(ctx context.Context, creds models.Credentials) error {
	return c.do(ctx, request{method: http.MethodPost, path: "/auth/signin", body: creds})
}

// SignUp registers a new account.
func (c *Client) SignUp(ctx context.Context, reg models.Registration) error {
	return c.do(ctx, request{method: http.MethodPost, path: "/auth/signup", body: reg})
}

// SignOut ends the session.
func (c *Client) SignOut(ctx context.Context) error {
	return c.do(ctx, request{method: http.MethodPost, path: "/auth/signout"})
}

// ListProjects fetches one page of projects.
func (c *Client) ListProjects(ctx context.Context, q ProjectQuery) (models.Page[models.Project], error) {
	var page models.Page[models.Project]
	err := c.do(ctx, request{method: http.MethodGet, path: "/projects", query: q.Values(), out: &page, retry: true})
	return page, err
}

// GetProject fetches a single project.
func (c *Client) GetProject(ctx context.Context, id int64) (models.Project, error) {
	var project models.Project
	err := c.do(ctx, request{method: http.MethodGet, path: projectPath(id), out: &project, retry: true})
	return project, err
}

// CreateProject creates a project.
func (c *Client) CreateProject(ctx context.Context, req models.ProjectRequest) (models.Project, error) {
	var project models.Project
	err := c.do(ctx, request{method: http.MethodPost, path: "/projects", body: req, out: &project})
	return project, err
}

// UpdateProject replaces a project's title and description.
func (c *Client) UpdateProject(ctx context.Context, id int64, req models.ProjectRequest) (models.Project, error) {
	var project models.Project
	err := c.do(ctx, request{method: http.MethodPut, path: projectPath(id), body: req, out: &project})
	return project, err
}

// DeleteProject removes a project and its tasks.
func (c *Client) DeleteProject(ctx context.Context, id int64) error {
	return c.do(ctx, request{method: http.MethodDelete, path: projectPath(id)})
}

// ListTasks fetches every task of a project.
func (c *Client) ListTasks(ctx context.Context, projectID int64) ([]models.Task, error) {
	var tasks []models.Task
	err := c.do(ctx, request{method: http.MethodGet, path: projectPath(projectID) + "/tasks", out: &tasks, retry: true})
	return tasks, err
}

// CreateTask adds a task to a project.
func (c *Client) CreateTask(ctx context.Context, projectID int64, req models.TaskRequest) (models.Task, error) {
	var task models.Task
	err := c.do(ctx, request{method: http.MethodPost, path: projectPath(projectID) + "/tasks", body: req, out: &task})
	return task, err
}

// UpdateTask sends the full task payload.
func (c *Client) UpdateTask(ctx context.Context, task models.Task) (models.Task, error) {
	var updated models.Task
	err := c.do(ctx, request{method: http.MethodPut, path: taskPath(task.ID), body: task, out: &updated})
	return updated, err
}

// DeleteTask removes a task.
func (c *Client) DeleteTask(ctx context.Context, id int64) error {
	return c.do(ctx, request{method: http.MethodDelete, path: taskPath(id)})
}

func projectPath(id int64) string {
	return "/projects/" + strconv.FormatInt(id, 10)
}

func taskPath(id int64) string {
	return "/tasks/" + strconv.FormatInt(id, 10)
}
