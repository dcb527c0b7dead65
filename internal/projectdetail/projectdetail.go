// Package projectdetail drives the page of a single project: the project
// header, its task list with filter, sort and search, and the task
// create/edit/toggle/delete lifecycle.
package projectdetail

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"taskaura/internal/apiclient"
	"taskaura/internal/confirm"
	"taskaura/internal/debounce"
	"taskaura/internal/models"
	"taskaura/internal/querycache"
	"taskaura/internal/validation"
)

// DefaultSearchDelay is the quiet period of the task search box.
const DefaultSearchDelay = 300 * time.Millisecond

// ProjectsPrefix is the dashboard cache family; task changes move its counters.
const ProjectsPrefix querycache.Key = "projects"

var (
	ErrNoProject       = errors.New("projectdetail: no project selected")
	ErrBusy            = errors.New("projectdetail: request already in flight")
	ErrInvalidDraft    = errors.New("projectdetail: draft has invalid fields")
	ErrNoPendingDelete = errors.New("projectdetail: no task selected for deletion")
	ErrUnknownTask     = errors.New("projectdetail: task is not loaded")
)

// API is the part of the remote API the project page calls.
type API interface {
	GetProject(ctx context.Context, id int64) (models.Project, error)
	ListTasks(ctx context.Context, projectID int64) ([]models.Task, error)
	CreateTask(ctx context.Context, projectID int64, req models.TaskRequest) (models.Task, error)
	UpdateTask(ctx context.Context, task models.Task) (models.Task, error)
	DeleteTask(ctx context.Context, id int64) error
}

// Options configures an Orchestrator.
type Options struct {
	API          API
	Cache        *querycache.Cache
	Logger       *slog.Logger
	Clock        debounce.Clock
	SearchDelay  time.Duration
	DeleteDialog []confirm.Option
}

// Draft is the task form being composed.
type Draft struct {
	Title       string `json:"title"`
	Description string `json:"description"`
	DueDate     string `json:"dueDate"`
}

// ProjectKey is the cache key of one project.
func ProjectKey(id int64) querycache.Key { return querycache.NewKey("project", id) }

// TasksKey is the cache key of one project's tasks.
func TasksKey(id int64) querycache.Key { return querycache.NewKey("tasks", id) }

type memo struct {
	valid    bool
	version  uint64
	criteria Criteria
	tasks    []models.Task
}

// Orchestrator owns the project page state.
type Orchestrator struct {
	mu     sync.Mutex
	api    API
	cache  *querycache.Cache
	logger *slog.Logger
	search *debounce.Value[string]

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	projectID      int64
	project        *models.Project
	tasks          []models.Task
	tasksVersion   uint64
	loadSeq        uint64
	projectLoading bool
	tasksLoading   bool
	projectErr     error
	tasksErr       error

	filter Filter
	sort   SortKey
	order  SortOrder
	memo   memo

	modalOpen        bool
	editingID        int64
	editingCompleted bool
	draft            Draft
	fieldErrors      validation.Errors
	serverError      string

	pendingDelete int64
	deleteError   string
	dialog        confirm.Dialog

	toggling    map[int64]bool
	toggleError string

	saving   bool
	deleting bool
}

// New builds an orchestrator with no project selected.
func New(opts Options) *Orchestrator {
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	cache := opts.Cache
	if cache == nil {
		cache = querycache.New(logger)
	}
	delay := opts.SearchDelay
	if delay <= 0 {
		delay = DefaultSearchDelay
	}

	ctx, cancel := context.WithCancel(context.Background())
	o := &Orchestrator{
		api:         opts.API,
		cache:       cache,
		logger:      logger.With(slog.String("component", "projectdetail")),
		ctx:         ctx,
		cancel:      cancel,
		filter:      DefaultCriteria.Filter,
		sort:        DefaultCriteria.Sort,
		order:       DefaultCriteria.Order,
		fieldErrors: validation.Errors{},
		dialog:      confirm.New(confirm.Task, opts.DeleteDialog...),
		toggling:    map[int64]bool{},
	}
	o.search = debounce.New("", delay, opts.Clock, nil)
	return o
}

// Close stops the search debouncer and background fetches.
func (o *Orchestrator) Close() {
	o.search.Stop()
	o.cancel()
	o.wg.Wait()
}

// Wait blocks until background fetches started so far have finished.
func (o *Orchestrator) Wait() {
	o.wg.Wait()
}

// ParseID reads a route parameter. Anything but a positive integer is none.
func ParseID(raw string) (int64, bool) {
	id, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}

// Open selects the project named by the route parameter. Switching to a
// different project drops the loaded data, the form and the pending delete.
func (o *Orchestrator) Open(rawID string) error {
	id, ok := ParseID(rawID)

	o.mu.Lock()
	defer o.mu.Unlock()
	if id != o.projectID {
		o.projectID = id
		o.project = nil
		o.tasks = nil
		o.tasksVersion++
		o.projectErr = nil
		o.tasksErr = nil
		o.projectLoading = false
		o.tasksLoading = false
		o.closeModalLocked()
		o.pendingDelete = 0
		o.deleteError = ""
		o.toggleError = ""
	}
	if !ok {
		return fmt.Errorf("%w: %q", ErrNoProject, rawID)
	}
	return nil
}

// ProjectID returns the selected project, 0 when none.
func (o *Orchestrator) ProjectID() int64 {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.projectID
}

// Load runs the project and task reads side by side. Results for a project
// that is no longer selected, or overtaken by a later Load, are dropped.
func (o *Orchestrator) Load(ctx context.Context) error {
	o.mu.Lock()
	id := o.projectID
	if id == 0 {
		o.mu.Unlock()
		return ErrNoProject
	}
	o.loadSeq++
	seq := o.loadSeq
	o.projectLoading = true
	o.tasksLoading = true
	o.mu.Unlock()

	var g errgroup.Group
	g.Go(func() error {
		project, err := querycache.Fetch(ctx, o.cache, ProjectKey(id), func(ctx context.Context) (models.Project, error) {
			return o.api.GetProject(ctx, id)
		})
		o.mu.Lock()
		defer o.mu.Unlock()
		if o.projectID != id || o.loadSeq != seq {
			return nil
		}
		o.projectLoading = false
		o.projectErr = err
		if err != nil {
			return fmt.Errorf("load project %d: %w", id, err)
		}
		o.project = &project
		return nil
	})
	g.Go(func() error {
		tasks, err := querycache.Fetch(ctx, o.cache, TasksKey(id), func(ctx context.Context) ([]models.Task, error) {
			return o.api.ListTasks(ctx, id)
		})
		o.mu.Lock()
		defer o.mu.Unlock()
		if o.projectID != id || o.loadSeq != seq {
			return nil
		}
		o.tasksLoading = false
		o.tasksErr = err
		if err != nil {
			return fmt.Errorf("load tasks of %d: %w", id, err)
		}
		o.tasks = append([]models.Task(nil), tasks...)
		o.tasksVersion++
		return nil
	})

	err := g.Wait()
	if err != nil {
		o.logger.Error("load project page", slog.Int64("project", id), slog.String("error", err.Error()))
	}
	return err
}

func (o *Orchestrator) refresh() {
	if o.ctx.Err() != nil {
		return
	}
	o.wg.Add(1)
	go func() {
		defer o.wg.Done()
		if err := o.Load(o.ctx); err != nil && !errors.Is(err, ErrNoProject) {
			o.logger.Debug("background refresh failed", slog.String("error", err.Error()))
		}
	}()
}

func (o *Orchestrator) invalidate(projectID int64) {
	o.cache.Invalidate(ProjectKey(projectID))
	o.cache.Invalidate(TasksKey(projectID))
	o.cache.Invalidate(ProjectsPrefix)
	o.refresh()
}

// SetFilter changes the status filter.
func (o *Orchestrator) SetFilter(f Filter) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.filter = f
}

// SetSort changes the sort key.
func (o *Orchestrator) SetSort(k SortKey) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.sort = k
}

// SetSortOrder changes the sort direction.
func (o *Orchestrator) SetSortOrder(order SortOrder) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.order = order
}

// SetSearch buffers the task search input.
func (o *Orchestrator) SetSearch(term string) {
	o.search.Set(term)
}

func (o *Orchestrator) criteriaLocked() Criteria {
	return Criteria{Filter: o.filter, Sort: o.sort, Order: o.order, Search: o.search.Settled()}
}

// VisibleTasks returns the filtered and sorted tasks. The result is reused
// until the tasks or any criterion change.
func (o *Orchestrator) VisibleTasks() []models.Task {
	o.mu.Lock()
	defer o.mu.Unlock()
	return append([]models.Task(nil), o.visibleLocked()...)
}

func (o *Orchestrator) visibleLocked() []models.Task {
	c := o.criteriaLocked()
	if o.memo.valid && o.memo.version == o.tasksVersion && o.memo.criteria == c {
		return o.memo.tasks
	}
	o.memo = memo{valid: true, version: o.tasksVersion, criteria: c, tasks: Visible(o.tasks, c)}
	return o.memo.tasks
}

func (o *Orchestrator) findLocked(id int64) (models.Task, bool) {
	for _, t := range o.tasks {
		if t.ID == id {
			return t, true
		}
	}
	return models.Task{}, false
}

// Toggle flips the completion of task, sending every other field unchanged.
func (o *Orchestrator) Toggle(ctx context.Context, task models.Task) error {
	o.mu.Lock()
	if o.toggling[task.ID] {
		o.mu.Unlock()
		return ErrBusy
	}
	o.toggling[task.ID] = true
	o.toggleError = ""
	projectID := o.projectID
	o.mu.Unlock()
	if task.ProjectID != 0 {
		projectID = task.ProjectID
	}

	task.Completed = !task.Completed
	_, err := o.api.UpdateTask(ctx, task)

	o.mu.Lock()
	delete(o.toggling, task.ID)
	if err != nil {
		o.toggleError = apiclient.Message(err, apiclient.GenericErrorMessage)
		o.mu.Unlock()
		o.logger.Error("toggle task", slog.Int64("task", task.ID), slog.String("error", err.Error()))
		return err
	}
	o.mu.Unlock()

	o.invalidate(projectID)
	return nil
}

// ToggleByID toggles a loaded task.
func (o *Orchestrator) ToggleByID(ctx context.Context, id int64) error {
	o.mu.Lock()
	task, ok := o.findLocked(id)
	o.mu.Unlock()
	if !ok {
		return fmt.Errorf("%w: %d", ErrUnknownTask, id)
	}
	return o.Toggle(ctx, task)
}

// OpenCreate opens an empty task form.
func (o *Orchestrator) OpenCreate() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.closeModalLocked()
	o.modalOpen = true
}

// OpenEdit opens the form prefilled with task. The date is cut to the day
// the date input expects.
func (o *Orchestrator) OpenEdit(task models.Task) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.closeModalLocked()
	o.editingID = task.ID
	o.editingCompleted = task.Completed
	o.draft = Draft{Title: task.Title, Description: task.Description, DueDate: dateInput(task.DueDate)}
	o.modalOpen = true
}

// OpenEditByID opens the form for a loaded task.
func (o *Orchestrator) OpenEditByID(id int64) error {
	o.mu.Lock()
	task, ok := o.findLocked(id)
	o.mu.Unlock()
	if !ok {
		return fmt.Errorf("%w: %d", ErrUnknownTask, id)
	}
	o.OpenEdit(task)
	return nil
}

func dateInput(raw string) string {
	if ts, ok := models.ParseDate(raw); ok {
		return ts.Format("2006-01-02")
	}
	return raw
}

// CloseModal discards the draft and errors.
func (o *Orchestrator) CloseModal() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.closeModalLocked()
}

func (o *Orchestrator) closeModalLocked() {
	o.modalOpen = false
	o.editingID = 0
	o.editingCompleted = false
	o.draft = Draft{}
	o.fieldErrors = validation.Errors{}
	o.serverError = ""
}

// ChangeField edits one draft field and clears its error.
func (o *Orchestrator) ChangeField(name, value string) bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	switch name {
	case "title":
		o.draft.Title = value
	case "description":
		o.draft.Description = value
	case "dueDate":
		o.draft.DueDate = value
	default:
		return false
	}
	o.fieldErrors.Clear(name)
	return true
}

// Submit validates the draft and creates or updates the task. An update
// sends the completion state of the task as currently loaded.
func (o *Orchestrator) Submit(ctx context.Context) error {
	o.mu.Lock()
	if o.projectID == 0 {
		o.mu.Unlock()
		return ErrNoProject
	}
	if o.saving {
		o.mu.Unlock()
		return ErrBusy
	}
	o.serverError = ""
	errs := validation.Task.Validate(validation.TaskInput(o.draft))
	if !errs.Empty() {
		o.fieldErrors = errs
		o.mu.Unlock()
		return ErrInvalidDraft
	}
	o.fieldErrors = validation.Errors{}

	projectID := o.projectID
	editing := o.editingID
	draft := o.draft
	completed := o.editingCompleted
	if task, ok := o.findLocked(editing); ok {
		completed = task.Completed
	}
	o.saving = true
	o.mu.Unlock()

	var err error
	if editing != 0 {
		_, err = o.api.UpdateTask(ctx, models.Task{
			ID:          editing,
			Title:       draft.Title,
			Description: draft.Description,
			DueDate:     draft.DueDate,
			Completed:   completed,
			ProjectID:   projectID,
		})
	} else {
		_, err = o.api.CreateTask(ctx, projectID, models.TaskRequest{
			Title:       draft.Title,
			Description: draft.Description,
			DueDate:     draft.DueDate,
			ProjectID:   projectID,
		})
	}

	o.mu.Lock()
	o.saving = false
	if err != nil {
		o.serverError = apiclient.Message(err, apiclient.GenericErrorMessage)
		o.mu.Unlock()
		o.logger.Error("save task", slog.Int64("task", editing), slog.String("error", err.Error()))
		return err
	}
	o.closeModalLocked()
	o.mu.Unlock()

	o.invalidate(projectID)
	return nil
}

// RequestDelete asks for confirmation before deleting task id.
func (o *Orchestrator) RequestDelete(id int64) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.pendingDelete = id
	o.deleteError = ""
}

// CancelDelete dismisses the confirmation.
func (o *Orchestrator) CancelDelete() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.pendingDelete = 0
	o.deleteError = ""
}

// ConfirmDelete deletes the pending task. The pending id survives a failure.
func (o *Orchestrator) ConfirmDelete(ctx context.Context) error {
	o.mu.Lock()
	if o.pendingDelete == 0 {
		o.mu.Unlock()
		return ErrNoPendingDelete
	}
	if o.deleting {
		o.mu.Unlock()
		return ErrBusy
	}
	id := o.pendingDelete
	projectID := o.projectID
	o.deleting = true
	o.deleteError = ""
	o.mu.Unlock()

	err := o.api.DeleteTask(ctx, id)

	o.mu.Lock()
	o.deleting = false
	if err != nil {
		o.deleteError = apiclient.Message(err, apiclient.GenericErrorMessage)
		o.mu.Unlock()
		o.logger.Error("delete task", slog.Int64("task", id), slog.String("error", err.Error()))
		return err
	}
	if o.pendingDelete == id {
		o.pendingDelete = 0
	}
	o.mu.Unlock()

	o.invalidate(projectID)
	return nil
}
