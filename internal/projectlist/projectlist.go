// Package projectlist drives the dashboard: one page of projects at a time,
// a debounced search box, and the create/edit/delete lifecycle.
//
// The page index is kept zero-based; page numbers in and out of the public
// methods are one-based. Every fetch is tied to the (page, size, search) key
// it was issued for, and a result that arrives after the key moved on, or
// after a newer fetch was issued, is dropped instead of repainting the list.
package projectlist

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"time"

	"taskaura/internal/apiclient"
	"taskaura/internal/confirm"
	"taskaura/internal/debounce"
	"taskaura/internal/models"
	"taskaura/internal/pagination"
	"taskaura/internal/querycache"
	"taskaura/internal/validation"
)

// DefaultSearchDelay is the quiet period before a search term is applied.
const DefaultSearchDelay = 500 * time.Millisecond

// Prefix is the cache family holding every projects page.
const Prefix querycache.Key = "projects"

var (
	ErrBusy            = errors.New("projectlist: request already in flight")
	ErrInvalidDraft    = errors.New("projectlist: draft has invalid fields")
	ErrInvalidPageSize = errors.New("projectlist: unsupported page size")
	ErrNoPendingDelete = errors.New("projectlist: no project selected for deletion")
)

// API is the part of the remote API the dashboard calls.
type API interface {
	ListProjects(ctx context.Context, q apiclient.ProjectQuery) (models.Page[models.Project], error)
	CreateProject(ctx context.Context, req models.ProjectRequest) (models.Project, error)
	UpdateProject(ctx context.Context, id int64, req models.ProjectRequest) (models.Project, error)
	DeleteProject(ctx context.Context, id int64) error
}

// Options configures an Orchestrator.
type Options struct {
	API         API
	Cache       *querycache.Cache
	Logger      *slog.Logger
	Clock       debounce.Clock
	SearchDelay time.Duration
	PageSize    int
	// DeleteDialog overrides the default confirmation wording.
	DeleteDialog []confirm.Option
}

// Draft is the project form being composed.
type Draft struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

type key struct {
	page   int
	size   int
	search string
}

func (k key) cacheKey() querycache.Key {
	return querycache.NewKey(Prefix, k.page, k.size, k.search)
}

func (k key) query() apiclient.ProjectQuery {
	return apiclient.ProjectQuery{Page: k.page, Size: k.size, Search: k.search}
}

// Orchestrator owns the dashboard state. All methods are safe for
// concurrent use; network calls never run while the state lock is held.
type Orchestrator struct {
	mu     sync.Mutex
	api    API
	cache  *querycache.Cache
	logger *slog.Logger
	search *debounce.Value[string]

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup

	pageIndex  int
	pageSize   int
	searchTerm string
	loadSeq    uint64
	page       *models.Page[models.Project]
	loading    bool
	fetchErr   error

	modalOpen     bool
	editingID     int64
	pendingDelete int64
	draft         Draft
	fieldErrors   validation.Errors
	serverError   string
	deleteError   string
	dialog        confirm.Dialog

	creating bool
	updating bool
	deleting bool
}

// New builds an orchestrator. Nothing is fetched until Load or a state
// change that needs data.
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
	size := opts.PageSize
	if !pagination.ValidSize(size) {
		size = pagination.DefaultSize
	}

	ctx, cancel := context.WithCancel(context.Background())
	o := &Orchestrator{
		api:         opts.API,
		cache:       cache,
		logger:      logger.With(slog.String("component", "projectlist")),
		ctx:         ctx,
		cancel:      cancel,
		pageSize:    size,
		fieldErrors: validation.Errors{},
		dialog:      confirm.New(confirm.Project, opts.DeleteDialog...),
	}
	o.search = debounce.New("", delay, opts.Clock, o.onSearchSettled)
	return o
}

// Close stops pending searches and background fetches.
func (o *Orchestrator) Close() {
	o.search.Stop()
	o.cancel()
	o.wg.Wait()
}

// Wait blocks until background fetches started so far have finished.
func (o *Orchestrator) Wait() {
	o.wg.Wait()
}

func (o *Orchestrator) currentKeyLocked() key {
	return key{
		page:   o.pageIndex,
		size:   o.pageSize,
		search: o.searchTerm,
	}
}

// Load fetches the page for the current key. A result for a key that is no
// longer current, or one overtaken by a later Load, is discarded and Load
// returns nil.
func (o *Orchestrator) Load(ctx context.Context) error {
	o.mu.Lock()
	k := o.currentKeyLocked()
	o.loadSeq++
	seq := o.loadSeq
	o.loading = true
	o.mu.Unlock()

	page, err := querycache.Fetch(ctx, o.cache, k.cacheKey(), func(ctx context.Context) (models.Page[models.Project], error) {
		return o.api.ListProjects(ctx, k.query())
	})

	o.mu.Lock()
	defer o.mu.Unlock()
	if o.currentKeyLocked() != k || o.loadSeq != seq {
		o.logger.Debug("discarding stale projects page",
			slog.Int("page", k.page), slog.Int("size", k.size), slog.String("search", k.search))
		return nil
	}
	o.loading = false
	if err != nil {
		o.fetchErr = err
		o.logger.Error("load projects", slog.String("error", err.Error()))
		return fmt.Errorf("load projects: %w", err)
	}
	o.fetchErr = nil
	o.page = &page
	return nil
}

// refresh reloads the current key in the background.
func (o *Orchestrator) refresh() {
	if o.ctx.Err() != nil {
		return
	}
	o.wg.Add(1)
	go func() {
		defer o.wg.Done()
		_ = o.Load(o.ctx)
	}()
}

// SetSearch buffers the search input. The list follows once typing pauses.
func (o *Orchestrator) SetSearch(term string) {
	o.search.Set(term)
}

// ClearSearch empties the search box.
func (o *Orchestrator) ClearSearch() {
	o.search.Set("")
}

func (o *Orchestrator) onSearchSettled(term string) {
	o.mu.Lock()
	o.searchTerm = strings.TrimSpace(term)
	o.pageIndex = 0
	o.mu.Unlock()
	o.logger.Debug("search applied", slog.String("term", term))
	o.refresh()
}

func (o *Orchestrator) totalPagesLocked() int {
	if o.page == nil {
		return 0
	}
	return o.page.TotalPages
}

// GoToPage moves to the one-based page number. Numbers outside
// [1, totalPages] are ignored, as is any move before the first page loaded.
func (o *Orchestrator) GoToPage(number int) bool {
	o.mu.Lock()
	index := pagination.Index(number)
	if !pagination.InRange(index, o.totalPagesLocked()) || index == o.pageIndex {
		o.mu.Unlock()
		return false
	}
	o.pageIndex = index
	o.mu.Unlock()
	o.refresh()
	return true
}

// NextPage advances one page when there is one.
func (o *Orchestrator) NextPage() bool {
	o.mu.Lock()
	next := o.pageIndex + 1
	o.mu.Unlock()
	return o.GoToPage(pagination.Number(next))
}

// PreviousPage goes back one page when possible.
func (o *Orchestrator) PreviousPage() bool {
	o.mu.Lock()
	prev := o.pageIndex - 1
	o.mu.Unlock()
	return o.GoToPage(pagination.Number(prev))
}

// SetPageSize switches the page size and returns to the first page.
func (o *Orchestrator) SetPageSize(size int) error {
	if !pagination.ValidSize(size) {
		return fmt.Errorf("%w: %d", ErrInvalidPageSize, size)
	}
	o.mu.Lock()
	o.pageSize = size
	o.pageIndex = 0
	o.mu.Unlock()
	o.refresh()
	return nil
}

// OpenCreate opens an empty project form.
func (o *Orchestrator) OpenCreate() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.editingID = 0
	o.draft = Draft{}
	o.fieldErrors = validation.Errors{}
	o.serverError = ""
	o.modalOpen = true
}

// OpenEdit opens the form prefilled with project.
func (o *Orchestrator) OpenEdit(project models.Project) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.editingID = project.ID
	o.draft = Draft{Title: project.Title, Description: project.Description}
	o.fieldErrors = validation.Errors{}
	o.serverError = ""
	o.modalOpen = true
}

// OpenEditByID opens the form for a project on the loaded page.
func (o *Orchestrator) OpenEditByID(id int64) bool {
	o.mu.Lock()
	var found *models.Project
	if o.page != nil {
		for i := range o.page.Content {
			if o.page.Content[i].ID == id {
				p := o.page.Content[i]
				found = &p
				break
			}
		}
	}
	o.mu.Unlock()
	if found == nil {
		return false
	}
	o.OpenEdit(*found)
	return true
}

// CloseModal discards the draft and any errors.
func (o *Orchestrator) CloseModal() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.closeModalLocked()
}

func (o *Orchestrator) closeModalLocked() {
	o.modalOpen = false
	o.editingID = 0
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
	default:
		return false
	}
	o.fieldErrors.Clear(name)
	return true
}

// Submit validates the draft and creates or updates the project. Field
// errors are kept in the state and ErrInvalidDraft is returned without any
// request. A server failure leaves the form open with a message.
func (o *Orchestrator) Submit(ctx context.Context) error {
	o.mu.Lock()
	if o.creating || o.updating {
		o.mu.Unlock()
		return ErrBusy
	}
	o.serverError = ""
	errs := validation.Project.Validate(validation.ProjectInput(o.draft))
	if !errs.Empty() {
		o.fieldErrors = errs
		o.mu.Unlock()
		return ErrInvalidDraft
	}
	o.fieldErrors = validation.Errors{}

	editing := o.editingID
	req := models.ProjectRequest{Title: o.draft.Title, Description: o.draft.Description}
	if editing != 0 {
		o.updating = true
	} else {
		o.creating = true
	}
	o.mu.Unlock()

	var err error
	if editing != 0 {
		_, err = o.api.UpdateProject(ctx, editing, req)
	} else {
		_, err = o.api.CreateProject(ctx, req)
	}

	o.mu.Lock()
	o.creating = false
	o.updating = false
	if err != nil {
		o.serverError = apiclient.Message(err, apiclient.GenericErrorMessage)
		o.mu.Unlock()
		o.logger.Error("save project", slog.Int64("id", editing), slog.String("error", err.Error()))
		return err
	}
	o.closeModalLocked()
	o.mu.Unlock()

	o.cache.Invalidate(Prefix)
	o.refresh()
	return nil
}

// RequestDelete asks for confirmation before deleting id.
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

// ConfirmDelete deletes the pending project. The pending id is cleared only
// when the server accepted the deletion.
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
	o.deleting = true
	o.deleteError = ""
	o.mu.Unlock()

	err := o.api.DeleteProject(ctx, id)

	o.mu.Lock()
	o.deleting = false
	if err != nil {
		o.deleteError = apiclient.Message(err, apiclient.GenericErrorMessage)
		o.mu.Unlock()
		o.logger.Error("delete project", slog.Int64("id", id), slog.String("error", err.Error()))
		return err
	}
	if o.pendingDelete == id {
		o.pendingDelete = 0
	}
	o.mu.Unlock()

	o.cache.Invalidate(Prefix)
	o.refresh()
	return nil
}
