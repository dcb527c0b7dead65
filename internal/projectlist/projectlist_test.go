package projectlist

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"testing"
	"time"

	"taskaura/internal/apiclient"
	"taskaura/internal/debounce"
	"taskaura/internal/models"
	"taskaura/internal/pagination"
)

type MockAPI struct {
	mu      sync.Mutex
	queries []apiclient.ProjectQuery

	ListProjectsFunc  func(ctx context.Context, q apiclient.ProjectQuery) (models.Page[models.Project], error)
	CreateProjectFunc func(ctx context.Context, req models.ProjectRequest) (models.Project, error)
	UpdateProjectFunc func(ctx context.Context, id int64, req models.ProjectRequest) (models.Project, error)
	DeleteProjectFunc func(ctx context.Context, id int64) error
}

var _ API = (*MockAPI)(nil)

func (m *MockAPI) ListProjects(ctx context.Context, q apiclient.ProjectQuery) (models.Page[models.Project], error) {
	m.mu.Lock()
	m.queries = append(m.queries, q)
	m.mu.Unlock()
	if m.ListProjectsFunc != nil {
		return m.ListProjectsFunc(ctx, q)
	}
	return catalog(20)(ctx, q)
}

func (m *MockAPI) CreateProject(ctx context.Context, req models.ProjectRequest) (models.Project, error) {
	if m.CreateProjectFunc != nil {
		return m.CreateProjectFunc(ctx, req)
	}
	return models.Project{ID: 99, Title: req.Title}, nil
}

func (m *MockAPI) UpdateProject(ctx context.Context, id int64, req models.ProjectRequest) (models.Project, error) {
	if m.UpdateProjectFunc != nil {
		return m.UpdateProjectFunc(ctx, id, req)
	}
	return models.Project{ID: id, Title: req.Title}, nil
}

func (m *MockAPI) DeleteProject(ctx context.Context, id int64) error {
	if m.DeleteProjectFunc != nil {
		return m.DeleteProjectFunc(ctx, id)
	}
	return nil
}

func (m *MockAPI) lastQuery() apiclient.ProjectQuery {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.queries[len(m.queries)-1]
}

func (m *MockAPI) queryCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.queries)
}

// catalog serves total projects numbered from 1, paginated like the API.
func catalog(total int) func(context.Context, apiclient.ProjectQuery) (models.Page[models.Project], error) {
	return func(_ context.Context, q apiclient.ProjectQuery) (models.Page[models.Project], error) {
		pages := pagination.TotalPages(total, q.Size)
		page := models.Page[models.Project]{
			Content:       []models.Project{},
			TotalElements: total,
			TotalPages:    pages,
			Number:        q.Page,
			Size:          q.Size,
			First:         q.Page == 0,
			Last:          q.Page >= pages-1,
			Empty:         total == 0,
		}
		for i := q.Page*q.Size + 1; i <= total && i <= (q.Page+1)*q.Size; i++ {
			page.Content = append(page.Content, models.Project{ID: int64(i), Title: fmt.Sprintf("Project %d", i)})
		}
		return page, nil
	}
}

func newTestOrchestrator(t *testing.T, api *MockAPI) (*Orchestrator, *debounce.FakeClock) {
	t.Helper()
	clock := debounce.NewFakeClock(time.Unix(0, 0))
	o := New(Options{API: api, Clock: clock})
	t.Cleanup(o.Close)
	if err := o.Load(context.Background()); err != nil {
		t.Fatalf("initial load: %v", err)
	}
	return o, clock
}

func TestInitialLoad(t *testing.T) {
	api := &MockAPI{}
	o, _ := newTestOrchestrator(t, api)

	v := o.View()
	if v.Page != 1 || v.PageSize != pagination.DefaultSize || v.TotalPages != 4 {
		t.Fatalf("unexpected view %+v", v)
	}
	if len(v.Projects) != 6 || v.RangeStart != 1 || v.RangeEnd != 6 || v.TotalItems != 20 {
		t.Errorf("unexpected page contents: %d projects, range %d-%d of %d", len(v.Projects), v.RangeStart, v.RangeEnd, v.TotalItems)
	}
	if q := api.lastQuery(); q.Page != 0 || q.Size != 6 || q.Search != "" {
		t.Errorf("unexpected query %+v", q)
	}
	if v.HasPrevious || !v.HasNext {
		t.Error("first page must only allow moving forward")
	}
}

func TestNavigationBounds(t *testing.T) {
	api := &MockAPI{}
	o, _ := newTestOrchestrator(t, api)

	if o.PreviousPage() {
		t.Error("previous on the first page must be a no-op")
	}
	if o.GoToPage(0) || o.GoToPage(5) || o.GoToPage(1) {
		t.Error("out of range or current page must be a no-op")
	}
	if !o.GoToPage(4) {
		t.Fatal("expected move to page 4")
	}
	o.Wait()
	if o.NextPage() {
		t.Error("next on the last page must be a no-op")
	}
	v := o.View()
	if v.Page != 4 || len(v.Projects) != 2 || v.RangeStart != 19 || v.RangeEnd != 20 {
		t.Errorf("unexpected last page %+v", v)
	}

	if !o.PreviousPage() {
		t.Fatal("expected move back")
	}
	o.Wait()
	if got := o.View().Page; got != 3 {
		t.Errorf("expected page 3, got %d", got)
	}
}

func TestNavigationBeforeFirstLoad(t *testing.T) {
	o := New(Options{API: &MockAPI{}, Clock: debounce.NewFakeClock(time.Unix(0, 0))})
	defer o.Close()
	if o.NextPage() || o.GoToPage(2) {
		t.Error("navigation must wait for total pages")
	}
}

func TestPageSizeResetsToFirstPage(t *testing.T) {
	api := &MockAPI{}
	o, _ := newTestOrchestrator(t, api)

	o.GoToPage(3)
	o.Wait()
	if err := o.SetPageSize(12); err != nil {
		t.Fatalf("set size: %v", err)
	}
	o.Wait()
	if q := api.lastQuery(); q.Page != 0 || q.Size != 12 {
		t.Errorf("expected first page of 12, got %+v", q)
	}
	if v := o.View(); v.Page != 1 || v.TotalPages != 2 {
		t.Errorf("unexpected view %+v", v)
	}

	if err := o.SetPageSize(7); !errors.Is(err, ErrInvalidPageSize) {
		t.Errorf("expected ErrInvalidPageSize, got %v", err)
	}
}

func TestSearchIsDebouncedAndResetsPage(t *testing.T) {
	api := &MockAPI{}
	o, clock := newTestOrchestrator(t, api)

	o.GoToPage(3)
	o.Wait()
	before := api.queryCount()

	o.SetSearch("al")
	clock.Advance(200 * time.Millisecond)
	o.SetSearch("  alpha ")
	clock.Advance(DefaultSearchDelay - time.Millisecond)
	if api.queryCount() != before {
		t.Fatal("search must not fetch before the quiet period ends")
	}
	if v := o.View(); v.Search != "  alpha " || v.SearchTerm != "" {
		t.Errorf("raw input should be buffered, got %+v", v)
	}

	clock.Advance(time.Millisecond)
	o.Wait()
	q := api.lastQuery()
	if q.Search != "alpha" || q.Page != 0 {
		t.Errorf("expected first page for alpha, got %+v", q)
	}
	if v := o.View(); v.Page != 1 || v.SearchTerm != "alpha" {
		t.Errorf("unexpected view after search %+v", v)
	}

	o.ClearSearch()
	clock.Advance(DefaultSearchDelay)
	o.Wait()
	if q := api.lastQuery(); q.Search != "" {
		t.Errorf("expected cleared search, got %+v", q)
	}
}

func TestStaleResultIsDiscarded(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{})
	serve := catalog(20)
	api := &MockAPI{}
	api.ListProjectsFunc = func(ctx context.Context, q apiclient.ProjectQuery) (models.Page[models.Project], error) {
		if q.Page == 1 {
			close(started)
			<-release
		}
		return serve(ctx, q)
	}
	o, _ := newTestOrchestrator(t, api)

	o.GoToPage(2)
	<-started
	if err := o.SetPageSize(12); err != nil {
		t.Fatal(err)
	}
	// Load the new key synchronously while the old one is still pending.
	if err := o.Load(context.Background()); err != nil {
		t.Fatal(err)
	}
	close(release)
	o.Wait()

	v := o.View()
	if v.PageSize != 12 || v.Page != 1 || len(v.Projects) != 12 || v.Projects[0].ID != 1 {
		t.Errorf("late page must not replace the current one: %+v", v)
	}
}

func TestKeepsPreviousPageWhileLoading(t *testing.T) {
	release := make(chan struct{})
	serve := catalog(20)
	api := &MockAPI{}
	api.ListProjectsFunc = func(ctx context.Context, q apiclient.ProjectQuery) (models.Page[models.Project], error) {
		if q.Page == 1 {
			<-release
		}
		return serve(ctx, q)
	}
	o, _ := newTestOrchestrator(t, api)

	o.GoToPage(2)
	v := o.View()
	if len(v.Projects) != 6 || v.Projects[0].ID != 1 {
		t.Errorf("expected previous page to stay visible, got %+v", v.Projects)
	}
	close(release)
	o.Wait()
	if v := o.View(); v.Loading || v.Projects[0].ID != 7 {
		t.Errorf("expected page 2 after load, got %+v", v)
	}
}

func TestLoadErrorIsReported(t *testing.T) {
	api := &MockAPI{
		ListProjectsFunc: func(context.Context, apiclient.ProjectQuery) (models.Page[models.Project], error) {
			return models.Page[models.Project]{}, &apiclient.APIError{Status: http.StatusInternalServerError}
		},
	}
	o := New(Options{API: api, Clock: debounce.NewFakeClock(time.Unix(0, 0))})
	defer o.Close()

	if err := o.Load(context.Background()); err == nil {
		t.Fatal("expected error")
	}
	v := o.View()
	if v.Error != apiclient.GenericErrorMessage || v.Loading {
		t.Errorf("unexpected view %+v", v)
	}
}

func TestSubmitValidationSkipsNetwork(t *testing.T) {
	api := &MockAPI{
		CreateProjectFunc: func(context.Context, models.ProjectRequest) (models.Project, error) {
			t.Error("create must not be called for an invalid draft")
			return models.Project{}, nil
		},
	}
	o, _ := newTestOrchestrator(t, api)

	o.OpenCreate()
	if err := o.Submit(context.Background()); !errors.Is(err, ErrInvalidDraft) {
		t.Fatalf("expected ErrInvalidDraft, got %v", err)
	}
	v := o.View()
	if v.Modal.FieldErrors["title"] == "" || !v.Modal.Open {
		t.Errorf("expected title error with modal open, got %+v", v.Modal)
	}

	o.ChangeField("title", "Launch")
	if _, ok := o.View().Modal.FieldErrors["title"]; ok {
		t.Error("editing a field must clear its error")
	}
	if o.ChangeField("owner", "x") {
		t.Error("unknown fields must be rejected")
	}
}

func TestSubmitFailureKeepsModalOpen(t *testing.T) {
	api := &MockAPI{
		CreateProjectFunc: func(context.Context, models.ProjectRequest) (models.Project, error) {
			return models.Project{}, &apiclient.APIError{Status: http.StatusBadRequest, Message: "Title already used"}
		},
	}
	o, _ := newTestOrchestrator(t, api)

	o.OpenCreate()
	o.ChangeField("title", "Launch")
	if err := o.Submit(context.Background()); err == nil {
		t.Fatal("expected error")
	}
	m := o.View().Modal
	if !m.Open || m.ServerError != "Title already used" || m.Draft.Title != "Launch" || m.Submitting {
		t.Errorf("unexpected modal %+v", m)
	}
}

func TestSubmitSuccessClosesAndRefetches(t *testing.T) {
	var created models.ProjectRequest
	api := &MockAPI{
		CreateProjectFunc: func(_ context.Context, req models.ProjectRequest) (models.Project, error) {
			created = req
			return models.Project{ID: 21, Title: req.Title}, nil
		},
	}
	o, _ := newTestOrchestrator(t, api)
	before := api.queryCount()

	o.OpenCreate()
	o.ChangeField("title", "Launch")
	o.ChangeField("description", "Q3")
	if err := o.Submit(context.Background()); err != nil {
		t.Fatalf("submit: %v", err)
	}
	o.Wait()

	if created.Title != "Launch" || created.Description != "Q3" {
		t.Errorf("unexpected request %+v", created)
	}
	m := o.View().Modal
	if m.Open || m.Draft != (Draft{}) || len(m.FieldErrors) != 0 || m.ServerError != "" {
		t.Errorf("modal must be closed and cleared, got %+v", m)
	}
	if api.queryCount() != before+1 {
		t.Errorf("expected one refetch after create, got %d", api.queryCount()-before)
	}
}

func TestEditUpdatesExistingProject(t *testing.T) {
	var gotID int64
	api := &MockAPI{
		UpdateProjectFunc: func(_ context.Context, id int64, req models.ProjectRequest) (models.Project, error) {
			gotID = id
			return models.Project{ID: id, Title: req.Title}, nil
		},
	}
	o, _ := newTestOrchestrator(t, api)

	if !o.OpenEditByID(3) {
		t.Fatal("project 3 should be on the first page")
	}
	if d := o.View().Modal.Draft; d.Title != "Project 3" {
		t.Errorf("expected prefilled draft, got %+v", d)
	}
	o.ChangeField("title", "Renamed")
	if err := o.Submit(context.Background()); err != nil {
		t.Fatal(err)
	}
	if gotID != 3 {
		t.Errorf("expected update of 3, got %d", gotID)
	}
	if o.OpenEditByID(400) {
		t.Error("unknown project must not open the form")
	}
}

func TestSubmitRejectsDoubleSubmit(t *testing.T) {
	release := make(chan struct{})
	started := make(chan struct{})
	api := &MockAPI{
		CreateProjectFunc: func(context.Context, models.ProjectRequest) (models.Project, error) {
			close(started)
			<-release
			return models.Project{ID: 1}, nil
		},
	}
	o, _ := newTestOrchestrator(t, api)
	o.OpenCreate()
	o.ChangeField("title", "Once")

	done := make(chan error, 1)
	go func() { done <- o.Submit(context.Background()) }()
	<-started
	if err := o.Submit(context.Background()); !errors.Is(err, ErrBusy) {
		t.Errorf("expected ErrBusy, got %v", err)
	}
	close(release)
	if err := <-done; err != nil {
		t.Fatal(err)
	}
}

func TestDeleteLifecycle(t *testing.T) {
	fail := true
	var deleted []int64
	api := &MockAPI{
		DeleteProjectFunc: func(_ context.Context, id int64) error {
			if fail {
				return &apiclient.NetworkError{Err: errors.New("offline")}
			}
			deleted = append(deleted, id)
			return nil
		},
	}
	o, _ := newTestOrchestrator(t, api)

	if err := o.ConfirmDelete(context.Background()); !errors.Is(err, ErrNoPendingDelete) {
		t.Errorf("expected ErrNoPendingDelete, got %v", err)
	}

	o.RequestDelete(4)
	d := o.View().Delete
	if !d.Open || d.TargetID != 4 || d.Title != "Delete Project" {
		t.Fatalf("unexpected dialog %+v", d)
	}

	if err := o.ConfirmDelete(context.Background()); err == nil {
		t.Fatal("expected error")
	}
	d = o.View().Delete
	if !d.Open || d.TargetID != 4 || d.Error != apiclient.GenericErrorMessage {
		t.Errorf("failed delete must keep the dialog, got %+v", d)
	}

	fail = false
	if err := o.ConfirmDelete(context.Background()); err != nil {
		t.Fatal(err)
	}
	o.Wait()
	if d := o.View().Delete; d.Open || d.TargetID != 0 || d.Error != "" {
		t.Errorf("dialog must close after delete, got %+v", d)
	}
	if len(deleted) != 1 || deleted[0] != 4 {
		t.Errorf("unexpected deletes %v", deleted)
	}

	o.RequestDelete(5)
	o.CancelDelete()
	if o.View().Delete.Open {
		t.Error("cancel must close the dialog")
	}
}

func TestStatsArePageLocal(t *testing.T) {
	page := &models.Page[models.Project]{
		TotalElements: 40,
		Content: []models.Project{
			{TaskCount: 4, CompletedTaskCount: 1, ProgressPercentage: 25},
			{TaskCount: 2, CompletedTaskCount: 2, ProgressPercentage: 100},
			{TaskCount: 0, CompletedTaskCount: 0, ProgressPercentage: 0},
		},
	}
	got := PageStats(page)
	want := Stats{TotalProjects: 40, TotalTasks: 6, CompletedTasks: 3, AverageProgress: 42, OverallProgress: 50}
	if got != want {
		t.Errorf("PageStats = %+v, want %+v", got, want)
	}

	half := &models.Page[models.Project]{Content: []models.Project{
		{ProgressPercentage: 50}, {ProgressPercentage: 51},
	}}
	if got := PageStats(half).AverageProgress; got != 51 {
		t.Errorf("50.5 must round up, got %d", got)
	}
	if PageStats(nil) != (Stats{}) {
		t.Error("no page means zero stats")
	}
}

func TestLoadBeforeMutationDoesNotRepaint(t *testing.T) {
	var mu sync.Mutex
	total := 5
	calls := 0
	release := make(chan struct{})
	started := make(chan struct{})
	api := &MockAPI{}
	api.ListProjectsFunc = func(ctx context.Context, q apiclient.ProjectQuery) (models.Page[models.Project], error) {
		mu.Lock()
		serve := catalog(total)
		calls++
		first := calls == 1
		mu.Unlock()
		if first {
			close(started)
			<-release
		}
		return serve(ctx, q)
	}
	api.CreateProjectFunc = func(_ context.Context, req models.ProjectRequest) (models.Project, error) {
		mu.Lock()
		defer mu.Unlock()
		total++
		return models.Project{ID: int64(total), Title: req.Title}, nil
	}
	o := New(Options{API: api, Clock: debounce.NewFakeClock(time.Unix(0, 0))})
	defer o.Close()

	done := make(chan error, 1)
	go func() { done <- o.Load(context.Background()) }()
	<-started

	o.OpenCreate()
	o.ChangeField("title", "Launch")
	if err := o.Submit(context.Background()); err != nil {
		t.Fatal(err)
	}
	o.Wait()
	if v := o.View(); v.TotalItems != 6 || len(v.Projects) != 6 {
		t.Fatalf("expected refetched page, got %+v", v)
	}

	close(release)
	if err := <-done; err != nil {
		t.Fatal(err)
	}
	if v := o.View(); v.TotalItems != 6 || len(v.Projects) != 6 || v.Loading {
		t.Errorf("page from before the create must be dropped, got %d of %d", len(v.Projects), v.TotalItems)
	}
}

func TestSearchTermAppliesWithPageReset(t *testing.T) {
	api := &MockAPI{}
	o, _ := newTestOrchestrator(t, api)

	o.GoToPage(3)
	o.Wait()

	// The debouncer has published the term but the orchestrator has not
	// taken it yet; a load in that window stays on the old key.
	o.search.Reset("alpha")
	if err := o.Load(context.Background()); err != nil {
		t.Fatal(err)
	}
	if q := api.lastQuery(); q.Page != 2 || q.Search != "" {
		t.Errorf("load must not mix the old page with the new term, got %+v", q)
	}

	o.onSearchSettled("alpha")
	o.Wait()
	if q := api.lastQuery(); q.Page != 0 || q.Search != "alpha" {
		t.Errorf("expected first page for alpha, got %+v", q)
	}
}
