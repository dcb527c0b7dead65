package projectlist

import (
	"math"

	"taskaura/internal/apiclient"
	"taskaura/internal/confirm"
	"taskaura/internal/models"
	"taskaura/internal/pagination"
	"taskaura/internal/validation"
)

// Stats are the dashboard counters. TotalProjects counts every matching
// project; the task and progress figures cover only the loaded page.
type Stats struct {
	TotalProjects   int `json:"totalProjects"`
	TotalTasks      int `json:"totalTasks"`
	CompletedTasks  int `json:"completedTasks"`
	AverageProgress int `json:"averageProgress"`
	OverallProgress int `json:"overallProgress"`
}

// PageStats aggregates one loaded page.
func PageStats(page *models.Page[models.Project]) Stats {
	if page == nil {
		return Stats{}
	}
	st := Stats{TotalProjects: page.TotalElements}
	progress := 0
	for _, p := range page.Content {
		st.TotalTasks += p.TaskCount
		st.CompletedTasks += p.CompletedTaskCount
		progress += p.ProgressPercentage
	}
	if n := len(page.Content); n > 0 {
		st.AverageProgress = roundHalfUp(float64(progress) / float64(n))
	}
	if st.TotalTasks > 0 {
		st.OverallProgress = roundHalfUp(float64(st.CompletedTasks) / float64(st.TotalTasks) * 100)
	}
	return st
}

// roundHalfUp rounds .5 towards positive infinity.
func roundHalfUp(x float64) int {
	return int(math.Floor(x + 0.5))
}

// Modal is the project form as rendered.
type Modal struct {
	Open        bool              `json:"open"`
	EditingID   int64             `json:"editingId,omitempty"`
	Draft       Draft             `json:"draft"`
	FieldErrors validation.Errors `json:"fieldErrors"`
	ServerError string            `json:"serverError,omitempty"`
	Submitting  bool              `json:"submitting"`
}

// View is an immutable snapshot of the dashboard.
type View struct {
	Projects    []models.Project  `json:"projects"`
	Search      string            `json:"search"`
	SearchTerm  string            `json:"searchTerm"`
	Page        int               `json:"page"`
	PageSize    int               `json:"pageSize"`
	PageSizes   []int             `json:"pageSizes"`
	TotalPages  int               `json:"totalPages"`
	TotalItems  int               `json:"totalItems"`
	RangeStart  int               `json:"rangeStart"`
	RangeEnd    int               `json:"rangeEnd"`
	Pages       []pagination.Item `json:"pages"`
	HasPrevious bool              `json:"hasPrevious"`
	HasNext     bool              `json:"hasNext"`
	Loading     bool              `json:"loading"`
	Error       string            `json:"error,omitempty"`
	Stats       Stats             `json:"stats"`
	Modal       Modal             `json:"modal"`
	Delete      confirm.Dialog    `json:"delete"`
}

// Stats returns the counters for the loaded page.
func (o *Orchestrator) Stats() Stats {
	o.mu.Lock()
	defer o.mu.Unlock()
	return PageStats(o.page)
}

// View returns the current snapshot.
func (o *Orchestrator) View() View {
	o.mu.Lock()
	defer o.mu.Unlock()

	totalPages := o.totalPagesLocked()
	number := pagination.DisplayNumber(o.pageIndex, totalPages)
	v := View{
		Projects:    []models.Project{},
		Search:      o.search.Raw(),
		SearchTerm:  o.currentKeyLocked().search,
		Page:        number,
		PageSize:    o.pageSize,
		PageSizes:   append([]int(nil), pagination.Sizes...),
		TotalPages:  totalPages,
		Pages:       pagination.Window(number, totalPages),
		HasPrevious: o.pageIndex > 0,
		HasNext:     pagination.InRange(o.pageIndex+1, totalPages),
		Loading:     o.loading,
		Stats:       PageStats(o.page),
		Modal: Modal{
			Open:        o.modalOpen,
			EditingID:   o.editingID,
			Draft:       o.draft,
			FieldErrors: o.fieldErrors.Clone(),
			ServerError: o.serverError,
			Submitting:  o.creating || o.updating,
		},
		Delete: o.dialog.For(o.pendingDelete, o.deleting, o.deleteError),
	}
	if o.page != nil {
		v.Projects = append(v.Projects, o.page.Content...)
		v.TotalItems = o.page.TotalElements
		v.RangeStart, v.RangeEnd = pagination.Range(number, o.pageSize, o.page.TotalElements)
	}
	if o.fetchErr != nil {
		v.Error = apiclient.Message(o.fetchErr, apiclient.GenericErrorMessage)
	}
	return v
}
