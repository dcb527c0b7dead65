package projectdetail

import (
	"errors"
	"sort"

	"taskaura/internal/apiclient"
	"taskaura/internal/confirm"
	"taskaura/internal/models"
	"taskaura/internal/validation"
)

// Modal is the task form as rendered.
type Modal struct {
	Open        bool              `json:"open"`
	EditingID   int64             `json:"editingId,omitempty"`
	Draft       Draft             `json:"draft"`
	FieldErrors validation.Errors `json:"fieldErrors"`
	ServerError string            `json:"serverError,omitempty"`
	Submitting  bool              `json:"submitting"`
}

// View is an immutable snapshot of the project page.
type View struct {
	ProjectID   int64           `json:"projectId"`
	Project     *models.Project `json:"project"`
	Tasks       []models.Task   `json:"tasks"`
	TotalTasks  int             `json:"totalTasks"`
	Criteria    Criteria        `json:"criteria"`
	Search      string          `json:"search"`
	Loading     bool            `json:"loading"`
	Error       string          `json:"error,omitempty"`
	NotFound    bool            `json:"notFound"`
	Toggling    []int64         `json:"toggling"`
	ToggleError string          `json:"toggleError,omitempty"`
	Modal       Modal           `json:"modal"`
	Delete      confirm.Dialog  `json:"delete"`
}

// View returns the current snapshot.
func (o *Orchestrator) View() View {
	o.mu.Lock()
	defer o.mu.Unlock()

	v := View{
		ProjectID:   o.projectID,
		Tasks:       append([]models.Task{}, o.visibleLocked()...),
		TotalTasks:  len(o.tasks),
		Criteria:    o.criteriaLocked(),
		Search:      o.search.Raw(),
		Loading:     o.projectLoading || o.tasksLoading,
		NotFound:    o.projectID == 0,
		Toggling:    []int64{},
		ToggleError: o.toggleError,
		Modal: Modal{
			Open:        o.modalOpen,
			EditingID:   o.editingID,
			Draft:       o.draft,
			FieldErrors: o.fieldErrors.Clone(),
			ServerError: o.serverError,
			Submitting:  o.saving,
		},
		Delete: o.dialog.For(o.pendingDelete, o.deleting, o.deleteError),
	}
	if o.project != nil {
		p := *o.project
		v.Project = &p
	}
	for id := range o.toggling {
		v.Toggling = append(v.Toggling, id)
	}
	sort.Slice(v.Toggling, func(i, j int) bool { return v.Toggling[i] < v.Toggling[j] })
	if err := firstError(o.projectErr, o.tasksErr); err != nil {
		v.Error = apiclient.Message(err, apiclient.GenericErrorMessage)
		if errors.Is(err, apiclient.ErrNotFound) {
			v.NotFound = true
		}
	}
	return v
}

func firstError(errs ...error) error {
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}
