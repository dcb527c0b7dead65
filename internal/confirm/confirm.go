// Package confirm describes the delete confirmation dialog shared by the
// dashboard and the project page.
package confirm

// Kind names what is about to be deleted and selects the default wording.
type Kind string

const (
	Project Kind = "project"
	Task    Kind = "task"
)

var defaults = map[Kind]struct{ title, message string }{
	Project: {
		title:   "Delete Project",
		message: "Are you sure you want to delete this project? This action cannot be undone and will permanently remove all associated tasks and data.",
	},
	Task: {
		title:   "Delete Task",
		message: "Are you sure you want to delete this task? This action cannot be undone.",
	},
}

// Dialog is the rendered state of a confirmation.
type Dialog struct {
	Kind     Kind   `json:"kind"`
	Open     bool   `json:"open"`
	TargetID int64  `json:"targetId,omitempty"`
	Title    string `json:"title"`
	Message  string `json:"message"`
	Pending  bool   `json:"pending"`
	Error    string `json:"error,omitempty"`
}

// Option overrides part of a dialog.
type Option func(*Dialog)

// WithTitle replaces the default title.
func WithTitle(title string) Option {
	return func(d *Dialog) {
		if title != "" {
			d.Title = title
		}
	}
}

// WithMessage replaces the default message.
func WithMessage(message string) Option {
	return func(d *Dialog) {
		if message != "" {
			d.Message = message
		}
	}
}

// New builds a closed dialog for kind.
func New(kind Kind, opts ...Option) Dialog {
	def := defaults[kind]
	d := Dialog{Kind: kind, Title: def.title, Message: def.message}
	for _, opt := range opts {
		opt(&d)
	}
	return d
}

// For returns d opened for targetID. A zero id leaves it closed.
func (d Dialog) For(targetID int64, pending bool, errMsg string) Dialog {
	d.TargetID = targetID
	d.Open = targetID != 0
	d.Pending = pending
	d.Error = errMsg
	return d
}
