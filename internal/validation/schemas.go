package validation

// TitleMaxLength bounds project and task titles.
const TitleMaxLength = 100

// ProjectInput is the editable part of a project.
type ProjectInput struct {
	Title       string `json:"title" validate:"required,max=100"`
	Description string `json:"description"`
}

// TaskInput is the editable part of a task. The completed flag is not part
// of the form.
type TaskInput struct {
	Title       string `json:"title" validate:"required,max=100"`
	Description string `json:"description"`
	DueDate     string `json:"dueDate" validate:"omitempty,date"`
}

// LoginInput is the sign-in form.
type LoginInput struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// SignupInput is the registration form.
type SignupInput struct {
	Username string `json:"username" validate:"required,max=50"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

var (
	Project = Schema[ProjectInput]{messages: map[string]map[string]string{
		"title": {
			"required": "Project title is required",
			"max":      "Project title is too long",
		},
	}}

	Task = Schema[TaskInput]{messages: map[string]map[string]string{
		"title": {
			"required": "Task title is required",
			"max":      "Task title is too long",
		},
		"dueDate": {
			"date": "Due date must be a valid date",
		},
	}}

	Login = Schema[LoginInput]{messages: map[string]map[string]string{
		"email": {
			"required": "Email is required",
			"email":    "Invalid email format",
		},
		"password": {
			"required": "Password is required",
		},
	}}

	Signup = Schema[SignupInput]{messages: map[string]map[string]string{
		"username": {
			"required": "Username is required",
			"max":      "Username cannot exceed 50 characters",
		},
		"email": {
			"required": "Email is required",
			"email":    "Please enter a valid email address",
		},
		"password": {
			"required": "Password is required",
			"min":      "Password must be at least 6 characters",
		},
	}}
)
