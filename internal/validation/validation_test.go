package validation

import (
	"strings"
	"testing"
)

func TestProjectSchema(t *testing.T) {
	cases := []struct {
		name  string
		input ProjectInput
		want  Errors
	}{
		{name: "valid", input: ProjectInput{Title: "Launch", Description: "Q3"}, want: Errors{}},
		{name: "description optional", input: ProjectInput{Title: "Launch"}, want: Errors{}},
		{name: "missing title", input: ProjectInput{}, want: Errors{"title": "Project title is required"}},
		{name: "title at limit", input: ProjectInput{Title: strings.Repeat("a", TitleMaxLength)}, want: Errors{}},
		{name: "title too long", input: ProjectInput{Title: strings.Repeat("a", TitleMaxLength+1)}, want: Errors{"title": "Project title is too long"}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := Project.Validate(tc.input)
			assertErrors(t, got, tc.want)
		})
	}
}

func TestTaskSchema(t *testing.T) {
	cases := []struct {
		name  string
		input TaskInput
		want  Errors
	}{
		{name: "valid", input: TaskInput{Title: "Write", DueDate: "2024-01-01"}, want: Errors{}},
		{name: "no due date", input: TaskInput{Title: "Write"}, want: Errors{}},
		{name: "missing title", input: TaskInput{DueDate: "2024-01-01"}, want: Errors{"title": "Task title is required"}},
		{name: "too long", input: TaskInput{Title: strings.Repeat("é", TitleMaxLength+1)}, want: Errors{"title": "Task title is too long"}},
		{name: "bad date", input: TaskInput{Title: "Write", DueDate: "tomorrow"}, want: Errors{"dueDate": "Due date must be a valid date"}},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assertErrors(t, Task.Validate(tc.input), tc.want)
		})
	}
}

func TestLoginSchema(t *testing.T) {
	got := Login.Validate(LoginInput{})
	assertErrors(t, got, Errors{"email": "Email is required", "password": "Password is required"})

	got = Login.Validate(LoginInput{Email: "not-an-email", Password: "x"})
	assertErrors(t, got, Errors{"email": "Invalid email format"})
}

func TestSignupSchema(t *testing.T) {
	got := Signup.Validate(SignupInput{
		Username: strings.Repeat("u", 51),
		Email:    "ana@example.com",
		Password: "12345",
	})
	assertErrors(t, got, Errors{
		"username": "Username cannot exceed 50 characters",
		"password": "Password must be at least 6 characters",
	})
}

func TestErrorsHelpers(t *testing.T) {
	errs := Errors{"title": "required", "dueDate": "bad"}
	clone := errs.Clone()
	errs.Clear("title")
	if _, ok := errs["title"]; ok {
		t.Error("title should be cleared")
	}
	if _, ok := clone["title"]; !ok {
		t.Error("clone must be independent")
	}
	if errs.Empty() {
		t.Error("dueDate error should remain")
	}
}

func assertErrors(t *testing.T, got, want Errors) {
	t.Helper()
	if len(got) != len(want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	for field, msg := range want {
		if got[field] != msg {
			t.Errorf("field %s: expected %q, got %q", field, msg, got[field])
		}
	}
}

func TestDateRuleIsRegistered(t *testing.T) {
	v := newValidator()
	if err := v.Var("2024-01-01", "date"); err != nil {
		t.Errorf("expected valid date, got %v", err)
	}
	if err := v.Var("tomorrow", "date"); err == nil {
		t.Error("expected date rule to reject free text")
	}
}
