package models

import "testing"

func TestParseDate(t *testing.T) {
	cases := []struct {
		raw string
		ok  bool
	}{
		{"2024-06-01", true},
		{"2024-06-01T09:30:00", true},
		{"2024-06-01T09:30", true},
		{"2024-06-01T09:30:00Z", true},
		{"", false},
		{"June 1st", false},
		{"2024-13-01", false},
	}
	for _, tc := range cases {
		if _, ok := ParseDate(tc.raw); ok != tc.ok {
			t.Errorf("ParseDate(%q) ok = %v, want %v", tc.raw, ok, tc.ok)
		}
	}
}

func TestTaskDueTime(t *testing.T) {
	due, ok := Task{DueDate: "2024-01-02"}.DueTime()
	if !ok || due.Day() != 2 {
		t.Errorf("unexpected due time %v %v", due, ok)
	}
	if _, ok := (Task{}).DueTime(); ok {
		t.Error("a task without a date has no due time")
	}
}

func TestHasRole(t *testing.T) {
	u := User{Roles: []string{"ROLE_USER", "ROLE_ADMIN"}}
	if !u.HasRole("ROLE_ADMIN") || u.HasRole("ROLE_OWNER") {
		t.Error("unexpected role check")
	}
}
