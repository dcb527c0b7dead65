package sqlite

import (
	"context"
	"net/http"
	"path/filepath"
	"testing"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	store, err := Open(filepath.Join(t.TempDir(), "nested", "session.db"), nil)
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() { _ = store.Close() })
	return store
}

func TestOpenRejectsEmptyPath(t *testing.T) {
	if _, err := Open("", nil); err == nil {
		t.Fatal("expected error for empty path")
	}
}

func TestSaveAndLoadCookies(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)

	err := store.SaveCookies(ctx, "api.example.com", []*http.Cookie{
		{Name: "taskaura", Value: "jwt-token"},
		{Name: "csrf", Value: "abc"},
	})
	if err != nil {
		t.Fatalf("save: %v", err)
	}

	cookies, err := store.LoadCookies(ctx, "api.example.com")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(cookies) != 2 {
		t.Fatalf("expected 2 cookies, got %d", len(cookies))
	}
	if cookies[0].Name != "csrf" || cookies[1].Value != "jwt-token" {
		t.Errorf("unexpected cookies: %v, %v", cookies[0], cookies[1])
	}

	other, err := store.LoadCookies(ctx, "other.example.com")
	if err != nil {
		t.Fatalf("load other: %v", err)
	}
	if len(other) != 0 {
		t.Errorf("expected no cookies for other host, got %d", len(other))
	}
}

func TestSaveCookiesReplacesSet(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)

	if err := store.SaveCookies(ctx, "h", []*http.Cookie{{Name: "a", Value: "1"}, {Name: "b", Value: "2"}}); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := store.SaveCookies(ctx, "h", nil); err != nil {
		t.Fatalf("clear: %v", err)
	}

	cookies, err := store.LoadCookies(ctx, "h")
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(cookies) != 0 {
		t.Errorf("expected cleared set, got %d cookies", len(cookies))
	}
}
