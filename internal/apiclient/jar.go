package apiclient

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"sync"
)

// CookieStore persists the session cookies of one API host between runs.
type CookieStore interface {
	LoadCookies(ctx context.Context, host string) ([]*http.Cookie, error)
	SaveCookies(ctx context.Context, host string, cookies []*http.Cookie) error
}

// PersistentJar is an in-memory cookie jar mirrored into a CookieStore for
// the API origin only.
type PersistentJar struct {
	mu     sync.Mutex
	jar    *cookiejar.Jar
	origin *url.URL
	store  CookieStore
	logger *slog.Logger
}

// NewPersistentJar restores the cookies saved for origin and returns a jar
// that writes every change back to store.
func NewPersistentJar(ctx context.Context, origin *url.URL, store CookieStore, logger *slog.Logger) (*PersistentJar, error) {
	if logger == nil {
		logger = slog.Default()
	}
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("cookie jar: %w", err)
	}

	saved, err := store.LoadCookies(ctx, origin.Host)
	if err != nil {
		return nil, fmt.Errorf("load session cookies: %w", err)
	}
	if len(saved) > 0 {
		for _, c := range saved {
			if c.Path == "" {
				c.Path = "/"
			}
		}
		jar.SetCookies(origin, saved)
		logger.Info("restored session cookies", slog.String("host", origin.Host), slog.Int("count", len(saved)))
	}

	return &PersistentJar{jar: jar, origin: origin, store: store, logger: logger}, nil
}

// Cookies implements http.CookieJar.
func (j *PersistentJar) Cookies(u *url.URL) []*http.Cookie {
	return j.jar.Cookies(u)
}

// SetCookies implements http.CookieJar.
func (j *PersistentJar) SetCookies(u *url.URL, cookies []*http.Cookie) {
	j.jar.SetCookies(u, cookies)
	if u.Host != j.origin.Host {
		return
	}

	j.mu.Lock()
	defer j.mu.Unlock()
	current := j.jar.Cookies(j.origin)
	if err := j.store.SaveCookies(context.Background(), j.origin.Host, current); err != nil {
		j.logger.Error("persist session cookies", slog.String("host", j.origin.Host), slog.String("error", err.Error()))
	}
}
