// Package session tracks who is signed in. The state is populated by one
// whoami query and changed only by two effects: a successful login (or
// registration) and a logout. It lives for the whole process.
package session

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"

	"taskaura/internal/apiclient"
	"taskaura/internal/models"
	"taskaura/internal/querycache"
	"taskaura/internal/validation"
)

// InvalidCredentialsMessage is shown when sign-in is rejected with 401.
const InvalidCredentialsMessage = "Invalid email or password"

// ErrInvalidForm is returned when client-side validation blocked a request.
var ErrInvalidForm = errors.New("session: form has invalid fields")

// API is the part of the remote API the session needs.
type API interface {
	CurrentUser(ctx context.Context) (models.User, error)
	SignIn(ctx context.Context, creds models.Credentials) error
	SignUp(ctx context.Context, reg models.Registration) error
	SignOut(ctx context.Context) error
}

// State is a read-only snapshot of the session.
type State struct {
	User          *models.User `json:"user"`
	Loading       bool         `json:"loading"`
	Authenticated bool         `json:"authenticated"`
}

// FormResult reports the outcome of a login or registration attempt.
type FormResult struct {
	Errors      validation.Errors `json:"errors,omitempty"`
	ServerError string            `json:"serverError,omitempty"`
}

// OK reports whether the attempt succeeded.
func (r FormResult) OK() bool {
	return r.Errors.Empty() && r.ServerError == ""
}

// Session is the process-wide authentication state.
type Session struct {
	mu      sync.Mutex
	api     API
	cache   *querycache.Cache
	logger  *slog.Logger
	user    *models.User
	checked bool
	loading bool
}

// New creates an unchecked session. Call Refresh once at startup.
func New(api API, cache *querycache.Cache, logger *slog.Logger) *Session {
	if logger == nil {
		logger = slog.Default()
	}
	return &Session{api: api, cache: cache, logger: logger}
}

// State returns the current snapshot. Before the first check completes the
// session reports Loading.
func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.stateLocked()
}

func (s *Session) stateLocked() State {
	st := State{Loading: s.loading || !s.checked}
	if s.user != nil {
		u := *s.user
		u.Roles = append([]string(nil), s.user.Roles...)
		st.User = &u
		st.Authenticated = true
	}
	return st
}

// Refresh asks the API who is signed in. Any failure means anonymous.
func (s *Session) Refresh(ctx context.Context) State {
	s.mu.Lock()
	s.loading = true
	s.mu.Unlock()

	user, err := s.api.CurrentUser(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.loading = false
	s.checked = true
	if err != nil {
		if !errors.Is(err, apiclient.ErrUnauthorized) {
			s.logger.Warn("session check failed", slog.String("error", err.Error()))
		}
		s.user = nil
		return s.stateLocked()
	}
	s.user = &user
	return s.stateLocked()
}

// Login validates the form, signs in and reloads the current user.
func (s *Session) Login(ctx context.Context, input validation.LoginInput) (FormResult, error) {
	input.Email = strings.TrimSpace(input.Email)
	if errs := validation.Login.Validate(input); !errs.Empty() {
		return FormResult{Errors: errs}, ErrInvalidForm
	}

	err := s.api.SignIn(ctx, models.Credentials{Email: input.Email, Password: input.Password})
	if err != nil {
		return FormResult{ServerError: signInMessage(err)}, err
	}

	s.logger.Info("signed in", slog.String("email", input.Email))
	s.Refresh(ctx)
	return FormResult{}, nil
}

// Register validates the form, creates the account, then signs in with the
// same credentials.
func (s *Session) Register(ctx context.Context, input validation.SignupInput) (FormResult, error) {
	input.Email = strings.TrimSpace(input.Email)
	input.Username = strings.TrimSpace(input.Username)
	if errs := validation.Signup.Validate(input); !errs.Empty() {
		return FormResult{Errors: errs}, ErrInvalidForm
	}

	err := s.api.SignUp(ctx, models.Registration{
		Username: input.Username,
		Email:    input.Email,
		Password: input.Password,
	})
	if err != nil {
		return FormResult{ServerError: apiclient.Message(err, apiclient.GenericErrorMessage)}, err
	}
	if err := s.api.SignIn(ctx, models.Credentials{Email: input.Email, Password: input.Password}); err != nil {
		return FormResult{ServerError: signInMessage(err)}, err
	}

	s.logger.Info("registered", slog.String("username", input.Username))
	s.Refresh(ctx)
	return FormResult{}, nil
}

// Logout ends the session and forgets every cached query. On failure the
// session is left as it was.
func (s *Session) Logout(ctx context.Context) error {
	if err := s.api.SignOut(ctx); err != nil {
		s.logger.Error("sign out failed", slog.String("error", err.Error()))
		return err
	}

	s.mu.Lock()
	s.user = nil
	s.checked = true
	s.mu.Unlock()

	if s.cache != nil {
		s.cache.Clear()
	}
	s.logger.Info("signed out")
	return nil
}

func signInMessage(err error) string {
	if errors.Is(err, apiclient.ErrUnauthorized) {
		return InvalidCredentialsMessage
	}
	return apiclient.Message(err, apiclient.GenericErrorMessage)
}
