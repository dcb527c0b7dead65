package server

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"taskaura/internal/session"
	"taskaura/internal/validation"
)

// currentSession returns the session state, running the first whoami check
// when it has not happened yet.
func (s *Server) currentSession(c *gin.Context) session.State {
	st := s.session.State()
	if st.Loading {
		st = s.session.Refresh(c.Request.Context())
	}
	return st
}

// requireSession rejects anonymous callers.
func (s *Server) requireSession() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !s.currentSession(c).Authenticated {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authentication required"})
			return
		}
		c.Next()
	}
}

// publicOnly rejects callers that are already signed in.
func (s *Server) publicOnly() gin.HandlerFunc {
	return func(c *gin.Context) {
		if s.currentSession(c).Authenticated {
			c.AbortWithStatusJSON(http.StatusConflict, gin.H{"error": "already signed in"})
			return
		}
		c.Next()
	}
}

// handleSession reports who is signed in.
func (s *Server) handleSession(c *gin.Context) {
	respondSuccess(c, http.StatusOK, s.currentSession(c))
}

// handleLogin signs in with email and password.
func (s *Server) handleLogin(c *gin.Context) {
	var req validation.LoginInput
	if err := c.ShouldBindJSON(&req); err != nil {
		s.respondError(c, http.StatusBadRequest, err)
		return
	}
	res, err := s.session.Login(c.Request.Context(), req)
	s.respondForm(c, res, err)
}

// handleRegister creates an account and signs in with it.
func (s *Server) handleRegister(c *gin.Context) {
	var req validation.SignupInput
	if err := c.ShouldBindJSON(&req); err != nil {
		s.respondError(c, http.StatusBadRequest, err)
		return
	}
	res, err := s.session.Register(c.Request.Context(), req)
	s.respondForm(c, res, err)
}

// handleLogout ends the session.
func (s *Server) handleLogout(c *gin.Context) {
	if err := s.session.Logout(c.Request.Context()); err != nil {
		s.respondError(c, statusFor(err), err)
		return
	}
	respondSuccess(c, http.StatusOK, s.session.State())
}

type formResponse struct {
	session.FormResult
	Session session.State `json:"session"`
}

func (s *Server) respondForm(c *gin.Context, res session.FormResult, err error) {
	body := formResponse{FormResult: res, Session: s.session.State()}
	if err == nil {
		respondSuccess(c, http.StatusOK, body)
		return
	}
	c.JSON(statusFor(err), body)
}
