package server

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

type searchRequest struct {
	Term string `json:"term"`
}

type pageRequest struct {
	Page int `json:"page" binding:"required,min=1"`
}

type sizeRequest struct {
	Size int `json:"size" binding:"required,oneof=6 12 24 48"`
}

type draftRequest struct {
	Field string `json:"field" binding:"required"`
	Value string `json:"value"`
}

// handleDashboard loads the current page of projects.
func (s *Server) handleDashboard(c *gin.Context) {
	_ = s.dashboard.Load(c.Request.Context())
	respondSuccess(c, http.StatusOK, s.dashboard.View())
}

// handleDashboardSearch buffers the search box; the list follows once the
// input settles.
func (s *Server) handleDashboardSearch(c *gin.Context) {
	var req searchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.respondError(c, http.StatusBadRequest, err)
		return
	}
	if req.Term == "" {
		s.dashboard.ClearSearch()
	} else {
		s.dashboard.SetSearch(req.Term)
	}
	respondSuccess(c, http.StatusOK, s.dashboard.View())
}

// handleDashboardPage jumps to a one-based page.
func (s *Server) handleDashboardPage(c *gin.Context) {
	var req pageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.respondError(c, http.StatusBadRequest, err)
		return
	}
	s.dashboard.GoToPage(req.Page)
	s.reloadDashboard(c)
}

func (s *Server) handleDashboardNext(c *gin.Context) {
	s.dashboard.NextPage()
	s.reloadDashboard(c)
}

func (s *Server) handleDashboardPrev(c *gin.Context) {
	s.dashboard.PreviousPage()
	s.reloadDashboard(c)
}

// handleDashboardSize switches the page size.
func (s *Server) handleDashboardSize(c *gin.Context) {
	var req sizeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.respondError(c, http.StatusBadRequest, err)
		return
	}
	if err := s.dashboard.SetPageSize(req.Size); err != nil {
		s.respondView(c, err, s.dashboard.View())
		return
	}
	s.reloadDashboard(c)
}

// reloadDashboard waits for the current key before answering so the view
// reflects the navigation that was just made.
func (s *Server) reloadDashboard(c *gin.Context) {
	_ = s.dashboard.Load(c.Request.Context())
	respondSuccess(c, http.StatusOK, s.dashboard.View())
}

func (s *Server) handleDashboardOpenCreate(c *gin.Context) {
	s.dashboard.OpenCreate()
	respondSuccess(c, http.StatusOK, s.dashboard.View())
}

// handleDashboardOpenEdit opens the form for a project on the loaded page.
func (s *Server) handleDashboardOpenEdit(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	if !s.dashboard.OpenEditByID(id) {
		c.JSON(http.StatusNotFound, gin.H{"error": "project not on the current page"})
		return
	}
	respondSuccess(c, http.StatusOK, s.dashboard.View())
}

func (s *Server) handleDashboardCloseModal(c *gin.Context) {
	s.dashboard.CloseModal()
	respondSuccess(c, http.StatusOK, s.dashboard.View())
}

// handleDashboardDraft edits one field of the project form.
func (s *Server) handleDashboardDraft(c *gin.Context) {
	var req draftRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.respondError(c, http.StatusBadRequest, err)
		return
	}
	if !s.dashboard.ChangeField(req.Field, req.Value) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown field " + req.Field})
		return
	}
	respondSuccess(c, http.StatusOK, s.dashboard.View())
}

// handleDashboardSubmit creates or updates the project in the form.
func (s *Server) handleDashboardSubmit(c *gin.Context) {
	err := s.dashboard.Submit(c.Request.Context())
	s.respondView(c, err, s.dashboard.View())
}

func (s *Server) handleDashboardRequestDelete(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	s.dashboard.RequestDelete(id)
	respondSuccess(c, http.StatusOK, s.dashboard.View())
}

func (s *Server) handleDashboardCancelDelete(c *gin.Context) {
	s.dashboard.CancelDelete()
	respondSuccess(c, http.StatusOK, s.dashboard.View())
}

// handleDashboardConfirmDelete deletes the project awaiting confirmation.
func (s *Server) handleDashboardConfirmDelete(c *gin.Context) {
	err := s.dashboard.ConfirmDelete(c.Request.Context())
	s.respondView(c, err, s.dashboard.View())
}
