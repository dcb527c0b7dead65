package server

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"taskaura/internal/projectdetail"
)

type viewRequest struct {
	Filter *string `json:"filter"`
	Sort   *string `json:"sort"`
	Order  *string `json:"order"`
	Search *string `json:"search"`
}

// openProject selects the project named in the path for the handlers below.
func (s *Server) openProject() gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := s.detail.Open(c.Param("id")); err != nil {
			c.AbortWithStatusJSON(http.StatusNotFound, gin.H{"error": "project not found"})
			return
		}
		c.Next()
	}
}

// handleProject loads the project and its tasks.
func (s *Server) handleProject(c *gin.Context) {
	_ = s.detail.Load(c.Request.Context())
	respondSuccess(c, http.StatusOK, s.detail.View())
}

// handleProjectView changes any of filter, sort, order and search.
func (s *Server) handleProjectView(c *gin.Context) {
	var req viewRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.respondError(c, http.StatusBadRequest, err)
		return
	}

	var (
		filter projectdetail.Filter
		key    projectdetail.SortKey
		order  projectdetail.SortOrder
		errs   []error
		err    error
	)
	if req.Filter != nil {
		filter, err = projectdetail.ParseFilter(*req.Filter)
		errs = append(errs, err)
	}
	if req.Sort != nil {
		key, err = projectdetail.ParseSortKey(*req.Sort)
		errs = append(errs, err)
	}
	if req.Order != nil {
		order, err = projectdetail.ParseSortOrder(*req.Order)
		errs = append(errs, err)
	}
	if err := errors.Join(errs...); err != nil {
		s.respondError(c, http.StatusBadRequest, err)
		return
	}

	if req.Filter != nil {
		s.detail.SetFilter(filter)
	}
	if req.Sort != nil {
		s.detail.SetSort(key)
	}
	if req.Order != nil {
		s.detail.SetSortOrder(order)
	}
	if req.Search != nil {
		s.detail.SetSearch(*req.Search)
	}
	respondSuccess(c, http.StatusOK, s.detail.View())
}

// handleToggleTask flips the completion of one task.
func (s *Server) handleToggleTask(c *gin.Context) {
	id, ok := parseID(c, "taskId")
	if !ok {
		return
	}
	err := s.detail.ToggleByID(c.Request.Context(), id)
	s.respondView(c, err, s.detail.View())
}

func (s *Server) handleTaskOpenCreate(c *gin.Context) {
	s.detail.OpenCreate()
	respondSuccess(c, http.StatusOK, s.detail.View())
}

// handleTaskOpenEdit opens the form for a loaded task.
func (s *Server) handleTaskOpenEdit(c *gin.Context) {
	id, ok := parseID(c, "taskId")
	if !ok {
		return
	}
	if err := s.detail.OpenEditByID(id); err != nil {
		s.respondView(c, err, s.detail.View())
		return
	}
	respondSuccess(c, http.StatusOK, s.detail.View())
}

func (s *Server) handleTaskCloseModal(c *gin.Context) {
	s.detail.CloseModal()
	respondSuccess(c, http.StatusOK, s.detail.View())
}

// handleTaskDraft edits one field of the task form.
func (s *Server) handleTaskDraft(c *gin.Context) {
	var req draftRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		s.respondError(c, http.StatusBadRequest, err)
		return
	}
	if !s.detail.ChangeField(req.Field, req.Value) {
		c.JSON(http.StatusBadRequest, gin.H{"error": "unknown field " + req.Field})
		return
	}
	respondSuccess(c, http.StatusOK, s.detail.View())
}

// handleTaskSubmit creates or updates the task in the form.
func (s *Server) handleTaskSubmit(c *gin.Context) {
	err := s.detail.Submit(c.Request.Context())
	s.respondView(c, err, s.detail.View())
}

func (s *Server) handleTaskRequestDelete(c *gin.Context) {
	id, ok := parseID(c, "taskId")
	if !ok {
		return
	}
	s.detail.RequestDelete(id)
	respondSuccess(c, http.StatusOK, s.detail.View())
}

func (s *Server) handleTaskCancelDelete(c *gin.Context) {
	s.detail.CancelDelete()
	respondSuccess(c, http.StatusOK, s.detail.View())
}

// handleTaskConfirmDelete deletes the task awaiting confirmation.
func (s *Server) handleTaskConfirmDelete(c *gin.Context) {
	err := s.detail.ConfirmDelete(c.Request.Context())
	s.respondView(c, err, s.detail.View())
}
