package server

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"taskaura/internal/apiclient"
	"taskaura/internal/projectdetail"
	"taskaura/internal/projectlist"
	"taskaura/internal/session"
)

// Server exposes the client state to the browser UI as JSON views and
// serves the compiled frontend.
type Server struct {
	engine    *gin.Engine
	session   *session.Session
	dashboard *projectlist.Orchestrator
	detail    *projectdetail.Orchestrator
	logger    *slog.Logger
	staticDir string
}

// Deps are the components the handlers drive.
type Deps struct {
	Session   *session.Session
	Dashboard *projectlist.Orchestrator
	Detail    *projectdetail.Orchestrator
}

// New constructs the HTTP server with routes and middleware configured.
func New(deps Deps, logger *slog.Logger, staticDir string) *Server {
	if logger == nil {
		logger = slog.Default()
	}

	gin.SetMode(gin.ReleaseMode)
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(gin.LoggerWithWriter(gin.DefaultWriter, "/ui/healthz"))

	srv := &Server{
		engine:    router,
		session:   deps.Session,
		dashboard: deps.Dashboard,
		detail:    deps.Detail,
		logger:    logger,
		staticDir: staticDir,
	}

	srv.registerRoutes()
	return srv
}

// Engine exposes the underlying Gin engine.
func (s *Server) Engine() *gin.Engine {
	return s.engine
}

// registerRoutes wires all view API and static handlers together.
func (s *Server) registerRoutes() {
	ui := s.engine.Group("/ui")
	{
		ui.GET("/healthz", s.handleHealth)

		sess := ui.Group("/session")
		{
			sess.GET("", s.handleSession)
			sess.POST("/login", s.publicOnly(), s.handleLogin)
			sess.POST("/register", s.publicOnly(), s.handleRegister)
			sess.POST("/logout", s.requireSession(), s.handleLogout)
		}

		dash := ui.Group("/dashboard", s.requireSession())
		{
			dash.GET("", s.handleDashboard)
			dash.POST("/search", s.handleDashboardSearch)
			dash.POST("/page", s.handleDashboardPage)
			dash.POST("/next", s.handleDashboardNext)
			dash.POST("/prev", s.handleDashboardPrev)
			dash.POST("/size", s.handleDashboardSize)
			dash.POST("/modal", s.handleDashboardOpenCreate)
			dash.POST("/modal/:id", s.handleDashboardOpenEdit)
			dash.DELETE("/modal", s.handleDashboardCloseModal)
			dash.PATCH("/draft", s.handleDashboardDraft)
			dash.POST("/submit", s.handleDashboardSubmit)
			dash.POST("/delete/confirm", s.handleDashboardConfirmDelete)
			dash.POST("/delete/:id", s.handleDashboardRequestDelete)
			dash.DELETE("/delete", s.handleDashboardCancelDelete)
		}

		project := ui.Group("/projects/:id", s.requireSession(), s.openProject())
		{
			project.GET("", s.handleProject)
			project.POST("/view", s.handleProjectView)
			project.POST("/tasks/:taskId/toggle", s.handleToggleTask)
			project.POST("/modal", s.handleTaskOpenCreate)
			project.POST("/modal/:taskId", s.handleTaskOpenEdit)
			project.DELETE("/modal", s.handleTaskCloseModal)
			project.PATCH("/draft", s.handleTaskDraft)
			project.POST("/submit", s.handleTaskSubmit)
			project.POST("/delete/confirm", s.handleTaskConfirmDelete)
			project.POST("/delete/:taskId", s.handleTaskRequestDelete)
			project.DELETE("/delete", s.handleTaskCancelDelete)
		}
	}

	s.mountStatic()
}

// handleHealth provides a basic readiness endpoint.
func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// parseID converts a path parameter to int64 with error handling.
func parseID(c *gin.Context, name string) (int64, bool) {
	raw := c.Param(name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid identifier"})
		return 0, false
	}
	return id, true
}

// respondError logs the error and returns a JSON payload.
func (s *Server) respondError(c *gin.Context, status int, err error) {
	if err != nil {
		s.logger.Error("request failed", slog.String("path", c.FullPath()), slog.String("error", err.Error()))
	}
	c.JSON(status, gin.H{"error": errorMessage(err)})
}

// respondView answers with view, adding the error and its status when the
// action behind it failed.
func (s *Server) respondView(c *gin.Context, err error, view any) {
	if err == nil {
		respondSuccess(c, http.StatusOK, view)
		return
	}
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error("action failed", slog.String("path", c.FullPath()), slog.String("error", err.Error()))
	} else {
		s.logger.Debug("action rejected", slog.String("path", c.FullPath()), slog.String("error", err.Error()))
	}
	c.JSON(status, gin.H{"error": errorMessage(err), "view": view})
}

// respondSuccess wraps a payload in a JSON envelope for consistency.
func respondSuccess(c *gin.Context, status int, payload any) {
	if payload == nil {
		c.Status(status)
		return
	}
	c.JSON(status, payload)
}

// statusFor maps client and API failures onto the status of the view call.
func statusFor(err error) int {
	switch {
	case errors.Is(err, projectlist.ErrInvalidDraft),
		errors.Is(err, projectdetail.ErrInvalidDraft),
		errors.Is(err, session.ErrInvalidForm):
		return http.StatusUnprocessableEntity
	case errors.Is(err, projectlist.ErrBusy), errors.Is(err, projectdetail.ErrBusy):
		return http.StatusConflict
	case errors.Is(err, projectlist.ErrInvalidPageSize),
		errors.Is(err, projectlist.ErrNoPendingDelete),
		errors.Is(err, projectdetail.ErrNoPendingDelete):
		return http.StatusBadRequest
	case errors.Is(err, projectdetail.ErrNoProject), errors.Is(err, projectdetail.ErrUnknownTask):
		return http.StatusNotFound
	}

	var netErr *apiclient.NetworkError
	if errors.As(err, &netErr) {
		return http.StatusBadGateway
	}
	if code := apiclient.StatusCode(err); code >= 400 {
		return code
	}
	return http.StatusInternalServerError
}

// errorMessage is the text shown for err: the API's own message for remote
// failures, the error itself otherwise.
func errorMessage(err error) string {
	if err == nil {
		return ""
	}
	var apiErr *apiclient.APIError
	var netErr *apiclient.NetworkError
	if errors.As(err, &apiErr) || errors.As(err, &netErr) {
		return apiclient.Message(err, apiclient.GenericErrorMessage)
	}
	return err.Error()
}
