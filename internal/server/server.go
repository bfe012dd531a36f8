// ABOUTME: HTTP surface over the orchestrator using gin
// ABOUTME: Single tenant; every request acts as the configured default user
package server

import (
	"context"
	"errors"
	"io"
	"log"
	"mime/multipart"
	"net/http"
	"path/filepath"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/tweakmymeal/mealcoach/internal/config"
	"github.com/tweakmymeal/mealcoach/internal/core"
	"github.com/tweakmymeal/mealcoach/internal/models"
	"github.com/tweakmymeal/mealcoach/internal/storage/sqlite"
)

// Server wires the HTTP routes to the orchestrator
type Server struct {
	cfg    *config.Config
	orch   *core.Orchestrator
	store  *sqlite.Store
	engine *gin.Engine
}

// New creates the HTTP server and registers all routes
func New(cfg *config.Config, orch *core.Orchestrator, store *sqlite.Store) *Server {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()
	engine.Use(gin.Recovery())

	s := &Server{cfg: cfg, orch: orch, store: store, engine: engine}
	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	s.engine.GET("/healthz", s.handleHealth)

	s.engine.POST("/chat", s.handleChat)
	s.engine.POST("/chat/modify", s.handleModify)
	s.engine.POST("/chat/select", s.handleSelect)
	s.engine.GET("/chat/:session_id/images", s.handleSessionImages)

	s.engine.POST("/feedback", s.handleFeedback)

	s.engine.GET("/profile", s.handleGetProfile)
	s.engine.PUT("/profile", s.handlePutProfile)

	s.engine.GET("/history", s.handleHistory)

	// Generated and uploaded images, served by user directory
	s.engine.Static("/images", filepath.Join(s.cfg.DataDir, "images"))
}

// Run starts the server and blocks until ctx is cancelled, then drains
// background image jobs before returning
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:    s.cfg.ListenAddr,
		Handler: s.engine,
	}

	errCh := make(chan error, 1)
	go func() {
		log.Printf("listening on %s", s.cfg.ListenAddr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	s.orch.WaitForImageJobs()
	return nil
}

// Handler exposes the router for tests
func (s *Server) Handler() http.Handler {
	return s.engine
}

func (s *Server) userID() string {
	return s.cfg.DefaultUserID
}

func (s *Server) handleHealth(c *gin.Context) {
	c.String(http.StatusOK, "ok")
}

// handleChat accepts a turn as multipart form data: text, optional
// session_id, optional mode_hint, optional max_time_minutes, and zero
// or more image files
func (s *Server) handleChat(c *gin.Context) {
	sessionID := c.PostForm("session_id")
	if sessionID == "" {
		sessionID = uuid.NewString()
	}
	text := c.PostForm("text")
	modeHint := c.PostForm("mode_hint")
	if modeHint != "" && modeHint != "auto" && modeHint != "meal" && modeHint != "ingredients" {
		c.JSON(http.StatusBadRequest, gin.H{"error": "mode_hint must be auto, meal, or ingredients"})
		return
	}
	maxTime := 0
	if v := c.PostForm("max_time_minutes"); v != "" {
		if err := parsePositiveInt(v, &maxTime); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "max_time_minutes must be a positive integer"})
			return
		}
	}

	var imagePaths []string
	if form, err := c.MultipartForm(); err == nil && form != nil {
		uploads, err := readUploads(form.File["images"])
		if err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		if len(uploads) > 0 {
			imagePaths, err = s.orch.SaveUploadedImages(s.userID(), uploads)
			if err != nil {
				s.respondError(c, err)
				return
			}
		}
	}

	resp, err := s.orch.ProcessChatTurn(c.Request.Context(), s.userID(), sessionID, text, imagePaths, modeHint, maxTime)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

type modifyRequest struct {
	SessionID    string `json:"session_id" binding:"required"`
	Modification string `json:"modification" binding:"required"`
}

func (s *Server) handleModify(c *gin.Context) {
	var req modifyRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	resp, err := s.orch.ProcessModification(c.Request.Context(), s.userID(), req.SessionID, req.Modification)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

type selectRequest struct {
	SessionID    string `json:"session_id" binding:"required"`
	SuggestionID string `json:"suggestion_id" binding:"required"`
}

func (s *Server) handleSelect(c *gin.Context) {
	var req selectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	resp, err := s.orch.ProcessSelection(c.Request.Context(), s.userID(), req.SessionID, req.SuggestionID)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) handleSessionImages(c *gin.Context) {
	resp, err := s.orch.GetSessionImages(c.Param("session_id"))
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

type feedbackRequest struct {
	MealID      string   `json:"meal_id" binding:"required"`
	Liked       bool     `json:"liked"`
	CookedAgain bool     `json:"cooked_again"`
	Tags        []string `json:"tags"`
	Notes       string   `json:"notes"`
}

func (s *Server) handleFeedback(c *gin.Context) {
	var req feedbackRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	resp, err := s.orch.ProcessFeedback(c.Request.Context(), s.userID(), req.MealID, req.Liked, req.CookedAgain, req.Tags, req.Notes)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func (s *Server) handleGetProfile(c *gin.Context) {
	profile, err := s.store.Profiles.Get(s.userID())
	if err != nil {
		s.respondError(c, err)
		return
	}
	if profile == nil {
		profile = &models.Profile{UserID: s.userID()}
	}
	c.JSON(http.StatusOK, gin.H{
		"profile": profile,
		"summary": profile.Summary(),
	})
}

func (s *Server) handlePutProfile(c *gin.Context) {
	var profile models.Profile
	if err := c.ShouldBindJSON(&profile); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	profile.UserID = s.userID()

	if err := s.store.Users.Ensure(s.userID()); err != nil {
		s.respondError(c, err)
		return
	}
	if err := s.store.Profiles.Upsert(&profile); err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"profile": profile,
		"summary": profile.Summary(),
	})
}

func (s *Server) handleHistory(c *gin.Context) {
	limit := 20
	offset := 0
	if v := c.Query("limit"); v != "" {
		if err := parsePositiveInt(v, &limit); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "limit must be a positive integer"})
			return
		}
	}
	if v := c.Query("offset"); v != "" {
		if err := parseNonNegativeInt(v, &offset); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "offset must be a non-negative integer"})
			return
		}
	}

	entries, err := s.store.Meals.History(s.userID(), limit, offset)
	if err != nil {
		s.respondError(c, err)
		return
	}
	if entries == nil {
		entries = []models.HistoryEntry{}
	}
	c.JSON(http.StatusOK, gin.H{"meals": entries})
}

// respondError maps orchestrator sentinels to HTTP status codes
func (s *Server) respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, core.ErrSessionNotFound),
		errors.Is(err, core.ErrMealNotFound),
		errors.Is(err, core.ErrSuggestionNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, core.ErrNoPendingSelection),
		errors.Is(err, core.ErrNoMealContext):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		log.Printf("request failed: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}

// readUploads loads multipart files into memory for the orchestrator
func readUploads(files []*multipart.FileHeader) ([]core.UploadedImage, error) {
	uploads := make([]core.UploadedImage, 0, len(files))
	for _, fh := range files {
		f, err := fh.Open()
		if err != nil {
			return nil, err
		}
		data, err := io.ReadAll(f)
		_ = f.Close()
		if err != nil {
			return nil, err
		}
		uploads = append(uploads, core.UploadedImage{Filename: fh.Filename, Data: data})
	}
	return uploads, nil
}

func parsePositiveInt(v string, dst *int) error {
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		return errors.New("not a positive integer")
	}
	*dst = n
	return nil
}

func parseNonNegativeInt(v string, dst *int) error {
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return errors.New("not a non-negative integer")
	}
	*dst = n
	return nil
}
