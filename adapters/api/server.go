// Package api exposes the inference services over HTTP with gin.
package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"baymv/app"
	"baymv/domain/bayes"
	"baymv/domain/core"
	"baymv/domain/energy"
	"baymv/internal"
)

// Server represents the HTTP API server
type Server struct {
	router    *gin.Engine
	datasets  *app.DatasetService
	inference *app.InferenceService
	reports   *app.ReportService
	logger    *internal.Logger
}

// NewServer creates a new API server instance
func NewServer(datasets *app.DatasetService, inference *app.InferenceService, reports *app.ReportService, logger *internal.Logger) *Server {
	s := &Server{
		router:    gin.Default(),
		datasets:  datasets,
		inference: inference,
		reports:   reports,
		logger:    logger,
	}
	s.registerRoutes()
	return s
}

func (s *Server) registerRoutes() {
	s.router.GET("/health", s.handleHealth)

	s.router.POST("/api/datasets", s.handleCreateDataset)
	s.router.GET("/api/datasets", s.handleListDatasets)
	s.router.GET("/api/datasets/:id", s.handleGetDataset)
	s.router.DELETE("/api/datasets/:id", s.handleDeleteDataset)
	s.router.GET("/api/datasets/:id/profile", s.handleProfileDataset)

	s.router.POST("/api/datasets/:id/sweep", s.handleSweep)
	s.router.POST("/api/datasets/:id/fit", s.handleFit)
	s.router.POST("/api/savings", s.handleSavings)

	s.router.POST("/api/datasets/:id/report", s.handleSweepReport)
	s.router.POST("/api/savings/report", s.handleSavingsReport)
}

// Run starts the server on the given address
func (s *Server) Run(addr string) error {
	s.logger.Info("API server listening on %s", addr)
	return s.router.Run(addr)
}

// Router exposes the gin engine for tests.
func (s *Server) Router() *gin.Engine {
	return s.router
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

// createDatasetRequest accepts inline observations or a server-side file path.
type createDatasetRequest struct {
	Name         string               `json:"name" binding:"required"`
	Observations []energy.Observation `json:"observations"`
	FilePath     string               `json:"file_path"`
}

func (s *Server) handleCreateDataset(c *gin.Context) {
	var req createDatasetRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var (
		ds  *energy.Dataset
		err error
	)
	if req.FilePath != "" {
		ds, err = s.datasets.IngestFile(c.Request.Context(), req.Name, req.FilePath)
	} else {
		ds, err = s.datasets.Ingest(c.Request.Context(), req.Name, "api", req.Observations)
	}
	if err != nil {
		s.respondError(c, err)
		return
	}

	c.JSON(http.StatusCreated, ds)
}

func (s *Server) handleListDatasets(c *gin.Context) {
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))
	offset, _ := strconv.Atoi(c.DefaultQuery("offset", "0"))

	datasets, err := s.datasets.List(c.Request.Context(), limit, offset)
	if err != nil {
		s.respondError(c, err)
		return
	}

	// Strip observations from the listing to keep the payload small.
	summaries := make([]gin.H, len(datasets))
	for i, ds := range datasets {
		summaries[i] = gin.H{
			"id":           ds.ID,
			"name":         ds.Name,
			"source":       ds.Source,
			"observations": len(ds.Observations),
			"created_at":   ds.CreatedAt,
		}
	}
	c.JSON(http.StatusOK, gin.H{"datasets": summaries})
}

func (s *Server) handleGetDataset(c *gin.Context) {
	id, err := core.ParseDatasetID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	ds, err := s.datasets.Get(c.Request.Context(), id)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, ds)
}

func (s *Server) handleDeleteDataset(c *gin.Context) {
	id, err := core.ParseDatasetID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	if err := s.datasets.Delete(c.Request.Context(), id); err != nil {
		s.respondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

func (s *Server) handleProfileDataset(c *gin.Context) {
	id, err := core.ParseDatasetID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	profile, err := s.datasets.Profile(c.Request.Context(), id)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, profile)
}

// sweepRequest mirrors app.SweepRequest minus the dataset ID.
type sweepRequest struct {
	Shapes []energy.ModelShape `json:"shapes"`
	Step   float64             `json:"step"`
	Seed   int64               `json:"seed"`
	Prior  *bayes.PriorConfig  `json:"prior"`
}

func (s *Server) handleSweep(c *gin.Context) {
	id, err := core.ParseDatasetID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var req sweepRequest
	if err := c.ShouldBindJSON(&req); err != nil && err.Error() != "EOF" {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := s.inference.RunSweep(c.Request.Context(), app.SweepRequest{
		DatasetID: id,
		Shapes:    req.Shapes,
		Step:      req.Step,
		Seed:      req.Seed,
		Prior:     req.Prior,
	})
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

type fitRequest struct {
	Shape        energy.ModelShape  `json:"shape" binding:"required"`
	ChangePoint1 float64            `json:"change_point_1" binding:"required"`
	ChangePoint2 float64            `json:"change_point_2"`
	Prior        *bayes.PriorConfig `json:"prior"`
}

func (s *Server) handleFit(c *gin.Context) {
	id, err := core.ParseDatasetID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var req fitRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := s.inference.Fit(c.Request.Context(), app.FitRequest{
		DatasetID:    id,
		Shape:        req.Shape,
		ChangePoint1: req.ChangePoint1,
		ChangePoint2: req.ChangePoint2,
		Prior:        req.Prior,
	})
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

type savingsRequest struct {
	BaselineID   string             `json:"baseline_id" binding:"required"`
	ReportingID  string             `json:"reporting_id" binding:"required"`
	Shape        energy.ModelShape  `json:"shape" binding:"required"`
	ChangePoint1 float64            `json:"change_point_1" binding:"required"`
	ChangePoint2 float64            `json:"change_point_2"`
	SampleCount  int                `json:"sample_count"`
	Seed         int64              `json:"seed"`
	Prior        *bayes.PriorConfig `json:"prior"`
}

func (r savingsRequest) toApp() (app.SavingsRequest, error) {
	baselineID, err := core.ParseDatasetID(r.BaselineID)
	if err != nil {
		return app.SavingsRequest{}, err
	}
	reportingID, err := core.ParseDatasetID(r.ReportingID)
	if err != nil {
		return app.SavingsRequest{}, err
	}
	return app.SavingsRequest{
		BaselineID:   baselineID,
		ReportingID:  reportingID,
		Shape:        r.Shape,
		ChangePoint1: r.ChangePoint1,
		ChangePoint2: r.ChangePoint2,
		SampleCount:  r.SampleCount,
		Seed:         r.Seed,
		Prior:        r.Prior,
	}, nil
}

func (s *Server) handleSavings(c *gin.Context) {
	var req savingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	appReq, err := req.toApp()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	result, err := s.inference.EstimateSavings(c.Request.Context(), appReq)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, result)
}

func (s *Server) handleSweepReport(c *gin.Context) {
	id, err := core.ParseDatasetID(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	var req sweepRequest
	if err := c.ShouldBindJSON(&req); err != nil && err.Error() != "EOF" {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	report, err := s.reports.BuildSweepReport(c.Request.Context(), app.SweepRequest{
		DatasetID: id,
		Shapes:    req.Shapes,
		Step:      req.Step,
		Seed:      req.Seed,
		Prior:     req.Prior,
	})
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

func (s *Server) handleSavingsReport(c *gin.Context) {
	var req savingsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}
	appReq, err := req.toApp()
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		return
	}

	report, err := s.reports.BuildSavingsReport(c.Request.Context(), appReq)
	if err != nil {
		s.respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, report)
}

// respondError maps domain errors to HTTP status codes.
func (s *Server) respondError(c *gin.Context, err error) {
	switch {
	case core.IsNotFoundError(err):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, core.ErrUnknownShape),
		errors.Is(err, core.ErrInsufficientData):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case core.IsInferenceError(err):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": err.Error()})
	default:
		s.logger.Error("Unhandled API error: %v", err)
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal error"})
	}
}
