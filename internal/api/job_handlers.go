package api

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/patternlab/puf-engine/internal/dataset"
	"github.com/patternlab/puf-engine/pkg/models"
)

// ════════════════════════════════════════════════════════════════════
// Dataset & Mining Job Handlers
// ════════════════════════════════════════════════════════════════════

// POST /api/v1/datasets
// Stores an uncertain database for later mining jobs.
func (h *APIHandler) handleUploadDataset(c *gin.Context) {
	if h.dbStore == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Database not connected"})
		return
	}

	var req struct {
		Name         string                    `json:"name" binding:"required"`
		Transactions [][]models.ItemOccurrence `json:"transactions" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}
	if len(req.Transactions) == 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "At least one transaction is required"})
		return
	}

	database := make([]models.Transaction, len(req.Transactions))
	for i, occs := range req.Transactions {
		database[i] = models.Transaction{Occurrences: occs}
	}

	id, err := h.dbStore.SaveDataset(c.Request.Context(), req.Name, database)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to store dataset", "details": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"status":    "created",
		"datasetId": id,
		"txnCount":  len(database),
	})
}

// POST /api/v1/datasets/synthetic
// Generates and stores a synthetic uncertain database. Gated in production
// to keep generated data out of real pattern stores.
func (h *APIHandler) handleSyntheticDataset(c *gin.Context) {
	if !IsSyntheticEnabled() {
		c.JSON(http.StatusForbidden, gin.H{
			"error": "Synthetic dataset generation is disabled in production",
			"hint":  "Set ENABLE_SYNTHETIC=true to enable test data generation",
		})
		return
	}
	if h.dbStore == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Database not connected"})
		return
	}

	var req struct {
		Name         string `json:"name" binding:"required"`
		Transactions int    `json:"transactions" binding:"required"`
		Items        int    `json:"items" binding:"required"`
		AvgLength    int    `json:"avgLength" binding:"required"`
		Seed         int64  `json:"seed"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request: " + err.Error()})
		return
	}
	if req.Transactions <= 0 || req.Items <= 0 || req.AvgLength <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "transactions, items and avgLength must be positive"})
		return
	}

	database := dataset.Generate(dataset.GeneratorConfig{
		Transactions: req.Transactions,
		Items:        req.Items,
		AvgLength:    req.AvgLength,
		Seed:         req.Seed,
	})

	id, err := h.dbStore.SaveDataset(c.Request.Context(), req.Name, database)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to store dataset", "details": err.Error()})
		return
	}

	c.JSON(http.StatusCreated, gin.H{
		"status":    "created",
		"datasetId": id,
		"txnCount":  len(database),
	})
}

// POST /api/v1/jobs
// Enqueues a mining job over a stored dataset; the queue poller picks it up.
func (h *APIHandler) handleEnqueueJob(c *gin.Context) {
	if h.dbStore == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Database not connected"})
		return
	}

	var req struct {
		DatasetID string  `json:"datasetId" binding:"required"`
		MinSup    float64 `json:"minSup" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request. Expected: {datasetId, minSup}"})
		return
	}

	datasetID, err := uuid.Parse(req.DatasetID)
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid datasetId format"})
		return
	}
	if req.MinSup <= 0 {
		c.JSON(http.StatusBadRequest, gin.H{"error": "minSup must be positive"})
		return
	}

	jobID, err := h.dbStore.EnqueueJob(c.Request.Context(), datasetID, req.MinSup)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to enqueue job", "details": err.Error()})
		return
	}

	c.JSON(http.StatusAccepted, gin.H{
		"status": "queued",
		"jobId":  jobID,
	})
}

// GET /api/v1/jobs/:id
// Returns the status of one mining job.
func (h *APIHandler) handleGetJob(c *gin.Context) {
	if h.dbStore == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Database not connected"})
		return
	}

	jobID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid job id format"})
		return
	}

	job, err := h.dbStore.GetJob(c.Request.Context(), jobID)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch job", "details": err.Error()})
		return
	}
	if job == nil {
		c.JSON(http.StatusNotFound, gin.H{"error": "Job not found"})
		return
	}

	c.JSON(http.StatusOK, job)
}

// GET /api/v1/jobs/:id/patterns
// Returns one page of a finished job's mined patterns.
func (h *APIHandler) handleGetPatterns(c *gin.Context) {
	if h.dbStore == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Database not connected"})
		return
	}

	jobID, err := uuid.Parse(c.Param("id"))
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid job id format"})
		return
	}

	// Parse pagination parameters
	page, _ := strconv.Atoi(c.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(c.DefaultQuery("limit", "50"))

	patterns, totalCount, err := h.dbStore.GetPatterns(c.Request.Context(), jobID, page, limit)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch patterns", "details": err.Error()})
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"data":       patterns,
		"totalCount": totalCount,
		"page":       page,
		"limit":      limit,
	})
}
