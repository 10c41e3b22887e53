package api

import (
	"errors"
	"log"
	"net/http"
	"os"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/patternlab/puf-engine/internal/db"
	"github.com/patternlab/puf-engine/internal/mining"
	"github.com/patternlab/puf-engine/internal/runner"
	"github.com/patternlab/puf-engine/pkg/models"
)

// maxSyncTransactions caps the database size accepted by the synchronous
// mine endpoint; larger databases go through the job queue instead.
const maxSyncTransactions = 100_000

type APIHandler struct {
	dbStore      *db.PostgresStore
	wsHub        *Hub
	miningRunner *runner.Runner
}

func SetupRouter(dbStore *db.PostgresStore, wsHub *Hub, miningRunner *runner.Runner) *gin.Engine {
	r := gin.Default()

	// Enable CORS — configurable via ALLOWED_ORIGINS env var
	// Production: ALLOWED_ORIGINS=https://patterns.example.com
	// Development: ALLOWED_ORIGINS=http://localhost:3000 (or leave empty for *)
	allowedOrigins := os.Getenv("ALLOWED_ORIGINS")
	r.Use(func(c *gin.Context) {
		origin := c.Request.Header.Get("Origin")
		if allowedOrigins == "" || allowedOrigins == "*" {
			c.Writer.Header().Set("Access-Control-Allow-Origin", "*")
		} else {
			// Check if the request origin is in the allowed list
			for _, allowed := range strings.Split(allowedOrigins, ",") {
				if strings.TrimSpace(allowed) == origin {
					c.Writer.Header().Set("Access-Control-Allow-Origin", origin)
					break
				}
			}
		}
		c.Writer.Header().Set("Access-Control-Allow-Credentials", "true")
		c.Writer.Header().Set("Access-Control-Allow-Headers", "Content-Type, Content-Length, Accept-Encoding, X-CSRF-Token, Authorization, accept, origin, Cache-Control, X-Requested-With")
		c.Writer.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS, GET, PUT")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(204)
			return
		}
		c.Next()
	})

	handler := &APIHandler{
		dbStore:      dbStore,
		wsHub:        wsHub,
		miningRunner: miningRunner,
	}

	// ── Public endpoints (no auth) ─────────────────────────────
	pub := r.Group("/api/v1")
	{
		pub.GET("/health", handler.handleHealth)
		pub.GET("/stream", wsHub.Subscribe)
		pub.GET("/jobs/progress", handler.handleRunnerProgress)
		pub.GET("/jobs/:id/patterns", handler.handleGetPatterns)
	}

	// ── Protected endpoints (require bearer token if API_AUTH_TOKEN set) ──
	auth := r.Group("/api/v1")
	auth.Use(AuthMiddleware())
	// Rate-limit protected endpoints to 30 req/min per IP (burst=5).
	// The /mine endpoint runs a full mining pass inline — especially important here.
	auth.Use(NewRateLimiter(30, 5).Middleware())
	{
		auth.POST("/mine", handler.handleMineSync)

		auth.POST("/datasets", handler.handleUploadDataset)
		auth.POST("/datasets/synthetic", handler.handleSyntheticDataset)

		auth.POST("/jobs", handler.handleEnqueueJob)
		auth.GET("/jobs/:id", handler.handleGetJob)
	}

	// Serve Static Dashboard
	r.Static("/dashboard", "./public")

	return r
}

// handleMineSync mines an uploaded in-memory database in the request cycle.
// POST /api/v1/mine { "transactions": [[{"item":"a","probability":0.9}, ...], ...], "minSup": 0.5 }
func (h *APIHandler) handleMineSync(c *gin.Context) {
	var req struct {
		Transactions [][]models.ItemOccurrence `json:"transactions"`
		MinSup       float64                   `json:"minSup"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body. Expected: {transactions, minSup}"})
		return
	}
	if len(req.Transactions) > maxSyncTransactions {
		c.JSON(http.StatusBadRequest, gin.H{
			"error": "Database too large for synchronous mining",
			"hint":  "Upload it as a dataset and enqueue a job instead",
		})
		return
	}

	database := make([]models.Transaction, len(req.Transactions))
	for i, occs := range req.Transactions {
		database[i] = models.Transaction{Occurrences: occs}
	}

	result, err := mining.Mine(database, req.MinSup)
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, mining.ErrInvalidThreshold) ||
			errors.Is(err, mining.ErrEmptyDatabase) ||
			errors.Is(err, mining.ErrProbabilityOutOfRange) {
			status = http.StatusBadRequest
		}
		c.JSON(status, gin.H{"error": err.Error()})
		return
	}

	c.JSON(http.StatusOK, result)
}

// handleHealth returns engine status and capabilities for service discovery
func (h *APIHandler) handleHealth(c *gin.Context) {
	dbConnected := h.dbStore != nil

	c.JSON(http.StatusOK, gin.H{
		"status": "operational",
		"engine": "PUF Mining Engine v1.0",
		"capabilities": gin.H{
			"puf_tree":        true,
			"exact_verifier":  true,
			"reference_miner": true,
			"job_queue":       dbConnected,
			"synthetic_data":  IsSyntheticEnabled(),
		},
		"dbConnected": dbConnected,
	})
}

// handleRunnerProgress returns the mining runner's current state.
func (h *APIHandler) handleRunnerProgress(c *gin.Context) {
	if h.miningRunner == nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "Mining runner not initialized"})
		return
	}
	c.JSON(http.StatusOK, h.miningRunner.GetProgress())
}

// BroadcastMiningAlert sends a job-completion alert via the WebSocket hub.
// This is wired as the alertFunc callback for the mining runner.
func BroadcastMiningAlert(wsHub *Hub) func(runner.MiningAlert) {
	return func(alert runner.MiningAlert) {
		wsHub.BroadcastJSON(gin.H{
			"type":  "mining_complete",
			"alert": alert,
		})
		log.Printf("[ALERT] Job %s finished: %d patterns (minSup %v, %d false positives removed)",
			alert.JobID, alert.PatternCount, alert.MinSup, alert.FalsePositives)
	}
}
