// Package api is the HTTP shell over the question-answering service.
package api

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"finsight/internal/rag/ragerr"
	"finsight/internal/rag/schema"
	"finsight/internal/service"
	"finsight/pkg/logger"
)

// API provides the HTTP handlers of the query and upload endpoints.
type API struct {
	service   *service.Service
	ingestor  *service.Ingestor
	uploadDir string
	logger    *logger.Logger
}

// NewAPI creates a new API handler. Uploaded files are spooled under
// uploadDir before ingestion.
func NewAPI(svc *service.Service, ingestor *service.Ingestor, uploadDir string, logger *logger.Logger) *API {
	return &API{
		service:   svc,
		ingestor:  ingestor,
		uploadDir: uploadDir,
		logger:    logger,
	}
}

// QueryHandler answers a question within a session.
func (a *API) QueryHandler(c *gin.Context) {
	var payload struct {
		Question  string `json:"question" binding:"required"`
		SessionID string `json:"session_id"`
	}
	if err := c.ShouldBindJSON(&payload); err != nil {
		a.logger.Warn(fmt.Sprintf("Invalid query payload: %v", err))
		c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request payload"})
		return
	}
	if payload.SessionID == "" {
		payload.SessionID = uuid.New().String()
	}

	answer, err := a.service.Ask(c.Request.Context(), payload.Question, payload.SessionID)
	if err != nil {
		// The service layer already logged the detailed error.
		switch {
		case errors.Is(err, ragerr.ErrGenerationFailed), errors.Is(err, ragerr.ErrProviderUnavailable):
			c.JSON(http.StatusServiceUnavailable, gin.H{"error": "The answer could not be generated, please try again later"})
		default:
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to answer the question"})
		}
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"session_id": payload.SessionID,
		"answer":     answer.Text,
		"sources":    answer.Sources,
		"blocked":    answer.Blocked,
	})
}

// UploadHandler receives a document and indexes it into the uploads
// namespace so it is immediately searchable.
func (a *API) UploadHandler(c *gin.Context) {
	file, err := c.FormFile("file")
	if err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "Missing file field"})
		return
	}

	if err := os.MkdirAll(a.uploadDir, 0o755); err != nil {
		a.logger.Error(fmt.Sprintf("Failed to create upload dir: %v", err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to store uploaded file"})
		return
	}
	dst := filepath.Join(a.uploadDir, filepath.Base(file.Filename))
	if err := c.SaveUploadedFile(file, dst); err != nil {
		a.logger.Error(fmt.Sprintf("Failed to save uploaded file: %v", err))
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to store uploaded file"})
		return
	}

	chunks, err := a.ingestor.Ingest(c.Request.Context(), dst, schema.NamespaceUploads)
	if err != nil {
		a.logger.Error(fmt.Sprintf("Failed to ingest uploaded file %s: %v", dst, err))
		c.JSON(http.StatusUnprocessableEntity, gin.H{"error": "Failed to process the uploaded document"})
		return
	}

	c.JSON(http.StatusOK, gin.H{"file": file.Filename, "chunks": chunks})
}

// HealthHandler reports liveness and the size of the index.
func (a *API) HealthHandler(c *gin.Context) {
	count, err := a.service.Count(c.Request.Context())
	if err != nil {
		c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded"})
		return
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok", "indexed_chunks": count})
}
