package transport

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"go-receipt-capture/internal/config"
	apperrors "go-receipt-capture/internal/errors"
	"go-receipt-capture/internal/logger"
	"go-receipt-capture/internal/service"
	"go-receipt-capture/pkg/models"
)

// NewHandler wires the capture service into the HTTP router.
func NewHandler(captureService service.CaptureService, cfg *config.Config) http.Handler {
	r := gin.Default()

	// Add middleware
	r.Use(
		requestSizeLimiter(cfg.MaxRequestBodySize),
		errorHandler(),
	)

	// Configure routes
	r.GET("/health", healthCheck)
	r.POST("/v1/frames/analyze", analyzeFrame(captureService, cfg))
	r.POST("/v1/captures", createCapture(captureService, cfg))
	r.POST("/v1/captures/:id/resolve", resolveCapture(captureService, cfg))

	return r
}

// analyzeFrame handles one live preview frame and returns guidance. Callers
// hit this at camera rate; the analysis cooldown keeps it cheap.
func analyzeFrame(s service.CaptureService, cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), cfg.RequestTimeout)
		defer cancel()

		var req models.FrameAnalysisRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			logger.WithError(err).WithFields(logrus.Fields{
				"ip": c.ClientIP(),
			}).Error("Invalid frame payload")
			respondError(c, http.StatusBadRequest, "invalid frame payload", err)
			return
		}

		guidance, err := s.AnalyzeFrame(ctx, req)
		if err != nil {
			respondError(c, apperrors.GetStatusCode(err), "frame analysis failed", err)
			return
		}

		c.JSON(http.StatusOK, guidance)
	}
}

// createCapture accepts a multipart still plus optional receipt fields and
// runs the full post-capture pipeline. The response always carries the
// terminal state; a rejected or duplicate-flagged capture is still a 200.
func createCapture(s service.CaptureService, cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		startTime := time.Now()
		ctx, cancel := context.WithTimeout(c.Request.Context(), cfg.RequestTimeout)
		defer cancel()

		logger.WithFields(logrus.Fields{
			"method": c.Request.Method,
			"path":   c.Request.URL.Path,
			"ip":     c.ClientIP(),
		}).Info("Processing capture request")

		imageBytes, err := readImageFile(c)
		if err != nil {
			logger.WithError(err).WithFields(logrus.Fields{
				"ip": c.ClientIP(),
			}).Error("Invalid capture payload")
			respondError(c, http.StatusBadRequest, "invalid capture payload", err)
			return
		}

		meta, err := metadataFromForm(c)
		if err != nil {
			respondError(c, http.StatusBadRequest, "invalid receipt fields", err)
			return
		}

		result, err := s.Capture(ctx, imageBytes, meta)
		if err != nil {
			respondError(c, apperrors.GetStatusCode(err), "capture processing failed", err)
			return
		}

		logger.WithFields(logrus.Fields{
			"capture_id":         result.ID,
			"state":              result.State,
			"quality_score":      result.Quality.OverallScore,
			"processing_time_ms": time.Since(startTime).Milliseconds(),
		}).Info("Capture processed")

		c.JSON(http.StatusOK, result)
	}
}

// resolveCapture settles a duplicate-flagged capture by id.
func resolveCapture(s service.CaptureService, cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), cfg.RequestTimeout)
		defer cancel()

		var req models.ResolveDuplicateRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			respondError(c, http.StatusBadRequest, "invalid resolve payload", err)
			return
		}

		result, err := s.ResolveDuplicate(ctx, c.Param("id"), req.Keep)
		if err != nil {
			respondError(c, apperrors.GetStatusCode(err), "resolve failed", err)
			return
		}

		logger.WithFields(logrus.Fields{
			"capture_id": result.ID,
			"state":      result.State,
			"kept":       req.Keep,
		}).Info("Duplicate resolved")

		c.JSON(http.StatusOK, result)
	}
}

func healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status":  "available",
		"version": "1.0.0",
		"time":    time.Now().UTC().Format(time.RFC3339),
	})
}

// readImageFile extracts the "image" part of the multipart form.
func readImageFile(c *gin.Context) ([]byte, error) {
	fileHeader, err := c.FormFile("image")
	if err != nil {
		return nil, apperrors.NewValidationError("missing image file", err)
	}

	file, err := fileHeader.Open()
	if err != nil {
		return nil, apperrors.NewValidationError("unreadable image file", err)
	}
	defer file.Close()

	imageBytes, err := io.ReadAll(file)
	if err != nil {
		return nil, apperrors.NewValidationError("failed to read image file", err)
	}
	return imageBytes, nil
}

// metadataFromForm builds receipt metadata from the optional form fields.
// Returns nil when no field is present so OCR extraction can fill in.
func metadataFromForm(c *gin.Context) (*models.ReceiptMetadata, error) {
	merchant := c.PostForm("merchant")
	date := c.PostForm("date")
	amountRaw := c.PostForm("amount")

	var amount float64
	if amountRaw != "" {
		parsed, err := strconv.ParseFloat(amountRaw, 64)
		if err != nil || parsed < 0 {
			return nil, apperrors.NewValidationError("amount must be a non-negative number", err)
		}
		amount = parsed
	}

	if merchant == "" && date == "" && amountRaw == "" {
		return nil, nil
	}
	return &models.ReceiptMetadata{Merchant: merchant, Amount: amount, Date: date}, nil
}

// Middleware and helper functions
func requestSizeLimiter(maxBytes int64) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, maxBytes)
		c.Next()
	}
}

func errorHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) > 0 {
			err := c.Errors.Last()
			respondError(c, determineStatusCode(err), "request processing failed", err)
		}
	}
}

func determineStatusCode(err error) int {
	// Check if it's a custom app error first
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) {
		return appErr.StatusCode
	}

	// Fallback to context-based errors
	switch {
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout
	case errors.Is(err, context.Canceled):
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

func respondError(c *gin.Context, code int, message string, err error) {
	// Log the error with context
	logger.WithError(err).WithFields(logrus.Fields{
		"status_code": code,
		"message":     message,
		"path":        c.Request.URL.Path,
		"method":      c.Request.Method,
		"ip":          c.ClientIP(),
	}).Error("Request failed")

	c.AbortWithStatusJSON(code, models.ErrorResponse{
		Error:   http.StatusText(code),
		Message: fmt.Sprintf("%s: %v", message, err),
	})
}
