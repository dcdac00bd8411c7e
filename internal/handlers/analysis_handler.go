package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	"paytrack/internal/analysis"
	apperrors "paytrack/internal/errors"
	"paytrack/internal/models"
	"paytrack/internal/services"
)

// Analyzer produces a debt analysis for a user's unpaid payments.
// *analysis.Service satisfies it.
type Analyzer interface {
	Analyze(ctx context.Context, userID string, unpaid []models.Payment) (*analysis.Result, bool, error)
}

// AnalysisHandler handles debt analysis requests.
type AnalysisHandler struct {
	paymentService services.PaymentServicer
	analyzer       Analyzer
}

// NewAnalysisHandler creates a new AnalysisHandler.
func NewAnalysisHandler(paymentService services.PaymentServicer, analyzer Analyzer) *AnalysisHandler {
	return &AnalysisHandler{paymentService: paymentService, analyzer: analyzer}
}

// AnalysisResponse wraps an analysis result.
type AnalysisResponse struct {
	Analysis *analysis.Result `json:"analysis"`
	Cached   bool             `json:"cached"`
}

// Analyze handles a debt analysis of the user's unpaid payments
// @Summary     Analyze debt
// @Description Summarize unpaid payments, list the urgent ones and rate the overall situation
// @Tags        analysis
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Success     200 {object} AnalysisResponse "Analysis"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     429 {object} ErrorResponse "Rate limited"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /analysis [post]
func (h *AnalysisHandler) Analyze(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	unpaid, err := h.paymentService.Unpaid(c.Request.Context(), userID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	result, cached, err := h.analyzer.Analyze(c.Request.Context(), userID, unpaid)
	if err != nil {
		respondWithError(c, apperrors.Wrap(apperrors.ErrInternalServer, err))
		return
	}

	c.JSON(http.StatusOK, AnalysisResponse{Analysis: result, Cached: cached})
}
