package handlers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "paytrack/internal/errors"
	"paytrack/internal/services"
)

// UserLister enumerates the users that own payments.
// *repository.PaymentRepository satisfies it.
type UserLister interface {
	UserIDs(ctx context.Context) ([]string, error)
}

// PipelineHandler serves external reminder deliverers.
type PipelineHandler struct {
	paymentService services.PaymentServicer
	users          UserLister
}

// NewPipelineHandler creates a new PipelineHandler.
func NewPipelineHandler(paymentService services.PaymentServicer, users UserLister) *PipelineHandler {
	return &PipelineHandler{paymentService: paymentService, users: users}
}

// UserDuePayments lists the payments one user has due today.
type UserDuePayments struct {
	UserID   string                 `json:"user_id"`
	Payments []services.PaymentView `json:"payments"`
}

// GetDueToday lists every user's payments due today
// @Summary     Payments due today for all users
// @Description Unpaid payments whose weekend-adjusted due date is today, grouped by user (pipeline endpoint)
// @Tags        pipeline
// @Accept      json
// @Produce     json
// @Param       X-API-Key header   string            true "Pipeline API key"
// @Success     200       {object} map[string]interface{} "Due payments per user"
// @Failure     401       {object} ErrorResponse     "Invalid API key"
// @Failure     503       {object} ErrorResponse     "Pipeline not configured"
// @Router      /pipeline/due-today [get]
func (h *PipelineHandler) GetDueToday(c *gin.Context) {
	ctx := c.Request.Context()
	userIDs, err := h.users.UserIDs(ctx)
	if err != nil {
		respondWithError(c, apperrors.Wrap(apperrors.ErrInternalServer, err))
		return
	}

	users := make([]UserDuePayments, 0, len(userIDs))
	total := 0
	for _, userID := range userIDs {
		due, err := h.paymentService.DueToday(ctx, userID)
		if err != nil {
			respondWithError(c, err)
			return
		}
		if len(due) == 0 {
			continue
		}
		users = append(users, UserDuePayments{UserID: userID, Payments: due})
		total += len(due)
	}

	c.JSON(http.StatusOK, gin.H{"users": users, "count": total})
}
