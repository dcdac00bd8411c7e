package handlers

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "paytrack/internal/errors"
	"paytrack/internal/models"
	"paytrack/internal/pagination"
	"paytrack/internal/services"
)

// PaymentHandler handles payment-related requests.
type PaymentHandler struct {
	paymentService services.PaymentServicer
	auditService   services.AuditServicer
}

// NewPaymentHandler creates a new PaymentHandler.
func NewPaymentHandler(paymentService services.PaymentServicer, auditService services.AuditServicer) *PaymentHandler {
	return &PaymentHandler{paymentService: paymentService, auditService: auditService}
}

// PaymentRequest represents the request payload for creating or updating a payment
type PaymentRequest struct {
	Name                 string               `json:"name" binding:"required,max=200"`
	PaymentType          models.PaymentType   `json:"payment_type" binding:"required,payment_type"`
	Amount               float64              `json:"amount" binding:"gte=0"`
	MinimumPaymentAmount *float64             `json:"minimum_payment_amount" binding:"omitempty,gte=0"`
	Date                 models.Date          `json:"date" swaggertype:"string" example:"2024-06-10"`
	EndDate              *models.Date         `json:"end_date" swaggertype:"string" example:"2025-06-10"`
	Period               models.PaymentPeriod `json:"period" binding:"omitempty,payment_period"`
	CustomTag            string               `json:"custom_tag" binding:"max=50"`
	CommitmentEndDate    *models.Date         `json:"commitment_end_date" swaggertype:"string"`
	AutoPayment          bool                 `json:"auto_payment"`
	AutoPaymentBank      string               `json:"auto_payment_bank" binding:"max=100"`
	Notes                string               `json:"notes" binding:"max=1000"`
	// AlreadyPaid records a past payment as settled. Ignored on update.
	AlreadyPaid bool `json:"already_paid"`
}

func (r PaymentRequest) toInput() services.PaymentInput {
	return services.PaymentInput{
		Name:                 r.Name,
		PaymentType:          r.PaymentType,
		Amount:               r.Amount,
		MinimumPaymentAmount: r.MinimumPaymentAmount,
		Date:                 r.Date,
		EndDate:              r.EndDate,
		Period:               r.Period,
		CustomTag:            r.CustomTag,
		CommitmentEndDate:    r.CommitmentEndDate,
		AutoPayment:          r.AutoPayment,
		AutoPaymentBank:      r.AutoPaymentBank,
		Notes:                r.Notes,
		AlreadyPaid:          r.AlreadyPaid,
	}
}

// ConfirmPaymentRequest represents the request payload for confirming a payment
type ConfirmPaymentRequest struct {
	// PaidAmount defaults to the payment's expected amount.
	PaidAmount *float64 `json:"paid_amount"`
}

// ListPaymentsQuery holds the filter query parameters for listing payments
type ListPaymentsQuery struct {
	Month    string `form:"month" binding:"omitempty,month"`
	Category string `form:"category" binding:"omitempty,payment_category"`
	Status   string `form:"status" binding:"omitempty,filter_status"`
}

// MonthQuery holds the month and category query parameters of the statistics endpoints
type MonthQuery struct {
	Month    string `form:"month" binding:"omitempty,month"`
	Category string `form:"category" binding:"omitempty,payment_category"`
}

// ImportRequest represents the request payload for importing payments
type ImportRequest struct {
	Mode string               `json:"mode" binding:"omitempty,import_mode"`
	Rows []services.ImportRow `json:"rows" binding:"required,min=1,max=5000"`
}

// CreatePayment handles the creation of a new payment
// @Summary     Create a payment
// @Description Create a bill, loan, credit card or digital subscription payment
// @Tags        payments
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body PaymentRequest true "Payment details"
// @Success     201 {object} models.Payment "Payment created"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /payments [post]
func (h *PaymentHandler) CreatePayment(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req PaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	payment, err := h.paymentService.CreatePayment(c.Request.Context(), userID, req.toInput())
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, services.AuditActionCreate, "payment", payment.ID, c.ClientIP(),
		map[string]interface{}{"type": payment.PaymentType, "amount": payment.Amount, "date": payment.Date.String()})

	c.JSON(http.StatusCreated, gin.H{"payment": payment})
}

// ListPayments handles the retrieval of the user's payments
// @Summary     List payments
// @Description Get a paginated list of payments sorted by adjusted due date
// @Tags        payments
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       page      query int    false "Page number (default 1)"
// @Param       page_size query int    false "Items per page (default 20, max 100)"
// @Param       month     query string false "Filter by month of the nominal date (YYYY-MM)"
// @Param       category  query string false "Filter by category (LOAN, CARD, BILL, DIGITAL)"
// @Param       status    query string false "Filter by status (ALL, PENDING, PAID)"
// @Success     200 {object} pagination.PageResponse[services.PaymentView] "Paginated payments"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /payments [get]
func (h *PaymentHandler) ListPayments(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var page pagination.PageRequest
	if err := c.ShouldBindQuery(&page); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	var query ListPaymentsQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	filter := services.PaymentFilter{
		Month:    query.Month,
		Category: models.PaymentCategory(query.Category),
		Status:   query.Status,
	}
	result, err := h.paymentService.ListPayments(c.Request.Context(), userID, filter, page)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// GetPayment handles the retrieval of a single payment
// @Summary     Get a payment
// @Description Get a payment with its weekend-adjusted due date
// @Tags        payments
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Payment ID"
// @Success     200 {object} services.PaymentView "Payment"
// @Failure     400 {object} ErrorResponse "Invalid ID"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Payment not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /payments/{id} [get]
func (h *PaymentHandler) GetPayment(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	paymentID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	payment, err := h.paymentService.GetPayment(c.Request.Context(), userID, paymentID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"payment": payment})
}

// UpdatePayment handles a manual edit of a payment
// @Summary     Update a payment
// @Description Edit the descriptive fields, date or amount of a payment. Paid state is not changed.
// @Tags        payments
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id      path string         true "Payment ID"
// @Param       request body PaymentRequest true "Payment details"
// @Success     200 {object} models.Payment "Payment updated"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Payment not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /payments/{id} [put]
func (h *PaymentHandler) UpdatePayment(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	paymentID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req PaymentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	payment, err := h.paymentService.UpdatePayment(c.Request.Context(), userID, paymentID, req.toInput())
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, services.AuditActionUpdate, "payment", payment.ID, c.ClientIP(),
		map[string]interface{}{"name": payment.Name, "amount": payment.Amount, "date": payment.Date.String()})

	c.JSON(http.StatusOK, gin.H{"payment": payment})
}

// DeletePayment handles the deletion of a payment
// @Summary     Delete a payment
// @Description Delete a pending or paid payment
// @Tags        payments
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id path string true "Payment ID"
// @Success     200 {object} map[string]string "Payment deleted"
// @Failure     400 {object} ErrorResponse "Invalid ID"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Payment not found"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /payments/{id} [delete]
func (h *PaymentHandler) DeletePayment(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	paymentID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	if err := h.paymentService.DeletePayment(c.Request.Context(), userID, paymentID); err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, services.AuditActionDelete, "payment", paymentID, c.ClientIP(), nil)

	c.JSON(http.StatusOK, gin.H{"message": "Payment deleted successfully"})
}

// ConfirmPayment handles the confirmation of a pending payment
// @Summary     Confirm a payment
// @Description Mark a pending payment as paid. Bills, cards and subscriptions get their next occurrence scheduled.
// @Tags        payments
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       id      path string                true  "Payment ID"
// @Param       request body ConfirmPaymentRequest false "Paid amount"
// @Success     200 {object} services.ConfirmResult "Confirmed payment and next occurrence"
// @Failure     400 {object} ErrorResponse "Invalid amount"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     404 {object} ErrorResponse "Payment not found"
// @Failure     409 {object} ErrorResponse "Payment already paid"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /payments/{id}/confirm [post]
func (h *PaymentHandler) ConfirmPayment(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	paymentID, err := parsePathID(c, "id")
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req ConfirmPaymentRequest
	if c.Request.ContentLength != 0 {
		if err := c.ShouldBindJSON(&req); err != nil {
			respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
			return
		}
	}

	result, err := h.paymentService.ConfirmPayment(c.Request.Context(), userID, paymentID, req.PaidAmount)
	if err != nil {
		respondWithError(c, err)
		return
	}

	changes := map[string]interface{}{"paid_amount": result.Payment.PaidAmount}
	if result.NextOccurrence != nil {
		changes["next_occurrence_id"] = result.NextOccurrence.ID
		changes["next_occurrence_date"] = result.NextOccurrence.Date.String()
	}
	h.auditService.Log(userID, services.AuditActionConfirm, "payment", paymentID, c.ClientIP(), changes)

	c.JSON(http.StatusOK, result)
}

// GetSummary handles the monthly expected vs paid summary
// @Summary     Month summary
// @Description Expected and paid totals of a month, for one category and for all categories
// @Tags        payments
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       month    query string false "Month (YYYY-MM, default current month)"
// @Param       category query string false "Category (LOAN, CARD, BILL, DIGITAL)"
// @Success     200 {object} services.MonthSummary "Month summary"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /payments/summary [get]
func (h *PaymentHandler) GetSummary(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var query MonthQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	summary, err := h.paymentService.MonthSummary(c.Request.Context(), userID, query.Month, models.PaymentCategory(query.Category))
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"summary": summary})
}

// GetDashboard handles the dashboard statistics
// @Summary     Dashboard
// @Description Six-month paid trend plus category and custom tag breakdowns of a month
// @Tags        payments
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       month query string false "Month (YYYY-MM, default current month)"
// @Success     200 {object} services.Dashboard "Dashboard"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /payments/dashboard [get]
func (h *PaymentHandler) GetDashboard(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var query MonthQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	dashboard, err := h.paymentService.Dashboard(c.Request.Context(), userID, query.Month)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"dashboard": dashboard})
}

// GetDueToday handles the retrieval of payments due today
// @Summary     Payments due today
// @Description Unpaid payments whose weekend-adjusted due date is today
// @Tags        payments
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Success     200 {array}  services.PaymentView "Payments due today"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /payments/due-today [get]
func (h *PaymentHandler) GetDueToday(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	due, err := h.paymentService.DueToday(c.Request.Context(), userID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"payments": due, "count": len(due)})
}

// ImportPayments handles a bulk import of payment rows
// @Summary     Import payments
// @Description Append rows to, or replace, the payment collection. Rows carrying a status are restored as backups; loan and card rows with an end date are expanded into monthly installments.
// @Tags        payments
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Param       request body ImportRequest true "Rows and mode"
// @Success     200 {object} services.ImportResult "Import result"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /payments/import [post]
func (h *PaymentHandler) ImportPayments(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	var req ImportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}

	result, err := h.paymentService.Import(c.Request.Context(), userID, req.Rows, req.Mode)
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, services.AuditActionImport, "payment", "", c.ClientIP(),
		map[string]interface{}{"mode": result.Mode, "imported": result.Imported, "skipped": len(result.Skipped)})

	c.JSON(http.StatusOK, result)
}

// ExportPayments handles the export of the payment collection
// @Summary     Export payments
// @Description Download every payment as backup rows that can be imported again
// @Tags        payments
// @Accept      json
// @Produce     json
// @Security    BearerAuth
// @Success     200 {array}  services.ImportRow "Backup rows"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /payments/export [get]
func (h *PaymentHandler) ExportPayments(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	rows, err := h.paymentService.Export(c.Request.Context(), userID)
	if err != nil {
		respondWithError(c, err)
		return
	}

	filename := fmt.Sprintf("payments-%s.json", models.Today(nil).String())
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.JSON(http.StatusOK, gin.H{"rows": rows, "count": len(rows)})
}
