package handlers

import (
	"bytes"
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	apperrors "paytrack/internal/errors"
	"paytrack/internal/models"
	"paytrack/internal/services"
	"paytrack/internal/spreadsheet"
)

const (
	maxImportRows      = 5000
	maxSpreadsheetSize = 10 << 20
)

// ImportSpreadsheet handles a bulk import from an uploaded .xlsx workbook
// @Summary     Import payments from a spreadsheet
// @Description Upload an .xlsx workbook whose first sheet has a header row (Name, Type, Amount, Date, End Date, Period, ...). Rows are imported as with the JSON import.
// @Tags        payments
// @Accept      multipart/form-data
// @Produce     json
// @Security    BearerAuth
// @Param       file formData file   true  "Workbook"
// @Param       mode formData string false "APPEND (default) or REPLACE"
// @Success     200 {object} services.ImportResult "Import result"
// @Failure     400 {object} ErrorResponse "Invalid input"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /payments/import/xlsx [post]
func (h *PaymentHandler) ImportSpreadsheet(c *gin.Context) {
	userID, err := getUserID(c)
	if err != nil {
		respondWithError(c, err)
		return
	}

	header, err := c.FormFile("file")
	if err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "file is required"))
		return
	}
	if header.Size > maxSpreadsheetSize {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, "file is too large"))
		return
	}
	file, err := header.Open()
	if err != nil {
		respondWithError(c, apperrors.Wrap(apperrors.ErrInvalidInput, err))
		return
	}
	defer file.Close()

	rows, err := spreadsheet.Read(file)
	if err != nil {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput, err.Error()))
		return
	}
	if len(rows) == 0 || len(rows) > maxImportRows {
		respondWithError(c, apperrors.WithMessage(apperrors.ErrInvalidInput,
			fmt.Sprintf("workbook must contain between 1 and %d rows", maxImportRows)))
		return
	}

	result, err := h.paymentService.Import(c.Request.Context(), userID, rows, c.PostForm("mode"))
	if err != nil {
		respondWithError(c, err)
		return
	}

	h.auditService.Log(userID, services.AuditActionImport, "payment", "", c.ClientIP(),
		map[string]interface{}{"mode": result.Mode, "imported": result.Imported, "skipped": len(result.Skipped), "format": "xlsx"})

	c.JSON(http.StatusOK, result)
}

// ExportSpreadsheet handles the export of the payment collection as a workbook
// @Summary     Export payments as a spreadsheet
// @Description Download every payment as an .xlsx workbook that can be imported again
// @Tags        payments
// @Produce     application/vnd.openxmlformats-officedocument.spreadsheetml.sheet
// @Security    BearerAuth
// @Success     200 {file}   file "Workbook"
// @Failure     401 {object} ErrorResponse "Unauthorized"
// @Failure     500 {object} ErrorResponse "Server error"
// @Router      /payments/export/xlsx [get]
func (h *PaymentHandler) ExportSpreadsheet(c *gin.Context) {
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

	var buf bytes.Buffer
	if err := spreadsheet.Write(&buf, rows); err != nil {
		respondWithError(c, apperrors.Wrap(apperrors.ErrInternalServer, err))
		return
	}

	filename := fmt.Sprintf("payments-%s.xlsx", models.Today(nil).String())
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	c.Data(http.StatusOK, spreadsheet.ContentType, buf.Bytes())
}
