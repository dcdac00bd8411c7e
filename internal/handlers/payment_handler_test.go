package handlers

import (
	"context"
	"net/http"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	apperrors "paytrack/internal/errors"
	"paytrack/internal/models"
	"paytrack/internal/pagination"
	"paytrack/internal/services"
)

const testPaymentID = "0190a1b2-c3d4-7e5f-8a9b-0c1d2e3f4a60"

type mockPaymentService struct {
	createPaymentFn  func(ctx context.Context, userID string, input services.PaymentInput) (*models.Payment, error)
	updatePaymentFn  func(ctx context.Context, userID, paymentID string, input services.PaymentInput) (*models.Payment, error)
	deletePaymentFn  func(ctx context.Context, userID, paymentID string) error
	getPaymentFn     func(ctx context.Context, userID, paymentID string) (*services.PaymentView, error)
	listPaymentsFn   func(ctx context.Context, userID string, filter services.PaymentFilter, page pagination.PageRequest) (*pagination.PageResponse[services.PaymentView], error)
	confirmPaymentFn func(ctx context.Context, userID, paymentID string, paidAmount *float64) (*services.ConfirmResult, error)
	monthSummaryFn   func(ctx context.Context, userID, month string, category models.PaymentCategory) (*services.MonthSummary, error)
	dashboardFn      func(ctx context.Context, userID, month string) (*services.Dashboard, error)
	dueTodayFn       func(ctx context.Context, userID string) ([]services.PaymentView, error)
	unpaidFn         func(ctx context.Context, userID string) ([]models.Payment, error)
	importFn         func(ctx context.Context, userID string, rows []services.ImportRow, mode string) (*services.ImportResult, error)
	exportFn         func(ctx context.Context, userID string) ([]services.ImportRow, error)
}

func (m *mockPaymentService) CreatePayment(ctx context.Context, userID string, input services.PaymentInput) (*models.Payment, error) {
	if m.createPaymentFn != nil {
		return m.createPaymentFn(ctx, userID, input)
	}
	return &models.Payment{ID: testPaymentID}, nil
}

func (m *mockPaymentService) UpdatePayment(ctx context.Context, userID, paymentID string, input services.PaymentInput) (*models.Payment, error) {
	if m.updatePaymentFn != nil {
		return m.updatePaymentFn(ctx, userID, paymentID, input)
	}
	return &models.Payment{ID: paymentID}, nil
}

func (m *mockPaymentService) DeletePayment(ctx context.Context, userID, paymentID string) error {
	if m.deletePaymentFn != nil {
		return m.deletePaymentFn(ctx, userID, paymentID)
	}
	return nil
}

func (m *mockPaymentService) GetPayment(ctx context.Context, userID, paymentID string) (*services.PaymentView, error) {
	if m.getPaymentFn != nil {
		return m.getPaymentFn(ctx, userID, paymentID)
	}
	return &services.PaymentView{Payment: models.Payment{ID: paymentID}}, nil
}

func (m *mockPaymentService) ListPayments(ctx context.Context, userID string, filter services.PaymentFilter, page pagination.PageRequest) (*pagination.PageResponse[services.PaymentView], error) {
	if m.listPaymentsFn != nil {
		return m.listPaymentsFn(ctx, userID, filter, page)
	}
	resp := pagination.PageSlice([]services.PaymentView{}, page)
	return &resp, nil
}

func (m *mockPaymentService) ConfirmPayment(ctx context.Context, userID, paymentID string, paidAmount *float64) (*services.ConfirmResult, error) {
	if m.confirmPaymentFn != nil {
		return m.confirmPaymentFn(ctx, userID, paymentID, paidAmount)
	}
	p := models.Payment{ID: paymentID, IsPaid: true}
	if paidAmount != nil {
		p.PaidAmount = *paidAmount
	}
	return &services.ConfirmResult{Payment: p}, nil
}

func (m *mockPaymentService) MonthSummary(ctx context.Context, userID, month string, category models.PaymentCategory) (*services.MonthSummary, error) {
	if m.monthSummaryFn != nil {
		return m.monthSummaryFn(ctx, userID, month, category)
	}
	return &services.MonthSummary{Month: month, Category: category}, nil
}

func (m *mockPaymentService) Dashboard(ctx context.Context, userID, month string) (*services.Dashboard, error) {
	if m.dashboardFn != nil {
		return m.dashboardFn(ctx, userID, month)
	}
	return &services.Dashboard{Month: month}, nil
}

func (m *mockPaymentService) DueToday(ctx context.Context, userID string) ([]services.PaymentView, error) {
	if m.dueTodayFn != nil {
		return m.dueTodayFn(ctx, userID)
	}
	return []services.PaymentView{}, nil
}

func (m *mockPaymentService) Unpaid(ctx context.Context, userID string) ([]models.Payment, error) {
	if m.unpaidFn != nil {
		return m.unpaidFn(ctx, userID)
	}
	return nil, nil
}

func (m *mockPaymentService) Import(ctx context.Context, userID string, rows []services.ImportRow, mode string) (*services.ImportResult, error) {
	if m.importFn != nil {
		return m.importFn(ctx, userID, rows, mode)
	}
	return &services.ImportResult{Mode: mode, Imported: len(rows), Total: len(rows)}, nil
}

func (m *mockPaymentService) Export(ctx context.Context, userID string) ([]services.ImportRow, error) {
	if m.exportFn != nil {
		return m.exportFn(ctx, userID)
	}
	return []services.ImportRow{}, nil
}

func setupPaymentRouter(handler *PaymentHandler) *gin.Engine {
	r := gin.New()
	auth := r.Group("", injectUserID(testUserID))
	auth.POST("/payments", handler.CreatePayment)
	auth.GET("/payments", handler.ListPayments)
	auth.GET("/payments/summary", handler.GetSummary)
	auth.GET("/payments/dashboard", handler.GetDashboard)
	auth.GET("/payments/due-today", handler.GetDueToday)
	auth.POST("/payments/import", handler.ImportPayments)
	auth.GET("/payments/export", handler.ExportPayments)
	auth.POST("/payments/import/xlsx", handler.ImportSpreadsheet)
	auth.GET("/payments/export/xlsx", handler.ExportSpreadsheet)
	auth.GET("/payments/:id", handler.GetPayment)
	auth.PUT("/payments/:id", handler.UpdatePayment)
	auth.DELETE("/payments/:id", handler.DeletePayment)
	auth.POST("/payments/:id/confirm", handler.ConfirmPayment)
	return r
}

const validPaymentBody = `{"name":"Electricity","payment_type":"BILL","amount":420.5,"date":"2024-06-15","period":"MONTHLY"}`

func TestPaymentHandler_CreatePayment(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		var got services.PaymentInput
		audit := &mockAuditService{}
		svc := &mockPaymentService{
			createPaymentFn: func(_ context.Context, userID string, input services.PaymentInput) (*models.Payment, error) {
				if userID != testUserID {
					t.Errorf("unexpected user %s", userID)
				}
				got = input
				return &models.Payment{ID: testPaymentID, Name: input.Name, Date: input.Date}, nil
			},
		}
		router := setupPaymentRouter(NewPaymentHandler(svc, audit))

		rec := doRequest(router, http.MethodPost, "/payments", validPaymentBody)
		if rec.Code != http.StatusCreated {
			t.Fatalf("expected 201, got %d: %s", rec.Code, rec.Body.String())
		}
		if got.Name != "Electricity" || got.PaymentType != models.PaymentTypeBill || got.Amount != 420.5 {
			t.Errorf("unexpected input %+v", got)
		}
		if got.Date.String() != "2024-06-15" {
			t.Errorf("expected date 2024-06-15, got %s", got.Date)
		}
		payment, ok := parseJSON(t, rec)["payment"].(map[string]interface{})
		if !ok || payment["id"] != testPaymentID {
			t.Errorf("unexpected body %s", rec.Body.String())
		}
		if len(audit.entries) != 1 || audit.entries[0].action != services.AuditActionCreate || audit.entries[0].resourceID != testPaymentID {
			t.Errorf("expected one CREATE audit entry, got %+v", audit.entries)
		}
	})

	tests := []struct {
		name string
		body string
	}{
		{"missing_name", `{"payment_type":"BILL","amount":10,"date":"2024-06-15"}`},
		{"unknown_type", `{"name":"x","payment_type":"RENT","amount":10,"date":"2024-06-15"}`},
		{"unknown_period", `{"name":"x","payment_type":"BILL","amount":10,"date":"2024-06-15","period":"DAILY"}`},
		{"negative_amount", `{"name":"x","payment_type":"BILL","amount":-1,"date":"2024-06-15"}`},
		{"malformed_date", `{"name":"x","payment_type":"BILL","amount":10,"date":"15.06.2024"}`},
		{"bad_json", `{`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &mockPaymentService{
				createPaymentFn: func(context.Context, string, services.PaymentInput) (*models.Payment, error) {
					t.Fatal("service must not be called")
					return nil, nil
				},
			}
			router := setupPaymentRouter(NewPaymentHandler(svc, &mockAuditService{}))
			rec := doRequest(router, http.MethodPost, "/payments", tt.body)
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("expected 400, got %d", rec.Code)
			}
			assertErrorCode(t, parseJSON(t, rec), "INVALID_INPUT")
		})
	}

	t.Run("service_rejects_entry", func(t *testing.T) {
		svc := &mockPaymentService{
			createPaymentFn: func(context.Context, string, services.PaymentInput) (*models.Payment, error) {
				return nil, apperrors.WithMessage(apperrors.ErrInvalidPaymentEntry, "a loan needs an end date")
			},
		}
		router := setupPaymentRouter(NewPaymentHandler(svc, &mockAuditService{}))
		rec := doRequest(router, http.MethodPost, "/payments",
			`{"name":"Car loan","payment_type":"LOAN","amount":1000,"date":"2024-06-15"}`)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "INVALID_PAYMENT_ENTRY")
	})
}

func TestPaymentHandler_ListPayments(t *testing.T) {
	t.Run("passes_filters_and_page", func(t *testing.T) {
		var gotFilter services.PaymentFilter
		var gotPage pagination.PageRequest
		svc := &mockPaymentService{
			listPaymentsFn: func(_ context.Context, _ string, filter services.PaymentFilter, page pagination.PageRequest) (*pagination.PageResponse[services.PaymentView], error) {
				gotFilter, gotPage = filter, page
				resp := pagination.PageSlice([]services.PaymentView{{Payment: models.Payment{ID: testPaymentID}}}, page)
				return &resp, nil
			},
		}
		router := setupPaymentRouter(NewPaymentHandler(svc, &mockAuditService{}))

		rec := doRequest(router, http.MethodGet, "/payments?month=2024-06&category=CARD&status=PENDING&page=2&page_size=5", "")
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		if gotFilter.Month != "2024-06" || gotFilter.Category != models.CategoryCard || gotFilter.Status != services.StatusPending {
			t.Errorf("unexpected filter %+v", gotFilter)
		}
		if gotPage.Page != 2 || gotPage.PageSize != 5 {
			t.Errorf("unexpected page %+v", gotPage)
		}
		if _, ok := parseJSON(t, rec)["data"].([]interface{}); !ok {
			t.Errorf("expected data array, got %s", rec.Body.String())
		}
	})

	for _, query := range []string{"month=2024-13", "category=RENT", "status=LATE", "page_size=500"} {
		t.Run("rejects_"+strings.SplitN(query, "=", 2)[0], func(t *testing.T) {
			router := setupPaymentRouter(NewPaymentHandler(&mockPaymentService{}, &mockAuditService{}))
			rec := doRequest(router, http.MethodGet, "/payments?"+query, "")
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("expected 400 for %s, got %d", query, rec.Code)
			}
			assertErrorCode(t, parseJSON(t, rec), "INVALID_INPUT")
		})
	}
}

func TestPaymentHandler_GetPayment(t *testing.T) {
	t.Run("invalid_id", func(t *testing.T) {
		router := setupPaymentRouter(NewPaymentHandler(&mockPaymentService{}, &mockAuditService{}))
		rec := doRequest(router, http.MethodGet, "/payments/42", "")
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "INVALID_INPUT")
	})

	t.Run("not_found", func(t *testing.T) {
		svc := &mockPaymentService{
			getPaymentFn: func(context.Context, string, string) (*services.PaymentView, error) {
				return nil, apperrors.ErrPaymentNotFound
			},
		}
		router := setupPaymentRouter(NewPaymentHandler(svc, &mockAuditService{}))
		rec := doRequest(router, http.MethodGet, "/payments/"+testPaymentID, "")
		if rec.Code != http.StatusNotFound {
			t.Fatalf("expected 404, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "PAYMENT_NOT_FOUND")
	})

	t.Run("includes_adjusted_date", func(t *testing.T) {
		svc := &mockPaymentService{
			getPaymentFn: func(_ context.Context, _ string, id string) (*services.PaymentView, error) {
				return &services.PaymentView{
					Payment:         models.Payment{ID: id, Date: models.MustParseDate("2024-06-15")},
					AdjustedDate:    models.MustParseDate("2024-06-17"),
					WeekendAdjusted: true,
				}, nil
			},
		}
		router := setupPaymentRouter(NewPaymentHandler(svc, &mockAuditService{}))
		rec := doRequest(router, http.MethodGet, "/payments/"+testPaymentID, "")
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		payment := parseJSON(t, rec)["payment"].(map[string]interface{})
		if payment["date"] != "2024-06-15" || payment["adjusted_date"] != "2024-06-17" || payment["weekend_adjusted"] != true {
			t.Errorf("unexpected payment %v", payment)
		}
	})
}

func TestPaymentHandler_UpdatePayment(t *testing.T) {
	var gotID string
	audit := &mockAuditService{}
	svc := &mockPaymentService{
		updatePaymentFn: func(_ context.Context, _, paymentID string, input services.PaymentInput) (*models.Payment, error) {
			gotID = paymentID
			return &models.Payment{ID: paymentID, Name: input.Name, Date: input.Date}, nil
		},
	}
	router := setupPaymentRouter(NewPaymentHandler(svc, audit))

	rec := doRequest(router, http.MethodPut, "/payments/"+testPaymentID, validPaymentBody)
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if gotID != testPaymentID {
		t.Errorf("expected id %s, got %s", testPaymentID, gotID)
	}
	if len(audit.entries) != 1 || audit.entries[0].action != services.AuditActionUpdate {
		t.Errorf("expected UPDATE audit entry, got %+v", audit.entries)
	}
}

func TestPaymentHandler_DeletePayment(t *testing.T) {
	t.Run("success", func(t *testing.T) {
		audit := &mockAuditService{}
		router := setupPaymentRouter(NewPaymentHandler(&mockPaymentService{}, audit))
		rec := doRequest(router, http.MethodDelete, "/payments/"+testPaymentID, "")
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		if parseJSON(t, rec)["message"] != "Payment deleted successfully" {
			t.Errorf("unexpected body %s", rec.Body.String())
		}
		if len(audit.entries) != 1 || audit.entries[0].action != services.AuditActionDelete {
			t.Errorf("expected DELETE audit entry, got %+v", audit.entries)
		}
	})

	t.Run("not_found_is_not_audited", func(t *testing.T) {
		audit := &mockAuditService{}
		svc := &mockPaymentService{
			deletePaymentFn: func(context.Context, string, string) error { return apperrors.ErrPaymentNotFound },
		}
		router := setupPaymentRouter(NewPaymentHandler(svc, audit))
		rec := doRequest(router, http.MethodDelete, "/payments/"+testPaymentID, "")
		if rec.Code != http.StatusNotFound {
			t.Fatalf("expected 404, got %d", rec.Code)
		}
		if len(audit.entries) != 0 {
			t.Errorf("expected no audit entries, got %+v", audit.entries)
		}
	})
}

func TestPaymentHandler_ConfirmPayment(t *testing.T) {
	t.Run("explicit_amount", func(t *testing.T) {
		var gotAmount *float64
		audit := &mockAuditService{}
		svc := &mockPaymentService{
			confirmPaymentFn: func(_ context.Context, _, id string, paidAmount *float64) (*services.ConfirmResult, error) {
				gotAmount = paidAmount
				next := &models.Payment{ID: "0190a1b2-c3d4-7e5f-8a9b-0c1d2e3f4a61", Date: models.MustParseDate("2024-07-15")}
				return &services.ConfirmResult{Payment: models.Payment{ID: id, IsPaid: true}, NextOccurrence: next}, nil
			},
		}
		router := setupPaymentRouter(NewPaymentHandler(svc, audit))

		rec := doRequest(router, http.MethodPost, "/payments/"+testPaymentID+"/confirm", `{"paid_amount":415}`)
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		if gotAmount == nil || *gotAmount != 415 {
			t.Errorf("expected paid amount 415, got %v", gotAmount)
		}
		next, ok := parseJSON(t, rec)["next_occurrence"].(map[string]interface{})
		if !ok || next["date"] != "2024-07-15" {
			t.Errorf("expected next occurrence, got %s", rec.Body.String())
		}
		if len(audit.entries) != 1 || audit.entries[0].action != services.AuditActionConfirm {
			t.Errorf("expected CONFIRM audit entry, got %+v", audit.entries)
		}
	})

	t.Run("empty_body_leaves_amount_to_service", func(t *testing.T) {
		called := false
		var gotAmount *float64
		svc := &mockPaymentService{
			getPaymentFn: func(context.Context, string, string) (*services.PaymentView, error) {
				t.Error("confirm must not read the payment before the mutation")
				return nil, apperrors.ErrPaymentNotFound
			},
			confirmPaymentFn: func(_ context.Context, _, id string, paidAmount *float64) (*services.ConfirmResult, error) {
				called, gotAmount = true, paidAmount
				return &services.ConfirmResult{Payment: models.Payment{ID: id, IsPaid: true, PaidAmount: 99.9}}, nil
			},
		}
		router := setupPaymentRouter(NewPaymentHandler(svc, &mockAuditService{}))

		rec := doRequest(router, http.MethodPost, "/payments/"+testPaymentID+"/confirm", "")
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		if !called || gotAmount != nil {
			t.Errorf("expected a nil paid amount, got called=%v amount=%v", called, gotAmount)
		}
	})

	t.Run("already_paid", func(t *testing.T) {
		svc := &mockPaymentService{
			confirmPaymentFn: func(context.Context, string, string, *float64) (*services.ConfirmResult, error) {
				return nil, apperrors.ErrPaymentAlreadyPaid
			},
		}
		router := setupPaymentRouter(NewPaymentHandler(svc, &mockAuditService{}))
		rec := doRequest(router, http.MethodPost, "/payments/"+testPaymentID+"/confirm", `{"paid_amount":10}`)
		if rec.Code != http.StatusConflict {
			t.Fatalf("expected 409, got %d", rec.Code)
		}
		assertErrorCode(t, parseJSON(t, rec), "PAYMENT_ALREADY_PAID")
	})
}

func TestPaymentHandler_Statistics(t *testing.T) {
	svc := &mockPaymentService{
		monthSummaryFn: func(_ context.Context, _, month string, category models.PaymentCategory) (*services.MonthSummary, error) {
			return &services.MonthSummary{Month: month, Category: category, Expected: 100, Paid: 40, Remaining: 60}, nil
		},
		dueTodayFn: func(context.Context, string) ([]services.PaymentView, error) {
			return []services.PaymentView{{Payment: models.Payment{ID: testPaymentID}}}, nil
		},
	}
	router := setupPaymentRouter(NewPaymentHandler(svc, &mockAuditService{}))

	t.Run("summary", func(t *testing.T) {
		rec := doRequest(router, http.MethodGet, "/payments/summary?month=2024-06&category=BILL", "")
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		summary := parseJSON(t, rec)["summary"].(map[string]interface{})
		if summary["month"] != "2024-06" || summary["category"] != "BILL" || summary["remaining"] != float64(60) {
			t.Errorf("unexpected summary %v", summary)
		}
	})

	t.Run("dashboard", func(t *testing.T) {
		rec := doRequest(router, http.MethodGet, "/payments/dashboard?month=2024-06", "")
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		if _, ok := parseJSON(t, rec)["dashboard"].(map[string]interface{}); !ok {
			t.Errorf("expected dashboard object, got %s", rec.Body.String())
		}
	})

	t.Run("dashboard_bad_month", func(t *testing.T) {
		rec := doRequest(router, http.MethodGet, "/payments/dashboard?month=June", "")
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})

	t.Run("due_today", func(t *testing.T) {
		rec := doRequest(router, http.MethodGet, "/payments/due-today", "")
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		if parseJSON(t, rec)["count"] != float64(1) {
			t.Errorf("expected count 1, got %s", rec.Body.String())
		}
	})
}

func TestPaymentHandler_ImportExport(t *testing.T) {
	t.Run("import", func(t *testing.T) {
		var gotMode string
		var gotRows []services.ImportRow
		audit := &mockAuditService{}
		svc := &mockPaymentService{
			importFn: func(_ context.Context, _ string, rows []services.ImportRow, mode string) (*services.ImportResult, error) {
				gotRows, gotMode = rows, mode
				return &services.ImportResult{Mode: services.ImportModeReplace, Imported: len(rows), Total: len(rows)}, nil
			},
		}
		router := setupPaymentRouter(NewPaymentHandler(svc, audit))

		body := `{"mode":"REPLACE","rows":[{"name":"Water","type":"Fatura","amount":120,"date":45458},{"name":"Gym","type":"DIGITAL","amount":30,"date":"15.06.2024"}]}`
		rec := doRequest(router, http.MethodPost, "/payments/import", body)
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
		}
		if gotMode != "REPLACE" || len(gotRows) != 2 {
			t.Fatalf("unexpected call mode=%s rows=%d", gotMode, len(gotRows))
		}
		if gotRows[0].Date != "45458" || gotRows[1].Date != "15.06.2024" {
			t.Errorf("unexpected dates %q %q", gotRows[0].Date, gotRows[1].Date)
		}
		if len(audit.entries) != 1 || audit.entries[0].action != services.AuditActionImport {
			t.Errorf("expected IMPORT audit entry, got %+v", audit.entries)
		}
	})

	t.Run("import_rejects_unknown_mode", func(t *testing.T) {
		router := setupPaymentRouter(NewPaymentHandler(&mockPaymentService{}, &mockAuditService{}))
		rec := doRequest(router, http.MethodPost, "/payments/import", `{"mode":"MERGE","rows":[{"name":"x"}]}`)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})

	t.Run("import_rejects_empty_rows", func(t *testing.T) {
		router := setupPaymentRouter(NewPaymentHandler(&mockPaymentService{}, &mockAuditService{}))
		rec := doRequest(router, http.MethodPost, "/payments/import", `{"rows":[]}`)
		if rec.Code != http.StatusBadRequest {
			t.Fatalf("expected 400, got %d", rec.Code)
		}
	})

	t.Run("export", func(t *testing.T) {
		svc := &mockPaymentService{
			exportFn: func(context.Context, string) ([]services.ImportRow, error) {
				return []services.ImportRow{{Name: "Water", Status: "PAID"}}, nil
			},
		}
		router := setupPaymentRouter(NewPaymentHandler(svc, &mockAuditService{}))
		rec := doRequest(router, http.MethodGet, "/payments/export", "")
		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		if !strings.HasPrefix(rec.Header().Get("Content-Disposition"), "attachment;") {
			t.Errorf("expected attachment header, got %q", rec.Header().Get("Content-Disposition"))
		}
		rows, ok := parseJSON(t, rec)["rows"].([]interface{})
		if !ok || len(rows) != 1 {
			t.Errorf("unexpected body %s", rec.Body.String())
		}
	})
}
