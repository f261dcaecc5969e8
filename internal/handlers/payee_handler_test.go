package handlers

import (
	"net/http"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"

	"budgetapp/internal/access"
	apperrors "budgetapp/internal/errors"
	"budgetapp/internal/models"
	"budgetapp/internal/pagination"
)

func setupPayeeRouter(handler *PayeeHandler) *gin.Engine {
	r := gin.New()
	auth := r.Group("", injectUser())
	auth.POST("/payees", handler.CreatePayee)
	auth.GET("/payees", handler.GetPayees)
	auth.GET("/payees/:id", handler.GetPayee)
	auth.PUT("/payees/:id", handler.UpdatePayee)
	auth.DELETE("/payees/:id", handler.DeletePayee)
	return r
}

func TestPayeeHandler_CreatePayee(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		err        error
		wantStatus int
		wantCode   string
	}{
		{name: "created", body: `{"name":"Grocer"}`, wantStatus: http.StatusCreated},
		{name: "missing name", body: `{}`, wantStatus: http.StatusBadRequest, wantCode: "INVALID_INPUT"},
		{name: "name too long", body: `{"name":"` + strings.Repeat("x", 31) + `"}`, wantStatus: http.StatusBadRequest, wantCode: "INVALID_INPUT"},
		{name: "duplicate", body: `{"name":"Grocer"}`, err: apperrors.ErrDuplicatePayee, wantStatus: http.StatusConflict, wantCode: "DUPLICATE_PAYEE"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &mockPayeeService{
				createPayeeFn: func(p access.Principal, name string) (*models.Payee, error) {
					if tt.err != nil {
						return nil, tt.err
					}
					return &models.Payee{Base: models.Base{ID: testPayeeID}, Name: name, OwnerID: p.UserID}, nil
				},
			}
			r := setupPayeeRouter(NewPayeeHandler(svc, &mockAuditService{}))

			rec := doRequest(r, "POST", "/payees", tt.body)

			if rec.Code != tt.wantStatus {
				t.Fatalf("expected %d, got %d: %s", tt.wantStatus, rec.Code, rec.Body.String())
			}
			result := parseJSON(t, rec)
			if tt.wantCode != "" {
				assertErrorCode(t, result, tt.wantCode)
				return
			}
			payee := result["payee"].(map[string]interface{})
			if payee["name"] != "Grocer" {
				t.Errorf("expected Grocer, got %v", payee["name"])
			}
		})
	}
}

func TestPayeeHandler_GetPayees(t *testing.T) {
	svc := &mockPayeeService{
		listPayeesFn: func(_ access.Principal, page pagination.PageRequest) (*pagination.PageResponse[models.Payee], error) {
			if page.Page != 2 {
				t.Errorf("expected page 2, got %d", page.Page)
			}
			payees := []models.Payee{{Base: models.Base{ID: testPayeeID}, Name: "Grocer"}}
			resp := pagination.NewPageResponse(payees, func(p models.Payee) string { return p.ID }, page.Page, page.PageSize, 21)
			return &resp, nil
		},
	}
	r := setupPayeeRouter(NewPayeeHandler(svc, &mockAuditService{}))

	rec := doRequest(r, "GET", "/payees?page=2", "")

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	result := parseJSON(t, rec)
	if result["total_pages"].(float64) != 2 {
		t.Errorf("expected 2 pages, got %v", result["total_pages"])
	}
	if _, ok := result["data"].(map[string]interface{})[testPayeeID]; !ok {
		t.Error("expected payee keyed by id")
	}
}

func TestPayeeHandler_UpdatePayee(t *testing.T) {
	t.Run("renames", func(t *testing.T) {
		svc := &mockPayeeService{
			updatePayeeFn: func(_ access.Principal, id, name string) (*models.Payee, error) {
				return &models.Payee{Base: models.Base{ID: id}, Name: name}, nil
			},
		}
		r := setupPayeeRouter(NewPayeeHandler(svc, &mockAuditService{}))

		rec := doRequest(r, "PUT", "/payees/"+testPayeeID, `{"name":"Market"}`)

		if rec.Code != http.StatusOK {
			t.Fatalf("expected 200, got %d", rec.Code)
		}
		if got := parseJSON(t, rec)["payee"].(map[string]interface{})["name"]; got != "Market" {
			t.Errorf("expected Market, got %v", got)
		}
	})

	t.Run("returns 404 when hidden", func(t *testing.T) {
		svc := &mockPayeeService{
			updatePayeeFn: func(_ access.Principal, _, _ string) (*models.Payee, error) {
				return nil, apperrors.ErrPayeeNotFound
			},
		}
		r := setupPayeeRouter(NewPayeeHandler(svc, &mockAuditService{}))

		rec := doRequest(r, "PUT", "/payees/"+testPayeeID, `{"name":"Market"}`)

		if rec.Code != http.StatusNotFound {
			t.Fatalf("expected 404, got %d", rec.Code)
		}
	})
}

func TestPayeeHandler_DeletePayee(t *testing.T) {
	var deleted string
	svc := &mockPayeeService{
		deletePayeeFn: func(_ access.Principal, id string) error {
			deleted = id
			return nil
		},
	}
	r := setupPayeeRouter(NewPayeeHandler(svc, &mockAuditService{}))

	rec := doRequest(r, "DELETE", "/payees/"+testPayeeID, "")

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if deleted != testPayeeID {
		t.Errorf("expected %s deleted, got %q", testPayeeID, deleted)
	}
	if got := parseJSON(t, rec)["message"]; got != "Payee deleted successfully" {
		t.Errorf("unexpected message %v", got)
	}
}
