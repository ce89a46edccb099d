package shared

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/petcare-next/internal/http/response"
	"github.com/petcare-next/internal/logger"
	"github.com/petcare-next/internal/service"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func newTestContext(target string) (*gin.Context, *httptest.ResponseRecorder) {
	gin.SetMode(gin.TestMode)
	logger.L = zap.NewNop()
	rec := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(rec)
	c.Request = httptest.NewRequest(http.MethodGet, target, nil)
	return c, rec
}

func decodeEnvelope(t *testing.T, rec *httptest.ResponseRecorder) response.Response {
	t.Helper()
	if rec.Code != http.StatusOK {
		t.Fatalf("http status want 200 got %d", rec.Code)
	}
	var body response.Response
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("decode response failed: %v", err)
	}
	return body
}

func TestRespondWithMappedErrorPrefersSpecificRule(t *testing.T) {
	c, rec := newTestContext("/staff/invoices/9?lang=en-US")
	err := fmt.Errorf("load invoice: %w", service.ErrInvoiceNotFound)
	RespondWithMappedError(c, err, InvoiceErrorRules, response.CodeInternal, "error.internal_error")

	body := decodeEnvelope(t, rec)
	if body.StatusCode != response.CodeNotFound || body.Msg != "Invoice not found" {
		t.Fatalf("unexpected envelope: %+v", body)
	}
}

func TestRespondWithMappedErrorFallsBackToCategory(t *testing.T) {
	c, rec := newTestContext("/staff/invoices")
	err := fmt.Errorf("%w: negative quantity", service.ErrValidation)
	RespondWithMappedError(c, err, nil, response.CodeInternal, "error.internal_error")
	if body := decodeEnvelope(t, rec); body.StatusCode != response.CodeBadRequest {
		t.Fatalf("category fallback want 400 got %d", body.StatusCode)
	}

	c, rec = newTestContext("/staff/invoices")
	c.Set("request_id", "req-1")
	RespondWithMappedError(c, errors.New("db gone"), nil, response.CodeInternal, "error.internal_error")
	body := decodeEnvelope(t, rec)
	if body.StatusCode != response.CodeInternal {
		t.Fatalf("unmapped error want 500 got %d", body.StatusCode)
	}
	data, ok := body.Data.(map[string]interface{})
	if !ok || data["request_id"] != "req-1" {
		t.Fatalf("request_id should be echoed, got %#v", body.Data)
	}
}

func TestParsePageQuery(t *testing.T) {
	cases := []struct {
		query    string
		page     int
		pageSize int
	}{
		{query: "", page: 1, pageSize: 20},
		{query: "?page=3&page_size=50", page: 3, pageSize: 50},
		{query: "?page=-2&page_size=500", page: 1, pageSize: 100},
		{query: "?page=x&page_size=0", page: 1, pageSize: 20},
	}
	for _, tc := range cases {
		c, _ := newTestContext("/customer/invoices" + tc.query)
		page, pageSize := ParsePageQuery(c)
		if page != tc.page || pageSize != tc.pageSize {
			t.Fatalf("query %q want %d/%d got %d/%d", tc.query, tc.page, tc.pageSize, page, pageSize)
		}
	}
}

func TestParseIDParamRejectsZero(t *testing.T) {
	c, rec := newTestContext("/staff/invoices/0")
	c.Params = gin.Params{{Key: "id", Value: "0"}}
	if _, ok := ParseIDParam(c, "id"); ok {
		t.Fatalf("zero id should be rejected")
	}
	if body := decodeEnvelope(t, rec); body.StatusCode != response.CodeBadRequest {
		t.Fatalf("want 400 got %d", body.StatusCode)
	}

	c, _ = newTestContext("/staff/invoices/12")
	c.Params = gin.Params{{Key: "id", Value: "12"}}
	if id, ok := ParseIDParam(c, "id"); !ok || id != 12 {
		t.Fatalf("want id 12 got %d (%v)", id, ok)
	}
}
