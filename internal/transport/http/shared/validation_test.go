package shared

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

func TestValidatorCollectsSortedIssues(t *testing.T) {
	v := NewValidator()
	v.Required("month", " ", "is required")
	v.Enum("format", "csv", []string{"xlsx", "pdf"}, "must be xlsx or pdf")
	v.Enum("format", "", []string{"xlsx"}, "ignored when empty")
	start, _ := v.Date("startDate", "2025-03-10")
	end, _ := v.Date("endDate", "2025-03-01")
	v.DateOrder("startDate", start, "endDate", end)
	v.Date("returnDate", "10/03/2025")

	issues := v.Issues()
	if len(issues) != 5 {
		t.Fatalf("expected 5 issues, got %+v", issues)
	}
	if issues[0].Field != "endDate" || issues[len(issues)-1].Field != "startDate" {
		t.Fatalf("issues not sorted: %+v", issues)
	}
}

func TestPositiveAmount(t *testing.T) {
	v := NewValidator()
	if amount, ok := v.PositiveAmount("amount", json.Number("15000.50")); !ok || amount.String() != "15000.5" {
		t.Fatalf("unexpected amount %s", amount)
	}
	v.PositiveAmount("amount", json.Number("0"))
	v.PositiveAmount("amount", json.Number("abc"))
	v.PositiveAmount("amount", json.Number(""))
	if got := len(v.Issues()); got != 3 {
		t.Fatalf("expected 3 issues, got %d", got)
	}
}

func TestRejectWritesEnvelope(t *testing.T) {
	v := NewValidator()
	rec := httptest.NewRecorder()
	if v.Reject(rec, "rid") {
		t.Fatal("no issues must not reject")
	}
	v.Add("comments", "is required")
	if !v.Reject(rec, "rid") {
		t.Fatal("expected rejection")
	}
	if rec.Code != http.StatusBadRequest || !strings.Contains(rec.Body.String(), `"validation_error"`) {
		t.Fatalf("unexpected response %d %s", rec.Code, rec.Body.String())
	}
}

func TestDecodeJSON(t *testing.T) {
	var dst struct {
		Month string `json:"month"`
	}
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(`{"month":"2025-03"}`))
	if err := DecodeJSON(req, &dst); err != nil || dst.Month != "2025-03" {
		t.Fatalf("decode: %v %+v", err, dst)
	}
	for _, body := range []string{"", `{"month":"2025-03","extra":1}`, `{"month":"a"}{"month":"b"}`, `[`} {
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
		if err := DecodeJSON(req, &dst); err == nil {
			t.Fatalf("body %q: expected error", body)
		}
	}
}

func TestParsePagination(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/?limit=900&offset=20", nil)
	page := ParsePagination(req, 50, 200)
	if page.Limit != 200 || page.Offset != 20 {
		t.Fatalf("unexpected page %+v", page)
	}
	page = ParsePagination(httptest.NewRequest(http.MethodGet, "/?limit=-1&offset=x", nil), 50, 200)
	if page.Limit != 50 || page.Offset != 0 {
		t.Fatalf("unexpected defaults %+v", page)
	}

	rec := httptest.NewRecorder()
	Pagination{Limit: 10, Offset: 0}.WriteTotal(rec, 25)
	if rec.Header().Get("X-Total-Count") != "25" || rec.Header().Get("X-Has-More") != "true" {
		t.Fatalf("unexpected headers %v", rec.Header())
	}
	rec = httptest.NewRecorder()
	Pagination{Limit: 10, Offset: 20}.WriteTotal(rec, 25)
	if rec.Header().Get("X-Has-More") != "false" {
		t.Fatalf("last page should not have more: %v", rec.Header())
	}

	if _, err := ParseDate("2025-03-01T10:00:00Z"); err != nil {
		t.Fatalf("rfc3339: %v", err)
	}
	if d, _ := ParseDate(""); d != (time.Time{}) {
		t.Fatal("empty date must be zero")
	}
}
