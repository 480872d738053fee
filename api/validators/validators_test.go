package validators

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	pkgerrors "github.com/pagebound/bookstore-backend/pkg/errors"
)

type samplePayload struct {
	Name  string `json:"name" validate:"required,min=3"`
	Count int    `json:"count" validate:"min=1"`
}

func postJSON(body string) *http.Request {
	return httptest.NewRequest(http.MethodPost, "/", bytes.NewBufferString(body))
}

func TestDecodeJSONBodyAcceptsValidPayload(t *testing.T) {
	var payload samplePayload
	if err := DecodeJSONBody(postJSON(`{"name":"widget","count":2}`), &payload); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if payload.Name != "widget" || payload.Count != 2 {
		t.Fatalf("unexpected payload %+v", payload)
	}
}

func TestDecodeJSONBodyRejectsUnknownFields(t *testing.T) {
	var payload samplePayload
	err := DecodeJSONBody(postJSON(`{"name":"widget","count":2,"extra":true}`), &payload)
	coded := pkgerrors.As(err)
	if coded == nil || coded.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestDecodeJSONBodyReportsFieldsByJSONName(t *testing.T) {
	var payload samplePayload
	err := DecodeJSONBody(postJSON(`{"name":"ab","count":0}`), &payload)
	coded := pkgerrors.As(err)
	if coded == nil || coded.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}

	details, ok := coded.Details().(map[string]string)
	if !ok {
		t.Fatalf("expected field details, got %T", coded.Details())
	}
	if details["name"] == "" || details["count"] == "" {
		t.Fatalf("expected json field names in details, got %v", details)
	}
}

func TestParseQueryInt(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/?page=3&junk=abc&huge=900", nil)

	got, err := ParseQueryInt(req, "page", 1, 1, 100)
	if err != nil || got != 3 {
		t.Fatalf("expected 3, got %d (%v)", got, err)
	}

	got, err = ParseQueryInt(req, "missing", 25, 1, 100)
	if err != nil || got != 25 {
		t.Fatalf("expected default 25, got %d (%v)", got, err)
	}

	if _, err = ParseQueryInt(req, "junk", 1, 1, 100); pkgerrors.As(err) == nil {
		t.Fatalf("expected validation error for non-numeric value, got %v", err)
	}

	if _, err = ParseQueryInt(req, "huge", 1, 1, 100); pkgerrors.As(err) == nil {
		t.Fatalf("expected validation error for out-of-range value, got %v", err)
	}
}

func TestSanitizeStringTrimsAndCaps(t *testing.T) {
	if got := SanitizeString("  mystery  ", 0); got != "mystery" {
		t.Fatalf("expected trimmed value, got %q", got)
	}
	long := strings.Repeat("x", 300)
	if got := SanitizeString(long, 200); len(got) != 200 {
		t.Fatalf("expected 200 chars, got %d", len(got))
	}
}
