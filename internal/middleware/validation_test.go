package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/ethanctan/ai-oa/internal/models"
)

func TestValidateRequestPassesValidBody(t *testing.T) {
	var got *models.CreateInstanceRequest
	handler := ValidateRequest[*models.CreateInstanceRequest]()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = GetValidatedRequest[*models.CreateInstanceRequest](r)
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodPost, "/instances", strings.NewReader(`{"testId":1,"candidateId":7}`))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d: %s", rec.Code, rec.Body.String())
	}
	if got == nil || got.TestID != 1 || got.CandidateID != 7 {
		t.Errorf("unexpected validated request: %+v", got)
	}
}

func TestValidateRequestRejectsInvalidJSON(t *testing.T) {
	handler := ValidateRequest[*models.CreateInstanceRequest]()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run for invalid JSON")
	}))

	req := httptest.NewRequest(http.MethodPost, "/instances", strings.NewReader(`{`))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	var resp models.ErrorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode error response: %v", err)
	}
	if resp.Code != "invalid_json" {
		t.Errorf("expected invalid_json, got %s", resp.Code)
	}
}

func TestValidateRequestRejectsFailedValidation(t *testing.T) {
	handler := ValidateRequest[*models.CreateInstanceRequest]()(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("handler must not run for invalid request")
	}))

	req := httptest.NewRequest(http.MethodPost, "/instances", strings.NewReader(`{"candidateId":7}`))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}
	var resp models.ErrorResponse
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("failed to decode error response: %v", err)
	}
	if resp.Code != "missing_test_id" {
		t.Errorf("expected missing_test_id, got %s", resp.Code)
	}
}
