package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/leanovate/gopter"
	"github.com/leanovate/gopter/gen"
	"github.com/leanovate/gopter/prop"
	"go.uber.org/zap"
)

func TestProperty_ErrorResponsesCarryStructuredBody(t *testing.T) {
	properties := gopter.NewProperties(nil)

	properties.Property("every error response is JSON with code, message and timestamp", prop.ForAll(
		func(message string, statusCode int) bool {
			w := httptest.NewRecorder()

			RespondWithError(w, statusCode, message)

			if w.Code != statusCode {
				t.Logf("FAIL: expected status %d, got %d", statusCode, w.Code)
				return false
			}
			if ct := w.Header().Get("Content-Type"); ct != "application/json" {
				t.Logf("FAIL: expected JSON content type, got %q", ct)
				return false
			}

			var response ErrorResponse
			if err := json.NewDecoder(w.Body).Decode(&response); err != nil {
				t.Logf("FAIL: body is not valid JSON: %v", err)
				return false
			}

			return response.Error.Message == message &&
				response.Error.Code == http.StatusText(statusCode) &&
				response.Error.Timestamp != ""
		},
		gen.AlphaString(),
		gen.OneConstOf(http.StatusBadRequest, http.StatusUnauthorized, http.StatusNotFound, http.StatusConflict, http.StatusInternalServerError),
	))

	properties.TestingRun(t, gopter.ConsoleReporter(false))
}

func TestRespondWithErrorDetailsIncludesDetails(t *testing.T) {
	w := httptest.NewRecorder()

	RespondWithErrorDetails(w, http.StatusBadRequest, "product is out of stock", map[string]interface{}{
		"product_id":      int64(7),
		"available_stock": 0.0,
	})

	var response ErrorResponse
	if err := json.NewDecoder(w.Body).Decode(&response); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}

	if response.Error.Message != "product is out of stock" {
		t.Errorf("unexpected message %q", response.Error.Message)
	}
	if response.Error.Details["product_id"] != float64(7) {
		t.Errorf("expected product_id 7 in details, got %v", response.Error.Details["product_id"])
	}
	if _, ok := response.Error.Details["available_stock"]; !ok {
		t.Error("expected available_stock in details")
	}
}

func TestErrorHandlingMiddlewareRecoversPanics(t *testing.T) {
	logger, _ := zap.NewDevelopment()
	middleware := ErrorHandlingMiddleware(logger)

	handler := middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		panic("something went wrong")
	}))

	req := httptest.NewRequest("GET", "/api/stock", nil)
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	if w.Code != http.StatusInternalServerError {
		t.Errorf("expected 500 after panic, got %d", w.Code)
	}

	var response ErrorResponse
	if err := json.NewDecoder(w.Body).Decode(&response); err != nil {
		t.Fatalf("failed to decode response: %v", err)
	}
	if response.Error.Message != "internal server error" {
		t.Errorf("panic details must not leak, got %q", response.Error.Message)
	}
}

func TestErrorHandlingMiddlewarePassesThroughNormally(t *testing.T) {
	logger, _ := zap.NewDevelopment()
	middleware := ErrorHandlingMiddleware(logger)

	handler := middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		RespondWithJSON(w, http.StatusCreated, map[string]string{"status": "ok"})
	}))

	req := httptest.NewRequest("POST", "/api/products", nil)
	w := httptest.NewRecorder()

	handler.ServeHTTP(w, req)

	if w.Code != http.StatusCreated {
		t.Errorf("expected 201, got %d", w.Code)
	}
}
