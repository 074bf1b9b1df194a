package handlers_test

import (
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/JaimeStill/intake/pkg/handlers"
)

func discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func decode(t *testing.T, res *http.Response) handlers.Envelope {
	t.Helper()
	var env handlers.Envelope
	if err := json.NewDecoder(res.Body).Decode(&env); err != nil {
		t.Fatalf("decode: %v", err)
	}
	return env
}

func TestRespondJSON(t *testing.T) {
	tests := []struct {
		name       string
		status     int
		data       any
		wantStatus int
	}{
		{"200 with map", http.StatusOK, map[string]string{"key": "value"}, http.StatusOK},
		{"201 with struct", http.StatusCreated, struct{ ID int }{ID: 42}, http.StatusCreated},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			handlers.RespondJSON(rec, tt.status, tt.data)

			res := rec.Result()
			defer res.Body.Close()

			if res.StatusCode != tt.wantStatus {
				t.Errorf("status: got %d, want %d", res.StatusCode, tt.wantStatus)
			}
			if ct := res.Header.Get("Content-Type"); ct != "application/json" {
				t.Errorf("content-type: got %s", ct)
			}
		})
	}
}

func TestRespondData(t *testing.T) {
	rec := httptest.NewRecorder()
	handlers.RespondData(rec, http.StatusCreated, "created", map[string]int{"n": 1})

	res := rec.Result()
	defer res.Body.Close()

	env := decode(t, res)
	if !env.Success {
		t.Error("success: got false, want true")
	}
	if env.Message != "created" {
		t.Errorf("message: got %q, want created", env.Message)
	}
	if env.Data == nil {
		t.Error("data: got nil")
	}
}

func TestRespondError(t *testing.T) {
	tests := []struct {
		name        string
		status      int
		err         error
		wantMessage string
		wantError   string
	}{
		{"client error uses message", http.StatusNotFound, errors.New("submission not found"), "submission not found", ""},
		{"server error keeps detail", http.StatusInternalServerError, errors.New("connection reset"), "Internal Server Error", "connection reset"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			handlers.RespondError(rec, discard(), tt.status, tt.err)

			res := rec.Result()
			defer res.Body.Close()

			if res.StatusCode != tt.status {
				t.Errorf("status: got %d, want %d", res.StatusCode, tt.status)
			}

			env := decode(t, res)
			if env.Success {
				t.Error("success: got true, want false")
			}
			if env.Message != tt.wantMessage {
				t.Errorf("message: got %q, want %q", env.Message, tt.wantMessage)
			}
			if env.Error != tt.wantError {
				t.Errorf("error: got %q, want %q", env.Error, tt.wantError)
			}
		})
	}
}

func TestRespondValidation(t *testing.T) {
	rec := httptest.NewRecorder()
	handlers.RespondValidation(rec, discard(), "Validation failed", []string{"Full name is required"})

	res := rec.Result()
	defer res.Body.Close()

	if res.StatusCode != http.StatusBadRequest {
		t.Errorf("status: got %d, want 400", res.StatusCode)
	}

	env := decode(t, res)
	if len(env.Errors) != 1 || env.Errors[0] != "Full name is required" {
		t.Errorf("errors: got %v", env.Errors)
	}
}
