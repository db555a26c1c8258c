package httpc

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestPostJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s", r.Method)
		}
		if ct := r.Header.Get("Content-Type"); ct != "application/json" {
			t.Errorf("Content-Type = %q", ct)
		}
		var in map[string]float64
		json.NewDecoder(r.Body).Decode(&in)
		w.WriteHeader(http.StatusAccepted)
		json.NewEncoder(w).Encode(map[string]any{"value": in["value"] * 2})
	}))
	defer srv.Close()

	var out struct {
		Value float64 `json:"value"`
	}
	if err := PostJSON(context.Background(), srv.URL, map[string]float64{"value": 21}, &out); err != nil {
		t.Fatalf("PostJSON: %v", err)
	}
	if out.Value != 42 {
		t.Errorf("value = %v, want 42", out.Value)
	}
}

func TestGetJSONStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"nope"}`, http.StatusBadRequest)
	}))
	defer srv.Close()

	var out map[string]any
	err := GetJSON(context.Background(), srv.URL, &out)
	var se *StatusError
	if !errors.As(err, &se) {
		t.Fatalf("error = %v, want *StatusError", err)
	}
	if se.Code != http.StatusBadRequest {
		t.Errorf("Code = %d", se.Code)
	}
	if out != nil {
		t.Error("out should be untouched on error")
	}
}

func TestDoJSONEmptyBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNoContent)
	}))
	defer srv.Close()

	var out map[string]any
	if err := DoJSON(context.Background(), http.MethodDelete, srv.URL, nil, &out); err != nil {
		t.Errorf("DoJSON: %v", err)
	}
}
