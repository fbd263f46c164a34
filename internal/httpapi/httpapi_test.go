package httpapi

import (
	"encoding/json"
	"net/http/httptest"
	"testing"
)

func TestError_Envelope(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/api/v1/walk/sessions/start", nil)

	Error(rec, req, 409, "WALK_ALREADY_IN_PROGRESS", "ya existe un paseo en curso")

	if rec.Code != 409 {
		t.Fatalf("expected 409, got %d", rec.Code)
	}

	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if body["success"] != false {
		t.Fatalf("expected success=false, got %v", body["success"])
	}
	if body["code"] != "WALK_ALREADY_IN_PROGRESS" {
		t.Fatalf("unexpected code %v", body["code"])
	}
	if body["path"] != "/api/v1/walk/sessions/start" {
		t.Fatalf("unexpected path %v", body["path"])
	}
	if body["timeStamp"] == nil {
		t.Fatalf("missing timeStamp")
	}
}

func TestOK_MergesPayloadAtTopLevel(t *testing.T) {
	rec := httptest.NewRecorder()
	req := httptest.NewRequest("GET", "/api/v1/users/me", nil)

	OK(rec, req, 200, map[string]any{"user": map[string]any{"id": "u-1"}})

	var body map[string]any
	if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
		t.Fatalf("invalid json: %v", err)
	}
	if body["success"] != true {
		t.Fatalf("expected success=true")
	}
	if body["user"] == nil {
		t.Fatalf("payload key not merged at top level: %v", body)
	}
}
