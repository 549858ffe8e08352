package handler

import (
	"encoding/json"
	"errors"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/yourorg/orchestrate/internal/domain"
)

func TestWriteErrorMapsDomainKinds(t *testing.T) {
	cases := []struct {
		err     error
		status  int
		message string
	}{
		{domain.Validationf("End time must be after start time"), 400, "End time must be after start time"},
		{domain.Unauthorizedf("Invalid credentials"), 401, "Invalid credentials"},
		{domain.Forbiddenf("Forbidden"), 403, "Forbidden"},
		{domain.NotFoundf("Booking not found"), 404, "Booking not found"},
		{domain.Conflictf("Room is already booked for this time slot"), 409, "Room is already booked for this time slot"},
		{errors.New("pq: connection reset"), 500, "Internal server error"},
	}

	for _, tc := range cases {
		rec := httptest.NewRecorder()
		writeError(rec, nil, tc.err)

		if rec.Code != tc.status {
			t.Errorf("%v: status = %d, want %d", tc.err, rec.Code, tc.status)
		}
		if got := rec.Header().Get("Content-Type"); got != "application/json" {
			t.Errorf("%v: content type = %q", tc.err, got)
		}
		var body map[string]string
		if err := json.Unmarshal(rec.Body.Bytes(), &body); err != nil {
			t.Fatalf("%v: body is not JSON: %v", tc.err, err)
		}
		if body["message"] != tc.message {
			t.Errorf("%v: message = %q, want %q", tc.err, body["message"], tc.message)
		}
	}
}

func TestDecodeJSONRejectsGarbage(t *testing.T) {
	req := httptest.NewRequest("POST", "/api/bookings", strings.NewReader("{not json"))
	var v map[string]any
	err := decodeJSON(req, &v)
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestUserViewOmitsPasswordHash(t *testing.T) {
	u := &domain.User{
		ID:           "u1",
		Name:         "Alice",
		Email:        "alice@example.com",
		PasswordHash: "$2a$10$secret",
		Role:         domain.RoleDeveloper,
		Status:       domain.UserActive,
	}

	raw, err := json.Marshal(newUserView(u))
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if strings.Contains(string(raw), "secret") || strings.Contains(string(raw), "password") {
		t.Fatalf("user view leaked credentials: %s", raw)
	}
}
