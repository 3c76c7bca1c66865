package handler

import (
	"encoding/json"
	"net/http"
	"testing"
)

func TestSession(t *testing.T) {
	tr := &testRouter{}
	h := tr.handler()

	tests := []struct {
		token     string
		wantCode  int
		wantAdmin bool
	}{
		{"admin", http.StatusOK, true},
		{"user", http.StatusOK, false},
		{"", http.StatusUnauthorized, false},
	}
	for _, tt := range tests {
		rec := doRequest(h, http.MethodGet, "/api/auth/session", tt.token, "")
		if rec.Code != tt.wantCode {
			t.Errorf("token %q: expected %d, got %d", tt.token, tt.wantCode, rec.Code)
			continue
		}
		if rec.Code != http.StatusOK {
			continue
		}
		var resp sessionResponse
		if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if resp.Admin != tt.wantAdmin || resp.UID == "" {
			t.Errorf("token %q: unexpected session %+v", tt.token, resp)
		}
	}
}
