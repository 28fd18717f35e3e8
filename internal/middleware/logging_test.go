// Copyright (c) 2026 Madalin Gabriel Ignisca <hi@madalin.me>
// Copyright (c) 2026 Vlah Software House SRL <contact@vlah.sh>
// All rights reserved. See LICENSE for details.

package middleware

import (
	"bytes"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

// captureLog routes the default logger into a buffer for the test.
func captureLog(t *testing.T) *bytes.Buffer {
	t.Helper()
	var buf bytes.Buffer
	prev := slog.Default()
	slog.SetDefault(slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{Level: slog.LevelDebug})))
	t.Cleanup(func() { slog.SetDefault(prev) })
	return &buf
}

// lastEntry decodes the final JSON log line.
func lastEntry(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	var entry map[string]any
	if err := json.Unmarshal([]byte(lines[len(lines)-1]), &entry); err != nil {
		t.Fatalf("decode log line %q: %v", lines[len(lines)-1], err)
	}
	return entry
}

func TestLoggerStatusAndLevel(t *testing.T) {
	tests := []struct {
		name      string
		handler   http.HandlerFunc
		wantCode  int
		wantLevel string
	}{
		{
			name:      "explicit status",
			handler:   func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusCreated) },
			wantCode:  http.StatusCreated,
			wantLevel: "INFO",
		},
		{
			name:      "implicit 200 on write",
			handler:   func(w http.ResponseWriter, r *http.Request) { w.Write([]byte(`{"items":[]}`)) },
			wantCode:  http.StatusOK,
			wantLevel: "INFO",
		},
		{
			name:      "client error stays info",
			handler:   func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusConflict) },
			wantCode:  http.StatusConflict,
			wantLevel: "INFO",
		},
		{
			name:      "server error logs at error",
			handler:   func(w http.ResponseWriter, r *http.Request) { w.WriteHeader(http.StatusInternalServerError) },
			wantCode:  http.StatusInternalServerError,
			wantLevel: "ERROR",
		},
		{
			name: "first status wins",
			handler: func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusAccepted)
				w.WriteHeader(http.StatusBadGateway)
			},
			wantCode:  http.StatusAccepted,
			wantLevel: "INFO",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := captureLog(t)
			rr := httptest.NewRecorder()
			Logger(tt.handler).ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/api/collection", nil))

			if rr.Code != tt.wantCode {
				t.Errorf("response status: got %d, want %d", rr.Code, tt.wantCode)
			}
			entry := lastEntry(t, buf)
			if entry["msg"] != "http request" {
				t.Errorf("msg: got %v", entry["msg"])
			}
			if got := int(entry["status"].(float64)); got != tt.wantCode {
				t.Errorf("logged status: got %d, want %d", got, tt.wantCode)
			}
			if entry["level"] != tt.wantLevel {
				t.Errorf("level: got %v, want %s", entry["level"], tt.wantLevel)
			}
			if entry["method"] != http.MethodPost || entry["path"] != "/api/collection" {
				t.Errorf("method/path: got %v %v", entry["method"], entry["path"])
			}
		})
	}
}

func TestLoggerRequestID(t *testing.T) {
	tests := []struct {
		name     string
		incoming string
		echoed   bool
	}{
		{"generated when absent", "", false},
		{"echoes caller id", "trace-abc-123", true},
		{"replaces oversized id", strings.Repeat("x", 65), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf := captureLog(t)
			req := httptest.NewRequest(http.MethodGet, "/api/figures", nil)
			if tt.incoming != "" {
				req.Header.Set(RequestIDHeader, tt.incoming)
			}
			rr := httptest.NewRecorder()
			Logger(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {})).ServeHTTP(rr, req)

			got := rr.Header().Get(RequestIDHeader)
			if got == "" {
				t.Fatal("no request id on the response")
			}
			if tt.echoed && got != tt.incoming {
				t.Errorf("request id: got %q, want %q", got, tt.incoming)
			}
			if !tt.echoed && got == tt.incoming {
				t.Errorf("request id %q should have been replaced", got)
			}
			if entry := lastEntry(t, buf); entry["request_id"] != got {
				t.Errorf("logged request_id: got %v, want %q", entry["request_id"], got)
			}
		})
	}
}
