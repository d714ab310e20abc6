package services

import (
	"net/http"
	"strings"
	"testing"
)

func TestClassifyVendorError(t *testing.T) {
	tests := []struct {
		name        string
		status      int
		contentType string
		body        string
		wantStatus  int
		wantMessage string
		wantHTML    bool
	}{
		{
			name:        "errors array",
			status:      http.StatusUnprocessableEntity,
			contentType: "application/json",
			body:        `{"errors":[{"message":"Email already in use"},{"message":"too short","field":"password"}]}`,
			wantStatus:  http.StatusUnprocessableEntity,
			wantMessage: "Email already in use; password: too short",
		},
		{
			name:        "message field",
			status:      http.StatusBadRequest,
			contentType: "application/json",
			body:        `{"message":" Invalid program "}`,
			wantStatus:  http.StatusBadRequest,
			wantMessage: "Invalid program",
		},
		{
			name:        "error field",
			status:      http.StatusNotFound,
			contentType: "application/json",
			body:        `{"error":"Affiliate not found"}`,
			wantStatus:  http.StatusNotFound,
			wantMessage: "Affiliate not found",
		},
		{
			name:        "unrecognized json",
			status:      http.StatusConflict,
			contentType: "application/json",
			body:        `{"detail":"nope"}`,
			wantStatus:  http.StatusConflict,
			wantMessage: "fallback",
		},
		{
			name:        "plain text",
			status:      http.StatusServiceUnavailable,
			contentType: "text/plain",
			body:        "down",
			wantStatus:  http.StatusServiceUnavailable,
			wantMessage: "fallback",
		},
		{
			name:        "html page",
			status:      http.StatusNotFound,
			contentType: "Text/HTML; charset=UTF-8",
			body:        `<html><body>{"message":"ignored"}</body></html>`,
			wantStatus:  http.StatusInternalServerError,
			wantMessage: MessageTryAgainLater,
			wantHTML:    true,
		},
		{
			name:        "non error status",
			status:      http.StatusOK,
			contentType: "application/json",
			body:        `{}`,
			wantStatus:  http.StatusBadGateway,
			wantMessage: "fallback",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ClassifyVendorError(tt.status, tt.contentType, []byte(tt.body), "fallback")
			if err.Status != tt.wantStatus || err.Message != tt.wantMessage || err.HTML != tt.wantHTML {
				t.Errorf("got %+v", err)
			}
			if !strings.Contains(err.Error(), tt.wantMessage) {
				t.Errorf("error string %q lacks message", err.Error())
			}
		})
	}
}
