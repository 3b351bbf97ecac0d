package common

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"testing"

	"google.golang.org/grpc/codes"
)

func TestCodeAndHTTPStatus(t *testing.T) {
	unsupported := NewAppError("UNSUPPORTED_FILE_TYPE", "unsupported file type", ErrInvalidInput)
	tests := []struct {
		name   string
		err    error
		code   codes.Code
		status int
	}{
		{"nil", nil, codes.OK, http.StatusOK},
		{"wrapped input", fmt.Errorf("%w: text/plain", unsupported), codes.InvalidArgument, http.StatusBadRequest},
		{"validation", ErrValidation, codes.InvalidArgument, http.StatusBadRequest},
		{"reauth", ErrReauthRequired, codes.Unauthenticated, http.StatusUnauthorized},
		{"forbidden", ErrForbidden, codes.PermissionDenied, http.StatusForbidden},
		{"not found", WrapError(ErrNotFound, "course"), codes.NotFound, http.StatusNotFound},
		{"contract", NewAppError("NO_JSON_FOUND", "no json", ErrContract), codes.Aborted, http.StatusBadGateway},
		{"upstream", NewAppError("MODEL_UNAVAILABLE", "down", ErrUpstream), codes.Unavailable, http.StatusBadGateway},
		{"deadline", context.DeadlineExceeded, codes.DeadlineExceeded, http.StatusGatewayTimeout},
		{"grpc status", NotFoundError("x"), codes.NotFound, http.StatusNotFound},
		{"plain", errors.New("boom"), codes.Internal, http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Code(tt.err); got != tt.code {
				t.Fatalf("Code = %v, want %v", got, tt.code)
			}
			if got := HTTPStatus(tt.err); got != tt.status {
				t.Fatalf("HTTPStatus = %d, want %d", got, tt.status)
			}
		})
	}
}

func TestAppCode(t *testing.T) {
	err := fmt.Errorf("outer: %w", NewAppError("EMPTY_DOCUMENT", "empty", ErrInvalidInput))
	if got := AppCode(err); got != "EMPTY_DOCUMENT" {
		t.Fatalf("AppCode = %q", got)
	}
	if got := AppCode(errors.New("x")); got != "" {
		t.Fatalf("AppCode on plain error = %q", got)
	}
}
