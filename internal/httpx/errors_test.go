package httpx

import (
	"errors"
	"net/http"
	"testing"
)

func TestAppError_Error(t *testing.T) {
	tests := []struct {
		name string
		err  *AppError
		want string
	}{
		{
			name: "error without internal err",
			err:  NewAppError(http.StatusBadRequest, CodeParamMissing, "param missing", nil),
			want: "code=2001, message=param missing",
		},
		{
			name: "error with internal err",
			err:  NewAppError(http.StatusInternalServerError, CodeInternalError, "internal error", errors.New("db connection failed")),
			want: "code=5001, message=internal error, err=db connection failed",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("AppError.Error() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestErrorConstructors(t *testing.T) {
	tests := []struct {
		name       string
		err        *AppError
		wantStatus int
		wantCode   int
	}{
		{"unauthorized", ErrUnauthorized(""), http.StatusUnauthorized, CodeUnauthorized},
		{"invalid token", ErrInvalidToken(""), http.StatusUnauthorized, CodeInvalidToken},
		{"token expired", ErrTokenExpired(""), http.StatusUnauthorized, CodeTokenExpired},
		{"param missing", ErrParamMissing(""), http.StatusBadRequest, CodeParamMissing},
		{"param invalid", ErrParamInvalid(""), http.StatusBadRequest, CodeParamInvalid},
		{"not found", ErrNotFound(""), http.StatusNotFound, CodeNotFound},
		{"operation in flight", ErrOperationInFlight(""), http.StatusConflict, CodeOperationInFlight},
		{"internal", ErrInternalError("", nil), http.StatusInternalServerError, CodeInternalError},
		{"external", ErrExternalError("", nil), http.StatusBadGateway, CodeExternalError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.err.HTTPStatus != tt.wantStatus {
				t.Errorf("Expected HTTP status %d, got %d", tt.wantStatus, tt.err.HTTPStatus)
			}
			if tt.err.Code != tt.wantCode {
				t.Errorf("Expected code %d, got %d", tt.wantCode, tt.err.Code)
			}
			if tt.err.Message == "" {
				t.Error("Expected default message to be filled in")
			}
		})
	}
}

func TestAppError_WithData(t *testing.T) {
	err := ErrExternalError("provider failure", nil).WithData(map[string]any{"category": "rate_limited"})
	if err.Data == nil {
		t.Error("Expected data to be attached")
	}
}
