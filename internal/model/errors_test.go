package model

import (
	"errors"
	"fmt"
	"net/http"
	"testing"
)

func TestNewStatusError_FallbackMessages(t *testing.T) {
	tests := []struct {
		status   int
		wantCode string
		wantMsg  string
	}{
		{http.StatusBadRequest, ErrCodeInvalidRequest, MsgInvalidRequest},
		{http.StatusUnauthorized, ErrCodeInvalidCredentials, MsgInvalidCredentials},
		{http.StatusNotFound, ErrCodeNotFound, MsgNotFound},
		{http.StatusInternalServerError, ErrCodeServerError, MsgServerError},
		{http.StatusConflict, ErrCodeHTTPError, "HTTP error! status: 409"},
	}

	for _, tt := range tests {
		e := NewStatusError(tt.status, "")
		if e.Kind != KindApplication {
			t.Errorf("status %d: Kind = %q, want %q", tt.status, e.Kind, KindApplication)
		}
		if e.Code != tt.wantCode {
			t.Errorf("status %d: Code = %q, want %q", tt.status, e.Code, tt.wantCode)
		}
		if e.Message != tt.wantMsg {
			t.Errorf("status %d: Message = %q, want %q", tt.status, e.Message, tt.wantMsg)
		}
		if e.Status != tt.status {
			t.Errorf("status %d: Status = %d", tt.status, e.Status)
		}
	}
}

func TestNewStatusError_BodyMessageWins(t *testing.T) {
	e := NewStatusError(http.StatusUnauthorized, "bad creds")
	if e.Message != "bad creds" {
		t.Errorf("Message = %q, want %q", e.Message, "bad creds")
	}
}

func TestAPIError_ErrorsAs(t *testing.T) {
	wrapped := fmt.Errorf("load place: %w", NewStatusError(http.StatusNotFound, ""))

	if !IsNotFound(wrapped) {
		t.Error("IsNotFound should see through wrapping")
	}
	if !IsKind(wrapped, KindApplication) {
		t.Error("IsKind(application) should be true")
	}
	if IsKind(wrapped, KindNetwork) {
		t.Error("IsKind(network) should be false")
	}
}

func TestNewNetworkError_UnwrapsCause(t *testing.T) {
	cause := errors.New("dial tcp: connection refused")
	e := NewNetworkError("http://localhost:5000/api/v1", cause)

	if !errors.Is(e, cause) {
		t.Error("network error should unwrap to its cause")
	}
	if e.Kind != KindNetwork {
		t.Errorf("Kind = %q, want %q", e.Kind, KindNetwork)
	}
	if e.Action == "" {
		t.Error("network error should carry a hint")
	}
}

func TestNewValidationError_CarriesField(t *testing.T) {
	e := NewValidationError("email", "Email is required")
	if e.Field != "email" || e.Kind != KindValidation {
		t.Errorf("got %+v", e)
	}
}

func TestPartialSection(t *testing.T) {
	cause := errors.New("boom")
	wrapped := fmt.Errorf("detail: %w", NewPartialError("owner", cause))

	section, ok := PartialSection(wrapped)
	if !ok || section != "owner" {
		t.Errorf("PartialSection = (%q, %v), want (owner, true)", section, ok)
	}
	if !errors.Is(wrapped, cause) {
		t.Error("partial error should unwrap to its cause")
	}

	if _, ok := PartialSection(NewStatusError(http.StatusNotFound, "")); ok {
		t.Error("application error must not be reported as partial")
	}
	if _, ok := PartialSection(cause); ok {
		t.Error("plain error must not be reported as partial")
	}
}
