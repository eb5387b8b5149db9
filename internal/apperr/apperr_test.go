package apperr

import (
	"errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/wuwenbin0122/tasklist/internal/i18n"
)

func TestSentinelMatching(t *testing.T) {
	err := fmt.Errorf("load todo: %w", NotFound(i18n.ErrTodoNotFound))

	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected wrapped error to match ErrNotFound")
	}
	if errors.Is(err, ErrForbidden) {
		t.Fatalf("not found must not match ErrForbidden")
	}

	appErr, ok := As(err)
	if !ok {
		t.Fatalf("expected As to unwrap the application error")
	}
	if appErr.Kind.Status() != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", appErr.Kind.Status())
	}
}

func TestValidationCollector(t *testing.T) {
	collector := NewValidation()
	if collector.OrNil() != nil {
		t.Fatalf("empty collector should be nil")
	}

	collector.Add("password", i18n.FieldTooShort, "8")
	collector.Merge(Field("email", i18n.FieldInvalidEmail))
	collector.Merge(nil)

	err := collector.OrNil()
	if err == nil {
		t.Fatalf("expected collected error")
	}
	if got := collector.FieldNames(); len(got) != 2 || got[0] != "email" || got[1] != "password" {
		t.Fatalf("unexpected field names %v", got)
	}
	if !errors.Is(err, ErrValidation) {
		t.Fatalf("expected validation kind")
	}
}

func TestNonField(t *testing.T) {
	err := NonField(i18n.ErrInvalidToken)
	if !err.HasField(i18n.NonFieldErrors) {
		t.Fatalf("expected non_field_errors entry, got %v", err.Fields)
	}
	if err.Kind.Status() != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", err.Kind.Status())
	}
}
