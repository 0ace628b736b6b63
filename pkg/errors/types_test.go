package errors

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestNew(t *testing.T) {
	err := New(ErrCodeUnknownIdentifier, "no widget named xyz")

	if err == nil {
		t.Fatal("New should return non-nil error")
	}

	if err.Code != ErrCodeUnknownIdentifier {
		t.Errorf("Code = %v, want %v", err.Code, ErrCodeUnknownIdentifier)
	}

	if err.Message != "no widget named xyz" {
		t.Errorf("Message = %v, want 'no widget named xyz'", err.Message)
	}

	if err.Underlying != nil {
		t.Error("Underlying should be nil for New error")
	}

	if len(err.Stack) == 0 {
		t.Error("Stack should be captured")
	}
}

func TestNewf(t *testing.T) {
	err := Newf(ErrCodeInvalidValue, "value %d out of range", 300)
	if err.Message != "value 300 out of range" {
		t.Errorf("Message = %q", err.Message)
	}
}

func TestWrap(t *testing.T) {
	underlying := errors.New("open example.json: no such file")
	err := Wrap(underlying, ErrCodeDocumentRead, "failed to read document")

	if err == nil {
		t.Fatal("Wrap should return non-nil error")
	}

	if err.Underlying != underlying {
		t.Error("Underlying should be preserved")
	}

	if !strings.Contains(err.Error(), "no such file") {
		t.Error("Error string should include underlying error")
	}
}

func TestWrap_Nil(t *testing.T) {
	if err := Wrap(nil, ErrCodeInternal, "test"); err != nil {
		t.Error("Wrap of nil should return nil")
	}
}

func TestWithContext(t *testing.T) {
	err := New(ErrCodeSchemaViolation, "unknown property").
		WithContext("widget", "mybutton").
		WithContext("key", "colour")

	if err.Context["widget"] != "mybutton" {
		t.Error("Context should contain 'widget' key")
	}

	errStr := err.Error()
	if !strings.Contains(errStr, "widget: mybutton") || !strings.Contains(errStr, "key: colour") {
		t.Errorf("Error string should include context, got %q", errStr)
	}
}

func TestError_ContextOrderIsStable(t *testing.T) {
	err := New(ErrCodeSchemaViolation, "bad").
		WithContext("widget", "w").
		WithContext("key", "k")

	want := "[SCHEMA_VIOLATION] bad {key: k, widget: w}"
	for i := 0; i < 10; i++ {
		if got := err.Error(); got != want {
			t.Fatalf("Error() = %q, want %q", got, want)
		}
	}
}

func TestIs_MatchesByCode(t *testing.T) {
	err := New(ErrCodeSceneClosed, "window closed").WithContext("widget", "bar")

	if !errors.Is(err, ErrSceneClosed) {
		t.Error("errors.Is should match sentinel with same code")
	}
	if errors.Is(err, ErrInvalidValue) {
		t.Error("errors.Is should not match sentinel with different code")
	}

	wrapped := fmt.Errorf("get_pct: %w", err)
	if !errors.Is(wrapped, ErrSceneClosed) {
		t.Error("errors.Is should see through fmt wrapping")
	}
}

func TestUnwrap(t *testing.T) {
	underlying := errors.New("underlying")
	err := Wrap(underlying, ErrCodeInternal, "wrapped")

	if err.Unwrap() != underlying {
		t.Error("Unwrap should return underlying error")
	}
}

func TestIsCode(t *testing.T) {
	err := New(ErrCodeDuplicateIdentifier, "duplicate")

	if !IsCode(err, ErrCodeDuplicateIdentifier) {
		t.Error("IsCode should return true for matching code")
	}
	if IsCode(err, ErrCodeSchemaViolation) {
		t.Error("IsCode should return false for non-matching code")
	}
	if IsCode(nil, ErrCodeDuplicateIdentifier) {
		t.Error("IsCode should return false for nil error")
	}
	if IsCode(errors.New("standard error"), ErrCodeInternal) {
		t.Error("IsCode should return false for plain errors")
	}
	if !IsCode(fmt.Errorf("load: %w", err), ErrCodeDuplicateIdentifier) {
		t.Error("IsCode should look through wrapping")
	}
}

func TestGetCode(t *testing.T) {
	if code := GetCode(New(ErrCodeInvalidProperty, "x")); code != ErrCodeInvalidProperty {
		t.Errorf("GetCode = %v, want %v", code, ErrCodeInvalidProperty)
	}
	if GetCode(nil) != "" {
		t.Error("GetCode should return empty string for nil")
	}
	if GetCode(errors.New("standard")) != ErrCodeInternal {
		t.Error("GetCode should return ErrCodeInternal for plain errors")
	}
}

func TestContextValue(t *testing.T) {
	err := fmt.Errorf("wrap: %w", New(ErrCodeSchemaViolation, "x").WithContext("key", "pct"))

	v, ok := ContextValue(err, "key")
	if !ok || v != "pct" {
		t.Errorf("ContextValue = %v, %v", v, ok)
	}
	if _, ok := ContextValue(err, "missing"); ok {
		t.Error("missing key should report false")
	}
	if _, ok := ContextValue(errors.New("plain"), "key"); ok {
		t.Error("plain error has no context")
	}
}

func TestStackTrace(t *testing.T) {
	err := New(ErrCodeInternal, "test error")

	trace := err.StackTrace()
	if !strings.Contains(trace, "Stack trace:") {
		t.Error("StackTrace should contain header")
	}
	if len(err.Stack) == 0 {
		t.Error("Stack should have frames")
	}
}

func TestCaptureStack(t *testing.T) {
	frames := captureStack(0)

	if len(frames) == 0 {
		t.Fatal("captureStack should return at least one frame")
	}

	found := false
	for _, frame := range frames {
		if strings.Contains(frame.Function, "Test") || strings.Contains(frame.Function, "errors") {
			found = true
			break
		}
	}
	if !found {
		t.Error("Stack should contain test or errors package frames")
	}
}
