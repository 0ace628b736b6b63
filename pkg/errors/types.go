package errors

import (
	"fmt"
	"runtime"
	"sort"
	"strings"
)

// ErrorCode represents a structured error code
type ErrorCode string

const (
	// Document and scene construction errors
	ErrCodeDocumentRead        ErrorCode = "DOCUMENT_READ"
	ErrCodeSchemaViolation     ErrorCode = "SCHEMA_VIOLATION"
	ErrCodeDuplicateIdentifier ErrorCode = "DUPLICATE_IDENTIFIER"

	// Runtime call errors
	ErrCodeUnknownIdentifier ErrorCode = "UNKNOWN_IDENTIFIER"
	ErrCodeInvalidValue      ErrorCode = "INVALID_VALUE"
	ErrCodeInvalidProperty   ErrorCode = "INVALID_PROPERTY"
	ErrCodeSceneClosed       ErrorCode = "SCENE_CLOSED"

	// Backend errors
	ErrCodeBackendInit ErrorCode = "BACKEND_INIT"

	// Configuration errors
	ErrCodeConfigLoad    ErrorCode = "CONFIG_LOAD"
	ErrCodeConfigParse   ErrorCode = "CONFIG_PARSE"
	ErrCodeConfigInvalid ErrorCode = "CONFIG_INVALID"

	// Generic errors
	ErrCodeInternal     ErrorCode = "INTERNAL"
	ErrCodeInvalidInput ErrorCode = "INVALID_INPUT"
)

// Sentinels for errors.Is. They match any *Error carrying the same code.
var (
	ErrSchemaViolation     = &Error{Code: ErrCodeSchemaViolation, Message: "schema violation"}
	ErrDuplicateIdentifier = &Error{Code: ErrCodeDuplicateIdentifier, Message: "duplicate identifier"}
	ErrUnknownIdentifier   = &Error{Code: ErrCodeUnknownIdentifier, Message: "unknown identifier"}
	ErrInvalidValue        = &Error{Code: ErrCodeInvalidValue, Message: "invalid value"}
	ErrInvalidProperty     = &Error{Code: ErrCodeInvalidProperty, Message: "invalid property"}
	ErrSceneClosed         = &Error{Code: ErrCodeSceneClosed, Message: "scene closed"}
)

// Error represents a structured rapidgui error
type Error struct {
	Code       ErrorCode
	Message    string
	Underlying error
	Context    map[string]any
	Stack      []Frame
}

// Frame represents a stack frame
type Frame struct {
	Function string
	File     string
	Line     int
}

// New creates a new structured error
func New(code ErrorCode, message string) *Error {
	return &Error{
		Code:    code,
		Message: message,
		Context: make(map[string]any),
		Stack:   captureStack(2), // Skip New and caller
	}
}

// Newf is New with a formatted message.
func Newf(code ErrorCode, format string, args ...any) *Error {
	return &Error{
		Code:    code,
		Message: fmt.Sprintf(format, args...),
		Context: make(map[string]any),
		Stack:   captureStack(2),
	}
}

// Wrap wraps an existing error with rapidgui error context
func Wrap(err error, code ErrorCode, message string) *Error {
	if err == nil {
		return nil
	}

	return &Error{
		Code:       code,
		Message:    message,
		Underlying: err,
		Context:    make(map[string]any),
		Stack:      captureStack(2),
	}
}

// WithContext adds context key-value pairs to the error
func (e *Error) WithContext(key string, value any) *Error {
	if e.Context == nil {
		e.Context = make(map[string]any)
	}
	e.Context[key] = value
	return e
}

// Error implements the error interface
func (e *Error) Error() string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("[%s] %s", e.Code, e.Message))

	// Context keys are sorted so messages are stable.
	if len(e.Context) > 0 {
		keys := make([]string, 0, len(e.Context))
		for k := range e.Context {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		sb.WriteString(" {")
		for i, k := range keys {
			if i > 0 {
				sb.WriteString(", ")
			}
			sb.WriteString(fmt.Sprintf("%s: %v", k, e.Context[k]))
		}
		sb.WriteString("}")
	}

	if e.Underlying != nil {
		sb.WriteString(fmt.Sprintf(": %v", e.Underlying))
	}

	return sb.String()
}

// Unwrap returns the underlying error for errors.Is/As
func (e *Error) Unwrap() error {
	return e.Underlying
}

// Is reports whether target is an *Error with the same code.
func (e *Error) Is(target error) bool {
	t, ok := target.(*Error)
	if !ok || t == nil {
		return false
	}
	return t.Code == e.Code
}

// StackTrace returns a formatted stack trace
func (e *Error) StackTrace() string {
	var sb strings.Builder

	sb.WriteString("Stack trace:\n")
	for i, frame := range e.Stack {
		sb.WriteString(fmt.Sprintf("  %d. %s\n", i+1, frame.String()))
		sb.WriteString(fmt.Sprintf("     %s:%d\n", frame.File, frame.Line))
	}

	return sb.String()
}

// String formats a stack frame
func (f Frame) String() string {
	return f.Function
}

// captureStack captures the current call stack
func captureStack(skip int) []Frame {
	const maxDepth = 32
	var pcs [maxDepth]uintptr

	n := runtime.Callers(skip+1, pcs[:])
	frames := make([]Frame, 0, n)

	for i := 0; i < n; i++ {
		pc := pcs[i]
		fn := runtime.FuncForPC(pc)
		if fn == nil {
			continue
		}

		file, line := fn.FileLine(pc)

		frames = append(frames, Frame{
			Function: fn.Name(),
			File:     file,
			Line:     line,
		})
	}

	return frames
}

// As finds the first *Error in err's chain.
func As(err error) (*Error, bool) {
	for err != nil {
		if e, ok := err.(*Error); ok {
			return e, true
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return nil, false
		}
		err = u.Unwrap()
	}
	return nil, false
}

// IsCode checks if an error has a specific error code
func IsCode(err error, code ErrorCode) bool {
	e, ok := As(err)
	if !ok {
		return false
	}
	return e.Code == code
}

// GetCode extracts the error code from an error
func GetCode(err error) ErrorCode {
	if err == nil {
		return ""
	}

	e, ok := As(err)
	if !ok {
		return ErrCodeInternal
	}

	return e.Code
}

// ContextValue returns a context value recorded on the first *Error in err's chain.
func ContextValue(err error, key string) (any, bool) {
	e, ok := As(err)
	if !ok || e.Context == nil {
		return nil, false
	}
	v, ok := e.Context[key]
	return v, ok
}
