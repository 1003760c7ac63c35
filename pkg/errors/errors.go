package errors

import (
	"errors"
	"fmt"
	"runtime"
	"strings"
	"time"
)

// ErrorCode represents a unique error code for categorizing errors
type ErrorCode string

const (
	// Connection errors (1xxx)
	ErrCodeConnectionFailed     ErrorCode = "SCHK1001"
	ErrCodeConnectionTimeout    ErrorCode = "SCHK1002"
	ErrCodeAuthenticationFailed ErrorCode = "SCHK1003"

	// Rule catalog / schema errors (2xxx)
	ErrCodeSuiteNameMissing  ErrorCode = "SCHK2001"
	ErrCodeSuiteEmpty        ErrorCode = "SCHK2002"
	ErrCodeUnknownRuleKind   ErrorCode = "SCHK2003"
	ErrCodeRuleParamMissing  ErrorCode = "SCHK2004"
	ErrCodeSuiteParse        ErrorCode = "SCHK2005"
	ErrCodeDerivedUnresolved ErrorCode = "SCHK2006"
	ErrCodeSuiteNotFound     ErrorCode = "SCHK2007"

	// Grain resolution errors (3xxx)
	ErrCodeGrainUnresolved ErrorCode = "SCHK3001"
	ErrCodeGrainEmptyInput ErrorCode = "SCHK3002"

	// Query synthesis errors (4xxx)
	ErrCodeSynthesisInternal ErrorCode = "SCHK4001"
	ErrCodeSynthesisNoRules  ErrorCode = "SCHK4002"

	// Execution errors (5xxx)
	ErrCodeQueryFailed  ErrorCode = "SCHK5001"
	ErrCodeQuerySyntax  ErrorCode = "SCHK5002"
	ErrCodeQueryTimeout ErrorCode = "SCHK5003"
	ErrCodeResultScan   ErrorCode = "SCHK5004"
	ErrCodeNotConnected ErrorCode = "SCHK5005"

	// Aggregation errors (6xxx)
	ErrCodeFlagColumnMissing    ErrorCode = "SCHK6001"
	ErrCodeContextColumnMissing ErrorCode = "SCHK6002"

	// Configuration errors (7xxx)
	ErrCodeConfigNotFound ErrorCode = "SCHK7001"
	ErrCodeConfigInvalid  ErrorCode = "SCHK7002"

	// Security errors (8xxx)
	ErrCodeCredentialStore  ErrorCode = "SCHK8001"
	ErrCodeEncryptionFailed ErrorCode = "SCHK8002"

	// System errors (9xxx)
	ErrCodeInternal ErrorCode = "SCHK9001"
	ErrCodeGitSync  ErrorCode = "SCHK9002"
)

// ErrorSeverity represents the severity level of an error
type ErrorSeverity string

const (
	SeverityCritical ErrorSeverity = "CRITICAL" // System failure, requires immediate attention
	SeverityError    ErrorSeverity = "ERROR"    // Operation failed, but system continues
	SeverityWarning  ErrorSeverity = "WARNING"  // Operation succeeded with issues
	SeverityInfo     ErrorSeverity = "INFO"     // Informational, not an error
)

// AppError represents a structured application error with context
type AppError struct {
	Code        ErrorCode
	Message     string
	Severity    ErrorSeverity
	Context     map[string]interface{}
	Cause       error
	Stack       string
	Timestamp   time.Time
	Recoverable bool
	Suggestions []string
}

// Error implements the error interface
func (e *AppError) Error() string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("[%s] %s: %s", e.Code, e.Severity, e.Message))

	if e.Cause != nil {
		b.WriteString(fmt.Sprintf("\nCaused by: %v", e.Cause))
	}

	if len(e.Suggestions) > 0 {
		b.WriteString("\nSuggestions:")
		for i, suggestion := range e.Suggestions {
			b.WriteString(fmt.Sprintf("\n  %d. %s", i+1, suggestion))
		}
	}

	return b.String()
}

// Unwrap returns the cause of the error
func (e *AppError) Unwrap() error {
	return e.Cause
}

// Is implements error comparison
func (e *AppError) Is(target error) bool {
	t, ok := target.(*AppError)
	if !ok {
		return false
	}
	return e.Code == t.Code
}

// New creates a new AppError
func New(code ErrorCode, message string) *AppError {
	return &AppError{
		Code:        code,
		Message:     message,
		Severity:    SeverityError,
		Context:     make(map[string]interface{}),
		Stack:       captureStack(),
		Timestamp:   time.Now(),
		Recoverable: false,
	}
}

// Wrap wraps an existing error with AppError
func Wrap(err error, code ErrorCode, message string) *AppError {
	if err == nil {
		return nil
	}

	appErr := New(code, message)
	appErr.Cause = err

	// If wrapping another AppError, inherit its context
	if ae, ok := err.(*AppError); ok {
		for k, v := range ae.Context {
			appErr.Context[k] = v
		}
	}

	return appErr
}

// WithContext adds context to the error
func (e *AppError) WithContext(key string, value interface{}) *AppError {
	if e.Context == nil {
		e.Context = make(map[string]interface{})
	}
	e.Context[key] = value
	return e
}

// WithSeverity sets the error severity
func (e *AppError) WithSeverity(severity ErrorSeverity) *AppError {
	e.Severity = severity
	return e
}

// WithSuggestions adds recovery suggestions
func (e *AppError) WithSuggestions(suggestions ...string) *AppError {
	e.Suggestions = append(e.Suggestions, suggestions...)
	return e
}

// AsRecoverable marks the error as recoverable
func (e *AppError) AsRecoverable() *AppError {
	e.Recoverable = true
	return e
}

// captureStack captures the current stack trace
func captureStack() string {
	const depth = 32
	var pcs [depth]uintptr
	n := runtime.Callers(3, pcs[:])

	var b strings.Builder
	frames := runtime.CallersFrames(pcs[:n])

	for {
		frame, more := frames.Next()
		if !strings.Contains(frame.File, "runtime/") {
			b.WriteString(fmt.Sprintf("%s:%d %s\n", frame.File, frame.Line, frame.Function))
		}
		if !more {
			break
		}
	}

	return b.String()
}

// Common error constructors

// ConnectionError creates a connection-related error
func ConnectionError(message string, cause error) *AppError {
	return Wrap(cause, ErrCodeConnectionFailed, message).
		WithSeverity(SeverityError).
		WithSuggestions(
			"Check your network connection",
			"Verify Snowflake endpoint is accessible",
			"Check firewall settings",
		)
}

// SchemaError creates a rule catalog schema error. Load-time errors identify
// the offending rule by kind and target so the document can be fixed.
func SchemaError(code ErrorCode, message, kind, target string) *AppError {
	err := New(code, message)
	if kind != "" {
		err = err.WithContext("kind", kind)
	}
	if target != "" {
		err = err.WithContext("target", target)
	}
	return err
}

// GrainError creates a grain resolution error for a column with no known
// entity mapping.
func GrainError(column string) *AppError {
	return New(ErrCodeGrainUnresolved,
		fmt.Sprintf("no entity grain mapping for column %q", column)).
		WithContext("column", column).
		WithSuggestions(
			"Add the column to the grain mapping table",
			"Enable the root-key fallback if degraded deduplication is acceptable",
		)
}

// ExecutionError creates a query execution error. The synthesized query is
// attached so failures can be reproduced outside the engine.
func ExecutionError(message, query string, cause error) *AppError {
	err := Wrap(cause, ErrCodeQueryFailed, message).
		WithContext("query", query)

	if cause != nil {
		errStr := cause.Error()
		if strings.Contains(errStr, "syntax error") {
			err.Code = ErrCodeQuerySyntax
			_ = err.WithSuggestions(
				"The generated SQL is invalid; this indicates a synthesizer bug",
				"Run the preview command and inspect the attached query",
			)
		} else if strings.Contains(errStr, "timeout") {
			err.Code = ErrCodeQueryTimeout
			_ = err.WithSuggestions(
				"Lower the row limit for this suite",
				"Check Snowflake warehouse size",
			)
		}
	}

	return err
}

// AggregationError creates an error for a result set missing an expected
// rule flag column. This is synthesizer/aggregator drift, an internal bug.
func AggregationError(ruleID, suite, column string) *AppError {
	return New(ErrCodeFlagColumnMissing,
		fmt.Sprintf("result set is missing flag column %q for rule %s (suite %q)", column, ruleID, suite)).
		WithSeverity(SeverityCritical).
		WithContext("rule_id", ruleID).
		WithContext("suite", suite).
		WithContext("column", column)
}

// IsRecoverable checks if an error is recoverable
func IsRecoverable(err error) bool {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Recoverable
	}
	return false
}

// GetErrorCode extracts the error code from an error
func GetErrorCode(err error) ErrorCode {
	var appErr *AppError
	if errors.As(err, &appErr) {
		return appErr.Code
	}
	return ErrCodeInternal
}
