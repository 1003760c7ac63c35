package errors

import (
	"fmt"
	"strings"
	"testing"
)

func TestAppError(t *testing.T) {
	tests := []struct {
		name     string
		err      *AppError
		expected string
	}{
		{
			name:     "basic error",
			err:      New(ErrCodeConnectionFailed, "Connection failed"),
			expected: "[SCHK1001] ERROR: Connection failed",
		},
		{
			name: "error with suggestions",
			err: New(ErrCodeConnectionFailed, "Connection failed").
				WithSuggestions("Check network", "Verify credentials"),
			expected: "[SCHK1001] ERROR: Connection failed\nSuggestions:\n  1. Check network\n  2. Verify credentials",
		},
		{
			name: "error with context",
			err: New(ErrCodeConnectionFailed, "Connection failed").
				WithContext("account", "example.snowflakecomputing.com").
				WithContext("port", 443),
			expected: "[SCHK1001] ERROR: Connection failed",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if tt.err.Error() != tt.expected {
				t.Errorf("Expected %q, got %q", tt.expected, tt.err.Error())
			}
		})
	}
}

func TestErrorWrapping(t *testing.T) {
	baseErr := fmt.Errorf("database connection refused")

	appErr := Wrap(baseErr, ErrCodeConnectionFailed, "Failed to connect to Snowflake")

	if appErr.Cause != baseErr {
		t.Error("Wrapped error should contain original error as cause")
	}

	if appErr.Code != ErrCodeConnectionFailed {
		t.Errorf("Expected code %s, got %s", ErrCodeConnectionFailed, appErr.Code)
	}

	if Wrap(nil, ErrCodeInternal, "no-op") != nil {
		t.Error("Wrapping nil should return nil")
	}
}

func TestSchemaError(t *testing.T) {
	err := SchemaError(ErrCodeUnknownRuleKind, "unsupported rule kind", "not-a-kind", "PLANT")

	if err.Code != ErrCodeUnknownRuleKind {
		t.Errorf("Expected code %s, got %s", ErrCodeUnknownRuleKind, err.Code)
	}
	if err.Context["kind"] != "not-a-kind" {
		t.Errorf("Expected kind context, got %v", err.Context["kind"])
	}
	if err.Context["target"] != "PLANT" {
		t.Errorf("Expected target context, got %v", err.Context["target"])
	}
}

func TestExecutionErrorAttachesQuery(t *testing.T) {
	query := "SELECT 1 FROM base_data"

	err := ExecutionError("Query execution failed", query, fmt.Errorf("syntax error at line 1"))

	if err.Code != ErrCodeQuerySyntax {
		t.Errorf("Expected syntax code, got %s", err.Code)
	}
	if err.Context["query"] != query {
		t.Errorf("Expected full query in context, got %v", err.Context["query"])
	}
}

func TestExecutionErrorTimeout(t *testing.T) {
	err := ExecutionError("Query execution failed", "SELECT 1", fmt.Errorf("request timeout"))

	if err.Code != ErrCodeQueryTimeout {
		t.Errorf("Expected timeout code, got %s", err.Code)
	}
}

func TestAggregationError(t *testing.T) {
	err := AggregationError("id_ab12cd34ef", "Basic Presence", "ID_AB12CD34EF")

	if err.Severity != SeverityCritical {
		t.Errorf("Expected critical severity, got %s", err.Severity)
	}
	if !strings.Contains(err.Error(), "id_ab12cd34ef") {
		t.Error("Aggregation error should mention the rule id")
	}
	if err.Context["suite"] != "Basic Presence" {
		t.Errorf("Expected suite provenance in context, got %v", err.Context["suite"])
	}
}

func TestGetErrorCode(t *testing.T) {
	if got := GetErrorCode(New(ErrCodeGrainUnresolved, "x")); got != ErrCodeGrainUnresolved {
		t.Errorf("Expected %s, got %s", ErrCodeGrainUnresolved, got)
	}
	if got := GetErrorCode(fmt.Errorf("plain")); got != ErrCodeInternal {
		t.Errorf("Expected %s for plain errors, got %s", ErrCodeInternal, got)
	}
}

func TestIsRecoverable(t *testing.T) {
	err := GrainError("MYSTERY_COLUMN")
	if IsRecoverable(err) {
		t.Error("Grain errors are not recoverable by default")
	}
	if !IsRecoverable(err.AsRecoverable()) {
		t.Error("AsRecoverable should mark the error recoverable")
	}
}
