// Package snowflake wraps the Snowflake driver behind the single-query
// surface the validation runner needs: connect, run one synthesized query,
// hand back the materialized result.
package snowflake

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "github.com/snowflakedb/gosnowflake"

	"snowcheck/pkg/errors"
)

// Config holds Snowflake connection configuration.
type Config struct {
	Account   string
	Username  string
	Password  string
	Database  string
	Schema    string
	Warehouse string
	Role      string
	Timeout   time.Duration
}

// QueryResult is one fully materialized result set. The validation query
// returns a bounded row set, so buffering it is fine and lets the caller
// close the connection before aggregating.
type QueryResult struct {
	Columns []string
	Rows    [][]interface{}
}

// Service provides Snowflake database operations.
type Service struct {
	db        *sql.DB
	config    Config
	connected bool
}

// NewService creates a new Snowflake service.
func NewService(config Config) *Service {
	return &Service{config: config}
}

// ValidateConfig checks the connection settings before any network use.
func ValidateConfig(c Config) error {
	var missing []string
	for field, v := range map[string]string{
		"account":   c.Account,
		"username":  c.Username,
		"password":  c.Password,
		"database":  c.Database,
		"warehouse": c.Warehouse,
	} {
		if strings.TrimSpace(v) == "" {
			missing = append(missing, field)
		}
	}
	if len(missing) > 0 {
		return errors.New(errors.ErrCodeConfigInvalid,
			"Snowflake configuration is incomplete").
			WithContext("missing", strings.Join(missing, ", ")).
			WithSuggestions("Run the setup command to configure the connection")
	}
	return nil
}

// Connect establishes a connection to Snowflake and verifies it with a
// ping.
func (s *Service) Connect(ctx context.Context) error {
	if s.connected {
		return nil
	}
	if err := ValidateConfig(s.config); err != nil {
		return err
	}

	dsn := fmt.Sprintf("%s:%s@%s/%s/%s?warehouse=%s&role=%s",
		s.config.Username,
		s.config.Password,
		s.config.Account,
		s.config.Database,
		s.config.Schema,
		s.config.Warehouse,
		s.config.Role,
	)

	db, err := sql.Open("snowflake", dsn)
	if err != nil {
		return errors.ConnectionError("Failed to open Snowflake connection", err).
			WithContext("account", s.config.Account).
			WithContext("warehouse", s.config.Warehouse)
	}

	// One validation run is one query; no pool to speak of.
	db.SetMaxOpenConns(2)
	db.SetConnMaxLifetime(10 * time.Minute)

	pingCtx, cancel := s.opContext(ctx)
	defer cancel()

	if err := db.PingContext(pingCtx); err != nil {
		db.Close()

		if strings.Contains(err.Error(), "authentication") {
			return errors.New(errors.ErrCodeAuthenticationFailed, "Authentication failed").
				WithContext("user", s.config.Username).
				WithSuggestions(
					"Verify your username and password",
					"Check if your account is locked",
					"Ensure MFA is properly configured if required",
				)
		}

		return errors.ConnectionError("Failed to connect to Snowflake", err).
			WithContext("account", s.config.Account).
			AsRecoverable()
	}

	s.db = db
	s.connected = true
	return nil
}

// Close closes the database connection.
func (s *Service) Close() error {
	if !s.connected {
		return nil
	}
	if err := s.db.Close(); err != nil {
		return fmt.Errorf("failed to close connection: %w", err)
	}
	s.connected = false
	return nil
}

// Query runs one query and materializes every row. Cell types are whatever
// the driver produces; the aggregator normalizes them.
func (s *Service) Query(ctx context.Context, query string) (*QueryResult, error) {
	if !s.connected {
		return nil, errors.New(errors.ErrCodeNotConnected, "Not connected to Snowflake").
			WithSuggestions("Call Connect() before running a validation")
	}

	queryCtx, cancel := s.opContext(ctx)
	defer cancel()

	rows, err := s.db.QueryContext(queryCtx, query)
	if err != nil {
		return nil, errors.ExecutionError("Validation query failed", query, err)
	}
	defer rows.Close()

	return materialize(rows, query)
}

func materialize(rows *sql.Rows, query string) (*QueryResult, error) {
	columns, err := rows.Columns()
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeResultScan, "Failed to read result columns")
	}

	result := &QueryResult{Columns: columns}
	for rows.Next() {
		cells := make([]interface{}, len(columns))
		ptrs := make([]interface{}, len(columns))
		for i := range cells {
			ptrs[i] = &cells[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeResultScan, "Failed to scan result row")
		}
		result.Rows = append(result.Rows, cells)
	}
	if err := rows.Err(); err != nil {
		return nil, errors.ExecutionError("Validation query failed mid-stream", query, err)
	}

	return result, nil
}

func (s *Service) opContext(ctx context.Context) (context.Context, context.CancelFunc) {
	timeout := s.config.Timeout
	if timeout == 0 {
		timeout = 5 * time.Minute
	}
	return context.WithTimeout(ctx, timeout)
}
