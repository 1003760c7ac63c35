package models

// Config is the persisted tool configuration, stored as YAML under the
// user's home directory.
type Config struct {
	Snowflake  Snowflake  `yaml:"snowflake"`
	Suites     Suites     `yaml:"suites"`
	Validation Validation `yaml:"validation"`
}

// Snowflake holds connection settings. Password may be stored encrypted
// (ENC[...] envelope) or kept in the system keyring.
type Snowflake struct {
	Account   string `yaml:"account"`
	Username  string `yaml:"username"`
	Password  string `yaml:"password"`
	Role      string `yaml:"role"`
	Warehouse string `yaml:"warehouse"`
	Database  string `yaml:"database"`
	Schema    string `yaml:"schema"`
	Timeout   string `yaml:"timeout,omitempty"` // e.g. "5m"
}

// Suites says where validation suite documents come from: a local
// directory, optionally kept in sync from a git repository.
type Suites struct {
	Directory string `yaml:"directory"`
	GitURL    string `yaml:"git_url,omitempty"`
	Branch    string `yaml:"branch,omitempty"`
}

// Validation holds run defaults.
type Validation struct {
	RowLimit      int  `yaml:"row_limit,omitempty"`      // 0 validates everything
	GrainFallback bool `yaml:"grain_fallback,omitempty"` // degrade unmapped columns to the root key
}
