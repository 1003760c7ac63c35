package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestConfigUnmarshalsFromYAML(t *testing.T) {
	doc := `
snowflake:
  account: xy12345.us-east-1
  username: dq_reader
  role: REPORTING_READER
  warehouse: COMPUTE_WH
  database: PROD_MO_MONM
  schema: REPORTING
  timeout: 2m
suites:
  directory: /data/suites
  git_url: https://github.com/company/suites.git
  branch: main
validation:
  row_limit: 5000
  grain_fallback: true
`
	var cfg Config
	require.NoError(t, yaml.Unmarshal([]byte(doc), &cfg))

	assert.Equal(t, "xy12345.us-east-1", cfg.Snowflake.Account)
	assert.Equal(t, "dq_reader", cfg.Snowflake.Username)
	assert.Equal(t, "2m", cfg.Snowflake.Timeout)
	assert.Equal(t, "/data/suites", cfg.Suites.Directory)
	assert.Equal(t, "https://github.com/company/suites.git", cfg.Suites.GitURL)
	assert.Equal(t, 5000, cfg.Validation.RowLimit)
	assert.True(t, cfg.Validation.GrainFallback)
}

func TestConfigOmitsEmptyOptionalFields(t *testing.T) {
	cfg := Config{
		Snowflake: Snowflake{
			Account:  "xy12345",
			Username: "dq_reader",
		},
	}

	data, err := yaml.Marshal(&cfg)
	require.NoError(t, err)

	assert.NotContains(t, string(data), "timeout")
	assert.NotContains(t, string(data), "git_url")
	assert.NotContains(t, string(data), "row_limit")
}
