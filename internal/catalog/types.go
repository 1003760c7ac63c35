package catalog

// Document is the YAML shape of a validation suite as authored.
type Document struct {
	Metadata   Metadata         `yaml:"metadata"`
	DataSource DataSource       `yaml:"data_source"`
	Rules      []RuleDescriptor `yaml:"rules"`
	Derived    []DerivedConfig  `yaml:"derived_statuses,omitempty"`
}

// Metadata is the suite-level metadata block.
type Metadata struct {
	SuiteName   string `yaml:"suite_name"`
	Description string `yaml:"description,omitempty"`
	IndexColumn string `yaml:"index_column,omitempty"`
}

// DataSource identifies the validated table and optional row filters.
type DataSource struct {
	Table    string                 `yaml:"table"`
	Filters  map[string]interface{} `yaml:"filters,omitempty"`
	Distinct bool                   `yaml:"distinct,omitempty"`
}

// RuleDescriptor is one declarative rule as authored. Which fields are
// required depends on the kind; the loader validates per kind.
type RuleDescriptor struct {
	Kind Kind `yaml:"kind"`

	Column  string   `yaml:"column,omitempty"`
	Columns []string `yaml:"columns,omitempty"`

	ValueSet []interface{} `yaml:"value_set,omitempty"`
	Pattern  string        `yaml:"pattern,omitempty"`

	ColumnA string `yaml:"column_a,omitempty"`
	ColumnB string `yaml:"column_b,omitempty"`
	OrEqual bool   `yaml:"or_equal,omitempty"`

	Length    *int     `yaml:"length,omitempty"`
	MinLength *int     `yaml:"min_length,omitempty"`
	MaxLength *int     `yaml:"max_length,omitempty"`
	MinValue  *float64 `yaml:"min_value,omitempty"`
	MaxValue  *float64 `yaml:"max_value,omitempty"`

	ColumnList []string `yaml:"column_list,omitempty"`

	ConditionColumn string        `yaml:"condition_column,omitempty"`
	ConditionValues []interface{} `yaml:"condition_values,omitempty"`
	RequiredColumn  string        `yaml:"required_column,omitempty"`
	TargetColumn    string        `yaml:"target_column,omitempty"`
	AllowedValues   []interface{} `yaml:"allowed_values,omitempty"`

	Reference *Reference `yaml:"reference,omitempty"`
}

// Reference describes where a reference-lookup rule finds its value set:
// either a literal list, or a distinct projection of a (possibly external)
// table column.
type Reference struct {
	Values []interface{} `yaml:"values,omitempty"`
	Table  string        `yaml:"table,omitempty"`
	Column string        `yaml:"column,omitempty"`
}

// DerivedConfig is one derived status as authored. Members may be listed
// explicitly by rule ID, or selected by a (kind, columns) filter resolved
// against the expanded instance catalog.
type DerivedConfig struct {
	Name    string   `yaml:"name"`
	RuleIDs []string `yaml:"rule_ids,omitempty"`
	Kind    Kind     `yaml:"kind,omitempty"`
	Columns []string `yaml:"columns,omitempty"`
}

// RuleInstance is one rule bound to one concrete target column (or fixed
// column group for compound rules). Instances are immutable after load.
type RuleInstance struct {
	ID    string
	Kind  Kind
	Suite string

	// Columns holds every participant column in declared order. Target is
	// the canonical identifier target (order-independent for compounds).
	Columns []string
	Target  string

	// SourceColumn is the column whose actual value is shown when a
	// failure for this instance is reported.
	SourceColumn string

	ValueSet []interface{}
	Pattern  string

	ColumnA string
	ColumnB string
	OrEqual bool

	Length    *int
	MinLength *int
	MaxLength *int
	MinValue  *float64
	MaxValue  *float64

	ColumnList []string

	ConditionColumn string
	ConditionValues []interface{}
	RequiredColumn  string
	TargetColumn    string
	AllowedValues   []interface{}

	Reference *Reference
}

// DerivedStatus is a named OR combination over rule instances, fully
// resolved to member rule IDs.
type DerivedStatus struct {
	Name      string
	Alias     string
	MemberIDs []string
}

// Suite is a fully loaded, normalized validation suite. Treated as
// immutable after load; safe for concurrent reads.
type Suite struct {
	Name        string
	Description string
	Table       string
	IndexColumn string
	Filters     map[string]interface{}
	Distinct    bool
	Rules       []RuleInstance
	Derived     []DerivedStatus
}

// RuleByID returns the instance carrying the given rule ID.
func (s *Suite) RuleByID(id string) (*RuleInstance, bool) {
	for i := range s.Rules {
		if s.Rules[i].ID == id {
			return &s.Rules[i], true
		}
	}
	return nil, false
}

// ValidatedColumns returns the distinct set of columns referenced by any
// rule instance, sorted for reproducible query synthesis.
func (s *Suite) ValidatedColumns() []string {
	seen := map[string]bool{}
	var cols []string
	for _, r := range s.Rules {
		for _, c := range r.Columns {
			if c != "" && !seen[c] {
				seen[c] = true
				cols = append(cols, c)
			}
		}
	}
	sortStrings(cols)
	return cols
}
