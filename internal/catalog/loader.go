package catalog

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"gopkg.in/yaml.v3"

	"snowcheck/pkg/errors"
)

// DefaultIndexColumn is the root entity key assumed when a suite does not
// name one.
const DefaultIndexColumn = "MATERIAL_NUMBER"

// Load parses a suite document and expands it into a normalized Suite. It
// is a pure function of the document: no side effects, and identifiers are
// regenerated on every call rather than read from anywhere.
func Load(doc []byte) (*Suite, error) {
	var d Document
	if err := yaml.Unmarshal(doc, &d); err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeSuiteParse, "Failed to parse suite document")
	}
	return build(&d)
}

// LoadFile reads and loads a suite document from disk.
func LoadFile(path string) (*Suite, error) {
	data, err := os.ReadFile(path) // #nosec G304 - path comes from suite discovery or the CLI user
	if err != nil {
		return nil, errors.Wrap(err, errors.ErrCodeSuiteNotFound,
			fmt.Sprintf("Failed to read suite document %s", path))
	}
	return Load(data)
}

func build(d *Document) (*Suite, error) {
	name := strings.TrimSpace(d.Metadata.SuiteName)
	if name == "" {
		return nil, errors.SchemaError(errors.ErrCodeSuiteNameMissing,
			"suite document has no metadata.suite_name", "", "")
	}
	if len(d.Rules) == 0 {
		return nil, errors.SchemaError(errors.ErrCodeSuiteEmpty,
			fmt.Sprintf("suite %q has an empty rules list", name), "", "")
	}

	indexColumn := d.Metadata.IndexColumn
	if indexColumn == "" {
		indexColumn = DefaultIndexColumn
	}

	suite := &Suite{
		Name:        name,
		Description: d.Metadata.Description,
		Table:       d.DataSource.Table,
		IndexColumn: indexColumn,
		Filters:     d.DataSource.Filters,
		Distinct:    d.DataSource.Distinct,
	}

	for i := range d.Rules {
		instances, err := expand(name, &d.Rules[i])
		if err != nil {
			return nil, err
		}
		suite.Rules = append(suite.Rules, instances...)
	}

	derived, err := resolveDerived(suite, d.Derived)
	if err != nil {
		return nil, err
	}
	suite.Derived = derived

	return suite, nil
}

// expand turns one descriptor into one RuleInstance per target column (one
// instance total for compound rules), validating the kind's required
// parameters along the way.
func expand(suite string, r *RuleDescriptor) ([]RuleInstance, error) {
	if !IsSupported(r.Kind) {
		return nil, errors.SchemaError(errors.ErrCodeUnknownRuleKind,
			fmt.Sprintf("suite %q references unsupported rule kind %q", suite, r.Kind),
			string(r.Kind), strings.Join(r.targets(), ","))
	}

	switch r.Kind {
	case KindNotNull, KindRegexMatch, KindRegexNotMatch, KindLengthEqual,
		KindLengthBetween, KindValueBetween, KindUnique:
		return expandPerColumn(suite, r)
	case KindValueInSet, KindValueNotInSet, KindReferenceLookup:
		return expandSingleColumn(suite, r)
	case KindPairEqual, KindPairGreaterThan:
		return expandPair(suite, r)
	case KindCompoundUnique:
		return expandCompound(suite, r)
	case KindConditionalRequired, KindConditionalValueInSet:
		return expandConditional(suite, r)
	}

	// Unreachable while the kind switch above covers supportedKinds.
	return nil, errors.New(errors.ErrCodeSynthesisInternal,
		fmt.Sprintf("rule kind %q passed validation but has no expansion", r.Kind))
}

func expandPerColumn(suite string, r *RuleDescriptor) ([]RuleInstance, error) {
	cols := r.targets()
	if len(cols) == 0 {
		return nil, missingParam(suite, r, "column or columns")
	}

	switch r.Kind {
	case KindRegexMatch, KindRegexNotMatch:
		if r.Pattern == "" {
			return nil, missingParam(suite, r, "pattern")
		}
	case KindLengthEqual:
		if r.Length == nil {
			return nil, missingParam(suite, r, "length")
		}
	case KindLengthBetween:
		if r.MinLength == nil && r.MaxLength == nil {
			return nil, missingParam(suite, r, "min_length or max_length")
		}
	case KindValueBetween:
		if r.MinValue == nil && r.MaxValue == nil {
			return nil, missingParam(suite, r, "min_value or max_value")
		}
	}

	var instances []RuleInstance
	for _, col := range cols {
		inst := newInstance(suite, r, col, []string{col})
		inst.SourceColumn = col
		instances = append(instances, inst)
	}
	return instances, nil
}

func expandSingleColumn(suite string, r *RuleDescriptor) ([]RuleInstance, error) {
	cols := r.targets()
	if len(cols) == 0 {
		return nil, missingParam(suite, r, "column")
	}

	switch r.Kind {
	case KindValueInSet, KindValueNotInSet:
		if len(r.ValueSet) == 0 {
			return nil, missingParam(suite, r, "value_set")
		}
	case KindReferenceLookup:
		if r.Reference == nil {
			return nil, missingParam(suite, r, "reference")
		}
		if len(r.Reference.Values) == 0 && (r.Reference.Table == "" || r.Reference.Column == "") {
			return nil, missingParam(suite, r, "reference.values or reference.table/column")
		}
	}

	var instances []RuleInstance
	for _, col := range cols {
		inst := newInstance(suite, r, col, []string{col})
		inst.SourceColumn = col
		instances = append(instances, inst)
	}
	return instances, nil
}

func expandPair(suite string, r *RuleDescriptor) ([]RuleInstance, error) {
	if r.ColumnA == "" || r.ColumnB == "" {
		return nil, missingParam(suite, r, "column_a and column_b")
	}
	target := CanonicalTarget(r.ColumnA, r.ColumnB)
	inst := newInstance(suite, r, target, []string{r.ColumnA, r.ColumnB})
	inst.SourceColumn = r.ColumnA
	return []RuleInstance{inst}, nil
}

func expandCompound(suite string, r *RuleDescriptor) ([]RuleInstance, error) {
	if len(r.ColumnList) < 2 {
		return nil, missingParam(suite, r, "column_list with at least two columns")
	}
	target := CanonicalTarget(r.ColumnList...)
	inst := newInstance(suite, r, target, append([]string(nil), r.ColumnList...))
	inst.SourceColumn = r.ColumnList[0]
	return []RuleInstance{inst}, nil
}

func expandConditional(suite string, r *RuleDescriptor) ([]RuleInstance, error) {
	if r.ConditionColumn == "" || len(r.ConditionValues) == 0 {
		return nil, missingParam(suite, r, "condition_column and condition_values")
	}

	var dependent string
	switch r.Kind {
	case KindConditionalRequired:
		if r.RequiredColumn == "" {
			return nil, missingParam(suite, r, "required_column")
		}
		dependent = r.RequiredColumn
	case KindConditionalValueInSet:
		if r.TargetColumn == "" {
			return nil, missingParam(suite, r, "target_column")
		}
		if len(r.AllowedValues) == 0 {
			return nil, missingParam(suite, r, "allowed_values")
		}
		dependent = r.TargetColumn
	}

	target := CanonicalTarget(r.ConditionColumn, dependent)
	inst := newInstance(suite, r, target, []string{r.ConditionColumn, dependent})
	inst.SourceColumn = dependent
	return []RuleInstance{inst}, nil
}

func newInstance(suite string, r *RuleDescriptor, target string, columns []string) RuleInstance {
	return RuleInstance{
		ID:              RuleID(suite, r.Kind, target),
		Kind:            r.Kind,
		Suite:           suite,
		Columns:         columns,
		Target:          target,
		ValueSet:        r.ValueSet,
		Pattern:         r.Pattern,
		ColumnA:         r.ColumnA,
		ColumnB:         r.ColumnB,
		OrEqual:         r.OrEqual,
		Length:          r.Length,
		MinLength:       r.MinLength,
		MaxLength:       r.MaxLength,
		MinValue:        r.MinValue,
		MaxValue:        r.MaxValue,
		ColumnList:      r.ColumnList,
		ConditionColumn: r.ConditionColumn,
		ConditionValues: r.ConditionValues,
		RequiredColumn:  r.RequiredColumn,
		TargetColumn:    r.TargetColumn,
		AllowedValues:   r.AllowedValues,
		Reference:       r.Reference,
	}
}

func missingParam(suite string, r *RuleDescriptor, param string) error {
	return errors.SchemaError(errors.ErrCodeRuleParamMissing,
		fmt.Sprintf("suite %q: rule kind %q is missing required parameter %s", suite, r.Kind, param),
		string(r.Kind), strings.Join(r.targets(), ","))
}

func (r *RuleDescriptor) targets() []string {
	if len(r.Columns) > 0 {
		return r.Columns
	}
	if r.Column != "" {
		return []string{r.Column}
	}
	return nil
}

// resolveDerived maps each derived status to its member rule IDs. Explicit
// IDs that resolve to nothing are a schema error, never silently dropped.
func resolveDerived(suite *Suite, configs []DerivedConfig) ([]DerivedStatus, error) {
	known := map[string]bool{}
	for _, r := range suite.Rules {
		known[r.ID] = true
	}

	var out []DerivedStatus
	for _, c := range configs {
		if strings.TrimSpace(c.Name) == "" {
			return nil, errors.SchemaError(errors.ErrCodeDerivedUnresolved,
				fmt.Sprintf("suite %q: derived status without a name", suite.Name), "", "")
		}

		var members []string
		switch {
		case len(c.RuleIDs) > 0:
			for _, id := range c.RuleIDs {
				if !known[id] {
					return nil, errors.SchemaError(errors.ErrCodeDerivedUnresolved,
						fmt.Sprintf("suite %q: derived status %q references unknown rule id %q",
							suite.Name, c.Name, id), "", "")
				}
				members = append(members, id)
			}
		case len(c.Columns) > 0:
			filter := map[string]bool{}
			for _, col := range c.Columns {
				filter[col] = true
			}
			for _, r := range suite.Rules {
				if c.Kind != "" && r.Kind != c.Kind {
					continue
				}
				for _, col := range r.Columns {
					if filter[col] {
						members = append(members, r.ID)
						break
					}
				}
			}
			if len(members) == 0 {
				return nil, errors.SchemaError(errors.ErrCodeDerivedUnresolved,
					fmt.Sprintf("suite %q: derived status %q filter matches no rule instances",
						suite.Name, c.Name), string(c.Kind), strings.Join(c.Columns, ","))
			}
		default:
			return nil, errors.SchemaError(errors.ErrCodeDerivedUnresolved,
				fmt.Sprintf("suite %q: derived status %q has neither rule_ids nor a column filter",
					suite.Name, c.Name), "", "")
		}

		out = append(out, DerivedStatus{
			Name:      c.Name,
			Alias:     DerivedAlias(c.Name),
			MemberIDs: members,
		})
	}

	return out, nil
}

// DerivedAlias converts a derived status name into a SQL-safe column alias.
func DerivedAlias(name string) string {
	var b strings.Builder
	b.WriteString("ds_")
	for _, r := range strings.ToLower(name) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
		default:
			b.WriteRune('_')
		}
	}
	return b.String()
}

// Entry is one row of the rule catalog: the regenerable identifier plus the
// metadata needed to interpret it.
type Entry struct {
	RuleID  string
	Kind    Kind
	Target  string
	Columns []string
	Suite   string
}

// Catalog lists every rule instance's identifier metadata for a suite. IDs
// are content-derived, so the catalog is regenerable byte-for-byte from the
// document with no persisted side table.
func Catalog(s *Suite) []Entry {
	entries := make([]Entry, 0, len(s.Rules))
	for _, r := range s.Rules {
		entries = append(entries, Entry{
			RuleID:  r.ID,
			Kind:    r.Kind,
			Target:  r.Target,
			Columns: r.Columns,
			Suite:   s.Name,
		})
	}
	return entries
}

// Lookup resolves a rule ID back to its catalog entry by regenerating IDs
// from the suite.
func Lookup(s *Suite, ruleID string) (Entry, bool) {
	for _, e := range Catalog(s) {
		if e.RuleID == ruleID {
			return e, true
		}
	}
	return Entry{}, false
}

// DiscoverSuites lists suite documents (*.yaml, *.yml) under dir, sorted by
// file name.
func DiscoverSuites(dir string) ([]string, error) {
	var paths []string
	for _, pattern := range []string{"*.yaml", "*.yml"} {
		matches, err := filepath.Glob(filepath.Join(dir, pattern))
		if err != nil {
			return nil, errors.Wrap(err, errors.ErrCodeSuiteNotFound,
				fmt.Sprintf("Failed to list suite documents in %s", dir))
		}
		paths = append(paths, matches...)
	}
	sort.Strings(paths)
	return paths, nil
}
