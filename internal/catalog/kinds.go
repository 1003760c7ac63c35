package catalog

// Kind identifies one of the supported validation rule kinds. The set is
// closed: documents referencing anything else are rejected at load time.
type Kind string

const (
	KindNotNull               Kind = "not_null"
	KindValueInSet            Kind = "value_in_set"
	KindValueNotInSet         Kind = "value_not_in_set"
	KindRegexMatch            Kind = "regex_match"
	KindRegexNotMatch         Kind = "regex_not_match"
	KindPairEqual             Kind = "pair_equal"
	KindPairGreaterThan       Kind = "pair_greater_than"
	KindLengthEqual           Kind = "length_equal"
	KindLengthBetween         Kind = "length_between"
	KindValueBetween          Kind = "value_between"
	KindUnique                Kind = "unique"
	KindCompoundUnique        Kind = "compound_unique"
	KindConditionalRequired   Kind = "conditional_required"
	KindConditionalValueInSet Kind = "conditional_value_in_set"
	KindReferenceLookup       Kind = "reference_lookup"
)

var supportedKinds = map[Kind]bool{
	KindNotNull:               true,
	KindValueInSet:            true,
	KindValueNotInSet:         true,
	KindRegexMatch:            true,
	KindRegexNotMatch:         true,
	KindPairEqual:             true,
	KindPairGreaterThan:       true,
	KindLengthEqual:           true,
	KindLengthBetween:         true,
	KindValueBetween:          true,
	KindUnique:                true,
	KindCompoundUnique:        true,
	KindConditionalRequired:   true,
	KindConditionalValueInSet: true,
	KindReferenceLookup:       true,
}

// IsSupported reports whether k is one of the closed set of rule kinds.
func IsSupported(k Kind) bool {
	return supportedKinds[k]
}
