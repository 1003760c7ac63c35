package catalog

import (
	"crypto/sha256"
	"encoding/hex"
	"sort"
	"strings"
)

const (
	idPrefix    = "id"
	idHexLength = 10
)

// RuleID derives the deterministic identifier for a rule instance from the
// suite name, rule kind, and canonical target. It depends only on content,
// never on position, so reordering or editing unrelated rules leaves
// existing identifiers untouched.
func RuleID(suite string, kind Kind, target string) string {
	sum := sha256.Sum256([]byte(suite + "|" + string(kind) + "|" + target))
	return idPrefix + "_" + hex.EncodeToString(sum[:])[:idHexLength]
}

// CanonicalTarget joins the participant columns of a rule into the target
// string used for identifier derivation. Column order is normalized so the
// identifier is stable regardless of how the columns were listed.
func CanonicalTarget(columns ...string) string {
	if len(columns) == 1 {
		return columns[0]
	}
	sorted := make([]string, len(columns))
	copy(sorted, columns)
	sort.Strings(sorted)
	return strings.Join(sorted, "|")
}

func sortStrings(s []string) {
	sort.Strings(s)
}
