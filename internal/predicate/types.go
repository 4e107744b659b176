package predicate

import (
	"fmt"
	"strings"
)

// Predicate represents one structured filter over the flattened record set.
//
// This is a sealed interface - only types in this package implement it.
type Predicate interface {
	predicateNode() // Marker method - seals interface to this package
}

// CompareOp is a numeric comparison operator.
type CompareOp string

const (
	OpGE CompareOp = ">="
	OpGT CompareOp = ">"
	OpLE CompareOp = "<="
	OpLT CompareOp = "<"
)

// ParseCompareOp matches a comparison operator at the start of s and returns
// the operator plus the remainder. Two-character operators are tried first
// so that ">=" never parses as ">" followed by "=5".
func ParseCompareOp(s string) (CompareOp, string, bool) {
	for _, op := range []CompareOp{OpGE, OpLE, OpGT, OpLT} {
		if strings.HasPrefix(s, string(op)) {
			return op, s[len(op):], true
		}
	}
	return "", s, false
}

// Contains matches rows where a text field contains a term,
// case-insensitively. The term is literal data, never statement text.
type Contains struct {
	Field string
	Term  string
}

func (Contains) predicateNode() {}

// Compare matches rows where a numeric field compares against a literal.
type Compare struct {
	Field string
	Op    CompareOp
	Value float64
}

func (Compare) predicateNode() {}

// Variant selects which external-ID presence HasExternalID tests.
type Variant string

const (
	VariantSFDC    Variant = "sfdc"
	VariantHubSpot Variant = "hubspot"
	VariantEither  Variant = "either"
)

// HasExternalID matches rows that carry an external CRM ID.
type HasExternalID struct {
	Variant Variant
}

func (HasExternalID) predicateNode() {}

// And matches rows satisfying every sub-predicate. An empty conjunction is
// vacuously true.
type And struct {
	Predicates []Predicate
}

func (And) predicateNode() {}

// FullText matches rows whose document contains all terms of the query.
type FullText struct {
	Query string
}

func (FullText) predicateNode() {}

// String renders a predicate for diagnostics and error context. It is NOT
// executable text; the SQL serializer binds values separately.
func String(p Predicate) string {
	switch pred := p.(type) {
	case Contains:
		return fmt.Sprintf("contains(%s, %q)", pred.Field, pred.Term)
	case *Contains:
		return String(*pred)
	case Compare:
		return fmt.Sprintf("compare(%s %s %g)", pred.Field, pred.Op, pred.Value)
	case *Compare:
		return String(*pred)
	case HasExternalID:
		return fmt.Sprintf("has_external_id(%s)", pred.Variant)
	case *HasExternalID:
		return String(*pred)
	case And:
		parts := make([]string, len(pred.Predicates))
		for i, sub := range pred.Predicates {
			parts[i] = String(sub)
		}
		return "and(" + strings.Join(parts, ", ") + ")"
	case *And:
		return String(*pred)
	case FullText:
		return fmt.Sprintf("fulltext(%q)", pred.Query)
	case *FullText:
		return String(*pred)
	case nil:
		return "true"
	default:
		return fmt.Sprintf("unknown(%T)", p)
	}
}
