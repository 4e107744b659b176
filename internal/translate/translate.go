// Package translate turns shorthand query tokens into structured predicates.
//
// The grammar is evaluated by fixed priority, first match wins, with
// case-insensitive prefix matching:
//
//  1. title:<term>                      substring match on title
//  2. emails:<term>                     substring match on emails
//  3. range:<field> <op><value>         numeric comparison
//  4. filter:<email> <tech> <popExpr>   compound emails+tech+population
//  5. crm:<a|b|all>                     external-ID presence
//  6. <field>:<term>                    substring match, field validated
//  7. anything without a colon          full-text match on document
//
// Term values are carried as literal data inside predicates; translation
// never produces statement text.
package translate

import (
	"regexp"
	"strconv"
	"strings"

	"github.com/kreespyn/flatdata/internal/predicate"
	"github.com/kreespyn/flatdata/internal/record"
)

// unsignedDecimal matches range/filter comparison values.
var unsignedDecimal = regexp.MustCompile(`^\d+(\.\d+)?$`)

// Translate parses one shorthand token into a predicate, or returns a
// *TranslationError for malformed input.
func Translate(input string) (predicate.Predicate, error) {
	trimmed := strings.TrimSpace(input)
	if trimmed == "" {
		return nil, newError(ErrCodeEmptyQuery, input, "empty query")
	}
	lower := strings.ToLower(trimmed)

	switch {
	case strings.HasPrefix(lower, "title:"):
		return translateContains("title", trimmed[len("title:"):]), nil
	case strings.HasPrefix(lower, "emails:"):
		return translateContains("emails", trimmed[len("emails:"):]), nil
	case strings.HasPrefix(lower, "range:"):
		return translateRange(trimmed, trimmed[len("range:"):])
	case strings.HasPrefix(lower, "filter:"):
		return translateFilter(trimmed, trimmed[len("filter:"):])
	case strings.HasPrefix(lower, "crm:"):
		return translateCRM(trimmed, trimmed[len("crm:"):])
	case strings.Contains(trimmed, ":"):
		return translateGeneric(trimmed)
	default:
		return predicate.FullText{Query: trimmed}, nil
	}
}

func translateContains(field, rawTerm string) predicate.Predicate {
	return predicate.Contains{Field: field, Term: strings.TrimSpace(rawTerm)}
}

// translateRange handles both "range:<field> <op><value>" and the spaced
// "range:<field> <op> <value>" form. Field, operator, and value are all
// validated; anything else is a structured error.
func translateRange(input, rest string) (predicate.Predicate, error) {
	parts := strings.Fields(rest)

	var field, opAndValue string
	switch len(parts) {
	case 2:
		field, opAndValue = parts[0], parts[1]
	case 3:
		field, opAndValue = parts[0], parts[1]+parts[2]
	default:
		return nil, newError(ErrCodeInvalidRange, input,
			"range wants <field> <op><value>, got %d tokens", len(parts))
	}

	field = strings.ToLower(field)
	if !record.IsFlattenedColumn(field) {
		return nil, newError(ErrCodeUnknownField, input, "unknown field %q", field)
	}

	op, rawValue, ok := predicate.ParseCompareOp(opAndValue)
	if !ok {
		return nil, newError(ErrCodeInvalidRange, input,
			"comparison must start with one of >=, >, <=, <")
	}
	value, err := parseUnsignedDecimal(rawValue)
	if err != nil {
		return nil, newError(ErrCodeInvalidRange, input, "bad comparison value %q", rawValue)
	}

	return predicate.Compare{Field: field, Op: op, Value: value}, nil
}

// translateFilter handles "filter:<emailTerm> <techTerm> <popExpr>" with
// exactly three space-separated tokens.
func translateFilter(input, rest string) (predicate.Predicate, error) {
	parts := strings.Fields(rest)
	if len(parts) != 3 {
		return nil, newError(ErrCodeInvalidFilter, input,
			"filter wants <emailTerm> <techTerm> <popExpr>, got %d tokens", len(parts))
	}
	emailTerm, techTerm, popExpr := parts[0], parts[1], parts[2]

	op, rawValue, ok := predicate.ParseCompareOp(popExpr)
	if !ok {
		return nil, newError(ErrCodeInvalidFilter, input,
			"population expression must start with one of >=, >, <=, <")
	}
	value, err := parseUnsignedDecimal(rawValue)
	if err != nil {
		return nil, newError(ErrCodeInvalidFilter, input, "bad population value %q", rawValue)
	}

	return predicate.And{Predicates: []predicate.Predicate{
		predicate.Contains{Field: "emails", Term: emailTerm},
		predicate.Contains{Field: "tech_names", Term: techTerm},
		predicate.Compare{Field: "pop_estimate_2022", Op: op, Value: value},
	}}, nil
}

func translateCRM(input, rest string) (predicate.Predicate, error) {
	switch strings.ToLower(strings.TrimSpace(rest)) {
	case "a":
		return predicate.HasExternalID{Variant: predicate.VariantSFDC}, nil
	case "b":
		return predicate.HasExternalID{Variant: predicate.VariantHubSpot}, nil
	case "all":
		return predicate.HasExternalID{Variant: predicate.VariantEither}, nil
	default:
		return nil, newError(ErrCodeInvalidCRM, input,
			"crm parameter must be a, b, or all")
	}
}

// translateGeneric handles the "<field>:<term>" fallback. Unlike the other
// forms the field name is caller-supplied, so it is validated against the
// flattened_data schema before a predicate is built.
func translateGeneric(input string) (predicate.Predicate, error) {
	field, term, _ := strings.Cut(input, ":")
	field = strings.ToLower(strings.TrimSpace(field))
	if !record.IsFlattenedColumn(field) {
		return nil, newError(ErrCodeUnknownField, input, "unknown field %q", field)
	}
	return predicate.Contains{Field: field, Term: strings.TrimSpace(term)}, nil
}

func parseUnsignedDecimal(s string) (float64, error) {
	if !unsignedDecimal.MatchString(s) {
		return 0, strconv.ErrSyntax
	}
	return strconv.ParseFloat(s, 64)
}
