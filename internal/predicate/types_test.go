package predicate

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestParseCompareOp_TwoCharOperatorsFirst(t *testing.T) {
	tests := []struct {
		in     string
		op     CompareOp
		rest   string
		wantOK bool
	}{
		{">=500", OpGE, "500", true},
		{"<=12.5", OpLE, "12.5", true},
		{">100", OpGT, "100", true},
		{"<3", OpLT, "3", true},
		{"=5", "", "=5", false},
		{"500", "", "500", false},
		{"", "", "", false},
	}

	for _, tt := range tests {
		op, rest, ok := ParseCompareOp(tt.in)
		assert.Equal(t, tt.wantOK, ok, tt.in)
		assert.Equal(t, tt.op, op, tt.in)
		assert.Equal(t, tt.rest, rest, tt.in)
	}
}

func TestString_Renderings(t *testing.T) {
	tests := []struct {
		pred Predicate
		want string
	}{
		{Contains{Field: "title", Term: "engineer"}, `contains(title, "engineer")`},
		{Compare{Field: "pop_estimate_2022", Op: OpGT, Value: 100}, "compare(pop_estimate_2022 > 100)"},
		{HasExternalID{Variant: VariantEither}, "has_external_id(either)"},
		{FullText{Query: "senior react"}, `fulltext("senior react")`},
		{nil, "true"},
		{
			And{Predicates: []Predicate{
				Contains{Field: "emails", Term: "gmail"},
				Compare{Field: "pop_estimate_2022", Op: OpGE, Value: 500},
			}},
			`and(contains(emails, "gmail"), compare(pop_estimate_2022 >= 500))`,
		},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, String(tt.pred))
	}
}

func TestString_PointerFormsMatchValueForms(t *testing.T) {
	c := Contains{Field: "title", Term: "x"}
	assert.Equal(t, String(c), String(&c))
}
