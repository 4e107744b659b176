// Package predsql compiles predicates to parameterized SQL for the storage
// backends.
//
// All values are bound as parameters, never interpolated into statement
// text. Every preview statement carries a deterministic ORDER BY.
package predsql

import (
	"fmt"
	"strings"

	"github.com/kreespyn/flatdata/internal/predicate"
	"github.com/kreespyn/flatdata/internal/record"
)

// Dialect selects backend-specific SQL forms (placeholders, full-text).
type Dialect string

const (
	DialectSQLite   Dialect = "sqlite"
	DialectPostgres Dialect = "postgres"
)

// Compiler compiles predicates against the flattened_data set for one
// dialect. The zero value is not usable; use NewCompiler.
type Compiler struct {
	dialect Dialect
}

// NewCompiler creates a compiler for the given dialect.
func NewCompiler(d Dialect) *Compiler {
	return &Compiler{dialect: d}
}

// PreviewSQL builds the bounded preview statement for a predicate.
// ORDER BY contact_id keeps previews deterministic across runs.
func (c *Compiler) PreviewSQL(p predicate.Predicate, limit int) (string, []any, error) {
	b := &builder{dialect: c.dialect}
	where, err := b.compile(p)
	if err != nil {
		return "", nil, err
	}
	sql := fmt.Sprintf("SELECT %s FROM %s WHERE %s ORDER BY contact_id ASC LIMIT %d",
		strings.Join(record.FlattenedColumns, ", "),
		record.FlattenedTable,
		where,
		limit)
	return sql, b.params, nil
}

// CountSQL builds the total-count statement for a predicate.
func (c *Compiler) CountSQL(p predicate.Predicate) (string, []any, error) {
	b := &builder{dialect: c.dialect}
	where, err := b.compile(p)
	if err != nil {
		return "", nil, err
	}
	sql := fmt.Sprintf("SELECT count(*) FROM %s WHERE %s", record.FlattenedTable, where)
	return sql, b.params, nil
}

// Compile returns the WHERE fragment and bound parameters for a predicate.
// Exposed for tests and diagnostics; Preview/CountSQL are the normal entry
// points.
func (c *Compiler) Compile(p predicate.Predicate) (string, []any, error) {
	b := &builder{dialect: c.dialect}
	where, err := b.compile(p)
	if err != nil {
		return "", nil, err
	}
	return where, b.params, nil
}

// builder accumulates parameters during one compilation so that Postgres
// placeholders number correctly across nested predicates.
type builder struct {
	dialect Dialect
	params  []any
}

// bind registers a parameter and returns its placeholder.
func (b *builder) bind(v any) string {
	b.params = append(b.params, v)
	if b.dialect == DialectPostgres {
		return fmt.Sprintf("$%d", len(b.params))
	}
	return "?"
}

func (b *builder) compile(p predicate.Predicate) (string, error) {
	switch pred := p.(type) {
	case predicate.Contains:
		return b.compileContains(pred)
	case *predicate.Contains:
		return b.compileContains(*pred)
	case predicate.Compare:
		return b.compileCompare(pred)
	case *predicate.Compare:
		return b.compileCompare(*pred)
	case predicate.HasExternalID:
		return b.compileHasExternalID(pred)
	case *predicate.HasExternalID:
		return b.compileHasExternalID(*pred)
	case predicate.And:
		return b.compileAnd(pred)
	case *predicate.And:
		return b.compileAnd(*pred)
	case predicate.FullText:
		return b.compileFullText(pred)
	case *predicate.FullText:
		return b.compileFullText(*pred)
	case nil:
		return "1 = 1", nil
	default:
		return "", fmt.Errorf("unsupported predicate type: %T", p)
	}
}

func (b *builder) compileContains(p predicate.Contains) (string, error) {
	if !record.IsFlattenedColumn(p.Field) {
		return "", fmt.Errorf("unknown field %q", p.Field)
	}
	term := "%" + escapeLike(strings.ToLower(p.Term)) + "%"
	return fmt.Sprintf(`lower(%s) LIKE %s ESCAPE '\'`, p.Field, b.bind(term)), nil
}

func (b *builder) compileCompare(p predicate.Compare) (string, error) {
	if !record.IsFlattenedColumn(p.Field) {
		return "", fmt.Errorf("unknown field %q", p.Field)
	}
	switch p.Op {
	case predicate.OpGE, predicate.OpGT, predicate.OpLE, predicate.OpLT:
	default:
		return "", fmt.Errorf("unknown comparison operator %q", p.Op)
	}
	return fmt.Sprintf("%s %s %s", p.Field, p.Op, b.bind(p.Value)), nil
}

func (b *builder) compileHasExternalID(p predicate.HasExternalID) (string, error) {
	switch p.Variant {
	case predicate.VariantSFDC:
		return "sfdc_id IS NOT NULL", nil
	case predicate.VariantHubSpot:
		return "hubspot_id IS NOT NULL", nil
	case predicate.VariantEither:
		return "(sfdc_id IS NOT NULL OR hubspot_id IS NOT NULL)", nil
	default:
		return "", fmt.Errorf("unknown external-id variant %q", p.Variant)
	}
}

func (b *builder) compileAnd(p predicate.And) (string, error) {
	if len(p.Predicates) == 0 {
		return "1 = 1", nil // vacuous truth
	}
	parts := make([]string, 0, len(p.Predicates))
	for _, sub := range p.Predicates {
		frag, err := b.compile(sub)
		if err != nil {
			return "", err
		}
		parts = append(parts, frag)
	}
	return strings.Join(parts, " AND "), nil
}

// compileFullText emits the dialect's "contains all terms" match.
//
// SQLite routes through the FTS5 shadow table; terms are quoted so FTS
// operators in user input stay literal, and the whole match expression is
// still a bound parameter. Postgres uses plainto_tsquery, which tokenizes
// and ANDs terms itself.
func (b *builder) compileFullText(p predicate.FullText) (string, error) {
	switch b.dialect {
	case DialectSQLite:
		match := ftsMatchExpr(p.Query)
		return fmt.Sprintf("rowid IN (SELECT rowid FROM %s WHERE %s MATCH %s)",
			record.FlattenedFTSTable, record.FlattenedFTSTable, b.bind(match)), nil
	case DialectPostgres:
		ph := b.bind(p.Query)
		return fmt.Sprintf("to_tsvector('english', document) @@ plainto_tsquery('english', %s)", ph), nil
	default:
		return "", fmt.Errorf("unknown dialect %q", b.dialect)
	}
}

// ftsMatchExpr converts free text into an FTS5 match expression: terms are
// case-folded, double-quote-escaped, and individually quoted.
func ftsMatchExpr(query string) string {
	terms := strings.Fields(strings.ToLower(query))
	quoted := make([]string, len(terms))
	for i, t := range terms {
		quoted[i] = `"` + strings.ReplaceAll(t, `"`, `""`) + `"`
	}
	return strings.Join(quoted, " ")
}

// escapeLike escapes LIKE wildcards in a literal term.
func escapeLike(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, "%", `\%`)
	s = strings.ReplaceAll(s, "_", `\_`)
	return s
}
