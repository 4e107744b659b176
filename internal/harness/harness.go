package harness

import (
	"context"
	"errors"
	"fmt"

	"github.com/kreespyn/flatdata/internal/materialize"
	"github.com/kreespyn/flatdata/internal/merge"
	"github.com/kreespyn/flatdata/internal/predicate"
	"github.com/kreespyn/flatdata/internal/query"
	"github.com/kreespyn/flatdata/internal/record"
	"github.com/kreespyn/flatdata/internal/store"
	"github.com/kreespyn/flatdata/internal/tabular"
	"github.com/kreespyn/flatdata/internal/translate"
)

// QueryOutcome captures what one scenario query produced.
type QueryOutcome struct {
	Input      string
	Predicate  string // rendered predicate, or "" when translation failed
	ErrorCode  string // translation error code, or ""
	Total      int
	ContactIDs []int64
}

// Result is the outcome of running a scenario.
type Result struct {
	Outcomes []QueryOutcome

	// Failures lists expectation mismatches in scenario order. An empty
	// list means the scenario passed.
	Failures []string
}

// Run executes a scenario end to end on an in-memory SQLite database:
// normalize, merge, materialize, then each query with its expectation
// checks. Infrastructure errors abort the run; expectation mismatches
// accumulate in Result.Failures.
func Run(ctx context.Context, scenario *Scenario) (*Result, error) {
	contacts := tabular.NormalizeContacts(sourceTable(scenario, "contacts"))
	places := tabular.Normalize(sourceTable(scenario, "places"))
	tags := tabular.Normalize(sourceTable(scenario, "techstacks"))
	sfdc := tabular.Normalize(sourceTable(scenario, "sfdc"))
	hubspot := tabular.Normalize(sourceTable(scenario, "hubspot"))

	merged, err := merge.Merge(
		record.DecodeContacts(contacts),
		record.DecodePlaces(places),
		record.DecodeTags(tags),
		record.DecodeMappings(sfdc, "sfdc_id"),
		record.DecodeMappings(hubspot, "hubspot_id"),
	)
	if err != nil {
		return nil, fmt.Errorf("scenario %s: merge: %w", scenario.Name, err)
	}

	backend, err := store.OpenSQLite(":memory:")
	if err != nil {
		return nil, fmt.Errorf("scenario %s: open store: %w", scenario.Name, err)
	}
	defer backend.Close()

	if err := materialize.New(backend).Rebuild(ctx, materialize.Flatten(merged)); err != nil {
		return nil, fmt.Errorf("scenario %s: materialize: %w", scenario.Name, err)
	}

	exec := query.NewExecutor(backend)
	result := &Result{}
	for i, step := range scenario.Queries {
		outcome, failure, err := runStep(ctx, exec, step)
		if err != nil {
			return nil, fmt.Errorf("scenario %s query %d: %w", scenario.Name, i, err)
		}
		result.Outcomes = append(result.Outcomes, outcome)
		if failure != "" {
			result.Failures = append(result.Failures,
				fmt.Sprintf("query %d (%s): %s", i, step.Input, failure))
		}
	}
	return result, nil
}

func runStep(ctx context.Context, exec *query.Executor, step QueryStep) (QueryOutcome, string, error) {
	outcome := QueryOutcome{Input: step.Input}

	pred, err := translate.Translate(step.Input)
	if err != nil {
		var te *translate.TranslationError
		if !errors.As(err, &te) {
			return outcome, "", fmt.Errorf("translate: %w", err)
		}
		outcome.ErrorCode = string(te.Code)
		if step.ExpectError == "" {
			return outcome, fmt.Sprintf("unexpected translation error %s", te.Code), nil
		}
		if string(te.Code) != step.ExpectError {
			return outcome, fmt.Sprintf("translation error %s, want %s", te.Code, step.ExpectError), nil
		}
		return outcome, "", nil
	}
	outcome.Predicate = predicate.String(pred)
	if step.ExpectError != "" {
		return outcome, fmt.Sprintf("translated to %s, want error %s", outcome.Predicate, step.ExpectError), nil
	}

	res, err := exec.Execute(ctx, pred)
	if err != nil {
		return outcome, "", fmt.Errorf("execute: %w", err)
	}
	outcome.Total = res.Total
	for _, row := range res.Rows {
		outcome.ContactIDs = append(outcome.ContactIDs, row.ContactID)
	}

	if step.Expect == nil {
		return outcome, "", nil
	}
	if res.Total != step.Expect.Total {
		return outcome, fmt.Sprintf("total %d, want %d", res.Total, step.Expect.Total), nil
	}
	if step.Expect.ContactIDs != nil && !equalIDs(outcome.ContactIDs, step.Expect.ContactIDs) {
		return outcome, fmt.Sprintf("contact ids %v, want %v", outcome.ContactIDs, step.Expect.ContactIDs), nil
	}
	return outcome, "", nil
}

func sourceTable(scenario *Scenario, name string) tabular.Table {
	src, ok := scenario.Sources[name]
	if !ok {
		return tabular.Table{}
	}
	return tabular.Table{Columns: src.Columns, Rows: src.Rows}
}

func equalIDs(got, want []int64) bool {
	if len(got) != len(want) {
		return false
	}
	for i := range got {
		if got[i] != want[i] {
			return false
		}
	}
	return true
}
