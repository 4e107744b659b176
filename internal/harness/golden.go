package harness

import (
	"fmt"
	"strings"
	"testing"

	"github.com/sebdah/goldie/v2"
)

// AssertTranslationGolden renders every query translation in the scenario
// and compares the rendering against a golden file stored in
// testdata/golden/{scenario.Name}.golden.
//
// To regenerate golden files, run:
//
//	go test ./internal/harness -update
//
// Golden files pin the translation of each shorthand form, so a grammar
// change that silently reroutes an input shows up as a diff.
func AssertTranslationGolden(t *testing.T, scenario *Scenario, result *Result) {
	t.Helper()

	var b strings.Builder
	for _, o := range result.Outcomes {
		if o.ErrorCode != "" {
			fmt.Fprintf(&b, "%s\n  => error %s\n", o.Input, o.ErrorCode)
			continue
		}
		fmt.Fprintf(&b, "%s\n  => %s\n", o.Input, o.Predicate)
	}

	g := goldie.New(t,
		goldie.WithFixtureDir("testdata/golden"),
		goldie.WithNameSuffix(".golden"),
	)
	g.Assert(t, scenario.Name, []byte(b.String()))
}
