package cli

import (
	"bufio"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/spf13/cobra"

	"github.com/kreespyn/flatdata/internal/pipeline"
	"github.com/kreespyn/flatdata/internal/predicate"
	"github.com/kreespyn/flatdata/internal/query"
	"github.com/kreespyn/flatdata/internal/record"
	"github.com/kreespyn/flatdata/internal/translate"
)

// QueryOptions holds flags for the query command.
type QueryOptions struct {
	*RootOptions
	SkipPipeline bool
}

// NewQueryCommand creates the query command.
func NewQueryCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &QueryOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "query [shorthand]",
		Short: "Query the flattened record set with shorthand syntax",
		Long: `Translate a shorthand query into a safe predicate and run it against
flattened_data. With an argument the query runs once; without one an
interactive shell starts.

Shorthand forms, tried in order:
  title: engineer                substring match on title
  emails: @example.com           substring match on emails
  range: pop_estimate_2022 >100  numeric comparison
  filter: gmail react >=500      emails + tech + population combined
  crm: a | b | all               has an external CRM id
  field: term                    substring match on any column
  anything else                  full-text search over the document

By default the pipeline runs first so queries see fresh data; pass
--skip-pipeline to query the existing set.

Example:
  flatdata query "title: engineer"
  flatdata query --skip-pipeline`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runQuery(opts, args, cmd)
		},
	}

	cmd.Flags().BoolVar(&opts.SkipPipeline, "skip-pipeline", false, "query the existing record set without re-running the pipeline")

	return cmd
}

func runQuery(opts *QueryOptions, args []string, cmd *cobra.Command) error {
	cfg, err := loadConfig(opts.RootOptions)
	if err != nil {
		return err
	}

	backend, err := openBackend(cfg)
	if err != nil {
		return err
	}
	defer func() {
		if closeErr := backend.Close(); closeErr != nil {
			slog.Error("error closing database", "error", closeErr)
		}
	}()

	if !opts.SkipPipeline {
		if _, err := pipeline.Run(cmd.Context(), cfg, backend); err != nil {
			return WrapExitError(ExitFailure, "pipeline run failed", err)
		}
	}

	exec := query.NewExecutor(backend)
	if cfg.Query.PreviewLimit > 0 {
		exec.PreviewLimit = cfg.Query.PreviewLimit
	}
	exec.Timeout = cfg.QueryTimeout()

	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	if len(args) == 1 {
		return runOne(cmd, exec, formatter, args[0])
	}
	return runShell(cmd, exec, formatter)
}

// runOne translates and executes a single shorthand query.
func runOne(cmd *cobra.Command, exec *query.Executor, formatter *OutputFormatter, input string) error {
	pred, err := translate.Translate(input)
	if err != nil {
		var te *translate.TranslationError
		if errors.As(err, &te) {
			formatter.Error(string(te.Code), te.Message, te.Input)
			return NewExitError(ExitFailure, te.Message)
		}
		return WrapExitError(ExitFailure, "translation failed", err)
	}
	formatter.VerboseLog("predicate: %s", predicate.String(pred))

	result, err := exec.Execute(cmd.Context(), pred)
	if err != nil {
		return WrapExitError(ExitFailure, "query failed", err)
	}
	return writeResult(formatter, result)
}

// runShell is the interactive loop. Translation and execution errors are
// reported and the loop continues; only EOF, "exit", or "quit" end it.
func runShell(cmd *cobra.Command, exec *query.Executor, formatter *OutputFormatter) error {
	out := cmd.OutOrStdout()
	fmt.Fprintln(out, "flatdata query shell. Type a shorthand query, or 'exit' to leave.")

	scanner := bufio.NewScanner(cmd.InOrStdin())
	for {
		fmt.Fprint(out, "query> ")
		if !scanner.Scan() {
			fmt.Fprintln(out)
			break
		}
		line := strings.TrimSpace(scanner.Text())
		switch strings.ToLower(line) {
		case "":
			continue
		case "exit", "quit":
			return scanner.Err()
		}

		pred, err := translate.Translate(line)
		if err != nil {
			var te *translate.TranslationError
			if errors.As(err, &te) {
				formatter.Error(string(te.Code), te.Message, te.Input)
			} else {
				formatter.Error("TRANSLATE", err.Error(), nil)
			}
			continue
		}
		formatter.VerboseLog("predicate: %s", predicate.String(pred))

		result, err := exec.Execute(cmd.Context(), pred)
		if err != nil {
			formatter.Error("EXECUTE", err.Error(), nil)
			continue
		}
		if err := writeResult(formatter, result); err != nil {
			return err
		}
	}
	return scanner.Err()
}

// queryResponse is the JSON payload for one query result.
type queryResponse struct {
	Total int               `json:"total"`
	Shown int               `json:"shown"`
	Rows  []queryResponseRow `json:"rows"`
}

type queryResponseRow struct {
	ContactID   int64    `json:"contact_id"`
	Emails      string   `json:"emails"`
	Title       string   `json:"title"`
	DisplayName *string  `json:"display_name"`
	Population  *float64 `json:"pop_estimate_2022"`
	TechNames   string   `json:"tech_names"`
	SFDCID      *string  `json:"sfdc_id"`
	HubspotID   *string  `json:"hubspot_id"`
}

func writeResult(formatter *OutputFormatter, result query.Result) error {
	if formatter.Format == "json" {
		resp := queryResponse{Total: result.Total, Shown: len(result.Rows)}
		for _, r := range result.Rows {
			resp.Rows = append(resp.Rows, queryResponseRow{
				ContactID:   r.ContactID,
				Emails:      r.Emails,
				Title:       r.Title,
				DisplayName: r.DisplayName,
				Population:  r.PopEstimate2022,
				TechNames:   r.TechNames,
				SFDCID:      r.SFDCID,
				HubspotID:   r.HubspotID,
			})
		}
		return formatter.Success(resp)
	}

	w := formatter.Writer
	if result.Total == 0 {
		fmt.Fprintln(w, "No matches.")
		return nil
	}
	for _, r := range result.Rows {
		fmt.Fprintln(w, formatRow(r))
	}
	if result.Truncated() {
		fmt.Fprintf(w, "... showing %d of %d matches\n", len(result.Rows), result.Total)
	} else {
		fmt.Fprintf(w, "%d match(es)\n", result.Total)
	}
	return nil
}

func formatRow(r record.FlattenedRecord) string {
	var b strings.Builder
	fmt.Fprintf(&b, "#%d  %s  %q", r.ContactID, r.Emails, r.Title)
	if r.DisplayName != nil {
		fmt.Fprintf(&b, "  @ %s", *r.DisplayName)
	}
	if r.TechNames != "" {
		fmt.Fprintf(&b, "  [%s]", r.TechNames)
	}
	var crm []string
	if r.SFDCID != nil {
		crm = append(crm, "sfdc:"+*r.SFDCID)
	}
	if r.HubspotID != nil {
		crm = append(crm, "hubspot:"+*r.HubspotID)
	}
	if len(crm) > 0 {
		fmt.Fprintf(&b, "  {%s}", strings.Join(crm, " "))
	}
	return b.String()
}
