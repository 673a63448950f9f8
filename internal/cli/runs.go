package cli

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"sort"
	"time"

	"github.com/spf13/cobra"

	"github.com/roach88/lawstack/internal/param"
	"github.com/roach88/lawstack/internal/store"
	"github.com/roach88/lawstack/internal/tables"
)

// RunsOptions holds flags for the runs command tree.
type RunsOptions struct {
	*RootOptions
	DBPath string
}

// runSummaryJSON is the machine-readable run summary.
type runSummaryJSON struct {
	ID               string   `json:"id"`
	CreatedAt        string   `json:"created_at"`
	Years            string   `json:"years"`
	CatalogueVersion string   `json:"catalogue_version"`
	Documents        []string `json:"documents"`
}

// NewRunsCommand creates the runs command with its list/show subcommands.
func NewRunsCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &RunsOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "runs",
		Short: "Inspect recorded resolution runs",
		Long: `Inspect the audit trail written by resolve --db.

Every recorded run keeps its chain's documents (content-addressed),
the horizon, the catalogue version, and every resolved value.

Examples:
  lawstack runs list --db runs.db
  lawstack runs show 0190c6b2-... --db runs.db`,
	}

	cmd.PersistentFlags().StringVar(&opts.DBPath, "db", "", "run store database (required)")
	_ = cmd.MarkPersistentFlagRequired("db")

	list := &cobra.Command{
		Use:           "list",
		Short:         "List recorded runs, newest first",
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRunsList(opts, cmd)
		},
	}

	show := &cobra.Command{
		Use:           "show <run-id>",
		Short:         "Show one run with its resolved values",
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runRunsShow(opts, args[0], cmd)
		},
	}

	cmd.AddCommand(list)
	cmd.AddCommand(show)

	return cmd
}

// openStore opens an existing run store. A missing file is a command
// error rather than an empty database: opening would create one and
// mask a mistyped path.
func openStore(formatter *OutputFormatter, path string) (*store.Store, error) {
	if _, err := os.Stat(path); err != nil {
		msg := fmt.Sprintf("database not found: %s", path)
		_ = formatter.Error(ErrCodeStore, msg, nil)
		return nil, NewExitError(ExitCommandError, msg)
	}
	st, err := store.Open(path)
	if err != nil {
		_ = formatter.Error(ErrCodeStore, err.Error(), nil)
		return nil, WrapExitError(ExitCommandError, "open database", err)
	}
	return st, nil
}

func runRunsList(opts *RunsOptions, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())

	st, err := openStore(formatter, opts.DBPath)
	if err != nil {
		return err
	}
	defer st.Close()

	runs, err := st.ListRuns(cmd.Context())
	if err != nil {
		_ = formatter.Error(ErrCodeStore, err.Error(), nil)
		return WrapExitError(ExitCommandError, "list runs", err)
	}

	if opts.Format == "json" {
		summaries := make([]runSummaryJSON, 0, len(runs))
		for _, r := range runs {
			summaries = append(summaries, summaryToJSON(r))
		}
		return formatter.Success(summaries)
	}

	w := formatter.Writer
	if len(runs) == 0 {
		fmt.Fprintln(w, "No runs recorded.")
		return nil
	}
	fmt.Fprintf(w, "%-36s  %-20s  %-9s  %-9s  DOCS\n", "ID", "CREATED", "YEARS", "CATALOGUE")
	for _, r := range runs {
		fmt.Fprintf(w, "%-36s  %-20s  %-9s  %-9s  %d\n",
			r.ID,
			r.CreatedAt.UTC().Format(time.RFC3339),
			r.Horizon,
			r.CatalogueVersion,
			len(r.Documents),
		)
	}
	return nil
}

func runRunsShow(opts *RunsOptions, id string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())

	st, err := openStore(formatter, opts.DBPath)
	if err != nil {
		return err
	}
	defer st.Close()

	rec, err := st.GetRun(cmd.Context(), id)
	if err != nil {
		msg := err.Error()
		if errors.Is(err, sql.ErrNoRows) {
			msg = fmt.Sprintf("run not found: %s", id)
		}
		_ = formatter.Error(ErrCodeStore, msg, nil)
		return WrapExitError(ExitCommandError, "show run", err)
	}

	if opts.Format == "json" {
		return formatter.Success(recordToJSON(rec))
	}

	w := formatter.Writer
	fmt.Fprintf(w, "Run %s\n", rec.ID)
	fmt.Fprintf(w, "  created:   %s\n", rec.CreatedAt.UTC().Format(time.RFC3339))
	fmt.Fprintf(w, "  years:     %s\n", rec.Horizon)
	fmt.Fprintf(w, "  catalogue: %s\n", rec.CatalogueVersion)
	fmt.Fprintf(w, "  documents:\n")
	for i, hash := range rec.Documents {
		fmt.Fprintf(w, "    %d. %s\n", i+1, hash)
	}

	r := tables.NewRenderer()
	fmt.Fprintf(w, "  values:\n")
	for _, name := range sortedValueNames(rec) {
		fmt.Fprintf(w, "    %s\n", name)
		for _, year := range sortedValueYears(rec, name) {
			fmt.Fprintf(w, "      %d  %s\n", year, r.FormatValue(rec.Values[name][year]))
		}
	}
	return nil
}

func summaryToJSON(r store.RunSummary) runSummaryJSON {
	return runSummaryJSON{
		ID:               r.ID,
		CreatedAt:        r.CreatedAt.UTC().Format(time.RFC3339Nano),
		Years:            r.Horizon.String(),
		CatalogueVersion: r.CatalogueVersion,
		Documents:        r.Documents,
	}
}

// runRecordJSON is the machine-readable full run.
type runRecordJSON struct {
	runSummaryJSON
	Values map[string]map[string]json.RawMessage `json:"values"`
}

func recordToJSON(rec *store.RunRecord) runRecordJSON {
	values := make(map[string]map[string]json.RawMessage, len(rec.Values))
	for name, row := range rec.Values {
		cells := make(map[string]json.RawMessage, len(row))
		for year, v := range row {
			// Stored values are within the sealed set; encoding cannot fail.
			body, err := param.MarshalValue(v)
			if err != nil {
				continue
			}
			cells[fmt.Sprintf("%d", year)] = body
		}
		values[name] = cells
	}
	return runRecordJSON{
		runSummaryJSON: summaryToJSON(rec.RunSummary),
		Values:         values,
	}
}

func sortedValueNames(rec *store.RunRecord) []string {
	names := make([]string, 0, len(rec.Values))
	for name := range rec.Values {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func sortedValueYears(rec *store.RunRecord, name string) []int {
	years := make([]int, 0, len(rec.Values[name]))
	for y := range rec.Values[name] {
		years = append(years, y)
	}
	sort.Ints(years)
	return years
}
