package cli

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/lawstack/internal/reform"
	"github.com/roach88/lawstack/internal/registry"
	"github.com/roach88/lawstack/internal/resolve"
	"github.com/roach88/lawstack/internal/store"
	"github.com/roach88/lawstack/internal/tables"
)

// ResolveOptions holds flags for the resolve command.
type ResolveOptions struct {
	*RootOptions
	Years       string   // requested horizon, "START-END" or a single year
	Params      []string // restrict text output to these parameters
	DBPath      string   // record the run in this database
	BaselineDir string   // directory baseline references resolve against
}

// resolveData is the JSON payload of a successful resolution.
type resolveData struct {
	RunID    string          `json:"run_id,omitempty"`
	Schedule json.RawMessage `json:"schedule"`
}

// NewResolveCommand creates the resolve command.
func NewResolveCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ResolveOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "resolve <reform.json>",
		Short: "Resolve a parameter schedule under a reform",
		Long: `Resolve the effective per-year value of every parameter.

The reform document is loaded with its baseline chain, validated, and
layered onto the catalogue defaults over the requested horizon. An
override holds from its year until the next override of the same
parameter. With --db the resolution is recorded in the run store.

Exit codes:
  0 - Schedule resolved
  1 - Validation failed, or a broken baseline chain
  2 - Command error (unreadable file, bad horizon, store failure)

Examples:
  lawstack resolve reform.json --years 2018-2021
  lawstack resolve reform.json --years 2020 --param NIIT_rt
  lawstack resolve reform.json --years 2018-2027 --db runs.db`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runResolve(opts, args[0], cmd)
		},
	}

	cmd.Flags().StringVar(&opts.Years, "years", "", "year horizon, e.g. 2018-2021 (required)")
	cmd.Flags().StringArrayVar(&opts.Params, "param", nil, "limit output to a parameter (repeatable)")
	cmd.Flags().StringVar(&opts.DBPath, "db", "", "record the run in this SQLite database")
	cmd.Flags().StringVar(&opts.BaselineDir, "baseline-dir", "",
		"directory baseline references resolve against (default: the document's own directory)")
	_ = cmd.MarkFlagRequired("years")

	return cmd
}

func runResolve(opts *ResolveOptions, path string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())

	reg, err := registry.Load()
	if err != nil {
		_ = formatter.Error(ErrCodeCatalogue, err.Error(), nil)
		return WrapExitError(ExitCommandError, "load catalogue", err)
	}

	horizon, err := resolve.ParseHorizon(opts.Years)
	if err != nil {
		_ = formatter.Error(ErrCodeHorizon, err.Error(), nil)
		return WrapExitError(ExitCommandError, "bad --years", err)
	}

	chain, err := loadChain(formatter, path, opts.BaselineDir)
	if err != nil {
		return err
	}
	for _, doc := range chain {
		if doc.Meta.Title != "" {
			formatter.VerboseLog("%s: %s", doc.Source, doc.Meta.Title)
		}
	}

	// A document with error-severity defects must not contribute any
	// override, so resolution refuses the whole chain.
	reports := reform.ValidateChain(reg, chain)
	if !reform.ChainValid(reports) {
		return outputValidateFailure(formatter, path, reports)
	}
	for _, rep := range reports {
		for _, v := range rep.Violations {
			fmt.Fprintf(formatter.GetErrWriter(), "warning: %s: %s\n", rep.Source, v.Error())
		}
	}

	sched, err := resolve.New(reg).Resolve(chain, horizon)
	if err != nil {
		var he *resolve.HorizonError
		if errors.As(err, &he) {
			_ = formatter.Error(ErrCodeHorizon, err.Error(), nil)
			return WrapExitError(ExitCommandError, "cannot resolve", err)
		}
		_ = formatter.Error(ErrCodeValidation, err.Error(), nil)
		return WrapExitError(ExitFailure, "cannot resolve", err)
	}

	runID := ""
	if opts.DBPath != "" {
		runID, err = recordRun(cmd, opts.DBPath, chain, sched)
		if err != nil {
			_ = formatter.Error(ErrCodeStore, err.Error(), nil)
			return WrapExitError(ExitCommandError, "record run", err)
		}
	}

	if opts.Format == "json" {
		body, err := tables.MarshalSchedule(sched)
		if err != nil {
			return WrapExitError(ExitCommandError, "encode schedule", err)
		}
		return formatter.Success(resolveData{RunID: runID, Schedule: body})
	}
	return outputScheduleText(formatter, reg, sched, opts.Params, runID)
}

// recordRun stores the resolution in the audit database.
func recordRun(cmd *cobra.Command, dbPath string, chain []*reform.Document, sched *resolve.Schedule) (string, error) {
	st, err := store.Open(dbPath)
	if err != nil {
		return "", err
	}
	defer st.Close()

	summary, err := st.SaveRun(cmd.Context(), chain, sched)
	if err != nil {
		return "", err
	}
	return summary.ID, nil
}

func outputScheduleText(formatter *OutputFormatter, reg *registry.Registry, sched *resolve.Schedule, params []string, runID string) error {
	w := formatter.Writer
	r := tables.NewRenderer()

	if len(params) == 0 {
		if err := r.Schedule(w, reg, sched); err != nil {
			return WrapExitError(ExitCommandError, "render schedule", err)
		}
	} else {
		fmt.Fprintf(w, "Resolved schedule %s (catalogue %s)\n\n", sched.Horizon(), sched.CatalogueVersion())
		for _, name := range params {
			if err := r.Param(w, reg, sched, name); err != nil {
				_ = formatter.Error(ErrCodeValidation, err.Error(), nil)
				return WrapExitError(ExitCommandError, "render parameter", err)
			}
			fmt.Fprintln(w)
		}
	}

	if runID != "" {
		fmt.Fprintf(w, "Recorded run %s\n", runID)
	}
	return nil
}

// outputValidateFailure reports the chain's defects and fails with exit
// code 1.
func outputValidateFailure(formatter *OutputFormatter, path string, reports []reform.DocumentReport) error {
	results := []ChainResult{{Requested: path, Valid: false, Reports: reports}}
	if formatter.Format == "json" {
		return outputValidateJSON(formatter, results)
	}
	return outputValidateText(formatter, results)
}
