package cli

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/lawstack/internal/reform"
	"github.com/roach88/lawstack/internal/registry"
)

// ChainResult holds the validation reports for one requested document
// and its baseline chain.
type ChainResult struct {
	Requested string                  `json:"requested"`
	Valid     bool                    `json:"valid"`
	Reports   []reform.DocumentReport `json:"reports"`
}

// ValidateOptions holds flags for the validate command.
type ValidateOptions struct {
	*RootOptions
	BaselineDir string // directory baseline references resolve against
}

// NewValidateCommand creates the validate command.
func NewValidateCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &ValidateOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "validate <reform.json>...",
		Short: "Validate reform documents against the catalogue",
		Long: `Validate reform documents without resolving a schedule.

Each argument is loaded together with its baseline chain, and every
document of the chain is checked against the embedded parameter
catalogue: unknown and removed names, years before a parameter's
inception, shape and type mismatches, range violations. All defects of
a document are reported in one pass, not just the first.

Exit codes:
  0 - Every document valid (warnings allowed)
  1 - At least one error-severity defect, or a broken baseline chain
  2 - Command error (unreadable file, malformed document)

Examples:
  lawstack validate reform.json
  lawstack validate payroll.json brackets.json --format json`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runValidate(opts, args, cmd)
		},
	}

	cmd.Flags().StringVar(&opts.BaselineDir, "baseline-dir", "",
		"directory baseline references resolve against (default: each document's own directory)")

	return cmd
}

func runValidate(opts *ValidateOptions, paths []string, cmd *cobra.Command) error {
	formatter := newFormatter(opts.RootOptions, cmd.OutOrStdout(), cmd.ErrOrStderr())

	reg, err := registry.Load()
	if err != nil {
		_ = formatter.Error(ErrCodeCatalogue, err.Error(), nil)
		return WrapExitError(ExitCommandError, "load catalogue", err)
	}

	results := make([]ChainResult, 0, len(paths))
	for _, path := range paths {
		chain, err := loadChain(formatter, path, opts.BaselineDir)
		if err != nil {
			return err
		}
		formatter.VerboseLog("validating %s (%d document(s) in chain)", path, len(chain))
		for _, doc := range chain {
			if doc.Meta.Title != "" {
				formatter.VerboseLog("%s: %s", doc.Source, doc.Meta.Title)
			}
		}

		reports := reform.ValidateChain(reg, chain)
		results = append(results, ChainResult{
			Requested: path,
			Valid:     reform.ChainValid(reports),
			Reports:   reports,
		})
	}

	if opts.Format == "json" {
		return outputValidateJSON(formatter, results)
	}
	return outputValidateText(formatter, results)
}

// loadChain loads a reform document and its baseline chain. Baseline
// references resolve against baselineDir when given, else against the
// document's own directory. Unreadable or malformed documents are
// command errors; cyclic or unresolved baselines are validation
// failures.
func loadChain(formatter *OutputFormatter, path, baselineDir string) ([]*reform.Document, error) {
	chain, err := loadChainFrom(path, baselineDir)
	if err == nil {
		return chain, nil
	}

	var (
		cyclic     *reform.CyclicBaselineError
		unresolved *reform.UnresolvedBaselineError
	)
	code, exit := ErrCodeLoad, ExitCommandError
	if errors.As(err, &cyclic) || errors.As(err, &unresolved) {
		code, exit = ErrCodeChain, ExitFailure
	}
	_ = formatter.Error(code, err.Error(), nil)
	return nil, WrapExitError(exit, "cannot load "+path, err)
}

func loadChainFrom(path, baselineDir string) ([]*reform.Document, error) {
	if baselineDir == "" {
		return reform.LoadChain(path)
	}
	doc, err := reform.Load(path)
	if err != nil {
		return nil, err
	}
	return reform.BuildChain(doc, reform.FileLoader{Dir: baselineDir})
}

func countErrors(results []ChainResult) int {
	n := 0
	for _, res := range results {
		for _, rep := range res.Reports {
			for _, v := range rep.Violations {
				if v.Severity == reform.SeverityError {
					n++
				}
			}
		}
	}
	return n
}

func outputValidateText(formatter *OutputFormatter, results []ChainResult) error {
	w := formatter.Writer

	for _, res := range results {
		for _, rep := range res.Reports {
			mark := "✓"
			if reform.HasErrors(rep.Violations) {
				mark = "✗"
			} else if len(rep.Violations) > 0 {
				mark = "!"
			}
			fmt.Fprintf(w, "%s %s\n", mark, rep.Source)
			for _, v := range rep.Violations {
				fmt.Fprintf(w, "    %s %s\n", v.Severity, v.Error())
			}
		}
	}

	if n := countErrors(results); n > 0 {
		fmt.Fprintf(w, "\nValidation failed with %d error(s)\n", n)
		return NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", n))
	}
	fmt.Fprintln(w, "\n✓ All documents valid")
	return nil
}

func outputValidateJSON(formatter *OutputFormatter, results []ChainResult) error {
	n := countErrors(results)
	if n == 0 {
		return formatter.Success(results)
	}

	if err := formatter.Error(ErrCodeValidation,
		fmt.Sprintf("validation failed with %d error(s)", n), results); err != nil {
		return err
	}
	return NewExitError(ExitFailure, fmt.Sprintf("validation failed with %d error(s)", n))
}
