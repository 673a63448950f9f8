package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/roach88/lawstack/internal/harness"
)

// ScenarioResult reports one conformance scenario.
type ScenarioResult struct {
	Name     string   `json:"name"`
	Pass     bool     `json:"pass"`
	Findings []string `json:"findings,omitempty"`
}

// TestResult aggregates a test invocation.
type TestResult struct {
	Scenarios []ScenarioResult `json:"scenarios"`
	Passed    int              `json:"passed"`
	Failed    int              `json:"failed"`
	Total     int              `json:"total"`
}

// NewTestCommand creates the test command.
func NewTestCommand(rootOpts *RootOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "test <scenario.yaml>...",
		Short: "Run conformance scenarios",
		Long: `Run declarative conformance scenarios against the engine.

Each scenario bundles reform documents, a resolution request, and
expectations about resolved values, validation violations, or chain
errors. Scenarios run end to end through the same path as resolve.

Exit codes:
  0 - Every scenario passed
  1 - At least one scenario failed its expectations
  2 - Command error (unreadable or malformed scenario file)

Examples:
  lawstack test scenarios/payroll-surtax.yaml
  lawstack test scenarios/*.yaml --format json`,
		Args:          cobra.MinimumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTest(rootOpts, args, cmd)
		},
	}

	return cmd
}

func runTest(opts *RootOptions, paths []string, cmd *cobra.Command) error {
	formatter := newFormatter(opts, cmd.OutOrStdout(), cmd.ErrOrStderr())

	result := TestResult{Scenarios: make([]ScenarioResult, 0, len(paths))}
	for _, path := range paths {
		sc, err := harness.LoadScenario(path)
		if err != nil {
			_ = formatter.Error(ErrCodeLoad, err.Error(), nil)
			return WrapExitError(ExitCommandError, "cannot load "+path, err)
		}
		formatter.VerboseLog("running scenario %s (%s)", sc.Name, path)

		res, err := harness.Run(sc)
		if err != nil {
			_ = formatter.Error(ErrCodeLoad, err.Error(), nil)
			return WrapExitError(ExitCommandError, "cannot run "+path, err)
		}

		result.Scenarios = append(result.Scenarios, ScenarioResult{
			Name:     res.Name,
			Pass:     res.Pass,
			Findings: res.Findings,
		})
		if res.Pass {
			result.Passed++
		} else {
			result.Failed++
		}
	}
	result.Total = len(result.Scenarios)

	if opts.Format == "json" {
		return outputTestJSON(formatter, result)
	}
	return outputTestText(formatter, result)
}

func outputTestText(formatter *OutputFormatter, result TestResult) error {
	w := formatter.Writer

	for _, sc := range result.Scenarios {
		mark := "✓"
		if !sc.Pass {
			mark = "✗"
		}
		fmt.Fprintf(w, "%s %s\n", mark, sc.Name)
		for _, finding := range sc.Findings {
			fmt.Fprintf(w, "    %s\n", finding)
		}
	}

	fmt.Fprintf(w, "\n%d/%d scenarios passed\n", result.Passed, result.Total)
	if result.Failed > 0 {
		return NewExitError(ExitFailure, fmt.Sprintf("%d scenario(s) failed", result.Failed))
	}
	return nil
}

func outputTestJSON(formatter *OutputFormatter, result TestResult) error {
	if result.Failed == 0 {
		return formatter.Success(result)
	}

	if err := formatter.Error(ErrCodeTestFailed,
		fmt.Sprintf("%d scenario(s) failed", result.Failed), result); err != nil {
		return err
	}
	return NewExitError(ExitFailure, fmt.Sprintf("%d scenario(s) failed", result.Failed))
}
