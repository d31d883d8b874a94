package cli

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/roach88/filtersql/internal/harness"
)

// TestOptions holds flags for the test command.
type TestOptions struct {
	*RootOptions
}

// ScenarioSummary is the outcome of one scenario file.
type ScenarioSummary struct {
	Name   string               `json:"name"`
	Pass   bool                 `json:"pass"`
	Cases  int                  `json:"cases"`
	Failed []harness.CaseResult `json:"failed,omitempty"`
}

// TestResult is the payload of test.
type TestResult struct {
	Pass      bool              `json:"pass"`
	Scenarios []ScenarioSummary `json:"scenarios"`
}

func (r TestResult) renderText(w io.Writer) {
	passed := 0
	for _, s := range r.Scenarios {
		status := "PASS"
		if s.Pass {
			passed++
		} else {
			status = "FAIL"
		}
		fmt.Fprintf(w, "%s  %s (%d cases)\n", status, s.Name, s.Cases)
		for _, c := range s.Failed {
			fmt.Fprintf(w, "      %s: %s\n", c.Name, c.Failure)
		}
	}
	fmt.Fprintf(w, "%d/%d scenarios passed\n", passed, len(r.Scenarios))
}

// NewTestCommand creates the test command.
func NewTestCommand(rootOpts *RootOptions) *cobra.Command {
	opts := &TestOptions{RootOptions: rootOpts}

	cmd := &cobra.Command{
		Use:   "test <dir>",
		Short: "Run filter scenarios against an in-memory embedded store",
		Long: `Run every *.yaml scenario in dir. A scenario seeds rows into a fresh
in-memory SQLite store and checks each case's matched ids, count, or
expected filter error.

Exit codes:
  0 - all scenarios passed
  1 - at least one case failed
  2 - a scenario could not be loaded or set up`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runTest(cmd, opts, args[0])
		},
	}

	return cmd
}

func runTest(cmd *cobra.Command, opts *TestOptions, dir string) error {
	formatter := opts.formatter(cmd)

	scenarios, err := harness.LoadScenarios(dir)
	if err != nil {
		return formatter.Fail(ErrCodeReadFailed, "load scenarios", err)
	}
	if len(scenarios) == 0 {
		return formatter.Fail(ErrCodeNotFound, "load scenarios", fmt.Errorf("no *.yaml scenarios in %s", dir))
	}

	out := TestResult{Pass: true, Scenarios: make([]ScenarioSummary, 0, len(scenarios))}
	for _, s := range scenarios {
		formatter.VerboseLog("running scenario %s", s.Name)
		res, err := harness.Run(s)
		if err != nil {
			return formatter.Fail(ErrCodeStoreFailed, fmt.Sprintf("run scenario %s", s.Name), err)
		}

		summary := ScenarioSummary{Name: s.Name, Pass: res.Pass, Cases: len(res.Cases)}
		for _, c := range res.Cases {
			if c.Failure != "" {
				summary.Failed = append(summary.Failed, c)
			}
		}
		out.Scenarios = append(out.Scenarios, summary)
		out.Pass = out.Pass && res.Pass
	}

	if !out.Pass {
		if err := formatter.Error(ErrCodeScenarioFailed, "scenarios failed", out); err != nil {
			return err
		}
		if formatter.Format != "json" {
			out.renderText(formatter.Writer)
		}
		return NewExitError(ExitFailure, "scenarios failed")
	}

	return formatter.Success(out)
}
