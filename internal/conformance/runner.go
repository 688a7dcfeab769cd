package conformance

import (
	"bytes"
	"fmt"
	"strings"

	"github.com/peteranastasiou/pond"
)

// TestResult is the outcome of running one LoadedTest.
type TestResult struct {
	Test    LoadedTest
	Passed  bool
	Skipped bool
	Detail  string
}

// Runner executes conformance scenarios, each against a fresh
// Interpreter (no cross-test global/interning state leaks).
type Runner struct{}

func NewRunner() *Runner { return &Runner{} }

// Run executes one test case end to end, comparing stdout and exit
// code against the scenario's expectations.
func (r *Runner) Run(lt LoadedTest) TestResult {
	if lt.Test.Skip != "" {
		return TestResult{Test: lt, Skipped: true, Detail: lt.Test.Skip}
	}

	var stdout, stderr bytes.Buffer
	in := pond.New(&stdout)
	_, err := in.Interpret(lt.Test.Source)
	if err != nil {
		stderr.WriteString(err.Error())
	}
	exitCode := pond.ExitCode(err)

	if exitCode != lt.Test.ExitCode {
		return TestResult{Test: lt, Passed: false, Detail: fmt.Sprintf(
			"exit code: want %d, got %d (stderr: %s)", lt.Test.ExitCode, exitCode, stderr.String())}
	}
	if lt.Test.Stdout != "" && stdout.String() != lt.Test.Stdout {
		return TestResult{Test: lt, Passed: false, Detail: fmt.Sprintf(
			"stdout: want %q, got %q", lt.Test.Stdout, stdout.String())}
	}
	if lt.Test.StderrContains != "" && !strings.Contains(stderr.String(), lt.Test.StderrContains) {
		return TestResult{Test: lt, Passed: false, Detail: fmt.Sprintf(
			"stderr: want substring %q, got %q", lt.Test.StderrContains, stderr.String())}
	}
	return TestResult{Test: lt, Passed: true}
}

// RunAll runs every test and returns the results in order.
func (r *Runner) RunAll(tests []LoadedTest) []TestResult {
	results := make([]TestResult, len(tests))
	for i, t := range tests {
		results[i] = r.Run(t)
	}
	return results
}

// Stats summarizes a batch of results.
type Stats struct {
	Total, Passed, Failed, Skipped int
}

func ComputeStats(results []TestResult) Stats {
	s := Stats{Total: len(results)}
	for _, r := range results {
		switch {
		case r.Skipped:
			s.Skipped++
		case r.Passed:
			s.Passed++
		default:
			s.Failed++
		}
	}
	return s
}

func FormatStats(s Stats) string {
	return fmt.Sprintf("%d total, %d passed, %d failed, %d skipped", s.Total, s.Passed, s.Failed, s.Skipped)
}
