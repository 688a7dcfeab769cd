// Package conformance loads and runs the end-to-end scenario files
// under testdata/conformance/*.yaml against the pond interpreter,
// grounded on MongooseMoo-barn/conformance's loader/runner/schema
// split, scoped down from barn's MOO-database setup/teardown blocks to
// pond's simpler source-in, stdout-and-exit-code-out contract.
package conformance

// TestCase is one scenario: a pond program, its expected stdout, and
// its expected process exit code (spec.md §6).
type TestCase struct {
	Name     string `yaml:"name"`
	Source   string `yaml:"source"`
	Stdout   string `yaml:"stdout"`
	ExitCode int    `yaml:"exit_code"`
	// StderrContains, when set, is required to appear in stderr
	// rather than matching it exactly - runtime/compile error text is
	// allowed to vary in wording as long as the diagnostic it names
	// is present (spec.md §6 examples phrase expectations this way).
	StderrContains string `yaml:"stderr_contains"`
	Skip           string `yaml:"skip"`
}

// TestSuite is one YAML file's contents: a named group of cases.
type TestSuite struct {
	Suite string     `yaml:"suite"`
	Tests []TestCase `yaml:"tests"`
}
