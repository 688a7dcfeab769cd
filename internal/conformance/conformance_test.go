package conformance

import "testing"

func TestConformance(t *testing.T) {
	tests, err := LoadAllTests("../../testdata/conformance")
	if err != nil {
		t.Fatalf("failed to load tests: %v", err)
	}
	if len(tests) == 0 {
		t.Fatal("no conformance tests loaded")
	}

	runner := NewRunner()
	results := runner.RunAll(tests)
	stats := ComputeStats(results)

	fileGroups := make(map[string][]TestResult)
	for _, r := range results {
		fileGroups[r.Test.File] = append(fileGroups[r.Test.File], r)
	}

	for file, group := range fileGroups {
		t.Run(file, func(t *testing.T) {
			for _, result := range group {
				result := result
				t.Run(result.Test.Test.Name, func(t *testing.T) {
					if result.Skipped {
						t.Skipf("skipped: %s", result.Detail)
						return
					}
					if !result.Passed {
						t.Error(result.Detail)
					}
				})
			}
		})
	}

	t.Logf("conformance summary: %s", FormatStats(stats))
}
