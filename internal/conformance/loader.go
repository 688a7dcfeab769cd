package conformance

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// LoadedTest pairs a TestCase with the suite and file it came from,
// so test names stay traceable back to their source file.
type LoadedTest struct {
	File  string
	Suite string
	Test  TestCase
}

// LoadAllTests walks dir for *.yaml files and returns every test case
// found, in file order.
func LoadAllTests(dir string) ([]LoadedTest, error) {
	abs, err := filepath.Abs(dir)
	if err != nil {
		return nil, err
	}
	if _, err := os.Stat(abs); err != nil {
		return nil, fmt.Errorf("conformance test directory %q: %w", abs, err)
	}

	var loaded []LoadedTest
	err = filepath.Walk(abs, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() || filepath.Ext(path) != ".yaml" {
			return nil
		}
		tests, err := loadTestFile(path)
		if err != nil {
			return fmt.Errorf("%s: %w", path, err)
		}
		rel, _ := filepath.Rel(abs, path)
		for _, t := range tests {
			t.File = rel
			loaded = append(loaded, t)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return loaded, nil
}

func loadTestFile(path string) ([]LoadedTest, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var suite TestSuite
	if err := yaml.Unmarshal(data, &suite); err != nil {
		return nil, err
	}
	loaded := make([]LoadedTest, 0, len(suite.Tests))
	for _, t := range suite.Tests {
		loaded = append(loaded, LoadedTest{Suite: suite.Suite, Test: t})
	}
	return loaded, nil
}
