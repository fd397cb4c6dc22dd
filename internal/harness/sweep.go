package harness

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// SweepResult summarizes a run over a directory of scenario files.
type SweepResult struct {
	TotalScenarios int               `json:"total_scenarios"`
	Passed         int               `json:"passed"`
	Failed         int               `json:"failed"`
	Failures       []ScenarioFailure `json:"failures,omitempty"`
}

// ScenarioFailure records one failed scenario in a sweep.
type ScenarioFailure struct {
	ScenarioPath string `json:"scenario_path"`
	Error        string `json:"error"`
}

// RunDir loads and runs every scenario YAML file under dir, in sorted
// order. Unit paths inside each scenario resolve relative to the
// scenario file's own directory. Individual failures don't stop the
// sweep; they accumulate in the result.
func RunDir(dir string) (*SweepResult, error) {
	paths, err := findScenarioFiles(dir)
	if err != nil {
		return nil, err
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("no scenario files found in %s", dir)
	}

	result := &SweepResult{}
	for _, path := range paths {
		result.TotalScenarios++

		scenario, err := LoadScenarioWithBasePath(path, filepath.Dir(path))
		if err != nil {
			result.Failed++
			result.Failures = append(result.Failures, ScenarioFailure{
				ScenarioPath: path,
				Error:        fmt.Sprintf("failed to load scenario: %v", err),
			})
			continue
		}

		runResult, err := Run(scenario)
		if err != nil {
			result.Failed++
			result.Failures = append(result.Failures, ScenarioFailure{
				ScenarioPath: path,
				Error:        fmt.Sprintf("scenario execution failed: %v", err),
			})
			continue
		}

		if !runResult.Pass {
			result.Failed++
			result.Failures = append(result.Failures, ScenarioFailure{
				ScenarioPath: path,
				Error:        strings.Join(runResult.Errors, "; "),
			})
			continue
		}

		result.Passed++
	}

	return result, nil
}

// findScenarioFiles returns the sorted .yaml/.yml paths under dir.
func findScenarioFiles(dir string) ([]string, error) {
	var paths []string
	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			return nil
		}
		switch filepath.Ext(path) {
		case ".yaml", ".yml":
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	sort.Strings(paths)
	return paths, nil
}
