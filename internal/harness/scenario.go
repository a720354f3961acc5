package harness

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/tracedraft/vellum/internal/audit"
	"github.com/tracedraft/vellum/internal/docio"
	"github.com/tracedraft/vellum/internal/graph"
)

// Scenario is a data-driven audit conformance test: a document fixture,
// the audit options to run it with, and the expected findings.
type Scenario struct {
	// Name uniquely identifies the scenario.
	Name string `yaml:"name"`

	// Description explains what the scenario validates.
	Description string `yaml:"description"`

	// Document is the path to the JSON interchange document, relative to
	// the scenario file.
	Document string `yaml:"document"`

	// Audit configures the run.
	Audit AuditSpec `yaml:"audit"`

	// Expect lists the required findings.
	Expect Expect `yaml:"expect"`
}

// AuditSpec mirrors the audit options a scenario may set.
type AuditSpec struct {
	Repair    bool `yaml:"repair"`
	MaxPasses int  `yaml:"max_passes,omitempty"`
}

// Expect describes the required audit report. Issues match exactly: every
// expected issue must match a distinct reported issue and no reported
// issue may be left unmatched.
type Expect struct {
	Issues []ExpectIssue `yaml:"issues"`

	// Passes, when set, is the exact number of re-scan passes.
	Passes *int `yaml:"passes,omitempty"`
}

// ExpectIssue matches one reported issue. Empty fields match anything;
// Applied additionally constrains the repair outcome.
type ExpectIssue struct {
	Code     string `yaml:"code"`
	Severity string `yaml:"severity,omitempty"`
	Entity   string `yaml:"entity,omitempty"`
	Block    string `yaml:"block,omitempty"`
	DimStyle string `yaml:"dim_style,omitempty"`
	Applied  *bool  `yaml:"applied,omitempty"`
}

// LoadScenario reads and parses a scenario YAML file. Unknown fields are
// rejected to catch typos; the document path is resolved relative to the
// scenario file.
func LoadScenario(path string) (*Scenario, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading scenario: %w", err)
	}

	var s Scenario
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&s); err != nil {
		return nil, fmt.Errorf("parsing scenario %s: %w", path, err)
	}

	if s.Name == "" {
		return nil, fmt.Errorf("scenario %s: name is required", path)
	}
	if s.Document == "" {
		return nil, fmt.Errorf("scenario %s: document is required", path)
	}
	if !filepath.IsAbs(s.Document) {
		s.Document = filepath.Join(filepath.Dir(path), s.Document)
	}
	return &s, nil
}

// ScenarioResult pairs the audit report with the document it ran over,
// for assertions beyond the declared expectations.
type ScenarioResult struct {
	Document *graph.Document
	Report   *audit.Report
}

// RunScenario loads the scenario's document, executes the audit and
// checks the declared expectations. Returns the result for further
// assertions; any mismatch is returned as an error.
func RunScenario(s *Scenario) (*ScenarioResult, error) {
	doc, errs := docio.Load(s.Document, docio.LoadModeCollectAll)
	if len(errs) > 0 {
		return nil, fmt.Errorf("loading document %s: %v", s.Document, errs[0])
	}

	report := audit.Run(doc, audit.Options{
		Repair:    s.Audit.Repair,
		MaxPasses: s.Audit.MaxPasses,
	})
	result := &ScenarioResult{Document: doc, Report: report}

	if err := checkExpectations(s, report); err != nil {
		return result, err
	}
	return result, nil
}

func checkExpectations(s *Scenario, report *audit.Report) error {
	if len(report.Issues) != len(s.Expect.Issues) {
		return fmt.Errorf("scenario %s: got %d issues, want %d: %v",
			s.Name, len(report.Issues), len(s.Expect.Issues), report.Issues)
	}

	matched := make([]bool, len(report.Issues))
	for i, want := range s.Expect.Issues {
		found := false
		for j, got := range report.Issues {
			if matched[j] || !issueMatches(want, got, report) {
				continue
			}
			matched[j] = true
			found = true
			break
		}
		if !found {
			return fmt.Errorf("scenario %s: expected issue %d (%+v) not found in %v",
				s.Name, i, want, report.Issues)
		}
	}

	if s.Expect.Passes != nil && report.Passes != *s.Expect.Passes {
		return fmt.Errorf("scenario %s: got %d passes, want %d", s.Name, report.Passes, *s.Expect.Passes)
	}
	return nil
}

func issueMatches(want ExpectIssue, got audit.Issue, report *audit.Report) bool {
	if want.Code != string(got.Code) {
		return false
	}
	if want.Severity != "" && want.Severity != got.Severity.String() {
		return false
	}
	if want.Entity != "" && want.Entity != string(got.Entity) {
		return false
	}
	if want.Block != "" && want.Block != got.Block {
		return false
	}
	if want.DimStyle != "" && want.DimStyle != got.DimStyle {
		return false
	}
	if want.Applied != nil {
		for _, o := range report.Outcomes {
			if o.Issue.Code == got.Code && o.Issue.Entity == got.Entity &&
				o.Issue.Block == got.Block && o.Issue.DimStyle == got.DimStyle {
				return o.Applied == *want.Applied
			}
		}
		return false
	}
	return true
}

// LoadScenarios loads every *.yaml scenario under dir, sorted by filename.
func LoadScenarios(dir string) ([]*Scenario, error) {
	paths, err := filepath.Glob(filepath.Join(dir, "*.yaml"))
	if err != nil {
		return nil, err
	}
	scenarios := make([]*Scenario, 0, len(paths))
	for _, p := range paths {
		s, err := LoadScenario(p)
		if err != nil {
			return nil, err
		}
		scenarios = append(scenarios, s)
	}
	return scenarios, nil
}
