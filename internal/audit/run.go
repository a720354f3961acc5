package audit

import (
	"log/slog"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/tracedraft/vellum/internal/changelog"
	"github.com/tracedraft/vellum/internal/graph"
)

// DefaultMaxPasses bounds the unused-block fixpoint loop. Each pass can
// only delete blocks, so the loop terminates well before this in practice;
// the bound guards against a future check violating that assumption.
const DefaultMaxPasses = 10

// Options configure an audit run.
type Options struct {
	// Repair applies repair actions; false reports only.
	Repair bool
	// Checks overrides the catalog. Nil runs all checks.
	Checks []Check
	// Journal records applied mutations. Nil disables journaling.
	Journal *changelog.Journal
	// RunID correlates issues, outcomes and journal rows. Empty
	// generates a fresh UUID.
	RunID string
	// MaxPasses bounds the unused-block fixpoint loop. 0 means
	// DefaultMaxPasses.
	MaxPasses int
	// Logger for diagnostics. Nil uses slog.Default().
	Logger *slog.Logger
}

// Report is the result of one audit run.
type Report struct {
	RunID string
	// Issues lists every finding, fatal ones included, in deterministic
	// order.
	Issues []Issue
	// Outcomes lists one entry per repairable issue when Repair was
	// enabled.
	Outcomes []Outcome
	// Passes is the number of unused-block re-scan passes executed.
	Passes int
}

// Fatal returns the fatal issues of the report.
func (r *Report) Fatal() []Issue {
	var out []Issue
	for _, issue := range r.Issues {
		if issue.Severity == SeverityFatal {
			out = append(out, issue)
		}
	}
	return out
}

// Rejected returns the rejected outcomes of the report.
func (r *Report) Rejected() []Outcome {
	var out []Outcome
	for _, o := range r.Outcomes {
		if !o.Applied {
			out = append(out, o)
		}
	}
	return out
}

// Run executes the check catalog over the document.
//
// The scan phase runs all checks concurrently; scans are read-only by
// contract. With Repair enabled the collected repairs are applied in a
// second, strictly sequential phase, then the unused-block check re-scans
// to a fixpoint: deleting a block can remove the only INSERT keeping
// another block alive.
func Run(doc *graph.Document, opts Options) *Report {
	if opts.RunID == "" {
		opts.RunID = uuid.NewString()
	}
	if opts.MaxPasses <= 0 {
		opts.MaxPasses = DefaultMaxPasses
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}
	checks := opts.Checks
	if checks == nil {
		checks = Checks()
	}

	report := &Report{RunID: opts.RunID}
	report.Issues = scan(doc, checks)
	logger.Debug("audit scan complete", "run", opts.RunID, "issues", len(report.Issues))

	if !opts.Repair {
		return report
	}

	executor := NewExecutor(opts.RunID, opts.Journal, logger)
	for _, issue := range report.Issues {
		if !issue.Repairable() {
			continue
		}
		report.Outcomes = append(report.Outcomes, executor.Apply(doc, issue))
	}

	// Fixpoint: block deletion is the only repair that can change the
	// applicability of another check's detection, and only of this same
	// check. Re-scan until clean or the pass bound is hit.
	for report.Passes = 1; report.Passes < opts.MaxPasses; report.Passes++ {
		extra := scan(doc, []Check{unusedBlockCheck{}})
		if len(extra) == 0 {
			break
		}
		report.Issues = append(report.Issues, extra...)
		for _, issue := range extra {
			report.Outcomes = append(report.Outcomes, executor.Apply(doc, issue))
		}
	}

	logger.Info("audit run complete",
		"run", opts.RunID,
		"issues", len(report.Issues),
		"applied", len(report.Outcomes)-len(report.Rejected()),
		"rejected", len(report.Rejected()),
		"fatal", len(report.Fatal()),
	)
	return report
}

// scan runs the checks concurrently and returns their issues in
// deterministic order.
func scan(doc *graph.Document, checks []Check) []Issue {
	results := make([][]Issue, len(checks))
	var wg sync.WaitGroup
	for i, check := range checks {
		wg.Add(1)
		go func(i int, c Check) {
			defer wg.Done()
			results[i] = c.Scan(doc)
		}(i, check)
	}
	wg.Wait()

	var issues []Issue
	for _, r := range results {
		issues = append(issues, r...)
	}
	sort.SliceStable(issues, func(i, j int) bool {
		if a, b := issues[i].target(), issues[j].target(); a != b {
			return a < b
		}
		var vi, vj int
		if issues[i].Repair != nil {
			vi = issues[i].Repair.VertexIndex
		}
		if issues[j].Repair != nil {
			vj = issues[j].Repair.VertexIndex
		}
		return vi < vj
	})
	return issues
}
