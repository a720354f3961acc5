package cli

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/tracedraft/vellum/internal/audit"
	"github.com/tracedraft/vellum/internal/changelog"
	"github.com/tracedraft/vellum/internal/docio"
)

// AuditResult is the audit command's payload.
type AuditResult struct {
	RunID    string         `json:"run_id"`
	Issues   []AuditIssue   `json:"issues"`
	Outcomes []AuditOutcome `json:"outcomes,omitempty"`
	Passes   int            `json:"passes"`
	Fatal    int            `json:"fatal"`
}

// AuditIssue is one finding, flattened for output.
type AuditIssue struct {
	Code     string `json:"code"`
	Severity string `json:"severity"`
	Entity   string `json:"entity,omitempty"`
	Block    string `json:"block,omitempty"`
	DimStyle string `json:"dim_style,omitempty"`
	Message  string `json:"message"`
}

// AuditOutcome is one repair attempt.
type AuditOutcome struct {
	Code    string `json:"code"`
	Applied bool   `json:"applied"`
	Reason  string `json:"reason,omitempty"`
}

// NewAuditCommand creates the audit command.
func NewAuditCommand(rootOpts *RootOptions) *cobra.Command {
	var (
		repair    bool
		journal   string
		maxPasses int
	)

	cmd := &cobra.Command{
		Use:   "audit <document.json>",
		Short: "Audit a document and optionally repair it",
		Long: `Run the full check catalog over a document.

With --repair, repairable issues are fixed in dependency-safe order and
every applied mutation is recorded; --journal persists the mutation log
to a sqlite database for later inspection.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runAudit(rootOpts, args[0], repair, journal, maxPasses, cmd)
		},
	}

	cmd.Flags().BoolVar(&repair, "repair", false, "apply repairs instead of only reporting")
	cmd.Flags().StringVar(&journal, "journal", "", "sqlite file recording applied mutations")
	cmd.Flags().IntVar(&maxPasses, "max-passes", 0, "bound for the unused-block re-scan loop (0 = default)")
	return cmd
}

func runAudit(opts *RootOptions, path string, repair bool, journalPath string, maxPasses int, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	doc, loadErrors := docio.Load(path, docio.LoadModeFailFast)
	if len(loadErrors) > 0 {
		return loadFailure(formatter, loadErrors[0])
	}

	var journal *changelog.Journal
	if journalPath != "" {
		j, err := changelog.Open(journalPath)
		if err != nil {
			_ = formatter.Error(docio.ErrCodeNotFound, err.Error(), nil)
			return NewExitError(ExitCommandError, err.Error())
		}
		defer j.Close()
		journal = j
	}

	logLevel := slog.LevelWarn
	if opts.Verbose {
		logLevel = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(cmd.ErrOrStderr(), &slog.HandlerOptions{Level: logLevel}))

	report := audit.Run(doc, audit.Options{
		Repair:    repair,
		Journal:   journal,
		MaxPasses: maxPasses,
		Logger:    logger,
	})

	result := AuditResult{
		RunID:  report.RunID,
		Issues: []AuditIssue{},
		Passes: report.Passes,
		Fatal:  len(report.Fatal()),
	}
	for _, issue := range report.Issues {
		result.Issues = append(result.Issues, AuditIssue{
			Code:     string(issue.Code),
			Severity: issue.Severity.String(),
			Entity:   string(issue.Entity),
			Block:    issue.Block,
			DimStyle: issue.DimStyle,
			Message:  issue.Message,
		})
	}
	for _, o := range report.Outcomes {
		result.Outcomes = append(result.Outcomes, AuditOutcome{
			Code:    string(o.Issue.Code),
			Applied: o.Applied,
			Reason:  o.Reason,
		})
	}

	if formatter.Format == "json" {
		if err := formatter.Success(result); err != nil {
			return err
		}
	} else {
		printAuditText(formatter, &result)
	}

	if len(result.Issues) > 0 && (!repair || result.Fatal > 0) {
		return NewExitError(ExitFailure, fmt.Sprintf("%d issue(s) found", len(result.Issues)))
	}
	return nil
}

func printAuditText(f *OutputFormatter, r *AuditResult) {
	if len(r.Issues) == 0 {
		fmt.Fprintln(f.Writer, "document clean")
		return
	}
	fmt.Fprintf(f.Writer, "%d issue(s), %d fatal (run %s)\n", len(r.Issues), r.Fatal, r.RunID)
	for _, issue := range r.Issues {
		target := issue.Entity
		if target == "" {
			target = issue.Block
		}
		if target == "" {
			target = issue.DimStyle
		}
		fmt.Fprintf(f.Writer, "  [%s] %s %s: %s\n", issue.Severity, issue.Code, target, issue.Message)
	}
	for _, o := range r.Outcomes {
		if o.Applied {
			fmt.Fprintf(f.Writer, "  repaired %s\n", o.Code)
		} else {
			fmt.Fprintf(f.Writer, "  rejected %s: %s\n", o.Code, o.Reason)
		}
	}
}

// loadFailure reports a document load error with the right exit code.
func loadFailure(f *OutputFormatter, err error) error {
	code := docio.ErrCodeSchema
	var le *docio.LoadError
	if errors.As(err, &le) {
		code = le.Code
	}
	_ = f.Error(code, err.Error(), nil)
	if code == docio.ErrCodeNotFound {
		return NewExitError(ExitCommandError, err.Error())
	}
	return NewExitError(ExitFailure, err.Error())
}
