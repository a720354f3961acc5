package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/tracedraft/vellum/internal/docio"
	"github.com/tracedraft/vellum/internal/entity"
	"github.com/tracedraft/vellum/internal/explode"
	"github.com/tracedraft/vellum/internal/harness"
)

// ExplodeResult is the explode command's payload.
type ExplodeResult struct {
	Handle   string         `json:"handle"`
	Count    int            `json:"count"`
	Issues   []ExplodeIssue `json:"issues,omitempty"`
	Entities []interface{}  `json:"entities"`
}

// ExplodeIssue is one local defect skipped during decomposition.
type ExplodeIssue struct {
	Entity  string `json:"entity,omitempty"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

// NewExplodeCommand creates the explode command.
func NewExplodeCommand(rootOpts *RootOptions) *cobra.Command {
	var (
		handle string
		target string
		depth  int
	)

	cmd := &cobra.Command{
		Use:   "explode <document.json>",
		Short: "Decompose a composite entity into primitives",
		Long: `Decompose one entity into its primitive world-coordinate geometry.

The document is never modified; the output lists the virtual entities a
renderer would draw in place of the composite.`,
		Args:          cobra.ExactArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runExplode(rootOpts, args[0], handle, target, depth, cmd)
		},
	}

	cmd.Flags().StringVar(&handle, "handle", "", "handle of the entity to decompose (required)")
	cmd.Flags().StringVar(&target, "target", "arc", "primitive for bulged edges (arc|ellipse|spline)")
	cmd.Flags().IntVar(&depth, "depth", 0, "insertion recursion bound (0 = default)")
	_ = cmd.MarkFlagRequired("handle")
	return cmd
}

func parseTarget(s string) (explode.TargetKind, error) {
	switch s {
	case "arc":
		return explode.TargetArc, nil
	case "ellipse":
		return explode.TargetEllipse, nil
	case "spline":
		return explode.TargetSpline, nil
	default:
		return 0, fmt.Errorf("invalid target %q: must be arc, ellipse or spline", s)
	}
}

func runExplode(opts *RootOptions, path, handle, target string, depth int, cmd *cobra.Command) error {
	formatter := &OutputFormatter{
		Format:    opts.Format,
		Writer:    cmd.OutOrStdout(),
		ErrWriter: cmd.ErrOrStderr(),
		Verbose:   opts.Verbose,
	}

	targetKind, err := parseTarget(target)
	if err != nil {
		_ = formatter.Error("E-FLAG", err.Error(), nil)
		return NewExitError(ExitCommandError, err.Error())
	}

	doc, loadErrors := docio.Load(path, docio.LoadModeFailFast)
	if len(loadErrors) > 0 {
		return loadFailure(formatter, loadErrors[0])
	}

	e, ok := doc.Entity(entity.Handle(handle))
	if !ok {
		msg := fmt.Sprintf("no entity with handle %q", handle)
		_ = formatter.Error("E-HANDLE", msg, nil)
		return NewExitError(ExitCommandError, msg)
	}

	out, issues, err := explode.VirtualEntities(doc, e, explode.Options{
		Target:   targetKind,
		MaxDepth: depth,
	})
	if err != nil {
		_ = formatter.Error("E-EXPLODE", err.Error(), nil)
		return NewExitError(ExitFailure, err.Error())
	}

	formatter.VerboseLog("decomposed %s into %d entities, %d issues", handle, len(out), len(issues))

	snapshot, err := harness.Snapshot(out)
	if err != nil {
		_ = formatter.Error("E-EXPLODE", err.Error(), nil)
		return NewExitError(ExitFailure, err.Error())
	}

	if formatter.Format == "text" {
		if _, err := formatter.Writer.Write(snapshot); err != nil {
			return err
		}
		for _, issue := range issues {
			fmt.Fprintf(formatter.Writer, "skipped [%s] %s: %s\n", issue.Code, issue.Entity, issue.Message)
		}
		return nil
	}

	result := ExplodeResult{Handle: handle, Count: len(out)}
	for _, issue := range issues {
		result.Issues = append(result.Issues, ExplodeIssue{
			Entity:  string(issue.Entity),
			Code:    string(issue.Code),
			Message: issue.Message,
		})
	}
	records, err := harness.SnapshotRecords(out)
	if err != nil {
		return err
	}
	for _, rec := range records {
		result.Entities = append(result.Entities, rec)
	}
	return formatter.Success(result)
}
