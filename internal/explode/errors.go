package explode

import (
	"errors"
	"fmt"
	"strings"

	"github.com/tracedraft/vellum/internal/entity"
)

// Code categorizes decomposition failures.
type Code string

const (
	// CodeNotImplemented: the entity's sub-kind requires live geometric
	// reconstruction this pipeline does not support.
	CodeNotImplemented Code = "not-implemented"
	// CodeDepthExceeded: insertion nesting passed Options.MaxDepth,
	// almost always a cyclic block reference.
	CodeDepthExceeded Code = "depth-exceeded"
	// CodeMissingBlock: an INSERT or dimension references a block absent
	// from the block table.
	CodeMissingBlock Code = "missing-block"
	// CodeProxyDecode: a proxy entity's embedded command stream is
	// absent or malformed.
	CodeProxyDecode Code = "proxy-decode"
	// CodeDegenerate: the entity cannot produce geometry (for example a
	// leader with fewer than two vertices).
	CodeDegenerate Code = "degenerate-geometry"
)

// Error is a structural decomposition failure.
type Error struct {
	Code    Code
	Message string
	// Chain lists the block names being expanded when the failure
	// occurred, outermost first. Set for depth-exceeded failures.
	Chain []string
}

func (e *Error) Error() string {
	if len(e.Chain) > 0 {
		return fmt.Sprintf("%s: %s (chain: %s)", e.Code, e.Message, strings.Join(e.Chain, " -> "))
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// IsCode reports whether err is an *Error with the given code.
func IsCode(err error, code Code) bool {
	var e *Error
	return errors.As(err, &e) && e.Code == code
}

// Issue is a local, recoverable defect found while replaying a block's
// contents: the offending entity yields no primitives and decomposition
// continues with its siblings.
type Issue struct {
	Entity  entity.Handle
	Code    Code
	Message string
}
