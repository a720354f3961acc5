// Package docio loads JSON interchange documents into the entity graph.
//
// Every document is validated against an embedded CUE schema before any
// graph construction happens: structural defects surface as LoadErrors
// with source positions, not as half-built documents. Defects the schema
// cannot express (duplicate handles, unknown block references in the
// entity placement) surface during construction with the same error type.
package docio

import (
	_ "embed"
	"fmt"
	"os"

	"cuelang.org/go/cue"
	"cuelang.org/go/cue/cuecontext"
	cueerrors "cuelang.org/go/cue/errors"
	"cuelang.org/go/cue/token"
	cuejson "cuelang.org/go/encoding/json"

	"github.com/tracedraft/vellum/internal/graph"
)

//go:embed schema.cue
var schemaSrc string

// LoadMode controls how validation errors are handled.
type LoadMode int

const (
	// LoadModeFailFast stops on the first error encountered.
	LoadModeFailFast LoadMode = iota
	// LoadModeCollectAll collects all errors before returning.
	LoadModeCollectAll
)

// Error code constants.
const (
	ErrCodeNotFound = "D001" // document file not found
	ErrCodeSyntax   = "D002" // not valid JSON
	ErrCodeSchema   = "D003" // schema validation failed
	ErrCodeDecode   = "D004" // validated value failed to decode
	ErrCodeGraph    = "D005" // graph construction failed
)

// LoadError is a document loading failure with optional source position.
type LoadError struct {
	Code    string
	Message string
	Pos     token.Pos
}

func (e *LoadError) Error() string {
	if e.Pos.IsValid() {
		return fmt.Sprintf("%s:%d:%d: %s: %s", e.Pos.Filename(), e.Pos.Line(), e.Pos.Column(), e.Code, e.Message)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

// Load reads and validates the JSON interchange document at path and
// builds the entity graph. A nil document is returned whenever errors
// are present.
func Load(path string, mode LoadMode) (*graph.Document, []error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, []error{&LoadError{Code: ErrCodeNotFound, Message: fmt.Sprintf("reading document: %v", err)}}
	}
	return Decode(path, data, mode)
}

// Decode validates a JSON interchange document and builds the entity
// graph. The filename is used for error positions only.
func Decode(filename string, data []byte, mode LoadMode) (*graph.Document, []error) {
	expr, err := cuejson.Extract(filename, data)
	if err != nil {
		return nil, []error{&LoadError{Code: ErrCodeSyntax, Message: err.Error(), Pos: firstPos(err)}}
	}

	ctx := cuecontext.New()
	schema := ctx.CompileString(schemaSrc, cue.Filename("schema.cue"))
	if err := schema.Err(); err != nil {
		// The schema is embedded and covered by tests; a broken one is a
		// programming error, not a document defect.
		panic(fmt.Sprintf("docio: embedded schema does not compile: %v", err))
	}

	value := ctx.BuildExpr(expr)
	if err := value.Err(); err != nil {
		return nil, []error{&LoadError{Code: ErrCodeSyntax, Message: err.Error(), Pos: firstPos(err)}}
	}

	unified := schema.LookupPath(cue.ParsePath("#Document")).Unify(value)
	if err := unified.Validate(cue.Concrete(true)); err != nil {
		return nil, validationErrors(err, mode)
	}

	var raw rawDocument
	if err := unified.Decode(&raw); err != nil {
		return nil, []error{&LoadError{Code: ErrCodeDecode, Message: err.Error(), Pos: firstPos(err)}}
	}

	return buildDocument(&raw, mode)
}

// validationErrors converts a CUE validation error into LoadErrors,
// honoring the load mode.
func validationErrors(err error, mode LoadMode) []error {
	all := cueerrors.Errors(err)
	if len(all) == 0 {
		return []error{&LoadError{Code: ErrCodeSchema, Message: err.Error()}}
	}
	if mode == LoadModeFailFast {
		all = all[:1]
	}
	out := make([]error, 0, len(all))
	for _, e := range all {
		le := &LoadError{Code: ErrCodeSchema, Message: e.Error()}
		if positions := cueerrors.Positions(e); len(positions) > 0 {
			le.Pos = positions[0]
		}
		out = append(out, le)
	}
	return out
}

func firstPos(err error) token.Pos {
	if positions := cueerrors.Positions(err); len(positions) > 0 {
		return positions[0]
	}
	return token.NoPos
}
