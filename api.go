package equipment

import (
	"context"
	"errors"
	"fmt"

	"github.com/MSLNZ/msl-equipment-sub004/internal/archive"
	"github.com/MSLNZ/msl-equipment-sub004/internal/schema"
	"github.com/MSLNZ/msl-equipment-sub004/internal/semantic"
	"github.com/MSLNZ/msl-equipment-sub004/internal/session"
	"github.com/MSLNZ/msl-equipment-sub004/internal/xmltree"
)

// Validator walks documents through the schema gate and the semantic checks.
// A Validator holds no per-run state and may be reused.
type Validator struct {
	opts     Options
	gate     *schema.Gate
	archives *archive.Validator
}

// New loads the schemas named by opts. It fails when a schema cannot be
// loaded; nothing else about opts is checked.
func New(opts Options) (*Validator, error) {
	reg := opts.RegisterEngine
	if reg == nil {
		e, err := schema.Load(opts.RegisterSchema, schema.RegisterFile)
		if err != nil {
			return nil, fmt.Errorf("load register schema: %w", err)
		}
		reg = e
	}
	conn := opts.ConnectionsEngine
	if conn == nil {
		e, err := schema.Load(opts.ConnectionsSchema, schema.ConnectionsFile)
		if err != nil {
			return nil, fmt.Errorf("load connections schema: %w", err)
		}
		conn = e
	}
	return &Validator{
		opts:     opts,
		gate:     &schema.Gate{Register: reg, Connections: conn},
		archives: archive.New(),
	}, nil
}

// Result is the outcome of one Run.
type Result struct {
	Files   []string
	Summary Summary
	Issues  Issues
}

// Run discovers the files named by paths and validates them in order. The
// returned error is non-nil only when ctx was cancelled; validation problems
// are recorded in the Result.
func (v *Validator) Run(ctx context.Context, paths []string) (Result, error) {
	sess := session.New(v.opts.Sink, v.opts.ExitFirst || IsExitFirst(ctx))
	reg := newRegistry()

	files, derr := Discover(paths, v.opts.Exclude)
	if iss, ok := AsIssues(derr); ok {
		for _, it := range iss {
			sess.Report(it)
		}
	}

	var err error
	for _, file := range files {
		if err = ctx.Err(); err != nil {
			break
		}
		if sess.Stop() {
			break
		}
		v.validateFile(ctx, file, sess, reg)
	}
	return Result{Files: files, Summary: sess.Summary(), Issues: sess.Issues()}, err
}

func (v *Validator) validateFile(ctx context.Context, file string, sess *session.Session, reg *registry) {
	doc, err := xmltree.ParseFile(file)
	if err != nil {
		var se *xmltree.SyntaxError
		if errors.As(err, &se) {
			sess.Report(Issue{File: file, Line: se.Line, Column: se.Column, Code: CodeParseError, Message: se.Error(), Cause: err})
		} else {
			sess.Report(Issue{File: file, Code: CodeParseError, Message: "Cannot parse " + file, Cause: err})
		}
		return
	}

	switch classify(doc.Root) {
	case KindRegister:
		sess.Debugf("Validating register %s", file)
		if !v.gate.CheckRegister(doc, sess) {
			return
		}
		semantic.ScanUnchecked(doc, sess)
		ids := semantic.Validate(ctx, doc, sess, semantic.Options{
			Roots:        v.opts.Roots,
			SkipChecksum: v.opts.SkipChecksum,
			Archives:     v.archives,
		})
		reg.reconcile(ids, sess)
	case KindConnections:
		sess.Debugf("Validating connections %s", file)
		v.gate.CheckConnections(doc, sess)
	case KindUnsupported:
		sess.Debugf("Skipping %s [root tag %s]", file, doc.Root.Tag())
	}
}

func classify(root *xmltree.Element) Kind {
	switch {
	case root.Is(schema.RegisterNamespace, "register"):
		return KindRegister
	case root.Is("", "connections"):
		return KindConnections
	default:
		return KindUnsupported
	}
}

// ---- Context helpers ----

type contextKey int

const (
	_ctxKeyExitFirst contextKey = iota
)

// WithExitFirst returns a context that makes Run stop after the first issue,
// in addition to Options.ExitFirst.
func WithExitFirst(ctx context.Context, enabled bool) context.Context {
	return context.WithValue(ctx, _ctxKeyExitFirst, enabled)
}

// IsExitFirst reports whether exit-first is enabled in ctx.
func IsExitFirst(ctx context.Context) bool {
	if ctx == nil {
		return false
	}
	v, _ := ctx.Value(_ctxKeyExitFirst).(bool)
	return v
}
