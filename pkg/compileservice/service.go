package compileservice

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/stormlang/storm/internal/bs"
	"github.com/stormlang/storm/internal/config"
	"github.com/stormlang/storm/internal/diagnostics"
	"github.com/stormlang/storm/internal/reader"
	"github.com/stormlang/storm/internal/scope"
	"github.com/stormlang/storm/internal/types"
)

// Diagnostic is the wire-agnostic shape of one reported error, mirroring
// the Diagnostic proto message one-for-one.
type Diagnostic struct {
	Kind    diagnostics.Kind
	Pos     diagnostics.SrcPos
	Message string
}

// AsCodeError reconstructs the *diagnostics.CodeError this Diagnostic was
// reported from, so a local caller (the stormc CLI) can feed it back
// through a diagnostics.Reporter instead of re-parsing the wire strings a
// remote gRPC client would be stuck with.
func (d Diagnostic) AsCodeError() *diagnostics.CodeError {
	return &diagnostics.CodeError{Kind: d.Kind, Pos: d.Pos, Msg: d.Message}
}

// CompileResult is one Compile/Watch response, mirroring CompileResponse.
type CompileResult struct {
	RequestID   string
	Diagnostics []Diagnostic
	ErrorCount  int
	Elapsed     time.Duration
}

// Service adapts a reader.Pipeline configuration into Compile/Watch calls.
// It is deliberately stateless across calls: every Compile builds a fresh
// reader.Pipeline (and therefore a fresh name tree), matching spec §6
// "Persisted state: None in the core" — the Compile Service adds no
// exception to that rule, it just saves tooling from re-linking
// internal/reader.
type Service struct {
	Registry    *reader.Registry
	Policy      scope.Lookup
	Lits        bs.LiteralTypes
	ExcRoot     *types.Type
	VersionType *types.Type
	Caller      types.RunOn
	Log         zerolog.Logger
}

// NewService builds a Service wired against core's built-in types (spec
// §4.4 "core" well-known package).
func NewService(core *reader.Core, log zerolog.Logger) *Service {
	return &Service{
		Registry:    reader.NewRegistry(),
		Policy:      scope.DefaultLookup{Core: core.Pkg},
		Lits:        core.Lits(),
		ExcRoot:     core.Exception,
		VersionType: core.Version,
		Log:         log,
	}
}

// Compile loads root (plus overlays) through a fresh reader.Pipeline. The
// pipeline stops at the first error it meets, so a *diagnostics.CodeError
// it surfaces is reported as the result's single Diagnostic rather than a
// Go error, and nothing after that error is loaded. Any other error (a bad
// path, a permission failure) is an infrastructure error and is returned
// as such.
func (s *Service) Compile(ctx context.Context, root string, overlays []config.Import) (*CompileResult, error) {
	reqID := uuid.NewString()
	start := time.Now()

	p := reader.NewPipeline(s.Registry, s.Policy, s.Lits, s.ExcRoot, s.VersionType)
	p.Caller = s.Caller

	res := &CompileResult{RequestID: reqID}
	_, err := p.Load(ctx, root, overlays)
	res.Elapsed = time.Since(start)

	var ce *diagnostics.CodeError
	if errors.As(err, &ce) {
		res.Diagnostics = []Diagnostic{{Kind: ce.Kind, Pos: ce.Pos, Message: ce.Msg}}
		res.ErrorCount = 1
		s.Log.Warn().Str("request_id", reqID).Str("root", root).Err(ce).Msg("compile reported a code error")
		return res, nil
	}
	if err != nil {
		s.Log.Error().Str("request_id", reqID).Str("root", root).Err(err).Msg("compile failed")
		return nil, fmt.Errorf("compileservice: compile %s: %w", root, err)
	}

	s.Log.Info().Str("request_id", reqID).Str("root", root).Dur("elapsed", res.Elapsed).Msg("compiled")
	return res, nil
}

// Watch re-runs Compile whenever root's file tree changes, polling every
// interval and invoking emit with each result (including the first,
// unconditional compile). It returns when ctx is done or emit's driving
// Compile call fails with an infrastructure error; code errors are
// delivered to emit like any other result, not treated as fatal.
//
// Open Question (spec §9): the source left file-watching unspecified for
// this component (the LSP's incremental re-parser is explicitly out of
// scope, spec §1). This polls a cheap (file-count, latest-mtime) signature
// rather than pulling in a filesystem-notification dependency none of the
// retrieval pack uses, matching the "implement straightforwardly from
// context" policy for underspecified behavior.
func (s *Service) Watch(ctx context.Context, root string, overlays []config.Import, interval time.Duration, emit func(*CompileResult)) error {
	if interval <= 0 {
		interval = time.Second
	}

	sig, err := dirSignature(root)
	if err != nil {
		return fmt.Errorf("compileservice: watch %s: %w", root, err)
	}
	res, err := s.Compile(ctx, root, overlays)
	if err != nil {
		return err
	}
	emit(res)

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			next, err := dirSignature(root)
			if err != nil {
				continue
			}
			if next == sig {
				continue
			}
			sig = next
			res, err := s.Compile(ctx, root, overlays)
			if err != nil {
				return err
			}
			emit(res)
		}
	}
}

// dirSignature summarizes a directory tree cheaply enough to poll: the
// number of entries and the latest modification time seen. It is not a
// content hash — an edit that leaves both the file count and the latest
// mtime unchanged would be missed — but it is sufficient to detect the save-a-file loop Watch
// exists for.
func dirSignature(root string) (string, error) {
	var latest time.Time
	var count int
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		count++
		if info.ModTime().After(latest) {
			latest = info.ModTime()
		}
		return nil
	})
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%d:%d", count, latest.UnixNano()), nil
}
