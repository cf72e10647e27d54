package reader

import (
	"context"

	"golang.org/x/sync/errgroup"

	"github.com/stormlang/storm/internal/name"
)

// fileEntry pairs one source file's Context with the FileReader its
// extension's ReaderFunc produced for it.
type fileEntry struct {
	ctx *Context
	fr  FileReader
}

// PkgReader drives every file belonging to one package through the six
// phases in lockstep (spec §6): within a phase, files run concurrently
// (errgroup.WithContext, matching the hot-reload fan-out pattern in
// internal/reload); between phases there is a hard barrier, since a later
// phase's lookups may depend on any file's earlier-phase declarations.
type PkgReader struct {
	Pkg    *name.Package
	Delims *DelimTable
	Bodies []FuncBody

	files []fileEntry
}

// NewPkgReader prepares an empty driver for pkg. Add files with AddFile
// before calling Run.
func NewPkgReader(pkg *name.Package) *PkgReader {
	return &PkgReader{Pkg: pkg, Delims: &DelimTable{}}
}

// AddFile registers one file's content under ext's ReaderFunc, building
// its per-file Context and FileReader up front (spec §6 ReaderFunc "may do
// cheap parsing ... but must not touch the name tree yet").
func (pr *PkgReader) AddFile(reg *Registry, path, content string, baseCtx Context) error {
	fn, ok := reg.For(extOf(path))
	if !ok {
		return nil // unrecognized extension: not a source file this pipeline reads
	}
	ctx := baseCtx
	ctx.Pkg = pr.Pkg
	ctx.Path = path
	ctx.Content = content
	ctx.Delims = pr.Delims
	ctx.Bodies = &pr.Bodies
	fr, err := fn(&ctx)
	if err != nil {
		return err
	}
	pr.files = append(pr.files, fileEntry{ctx: &ctx, fr: fr})
	return nil
}

func extOf(path string) string {
	for i := len(path) - 1; i >= 0; i-- {
		if path[i] == '.' {
			return path[i:]
		}
		if path[i] == '/' {
			break
		}
	}
	return ""
}

// Run executes all six phases across every registered file, stopping at
// the first error any file in a phase reports (errgroup cancels its
// siblings' context, though FileReader phases do not currently observe
// cancellation mid-phase since they are pure in-memory parsing/resolution
// with no blocking I/O).
func (pr *PkgReader) Run(ctx context.Context) error {
	for p := Phase(0); p < phaseCount; p++ {
		g, _ := errgroup.WithContext(ctx)
		for _, f := range pr.files {
			f := f
			g.Go(func() error { return p.run(f.fr, f.ctx) })
		}
		if err := g.Wait(); err != nil {
			return err
		}
	}
	return nil
}
