// Package reader implements Storm's persistent reader pipeline (spec §6,
// component C8): per-extension FileReaders driven in six lockstep phases
// across a package's files, mirroring the teacher's internal/modules.Loader
// and internal/pipeline.Pipeline but retargeted onto the shared
// garbage-collected name tree instead of a standalone AST+symbol table.
package reader

import (
	"sync"

	"github.com/stormlang/storm/internal/bs"
	"github.com/stormlang/storm/internal/name"
	"github.com/stormlang/storm/internal/scope"
	"github.com/stormlang/storm/internal/types"
)

// Phase enumerates the six lockstep steps every file in a package runs
// through before the package is usable (spec §6 "readSyntaxRules ->
// readSyntaxProductions -> readTypes -> resolveTypes -> readFunctions ->
// resolveFunctions"). Phases run as a barrier: every file finishes phase N
// before any file starts phase N+1, since a later phase may depend on every
// file's earlier-phase declarations (a .bnf rule referenced from another
// file, a type used before its declaration).
type Phase int

const (
	PhaseSyntaxRules Phase = iota
	PhaseSyntaxProductions
	PhaseTypes
	PhaseResolveTypes
	PhaseFunctions
	PhaseResolveFunctions
	phaseCount
)

// DelimTable is the package-wide `,`/`~` delimiter rule registry a .bnf
// reader populates from `optional = name;`/`required = name;` declarations
// and every .bnf file in the same package consults when building
// productions (spec §6 ".bnf syntax" DelimDecl).
type DelimTable struct {
	mu       sync.Mutex
	Optional name.Named
	Required name.Named
}

func (d *DelimTable) set(kind string, n name.Named) {
	d.mu.Lock()
	defer d.mu.Unlock()
	switch kind {
	case "optional":
		d.Optional = n
	case "required":
		d.Required = n
	}
}

// FuncBody pairs a resolved Function with the parsed body a .bs reader
// produced for it. Code generation is out of scope (spec §1), so this is
// as far as the pipeline carries a function: Function.Body stays the
// late-bound CodeRef placeholder types.Function already defines, and the
// parsed tree is kept alongside it for tooling (the compile service,
// future codegen) to consume.
type FuncBody struct {
	Fn   *types.Function
	Body *bs.ExprBlock
}

// Context is threaded through every phase of every FileReader reading
// Path/Content against Pkg. It also carries the bits the bs frontend needs
// to parse function bodies (spec §4.7) and the package-wide delimiter
// table .bnf readers share.
type Context struct {
	Pkg     *name.Package
	Path    string
	Content string

	Lits        bs.LiteralTypes
	ExcRoot     *types.Type
	Policy      scope.Lookup
	Caller      types.RunOn
	VersionType *types.Type

	Delims *DelimTable

	// Bodies accumulates this package's resolved function bodies across
	// every FileReader's ResolveFunctions phase (spec §6 readFunctions
	// "parses each function body against its already-resolved Scope").
	Bodies *[]FuncBody
}

// FileReader drives one source file through the six phases (spec §6
// "readSyntaxRules, readSyntaxProductions, readTypes, resolveTypes,
// readFunctions, resolveFunctions"). Each extension contributes its own
// implementation; most only need a handful of the six and embed
// NoopFileReader for the rest.
type FileReader interface {
	ReadSyntaxRules(ctx *Context) error
	ReadSyntaxProductions(ctx *Context) error
	ReadTypes(ctx *Context) error
	ResolveTypes(ctx *Context) error
	ReadFunctions(ctx *Context) error
	ResolveFunctions(ctx *Context) error
}

// NoopFileReader implements every phase as a no-op; embed it and override
// only the phases an extension's reader actually uses.
type NoopFileReader struct{}

func (NoopFileReader) ReadSyntaxRules(*Context) error       { return nil }
func (NoopFileReader) ReadSyntaxProductions(*Context) error { return nil }
func (NoopFileReader) ReadTypes(*Context) error             { return nil }
func (NoopFileReader) ResolveTypes(*Context) error          { return nil }
func (NoopFileReader) ReadFunctions(*Context) error         { return nil }
func (NoopFileReader) ResolveFunctions(*Context) error      { return nil }

func (p Phase) run(r FileReader, ctx *Context) error {
	switch p {
	case PhaseSyntaxRules:
		return r.ReadSyntaxRules(ctx)
	case PhaseSyntaxProductions:
		return r.ReadSyntaxProductions(ctx)
	case PhaseTypes:
		return r.ReadTypes(ctx)
	case PhaseResolveTypes:
		return r.ResolveTypes(ctx)
	case PhaseFunctions:
		return r.ReadFunctions(ctx)
	case PhaseResolveFunctions:
		return r.ResolveFunctions(ctx)
	default:
		return nil
	}
}

// ReaderFunc constructs a FileReader for one source file of a recognized
// extension (spec §6 "contributing a lang.<ext>.reader function"). It runs
// once, before any phase, so it may do cheap parsing (e.g. splitting
// declarations) but must not touch the name tree yet — that is each
// phase's job.
type ReaderFunc func(ctx *Context) (FileReader, error)

// Registry maps a recognized extension to its ReaderFunc (spec §6
// "Extensions are strings and may be added dynamically"). The zero value
// is usable; NewRegistry pre-populates the four extensions this binary
// ships.
type Registry struct {
	mu    sync.RWMutex
	funcs map[string]ReaderFunc
}

func NewRegistry() *Registry {
	r := &Registry{funcs: make(map[string]ReaderFunc)}
	r.Register(".bs", newBsReader)
	r.Register(".bnf", newBnfReader)
	r.Register(".license", newLicenseReader)
	r.Register(".version", newVersionReader)
	return r
}

// Register installs (or replaces) the ReaderFunc for ext, letting a host
// contribute support for a new extension at runtime.
func (r *Registry) Register(ext string, fn ReaderFunc) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.funcs[ext] = fn
}

func (r *Registry) For(ext string) (ReaderFunc, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	fn, ok := r.funcs[ext]
	return fn, ok
}
