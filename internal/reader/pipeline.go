package reader

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/stormlang/storm/internal/bs"
	"github.com/stormlang/storm/internal/config"
	"github.com/stormlang/storm/internal/diagnostics"
	"github.com/stormlang/storm/internal/name"
	"github.com/stormlang/storm/internal/scope"
	"github.com/stormlang/storm/internal/types"
)

// Pipeline walks a root directory into a name.Package tree, one package per
// directory (spec §6 "root-directory-as-name-tree layout"), dispatching
// each recognized file to its extension's reader and driving the six-phase
// load across every package. A directory with no recognized source files is
// skipped rather than erroring: non-source subdirectories (fixtures,
// vendored assets) are common in a real tree.
type Pipeline struct {
	Registry    *Registry
	Policy      scope.Lookup
	Lits        bs.LiteralTypes
	ExcRoot     *types.Type
	Caller      types.RunOn
	VersionType *types.Type

	// group collapses concurrent loads of the same directory into one
	// (spec §6 "per-package advisory lock ... singleflight so concurrent
	// loaders of the same package collapse into one").
	group singleflight.Group
}

func NewPipeline(reg *Registry, policy scope.Lookup, lits bs.LiteralTypes, excRoot *types.Type, versionType *types.Type) *Pipeline {
	return &Pipeline{Registry: reg, Policy: policy, Lits: lits, ExcRoot: excRoot, VersionType: versionType}
}

// Result is everything one Load call produces: the root package, every
// resolved function body across the whole tree (for tooling to inspect;
// code generation itself is out of scope), and README.md text keyed by the
// absolute directory it was found in (spec §6 "A README in a package is
// surfaced as package documentation").
type Result struct {
	Root    *name.Package
	Bodies  []FuncBody
	Readmes map[string]string

	mu sync.Mutex
}

// recordReadme and recordBodies serialize writes from loadDirOnce, which
// runs concurrently across sibling subdirectories (errgroup fan-out).
func (r *Result) recordReadme(dir, text string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Readmes[dir] = text
}

func (r *Result) recordBodies(bodies []FuncBody) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Bodies = append(r.Bodies, bodies...)
}

// Load builds the full package tree rooted at root, then applies overlays
// as transitively-exported sources on the root package (spec §6 "imports
// may be declared on the command line as name=path" — resolved here as
// AddExport rather than a named binding, so their public symbols are
// simply visible everywhere the root package's own NameSet.find already
// walks exported sources; no named `import as` alias is created).
func (p *Pipeline) Load(ctx context.Context, root string, overlays []config.Import) (*Result, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("reader: resolving root %s: %w", root, err)
	}
	res := &Result{Readmes: make(map[string]string)}
	rootPkg, err := p.loadDir(ctx, absRoot, filepath.Base(absRoot), res)
	if err != nil {
		return nil, err
	}
	for _, ov := range overlays {
		absOv, err := filepath.Abs(ov.Path)
		if err != nil {
			return nil, fmt.Errorf("reader: resolving import overlay %s=%s: %w", ov.Name, ov.Path, err)
		}
		depPkg, err := p.loadDir(ctx, absOv, ov.Name, res)
		if err != nil {
			return nil, fmt.Errorf("reader: loading import overlay %s=%s: %w", ov.Name, ov.Path, err)
		}
		rootPkg.AddExport(depPkg)
	}
	res.Root = rootPkg
	return res, nil
}

func (p *Pipeline) loadDir(ctx context.Context, dir, pkgName string, res *Result) (*name.Package, error) {
	v, err, _ := p.group.Do(dir, func() (any, error) {
		return p.loadDirOnce(ctx, dir, pkgName, res)
	})
	if err != nil {
		return nil, err
	}
	return v.(*name.Package), nil
}

func (p *Pipeline) loadDirOnce(ctx context.Context, dir, pkgName string, res *Result) (*name.Package, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("reader: reading %s: %w", dir, err)
	}

	pkg := name.NewPackage(name.NewBase(pkgName, nil, diagnostics.NoPos), dir)

	var subdirs []string
	var sourceFiles []string
	for _, e := range entries {
		if e.IsDir() {
			subdirs = append(subdirs, e.Name())
			continue
		}
		if e.Name() == config.ReadmeFile {
			data, err := os.ReadFile(filepath.Join(dir, e.Name()))
			if err == nil {
				res.recordReadme(dir, string(data))
			}
			continue
		}
		if _, ok := p.Registry.For(extOf(e.Name())); ok {
			sourceFiles = append(sourceFiles, e.Name())
		}
	}
	sort.Strings(subdirs)
	sort.Strings(sourceFiles)

	g, gctx := errgroup.WithContext(ctx)
	children := make([]*name.Package, len(subdirs))
	for i, sub := range subdirs {
		i, sub := i, sub
		g.Go(func() error {
			child, err := p.loadDir(gctx, filepath.Join(dir, sub), sub, res)
			if err != nil {
				return err
			}
			children[i] = child
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	for _, child := range children {
		if err := pkg.Add(child); err != nil {
			return nil, err
		}
	}

	pr := NewPkgReader(pkg)
	baseCtx := Context{
		Lits: p.Lits, ExcRoot: p.ExcRoot, Policy: p.Policy, Caller: p.Caller,
		VersionType: p.VersionType,
	}
	for _, f := range sourceFiles {
		full := filepath.Join(dir, f)
		data, err := os.ReadFile(full)
		if err != nil {
			return nil, fmt.Errorf("reader: reading %s: %w", full, err)
		}
		if err := pr.AddFile(p.Registry, full, string(data), baseCtx); err != nil {
			return nil, err
		}
	}
	if len(sourceFiles) > 0 {
		if err := pr.Run(ctx); err != nil {
			return nil, err
		}
	}
	res.recordBodies(pr.Bodies)

	return pkg, nil
}
