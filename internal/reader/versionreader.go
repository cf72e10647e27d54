package reader

import (
	"strings"

	"golang.org/x/mod/semver"

	"github.com/stormlang/storm/internal/diagnostics"
	"github.com/stormlang/storm/internal/name"
	"github.com/stormlang/storm/internal/types"
	"github.com/stormlang/storm/internal/value"
)

// versionReader implements a .version file: a single semver string that the
// owning package exposes to Basic Storm code as `pkg.version`
// (SPEC_FULL.md §6 "[EXPANDED] .version reader").
type versionReader struct {
	NoopFileReader
}

func newVersionReader(*Context) (FileReader, error) {
	return &versionReader{}, nil
}

// ReadTypes runs alongside every other file's type declarations; a .version
// file declares no type of its own, only the synthetic GlobalVar registered
// here, but GlobalVars are themselves Named entries in the package NameSet,
// so this belongs in the same phase other top-level declarations use.
func (versionReader) ReadTypes(ctx *Context) error {
	raw := strings.TrimSpace(ctx.Content)
	v := raw
	if !strings.HasPrefix(v, "v") {
		v = "v" + v
	}
	if !semver.IsValid(v) {
		return diagnostics.New(diagnostics.TypedefError, diagnostics.SrcPos{File: ctx.Path},
			"%q is not a valid semantic version", raw)
	}

	vt := ctx.VersionType
	if vt == nil {
		return diagnostics.New(diagnostics.InternalError, diagnostics.SrcPos{File: ctx.Path},
			"no Version built-in type configured for the reader pipeline")
	}

	gv := types.NewGlobalVar(name.NewBase("version", nil, diagnostics.NoPos), value.Value{Type: vt}, nil)
	return ctx.Pkg.Add(gv)
}
