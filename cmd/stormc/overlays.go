package main

import (
	"github.com/stormlang/storm/internal/config"
)

// resolveOverlays merges storm.yaml's declared imports with any -i/--import
// flags given on the command line (spec §6 expansion: overlays may come
// from either source). Flags are appended after the manifest's imports and
// both are kept; since lookups search exported packages in order, a symbol
// present in a manifest import is found before one in a command-line import.
func resolveOverlays(root string, cliOverlays []string) ([]config.Import, error) {
	manifest, err := config.Load(root)
	if err != nil {
		return nil, err
	}
	overlays := append([]config.Import{}, manifest.Imports...)
	for _, s := range cliOverlays {
		imp, err := config.ParseOverlay(s)
		if err != nil {
			return nil, err
		}
		overlays = append(overlays, imp)
	}
	return overlays, nil
}
