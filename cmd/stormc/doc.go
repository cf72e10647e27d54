package main

import (
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/stormlang/storm/internal/docstore"
	"github.com/stormlang/storm/internal/name"
	"github.com/stormlang/storm/internal/reader"
	"github.com/stormlang/storm/internal/scope"
)

var (
	docOverlays []string
	docCache    string
)

var docCmd = &cobra.Command{
	Use:   "doc <root>",
	Short: "Load a package tree and print every doc comment it carries",
	Args:  cobra.ExactArgs(1),
	RunE:  runDoc,
}

func init() {
	docCmd.Flags().StringArrayVarP(&docOverlays, "import", "i", nil, "import overlay as name=path (repeatable)")
	docCmd.Flags().StringVar(&docCache, "cache", "", "sqlite doc cache path (default: in-memory, not persisted)")
	rootCmd.AddCommand(docCmd)
}

func runDoc(cmd *cobra.Command, args []string) error {
	root := args[0]
	overlays, err := resolveOverlays(root, docOverlays)
	if err != nil {
		return err
	}

	store, err := docstore.Open(docCache)
	if err != nil {
		return err
	}
	defer store.Close()

	core := reader.NewCore()
	policy := scope.DefaultLookup{Core: core.Pkg}
	p := reader.NewPipeline(reader.NewRegistry(), policy, core.Lits(), core.Exception, core.Version)

	res, err := p.Load(context.Background(), root, overlays)
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	if readme, ok := res.Readmes[res.Root.URL()]; ok {
		fmt.Fprintln(w, strings.TrimSpace(readme))
		fmt.Fprintln(w)
	}
	return printDocs(w, store, res.Root, "")
}

func printDocs(w io.Writer, store *docstore.Store, ns *name.Package, indent string) error {
	for _, item := range ns.All() {
		var text string
		if doc := item.Doc(); doc != nil {
			t, err := store.Fronted(doc)
			if err != nil {
				return err
			}
			text = strings.TrimSpace(t)
		}
		if text != "" {
			fmt.Fprintf(w, "%s%s: %s\n", indent, item.Name(), text)
		} else {
			fmt.Fprintf(w, "%s%s\n", indent, item.Name())
		}
		if child, ok := item.(*name.Package); ok {
			if err := printDocs(w, store, child, indent+"  "); err != nil {
				return err
			}
		}
	}
	return nil
}
