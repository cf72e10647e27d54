// Command stormc is Storm's compiler-frontend CLI: one binary exposing the
// reader pipeline (SPEC_FULL.md §6) directly (build, watch, doc) and as a
// gRPC service (serve, pkg/compileservice), grounded on the teacher's
// cmd/funxy entry point and cobra layout (papapumpkin-quasar's cmd/root.go,
// the pack's only cobra-based CLI).
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "stormc",
	Short: "Storm reader-pipeline frontend: build, watch, doc, and serve",
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
