package main

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/stormlang/storm/internal/diagnostics"
	"github.com/stormlang/storm/internal/reader"
	"github.com/stormlang/storm/pkg/compileservice"
)

var buildOverlays []string

var buildCmd = &cobra.Command{
	Use:   "build <root>",
	Short: "Compile a package tree once and report diagnostics",
	Args:  cobra.ExactArgs(1),
	RunE:  runBuild,
}

func init() {
	buildCmd.Flags().StringArrayVarP(&buildOverlays, "import", "i", nil, "import overlay as name=path (repeatable)")
	rootCmd.AddCommand(buildCmd)
}

func runBuild(cmd *cobra.Command, args []string) error {
	root := args[0]
	overlays, err := resolveOverlays(root, buildOverlays)
	if err != nil {
		return err
	}

	log := zerolog.New(cmd.ErrOrStderr()).With().Timestamp().Logger()
	svc := compileservice.NewService(reader.NewCore(), log)

	start := time.Now()
	res, err := svc.Compile(context.Background(), root, overlays)
	if err != nil {
		return err
	}

	reporter := diagnostics.NewReporter(cmd.ErrOrStderr())
	for _, d := range res.Diagnostics {
		reporter.Report(d.AsCodeError())
	}
	for _, ce := range reporter.Errors() {
		fmt.Fprintln(cmd.OutOrStdout(), ce.Error())
	}
	fmt.Fprintln(cmd.OutOrStdout(), reporter.Summary(time.Since(start)))

	if res.ErrorCount > 0 {
		os.Exit(1)
	}
	return nil
}
