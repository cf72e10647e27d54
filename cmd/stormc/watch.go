package main

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/stormlang/storm/internal/reader"
	"github.com/stormlang/storm/pkg/compileservice"
)

var (
	watchOverlays []string
	watchInterval time.Duration
)

var watchCmd = &cobra.Command{
	Use:   "watch <root>",
	Short: "Recompile a package tree on every source change until interrupted",
	Args:  cobra.ExactArgs(1),
	RunE:  runWatch,
}

func init() {
	watchCmd.Flags().StringArrayVarP(&watchOverlays, "import", "i", nil, "import overlay as name=path (repeatable)")
	watchCmd.Flags().DurationVar(&watchInterval, "interval", time.Second, "poll interval")
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	root := args[0]
	overlays, err := resolveOverlays(root, watchOverlays)
	if err != nil {
		return err
	}

	log := zerolog.New(cmd.ErrOrStderr()).With().Timestamp().Logger()
	svc := compileservice.NewService(reader.NewCore(), log)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	return svc.Watch(ctx, root, overlays, watchInterval, func(res *compileservice.CompileResult) {
		fmt.Fprintf(cmd.OutOrStdout(), "[%s] %d error(s) in %s\n", res.RequestID, res.ErrorCount, res.Elapsed)
		for _, d := range res.Diagnostics {
			fmt.Fprintln(cmd.OutOrStdout(), d.AsCodeError().Error())
		}
	})
}
