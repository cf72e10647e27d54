package main

import (
	"net"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/stormlang/storm/internal/reader"
	"github.com/stormlang/storm/pkg/compileservice"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the Compile Service over gRPC",
	Args:  cobra.NoArgs,
	RunE:  runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", ":7420", "listen address")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	log := zerolog.New(cmd.ErrOrStderr()).With().Timestamp().Logger()
	svc := compileservice.NewService(reader.NewCore(), log)
	srv := compileservice.NewGRPCServer(svc)

	lis, err := net.Listen("tcp", serveAddr)
	if err != nil {
		return err
	}
	log.Info().Str("addr", serveAddr).Msg("compile service listening")
	return srv.Serve(lis)
}
