package cli

import (
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/bioutils/peptidesearch/httpapi"
)

func newServeCmd() *cobra.Command {
	var addr string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve batch peptide search over HTTP",
		RunE: func(cmd *cobra.Command, args []string) error {
			log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()

			db, err := loadDatabase(log)
			if err != nil {
				return err
			}
			if f.buildOnly {
				return nil
			}

			srv := httpapi.New(newOrchestrator(db))
			log.Info().Str("addr", addr).Msg("peptidesearch server listening")
			return srv.Listen(addr)
		},
	}

	cmd.Flags().StringVarP(&addr, "addr", "a", ":8080", "listen address (host:port)")

	return cmd
}
