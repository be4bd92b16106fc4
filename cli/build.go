package cli

import (
	"fmt"
	"os"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"
)

func newBuildCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "build",
		Short: "Build a suffix array index from a protein database and taxonomy",
		RunE: func(cmd *cobra.Command, args []string) error {
			log := zerolog.New(zerolog.ConsoleWriter{Out: os.Stderr}).With().Timestamp().Logger()

			if f.indexFile == "" {
				return fmt.Errorf("cli: build requires --index-file")
			}

			db, err := loadDatabase(log)
			if err != nil {
				return err
			}

			log.Info().
				Int("proteins", len(db.text.Proteins)).
				Int("text_bytes", db.text.Len()).
				Int("sparseness", f.sparseness).
				Msg("index built")

			return nil
		},
	}
}
