package cli

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/MKale112/devConnector/internal/db"
)

func NewMigrateCommand(rootOpts *RootOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the database schema",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			conn, err := openDB(rootOpts.Config.DBPath)
			if err != nil {
				return err
			}
			defer conn.Close()
			if err := db.Migrate(cmd.Context(), conn); err != nil {
				return err
			}
			slog.Info("schema up to date", "db", rootOpts.Config.DBPath)
			fmt.Fprintln(cmd.OutOrStdout(), "ok")
			return nil
		},
	}
}
