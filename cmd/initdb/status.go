package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"travelcrm/db"
)

func newStatusCmd(v *viper.Viper) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show applied migrations and tables that are still missing",
		RunE: func(cmd *cobra.Command, args []string) error {
			log, err := newLogger(v.GetBool("verbose"))
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()

			cfg := configFrom(v)
			cfg.Seed = false
			conn, err := db.Open(cmd.Context(), cfg, log)
			if err != nil {
				return err
			}
			defer func() {
				if err := conn.Close(); err != nil {
					log.Warnw("status: failed to close database", "error", err)
				}
			}()

			ctx, cancel := withTimeout(cmd.Context(), cfg.StatementTimeout)
			defer cancel()

			store := db.NewSQLStore(conn.DB())
			records, err := store.AppliedMigrations(ctx)
			if err != nil {
				return err
			}
			missing, err := store.MissingTables(ctx)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if len(records) == 0 {
				fmt.Fprintln(out, "No migrations applied.")
			}
			for _, r := range records {
				fmt.Fprintf(out, "  %s  %-28s  %s\n", r.Version, r.Name, r.AppliedAt.Format("2006-01-02 15:04:05"))
			}
			if len(missing) == 0 {
				fmt.Fprintln(out, "All tables present.")
				return nil
			}
			fmt.Fprintf(out, "Missing tables: %v\n", missing)
			return fmt.Errorf("%d tables missing", len(missing))
		},
	}
}
