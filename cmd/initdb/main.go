package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"travelcrm/db"
)

const (
	databaseURLEnvVar   = "DATABASE_URL"
	driverEnvVar        = "DB_DRIVER"
	adminPasswordEnvVar = "ADMIN_PASSWORD" //nolint:gosec
	defaultMaxBackups   = 5
	backupFileExt       = ".bak"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	v := viper.New()
	var envFile string

	rootCmd := &cobra.Command{
		Use:           "initdb",
		Short:         "Create the travel CRM schema and seed the administrator",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return loadEnvFile(envFile)
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			log, err := newLogger(v.GetBool("verbose"))
			if err != nil {
				return err
			}
			defer func() { _ = log.Sync() }()

			cfg := configFrom(v)
			if v.GetBool("backup") && cfg.Validate() == nil && cfg.Driver == db.DriverSQLite {
				created, pruned, err := newSQLiteBackup(cfg.DatabaseURL, v.GetInt("max-backups")).run()
				if err != nil {
					log.Warnw("sqlite backup failed", "error", err)
				} else if created != "" {
					log.Infow("sqlite database backed up", "backup", created, "pruned", pruned)
				}
			}

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			res, err := db.Run(ctx, cfg, log)
			if err != nil {
				return fmt.Errorf("initdb failed at %s: %w", res.FailedAt, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Database schema created successfully (applied: %s, admin created: %t)\n",
				joinOrNone(res.Applied), res.AdminSeeded)
			return nil
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&envFile, "env-file", ".env", "Optional dotenv file loaded before reading the environment")
	flags.String("driver", db.DriverPostgres, "Database driver: postgres or sqlite")
	flags.String("database-url", "", "Connection string (default $DATABASE_URL)")
	flags.Duration("connect-timeout", 10*time.Second, "Timeout for establishing the connection")
	flags.Duration("statement-timeout", 60*time.Second, "Timeout for each initialization step")
	flags.Bool("verbose", false, "Log at debug level")
	flags.Bool("log-sql", false, "Log every SQL statement")

	rootCmd.Flags().Bool("seed", true, "Whether to insert the seed administrator")
	rootCmd.Flags().String("admin-name", db.DefaultAdminSeed().Name, "Seed administrator name")
	rootCmd.Flags().String("admin-email", db.DefaultAdminSeed().Email, "Seed administrator email")
	rootCmd.Flags().String("admin-password", "", "Seed administrator password, hashed with bcrypt (default: built-in hash)")
	rootCmd.Flags().Bool("backup", false, "Back up an existing SQLite database file before initializing")
	rootCmd.Flags().Int("max-backups", defaultMaxBackups, "Maximum number of SQLite backups to retain")

	_ = v.BindPFlags(flags)
	_ = v.BindPFlags(rootCmd.Flags())
	_ = v.BindEnv("database-url", databaseURLEnvVar)
	_ = v.BindEnv("driver", driverEnvVar)
	_ = v.BindEnv("admin-password", adminPasswordEnvVar)
	v.SetEnvKeyReplacer(strings.NewReplacer("-", "_"))
	v.AutomaticEnv() // binds environment variables to viper config

	rootCmd.AddCommand(newStatusCmd(v))
	return rootCmd
}

func configFrom(v *viper.Viper) db.Config {
	cfg := db.DefaultConfig()
	cfg.Driver = v.GetString("driver")
	cfg.DatabaseURL = v.GetString("database-url")
	cfg.ConnectTimeout = v.GetDuration("connect-timeout")
	cfg.StatementTimeout = v.GetDuration("statement-timeout")
	cfg.LogSQL = v.GetBool("log-sql")
	cfg.Seed = v.GetBool("seed")
	if name := v.GetString("admin-name"); name != "" {
		cfg.Admin.Name = name
	}
	if email := v.GetString("admin-email"); email != "" {
		cfg.Admin.Email = email
	}
	cfg.Admin.Password = v.GetString("admin-password")
	return cfg
}

// loadEnvFile loads a dotenv file without overriding variables already set.
// A missing file is not an error.
func loadEnvFile(path string) error {
	if path == "" {
		return nil
	}
	if _, err := os.Stat(path); errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err := godotenv.Load(path); err != nil {
		return fmt.Errorf("loading %s: %w", path, err)
	}
	return nil
}

func newLogger(verbose bool) (*zap.SugaredLogger, error) {
	zcfg := zap.NewProductionConfig()
	zcfg.Encoding = "console"
	zcfg.EncoderConfig = zap.NewDevelopmentEncoderConfig()
	if verbose {
		zcfg.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	}
	logger, err := zcfg.Build()
	if err != nil {
		return nil, fmt.Errorf("building logger: %w", err)
	}
	return logger.Sugar(), nil
}

func joinOrNone(versions []string) string {
	if len(versions) == 0 {
		return "none"
	}
	return strings.Join(versions, ", ")
}

func withTimeout(ctx context.Context, d time.Duration) (context.Context, context.CancelFunc) {
	if d <= 0 {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, d)
}
