package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/civium/aegis/internal/ledger"
	"github.com/civium/aegis/internal/ledger/pgstore"
	"github.com/civium/aegis/internal/ledger/sqlstore"
)

var (
	dbDriver string
	dbDSN    string
)

var rootCmd = &cobra.Command{
	Use:   "aegisctl",
	Short: "Audit and appeal tooling for the aegis decision ledger",
	Long:  "Inspects the hash-chained decision ledger, verifies its integrity, files appeals, and manages pause scopes directly against the backing store.",
}

func init() {
	rootCmd.PersistentFlags().StringVar(&dbDriver, "driver", "sqlite", "ledger store driver (sqlite or postgres)")
	rootCmd.PersistentFlags().StringVar(&dbDSN, "dsn", "aegis.db", "ledger store DSN")
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

type closableStore interface {
	ledger.Store
	Close() error
}

func openStore() (closableStore, error) {
	switch dbDriver {
	case "sqlite":
		s, err := sqlstore.OpenSQLite(dbDSN)
		if err != nil {
			return nil, fmt.Errorf("open sqlite store: %w", err)
		}
		if err := s.Migrate(); err != nil {
			_ = s.Close()
			return nil, fmt.Errorf("migrate sqlite store: %w", err)
		}
		return s, nil
	case "postgres":
		s, err := pgstore.OpenPostgres(dbDSN)
		if err != nil {
			return nil, fmt.Errorf("open postgres store: %w", err)
		}
		if err := s.Migrate(); err != nil {
			_ = s.Close()
			return nil, fmt.Errorf("migrate postgres store: %w", err)
		}
		return s, nil
	default:
		return nil, fmt.Errorf("unknown driver %q", dbDriver)
	}
}
