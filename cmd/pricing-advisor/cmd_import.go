package main

import (
	"fmt"

	"github.com/iwvelando/pricing-advisor/internal/refdata"
	"github.com/spf13/cobra"
)

func (a *app) importCmd() *cobra.Command {
	var fromDir, dbPath string
	cmd := &cobra.Command{
		Use:   "import",
		Short: "Load the CSV reference tables into a SQLite database",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			if fromDir == "" {
				fromDir = a.conf.Data.Dir
			}
			if dbPath == "" {
				dbPath = a.conf.Data.Database
			}
			if dbPath == "" {
				return fmt.Errorf("no database path: pass --db or set data.database")
			}

			ctx := commandContext(cmd)
			snap, err := refdata.LoadCSV(a.logger, fromDir)
			if err != nil {
				return err
			}
			tables, err := snap.Tables(ctx)
			if err != nil {
				return err
			}

			db, err := refdata.OpenSQLite(a.logger, dbPath)
			if err != nil {
				return err
			}
			defer func() { _ = db.Close() }()

			if err := db.Import(ctx, tables); err != nil {
				return err
			}
			_, err = fmt.Fprintf(a.out, "Imported %d products, %d customers, %d costs, %d policies and %d orders into %s\n",
				len(tables.Products), len(tables.Customers), len(tables.Costs), len(tables.Policies), len(tables.Orders), dbPath)
			return err
		},
	}
	cmd.Flags().StringVar(&fromDir, "from", "", "directory holding the CSV tables (defaults to data.dir)")
	cmd.Flags().StringVar(&dbPath, "db", "", "SQLite database path (defaults to data.database)")
	return cmd
}
