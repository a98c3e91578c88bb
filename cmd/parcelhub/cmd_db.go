package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"text/tabwriter"
	"time"

	"github.com/spf13/cobra"

	"github.com/shashiranjanraj/parcelhub/app/models"
	"github.com/shashiranjanraj/parcelhub/app/repositories"
	"github.com/shashiranjanraj/parcelhub/app/services"
	"github.com/shashiranjanraj/parcelhub/config"
	"github.com/shashiranjanraj/parcelhub/database/seeders"
	"github.com/shashiranjanraj/parcelhub/internal/kernel"
	"github.com/shashiranjanraj/parcelhub/pkg/database"
)

// bootDB loads config and opens the database connection.
func bootDB(ctx context.Context) (*database.DB, error) {
	if err := config.Load(); err != nil {
		return nil, err
	}
	return kernel.OpenDB(ctx)
}

// parcelhub db:indexes
var dbIndexesCmd = &cobra.Command{
	Use:   "db:indexes",
	Short: "Create the MongoDB indexes the service relies on",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
		defer cancel()

		db, err := bootDB(ctx)
		if err != nil {
			return err
		}
		defer db.Close(context.Background())

		names, err := db.EnsureIndexes(ctx)
		for _, n := range names {
			fmt.Println("✅ ", n)
		}
		return err
	},
}

// parcelhub db:seed
var dbSeedCmd = &cobra.Command{
	Use:   "db:seed",
	Short: "Insert the demo admin, rider and parcel",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
		defer cancel()

		db, err := bootDB(ctx)
		if err != nil {
			return err
		}
		defer db.Close(context.Background())

		fmt.Println("🌱 Seeding database…")
		if err := seeders.RunAll(ctx, repositories.NewMongo(db), os.Stdout); err != nil {
			return err
		}
		fmt.Println("✅ Seeding complete")
		return nil
	},
}

var cascadeState string
var cascadeLimit int

// parcelhub cascades:list
var cascadesListCmd = &cobra.Command{
	Use:   "cascades:list",
	Short: "List cascade records (payment→parcel, rider→user role)",
	RunE: func(cmd *cobra.Command, args []string) error {
		var state models.CascadeState
		if cascadeState != "" {
			st, err := models.ParseCascadeState(cascadeState)
			if err != nil {
				return err
			}
			state = st
		}

		ctx, cancel := context.WithTimeout(cmd.Context(), 30*time.Second)
		defer cancel()

		db, err := bootDB(ctx)
		if err != nil {
			return err
		}
		defer db.Close(context.Background())

		log := services.NewCascadeLog(repositories.NewCascadeRepository(db.Collection(database.Cascades)))
		records, err := log.List(ctx, state, cascadeLimit)
		if err != nil {
			return err
		}
		return printCascades(os.Stdout, records)
	},
}

func init() {
	cascadesListCmd.Flags().StringVar(&cascadeState, "state", "", "pending, applied, unmatched or failed")
	cascadesListCmd.Flags().IntVar(&cascadeLimit, "limit", 50, "maximum records to show (0 for all)")
}

func printCascades(out io.Writer, records []models.Cascade) error {
	if len(records) == 0 {
		fmt.Fprintln(out, "No cascade records.")
		return nil
	}
	w := tabwriter.NewWriter(out, 0, 0, 3, ' ', 0)
	fmt.Fprintln(w, "CREATED\tKIND\tSTATE\tSOURCE\tTARGET\tDETAIL")
	for _, c := range records {
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\t%s\t%s\n",
			c.CreatedAt.Format(time.RFC3339), c.Kind, c.State, c.SourceID, c.Target, c.Detail)
	}
	return w.Flush()
}
