package cmd

import (
	"fmt"
	"os"
	"time"

	"github.com/muhammadbaburrashid-jpg/Poke-pipeline/internal/api"
	"github.com/muhammadbaburrashid-jpg/Poke-pipeline/internal/config"
	"github.com/muhammadbaburrashid-jpg/Poke-pipeline/internal/etl"
	"github.com/muhammadbaburrashid-jpg/Poke-pipeline/internal/store"
	"github.com/spf13/cobra"
)

var (
	configPath string
	baseURL    string
	dbPath     string
	limit      int
	offset     int
)

func init() {
	rootCmd.Flags().StringVarP(&configPath, "config", "c", "", "Path to HCL config file")
	rootCmd.Flags().StringVar(&baseURL, "base-url", "", "API base URL")
	rootCmd.Flags().StringVar(&dbPath, "db", "", "SQLite database path")
	rootCmd.Flags().IntVar(&limit, "limit", 0, "How many pokemon to fetch")
	rootCmd.Flags().IntVar(&offset, "offset", 0, "List offset")
}

var rootCmd = &cobra.Command{
	Use:   "poke-pipeline",
	Short: "Fetch pokemon data from PokeAPI and load it into SQLite",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.Default()
		if configPath != "" {
			var err error
			cfg, err = config.Load(configPath)
			if err != nil {
				return err
			}
		}
		// Flags win over the config file.
		if cmd.Flags().Changed("base-url") {
			cfg.BaseURL = baseURL
		}
		if cmd.Flags().Changed("db") {
			cfg.DBPath = dbPath
		}
		if cmd.Flags().Changed("limit") {
			cfg.Limit = limit
		}
		if cmd.Flags().Changed("offset") {
			cfg.Offset = offset
		}

		st, err := store.Open(cfg.DBPath)
		if err != nil {
			return err
		}
		defer func() { _ = st.Close() }()

		client := api.New(cfg.BaseURL,
			api.WithRetries(cfg.MaxRetries),
			api.WithBackoff(cfg.Backoff()))

		pipe := etl.New(client, st, os.Stdout)

		start := time.Now()
		res, err := pipe.Run(cmd.Context(), cfg.Limit, cfg.Offset)
		if err != nil {
			return err
		}
		fmt.Printf("Done in %v: %d/%d pokemon loaded (%d failed), %d evolution edges. DB: %s\n",
			time.Since(start), res.Processed, res.Listed, res.Failed, res.Edges, cfg.DBPath)
		return nil
	},
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Println(err)
		os.Exit(1)
	}
}
