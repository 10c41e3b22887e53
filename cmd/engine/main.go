package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/spf13/cobra"

	"github.com/patternlab/puf-engine/internal/api"
	"github.com/patternlab/puf-engine/internal/dataset"
	"github.com/patternlab/puf-engine/internal/db"
	"github.com/patternlab/puf-engine/internal/jobs"
	"github.com/patternlab/puf-engine/internal/mining"
	"github.com/patternlab/puf-engine/internal/runner"
)

func main() {
	root := &cobra.Command{
		Use:           "puf-engine",
		Short:         "Frequent pattern mining over uncertain transactional databases",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.AddCommand(newServeCmd(), newMineCmd(), newGenCmd())

	if err := root.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

// newMineCmd mines a database file in batch mode.
func newMineCmd() *cobra.Command {
	var (
		inPath  string
		outPath string
		minSup  float64
		sep     string
	)

	cmd := &cobra.Command{
		Use:   "mine",
		Short: "Mine an uncertain database file and write the frequent patterns",
		RunE: func(cmd *cobra.Command, args []string) error {
			loader := &dataset.FileLoader{Path: inPath, Sep: sep}
			database, err := loader.Load()
			if err != nil {
				return err
			}

			result, err := mining.Mine(database, minSup)
			if err != nil {
				return err
			}

			sink := &dataset.FileSink{Path: outPath}
			if err := sink.Write(result.Patterns); err != nil {
				return err
			}

			log.Printf("Mined %d patterns from %d transactions (%d frequent items, %d false positives removed) in %.2fms",
				len(result.Patterns), result.Stats.TransactionCount,
				result.Stats.FrequentItemCount, result.Stats.FalsePositives, result.Stats.RuntimeMs)
			return nil
		},
	}

	cmd.Flags().StringVar(&inPath, "in", "", "input database file (itemId(probability) tokens, one transaction per line)")
	cmd.Flags().StringVar(&outPath, "out", "", "output pattern file")
	cmd.Flags().Float64Var(&minSup, "min-sup", 0, "expected-support threshold (absolute)")
	cmd.Flags().StringVar(&sep, "sep", "\t", "token separator in the input file")
	_ = cmd.MarkFlagRequired("in")
	_ = cmd.MarkFlagRequired("out")
	_ = cmd.MarkFlagRequired("min-sup")

	return cmd
}

// newGenCmd produces a synthetic uncertain database file.
func newGenCmd() *cobra.Command {
	var (
		outPath      string
		transactions int
		items        int
		avgLength    int
		seed         int64
		sep          string
	)

	cmd := &cobra.Command{
		Use:   "gen",
		Short: "Generate a synthetic uncertain database",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := dataset.GeneratorConfig{
				Transactions: transactions,
				Items:        items,
				AvgLength:    avgLength,
				Seed:         seed,
			}
			if err := dataset.GenerateFile(outPath, sep, cfg); err != nil {
				return err
			}
			log.Printf("Generated %d transactions over %d items into %s", transactions, items, outPath)
			return nil
		},
	}

	cmd.Flags().StringVar(&outPath, "out", "", "output database file")
	cmd.Flags().IntVar(&transactions, "transactions", 100000, "number of transactions")
	cmd.Flags().IntVar(&items, "items", 870, "size of the item universe")
	cmd.Flags().IntVar(&avgLength, "avg-length", 10, "average transaction length")
	cmd.Flags().Int64Var(&seed, "seed", 1, "RNG seed")
	cmd.Flags().StringVar(&sep, "sep", "\t", "token separator in the output file")
	_ = cmd.MarkFlagRequired("out")

	return cmd
}

// newServeCmd runs the mining API server.
func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the mining engine API server",
		RunE: func(cmd *cobra.Command, args []string) error {
			runServer()
			return nil
		},
	}
}

func runServer() {
	log.Println("Starting PUF Mining Engine (service: uncertain-pattern-miner)...")

	// ─── Required Environment Variables ─────────────────────────────────
	// All credentials MUST come from environment variables. No fallback
	// defaults for security-sensitive values.
	// ────────────────────────────────────────────────────────────────────

	dbUrl := requireEnv("DATABASE_URL")

	dbConn, err := db.Connect(dbUrl)
	if err != nil {
		log.Printf("Warning: Failed to connect to PostgreSQL, continuing without dataset or job persistence. Error: %v", err)
	} else {
		defer dbConn.Close()
		if err := dbConn.InitSchema(); err != nil {
			log.Printf("Warning: DB schema init failed: %v", err)
		}
	}

	// Setup WebSocket Hub
	wsHub := api.NewHub()
	go wsHub.Run()

	// Setup the mining runner and, when a database is available, the job
	// queue poller that feeds it.
	var miningRunner *runner.Runner
	if dbConn != nil {
		miningRunner = runner.New(dbConn, api.BroadcastMiningAlert(wsHub))

		poller := jobs.NewPoller(dbConn, wsHub, miningRunner)
		ctx, cancel := context.WithCancel(context.Background())
		defer cancel()
		go poller.Run(ctx)
	} else {
		log.Println("WARNING: PostgreSQL unavailable — engine running in API-only mode (synchronous mining only)")
	}

	// Setup the Gin Router
	r := api.SetupRouter(dbConn, wsHub, miningRunner)

	port := getEnvOrDefault("PORT", "5341")

	// Start the server
	log.Printf("Engine running on :%s (API node: uncertain-pattern-miner)\n", port)
	if err := r.Run(":" + port); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

// requireEnv reads a required environment variable and exits if it is not set.
// This prevents the binary from starting with missing critical configuration.
func requireEnv(key string) string {
	val := os.Getenv(key)
	if val == "" {
		log.Fatalf("FATAL: Required environment variable %s is not set.", key)
	}
	return val
}

// getEnvOrDefault returns the env var value or a safe default for non-secret settings.
func getEnvOrDefault(key, fallback string) string {
	if val := os.Getenv(key); val != "" {
		return val
	}
	return fallback
}
