package main

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"

	crucible "github.com/m0n0x41d/crucible"
	"github.com/m0n0x41d/crucible/internal/config"
	"github.com/m0n0x41d/crucible/internal/debug"
	"github.com/m0n0x41d/crucible/internal/telemetry"
)

var (
	rootCtx    = context.Background()
	store      crucible.Storage
	jsonOutput bool
	dbPath     string
	proposalID string
)

var rootCmd = &cobra.Command{
	Use:   "crucible",
	Short: "Adversarial planning pipeline for two-model debates",
	Long: `crucible tracks the critique and disposition pipeline of a structured
two-model planning debate: content-addressed critique items, authority-ranked
dispositions, active-set convergence, and synthesis gap auditing.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		if err := config.Initialize(); err != nil {
			return err
		}
		if err := telemetry.Init(rootCtx, "crucible", Version); err != nil {
			debug.Logf("telemetry init failed: %v\n", err)
		}
		if dbPath == "" {
			dbPath = config.DBPath()
		}
		if jsonOutput || config.GetBool("json") {
			jsonOutput = true
		}
		var err error
		store, err = crucible.NewSQLiteStorage(rootCtx, dbPath)
		if err != nil {
			return fmt.Errorf("open store at %s: %w", dbPath, err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if store != nil {
			_ = store.Close()
		}
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		telemetry.Shutdown(shutdownCtx)
	},
}

func init() {
	rootCmd.PersistentFlags().StringVar(&dbPath, "db", "", "database path (default .crucible/crucible.db)")
	rootCmd.PersistentFlags().StringVarP(&proposalID, "proposal", "p", "", "proposal ID")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "machine-readable JSON output")

	rootCmd.AddCommand(ingestCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(lineageCmd)
	rootCmd.AddCommand(gapsCmd)
	rootCmd.AddCommand(closeRoundCmd)
	rootCmd.AddCommand(showRoundCmd)
	rootCmd.AddCommand(critiqueCmd)
	rootCmd.AddCommand(versionCmd)
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the crucible version",
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return nil // no store needed
	},
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("crucible %s\n", Version)
	},
}

// requireProposal exits when --proposal is missing; every data command needs it.
func requireProposal() {
	if proposalID == "" {
		fmt.Fprintln(os.Stderr, "Error: --proposal is required")
		os.Exit(1)
	}
}

// outputJSON prints v as indented JSON on stdout.
func outputJSON(v any) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(v); err != nil {
		fmt.Fprintf(os.Stderr, "Error encoding JSON: %v\n", err)
		os.Exit(1)
	}
}
