package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/m0n0x41d/crucible/internal/types"
)

var showRoundNum int

var showRoundCmd = &cobra.Command{
	Use:   "show-round",
	Short: "Print a persisted round artifact",
	Long: `Reads back the immutable artifact written by close-round: active set,
pending gates, convergence verdict, and the DAG validation stamp.`,
	Run: func(cmd *cobra.Command, args []string) {
		requireProposal()
		artifact, err := store.GetRoundArtifact(rootCtx, proposalID, showRoundNum)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		if jsonOutput {
			outputJSON(artifact)
			return
		}

		fmt.Printf("Round %d artifact %s (produced %s)\n",
			artifact.Round, artifact.ArtifactID, artifact.ProducedAt.Format("2006-01-02 15:04:05"))
		if artifact.ConvergenceState == types.ConvergenceClosed {
			fmt.Printf("  convergence: %s\n", closedStyle.Render("closed"))
		} else {
			fmt.Printf("  convergence: %s\n", openStyle.Render("open"))
		}
		fmt.Printf("  active items (%d):\n", len(artifact.ActiveSet))
		for _, id := range artifact.ActiveSet {
			fmt.Printf("    [%s]\n", displayID(id))
		}
		if len(artifact.PendingFlags) > 0 {
			fmt.Printf("  %s (%d):\n", flagStyle.Render("open ⚑ gates"), len(artifact.PendingFlags))
			for _, id := range artifact.PendingFlags {
				fmt.Printf("    [%s]\n", displayID(id))
			}
		}
		if artifact.DAGValidated {
			fmt.Printf("  DAG validated at %s\n", artifact.DAGValidatedAt.Format("2006-01-02 15:04:05"))
		} else {
			fmt.Println("  ⚠ DAG validation failed for this round")
		}
	},
}

func init() {
	showRoundCmd.Flags().IntVar(&showRoundNum, "round", 1, "round to show")
}
