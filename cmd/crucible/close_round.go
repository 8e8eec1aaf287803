package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	crucible "github.com/m0n0x41d/crucible"
	"github.com/m0n0x41d/crucible/internal/types"
)

var (
	closeRoundNum int
	planAFile     string
	planBFile     string
)

var closeRoundCmd = &cobra.Command{
	Use:   "close-round",
	Short: "Persist the immutable round artifact",
	Long: `Freezes the round: validates the derivation DAG, computes the active
set and convergence state, and writes the round artifact. Plan text files,
when given, are embedded verbatim.`,
	Run: func(cmd *cobra.Command, args []string) {
		requireProposal()
		snap, err := crucible.LoadSnapshot(rootCtx, store, proposalID)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading snapshot: %v\n", err)
			os.Exit(1)
		}

		planText := map[types.Role]string{}
		for role, path := range map[types.Role]string{types.RoleA: planAFile, types.RoleB: planBFile} {
			if path == "" {
				continue
			}
			data, err := os.ReadFile(path)
			if err != nil {
				fmt.Fprintf(os.Stderr, "Error reading plan for role %s: %v\n", role, err)
				os.Exit(1)
			}
			planText[role] = string(data)
		}

		artifact, err := crucible.CloseRound(rootCtx, store, snap, closeRoundNum, planText)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error closing round: %v\n", err)
			os.Exit(1)
		}

		if jsonOutput {
			outputJSON(artifact)
			return
		}
		fmt.Printf("Round %d closed: artifact %s\n", artifact.Round, artifact.ArtifactID)
		fmt.Printf("  convergence: %s, active: %d, pending ⚑: %d\n",
			artifact.ConvergenceState, len(artifact.ActiveSet), len(artifact.PendingFlags))
		if !artifact.DAGValidated {
			fmt.Printf("  ⚠ %v; artifact records the failure\n", crucible.ValidateDAG(snap).Err())
		}
	},
}

func init() {
	closeRoundCmd.Flags().IntVar(&closeRoundNum, "round", 1, "round to close")
	closeRoundCmd.Flags().StringVar(&planAFile, "plan-a", "", "role A plan text file")
	closeRoundCmd.Flags().StringVar(&planBFile, "plan-b", "", "role B plan text file")
}
