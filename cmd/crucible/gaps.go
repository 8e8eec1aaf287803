package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	crucible "github.com/m0n0x41d/crucible"
)

var gapsCmd = &cobra.Command{
	Use:   "gaps [plan.json]",
	Short: "Audit a synthesis plan against the blocking active items",
	Long: `Checks that every blocking active item is mentioned in the synthesis
plan (by display ID or normalized title prefix). Exits non-zero when gaps
exist; the round must not finalize until they are addressed.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		requireProposal()
		data, err := os.ReadFile(args[0])
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error reading %s: %v\n", args[0], err)
			os.Exit(1)
		}
		var plan crucible.SynthesisPlan
		if err := json.Unmarshal(data, &plan); err != nil {
			fmt.Fprintf(os.Stderr, "Error parsing %s: %v\n", args[0], err)
			os.Exit(1)
		}

		snap, err := crucible.LoadSnapshot(rootCtx, store, proposalID)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading snapshot: %v\n", err)
			os.Exit(1)
		}

		gaps := crucible.SynthesisGaps(snap, &plan)
		if jsonOutput {
			outputJSON(map[string]any{"gaps": gaps, "complete": len(gaps) == 0})
		} else if len(gaps) == 0 {
			fmt.Println("✓ Every blocking active item is addressed")
		} else {
			fmt.Printf("Synthesis plan leaves %d blocking item(s) unaddressed:\n", len(gaps))
			for _, item := range gaps {
				fmt.Printf("  ✗ [%s] %s\n", item.DisplayID, item.Title)
			}
		}
		if len(gaps) > 0 {
			os.Exit(1)
		}
	},
}
