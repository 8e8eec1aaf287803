package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	crucible "github.com/m0n0x41d/crucible"
	"github.com/m0n0x41d/crucible/internal/config"
	"github.com/m0n0x41d/crucible/internal/provider"
	"github.com/m0n0x41d/crucible/internal/types"
)

var (
	critiqueRole  string
	critiqueRound int
	critiqueModel string
)

var critiqueCmd = &cobra.Command{
	Use:   "critique [proposal.md]",
	Short: "Ask the model to critique a proposal and ingest the result",
	Long: `Prompts the configured Anthropic model as one debate role, offering
the current active set as derivation targets, then runs the reply through
the same validation path as 'ingest'.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		requireProposal()
		role := types.Role(critiqueRole)
		if !role.Valid() {
			fmt.Fprintf(os.Stderr, "Error: --role must be A or B, got %q\n", critiqueRole)
			os.Exit(1)
		}

		proposal, err := os.ReadFile(args[0])
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error reading %s: %v\n", args[0], err)
			os.Exit(1)
		}

		snap, err := crucible.LoadSnapshot(rootCtx, store, proposalID)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading snapshot: %v\n", err)
			os.Exit(1)
		}

		if critiqueModel == "" {
			critiqueModel = config.GetString("model")
		}
		critic, err := provider.NewCritic(config.GetString("api-key"), critiqueModel)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		openItems := make([]string, 0)
		for _, id := range crucible.ActiveSet(snap) {
			if item, ok := snap.Items[id]; ok {
				openItems = append(openItems, fmt.Sprintf("%s (%s): %s", item.ID, item.Severity, item.Title))
			}
		}

		critiques, err := critic.Critique(rootCtx, role, critiqueRound, string(proposal), openItems)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		res, err := crucible.IngestRound(rootCtx, store, crucible.IngestInput{
			ProposalID:          proposalID,
			Role:                role,
			Round:               critiqueRound,
			Critiques:           critiques,
			Items:               snap.Items,
			Dispositions:        snap.Dispositions,
			ClosedItems:         snap.ClosedItems,
			SimilarityThreshold: config.GetFloat64("similarity-threshold"),
		})
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
			os.Exit(1)
		}

		if jsonOutput {
			outputJSON(ingestReport(res))
		} else {
			printIngestResult(res)
		}
		if len(res.Errors) > 0 {
			os.Exit(1)
		}
	},
}

func init() {
	critiqueCmd.Flags().StringVarP(&critiqueRole, "role", "r", "", "debate role (A or B)")
	critiqueCmd.Flags().IntVar(&critiqueRound, "round", 1, "debate round")
	critiqueCmd.Flags().StringVar(&critiqueModel, "model", "", "model override")
	_ = critiqueCmd.MarkFlagRequired("role")
}
