package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	crucible "github.com/m0n0x41d/crucible"
	"github.com/m0n0x41d/crucible/internal/config"
	"github.com/m0n0x41d/crucible/internal/types"
)

var (
	ingestRole  string
	ingestRound int
)

var ingestCmd = &cobra.Command{
	Use:   "ingest [critiques.json]",
	Short: "Ingest one role's critiques for a round",
	Long: `Validates and mints a critique list parsed from model output.
The file holds a JSON array of raw critiques. All structural errors are
reported together and nothing is written when any is present.`,
	Args: cobra.ExactArgs(1),
	Run: func(cmd *cobra.Command, args []string) {
		requireProposal()
		role := types.Role(ingestRole)
		if !role.Valid() {
			fmt.Fprintf(os.Stderr, "Error: --role must be A or B, got %q\n", ingestRole)
			os.Exit(1)
		}

		data, err := os.ReadFile(args[0])
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error reading %s: %v\n", args[0], err)
			os.Exit(1)
		}
		var critiques []crucible.RawCritique
		if err := json.Unmarshal(data, &critiques); err != nil {
			fmt.Fprintf(os.Stderr, "Error parsing %s: %v\n", args[0], err)
			os.Exit(1)
		}

		snap, err := crucible.LoadSnapshot(rootCtx, store, proposalID)
		if err != nil {
			fmt.Fprintf(os.Stderr, "Error loading snapshot: %v\n", err)
			os.Exit(1)
		}

		res, err := crucible.IngestRound(rootCtx, store, crucible.IngestInput{
			ProposalID:          proposalID,
			Role:                role,
			Round:               ingestRound,
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
	ingestCmd.Flags().StringVarP(&ingestRole, "role", "r", "", "debate role (A or B)")
	ingestCmd.Flags().IntVar(&ingestRound, "round", 1, "debate round")
	_ = ingestCmd.MarkFlagRequired("role")
}

// ingestReport shapes the result for JSON output, stringifying errors.
func ingestReport(res *crucible.IngestResult) map[string]any {
	errs := make([]string, 0, len(res.Errors))
	for _, e := range res.Errors {
		errs = append(errs, e.Error())
	}
	return map[string]any{
		"minted_items":        res.MintedItems,
		"disposition_records": res.DispositionRecords,
		"warnings":            res.Warnings,
		"errors":              errs,
	}
}

func printIngestResult(res *crucible.IngestResult) {
	if len(res.Errors) > 0 {
		fmt.Fprintf(os.Stderr, "Rejected: %d error(s), nothing written\n", len(res.Errors))
		for _, e := range res.Errors {
			fmt.Fprintf(os.Stderr, "  ✗ %v\n", e)
		}
		return
	}
	for _, item := range res.MintedItems {
		fmt.Printf("  %s  [%s] %s\n", styleSeverity(item.Severity), item.DisplayID, item.Title)
	}
	fmt.Printf("Minted %d item(s), %d disposition(s)\n", len(res.MintedItems), len(res.DispositionRecords))
	for _, w := range res.Warnings {
		fmt.Printf("  ⚠ %s\n", w.Message)
	}
}
