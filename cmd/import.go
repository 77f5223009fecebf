package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/silversky/crm-enrich/internal/classify"
	"github.com/silversky/crm-enrich/internal/ingest"
	"github.com/silversky/crm-enrich/internal/model"
)

var importFlags struct {
	input   string
	preview int
}

var importCmd = &cobra.Command{
	Use:   "import",
	Short: "Parse an input file and preview what enrichment would see",
	RunE: func(cmd *cobra.Command, args []string) error {
		records, err := ingest.Read(importFlags.input)
		if err != nil {
			return err
		}

		tiers := make(map[string]int)
		for _, rec := range records {
			tiers[classify.TierLoose(rec).String()]++
		}

		fmt.Printf("parsed %d records from %s\n", len(records), importFlags.input)
		fmt.Printf("tiers: perfect=%d good=%d fair=%d poor=%d\n",
			tiers["perfect"], tiers["good"], tiers["fair"], tiers["poor"])

		limit := importFlags.preview
		if limit > len(records) {
			limit = len(records)
		}
		for i := 0; i < limit; i++ {
			rec := records[i]
			first, last := rec.ContactName()
			fmt.Printf("%3d  %-30s %s %s <%s>\n",
				i, rec.Get(model.FundTitle), first, last, rec.Get(model.PocEmail))
		}
		return nil
	},
}

func init() {
	f := importCmd.Flags()
	f.StringVarP(&importFlags.input, "input", "i", "", "input file (.xlsx or .csv)")
	f.IntVar(&importFlags.preview, "preview", 10, "rows to preview")
	_ = importCmd.MarkFlagRequired("input")
	rootCmd.AddCommand(importCmd)
}
