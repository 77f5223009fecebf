package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/silversky/crm-enrich/internal/classify"
	"github.com/silversky/crm-enrich/internal/ingest"
	"github.com/silversky/crm-enrich/internal/location"
	"github.com/silversky/crm-enrich/internal/model"
	"github.com/silversky/crm-enrich/internal/output"
)

var exportFlags struct {
	input  string
	output string
}

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export only perfectly aligned records to a clean CSV",
	RunE: func(cmd *cobra.Command, args []string) error {
		records, err := ingest.Read(exportFlags.input)
		if err != nil {
			return err
		}

		normalizer := location.NewNormalizer()
		var kept []model.Record
		cityCleared := 0

		for _, rec := range records {
			tier, _ := classify.TierStrict(rec)
			if tier != classify.TierPerfect {
				continue
			}
			clean := rec.Clone()
			if city := clean.Get(model.FundCity); city != "" && !classify.IsCityLike(city) {
				clean.Set(model.FundCity, "")
				cityCleared++
			}
			clean.Set(model.FundCountry, normalizer.CanonicalCountry(clean.Get(model.FundCountry)))
			kept = append(kept, clean)
		}

		if err := output.WriteSourceCSV(exportFlags.output, kept); err != nil {
			return err
		}

		zap.L().Info("export done",
			zap.Int("total", len(records)),
			zap.Int("exported", len(kept)),
			zap.Int("city_cleared", cityCleared),
		)
		fmt.Printf("exported %d/%d records to %s\n", len(kept), len(records), exportFlags.output)
		return nil
	},
}

func init() {
	f := exportCmd.Flags()
	f.StringVarP(&exportFlags.input, "input", "i", "", "input file (.xlsx or .csv)")
	f.StringVarP(&exportFlags.output, "output", "o", "clean.csv", "output CSV path")
	_ = exportCmd.MarkFlagRequired("input")
	rootCmd.AddCommand(exportCmd)
}
