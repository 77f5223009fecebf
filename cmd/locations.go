package main

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/silversky/crm-enrich/internal/ingest"
	"github.com/silversky/crm-enrich/internal/location"
	"github.com/silversky/crm-enrich/internal/output"
)

var locationsFlags struct {
	input  string
	output string
}

var locationsCmd = &cobra.Command{
	Use:   "locations",
	Short: "Standardize country and city fields to ISO / UN-LOCODE codes",
	RunE: func(cmd *cobra.Command, args []string) error {
		records, err := ingest.Read(locationsFlags.input)
		if err != nil {
			return err
		}

		stats := location.NewNormalizer().Apply(records)

		if err := output.WriteSourceCSV(locationsFlags.output, records); err != nil {
			return err
		}

		zap.L().Info("locations standardized",
			zap.Int("total", stats.Total),
			zap.Int("countries_mapped", stats.CountriesMapped),
			zap.Int("cities_mapped", stats.CitiesMapped),
		)
		fmt.Printf("mapped %d countries, %d cities across %d records\n",
			stats.CountriesMapped, stats.CitiesMapped, stats.Total)
		for _, c := range stats.UnmappedCountries {
			fmt.Printf("unmapped country: %s\n", c)
		}
		for _, c := range stats.UnmappedCities {
			fmt.Printf("unmapped city: %s\n", c)
		}
		return nil
	},
}

func init() {
	f := locationsCmd.Flags()
	f.StringVarP(&locationsFlags.input, "input", "i", "", "input file (.xlsx or .csv)")
	f.StringVarP(&locationsFlags.output, "output", "o", "standardized.csv", "output CSV path")
	_ = locationsCmd.MarkFlagRequired("input")
	rootCmd.AddCommand(locationsCmd)
}
