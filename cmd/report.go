package main

import (
	"encoding/json"
	"fmt"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/silversky/crm-enrich/internal/ingest"
	"github.com/silversky/crm-enrich/internal/quality"
)

var reportFlags struct {
	input    string
	jsonMode bool
}

var reportCmd = &cobra.Command{
	Use:   "report",
	Short: "Analyze data quality of an input file",
	RunE: func(cmd *cobra.Command, args []string) error {
		records, err := ingest.Read(reportFlags.input)
		if err != nil {
			return err
		}

		rep := quality.Analyze(records)

		if reportFlags.jsonMode {
			data, err := json.MarshalIndent(rep, "", "  ")
			if err != nil {
				return eris.Wrap(err, "report: marshal")
			}
			fmt.Println(string(data))
			return nil
		}

		fmt.Print(rep.Render())
		return nil
	},
}

func init() {
	f := reportCmd.Flags()
	f.StringVarP(&reportFlags.input, "input", "i", "", "input file (.xlsx or .csv)")
	f.BoolVar(&reportFlags.jsonMode, "json", false, "emit the report as JSON")
	_ = reportCmd.MarkFlagRequired("input")
	rootCmd.AddCommand(reportCmd)
}
