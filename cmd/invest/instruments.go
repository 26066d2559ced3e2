package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"invest-client/src/models"

	jsoniter "github.com/json-iterator/go"
	"github.com/spf13/cobra"
)

var (
	instrumentsJSON   bool
	instrumentsTicker string
)

var instrumentsCmd = &cobra.Command{
	Use:   "instruments",
	Short: "Load the instrument listing and print it",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := loadConfig()
		if err != nil {
			return err
		}
		a, err := newApp(cfg)
		if err != nil {
			return err
		}
		defer a.close()

		if err := a.bootstrap(cmd.Context()); err != nil {
			return err
		}

		list := a.caches.Instruments.All()
		if instrumentsTicker != "" {
			list, _ = a.caches.Instruments.GetByTicker(instrumentsTicker)
		}
		return printInstruments(cmd.OutOrStdout(), list, instrumentsJSON)
	},
}

func init() {
	instrumentsCmd.Flags().BoolVar(&instrumentsJSON, "json", false, "print JSON instead of a table")
	instrumentsCmd.Flags().StringVar(&instrumentsTicker, "ticker", "", "only instruments with this ticker")
}

// -----------------------------------------------------------------------------

func printInstruments(w io.Writer, list []models.MInstrument, asJSON bool) error {
	if asJSON {
		enc := jsoniter.ConfigCompatibleWithStandardLibrary.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(list)
	}

	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "UID\tTICKER\tCLASS\tFIGI\tKIND\tLOT\tSTEP\tSTATUS")
	for _, inst := range list {
		fmt.Fprintf(tw, "%s\t%s\t%s\t%s\t%s\t%d\t%s\t%s\n",
			inst.UID, inst.Ticker, inst.ClassCode, inst.Figi, inst.Kind, inst.Lot, inst.MinPriceIncrement, inst.TradingStatus)
	}
	return tw.Flush()
}
