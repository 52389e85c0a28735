package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"market-pulse/internal/app"
	"market-pulse/internal/market"
)

var (
	adviseAsset  string
	advisePrice  float64
	adviseChange float64
)

var adviseCmd = &cobra.Command{
	Use:   "advise",
	Short: "Evaluate advisory text for a given price point",
	RunE: func(cmd *cobra.Command, args []string) error {
		if advisePrice <= 0 {
			return fmt.Errorf("--price must be greater than zero")
		}

		opts := app.AdviseOptions{
			Asset:     adviseAsset,
			Price:     advisePrice,
			Change24h: adviseChange,
		}

		return getApp().Advise(opts)
	},
}

func init() {
	adviseCmd.Flags().StringVar(&adviseAsset, "asset", string(market.Bitcoin), "Tracked asset to evaluate")
	adviseCmd.Flags().Float64Var(&advisePrice, "price", 0, "Current USD price")
	adviseCmd.Flags().Float64Var(&adviseChange, "change", 0, "24h percent change")
}
