package cmd

import (
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/activebook/reportflow/internal/ui"
	"github.com/activebook/reportflow/service"
)

var (
	chartPeriod   string
	chartExchange string
	chartSavePNG  string
	chartNoImage  bool
)

var chartCmd = &cobra.Command{
	Use:   "chart <ticker>",
	Short: "Fetch a stock chart for a ticker",
	Long: `Fetch price data and a rendered chart for a stock ticker from the
transform service. Use --save-png to keep the chart image; --no-image
skips the image entirely for a faster, lighter response.`,
	Example: `  reportflow chart TCS
  reportflow chart RELIANCE --period 1y --save-png reliance.png
  reportflow chart INFY --exchange BSE --no-image`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ticker := strings.ToUpper(strings.TrimSpace(args[0]))

		if chartPeriod == "" {
			chartPeriod = viper.GetString("default.period")
		}
		if !service.ValidChartPeriod(chartPeriod) {
			return fmt.Errorf("invalid period '%s' (must be one of: %s)",
				chartPeriod, strings.Join(service.ChartPeriods, ", "))
		}
		if chartExchange == "" {
			chartExchange = viper.GetString("default.exchange")
		}
		chartExchange = strings.ToUpper(chartExchange)
		if !service.ValidChartExchange(chartExchange) {
			return fmt.Errorf("invalid exchange '%s' (must be one of: %s)",
				chartExchange, strings.Join(service.ChartExchanges, ", "))
		}

		client := service.NewClient(viper.GetString("service.endpoint"))

		ui.GetIndicator().Start(fmt.Sprintf("Fetching %s", ticker))
		var chart *service.ChartData
		var err error
		if chartNoImage && chartSavePNG == "" {
			chart, err = client.ChartDataOnly(context.Background(), ticker, chartPeriod, chartExchange)
		} else {
			chart, err = client.Chart(context.Background(), ticker, chartPeriod, chartExchange)
		}
		ui.GetIndicator().Stop()
		if err != nil {
			return err
		}

		fmt.Println(service.RenderChartCard(chart))

		if chartSavePNG != "" {
			if err := service.SaveChartImage(chart, chartSavePNG); err != nil {
				return err
			}
			fmt.Printf("Chart image saved to %s\n", chartSavePNG)
		}
		return nil
	},
}

func init() {
	chartCmd.Flags().StringVarP(&chartPeriod, "period", "p", "", "History period: 1mo, 3mo, 6mo, 1y or 2y")
	chartCmd.Flags().StringVarP(&chartExchange, "exchange", "e", "", "Exchange: NSE or BSE")
	chartCmd.Flags().StringVar(&chartSavePNG, "save-png", "", "Write the chart image to this file")
	chartCmd.Flags().BoolVar(&chartNoImage, "no-image", false, "Skip the chart image payload")
	rootCmd.AddCommand(chartCmd)
}
