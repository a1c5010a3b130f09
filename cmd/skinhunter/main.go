package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	skinhunter "github.com/raykavin/skinhunter"
	"github.com/raykavin/skinhunter/portfolio"
	"github.com/raykavin/skinhunter/steam"
	"github.com/schollz/progressbar/v3"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

func main() {
	rootCmd := &cobra.Command{
		Use:   "skinhunter",
		Short: "Steam Community Market price watcher and alert bot",
	}

	rootCmd.AddCommand(runCmd(), priceCmd(), checkCmd())

	if err := rootCmd.Execute(); err != nil {
		skinhunter.DefaultLog.Fatal(err)
	}
}

// runCmd starts the bot: background price monitor plus the Telegram
// front-end when a token is configured
func runCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Run the price monitor and notification bot",
		RunE: func(cmd *cobra.Command, args []string) error {
			settings, err := loadSettings()
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(
				context.Background(),
				os.Interrupt,
				syscall.SIGTERM,
			)
			defer stop()

			bot, err := skinhunter.NewBot(settings)
			if err != nil {
				return err
			}

			return bot.Run(ctx)
		},
	}
}

// priceCmd fetches a single market price and prints it
func priceCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "price <item name>",
		Short: "Fetch the current lowest market price of an item",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			settings, err := loadSettings()
			if err != nil {
				return err
			}

			client := steam.New(steam.Config{
				AppID:    settings.Steam.AppID,
				Currency: settings.Steam.Currency,
			}, skinhunter.DefaultLog)

			itemName := joinArgs(args)
			price, found := client.Price(cmd.Context(), itemName)
			if !found {
				return fmt.Errorf("no listing found for %q", itemName)
			}

			fmt.Printf("%s: $%s\n", itemName, price.StringFixed(2))
			return nil
		},
	}
}

// checkCmd scans a Steam inventory and prints a full appraisal table
func checkCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check <profile url or steam id>",
		Short: "Appraise the CS2 inventory of a Steam profile",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			settings, err := loadSettings()
			if err != nil {
				return err
			}

			steamID, err := steam.ExtractSteamID(joinArgs(args))
			if err != nil {
				return err
			}

			client := steam.New(steam.Config{
				AppID:    settings.Steam.AppID,
				Currency: settings.Steam.Currency,
			}, skinhunter.DefaultLog)

			ctx := cmd.Context()

			items, err := client.Inventory(ctx, steamID)
			if err != nil {
				return err
			}

			if len(items) == 0 {
				fmt.Println("No marketable items found.")
				return nil
			}

			bar := progressbar.Default(int64(len(items)))
			appraisal := portfolio.Appraise(ctx, steamID, items,
				func(ctx context.Context, itemName string) (decimal.Decimal, bool) {
					return client.PriceWithRetry(ctx, itemName, nil)
				},
				func(done, total int, itemName string) {
					_ = bar.Set(done)
				},
			)

			fmt.Println()
			fmt.Print(appraisal.String())

			if len(appraisal.Failed) > 0 {
				fmt.Printf("Unpriced items: %d\n", len(appraisal.Failed))
			}

			return nil
		},
	}
}

func joinArgs(args []string) string {
	out := args[0]
	for _, arg := range args[1:] {
		out += " " + arg
	}
	return out
}
