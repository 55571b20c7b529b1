package cmd

import (
	"fmt"
	"net/http"
	"time"

	"github.com/spf13/cobra"

	"github.com/MeKo-Tech/cardscan/internal/catalog"
)

// fetchCmd downloads a card catalog and writes it to disk.
var fetchCmd = &cobra.Command{
	Use:   "fetch",
	Short: "Download a card catalog from the dotgg API",
	Long: `Download the card catalog for a game from the dotgg card API and save it
as a local catalog file for scanning.

Examples:
  cardscan fetch
  cardscan fetch --game riftbound --output cards.json
  cardscan fetch --base-url https://api.dotgg.gg/cgfw/getcards`,
	Args:         cobra.NoArgs,
	SilenceUsage: true,
	RunE:         runFetchCommand,
}

func runFetchCommand(cmd *cobra.Command, args []string) error {
	cfg := GetConfig()

	baseURL := cfg.Fetch.BaseURL
	if cmd.Flags().Changed("base-url") {
		baseURL, _ = cmd.Flags().GetString("base-url")
	}
	if baseURL == "" {
		baseURL = catalog.DefaultBaseURL
	}

	game := cfg.Fetch.Game
	if cmd.Flags().Changed("game") {
		game, _ = cmd.Flags().GetString("game")
	}
	if game == "" {
		return fmt.Errorf("no game specified")
	}

	output := cfg.Fetch.Output
	if cmd.Flags().Changed("output") {
		output, _ = cmd.Flags().GetString("output")
	}
	if output == "" {
		output = "cards.json"
	}

	timeoutSec, _ := cmd.Flags().GetInt("timeout")
	client := &http.Client{Timeout: time.Duration(timeoutSec) * time.Second}

	cards, err := catalog.Fetch(cmd.Context(), client, baseURL, game)
	if err != nil {
		return fmt.Errorf("failed to fetch catalog: %w", err)
	}
	if len(cards) == 0 {
		return fmt.Errorf("catalog for %q is empty", game)
	}

	if err := catalog.Save(output, cards); err != nil {
		return fmt.Errorf("failed to save catalog: %w", err)
	}

	_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Saved %d cards to %s\n", len(cards), output)
	return nil
}

func init() {
	rootCmd.AddCommand(fetchCmd)
	fetchCmd.Flags().String("base-url", "", "card API base URL")
	fetchCmd.Flags().String("game", "", "game identifier, e.g. riftbound")
	fetchCmd.Flags().StringP("output", "o", "", "catalog file to write")
	fetchCmd.Flags().Int("timeout", 30, "download timeout in seconds")
}
