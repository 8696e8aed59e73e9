package scorezk

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/mynextid/private-score/common"
	"github.com/mynextid/private-score/indexer"
	"github.com/mynextid/private-score/metrics"
	"github.com/mynextid/private-score/models"
	"github.com/mynextid/private-score/scoring"
	"github.com/mynextid/private-score/service"
	"github.com/pterm/pterm"
	"github.com/spf13/cobra"
)

type scoreConfig struct {
	eventsFile string
	indexerURL string
	apiKey     string
	timeout    time.Duration
	limit      int
	asJSON     bool
}

func NewScoreCmd() *cobra.Command {
	cfg := &scoreConfig{}

	cmd := &cobra.Command{
		Use:   "score [address]",
		Short: "Compute a credit score offline",
		Long:  `Compute the credit score of a wallet from the transaction indexer, or of a JSON file with activity events.`,
		Example: `  # Score a wallet through the indexer
  scorezk score 7xKXtg2CW87d97TXJSDpbD5jBkheTqA83TZRuJosgAsU --indexer-url https://indexer.example.com

  # Score a recorded activity history
  scorezk score --events ./activity.json`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			address := ""
			if len(args) == 1 {
				address = args[0]
			}
			return runScore(cmd.Context(), cmd.OutOrStdout(), cfg, address)
		},
	}

	cmd.Flags().StringVarP(&cfg.eventsFile, "events", "e", "", "JSON file with activity events")
	cmd.Flags().StringVar(&cfg.indexerURL, "indexer-url", "", "Transaction indexer base URL")
	cmd.Flags().StringVar(&cfg.apiKey, "indexer-api-key", os.Getenv("PRIVATESCORE_INDEXER_API_KEY"), "Indexer API key")
	cmd.Flags().DurationVar(&cfg.timeout, "timeout", 30*time.Second, "Indexer request timeout")
	cmd.Flags().IntVar(&cfg.limit, "limit", service.DefaultHistoryLimit, "Maximum transactions fetched")
	cmd.Flags().BoolVar(&cfg.asJSON, "json", false, "Print the result as JSON")

	return cmd
}

func loadEvents(path string) (indexer.Static, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read events: %w", err)
	}
	var events []models.ActivityEvent
	if err := json.Unmarshal(b, &events); err != nil {
		return nil, fmt.Errorf("failed to parse events: %w", err)
	}
	return indexer.Static(events), nil
}

func runScore(ctx context.Context, out io.Writer, cfg *scoreConfig, address string) error {
	var ix indexer.Indexer
	switch {
	case cfg.eventsFile != "":
		events, err := loadEvents(cfg.eventsFile)
		if err != nil {
			return err
		}
		ix = events
	case cfg.indexerURL != "":
		if address == "" {
			return fmt.Errorf("an address is required with --indexer-url")
		}
		ix = indexer.NewClient(cfg.indexerURL, cfg.apiKey, &http.Client{Timeout: cfg.timeout}, common.NopLogger{})
	default:
		return fmt.Errorf("either --events or --indexer-url is required")
	}

	events, err := ix.FetchActivity(ctx, address, indexer.Options{Limit: cfg.limit})
	if err != nil {
		return err
	}

	now := time.Now().UTC()
	m := metrics.Aggregate(events, now)
	result := scoring.Score(m, now)

	if cfg.asJSON {
		enc := json.NewEncoder(out)
		enc.SetIndent("", "  ")
		return enc.Encode(service.Assessment{Metrics: m, Result: result})
	}
	return renderScore(address, len(events), result)
}

func renderScore(address string, events int, r models.CreditScoreResult) error {
	title := "Credit score"
	if address != "" {
		title += " of " + address
	}
	pterm.DefaultHeader.WithFullWidth().Println(title)
	pterm.Info.Printfln("%d events, score %d (%s)", events, r.Score, r.Tier)

	names := []string{"Payment history", "Credit utilization", "Account history", "Protocol diversity", "Recent activity"}
	data := [][]string{{"Component", "Score", "Weight", "Weighted", "Rating", "Details"}}
	for i, c := range r.Breakdown.Components() {
		data = append(data, []string{
			names[i],
			fmt.Sprintf("%.1f", c.Score),
			fmt.Sprintf("%.0f%%", c.Weight),
			fmt.Sprintf("%.2f", c.Weighted),
			string(c.Rating),
			c.Details,
		})
	}
	if err := pterm.DefaultTable.WithHasHeader().WithHeaderRowSeparator("-").WithData(data).Render(); err != nil {
		return err
	}

	if len(r.Recommendations) == 0 {
		pterm.Success.Println("No recommendations")
		return nil
	}
	items := make([]pterm.BulletListItem, len(r.Recommendations))
	for i, rec := range r.Recommendations {
		items[i] = pterm.BulletListItem{Text: fmt.Sprintf("[%s] %s: %s", rec.Priority, rec.Title, rec.Description)}
	}
	return pterm.DefaultBulletList.WithItems(items).Render()
}
