package indexer

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/mynextid/private-score/common"
	"github.com/mynextid/private-score/models"
)

const (
	DefaultLimit = 100
	maxPageSize  = 100
	maxBodyBytes = 8 << 20
)

var ErrUnexpectedStatus = errors.New("unexpected indexer status")

// Client reads the enhanced transactions API at
// {BaseURL}/v0/addresses/{address}/transactions
type Client struct {
	baseURL string
	apiKey  string
	client  *http.Client
	logger  common.Logger
}

// NewClient creates a client. A nil httpClient gets a 10s timeout.
func NewClient(baseURL, apiKey string, httpClient *http.Client, logger common.Logger) *Client {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 10 * time.Second}
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		apiKey:  apiKey,
		client:  httpClient,
		logger:  common.OrNop(logger),
	}
}

var _ Indexer = (*Client)(nil)

// FetchActivity pages through the history of address until opts.Limit
// transactions were read or the history ends
func (c *Client) FetchActivity(ctx context.Context, address string, opts Options) ([]models.ActivityEvent, error) {
	if address == "" {
		return nil, errors.New("empty address")
	}
	limit := opts.Limit
	if limit <= 0 {
		limit = DefaultLimit
	}

	var (
		events []models.ActivityEvent
		before = opts.Before
		read   int
	)
	for read < limit {
		page := min(maxPageSize, limit-read)
		txs, err := c.fetchPage(ctx, address, page, before, opts)
		if err != nil {
			return nil, err
		}
		read += len(txs)
		events = append(events, ClassifyAll(txs)...)

		if len(txs) < page {
			break
		}
		before = txs[len(txs)-1].Signature
	}

	c.logger.Debug("indexer history read", "address", address, "transactions", read, "events", len(events))
	return events, nil
}

func (c *Client) fetchPage(ctx context.Context, address string, limit int, before string, opts Options) ([]Transaction, error) {
	q := url.Values{}
	if c.apiKey != "" {
		q.Set("api-key", c.apiKey)
	}
	q.Set("limit", strconv.Itoa(limit))
	if before != "" {
		q.Set("before", before)
	}
	if opts.Until != "" {
		q.Set("until", opts.Until)
	}
	if opts.Type != "" {
		q.Set("type", opts.Type)
	}
	u := fmt.Sprintf("%s/v0/addresses/%s/transactions?%s", c.baseURL, url.PathEscape(address), q.Encode())

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return nil, fmt.Errorf("%w: %d", ErrUnexpectedStatus, resp.StatusCode)
	}

	var txs []Transaction
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxBodyBytes)).Decode(&txs); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	return txs, nil
}
