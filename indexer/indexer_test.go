package indexer_test

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"github.com/mynextid/private-score/indexer"
	"github.com/mynextid/private-score/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const sample = `[
  {"signature":"s1","timestamp":1767225600,"type":"BORROW_OBLIGATION_LIQUIDITY","source":"SOLEND",
   "transactionError":null,"tokenTransfers":[{"mint":"USDC","tokenAmount":250.5}]},
  {"signature":"s2","timestamp":1767312000,"type":"REPAY","source":"KAMINO",
   "transactionError":{"InstructionError":[0,"Custom"]},"tokenTransfers":[{"mint":"USDC","tokenAmount":"100"}]},
  {"signature":"s3","timestamp":1767398400,"type":"TRANSFER","source":"SYSTEM_PROGRAM"},
  {"signature":"s4","timestamp":1767484800,"type":"STAKE_SOL","source":"MARINADE",
   "nativeTransfers":[{"amount":1500000000},{"amount":500000000}]}
]`

func TestClassify(t *testing.T) {
	var txs []indexer.Transaction
	require.NoError(t, json.Unmarshal([]byte(sample), &txs))

	events := indexer.ClassifyAll(txs)
	require.Len(t, events, 3)

	borrow := events[0]
	assert.Equal(t, models.ActionBorrow, borrow.Action)
	assert.Equal(t, "solend", borrow.Protocol)
	assert.Equal(t, 250.5, borrow.Amount)
	assert.Equal(t, "USDC", borrow.Token)
	assert.True(t, borrow.Successful)
	assert.True(t, time.Unix(1767225600, 0).UTC().Equal(borrow.Timestamp))

	repay := events[1]
	assert.Equal(t, models.ActionRepay, repay.Action)
	assert.False(t, repay.Successful)
	assert.Nil(t, repay.OnTime)
	assert.Equal(t, 100.0, repay.Amount)

	stake := events[2]
	assert.Equal(t, models.ActionStake, stake.Action)
	assert.Equal(t, 2.0, stake.Amount)
	assert.Equal(t, "SOL", stake.Token)
}

func TestClientPaginates(t *testing.T) {
	var calls int
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		assert.Equal(t, "/v0/addresses/wallet1/transactions", r.URL.Path)
		assert.Equal(t, "key", r.URL.Query().Get("api-key"))

		limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
		offset := 0
		if b := r.URL.Query().Get("before"); b != "" {
			offset, _ = strconv.Atoi(b)
		}
		page := make([]indexer.Transaction, 0, limit)
		for i := offset + 1; i <= offset+limit && i <= 150; i++ {
			page = append(page, indexer.Transaction{Signature: strconv.Itoa(i), Timestamp: int64(1767225600 + i), Type: "SWAP", Source: "JUPITER"})
		}
		json.NewEncoder(w).Encode(page)
	}))
	defer srv.Close()

	c := indexer.NewClient(srv.URL, "key", srv.Client(), nil)
	events, err := c.FetchActivity(context.Background(), "wallet1", indexer.Options{Limit: 500})
	require.NoError(t, err)
	require.Len(t, events, 150)
	require.Equal(t, 2, calls)

	calls = 0
	events, err = c.FetchActivity(context.Background(), "wallet1", indexer.Options{Limit: 30})
	require.NoError(t, err)
	require.Len(t, events, 30)
	require.Equal(t, 1, calls)
}

func TestClientErrors(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "rate limited", http.StatusTooManyRequests)
	}))
	defer srv.Close()

	c := indexer.NewClient(srv.URL, "", srv.Client(), nil)
	_, err := c.FetchActivity(context.Background(), "wallet", indexer.Options{})
	require.ErrorIs(t, err, indexer.ErrUnexpectedStatus)

	// degraded to an empty history
	events, err := indexer.Safe(c, nil).FetchActivity(context.Background(), "wallet", indexer.Options{})
	require.NoError(t, err)
	require.NotNil(t, events)
	require.Empty(t, events)
}

type brokenIndexer struct{}

func (brokenIndexer) FetchActivity(context.Context, string, indexer.Options) ([]models.ActivityEvent, error) {
	return nil, errors.New("boom")
}

func TestSafe(t *testing.T) {
	events, err := indexer.Safe(brokenIndexer{}, nil).FetchActivity(context.Background(), "w", indexer.Options{})
	require.NoError(t, err)
	require.Empty(t, events)

	static := indexer.Static{{Signature: "a"}, {Signature: "b"}}
	events, err = indexer.Safe(static, nil).FetchActivity(context.Background(), "w", indexer.Options{Limit: 1})
	require.NoError(t, err)
	require.Len(t, events, 1)
}

func TestClientMalformedBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"not":"an array"}`)
	}))
	defer srv.Close()

	_, err := indexer.NewClient(srv.URL, "", srv.Client(), nil).FetchActivity(context.Background(), "w", indexer.Options{})
	require.Error(t, err)
}
