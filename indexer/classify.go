package indexer

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/mynextid/private-score/models"
)

const (
	nativeToken    = "SOL"
	nativeDecimals = 9
)

// Transaction is one entry of the enhanced transactions API
type Transaction struct {
	Signature        string           `json:"signature"`
	Timestamp        int64            `json:"timestamp"`
	Type             string           `json:"type"`
	Source           string           `json:"source"`
	TransactionError any              `json:"transactionError"`
	TokenTransfers   []TokenTransfer  `json:"tokenTransfers"`
	NativeTransfers  []NativeTransfer `json:"nativeTransfers"`
}

type TokenTransfer struct {
	Mint        string          `json:"mint"`
	TokenAmount decimal.Decimal `json:"tokenAmount"`
}

type NativeTransfer struct {
	Amount int64 `json:"amount"` // lamports
}

var actionTypes = map[string]models.Action{
	"BORROW":                         models.ActionBorrow,
	"BORROW_OBLIGATION_LIQUIDITY":    models.ActionBorrow,
	"LOAN":                           models.ActionBorrow,
	"REPAY":                          models.ActionRepay,
	"REPAY_LOAN":                     models.ActionRepay,
	"REPAY_OBLIGATION_LIQUIDITY":     models.ActionRepay,
	"DEPOSIT":                        models.ActionDeposit,
	"DEPOSIT_RESERVE_LIQUIDITY":      models.ActionDeposit,
	"DEPOSIT_OBLIGATION_COLLATERAL":  models.ActionDeposit,
	"WITHDRAW":                       models.ActionWithdraw,
	"WITHDRAW_OBLIGATION_COLLATERAL": models.ActionWithdraw,
	"STAKE":                          models.ActionStake,
	"STAKE_SOL":                      models.ActionStake,
	"UNSTAKE":                        models.ActionUnstake,
	"UNSTAKE_SOL":                    models.ActionUnstake,
	"SWAP":                           models.ActionSwap,
	"LIQUIDATE":                      models.ActionLiquidate,
	"LIQUIDATE_OBLIGATION":           models.ActionLiquidate,
}

// Classify maps a transaction to an activity event. Transactions of an
// unknown type are skipped.
func Classify(tx Transaction) (models.ActivityEvent, bool) {
	action, ok := actionTypes[strings.ToUpper(tx.Type)]
	if !ok {
		return models.ActivityEvent{}, false
	}

	amount, token := transferAmount(tx)
	f, _ := amount.Float64()

	return models.ActivityEvent{
		Signature:  tx.Signature,
		Timestamp:  time.Unix(tx.Timestamp, 0).UTC(),
		Protocol:   strings.ToLower(tx.Source),
		Action:     action,
		Amount:     f,
		Token:      token,
		Successful: tx.TransactionError == nil,
		// the API carries no repayment timing
		OnTime: nil,
	}, true
}

// ClassifyAll classifies txs, dropping the ones of unknown type
func ClassifyAll(txs []Transaction) []models.ActivityEvent {
	events := make([]models.ActivityEvent, 0, len(txs))
	for _, tx := range txs {
		if ev, ok := Classify(tx); ok {
			events = append(events, ev)
		}
	}
	return events
}

func transferAmount(tx Transaction) (decimal.Decimal, string) {
	for _, t := range tx.TokenTransfers {
		if t.TokenAmount.IsPositive() {
			return t.TokenAmount, t.Mint
		}
	}
	var lamports int64
	for _, n := range tx.NativeTransfers {
		lamports += n.Amount
	}
	if lamports > 0 {
		return decimal.New(lamports, -nativeDecimals), nativeToken
	}
	return decimal.Zero, ""
}
