package proof

import (
	"strconv"
	"time"

	"github.com/mynextid/private-score/models"
)

// ScoreThresholdRequest asks for a proof of score >= MinScore
type ScoreThresholdRequest struct {
	Score      int    `json:"-"`
	Salt       string `json:"-"`
	Commitment string `json:"commitment"`
	MinScore   int    `json:"minScore"`
	PoolID     uint64 `json:"poolId"`
	Nonce      uint64 `json:"nonce"`
}

// DTIRatioRequest asks for a proof of TotalDebt/Income <= MaxDTIBps/10000
type DTIRatioRequest struct {
	Score      int    `json:"-"`
	Salt       string `json:"-"`
	Commitment string `json:"commitment"`
	TotalDebt  uint64 `json:"-"`
	Income     uint64 `json:"-"`
	MaxDTIBps  uint32 `json:"maxDtiBps"`
	PoolID     uint64 `json:"poolId"`
	Nonce      uint64 `json:"nonce"`
}

// PaymentHistoryRequest asks for a proof that at least MinPayments
// repayments were made and the on-time share is at least MinOnTimeRateBps
type PaymentHistoryRequest struct {
	Score            int    `json:"-"`
	Salt             string `json:"-"`
	Commitment       string `json:"commitment"`
	OnTimePayments   uint64 `json:"-"`
	TotalPayments    uint64 `json:"-"`
	MinOnTimeRateBps uint32 `json:"minOnTimeRateBps"`
	MinPayments      uint64 `json:"minPayments"`
	PoolID           uint64 `json:"poolId"`
	Nonce            uint64 `json:"nonce"`
}

// CreditworthyRequest asks for all three predicates at once
type CreditworthyRequest struct {
	Score            int    `json:"-"`
	Salt             string `json:"-"`
	Commitment       string `json:"commitment"`
	MinScore         int    `json:"minScore"`
	TotalDebt        uint64 `json:"-"`
	Income           uint64 `json:"-"`
	MaxDTIBps        uint32 `json:"maxDtiBps"`
	OnTimePayments   uint64 `json:"-"`
	TotalPayments    uint64 `json:"-"`
	MinOnTimeRateBps uint32 `json:"minOnTimeRateBps"`
	MinPayments      uint64 `json:"minPayments"`
	PoolID           uint64 `json:"poolId"`
	Nonce            uint64 `json:"nonce"`
}

func dec(v uint64) string { return strconv.FormatUint(v, 10) }
func unix(t time.Time) string {
	return strconv.FormatInt(t.Unix(), 10)
}

// Public inputs, in wire order. The commitment always comes first and the
// nonce always precedes the optional timestamp.

func (r ScoreThresholdRequest) publicInputs(at time.Time) []string {
	return []string{r.Commitment, strconv.Itoa(r.MinScore), dec(r.PoolID), dec(r.Nonce), unix(at)}
}

func (r DTIRatioRequest) publicInputs() []string {
	return []string{r.Commitment, dec(uint64(r.MaxDTIBps)), dec(r.PoolID), dec(r.Nonce)}
}

func (r PaymentHistoryRequest) publicInputs() []string {
	return []string{r.Commitment, dec(uint64(r.MinOnTimeRateBps)), dec(r.MinPayments), dec(r.PoolID), dec(r.Nonce)}
}

func (r CreditworthyRequest) publicInputs(at time.Time) []string {
	return []string{r.Commitment, strconv.Itoa(r.MinScore), dec(uint64(r.MaxDTIBps)), dec(uint64(r.MinOnTimeRateBps)),
		dec(r.MinPayments), dec(r.PoolID), dec(r.Nonce), unix(at)}
}

// nonceIndex is the position of the nonce in the public inputs of c
func nonceIndex(c models.Circuit) int {
	switch c {
	case models.CircuitScoreThreshold:
		return 3
	case models.CircuitDTIRatio:
		return 3
	case models.CircuitPaymentHistory:
		return 4
	case models.CircuitCreditworthy:
		return 6
	}
	return -1
}

// poolIndex is the position of the pool id in the public inputs of c
func poolIndex(c models.Circuit) int {
	if n := nonceIndex(c); n > 0 {
		return n - 1
	}
	return -1
}
