package lifecycle

import (
	"github.com/shopspring/decimal"

	"p2p-lending/internal/domain/loan"
	"p2p-lending/internal/domain/risk"
)

type RequestInput struct {
	BorrowerID     string          `json:"borrower_id"`
	Amount         decimal.Decimal `json:"amount"`
	DurationMonths int             `json:"duration_months"`
	Purpose        string          `json:"purpose"`
}

type RequestResult struct {
	Loan       *loan.Loan      `json:"loan"`
	Assessment risk.Assessment `json:"assessment"`
}

type DecideInput struct {
	LoanID     string
	Approved   bool
	Reason     string
	ApproverID string
}
