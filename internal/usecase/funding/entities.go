package funding

import (
	"github.com/shopspring/decimal"

	"p2p-lending/internal/domain/investment"
	"p2p-lending/internal/domain/loan"
)

type InvestInput struct {
	LoanID     string          `json:"loan_id"`
	InvestorID string          `json:"investor_id"`
	Amount     decimal.Decimal `json:"amount"`
}

type InvestResult struct {
	Investment  *investment.Investment `json:"investment"`
	Loan        *loan.Loan             `json:"loan"`
	FullyFunded bool                   `json:"fully_funded"`
}
