package http

import "github.com/labstack/echo/v4"

type Handlers struct {
	Health      *Handler
	Loans       *LoanHandler
	Investments *InvestmentHandler
	Repayments  *RepaymentHandler
	Profiles    *ProfileHandler
}

// Register mounts the API routes. mw applies to the API group only, so
// /health stays reachable without idempotency headers.
func Register(e *echo.Echo, h Handlers, mw ...echo.MiddlewareFunc) {
	e.GET("/health", h.Health.Health)

	api := e.Group("", mw...)

	api.PUT("/borrowers/:borrower_id/profile", h.Profiles.PutBorrowerProfile)
	api.PUT("/lenders/:lender_id/preferences", h.Profiles.PutLenderPreferences)
	api.GET("/lenders/:lender_id/matches", h.Profiles.Matches)
	api.GET("/lenders/:lender_id/recommendations", h.Profiles.Recommendations)

	api.POST("/loans", h.Loans.RequestLoan)
	api.GET("/loans/open", h.Loans.ListOpen)
	api.GET("/loans/:loan_id", h.Loans.GetLoan)
	api.POST("/loans/:loan_id/decision", h.Loans.Decide)
	api.POST("/loans/:loan_id/funded", h.Loans.Funded)
	api.POST("/loans/:loan_id/default", h.Loans.MarkDefaulted)

	api.POST("/loans/:loan_id/investments", h.Investments.Invest)
	api.GET("/loans/:loan_id/investments", h.Investments.List)
	api.GET("/loans/:loan_id/schedule", h.Repayments.Schedule)
	api.POST("/installments/:installment_id/payments", h.Repayments.RecordPayment)
}
