package http

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"p2p-lending/internal/usecase/funding"
)

type InvestmentHandler struct{ uc *funding.Usecase }

func NewInvestmentHandler(uc *funding.Usecase) *InvestmentHandler {
	return &InvestmentHandler{uc: uc}
}

type investReq struct {
	InvestorID string          `json:"investor_id" validate:"required,hex32"`
	Amount     decimal.Decimal `json:"amount"      validate:"required,gt=0,dec2"`
}

func (h *InvestmentHandler) Invest(c echo.Context) error {
	loanID, ok, err := pathID(c, "loan_id")
	if !ok {
		return err
	}
	var req investReq
	if ok, err := bindValid(c, &req); !ok {
		return err
	}
	res, err := h.uc.RecordInvestment(c.Request().Context(), funding.InvestInput{
		LoanID:     loanID,
		InvestorID: req.InvestorID,
		Amount:     req.Amount,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, res)
}

func (h *InvestmentHandler) List(c echo.Context) error {
	loanID, ok, err := pathID(c, "loan_id")
	if !ok {
		return err
	}
	invs, err := h.uc.ListByLoan(c.Request().Context(), loanID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]any{"investments": invs})
}
