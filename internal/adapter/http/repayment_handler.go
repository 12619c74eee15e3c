package http

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"p2p-lending/internal/usecase/repayment"
)

type RepaymentHandler struct{ uc *repayment.Usecase }

func NewRepaymentHandler(uc *repayment.Usecase) *RepaymentHandler {
	return &RepaymentHandler{uc: uc}
}

type paymentReq struct {
	Amount    decimal.Decimal `json:"amount"    validate:"required,gt=0,dec2"`
	PaidAt    time.Time       `json:"paid_at"`
	Reference string          `json:"reference" validate:"max=64"`
}

func (h *RepaymentHandler) Schedule(c echo.Context) error {
	loanID, ok, err := pathID(c, "loan_id")
	if !ok {
		return err
	}
	view, err := h.uc.Schedule(c.Request().Context(), loanID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, view)
}

// RecordPayment is the payment-gateway webhook for one installment.
func (h *RepaymentHandler) RecordPayment(c echo.Context) error {
	instID, ok, err := pathID(c, "installment_id")
	if !ok {
		return err
	}
	var req paymentReq
	if ok, err := bindValid(c, &req); !ok {
		return err
	}
	res, err := h.uc.RecordPayment(c.Request().Context(), repayment.PaymentInput{
		InstallmentID: instID,
		Amount:        req.Amount,
		PaidAt:        req.PaidAt,
		Reference:     req.Reference,
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, res)
}
