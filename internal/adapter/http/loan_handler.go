package http

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"p2p-lending/internal/usecase/lifecycle"
)

type LoanHandler struct{ uc *lifecycle.Usecase }

func NewLoanHandler(uc *lifecycle.Usecase) *LoanHandler { return &LoanHandler{uc: uc} }

type requestLoanReq struct {
	BorrowerID     string          `json:"borrower_id"     validate:"required,hex32"`
	Amount         decimal.Decimal `json:"amount"          validate:"required,gte=1000,lte=10000000,dec2"`
	DurationMonths int             `json:"duration_months" validate:"required,gte=1,lte=60"`
	Purpose        string          `json:"purpose"         validate:"max=255"`
}

type decideReq struct {
	Approved *bool  `json:"approved" validate:"required"`
	Reason   string `json:"reason"   validate:"max=1000"`
}

type defaultReq struct {
	Reason string `json:"reason" validate:"required,max=1000"`
}

func (h *LoanHandler) RequestLoan(c echo.Context) error {
	var req requestLoanReq
	if ok, err := bindValid(c, &req); !ok {
		return err
	}
	res, err := h.uc.Request(c.Request().Context(), lifecycle.RequestInput(req))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusCreated, res)
}

func (h *LoanHandler) GetLoan(c echo.Context) error {
	loanID, ok, err := pathID(c, "loan_id")
	if !ok {
		return err
	}
	l, err := h.uc.Get(c.Request().Context(), loanID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, l)
}

func (h *LoanHandler) ListOpen(c echo.Context) error {
	loans, err := h.uc.ListOpen(c.Request().Context())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]any{"loans": loans})
}

func (h *LoanHandler) Decide(c echo.Context) error {
	loanID, ok, err := pathID(c, "loan_id")
	if !ok {
		return err
	}
	var req decideReq
	if ok, err := bindValid(c, &req); !ok {
		return err
	}
	l, err := h.uc.Decide(c.Request().Context(), lifecycle.DecideInput{
		LoanID:     loanID,
		Approved:   *req.Approved,
		Reason:     req.Reason,
		ApproverID: actorID(c),
	})
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, l)
}

// Funded is the LoanFullyFunded webhook; redelivery returns the current loan.
func (h *LoanHandler) Funded(c echo.Context) error {
	loanID, ok, err := pathID(c, "loan_id")
	if !ok {
		return err
	}
	l, err := h.uc.OnFullyFunded(c.Request().Context(), loanID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, l)
}

func (h *LoanHandler) MarkDefaulted(c echo.Context) error {
	loanID, ok, err := pathID(c, "loan_id")
	if !ok {
		return err
	}
	var req defaultReq
	if ok, err := bindValid(c, &req); !ok {
		return err
	}
	l, err := h.uc.MarkDefaulted(c.Request().Context(), loanID, actorID(c), req.Reason)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, l)
}
