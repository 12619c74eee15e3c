package http

import (
	"net/http"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"p2p-lending/internal/domain/borrower"
	"p2p-lending/internal/domain/lender"
	"p2p-lending/internal/domain/risk"
	"p2p-lending/internal/usecase/matching"
)

// ProfileHandler serves the collaborator writes (borrower profiles, lender
// preferences) and the lender-facing match views.
type ProfileHandler struct {
	borrowers borrower.Repository
	lenders   lender.Repository
	matches   *matching.Usecase
}

func NewProfileHandler(b borrower.Repository, l lender.Repository, m *matching.Usecase) *ProfileHandler {
	return &ProfileHandler{borrowers: b, lenders: l, matches: m}
}

type borrowerProfileReq struct {
	CreditScore      int             `json:"credit_score"      validate:"required,gte=300,lte=850"`
	MonthlyIncome    decimal.Decimal `json:"monthly_income"    validate:"gte=0,dec2"`
	EmploymentStatus string          `json:"employment_status" validate:"required,oneof=employed self-employed freelancer student unemployed"`
	CountryCode      string          `json:"country_code"      validate:"required,iso3166_1_alpha2"`
}

type lenderPrefsReq struct {
	CountryCode        string          `json:"country_code"        validate:"omitempty,iso3166_1_alpha2"`
	RiskTolerance      risk.Level      `json:"risk_tolerance"      validate:"required,oneof=LOW MEDIUM HIGH"`
	MinInvestment      decimal.Decimal `json:"min_investment"      validate:"gte=0,dec2"`
	MaxInvestment      decimal.Decimal `json:"max_investment"      validate:"gte=0,dec2"`
	PreferredDurations []int           `json:"preferred_durations" validate:"dive,gte=1,lte=60"`
	PreferredCountries []string        `json:"preferred_countries" validate:"dive,iso3166_1_alpha2"`
}

func (h *ProfileHandler) PutBorrowerProfile(c echo.Context) error {
	borrowerID, ok, err := pathID(c, "borrower_id")
	if !ok {
		return err
	}
	var req borrowerProfileReq
	if ok, err := bindValid(c, &req); !ok {
		return err
	}
	p := &borrower.Profile{
		BorrowerID:       borrowerID,
		CreditScore:      req.CreditScore,
		MonthlyIncome:    req.MonthlyIncome,
		EmploymentStatus: req.EmploymentStatus,
		CountryCode:      req.CountryCode,
	}
	if err := h.borrowers.Save(c.Request().Context(), p); err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, p)
}

func (h *ProfileHandler) PutLenderPreferences(c echo.Context) error {
	lenderID, ok, err := pathID(c, "lender_id")
	if !ok {
		return err
	}
	var req lenderPrefsReq
	if ok, err := bindValid(c, &req); !ok {
		return err
	}
	p := &lender.Preferences{
		InvestorID:         lenderID,
		CountryCode:        req.CountryCode,
		RiskTolerance:      req.RiskTolerance,
		MinInvestment:      req.MinInvestment,
		MaxInvestment:      req.MaxInvestment,
		PreferredDurations: req.PreferredDurations,
		PreferredCountries: req.PreferredCountries,
	}
	if err := h.lenders.Save(c.Request().Context(), p); err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, p)
}

func (h *ProfileHandler) Matches(c echo.Context) error {
	lenderID, ok, err := pathID(c, "lender_id")
	if !ok {
		return err
	}
	var limit int
	if err := echo.QueryParamsBinder(c).Int("limit", &limit).BindError(); err != nil {
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "limit must be an integer"})
	}
	out, err := h.matches.FindMatches(c.Request().Context(), lenderID, limit)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]any{"matches": out})
}

func (h *ProfileHandler) Recommendations(c echo.Context) error {
	lenderID, ok, err := pathID(c, "lender_id")
	if !ok {
		return err
	}
	out, err := h.matches.DiversificationRecommendations(c.Request().Context(), lenderID)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]any{"recommendations": out})
}
