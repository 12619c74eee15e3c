package http

import (
	"errors"
	"fmt"
	stdhttp "net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"

	"p2p-lending/internal/domain/investment"
	"p2p-lending/internal/domain/loan"
)

func containsFieldMsg(list []FieldError, field, substr string) bool {
	for _, e := range list {
		if e.Field == field && strings.Contains(e.Message, substr) {
			return true
		}
	}
	return false
}

func TestHex32Validation(t *testing.T) {
	type P struct {
		InvestorID string `json:"investor_id" validate:"hex32"`
	}
	cv := NewValidator()

	if err := cv.Validate(P{InvestorID: strings.Repeat("a", 32)}); err != nil {
		t.Fatalf("expected valid hex32, got err: %v", err)
	}
	for _, s := range []string{
		"",
		strings.Repeat("A", 32),
		"deadbeef",
		strings.Repeat("g", 32),
		"3f9a6a1b3d544fbe8b3a6b3e8d6b2c8",
		"3f9a6a1b3d544fbe8b3a6b3e8d6b2c88x",
	} {
		err := cv.Validate(P{InvestorID: s})
		if err == nil {
			t.Fatalf("expected error for %q", s)
		}
		if fe := ToFieldErrors(err); !containsFieldMsg(fe, "investor_id", "32-char lowercase hex") {
			t.Fatalf("expected hex32 message for %q, got: %+v", s, fe)
		}
	}
}

func TestDec2Validation(t *testing.T) {
	type P struct {
		Amount float64 `json:"amount" validate:"dec2"`
	}
	cv := NewValidator()

	for _, v := range []float64{1.29, 2.00, 0.9, 500_000.25} {
		if err := cv.Validate(P{Amount: v}); err != nil {
			t.Fatalf("expected dec2 OK for %v, got %v", v, err)
		}
	}
	for _, v := range []float64{1.234, 2.9999} {
		err := cv.Validate(P{Amount: v})
		if err == nil {
			t.Fatalf("expected dec2 error for %v", v)
		}
		if fe := ToFieldErrors(err); !containsFieldMsg(fe, "amount", "at most 2 decimal places") {
			t.Fatalf("expected 'at most 2 decimal places' for %v, got %+v", v, fe)
		}
	}
}

func TestDecimalFieldValidation(t *testing.T) {
	type P struct {
		Amount decimal.Decimal `json:"amount" validate:"required,gte=1000,lte=10000000,dec2"`
	}
	cv := NewValidator()

	for _, s := range []string{"1000", "1000.01", "10000000", "523456.78"} {
		if err := cv.Validate(P{Amount: decimal.RequireFromString(s)}); err != nil {
			t.Fatalf("expected %s to pass, got %v", s, err)
		}
	}
	tests := []struct {
		in, msg string
	}{
		{"0", "is required"},
		{"999.99", "greater than or equal to 1000"},
		{"10000000.01", "less than or equal to 10000000"},
		{"1500.005", "at most 2 decimal places"},
	}
	for _, tt := range tests {
		err := cv.Validate(P{Amount: decimal.RequireFromString(tt.in)})
		if fe := ToFieldErrors(err); err == nil || !containsFieldMsg(fe, "amount", tt.msg) {
			t.Fatalf("%s: want %q, got %v", tt.in, tt.msg, err)
		}
	}
}

func TestFieldMessages(t *testing.T) {
	type P struct {
		Name      string   `json:"name"      validate:"required"`
		Min       int      `json:"min"       validate:"gte=10"`
		Max       int      `json:"max"       validate:"lte=5"`
		Amount    float64  `json:"amount"    validate:"gt=0"`
		Level     string   `json:"level"     validate:"oneof=LOW HIGH"`
		Country   string   `json:"country"   validate:"iso3166_1_alpha2"`
		Countries []string `json:"countries" validate:"dive,iso3166_1_alpha2"`
		NoTag     string   `validate:"required"`
	}
	err := NewValidator().Validate(P{Level: "MID", Country: "XX", Countries: []string{"KE", "ZZ"}})
	if err == nil {
		t.Fatal("expected validation errors")
	}
	fe := ToFieldErrors(err)
	checks := map[string]string{
		"name":    "is required",
		"min":     "greater than or equal to 10",
		"max":     "", // 0 satisfies lte=5
		"amount":  "greater than 0",
		"level":   "one of LOW HIGH",
		"country": "ISO-3166",
		"NoTag":   "is required",
	}
	for field, msg := range checks {
		if msg == "" {
			for _, e := range fe {
				if e.Field == field {
					t.Errorf("unexpected error for %s: %+v", field, e)
				}
			}
			continue
		}
		if !containsFieldMsg(fe, field, msg) {
			t.Errorf("missing %q for %s: %+v", msg, field, fe)
		}
	}
	if !containsFieldMsg(fe, "countries[1]", "ISO-3166") {
		t.Errorf("missing element error: %+v", fe)
	}
}

func TestToFieldErrors_NonValidation(t *testing.T) {
	fe := ToFieldErrors(errors.New("boom"))
	if len(fe) != 1 || fe[0].Field != "_" || fe[0].Message != "boom" {
		t.Fatalf("unexpected mapping: %+v", fe)
	}
}

func TestWriteError(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		code      int
		errCode   string
		remaining bool
	}{
		{"validation", loan.ErrInvalidAmount, stdhttp.StatusUnprocessableEntity, "invalid_amount", false},
		{"not found", fmt.Errorf("ctx: %w", loan.ErrNotFound), stdhttp.StatusNotFound, "loan_not_found", false},
		{"conflict", loan.ErrAlreadyDecided, stdhttp.StatusConflict, "already_decided", false},
		{"capacity", &investment.RemainingError{Remaining: decimal.RequireFromString("12.5")}, stdhttp.StatusUnprocessableEntity, "exceeds_remaining", true},
		{"infrastructure", errors.New("db down"), stdhttp.StatusInternalServerError, "", false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := httptest.NewRecorder()
			c := echo.New().NewContext(httptest.NewRequest(stdhttp.MethodGet, "/", nil), rec)
			if err := writeError(c, tt.err); err != nil {
				t.Fatal(err)
			}
			if rec.Code != tt.code {
				t.Fatalf("status = %d, want %d", rec.Code, tt.code)
			}
			body := rec.Body.String()
			if tt.errCode != "" && !strings.Contains(body, `"code":"`+tt.errCode+`"`) {
				t.Fatalf("body %s missing code %s", body, tt.errCode)
			}
			if tt.remaining != strings.Contains(body, `"remaining":"12.5"`) {
				t.Fatalf("remaining in body = %v: %s", !tt.remaining, body)
			}
			if tt.code == stdhttp.StatusInternalServerError && strings.Contains(body, "db down") {
				t.Fatalf("internal errors must not leak: %s", body)
			}
		})
	}
}
