package investment

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/shopspring/decimal"

	"p2p-lending/internal/domain/apperr"
)

func TestRemainingError(t *testing.T) {
	err := fmt.Errorf("record investment: %w", &RemainingError{Remaining: decimal.NewFromInt(400_000)})

	if !errors.Is(err, ErrExceedsRemaining) {
		t.Fatal("RemainingError should match ErrExceedsRemaining")
	}
	var re *RemainingError
	if !errors.As(err, &re) || !re.Remaining.Equal(decimal.NewFromInt(400_000)) {
		t.Fatalf("errors.As = %+v", re)
	}
	if apperr.KindOf(err) != apperr.KindCapacity {
		t.Fatalf("kind = %s", apperr.KindOf(err))
	}
	if !strings.Contains(err.Error(), "400000.00") {
		t.Fatalf("message should carry the gap: %q", err.Error())
	}
}
