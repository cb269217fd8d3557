package domain

import (
	"errors"
	"testing"

	"github.com/shopspring/decimal"
)

func TestValidateCredits(t *testing.T) {
	t.Parallel()

	if err := ValidateCredits(decimal.NewFromFloat(10.25)); err != nil {
		t.Fatalf("expected valid amount, got %v", err)
	}

	if err := ValidateCredits(decimal.Zero); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount for zero, got %v", err)
	}

	if err := ValidateCredits(decimal.NewFromInt(-5)); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount for negative, got %v", err)
	}

	if err := ValidateCredits(decimal.NewFromFloat(0.001)); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount below minimum, got %v", err)
	}

	if err := ValidateCredits(decimal.NewFromInt(2000000)); !errors.Is(err, ErrInvalidAmount) {
		t.Fatalf("expected ErrInvalidAmount above maximum, got %v", err)
	}
}

func TestValidatePagination(t *testing.T) {
	t.Parallel()

	limit, offset := ValidatePagination(0, -10)
	if limit != 50 || offset != 0 {
		t.Errorf("expected defaults 50/0, got %d/%d", limit, offset)
	}

	limit, _ = ValidatePagination(5000, 0)
	if limit != 1000 {
		t.Errorf("expected limit capped at 1000, got %d", limit)
	}

	limit, offset = ValidatePagination(25, 100)
	if limit != 25 || offset != 100 {
		t.Errorf("expected passthrough 25/100, got %d/%d", limit, offset)
	}
}
