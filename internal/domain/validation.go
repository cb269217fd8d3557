package domain

import (
	"fmt"

	"github.com/shopspring/decimal"
)

const (
	// MinWithdrawalCredits is the smallest request the API accepts; one
	// hundredth of a credit matches the ledger's resolution.
	MinWithdrawalCredits = "0.01"
	MaxWithdrawalCredits = "1000000"
)

// ValidateCredits validates a requested withdrawal amount.
func ValidateCredits(credits decimal.Decimal) error {
	if credits.LessThanOrEqual(decimal.Zero) {
		return ErrInvalidAmount
	}

	minCredits, _ := decimal.NewFromString(MinWithdrawalCredits)
	if credits.LessThan(minCredits) {
		return fmt.Errorf("%w: minimum is %s credits", ErrInvalidAmount, MinWithdrawalCredits)
	}

	maxCredits, _ := decimal.NewFromString(MaxWithdrawalCredits)
	if credits.GreaterThan(maxCredits) {
		return fmt.Errorf("%w: maximum is %s credits", ErrInvalidAmount, MaxWithdrawalCredits)
	}

	return nil
}

// ValidatePagination validates and limits pagination parameters.
func ValidatePagination(limit, offset int) (int, int) {
	const MaxPageSize = 1000
	const DefaultPageSize = 50

	if limit <= 0 {
		limit = DefaultPageSize
	}

	if limit > MaxPageSize {
		limit = MaxPageSize
	}

	if offset < 0 {
		offset = 0
	}

	return limit, offset
}
