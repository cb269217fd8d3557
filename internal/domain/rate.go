package domain

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// RateTable maps a settlement currency to its fixed credits-to-currency
// exchange rate. Rates come from configuration; nothing in the codebase
// hardcodes a rate literal.
type RateTable map[string]decimal.Decimal

// ParseRateTable parses "USD=1.5,PHP=90" into a RateTable.
func ParseRateTable(s string) (RateTable, error) {
	table := make(RateTable)

	for _, pair := range strings.Split(s, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}

		currency, rateStr, ok := strings.Cut(pair, "=")
		if !ok {
			return nil, fmt.Errorf("invalid rate entry %q: expected CURRENCY=RATE", pair)
		}

		rate, err := decimal.NewFromString(strings.TrimSpace(rateStr))
		if err != nil {
			return nil, fmt.Errorf("invalid rate for %s: %w", currency, err)
		}

		if rate.LessThanOrEqual(decimal.Zero) {
			return nil, fmt.Errorf("rate for %s must be positive", currency)
		}

		table[strings.ToUpper(strings.TrimSpace(currency))] = rate
	}

	if len(table) == 0 {
		return nil, fmt.Errorf("rate table is empty")
	}

	return table, nil
}

// Rate returns the exchange rate for a settlement currency.
func (t RateTable) Rate(currency string) (decimal.Decimal, error) {
	rate, ok := t[strings.ToUpper(currency)]
	if !ok {
		return decimal.Zero, fmt.Errorf("%w: %s", ErrUnknownCurrencyRate, currency)
	}
	return rate, nil
}

// ToAmount converts credits to the settlement currency.
func (t RateTable) ToAmount(credits decimal.Decimal, currency string) (decimal.Decimal, error) {
	rate, err := t.Rate(currency)
	if err != nil {
		return decimal.Zero, err
	}
	return credits.Mul(rate), nil
}
