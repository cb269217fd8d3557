package gateway

import (
	"context"

	"github.com/iho/gopayout/internal/domain"
	"github.com/iho/gopayout/internal/usecase"
)

// Selector routes transfers to a provider by settlement currency.
// Currencies with a dedicated regional provider go there; everything
// else goes to the international one.
type Selector struct {
	international usecase.Gateway
	regional      usecase.Gateway
	regionalCCYs  map[string]bool
}

// NewSelector creates a Selector. regionalCurrencies lists the currency
// codes the regional provider settles.
func NewSelector(international, regional usecase.Gateway, regionalCurrencies []string) *Selector {
	ccys := make(map[string]bool, len(regionalCurrencies))
	for _, c := range regionalCurrencies {
		ccys[c] = true
	}

	return &Selector{
		international: international,
		regional:      regional,
		regionalCCYs:  ccys,
	}
}

// Transfer dispatches to the provider responsible for the currency.
func (s *Selector) Transfer(ctx context.Context, req domain.TransferRequest) (*domain.TransferReceipt, error) {
	if s.regional != nil && s.regionalCCYs[req.Currency] {
		return s.regional.Transfer(ctx, req)
	}

	return s.international.Transfer(ctx, req)
}
