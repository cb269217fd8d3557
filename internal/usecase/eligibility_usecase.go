package usecase

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"

	"github.com/iho/gopayout/internal/domain"
)

// EligibilityUseCase validates that a participant may be paid out. It is
// pure validation: expected failures come back as typed reasons on the
// result, infrastructure failures as errors.
type EligibilityUseCase struct {
	ledger          *LedgerUseCase
	destinationRepo DestinationRepository
}

// NewEligibilityUseCase creates a new EligibilityUseCase.
func NewEligibilityUseCase(ledger *LedgerUseCase, destinationRepo DestinationRepository) *EligibilityUseCase {
	return &EligibilityUseCase{
		ledger:          ledger,
		destinationRepo: destinationRepo,
	}
}

// EligibilityResult is the outcome of an eligibility check. Destination
// is populated only when the check passes, as a snapshot for the
// withdrawal record.
type EligibilityResult struct {
	Destination      *domain.PayoutDestination
	Reason           domain.EligibilityReason
	Detail           string
	AvailableCredits decimal.Decimal
	OK               bool
}

// Check runs the eligibility rules in order; the first failure wins.
func (uc *EligibilityUseCase) Check(ctx context.Context, participantID string, requested decimal.Decimal) (*EligibilityResult, error) {
	available, err := uc.ledger.ComputeAvailableCredits(ctx, participantID)
	if err != nil {
		return nil, err
	}

	return uc.CheckWithAvailable(ctx, participantID, requested, available)
}

// CheckWithAvailable runs the rules against a balance the caller already
// computed, typically inside the reservation transaction.
func (uc *EligibilityUseCase) CheckWithAvailable(ctx context.Context, participantID string, requested, available decimal.Decimal) (*EligibilityResult, error) {
	result := &EligibilityResult{AvailableCredits: available}

	// Rule 1: positive amount within available balance.
	if requested.LessThanOrEqual(decimal.Zero) || requested.GreaterThan(available) {
		result.Reason = domain.ReasonInsufficientBalance
		result.Detail = "requested " + requested.String() + " credits, available " + available.String()
		return result, nil
	}

	// Rule 2: complete payout destination.
	destination, err := uc.destinationRepo.GetByParticipant(ctx, participantID)
	if err != nil {
		if errors.Is(err, domain.ErrDestinationNotFound) {
			result.Reason = domain.ReasonIncompletePaymentInfo
			result.Detail = "no payout destination configured"
			return result, nil
		}
		return nil, err
	}

	if err := destination.Complete(); err != nil {
		result.Reason = domain.ReasonIncompletePaymentInfo
		result.Detail = err.Error()
		return result, nil
	}

	result.OK = true
	result.Destination = destination

	return result, nil
}
