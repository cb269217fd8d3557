package domain

import (
	"fmt"
	"regexp"
	"strings"
)

type PayoutMethod string

const (
	PayoutMethodBank      PayoutMethod = "bank"
	PayoutMethodEWallet   PayoutMethod = "ewallet"
	PayoutMethodConnected PayoutMethod = "connected_account"
)

// E-wallet numbers follow the national mobile-wallet format: 09 + 9 digits.
var ewalletNumberRegex = regexp.MustCompile(`^09\d{9}$`)

// PayoutDestination is a participant's configured settlement target.
// Exactly one method is in effect; it is owned by the profile subsystem
// and read-only here.
type PayoutDestination struct {
	Method PayoutMethod

	// bank
	BankName          string
	BankAccountName   string
	BankAccountNumber string

	// ewallet
	EWalletName   string
	EWalletNumber string

	// connected processor account
	ConnectedAccountID string
}

// Complete checks that every field the chosen method requires is present
// and well-formed. An incomplete destination makes the participant
// ineligible for payouts.
func (d *PayoutDestination) Complete() error {
	switch d.Method {
	case PayoutMethodBank:
		if strings.TrimSpace(d.BankName) == "" ||
			strings.TrimSpace(d.BankAccountName) == "" ||
			strings.TrimSpace(d.BankAccountNumber) == "" {
			return fmt.Errorf("%w: bank destination requires bank name, account name and account number", ErrIncompletePaymentInfo)
		}
	case PayoutMethodEWallet:
		if strings.TrimSpace(d.EWalletName) == "" {
			return fmt.Errorf("%w: e-wallet destination requires an account name", ErrIncompletePaymentInfo)
		}
		if !ewalletNumberRegex.MatchString(d.EWalletNumber) {
			return fmt.Errorf("%w: e-wallet number must match 09 followed by 9 digits", ErrIncompletePaymentInfo)
		}
	case PayoutMethodConnected:
		if strings.TrimSpace(d.ConnectedAccountID) == "" {
			return fmt.Errorf("%w: connected destination requires an onboarded account id", ErrIncompletePaymentInfo)
		}
	default:
		return fmt.Errorf("%w: no payout method configured", ErrIncompletePaymentInfo)
	}

	return nil
}
