package domain

import "github.com/shopspring/decimal"

// TransferRequest is the capability exposed by the payment gateways:
// move Amount in Currency to Destination.
type TransferRequest struct {
	WithdrawalID string
	Amount       decimal.Decimal
	Currency     string
	Destination  PayoutDestination
}

// TransferReceipt is the provider's acknowledgement of a transfer.
type TransferReceipt struct {
	TransactionID string
	Provider      string
}
