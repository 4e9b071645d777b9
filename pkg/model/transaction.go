package model

import "github.com/shopspring/decimal"

// TransactionCredit marks money flowing into the account.
const TransactionCredit = "Credit"

// Transaction is one ledger line of an account as seen from that account.
type Transaction struct {
	Date         Text            `json:"transaction_date"`
	Type         Text            `json:"type"`
	Amount       decimal.Decimal `json:"amount"`
	Fee          decimal.Decimal `json:"fee"`
	Description  Text            `json:"description"`
	OtherAccount Text            `json:"other_account"`
	Status       Text            `json:"status"`
}

// IsCredit reports whether the transaction credits the account.
func (t Transaction) IsCredit() bool {
	return t.Type == TransactionCredit
}
