package model

import "github.com/shopspring/decimal"

// AccountStatus values the backend assigns to accounts.
const (
	AccountPending = "pending"
	AccountActive  = "active"
	AccountClosed  = "closed"
)

// Account is a bank account as returned by the user and admin account
// endpoints. The admin fields are empty on customer responses.
type Account struct {
	ID        int64           `json:"account_id"`
	Number    Text            `json:"account_number"`
	Type      Text            `json:"account_type"`
	Balance   decimal.Decimal `json:"balance"`
	Currency  Text            `json:"currency"`
	Status    Text            `json:"status"`
	CreatedAt Text            `json:"created_at"`

	FullName         Text            `json:"full_name"`
	Email            Text            `json:"email"`
	Phone            Text            `json:"phone"`
	TransactionCount Text            `json:"transaction_count"`
	TotalCredits     decimal.Decimal `json:"total_credits"`
	TotalDebits      decimal.Decimal `json:"total_debits"`
}

// IsActive reports whether the account can transact.
func (a Account) IsActive() bool {
	return a.Status == AccountActive
}

// ActiveAccounts returns the accounts whose status is active, in order.
func ActiveAccounts(accounts []Account) []Account {
	active := make([]Account, 0, len(accounts))
	for _, acc := range accounts {
		if acc.IsActive() {
			active = append(active, acc)
		}
	}
	return active
}

// TotalBalance sums the balances of accounts.
func TotalBalance(accounts []Account) decimal.Decimal {
	total := decimal.Zero
	for _, acc := range accounts {
		total = total.Add(acc.Balance)
	}
	return total
}
