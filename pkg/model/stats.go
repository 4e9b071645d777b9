package model

import "github.com/shopspring/decimal"

// AdminStats is the aggregate view shown at the top of the admin console.
type AdminStats struct {
	Users        UserStats        `json:"users"`
	Accounts     AccountStats     `json:"accounts"`
	Loans        LoanStats        `json:"loans"`
	Transactions TransactionStats `json:"transactions"`
}

type UserStats struct {
	TotalUsers  Count `json:"total_users"`
	ActiveUsers Count `json:"active_users"`
}

type AccountStats struct {
	TotalAccounts   Count           `json:"total_accounts"`
	ActiveAccounts  Count           `json:"active_accounts"`
	PendingAccounts Count           `json:"pending_accounts"`
	TotalBalance    decimal.Decimal `json:"total_balance"`
}

type LoanStats struct {
	TotalLoans      Count           `json:"total_loans"`
	PendingLoans    Count           `json:"pending_loans"`
	TotalLoanAmount decimal.Decimal `json:"total_loan_amount"`
}

type TransactionStats struct {
	TotalTransactions      Count           `json:"total_transactions"`
	TotalTransactionAmount decimal.Decimal `json:"total_transaction_amount"`
}
