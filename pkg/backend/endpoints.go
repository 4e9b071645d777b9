package backend

import "net/url"

// Backend API paths.
const (
	PathLogout = "/api/logout"

	PathAdminStats      = "/api/admin/stats"
	PathPendingAccounts = "/api/admin/pending-accounts"
	PathApproveAccount  = "/api/admin/approve-account"
	PathPendingLoans    = "/api/admin/pending-loans"
	PathApproveLoan     = "/api/admin/approve-loan"
	PathAllAccounts     = "/api/admin/all-accounts"
	PathAllLoans        = "/api/admin/all-loans"

	PathUserAccounts  = "/api/user/accounts"
	PathCreateAccount = "/api/user/create-account"
	PathTransfer      = "/api/user/transfer"
	PathApplyLoan     = "/api/user/apply-loan"
	PathDeposit       = "/api/user/deposit"
	PathUserLoans     = "/api/user/loans"
	pathTransactions  = "/api/user/transactions/"
)

// TransactionsPath returns the transactions endpoint for one account.
func TransactionsPath(accountID string) string {
	return pathTransactions + url.PathEscape(accountID)
}

// Request bodies. Amounts stay as the user typed them; the backend owns
// money arithmetic.

type CreateAccountRequest struct {
	AccountType string `json:"account_type"`
}

type TransferRequest struct {
	FromAccount     int64  `json:"from_account"`
	ToAccountNumber string `json:"to_account_number"`
	Amount          string `json:"amount"`
	Description     string `json:"description"`
}

type ApplyLoanRequest struct {
	AccountID    int64  `json:"account_id"`
	LoanType     string `json:"loan_type"`
	LoanAmount   string `json:"loan_amount"`
	TenureMonths string `json:"tenure_months"`
	Purpose      string `json:"purpose"`
}

type DepositRequest struct {
	AccountID int64  `json:"account_id"`
	Amount    string `json:"amount"`
}

type ApproveAccountRequest struct {
	AccountID int64 `json:"account_id"`
}

type ApproveLoanRequest struct {
	LoanID  int64 `json:"loan_id"`
	Approve bool  `json:"approve"`
}
