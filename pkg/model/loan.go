package model

import "github.com/shopspring/decimal"

// Loan statuses.
const (
	LoanPending  = "pending"
	LoanApproved = "approved"
	LoanRejected = "rejected"
)

// Loan is a loan application. Admin responses add the applicant's name
// and email; customer responses may omit them.
type Loan struct {
	ID            int64           `json:"loan_id"`
	AccountID     int64           `json:"account_id"`
	AccountNumber Text            `json:"account_number"`
	Type          Text            `json:"loan_type"`
	Amount        decimal.Decimal `json:"loan_amount"`
	InterestRate  Text            `json:"interest_rate"`
	TenureMonths  Text            `json:"tenure_months"`
	MonthlyEMI    decimal.Decimal `json:"monthly_emi"`
	Purpose       Text            `json:"purpose"`
	Status        Text            `json:"status"`
	AppliedAt     Text            `json:"applied_at"`
	ApprovedAt    Text            `json:"approved_at"`

	FullName Text `json:"full_name"`
	Email    Text `json:"email"`
}
