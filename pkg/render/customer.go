package render

import (
	"fmt"
	"strconv"
	"time"

	"bank-console/pkg/model"
)

// Option list placeholders.
const (
	PlaceholderSelectAccount = "Select Account"
	PlaceholderTransactions  = "Select an account"
)

// Renderer holds the viewer's location. Its methods are pure.
type Renderer struct {
	loc *time.Location
}

// New creates a renderer for a viewer in loc. A nil loc means time.Local.
func New(loc *time.Location) *Renderer {
	if loc == nil {
		loc = time.Local
	}
	return &Renderer{loc: loc}
}

func (r *Renderer) CustomerAccounts(accounts []model.Account) Node {
	if len(accounts) == 0 {
		return &EmptyState{Icon: "📭", Message: "No accounts found. Create your first account!"}
	}

	table := &Table{Columns: []string{"Account Number", "Type", "Balance", "Currency", "Status", "Actions"}}
	for _, acc := range accounts {
		action := Cell{Text: "-"}
		if acc.IsActive() {
			action = Cell{Actions: []RowAction{{
				Label:  "Deposit",
				Kind:   OpenModal,
				Target: "deposit",
				Params: map[string]string{"account_id": strconv.FormatInt(acc.ID, 10)},
				Style:  "success",
			}}}
		}
		table.Rows = append(table.Rows, []Cell{
			{Text: acc.Number.String()},
			{Text: acc.Type.String(), Capitalize: true},
			{Text: fmt.Sprintf("%s %s", acc.Currency, Money(acc.Balance))},
			{Text: acc.Currency.String()},
			{Text: acc.Status.String(), Badge: BadgeFor(acc.Status.String())},
			action,
		})
	}
	return table
}

// CustomerStats summarizes the customer's accounts.
func (r *Renderer) CustomerStats(accounts []model.Account) Node {
	return &StatCards{Cards: []StatCard{
		{Label: "Total Accounts", Value: strconv.Itoa(len(accounts))},
		{Label: "Active Accounts", Value: strconv.Itoa(len(model.ActiveAccounts(accounts)))},
		{Label: "Total Balance", Value: Rupees(model.TotalBalance(accounts))},
	}}
}

// AccountOptions lists the active accounts with their balances.
func (r *Renderer) AccountOptions(accounts []model.Account, placeholder string) Node {
	list := &OptionList{Placeholder: placeholder}
	for _, acc := range model.ActiveAccounts(accounts) {
		list.Options = append(list.Options, Option{
			Value: strconv.FormatInt(acc.ID, 10),
			Label: fmt.Sprintf("%s (%s - %s %s)", acc.Number, acc.Type, acc.Currency, Money(acc.Balance)),
		})
	}
	return list
}

// LoanAccountOptions lists the active accounts a loan can be paid into.
func (r *Renderer) LoanAccountOptions(accounts []model.Account) Node {
	list := &OptionList{Placeholder: PlaceholderSelectAccount}
	for _, acc := range model.ActiveAccounts(accounts) {
		list.Options = append(list.Options, Option{
			Value: strconv.FormatInt(acc.ID, 10),
			Label: fmt.Sprintf("%s (%s)", acc.Number, acc.Type),
		})
	}
	return list
}

func (r *Renderer) CustomerLoans(loans []model.Loan) Node {
	if len(loans) == 0 {
		return &EmptyState{Icon: "📄", Message: "No loans found. Apply for a loan to get started!"}
	}

	table := &Table{Columns: []string{"Loan ID", "Type", "Amount", "Interest Rate", "Tenure", "Monthly EMI", "Status", "Applied Date"}}
	for _, loan := range loans {
		table.Rows = append(table.Rows, []Cell{
			{Text: loanID(loan)},
			{Text: loan.Type.String(), Capitalize: true},
			{Text: Rupees(loan.Amount)},
			{Text: loan.InterestRate.String() + "%"},
			{Text: loan.TenureMonths.String() + " months"},
			{Text: Rupees(loan.MonthlyEMI)},
			{Text: loan.Status.String(), Badge: BadgeFor(loan.Status.String())},
			{Text: r.Date(loan.AppliedAt.String())},
		})
	}
	return table
}

func (r *Renderer) Transactions(txs []model.Transaction) Node {
	if len(txs) == 0 {
		return &EmptyState{Icon: "📊", Message: "No transactions found for this account."}
	}

	table := &Table{Columns: []string{"Date", "Type", "Amount", "Fee", "Description", "Other Account", "Status"}}
	for _, tx := range txs {
		typeBadge, sign, tone := BadgePending, "-", ToneNegative
		if tx.IsCredit() {
			typeBadge, sign, tone = BadgeActive, "+", TonePositive
		}
		table.Rows = append(table.Rows, []Cell{
			{Text: r.DateTime(tx.Date.String())},
			{Text: tx.Type.String(), Badge: typeBadge},
			{Text: sign + Rupees(tx.Amount), Tone: tone, Strong: true},
			{Text: Rupees(tx.Fee)},
			{Text: tx.Description.OrDash()},
			{Text: tx.OtherAccount.OrDash()},
			{Text: tx.Status.String(), Badge: BadgeActive},
		})
	}
	return table
}

func loanID(loan model.Loan) string {
	return "#" + strconv.FormatInt(loan.ID, 10)
}
