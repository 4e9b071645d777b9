package render

import (
	"strconv"

	"bank-console/pkg/model"
)

// AdminStats renders the aggregate cards at the top of the admin console.
func (r *Renderer) AdminStats(stats model.AdminStats) Node {
	return &StatCards{Cards: []StatCard{
		{Label: "Total Users", Value: stats.Users.TotalUsers.String()},
		{Label: "Active Users", Value: stats.Users.ActiveUsers.String()},
		{Label: "Total Accounts", Value: stats.Accounts.TotalAccounts.String()},
		{Label: "Pending Accounts", Value: stats.Accounts.PendingAccounts.String()},
		{Label: "Total Balance", Value: Rupees(stats.Accounts.TotalBalance)},
		{Label: "Total Loans", Value: stats.Loans.TotalLoans.String()},
		{Label: "Pending Loans", Value: stats.Loans.PendingLoans.String()},
		{Label: "Loan Amount", Value: Rupees(stats.Loans.TotalLoanAmount)},
	}}
}

func (r *Renderer) PendingAccounts(accounts []model.Account) Node {
	if len(accounts) == 0 {
		return &EmptyState{Icon: "✅", Message: "No pending account approvals"}
	}

	table := &Table{Columns: []string{"Account Number", "Customer Name", "Email", "Phone", "Account Type", "Created Date", "Action"}}
	for _, acc := range accounts {
		table.Rows = append(table.Rows, []Cell{
			{Text: acc.Number.String()},
			{Text: acc.FullName.String()},
			{Text: acc.Email.String()},
			{Text: acc.Phone.String()},
			{Text: acc.Type.String(), Capitalize: true},
			{Text: r.DateTime(acc.CreatedAt.String())},
			{Actions: []RowAction{{
				Label:  "Approve",
				Kind:   Submit,
				Target: "approve-account",
				Params: map[string]string{"account_id": strconv.FormatInt(acc.ID, 10)},
				Style:  "success",
			}}},
		})
	}
	return table
}

func (r *Renderer) PendingLoans(loans []model.Loan) Node {
	if len(loans) == 0 {
		return &EmptyState{Icon: "✅", Message: "No pending loan applications"}
	}

	table := &Table{Columns: []string{
		"Loan ID", "Customer Name", "Email", "Account Number", "Loan Type", "Amount",
		"Interest Rate", "Tenure", "Monthly EMI", "Purpose", "Applied Date", "Actions",
	}}
	for _, loan := range loans {
		id := strconv.FormatInt(loan.ID, 10)
		table.Rows = append(table.Rows, []Cell{
			{Text: loanID(loan)},
			{Text: loan.FullName.String()},
			{Text: loan.Email.String()},
			{Text: loan.AccountNumber.String()},
			{Text: loan.Type.String(), Capitalize: true},
			{Text: Rupees(loan.Amount)},
			{Text: loan.InterestRate.String() + "%"},
			{Text: loan.TenureMonths.String() + " months"},
			{Text: Rupees(loan.MonthlyEMI)},
			{Text: loan.Purpose.String()},
			{Text: r.DateTime(loan.AppliedAt.String())},
			{Actions: []RowAction{
				{
					Label:  "Approve",
					Kind:   Submit,
					Target: "approve-loan",
					Params: map[string]string{"loan_id": id, "approve": "true"},
					Style:  "success",
				},
				{
					Label:  "Reject",
					Kind:   Submit,
					Target: "approve-loan",
					Params: map[string]string{"loan_id": id, "approve": "false"},
					Style:  "danger",
				},
			}},
		})
	}
	return table
}

func (r *Renderer) AllAccounts(accounts []model.Account) Node {
	if len(accounts) == 0 {
		return &EmptyState{Icon: "📭", Message: "No accounts found"}
	}

	table := &Table{Columns: []string{
		"Account Number", "Customer Name", "Email", "Phone", "Type", "Balance", "Currency",
		"Status", "Transactions", "Total Credits", "Total Debits",
	}}
	for _, acc := range accounts {
		table.Rows = append(table.Rows, []Cell{
			{Text: acc.Number.String()},
			{Text: acc.FullName.String()},
			{Text: acc.Email.String()},
			{Text: acc.Phone.String()},
			{Text: acc.Type.String(), Capitalize: true},
			{Text: Rupees(acc.Balance)},
			{Text: acc.Currency.String()},
			{Text: acc.Status.String(), Badge: BadgeFor(acc.Status.String())},
			{Text: acc.TransactionCount.String()},
			{Text: Rupees(acc.TotalCredits), Tone: TonePositive},
			{Text: Rupees(acc.TotalDebits), Tone: ToneNegative},
		})
	}
	return table
}

func (r *Renderer) AllLoans(loans []model.Loan) Node {
	if len(loans) == 0 {
		return &EmptyState{Icon: "📄", Message: "No loans found"}
	}

	table := &Table{Columns: []string{
		"Loan ID", "Customer Name", "Email", "Account Number", "Loan Type", "Amount",
		"Interest Rate", "Tenure", "Monthly EMI", "Status", "Applied Date",
	}}
	for _, loan := range loans {
		table.Rows = append(table.Rows, []Cell{
			{Text: loanID(loan)},
			{Text: loan.FullName.String()},
			{Text: loan.Email.String()},
			{Text: loan.AccountNumber.String()},
			{Text: loan.Type.String(), Capitalize: true},
			{Text: Rupees(loan.Amount)},
			{Text: loan.InterestRate.String() + "%"},
			{Text: loan.TenureMonths.String() + " months"},
			{Text: Rupees(loan.MonthlyEMI)},
			{Text: loan.Status.String(), Badge: BadgeFor(loan.Status.String())},
			{Text: r.DateTime(loan.AppliedAt.String())},
		})
	}
	return table
}
