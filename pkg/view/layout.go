// Package view holds the per-session view state: which panel is visible,
// what each container shows, and the state of every form. It never does
// I/O; loaders and the action dispatcher drive it.
package view

import "fmt"

type (
	Role        string
	PanelID     string
	ContainerID string
	ModalID     string
	Resource    string
	ActionID    string
)

const (
	RoleCustomer Role = "customer"
	RoleAdmin    Role = "admin"
)

// Customer panels.
const (
	PanelAccounts     PanelID = "accounts"
	PanelTransfer     PanelID = "transfer"
	PanelLoans        PanelID = "loans"
	PanelTransactions PanelID = "transactions"
)

// Admin panels.
const (
	PanelPendingAccounts PanelID = "pending-accounts"
	PanelPendingLoans    PanelID = "pending-loans"
	PanelAllAccounts     PanelID = "all-accounts"
	PanelAllLoans        PanelID = "all-loans"
)

// Containers receive rendered nodes.
const (
	ContainerAccounts           ContainerID = "accounts-list"
	ContainerStats              ContainerID = "stats"
	ContainerFromAccount        ContainerID = "from-account"
	ContainerTransactionAccount ContainerID = "transaction-account"
	ContainerLoanAccount        ContainerID = "loan-account"
	ContainerLoans              ContainerID = "loans-list"
	ContainerTransactions       ContainerID = "transactions-list"

	ContainerAdminStats      ContainerID = "admin-stats"
	ContainerPendingAccounts ContainerID = "pending-accounts-list"
	ContainerPendingLoans    ContainerID = "pending-loans-list"
	ContainerAllAccounts     ContainerID = "all-accounts-list"
	ContainerAllLoans        ContainerID = "all-loans-list"
)

// Customer modals.
const (
	ModalCreateAccount ModalID = "create-account"
	ModalApplyLoan     ModalID = "apply-loan"
	ModalDeposit       ModalID = "deposit"
)

// Resources a loader can refresh.
const (
	ResUserAccounts    Resource = "user-accounts"
	ResLoanAccounts    Resource = "loan-accounts"
	ResUserLoans       Resource = "user-loans"
	ResTransactions    Resource = "transactions"
	ResAdminStats      Resource = "admin-stats"
	ResPendingAccounts Resource = "pending-accounts"
	ResPendingLoans    Resource = "pending-loans"
	ResAllAccounts     Resource = "all-accounts"
	ResAllLoans        Resource = "all-loans"
)

// Actions the dispatcher knows.
const (
	ActionCreateAccount  ActionID = "create-account"
	ActionTransfer       ActionID = "transfer"
	ActionApplyLoan      ActionID = "apply-loan"
	ActionDeposit        ActionID = "deposit"
	ActionApproveAccount ActionID = "approve-account"
	ActionApproveLoan    ActionID = "approve-loan"
)

// Layout is the fixed structure of one role's page.
type Layout struct {
	Role         Role
	Panels       []PanelID
	DefaultPanel PanelID
	// Loads lists the resources refreshed when a panel is activated.
	Loads map[PanelID][]Resource
	// Eager lists the resources loaded when a session starts.
	Eager      []Resource
	Modals     []ModalID
	Containers []ContainerID
	// ModalLoads lists the resources refreshed when a modal opens.
	ModalLoads map[ModalID][]Resource
}

var layouts = map[Role]*Layout{
	RoleCustomer: {
		Role:         RoleCustomer,
		Panels:       []PanelID{PanelAccounts, PanelTransfer, PanelLoans, PanelTransactions},
		DefaultPanel: PanelAccounts,
		Loads:        map[PanelID][]Resource{},
		Eager:        []Resource{ResUserAccounts, ResUserLoans},
		Modals:       []ModalID{ModalCreateAccount, ModalApplyLoan, ModalDeposit},
		Containers: []ContainerID{
			ContainerAccounts, ContainerStats, ContainerFromAccount, ContainerTransactionAccount,
			ContainerLoanAccount, ContainerLoans, ContainerTransactions,
		},
		ModalLoads: map[ModalID][]Resource{
			ModalApplyLoan: {ResLoanAccounts},
		},
	},
	RoleAdmin: {
		Role:         RoleAdmin,
		Panels:       []PanelID{PanelPendingAccounts, PanelPendingLoans, PanelAllAccounts, PanelAllLoans},
		DefaultPanel: PanelPendingAccounts,
		Loads: map[PanelID][]Resource{
			PanelAllAccounts: {ResAllAccounts},
			PanelAllLoans:    {ResAllLoans},
		},
		Eager: []Resource{ResAdminStats, ResPendingAccounts, ResPendingLoans},
		Containers: []ContainerID{
			ContainerAdminStats, ContainerPendingAccounts, ContainerPendingLoans,
			ContainerAllAccounts, ContainerAllLoans,
		},
		ModalLoads: map[ModalID][]Resource{},
	},
}

// LayoutFor returns the layout of role.
func LayoutFor(role Role) (*Layout, error) {
	layout, ok := layouts[role]
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownRole, role)
	}
	return layout, nil
}

// ParseRole validates a role name taken from a URL.
func ParseRole(s string) (Role, error) {
	role := Role(s)
	if _, err := LayoutFor(role); err != nil {
		return "", err
	}
	return role, nil
}

func (l *Layout) hasPanel(p PanelID) bool {
	for _, panel := range l.Panels {
		if panel == p {
			return true
		}
	}
	return false
}

func (l *Layout) hasModal(m ModalID) bool {
	for _, modal := range l.Modals {
		if modal == m {
			return true
		}
	}
	return false
}

// HasContainer reports whether c belongs to the layout.
func (l *Layout) HasContainer(c ContainerID) bool {
	for _, container := range l.Containers {
		if container == c {
			return true
		}
	}
	return false
}
