package view

import (
	"fmt"

	"bank-console/pkg/render"
)

// FormStatus is where a form is in its submit cycle.
type FormStatus int

const (
	FormIdle FormStatus = iota
	FormPending
	FormSettledSuccess
	FormSettledError
)

func (s FormStatus) String() string {
	switch s {
	case FormIdle:
		return "idle"
	case FormPending:
		return "pending"
	case FormSettledSuccess:
		return "success"
	case FormSettledError:
		return "error"
	default:
		return "unknown"
	}
}

// NoticeKind selects the notice styling.
type NoticeKind string

const (
	NoticeSuccess NoticeKind = "success"
	NoticeError   NoticeKind = "error"
)

// Notice is an inline message shown next to a form.
type Notice struct {
	Kind NoticeKind
	Text string
}

// Form is the state of one action's form. Values are kept on failure so
// the user can correct and resubmit.
type Form struct {
	Status FormStatus
	Values map[string]string
	Notice *Notice
}

// Value returns the submitted value of field, or "".
func (f *Form) Value(field string) string {
	return f.Values[field]
}

// Dialog is a blocking message the user must dismiss.
type Dialog struct {
	Text string
}

// Confirmation is a destructive action waiting for an explicit yes or no.
type Confirmation struct {
	Action ActionID
	Prompt string
	Input  map[string]string
}

// State is the complete view state of one console session. It is not
// safe for concurrent use; the session loop is its only writer.
type State struct {
	Role   Role
	layout *Layout

	ActivePanel PanelID
	Trigger     string

	containers map[ContainerID]render.Node
	openModals map[ModalID]bool

	// DepositAccount is the account the deposit modal was opened for.
	DepositAccount string
	// TransactionsAccount is the account chosen in the transactions selector.
	TransactionsAccount string

	forms map[ActionID]*Form

	Dialog       *Dialog
	Confirmation *Confirmation
}

// NewState returns the initial state of a role's page: the default panel
// visible, every container still loading.
func NewState(role Role) (*State, error) {
	layout, err := LayoutFor(role)
	if err != nil {
		return nil, err
	}
	return &State{
		Role:        role,
		layout:      layout,
		ActivePanel: layout.DefaultPanel,
		containers:  make(map[ContainerID]render.Node),
		openModals:  make(map[ModalID]bool),
		forms:       make(map[ActionID]*Form),
	}, nil
}

// Layout returns the role layout the state follows.
func (s *State) Layout() *Layout {
	return s.layout
}

// Activate shows panel, hides every other one and records trigger as the
// selected control. It returns the resources to refresh for the panel.
// In-flight loads for other panels are not cancelled.
func (s *State) Activate(panel PanelID, trigger string) ([]Resource, error) {
	if !s.layout.hasPanel(panel) {
		return nil, fmt.Errorf("%w: %q", ErrUnknownPanel, panel)
	}
	if trigger == "" {
		return nil, ErrNoTrigger
	}

	s.ActivePanel = panel
	s.Trigger = trigger
	return append([]Resource(nil), s.layout.Loads[panel]...), nil
}

// PanelVisible reports whether panel is the visible one.
func (s *State) PanelVisible(panel PanelID) bool {
	return s.ActivePanel == panel
}

// SetContainer replaces the content of a container.
func (s *State) SetContainer(id ContainerID, node render.Node) {
	s.containers[id] = node
}

// Container returns the content of a container; nil means not yet loaded.
func (s *State) Container(id ContainerID) render.Node {
	return s.containers[id]
}

// modalForms maps each modal to the form it hosts.
var modalForms = map[ModalID]ActionID{
	ModalCreateAccount: ActionCreateAccount,
	ModalApplyLoan:     ActionApplyLoan,
	ModalDeposit:       ActionDeposit,
}

// OpenModal opens modal and returns the resources it needs. The deposit
// modal records the account it was opened for. A settled form left over
// from an earlier opening starts clean; a pending one is left alone.
func (s *State) OpenModal(modal ModalID, params map[string]string) ([]Resource, error) {
	if !s.layout.hasModal(modal) {
		return nil, fmt.Errorf("%w: %q", ErrUnknownModal, modal)
	}
	if modal == ModalDeposit {
		s.DepositAccount = params["account_id"]
	}
	if action, ok := modalForms[modal]; ok {
		if form := s.Form(action); form.Status != FormPending {
			form.Status = FormIdle
			form.Notice = nil
			form.Values = nil
		}
	}
	s.openModals[modal] = true
	return append([]Resource(nil), s.layout.ModalLoads[modal]...), nil
}

// CloseModal hides modal. It has no other effect.
func (s *State) CloseModal(modal ModalID) error {
	if !s.layout.hasModal(modal) {
		return fmt.Errorf("%w: %q", ErrUnknownModal, modal)
	}
	delete(s.openModals, modal)
	return nil
}

// ModalOpen reports whether modal is showing.
func (s *State) ModalOpen(modal ModalID) bool {
	return s.openModals[modal]
}

// SelectTransactionsAccount records the chosen account. It returns false
// when the selection was cleared, in which case the list is blanked.
func (s *State) SelectTransactionsAccount(accountID string) bool {
	s.TransactionsAccount = accountID
	if accountID == "" {
		s.containers[ContainerTransactions] = render.Blank{}
		return false
	}
	return true
}

// Form returns the form of action, creating it idle on first use.
func (s *State) Form(action ActionID) *Form {
	form, ok := s.forms[action]
	if !ok {
		form = &Form{}
		s.forms[action] = form
	}
	return form
}

// ModalFor returns the modal hosting action's form, if any.
func ModalFor(action ActionID) (ModalID, bool) {
	for modal, a := range modalForms {
		if a == action {
			return modal, true
		}
	}
	return "", false
}

// DismissDialog clears the blocking dialog.
func (s *State) DismissDialog() {
	s.Dialog = nil
}
