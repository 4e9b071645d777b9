package dispatch

import (
	"context"
	"errors"
	"testing"
	"time"

	"bank-console/pkg/backend"
	"bank-console/pkg/config"
	"bank-console/pkg/journal"
	"bank-console/pkg/logging"
	"bank-console/pkg/metrics"
	"bank-console/pkg/metrics/memory"
	"bank-console/pkg/view"
)

type delayed struct {
	d  time.Duration
	fn func()
}

// fakeExec queues off-loop work and delayed callbacks until the test runs
// them. Posts run at once unless postErr is set.
type fakeExec struct {
	pending []func(ctx context.Context)
	timers  []delayed
	postErr error
}

func (e *fakeExec) Go(fn func(ctx context.Context)) error {
	e.pending = append(e.pending, fn)
	return nil
}

func (e *fakeExec) Post(fn func()) error {
	if e.postErr != nil {
		return e.postErr
	}
	fn()
	return nil
}

func (e *fakeExec) After(d time.Duration, fn func()) error {
	e.timers = append(e.timers, delayed{d: d, fn: fn})
	return nil
}

func (e *fakeExec) runAll() {
	for len(e.pending) > 0 {
		fn := e.pending[0]
		e.pending = e.pending[1:]
		fn(context.Background())
	}
}

func (e *fakeExec) fireTimers() {
	timers := e.timers
	e.timers = nil
	for _, t := range timers {
		t.fn()
	}
}

type fakeBackend struct {
	calls    []string
	deposits []backend.DepositRequest
	loans    []backend.ApproveLoanRequest
	result   backend.Result
	err      error
}

func (f *fakeBackend) answer(name string) (backend.Result, error) {
	f.calls = append(f.calls, name)
	return f.result, f.err
}

func (f *fakeBackend) CreateAccount(ctx context.Context, req backend.CreateAccountRequest) (backend.Result, error) {
	return f.answer("create-account")
}

func (f *fakeBackend) Transfer(ctx context.Context, req backend.TransferRequest) (backend.Result, error) {
	return f.answer("transfer")
}

func (f *fakeBackend) ApplyLoan(ctx context.Context, req backend.ApplyLoanRequest) (backend.Result, error) {
	return f.answer("apply-loan")
}

func (f *fakeBackend) Deposit(ctx context.Context, req backend.DepositRequest) (backend.Result, error) {
	f.deposits = append(f.deposits, req)
	return f.answer("deposit")
}

func (f *fakeBackend) ApproveAccount(ctx context.Context, req backend.ApproveAccountRequest) (backend.Result, error) {
	return f.answer("approve-account")
}

func (f *fakeBackend) ApproveLoan(ctx context.Context, req backend.ApproveLoanRequest) (backend.Result, error) {
	f.loans = append(f.loans, req)
	return f.answer("approve-loan")
}

type fakeRefresher struct {
	refreshed []view.Resource
}

func (f *fakeRefresher) Refresh(st *view.State, res view.Resource) error {
	f.refreshed = append(f.refreshed, res)
	return nil
}

// stallingJournal reports each write on entered and then blocks until
// release is closed or the write's context ends.
type stallingJournal struct {
	entered chan journal.Entry
	release chan struct{}
}

func (j *stallingJournal) Record(ctx context.Context, e journal.Entry) error {
	j.entered <- e
	select {
	case <-j.release:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (j *stallingJournal) Close() error { return nil }

type fixture struct {
	d         *Dispatcher
	exec      *fakeExec
	backend   *fakeBackend
	refresher *fakeRefresher
	metrics   *memory.MemoryCollector
}

func newFixture() *fixture {
	f := &fixture{
		exec:      &fakeExec{},
		backend:   &fakeBackend{},
		refresher: &fakeRefresher{},
		metrics:   memory.NewMemoryCollector(),
	}
	f.d = New(Config{
		SessionID: "s1",
		Backend:   f.backend,
		Refresher: f.refresher,
		Executor:  f.exec,
		Guard:     NewReplayGuard(1000, 0.0001),
		Delays:    config.DefaultDelays(),
		Metrics:   f.metrics,
		Logger:    logging.NewNoOpLogger(),
	})
	return f
}

func TestSubmit_DepositSuccess(t *testing.T) {
	f := newFixture()
	f.backend.result = backend.Result{Message: "Deposit successful"}
	st, _ := view.NewState(view.RoleCustomer)
	st.OpenModal(view.ModalDeposit, map[string]string{"account_id": "5"})

	if err := f.d.Submit(st, view.ActionDeposit, map[string]string{"amount": "100"}, "n1"); err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
	if st.Form(view.ActionDeposit).Status != view.FormPending {
		t.Fatalf("Expected pending form, got %s", st.Form(view.ActionDeposit).Status)
	}

	f.exec.runAll()

	if len(f.backend.deposits) != 1 || f.backend.deposits[0].AccountID != 5 || f.backend.deposits[0].Amount != "100" {
		t.Fatalf("Expected deposit {5, 100}, got %+v", f.backend.deposits)
	}
	form := st.Form(view.ActionDeposit)
	if form.Status != view.FormSettledSuccess {
		t.Errorf("Expected success, got %s", form.Status)
	}
	if form.Notice == nil || form.Notice.Kind != view.NoticeSuccess || form.Notice.Text != "Deposit successful" {
		t.Errorf("Expected success notice, got %+v", form.Notice)
	}
	if form.Values != nil {
		t.Errorf("Expected form cleared, got %v", form.Values)
	}

	if !st.ModalOpen(view.ModalDeposit) {
		t.Error("Expected modal still open before the delay")
	}
	if len(f.refresher.refreshed) != 0 {
		t.Error("Expected no refetch before the modal closes")
	}
	if len(f.exec.timers) != 1 || f.exec.timers[0].d != 1500*time.Millisecond {
		t.Fatalf("Expected one 1500ms close, got %+v", f.exec.timers)
	}

	f.exec.fireTimers()

	if st.ModalOpen(view.ModalDeposit) {
		t.Error("Expected modal closed after the delay")
	}
	if len(f.refresher.refreshed) != 1 || f.refresher.refreshed[0] != view.ResUserAccounts {
		t.Errorf("Expected user-accounts refetch only, got %v", f.refresher.refreshed)
	}
	if f.metrics.Actions("deposit", metrics.ActionSuccess) != 1 {
		t.Error("Expected success recorded")
	}
}

func TestSubmit_RejectLoanApplicationError(t *testing.T) {
	f := newFixture()
	f.backend.err = &backend.ApplicationError{Endpoint: backend.PathApproveLoan, Message: "Loan already processed"}
	st, _ := view.NewState(view.RoleAdmin)

	input := map[string]string{"loan_id": "9", "approve": "false"}
	if err := f.d.Submit(st, view.ActionApproveLoan, input, ""); err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
	if st.Confirmation == nil || st.Confirmation.Prompt != "Are you sure you want to reject this loan application?" {
		t.Fatalf("Expected reject confirmation, got %+v", st.Confirmation)
	}
	if len(f.exec.pending) != 0 {
		t.Fatal("Expected no request before confirmation")
	}

	if err := f.d.Confirm(st, true); err != nil {
		t.Fatalf("Confirm failed: %v", err)
	}
	f.exec.runAll()

	if len(f.backend.loans) != 1 || f.backend.loans[0].LoanID != 9 || f.backend.loans[0].Approve {
		t.Fatalf("Expected reject of loan 9, got %+v", f.backend.loans)
	}
	if st.Dialog == nil || st.Dialog.Text != "Error: Loan already processed" {
		t.Errorf("Expected error dialog, got %+v", st.Dialog)
	}
	if len(f.refresher.refreshed) != 0 {
		t.Errorf("Expected no refetch after failure, got %v", f.refresher.refreshed)
	}
	if f.metrics.Actions("approve-loan", metrics.ActionError) != 1 {
		t.Error("Expected application error recorded")
	}
}

func TestSubmit_ApproveLoanRefetchSet(t *testing.T) {
	f := newFixture()
	f.backend.result = backend.Result{Message: "Loan approved"}
	st, _ := view.NewState(view.RoleAdmin)

	f.d.Submit(st, view.ActionApproveLoan, map[string]string{"loan_id": "3", "approve": "true"}, "")
	if st.Confirmation.Prompt != "Are you sure you want to approve this loan application?" {
		t.Errorf("Unexpected prompt %q", st.Confirmation.Prompt)
	}
	f.d.Confirm(st, true)
	f.exec.runAll()

	if st.Dialog == nil || st.Dialog.Text != "Loan approved" {
		t.Errorf("Expected success dialog, got %+v", st.Dialog)
	}
	got := f.refresher.refreshed
	if len(got) != 2 || got[0] != view.ResPendingLoans || got[1] != view.ResAdminStats {
		t.Errorf("Expected pending-loans and admin-stats, got %v", got)
	}
}

func TestSubmit_TransportFallback(t *testing.T) {
	f := newFixture()
	f.backend.err = backend.ErrTimeout
	st, _ := view.NewState(view.RoleCustomer)

	input := map[string]string{"from_account": "1", "to_account_number": "ACC2", "amount": "5"}
	f.d.Submit(st, view.ActionTransfer, input, "")
	f.exec.runAll()

	form := st.Form(view.ActionTransfer)
	if form.Notice == nil || form.Notice.Text != "Failed to transfer money" {
		t.Errorf("Expected fallback notice, got %+v", form.Notice)
	}
	if form.Value("to_account_number") != "ACC2" {
		t.Error("Expected values kept after failure")
	}
	if f.metrics.Actions("transfer", metrics.ActionTransportError) != 1 {
		t.Error("Expected transport error recorded")
	}
}

func TestSubmit_WhilePendingMakesNoCall(t *testing.T) {
	f := newFixture()
	st, _ := view.NewState(view.RoleCustomer)

	input := map[string]string{"account_type": "savings"}
	if err := f.d.Submit(st, view.ActionCreateAccount, input, ""); err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
	if err := f.d.Submit(st, view.ActionCreateAccount, input, ""); !errors.Is(err, ErrSubmitPending) {
		t.Fatalf("Expected ErrSubmitPending, got %v", err)
	}
	f.exec.runAll()

	if len(f.backend.calls) != 1 {
		t.Errorf("Expected one network call, got %d", len(f.backend.calls))
	}
}

func TestConfirm_DeclineMakesNoCall(t *testing.T) {
	f := newFixture()
	st, _ := view.NewState(view.RoleAdmin)

	f.d.Submit(st, view.ActionApproveAccount, map[string]string{"account_id": "4"}, "")
	if err := f.d.Confirm(st, false); err != nil {
		t.Fatalf("Confirm failed: %v", err)
	}
	f.exec.runAll()

	if len(f.backend.calls) != 0 {
		t.Errorf("Expected no network call, got %v", f.backend.calls)
	}
	if st.Form(view.ActionApproveAccount).Status != view.FormIdle {
		t.Error("Expected form back to idle")
	}
	if f.metrics.Actions("approve-account", metrics.ActionDeclined) != 1 {
		t.Error("Expected decline recorded")
	}
	if err := f.d.Confirm(st, true); !errors.Is(err, ErrNoConfirmation) {
		t.Errorf("Expected ErrNoConfirmation, got %v", err)
	}
}

func TestSubmit_ReplayedNonce(t *testing.T) {
	f := newFixture()
	st, _ := view.NewState(view.RoleCustomer)

	input := map[string]string{"account_type": "savings"}
	f.d.Submit(st, view.ActionCreateAccount, input, "n-1")
	f.exec.runAll()

	if err := f.d.Submit(st, view.ActionCreateAccount, input, "n-1"); !errors.Is(err, ErrReplayed) {
		t.Fatalf("Expected ErrReplayed, got %v", err)
	}
	if len(f.exec.pending) != 0 || len(f.backend.calls) != 1 {
		t.Errorf("Expected no second call, got %v", f.backend.calls)
	}
}

func TestSubmit_ValidationRejectsLocally(t *testing.T) {
	f := newFixture()
	st, _ := view.NewState(view.RoleCustomer)

	err := f.d.Submit(st, view.ActionApplyLoan, map[string]string{"account_id": "", "loan_amount": "500"}, "")
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("Expected ErrInvalidInput, got %v", err)
	}
	form := st.Form(view.ActionApplyLoan)
	if form.Notice == nil || form.Notice.Text != "Please select an account" {
		t.Errorf("Expected select-account notice, got %+v", form.Notice)
	}
	if form.Value("loan_amount") != "500" {
		t.Error("Expected values kept")
	}
	if len(f.exec.pending) != 0 {
		t.Error("Expected no network call")
	}
}

func TestSubmit_UnknownActionForRole(t *testing.T) {
	f := newFixture()
	st, _ := view.NewState(view.RoleCustomer)

	if err := f.d.Submit(st, view.ActionApproveAccount, nil, ""); !errors.Is(err, ErrUnknownAction) {
		t.Errorf("Expected ErrUnknownAction, got %v", err)
	}
}

func TestOpenModal_ClearsSettledForm(t *testing.T) {
	f := newFixture()
	f.backend.err = &backend.ApplicationError{Message: "Insufficient funds"}
	st, _ := view.NewState(view.RoleCustomer)

	st.OpenModal(view.ModalDeposit, map[string]string{"account_id": "5"})
	f.d.Submit(st, view.ActionDeposit, map[string]string{"amount": "1"}, "")
	f.exec.runAll()
	st.CloseModal(view.ModalDeposit)

	st.OpenModal(view.ModalDeposit, map[string]string{"account_id": "6"})
	if form := st.Form(view.ActionDeposit); form.Notice != nil || form.Status != view.FormIdle {
		t.Errorf("Expected clean form on reopen, got %+v", form)
	}
}

func TestReplayGuard_Rotates(t *testing.T) {
	g := NewReplayGuard(2, 0.001)

	if g.Seen("a") || g.Seen("b") {
		t.Fatal("Expected fresh nonces unseen")
	}
	// "a" and "b" now sit in the previous generation.
	if !g.Seen("a") {
		t.Error("Expected nonce remembered across one rotation")
	}
	if g.Seen("c") {
		t.Error("Expected fresh nonce unseen")
	}
}

func sameResources(got, want []view.Resource) bool {
	if len(got) != len(want) {
		return false
	}
	for i := range got {
		if got[i] != want[i] {
			return false
		}
	}
	return true
}

func TestSubmit_SuccessRefetchSets(t *testing.T) {
	tests := []struct {
		action view.ActionID
		role   view.Role
		input  map[string]string
		modal  view.ModalID
		delay  time.Duration
		want   []view.Resource
	}{
		{
			action: view.ActionCreateAccount, role: view.RoleCustomer,
			input: map[string]string{"account_type": "savings"},
			modal: view.ModalCreateAccount, delay: 2000 * time.Millisecond,
			want: []view.Resource{view.ResUserAccounts},
		},
		{
			action: view.ActionTransfer, role: view.RoleCustomer,
			input: map[string]string{"from_account": "1", "to_account_number": "ACC2", "amount": "5"},
			want:  []view.Resource{view.ResUserAccounts},
		},
		{
			action: view.ActionApplyLoan, role: view.RoleCustomer,
			input: map[string]string{"account_id": "1", "loan_type": "home", "loan_amount": "500", "tenure_months": "12"},
			modal: view.ModalApplyLoan, delay: 2000 * time.Millisecond,
			want: []view.Resource{view.ResUserLoans},
		},
		{
			action: view.ActionDeposit, role: view.RoleCustomer,
			input: map[string]string{"account_id": "5", "amount": "100"},
			modal: view.ModalDeposit, delay: 1500 * time.Millisecond,
			want: []view.Resource{view.ResUserAccounts},
		},
		{
			action: view.ActionApproveAccount, role: view.RoleAdmin,
			input: map[string]string{"account_id": "4"},
			want:  []view.Resource{view.ResPendingAccounts, view.ResAdminStats},
		},
		{
			action: view.ActionApproveLoan, role: view.RoleAdmin,
			input: map[string]string{"loan_id": "9", "approve": "false"},
			want:  []view.Resource{view.ResPendingLoans, view.ResAdminStats},
		},
	}

	for _, tt := range tests {
		t.Run(string(tt.action), func(t *testing.T) {
			f := newFixture()
			f.backend.result = backend.Result{Message: "ok"}
			st, _ := view.NewState(tt.role)
			if tt.modal != "" {
				st.OpenModal(tt.modal, tt.input)
			}

			if err := f.d.Submit(st, tt.action, tt.input, ""); err != nil {
				t.Fatalf("Submit failed: %v", err)
			}
			if st.Confirmation != nil {
				if err := f.d.Confirm(st, true); err != nil {
					t.Fatalf("Confirm failed: %v", err)
				}
			}
			f.exec.runAll()

			if len(f.backend.calls) != 1 || f.backend.calls[0] != string(tt.action) {
				t.Fatalf("Expected one %s call, got %v", tt.action, f.backend.calls)
			}
			if st.Form(tt.action).Status != view.FormSettledSuccess {
				t.Fatalf("Expected success, got %s", st.Form(tt.action).Status)
			}

			if tt.modal == "" {
				if len(f.exec.timers) != 0 {
					t.Errorf("Expected no delayed close, got %d", len(f.exec.timers))
				}
				if !sameResources(f.refresher.refreshed, tt.want) {
					t.Errorf("Expected refetch %v, got %v", tt.want, f.refresher.refreshed)
				}
				return
			}

			if len(f.refresher.refreshed) != 0 {
				t.Errorf("Expected no refetch before the close, got %v", f.refresher.refreshed)
			}
			if len(f.exec.timers) != 1 || f.exec.timers[0].d != tt.delay {
				t.Fatalf("Expected one %v close, got %+v", tt.delay, f.exec.timers)
			}
			f.exec.fireTimers()
			if st.ModalOpen(tt.modal) {
				t.Error("Expected modal closed")
			}
			if !sameResources(f.refresher.refreshed, tt.want) {
				t.Errorf("Expected refetch %v, got %v", tt.want, f.refresher.refreshed)
			}
		})
	}
}

func TestSubmit_RefusedSettleAppliedAtNextSubmit(t *testing.T) {
	f := newFixture()
	f.backend.result = backend.Result{Message: "Transfer successful"}
	st, _ := view.NewState(view.RoleCustomer)
	input := map[string]string{"from_account": "1", "to_account_number": "ACC2", "amount": "5"}

	f.exec.postErr = errors.New("queue full")
	if err := f.d.Submit(st, view.ActionTransfer, input, ""); err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
	f.exec.runAll()
	if st.Form(view.ActionTransfer).Status != view.FormPending {
		t.Fatalf("Expected form pending while the outcome is undelivered, got %s", st.Form(view.ActionTransfer).Status)
	}

	f.exec.postErr = nil
	if err := f.d.Submit(st, view.ActionTransfer, input, ""); err != nil {
		t.Fatalf("Expected second submit accepted, got %v", err)
	}
	if !sameResources(f.refresher.refreshed, []view.Resource{view.ResUserAccounts}) {
		t.Errorf("Expected the first outcome applied with its refetch, got %v", f.refresher.refreshed)
	}
	f.exec.runAll()

	if len(f.backend.calls) != 2 {
		t.Errorf("Expected two transfer calls, got %v", f.backend.calls)
	}
	if st.Form(view.ActionTransfer).Status != view.FormSettledSuccess {
		t.Errorf("Expected success, got %s", st.Form(view.ActionTransfer).Status)
	}
	if f.metrics.Actions("transfer", metrics.ActionSuccess) != 2 {
		t.Errorf("Expected two successes recorded, got %d", f.metrics.Actions("transfer", metrics.ActionSuccess))
	}
}

func TestSubmit_RefusedSettleAppliedAtConfirm(t *testing.T) {
	f := newFixture()
	f.backend.err = &backend.ApplicationError{Message: "Account already active"}
	st, _ := view.NewState(view.RoleAdmin)

	f.d.Submit(st, view.ActionApproveAccount, map[string]string{"account_id": "4"}, "")
	f.d.Confirm(st, true)
	f.exec.postErr = errors.New("queue full")
	f.exec.runAll()
	f.exec.postErr = nil

	f.d.Submit(st, view.ActionApproveAccount, map[string]string{"account_id": "5"}, "")
	if st.Dialog == nil || st.Dialog.Text != "Error: Account already active" {
		t.Errorf("Expected the earlier outcome shown, got %+v", st.Dialog)
	}
	if err := f.d.Confirm(st, true); err != nil {
		t.Fatalf("Confirm failed: %v", err)
	}
	f.exec.runAll()
	if len(f.backend.calls) != 2 {
		t.Errorf("Expected two approve calls, got %v", f.backend.calls)
	}
}

func TestSubmit_JournalDoesNotDelaySettle(t *testing.T) {
	f := newFixture()
	f.backend.result = backend.Result{Message: "Transfer successful"}
	j := &stallingJournal{entered: make(chan journal.Entry, 1), release: make(chan struct{})}
	f.d.journal = j
	f.d.journalTimeout = 20 * time.Millisecond
	st, _ := view.NewState(view.RoleCustomer)

	f.d.Submit(st, view.ActionTransfer, map[string]string{"from_account": "1", "to_account_number": "ACC2", "amount": "5"}, "")
	call := f.exec.pending[0]
	f.exec.pending = nil

	done := make(chan struct{})
	go func() {
		call(context.Background())
		close(done)
	}()

	entry := <-j.entered
	if st.Form(view.ActionTransfer).Status != view.FormSettledSuccess {
		t.Errorf("Expected form settled before the journal write, got %s", st.Form(view.ActionTransfer).Status)
	}
	if entry.Action != "transfer" || entry.Outcome != string(metrics.ActionSuccess) {
		t.Errorf("Unexpected journal entry %+v", entry)
	}

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Expected the journal write bounded by its timeout")
	}
}

func TestSubmit_AdminTransportFallbackUnprefixed(t *testing.T) {
	f := newFixture()
	f.backend.err = backend.ErrTimeout
	st, _ := view.NewState(view.RoleAdmin)

	f.d.Submit(st, view.ActionApproveAccount, map[string]string{"account_id": "4"}, "")
	f.d.Confirm(st, true)
	f.exec.runAll()

	if st.Dialog == nil || st.Dialog.Text != "Failed to approve account" {
		t.Errorf("Expected plain fallback dialog, got %+v", st.Dialog)
	}
	if f.metrics.Actions("approve-account", metrics.ActionTransportError) != 1 {
		t.Error("Expected transport error recorded")
	}
}

func TestSubmit_AdminInvalidInputPrefixed(t *testing.T) {
	f := newFixture()
	st, _ := view.NewState(view.RoleAdmin)

	err := f.d.Submit(st, view.ActionApproveLoan, map[string]string{"loan_id": "x", "approve": "true"}, "")
	if !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("Expected ErrInvalidInput, got %v", err)
	}
	if st.Dialog == nil || st.Dialog.Text != "Error: Invalid loan" {
		t.Errorf("Expected prefixed dialog, got %+v", st.Dialog)
	}
}

func TestSubmit_UnclassifiedErrorUsesFallback(t *testing.T) {
	f := newFixture()
	f.backend.err = errors.New("unexpected")
	st, _ := view.NewState(view.RoleCustomer)

	f.d.Submit(st, view.ActionTransfer, map[string]string{"from_account": "1", "to_account_number": "ACC2", "amount": "5"}, "")
	f.exec.runAll()

	if form := st.Form(view.ActionTransfer); form.Notice == nil || form.Notice.Text != "Failed to transfer money" {
		t.Errorf("Expected fallback notice, got %+v", form.Notice)
	}
	if f.metrics.Actions("transfer", metrics.ActionError) != 1 {
		t.Error("Expected a non-transport error recorded as error")
	}
	if f.metrics.Actions("transfer", metrics.ActionTransportError) != 0 {
		t.Error("Expected no transport error recorded")
	}
}

func TestSubmit_SecondConfirmationRejected(t *testing.T) {
	f := newFixture()
	st, _ := view.NewState(view.RoleAdmin)

	f.d.Submit(st, view.ActionApproveAccount, map[string]string{"account_id": "4"}, "")
	err := f.d.Submit(st, view.ActionApproveLoan, map[string]string{"loan_id": "9", "approve": "true"}, "")
	if !errors.Is(err, ErrConfirmationPending) {
		t.Fatalf("Expected ErrConfirmationPending, got %v", err)
	}
	if st.Confirmation == nil || st.Confirmation.Action != view.ActionApproveAccount {
		t.Errorf("Expected the first prompt kept, got %+v", st.Confirmation)
	}
	if f.metrics.Actions("approve-loan", metrics.ActionRejected) != 1 {
		t.Error("Expected rejection recorded")
	}

	f.d.Confirm(st, true)
	f.exec.runAll()
	if len(f.backend.calls) != 1 || f.backend.calls[0] != "approve-account" {
		t.Errorf("Expected only the first action sent, got %v", f.backend.calls)
	}
}
