// Package dispatch runs the mutating actions of a console session: it
// validates a submitted form, asks for confirmation where the action is
// destructive, sends the request and settles the form with the outcome.
package dispatch

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"bank-console/pkg/backend"
	"bank-console/pkg/config"
	"bank-console/pkg/journal"
	"bank-console/pkg/logging"
	"bank-console/pkg/metrics"
	"bank-console/pkg/view"

	"go.uber.org/zap"
)

// Backend is the write side of the backend API.
type Backend interface {
	CreateAccount(ctx context.Context, req backend.CreateAccountRequest) (backend.Result, error)
	Transfer(ctx context.Context, req backend.TransferRequest) (backend.Result, error)
	ApplyLoan(ctx context.Context, req backend.ApplyLoanRequest) (backend.Result, error)
	Deposit(ctx context.Context, req backend.DepositRequest) (backend.Result, error)
	ApproveAccount(ctx context.Context, req backend.ApproveAccountRequest) (backend.Result, error)
	ApproveLoan(ctx context.Context, req backend.ApproveLoanRequest) (backend.Result, error)
}

// Refresher re-runs a loader after a successful action.
type Refresher interface {
	Refresh(st *view.State, res view.Resource) error
}

// Executor runs session work. Go runs fn off the loop, Post and After run
// fn on the loop, After once d has elapsed.
type Executor interface {
	Go(fn func(ctx context.Context)) error
	Post(fn func()) error
	After(d time.Duration, fn func()) error
}

// Config wires a Dispatcher to one session.
type Config struct {
	SessionID string
	Backend   Backend
	Refresher Refresher
	Executor  Executor
	// Guard may be shared between sessions; nil disables replay checks.
	Guard   *ReplayGuard
	Journal journal.Journal
	Delays  config.Delays
	Metrics metrics.Collector
	Logger  *logging.Logger
	// JournalTimeout bounds one journal write (default 5s)
	JournalTimeout time.Duration
}

// call sends one prepared request.
type call func(ctx context.Context, b Backend) (backend.Result, error)

// behavior describes how an action behaves around its request.
type behavior struct {
	role view.Role
	// blocking reports outcomes in a dialog instead of an inline notice.
	blocking  bool
	fallback  string
	resetForm bool
	delay     func(config.Delays) time.Duration
	refetch   []view.Resource
	// prompt returns the confirmation question, or "" when none is needed.
	prompt func(input map[string]string) string
	build  func(st *view.State, input map[string]string) (call, error)
}

var actions = map[view.ActionID]behavior{
	view.ActionCreateAccount: {
		role:      view.RoleCustomer,
		fallback:  "Failed to create account",
		resetForm: true,
		delay:     func(d config.Delays) time.Duration { return d.CreateAccount },
		refetch:   []view.Resource{view.ResUserAccounts},
		build:     buildCreateAccount,
	},
	view.ActionTransfer: {
		role:      view.RoleCustomer,
		fallback:  "Failed to transfer money",
		resetForm: true,
		refetch:   []view.Resource{view.ResUserAccounts},
		build:     buildTransfer,
	},
	view.ActionApplyLoan: {
		role:      view.RoleCustomer,
		fallback:  "Failed to submit loan application",
		resetForm: true,
		delay:     func(d config.Delays) time.Duration { return d.ApplyLoan },
		refetch:   []view.Resource{view.ResUserLoans},
		build:     buildApplyLoan,
	},
	view.ActionDeposit: {
		role:      view.RoleCustomer,
		fallback:  "Failed to deposit money",
		resetForm: true,
		delay:     func(d config.Delays) time.Duration { return d.Deposit },
		refetch:   []view.Resource{view.ResUserAccounts},
		build:     buildDeposit,
	},
	view.ActionApproveAccount: {
		role:     view.RoleAdmin,
		blocking: true,
		fallback: "Failed to approve account",
		refetch:  []view.Resource{view.ResPendingAccounts, view.ResAdminStats},
		prompt: func(map[string]string) string {
			return "Are you sure you want to approve this account?"
		},
		build: buildApproveAccount,
	},
	view.ActionApproveLoan: {
		role:     view.RoleAdmin,
		blocking: true,
		fallback: "Failed to process loan application",
		refetch:  []view.Resource{view.ResPendingLoans, view.ResAdminStats},
		prompt: func(input map[string]string) string {
			verb := "reject"
			if approve, _ := strconv.ParseBool(input["approve"]); approve {
				verb = "approve"
			}
			return "Are you sure you want to " + verb + " this loan application?"
		},
		build: buildApproveLoan,
	},
}

// Dispatcher runs the actions of one session. Submit and Confirm must be
// called on the session loop.
type Dispatcher struct {
	sessionID string
	backend   Backend
	refresher Refresher
	exec      Executor
	guard     *ReplayGuard
	journal   journal.Journal
	delays    config.Delays
	metrics   metrics.Collector
	logger    *logging.Logger

	journalTimeout time.Duration

	// dropped holds outcomes whose settle event the loop refused. They are
	// applied at the next submit or confirm.
	mu      sync.Mutex
	dropped map[view.ActionID]settled
}

type settled struct {
	result   backend.Result
	err      error
	duration time.Duration
}

// New creates a Dispatcher from cfg.
func New(cfg Config) *Dispatcher {
	if cfg.Metrics == nil {
		cfg.Metrics = metrics.NoOpCollector{}
	}
	if cfg.Logger == nil {
		cfg.Logger = logging.L()
	}
	if cfg.Journal == nil {
		cfg.Journal = journal.NoOp{}
	}
	if cfg.JournalTimeout <= 0 {
		cfg.JournalTimeout = 5 * time.Second
	}
	return &Dispatcher{
		sessionID: cfg.SessionID,
		backend:   cfg.Backend,
		refresher: cfg.Refresher,
		exec:      cfg.Executor,
		guard:     cfg.Guard,
		journal:   cfg.Journal,
		delays:    cfg.Delays,
		metrics:   cfg.Metrics,
		logger:    cfg.Logger.Named("dispatch"),

		journalTimeout: cfg.JournalTimeout,
	}
}

// Submit handles a form submit. Destructive actions only record a pending
// confirmation; everything else is sent at once.
func (d *Dispatcher) Submit(st *view.State, id view.ActionID, input map[string]string, nonce string) error {
	sp, ok := actions[id]
	if !ok || sp.role != st.Role {
		return fmt.Errorf("%w: %q", ErrUnknownAction, id)
	}
	d.applyDropped(st)

	if nonce != "" && d.guard != nil && d.guard.Seen(nonce) {
		d.metrics.RecordAction(string(id), metrics.ActionRejected, 0)
		d.logger.Info("replayed submit rejected", zap.String("action", string(id)))
		return ErrReplayed
	}

	form := st.Form(id)
	if form.Status == view.FormPending {
		d.metrics.RecordAction(string(id), metrics.ActionRejected, 0)
		return ErrSubmitPending
	}
	if sp.prompt != nil && st.Confirmation != nil {
		d.metrics.RecordAction(string(id), metrics.ActionRejected, 0)
		return fmt.Errorf("%w: %q", ErrConfirmationPending, st.Confirmation.Action)
	}
	form.Values = copyInput(input)

	req, err := sp.build(st, input)
	if err != nil {
		d.metrics.RecordAction(string(id), metrics.ActionRejected, 0)
		d.report(st, sp, form, view.NoticeError, inputMessage(err), true)
		form.Status = view.FormSettledError
		return err
	}

	if sp.prompt != nil {
		st.Confirmation = &view.Confirmation{
			Action: id,
			Prompt: sp.prompt(input),
			Input:  copyInput(input),
		}
		return nil
	}
	return d.start(st, id, sp, req)
}

// Confirm answers the pending confirmation. Declining sends nothing.
func (d *Dispatcher) Confirm(st *view.State, accepted bool) error {
	d.applyDropped(st)

	pending := st.Confirmation
	if pending == nil {
		return ErrNoConfirmation
	}
	st.Confirmation = nil

	sp := actions[pending.Action]
	form := st.Form(pending.Action)
	if !accepted {
		form.Status = view.FormIdle
		d.metrics.RecordAction(string(pending.Action), metrics.ActionDeclined, 0)
		return nil
	}
	if form.Status == view.FormPending {
		d.metrics.RecordAction(string(pending.Action), metrics.ActionRejected, 0)
		return ErrSubmitPending
	}

	req, err := sp.build(st, pending.Input)
	if err != nil {
		return err
	}
	return d.start(st, pending.Action, sp, req)
}

func (d *Dispatcher) start(st *view.State, id view.ActionID, sp behavior, req call) error {
	form := st.Form(id)
	form.Status = view.FormPending
	form.Notice = nil

	err := d.exec.Go(func(ctx context.Context) {
		start := time.Now()
		result, err := req(ctx, d.backend)
		duration := time.Since(start)

		perr := d.exec.Post(func() {
			d.settle(st, id, sp, result, err, duration)
		})
		if perr != nil {
			d.logger.Warn("settle event dropped, applying at next interaction",
				zap.String("action", string(id)),
				zap.Error(perr),
			)
			d.mu.Lock()
			if d.dropped == nil {
				d.dropped = make(map[view.ActionID]settled)
			}
			d.dropped[id] = settled{result: result, err: err, duration: duration}
			d.mu.Unlock()
		}

		d.record(ctx, st.Role, id, result, err)
	})
	if err != nil {
		form.Status = view.FormIdle
		return err
	}
	return nil
}

func (d *Dispatcher) settle(st *view.State, id view.ActionID, sp behavior, result backend.Result, err error, duration time.Duration) {
	form := st.Form(id)

	if err != nil {
		form.Status = view.FormSettledError
		message := sp.fallback
		outcome := metrics.ActionError
		appErr, isApp := backend.AsApplication(err)
		switch {
		case isApp:
			message = appErr.Message
		case backend.IsTransport(err):
			outcome = metrics.ActionTransportError
		}
		d.report(st, sp, form, view.NoticeError, message, isApp)
		d.metrics.RecordAction(string(id), outcome, duration)
		d.logger.Warn("action failed",
			zap.String("action", string(id)),
			zap.String("class", backend.ClassifyError(err)),
			zap.Error(err),
		)
		return
	}

	form.Status = view.FormSettledSuccess
	if sp.resetForm {
		form.Values = nil
	}
	d.report(st, sp, form, view.NoticeSuccess, result.Message, false)
	d.metrics.RecordAction(string(id), metrics.ActionSuccess, duration)
	d.logger.Info("action succeeded",
		zap.String("action", string(id)),
		zap.Duration("duration", duration),
	)

	modal, ok := view.ModalFor(id)
	if !ok {
		d.refetch(st, sp.refetch)
		return
	}

	closeModal := func() {
		if err := st.CloseModal(modal); err != nil {
			d.logger.Warn("close modal failed", zap.Error(err))
		}
		d.refetch(st, sp.refetch)
	}
	delay := time.Duration(0)
	if sp.delay != nil {
		delay = sp.delay(d.delays)
	}
	if delay <= 0 {
		closeModal()
		return
	}
	if err := d.exec.After(delay, closeModal); err != nil {
		d.logger.Warn("schedule modal close failed",
			zap.String("modal", string(modal)),
			zap.Error(err),
		)
	}
}

// report shows an outcome where the action's role expects it. Dialogs
// prefix server and validation messages with "Error: "; generic fallbacks
// are shown as they are.
func (d *Dispatcher) report(st *view.State, sp behavior, form *view.Form, kind view.NoticeKind, message string, prefixed bool) {
	if sp.blocking {
		if prefixed {
			message = "Error: " + message
		}
		st.Dialog = &view.Dialog{Text: message}
		return
	}
	form.Notice = &view.Notice{Kind: kind, Text: message}
}

func (d *Dispatcher) refetch(st *view.State, resources []view.Resource) {
	for _, res := range resources {
		if err := d.refresher.Refresh(st, res); err != nil {
			d.logger.Warn("refetch failed", zap.String("resource", string(res)), zap.Error(err))
		}
	}
}

// applyDropped settles the forms whose outcome never reached the loop.
// It must be called on the session loop.
func (d *Dispatcher) applyDropped(st *view.State) {
	d.mu.Lock()
	dropped := d.dropped
	d.dropped = nil
	d.mu.Unlock()

	for id, o := range dropped {
		d.settle(st, id, actions[id], o.result, o.err, o.duration)
	}
}

// record writes the outcome to the journal. It runs off the loop, after
// the settle was posted, and never longer than the journal timeout.
func (d *Dispatcher) record(ctx context.Context, role view.Role, id view.ActionID, result backend.Result, err error) {
	ctx, cancel := context.WithTimeout(ctx, d.journalTimeout)
	defer cancel()

	entry := journal.Entry{
		SessionID: d.sessionID,
		Role:      string(role),
		Action:    string(id),
		Outcome:   string(metrics.ActionSuccess),
		Message:   result.Message,
		At:        time.Now().UTC(),
	}
	if err != nil {
		entry.Outcome = backend.ClassifyError(err)
		entry.Message = err.Error()
	}
	if jerr := d.journal.Record(ctx, entry); jerr != nil {
		d.logger.Warn("journal write failed", zap.String("action", string(id)), zap.Error(jerr))
	}
}

func copyInput(input map[string]string) map[string]string {
	out := make(map[string]string, len(input))
	for k, v := range input {
		out[k] = v
	}
	return out
}

func inputMessage(err error) string {
	if ie, ok := err.(*inputError); ok {
		return ie.msg
	}
	return err.Error()
}

// parseID reads a positive numeric id.
func parseID(value, message string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(value), 10, 64)
	if err != nil || id <= 0 {
		return 0, &inputError{msg: message}
	}
	return id, nil
}

const selectAccount = "Please select an account"

func buildCreateAccount(_ *view.State, input map[string]string) (call, error) {
	req := backend.CreateAccountRequest{AccountType: strings.TrimSpace(input["account_type"])}
	if req.AccountType == "" {
		return nil, &inputError{msg: "Please select an account type"}
	}
	return func(ctx context.Context, b Backend) (backend.Result, error) {
		return b.CreateAccount(ctx, req)
	}, nil
}

func buildTransfer(_ *view.State, input map[string]string) (call, error) {
	from, err := parseID(input["from_account"], selectAccount)
	if err != nil {
		return nil, err
	}
	req := backend.TransferRequest{
		FromAccount:     from,
		ToAccountNumber: strings.TrimSpace(input["to_account_number"]),
		Amount:          strings.TrimSpace(input["amount"]),
		Description:     input["description"],
	}
	return func(ctx context.Context, b Backend) (backend.Result, error) {
		return b.Transfer(ctx, req)
	}, nil
}

func buildApplyLoan(_ *view.State, input map[string]string) (call, error) {
	account, err := parseID(input["account_id"], selectAccount)
	if err != nil {
		return nil, err
	}
	req := backend.ApplyLoanRequest{
		AccountID:    account,
		LoanType:     strings.TrimSpace(input["loan_type"]),
		LoanAmount:   strings.TrimSpace(input["loan_amount"]),
		TenureMonths: strings.TrimSpace(input["tenure_months"]),
		Purpose:      input["purpose"],
	}
	return func(ctx context.Context, b Backend) (backend.Result, error) {
		return b.ApplyLoan(ctx, req)
	}, nil
}

// buildDeposit falls back to the account the modal was opened for.
func buildDeposit(st *view.State, input map[string]string) (call, error) {
	raw := input["account_id"]
	if raw == "" {
		raw = st.DepositAccount
	}
	account, err := parseID(raw, selectAccount)
	if err != nil {
		return nil, err
	}
	req := backend.DepositRequest{AccountID: account, Amount: strings.TrimSpace(input["amount"])}
	return func(ctx context.Context, b Backend) (backend.Result, error) {
		return b.Deposit(ctx, req)
	}, nil
}

func buildApproveAccount(_ *view.State, input map[string]string) (call, error) {
	account, err := parseID(input["account_id"], "Invalid account")
	if err != nil {
		return nil, err
	}
	req := backend.ApproveAccountRequest{AccountID: account}
	return func(ctx context.Context, b Backend) (backend.Result, error) {
		return b.ApproveAccount(ctx, req)
	}, nil
}

func buildApproveLoan(_ *view.State, input map[string]string) (call, error) {
	loan, err := parseID(input["loan_id"], "Invalid loan")
	if err != nil {
		return nil, err
	}
	approve, err := strconv.ParseBool(input["approve"])
	if err != nil {
		return nil, &inputError{msg: "Invalid decision"}
	}
	req := backend.ApproveLoanRequest{LoanID: loan, Approve: approve}
	return func(ctx context.Context, b Backend) (backend.Result, error) {
		return b.ApproveLoan(ctx, req)
	}, nil
}
