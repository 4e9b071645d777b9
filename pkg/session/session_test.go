package session

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"bank-console/pkg/backend"
	"bank-console/pkg/config"
	"bank-console/pkg/dispatch"
	"bank-console/pkg/logging"
	"bank-console/pkg/metrics/memory"
	"bank-console/pkg/render"
	"bank-console/pkg/view"
)

// fakeBank answers the backend API from canned bodies and counts requests.
type fakeBank struct {
	mu      sync.Mutex
	hits    map[string]int
	cookies []string
	bodies  map[string]string
}

func newFakeBank() *fakeBank {
	return &fakeBank{
		hits: make(map[string]int),
		bodies: map[string]string{
			backend.PathUserAccounts:    `{"success":true,"accounts":[{"account_id":5,"account_number":"ACC5","account_type":"savings","balance":"100","currency":"INR","status":"active"}]}`,
			backend.PathUserLoans:       `{"success":true,"loans":[]}`,
			backend.PathDeposit:         `{"success":true,"message":"Deposit successful"}`,
			backend.PathAdminStats:      `{"success":true,"stats":{}}`,
			backend.PathPendingAccounts: `{"success":true,"accounts":[]}`,
			backend.PathPendingLoans:    `{"success":true,"loans":[]}`,
			backend.PathLogout:          `{"success":true}`,
		},
	}
}

func (b *fakeBank) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	b.mu.Lock()
	b.hits[r.URL.Path]++
	if c, err := r.Cookie("session"); err == nil {
		b.cookies = append(b.cookies, c.Value)
	}
	body, ok := b.bodies[r.URL.Path]
	b.mu.Unlock()

	if !ok {
		http.NotFound(w, r)
		return
	}
	io.WriteString(w, body)
}

func (b *fakeBank) count(path string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.hits[path]
}

func newTestDeps(t *testing.T, bank *fakeBank, clock Clock) Deps {
	t.Helper()
	srv := httptest.NewServer(bank)
	t.Cleanup(srv.Close)

	client, err := backend.NewClient(srv.URL, srv.Client())
	if err != nil {
		t.Fatalf("NewClient failed: %v", err)
	}
	return Deps{
		Client:   client,
		Renderer: render.New(time.UTC),
		Guard:    dispatch.NewReplayGuard(1000, 0.0001),
		Delays:   config.DefaultDelays(),
		Metrics:  memory.NewMemoryCollector(),
		Logger:   logging.NewNoOpLogger(),
		Clock:    clock,
	}
}

func customerRecord() Record {
	return Record{ID: "s-1", Role: view.RoleCustomer, Cookies: map[string]string{"session": "tok"}}
}

func TestSession_StartLoadsEagerResources(t *testing.T) {
	bank := newFakeBank()
	sess, err := New(customerRecord(), newTestDeps(t, bank, nil))
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	defer sess.Close()

	if err := sess.Start(context.Background()); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if err := sess.Flush(time.Second); err != nil {
		t.Fatalf("Flush failed: %v", err)
	}

	if bank.count(backend.PathUserAccounts) != 1 || bank.count(backend.PathUserLoans) != 1 {
		t.Errorf("Expected one accounts and one loans load, got %v", bank.hits)
	}

	var accounts, loans render.Node
	sess.View(context.Background(), func(st *view.State) {
		accounts = st.Container(view.ContainerAccounts)
		loans = st.Container(view.ContainerLoans)
	})
	if _, ok := accounts.(*render.Table); !ok {
		t.Errorf("Expected accounts table, got %T", accounts)
	}
	if _, ok := loans.(*render.EmptyState); !ok {
		t.Errorf("Expected loans empty state, got %T", loans)
	}
	for _, c := range bank.cookies {
		if c != "tok" {
			t.Errorf("Expected backend cookie forwarded, got %q", c)
		}
	}
}

func TestSession_DepositClosesModalAfterDelay(t *testing.T) {
	bank := newFakeBank()
	clock := NewFakeClock(time.Unix(0, 0))
	sess, _ := New(customerRecord(), newTestDeps(t, bank, clock))
	defer sess.Close()
	ctx := context.Background()

	if err := sess.OpenModal(ctx, view.ModalDeposit, map[string]string{"account_id": "5"}); err != nil {
		t.Fatalf("OpenModal failed: %v", err)
	}
	if err := sess.Submit(ctx, view.ActionDeposit, map[string]string{"amount": "100"}, "nonce-1"); err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
	sess.Flush(time.Second)

	var notice *view.Notice
	var open bool
	sess.View(ctx, func(st *view.State) {
		notice = st.Form(view.ActionDeposit).Notice
		open = st.ModalOpen(view.ModalDeposit)
	})
	if notice == nil || notice.Text != "Deposit successful" {
		t.Fatalf("Expected success notice, got %+v", notice)
	}
	if !open || !sess.Busy() {
		t.Error("Expected modal open with a close pending")
	}

	clock.Advance(1500 * time.Millisecond)
	sess.Flush(time.Second)

	sess.View(ctx, func(st *view.State) { open = st.ModalOpen(view.ModalDeposit) })
	if open {
		t.Error("Expected modal closed after 1500ms")
	}
	if bank.count(backend.PathUserAccounts) != 1 {
		t.Errorf("Expected accounts re-fetched once, got %d", bank.count(backend.PathUserAccounts))
	}
	if bank.count(backend.PathUserLoans) != 0 {
		t.Error("Expected loans not re-fetched")
	}
}

func TestSession_ReplayedSubmitRejected(t *testing.T) {
	bank := newFakeBank()
	sess, _ := New(customerRecord(), newTestDeps(t, bank, NewFakeClock(time.Unix(0, 0))))
	defer sess.Close()
	ctx := context.Background()

	input := map[string]string{"account_id": "5", "amount": "1"}
	sess.Submit(ctx, view.ActionDeposit, input, "same")
	sess.Flush(time.Second)

	if err := sess.Submit(ctx, view.ActionDeposit, input, "same"); !errors.Is(err, dispatch.ErrReplayed) {
		t.Errorf("Expected ErrReplayed, got %v", err)
	}
	sess.Flush(time.Second)
	if bank.count(backend.PathDeposit) != 1 {
		t.Errorf("Expected one deposit call, got %d", bank.count(backend.PathDeposit))
	}
}

func TestSession_ActivateUnknownPanel(t *testing.T) {
	sess, _ := New(customerRecord(), newTestDeps(t, newFakeBank(), nil))
	defer sess.Close()

	if err := sess.Activate(context.Background(), view.PanelAllLoans, "nav"); !errors.Is(err, view.ErrUnknownPanel) {
		t.Errorf("Expected ErrUnknownPanel, got %v", err)
	}
}

func TestSession_Logout(t *testing.T) {
	bank := newFakeBank()
	sess, _ := New(customerRecord(), newTestDeps(t, bank, nil))
	defer sess.Close()

	if err := sess.Logout(context.Background()); err != nil {
		t.Fatalf("Logout failed: %v", err)
	}
	if bank.count(backend.PathLogout) != 1 {
		t.Error("Expected logout call")
	}
}
