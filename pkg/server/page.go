package server

import (
	"bytes"
	"embed"
	"html/template"
	"net/http"

	"bank-console/pkg/render"
	"bank-console/pkg/view"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

//go:embed templates/*.html
var templateFS embed.FS

var pages = template.Must(template.ParseFS(templateFS, "templates/*.html"))

var panelLabels = map[view.PanelID]string{
	view.PanelAccounts:        "My Accounts",
	view.PanelTransfer:        "Transfer Money",
	view.PanelLoans:           "Loans",
	view.PanelTransactions:    "Transactions",
	view.PanelPendingAccounts: "Pending Accounts",
	view.PanelPendingLoans:    "Pending Loans",
	view.PanelAllAccounts:     "All Accounts",
	view.PanelAllLoans:        "All Loans",
}

type panelTab struct {
	ID     string
	Label  string
	Active bool
}

type formView struct {
	Pending bool
	Values  map[string]string
	Notice  *view.Notice
}

type pageData struct {
	Role       string
	Base       string
	Nonce      string
	Refresh    int
	Panels     []panelTab
	Active     string
	Containers map[string]template.HTML
	Modals     map[string]bool
	Forms      map[string]formView
	Dialog     *view.Dialog
	Confirm    *view.Confirmation

	TransactionsAccount string
	DepositAccount      string
}

// selectContext reports whether a container fills a select control and
// which value it should show as chosen.
func selectContext(st *view.State, container view.ContainerID) (bool, string) {
	switch container {
	case view.ContainerFromAccount:
		return true, st.Form(view.ActionTransfer).Value("from_account")
	case view.ContainerTransactionAccount:
		return true, st.TransactionsAccount
	case view.ContainerLoanAccount:
		return true, st.Form(view.ActionApplyLoan).Value("account_id")
	}
	return false, ""
}

// buildPage snapshots st into template data. It runs on the session loop.
func buildPage(st *view.State, nonce string) (*pageData, error) {
	layout := st.Layout()
	base := baseFor(st.Role)
	data := &pageData{
		Role:                string(st.Role),
		Base:                base,
		Nonce:               nonce,
		Active:              string(st.ActivePanel),
		Containers:          make(map[string]template.HTML),
		Modals:              make(map[string]bool),
		Forms:               make(map[string]formView),
		Dialog:              st.Dialog,
		Confirm:             st.Confirmation,
		TransactionsAccount: st.TransactionsAccount,
		DepositAccount:      st.DepositAccount,
	}

	for _, panel := range layout.Panels {
		data.Panels = append(data.Panels, panelTab{
			ID:     string(panel),
			Label:  panelLabels[panel],
			Active: st.PanelVisible(panel),
		})
	}

	for _, container := range layout.Containers {
		fctx := render.FragmentContext{Base: base, Nonce: nonce}
		fctx.Select, fctx.Selected = selectContext(st, container)
		html, err := render.HTML(st.Container(container), fctx)
		if err != nil {
			return nil, err
		}
		data.Containers[string(container)] = html
	}

	for _, modal := range layout.Modals {
		data.Modals[string(modal)] = st.ModalOpen(modal)
	}

	for _, action := range []view.ActionID{
		view.ActionCreateAccount, view.ActionTransfer, view.ActionApplyLoan,
		view.ActionDeposit, view.ActionApproveAccount, view.ActionApproveLoan,
	} {
		form := st.Form(action)
		data.Forms[string(action)] = formView{
			Pending: form.Status == view.FormPending,
			Values:  form.Values,
			Notice:  form.Notice,
		}
	}
	return data, nil
}

// handlePage renders a role's page. While loads or delayed closes are
// outstanding the page refreshes itself.
func (s *Server) handlePage(role view.Role) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sess, ok := s.resolve(w, r, role)
		if !ok {
			return
		}

		ctx, cancel := s.callContext(r)
		defer cancel()

		busy := sess.Busy()
		var data *pageData
		var buildErr error
		err := sess.View(ctx, func(st *view.State) {
			data, buildErr = buildPage(st, uuid.NewString())
		})
		if err == nil {
			err = buildErr
		}
		if err != nil {
			s.logger.Warn("render page failed", zap.String("role", string(role)), zap.Error(err))
			http.Error(w, "Render failed", http.StatusInternalServerError)
			return
		}
		if busy {
			data.Refresh = s.config.RefreshSeconds
		}

		var buf bytes.Buffer
		if err := pages.ExecuteTemplate(&buf, string(role)+".html", data); err != nil {
			s.logger.Warn("execute page template failed", zap.String("role", string(role)), zap.Error(err))
			http.Error(w, "Render failed", http.StatusInternalServerError)
			return
		}

		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		w.Header().Set("Cache-Control", "no-store")
		w.Write(buf.Bytes())
	}
}
