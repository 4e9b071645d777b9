// Package loader fetches read resources from the backend and hands them to
// the renderers. A failed load leaves the previous render in place; loads
// are never retried.
package loader

import (
	"context"
	"errors"
	"fmt"
	"time"

	"bank-console/pkg/backend"
	"bank-console/pkg/logging"
	"bank-console/pkg/metrics"
	"bank-console/pkg/model"
	"bank-console/pkg/render"
	"bank-console/pkg/view"

	"go.uber.org/zap"
)

// ErrUnknownResource is returned when refreshing a resource without a loader.
var ErrUnknownResource = errors.New("loader: unknown resource")

// Source is the read side of the backend API.
type Source interface {
	UserAccounts(ctx context.Context) ([]model.Account, error)
	UserLoans(ctx context.Context) ([]model.Loan, error)
	Transactions(ctx context.Context, accountID string) ([]model.Transaction, error)
	AdminStats(ctx context.Context) (model.AdminStats, error)
	PendingAccounts(ctx context.Context) ([]model.Account, error)
	PendingLoans(ctx context.Context) ([]model.Loan, error)
	AllAccounts(ctx context.Context) ([]model.Account, error)
	AllLoans(ctx context.Context) ([]model.Loan, error)
}

// Executor runs work for a session. Go runs fn off the loop; Post runs fn
// on the loop, which is the only place view state may be touched.
type Executor interface {
	Go(fn func(ctx context.Context)) error
	Post(fn func()) error
}

// fetchFunc performs the read and returns the mutation to apply on the loop.
type fetchFunc func(ctx context.Context, arg string) (func(*view.State), error)

// Refresher runs the loaders of one session.
type Refresher struct {
	exec    Executor
	seq     *Sequencer
	loaders map[view.Resource]fetchFunc
	metrics metrics.Collector
	logger  *logging.Logger
}

// NewRefresher wires the loaders of every resource to src and r.
func NewRefresher(src Source, r *render.Renderer, exec Executor, collector metrics.Collector, logger *logging.Logger) *Refresher {
	if collector == nil {
		collector = metrics.NoOpCollector{}
	}
	if logger == nil {
		logger = logging.L()
	}
	return &Refresher{
		exec:    exec,
		seq:     NewSequencer(),
		loaders: newLoaders(src, r),
		metrics: collector,
		logger:  logger.Named("loader"),
	}
}

// Refresh issues one read for res and, once it succeeds, renders it into
// st unless a newer read of the same resource was issued meanwhile.
// It must be called on the session loop.
func (rf *Refresher) Refresh(st *view.State, res view.Resource) error {
	fetch, ok := rf.loaders[res]
	if !ok {
		return fmt.Errorf("%w: %q", ErrUnknownResource, res)
	}

	arg := ""
	if res == view.ResTransactions {
		arg = st.TransactionsAccount
		if arg == "" {
			rf.seq.Invalidate(res)
			return nil
		}
	}

	token := rf.seq.Next(res)
	return rf.exec.Go(func(ctx context.Context) {
		start := time.Now()
		apply, err := fetch(ctx, arg)
		duration := time.Since(start)

		if err != nil {
			rf.metrics.RecordLoad(string(res), metrics.LoadFailed, duration)
			rf.logger.Warn("load failed",
				zap.String("resource", string(res)),
				zap.Uint64("token", token),
				zap.String("class", backend.ClassifyError(err)),
				zap.Error(err),
			)
			return
		}

		perr := rf.exec.Post(func() {
			if !rf.seq.IsLatest(res, token) {
				rf.metrics.RecordLoad(string(res), metrics.LoadDiscarded, duration)
				rf.logger.Debug("stale response discarded",
					zap.String("resource", string(res)),
					zap.Uint64("token", token),
				)
				return
			}
			apply(st)
			rf.metrics.RecordLoad(string(res), metrics.LoadRendered, duration)
		})
		if perr != nil {
			rf.metrics.RecordLoad(string(res), metrics.LoadFailed, duration)
			rf.logger.Warn("load result dropped",
				zap.String("resource", string(res)),
				zap.Uint64("token", token),
				zap.Error(perr),
			)
		}
	})
}

// RefreshAll refreshes each resource in order, stopping at the first error.
func (rf *Refresher) RefreshAll(st *view.State, resources []view.Resource) error {
	for _, res := range resources {
		if err := rf.Refresh(st, res); err != nil {
			return err
		}
	}
	return nil
}

func newLoaders(src Source, r *render.Renderer) map[view.Resource]fetchFunc {
	return map[view.Resource]fetchFunc{
		view.ResUserAccounts: func(ctx context.Context, _ string) (func(*view.State), error) {
			accounts, err := src.UserAccounts(ctx)
			if err != nil {
				return nil, err
			}
			return func(st *view.State) {
				st.SetContainer(view.ContainerAccounts, r.CustomerAccounts(accounts))
				st.SetContainer(view.ContainerStats, r.CustomerStats(accounts))
				st.SetContainer(view.ContainerFromAccount, r.AccountOptions(accounts, render.PlaceholderSelectAccount))
				st.SetContainer(view.ContainerTransactionAccount, r.AccountOptions(accounts, render.PlaceholderTransactions))
			}, nil
		},
		view.ResLoanAccounts: func(ctx context.Context, _ string) (func(*view.State), error) {
			accounts, err := src.UserAccounts(ctx)
			if err != nil {
				return nil, err
			}
			return func(st *view.State) {
				st.SetContainer(view.ContainerLoanAccount, r.LoanAccountOptions(accounts))
			}, nil
		},
		view.ResUserLoans: func(ctx context.Context, _ string) (func(*view.State), error) {
			loans, err := src.UserLoans(ctx)
			if err != nil {
				return nil, err
			}
			return func(st *view.State) {
				st.SetContainer(view.ContainerLoans, r.CustomerLoans(loans))
			}, nil
		},
		view.ResTransactions: func(ctx context.Context, accountID string) (func(*view.State), error) {
			txs, err := src.Transactions(ctx, accountID)
			if err != nil {
				return nil, err
			}
			return func(st *view.State) {
				st.SetContainer(view.ContainerTransactions, r.Transactions(txs))
			}, nil
		},
		view.ResAdminStats: func(ctx context.Context, _ string) (func(*view.State), error) {
			stats, err := src.AdminStats(ctx)
			if err != nil {
				return nil, err
			}
			return func(st *view.State) {
				st.SetContainer(view.ContainerAdminStats, r.AdminStats(stats))
			}, nil
		},
		view.ResPendingAccounts: func(ctx context.Context, _ string) (func(*view.State), error) {
			accounts, err := src.PendingAccounts(ctx)
			if err != nil {
				return nil, err
			}
			return func(st *view.State) {
				st.SetContainer(view.ContainerPendingAccounts, r.PendingAccounts(accounts))
			}, nil
		},
		view.ResPendingLoans: func(ctx context.Context, _ string) (func(*view.State), error) {
			loans, err := src.PendingLoans(ctx)
			if err != nil {
				return nil, err
			}
			return func(st *view.State) {
				st.SetContainer(view.ContainerPendingLoans, r.PendingLoans(loans))
			}, nil
		},
		view.ResAllAccounts: func(ctx context.Context, _ string) (func(*view.State), error) {
			accounts, err := src.AllAccounts(ctx)
			if err != nil {
				return nil, err
			}
			return func(st *view.State) {
				st.SetContainer(view.ContainerAllAccounts, r.AllAccounts(accounts))
			}, nil
		},
		view.ResAllLoans: func(ctx context.Context, _ string) (func(*view.State), error) {
			loans, err := src.AllLoans(ctx)
			if err != nil {
				return nil, err
			}
			return func(st *view.State) {
				st.SetContainer(view.ContainerAllLoans, r.AllLoans(loans))
			}, nil
		},
	}
}
