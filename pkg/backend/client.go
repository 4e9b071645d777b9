package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"bank-console/pkg/model"
)

// Doer sends one HTTP request. *http.Client and resilience.Doer satisfy it.
type Doer interface {
	Do(req *http.Request) (*http.Response, error)
}

// maxBodySize bounds how much of a response body is read.
const maxBodySize = 4 << 20

// Client is a typed client for the bank's JSON API. A Client is bound to
// the backend session cookies of one console session; it is safe for
// concurrent use.
type Client struct {
	base    *url.URL
	doer    Doer
	cookies []*http.Cookie
}

// NewClient creates a client for the API rooted at baseURL.
func NewClient(baseURL string, doer Doer) (*Client, error) {
	u, err := url.Parse(baseURL)
	if err != nil {
		return nil, fmt.Errorf("backend: invalid base url: %w", err)
	}
	if u.Scheme == "" || u.Host == "" {
		return nil, fmt.Errorf("backend: base url %q must be absolute", baseURL)
	}
	if doer == nil {
		doer = http.DefaultClient
	}
	u.Path = strings.TrimSuffix(u.Path, "/")
	return &Client{base: u, doer: doer}, nil
}

// WithCookies returns a copy of the client that presents cookies on every call.
func (c *Client) WithCookies(cookies []*http.Cookie) *Client {
	cp := *c
	cp.cookies = append([]*http.Cookie(nil), cookies...)
	return &cp
}

// Reads

func (c *Client) UserAccounts(ctx context.Context) ([]model.Account, error) {
	var accounts []model.Account
	err := c.get(ctx, PathUserAccounts, "accounts", &accounts)
	return accounts, err
}

func (c *Client) UserLoans(ctx context.Context) ([]model.Loan, error) {
	var loans []model.Loan
	err := c.get(ctx, PathUserLoans, "loans", &loans)
	return loans, err
}

func (c *Client) Transactions(ctx context.Context, accountID string) ([]model.Transaction, error) {
	var txs []model.Transaction
	err := c.get(ctx, TransactionsPath(accountID), "transactions", &txs)
	return txs, err
}

func (c *Client) AdminStats(ctx context.Context) (model.AdminStats, error) {
	var stats model.AdminStats
	err := c.get(ctx, PathAdminStats, "stats", &stats)
	return stats, err
}

func (c *Client) PendingAccounts(ctx context.Context) ([]model.Account, error) {
	var accounts []model.Account
	err := c.get(ctx, PathPendingAccounts, "accounts", &accounts)
	return accounts, err
}

func (c *Client) PendingLoans(ctx context.Context) ([]model.Loan, error) {
	var loans []model.Loan
	err := c.get(ctx, PathPendingLoans, "loans", &loans)
	return loans, err
}

func (c *Client) AllAccounts(ctx context.Context) ([]model.Account, error) {
	var accounts []model.Account
	err := c.get(ctx, PathAllAccounts, "accounts", &accounts)
	return accounts, err
}

func (c *Client) AllLoans(ctx context.Context) ([]model.Loan, error) {
	var loans []model.Loan
	err := c.get(ctx, PathAllLoans, "loans", &loans)
	return loans, err
}

// Writes

func (c *Client) CreateAccount(ctx context.Context, req CreateAccountRequest) (Result, error) {
	return c.post(ctx, PathCreateAccount, req)
}

func (c *Client) Transfer(ctx context.Context, req TransferRequest) (Result, error) {
	return c.post(ctx, PathTransfer, req)
}

func (c *Client) ApplyLoan(ctx context.Context, req ApplyLoanRequest) (Result, error) {
	return c.post(ctx, PathApplyLoan, req)
}

func (c *Client) Deposit(ctx context.Context, req DepositRequest) (Result, error) {
	return c.post(ctx, PathDeposit, req)
}

func (c *Client) ApproveAccount(ctx context.Context, req ApproveAccountRequest) (Result, error) {
	return c.post(ctx, PathApproveAccount, req)
}

func (c *Client) ApproveLoan(ctx context.Context, req ApproveLoanRequest) (Result, error) {
	return c.post(ctx, PathApproveLoan, req)
}

// Logout ends the backend session. Only the HTTP status matters; the
// envelope is not inspected.
func (c *Client) Logout(ctx context.Context) error {
	resp, err := c.send(ctx, http.MethodPost, PathLogout, nil)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, maxBodySize))

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return transportError(PathLogout, fmt.Errorf("status %d", resp.StatusCode))
	}
	return nil
}

// get decodes the payload under key. A success envelope without the key is
// malformed.
func (c *Client) get(ctx context.Context, path, key string, v any) error {
	env, err := c.exchange(ctx, http.MethodGet, path, nil)
	if err != nil {
		return err
	}
	if !env.Has(key) {
		return fmt.Errorf("%w: %s: missing %q", ErrDecode, path, key)
	}
	if err := env.Payload(key, v); err != nil {
		return fmt.Errorf("%w: %s: %s: %v", ErrDecode, path, key, err)
	}
	return nil
}

func (c *Client) post(ctx context.Context, path string, body any) (Result, error) {
	env, err := c.exchange(ctx, http.MethodPost, path, body)
	if err != nil {
		return Result{}, err
	}
	res, err := resultFrom(env)
	if err != nil {
		return Result{}, fmt.Errorf("%w: %s: %v", ErrDecode, path, err)
	}
	return res, nil
}

// exchange sends one request and decodes the envelope. success=false
// becomes an *ApplicationError.
func (c *Client) exchange(ctx context.Context, method, path string, body any) (*Envelope, error) {
	resp, err := c.send(ctx, method, path, body)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		return nil, transportError(path, err)
	}
	if resp.StatusCode >= http.StatusInternalServerError {
		return nil, transportError(path, fmt.Errorf("status %d", resp.StatusCode))
	}

	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrDecode, path, err)
	}
	if !env.Success {
		return nil, &ApplicationError{Endpoint: path, Message: env.Message}
	}
	return &env, nil
}

func (c *Client) send(ctx context.Context, method, path string, body any) (*http.Response, error) {
	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("backend: encode %s: %w", path, err)
		}
		reader = bytes.NewReader(payload)
	}

	target := *c.base
	target.Path = c.base.Path + path
	target.RawPath = ""
	req, err := http.NewRequestWithContext(ctx, method, target.String(), reader)
	if err != nil {
		return nil, fmt.Errorf("backend: build %s: %w", path, err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	for _, cookie := range c.cookies {
		req.AddCookie(cookie)
	}

	resp, err := c.doer.Do(req)
	if err != nil {
		switch {
		case errors.Is(err, ErrCircuitOpen), errors.Is(err, ErrTimeout):
			return nil, fmt.Errorf("%s: %w", path, err)
		case errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded):
			return nil, fmt.Errorf("%w: %s", ErrTimeout, path)
		default:
			return nil, transportError(path, err)
		}
	}
	return resp, nil
}
