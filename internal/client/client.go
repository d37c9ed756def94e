package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/ledgerkit/ledgerkit/internal/ledger"
	"github.com/ledgerkit/ledgerkit/internal/service"
)

// Client is a thin HTTP client for the ledgerkit API, used by the CLI
// commands. Company and actor ride on every request as headers.
type Client struct {
	baseURL    string
	companyID  string
	actor      string
	httpClient *http.Client
}

func New(baseURL, companyID, actor string) *Client {
	return &Client{
		baseURL:   baseURL,
		companyID: companyID,
		actor:     actor,
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
		},
	}
}

func (c *Client) CreateAccount(ctx context.Context, req service.CreateAccountRequest) (*ledger.Account, error) {
	var result ledger.Account
	if err := c.post(ctx, "/api/v1/accounts", req, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *Client) ListAccountTree(ctx context.Context, accountType string) ([]*service.AccountNode, error) {
	params := url.Values{}
	if accountType != "" {
		params.Set("type", accountType)
	}
	var result []*service.AccountNode
	if err := c.get(ctx, "/api/v1/accounts?"+params.Encode(), &result); err != nil {
		return nil, err
	}
	return result, nil
}

func (c *Client) GetAccount(ctx context.Context, id string) (*ledger.Account, error) {
	var result ledger.Account
	if err := c.get(ctx, "/api/v1/accounts/"+url.PathEscape(id), &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *Client) UpdateAccount(ctx context.Context, id string, req service.UpdateAccountRequest) (*ledger.Account, error) {
	var result ledger.Account
	if err := c.patch(ctx, "/api/v1/accounts/"+url.PathEscape(id), req, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *Client) MoveAccount(ctx context.Context, id, newParentID string) (*ledger.Account, error) {
	body := map[string]any{"new_parent_id": newParentID}
	var result ledger.Account
	if err := c.post(ctx, "/api/v1/accounts/"+url.PathEscape(id)+"/move", body, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *Client) ReorderAccounts(ctx context.Context, orderedIDs []string) error {
	body := map[string]any{"ordered_ids": orderedIDs}
	return c.post(ctx, "/api/v1/accounts/reorder", body, nil)
}

func (c *Client) DeleteAccount(ctx context.Context, id string) error {
	return c.del(ctx, "/api/v1/accounts/"+url.PathEscape(id))
}

func (c *Client) GetAccountLedger(ctx context.Context, id, from, to string) (*ledger.AccountLedger, error) {
	params := url.Values{}
	params.Set("from", from)
	params.Set("to", to)
	var result ledger.AccountLedger
	if err := c.get(ctx, "/api/v1/accounts/"+url.PathEscape(id)+"/ledger?"+params.Encode(), &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *Client) GetBalance(ctx context.Context, id string, year, month int) (*ledger.LedgerBalance, error) {
	var result ledger.LedgerBalance
	path := fmt.Sprintf("/api/v1/accounts/%s/balance?year=%d&month=%d", url.PathEscape(id), year, month)
	if err := c.get(ctx, path, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

type VoucherRequest struct {
	Date        string                 `json:"date"`
	Type        string                 `json:"type"`
	Description string                 `json:"description"`
	Reference   string                 `json:"reference,omitempty"`
	Entries     []service.EntryRequest `json:"entries"`
}

func (c *Client) CreateVoucher(ctx context.Context, req VoucherRequest) (*ledger.Voucher, error) {
	var result ledger.Voucher
	if err := c.post(ctx, "/api/v1/vouchers", req, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *Client) GetVoucher(ctx context.Context, id string) (*ledger.Voucher, error) {
	var result ledger.Voucher
	if err := c.get(ctx, "/api/v1/vouchers/"+url.PathEscape(id), &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *Client) ListVouchers(ctx context.Context, status string) ([]ledger.Voucher, error) {
	params := url.Values{}
	if status != "" {
		params.Set("status", status)
	}
	var result []ledger.Voucher
	if err := c.get(ctx, "/api/v1/vouchers?"+params.Encode(), &result); err != nil {
		return nil, err
	}
	return result, nil
}

// Transition drives one of the lifecycle verbs: submit, approve, post,
// or cancel.
func (c *Client) Transition(ctx context.Context, id, verb string) (*ledger.Voucher, error) {
	var result ledger.Voucher
	if err := c.post(ctx, "/api/v1/vouchers/"+url.PathEscape(id)+"/"+verb, map[string]any{}, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *Client) RejectVoucher(ctx context.Context, id, reason string) (*ledger.Voucher, error) {
	var result ledger.Voucher
	body := map[string]any{"reason": reason}
	if err := c.post(ctx, "/api/v1/vouchers/"+url.PathEscape(id)+"/reject", body, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *Client) ReverseVoucher(ctx context.Context, id, reversalDate string) (*ledger.Voucher, error) {
	var result ledger.Voucher
	body := map[string]any{"reversal_date": reversalDate}
	if err := c.post(ctx, "/api/v1/vouchers/"+url.PathEscape(id)+"/reverse", body, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *Client) TrialBalance(ctx context.Context, year, month int) (*ledger.TrialBalance, error) {
	var result ledger.TrialBalance
	path := fmt.Sprintf("/api/v1/reports/trial-balance?year=%d&month=%d", year, month)
	if err := c.get(ctx, path, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *Client) BalanceSheet(ctx context.Context, asOf string) (*ledger.BalanceSheet, error) {
	var result ledger.BalanceSheet
	if err := c.get(ctx, "/api/v1/reports/balance-sheet?as_of="+url.QueryEscape(asOf), &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *Client) IncomeStatement(ctx context.Context, from, to string) (*ledger.IncomeStatement, error) {
	var result ledger.IncomeStatement
	path := "/api/v1/reports/income-statement?from=" + url.QueryEscape(from) + "&to=" + url.QueryEscape(to)
	if err := c.get(ctx, path, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *Client) ListPeriods(ctx context.Context) ([]ledger.FiscalPeriod, error) {
	var result []ledger.FiscalPeriod
	if err := c.get(ctx, "/api/v1/periods", &result); err != nil {
		return nil, err
	}
	return result, nil
}

func (c *Client) ClosePeriod(ctx context.Context, year, month int) (*ledger.FiscalPeriod, error) {
	var result ledger.FiscalPeriod
	path := fmt.Sprintf("/api/v1/periods/%d/%d/close", year, month)
	if err := c.post(ctx, path, map[string]any{}, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

func (c *Client) YearEndClose(ctx context.Context, year int, retainedEarningsID string) (*ledger.Voucher, error) {
	var result ledger.Voucher
	body := map[string]any{"retained_earnings_account_id": retainedEarningsID}
	path := fmt.Sprintf("/api/v1/periods/%d/year-end-close", year)
	if err := c.post(ctx, path, body, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// RecalculateBalances rebuilds stored monthly balances from posted
// entries. With an empty accountID every account is rebuilt. Returns the
// number of balance rows written.
func (c *Client) RecalculateBalances(ctx context.Context, accountID string) (int, error) {
	body := map[string]any{}
	if accountID != "" {
		body["account_id"] = accountID
	}
	var result struct {
		RowsUpdated int `json:"rows_updated"`
	}
	if err := c.post(ctx, "/api/v1/balances/recalculate", body, &result); err != nil {
		return 0, err
	}
	return result.RowsUpdated, nil
}

func (c *Client) get(ctx context.Context, path string, result any) error {
	req, err := http.NewRequestWithContext(ctx, "GET", c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	return c.doRequest(req, result)
}

func (c *Client) post(ctx context.Context, path string, body any, result any) error {
	data, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal body: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, "POST", c.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return c.doRequest(req, result)
}

func (c *Client) patch(ctx context.Context, path string, body any, result any) error {
	data, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("marshal body: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, "PATCH", c.baseURL+path, bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	return c.doRequest(req, result)
}

func (c *Client) del(ctx context.Context, path string) error {
	req, err := http.NewRequestWithContext(ctx, "DELETE", c.baseURL+path, nil)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	c.setHeaders(req)
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode >= 400 {
		return responseError(resp)
	}
	return nil
}

type apiError struct {
	Error string `json:"error"`
}

func (c *Client) setHeaders(req *http.Request) {
	req.Header.Set("X-Company-ID", c.companyID)
	if c.actor != "" {
		req.Header.Set("X-User-ID", c.actor)
	}
}

func (c *Client) doRequest(req *http.Request, result any) error {
	c.setHeaders(req)
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		return responseError(resp)
	}

	if result != nil {
		if err := json.NewDecoder(resp.Body).Decode(result); err != nil {
			return fmt.Errorf("decode response: %w", err)
		}
	}
	return nil
}

func responseError(resp *http.Response) error {
	bodyBytes, _ := io.ReadAll(resp.Body)
	var apiErr apiError
	if json.Unmarshal(bodyBytes, &apiErr) == nil && apiErr.Error != "" {
		return fmt.Errorf("server error (%d): %s", resp.StatusCode, apiErr.Error)
	}
	return fmt.Errorf("server error (%d): %s", resp.StatusCode, string(bodyBytes))
}
