// Package sheets talks to the Apps Script web app that fronts the
// cooperative's spreadsheet. The script accepts a JSON action envelope on
// POST and serves a read-only data dump on GET.
package sheets

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"koperasi-collection-backend/internal/domain/petugas"
	"koperasi-collection-backend/pkg/id"
)

const (
	ActionLogin            = "LOGIN"
	ActionGetDashboardData = "GET_DASHBOARD_DATA"
	ActionRegisterCustomer = "REGISTER_NASABAH"
	ActionPayInstallment   = "BAYAR_ANGSURAN"
	ActionSubmitLoan       = "AJUKAN_PINJAMAN"
	ActionApproveLoan      = "APPROVE_PINJAMAN"
	ActionDisburseLoan     = "CAIRKAN_PINJAMAN"
	ActionWithdrawSavings  = "CAIRKAN_SIMPANAN"
	ActionClaimTransport   = "AMBIL_TRANSPORT"
	ActionMemberBalance    = "GET_MEMBER_BALANCE"
)

const (
	postAttempts = 3
	getAttempts  = 2
	postBackoff  = 1500 * time.Millisecond
	getBackoff   = time.Second
)

// Response is the script's uniform reply shape. Data keys are sheet names
// mapped to row arrays.
type Response struct {
	Success bool           `json:"success"`
	Message string         `json:"message"`
	Data    map[string]any `json:"data"`
}

type Client struct {
	baseURL string
	http    *http.Client
	sleep   func(ctx context.Context, d time.Duration) error
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	return &Client{
		baseURL: baseURL,
		http:    &http.Client{Timeout: timeout},
		sleep:   sleepCtx,
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Do posts an action envelope and retries on transport failure. The
// Apps Script endpoint is slow and flaky, so backoff grows per attempt.
func (c *Client) Do(ctx context.Context, action string, payload map[string]any) (*Response, error) {
	// request_id lets the script-side log correlate retries of one call
	envelope := map[string]any{"action": action, "request_id": id.NewID32()}
	if payload != nil {
		envelope["payload"] = payload
	}
	body, err := json.Marshal(envelope)
	if err != nil {
		return nil, fmt.Errorf("marshal %s envelope: %w", action, err)
	}

	var lastErr error
	for attempt := 1; attempt <= postAttempts; attempt++ {
		resp, err := c.post(ctx, body)
		if err == nil {
			return resp, nil
		}
		lastErr = err
		if attempt < postAttempts {
			if serr := c.sleep(ctx, time.Duration(attempt)*postBackoff); serr != nil {
				return nil, serr
			}
		}
	}
	return nil, fmt.Errorf("gateway %s failed after %d attempts: %w", action, postAttempts, lastErr)
}

func (c *Client) post(ctx context.Context, body []byte) (*Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL, bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	res, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()
	return decode(res)
}

// GetData fetches the read-only dump served on GET. It is the fallback
// source when the action endpoint cannot answer GET_DASHBOARD_DATA.
func (c *Client) GetData(ctx context.Context) (map[string]any, error) {
	var lastErr error
	for attempt := 1; attempt <= getAttempts; attempt++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL, nil)
		if err != nil {
			return nil, err
		}
		res, err := c.http.Do(req)
		if err == nil {
			resp, derr := func() (*Response, error) {
				defer res.Body.Close()
				return decode(res)
			}()
			if derr == nil {
				return resp.Data, nil
			}
			lastErr = derr
		} else {
			lastErr = err
		}
		if attempt < getAttempts {
			if serr := c.sleep(ctx, time.Duration(attempt)*getBackoff); serr != nil {
				return nil, serr
			}
		}
	}
	return nil, fmt.Errorf("gateway data fetch failed after %d attempts: %w", getAttempts, lastErr)
}

// GetDashboardData asks the script for the scoped data bundle for one
// officer. Admin scope returns every sheet.
func (c *Client) GetDashboardData(ctx context.Context, role petugas.Role, userID string) (map[string]any, error) {
	resp, err := c.Do(ctx, ActionGetDashboardData, map[string]any{
		"role":       string(role),
		"id_petugas": userID,
	})
	if err != nil {
		return nil, err
	}
	return resp.Data, nil
}

func decode(res *http.Response) (*Response, error) {
	raw, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, err
	}
	if res.StatusCode >= http.StatusInternalServerError {
		return nil, fmt.Errorf("gateway returned %d", res.StatusCode)
	}
	var out Response
	if err := json.Unmarshal(raw, &out); err != nil {
		return nil, fmt.Errorf("decode gateway response: %w", err)
	}
	if !out.Success && out.Message != "" {
		return nil, fmt.Errorf("gateway rejected request: %s", out.Message)
	}
	return &out, nil
}
