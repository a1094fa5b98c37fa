// Package remote implements the row-oriented backend client the sync
// engine pushes to and pulls from. The wire protocol is the PostgREST
// flavor the hosted backend speaks: one route per table, filters in the
// query string, JSON rows in the body.
package remote

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"

	apperrors "github.com/vistoria/fieldsync/internal/errors"
)

// Client talks to the remote backend's REST surface.
type Client struct {
	http   *resty.Client
	logger *zap.Logger
}

// NewClient creates a Client for the backend at baseURL. The apiKey rides
// on every request; timeout is the per-request transport timeout — a slow
// backend surfaces as a per-entry RemoteError, never a hung sync cycle.
func NewClient(baseURL, apiKey string, timeout time.Duration, logger *zap.Logger) *Client {
	httpClient := resty.New().
		SetBaseURL(baseURL).
		SetTimeout(timeout).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json").
		SetHeader("apikey", apiKey).
		SetHeader("Authorization", "Bearer "+apiKey)

	return &Client{http: httpClient, logger: logger}
}

// remoteErr converts a transport error or non-2xx response into a
// RemoteError. An empty result set is success; only explicit backend
// errors land here.
func remoteErr(op, table string, resp *resty.Response, err error) error {
	if err != nil {
		return apperrors.Wrap(apperrors.ErrRemote, fmt.Sprintf("%s %s failed", op, table), err)
	}
	return apperrors.Newf(apperrors.ErrRemote, "%s %s failed: %s: %s",
		op, table, resp.Status(), string(resp.Body()))
}

// Insert creates one row in the named table.
func (c *Client) Insert(ctx context.Context, table string, row json.RawMessage) error {
	resp, err := c.http.R().
		SetContext(ctx).
		SetBody(row).
		Post("/rest/v1/" + table)
	if err != nil || resp.IsError() {
		return remoteErr("insert", table, resp, err)
	}
	return nil
}

// Update patches the row with the given id in the named table.
func (c *Client) Update(ctx context.Context, table, id string, row json.RawMessage) error {
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParam("id", "eq."+id).
		SetBody(row).
		Patch("/rest/v1/" + table)
	if err != nil || resp.IsError() {
		return remoteErr("update", table, resp, err)
	}
	return nil
}

// Delete removes the row with the given id from the named table.
func (c *Client) Delete(ctx context.Context, table, id string) error {
	resp, err := c.http.R().
		SetContext(ctx).
		SetQueryParam("id", "eq."+id).
		Delete("/rest/v1/" + table)
	if err != nil || resp.IsError() {
		return remoteErr("delete", table, resp, err)
	}
	return nil
}

// Select returns every row of the table with updated_at strictly greater
// than updatedAfter; all rows when updatedAfter is empty. Rows come back
// raw so the store can decode them per entity.
func (c *Client) Select(ctx context.Context, table, updatedAfter string) ([]json.RawMessage, error) {
	req := c.http.R().
		SetContext(ctx).
		SetQueryParam("select", "*").
		SetQueryParam("order", "updated_at.asc")
	if updatedAfter != "" {
		req.SetQueryParam("updated_at", "gt."+updatedAfter)
	}

	resp, err := req.Get("/rest/v1/" + table)
	if err != nil || resp.IsError() {
		return nil, remoteErr("select", table, resp, err)
	}

	var rows []json.RawMessage
	if err := json.Unmarshal(resp.Body(), &rows); err != nil {
		return nil, apperrors.Wrap(apperrors.ErrRemote, "select "+table+" returned malformed rows", err)
	}
	return rows, nil
}

// Probe reports whether the backend answers at all. Used as the default
// connectivity prober; any HTTP response counts as reachable.
func (c *Client) Probe(ctx context.Context) bool {
	resp, err := c.http.R().SetContext(ctx).Head("/rest/v1/")
	if err != nil {
		c.logger.Debug("probe failed", zap.Error(err))
		return false
	}
	return resp.StatusCode() < 500
}

// Fetch executes an arbitrary request against the backend and returns the
// raw status and body. The edge cache worker uses this as its upstream so
// cached traffic carries the same headers and timeout as sync traffic.
func (c *Client) Fetch(ctx context.Context, method, url string) (int, []byte, error) {
	resp, err := c.http.R().SetContext(ctx).Execute(method, url)
	if err != nil {
		return 0, nil, apperrors.Wrap(apperrors.ErrRemote, method+" "+url+" failed", err)
	}
	return resp.StatusCode(), resp.Body(), nil
}
