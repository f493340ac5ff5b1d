package netsuite

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"math/rand"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"netsuite-gateway/models"
)

const (
	suiteQLPath = "/services/rest/query/v1/suiteql"

	defaultTimeout  = 60 * time.Second
	defaultPageSize = 1000
	defaultMaxRows  = 100000

	rateLimitRetries = 3
	serverErrRetries = 2
	initialBackoff   = 2 * time.Second
)

// Row is one SuiteQL result row keyed by lowercased column name
type Row map[string]interface{}

// String reads a column as a string, tolerating the ERP's loose typing
func (r Row) String(col string) string {
	switch v := r[col].(type) {
	case nil:
		return ""
	case string:
		return v
	case json.Number:
		return v.String()
	case bool:
		if v {
			return "T"
		}
		return "F"
	default:
		return fmt.Sprintf("%v", v)
	}
}

// Float reads a column as a number. SuiteQL returns amounts as strings; this
// is the explicit to_number step every amount goes through.
func (r Row) Float(col string) float64 {
	switch v := r[col].(type) {
	case json.Number:
		f, _ := v.Float64()
		return f
	case float64:
		return v
	case string:
		var f float64
		_, err := fmt.Sscanf(strings.TrimSpace(v), "%g", &f)
		if err != nil {
			return 0
		}
		return f
	default:
		return 0
	}
}

// Int reads a column as an integer id
func (r Row) Int(col string) int64 {
	switch v := r[col].(type) {
	case json.Number:
		n, _ := v.Int64()
		return n
	case float64:
		return int64(v)
	case string:
		var n int64
		if _, err := fmt.Sscanf(strings.TrimSpace(v), "%d", &n); err == nil {
			return n
		}
		return 0
	default:
		return 0
	}
}

// Bool reads one of the ERP's 'T'/'F' flags
func (r Row) Bool(col string) bool {
	return r.String(col) == "T"
}

// QueryOptions tune one logical query
type QueryOptions struct {
	Timeout  time.Duration
	PageSize int
	MaxRows  int
}

// QueryOption mutates QueryOptions
type QueryOption func(*QueryOptions)

// WithTimeout overrides the 60s default; balance-sheet queries use 90-120s,
// derived-equity compositions up to 300s.
func WithTimeout(d time.Duration) QueryOption {
	return func(o *QueryOptions) { o.Timeout = d }
}

// WithPageSize overrides the page size requested from the ERP
func WithPageSize(n int) QueryOption {
	return func(o *QueryOptions) { o.PageSize = n }
}

// WithMaxRows overrides the runaway-pivot guard
func WithMaxRows(n int) QueryOption {
	return func(o *QueryOptions) { o.MaxRows = n }
}

// Executor runs SuiteQL and yields rows. Services depend on this interface so
// tests can substitute a stub for the live client.
type Executor interface {
	Query(ctx context.Context, sql string, opts ...QueryOption) ([]Row, error)
}

// Client signs and executes SuiteQL statements against the REST endpoint
type Client struct {
	baseURL string
	http    *http.Client
	signer  *signer
	log     *logrus.Entry
	sleep   func(ctx context.Context, d time.Duration) error

	// randMu guards rand: one shared source, retries back off concurrently.
	randMu sync.Mutex
	rand   *rand.Rand
}

// NewClient builds a client for the account the credentials belong to
func NewClient(creds Credentials) *Client {
	host := strings.ReplaceAll(strings.ToLower(creds.AccountID), "_", "-")
	return NewClientWithBaseURL(creds, fmt.Sprintf("https://%s.suitetalk.api.netsuite.com", host))
}

// NewClientWithBaseURL builds a client against an explicit endpoint; tests
// point this at an httptest server.
func NewClientWithBaseURL(creds Credentials, baseURL string) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    &http.Client{},
		signer:  newSigner(creds),
		log:     logrus.WithField("component", "netsuite"),
		sleep:   sleepCtx,
		rand:    rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

type suiteQLResponse struct {
	Items        []map[string]interface{} `json:"items"`
	HasMore      bool                     `json:"hasMore"`
	Count        int                      `json:"count"`
	Offset       int                      `json:"offset"`
	TotalResults int                      `json:"totalResults"`
}

// Query executes one logical SuiteQL statement, following pagination until
// exhausted and concatenating rows. The statement carries no bind parameters;
// the builder pre-escapes every literal.
func (c *Client) Query(ctx context.Context, sql string, opts ...QueryOption) ([]Row, error) {
	o := QueryOptions{Timeout: defaultTimeout, PageSize: defaultPageSize, MaxRows: defaultMaxRows}
	for _, opt := range opts {
		opt(&o)
	}

	ctx, cancel := context.WithTimeout(ctx, o.Timeout)
	defer cancel()

	started := time.Now()
	var rows []Row
	offset := 0
	for {
		page, err := c.queryPage(ctx, sql, o.PageSize, offset)
		if err != nil {
			return nil, err
		}
		for _, item := range page.Items {
			row := make(Row, len(item))
			for k, v := range item {
				if k == "links" {
					continue
				}
				row[strings.ToLower(k)] = v
			}
			rows = append(rows, row)
		}
		if len(rows) >= o.MaxRows {
			c.log.WithFields(logrus.Fields{"rows": len(rows), "cap": o.MaxRows}).
				Warn("row cap reached, truncating result")
			rows = rows[:o.MaxRows]
			break
		}
		if !page.HasMore || len(page.Items) == 0 {
			break
		}
		offset += len(page.Items)
	}

	c.log.WithFields(logrus.Fields{
		"rows":        len(rows),
		"duration_ms": time.Since(started).Milliseconds(),
		"sql_len":     len(sql),
	}).Debug("suiteql query complete")
	return rows, nil
}

// queryPage fetches one page with a bounded retry budget: up to 3 retries on
// 429, 2 on 5xx, one on read timeout, none on auth failures.
func (c *Client) queryPage(ctx context.Context, sql string, limit, offset int) (*suiteQLResponse, error) {
	var (
		rateLimitTries int
		serverErrTries int
		timeoutTried   bool
		backoff        = initialBackoff
	)

	for {
		resp, err := c.doPage(ctx, sql, limit, offset)
		if err == nil {
			return resp, nil
		}

		if ctx.Err() != nil {
			return nil, models.WrapError(models.ErrTimeout, ctx.Err(), "query deadline exceeded")
		}

		var appErr *models.AppError
		if errors.As(err, &appErr) {
			switch appErr.Kind {
			case models.ErrRateLimited:
				if rateLimitTries >= rateLimitRetries {
					return nil, err
				}
				rateLimitTries++
				wait := c.jitter(backoff)
				backoff *= 2
				c.log.WithFields(logrus.Fields{"attempt": rateLimitTries, "wait": wait.String()}).
					Warn("concurrent request limit hit, backing off")
				if serr := c.sleep(ctx, wait); serr != nil {
					return nil, models.WrapError(models.ErrTimeout, serr, "query cancelled during backoff")
				}
				continue
			case models.ErrBackend:
				if appErr.Err == errRetryableServer && serverErrTries < serverErrRetries {
					serverErrTries++
					wait := c.jitter(backoff)
					backoff *= 2
					c.log.WithFields(logrus.Fields{"attempt": serverErrTries, "wait": wait.String()}).
						Warn("transient server error, retrying")
					if serr := c.sleep(ctx, wait); serr != nil {
						return nil, models.WrapError(models.ErrTimeout, serr, "query cancelled during backoff")
					}
					continue
				}
				return nil, err
			default:
				return nil, err
			}
		}

		// Transport-level failure: retry once on read timeout only.
		var netErr net.Error
		if errors.As(err, &netErr) && netErr.Timeout() && !timeoutTried {
			timeoutTried = true
			c.log.Warn("read timeout, retrying once")
			continue
		}
		return nil, models.WrapError(models.ErrBackend, err, "request failed")
	}
}

// errRetryableServer tags 5xx responses inside the retry loop
var errRetryableServer = errors.New("retryable server error")

func (c *Client) jitter(d time.Duration) time.Duration {
	c.randMu.Lock()
	defer c.randMu.Unlock()
	// ±20%
	factor := 0.8 + 0.4*c.rand.Float64()
	return time.Duration(float64(d) * factor)
}

func (c *Client) doPage(ctx context.Context, sql string, limit, offset int) (*suiteQLResponse, error) {
	rawURL := fmt.Sprintf("%s%s?limit=%d&offset=%d", c.baseURL, suiteQLPath, limit, offset)

	body, err := json.Marshal(map[string]string{"q": sql})
	if err != nil {
		return nil, fmt.Errorf("marshal query body: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, rawURL, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}

	auth, err := c.signer.AuthorizationHeader(http.MethodPost, rawURL)
	if err != nil {
		return nil, fmt.Errorf("sign request: %w", err)
	}
	req.Header.Set("Authorization", auth)
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Prefer", "transient")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	payload, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	switch {
	case resp.StatusCode == http.StatusOK:
		var out suiteQLResponse
		dec := json.NewDecoder(bytes.NewReader(payload))
		dec.UseNumber()
		if err := dec.Decode(&out); err != nil {
			return nil, models.WrapError(models.ErrBackend, err, "malformed suiteql response")
		}
		return &out, nil
	case resp.StatusCode == http.StatusTooManyRequests:
		return nil, models.NewAppError(models.ErrRateLimited, "concurrent request limit exceeded")
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return nil, models.NewAppError(models.ErrAuth, "authentication rejected (HTTP %d): %s", resp.StatusCode, truncate(string(payload), 500))
	case resp.StatusCode >= 500:
		return nil, models.WrapError(models.ErrBackend, errRetryableServer, "server error (HTTP %d): %s", resp.StatusCode, truncate(string(payload), 500))
	default:
		// The ERP's error payload surfaces verbatim for non-retryable errors.
		return nil, models.NewAppError(models.ErrBackend, "suiteql error (HTTP %d): %s", resp.StatusCode, truncate(string(payload), 2000))
	}
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
