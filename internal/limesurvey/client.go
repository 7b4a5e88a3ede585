// Package limesurvey downloads questionnaire responses from a LimeSurvey
// RemoteControl 2 JSON-RPC endpoint.
package limesurvey

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync/atomic"
	"time"

	"github.com/cenkalti/backoff"
	"github.com/goccy/go-json"
	"go.uber.org/zap"

	"github.com/marcella-castro/check-pesquisa-mj/internal/models"
)

const language = "pt-BR"

// APIError is an error reported by the platform, either in the JSON-RPC
// error member or as a {"status": ...} result.
type APIError struct {
	Method  string
	Message string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("limesurvey: %s: %s", e.Method, e.Message)
}

// NoData reports whether the platform answered that there is nothing to
// return ("No Data, ...", "No groups found", ...).
func (e *APIError) NoData() bool {
	return strings.HasPrefix(e.Message, "No ")
}

type Options struct {
	URL      string
	Username string
	Password string
	// Surveys lists the survey ids of each category.
	Surveys     map[models.Category][]string
	Concurrency int
	HTTPClient  *http.Client
	// Retries bounds session key attempts after the first one.
	Retries       uint64
	RetryInterval time.Duration
}

type Client struct {
	url         string
	username    string
	password    string
	surveys     map[models.Category][]string
	concurrency int
	http        *http.Client

	retries       uint64
	retryInterval time.Duration

	seq atomic.Int64
}

func New(opts Options) *Client {
	if opts.HTTPClient == nil {
		opts.HTTPClient = &http.Client{Timeout: 5 * time.Minute}
	}
	if opts.Concurrency < 1 {
		opts.Concurrency = 1
	}
	if opts.RetryInterval <= 0 {
		opts.RetryInterval = 500 * time.Millisecond
	}
	return &Client{
		url:           opts.URL,
		username:      opts.Username,
		password:      opts.Password,
		surveys:       opts.Surveys,
		concurrency:   opts.Concurrency,
		http:          opts.HTTPClient,
		retries:       opts.Retries,
		retryInterval: opts.RetryInterval,
	}
}

type rpcRequest struct {
	Method string `json:"method"`
	Params []any  `json:"params"`
	ID     int64  `json:"id"`
}

type rpcResponse struct {
	ID     int64           `json:"id"`
	Result json.RawMessage `json:"result"`
	Error  any             `json:"error"`
}

type statusResult struct {
	Status string `json:"status"`
}

// call posts one JSON-RPC request and decodes the result into out.
func (c *Client) call(ctx context.Context, method string, params []any, out any) error {
	body, err := json.Marshal(rpcRequest{Method: method, Params: params, ID: c.seq.Add(1)})
	if err != nil {
		return fmt.Errorf("encode %s: %w", method, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build %s request: %w", method, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("%s: %w", method, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode/100 != 2 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("%s: http %d: %s", method, resp.StatusCode, strings.TrimSpace(string(snippet)))
	}

	var rpc rpcResponse
	if err := json.NewDecoder(resp.Body).Decode(&rpc); err != nil {
		return fmt.Errorf("decode %s response: %w", method, err)
	}
	if rpc.Error != nil {
		return &APIError{Method: method, Message: fmt.Sprint(rpc.Error)}
	}
	raw := bytes.TrimSpace(rpc.Result)
	if len(raw) > 0 && raw[0] == '{' {
		var st statusResult
		if json.Unmarshal(raw, &st) == nil && st.Status != "" {
			return &APIError{Method: method, Message: st.Status}
		}
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decode %s result: %w", method, err)
	}
	return nil
}

// SessionKey logs in, retrying transient failures with exponential backoff.
// Rejected credentials are not retried.
func (c *Client) SessionKey(ctx context.Context) (string, error) {
	var key string
	op := func() error {
		err := c.call(ctx, "get_session_key", []any{c.username, c.password}, &key)
		if _, ok := err.(*APIError); ok {
			return backoff.Permanent(err)
		}
		if err == nil && key == "" {
			return fmt.Errorf("get_session_key: empty session key")
		}
		return err
	}

	b := backoff.NewExponentialBackOff()
	b.InitialInterval = c.retryInterval
	b.MaxElapsedTime = 0
	policy := backoff.WithContext(backoff.WithMaxRetries(b, c.retries), ctx)

	notify := func(err error, wait time.Duration) {
		zap.S().Warnw("Session key request failed, retrying", "error", err, "wait", wait)
	}
	if err := backoff.RetryNotify(op, policy, notify); err != nil {
		return "", err
	}
	return key, nil
}

// ReleaseSessionKey ends a session. Failures are logged only.
func (c *Client) ReleaseSessionKey(ctx context.Context, key string) {
	if err := c.call(ctx, "release_session_key", []any{key}, nil); err != nil {
		zap.S().Warnw("Failed to release session key", "error", err)
	}
}

// SurveyInfo describes one configured survey.
type SurveyInfo struct {
	ID     string `json:"id"`
	Title  string `json:"title"`
	Active string `json:"active"`
}

type surveyProperties struct {
	Title  string `json:"surveyls_title"`
	Active string `json:"active"`
}

// Surveys reads the properties of every configured survey, grouped by
// category. A survey whose properties cannot be read is listed with
// defaults.
func (c *Client) Surveys(ctx context.Context) (map[models.Category][]SurveyInfo, error) {
	key, err := c.SessionKey(ctx)
	if err != nil {
		return nil, err
	}
	defer c.ReleaseSessionKey(context.WithoutCancel(ctx), key)

	out := make(map[models.Category][]SurveyInfo, len(c.surveys))
	for _, cat := range models.Categories() {
		infos := make([]SurveyInfo, 0, len(c.surveys[cat]))
		for _, id := range c.surveys[cat] {
			info := SurveyInfo{ID: id, Title: "Survey " + id, Active: "N"}
			var props surveyProperties
			if err := c.call(ctx, "get_survey_properties", []any{key, id}, &props); err != nil {
				zap.S().Warnw("Survey properties unavailable", "survey", id, "error", err)
			} else {
				if props.Title != "" {
					info.Title = props.Title
				}
				if props.Active != "" {
					info.Active = props.Active
				}
			}
			infos = append(infos, info)
		}
		out[cat] = infos
	}
	return out, nil
}
