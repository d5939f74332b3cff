package seed

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Submission outcomes.
const (
	resultAccepted  = "accepted"
	resultDuplicate = "duplicate"
	resultFailed    = "failed"
)

// client wraps http.Client with the admin credentials.
type client struct {
	http    *http.Client
	baseURL string
	user    string
	secret  string
}

func newClient(cfg *Config) *client {
	return &client{
		http:    &http.Client{Timeout: cfg.Timeout},
		baseURL: cfg.BaseURL,
		user:    cfg.User,
		secret:  cfg.Secret,
	}
}

func (c *client) get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, http.NoBody)
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("GET %s: %w", path, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("GET %s: status %d: %s", path, resp.StatusCode, bytes.TrimSpace(body))
	}
	if out == nil {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}
	return nil
}

// submit posts one entry and classifies the answer.
func (c *client) submit(ctx context.Context, s Submission) (string, error) {
	data, err := json.Marshal(s)
	if err != nil {
		return resultFailed, fmt.Errorf("failed to marshal submission: %w", err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/entries", bytes.NewReader(data))
	if err != nil {
		return resultFailed, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Idempotency-Key", s.Key)
	req.SetBasicAuth(c.user, c.secret)

	resp, err := c.http.Do(req)
	if err != nil {
		return resultFailed, fmt.Errorf("POST /entries: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	switch resp.StatusCode {
	case http.StatusAccepted:
		return resultAccepted, nil
	case http.StatusOK:
		return resultDuplicate, nil
	case http.StatusUnauthorized, http.StatusForbidden:
		return resultFailed, fmt.Errorf("%w: status %d", ErrAdminRejected, resp.StatusCode)
	default:
		return resultFailed, nil
	}
}

// waitForBoard polls /leaderboard until it holds at least want rows or the
// settle window closes, returning the last board seen.
func (c *client) waitForBoard(ctx context.Context, want int, settle time.Duration) (Board, error) {
	deadline := time.Now().Add(settle)
	var board Board
	for {
		if err := c.get(ctx, "/leaderboard", &board); err != nil {
			return board, err
		}
		if !board.Loading && board.Total >= want {
			return board, nil
		}
		if time.Now().After(deadline) {
			return board, fmt.Errorf("%w: have %d rows, want %d", ErrBoardBehind, board.Total, want)
		}
		select {
		case <-ctx.Done():
			return board, ctx.Err()
		case <-time.After(pollInterval):
		}
	}
}
