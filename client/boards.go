package client

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"time"
)

const (
	boardsEndpoint  = "/api/boards"
	metricsEndpoint = "/api/quality-metrics"
)

// ListBoards returns every board visible to the session.
func (c *Client) ListBoards(ctx context.Context) ([]Board, error) {
	var boards []Board
	if err := c.CallInto(ctx, http.MethodGet, boardsEndpoint, nil, EncodingJSON, &boards); err != nil {
		return nil, err
	}
	return boards, nil
}

// GetBoard fetches one board. Admin only.
func (c *Client) GetBoard(ctx context.Context, id int) (*Board, error) {
	var b Board
	if err := c.CallInto(ctx, http.MethodGet, boardPath(id), nil, EncodingJSON, &b); err != nil {
		return nil, err
	}
	return &b, nil
}

// CreateBoard creates a board and returns it as stored. Admin only.
func (c *Client) CreateBoard(ctx context.Context, in BoardCreate) (*Board, error) {
	var b Board
	if err := c.CallInto(ctx, http.MethodPost, boardsEndpoint+"/", in, EncodingJSON, &b); err != nil {
		return nil, err
	}
	return &b, nil
}

// UpdateBoard applies a partial update and returns the board as stored. Admin only.
func (c *Client) UpdateBoard(ctx context.Context, id int, in BoardUpdate) (*Board, error) {
	var b Board
	if err := c.CallInto(ctx, http.MethodPut, boardPath(id), in, EncodingJSON, &b); err != nil {
		return nil, err
	}
	return &b, nil
}

// DeleteBoard removes a board. Admin only.
func (c *Client) DeleteBoard(ctx context.Context, id int) error {
	_, err := c.Delete(ctx, boardPath(id))
	return err
}

func boardPath(id int) string {
	return fmt.Sprintf("%s/%d", boardsEndpoint, id)
}

// MetricsQuery selects the window QualityMetrics reports on. Start and End
// are "HH:MM:SS" times on Date; empty values use the server defaults
// (the whole day).
type MetricsQuery struct {
	Date  time.Time
	Start string
	End   string
}

func (q MetricsQuery) values() url.Values {
	v := url.Values{}
	v.Set("selected_date", q.Date.Format(time.DateOnly))
	if q.Start != "" {
		v.Set("start_time", q.Start)
	}
	if q.End != "" {
		v.Set("end_time", q.End)
	}
	return v
}

// QualityMetrics fetches the good/bad test counts for a window.
func (c *Client) QualityMetrics(ctx context.Context, q MetricsQuery) (*QualityMetrics, error) {
	var m QualityMetrics
	endpoint := metricsEndpoint + "?" + q.values().Encode()
	if err := c.CallInto(ctx, http.MethodGet, endpoint, nil, EncodingJSON, &m); err != nil {
		return nil, err
	}
	return &m, nil
}

const registerEndpoint = "/register-user"

// RegisterUser creates an account. The role defaults to "user" server-side.
func (c *Client) RegisterUser(ctx context.Context, in UserCreate) (*User, error) {
	var u User
	if err := c.CallInto(ctx, http.MethodPost, registerEndpoint, in, EncodingJSON, &u); err != nil {
		return nil, err
	}
	return &u, nil
}
