package offline

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"
)

// Mutation kinds understood by the sync client. Payloads are the same JSON
// bodies the API accepts, plus the target IDs.
const (
	KindCompleteTask = "complete_task"
	KindBlockTask    = "block_task"
	KindSkipTask     = "skip_task"
	KindReopenTask   = "reopen_task"
	KindEndShift     = "end_shift"
)

// CompleteTaskMutation completes a task with its evidence payload.
type CompleteTaskMutation struct {
	TaskID      string   `json:"task_id"`
	CompletedBy string   `json:"completed_by"`
	Note        *string  `json:"note,omitempty"`
	Value       *float64 `json:"value,omitempty"`
	PhotoURL    *string  `json:"photo_url,omitempty"`
}

// BlockTaskMutation blocks a task with a reason.
type BlockTaskMutation struct {
	TaskID string `json:"task_id"`
	Reason string `json:"reason"`
}

// SkipTaskMutation skips a task.
type SkipTaskMutation struct {
	TaskID    string `json:"task_id"`
	SkippedBy string `json:"skipped_by"`
}

// ReopenTaskMutation returns a blocked task to pending.
type ReopenTaskMutation struct {
	TaskID string `json:"task_id"`
}

// EndShiftMutation closes a shift session.
type EndShiftMutation struct {
	ShiftID     string `json:"shift_id"`
	CompletedBy string `json:"completed_by"`
}

// Client replays queued mutations against the shiftdeck HTTP API.
//
// A 2xx response marks the mutation applied. So does any 4xx: those are
// permanent (the task was already completed by another actor, or the
// payload is invalid) and retrying them forever would wedge the queue.
// 5xx and transport errors leave the mutation queued for the next pass.
type Client struct {
	baseURL string
	apiKey  string
	http    *http.Client
}

// NewClient creates a sync client for the API at baseURL, e.g.
// "http://localhost:8080". An empty apiKey sends no Authorization header.
func NewClient(baseURL, apiKey string) *Client {
	return &Client{
		baseURL: baseURL,
		apiKey:  apiKey,
		http:    &http.Client{Timeout: 30 * time.Second},
	}
}

// Apply replays one mutation. Matches the signature Queue.Replay expects.
func (c *Client) Apply(ctx context.Context, m Mutation) error {
	path, body, err := c.route(m)
	if err != nil {
		// Unroutable mutations are malformed; treat as applied so they
		// don't block the queue.
		return nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("failed to build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("failed to reach server: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	if resp.StatusCode >= http.StatusInternalServerError {
		return fmt.Errorf("server error: %s", resp.Status)
	}
	return nil
}

// route maps a mutation to its API endpoint and request body.
func (c *Client) route(m Mutation) (string, []byte, error) {
	switch m.Kind {
	case KindCompleteTask:
		var p CompleteTaskMutation
		if err := json.Unmarshal(m.Payload, &p); err != nil {
			return "", nil, err
		}
		return "/api/v1/tasks/" + p.TaskID + "/complete", m.Payload, nil

	case KindBlockTask:
		var p BlockTaskMutation
		if err := json.Unmarshal(m.Payload, &p); err != nil {
			return "", nil, err
		}
		return "/api/v1/tasks/" + p.TaskID + "/block", m.Payload, nil

	case KindSkipTask:
		var p SkipTaskMutation
		if err := json.Unmarshal(m.Payload, &p); err != nil {
			return "", nil, err
		}
		return "/api/v1/tasks/" + p.TaskID + "/skip", m.Payload, nil

	case KindReopenTask:
		var p ReopenTaskMutation
		if err := json.Unmarshal(m.Payload, &p); err != nil {
			return "", nil, err
		}
		return "/api/v1/tasks/" + p.TaskID + "/reopen", m.Payload, nil

	case KindEndShift:
		var p EndShiftMutation
		if err := json.Unmarshal(m.Payload, &p); err != nil {
			return "", nil, err
		}
		return "/api/v1/shifts/" + p.ShiftID + "/end", m.Payload, nil

	default:
		return "", nil, fmt.Errorf("unknown mutation kind: %s", m.Kind)
	}
}

// EnqueueMutation marshals a typed mutation and appends it to the queue.
func EnqueueMutation(ctx context.Context, q *Queue, kind string, payload any) error {
	raw, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to encode mutation: %w", err)
	}
	return q.Enqueue(ctx, kind, raw)
}
