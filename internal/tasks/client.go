// Package tasks talks to the remote task service that owns field assignments.
package tasks

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
	"time"

	logrus "github.com/sirupsen/logrus"
)

const (
	StatusFinished = 1
	StatusOther    = -1

	// FinishedToken is the status a device sends for a completed task.
	FinishedToken = "finished"
)

// ErrNotConfigured is returned when no task service URL is set.
var ErrNotConfigured = errors.New("task service url not configured")

// StatusError is a task service reply other than 204 No Content.
type StatusError struct {
	TaskID string
	Code   int
	Body   string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("task service answered %d for task %s", e.Code, e.TaskID)
}

// Client updates task status on the task service. One attempt per call.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	if baseURL != "" && !strings.HasSuffix(baseURL, "/") {
		baseURL += "/"
	}
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: timeout},
	}
}

type statusPayload struct {
	Status int `json:"status"`
}

// StatusCode maps a device status token to the task service code.
func StatusCode(token string) int {
	if token == FinishedToken {
		return StatusFinished
	}
	return StatusOther
}

// ReportStatus sends PATCH <base><taskID>/ with the numeric status.
func (c *Client) ReportStatus(ctx context.Context, taskID, token string) error {
	if c.baseURL == "" {
		return ErrNotConfigured
	}

	body, err := json.Marshal(statusPayload{Status: StatusCode(token)})
	if err != nil {
		return fmt.Errorf("encode task status: %w", err)
	}

	endpoint := c.baseURL + url.PathEscape(taskID) + "/"
	req, err := http.NewRequestWithContext(ctx, http.MethodPatch, endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build task request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("call task service: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusNoContent {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		logrus.WithFields(logrus.Fields{
			"task_id": taskID,
			"status":  resp.StatusCode,
		}).Error("task service rejected status update")
		return &StatusError{TaskID: taskID, Code: resp.StatusCode, Body: string(snippet)}
	}

	logrus.WithFields(logrus.Fields{
		"task_id": taskID,
		"status":  StatusCode(token),
	}).Info("task status reported")
	return nil
}
