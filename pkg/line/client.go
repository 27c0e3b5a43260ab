// Package line is a small client for the LINE Messaging API send endpoints.
package line

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"
)

const DefaultBaseURL = "https://api.line.me"

// ErrInvalidReplyToken is matched by errors.Is when the platform rejects an
// expired or already used reply token
var ErrInvalidReplyToken = errors.New("invalid reply token")

// APIError is a non-2xx response of the Messaging API
type APIError struct {
	StatusCode int
	Message    string `json:"message"`
	Details    []struct {
		Message  string `json:"message"`
		Property string `json:"property"`
	} `json:"details"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("line api: status %d: %s", e.StatusCode, e.Message)
}

func (e *APIError) Unwrap() error {
	if e.StatusCode == http.StatusBadRequest && strings.Contains(strings.ToLower(e.Message), "invalid reply token") {
		return ErrInvalidReplyToken
	}
	return nil
}

type Client struct {
	BaseURL     string
	AccessToken string
	Client      *http.Client
}

func NewClient(baseURL, accessToken string) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}
	return &Client{
		BaseURL:     strings.TrimRight(baseURL, "/"),
		AccessToken: accessToken,
		Client:      &http.Client{Timeout: 10 * time.Second},
	}
}

type replyRequest struct {
	ReplyToken string    `json:"replyToken"`
	Messages   []Message `json:"messages"`
}

type pushRequest struct {
	To       string    `json:"to"`
	Messages []Message `json:"messages"`
}

// Reply answers one inbound event. The token is single use.
func (c *Client) Reply(ctx context.Context, replyToken string, messages ...Message) error {
	if err := checkMessages(messages); err != nil {
		return err
	}
	return c.post(ctx, "/v2/bot/message/reply", replyRequest{ReplyToken: replyToken, Messages: messages}, nil)
}

// Push sends to a user id. A retry key makes a repeated push idempotent on the platform side.
func (c *Client) Push(ctx context.Context, to string, messages ...Message) error {
	if err := checkMessages(messages); err != nil {
		return err
	}
	headers := map[string]string{"X-Line-Retry-Key": uuid.NewString()}
	return c.post(ctx, "/v2/bot/message/push", pushRequest{To: to, Messages: messages}, headers)
}

func checkMessages(messages []Message) error {
	if len(messages) == 0 {
		return errors.New("line: no messages to send")
	}
	if len(messages) > MaxMessagesPerCall {
		return fmt.Errorf("line: %d messages exceed the limit of %d", len(messages), MaxMessagesPerCall)
	}
	return nil
}

func (c *Client) post(ctx context.Context, path string, payload interface{}, headers map[string]string) error {
	body, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.BaseURL+path, bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.AccessToken)
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}

	res, err := c.Client.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()

	resByte, err := io.ReadAll(res.Body)
	if err != nil {
		return err
	}

	if res.StatusCode >= 200 && res.StatusCode < 300 {
		return nil
	}

	apiErr := &APIError{StatusCode: res.StatusCode}
	if jsonErr := json.Unmarshal(resByte, apiErr); jsonErr != nil || apiErr.Message == "" {
		apiErr.Message = strings.TrimSpace(string(resByte))
	}
	return apiErr
}
