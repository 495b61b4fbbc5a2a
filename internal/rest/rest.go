package rest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"

	"github.com/luciancaetano/hiven"
)

// maxErrorBody is how much of a failed response body is kept in an APIError
const maxErrorBody = 4 * 1024

// Client performs authenticated requests against the REST API.
type Client struct {
	httpClient *http.Client
	baseURL    string
	token      string
}

// New creates a REST client. baseURL includes the version prefix, e.g.
// https://api.hiven.io/v1. A nil httpClient uses http.DefaultClient.
func New(baseURL, token string, httpClient *http.Client) *Client {
	if httpClient == nil {
		httpClient = http.DefaultClient
	}
	return &Client{
		httpClient: httpClient,
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		token:      token,
	}
}

// response is the envelope every API answer is wrapped in.
type response struct {
	Success bool            `json:"success"`
	Data    json.RawMessage `json:"data"`
}

// Do sends one request. body is JSON encoded unless method is GET; out, when
// not nil, receives the decoded "data" field of the response.
func (c *Client) Do(ctx context.Context, method, path string, body, out any) error {
	var reader io.Reader
	if method != http.MethodGet && body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encoding %s %s body: %w", method, path, err)
		}
		reader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
	if err != nil {
		return fmt.Errorf("building %s %s: %w", method, path, err)
	}
	req.Header.Set("authorization", c.token)
	if reader != nil {
		req.Header.Set("content-type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		data, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		return &hiven.APIError{
			Method:     method,
			Path:       path,
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(data)),
		}
	}

	if out == nil {
		io.Copy(io.Discard, resp.Body)
		return nil
	}

	var env response
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return fmt.Errorf("decoding %s %s response: %w", method, path, err)
	}
	if len(env.Data) == 0 {
		return fmt.Errorf("decoding %s %s response: missing data", method, path)
	}
	if err := json.Unmarshal(env.Data, out); err != nil {
		return fmt.Errorf("decoding %s %s response: %w", method, path, err)
	}
	return nil
}

type sendMessageBody struct {
	Content string `json:"content"`
}

// SendMessage posts content to a room.
func (c *Client) SendMessage(ctx context.Context, roomID hiven.Snowflake, content string) error {
	path := fmt.Sprintf("/rooms/%s/messages", roomID)
	return c.Do(ctx, http.MethodPost, path, sendMessageBody{Content: content}, nil)
}

// CurrentUser fetches the user the token belongs to.
func (c *Client) CurrentUser(ctx context.Context) (*hiven.User, error) {
	var user hiven.User
	if err := c.Do(ctx, http.MethodGet, "/users/@me", nil, &user); err != nil {
		return nil, err
	}
	return &user, nil
}

var _ hiven.REST = (*Client)(nil)
