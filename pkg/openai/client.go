package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
)

// Client is a minimal OpenAI chat-completion client.
type Client struct {
	token      string
	baseURL    string
	model      string
	httpClient *http.Client
}

func NewClient(token, baseURL, model string) *Client {
	if baseURL == "" {
		baseURL = "https://api.openai.com/v1"
	}
	if model == "" {
		model = "gpt-3.5-turbo"
	}
	return &Client{
		token:      token,
		baseURL:    baseURL,
		model:      model,
		httpClient: http.DefaultClient,
	}
}

func (c *Client) do(ctx context.Context, endpoint string, body any, out any) error {
	b, err := json.Marshal(body)
	if err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+endpoint, bytes.NewReader(b))
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	req.Header.Set("Content-Type", "application/json")
	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return errors.New("openai: unexpected status " + resp.Status)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}

// ChatCompletion sends one system+user exchange and returns the reply text.
func (c *Client) ChatCompletion(ctx context.Context, system, user string) (string, error) {
	reqBody := map[string]any{
		"model": c.model,
		"messages": []map[string]string{
			{"role": "system", "content": system},
			{"role": "user", "content": user},
		},
		"temperature": 0.3,
		"max_tokens":  50,
	}
	var respBody struct {
		Choices []struct {
			Message struct {
				Content string `json:"content"`
			} `json:"message"`
		} `json:"choices"`
	}
	if err := c.do(ctx, "/chat/completions", reqBody, &respBody); err != nil {
		return "", err
	}
	if len(respBody.Choices) == 0 {
		return "", errors.New("openai: empty response")
	}
	return respBody.Choices[0].Message.Content, nil
}
