package assist

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"
)

// Client wraps the AI text-completion endpoint used by the study helper.
type Client struct {
	rc    *resty.Client
	url   string
	model string
}

func NewClient(url, apiKey, model string) *Client {
	rc := resty.New().
		SetAuthToken(apiKey).
		SetTimeout(30 * time.Second)
	return &Client{rc: rc, url: url, model: model}
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Choices []struct {
		Message chatMessage `json:"message"`
	} `json:"choices"`
}

const systemPrompt = "You are a study assistant for an education portal. " +
	"Explain concepts clearly and concisely for a student audience. " +
	"Do not reveal quiz answers."

// Explain asks the model for a short explanation of the given topic or
// passage.
func (c *Client) Explain(ctx context.Context, prompt string) (string, error) {
	var out chatResponse
	resp, err := c.rc.R().
		SetContext(ctx).
		SetBody(chatRequest{
			Model: c.model,
			Messages: []chatMessage{
				{Role: "system", Content: systemPrompt},
				{Role: "user", Content: prompt},
			},
		}).
		SetResult(&out).
		Post(c.url)
	if err != nil {
		return "", err
	}
	if resp.IsError() {
		return "", fmt.Errorf("assist: status %d: %s", resp.StatusCode(), resp.String())
	}
	if len(out.Choices) == 0 {
		return "", errors.New("assist: empty completion")
	}
	return out.Choices[0].Message.Content, nil
}
