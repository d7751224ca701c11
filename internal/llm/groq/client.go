package groq

import (
	"context"
	"fmt"

	"github.com/conneroisu/groq-go"

	"decko/internal/content"
	"decko/internal/llm"
	"decko/pkg/prompts"
)

var _ llm.DraftComposer = (*Client)(nil)

// Client drafts posts through Groq chat completions in JSON mode. It covers
// drafting only; search grounding and image calls stay on Gemini.
type Client struct {
	client  *groq.Client
	model   groq.ChatModel
	brand   string
	prompts *prompts.Prompts
}

func NewClient(apiKey, model, brand string, p *prompts.Prompts, opts ...groq.Opts) (*Client, error) {
	if apiKey == "" {
		return nil, fmt.Errorf("create groq client: %w", llm.ErrMissingKey)
	}

	client, err := groq.NewClient(apiKey, opts...)
	if err != nil {
		return nil, fmt.Errorf("create groq client: %w", err)
	}

	if p == nil {
		p = prompts.Default()
	}

	return &Client{
		client:  client,
		model:   groq.ChatModel(model),
		brand:   brand,
		prompts: p,
	}, nil
}

func (c *Client) DraftPost(ctx context.Context, eventText string) (*content.SocialDraft, error) {
	prompt, err := c.prompts.RenderDraft(prompts.DraftParams{Context: eventText, Brand: c.brand})
	if err != nil {
		return nil, fmt.Errorf("render prompt: %w", err)
	}

	text, err := c.generateJSON(ctx, c.prompts.System.GroqDraft, prompt)
	if err != nil {
		return nil, err
	}

	return llm.ParseDraft(text)
}

func (c *Client) generateJSON(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	req := groq.ChatCompletionRequest{
		Model: c.model,
		Messages: []groq.ChatCompletionMessage{
			{Role: groq.RoleSystem, Content: systemPrompt},
			{Role: groq.RoleUser, Content: userPrompt},
		},
		ResponseFormat: &groq.ChatResponseFormat{Type: "json_object"},
	}

	resp, err := c.client.ChatCompletion(ctx, req)
	if err != nil {
		return "", fmt.Errorf("generate: %w", err)
	}

	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("no response")
	}

	return resp.Choices[0].Message.Content, nil
}
