package gemini

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"

	"google.golang.org/genai"

	"decko/internal/content"
	"decko/internal/llm"
	"decko/pkg/prompts"
)

const noResultsText = "No results found."

var _ llm.Studio = (*Client)(nil)

var socialDraftSchema = &genai.Schema{
	Type: genai.TypeObject,
	Properties: map[string]*genai.Schema{
		"caption": {
			Type:        genai.TypeString,
			Description: "The main post caption, including emojis.",
		},
		"hashtags": {
			Type:        genai.TypeArray,
			Items:       &genai.Schema{Type: genai.TypeString},
			Description: "5-10 relevant hashtags.",
		},
		"imagePrompt": {
			Type:        genai.TypeString,
			Description: "A detailed prompt for an AI image generator to create a matching visual.",
		},
	},
	Required: []string{"caption", "hashtags", "imagePrompt"},
}

type Options struct {
	Backend     string // "gemini" or "vertex"
	Project     string
	Location    string
	BaseURL     string
	SearchModel string
	DraftModel  string
	ImageModel  string
	EditModel   string
	Brand       string
	HTTPClient  *http.Client
}

// Client runs every operation against a freshly built genai client so a key
// selected mid-session takes effect on the next call.
type Client struct {
	keys    llm.KeySource
	prompts *prompts.Prompts
	opts    Options
}

func NewClient(keys llm.KeySource, p *prompts.Prompts, opts Options) *Client {
	if p == nil {
		p = prompts.Default()
	}
	return &Client{keys: keys, prompts: p, opts: opts}
}

func (c *Client) newGenAI(ctx context.Context) (*genai.Client, error) {
	cfg := &genai.ClientConfig{
		HTTPClient: c.opts.HTTPClient,
		HTTPOptions: genai.HTTPOptions{
			BaseURL: c.opts.BaseURL,
		},
	}

	if c.opts.Backend == "vertex" {
		cfg.Backend = genai.BackendVertexAI
		cfg.Project = c.opts.Project
		cfg.Location = c.opts.Location
	} else {
		key, err := c.apiKey(ctx)
		if err != nil {
			return nil, err
		}
		cfg.Backend = genai.BackendGeminiAPI
		cfg.APIKey = key
	}

	client, err := genai.NewClient(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("create gemini client: %w", err)
	}
	return client, nil
}

func (c *Client) apiKey(ctx context.Context) (string, error) {
	if c.keys == nil {
		return "", llm.ErrMissingKey
	}
	key, err := c.keys.Key(ctx)
	if err != nil {
		return "", fmt.Errorf("load api key: %w", err)
	}
	if key == "" {
		return "", llm.ErrMissingKey
	}
	return key, nil
}

func (c *Client) SearchEvents(ctx context.Context, query string) (*content.SearchResult, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil, llm.ErrEmptyQuery
	}

	prompt, err := c.prompts.RenderSearch(prompts.SearchParams{Query: query})
	if err != nil {
		return nil, fmt.Errorf("render prompt: %w", err)
	}

	config := &genai.GenerateContentConfig{
		Tools:             []*genai.Tool{{GoogleSearch: &genai.GoogleSearch{}}},
		SystemInstruction: systemInstruction(c.prompts.System.Search),
	}

	resp, err := c.generate(ctx, c.opts.SearchModel, genai.Text(prompt), config)
	if err != nil {
		return nil, err
	}

	text := resp.Text()
	if strings.TrimSpace(text) == "" {
		text = noResultsText
	}

	links := content.DedupeLinks(groundingLinks(resp))
	slog.Debug("Search complete", "model", c.opts.SearchModel, "links", len(links))

	return &content.SearchResult{Text: text, SourceLinks: links}, nil
}

func groundingLinks(resp *genai.GenerateContentResponse) []content.SourceLink {
	if len(resp.Candidates) == 0 || resp.Candidates[0].GroundingMetadata == nil {
		return nil
	}

	var links []content.SourceLink
	for _, chunk := range resp.Candidates[0].GroundingMetadata.GroundingChunks {
		if chunk == nil || chunk.Web == nil {
			continue
		}
		links = append(links, content.SourceLink{Title: chunk.Web.Title, URI: chunk.Web.URI})
	}
	return links
}

func (c *Client) DraftPost(ctx context.Context, eventText string) (*content.SocialDraft, error) {
	prompt, err := c.prompts.RenderDraft(prompts.DraftParams{Context: eventText, Brand: c.opts.Brand})
	if err != nil {
		return nil, fmt.Errorf("render prompt: %w", err)
	}

	config := &genai.GenerateContentConfig{
		ResponseMIMEType:  "application/json",
		ResponseSchema:    socialDraftSchema,
		SystemInstruction: systemInstruction(c.prompts.System.Draft),
	}

	resp, err := c.generate(ctx, c.opts.DraftModel, genai.Text(prompt), config)
	if err != nil {
		return nil, err
	}

	draft, err := llm.ParseDraft(resp.Text())
	if err != nil {
		slog.Error("Failed to parse JSON draft", "error", err)
		return nil, err
	}
	return draft, nil
}

func (c *Client) GenerateImage(ctx context.Context, prompt string, cfg content.ImageConfig) (*content.Image, error) {
	if strings.TrimSpace(prompt) == "" {
		return nil, fmt.Errorf("image prompt is empty")
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	contents := []*genai.Content{
		genai.NewContentFromParts([]*genai.Part{genai.NewPartFromText(prompt)}, genai.RoleUser),
	}
	config := &genai.GenerateContentConfig{
		ImageConfig: &genai.ImageConfig{
			AspectRatio: string(cfg.AspectRatio),
			ImageSize:   cfg.Resolution.ImageSize(),
		},
	}

	resp, err := c.generate(ctx, c.opts.ImageModel, contents, config)
	if err != nil {
		return nil, err
	}

	parts := candidateParts(resp)
	if len(parts) > 0 {
		if img := inlineImage(parts[0]); img != nil {
			return img, nil
		}
	}
	return nil, llm.ErrNoImage
}

func (c *Client) EditImage(ctx context.Context, source *content.Image, instruction string) (*content.Image, error) {
	if source == nil || len(source.Data) == 0 {
		return nil, fmt.Errorf("source image is empty")
	}
	if strings.TrimSpace(instruction) == "" {
		return nil, fmt.Errorf("edit instruction is empty")
	}

	mime := source.MIMEType
	if mime == "" {
		mime = content.DefaultImageMIMEType
	}

	contents := []*genai.Content{
		genai.NewContentFromParts([]*genai.Part{
			genai.NewPartFromBytes(source.Data, mime),
			genai.NewPartFromText(instruction),
		}, genai.RoleUser),
	}

	resp, err := c.generate(ctx, c.opts.EditModel, contents, nil)
	if err != nil {
		return nil, err
	}

	for _, part := range candidateParts(resp) {
		if img := inlineImage(part); img != nil {
			return img, nil
		}
	}
	return nil, fmt.Errorf("no edited image returned: %w", llm.ErrNoImage)
}

func (c *Client) generate(ctx context.Context, model string, contents []*genai.Content, config *genai.GenerateContentConfig) (*genai.GenerateContentResponse, error) {
	client, err := c.newGenAI(ctx)
	if err != nil {
		return nil, err
	}

	slog.Debug("Calling model", "model", model)
	resp, err := client.Models.GenerateContent(ctx, model, contents, config)
	if err != nil {
		return nil, fmt.Errorf("generate: %w", err)
	}
	if resp == nil {
		return nil, fmt.Errorf("no response")
	}
	return resp, nil
}

func candidateParts(resp *genai.GenerateContentResponse) []*genai.Part {
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return nil
	}
	return resp.Candidates[0].Content.Parts
}

func inlineImage(part *genai.Part) *content.Image {
	if part == nil || part.InlineData == nil || len(part.InlineData.Data) == 0 {
		return nil
	}
	mime := part.InlineData.MIMEType
	if mime == "" {
		mime = content.DefaultImageMIMEType
	}
	return &content.Image{Data: part.InlineData.Data, MIMEType: mime}
}

func systemInstruction(text string) *genai.Content {
	if strings.TrimSpace(text) == "" {
		return nil
	}
	return &genai.Content{Parts: []*genai.Part{{Text: text}}}
}
