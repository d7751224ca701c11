package mcp

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"decko/internal/content"
	"decko/internal/storage"
)

type SearchInput struct {
	Query string `json:"query" jsonschema:"the event or topic to research, e.g. 'tech conferences in Berlin this autumn'"`
}

type SearchOutput struct {
	Text    string               `json:"text"`
	Sources []content.SourceLink `json:"sources"`
}

type DraftInput struct {
	EventText string `json:"event_text" jsonschema:"event details to base the post on, usually the text returned by search_events"`
}

type DraftOutput struct {
	Caption     string   `json:"caption"`
	Hashtags    []string `json:"hashtags"`
	ImagePrompt string   `json:"image_prompt"`
}

type GenerateInput struct {
	Prompt      string `json:"prompt" jsonschema:"description of the image to create"`
	AspectRatio string `json:"aspect_ratio,omitempty" jsonschema:"one of 1:1, 16:9, 9:16, 4:3, 3:4 (default 1:1)"`
	Resolution  string `json:"resolution,omitempty" jsonschema:"standard (1K) or high (2K)"`
	Save        bool   `json:"save,omitempty" jsonschema:"also store the image in the configured output location"`
}

type EditInput struct {
	Image       string `json:"image" jsonschema:"source image as a data URL, file path or http(s) URL"`
	Instruction string `json:"instruction" jsonschema:"what to change, e.g. 'add a retro filter'"`
	Save        bool   `json:"save,omitempty" jsonschema:"also store the image in the configured output location"`
}

type ImageOutput struct {
	MIMEType string `json:"mime_type"`
	Bytes    int    `json:"bytes"`
	SavedTo  string `json:"saved_to,omitempty"`
}

func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "search_events",
		Description: "Research an event or topic with Google Search grounding and return a summary with source links",
	}, s.handleSearch)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "draft_post",
		Description: "Draft a social media post (caption, hashtags, image prompt) from event details",
	}, s.handleDraft)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "generate_image",
		Description: "Generate a marketing image from a text prompt",
	}, s.handleGenerate)

	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "edit_image",
		Description: "Edit an existing image following a natural language instruction",
	}, s.handleEdit)
}

func (s *Server) handleSearch(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input SearchInput,
) (*mcp.CallToolResult, SearchOutput, error) {
	result, err := s.deps.Models.SearchEvents(ctx, input.Query)
	if err != nil {
		return nil, SearchOutput{}, fmt.Errorf("search events: %w", err)
	}

	return nil, SearchOutput{Text: result.Text, Sources: result.SourceLinks}, nil
}

func (s *Server) handleDraft(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input DraftInput,
) (*mcp.CallToolResult, DraftOutput, error) {
	if strings.TrimSpace(input.EventText) == "" {
		return nil, DraftOutput{}, fmt.Errorf("event_text is required")
	}

	draft, err := s.deps.Models.DraftPost(ctx, input.EventText)
	if err != nil {
		return nil, DraftOutput{}, fmt.Errorf("draft post: %w", err)
	}

	return nil, DraftOutput{
		Caption:     draft.Caption,
		Hashtags:    draft.Hashtags,
		ImagePrompt: draft.ImagePrompt,
	}, nil
}

func (s *Server) imageConfig(aspect, resolution string) (content.ImageConfig, error) {
	cfg := s.deps.ImageConfig
	if aspect != "" {
		ar, err := content.ParseAspectRatio(aspect)
		if err != nil {
			return cfg, err
		}
		cfg.AspectRatio = ar
	}
	if resolution != "" {
		res, err := content.ParseResolution(resolution)
		if err != nil {
			return cfg, err
		}
		cfg.Resolution = res
	}
	return cfg, nil
}

func (s *Server) handleGenerate(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input GenerateInput,
) (*mcp.CallToolResult, ImageOutput, error) {
	if strings.TrimSpace(input.Prompt) == "" {
		return nil, ImageOutput{}, fmt.Errorf("prompt is required")
	}
	cfg, err := s.imageConfig(input.AspectRatio, input.Resolution)
	if err != nil {
		return nil, ImageOutput{}, err
	}

	img, err := s.deps.Models.GenerateImage(ctx, strings.TrimSpace(input.Prompt), cfg)
	if err != nil {
		return nil, ImageOutput{}, fmt.Errorf("generate image: %w", err)
	}

	return s.imageResult(ctx, "generated", img, input.Save)
}

func (s *Server) handleEdit(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input EditInput,
) (*mcp.CallToolResult, ImageOutput, error) {
	if strings.TrimSpace(input.Instruction) == "" {
		return nil, ImageOutput{}, fmt.Errorf("instruction is required")
	}

	source, err := s.deps.Loader.Load(ctx, input.Image)
	if err != nil {
		return nil, ImageOutput{}, fmt.Errorf("load source image: %w", err)
	}

	img, err := s.deps.Models.EditImage(ctx, source, input.Instruction)
	if err != nil {
		return nil, ImageOutput{}, fmt.Errorf("edit image: %w", err)
	}

	return s.imageResult(ctx, "edited", img, input.Save)
}

func (s *Server) imageResult(ctx context.Context, kind string, img *content.Image, save bool) (*mcp.CallToolResult, ImageOutput, error) {
	out := ImageOutput{MIMEType: img.ContentType(), Bytes: len(img.Data)}

	if save {
		if s.deps.Images == nil {
			return nil, ImageOutput{}, fmt.Errorf("no image storage configured")
		}
		location, err := s.deps.Images.Save(ctx, storage.NewImageName(kind, img, time.Now()), img)
		if err != nil {
			return nil, ImageOutput{}, fmt.Errorf("save image: %w", err)
		}
		slog.Info("Image saved", "location", location)
		out.SavedTo = location
	}

	result := &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.ImageContent{Data: img.Data, MIMEType: out.MIMEType},
		},
	}
	return result, out, nil
}
