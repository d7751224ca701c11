package content

import (
	"fmt"
	"strings"
)

type SourceLink struct {
	Title string `json:"title"`
	URI   string `json:"uri"`
}

type SearchResult struct {
	Text        string       `json:"text"`
	SourceLinks []SourceLink `json:"sourceLinks"`
}

type SocialDraft struct {
	Caption     string   `json:"caption"`
	Hashtags    []string `json:"hashtags"`
	ImagePrompt string   `json:"imagePrompt"`
}

type AspectRatio string

const (
	AspectSquare    AspectRatio = "1:1"
	AspectLandscape AspectRatio = "16:9"
	AspectPortrait  AspectRatio = "9:16"
	AspectStandard  AspectRatio = "4:3"
	AspectTall      AspectRatio = "3:4"
)

var aspectRatios = []AspectRatio{AspectSquare, AspectLandscape, AspectPortrait, AspectStandard, AspectTall}

func AspectRatios() []AspectRatio {
	return append([]AspectRatio(nil), aspectRatios...)
}

func ParseAspectRatio(s string) (AspectRatio, error) {
	s = strings.TrimSpace(s)
	for _, ar := range aspectRatios {
		if string(ar) == s {
			return ar, nil
		}
	}
	return "", fmt.Errorf("unsupported aspect ratio %q", s)
}

// Label is the human-readable name shown in pickers.
func (a AspectRatio) Label() string {
	switch a {
	case AspectSquare:
		return "Square (1:1)"
	case AspectLandscape:
		return "Landscape (16:9)"
	case AspectPortrait:
		return "Portrait (9:16)"
	case AspectStandard:
		return "Standard (4:3)"
	case AspectTall:
		return "Tall (3:4)"
	}
	return string(a)
}

type Resolution string

const (
	ResolutionStandard Resolution = "standard"
	ResolutionHigh     Resolution = "high"
)

func ParseResolution(s string) (Resolution, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "standard", "1k":
		return ResolutionStandard, nil
	case "high", "2k":
		return ResolutionHigh, nil
	}
	return "", fmt.Errorf("unsupported resolution %q", s)
}

// ImageSize is the value the image model expects for this resolution.
func (r Resolution) ImageSize() string {
	if r == ResolutionHigh {
		return "2K"
	}
	return "1K"
}

func (r Resolution) Label() string {
	if r == ResolutionHigh {
		return "High (2K)"
	}
	return "Standard (1K)"
}

type ImageConfig struct {
	AspectRatio AspectRatio `json:"aspectRatio"`
	Resolution  Resolution  `json:"resolution"`
}

func DefaultImageConfig() ImageConfig {
	return ImageConfig{AspectRatio: AspectSquare, Resolution: ResolutionStandard}
}

func (c ImageConfig) Validate() error {
	if _, err := ParseAspectRatio(string(c.AspectRatio)); err != nil {
		return err
	}
	if _, err := ParseResolution(string(c.Resolution)); err != nil {
		return err
	}
	return nil
}

type View string

const (
	ViewDiscover View = "DISCOVER"
	ViewStudio   View = "STUDIO"
)

type StudioMode string

const (
	ModeGenerate StudioMode = "GENERATE"
	ModeEdit     StudioMode = "EDIT"
)

func ParseView(s string) (View, error) {
	switch View(strings.ToUpper(strings.TrimSpace(s))) {
	case ViewDiscover:
		return ViewDiscover, nil
	case ViewStudio:
		return ViewStudio, nil
	}
	return "", fmt.Errorf("unknown view %q", s)
}

func ParseStudioMode(s string) (StudioMode, error) {
	switch StudioMode(strings.ToUpper(strings.TrimSpace(s))) {
	case ModeGenerate:
		return ModeGenerate, nil
	case ModeEdit:
		return ModeEdit, nil
	}
	return "", fmt.Errorf("unknown studio mode %q", s)
}
