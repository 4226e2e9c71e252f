package domain

import "time"

// Overlay types understood by the clients.
const (
	TypeImage   = "image"
	TypeYouTube = "youtube"
	TypeText    = "text"
)

// Placement directives, interpreted client-side only.
const (
	PositionInline     = "inline"
	PositionFullscreen = "fullscreen"
)

// Image scaling directives, interpreted client-side only.
const (
	FitContain = "contain"
	FitCover   = "cover"
)

// SourceURL is the only value the vestigial source field may hold.
const SourceURL = "url"

const (
	defaultBgColor   = "#2563eb"
	defaultTextColor = "#ffffff"
)

// OverlayState is the single shared broadcast-state record. Exactly one
// exists at any time; every subscriber always receives the full record,
// never a delta.
type OverlayState struct {
	Visible   bool      `json:"visible"`
	Type      string    `json:"type"`
	URL       string    `json:"url"`
	Position  string    `json:"position"`
	Fit       string    `json:"fit"`
	Source    string    `json:"source"`
	Title     string    `json:"title"`
	Text      string    `json:"text"`
	BgColor   string    `json:"bgColor"`
	TextColor string    `json:"textColor"`
	UpdatedAt time.Time `json:"updated_at"`
}

// DefaultState returns the hidden initial overlay.
func DefaultState(now time.Time) OverlayState {
	return OverlayState{
		Visible:   false,
		Type:      TypeImage,
		URL:       "",
		Position:  PositionInline,
		Fit:       FitContain,
		Source:    SourceURL,
		Title:     "",
		Text:      "",
		BgColor:   defaultBgColor,
		TextColor: defaultTextColor,
		UpdatedAt: now,
	}
}

// ValidType reports whether t is one of the recognized overlay types.
func ValidType(t string) bool {
	return t == TypeImage || t == TypeYouTube || t == TypeText
}

func validPosition(p string) bool {
	return p == PositionInline || p == PositionFullscreen
}

func validFit(f string) bool {
	return f == FitContain || f == FitCover
}

// CoerceType maps unrecognized stored types to the default. Used when
// loading rows written by older or newer revisions of the service.
func CoerceType(t string) string {
	if ValidType(t) {
		return t
	}
	return TypeImage
}
