// Package render decides how a generation is displayed and writes it as an
// HTML page.
package render

import (
	"github.com/dgallion1/sift/internal/analysis"
	"github.com/dgallion1/sift/internal/pipeline"
)

// Mode is the display mode for a generation.
type Mode int

const (
	ModeEmpty Mode = iota
	ModeSkeleton
	ModeRaw
	ModeSections
)

func (m Mode) String() string {
	switch m {
	case ModeSkeleton:
		return "skeleton"
	case ModeRaw:
		return "raw"
	case ModeSections:
		return "sections"
	}
	return "empty"
}

// MarshalText lets the mode appear by name in JSON output.
func (m Mode) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

// Decide picks the display mode. While text is still arriving, or after a
// failure, the document is shown as plain markdown; sections appear only
// once a finished document yielded at least one.
func Decide(status pipeline.Status, content string, result *analysis.Result) Mode {
	switch status {
	case pipeline.StatusLoading:
		return ModeSkeleton
	case pipeline.StatusStreaming, pipeline.StatusError:
		return ModeRaw
	}
	if content == "" {
		return ModeEmpty
	}
	if result != nil && len(result.Cards) > 0 {
		return ModeSections
	}
	return ModeRaw
}
