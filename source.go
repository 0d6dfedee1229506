package stream_resolver

import (
	"context"
	"fmt"
)

// Resolution is the caller's target playback size. Only the smaller dimension is used, as a quality ceiling.
type Resolution struct {
	Width  int
	Height int
}

// Ceiling returns min(Width, Height). Values are not validated.
func (r Resolution) Ceiling() int {
	return min(r.Width, r.Height)
}

func (r Resolution) String() string {
	return fmt.Sprintf("%dx%d", r.Width, r.Height)
}

// StreamPair holds the direct stream URLs for one link. Audio equals Video when the source only has a combined
// stream. The zero value means there was nothing to resolve.
type StreamPair struct {
	Video string
	Audio string
}

func (p StreamPair) IsZero() bool {
	return p.Video == "" && p.Audio == ""
}

// IsCombined is true if the video and audio come from the same stream.
func (p StreamPair) IsCombined() bool {
	return !p.IsZero() && p.Video == p.Audio
}

// A Resolver turns a link into direct stream URLs. An empty link gives a zero StreamPair and no error.
type Resolver interface {
	Resolve(ctx context.Context, link string, hint Resolution, extraArgs string) (StreamPair, error)
}

type Source interface {
	// URL should return the link this Source was matched from.
	URL() string
	// Resolve should fetch direct stream URLs for the source, capped to the hinted resolution. extraArgs is passed
	// through to the underlying Resolver.
	Resolve(ctx context.Context, hint Resolution, extraArgs string) (StreamPair, error)
}
