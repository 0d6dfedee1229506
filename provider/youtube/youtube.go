package youtube

import (
	"context"
	"errors"
	"regexp"

	"github.com/alanbriolat/stream-resolver"
	"github.com/alanbriolat/stream-resolver/ytdlp"
)

var ErrInvalidLink = errors.New("not a youtube link")

// linkPattern accepts, with optional scheme and www./m. subdomain:
//		youtube.com/watch?v={VIDEO_ID}
//		youtube.com/{embed,live,v}/{VIDEO_ID}
//		youtube-nocookie.com/embed/{VIDEO_ID}
//		youtu.be/{VIDEO_ID}
// followed by any suffix without whitespace. Word characters and whitespace are matched as Unicode classes.
var linkPattern = regexp.MustCompile(
	`^((?:https?:)?//)?((?:www|m)\.)?` +
		`(youtube(-nocookie)?\.com|youtu.be)` +
		`(/(?:[\p{L}\p{N}_\-]+\?v=|embed/|live/|v/)?)` +
		`(?P<id>[\p{L}\p{N}_\-]+)([^\s\v\x1c-\x1f\x{85}\p{Z}]+)?$`,
)

var videoIDGroup = linkPattern.SubexpIndex("id")

// IsValid reports whether the whole of link is a youtube video link.
func IsValid(link string) bool {
	return linkPattern.MatchString(link)
}

// ExtractVideoID returns the video ID part of a link accepted by IsValid.
func ExtractVideoID(link string) (string, error) {
	match := linkPattern.FindStringSubmatch(link)
	if match == nil {
		return "", ErrInvalidLink
	}
	return match[videoIDGroup], nil
}

type source struct {
	link     string
	resolver stream_resolver.Resolver
}

func (s *source) URL() string {
	return s.link
}

func (s *source) String() string {
	return s.URL()
}

func (s *source) Resolve(ctx context.Context, hint stream_resolver.Resolution, extraArgs string) (stream_resolver.StreamPair, error) {
	return s.resolver.Resolve(ctx, s.link, hint, extraArgs)
}

// Matcher returns a stream_resolver.MatchFunc giving sources that resolve through resolver.
func Matcher(resolver stream_resolver.Resolver) stream_resolver.MatchFunc {
	return func(s string) (stream_resolver.Source, error) {
		if !IsValid(s) {
			return nil, ErrInvalidLink
		}
		return &source{link: s, resolver: resolver}, nil
	}
}

// Match uses the default yt-dlp resolver.
func Match(s string) (stream_resolver.Source, error) {
	return defaultMatch(s)
}

var defaultMatch = Matcher(ytdlp.New())

func New(name string, resolver stream_resolver.Resolver) stream_resolver.Provider {
	return stream_resolver.Provider{Name: name, Match: Matcher(resolver)}
}

func init() {
	stream_resolver.DefaultProviderRegistry.MustAdd(stream_resolver.Provider{Name: "youtube", Match: Match})
}
