// Package native resolves youtube links in-process with github.com/kkdai/youtube, without needing yt-dlp installed.
// It follows the same format preferences as the yt-dlp resolver, but ignores extra arguments.
package native

import (
	"context"
	"strings"

	"github.com/kkdai/youtube/v2"
	"go.uber.org/zap"

	"github.com/alanbriolat/stream-resolver"
	"github.com/alanbriolat/stream-resolver/generic"
	provider "github.com/alanbriolat/stream-resolver/provider/youtube"
)

// videoCodecs are the accepted codec prefixes for video-only formats.
var videoCodecs = []string{"avc1", "vp9", "vp09"}

// Client is the subset of youtube.Client used by Resolver.
type Client interface {
	GetVideoContext(ctx context.Context, id string) (*youtube.Video, error)
	GetStreamURLContext(ctx context.Context, video *youtube.Video, format *youtube.Format) (string, error)
}

type Resolver struct {
	client Client
}

func New(client Client) *Resolver {
	if client == nil {
		client = &youtube.Client{}
	}
	return &Resolver{client: client}
}

func (r *Resolver) Resolve(ctx context.Context, link string, hint stream_resolver.Resolution, extraArgs string) (stream_resolver.StreamPair, error) {
	if link == "" {
		return stream_resolver.StreamPair{}, nil
	}
	logger := stream_resolver.Logger(ctx).With(zap.String("link", link))
	if extraArgs != "" {
		logger.Debug("Ignoring extra arguments", zap.String("extraArgs", extraArgs))
	}

	videoID, err := provider.ExtractVideoID(link)
	if err != nil {
		return stream_resolver.StreamPair{}, stream_resolver.NewExtractionError(stream_resolver.ErrToolFailed, err.Error())
	}
	logger.Debug("Fetching video info", zap.String("videoID", videoID), zap.Int("ceiling", hint.Ceiling()))
	video, err := r.client.GetVideoContext(ctx, videoID)
	if err != nil {
		return stream_resolver.StreamPair{}, r.mapError(ctx, err)
	}

	videoFormat, audioFormat := SelectFormats(video.Formats, hint.Ceiling())
	if videoFormat == nil {
		return stream_resolver.StreamPair{}, stream_resolver.NewExtractionError(stream_resolver.ErrNoStreams, "")
	}
	videoURL, err := r.client.GetStreamURLContext(ctx, video, videoFormat)
	if err != nil {
		return stream_resolver.StreamPair{}, r.mapError(ctx, err)
	}
	if audioFormat == nil {
		return stream_resolver.StreamPair{Video: videoURL, Audio: videoURL}, nil
	}
	audioURL, err := r.client.GetStreamURLContext(ctx, video, audioFormat)
	if err != nil {
		return stream_resolver.StreamPair{}, r.mapError(ctx, err)
	}
	return stream_resolver.StreamPair{Video: videoURL, Audio: audioURL}, nil
}

func (r *Resolver) mapError(ctx context.Context, err error) error {
	if ctx.Err() != nil {
		return ctx.Err()
	}
	return stream_resolver.NewExtractionError(stream_resolver.ErrToolFailed, err.Error())
}

// SelectFormats picks the best video-only format with an accepted codec and its best m4a audio companion. If there
// isn't such a pair, it picks the best combined format and audio is nil. Formats are sized by their smaller dimension,
// and when nothing fits under ceiling the smallest format above it is used.
func SelectFormats(formats youtube.FormatList, ceiling int) (video *youtube.Format, audio *youtube.Format) {
	var videoOnly, audioOnly, combined []*youtube.Format
	for i := range formats {
		f := &formats[i]
		switch {
		case isVideo(f) && f.AudioChannels == 0 && hasCodec(f, videoCodecs):
			videoOnly = append(videoOnly, f)
		case strings.HasPrefix(f.MimeType, "audio/mp4"):
			audioOnly = append(audioOnly, f)
		case isVideo(f) && f.AudioChannels > 0:
			combined = append(combined, f)
		}
	}

	audio = best(audioOnly, func(f *youtube.Format) bool { return true })
	if video = bestUnder(videoOnly, ceiling); video != nil && audio != nil {
		return video, audio
	}
	return bestUnder(combined, ceiling), nil
}

func isVideo(f *youtube.Format) bool {
	return strings.HasPrefix(f.MimeType, "video/")
}

func hasCodec(f *youtube.Format, codecs []string) bool {
	_, params, _ := strings.Cut(f.MimeType, "codecs=")
	params = strings.Trim(params, `"`)
	for _, codec := range codecs {
		if strings.HasPrefix(params, codec) {
			return true
		}
	}
	return false
}

// size is the dimension yt-dlp sorts "res" by: the smaller of width and height, or just height if width is unknown.
func size(f *youtube.Format) int {
	if f.Width == 0 {
		return f.Height
	}
	return min(f.Width, f.Height)
}

// bestUnder returns the best format whose size fits under ceiling, or failing that the smallest one above it.
func bestUnder(formats []*youtube.Format, ceiling int) *youtube.Format {
	if f := best(formats, func(f *youtube.Format) bool { return size(f) <= ceiling }); f != nil {
		return f
	}
	var result *youtube.Format
	for _, f := range formats {
		if result == nil || size(f) < size(result) || (size(f) == size(result) && f.Bitrate > result.Bitrate) {
			result = f
		}
	}
	return result
}

// best returns the largest, then highest bitrate, format that passes filter.
func best(formats []*youtube.Format, filter func(*youtube.Format) bool) *youtube.Format {
	var result *youtube.Format
	for _, f := range formats {
		if !filter(f) {
			continue
		}
		if result == nil || size(f) > size(result) || (size(f) == size(result) && f.Bitrate > result.Bitrate) {
			result = f
		}
	}
	return result
}

func init() {
	generic.Unwrap_(stream_resolver.DefaultProviderRegistry.CreatePriority(
		"youtube-native", provider.Matcher(New(nil)), stream_resolver.PriorityLowest,
	))
}
