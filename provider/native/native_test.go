package native

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/kkdai/youtube/v2"
	assert_ "github.com/stretchr/testify/assert"
	require_ "github.com/stretchr/testify/require"

	"github.com/alanbriolat/stream-resolver"
)

var testFormats = youtube.FormatList{
	{ItagNo: 18, MimeType: `video/mp4; codecs="avc1.42001E, mp4a.40.2"`, Width: 640, Height: 360, Bitrate: 500, AudioChannels: 2},
	{ItagNo: 22, MimeType: `video/mp4; codecs="avc1.64001F, mp4a.40.2"`, Width: 1280, Height: 720, Bitrate: 1500, AudioChannels: 2},
	{ItagNo: 137, MimeType: `video/mp4; codecs="avc1.640028"`, Width: 1920, Height: 1080, Bitrate: 4000},
	{ItagNo: 248, MimeType: `video/webm; codecs="vp9"`, Width: 1920, Height: 1080, Bitrate: 3000},
	{ItagNo: 136, MimeType: `video/mp4; codecs="avc1.4d401f"`, Width: 1280, Height: 720, Bitrate: 2000},
	{ItagNo: 399, MimeType: `video/mp4; codecs="av01.0.08M.08"`, Width: 1920, Height: 1080, Bitrate: 5000},
	{ItagNo: 271, MimeType: `video/webm; codecs="vp9"`, Width: 2560, Height: 1440, Bitrate: 9000},
	{ItagNo: 140, MimeType: `audio/mp4; codecs="mp4a.40.2"`, Bitrate: 130},
	{ItagNo: 139, MimeType: `audio/mp4; codecs="mp4a.40.5"`, Bitrate: 50},
	{ItagNo: 251, MimeType: `audio/webm; codecs="opus"`, Bitrate: 160},
}

func TestSelectFormats(t *testing.T) {
	assert := assert_.New(t)

	video, audio := SelectFormats(testFormats, 1080)
	require_.NotNil(t, video)
	require_.NotNil(t, audio)
	assert.Equal(137, video.ItagNo)
	assert.Equal(140, audio.ItagNo)

	video, _ = SelectFormats(testFormats, 720)
	assert.Equal(136, video.ItagNo)

	video, _ = SelectFormats(testFormats, 2160)
	assert.Equal(271, video.ItagNo)

	// Nothing fits, so take the smallest above the ceiling
	video, _ = SelectFormats(testFormats, 144)
	assert.Equal(136, video.ItagNo)
}

func TestSelectFormats_Portrait(t *testing.T) {
	assert := assert_.New(t)

	formats := youtube.FormatList{
		{ItagNo: 617, MimeType: `video/webm; codecs="vp9"`, Width: 1080, Height: 1920, Bitrate: 3000},
		{ItagNo: 620, MimeType: `video/webm; codecs="vp9"`, Width: 1440, Height: 2560, Bitrate: 6000},
		{ItagNo: 612, MimeType: `video/mp4; codecs="avc1.64001F"`, Width: 720, Height: 1280, Bitrate: 1500},
		{ItagNo: 140, MimeType: `audio/mp4; codecs="mp4a.40.2"`, Bitrate: 130},
	}
	// Sized by the smaller dimension, so 1080x1920 fits a 1080 ceiling
	video, audio := SelectFormats(formats, 1080)
	require_.NotNil(t, video)
	require_.NotNil(t, audio)
	assert.Equal(617, video.ItagNo)

	video, _ = SelectFormats(formats, 720)
	assert.Equal(612, video.ItagNo)

	video, _ = SelectFormats(formats, 360)
	assert.Equal(612, video.ItagNo)
}

func TestSelectFormats_Combined(t *testing.T) {
	assert := assert_.New(t)

	// No m4a audio, so fall back to a combined format
	var noAudio youtube.FormatList
	for _, f := range testFormats {
		if f.ItagNo != 140 && f.ItagNo != 139 {
			noAudio = append(noAudio, f)
		}
	}
	video, audio := SelectFormats(noAudio, 1080)
	require_.NotNil(t, video)
	assert.Equal(22, video.ItagNo)
	assert.Nil(audio)

	video, audio = SelectFormats(noAudio, 144)
	require_.NotNil(t, video)
	assert.Equal(18, video.ItagNo)
	assert.Nil(audio)

	video, audio = SelectFormats(nil, 1080)
	assert.Nil(video)
	assert.Nil(audio)
}

type fakeClient struct {
	video    *youtube.Video
	videoErr error
	urlErr   error
	gotID    string
}

func (c *fakeClient) GetVideoContext(ctx context.Context, id string) (*youtube.Video, error) {
	c.gotID = id
	return c.video, c.videoErr
}

func (c *fakeClient) GetStreamURLContext(ctx context.Context, video *youtube.Video, format *youtube.Format) (string, error) {
	if c.urlErr != nil {
		return "", c.urlErr
	}
	return fmt.Sprintf("https://stream.example/%d", format.ItagNo), nil
}

func TestResolver_Resolve(t *testing.T) {
	assert := assert_.New(t)
	hint := stream_resolver.Resolution{Width: 1920, Height: 1080}

	client := &fakeClient{video: &youtube.Video{ID: "dQw4w9WgXcQ", Formats: testFormats}}
	r := New(client)

	pair, err := r.Resolve(context.Background(), "", hint, "")
	assert.NoError(err)
	assert.True(pair.IsZero())

	pair, err = r.Resolve(context.Background(), "https://youtu.be/dQw4w9WgXcQ", hint, "-f worst")
	require_.NoError(t, err)
	assert.Equal("dQw4w9WgXcQ", client.gotID)
	assert.Equal(stream_resolver.StreamPair{Video: "https://stream.example/137", Audio: "https://stream.example/140"}, pair)

	client.video = &youtube.Video{ID: "dQw4w9WgXcQ", Formats: youtube.FormatList{testFormats[0]}}
	pair, err = r.Resolve(context.Background(), "https://youtu.be/dQw4w9WgXcQ", hint, "")
	require_.NoError(t, err)
	assert.True(pair.IsCombined())
	assert.Equal("https://stream.example/18", pair.Video)
}

func TestResolver_Resolve_Errors(t *testing.T) {
	assert := assert_.New(t)
	hint := stream_resolver.Resolution{Width: 1920, Height: 1080}

	_, err := New(&fakeClient{}).Resolve(context.Background(), "https://vimeo.com/1", hint, "")
	assert.ErrorIs(err, stream_resolver.ErrExtractionFailed)

	_, err = New(&fakeClient{videoErr: errors.New("video is private")}).Resolve(context.Background(), "https://youtu.be/x", hint, "")
	assert.ErrorIs(err, stream_resolver.ErrToolFailed)
	assert.EqualError(err, "video is private")

	_, err = New(&fakeClient{video: &youtube.Video{}}).Resolve(context.Background(), "https://youtu.be/x", hint, "")
	assert.ErrorIs(err, stream_resolver.ErrNoStreams)

	client := &fakeClient{video: &youtube.Video{Formats: testFormats}, urlErr: errors.New("cipher failed")}
	_, err = New(client).Resolve(context.Background(), "https://youtu.be/x", hint, "")
	assert.EqualError(err, "cipher failed")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = New(&fakeClient{videoErr: errors.New("request aborted")}).Resolve(ctx, "https://youtu.be/x", hint, "")
	assert.ErrorIs(err, context.Canceled)
}

func TestRegistration(t *testing.T) {
	assert := assert_.New(t)

	names := stream_resolver.DefaultProviderRegistry.List()
	assert.Equal("youtube-native", names[len(names)-1])
	m, err := stream_resolver.DefaultProviderRegistry.MatchWith("youtube-native", "https://youtu.be/dQw4w9WgXcQ")
	require_.NoError(t, err)
	assert.Equal("https://youtu.be/dQw4w9WgXcQ", m.Source.URL())
}
