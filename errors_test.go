package stream_resolver

import (
	"errors"
	"fmt"
	"testing"

	assert_ "github.com/stretchr/testify/assert"
)

func TestExtractionError(t *testing.T) {
	assert := assert_.New(t)

	err := NewExtractionError(ErrToolFailed, "some failure")
	assert.EqualError(err, "some failure")
	assert.ErrorIs(err, ErrExtractionFailed)
	assert.ErrorIs(err, ErrToolFailed)
	assert.NotErrorIs(err, ErrProcessTimeout)

	timeout := NewExtractionError(ErrProcessTimeout, "")
	assert.EqualError(timeout, "process timeout")
	assert.ErrorIs(timeout, ErrProcessTimeout)

	// Still matches once wrapped
	wrapped := fmt.Errorf("resolve: %w", NewExtractionError(ErrToolNotInstalled, ""))
	assert.ErrorIs(wrapped, ErrExtractionFailed)
	assert.ErrorIs(wrapped, ErrToolNotInstalled)
	var extractionErr *ExtractionError
	assert.True(errors.As(wrapped, &extractionErr))
	assert.Equal("tool not installed", extractionErr.Message)
}

func TestResolution(t *testing.T) {
	assert := assert_.New(t)

	assert.Equal(1080, Resolution{Width: 1920, Height: 1080}.Ceiling())
	assert.Equal(720, Resolution{Width: 720, Height: 1280}.Ceiling())
	assert.Equal(-1, Resolution{Width: -1, Height: 480}.Ceiling())
	assert.Equal("1920x1080", Resolution{Width: 1920, Height: 1080}.String())
}

func TestStreamPair(t *testing.T) {
	assert := assert_.New(t)

	assert.True(StreamPair{}.IsZero())
	assert.False(StreamPair{}.IsCombined())
	assert.True(StreamPair{Video: "a", Audio: "a"}.IsCombined())
	assert.False(StreamPair{Video: "a", Audio: "b"}.IsCombined())
}
