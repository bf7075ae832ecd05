package handler

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tolkdirekt/booking-be/internal/booking/service"
)

func TestJobCursorRoundTrip(t *testing.T) {
	in := &service.JobCursor{
		CreatedAt: time.Date(2026, 3, 10, 12, 30, 0, 0, time.UTC),
		JobID:     42,
	}

	out, err := DecodeJobCursor(EncodeJobCursor(in))
	require.NoError(t, err)
	require.NotNil(t, out)
	assert.True(t, in.CreatedAt.Equal(out.CreatedAt))
	assert.Equal(t, in.JobID, out.JobID)
}

func TestDecodeJobCursor(t *testing.T) {
	t.Run("empty cursor is nil", func(t *testing.T) {
		out, err := DecodeJobCursor("")
		require.NoError(t, err)
		assert.Nil(t, out)
	})

	t.Run("invalid base64", func(t *testing.T) {
		_, err := DecodeJobCursor("not-base64!!!")
		require.Error(t, err)
	})

	t.Run("wrong part count", func(t *testing.T) {
		_, err := DecodeJobCursor("MTIzNA==") // "1234", no separator
		require.Error(t, err)
	})
}
