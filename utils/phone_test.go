package utils

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNormalizePhone(t *testing.T) {
	t.Run("StripsFormattingCharacters", func(t *testing.T) {
		phone, err := NormalizePhone("010-1234-5678")
		require.NoError(t, err)
		assert.Equal(t, "01012345678", phone)
	})

	t.Run("AcceptsTenDigits", func(t *testing.T) {
		phone, err := NormalizePhone("02 1234 5678")
		require.NoError(t, err)
		assert.Equal(t, "0212345678", phone)
	})

	t.Run("AcceptsElevenDigits", func(t *testing.T) {
		phone, err := NormalizePhone("(010) 1234.5678")
		require.NoError(t, err)
		assert.Equal(t, "01012345678", phone)
	})

	t.Run("RejectsTooShort", func(t *testing.T) {
		_, err := NormalizePhone("123-4567")
		assert.ErrorIs(t, err, ErrInvalidPhone)
	})

	t.Run("RejectsTooLong", func(t *testing.T) {
		_, err := NormalizePhone("010-1234-5678-90")
		assert.ErrorIs(t, err, ErrInvalidPhone)
	})

	t.Run("RejectsNoDigits", func(t *testing.T) {
		_, err := NormalizePhone("no digits here")
		assert.ErrorIs(t, err, ErrInvalidPhone)
	})

	t.Run("EquivalentFormatsNormalizeIdentically", func(t *testing.T) {
		a, err := NormalizePhone("010-1234-5678")
		require.NoError(t, err)
		b, err := NormalizePhone("01012345678")
		require.NoError(t, err)
		assert.Equal(t, a, b)
	})
}

func TestLocalDay(t *testing.T) {
	seoul, err := time.LoadLocation("Asia/Seoul")
	require.NoError(t, err)

	t.Run("UsesLocalCalendarDay", func(t *testing.T) {
		// 18:00 UTC is already the next day in Seoul (UTC+9).
		now := time.Date(2025, 3, 10, 18, 0, 0, 0, time.UTC)
		assert.Equal(t, "2025-03-11", LocalDay(now, seoul))
	})

	t.Run("SameInstantDifferentZones", func(t *testing.T) {
		now := time.Date(2025, 3, 10, 18, 0, 0, 0, time.UTC)
		assert.Equal(t, "2025-03-10", LocalDay(now, time.UTC))
		assert.NotEqual(t, LocalDay(now, time.UTC), LocalDay(now, seoul))
	})
}
