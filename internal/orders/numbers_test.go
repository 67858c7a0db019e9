package orders

import (
	"regexp"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGenerateOrderNumberFormat(t *testing.T) {
	now := time.Date(2026, 8, 10, 14, 30, 0, 0, time.UTC)

	number, err := generateOrderNumber("RUN", now)
	require.NoError(t, err)

	pattern := regexp.MustCompile(`^RUN-20260810-[A-Z]{6}$`)
	assert.Regexp(t, pattern, number)
}

func TestGenerateOrderNumberRandomSuffix(t *testing.T) {
	now := time.Now()

	seen := make(map[string]bool)
	for i := 0; i < 50; i++ {
		number, err := generateOrderNumber("RUN", now)
		require.NoError(t, err)
		seen[number] = true
	}

	// 50 draws from 26^6 possibilities should essentially never collide.
	assert.Greater(t, len(seen), 45)
}

func TestFormatBibNumber(t *testing.T) {
	assert.Equal(t, "00001", FormatBibNumber(1))
	assert.Equal(t, "00042", FormatBibNumber(42))
	assert.Equal(t, "01234", FormatBibNumber(1234))
	assert.Equal(t, "99999", FormatBibNumber(99999))
	// Width is a floor, not a cap; numbers keep growing past five digits.
	assert.Equal(t, "100000", FormatBibNumber(100000))
}
