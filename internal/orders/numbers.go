package orders

import (
	"crypto/rand"
	"errors"
	"fmt"
	"math/big"
	"time"
)

// ErrNumberGenerationExhausted is returned when a free order or bib number
// could not be found within the retry bounds.
var ErrNumberGenerationExhausted = errors.New("number generation exhausted retries")

const (
	// orderNumberAttempts bounds collision retries. With 26^6 suffixes per
	// day a collision is astronomically rare, not a normal-path outcome.
	orderNumberAttempts = 5

	orderNumberSuffixLen = 6

	// bibNumberWidth is the fixed zero-padded width of participant numbers.
	bibNumberWidth = 5

	// bibRecheckAttempts bounds the defensive exists-recheck after the
	// max+1 read. The advisory lock is the primary concurrency control.
	bibRecheckAttempts = 100
)

// generateOrderNumber produces a candidate order number of the form
// PREFIX-YYYYMMDD-XXXXXX with a random uppercase suffix. Uniqueness is the
// caller's responsibility.
func generateOrderNumber(prefix string, now time.Time) (string, error) {
	const letters = "ABCDEFGHIJKLMNOPQRSTUVWXYZ"

	suffix := make([]byte, orderNumberSuffixLen)
	for i := range suffix {
		num, err := rand.Int(rand.Reader, big.NewInt(int64(len(letters))))
		if err != nil {
			return "", err
		}
		suffix[i] = letters[num.Int64()]
	}

	return fmt.Sprintf("%s-%s-%s", prefix, now.Format("20060102"), string(suffix)), nil
}

// FormatBibNumber renders a participant number as a zero-padded 5-digit string.
func FormatBibNumber(n int) string {
	return fmt.Sprintf("%0*d", bibNumberWidth, n)
}

// nextFreeBib walks candidates upward from maxBib+1 until taken reports a
// free value, bounded by bibRecheckAttempts. The recheck covers a max read
// that raced an insert committed before the allocation lock was taken.
func nextFreeBib(maxBib int, taken func(bib string) (bool, error)) (string, error) {
	candidate := maxBib + 1
	for attempt := 0; attempt < bibRecheckAttempts; attempt++ {
		inUse, err := taken(FormatBibNumber(candidate))
		if err != nil {
			return "", err
		}
		if !inUse {
			return FormatBibNumber(candidate), nil
		}
		candidate++
	}
	return "", ErrNumberGenerationExhausted
}
