package username

import (
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestSanitizeStripsDiacriticsAndSymbols(t *testing.T) {
	require.Equal(t, "nguyenvana", Sanitize("Nguyễn Văn A"))
	require.Equal(t, "tranthib", Sanitize("Trần Thị B"))
	require.Equal(t, "abc123", Sanitize("a-b_c 1.2.3"))
	require.Equal(t, "", Sanitize("!!!"))
}

func TestCandidateShape(t *testing.T) {
	for i := 0; i < 50; i++ {
		candidate := Candidate("Nguyễn Văn A")
		require.Len(t, candidate, 9, "six-char base plus three digits")
		require.Equal(t, "nguyen", candidate[:6])

		suffix, err := strconv.Atoi(candidate[6:])
		require.NoError(t, err)
		require.GreaterOrEqual(t, suffix, 100)
		require.LessOrEqual(t, suffix, 999)
	}
}

func TestCandidateFallsBackToUserBase(t *testing.T) {
	candidate := Candidate("")
	require.Equal(t, "user", candidate[:4])
}

func TestMutateChangesSource(t *testing.T) {
	mutated := Mutate("Nguyen Van A")
	require.NotEqual(t, "Nguyen Van A", mutated)
	require.Contains(t, mutated, "Nguyen Van A")
}

func TestTimestampFallback(t *testing.T) {
	now := time.UnixMilli(1765407662000)
	fallback := TimestampFallback(now)
	require.Len(t, fallback, 10)
	require.Equal(t, "user", fallback[:4])

	ms := strconv.FormatInt(now.UnixMilli(), 10)
	require.Equal(t, ms[len(ms)-6:], fallback[4:])
}
