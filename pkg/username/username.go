// Package username derives default login names from student full names the
// way the admin dashboard always has: a diacritic-stripped six-character base
// plus a random three-digit suffix.
package username

import (
	"fmt"
	"math/rand/v2"
	"strconv"
	"strings"
	"time"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// MaxAttempts bounds the collision retry loop before falling back to a
// timestamp-derived name.
const MaxAttempts = 8

var stripMarks = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// Sanitize lower-cases a name, strips diacritics and drops everything that is
// not an ASCII letter or digit.
func Sanitize(name string) string {
	stripped, _, err := transform.String(stripMarks, name)
	if err != nil {
		stripped = name
	}

	stripped = strings.ToLower(stripped)

	var b strings.Builder
	for _, r := range stripped {
		if (r >= 'a' && r <= 'z') || (r >= '0' && r <= '9') {
			b.WriteRune(r)
		}
	}

	return b.String()
}

// Candidate builds a username candidate from a full name.
func Candidate(fullName string) string {
	base := Sanitize(fullName)
	if base == "" {
		base = "user"
	}
	if len(base) > 6 {
		base = base[:6]
	}

	return fmt.Sprintf("%s%d", base, 100+rand.IntN(900))
}

// Mutate appends random digits to the source name so the next candidate
// differs after a collision.
func Mutate(fullName string) string {
	return fmt.Sprintf("%s%d", fullName, rand.IntN(1000))
}

// TimestampFallback is the last resort once MaxAttempts collisions occurred.
func TimestampFallback(now time.Time) string {
	ms := strconv.FormatInt(now.UnixMilli(), 10)
	if len(ms) > 6 {
		ms = ms[len(ms)-6:]
	}

	return "user" + ms
}
