package store

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"strconv"
	"strings"

	"github.com/codxp/server/internal/user"
)

// legacySlotCount is the number of lines in the flat token file:
// regular[4], weapon[4], battlepass[4], in category order.
const legacySlotCount = user.BucketCount * 3

// readLegacyTokens reads the flat token file from the first candidate
// location that exists and reshapes it into a token set. Missing lines
// pad with 0; invalid or negative lines count as 0. When no candidate
// exists the result is a zeroed set.
func (s *Store) readLegacyTokens() (user.TokenSet, error) {
	for _, candidate := range s.legacyFiles {
		contents, err := os.ReadFile(candidate)
		if errors.Is(err, fs.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("reading legacy token file %q: %w", candidate, err)
		}
		return parseLegacyTokens(string(contents)), nil
	}
	return user.ZeroTokens(), nil
}

// writeLegacyTokens mirrors the 12 flat counts back to the legacy file.
// Unwritable candidates are skipped; running out of candidates is not an
// error, matching the best-effort persistence policy.
func (s *Store) writeLegacyTokens(tokens user.TokenSet) error {
	lines := make([]string, 0, legacySlotCount)
	normalized := user.NormalizeTokens(tokens)
	for _, cat := range user.Categories {
		for _, count := range normalized[cat] {
			lines = append(lines, strconv.Itoa(count))
		}
	}
	payload := []byte(strings.Join(lines, "\n") + "\n")

	for _, candidate := range s.legacyFiles {
		err := os.WriteFile(candidate, payload, 0o644)
		if err == nil {
			return nil
		}
		if errors.Is(err, fs.ErrNotExist) || isMemoryOnlyErr(err) {
			continue
		}
		return fmt.Errorf("writing legacy token file %q: %w", candidate, err)
	}

	s.log.Warn().Msg("no writable legacy token file location, skipped mirror")
	return nil
}

// parseLegacyTokens turns the plain-text file body (one integer per
// line) into a full token set.
func parseLegacyTokens(contents string) user.TokenSet {
	values := make([]int, 0, legacySlotCount)
	for _, line := range strings.Split(contents, "\n") {
		line = strings.TrimSpace(strings.TrimSuffix(line, "\r"))
		if line == "" {
			continue
		}
		n, err := strconv.Atoi(line)
		if err != nil || n < 0 {
			n = 0
		}
		values = append(values, n)
	}
	for len(values) < legacySlotCount {
		values = append(values, 0)
	}

	set := make(user.TokenSet, len(user.Categories))
	for i, cat := range user.Categories {
		buckets := make([]int, user.BucketCount)
		copy(buckets, values[i*user.BucketCount:(i+1)*user.BucketCount])
		set[cat] = buckets
	}
	return set
}
