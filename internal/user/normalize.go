package user

import (
	"encoding/json"
	"math"
	"strconv"
	"strings"
)

// NormalizeBucket coerces an arbitrary decoded JSON value into a
// non-negative token count. Non-numeric values become 0, numeric strings
// are parsed, negative and non-finite values become 0, fractional
// values are floored, and values beyond the int range saturate.
func NormalizeBucket(value any) int {
	num, ok := toFloat(value)
	if !ok || math.IsNaN(num) || math.IsInf(num, 0) || num < 0 {
		return 0
	}
	// Converting an out-of-range float wraps, so saturate first.
	if num >= float64(math.MaxInt) {
		return math.MaxInt
	}
	return int(math.Floor(num))
}

// NormalizeTokens produces a token set with exactly the three fixed
// categories, each holding exactly four normalized buckets. Missing
// buckets pad with 0, extra buckets are ignored, and unknown categories
// are dropped.
func NormalizeTokens(raw any) TokenSet {
	set := make(TokenSet, len(Categories))
	for _, cat := range Categories {
		set[cat] = normalizeBucketList(lookup(raw, cat))
	}
	return set
}

// NormalizeLevel clamps a level value into [1, MaxLevel], rounding to the
// nearest integer. Anything non-numeric defaults to 1.
func NormalizeLevel(raw any) int {
	num, ok := toFloat(raw)
	if !ok || math.IsNaN(num) || math.IsInf(num, 0) {
		return 1
	}
	// Clamp before converting so huge floats can't wrap.
	if num < 1 {
		return 1
	}
	if num > float64(MaxLevel) {
		return MaxLevel
	}
	return int(math.Round(num))
}

// Normalize builds a fully-shaped Record from arbitrary decoded JSON.
// It is total: nil, wrong-typed fields, and malformed structures all
// produce a valid record rather than an error.
func Normalize(raw any) Record {
	return Record{
		PasswordHash: stringOr(lookup(raw, "password_hash"), ""),
		Tokens:       NormalizeTokens(lookup(raw, "tokens")),
		CODUsername:  stringOr(lookup(raw, "cod_username"), ""),
		Prestige:     stringOr(lookup(raw, "prestige"), ""),
		Level:        NormalizeLevel(lookup(raw, "level")),
	}
}

// Normalized re-applies the shaping rules to an already-typed record.
// Save paths run this so a partially-built record is never persisted.
func (r Record) Normalized() Record {
	out := r
	out.Tokens = NormalizeTokens(r.Tokens)
	out.Level = NormalizeLevel(r.Level)
	return out
}

func normalizeBucketList(raw any) []int {
	buckets := make([]int, BucketCount)
	switch list := raw.(type) {
	case []any:
		for i := 0; i < BucketCount && i < len(list); i++ {
			buckets[i] = NormalizeBucket(list[i])
		}
	case []int:
		for i := 0; i < BucketCount && i < len(list); i++ {
			buckets[i] = NormalizeBucket(list[i])
		}
	}
	return buckets
}

// lookup reads a key from whatever mapping shape the caller handed in.
func lookup(raw any, key string) any {
	switch m := raw.(type) {
	case map[string]any:
		return m[key]
	case TokenSet:
		return m[key]
	case map[string][]int:
		return m[key]
	}
	return nil
}

func stringOr(value any, fallback string) string {
	if s, ok := value.(string); ok {
		return s
	}
	return fallback
}

func toFloat(value any) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case json.Number:
		f, err := v.Float64()
		return f, err == nil
	case string:
		// Numeric strings parse as integers, matching strconv's view of
		// what an integer looks like (no "12abc" prefixes).
		n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
		if err != nil {
			f, ferr := strconv.ParseFloat(strings.TrimSpace(v), 64)
			if ferr != nil {
				return 0, false
			}
			return f, true
		}
		return float64(n), true
	}
	return 0, false
}
