// Package user defines the tracker's user record and the normalization
// rules that keep stored data well-formed regardless of what the client
// or an on-disk file actually contains.
package user

// Categories lists the three fixed 2XP token kinds, in storage order.
var Categories = []string{"regular", "weapon", "battlepass"}

// MinuteBuckets lists the four fixed token durations, in storage order.
// Position i of every category slice counts tokens of MinuteBuckets[i].
var MinuteBuckets = []int{15, 30, 45, 60}

// BucketCount is the number of duration buckets per category.
const BucketCount = 4

// MaxLevel is the upper bound for a player level.
const MaxLevel = 1000

// TokenSet maps a category to its four bucket counts.
type TokenSet map[string][]int

// Record is one user's stored state. Username is the primary key and is
// kept outside the record (it names the file / cache entry).
type Record struct {
	PasswordHash string   `json:"password_hash"`
	Tokens       TokenSet `json:"tokens"`
	CODUsername  string   `json:"cod_username"`
	Prestige     string   `json:"prestige"`
	Level        int      `json:"level"`
}

// ZeroTokens returns a token set with every bucket of every category at 0.
func ZeroTokens() TokenSet {
	set := make(TokenSet, len(Categories))
	for _, cat := range Categories {
		set[cat] = make([]int, BucketCount)
	}
	return set
}

// Clone returns a deep copy of the token set so callers cannot mutate
// cached state through a returned slice.
func (t TokenSet) Clone() TokenSet {
	if t == nil {
		return nil
	}
	out := make(TokenSet, len(t))
	for cat, buckets := range t {
		copied := make([]int, len(buckets))
		copy(copied, buckets)
		out[cat] = copied
	}
	return out
}

// Clone returns a deep copy of the record.
func (r Record) Clone() Record {
	out := r
	out.Tokens = r.Tokens.Clone()
	return out
}

// NewRecord returns a fully-shaped empty record: zeroed tokens, blank
// credentials and profile, level 1.
func NewRecord() Record {
	return Record{
		Tokens: ZeroTokens(),
		Level:  1,
	}
}
