package testutil

import (
	"time"
)

// RandomString generates a random string of specified length
func RandomString(length int) string {
	const charset = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"
	b := make([]byte, length)
	seed := time.Now().UnixNano()
	for i := range b {
		seed = seed*1103515245 + 12345 // Simple LCG
		idx := int(seed % int64(len(charset)))
		if idx < 0 {
			idx = -idx
		}
		b[i] = charset[idx]
	}
	return string(b)
}

// RandomUsername generates a random username
func RandomUsername() string {
	return "testuser_" + RandomString(8)
}

// TestUserData represents test account data
type TestUserData struct {
	Username string
	Password string
}

// NewTestUser creates test account data
func NewTestUser() TestUserData {
	return TestUserData{
		Username: RandomUsername(),
		Password: "testpassword123",
	}
}

// FullTokenSet builds the wire shape of a token update where every
// bucket of every category holds the same count.
func FullTokenSet(count int) map[string][]int {
	return map[string][]int{
		"regular":    {count, count, count, count},
		"weapon":     {count, count, count, count},
		"battlepass": {count, count, count, count},
	}
}
