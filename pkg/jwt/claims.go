package jwt

import (
	"encoding/json"
	"strconv"
)

// Claims is the verified claim set of a token. Numeric values arrive as
// json.Number so large integer ids survive decoding intact.
type Claims map[string]any

// HasClaim reports whether the token carries name.
func (c Claims) HasClaim(name string) bool {
	_, ok := c[name]
	return ok
}

// Claim returns the raw value of name, or nil.
func (c Claims) Claim(name string) any {
	return c[name]
}

// String returns a string claim.
func (c Claims) String(name string) (string, bool) {
	s, ok := c[name].(string)
	return s, ok
}

// Int64 returns an integer claim, accepting numbers and numeric strings.
func (c Claims) Int64(name string) (int64, bool) {
	switch v := c[name].(type) {
	case json.Number:
		n, err := v.Int64()
		return n, err == nil
	case float64:
		if v != float64(int64(v)) {
			return 0, false
		}
		return int64(v), true
	case int64:
		return v, true
	case int:
		return int64(v), true
	case string:
		n, err := strconv.ParseInt(v, 10, 64)
		return n, err == nil
	}
	return 0, false
}

// Subject returns the "sub" claim.
func (c Claims) Subject() string {
	s, _ := c.String("sub")
	return s
}

// SubjectID returns "sub" parsed as a numeric principal id.
func (c Claims) SubjectID() (int64, bool) {
	return c.Int64("sub")
}
