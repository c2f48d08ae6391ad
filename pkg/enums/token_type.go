package enums

import "fmt"

// TokenType is carried in the JWT audience so a token minted for one purpose
// cannot be replayed for another.
type TokenType string

const (
	TokenTypeAccess  TokenType = "access"
	TokenTypeRefresh TokenType = "refresh"
	TokenTypeOneTime TokenType = "one_time"
)

var validTokenTypes = []TokenType{
	TokenTypeAccess,
	TokenTypeRefresh,
	TokenTypeOneTime,
}

func (t TokenType) String() string {
	return string(t)
}

func (t TokenType) IsValid() bool {
	for _, candidate := range validTokenTypes {
		if candidate == t {
			return true
		}
	}
	return false
}

func ParseTokenType(value string) (TokenType, error) {
	for _, candidate := range validTokenTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid token type %q", value)
}
