package middleware

import (
	"errors"
	"fmt"

	"github.com/form3tech-oss/jwt-go"
)

var (
	ErrSessionDisabled = errors.New("session tokens are not enabled")
	ErrInvalidSession  = errors.New("invalid session token")
)

// SessionVerifier checks HS256 session tokens issued by the web app and
// returns the user id carried in the "sub" claim.
type SessionVerifier struct {
	secret []byte
}

// NewSessionVerifier returns nil when no secret is configured; a nil verifier
// rejects every token.
func NewSessionVerifier(secret string) *SessionVerifier {
	if secret == "" {
		return nil
	}
	return &SessionVerifier{secret: []byte(secret)}
}

func (v *SessionVerifier) Verify(tokenString string) (string, error) {
	if v == nil {
		return "", ErrSessionDisabled
	}

	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", token.Header["alg"])
		}
		return v.secret, nil
	})
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrInvalidSession, err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return "", ErrInvalidSession
	}
	sub, _ := claims["sub"].(string)
	if sub == "" {
		return "", fmt.Errorf("%w: missing sub claim", ErrInvalidSession)
	}
	return sub, nil
}

