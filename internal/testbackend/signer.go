package testbackend

import (
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// accessSigner mints and checks the backend's HS256 access tokens.
type accessSigner struct {
	secret []byte
	ttl    time.Duration
}

func newAccessSigner(secret string, ttl time.Duration) *accessSigner {
	return &accessSigner{
		secret: []byte(secret),
		ttl:    ttl,
	}
}

// Sign issues an access token for userID with a fresh jti.
func (s *accessSigner) Sign(userID string) (string, error) {
	now := time.Now()
	token := jwtlib.NewWithClaims(jwtlib.SigningMethodHS256, jwtlib.MapClaims{
		"sub": userID,
		"jti": uuid.NewString(),
		"iat": now.Unix(),
		"exp": now.Add(s.ttl).Unix(),
	})
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", errors.Wrap(err, "failed to sign token with HMAC")
	}
	return signed, nil
}

// Subject verifies the signature of raw and returns its sub claim. Expiry is
// left to the backend's live token set.
func (s *accessSigner) Subject(raw string) (string, error) {
	token, err := jwtlib.Parse(raw, s.verificationKey,
		jwtlib.WithValidMethods([]string{jwtlib.SigningMethodHS256.Alg()}),
		jwtlib.WithoutClaimsValidation(),
	)
	if err != nil {
		return "", errors.Wrap(err, "invalid access token")
	}
	return token.Claims.GetSubject()
}

func (s *accessSigner) verificationKey(token *jwtlib.Token) (any, error) {
	if _, ok := token.Method.(*jwtlib.SigningMethodHMAC); !ok {
		return nil, errors.Errorf("unexpected signing method: %v", token.Header["alg"])
	}
	return s.secret, nil
}
