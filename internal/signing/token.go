package signing

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// uploadClaims binds a credential to one object: the key it may write
// plus the declared payload shape.
type uploadClaims struct {
	jwt.RegisteredClaims
	Key         string `json:"key"`
	ContentType string `json:"contentType,omitempty"`
	SizeBytes   int64  `json:"sizeBytes,omitempty"`
}

// issueCredential mints an HS256 token authorizing one upload of the
// given key for ttl.
func issueCredential(secret []byte, key, contentType string, sizeBytes int64, ttl time.Duration) (string, error) {
	now := time.Now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, uploadClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		Key:         key,
		ContentType: contentType,
		SizeBytes:   sizeBytes,
	})
	return token.SignedString(secret)
}

// VerifyCredential validates a credential and returns the object key it
// authorizes. Used by storage-side checks and tests.
func VerifyCredential(secret []byte, tokenString string) (string, error) {
	claims := &uploadClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		return secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return "", err
	}
	if !token.Valid || claims.Key == "" {
		return "", errors.New("credential does not authorize an upload")
	}
	return claims.Key, nil
}
