package page

import (
	"testing"
	"time"

	"github.com/go-playground/assert/v2"
	gojwt "github.com/golang-jwt/jwt/v5"
)

func TestClientAuthClaims(t *testing.T) {
	expiresAt := time.Unix(2000000000, 0)
	token := gojwt.NewWithClaims(gojwt.SigningMethodHS256, gojwt.MapClaims{
		"sub":       "ada",
		"client_id": "c1",
		"exp":       expiresAt.Unix(),
	})
	byJwt, err := token.SignedString([]byte("secret"))
	assert.Equal(t, err, nil)

	auth := NewClientAuth(byJwt)
	assert.Equal(t, auth.ByJwt(), byJwt)

	claims, err := auth.Claims()
	assert.Equal(t, err, nil)
	assert.Equal(t, claims.Subject, "ada")
	assert.Equal(t, claims.ClientId, "c1")
	assert.Equal(t, claims.ExpiresAt.Equal(expiresAt), true)
	assert.Equal(t, claims.String(), "ada/c1")
}

func TestClientAuthEmpty(t *testing.T) {
	auth := NewClientAuth("")
	assert.Equal(t, auth == nil, true)
	assert.Equal(t, auth.ByJwt(), "")

	claims, err := auth.Claims()
	assert.Equal(t, err, nil)
	assert.Equal(t, claims.String(), "")

	_, err = ParseJwtUnverified("not.a.jwt")
	assert.NotEqual(t, err, nil)
}
