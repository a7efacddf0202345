package page

import (
	"fmt"
	"time"

	gojwt "github.com/golang-jwt/jwt/v5"
)


// Optional bearer auth attached to the websocket handshake and http requests.
// The client never verifies the token, it only reads claims for log tags.
type ClientAuth struct {
	byJwt string
}

func NewClientAuth(byJwt string) *ClientAuth {
	if byJwt == "" {
		return nil
	}
	return &ClientAuth{
		byJwt: byJwt,
	}
}

func (self *ClientAuth) ByJwt() string {
	if self == nil {
		return ""
	}
	return self.byJwt
}

func (self *ClientAuth) Claims() (*AuthClaims, error) {
	if self == nil {
		return &AuthClaims{}, nil
	}
	return ParseJwtUnverified(self.byJwt)
}


type AuthClaims struct {
	Subject   string
	ClientId  string
	ExpiresAt time.Time
}

func (self *AuthClaims) String() string {
	if self.ClientId != "" {
		return fmt.Sprintf("%s/%s", self.Subject, self.ClientId)
	}
	return self.Subject
}

func ParseJwtUnverified(jwt string) (*AuthClaims, error) {
	parser := gojwt.NewParser()
	token, _, err := parser.ParseUnverified(jwt, gojwt.MapClaims{})
	if err != nil {
		return nil, err
	}

	claims := token.Claims.(gojwt.MapClaims)

	authClaims := &AuthClaims{}
	if subject, err := claims.GetSubject(); err == nil {
		authClaims.Subject = subject
	}
	if clientId, ok := claims["client_id"].(string); ok {
		authClaims.ClientId = clientId
	}
	if expiresAt, err := claims.GetExpirationTime(); err == nil && expiresAt != nil {
		authClaims.ExpiresAt = expiresAt.Time
	}
	return authClaims, nil
}
