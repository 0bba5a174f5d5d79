package verify

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/golang-jwt/jwt/v5"

	apperrors "github.com/jaedolph/verified-first/internal/platform/errors"
)

// Identity is the caller context extracted from a validated extension JWT.
type Identity struct {
	ChannelID int
	Role      string
}

// TokenValidator validates and decodes the signed JWTs that the Twitch
// extension frontend attaches to its requests.
type TokenValidator struct {
	secret []byte
}

// NewTokenValidator creates a validator using the decoded extension secret.
func NewTokenValidator(secret []byte) *TokenValidator {
	return &TokenValidator{secret: secret}
}

// Validate checks an Authorization header value of the form "Bearer <token>"
// and returns the channel id and role claims. Every failure is an
// authentication error whose message names the underlying cause.
func (v *TokenValidator) Validate(authorizationHeader string) (Identity, error) {
	token, err := bearerToken(authorizationHeader)
	if err != nil {
		return Identity{}, err
	}

	claims := jwt.MapClaims{}
	_, err = jwt.ParseWithClaims(token, claims, v.keyFunc, jwt.WithValidMethods([]string{"HS256"}))
	if err != nil {
		return Identity{}, apperrors.AuthenticationError(fmt.Sprintf("could not validate jwt, %v", err))
	}

	channelID, err := channelIDClaim(claims)
	if err != nil {
		return Identity{}, err
	}

	role, ok := claims["role"].(string)
	if !ok {
		return Identity{}, apperrors.AuthenticationError("could not validate jwt, missing role claim")
	}

	return Identity{ChannelID: channelID, Role: role}, nil
}

func (v *TokenValidator) keyFunc(*jwt.Token) (any, error) {
	return v.secret, nil
}

func bearerToken(header string) (string, error) {
	parts := strings.SplitN(header, " ", 2)
	if header == "" || len(parts) != 2 || parts[0] != "Bearer" {
		return "", apperrors.AuthenticationError("could not get auth token from headers")
	}
	return strings.TrimSpace(parts[1]), nil
}

// channelIDClaim coerces the channel_id claim to an integer. Twitch sends it
// as a string, but a numeric claim is accepted too.
func channelIDClaim(claims jwt.MapClaims) (int, error) {
	switch raw := claims["channel_id"].(type) {
	case string:
		id, err := strconv.Atoi(raw)
		if err != nil {
			return 0, apperrors.AuthenticationError(fmt.Sprintf("could not validate jwt, invalid channel_id %q", raw))
		}
		return id, nil
	case float64:
		return int(raw), nil
	default:
		return 0, apperrors.AuthenticationError("could not validate jwt, missing channel_id claim")
	}
}
