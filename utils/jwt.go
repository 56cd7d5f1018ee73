package utils

import (
	"errors"
	"strings"

	"campusbook/config"

	"github.com/golang-jwt/jwt"
)

// TokenClaims are the fields of a backend-issued bearer token the desk relies on.
type TokenClaims struct {
	Subject string
	Email   string
	Role    string
}

// ValidateToken parses and validates a token string against the given HMAC secret.
func ValidateToken(tokenString string, secret []byte) (*jwt.Token, error) {
	return jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		// Ensure that the token's signing method is HMAC.
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return secret, nil
	})
}

// ExtractClaims reads the subject, email and role of a bearer token.
// With JWT_SECRET configured the signature is verified; otherwise the backend
// remains the authority and only expiry is checked here.
func ExtractClaims(tokenString string) (TokenClaims, error) {
	return extractClaims(tokenString, []byte(config.AppConfig.JWTSecret))
}

func extractClaims(tokenString string, secret []byte) (TokenClaims, error) {
	var (
		token *jwt.Token
		err   error
	)
	if len(secret) > 0 {
		token, err = ValidateToken(tokenString, secret)
		if err != nil {
			return TokenClaims{}, err
		}
		if !token.Valid {
			return TokenClaims{}, errors.New("invalid token")
		}
	} else {
		token, _, err = new(jwt.Parser).ParseUnverified(tokenString, jwt.MapClaims{})
		if err != nil {
			return TokenClaims{}, err
		}
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return TokenClaims{}, errors.New("invalid token claims")
	}
	if err := claims.Valid(); err != nil {
		return TokenClaims{}, err
	}

	sub, _ := claims["sub"].(string)
	if sub == "" {
		return TokenClaims{}, errors.New("token does not contain a valid 'sub' claim")
	}
	email, _ := claims["email"].(string)
	role, _ := claims["role"].(string)

	return TokenClaims{
		Subject: sub,
		Email:   email,
		Role:    strings.ToLower(role),
	}, nil
}
