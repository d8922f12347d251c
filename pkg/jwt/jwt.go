package jwt

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const (
	TokenTypeAccess  = "access"
	TokenTypeRefresh = "refresh"
)

var (
	ErrInvalidToken   = errors.New("invalid token")
	ErrTokenExpired   = errors.New("token expired")
	ErrWrongTokenType = errors.New("wrong token type")
)

// Claims - содержимое токенов, sub = id пользователя
type Claims struct {
	UserID    int64  `json:"uid"`
	Username  string `json:"username,omitempty"`
	TokenType string `json:"typ"`
	jwt.RegisteredClaims
}

func GenerateAccessToken(userID int64, username, secret, issuer string, ttl time.Duration) (string, error) {
	return generate(userID, username, TokenTypeAccess, secret, issuer, ttl)
}

func GenerateRefreshToken(userID int64, secret, issuer string, ttl time.Duration) (string, error) {
	return generate(userID, "", TokenTypeRefresh, secret, issuer, ttl)
}

func generate(userID int64, username, tokenType, secret, issuer string, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := Claims{
		UserID:    userID,
		Username:  username,
		TokenType: tokenType,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   strconv.FormatInt(userID, 10),
			Issuer:    issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("sign %s token: %w", tokenType, err)
	}
	return signed, nil
}

// ValidateToken проверяет access-токен
func ValidateToken(tokenString, secret string) (*Claims, error) {
	return validate(tokenString, secret, TokenTypeAccess)
}

func ValidateRefreshToken(tokenString, secret string) (*Claims, error) {
	return validate(tokenString, secret, TokenTypeRefresh)
}

func validate(tokenString, secret, tokenType string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return nil, ErrTokenExpired
		}
		return nil, ErrInvalidToken
	}
	if !token.Valid {
		return nil, ErrInvalidToken
	}
	if claims.TokenType != tokenType {
		return nil, ErrWrongTokenType
	}
	return claims, nil
}
