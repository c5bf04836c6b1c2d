package session

import (
	"errors"
	"fmt"
	"time"

	jwt "github.com/golang-jwt/jwt/v5"
)

// cookieClaims はセッションCookieに格納する署名付きクレーム。
type cookieClaims struct {
	SessionID string `json:"sid"`
	jwt.RegisteredClaims
}

// signSessionID はセッションIDをHS256で署名したトークンを生成する。
func signSessionID(sessionID string, secret []byte, issuedAt, expiresAt time.Time) (string, error) {
	claims := cookieClaims{
		SessionID: sessionID,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(issuedAt),
			ExpiresAt: jwt.NewNumericDate(expiresAt),
		},
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign session token: %w", err)
	}
	return signed, nil
}

// parseSessionID は署名と有効期限を検証し、セッションIDを取り出す。
func parseSessionID(tokenString string, secret []byte) (string, error) {
	claims := &cookieClaims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, errors.New("unexpected signing method")
		}
		return secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return "", err
	}
	if !token.Valid {
		return "", errors.New("invalid token")
	}
	if claims.SessionID == "" {
		return "", errors.New("missing session id")
	}
	return claims.SessionID, nil
}
