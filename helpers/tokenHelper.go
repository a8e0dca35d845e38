package helpers

import (
	"errors"
	"fmt"
	"time"

	"github.com/dgrijalva/jwt-go"

	"go-pizzeria-management/apperrors"
	"go-pizzeria-management/models"
)

type SignedDetails struct {
	Uid   string      `json:"uid"`
	Email string      `json:"email"`
	Role  models.Role `json:"role"`
	jwt.StandardClaims
}

// TokenManager issues and verifies HS256 bearer tokens.
type TokenManager struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewTokenManager(secret string, ttl time.Duration) *TokenManager {
	return &TokenManager{secret: []byte(secret), ttl: ttl, now: time.Now}
}

func (tm *TokenManager) GenerateToken(user *models.User) (string, time.Time, error) {
	expiresAt := tm.now().Add(tm.ttl)
	claims := SignedDetails{
		Uid:   user.ID.Hex(),
		Email: user.Email,
		Role:  user.Role,
		StandardClaims: jwt.StandardClaims{
			ExpiresAt: expiresAt.Unix(),
			IssuedAt:  tm.now().Unix(),
			Subject:   user.ID.Hex(),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(tm.secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("signing token: %w", err)
	}
	return token, expiresAt, nil
}

func (tm *TokenManager) ValidateToken(signedToken string) (*SignedDetails, error) {
	token, err := jwt.ParseWithClaims(
		signedToken,
		&SignedDetails{},
		func(t *jwt.Token) (interface{}, error) {
			if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
			}
			return tm.secret, nil
		},
	)
	if err != nil {
		var validationErr *jwt.ValidationError
		if errors.As(err, &validationErr) && validationErr.Errors&jwt.ValidationErrorExpired != 0 {
			return nil, apperrors.Authentication("token is expired")
		}
		return nil, apperrors.Authentication("token is invalid")
	}
	claims, ok := token.Claims.(*SignedDetails)
	if !ok || !token.Valid {
		return nil, apperrors.Authentication("token is invalid")
	}
	if claims.ExpiresAt < tm.now().Unix() {
		return nil, apperrors.Authentication("token is expired")
	}
	return claims, nil
}
