package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const (
	RoleUser  = "user"
	RoleAdmin = "admin"

	typeAccess  = "access"
	typeRefresh = "refresh"
)

var ErrInvalidToken = errors.New("invalid token")

type TokenManager struct {
	accessSecret  []byte
	refreshSecret []byte
	accessTTL     time.Duration
	refreshTTL    time.Duration
}

func NewTokenManager(accessSecret, refreshSecret string, accessTTL, refreshTTL time.Duration) *TokenManager {
	return &TokenManager{
		accessSecret:  []byte(accessSecret),
		refreshSecret: []byte(refreshSecret),
		accessTTL:     accessTTL,
		refreshTTL:    refreshTTL,
	}
}

type Claims struct {
	UserID string `json:"uid"`
	Role   string `json:"role"`
	Type   string `json:"typ"` // "access" | "refresh"
	jwt.RegisteredClaims
}

type Pair struct {
	Access    string    `json:"access_token"`
	Refresh   string    `json:"refresh_token"`
	AccessExp time.Time `json:"access_expires_at"`
}

// GeneratePair: access + refresh üretir
func (tm *TokenManager) GeneratePair(userID, role string) (Pair, error) {
	now := time.Now()
	claims := func(typ string, ttl time.Duration) Claims {
		return Claims{
			UserID: userID,
			Role:   role,
			Type:   typ,
			RegisteredClaims: jwt.RegisteredClaims{
				Subject:   userID,
				IssuedAt:  jwt.NewNumericDate(now),
				ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
			},
		}
	}

	acc := claims(typeAccess, tm.accessTTL)
	access, err := jwt.NewWithClaims(jwt.SigningMethodHS256, acc).SignedString(tm.accessSecret)
	if err != nil {
		return Pair{}, err
	}
	refresh, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims(typeRefresh, tm.refreshTTL)).SignedString(tm.refreshSecret)
	if err != nil {
		return Pair{}, err
	}
	return Pair{Access: access, Refresh: refresh, AccessExp: acc.ExpiresAt.Time}, nil
}

// ParseAny: hem access hem refresh deneyip döner
func (tm *TokenManager) ParseAny(tokenStr string) (*Claims, bool, error) {
	if c, err := tm.parse(tokenStr, tm.accessSecret, typeAccess); err == nil {
		return c, false, nil
	}
	if c, err := tm.parse(tokenStr, tm.refreshSecret, typeRefresh); err == nil {
		return c, true, nil
	}
	return nil, false, ErrInvalidToken
}

// Refresh exchanges a valid refresh token for a new pair.
func (tm *TokenManager) Refresh(refreshToken string) (Pair, error) {
	c, err := tm.parse(refreshToken, tm.refreshSecret, typeRefresh)
	if err != nil {
		return Pair{}, err
	}
	return tm.GeneratePair(c.UserID, c.Role)
}

func (tm *TokenManager) parse(tokenStr string, secret []byte, typ string) (*Claims, error) {
	claims := &Claims{}
	_, err := jwt.ParseWithClaims(tokenStr, claims, func(t *jwt.Token) (any, error) {
		return secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil || claims.Type != typ || claims.UserID == "" {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
