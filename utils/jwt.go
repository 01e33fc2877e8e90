package utils

import (
	"errors"
	"os"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var JWTSecret []byte

const tokenIssuer = "tableshare"

func init() {
	secret := os.Getenv("JWT_SECRET")
	if secret == "" {
		// Development fallback only; production must set JWT_SECRET.
		secret = "TableShareDevSecret1945"
	}
	JWTSecret = []byte(secret)
}

// StaffClaims identifies a staff account (admin/staff/chef) of one store.
type StaffClaims struct {
	UserID  uint   `json:"user_id"`
	StoreID uint   `json:"store_id"`
	Role    string `json:"role"`
	jwt.RegisteredClaims
}

// SessionClaims binds one participant to one table session.
type SessionClaims struct {
	SessionID     uint `json:"session_id"`
	ParticipantID uint `json:"participant_id"`
	jwt.RegisteredClaims
}

// TableClaims is the long-lived credential embedded in a table's QR code.
type TableClaims struct {
	StoreID uint `json:"store_id"`
	TableID uint `json:"table_id"`
	jwt.RegisteredClaims
}

func GenerateStaffToken(userID, storeID uint, role string) (string, error) {
	claims := &StaffClaims{
		UserID:  userID,
		StoreID: storeID,
		Role:    role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(24 * time.Hour)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			Issuer:    tokenIssuer,
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(JWTSecret)
}

func ParseStaffToken(tokenString string) (*StaffClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &StaffClaims{}, func(token *jwt.Token) (interface{}, error) {
		return JWTSecret, nil
	})
	if err != nil || !token.Valid {
		return nil, errors.New("invalid or expired token")
	}
	claims, ok := token.Claims.(*StaffClaims)
	if !ok || claims.UserID == 0 {
		return nil, errors.New("invalid token claims")
	}
	return claims, nil
}

func GenerateSessionToken(sessionID, participantID uint, ttl time.Duration) (string, error) {
	claims := &SessionClaims{
		SessionID:     sessionID,
		ParticipantID: participantID,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(ttl)),
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			Issuer:    tokenIssuer,
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(JWTSecret)
}

func ParseSessionToken(tokenString string) (*SessionClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &SessionClaims{}, func(token *jwt.Token) (interface{}, error) {
		return JWTSecret, nil
	})
	if err != nil || !token.Valid {
		return nil, errors.New("invalid or expired session token")
	}
	claims, ok := token.Claims.(*SessionClaims)
	if !ok || claims.SessionID == 0 || claims.ParticipantID == 0 {
		return nil, errors.New("invalid session token claims")
	}
	return claims, nil
}

// GenerateTableToken issues the signed locator printed into a table QR.
// It carries no expiry; rotating the QR re-issues it.
func GenerateTableToken(storeID, tableID uint) (string, error) {
	claims := &TableClaims{
		StoreID: storeID,
		TableID: tableID,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt: jwt.NewNumericDate(time.Now()),
			Issuer:   tokenIssuer,
		},
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(JWTSecret)
}

func ParseTableToken(tokenString string) (*TableClaims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &TableClaims{}, func(token *jwt.Token) (interface{}, error) {
		return JWTSecret, nil
	})
	if err != nil || !token.Valid {
		return nil, errors.New("invalid table token")
	}
	claims, ok := token.Claims.(*TableClaims)
	if !ok || claims.TableID == 0 {
		return nil, errors.New("invalid table token claims")
	}
	return claims, nil
}
