package utils

import (
	"fmt"
	"os"
	"time"

	"event-ticketing/constants"

	"github.com/golang-jwt/jwt/v5"
)

func jwtSecret() []byte {
	return []byte(os.Getenv("JWT_SECRET"))
}

// GenerateToken mints an HMAC-signed portal token for the given subject and
// role. Extra claims (e.g. the usher's event binding) are merged in.
func GenerateToken(subjectID, role, mobile string, extra map[string]interface{}) (string, error) {
	claims := jwt.MapClaims{
		constants.ClaimSubjectID: subjectID,
		constants.ClaimRole:      role,
		constants.ClaimMobile:    mobile,
		"iat":                    time.Now().Unix(),
		"exp":                    time.Now().Add(24 * time.Hour).Unix(),
	}
	for k, v := range extra {
		claims[k] = v
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(jwtSecret())
}

// ParseToken verifies an HMAC-signed token and returns its claims.
func ParseToken(tokenString string) (jwt.MapClaims, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return jwtSecret(), nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to parse JWT: %w", err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid JWT token")
	}
	return claims, nil
}
