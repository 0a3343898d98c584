package jwt

import (
	"errors"
	"fmt"
	"github.com/Gish2003/mock-bank-app/internal/domain/models"
	"github.com/golang-jwt/jwt/v4"
	"time"
)

var ErrInvalidToken = errors.New("invalid token")

func NewToken(user *models.User, jwtSecret string, duration time.Duration) (string, error) {
	token := jwt.New(jwt.SigningMethodHS256)

	now := time.Now()

	claims := token.Claims.(jwt.MapClaims)
	claims["userId"] = user.ID
	claims["username"] = user.Username
	claims["iat"] = now.Unix()
	claims["exp"] = now.Add(duration).Unix()

	tokenString, err := token.SignedString([]byte(jwtSecret))
	if err != nil {
		return "", err
	}

	return tokenString, nil
}

// ParseToken checks signature and expiry and returns the identity in the claims.
func ParseToken(tokenString string, secret string) (models.Identity, error) {
	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return []byte(secret), nil
	})

	if err != nil {
		return models.Identity{}, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok || !token.Valid {
		return models.Identity{}, ErrInvalidToken
	}

	// exp is optional for jwt.Parse, tokens without it are rejected here
	if _, ok := claims["exp"]; !ok {
		return models.Identity{}, fmt.Errorf("%w: missing exp", ErrInvalidToken)
	}

	uid, ok := claims["userId"].(float64)
	if !ok || uid <= 0 {
		return models.Identity{}, fmt.Errorf("%w: bad userId claim", ErrInvalidToken)
	}
	username, _ := claims["username"].(string)

	return models.Identity{UserID: int64(uid), Username: username}, nil
}
