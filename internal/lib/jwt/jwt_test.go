package jwt

import (
	"errors"
	"github.com/Gish2003/mock-bank-app/internal/domain/models"
	"github.com/golang-jwt/jwt/v4"
	"testing"
	"time"
)

func TestNewTokenRoundTrip(t *testing.T) {
	user := &models.User{ID: 7, Username: "john_doe"}

	token, err := NewToken(user, "secret", 24*time.Hour)
	if err != nil {
		t.Fatalf("failed to create token: %v", err)
	}

	identity, err := ParseToken(token, "secret")
	if err != nil {
		t.Fatalf("failed to parse token: %v", err)
	}
	if identity.UserID != 7 || identity.Username != "john_doe" {
		t.Errorf("unexpected identity %+v", identity)
	}
}

func TestParseTokenWrongSecret(t *testing.T) {
	token, err := NewToken(&models.User{ID: 1, Username: "a"}, "secret", time.Hour)
	if err != nil {
		t.Fatalf("failed to create token: %v", err)
	}

	if _, err := ParseToken(token, "other"); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestParseTokenExpired(t *testing.T) {
	token, err := NewToken(&models.User{ID: 1, Username: "a"}, "secret", -time.Minute)
	if err != nil {
		t.Fatalf("failed to create token: %v", err)
	}

	if _, err := ParseToken(token, "secret"); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken for expired token, got %v", err)
	}
}

func TestParseTokenWithoutExpiry(t *testing.T) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"userId": 1, "username": "a"})
	signed, err := token.SignedString([]byte("secret"))
	if err != nil {
		t.Fatalf("failed to sign: %v", err)
	}

	if _, err := ParseToken(signed, "secret"); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestParseTokenRejectsNoneAlg(t *testing.T) {
	token := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{
		"userId": 1,
		"exp":    time.Now().Add(time.Hour).Unix(),
	})
	signed, err := token.SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("failed to sign: %v", err)
	}

	if _, err := ParseToken(signed, "secret"); err == nil {
		t.Fatal("expected alg none to be rejected")
	}
}
