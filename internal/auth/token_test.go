package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const testSecret = "test-secret"

func signHS256(t *testing.T, secret string, claims jwt.MapClaims) string {
	t.Helper()
	raw, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return raw
}

func TestVerifyTokenExtractsIdentity(t *testing.T) {
	raw := signHS256(t, testSecret, jwt.MapClaims{
		"sub":   "u-1",
		"email": "a@b.c",
		"exp":   time.Now().Add(time.Hour).Unix(),
	})

	id, err := VerifyToken(testSecret, raw)
	if err != nil {
		t.Fatalf("VerifyToken: %v", err)
	}
	if id.UserID != "u-1" || id.Email != "a@b.c" {
		t.Errorf("identity = %+v", id)
	}
}

func TestVerifyTokenWithoutEmailStillResolves(t *testing.T) {
	raw := signHS256(t, testSecret, jwt.MapClaims{"sub": "u-1"})

	id, err := VerifyToken(testSecret, raw)
	if err != nil {
		t.Fatalf("VerifyToken: %v", err)
	}
	if id.UserID != "u-1" || id.Email != "" {
		t.Errorf("identity = %+v", id)
	}
}

func TestVerifyTokenRejectsWrongSecret(t *testing.T) {
	raw := signHS256(t, "other-secret", jwt.MapClaims{"sub": "u-1"})
	if _, err := VerifyToken(testSecret, raw); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("err = %v, want ErrInvalidToken", err)
	}
}

func TestVerifyTokenRejectsExpired(t *testing.T) {
	raw := signHS256(t, testSecret, jwt.MapClaims{
		"sub": "u-1",
		"exp": time.Now().Add(-time.Hour).Unix(),
	})
	if _, err := VerifyToken(testSecret, raw); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("err = %v, want ErrInvalidToken", err)
	}
}

func TestVerifyTokenRejectsMissingSubject(t *testing.T) {
	raw := signHS256(t, testSecret, jwt.MapClaims{"email": "a@b.c"})
	if _, err := VerifyToken(testSecret, raw); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("err = %v, want ErrInvalidToken", err)
	}
}

func TestVerifyTokenRejectsUnsignedToken(t *testing.T) {
	tok := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{"sub": "u-1"})
	raw, err := tok.SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	if _, err := VerifyToken(testSecret, raw); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("err = %v, want ErrInvalidToken", err)
	}
}

func TestVerifyTokenRejectsGarbage(t *testing.T) {
	if _, err := VerifyToken(testSecret, "not.a.token"); !errors.Is(err, ErrInvalidToken) {
		t.Errorf("err = %v, want ErrInvalidToken", err)
	}
}
