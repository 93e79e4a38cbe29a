package auth

import (
	"testing"
	"time"

	"invoicer/config"
)

func jwtConfig(expiry time.Duration) config.JWTConfig {
	return config.JWTConfig{Secret: "test-secret", Expiry: expiry, Issuer: "invoicer"}
}

func TestTokenRoundTrip(t *testing.T) {
	cfg := jwtConfig(time.Hour)
	token, err := GenerateToken(cfg, 7, "admin@example.com", "ADMIN")
	if err != nil {
		t.Fatal(err)
	}

	claims, err := ParseToken(cfg, token)
	if err != nil {
		t.Fatal(err)
	}
	if claims.UserID != 7 || claims.Email != "admin@example.com" || claims.Role != "ADMIN" {
		t.Errorf("claims = %+v", claims)
	}
	if claims.Issuer != "invoicer" {
		t.Errorf("issuer = %q", claims.Issuer)
	}
}

func TestExpiredTokenRejected(t *testing.T) {
	cfg := jwtConfig(-time.Minute)
	token, err := GenerateToken(cfg, 7, "admin@example.com", "ADMIN")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := ParseToken(cfg, token); err == nil {
		t.Error("expired token should be rejected")
	}
}

func TestWrongSecretRejected(t *testing.T) {
	token, err := GenerateToken(jwtConfig(time.Hour), 7, "admin@example.com", "ADMIN")
	if err != nil {
		t.Fatal(err)
	}
	other := config.JWTConfig{Secret: "different", Expiry: time.Hour, Issuer: "invoicer"}
	if _, err := ParseToken(other, token); err == nil {
		t.Error("token signed with another secret should be rejected")
	}
}
