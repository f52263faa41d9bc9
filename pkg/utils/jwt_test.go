package utils

import (
	"testing"

	"github.com/fleetrent/fleetrent-backend/internal/models"
	"github.com/golang-jwt/jwt/v5"
	"gorm.io/gorm"
)

func TestGenerateAndValidateToken(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")

	user := &models.User{
		Model:    gorm.Model{ID: 42},
		Username: "alice",
		Role:     models.RoleCustomer,
	}

	tokenString, err := GenerateToken(user)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}

	token, err := ValidateToken(tokenString)
	if err != nil {
		t.Fatalf("ValidateToken: %v", err)
	}
	if !token.Valid {
		t.Fatalf("expected valid token")
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		t.Fatalf("expected map claims")
	}
	if id := claims["id"].(float64); uint(id) != 42 {
		t.Errorf("id claim = %v, want 42", id)
	}
	if claims["username"] != "alice" {
		t.Errorf("username claim = %v, want alice", claims["username"])
	}
	if claims["role"] != "customer" {
		t.Errorf("role claim = %v, want customer", claims["role"])
	}
}

func TestValidateTokenWrongSecret(t *testing.T) {
	t.Setenv("JWT_SECRET", "test-secret")

	user := &models.User{Model: gorm.Model{ID: 1}, Username: "bob", Role: models.RoleOwner}
	tokenString, err := GenerateToken(user)
	if err != nil {
		t.Fatalf("GenerateToken: %v", err)
	}

	t.Setenv("JWT_SECRET", "other-secret")
	if _, err := ValidateToken(tokenString); err == nil {
		t.Fatalf("expected validation failure with wrong secret")
	}
}
