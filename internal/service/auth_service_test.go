package service

import (
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/netbill-next/internal/config"
	"github.com/netbill-next/internal/models"
	"github.com/netbill-next/internal/repository"

	"github.com/glebarez/sqlite"
	"gorm.io/gorm"
)

func setupAuthTest(t *testing.T) (*AuthService, *gorm.DB) {
	t.Helper()
	dsn := fmt.Sprintf("file:auth_service_test_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := db.AutoMigrate(&models.Operator{}); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}

	cfg := &config.Config{}
	cfg.JWT.SecretKey = "0123456789abcdef0123456789abcdef"
	cfg.JWT.ExpireHours = 24

	svc := NewAuthService(cfg, repository.NewOperatorRepository(db))
	return svc, db
}

func createTestOperator(t *testing.T, db *gorm.DB, svc *AuthService, username, password string) *models.Operator {
	t.Helper()
	hash, err := svc.HashPassword(password)
	if err != nil {
		t.Fatalf("hash password failed: %v", err)
	}
	operator := models.Operator{
		Username:     username,
		PasswordHash: hash,
	}
	if err := db.Create(&operator).Error; err != nil {
		t.Fatalf("create operator failed: %v", err)
	}
	return &operator
}

func TestPasswordHashRoundTrip(t *testing.T) {
	svc, _ := setupAuthTest(t)

	hash, err := svc.HashPassword("s3cret-pass")
	if err != nil {
		t.Fatalf("hash password failed: %v", err)
	}
	if hash == "s3cret-pass" {
		t.Fatalf("hash should not equal plaintext")
	}
	if err := svc.VerifyPassword(hash, "s3cret-pass"); err != nil {
		t.Fatalf("verify correct password failed: %v", err)
	}
	if err := svc.VerifyPassword(hash, "wrong-pass"); err == nil {
		t.Fatalf("verify wrong password should fail")
	}
}

func TestGenerateAndParseJWT(t *testing.T) {
	svc, db := setupAuthTest(t)
	operator := createTestOperator(t, db, svc, "ops01", "s3cret-pass")

	token, expiresAt, err := svc.GenerateJWT(operator)
	if err != nil {
		t.Fatalf("generate jwt failed: %v", err)
	}
	if token == "" {
		t.Fatalf("token should not be empty")
	}
	if !expiresAt.After(time.Now().Add(23 * time.Hour)) {
		t.Fatalf("expires_at should honor expire hours, got %v", expiresAt)
	}

	claims, err := svc.ParseJWT(token)
	if err != nil {
		t.Fatalf("parse jwt failed: %v", err)
	}
	if claims.OperatorID != operator.ID {
		t.Fatalf("operator id want %d got %d", operator.ID, claims.OperatorID)
	}
	if claims.Username != "ops01" {
		t.Fatalf("username want ops01 got %s", claims.Username)
	}
}

func TestParseJWTWrongSecret(t *testing.T) {
	svc, db := setupAuthTest(t)
	operator := createTestOperator(t, db, svc, "ops01", "s3cret-pass")

	token, _, err := svc.GenerateJWT(operator)
	if err != nil {
		t.Fatalf("generate jwt failed: %v", err)
	}

	otherCfg := &config.Config{}
	otherCfg.JWT.SecretKey = "fedcba9876543210fedcba9876543210"
	otherCfg.JWT.ExpireHours = 24
	other := NewAuthService(otherCfg, nil)
	if _, err := other.ParseJWT(token); err == nil {
		t.Fatalf("token signed with another secret should not parse")
	}
}

func TestLogin(t *testing.T) {
	svc, db := setupAuthTest(t)
	createTestOperator(t, db, svc, "ops01", "s3cret-pass")

	operator, token, _, err := svc.Login("ops01", "s3cret-pass")
	if err != nil {
		t.Fatalf("login failed: %v", err)
	}
	if token == "" {
		t.Fatalf("login should return token")
	}
	if operator.LastLoginAt == nil {
		t.Fatalf("login should record last_login_at")
	}

	var stored models.Operator
	if err := db.Where("username = ?", "ops01").First(&stored).Error; err != nil {
		t.Fatalf("load operator failed: %v", err)
	}
	if stored.LastLoginAt == nil {
		t.Fatalf("last_login_at should persist")
	}
}

func TestLoginInvalidCredentials(t *testing.T) {
	svc, db := setupAuthTest(t)
	createTestOperator(t, db, svc, "ops01", "s3cret-pass")

	if _, _, _, err := svc.Login("ops01", "wrong-pass"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("wrong password want ErrInvalidCredentials got %v", err)
	}
	if _, _, _, err := svc.Login("no-such-user", "s3cret-pass"); !errors.Is(err, ErrInvalidCredentials) {
		t.Fatalf("unknown user want ErrInvalidCredentials got %v", err)
	}
}
