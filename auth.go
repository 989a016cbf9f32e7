package main

import (
	"context"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"finanzas/models"
)

var (
	ErrInvalidCredentials = errors.New("credenciales inválidas")
	ErrInvalidToken       = errors.New("token inválido o expirado")
	ErrRefreshNotFound    = errors.New("refresh token not found")
)

// Claims are the access token claims. They carry everything handlers need
// about the caller so no lookup is done per request.
type Claims struct {
	ID     uint   `json:"id"`
	Email  string `json:"email"`
	Nombre string `json:"nombre"`
	jwt.RegisteredClaims
}

// JWTManager issues and validates HS256 access tokens.
type JWTManager struct {
	secret []byte
	ttl    time.Duration
	now    func() time.Time
}

func NewJWTManager(secret string, ttl time.Duration) *JWTManager {
	return &JWTManager{secret: []byte(secret), ttl: ttl, now: time.Now}
}

// Generate signs a token for u.
func (m *JWTManager) Generate(u models.Usuario) (string, error) {
	now := m.now()
	claims := &Claims{
		ID:     u.ID,
		Email:  u.Email,
		Nombre: u.Nombre,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(m.ttl)),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}
	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(m.secret)
	if err != nil {
		return "", fmt.Errorf("failed to sign token: %w", err)
	}
	return token, nil
}

// Validate parses tokenString and returns its claims.
func (m *JWTManager) Validate(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return m.secret, nil
	}, jwt.WithTimeFunc(m.now))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidToken, err)
	}
	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}

// authService checks credentials and manages refresh tokens. Users are
// created administratively (cmd/create_user), never through the API.
type authService struct {
	db         *gorm.DB
	jwt        *JWTManager
	refreshTTL time.Duration
}

// Authenticate checks email and password. Any mismatch yields ErrInvalidCredentials.
func (a *authService) Authenticate(ctx context.Context, email, password string) (models.Usuario, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	var user models.Usuario
	err := a.db.WithContext(ctx).Where("email = ?", email).First(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return models.Usuario{}, ErrInvalidCredentials
	}
	if err != nil {
		return models.Usuario{}, fmt.Errorf("failed to look up user: %w", err)
	}
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return models.Usuario{}, ErrInvalidCredentials
	}
	return user, nil
}

// createRefreshToken generates a random refresh token, stores its hash with expiry and returns the raw token string
func (a *authService) createRefreshToken(ctx context.Context, userID uint) (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	token := hex.EncodeToString(b)
	rt := models.RefreshToken{UsuarioID: userID, TokenHash: hashToken(token), ExpiresAt: a.jwt.now().Add(a.refreshTTL)}
	if err := a.db.WithContext(ctx).Create(&rt).Error; err != nil {
		return "", fmt.Errorf("failed to store refresh token: %w", err)
	}
	return token, nil
}

func (a *authService) findRefreshToken(ctx context.Context, raw string) (*models.RefreshToken, error) {
	var rt models.RefreshToken
	err := a.db.WithContext(ctx).Where("token_hash = ?", hashToken(raw)).First(&rt).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrRefreshNotFound
	}
	if err != nil {
		return nil, err
	}
	return &rt, nil
}

// rotateRefreshToken exchanges a valid refresh token for a new one. The old
// token is revoked so it can be used only once.
func (a *authService) rotateRefreshToken(ctx context.Context, raw string) (models.Usuario, string, error) {
	rt, err := a.findRefreshToken(ctx, raw)
	if errors.Is(err, ErrRefreshNotFound) {
		return models.Usuario{}, "", ErrInvalidToken
	}
	if err != nil {
		return models.Usuario{}, "", err
	}
	if rt.Revoked || a.jwt.now().After(rt.ExpiresAt) {
		return models.Usuario{}, "", ErrInvalidToken
	}
	var user models.Usuario
	if err := a.db.WithContext(ctx).First(&user, rt.UsuarioID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return models.Usuario{}, "", ErrInvalidToken
		}
		return models.Usuario{}, "", err
	}
	res := a.db.WithContext(ctx).Model(&models.RefreshToken{}).
		Where("id = ? AND revoked = ?", rt.ID, false).
		Update("revoked", true)
	if res.Error != nil {
		return models.Usuario{}, "", res.Error
	}
	if res.RowsAffected == 0 {
		// lost a race with a concurrent refresh
		return models.Usuario{}, "", ErrInvalidToken
	}
	next, err := a.createRefreshToken(ctx, user.ID)
	if err != nil {
		return models.Usuario{}, "", err
	}
	return user, next, nil
}

func (a *authService) revokeRefreshToken(ctx context.Context, raw string) error {
	rt, err := a.findRefreshToken(ctx, raw)
	if err != nil {
		return err
	}
	return a.db.WithContext(ctx).Model(rt).Update("revoked", true).Error
}

func hashToken(raw string) string {
	h := sha256.Sum256([]byte(raw))
	return hex.EncodeToString(h[:])
}
