// internal/core/auth/service.go
package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

var (
	ErrInvalidCredentials = errors.New("usuário ou senha inválidos")
	ErrInvalidToken       = errors.New("token inválido ou expirado")
)

// DefaultTokenTTL is used when no TTL is configured.
const DefaultTokenTTL = 24 * time.Hour

type Service interface {
	Login(ctx context.Context, username, password string) (string, error)
	ValidateToken(tokenString string) (*Claims, error)
}

// User is an operator allowed to call the API.
type User struct {
	Username     string
	PasswordHash string
	Roles        []string
}

// Claims are the JWT claims issued on login.
type Claims struct {
	Username string   `json:"username"`
	Roles    []string `json:"roles"`
	jwt.RegisteredClaims
}

type service struct {
	users     map[string]User
	jwtSecret []byte
	tokenTTL  time.Duration
	now       func() time.Time
}

// dummyHash keeps the login time the same for unknown users.
var dummyHash, _ = bcrypt.GenerateFromPassword([]byte("dummy-password"), bcrypt.MinCost)

func NewService(users []User, jwtSecret []byte, tokenTTL time.Duration) Service {
	if tokenTTL <= 0 {
		tokenTTL = DefaultTokenTTL
	}
	byName := make(map[string]User, len(users))
	for _, u := range users {
		byName[u.Username] = u
	}
	return &service{users: byName, jwtSecret: jwtSecret, tokenTTL: tokenTTL, now: time.Now}
}

func (s *service) Login(ctx context.Context, username, password string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	// 1. Encontrar o usuário.
	user, ok := s.users[username]
	if !ok {
		_ = bcrypt.CompareHashAndPassword(dummyHash, []byte(password))
		return "", ErrInvalidCredentials
	}

	// 2. Comparar a senha fornecida com o hash armazenado.
	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return "", ErrInvalidCredentials
	}

	// 3. Gerar o Token JWT com as permissões (roles).
	now := s.now()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, Claims{
		Username: user.Username,
		Roles:    user.Roles,
		RegisteredClaims: jwt.RegisteredClaims{
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(s.tokenTTL)),
		},
	})

	tokenString, err := token.SignedString(s.jwtSecret)
	if err != nil {
		return "", fmt.Errorf("erro ao gerar token de acesso: %w", err)
	}
	return tokenString, nil
}

// ValidateToken verifies the signature and expiry of an HS256 token.
func (s *service) ValidateToken(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (any, error) {
		return s.jwtSecret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}), jwt.WithTimeFunc(s.now))
	if err != nil || !token.Valid {
		return nil, ErrInvalidToken
	}
	return claims, nil
}
