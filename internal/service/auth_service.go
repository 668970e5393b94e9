package service

import (
	"context"
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/d60-Lab/match-chat/internal/model"
	"github.com/d60-Lab/match-chat/internal/repository"
)

var (
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrInvalidToken       = errors.New("invalid token")
)

// AuthService 身份与令牌服务（注册 / 登录 / 签发 / 校验）
type AuthService interface {
	Register(ctx context.Context, name, email, password string, age int, bio string) (*model.User, string, error)
	Login(ctx context.Context, email, password string) (*model.User, string, error)
	IssueToken(userID string) (string, error)
	VerifyToken(token string) (userID string, err error)
}

type authService struct {
	userRepo repository.UserRepository
	secret   []byte
	expire   time.Duration
}

func NewAuthService(userRepo repository.UserRepository, secret string, expire time.Duration) AuthService {
	if expire <= 0 {
		expire = 30 * 24 * time.Hour
	}
	return &authService{userRepo: userRepo, secret: []byte(secret), expire: expire}
}

func (s *authService) Register(ctx context.Context, name, email, password string, age int, bio string) (*model.User, string, error) {
	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, "", err
	}
	if age <= 0 {
		age = 18
	}
	u := &model.User{
		ID:       uuid.New().String(),
		Name:     name,
		Email:    email,
		Password: string(hashed),
		Age:      age,
		Bio:      bio,
	}
	if err := s.userRepo.Create(ctx, u); err != nil {
		return nil, "", err
	}
	token, err := s.IssueToken(u.ID)
	if err != nil {
		return nil, "", err
	}
	return u, token, nil
}

func (s *authService) Login(ctx context.Context, email, password string) (*model.User, string, error) {
	u, err := s.userRepo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, "", ErrInvalidCredentials
		}
		return nil, "", err
	}
	if bcrypt.CompareHashAndPassword([]byte(u.Password), []byte(password)) != nil {
		return nil, "", ErrInvalidCredentials
	}
	token, err := s.IssueToken(u.ID)
	if err != nil {
		return nil, "", err
	}
	return u, token, nil
}

func (s *authService) IssueToken(userID string) (string, error) {
	now := time.Now()
	claims := jwt.RegisteredClaims{
		Subject:   userID,
		IssuedAt:  jwt.NewNumericDate(now),
		ExpiresAt: jwt.NewNumericDate(now.Add(s.expire)),
	}
	return jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
}

func (s *authService) VerifyToken(token string) (string, error) {
	parsed, err := jwt.ParseWithClaims(token, &jwt.RegisteredClaims{}, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, ErrInvalidToken
		}
		return s.secret, nil
	})
	if err != nil || !parsed.Valid {
		return "", ErrInvalidToken
	}
	claims, ok := parsed.Claims.(*jwt.RegisteredClaims)
	if !ok || claims.Subject == "" {
		return "", ErrInvalidToken
	}
	return claims.Subject, nil
}
