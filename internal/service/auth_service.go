package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"docsearch-console/internal/dto"
	"docsearch-console/internal/model"
	"docsearch-console/internal/pkg/logger"
	"docsearch-console/internal/pkg/serverutils"
	"docsearch-console/internal/repository/contract"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"
)

var ErrInvalidCredentials = errors.New("invalid username or password")

const accessTokenExpiry = 24 * time.Hour

type IAuthService interface {
	Register(ctx context.Context, username, password, role string) error
	Login(ctx context.Context, req *dto.LoginRequest) (*dto.TokenResponse, error)
}

type authService struct {
	users     contract.UserRepository
	jwtSecret string
	logger    logger.ILogger
}

func NewAuthService(users contract.UserRepository, jwtSecret string, log logger.ILogger) IAuthService {
	return &authService{users: users, jwtSecret: jwtSecret, logger: log}
}

func (s *authService) Register(ctx context.Context, username, password, role string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	return s.users.Create(ctx, &model.User{
		Id:           uuid.New(),
		Username:     username,
		PasswordHash: string(hash),
		Role:         role,
	})
}

func (s *authService) Login(ctx context.Context, req *dto.LoginRequest) (*dto.TokenResponse, error) {
	user, err := s.users.FindByUsername(ctx, req.Username)
	if err != nil {
		s.logger.Warn("AuthService", "Login for unknown user", map[string]interface{}{"username": req.Username})
		return nil, ErrInvalidCredentials
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(req.Password)); err != nil {
		s.logger.Warn("AuthService", "Login with wrong password", map[string]interface{}{"username": req.Username})
		return nil, ErrInvalidCredentials
	}

	signed, err := serverutils.GenerateToken(s.jwtSecret, user.Id.String(), user.Role, accessTokenExpiry)
	if err != nil {
		return nil, fmt.Errorf("sign token: %w", err)
	}

	s.logger.Info("AuthService", "User logged in", map[string]interface{}{"user_id": user.Id.String()})
	return &dto.TokenResponse{AccessToken: signed, TokenType: "bearer"}, nil
}
