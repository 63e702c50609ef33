package service

import (
	"context"
	"testing"

	"docsearch-console/internal/dto"
	"docsearch-console/internal/pkg/logger"
	"docsearch-console/internal/repository/memory"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuthServiceLogin(t *testing.T) {
	ctx := context.Background()
	svc := NewAuthService(memory.NewUserRepository(), "secret", logger.NewNopLogger())
	require.NoError(t, svc.Register(ctx, "Admin", "admin123", "admin"))

	t.Run("valid credentials", func(t *testing.T) {
		res, err := svc.Login(ctx, &dto.LoginRequest{Username: "admin", Password: "admin123"})
		require.NoError(t, err)
		assert.Equal(t, "bearer", res.TokenType)

		token, err := jwt.Parse(res.AccessToken, func(*jwt.Token) (interface{}, error) {
			return []byte("secret"), nil
		})
		require.NoError(t, err)
		claims := token.Claims.(jwt.MapClaims)
		assert.NotEmpty(t, claims["user_id"])
		assert.Equal(t, "admin", claims["role"])
	})

	t.Run("wrong password", func(t *testing.T) {
		_, err := svc.Login(ctx, &dto.LoginRequest{Username: "admin", Password: "wrong"})
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})

	t.Run("unknown user", func(t *testing.T) {
		_, err := svc.Login(ctx, &dto.LoginRequest{Username: "ghost", Password: "admin123"})
		assert.ErrorIs(t, err, ErrInvalidCredentials)
	})
}

func TestAuthServiceRegisterDuplicate(t *testing.T) {
	ctx := context.Background()
	svc := NewAuthService(memory.NewUserRepository(), "secret", logger.NewNopLogger())

	require.NoError(t, svc.Register(ctx, "admin", "a", "admin"))
	assert.Error(t, svc.Register(ctx, "ADMIN", "b", "admin"))
}
