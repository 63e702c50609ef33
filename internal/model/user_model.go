package model

import (
	"github.com/google/uuid"
)

// User is an account the mock backend can authenticate.
type User struct {
	Id           uuid.UUID
	Username     string
	PasswordHash string
	Role         string
}
