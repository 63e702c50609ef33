package model

import "github.com/google/uuid"

type LlmProvider struct {
	Id           uuid.UUID
	ProviderName string
	ModelName    string
	IsMainSystem bool
	IsActive     bool
}
