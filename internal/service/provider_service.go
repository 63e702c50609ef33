package service

import (
	"context"
	"errors"
	"fmt"

	"docsearch-console/internal/dto"
	"docsearch-console/internal/model"

	"github.com/google/uuid"
)

var ErrNoProvider = errors.New("no LLM provider is available")

type IProviderService interface {
	// List returns every provider, or only those of one backend when mainSystem is set.
	List(ctx context.Context, mainSystem *bool) []dto.ProviderDTO
	// Resolve picks the named provider, or the first active one of the backend when name is empty.
	Resolve(ctx context.Context, name string, mainSystem bool) (*model.LlmProvider, error)
}

type providerService struct {
	providers []model.LlmProvider
}

func NewProviderService(providers []model.LlmProvider) IProviderService {
	return &providerService{providers: append([]model.LlmProvider(nil), providers...)}
}

// DefaultProviders seeds the mock backend.
func DefaultProviders() []model.LlmProvider {
	return []model.LlmProvider{
		{Id: uuid.New(), ProviderName: "openai", ModelName: "gpt-4o-mini", IsMainSystem: true, IsActive: true},
		{Id: uuid.New(), ProviderName: "anthropic", ModelName: "claude-3-haiku", IsMainSystem: true, IsActive: false},
		{Id: uuid.New(), ProviderName: "ollama", ModelName: "llama3", IsMainSystem: false, IsActive: true},
		{Id: uuid.New(), ProviderName: "huggingface", ModelName: "mistral-7b-instruct", IsMainSystem: false, IsActive: true},
	}
}

func (s *providerService) List(ctx context.Context, mainSystem *bool) []dto.ProviderDTO {
	out := make([]dto.ProviderDTO, 0, len(s.providers))
	for _, p := range s.providers {
		if mainSystem != nil && p.IsMainSystem != *mainSystem {
			continue
		}
		out = append(out, dto.ProviderDTO{
			Id:           p.Id.String(),
			ProviderName: p.ProviderName,
			ModelName:    p.ModelName,
			IsMainSystem: p.IsMainSystem,
			IsActive:     p.IsActive,
		})
	}
	return out
}

func (s *providerService) Resolve(ctx context.Context, name string, mainSystem bool) (*model.LlmProvider, error) {
	for _, p := range s.providers {
		if !p.IsActive || p.IsMainSystem != mainSystem {
			continue
		}
		if name == "" || p.ProviderName == name {
			found := p
			return &found, nil
		}
	}
	if name != "" {
		return nil, fmt.Errorf("%w: %s", ErrNoProvider, name)
	}
	return nil, ErrNoProvider
}
