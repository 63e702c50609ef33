package bootstrap

import (
	"context"
	"fmt"

	"docsearch-console/internal/config"
	"docsearch-console/internal/controller"
	"docsearch-console/internal/pkg/logger"
	"docsearch-console/internal/pkg/serverutils"
	"docsearch-console/internal/repository/memory"
	"docsearch-console/internal/service"
	"docsearch-console/pkg/apiclient"
	"docsearch-console/pkg/cluster"
	"docsearch-console/pkg/events"
	pktNats "docsearch-console/pkg/nats"
	"docsearch-console/pkg/search"

	"github.com/ThreeDotsLabs/watermill"
)

// MockContainer wires the mock backend served by cmd/mockapi.
type MockContainer struct {
	Logger logger.ILogger

	AuthController     controller.IAuthController
	ChatController     controller.IChatController
	ProviderController controller.IProviderController
}

func NewMockContainer(ctx context.Context, cfg *config.Config, log logger.ILogger) (*MockContainer, error) {
	users := memory.NewUserRepository()
	sessions := memory.NewChatSessionRepository()

	authService := service.NewAuthService(users, cfg.Mock.JWTSecret, log)
	if err := authService.Register(ctx, cfg.Mock.Username, cfg.Mock.Password, "admin"); err != nil {
		return nil, fmt.Errorf("seed user: %w", err)
	}

	providerService := service.NewProviderService(service.DefaultProviders())
	chatbotService := service.NewChatbotService(
		sessions,
		providerService,
		search.NewRetriever(service.DefaultDocuments()),
		log,
	)

	jwt := serverutils.NewJwtMiddleware(cfg.Mock.JWTSecret)

	return &MockContainer{
		Logger:             log,
		AuthController:     controller.NewAuthController(authService),
		ChatController:     controller.NewChatController(chatbotService, jwt),
		ProviderController: controller.NewProviderController(providerService, jwt),
	}, nil
}

// ConsoleContainer wires the chat console used by cmd/docchat.
type ConsoleContainer struct {
	Logger logger.ILogger
	Client *apiclient.Client
	Bus    *events.LocalBus
	Chat   service.IChatService

	closers []func()
}

func NewConsoleContainer(ctx context.Context, cfg *config.Config, log logger.ILogger) (*ConsoleContainer, error) {
	client := apiclient.New(cfg.API.BaseURL, cfg.API.Token, cfg.API.Timeout, log)
	if cfg.API.Token == "" && cfg.API.Username != "" {
		if _, err := client.Login(ctx, cfg.API.Username, cfg.API.Password); err != nil {
			return nil, err
		}
	}

	c := &ConsoleContainer{Logger: log, Client: client}

	c.Bus = events.NewLocalBus(watermill.NopLogger{})
	c.closers = append(c.closers, func() { _ = c.Bus.Close() })
	publishers := events.MultiPublisher{c.Bus}

	if cfg.Events.NatsURL != "" {
		natsPub, err := pktNats.NewPublisher(ctx, cfg.Events.NatsURL)
		if err != nil {
			log.Warn("Bootstrap", "NATS publisher unavailable, continuing without it", map[string]interface{}{"error": err.Error()})
		} else {
			publishers = append(publishers, natsPub)
			c.closers = append(c.closers, natsPub.Close)
		}
	}

	if cfg.Events.RedisURL != "" {
		rdb, err := cluster.NewRedisClient(ctx, cfg.Events.RedisURL)
		if err != nil {
			log.Warn("Bootstrap", "Redis publisher unavailable, continuing without it", map[string]interface{}{"error": err.Error()})
		} else {
			redisPub := cluster.NewRedisPublisher(rdb, cfg.Events.RedisChannel)
			publishers = append(publishers, redisPub)
			c.closers = append(c.closers, func() { _ = redisPub.Close() })
		}
	}

	c.Chat = service.NewChatService(client, publishers, log, service.ChatServiceOptions{
		DirectoryCacheTTL: cfg.Chat.DirectoryCacheTTL,
		ProviderCacheTTL:  cfg.Chat.ProviderCacheTTL,
		ReconcileSkew:     cfg.Chat.ReconcileSkew,
	})
	return c, nil
}

// Close releases the event transports in reverse order of creation.
func (c *ConsoleContainer) Close() {
	for i := len(c.closers) - 1; i >= 0; i-- {
		c.closers[i]()
	}
}
