package gateway

import (
	"context"
	"fmt"
	"net/http"

	"github.com/rs/cors"
	"github.com/rs/zerolog/log"

	"github.com/galadraft/galadraft/internal/draft/engine"
)

// Service bundles the gateway: operation handlers, the websocket rooms,
// and the JetStream consumer feeding them.
type Service struct {
	cm       *ConnectionManager
	handlers *Handlers
	consumer *EventConsumer
}

type Config struct {
	ConnectionConfig ConnectionConfig
	ConsumerConfig   ConsumerConfig
}

func DefaultConfig() Config {
	return Config{
		ConnectionConfig: DefaultConnectionConfig(),
		ConsumerConfig:   DefaultConsumerConfig(),
	}
}

func NewService(config Config, eng *engine.Service) (*Service, error) {
	cm := NewConnectionManager(config.ConnectionConfig)

	consumer, err := NewEventConsumer(cm, config.ConsumerConfig)
	if err != nil {
		return nil, fmt.Errorf("failed to create event consumer: %w", err)
	}

	return &Service{
		cm:       cm,
		handlers: NewHandlers(eng, cm),
		consumer: consumer,
	}, nil
}

// Start runs the fan-out loop and the JetStream consumer until ctx is
// cancelled.
func (s *Service) Start(ctx context.Context) error {
	log.Info().Msg("starting draft gateway")

	go s.cm.Start(ctx)
	go func() {
		if err := s.consumer.Start(ctx); err != nil {
			log.Error().Err(err).Msg("event consumer failed")
		}
	}()

	<-ctx.Done()
	return s.Stop()
}

func (s *Service) Stop() error {
	if err := s.consumer.Stop(); err != nil {
		log.Error().Err(err).Msg("failed to stop event consumer")
	}
	log.Info().Msg("draft gateway stopped")
	return nil
}

// Handler returns the routed HTTP handler wrapped in CORS.
func (s *Service) Handler() http.Handler {
	mux := http.NewServeMux()
	s.handlers.Register(mux)

	c := cors.New(cors.Options{
		AllowedMethods: []string{
			http.MethodHead,
			http.MethodGet,
			http.MethodPost,
			http.MethodPut,
			http.MethodDelete,
		},
		AllowedOrigins: []string{"*"},
		AllowedHeaders: []string{"*"},
	})
	return c.Handler(mux)
}
