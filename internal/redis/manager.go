package redis

import (
	"context"
	"fmt"
	"sync"

	"github.com/biasnet/influence/internal/setup/config"
	"github.com/redis/rueidis"
	"go.uber.org/zap"
)

// CacheDBIndex holds derived read data such as bias popovers. Everything in
// it can be rebuilt from PostgreSQL.
const CacheDBIndex = 0

// Manager maintains a thread-safe mapping of database indices to Redis clients.
// Each database index gets its own dedicated connection pool through rueidis.
type Manager struct {
	clients map[int]rueidis.Client
	config  *config.Redis
	logger  *zap.Logger
	mu      sync.Mutex
}

// NewManager initializes the Redis connection manager with an empty client pool.
// Actual client connections are created lazily when first requested.
func NewManager(config *config.Redis, logger *zap.Logger) *Manager {
	return &Manager{
		clients: make(map[int]rueidis.Client),
		config:  config,
		logger:  logger.Named("redis"),
	}
}

// GetClient retrieves or creates a Redis client for the specified database index.
func (m *Manager) GetClient(dbIndex int) (rueidis.Client, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if client, exists := m.clients[dbIndex]; exists {
		return client, nil
	}

	client, err := rueidis.NewClient(rueidis.ClientOption{
		InitAddress:         []string{fmt.Sprintf("%s:%d", m.config.Host, m.config.Port)},
		Username:            m.config.Username,
		Password:            m.config.Password,
		SelectDB:            dbIndex,
		ClientName:          "influence",
		ReadBufferEachConn:  1 << 16,
		WriteBufferEachConn: 1 << 16,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create Redis client for DB %d: %w", dbIndex, err)
	}

	m.clients[dbIndex] = client
	m.logger.Info("Created new Redis client", zap.Int("dbIndex", dbIndex))
	return client, nil
}

// Ping checks that the client for dbIndex can reach the server.
func (m *Manager) Ping(ctx context.Context, dbIndex int) error {
	client, err := m.GetClient(dbIndex)
	if err != nil {
		return err
	}

	if err := client.Do(ctx, client.B().Ping().Build()).Error(); err != nil {
		return fmt.Errorf("failed to ping Redis DB %d: %w", dbIndex, err)
	}
	return nil
}

// Close gracefully shuts down all active Redis clients in the pool.
// Safe to call multiple times as it cleans up only existing connections.
func (m *Manager) Close() {
	m.mu.Lock()
	defer m.mu.Unlock()

	for dbIndex, client := range m.clients {
		client.Close()
		delete(m.clients, dbIndex)
		m.logger.Info("Closed Redis client", zap.Int("dbIndex", dbIndex))
	}
}
