package session

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/rueidis"
)

// RedisStore keeps records in Redis so sessions survive a console restart
// and can be shared by several console instances.
type RedisStore struct {
	client rueidis.Client
	config RedisStoreConfig
}

type RedisStoreConfig struct {
	// Addr is the Redis server address for single node mode.
	// For cluster mode, use ClusterAddrs instead.
	Addr string
	// ClusterAddrs is a list of Redis cluster node addresses.
	// If set, cluster mode is enabled automatically.
	ClusterAddrs []string
	Username     string
	Password     string
	// DB is the Redis database number. Cluster mode only supports 0.
	DB           int
	KeyPrefix    string
	DialTimeout  time.Duration
	WriteTimeout time.Duration
}

func DefaultRedisStoreConfig() RedisStoreConfig {
	return RedisStoreConfig{
		Addr:         "localhost:6379",
		KeyPrefix:    "console:session:",
		DialTimeout:  5 * time.Second,
		WriteTimeout: 3 * time.Second,
	}
}

func NewRedisStore(config RedisStoreConfig) (*RedisStore, error) {
	var initAddress []string
	if len(config.ClusterAddrs) > 0 {
		initAddress = config.ClusterAddrs
	} else if config.Addr != "" {
		initAddress = []string{config.Addr}
	} else {
		return nil, fmt.Errorf("redis: no addresses configured (set Addr or ClusterAddrs)")
	}
	if config.DialTimeout <= 0 {
		config.DialTimeout = 5 * time.Second
	}

	client, err := rueidis.NewClient(rueidis.ClientOption{
		InitAddress:      initAddress,
		Username:         config.Username,
		Password:         config.Password,
		SelectDB:         config.DB,
		ConnWriteTimeout: config.WriteTimeout,
	})
	if err != nil {
		return nil, fmt.Errorf("redis: failed to create client: %w", err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), config.DialTimeout)
	defer cancel()

	if err := client.Do(ctx, client.B().Ping().Build()).Error(); err != nil {
		client.Close()
		return nil, fmt.Errorf("redis: failed to ping server: %w", err)
	}

	return &RedisStore{client: client, config: config}, nil
}

func (r *RedisStore) key(id string) string {
	return r.config.KeyPrefix + id
}

func (r *RedisStore) Save(ctx context.Context, rec Record, ttl time.Duration) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("redis save: failed to marshal: %w", err)
	}

	cmd := r.client.B().Set().Key(r.key(rec.ID)).Value(string(data)).Ex(ttl).Build()
	if err := r.client.Do(ctx, cmd).Error(); err != nil {
		return fmt.Errorf("redis save: %w", err)
	}
	return nil
}

func (r *RedisStore) Load(ctx context.Context, id string) (Record, error) {
	resp := r.client.Do(ctx, r.client.B().Get().Key(r.key(id)).Build())
	if err := resp.Error(); err != nil {
		if rueidis.IsRedisNil(err) {
			return Record{}, ErrSessionNotFound
		}
		return Record{}, fmt.Errorf("redis load: %w", err)
	}

	data, err := resp.AsBytes()
	if err != nil {
		return Record{}, fmt.Errorf("redis load: failed to read response: %w", err)
	}

	var rec Record
	if err := json.Unmarshal(data, &rec); err != nil {
		return Record{}, fmt.Errorf("redis load: failed to unmarshal: %w", err)
	}
	return rec, nil
}

func (r *RedisStore) Touch(ctx context.Context, id string, ttl time.Duration) error {
	resp := r.client.Do(ctx, r.client.B().Expire().Key(r.key(id)).Seconds(int64(ttl/time.Second)).Build())
	if err := resp.Error(); err != nil {
		return fmt.Errorf("redis touch: %w", err)
	}
	updated, err := resp.AsInt64()
	if err != nil {
		return fmt.Errorf("redis touch: failed to read response: %w", err)
	}
	if updated == 0 {
		return ErrSessionNotFound
	}
	return nil
}

func (r *RedisStore) Delete(ctx context.Context, id string) error {
	if err := r.client.Do(ctx, r.client.B().Del().Key(r.key(id)).Build()).Error(); err != nil {
		return fmt.Errorf("redis delete: %w", err)
	}
	return nil
}

func (r *RedisStore) Name() string {
	return "redis"
}

func (r *RedisStore) Close() error {
	r.client.Close()
	return nil
}
