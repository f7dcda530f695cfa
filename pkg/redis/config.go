package redis

import "time"

// Config holds the Redis connection settings. An empty URL means Redis is
// not used and locks stay in process.
type Config struct {
	ConnectionURL  string        `env:"REDIS_URL"`
	RetryAttempts  int           `env:"REDIS_RETRY_ATTEMPTS" envDefault:"3"`
	RetryInterval  time.Duration `env:"REDIS_RETRY_INTERVAL" envDefault:"2s"`
	ConnectTimeout time.Duration `env:"REDIS_CONNECT_TIMEOUT" envDefault:"30s"`
	// KeyPrefix namespaces every lock key.
	KeyPrefix string `env:"REDIS_KEY_PREFIX" envDefault:"fastforward:"`
}
