package devledger

import (
	"context"
	"time"

	"github.com/sethvargo/go-envconfig"
)

// Config of a development ledger node, read from LEDGERD_* variables
type Config struct {
	ListenAddr         string        `env:"LISTEN_ADDR, default=127.0.0.1:7740"`
	BlockchainRID      string        `env:"BLOCKCHAIN_RID, default=D2215C73F242D307DBE10C0AE58A14425428420DAEB0514ED5669204252B030E"`
	ChallengeTTL       time.Duration `env:"CHALLENGE_TTL, default=5m"`
	MaxSessionTTL      time.Duration `env:"MAX_SESSION_TTL, default=24h"`
	MaxAuthDescriptors int           `env:"MAX_AUTH_DESCRIPTORS, default=10"`
	SigningKeyFile     string        `env:"SIGNING_KEY_FILE"` // PEM encoded P-256 key, generated when empty
	RedisURL           string        `env:"REDIS_URL"`        // Revocation store, in memory when empty
	LogLevel           string        `env:"LOG_LEVEL, default=info"`
}

// Load reads the configuration from the environment
func Load(ctx context.Context) (*Config, error) {
	return LoadWith(ctx, envconfig.OsLookuper())
}

// LoadWith reads the configuration from lookuper
func LoadWith(ctx context.Context, lookuper envconfig.Lookuper) (*Config, error) {
	var cfg Config
	err := envconfig.ProcessWith(ctx, &envconfig.Config{
		Target:   &cfg,
		Lookuper: envconfig.PrefixLookuper("LEDGERD_", lookuper),
	})
	if err != nil {
		return nil, err
	}

	return &cfg, nil
}
