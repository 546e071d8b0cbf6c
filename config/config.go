package config

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/layer-3/taskchain/core"
	"github.com/sethvargo/go-envconfig"
)

type Wallet struct {
	PrivateKey  string `env:"PRIVATE_KEY"` // Hex secp256k1 key
	KeyFile     string `env:"KEY_FILE"`    // Encrypted V3 keystore file
	Passphrase  string `env:"PASSPHRASE"`
	AutoApprove bool   `env:"AUTO_APPROVE, default=false"` // Skip the account access prompt
}

type Ledger struct {
	NodeURLPool   []string `env:"NODE_URL_POOL, default=http://localhost:7740"`
	BlockchainRID string   `env:"BLOCKCHAIN_RID, default=D2215C73F242D307DBE10C0AE58A14425428420DAEB0514ED5669204252B030E"`
}

type Session struct {
	TTL   time.Duration `env:"TTL, default=2h"`
	Flags []string      `env:"FLAGS, default=MySession"`
	Eager bool          `env:"EAGER_AUTH, default=false"` // Authenticate at startup
}

type Tasks struct {
	RefreshInterval time.Duration `env:"REFRESH_INTERVAL, default=10s"`
	PageSize        int           `env:"PAGE_SIZE, default=10"`
}

type Config struct {
	ListenAddr string  `env:"LISTEN_ADDR, default=127.0.0.1:3000"`
	Wallet     Wallet  `env:",prefix=WALLET_"`
	Ledger     Ledger  `env:",prefix=LEDGER_"`
	Session    Session `env:",prefix=SESSION_"`
	Tasks      Tasks   `env:",prefix=TASKS_"`
	RedisURL   string  `env:"REDIS_URL"` // Session events go to a redis stream when set
	LogLevel   string  `env:"LOG_LEVEL, default=info"`
}

// SessionConfig is the ledger session configuration of the client
func (c *Config) SessionConfig() core.SessionConfig {
	return core.SessionConfig{TTL: c.Session.TTL, Flags: c.Session.Flags}
}

// Load reads TASKCHAIN_* variables
func Load(ctx context.Context) (*Config, error) {
	return LoadWith(ctx, envconfig.OsLookuper())
}

// LoadWith reads TASKCHAIN_* variables from lookuper
func LoadWith(ctx context.Context, lookuper envconfig.Lookuper) (*Config, error) {
	var cfg Config
	err := envconfig.ProcessWith(ctx, &envconfig.Config{
		Target:   &cfg,
		Lookuper: envconfig.PrefixLookuper("TASKCHAIN_", lookuper),
	})
	if err != nil {
		return nil, err
	}

	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	var pool []string
	for _, node := range c.Ledger.NodeURLPool {
		if node = strings.TrimSpace(node); node != "" {
			pool = append(pool, node)
		}
	}
	c.Ledger.NodeURLPool = pool

	if len(pool) == 0 {
		return errors.New("config: ledger node url pool is empty")
	}
	if c.Session.TTL <= 0 {
		return errors.New("config: session ttl must be positive")
	}
	if c.Tasks.RefreshInterval <= 0 {
		return errors.New("config: refresh interval must be positive")
	}
	if c.Tasks.PageSize <= 0 {
		return errors.New("config: page size must be positive")
	}
	return nil
}
