package main

import (
	"context"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"crypto/x509"
	"encoding/pem"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/layer-3/taskchain/adapters/store"
	"github.com/layer-3/taskchain/adapters/tokenizer"
	"github.com/layer-3/taskchain/devledger"
	"github.com/layer-3/taskchain/log"
	"github.com/layer-3/taskchain/ports"
	ledgerhttp "github.com/layer-3/taskchain/transport/http"
	"github.com/redis/go-redis/v9"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "ledgerd: %v\n", err)
		os.Exit(1)
	}
}

func run(ctx context.Context) error {
	cfg, err := devledger.Load(ctx)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	logger := log.New("ledgerd", log.ParseLevel(cfg.LogLevel))

	signKey, err := loadSigningKey(cfg.SigningKeyFile)
	if err != nil {
		return err
	}

	var revocations ports.Store
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return fmt.Errorf("failed to parse redis url: %w", err)
		}
		redisClient := redis.NewClient(opts)
		defer redisClient.Close()
		revocations = store.NewRedisStore(redisClient)
	} else {
		revocations = store.NewMemoryStore()
	}

	ledger := devledger.New(devledger.Options{
		Tokenizer:          tokenizer.NewJWTTokenizer(signKey),
		Store:              revocations,
		ChallengeTTL:       cfg.ChallengeTTL,
		MaxSessionTTL:      cfg.MaxSessionTTL,
		MaxAuthDescriptors: cfg.MaxAuthDescriptors,
		Logger:             logger,
	})

	srv := &http.Server{
		Addr:    cfg.ListenAddr,
		Handler: ledgerhttp.SetupRouter(ledger, cfg.BlockchainRID, logger),
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Info("ledger node listening", "addr", cfg.ListenAddr, "blockchain_rid", cfg.BlockchainRID)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// loadSigningKey reads a PEM P-256 key, or generates one that lives as long as the process
func loadSigningKey(path string) (*ecdsa.PrivateKey, error) {
	if path == "" {
		return ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read signing key: %w", err)
	}
	block, _ := pem.Decode(raw)
	if block == nil {
		return nil, errors.New("signing key file holds no PEM block")
	}

	key, err := x509.ParseECPrivateKey(block.Bytes)
	if err != nil {
		return nil, fmt.Errorf("failed to parse signing key: %w", err)
	}
	return key, nil
}
