// Package engine assembles the trust and referral services over one database connection.
package engine

import (
	"context"
	"fmt"

	"github.com/Neocreb/frontend-eloity-unified-ecosy-sub001/internal/ledger"
	"github.com/Neocreb/frontend-eloity-unified-ecosy-sub001/internal/notify"
	"github.com/Neocreb/frontend-eloity-unified-ecosy-sub001/internal/referrals"
	"github.com/Neocreb/frontend-eloity-unified-ecosy-sub001/internal/rewards"
	"github.com/Neocreb/frontend-eloity-unified-ecosy-sub001/internal/trust"
	"github.com/Neocreb/frontend-eloity-unified-ecosy-sub001/pkg/config"
	"github.com/Neocreb/frontend-eloity-unified-ecosy-sub001/pkg/db"
	"github.com/Neocreb/frontend-eloity-unified-ecosy-sub001/pkg/logger"
	"github.com/Neocreb/frontend-eloity-unified-ecosy-sub001/pkg/metrics"
	"github.com/Neocreb/frontend-eloity-unified-ecosy-sub001/pkg/wallet"
)

// Params carries the shared infrastructure.
type Params struct {
	Config    *config.Config
	DB        *db.Client
	Publisher notify.Publisher
	Metrics   *metrics.EngineMetrics
	Logger    *logger.Logger
	Wallet    referralWallet
}

type referralWallet interface {
	CreditBalance(ctx context.Context, credit wallet.Credit) error
}

// Engine exposes the wired services and the repositories the cron jobs page through.
type Engine struct {
	Ledger       ledger.Service
	Summaries    rewards.Repository
	ReferralRepo referrals.Repository
	Trust        trust.Service
	Referrals    referrals.Service
}

// New wires repositories and services. A nil Wallet falls back to the HTTP client built from
// config, or to a no-op when wallet sync is disabled.
func New(p Params) (*Engine, error) {
	if p.Config == nil {
		return nil, fmt.Errorf("config required")
	}
	if p.DB == nil {
		return nil, fmt.Errorf("database client required")
	}
	conn := p.DB.DB()

	walletClient := p.Wallet
	if walletClient == nil {
		built, err := NewWallet(p.Config)
		if err != nil {
			return nil, err
		}
		walletClient = built
	}

	ledgerRepo := ledger.NewRepository(conn)
	ledgerSvc, err := ledger.NewService(ledgerRepo)
	if err != nil {
		return nil, fmt.Errorf("ledger service: %w", err)
	}
	summaries := rewards.NewRepository(conn)

	trustRepo := trust.NewRepository(conn)
	collector, err := trust.NewCollector(trustRepo, ledgerRepo)
	if err != nil {
		return nil, fmt.Errorf("trust collector: %w", err)
	}

	trustParams := trust.ServiceParams{
		Repo:              trustRepo,
		Summaries:         summaries,
		Collector:         collector,
		Tx:                p.DB,
		Publisher:         p.Publisher,
		Logger:            p.Logger,
		IdempotencyWindow: p.Config.Rewards.TrustIdempotencyWindow,
	}
	referralRepo := referrals.NewRepository(conn)
	autoShare := p.Config.Rewards.DefaultAutoSharePercentage()
	referralParams := referrals.ServiceParams{
		Repo:                referralRepo,
		Ledger:              ledgerSvc,
		Summaries:           summaries,
		Wallet:              walletClient,
		Tx:                  p.DB,
		Publisher:           p.Publisher,
		Logger:              p.Logger,
		CodeAttempts:        p.Config.Rewards.CodeAttempts,
		SignupBonus:         p.Config.Rewards.SignupBonusAmount(),
		DefaultAutoSharePct: &autoShare,
	}
	if p.Metrics != nil {
		trustParams.Metrics = p.Metrics
		referralParams.Metrics = p.Metrics
	}

	trustSvc, err := trust.NewService(trustParams)
	if err != nil {
		return nil, fmt.Errorf("trust service: %w", err)
	}
	referralSvc, err := referrals.NewService(referralParams)
	if err != nil {
		return nil, fmt.Errorf("referral service: %w", err)
	}

	return &Engine{
		Ledger:       ledgerSvc,
		Summaries:    summaries,
		ReferralRepo: referralRepo,
		Trust:        trustSvc,
		Referrals:    referralSvc,
	}, nil
}

// NewWallet builds the wallet client from config.
func NewWallet(cfg *config.Config) (referralWallet, error) {
	if !cfg.FeatureFlags.WalletSync {
		return wallet.Noop{}, nil
	}
	client, err := wallet.NewClient(cfg.Wallet.BaseURL,
		wallet.WithAPIKey(cfg.Wallet.APIKey),
		wallet.WithSource(cfg.Wallet.Source),
		wallet.WithTimeout(cfg.Wallet.Timeout),
	)
	if err != nil {
		return nil, fmt.Errorf("wallet client: %w", err)
	}
	return client, nil
}
