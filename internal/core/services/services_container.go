package services

import (
	"fmt"

	"github.com/SscSPs/balance_service/internal/core/coordinator"
	portsrepo "github.com/SscSPs/balance_service/internal/core/ports/repositories"
	portssvc "github.com/SscSPs/balance_service/internal/core/ports/services"
	"github.com/SscSPs/balance_service/internal/platform/config"
	"github.com/bwmarrin/snowflake"
)

// NewServiceContainer creates a new service container with properly initialized dependencies
func NewServiceContainer(cfg *config.Config, repos portsrepo.RepositoryProvider) (*portssvc.ServiceContainer, error) {
	ids, err := snowflake.NewNode(cfg.SnowflakeNodeID)
	if err != nil {
		return nil, fmt.Errorf("failed to create transfer id generator: %w", err)
	}

	coord := coordinator.New(coordinator.Config{
		MaxAttempts:     cfg.LedgerMaxAttempts,
		InitialInterval: cfg.LedgerRetryInitialInterval,
		MaxInterval:     cfg.LedgerRetryMaxInterval,
	})

	return &portssvc.ServiceContainer{
		Account: NewAccountService(repos.AccountRepo),
		Ledger:  NewLedgerService(repos, coord, ids, WithOperationTimeout(cfg.LedgerOperationTimeout)),
		Auth:    NewAuthService(cfg, repos.AccountRepo),
	}, nil
}
