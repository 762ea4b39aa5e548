package services

import (
	"context"

	"github.com/proudcore/economy_ledger/internal/core/domain"
	portsrepo "github.com/proudcore/economy_ledger/internal/core/ports/repositories"
	portssvc "github.com/proudcore/economy_ledger/internal/core/ports/services"
)

// NewServiceContainer wires the catalog, balance store, transaction ledger and
// operation engine together. The engine is constructed once here and injected
// into collaborators; there is no ambient global instance.
func NewServiceContainer(ctx context.Context, currencies []domain.Currency, repos portsrepo.RepositoryProvider) (*portssvc.ServiceContainer, error) {
	catalog, err := NewCurrencyCatalog(currencies)
	if err != nil {
		return nil, err
	}

	ledger, err := NewTransactionLedger(ctx, repos.Transaction)
	if err != nil {
		return nil, err
	}

	store := NewBalanceStore(catalog, repos.Balance)

	return &portssvc.ServiceContainer{
		Catalog: catalog,
		Economy: NewEconomyService(catalog, store, ledger),
	}, nil
}
