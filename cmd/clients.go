package main

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/alamesa/catalog-cli/internal/model"
	"github.com/alamesa/catalog-cli/internal/store"
	"github.com/alamesa/catalog-cli/pkg/vtex"
)

// accountClients holds the per-run client pair: catalog reads go through
// the marketplace scope, price and stock through the seller's own.
type accountClients struct {
	seller      *model.Account
	marketplace *model.Account

	marketplaceClient *vtex.Client
	sellerClient      *vtex.Client
}

// initClients resolves the seller and its marketplace account and builds
// one client per credential scope. The connection pool is sized to the
// export worker count so a full fan-out never stalls on pool starvation.
func initClients(accountName string) (*accountClients, error) {
	seller, err := cfg.Account(accountName)
	if err != nil {
		return nil, err
	}
	marketplace, err := cfg.Marketplace(seller)
	if err != nil {
		return nil, err
	}

	vcfg := cfg.VTEX
	if vcfg.MaxConns < cfg.Export.Workers {
		vcfg.MaxConns = cfg.Export.Workers
	}

	return &accountClients{
		seller:            seller,
		marketplace:       marketplace,
		marketplaceClient: vtex.New(marketplace.AccountName, marketplace.AppKey, marketplace.AppToken, vcfg),
		sellerClient:      vtex.New(seller.AccountName, seller.AppKey, seller.AppToken, vcfg),
	}, nil
}

// logAccounts records on the task which seller and marketplace the run
// targets, mirroring the first lines operators expect in every task log.
func logAccounts(ctx context.Context, st store.Store, taskID string, clients *accountClients) {
	appendLog := func(msg string) {
		if err := st.AppendTaskLog(ctx, taskID, msg); err != nil {
			zap.L().Warn("append task log failed", zap.String("task_id", taskID), zap.Error(err))
		}
	}
	appendLog(fmt.Sprintf("Seller: %s (%s)", clients.seller.Name, clients.seller.AccountName))
	if clients.marketplace.AccountName != clients.seller.AccountName {
		appendLog(fmt.Sprintf("Marketplace madre: %s (%s)", clients.marketplace.Name, clients.marketplace.AccountName))
	}
}
