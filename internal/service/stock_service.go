package service

import (
	"context"
	"errors"
	"fmt"

	"stockledger/internal/domain"
	"stockledger/internal/repository"
)

var (
	ErrEmptySale = errors.New("sale must contain at least one item")
)

// StockService is the stock engine: it derives available quantity from
// the purchase/sale ledger and gates sale admission against it.
type StockService interface {
	Available(ctx context.Context, productID int64) (float64, error)
	RecordSale(ctx context.Context, lines []domain.SaleLineRequest) (*domain.SaleReceipt, error)
	RecordPurchase(ctx context.Context, productID int64, quantity float64) (*domain.Purchase, error)
	StockSummary(ctx context.Context) ([]*domain.StockLevel, error)
	ListSales(ctx context.Context) ([]*domain.Sale, error)
	ListPurchases(ctx context.Context) ([]*domain.Purchase, error)
}

type stockService struct {
	ledgerRepo repository.LedgerRepository
}

// NewStockService creates a new instance of StockService
func NewStockService(ledgerRepo repository.LedgerRepository) StockService {
	return &stockService{ledgerRepo: ledgerRepo}
}

// Available returns purchased-minus-sold for a product, read from a
// single consistent snapshot of the ledger.
func (s *stockService) Available(ctx context.Context, productID int64) (float64, error) {
	avail, err := s.ledgerRepo.Available(ctx, productID)
	if err != nil {
		return 0, fmt.Errorf("failed to compute available stock: %w", err)
	}
	return avail, nil
}

// RecordSale validates a batch of sale lines and, if every line is
// admissible, persists the sale atomically. Lines are checked in input
// order against a per-product running-available figure so a later line
// for the same product sees stock already claimed by an earlier one.
// The ledger store re-runs the same admission check inside its
// serializable transaction, so a concurrent sale admitted between this
// pass and the commit still cannot oversell.
//
// Any rejected line rejects the whole batch; nothing is persisted.
func (s *stockService) RecordSale(ctx context.Context, lines []domain.SaleLineRequest) (*domain.SaleReceipt, error) {
	if len(lines) == 0 {
		return nil, ErrEmptySale
	}

	running := make(map[int64]float64)
	for _, line := range lines {
		if line.Quantity <= 0 {
			return nil, repository.ErrInvalidQuantity
		}

		avail, ok := running[line.ProductID]
		if !ok {
			var err error
			avail, err = s.ledgerRepo.Available(ctx, line.ProductID)
			if err != nil {
				return nil, err
			}
		}

		if avail <= 0 {
			return nil, &domain.OutOfStockError{ProductID: line.ProductID}
		}
		if line.Quantity > avail {
			return nil, &domain.InsufficientStockError{
				ProductID: line.ProductID,
				Requested: line.Quantity,
				Available: avail,
			}
		}

		running[line.ProductID] = avail - line.Quantity
	}

	receipt, err := s.ledgerRepo.CreateSaleWithLines(ctx, lines)
	if err != nil {
		return nil, err
	}

	return receipt, nil
}

// RecordPurchase appends a purchase, increasing availability. Zero and
// negative quantities are rejected: a negative purchase would silently
// reduce availability.
func (s *stockService) RecordPurchase(ctx context.Context, productID int64, quantity float64) (*domain.Purchase, error) {
	if quantity <= 0 {
		return nil, repository.ErrInvalidQuantity
	}

	purchase, err := s.ledgerRepo.CreatePurchase(ctx, productID, quantity)
	if err != nil {
		return nil, err
	}

	return purchase, nil
}

// StockSummary reports availability for every product, including those
// with no recorded activity.
func (s *stockService) StockSummary(ctx context.Context) ([]*domain.StockLevel, error) {
	return s.ledgerRepo.StockSummary(ctx)
}

// ListSales enumerates historical sales with their lines.
func (s *stockService) ListSales(ctx context.Context) ([]*domain.Sale, error) {
	return s.ledgerRepo.ListSalesWithLines(ctx)
}

// ListPurchases enumerates historical purchases.
func (s *stockService) ListPurchases(ctx context.Context) ([]*domain.Purchase, error) {
	return s.ledgerRepo.ListPurchases(ctx)
}
