package service

import (
	"context"
	"fmt"

	"stockledger/internal/repository"
)

// Dashboard is the chart payload served to the frontend: available stock
// per product (bar), sold quantity per product (line), and purchased
// quantity per product (donut).
type Dashboard struct {
	Labels      []string  `json:"labels"`
	Data        []float64 `json:"data"`
	SalesLabels []string  `json:"sales_labels"`
	SalesData   []float64 `json:"sales_data"`
	DonutLabel  []string  `json:"donut_label"`
	DonutData   []float64 `json:"donut_data"`
}

// ReportService builds aggregate views over the ledger for reporting.
type ReportService interface {
	Dashboard(ctx context.Context) (*Dashboard, error)
}

type reportService struct {
	ledgerRepo repository.LedgerRepository
}

// NewReportService creates a new instance of ReportService
func NewReportService(ledgerRepo repository.LedgerRepository) ReportService {
	return &reportService{ledgerRepo: ledgerRepo}
}

// Dashboard aggregates availability, sold and purchased quantities per
// product from the ledger enumerations.
func (s *reportService) Dashboard(ctx context.Context) (*Dashboard, error) {
	levels, err := s.ledgerRepo.StockSummary(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to build stock chart: %w", err)
	}

	purchases, err := s.ledgerRepo.ListPurchases(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to build purchases chart: %w", err)
	}

	sales, err := s.ledgerRepo.ListSalesWithLines(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to build sales chart: %w", err)
	}

	purchasedByProduct := make(map[int64]float64)
	for _, p := range purchases {
		purchasedByProduct[p.ProductID] += p.Quantity
	}

	soldByProduct := make(map[int64]float64)
	for _, sale := range sales {
		for _, line := range sale.Lines {
			soldByProduct[line.ProductID] += line.Quantity
		}
	}

	dashboard := &Dashboard{
		Labels:      []string{},
		Data:        []float64{},
		SalesLabels: []string{},
		SalesData:   []float64{},
		DonutLabel:  []string{},
		DonutData:   []float64{},
	}

	// One entry per product in catalog order, charts aligned by index.
	for _, level := range levels {
		dashboard.Labels = append(dashboard.Labels, level.Name)
		dashboard.Data = append(dashboard.Data, level.AvailableQuantity)
		dashboard.SalesLabels = append(dashboard.SalesLabels, level.Name)
		dashboard.SalesData = append(dashboard.SalesData, soldByProduct[level.ProductID])
		dashboard.DonutLabel = append(dashboard.DonutLabel, level.Name)
		dashboard.DonutData = append(dashboard.DonutData, purchasedByProduct[level.ProductID])
	}

	return dashboard, nil
}
