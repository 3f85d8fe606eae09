package storage

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/stockfolio/stockfolio/pkg/portfolio"
)

// SeedDemoPositions fills the positions collection with demo rows when
// it is empty. Positions are a read-only dataset here: nothing computes
// them from orders, so a fresh database would otherwise always serve an
// empty array to the dashboard.
func (s *Store) SeedDemoPositions() error {
	existing, err := s.ListPositions()
	if err != nil {
		return err
	}
	if len(existing) > 0 {
		return nil
	}

	demo := []*portfolio.Position{
		{
			Product: "CNC",
			Name:    "EVEREADY",
			Qty:     2,
			Avg:     decimal.NewFromFloat(316.27),
			Price:   decimal.NewFromFloat(312.35),
			Net:     "+0.58%",
			Day:     "-1.24%",
			IsLoss:  true,
		},
		{
			Product: "CNC",
			Name:    "JUBLFOOD",
			Qty:     1,
			Avg:     decimal.NewFromFloat(3124.75),
			Price:   decimal.NewFromFloat(3082.65),
			Net:     "+10.04%",
			Day:     "-1.35%",
			IsLoss:  true,
		},
	}

	for _, p := range demo {
		p.ID = uuid.NewString()
		if err := s.PutPosition(p); err != nil {
			return fmt.Errorf("seed position %s: %w", p.Name, err)
		}
	}
	return nil
}
