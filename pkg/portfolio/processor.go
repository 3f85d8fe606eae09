package portfolio

import (
	"fmt"
	"sync"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/stockfolio/stockfolio/pkg/util"
)

// Ledger is the append-only store of historical orders.
type Ledger interface {
	// AppendOrder persists a new order record.
	AppendOrder(o *Order) error
	// ListOrders returns all orders, newest first.
	ListOrders() ([]*Order, error)
}

// Holdings is the store of current aggregate positions, one row per
// instrument. Lookups return (nil, nil) when no row exists.
type Holdings interface {
	GetHolding(name string) (*Holding, error)
	PutHolding(h *Holding) error
	DeleteHolding(name string) error
	ListHoldings() ([]*Holding, error)
}

// Processor applies incoming orders: appends to the ledger, then
// reconciles the holdings aggregate for the instrument.
//
// The two writes are separate persistence operations with no atomicity
// between them: once the ledger append succeeds, a holdings failure is
// surfaced but the ledger entry stays. Callers that need strict
// consistency re-derive holdings by replaying the ledger.
type Processor struct {
	ledger   Ledger
	holdings Holdings
	clock    util.Clock

	// locks serializes the read-modify-write sequence per instrument:
	// two concurrent orders for the same name would otherwise both read
	// the pre-update holding and lose one update.
	locks sync.Map // name -> *sync.Mutex

	tsMu   sync.Mutex
	lastTs int64

	// OnOrder, when set, is called after an order is fully applied.
	OnOrder func(o *Order)
}

// NewProcessor wires a processor to its two stores.
func NewProcessor(ledger Ledger, holdings Holdings) *Processor {
	return &Processor{ledger: ledger, holdings: holdings, clock: util.RealClock{}}
}

// NewProcessorWithClock is used by tests that need deterministic timestamps.
func NewProcessorWithClock(ledger Ledger, holdings Holdings, clock util.Clock) *Processor {
	return &Processor{ledger: ledger, holdings: holdings, clock: clock}
}

// PlaceOrder validates, records, and applies one order. Not idempotent:
// retrying after an ambiguous failure may double-record the order.
func (p *Processor) PlaceOrder(name string, qty int64, price decimal.Decimal, mode Side) (*Receipt, error) {
	order := &Order{
		ID:    uuid.NewString(),
		Name:  name,
		Qty:   qty,
		Price: price,
		Mode:  mode,
	}
	if err := order.Validate(); err != nil {
		return nil, err
	}
	order.Timestamp = p.nextTimestamp()

	mu := p.instrumentLock(name)
	mu.Lock()
	defer mu.Unlock()

	// Ledger append comes first, unconditionally. If it fails nothing
	// else happens; if the holdings write below fails the entry is not
	// rolled back.
	if err := p.ledger.AppendOrder(order); err != nil {
		return nil, fmt.Errorf("record order: %w", err)
	}

	if err := p.applyToHoldings(order); err != nil {
		return nil, fmt.Errorf("order %s recorded, holdings update failed: %w", order.ID, err)
	}

	if p.OnOrder != nil {
		p.OnOrder(order)
	}

	return &Receipt{
		OrderID:   order.ID,
		Message:   "Order placed successfully!",
		Timestamp: order.Timestamp,
	}, nil
}

// applyToHoldings runs the reconciliation rule for one recorded order.
// Caller holds the instrument lock.
func (p *Processor) applyToHoldings(o *Order) error {
	existing, err := p.holdings.GetHolding(o.Name)
	if err != nil {
		return err
	}

	switch o.Mode {
	case SideBuy:
		if existing == nil {
			return p.holdings.PutHolding(&Holding{
				ID:   uuid.NewString(),
				Name: o.Name,
				Qty:  o.Qty,
				Avg:  o.Price,
			})
		}
		totalQty := existing.Qty + o.Qty
		cost := existing.Avg.Mul(qtyDec(existing.Qty)).Add(o.Price.Mul(qtyDec(o.Qty)))
		existing.Qty = totalQty
		existing.Avg = cost.Div(qtyDec(totalQty))
		return p.holdings.PutHolding(existing)

	case SideSell:
		if existing == nil {
			// Sell of an unheld instrument: recorded in the ledger,
			// no holdings change.
			return nil
		}
		existing.Qty -= o.Qty
		if existing.Qty <= 0 {
			// Oversell truncates to deletion; any negative remainder
			// is discarded, never carried as a short position.
			return p.holdings.DeleteHolding(o.Name)
		}
		return p.holdings.PutHolding(existing)
	}
	return fmt.Errorf("%w: unknown mode %q", ErrInvalidOrder, o.Mode)
}

// Orders lists all recorded orders, newest first.
func (p *Processor) Orders() ([]*Order, error) {
	return p.ledger.ListOrders()
}

// AllHoldings lists every live holding row.
func (p *Processor) AllHoldings() ([]*Holding, error) {
	return p.holdings.ListHoldings()
}

// DeleteHoldingByID removes the holding whose ID matches, returning
// ErrNotFound when no row carries that identifier.
func (p *Processor) DeleteHoldingByID(id string) error {
	all, err := p.holdings.ListHoldings()
	if err != nil {
		return err
	}
	for _, h := range all {
		if h.ID != id {
			continue
		}
		mu := p.instrumentLock(h.Name)
		mu.Lock()
		defer mu.Unlock()
		return p.holdings.DeleteHolding(h.Name)
	}
	return fmt.Errorf("holding %s: %w", id, ErrNotFound)
}

func qtyDec(q int64) decimal.Decimal { return decimal.NewFromInt(q) }

func (p *Processor) instrumentLock(name string) *sync.Mutex {
	v, _ := p.locks.LoadOrStore(name, &sync.Mutex{})
	return v.(*sync.Mutex)
}

// nextTimestamp returns a Unix-millisecond timestamp that never moves
// backwards across calls, even if the wall clock does.
func (p *Processor) nextTimestamp() int64 {
	p.tsMu.Lock()
	defer p.tsMu.Unlock()
	ts := p.clock.Now().UnixMilli()
	if ts < p.lastTs {
		ts = p.lastTs
	}
	p.lastTs = ts
	return ts
}
