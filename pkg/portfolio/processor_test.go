package portfolio

import (
	"errors"
	"sort"
	"sync"
	"testing"

	"github.com/shopspring/decimal"
)

// memStore is an in-memory Ledger + Holdings with failure injection.
// GetHolding returns a copy, like a real store, so lost updates are
// observable if the processor ever drops its per-instrument lock.
type memStore struct {
	mu       sync.Mutex
	orders   []*Order
	holdings map[string]*Holding

	failAppend bool
	failPut    bool
}

var errStoreDown = errors.New("store unavailable")

func newMemStore() *memStore {
	return &memStore{holdings: make(map[string]*Holding)}
}

func (m *memStore) AppendOrder(o *Order) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failAppend {
		return errStoreDown
	}
	cp := *o
	m.orders = append(m.orders, &cp)
	return nil
}

func (m *memStore) ListOrders() ([]*Order, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	// Newest first, stable for equal timestamps (reverse insertion order)
	out := make([]*Order, 0, len(m.orders))
	for i := len(m.orders) - 1; i >= 0; i-- {
		cp := *m.orders[i]
		out = append(out, &cp)
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Timestamp > out[j].Timestamp })
	return out, nil
}

func (m *memStore) GetHolding(name string) (*Holding, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	h, ok := m.holdings[name]
	if !ok {
		return nil, nil
	}
	cp := *h
	return &cp, nil
}

func (m *memStore) PutHolding(h *Holding) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failPut {
		return errStoreDown
	}
	cp := *h
	m.holdings[h.Name] = &cp
	return nil
}

func (m *memStore) DeleteHolding(name string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.holdings, name)
	return nil
}

func (m *memStore) ListHoldings() ([]*Holding, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []*Holding{}
	for _, h := range m.holdings {
		cp := *h
		out = append(out, &cp)
	}
	return out, nil
}

func dec(s string) decimal.Decimal { return decimal.RequireFromString(s) }

func mustPlace(t *testing.T, p *Processor, name string, qty int64, price string, mode Side) *Receipt {
	t.Helper()
	r, err := p.PlaceOrder(name, qty, dec(price), mode)
	if err != nil {
		t.Fatalf("PlaceOrder(%s %d@%s %s): %v", name, qty, price, mode, err)
	}
	return r
}

func holding(t *testing.T, m *memStore, name string) *Holding {
	t.Helper()
	h, err := m.GetHolding(name)
	if err != nil {
		t.Fatalf("GetHolding(%s): %v", name, err)
	}
	return h
}

func TestBuyCreatesHolding(t *testing.T) {
	m := newMemStore()
	p := NewProcessor(m, m)

	rcpt := mustPlace(t, p, "INFY", 10, "1500.50", SideBuy)
	if rcpt.OrderID == "" {
		t.Error("receipt missing order id")
	}

	h := holding(t, m, "INFY")
	if h == nil {
		t.Fatal("holding not created")
	}
	if h.Qty != 10 {
		t.Errorf("qty = %d, want 10", h.Qty)
	}
	if !h.Avg.Equal(dec("1500.50")) {
		t.Errorf("avg = %s, want 1500.50", h.Avg)
	}
}

func TestBuyRecomputesWeightedAverage(t *testing.T) {
	m := newMemStore()
	p := NewProcessor(m, m)

	// BUY 10 @ 100 then BUY 5 @ 200 → qty 15, avg (10*100+5*200)/15
	mustPlace(t, p, "TCS", 10, "100", SideBuy)
	mustPlace(t, p, "TCS", 5, "200", SideBuy)

	h := holding(t, m, "TCS")
	if h.Qty != 15 {
		t.Errorf("qty = %d, want 15", h.Qty)
	}
	want := dec("2000").Div(dec("15"))
	if !h.Avg.Equal(want) {
		t.Errorf("avg = %s, want %s", h.Avg, want)
	}
	if got := h.Avg.Round(2); !got.Equal(dec("133.33")) {
		t.Errorf("avg rounded = %s, want 133.33", got)
	}
}

func TestAverageIsWeightedMeanOfAllBuys(t *testing.T) {
	m := newMemStore()
	p := NewProcessor(m, m)

	qtys := []int64{3, 7, 1, 9, 4}
	prices := []string{"11.5", "13.25", "9.75", "12", "10.1"}

	totalQty := int64(0)
	totalCost := decimal.Zero
	for i, q := range qtys {
		mustPlace(t, p, "WIPRO", q, prices[i], SideBuy)
		totalQty += q
		totalCost = totalCost.Add(dec(prices[i]).Mul(decimal.NewFromInt(q)))
	}

	h := holding(t, m, "WIPRO")
	if h.Qty != totalQty {
		t.Errorf("qty = %d, want %d", h.Qty, totalQty)
	}
	want := totalCost.Div(decimal.NewFromInt(totalQty))
	if !h.Avg.Equal(want) {
		t.Errorf("avg = %s, want %s", h.Avg, want)
	}
}

func TestPartialSellKeepsAverage(t *testing.T) {
	m := newMemStore()
	p := NewProcessor(m, m)

	mustPlace(t, p, "SBIN", 10, "100", SideBuy)
	mustPlace(t, p, "SBIN", 5, "200", SideBuy)
	avgBefore := holding(t, m, "SBIN").Avg

	mustPlace(t, p, "SBIN", 6, "180", SideSell)

	h := holding(t, m, "SBIN")
	if h.Qty != 9 {
		t.Errorf("qty = %d, want 9", h.Qty)
	}
	if !h.Avg.Equal(avgBefore) {
		t.Errorf("avg changed on partial sell: %s → %s", avgBefore, h.Avg)
	}
}

func TestSellToZeroDeletesHolding(t *testing.T) {
	m := newMemStore()
	p := NewProcessor(m, m)

	mustPlace(t, p, "ZOMATO", 10, "100", SideBuy)
	mustPlace(t, p, "ZOMATO", 5, "200", SideBuy)
	mustPlace(t, p, "ZOMATO", 15, "150", SideSell)

	if h := holding(t, m, "ZOMATO"); h != nil {
		t.Errorf("holding row still present: %+v", h)
	}
	orders, _ := m.ListOrders()
	if len(orders) != 3 {
		t.Errorf("ledger has %d orders, want 3", len(orders))
	}
}

func TestOversellTruncatesToDeletion(t *testing.T) {
	m := newMemStore()
	p := NewProcessor(m, m)

	mustPlace(t, p, "IDEA", 10, "12", SideBuy)
	// Oversell: remainder is discarded, never carried as a short.
	mustPlace(t, p, "IDEA", 25, "13", SideSell)

	if h := holding(t, m, "IDEA"); h != nil {
		t.Errorf("expected deletion on oversell, got %+v", h)
	}
}

func TestSellUnheldRecordsOrderOnly(t *testing.T) {
	m := newMemStore()
	p := NewProcessor(m, m)

	rcpt := mustPlace(t, p, "GHOST", 5, "42", SideSell)
	if rcpt.OrderID == "" {
		t.Error("receipt missing order id")
	}

	orders, _ := m.ListOrders()
	if len(orders) != 1 {
		t.Fatalf("ledger has %d orders, want 1", len(orders))
	}
	all, _ := m.ListHoldings()
	if len(all) != 0 {
		t.Errorf("holdings set changed: %+v", all)
	}
}

func TestInvalidOrderHasNoSideEffect(t *testing.T) {
	m := newMemStore()
	p := NewProcessor(m, m)

	cases := []struct {
		name  string
		inst  string
		qty   int64
		price string
		mode  Side
	}{
		{"zero qty", "INFY", 0, "100", SideBuy},
		{"negative qty", "INFY", -3, "100", SideBuy},
		{"zero price", "INFY", 10, "0", SideBuy},
		{"negative price", "INFY", 10, "-5", SideSell},
		{"empty instrument", "", 10, "100", SideBuy},
		{"unknown mode", "INFY", 10, "100", Side("HOLD")},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := p.PlaceOrder(tc.inst, tc.qty, dec(tc.price), tc.mode)
			if !errors.Is(err, ErrInvalidOrder) {
				t.Errorf("err = %v, want ErrInvalidOrder", err)
			}
		})
	}

	orders, _ := m.ListOrders()
	if len(orders) != 0 {
		t.Errorf("ledger mutated by invalid orders: %d entries", len(orders))
	}
	all, _ := m.ListHoldings()
	if len(all) != 0 {
		t.Errorf("holdings mutated by invalid orders: %+v", all)
	}
}

func TestLedgerFailureLeavesHoldingsUntouched(t *testing.T) {
	m := newMemStore()
	p := NewProcessor(m, m)
	m.failAppend = true

	_, err := p.PlaceOrder("INFY", 10, dec("100"), SideBuy)
	if !errors.Is(err, errStoreDown) {
		t.Fatalf("err = %v, want store error", err)
	}
	all, _ := m.ListHoldings()
	if len(all) != 0 {
		t.Errorf("holdings mutated after failed ledger write: %+v", all)
	}
}

func TestHoldingsFailureKeepsLedgerEntry(t *testing.T) {
	m := newMemStore()
	p := NewProcessor(m, m)
	m.failPut = true

	_, err := p.PlaceOrder("INFY", 10, dec("100"), SideBuy)
	if !errors.Is(err, errStoreDown) {
		t.Fatalf("err = %v, want store error", err)
	}

	// No rollback: the order stays recorded even though the holdings
	// write failed.
	orders, _ := m.ListOrders()
	if len(orders) != 1 {
		t.Errorf("ledger has %d orders, want 1", len(orders))
	}
}

func TestDeleteHoldingByID(t *testing.T) {
	m := newMemStore()
	p := NewProcessor(m, m)

	mustPlace(t, p, "INFY", 10, "100", SideBuy)
	h := holding(t, m, "INFY")

	if err := p.DeleteHoldingByID(h.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if got := holding(t, m, "INFY"); got != nil {
		t.Errorf("holding still present after delete: %+v", got)
	}

	err := p.DeleteHoldingByID("no-such-id")
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("err = %v, want ErrNotFound", err)
	}
}

func TestOrderTimestampsNonDecreasing(t *testing.T) {
	m := newMemStore()
	p := NewProcessor(m, m)

	for i := 0; i < 20; i++ {
		mustPlace(t, p, "INFY", 1, "100", SideBuy)
	}

	var last int64
	for _, o := range m.orders {
		if o.Timestamp < last {
			t.Fatalf("timestamp went backwards: %d after %d", o.Timestamp, last)
		}
		last = o.Timestamp
	}
}

func TestConcurrentSameInstrumentBuys(t *testing.T) {
	m := newMemStore()
	p := NewProcessor(m, m)

	const n = 50
	var wg sync.WaitGroup
	wg.Add(n)
	for i := 0; i < n; i++ {
		go func() {
			defer wg.Done()
			if _, err := p.PlaceOrder("RELIANCE", 1, dec("10"), SideBuy); err != nil {
				t.Errorf("PlaceOrder: %v", err)
			}
		}()
	}
	wg.Wait()

	h := holding(t, m, "RELIANCE")
	if h == nil {
		t.Fatal("holding not created")
	}
	if h.Qty != n {
		t.Errorf("qty = %d, want %d (lost update)", h.Qty, n)
	}
	if !h.Avg.Equal(dec("10")) {
		t.Errorf("avg = %s, want 10", h.Avg)
	}
}

func TestListHoldingsIdempotent(t *testing.T) {
	m := newMemStore()
	p := NewProcessor(m, m)

	mustPlace(t, p, "A", 1, "10", SideBuy)
	mustPlace(t, p, "B", 2, "20", SideBuy)

	first, err := p.AllHoldings()
	if err != nil {
		t.Fatal(err)
	}
	for i := 0; i < 5; i++ {
		again, err := p.AllHoldings()
		if err != nil {
			t.Fatal(err)
		}
		if len(again) != len(first) {
			t.Fatalf("listing changed with no writes: %d vs %d", len(again), len(first))
		}
	}
}
