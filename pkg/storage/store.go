package storage

import (
	"encoding/json"
	"fmt"

	"github.com/cockroachdb/pebble"

	"github.com/stockfolio/stockfolio/pkg/auth"
	"github.com/stockfolio/stockfolio/pkg/portfolio"
)

// Store is the Pebble-backed document store holding all five
// collections (orders, holdings, positions, users, sessions).
// Values are JSON; see keys.go for the key schema.
type Store struct {
	db *pebble.DB
}

// Open opens (or creates) the database at path.
func Open(path string) (*Store, error) {
	opts := &pebble.Options{
		Cache:        pebble.NewCache(64 << 20),
		MemTableSize: 32 << 20,
		MaxOpenFiles: 1000,
	}
	db, err := pebble.Open(path, opts)
	if err != nil {
		return nil, fmt.Errorf("open pebble db at %s: %w", path, err)
	}
	return &Store{db: db}, nil
}

// Close closes the database.
func (s *Store) Close() error { return s.db.Close() }

var (
	_ portfolio.Ledger   = (*Store)(nil)
	_ portfolio.Holdings = (*Store)(nil)
	_ auth.UserStore     = (*Store)(nil)
	_ auth.SessionStore  = (*Store)(nil)
)

// ==============================
// Order ledger (append-only)
// ==============================

// AppendOrder persists an order record. Orders are never updated or
// deleted afterwards.
func (s *Store) AppendOrder(o *portfolio.Order) error {
	data, err := json.Marshal(o)
	if err != nil {
		return fmt.Errorf("marshal order: %w", err)
	}
	if err := s.db.Set(orderKey(o.Timestamp, o.ID), data, pebble.Sync); err != nil {
		return fmt.Errorf("save order: %w", err)
	}
	return nil
}

// ListOrders returns all orders newest first. Keys embed the zero-padded
// timestamp, so a reverse scan is already recency-sorted.
func (s *Store) ListOrders() ([]*portfolio.Order, error) {
	prefix := []byte(prefixOrder)
	iter, err := s.db.NewIter(&pebble.IterOptions{
		LowerBound: prefix,
		UpperBound: keyUpperBound(prefix),
	})
	if err != nil {
		return nil, fmt.Errorf("scan orders: %w", err)
	}
	defer iter.Close()

	orders := []*portfolio.Order{}
	for iter.Last(); iter.Valid(); iter.Prev() {
		var o portfolio.Order
		if err := json.Unmarshal(iter.Value(), &o); err != nil {
			continue // Skip invalid entries
		}
		orders = append(orders, &o)
	}
	return orders, nil
}

// ==============================
// Holdings
// ==============================

// GetHolding loads the holding row for an instrument, or nil if the
// instrument is unheld.
func (s *Store) GetHolding(name string) (*portfolio.Holding, error) {
	data, closer, err := s.db.Get(holdingKey(name))
	if err == pebble.ErrNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get holding: %w", err)
	}
	defer closer.Close()

	var h portfolio.Holding
	if err := json.Unmarshal(data, &h); err != nil {
		return nil, fmt.Errorf("unmarshal holding: %w", err)
	}
	return &h, nil
}

// PutHolding creates or replaces the holding row for an instrument.
func (s *Store) PutHolding(h *portfolio.Holding) error {
	data, err := json.Marshal(h)
	if err != nil {
		return fmt.Errorf("marshal holding: %w", err)
	}
	if err := s.db.Set(holdingKey(h.Name), data, pebble.Sync); err != nil {
		return fmt.Errorf("save holding: %w", err)
	}
	return nil
}

// DeleteHolding removes the holding row for an instrument.
func (s *Store) DeleteHolding(name string) error {
	if err := s.db.Delete(holdingKey(name), pebble.Sync); err != nil {
		return fmt.Errorf("delete holding: %w", err)
	}
	return nil
}

// ListHoldings returns every live holding row.
func (s *Store) ListHoldings() ([]*portfolio.Holding, error) {
	prefix := []byte(prefixHolding)
	iter, err := s.db.NewIter(&pebble.IterOptions{
		LowerBound: prefix,
		UpperBound: keyUpperBound(prefix),
	})
	if err != nil {
		return nil, fmt.Errorf("scan holdings: %w", err)
	}
	defer iter.Close()

	holdings := []*portfolio.Holding{}
	for iter.First(); iter.Valid(); iter.Next() {
		var h portfolio.Holding
		if err := json.Unmarshal(iter.Value(), &h); err != nil {
			continue
		}
		holdings = append(holdings, &h)
	}
	return holdings, nil
}

// ==============================
// Positions (read-only collaborator data)
// ==============================

// PutPosition stores a position row (seeding and imports only; nothing
// in the request path writes positions).
func (s *Store) PutPosition(p *portfolio.Position) error {
	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("marshal position: %w", err)
	}
	if err := s.db.Set(positionKey(p.ID), data, pebble.Sync); err != nil {
		return fmt.Errorf("save position: %w", err)
	}
	return nil
}

// ListPositions returns all position rows.
func (s *Store) ListPositions() ([]*portfolio.Position, error) {
	prefix := []byte(prefixPosition)
	iter, err := s.db.NewIter(&pebble.IterOptions{
		LowerBound: prefix,
		UpperBound: keyUpperBound(prefix),
	})
	if err != nil {
		return nil, fmt.Errorf("scan positions: %w", err)
	}
	defer iter.Close()

	positions := []*portfolio.Position{}
	for iter.First(); iter.Valid(); iter.Next() {
		var p portfolio.Position
		if err := json.Unmarshal(iter.Value(), &p); err != nil {
			continue
		}
		positions = append(positions, &p)
	}
	return positions, nil
}

// ==============================
// Users
// ==============================

// GetUser loads a user by email, or nil if unregistered.
func (s *Store) GetUser(email string) (*auth.User, error) {
	data, closer, err := s.db.Get(userKey(email))
	if err == pebble.ErrNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	defer closer.Close()

	var u auth.User
	if err := json.Unmarshal(data, &u); err != nil {
		return nil, fmt.Errorf("unmarshal user: %w", err)
	}
	return &u, nil
}

// PutUser creates or replaces a user record.
func (s *Store) PutUser(u *auth.User) error {
	data, err := json.Marshal(u)
	if err != nil {
		return fmt.Errorf("marshal user: %w", err)
	}
	if err := s.db.Set(userKey(u.Email), data, pebble.Sync); err != nil {
		return fmt.Errorf("save user: %w", err)
	}
	return nil
}

// ==============================
// Sessions
// ==============================

// GetSession loads a session by ID, or nil if unknown.
func (s *Store) GetSession(sid string) (*auth.Session, error) {
	data, closer, err := s.db.Get(sessionKey(sid))
	if err == pebble.ErrNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get session: %w", err)
	}
	defer closer.Close()

	var sess auth.Session
	if err := json.Unmarshal(data, &sess); err != nil {
		return nil, fmt.Errorf("unmarshal session: %w", err)
	}
	return &sess, nil
}

// PutSession creates or replaces a session record.
func (s *Store) PutSession(sess *auth.Session) error {
	data, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}
	if err := s.db.Set(sessionKey(sess.ID), data, pebble.Sync); err != nil {
		return fmt.Errorf("save session: %w", err)
	}
	return nil
}

// DeleteSession removes a session record.
func (s *Store) DeleteSession(sid string) error {
	if err := s.db.Delete(sessionKey(sid), pebble.Sync); err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	return nil
}
