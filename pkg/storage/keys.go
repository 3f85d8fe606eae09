package storage

import "fmt"

// Pebble key schema. One logical collection per prefix:
//
//	ord:<timestamp>:<id> → Order   (timestamp zero-padded for ordering)
//	hold:<name>          → Holding (name is the unique instrument key)
//	pos:<id>             → Position
//	user:<email>         → User
//	sess:<sid>           → Session
//
// Order keys sort chronologically, so a reverse prefix scan yields the
// ledger newest-first without an in-memory sort.

const (
	prefixOrder    = "ord:"
	prefixHolding  = "hold:"
	prefixPosition = "pos:"
	prefixUser     = "user:"
	prefixSession  = "sess:"
)

func orderKey(timestamp int64, id string) []byte {
	return []byte(fmt.Sprintf("%s%020d:%s", prefixOrder, timestamp, id))
}

func holdingKey(name string) []byte {
	return []byte(prefixHolding + name)
}

func positionKey(id string) []byte {
	return []byte(prefixPosition + id)
}

func userKey(email string) []byte {
	return []byte(prefixUser + email)
}

func sessionKey(sid string) []byte {
	return []byte(prefixSession + sid)
}

// keyUpperBound returns the exclusive upper bound for a prefix scan.
func keyUpperBound(prefix []byte) []byte {
	bound := make([]byte, len(prefix))
	copy(bound, prefix)
	bound[len(bound)-1]++
	return bound
}
