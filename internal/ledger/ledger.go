package ledger

import "sort"

// Ledger is an immutable, per-user-ordered collection of transactions.
// Within a user, transactions are sorted by date ascending; ties keep input
// order, which running-balance features depend on.
type Ledger struct {
	txns []Transaction

	// StatusKnown is false when the input had no status column. In that
	// degraded mode every transaction is treated as Success and all
	// status-dependent counts come out 0.
	StatusKnown bool
}

// New builds a Ledger from raw transactions, stably sorting each user's
// records by date.
func New(txns []Transaction, statusKnown bool) *Ledger {
	sorted := make([]Transaction, len(txns))
	copy(sorted, txns)
	sort.SliceStable(sorted, func(i, j int) bool {
		if sorted[i].UserID != sorted[j].UserID {
			return sorted[i].UserID < sorted[j].UserID
		}
		return sorted[i].Date.Before(sorted[j].Date)
	})
	return &Ledger{txns: sorted, StatusKnown: statusKnown}
}

// Len returns the total transaction count.
func (l *Ledger) Len() int { return len(l.txns) }

// Users returns the distinct user IDs in ascending order.
func (l *Ledger) Users() []string {
	users := make([]string, 0)
	for i, t := range l.txns {
		if i == 0 || t.UserID != l.txns[i-1].UserID {
			users = append(users, t.UserID)
		}
	}
	return users
}

// Partition splits the ledger into disjoint per-user transaction slices.
// The slices share the Ledger's backing array and must not be mutated.
func (l *Ledger) Partition() map[string][]Transaction {
	out := make(map[string][]Transaction)
	start := 0
	for i := 1; i <= len(l.txns); i++ {
		if i == len(l.txns) || l.txns[i].UserID != l.txns[start].UserID {
			out[l.txns[start].UserID] = l.txns[start:i:i]
			start = i
		}
	}
	return out
}

// User returns the ordered transactions for one user (nil if unknown).
func (l *Ledger) User(id string) []Transaction {
	return l.Partition()[id]
}

// ProfileIndex keys profiles by user ID. Missing users resolve to the zero
// Profile.
type ProfileIndex map[string]Profile

// NewProfileIndex builds an index from profile records. Later records for
// the same user win.
func NewProfileIndex(profiles []Profile) ProfileIndex {
	idx := make(ProfileIndex, len(profiles))
	for _, p := range profiles {
		idx[p.UserID] = p
	}
	return idx
}

// Lookup returns the profile for a user, or the zero Profile.
func (idx ProfileIndex) Lookup(userID string) Profile {
	return idx[userID]
}
