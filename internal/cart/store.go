// Package cart implements the local-first shopping cart: an in-memory
// store persisted to durable session storage, optionally mirrored to a
// server-side table keyed by user.
//
// Every mutation applies locally and synchronously first; when a user
// id is supplied the matching mirror write is enqueued on a best-effort
// outbox. The local cart is the source of truth for the current
// session, so mirror failures are logged and never rolled back.
package cart

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"
)

// HydrationState tracks loading of the durable cart document.
type HydrationState int

const (
	StateUninitialized HydrationState = iota
	StateHydrating
	StateHydrated
)

type Store struct {
	mu      sync.Mutex
	items   []Item
	state   HydrationState
	dirty   bool // mutated before hydration finished
	storage Storage
	mirror  Mirror
	outbox  *Outbox
	subs    []func([]Item)
	now     func() time.Time
}

func NewStore(storage Storage, mirror Mirror, outbox *Outbox) *Store {
	return &Store{
		storage: storage,
		mirror:  mirror,
		outbox:  outbox,
		now:     time.Now,
	}
}

// Hydrate loads the persisted cart document. A corrupt or unreadable
// document resets to an empty cart; hydration always completes so reads
// gated on Hydrated unblock. Mutations that landed while hydrating win
// over the persisted document.
func (s *Store) Hydrate() {
	s.mu.Lock()
	if s.state != StateUninitialized {
		s.mu.Unlock()
		return
	}
	s.state = StateHydrating
	s.mu.Unlock()

	items, err := s.storage.Load()
	if err != nil {
		log.Printf("[cart] discarding corrupt cart storage: %v", err)
		_ = s.storage.Clear()
		items = nil
	}

	s.mu.Lock()
	if !s.dirty {
		s.items = items
	}
	s.state = StateHydrated
	snapshot := s.snapshotLocked()
	s.mu.Unlock()
	s.notify(snapshot)
}

// Hydrated reports whether the persisted cart has been loaded. UI reads
// should be gated on it to avoid flashing an empty cart.
func (s *Store) Hydrated() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state == StateHydrated
}

// Items returns a copy of the current cart lines.
func (s *Store) Items() []Item {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// Totals returns the item count and gross price of the current cart.
func (s *Store) Totals() Totals {
	s.mu.Lock()
	defer s.mu.Unlock()
	return totals(s.items)
}

// Subscribe registers fn to run after every state change with a
// snapshot of the cart.
func (s *Store) Subscribe(fn func([]Item)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.subs = append(s.subs, fn)
}

// AddItem increments the line for the service by one, appending a new
// line with quantity 1 when absent.
func (s *Store) AddItem(svc ServiceRef, userID string) {
	var synced Item
	s.mutate(func() {
		for i := range s.items {
			if s.items[i].ServiceID == svc.ID {
				s.items[i].Quantity++
				synced = s.items[i]
				return
			}
		}
		item := Item{
			ServiceID: svc.ID,
			Name:      svc.Name,
			Price:     svc.Price,
			Quantity:  1,
			AddedAt:   s.now(),
		}
		s.items = append(s.items, item)
		synced = item
	})
	s.enqueueUpsert(userID, synced)
}

// RemoveItem deletes the line for serviceID. Removing an absent line is
// a no-op locally; the mirror delete still runs and is idempotent.
func (s *Store) RemoveItem(serviceID, userID string) {
	s.mutate(func() {
		for i := range s.items {
			if s.items[i].ServiceID == serviceID {
				s.items = append(s.items[:i], s.items[i+1:]...)
				break
			}
		}
	})
	s.enqueueDelete(userID, serviceID)
}

// UpdateQuantity sets the line's quantity; a quantity of zero or less
// removes the line instead.
func (s *Store) UpdateQuantity(serviceID string, quantity int, userID string) {
	if quantity <= 0 {
		s.RemoveItem(serviceID, userID)
		return
	}
	var synced *Item
	s.mutate(func() {
		for i := range s.items {
			if s.items[i].ServiceID == serviceID {
				s.items[i].Quantity = quantity
				synced = &s.items[i]
				break
			}
		}
	})
	if synced != nil {
		s.enqueueUpsert(userID, *synced)
	}
}

// UpdateNote sets the free-text note on the line; an empty string
// clears it.
func (s *Store) UpdateNote(serviceID, note, userID string) {
	var synced *Item
	s.mutate(func() {
		for i := range s.items {
			if s.items[i].ServiceID == serviceID {
				s.items[i].Note = note
				synced = &s.items[i]
				break
			}
		}
	})
	if synced != nil {
		s.enqueueUpsert(userID, *synced)
	}
}

// Clear empties the cart, and the user's mirror rows when signed in.
func (s *Store) Clear(userID string) {
	s.mutate(func() { s.items = nil })
	if userID == "" || s.mirror == nil {
		return
	}
	s.outbox.Enqueue(Task{
		Label: "clear",
		Do:    func(ctx context.Context) error { return s.mirror.DeleteAll(ctx, userID) },
	})
}

// ClearOnLogout wipes the local cart and its durable storage entry
// without touching the server mirror, so the next session on this
// device starts clean and another user never sees this cart.
func (s *Store) ClearOnLogout() {
	s.mu.Lock()
	s.items = nil
	s.dirty = true
	if err := s.storage.Clear(); err != nil {
		log.Printf("[cart] clear storage: %v", err)
	}
	snapshot := s.snapshotLocked()
	s.mu.Unlock()
	s.notify(snapshot)
}

// SyncFromServer replaces the local cart wholesale with the user's
// mirror rows. Used on login when the server copy is authoritative.
func (s *Store) SyncFromServer(ctx context.Context, userID string) error {
	if s.mirror == nil {
		return fmt.Errorf("no cart mirror configured")
	}
	items, err := s.mirror.List(ctx, userID)
	if err != nil {
		return fmt.Errorf("list mirror: %w", err)
	}
	s.mutate(func() { s.items = items })
	return nil
}

// MergeGuestCartThenSync upserts every locally held line into the
// user's mirror so guest selections survive login, then syncs back from
// the server. The upsert key is (userID, serviceID): a guest quantity
// overwrites any server quantity for the same service, last write wins,
// no summation.
func (s *Store) MergeGuestCartThenSync(ctx context.Context, userID string) error {
	if s.mirror == nil {
		return fmt.Errorf("no cart mirror configured")
	}
	for _, it := range s.Items() {
		if err := s.mirror.UpsertItem(ctx, userID, it); err != nil {
			return fmt.Errorf("merge item %s: %w", it.ServiceID, err)
		}
	}
	return s.SyncFromServer(ctx, userID)
}

func (s *Store) mutate(fn func()) {
	s.mu.Lock()
	fn()
	s.dirty = true
	if err := s.storage.Save(s.items); err != nil {
		log.Printf("[cart] persist cart: %v", err)
	}
	snapshot := s.snapshotLocked()
	s.mu.Unlock()
	s.notify(snapshot)
}

func (s *Store) snapshotLocked() []Item {
	return append([]Item(nil), s.items...)
}

func (s *Store) notify(snapshot []Item) {
	s.mu.Lock()
	subs := make([]func([]Item), len(s.subs))
	copy(subs, s.subs)
	s.mu.Unlock()
	for _, fn := range subs {
		fn(snapshot)
	}
}

func (s *Store) enqueueUpsert(userID string, item Item) {
	if userID == "" || s.mirror == nil {
		return
	}
	s.outbox.Enqueue(Task{
		Label: "upsert " + item.ServiceID,
		Do:    func(ctx context.Context) error { return s.mirror.UpsertItem(ctx, userID, item) },
	})
}

func (s *Store) enqueueDelete(userID, serviceID string) {
	if userID == "" || s.mirror == nil {
		return
	}
	s.outbox.Enqueue(Task{
		Label: "delete " + serviceID,
		Do:    func(ctx context.Context) error { return s.mirror.DeleteItem(ctx, userID, serviceID) },
	})
}
