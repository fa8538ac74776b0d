// Package testutil holds in-memory repositories that follow the same
// contracts as the Postgres ones in internal/store.
package testutil

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/wildlens/apiserver/internal/store"
	"github.com/wildlens/apiserver/types"
)

// Users enforces email uniqueness like the signup table constraint.
type Users struct {
	mu     sync.Mutex
	nextID int
	byID   map[int]types.User
}

func NewUsers() *Users {
	return &Users{nextID: 1, byID: make(map[int]types.User)}
}

func (u *Users) GetByID(_ context.Context, id int) (types.User, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	user, ok := u.byID[id]
	if !ok {
		return types.User{}, store.ErrNotFound
	}
	return user, nil
}

func (u *Users) GetByEmail(_ context.Context, email string) (types.User, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	for _, user := range u.byID {
		if user.Email == email {
			return user, nil
		}
	}
	return types.User{}, store.ErrNotFound
}

func (u *Users) Create(_ context.Context, user types.User) (types.User, error) {
	u.mu.Lock()
	defer u.mu.Unlock()
	for _, existing := range u.byID {
		if existing.Email == user.Email {
			return types.User{}, store.ErrDuplicate
		}
	}
	user.ID = u.nextID
	user.CreatedAt = time.Now().UTC()
	u.nextID++
	u.byID[user.ID] = user
	return user, nil
}

// Species is a fixed reference table.
type Species struct {
	mu      sync.RWMutex
	entries map[string]types.SpeciesInfo
}

func NewSpecies(entries ...types.SpeciesInfo) *Species {
	s := &Species{entries: make(map[string]types.SpeciesInfo, len(entries))}
	for _, entry := range entries {
		s.entries[entry.Species] = entry
	}
	return s
}

func (s *Species) Get(_ context.Context, species string) (types.SpeciesInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	info, ok := s.entries[species]
	if !ok {
		return types.SpeciesInfo{}, store.ErrNotFound
	}
	return info, nil
}

func (s *Species) List(_ context.Context) ([]types.SpeciesInfo, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	list := make([]types.SpeciesInfo, 0, len(s.entries))
	for _, info := range s.entries {
		list = append(list, info)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Species < list[j].Species })
	return list, nil
}

// Scans joins species info from the given reference table on reads.
type Scans struct {
	mu      sync.Mutex
	nextID  int64
	rows    []types.Scan
	species *Species

	// Err, when set, is returned by Create.
	Err error
}

func NewScans(species *Species) *Scans {
	if species == nil {
		species = NewSpecies()
	}
	return &Scans{nextID: 1, species: species}
}

func (s *Scans) Create(_ context.Context, scan types.Scan) (types.Scan, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.Err != nil {
		return types.Scan{}, s.Err
	}
	scan.ID = s.nextID
	scan.SpeciesInfo = nil
	s.nextID++
	s.rows = append(s.rows, scan)
	return scan, nil
}

func (s *Scans) ListByOwner(ctx context.Context, userID int) ([]types.Scan, error) {
	s.mu.Lock()
	owned := make([]types.Scan, 0)
	for _, row := range s.rows {
		if row.UserID == userID {
			owned = append(owned, row)
		}
	}
	s.mu.Unlock()

	sort.Slice(owned, func(i, j int) bool {
		if owned[i].Timestamp != owned[j].Timestamp {
			return owned[i].Timestamp > owned[j].Timestamp
		}
		return owned[i].ID > owned[j].ID
	})
	for i := range owned {
		if info, err := s.species.Get(ctx, owned[i].Species); err == nil {
			owned[i].SpeciesInfo = &info
		}
	}
	return owned, nil
}

// Rows returns a copy of every stored scan.
func (s *Scans) Rows() []types.Scan {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]types.Scan(nil), s.rows...)
}
