package ledger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"sync"

	"github.com/lox/pokertable/internal/game"
)

var (
	ErrNotFound     = errors.New("record not found")
	ErrTableExists  = errors.New("table already exists")
	ErrPlayerExists = errors.New("player record already exists")
)

// Store persists table and player records. Player records are keyed by
// (table, identity). Implementations return copies: mutating a loaded record
// has no effect until it is saved.
type Store interface {
	CreateTable(ctx context.Context, t *game.Table) error
	LoadTable(ctx context.Context, id uint64) (*game.Table, error)
	SaveTable(ctx context.Context, t *game.Table) error
	ListTables(ctx context.Context) ([]uint64, error)

	CreatePlayer(ctx context.Context, p *game.Player) error
	LoadPlayer(ctx context.Context, tableID uint64, identity string) (*game.Player, error)
	LoadPlayers(ctx context.Context, tableID uint64) ([]*game.Player, error)
	SavePlayer(ctx context.Context, p *game.Player) error
	DeletePlayer(ctx context.Context, tableID uint64, identity string) error
}

// Committer is implemented by stores that can save a table together with
// some of its players in one step
type Committer interface {
	Commit(ctx context.Context, t *game.Table, players ...*game.Player) error
}

// MemoryStore keeps encoded records in memory
type MemoryStore struct {
	mu      sync.RWMutex
	tables  map[uint64][]byte
	players map[uint64]map[string][]byte
}

// NewMemoryStore creates an empty store
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		tables:  make(map[uint64][]byte),
		players: make(map[uint64]map[string][]byte),
	}
}

func (m *MemoryStore) CreateTable(_ context.Context, t *game.Table) error {
	data, err := json.Marshal(t)
	if err != nil {
		return fmt.Errorf("failed to encode table %d: %w", t.ID, err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.tables[t.ID]; ok {
		return fmt.Errorf("table %d: %w", t.ID, ErrTableExists)
	}
	m.tables[t.ID] = data
	m.players[t.ID] = make(map[string][]byte)
	return nil
}

func (m *MemoryStore) LoadTable(_ context.Context, id uint64) (*game.Table, error) {
	m.mu.RLock()
	data, ok := m.tables[id]
	m.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("table %d: %w", id, ErrNotFound)
	}

	var t game.Table
	if err := json.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("failed to decode table %d: %w", id, err)
	}
	return &t, nil
}

func (m *MemoryStore) SaveTable(_ context.Context, t *game.Table) error {
	data, err := json.Marshal(t)
	if err != nil {
		return fmt.Errorf("failed to encode table %d: %w", t.ID, err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.tables[t.ID]; !ok {
		return fmt.Errorf("table %d: %w", t.ID, ErrNotFound)
	}
	m.tables[t.ID] = data
	return nil
}

func (m *MemoryStore) ListTables(context.Context) ([]uint64, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	ids := make([]uint64, 0, len(m.tables))
	for id := range m.tables {
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids, nil
}

func (m *MemoryStore) CreatePlayer(_ context.Context, p *game.Player) error {
	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("failed to encode player %s: %w", p.Identity, err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	players, ok := m.players[p.TableID]
	if !ok {
		return fmt.Errorf("table %d: %w", p.TableID, ErrNotFound)
	}
	if _, ok := players[p.Identity]; ok {
		return fmt.Errorf("player %s at table %d: %w", p.Identity, p.TableID, ErrPlayerExists)
	}
	players[p.Identity] = data
	return nil
}

func (m *MemoryStore) LoadPlayer(_ context.Context, tableID uint64, identity string) (*game.Player, error) {
	m.mu.RLock()
	data, ok := m.players[tableID][identity]
	m.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("player %s at table %d: %w", identity, tableID, ErrNotFound)
	}
	return decodePlayer(data)
}

func (m *MemoryStore) LoadPlayers(_ context.Context, tableID uint64) ([]*game.Player, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	records, ok := m.players[tableID]
	if !ok {
		return nil, fmt.Errorf("table %d: %w", tableID, ErrNotFound)
	}

	players := make([]*game.Player, 0, len(records))
	for _, data := range records {
		p, err := decodePlayer(data)
		if err != nil {
			return nil, err
		}
		players = append(players, p)
	}
	sortBySeat(players)
	return players, nil
}

func (m *MemoryStore) SavePlayer(_ context.Context, p *game.Player) error {
	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("failed to encode player %s: %w", p.Identity, err)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.players[p.TableID][p.Identity]; !ok {
		return fmt.Errorf("player %s at table %d: %w", p.Identity, p.TableID, ErrNotFound)
	}
	m.players[p.TableID][p.Identity] = data
	return nil
}

func (m *MemoryStore) DeletePlayer(_ context.Context, tableID uint64, identity string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.players[tableID][identity]; !ok {
		return fmt.Errorf("player %s at table %d: %w", identity, tableID, ErrNotFound)
	}
	delete(m.players[tableID], identity)
	return nil
}

func decodePlayer(data []byte) (*game.Player, error) {
	var p game.Player
	if err := json.Unmarshal(data, &p); err != nil {
		return nil, fmt.Errorf("failed to decode player: %w", err)
	}
	return &p, nil
}

func sortBySeat(players []*game.Player) {
	slices.SortFunc(players, func(a, b *game.Player) int {
		return a.Position - b.Position
	})
}
