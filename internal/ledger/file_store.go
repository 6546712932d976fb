package ledger

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"sync"

	"github.com/lox/pokertable/internal/fileutil"
	"github.com/lox/pokertable/internal/game"
)

// FileStore keeps one JSON document per table, holding the table record and
// its players. Every write replaces the document atomically.
type FileStore struct {
	dir string
	mu  sync.Mutex
}

type tableDocument struct {
	Table   *game.Table             `json:"table"`
	Players map[string]*game.Player `json:"players"`
}

// NewFileStore stores documents under dir, creating it if needed
func NewFileStore(dir string) (*FileStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create ledger directory: %w", err)
	}
	return &FileStore{dir: dir}, nil
}

func (f *FileStore) path(id uint64) string {
	return filepath.Join(f.dir, fmt.Sprintf("table-%d.json", id))
}

func (f *FileStore) read(id uint64) (*tableDocument, error) {
	var doc tableDocument
	if err := fileutil.ReadJSON(f.path(id), &doc); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("table %d: %w", id, ErrNotFound)
		}
		return nil, err
	}
	if doc.Table == nil {
		return nil, fmt.Errorf("table %d: document has no table record", id)
	}
	if doc.Players == nil {
		doc.Players = make(map[string]*game.Player)
	}
	return &doc, nil
}

func (f *FileStore) write(doc *tableDocument) error {
	return fileutil.WriteJSONAtomic(f.path(doc.Table.ID), doc, 0o644)
}

// update applies fn to the table's document and writes it back if fn
// succeeds
func (f *FileStore) update(id uint64, fn func(doc *tableDocument) error) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	doc, err := f.read(id)
	if err != nil {
		return err
	}
	if err := fn(doc); err != nil {
		return err
	}
	return f.write(doc)
}

func (f *FileStore) CreateTable(_ context.Context, t *game.Table) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, err := os.Stat(f.path(t.ID)); err == nil {
		return fmt.Errorf("table %d: %w", t.ID, ErrTableExists)
	}
	return f.write(&tableDocument{Table: t.Clone(), Players: map[string]*game.Player{}})
}

func (f *FileStore) LoadTable(_ context.Context, id uint64) (*game.Table, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	doc, err := f.read(id)
	if err != nil {
		return nil, err
	}
	return doc.Table, nil
}

func (f *FileStore) SaveTable(_ context.Context, t *game.Table) error {
	return f.update(t.ID, func(doc *tableDocument) error {
		doc.Table = t.Clone()
		return nil
	})
}

func (f *FileStore) ListTables(context.Context) ([]uint64, error) {
	entries, err := os.ReadDir(f.dir)
	if err != nil {
		return nil, fmt.Errorf("failed to list tables: %w", err)
	}

	var ids []uint64
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasPrefix(name, "table-") || !strings.HasSuffix(name, ".json") {
			continue
		}
		id, err := strconv.ParseUint(strings.TrimSuffix(strings.TrimPrefix(name, "table-"), ".json"), 10, 64)
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids, nil
}

func (f *FileStore) CreatePlayer(_ context.Context, p *game.Player) error {
	return f.update(p.TableID, func(doc *tableDocument) error {
		if _, ok := doc.Players[p.Identity]; ok {
			return fmt.Errorf("player %s at table %d: %w", p.Identity, p.TableID, ErrPlayerExists)
		}
		doc.Players[p.Identity] = p.Clone()
		return nil
	})
}

func (f *FileStore) LoadPlayer(_ context.Context, tableID uint64, identity string) (*game.Player, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	doc, err := f.read(tableID)
	if err != nil {
		return nil, err
	}
	p, ok := doc.Players[identity]
	if !ok {
		return nil, fmt.Errorf("player %s at table %d: %w", identity, tableID, ErrNotFound)
	}
	return p, nil
}

func (f *FileStore) LoadPlayers(_ context.Context, tableID uint64) ([]*game.Player, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	doc, err := f.read(tableID)
	if err != nil {
		return nil, err
	}
	players := make([]*game.Player, 0, len(doc.Players))
	for _, p := range doc.Players {
		players = append(players, p)
	}
	sortBySeat(players)
	return players, nil
}

func (f *FileStore) SavePlayer(_ context.Context, p *game.Player) error {
	return f.update(p.TableID, func(doc *tableDocument) error {
		if _, ok := doc.Players[p.Identity]; !ok {
			return fmt.Errorf("player %s at table %d: %w", p.Identity, p.TableID, ErrNotFound)
		}
		doc.Players[p.Identity] = p.Clone()
		return nil
	})
}

func (f *FileStore) DeletePlayer(_ context.Context, tableID uint64, identity string) error {
	return f.update(tableID, func(doc *tableDocument) error {
		if _, ok := doc.Players[identity]; !ok {
			return fmt.Errorf("player %s at table %d: %w", identity, tableID, ErrNotFound)
		}
		delete(doc.Players, identity)
		return nil
	})
}

// Commit writes the table and players in a single document replacement
func (f *FileStore) Commit(_ context.Context, t *game.Table, players ...*game.Player) error {
	return f.update(t.ID, func(doc *tableDocument) error {
		for _, p := range players {
			if _, ok := doc.Players[p.Identity]; !ok {
				return fmt.Errorf("player %s at table %d: %w", p.Identity, p.TableID, ErrNotFound)
			}
		}
		doc.Table = t.Clone()
		for _, p := range players {
			doc.Players[p.Identity] = p.Clone()
		}
		return nil
	})
}
