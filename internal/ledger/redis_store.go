package ledger

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"slices"
	"strconv"

	"github.com/redis/go-redis/v9"

	"github.com/lox/pokertable/internal/game"
)

// RedisStore keeps each table record under its own key and the table's
// players in a hash keyed by identity. A set indexes the table ids.
type RedisStore struct {
	rdclient *redis.Client
	prefix   string
}

// RedisOptions configures the connection
type RedisOptions struct {
	Addr     string
	Password string
	DB       int
	Prefix   string // Key prefix, defaults to "pokertable"
}

// NewRedisStore connects to redis and checks the connection
func NewRedisStore(ctx context.Context, opts RedisOptions) (*RedisStore, error) {
	rdclient := redis.NewClient(&redis.Options{
		Addr:     opts.Addr,
		Password: opts.Password,
		DB:       opts.DB,
	})
	if err := rdclient.Ping(ctx).Err(); err != nil {
		rdclient.Close()
		return nil, fmt.Errorf("failed to connect to redis at %s: %w", opts.Addr, err)
	}

	prefix := opts.Prefix
	if prefix == "" {
		prefix = "pokertable"
	}
	return &RedisStore{rdclient: rdclient, prefix: prefix}, nil
}

// Close closes the client
func (r *RedisStore) Close() error {
	return r.rdclient.Close()
}

func (r *RedisStore) tableKey(id uint64) string {
	return fmt.Sprintf("%s:table:%d", r.prefix, id)
}

func (r *RedisStore) playersKey(id uint64) string {
	return fmt.Sprintf("%s:players:%d", r.prefix, id)
}

func (r *RedisStore) indexKey() string {
	return r.prefix + ":tables"
}

func (r *RedisStore) CreateTable(ctx context.Context, t *game.Table) error {
	data, err := json.Marshal(t)
	if err != nil {
		return fmt.Errorf("failed to encode table %d: %w", t.ID, err)
	}

	created, err := r.rdclient.SetNX(ctx, r.tableKey(t.ID), data, 0).Result()
	if err != nil {
		return fmt.Errorf("failed to create table %d: %w", t.ID, err)
	}
	if !created {
		return fmt.Errorf("table %d: %w", t.ID, ErrTableExists)
	}
	if err := r.rdclient.SAdd(ctx, r.indexKey(), t.ID).Err(); err != nil {
		return fmt.Errorf("failed to index table %d: %w", t.ID, err)
	}
	return nil
}

func (r *RedisStore) LoadTable(ctx context.Context, id uint64) (*game.Table, error) {
	data, err := r.rdclient.Get(ctx, r.tableKey(id)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("table %d: %w", id, ErrNotFound)
	} else if err != nil {
		return nil, fmt.Errorf("failed to load table %d: %w", id, err)
	}

	var t game.Table
	if err := json.Unmarshal(data, &t); err != nil {
		return nil, fmt.Errorf("failed to decode table %d: %w", id, err)
	}
	return &t, nil
}

func (r *RedisStore) SaveTable(ctx context.Context, t *game.Table) error {
	return r.Commit(ctx, t)
}

func (r *RedisStore) ListTables(ctx context.Context) ([]uint64, error) {
	members, err := r.rdclient.SMembers(ctx, r.indexKey()).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list tables: %w", err)
	}

	ids := make([]uint64, 0, len(members))
	for _, m := range members {
		id, err := strconv.ParseUint(m, 10, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid table id %q in index: %w", m, err)
		}
		ids = append(ids, id)
	}
	slices.Sort(ids)
	return ids, nil
}

func (r *RedisStore) CreatePlayer(ctx context.Context, p *game.Player) error {
	if err := r.requireTable(ctx, p.TableID); err != nil {
		return err
	}

	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("failed to encode player %s: %w", p.Identity, err)
	}
	created, err := r.rdclient.HSetNX(ctx, r.playersKey(p.TableID), p.Identity, data).Result()
	if err != nil {
		return fmt.Errorf("failed to create player %s: %w", p.Identity, err)
	}
	if !created {
		return fmt.Errorf("player %s at table %d: %w", p.Identity, p.TableID, ErrPlayerExists)
	}
	return nil
}

func (r *RedisStore) LoadPlayer(ctx context.Context, tableID uint64, identity string) (*game.Player, error) {
	data, err := r.rdclient.HGet(ctx, r.playersKey(tableID), identity).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("player %s at table %d: %w", identity, tableID, ErrNotFound)
	} else if err != nil {
		return nil, fmt.Errorf("failed to load player %s: %w", identity, err)
	}
	return decodePlayer(data)
}

func (r *RedisStore) LoadPlayers(ctx context.Context, tableID uint64) ([]*game.Player, error) {
	if err := r.requireTable(ctx, tableID); err != nil {
		return nil, err
	}

	records, err := r.rdclient.HVals(ctx, r.playersKey(tableID)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to load players of table %d: %w", tableID, err)
	}

	players := make([]*game.Player, 0, len(records))
	for _, data := range records {
		p, err := decodePlayer([]byte(data))
		if err != nil {
			return nil, err
		}
		players = append(players, p)
	}
	sortBySeat(players)
	return players, nil
}

func (r *RedisStore) SavePlayer(ctx context.Context, p *game.Player) error {
	exists, err := r.rdclient.HExists(ctx, r.playersKey(p.TableID), p.Identity).Result()
	if err != nil {
		return fmt.Errorf("failed to save player %s: %w", p.Identity, err)
	}
	if !exists {
		return fmt.Errorf("player %s at table %d: %w", p.Identity, p.TableID, ErrNotFound)
	}

	data, err := json.Marshal(p)
	if err != nil {
		return fmt.Errorf("failed to encode player %s: %w", p.Identity, err)
	}
	if err := r.rdclient.HSet(ctx, r.playersKey(p.TableID), p.Identity, data).Err(); err != nil {
		return fmt.Errorf("failed to save player %s: %w", p.Identity, err)
	}
	return nil
}

func (r *RedisStore) DeletePlayer(ctx context.Context, tableID uint64, identity string) error {
	removed, err := r.rdclient.HDel(ctx, r.playersKey(tableID), identity).Result()
	if err != nil {
		return fmt.Errorf("failed to delete player %s: %w", identity, err)
	}
	if removed == 0 {
		return fmt.Errorf("player %s at table %d: %w", identity, tableID, ErrNotFound)
	}
	return nil
}

// Commit writes the table and players in one MULTI/EXEC transaction
func (r *RedisStore) Commit(ctx context.Context, t *game.Table, players ...*game.Player) error {
	if err := r.requireTable(ctx, t.ID); err != nil {
		return err
	}

	tableData, err := json.Marshal(t)
	if err != nil {
		return fmt.Errorf("failed to encode table %d: %w", t.ID, err)
	}
	fields := make([]any, 0, 2*len(players))
	for _, p := range players {
		data, err := json.Marshal(p)
		if err != nil {
			return fmt.Errorf("failed to encode player %s: %w", p.Identity, err)
		}
		fields = append(fields, p.Identity, data)
	}

	_, err = r.rdclient.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Set(ctx, r.tableKey(t.ID), tableData, 0)
		if len(fields) > 0 {
			pipe.HSet(ctx, r.playersKey(t.ID), fields...)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to commit table %d: %w", t.ID, err)
	}
	return nil
}

func (r *RedisStore) requireTable(ctx context.Context, id uint64) error {
	n, err := r.rdclient.Exists(ctx, r.tableKey(id)).Result()
	if err != nil {
		return fmt.Errorf("failed to check table %d: %w", id, err)
	}
	if n == 0 {
		return fmt.Errorf("table %d: %w", id, ErrNotFound)
	}
	return nil
}

// Flush removes every key this store owns. Used by tests.
func (r *RedisStore) Flush(ctx context.Context) error {
	ids, err := r.ListTables(ctx)
	if err != nil {
		return err
	}
	keys := []string{r.indexKey()}
	for _, id := range ids {
		keys = append(keys, r.tableKey(id), r.playersKey(id))
	}
	return r.rdclient.Del(ctx, keys...).Err()
}
