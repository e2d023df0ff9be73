package redis

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/aretw0/lattice/pkg/domain"
	"github.com/aretw0/lattice/pkg/ports"
	"github.com/oklog/ulid/v2"
	backend "github.com/redis/go-redis/v9"
)

// Repository implements ports.Repository using Redis.
//
// Each record is a hash under {prefix}{table}:rec:{id}. The table order is a
// sorted set under {prefix}{table}:order whose scores are the global position
// of every record. Writes that depend on the order take a table lock.
type Repository struct {
	client  *backend.Client
	prefix  string
	lockTTL time.Duration
	locker  ports.DistributedLocker
}

type Option func(*Repository)

// WithPrefix sets the key prefix.
func WithPrefix(prefix string) Option {
	return func(r *Repository) {
		r.prefix = prefix
	}
}

// WithLockTTL sets how long a table lock may be held.
func WithLockTTL(ttl time.Duration) Option {
	return func(r *Repository) {
		r.lockTTL = ttl
	}
}

// WithLocker replaces the Redis locker, e.g. to share one across stores.
func WithLocker(l ports.DistributedLocker) Option {
	return func(r *Repository) {
		r.locker = l
	}
}

// New creates a new Redis repository with options.
func New(address, password string, db int, opts ...Option) *Repository {
	rdb := backend.NewClient(&backend.Options{
		Addr:     address,
		Password: password,
		DB:       db,
	})
	return NewFromClient(rdb, opts...)
}

// NewFromClient creates a new Redis repository from an existing client.
func NewFromClient(client *backend.Client, opts ...Option) *Repository {
	repo := &Repository{
		client:  client,
		prefix:  "lattice:",
		lockTTL: 5 * time.Second,
	}
	for _, opt := range opts {
		opt(repo)
	}
	if repo.locker == nil {
		repo.locker = NewLocker(client, repo.prefix)
	}
	return repo
}

func (r *Repository) recordKey(table, id string) string {
	return r.prefix + table + ":rec:" + id
}

func (r *Repository) orderKey(table string) string {
	return r.prefix + table + ":order"
}

func (r *Repository) seqKey(table string) string {
	return r.prefix + table + ":seq"
}

// Insert stores rec under a fresh ULID at the end of the table order.
func (r *Repository) Insert(ctx context.Context, t domain.Table, rec domain.Record) (string, error) {
	unlock, err := r.locker.Lock(ctx, t.Name, r.lockTTL)
	if err != nil {
		return "", err
	}
	defer unlock(context.WithoutCancel(ctx))

	stored := rec.Clone()
	for k, v := range t.Scope {
		stored[k] = v
	}
	id := ulid.Make().String()
	stored[t.IDField] = id

	if t.SortField != "" {
		scoped, err := r.scope(ctx, t)
		if err != nil {
			return "", err
		}
		next := 1
		for _, existing := range scoped {
			if n, err := strconv.Atoi(existing[t.SortField]); err == nil && n >= next {
				next = n + 1
			}
		}
		stored[t.SortField] = strconv.Itoa(next)
	}

	seq, err := r.client.Incr(ctx, r.seqKey(t.Name)).Result()
	if err != nil {
		return "", fmt.Errorf("failed to allocate position: %w", err)
	}

	pipe := r.client.TxPipeline()
	pipe.HSet(ctx, r.recordKey(t.Name, id), toArgs(stored)...)
	pipe.ZAdd(ctx, r.orderKey(t.Name), backend.Z{Score: float64(seq), Member: id})
	if _, err := pipe.Exec(ctx); err != nil {
		return "", fmt.Errorf("failed to save to redis: %w", err)
	}
	return id, nil
}

// Update overwrites the given columns. Scope and id columns are kept.
func (r *Repository) Update(ctx context.Context, t domain.Table, id string, rec domain.Record) error {
	if _, err := r.Get(ctx, t, id); err != nil {
		return err
	}

	changes := domain.Record{}
	for k, v := range rec {
		if k == t.IDField {
			continue
		}
		if _, scoped := t.Scope[k]; scoped {
			continue
		}
		changes[k] = v
	}
	if len(changes) == 0 {
		return nil
	}
	if err := r.client.HSet(ctx, r.recordKey(t.Name, id), toArgs(changes)...).Err(); err != nil {
		return fmt.Errorf("failed to update %s/%s: %w", t.Name, id, err)
	}
	return nil
}

// Delete removes the record hash and its order entry.
func (r *Repository) Delete(ctx context.Context, t domain.Table, id string) error {
	if _, err := r.Get(ctx, t, id); err != nil {
		return err
	}

	pipe := r.client.TxPipeline()
	pipe.Del(ctx, r.recordKey(t.Name, id))
	pipe.ZRem(ctx, r.orderKey(t.Name), id)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to delete %s/%s: %w", t.Name, id, err)
	}
	return nil
}

// Move rewrites the table order under the table lock.
func (r *Repository) Move(ctx context.Context, t domain.Table, id, targetID string, pos domain.Position) error {
	if t.SortField == "" {
		return domain.BadRequest("table %s has no sort field", t.Name)
	}

	unlock, err := r.locker.Lock(ctx, t.Name, r.lockTTL)
	if err != nil {
		return err
	}
	defer unlock(context.WithoutCancel(ctx))

	if _, err := r.Get(ctx, t, id); err != nil {
		return err
	}
	if _, err := r.Get(ctx, t, targetID); err != nil {
		return err
	}
	if id == targetID {
		return nil
	}

	ids, err := r.client.ZRange(ctx, r.orderKey(t.Name), 0, -1).Result()
	if err != nil {
		return fmt.Errorf("failed to read order: %w", err)
	}
	order := reorder(ids, id, targetID, pos)

	recs, err := r.load(ctx, t.Name, order)
	if err != nil {
		return err
	}

	pipe := r.client.TxPipeline()
	n := 0
	for i, rowID := range order {
		pipe.ZAdd(ctx, r.orderKey(t.Name), backend.Z{Score: float64(i + 1), Member: rowID})
		if rec := recs[i]; rec != nil && t.Matches(rec) {
			n++
			pipe.HSet(ctx, r.recordKey(t.Name, rowID), t.SortField, strconv.Itoa(n))
		}
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to save order: %w", err)
	}
	return nil
}

// Get loads a record and checks it belongs to the table scope.
func (r *Repository) Get(ctx context.Context, t domain.Table, id string) (domain.Record, error) {
	vals, err := r.client.HGetAll(ctx, r.recordKey(t.Name, id)).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to get from redis: %w", err)
	}
	rec := domain.Record(vals)
	if len(rec) == 0 || !t.Matches(rec) {
		return nil, fmt.Errorf("%s/%s: %w", t.Name, id, domain.ErrRecordNotFound)
	}
	return rec, nil
}

// List reads the table in order and filters it client-side.
func (r *Repository) List(ctx context.Context, t domain.Table, q domain.Query) ([]domain.Record, int, error) {
	scoped, err := r.scope(ctx, t)
	if err != nil {
		return nil, 0, err
	}

	var matched []domain.Record
	for _, rec := range scoped {
		if q.Matches(rec) {
			matched = append(matched, rec)
		}
	}
	start, end := q.Window(len(matched))
	return matched[start:end], len(matched), nil
}

// Close closes the redis client.
func (r *Repository) Close() error {
	return r.client.Close()
}

// Ping checks the connection.
func (r *Repository) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

// scope returns the records of the table scope in order.
func (r *Repository) scope(ctx context.Context, t domain.Table) ([]domain.Record, error) {
	ids, err := r.client.ZRange(ctx, r.orderKey(t.Name), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to read order: %w", err)
	}
	recs, err := r.load(ctx, t.Name, ids)
	if err != nil {
		return nil, err
	}
	out := make([]domain.Record, 0, len(recs))
	for _, rec := range recs {
		if rec != nil && t.Matches(rec) {
			out = append(out, rec)
		}
	}
	return out, nil
}

// load fetches the hashes of ids in one round trip. Missing hashes are nil.
func (r *Repository) load(ctx context.Context, table string, ids []string) ([]domain.Record, error) {
	if len(ids) == 0 {
		return nil, nil
	}
	pipe := r.client.Pipeline()
	cmds := make([]*backend.MapStringStringCmd, len(ids))
	for i, id := range ids {
		cmds[i] = pipe.HGetAll(ctx, r.recordKey(table, id))
	}
	if _, err := pipe.Exec(ctx); err != nil && !errors.Is(err, backend.Nil) {
		return nil, fmt.Errorf("failed to load records: %w", err)
	}

	out := make([]domain.Record, len(ids))
	for i, cmd := range cmds {
		if vals := cmd.Val(); len(vals) > 0 {
			out[i] = domain.Record(vals)
		}
	}
	return out, nil
}

// reorder moves id next to targetID in ids.
func reorder(ids []string, id, targetID string, pos domain.Position) []string {
	rest := make([]string, 0, len(ids))
	for _, v := range ids {
		if v != id {
			rest = append(rest, v)
		}
	}
	to := len(rest)
	for i, v := range rest {
		if v == targetID {
			to = i
			if pos == domain.After {
				to++
			}
			break
		}
	}
	out := make([]string, 0, len(ids))
	out = append(out, rest[:to]...)
	out = append(out, id)
	return append(out, rest[to:]...)
}

func toArgs(rec domain.Record) []any {
	args := make([]any, 0, len(rec)*2)
	for k, v := range rec {
		args = append(args, k, v)
	}
	return args
}
