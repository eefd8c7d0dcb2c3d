package docstore

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"innkeeper/internal/metrics"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

// RedisStore keeps each document as a JSON value and tracks collection
// membership in a set. Change notifications ride on pub/sub, one
// channel per collection, so every connected process sees them.
type RedisStore struct {
	client *redis.Client

	mu     sync.Mutex
	stops  []func()
	closed bool
}

func NewRedisStore(client *redis.Client) *RedisStore {
	return &RedisStore{client: client}
}

// NewRedisClient builds a client from raw connection settings.
func NewRedisClient(addr, password string, db, poolSize int) *redis.Client {
	return redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
		PoolSize: poolSize,
	})
}

// Ping verifies connectivity.
func (s *RedisStore) Ping(ctx context.Context) error {
	if err := s.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("ping document store: %w", err)
	}
	return nil
}

func docKey(collection, id string) string    { return "doc:" + collection + ":" + id }
func colKey(collection string) string        { return "col:" + collection }
func changeChannel(collection string) string { return "changes:" + collection }

func (s *RedisStore) Get(ctx context.Context, collection, id string) (json.RawMessage, error) {
	val, err := s.client.Get(ctx, docKey(collection, id)).Result()
	if err == redis.Nil {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get %s/%s: %w", collection, id, err)
	}
	return json.RawMessage(val), nil
}

func (s *RedisStore) List(ctx context.Context, collection string) ([]json.RawMessage, error) {
	metrics.IncStoreQuery(collection)
	ids, err := s.client.SMembers(ctx, colKey(collection)).Result()
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", collection, err)
	}
	return s.mget(ctx, collection, ids)
}

func (s *RedisStore) Query(ctx context.Context, collection string, filter Filter) ([]json.RawMessage, error) {
	if err := filter.validate(); err != nil {
		return nil, err
	}

	// Document-id "in" queries hit keys directly; everything else scans
	// the collection and filters client-side, which is acceptable at
	// the fleet sizes this store serves.
	if filter.Field == FieldDocumentID && filter.Op == OpIn {
		metrics.IncStoreQuery(collection)
		return s.mget(ctx, collection, filter.Values)
	}

	all, err := s.List(ctx, collection)
	if err != nil {
		return nil, err
	}

	var out []json.RawMessage
	for _, raw := range all {
		var doc map[string]any
		if err := json.Unmarshal(raw, &doc); err != nil {
			return nil, fmt.Errorf("scan %s: %w", collection, err)
		}
		id, _ := doc["id"].(string)
		if matches(id, doc, filter) {
			out = append(out, raw)
		}
	}
	return out, nil
}

func (s *RedisStore) mget(ctx context.Context, collection string, ids []string) ([]json.RawMessage, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	keys := make([]string, len(ids))
	for i, id := range ids {
		keys[i] = docKey(collection, id)
	}

	vals, err := s.client.MGet(ctx, keys...).Result()
	if err != nil {
		return nil, fmt.Errorf("mget %s: %w", collection, err)
	}

	out := make([]json.RawMessage, 0, len(vals))
	for _, v := range vals {
		str, ok := v.(string)
		if !ok {
			continue // missing ids are simply absent
		}
		out = append(out, json.RawMessage(str))
	}
	return out, nil
}

func (s *RedisStore) Add(ctx context.Context, collection string, doc any) (string, error) {
	fields, err := toFields(doc)
	if err != nil {
		return "", fmt.Errorf("add to %s: %w", collection, err)
	}

	id := uuid.NewString()
	fields["id"] = id

	raw, err := json.Marshal(fields)
	if err != nil {
		return "", fmt.Errorf("add to %s: %w", collection, err)
	}

	pipe := s.client.TxPipeline()
	pipe.Set(ctx, docKey(collection, id), raw, 0)
	pipe.SAdd(ctx, colKey(collection), id)
	if _, err := pipe.Exec(ctx); err != nil {
		return "", fmt.Errorf("add to %s: %w", collection, err)
	}

	s.publish(ctx, Change{Collection: collection, ID: id, Kind: ChangeAdded})
	return id, nil
}

func (s *RedisStore) Update(ctx context.Context, collection, id string, fields map[string]any) error {
	merged, err := s.mergedDoc(ctx, collection, id, fields)
	if err != nil {
		return err
	}

	if err := s.client.Set(ctx, docKey(collection, id), merged, 0).Err(); err != nil {
		return fmt.Errorf("update %s/%s: %w", collection, id, err)
	}

	s.publish(ctx, Change{Collection: collection, ID: id, Kind: ChangeModified})
	return nil
}

func (s *RedisStore) mergedDoc(ctx context.Context, collection, id string, fields map[string]any) ([]byte, error) {
	raw, err := s.Get(ctx, collection, id)
	if err != nil {
		return nil, err
	}

	var doc map[string]any
	if err := json.Unmarshal(raw, &doc); err != nil {
		return nil, fmt.Errorf("update %s/%s: %w", collection, id, err)
	}
	for k, v := range fields {
		doc[k] = normalize(v)
	}

	merged, err := json.Marshal(doc)
	if err != nil {
		return nil, fmt.Errorf("update %s/%s: %w", collection, id, err)
	}
	return merged, nil
}

func (s *RedisStore) Delete(ctx context.Context, collection, id string) error {
	pipe := s.client.TxPipeline()
	delCmd := pipe.Del(ctx, docKey(collection, id))
	pipe.SRem(ctx, colKey(collection), id)
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("delete %s/%s: %w", collection, id, err)
	}

	if delCmd.Val() > 0 {
		s.publish(ctx, Change{Collection: collection, ID: id, Kind: ChangeRemoved})
	}
	return nil
}

func (s *RedisStore) ApplyWrites(ctx context.Context, writes []Write) error {
	// Merge all targets up front; a missing document fails the whole
	// batch before anything is written.
	merged := make([][]byte, len(writes))
	for i, w := range writes {
		doc, err := s.mergedDoc(ctx, w.Collection, w.ID, w.Fields)
		if err != nil {
			return err
		}
		merged[i] = doc
	}

	pipe := s.client.TxPipeline()
	for i, w := range writes {
		pipe.Set(ctx, docKey(w.Collection, w.ID), merged[i], 0)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("apply %d writes: %w", len(writes), err)
	}

	for _, w := range writes {
		s.publish(ctx, Change{Collection: w.Collection, ID: w.ID, Kind: ChangeModified})
	}
	return nil
}

func (s *RedisStore) publish(ctx context.Context, change Change) {
	payload, err := json.Marshal(change)
	if err != nil {
		return
	}
	// Best effort: a lost notification is recovered by the next one,
	// since consumers recompute from scratch.
	_ = s.client.Publish(ctx, changeChannel(change.Collection), payload).Err()
}

func (s *RedisStore) Subscribe(ctx context.Context, collection string) (<-chan Change, func(), error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil, nil, ErrClosed
	}
	s.mu.Unlock()

	pubsub := s.client.Subscribe(ctx, changeChannel(collection))
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, nil, fmt.Errorf("subscribe %s: %w", collection, err)
	}

	out := make(chan Change, 64)
	go func() {
		defer close(out)
		for msg := range pubsub.Channel() {
			var change Change
			if err := json.Unmarshal([]byte(msg.Payload), &change); err != nil {
				continue
			}
			out <- change
		}
	}()

	var once sync.Once
	stop := func() {
		once.Do(func() { _ = pubsub.Close() })
	}

	s.mu.Lock()
	s.stops = append(s.stops, stop)
	s.mu.Unlock()

	return out, stop, nil
}

func (s *RedisStore) Close() error {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return nil
	}
	s.closed = true
	stops := s.stops
	s.stops = nil
	s.mu.Unlock()

	for _, stop := range stops {
		stop()
	}
	return s.client.Close()
}
