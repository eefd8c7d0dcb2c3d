package docstore

import (
	"context"
	"encoding/json"
	"sync"

	"innkeeper/internal/metrics"

	"github.com/google/uuid"
)

// MemoryStore is an in-process Store used by tests and local runs. It
// keeps decoded documents and fans change notifications out to
// in-process subscribers.
type MemoryStore struct {
	mu     sync.RWMutex
	data   map[string]map[string]map[string]any
	subs   map[string]map[int]chan Change
	nextID int
	closed bool
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		data: make(map[string]map[string]map[string]any),
		subs: make(map[string]map[int]chan Change),
	}
}

func (s *MemoryStore) Get(ctx context.Context, collection, id string) (json.RawMessage, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	doc, ok := s.data[collection][id]
	if !ok {
		return nil, ErrNotFound
	}
	return json.Marshal(doc)
}

func (s *MemoryStore) List(ctx context.Context, collection string) ([]json.RawMessage, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	metrics.IncStoreQuery(collection)

	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]json.RawMessage, 0, len(s.data[collection]))
	for _, doc := range s.data[collection] {
		raw, err := json.Marshal(doc)
		if err != nil {
			return nil, err
		}
		out = append(out, raw)
	}
	return out, nil
}

func (s *MemoryStore) Query(ctx context.Context, collection string, filter Filter) ([]json.RawMessage, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := filter.validate(); err != nil {
		return nil, err
	}
	metrics.IncStoreQuery(collection)

	s.mu.RLock()
	defer s.mu.RUnlock()

	var out []json.RawMessage
	for id, doc := range s.data[collection] {
		if !matches(id, doc, filter) {
			continue
		}
		raw, err := json.Marshal(doc)
		if err != nil {
			return nil, err
		}
		out = append(out, raw)
	}
	return out, nil
}

func matches(id string, doc map[string]any, f Filter) bool {
	if f.Field == FieldDocumentID {
		for _, v := range f.Values {
			if id == v {
				return true
			}
		}
		return false
	}

	switch f.Op {
	case OpEqual, OpIn:
		field, ok := doc[f.Field].(string)
		if !ok {
			return false
		}
		for _, v := range f.Values {
			if field == v {
				return true
			}
		}
	case OpArrayContains:
		items, ok := doc[f.Field].([]any)
		if !ok {
			return false
		}
		for _, item := range items {
			if str, ok := item.(string); ok && str == f.Values[0] {
				return true
			}
		}
	}
	return false
}

func (s *MemoryStore) Add(ctx context.Context, collection string, doc any) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	fields, err := toFields(doc)
	if err != nil {
		return "", err
	}

	id := uuid.NewString()
	fields["id"] = id

	s.mu.Lock()
	if s.data[collection] == nil {
		s.data[collection] = make(map[string]map[string]any)
	}
	s.data[collection][id] = fields
	s.mu.Unlock()

	s.notify(Change{Collection: collection, ID: id, Kind: ChangeAdded})
	return id, nil
}

func (s *MemoryStore) Update(ctx context.Context, collection, id string, fields map[string]any) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	doc, ok := s.data[collection][id]
	if !ok {
		s.mu.Unlock()
		return ErrNotFound
	}
	for k, v := range fields {
		doc[k] = normalize(v)
	}
	s.mu.Unlock()

	s.notify(Change{Collection: collection, ID: id, Kind: ChangeModified})
	return nil
}

func (s *MemoryStore) Delete(ctx context.Context, collection, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	_, existed := s.data[collection][id]
	delete(s.data[collection], id)
	s.mu.Unlock()

	if existed {
		s.notify(Change{Collection: collection, ID: id, Kind: ChangeRemoved})
	}
	return nil
}

func (s *MemoryStore) ApplyWrites(ctx context.Context, writes []Write) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	// Verify targets first so the batch is all-or-nothing.
	for _, w := range writes {
		if _, ok := s.data[w.Collection][w.ID]; !ok {
			s.mu.Unlock()
			return ErrNotFound
		}
	}
	for _, w := range writes {
		doc := s.data[w.Collection][w.ID]
		for k, v := range w.Fields {
			doc[k] = normalize(v)
		}
	}
	s.mu.Unlock()

	for _, w := range writes {
		s.notify(Change{Collection: w.Collection, ID: w.ID, Kind: ChangeModified})
	}
	return nil
}

func (s *MemoryStore) Subscribe(ctx context.Context, collection string) (<-chan Change, func(), error) {
	if err := ctx.Err(); err != nil {
		return nil, nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil, nil, ErrClosed
	}

	if s.subs[collection] == nil {
		s.subs[collection] = make(map[int]chan Change)
	}
	key := s.nextID
	s.nextID++

	ch := make(chan Change, 64)
	s.subs[collection][key] = ch

	var once sync.Once
	stop := func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			if sub, ok := s.subs[collection][key]; ok {
				delete(s.subs[collection], key)
				close(sub)
			}
		})
	}
	return ch, stop, nil
}

func (s *MemoryStore) notify(change Change) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, ch := range s.subs[change.Collection] {
		select {
		case ch <- change:
		default:
			// Slow consumer; dropping is fine because consumers run a
			// full recompute per notification, not a delta.
		}
	}
}

func (s *MemoryStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return nil
	}
	s.closed = true
	for _, subs := range s.subs {
		for key, ch := range subs {
			delete(subs, key)
			close(ch)
		}
	}
	return nil
}

// toFields round-trips a typed document through JSON into a field map,
// so stored shapes match what the wire format would hold.
func toFields(doc any) (map[string]any, error) {
	raw, err := json.Marshal(doc)
	if err != nil {
		return nil, err
	}
	var fields map[string]any
	if err := json.Unmarshal(raw, &fields); err != nil {
		return nil, err
	}
	return fields, nil
}

// normalize converts typed values (time.Time and friends) to their JSON
// representation so Update and Add store comparable shapes.
func normalize(v any) any {
	raw, err := json.Marshal(v)
	if err != nil {
		return v
	}
	var out any
	if err := json.Unmarshal(raw, &out); err != nil {
		return v
	}
	return out
}
