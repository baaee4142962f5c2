package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"voicesearch/catalog/elastic"
	"voicesearch/catalog/models"
	"voicesearch/catalog/query"
	"voicesearch/pkg/kv"
	"voicesearch/pkg/metrics"
)

const DefaultCacheTTL = 300 * time.Second

// DocumentStore is the search index. Get returns elastic.ErrNotFound for
// unknown ids.
type DocumentStore interface {
	Get(ctx context.Context, index, id string) (json.RawMessage, error)
	Search(ctx context.Context, index string, body map[string]any) ([]json.RawMessage, error)
}

// ResultWriter delivers a final result to whoever waits on a process id.
type ResultWriter interface {
	PutResult(ctx context.Context, id string, value any) error
}

// Base implements cache-aside reads over the document store. Cache failures
// degrade to index reads; cached values are never authoritative.
type Base struct {
	cache   kv.Cache
	store   DocumentStore
	results ResultWriter
	ttl     time.Duration
	logger  *zap.Logger
}

func NewBase(cache kv.Cache, store DocumentStore, results ResultWriter, ttl time.Duration, logger *zap.Logger) *Base {
	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}
	return &Base{
		cache:   cache,
		store:   store,
		results: results,
		ttl:     ttl,
		logger:  logger,
	}
}

func byIDKey(id, index string) string {
	return fmt.Sprintf("%s-%s", id, index)
}

// ListKey identifies one cached listing.
type ListKey struct {
	Index  string
	Sort   models.Sort
	Page   models.Page
	Filter models.FilmFilter
	Unique string
}

func (k ListKey) String() string {
	return fmt.Sprintf("%s-%s-%s-%d-%d-%s-%s-%s-%s-%s",
		k.Index, k.Sort.Field, k.Sort.Order, k.Page.Size, k.Page.Number,
		k.Filter.Genre, k.Filter.Actor, k.Filter.Director, k.Filter.Writer, k.Unique)
}

func searchKey(index, field, text string, page models.Page) string {
	return fmt.Sprintf("%s-%s-%s-%d-%d", index, field, text, page.Size, page.Number)
}

// GetByID returns the document id from index, or found=false when the index
// has no such document. Misses are not cached.
func (b *Base) GetByID(ctx context.Context, id, index string) (json.RawMessage, bool, error) {
	key := byIDKey(id, index)

	if data, ok := b.cacheGet(ctx, index, key); ok {
		return data, true, nil
	}

	doc, err := b.store.Get(ctx, index, id)
	if errors.Is(err, elastic.ErrNotFound) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}

	b.cacheSet(ctx, key, doc)
	return doc, true, nil
}

// GetList runs body against index behind the cache entry key. Empty results
// are returned as an empty slice and not cached.
func (b *Base) GetList(ctx context.Context, index string, body query.Body, key string) ([]json.RawMessage, error) {
	if data, ok := b.cacheGet(ctx, index, key); ok {
		var docs []json.RawMessage
		if err := json.Unmarshal(data, &docs); err == nil {
			return docs, nil
		}
		b.logger.Warn("Discarding undecodable cache entry", zap.String("key", key))
	}

	docs, err := b.store.Search(ctx, index, body)
	if err != nil {
		return nil, err
	}
	if len(docs) == 0 {
		return []json.RawMessage{}, nil
	}

	data, err := json.Marshal(docs)
	if err != nil {
		return nil, err
	}
	b.cacheSet(ctx, key, data)
	return docs, nil
}

// Deliver writes value as the final result of processID.
func (b *Base) Deliver(ctx context.Context, processID string, value any) error {
	if err := b.results.PutResult(ctx, processID, value); err != nil {
		return fmt.Errorf("deliver result for %s: %w", processID, err)
	}
	return nil
}

func (b *Base) cacheGet(ctx context.Context, index, key string) ([]byte, bool) {
	data, found, err := b.cache.Get(ctx, key)
	if err != nil {
		metrics.CacheRequestsTotal.WithLabelValues(index, "error").Inc()
		b.logger.Warn("Cache read failed", zap.String("key", key), zap.Error(err))
		return nil, false
	}
	if !found {
		metrics.CacheRequestsTotal.WithLabelValues(index, "miss").Inc()
		return nil, false
	}
	metrics.CacheRequestsTotal.WithLabelValues(index, "hit").Inc()
	return data, true
}

func (b *Base) cacheSet(ctx context.Context, key string, data []byte) {
	if err := b.cache.Set(ctx, key, data, b.ttl); err != nil {
		b.logger.Warn("Cache write failed", zap.String("key", key), zap.Error(err))
	}
}

// SearchRequest is a free-text search against one field of an index.
type SearchRequest struct {
	Index     string
	Field     string
	Text      string
	Page      models.Page
	ProcessID string
}

// searchByQuery runs a cached fuzzy search and decodes the hits as T. With a
// process id the decoded result, even when empty, is also delivered.
func searchByQuery[T any](ctx context.Context, b *Base, req SearchRequest) ([]T, error) {
	if err := req.Page.Validate(); err != nil {
		return nil, err
	}

	key := searchKey(req.Index, req.Field, req.Text, req.Page)
	docs, err := b.GetList(ctx, req.Index, query.FreeText(req.Field, req.Text, req.Page), key)
	if err != nil {
		return nil, err
	}

	items, err := decodeAll[T](docs)
	if err != nil {
		return nil, err
	}

	if req.ProcessID != "" {
		if err := b.Deliver(ctx, req.ProcessID, items); err != nil {
			return nil, err
		}
	}
	return items, nil
}

func decodeAll[T any](docs []json.RawMessage) ([]T, error) {
	items := make([]T, 0, len(docs))
	for _, d := range docs {
		var item T
		if err := json.Unmarshal(d, &item); err != nil {
			return nil, fmt.Errorf("decode document: %w", err)
		}
		items = append(items, item)
	}
	return items, nil
}

func decodeOne[T any](doc json.RawMessage) (*T, error) {
	var item T
	if err := json.Unmarshal(doc, &item); err != nil {
		return nil, fmt.Errorf("decode document: %w", err)
	}
	return &item, nil
}

func validateQuery(text string) error {
	if text == "" {
		return fmt.Errorf("%w: query is required", models.ErrInvalidQuery)
	}
	return nil
}
