// Package search maintains the derived search index. Documents live in Redis
// hashes covered by a RediSearch index; writes carry the question's mutation
// version so duplicate and out-of-order deliveries converge on the same state.
package search

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/javidhasanzade/J-Overflow/internal/observability"

	"github.com/redis/go-redis/v9"
)

const (
	docKeyPrefix  = "search:question:"
	tombKeyPrefix = "search:tombstone:"

	// tombstoneTTL bounds how long a deleted question blocks stale upserts.
	// Redeliveries older than this are assumed gone from the channel.
	tombstoneTTL = 24 * time.Hour
)

// SearchDocument is the projected, searchable shape of a question.
type SearchDocument struct {
	ID        string   `json:"id"`
	Title     string   `json:"title"`
	Content   string   `json:"content"`
	CreatedAt int64    `json:"createdAt"`
	Tags      []string `json:"tags"`
}

// DocumentStore is the index's write/read contract. Upsert and Delete are
// idempotent and versioned: a write whose version is not newer than the
// stored document (or its delete tombstone) is discarded.
type DocumentStore interface {
	Upsert(ctx context.Context, id string, version int, fields map[string]string) (bool, error)
	Delete(ctx context.Context, id string, version int) (bool, error)
	Search(ctx context.Context, query string, limit int) ([]SearchDocument, error)
}

// The version gate and the write must be atomic: two concurrent deliveries of
// the same question's events must not interleave between check and set.
var upsertScript = redis.NewScript(`
local tomb = tonumber(redis.call('GET', KEYS[2]) or '-1')
local cur = tonumber(redis.call('HGET', KEYS[1], 'version') or '-1')
local v = tonumber(ARGV[1])
if v <= tomb or v <= cur then return 0 end
redis.call('HSET', KEYS[1], 'version', ARGV[1], unpack(ARGV, 2))
return 1
`)

var deleteScript = redis.NewScript(`
local tomb = tonumber(redis.call('GET', KEYS[2]) or '-1')
local v = tonumber(ARGV[1])
if v <= tomb then return 0 end
redis.call('DEL', KEYS[1])
redis.call('SET', KEYS[2], ARGV[1], 'EX', ARGV[2])
return 1
`)

// redisDocumentStore implements DocumentStore
type redisDocumentStore struct {
	rdb   *redis.Client
	index string
}

// NewRedisDocumentStore creates a document store over the given client.
func NewRedisDocumentStore(rdb *redis.Client, index string) DocumentStore {
	return &redisDocumentStore{rdb: rdb, index: index}
}

// EnsureIndex creates the RediSearch index over the document hashes. An
// already existing index is not an error.
func EnsureIndex(ctx context.Context, rdb *redis.Client, index string) error {
	err := rdb.FTCreate(ctx, index,
		&redis.FTCreateOptions{
			OnHash: true,
			Prefix: []interface{}{docKeyPrefix},
		},
		&redis.FieldSchema{FieldName: "title", FieldType: redis.SearchFieldTypeText},
		&redis.FieldSchema{FieldName: "content", FieldType: redis.SearchFieldTypeText},
		&redis.FieldSchema{FieldName: "tags", FieldType: redis.SearchFieldTypeTag},
		&redis.FieldSchema{FieldName: "created_at", FieldType: redis.SearchFieldTypeNumeric, Sortable: true},
	).Err()
	if err != nil && strings.Contains(err.Error(), "Index already exists") {
		return nil
	}
	return err
}

func (s *redisDocumentStore) Upsert(ctx context.Context, id string, version int, fields map[string]string) (bool, error) {
	args := make([]interface{}, 0, 1+2*len(fields))
	args = append(args, version)
	for field, value := range fields {
		args = append(args, field, value)
	}
	applied, err := upsertScript.Run(ctx, s.rdb,
		[]string{docKeyPrefix + id, tombKeyPrefix + id}, args...).Int()
	if err != nil {
		observability.RedisErrors.WithLabelValues("upsert").Inc()
		return false, err
	}
	return applied == 1, nil
}

func (s *redisDocumentStore) Delete(ctx context.Context, id string, version int) (bool, error) {
	applied, err := deleteScript.Run(ctx, s.rdb,
		[]string{docKeyPrefix + id, tombKeyPrefix + id},
		version, int(tombstoneTTL.Seconds())).Int()
	if err != nil {
		observability.RedisErrors.WithLabelValues("delete").Inc()
		return false, err
	}
	return applied == 1, nil
}

func (s *redisDocumentStore) Search(ctx context.Context, query string, limit int) ([]SearchDocument, error) {
	res, err := s.rdb.FTSearchWithArgs(ctx, s.index, query, &redis.FTSearchOptions{
		LimitOffset: 0,
		Limit:       limit,
	}).Result()
	if err != nil {
		observability.RedisErrors.WithLabelValues("ftsearch").Inc()
		return nil, err
	}

	docs := make([]SearchDocument, 0, len(res.Docs))
	for _, doc := range res.Docs {
		createdAt, _ := strconv.ParseInt(doc.Fields["created_at"], 10, 64)
		sd := SearchDocument{
			ID:        strings.TrimPrefix(doc.ID, docKeyPrefix),
			Title:     doc.Fields["title"],
			Content:   doc.Fields["content"],
			CreatedAt: createdAt,
		}
		if tags := doc.Fields["tags"]; tags != "" {
			sd.Tags = strings.Split(tags, ",")
		}
		docs = append(docs, sd)
	}
	return docs, nil
}
