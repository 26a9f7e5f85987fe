// Package qdrant adapts vectorstore.Store to a Qdrant collection over its
// gRPC API.
package qdrant

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"

	"github.com/google/uuid"
	qdrant "github.com/qdrant/go-client/qdrant"

	"github.com/orcarun/orca"
	"github.com/orcarun/orca/vectorstore"
)

// originalIDField is the payload key a non-UUID caller ID is stashed under,
// since Qdrant only accepts UUIDs and unsigned integers as point IDs.
const originalIDField = "_original_id"

// Store implements vectorstore.Store against a Qdrant collection.
type Store struct {
	client *qdrant.Client
	metric string
}

// New connects to the Qdrant instance at dsn. dsn is parsed as a URL; its
// host/port address the gRPC API (default port 6334), and an "api_key"
// query parameter, if present, authenticates the connection. metric is one
// of cosine, l2/euclidean, ip/dot, or manhattan; anything else defaults to
// cosine.
func New(dsn, metric string) (*Store, error) {
	parsed, err := url.Parse(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse qdrant dsn: %w", err)
	}
	host := parsed.Hostname()
	if host == "" {
		host = "localhost"
	}
	portStr := parsed.Port()
	if portStr == "" {
		portStr = "6334"
	}
	port, err := strconv.Atoi(portStr)
	if err != nil {
		return nil, fmt.Errorf("invalid port in qdrant dsn: %w", err)
	}
	cfg := &qdrant.Config{Host: host, Port: port}
	if parsed.Scheme == "https" {
		cfg.UseTLS = true
	}
	if apiKey := parsed.Query().Get("api_key"); apiKey != "" {
		cfg.APIKey = apiKey
	}
	client, err := qdrant.NewClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("create qdrant client: %w", err)
	}
	return &Store{client: client, metric: strings.ToLower(strings.TrimSpace(metric))}, nil
}

func (s *Store) distance() qdrant.Distance {
	switch s.metric {
	case "l2", "euclidean":
		return qdrant.Distance_Euclid
	case "ip", "dot":
		return qdrant.Distance_Dot
	case "manhattan":
		return qdrant.Distance_Manhattan
	default:
		return qdrant.Distance_Cosine
	}
}

// CreateCollection implements vectorstore.Store.
func (s *Store) CreateCollection(ctx context.Context, name string, dimension int) error {
	if dimension <= 0 {
		return fmt.Errorf("qdrant: dimension must be > 0")
	}
	exists, err := s.client.CollectionExists(ctx, name)
	if err != nil {
		return fmt.Errorf("qdrant: check collection exists: %w", err)
	}
	if exists {
		return orca.ErrCollectionExists
	}
	err = s.client.CreateCollection(ctx, &qdrant.CreateCollection{
		CollectionName: name,
		VectorsConfig: qdrant.NewVectorsConfig(&qdrant.VectorParams{
			Size:     uint64(dimension),
			Distance: s.distance(),
		}),
	})
	if err != nil {
		return fmt.Errorf("qdrant: create collection: %w", err)
	}
	return nil
}

// DeleteCollection implements vectorstore.Store.
func (s *Store) DeleteCollection(ctx context.Context, name string) error {
	exists, err := s.client.CollectionExists(ctx, name)
	if err != nil {
		return fmt.Errorf("qdrant: check collection exists: %w", err)
	}
	if !exists {
		return orca.ErrCollectionMissing
	}
	return s.client.DeleteCollection(ctx, name)
}

// Upsert implements vectorstore.Store.
func (s *Store) Upsert(ctx context.Context, collection string, point vectorstore.Point) error {
	return s.UpsertMany(ctx, collection, []vectorstore.Point{point})
}

// UpsertMany implements vectorstore.Store.
func (s *Store) UpsertMany(ctx context.Context, collection string, points []vectorstore.Point) error {
	out := make([]*qdrant.PointStruct, 0, len(points))
	for _, p := range points {
		pointID, payload := toQdrantIdentity(p)
		vec := make([]float32, len(p.Vector))
		copy(vec, p.Vector)
		out = append(out, &qdrant.PointStruct{
			Id:      pointID,
			Vectors: qdrant.NewVectorsDense(vec),
			Payload: payload,
		})
	}
	_, err := s.client.Upsert(ctx, &qdrant.UpsertPoints{
		CollectionName: collection,
		Points:         out,
	})
	return err
}

// toQdrantIdentity derives a Qdrant-legal point ID, stashing the original
// caller-supplied ID in the payload when it isn't already a UUID.
func toQdrantIdentity(p vectorstore.Point) (*qdrant.PointId, map[string]*qdrant.Value) {
	uuidStr := p.ID
	if _, err := uuid.Parse(p.ID); err != nil {
		uuidStr = uuid.NewSHA1(uuid.NameSpaceOID, []byte(p.ID)).String()
	}
	payload := make(map[string]any, len(p.Payload)+1)
	for k, v := range p.Payload {
		payload[k] = v
	}
	if uuidStr != p.ID {
		payload[originalIDField] = p.ID
	}
	return qdrant.NewIDUUID(uuidStr), qdrant.NewValueMap(payload)
}

// Search implements vectorstore.Store.
func (s *Store) Search(ctx context.Context, collection string, query orca.Embedding, limit int, filter *vectorstore.Filter) ([]vectorstore.SearchResult, error) {
	if limit <= 0 {
		limit = 10
	}
	vec := make([]float32, len(query))
	copy(vec, query)

	var qFilter *qdrant.Filter
	if filter != nil && len(filter.Must) > 0 {
		must := make([]*qdrant.Condition, 0, len(filter.Must))
		for _, c := range filter.Must {
			cond, err := toQdrantCondition(c)
			if err != nil {
				return nil, err
			}
			must = append(must, cond)
		}
		qFilter = &qdrant.Filter{Must: must}
	}

	l := uint64(limit)
	hits, err := s.client.Query(ctx, &qdrant.QueryPoints{
		CollectionName: collection,
		Query:          qdrant.NewQueryDense(vec),
		Limit:          &l,
		Filter:         qFilter,
		WithPayload:    qdrant.NewWithPayload(true),
	})
	if err != nil {
		return nil, err
	}

	results := make([]vectorstore.SearchResult, 0, len(hits))
	for _, hit := range hits {
		uuidStr := hit.Id.GetUuid()
		if uuidStr == "" {
			uuidStr = hit.Id.String()
		}
		payload := make(map[string]any, len(hit.Payload))
		originalID := ""
		for k, v := range hit.Payload {
			if k == originalIDField {
				originalID = v.GetStringValue()
				continue
			}
			payload[k] = fromQdrantValue(v)
		}
		id := originalID
		if id == "" {
			id = uuidStr
		}
		results = append(results, vectorstore.SearchResult{
			Point: vectorstore.Point{ID: id, Payload: payload},
			Score: hit.Score,
		})
	}
	return results, nil
}

// fromQdrantValue decodes a Qdrant payload value back into the Go type that
// produced it (NewValueMap encodes string/bool/int64/float64 in kind). A
// value of any other kind (null, struct, list) decodes to the empty string.
func fromQdrantValue(v *qdrant.Value) any {
	switch v.GetKind().(type) {
	case *qdrant.Value_StringValue:
		return v.GetStringValue()
	case *qdrant.Value_IntegerValue:
		return v.GetIntegerValue()
	case *qdrant.Value_BoolValue:
		return v.GetBoolValue()
	case *qdrant.Value_DoubleValue:
		return v.GetDoubleValue()
	default:
		return v.GetStringValue()
	}
}

// toQdrantCondition converts a Condition into a Qdrant match filter.
// NewCondition already rejects float/struct/list matches at construction
// time; a Condition built directly with any other Match type still gets
// ErrUnsupportedMatchValue here.
func toQdrantCondition(c vectorstore.Condition) (*qdrant.Condition, error) {
	switch v := c.Match.(type) {
	case string:
		return qdrant.NewMatch(c.Key, v), nil
	case bool:
		return qdrant.NewMatchBool(c.Key, v), nil
	case int:
		return qdrant.NewMatchInt(c.Key, int64(v)), nil
	case int64:
		return qdrant.NewMatchInt(c.Key, v), nil
	default:
		return nil, orca.ErrUnsupportedMatchValue
	}
}

var _ vectorstore.Store = (*Store)(nil)
