package vectordb

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/milvus-io/milvus-sdk-go/v2/client"
	"github.com/milvus-io/milvus-sdk-go/v2/entity"

	"github.com/imtushar0001/Pathway-INTER-IIT/internal/common/logger"
	"github.com/imtushar0001/Pathway-INTER-IIT/internal/config"
	"github.com/imtushar0001/Pathway-INTER-IIT/internal/errs"
	"github.com/imtushar0001/Pathway-INTER-IIT/internal/schema"
)

const (
	fieldID        = "id"
	fieldContent   = "content"
	fieldMetadata  = "metadata"
	fieldCreatedAt = "created_at"
	fieldVector    = "vector"

	maxContentLen = 65535
)

// MilvusStore keeps document chunks in one Milvus collection.
type MilvusStore struct {
	cli        client.Client
	collection string
	dim        int
	metric     entity.MetricType
}

// NewMilvus connects and makes sure the collection exists, is indexed and loaded.
func NewMilvus(ctx context.Context, cfg config.VectorDBConfig, dim int) (*MilvusStore, error) {
	cctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	cli, err := client.NewClient(cctx, client.Config{
		Address:  cfg.Address(),
		Username: cfg.Username,
		Password: cfg.Password,
		DBName:   cfg.Database,
	})
	if err != nil {
		return nil, errs.Wrap(errs.ErrRetrievalUnavailable, "milvus.connect", err)
	}
	s := &MilvusStore{
		cli:        cli,
		collection: cfg.Collection,
		dim:        dim,
		metric:     metricType(cfg.MetricType),
	}
	if err := s.ensureCollection(cctx); err != nil {
		_ = cli.Close()
		return nil, err
	}
	return s, nil
}

func metricType(name string) entity.MetricType {
	switch strings.ToUpper(name) {
	case "L2":
		return entity.L2
	case "COSINE":
		return entity.COSINE
	default:
		return entity.IP
	}
}

func (s *MilvusStore) ensureCollection(ctx context.Context) error {
	has, err := s.cli.HasCollection(ctx, s.collection)
	if err != nil {
		return errs.Wrap(errs.ErrRetrievalUnavailable, "milvus.has_collection", err)
	}
	if !has {
		logger.Infof("milvus: creating collection %s (dim=%d)", s.collection, s.dim)
		sch := entity.NewSchema().
			WithName(s.collection).
			WithDescription("document chunks").
			WithField(entity.NewField().WithName(fieldID).WithDataType(entity.FieldTypeVarChar).WithIsPrimaryKey(true).WithMaxLength(64)).
			WithField(entity.NewField().WithName(fieldContent).WithDataType(entity.FieldTypeVarChar).WithMaxLength(maxContentLen)).
			WithField(entity.NewField().WithName(fieldMetadata).WithDataType(entity.FieldTypeJSON)).
			WithField(entity.NewField().WithName(fieldCreatedAt).WithDataType(entity.FieldTypeInt64)).
			WithField(entity.NewField().WithName(fieldVector).WithDataType(entity.FieldTypeFloatVector).WithDim(int64(s.dim)))
		if err := s.cli.CreateCollection(ctx, sch, entity.DefaultShardNumber); err != nil {
			return errs.Wrap(errs.ErrRetrievalUnavailable, "milvus.create_collection", err)
		}
		idx, err := entity.NewIndexHNSW(s.metric, 16, 200)
		if err != nil {
			return errs.Wrap(errs.ErrRetrievalUnavailable, "milvus.create_index", err)
		}
		if err := s.cli.CreateIndex(ctx, s.collection, fieldVector, idx, false); err != nil {
			return errs.Wrap(errs.ErrRetrievalUnavailable, "milvus.create_index", err)
		}
	}
	if err := s.cli.LoadCollection(ctx, s.collection, false); err != nil {
		return errs.Wrap(errs.ErrRetrievalUnavailable, "milvus.load_collection", err)
	}
	return nil
}

func (s *MilvusStore) Upsert(ctx context.Context, docs []schema.Document) error {
	if len(docs) == 0 {
		return nil
	}
	cols, err := buildColumns(docs, s.dim)
	if err != nil {
		return errs.Wrap(errs.ErrRetrievalUnavailable, "milvus.upsert", err)
	}
	if _, err := s.cli.Upsert(ctx, s.collection, "", cols...); err != nil {
		return errs.Wrap(errs.ErrRetrievalUnavailable, "milvus.upsert", err)
	}
	if err := s.cli.Flush(ctx, s.collection, false); err != nil {
		return errs.Wrap(errs.ErrRetrievalUnavailable, "milvus.flush", err)
	}
	return nil
}

func (s *MilvusStore) DeleteFile(ctx context.Context, file string) error {
	if err := s.cli.Delete(ctx, s.collection, "", fileExpr(file)); err != nil {
		return errs.Wrap(errs.ErrRetrievalUnavailable, "milvus.delete", err)
	}
	return nil
}

// fileExpr matches chunks by the file key of the JSON metadata field.
func fileExpr(file string) string {
	r := strings.NewReplacer(`\`, `\\`, `"`, `\"`)
	return fmt.Sprintf(`%s["%s"] == "%s"`, fieldMetadata, schema.MetaFile, r.Replace(file))
}

func buildColumns(docs []schema.Document, dim int) ([]entity.Column, error) {
	ids := make([]string, len(docs))
	contents := make([]string, len(docs))
	metas := make([][]byte, len(docs))
	created := make([]int64, len(docs))
	vectors := make([][]float32, len(docs))
	for i, d := range docs {
		if len(d.Vector) != dim {
			return nil, fmt.Errorf("document %s: vector has %d dimensions, collection expects %d", d.ID, len(d.Vector), dim)
		}
		meta := d.Metadata
		if meta == nil {
			meta = map[string]interface{}{}
		}
		b, err := json.Marshal(meta)
		if err != nil {
			return nil, fmt.Errorf("document %s: metadata: %w", d.ID, err)
		}
		ids[i] = d.ID
		contents[i] = truncateBytes(d.Content, maxContentLen)
		metas[i] = b
		created[i] = d.CreatedAt.Unix()
		vectors[i] = d.Vector
	}
	return []entity.Column{
		entity.NewColumnVarChar(fieldID, ids),
		entity.NewColumnVarChar(fieldContent, contents),
		entity.NewColumnJSONBytes(fieldMetadata, metas),
		entity.NewColumnInt64(fieldCreatedAt, created),
		entity.NewColumnFloatVector(fieldVector, dim, vectors),
	}, nil
}

func (s *MilvusStore) Search(ctx context.Context, vector []float32, opts schema.SearchOptions) ([]schema.SearchResult, error) {
	topK := opts.TopK
	if topK <= 0 {
		topK = 5
	}
	sp, err := entity.NewIndexHNSWSearchParam(64)
	if err != nil {
		return nil, errs.Wrap(errs.ErrRetrievalUnavailable, "milvus.search", err)
	}
	res, err := s.cli.Search(ctx, s.collection, nil, "",
		[]string{fieldContent, fieldMetadata, fieldCreatedAt},
		[]entity.Vector{entity.FloatVector(vector)},
		fieldVector, s.metric, topK, sp)
	if err != nil {
		return nil, errs.Wrap(errs.ErrRetrievalUnavailable, "milvus.search", err)
	}

	out := make([]schema.SearchResult, 0, topK)
	for _, r := range res {
		contentCol := r.Fields.GetColumn(fieldContent)
		metaCol, _ := r.Fields.GetColumn(fieldMetadata).(*entity.ColumnJSONBytes)
		createdCol, _ := r.Fields.GetColumn(fieldCreatedAt).(*entity.ColumnInt64)
		for i := 0; i < r.ResultCount; i++ {
			id, err := r.IDs.GetAsString(i)
			if err != nil {
				return nil, errs.Wrap(errs.ErrRetrievalUnavailable, "milvus.search", err)
			}
			doc := schema.Document{ID: id}
			if contentCol != nil {
				doc.Content, _ = contentCol.GetAsString(i)
			}
			if metaCol != nil {
				if raw, err := metaCol.ValueByIdx(i); err == nil {
					_ = json.Unmarshal(raw, &doc.Metadata)
				}
			}
			if createdCol != nil {
				if ts, err := createdCol.ValueByIdx(i); err == nil {
					doc.CreatedAt = time.Unix(ts, 0)
				}
			}
			score := normalizeScore(s.metric, r.Scores[i])
			if opts.Threshold > 0 && score < opts.Threshold {
				continue
			}
			out = append(out, schema.SearchResult{Document: doc, Score: score})
		}
	}
	return out, nil
}

// normalizeScore maps raw Milvus scores so that higher is always better.
func normalizeScore(metric entity.MetricType, raw float32) float64 {
	if metric == entity.L2 {
		return 1 / (1 + float64(raw))
	}
	return float64(raw)
}

func truncateBytes(s string, n int) string {
	if len(s) <= n {
		return s
	}
	cut := n
	// keep utf-8 intact
	for cut > 0 && (s[cut]&0xC0) == 0x80 {
		cut--
	}
	return s[:cut]
}

func (s *MilvusStore) Close() error {
	return s.cli.Close()
}

var _ Store = (*MilvusStore)(nil)
