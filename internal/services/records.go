package services

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/firestore"
	"go.uber.org/zap"
	"google.golang.org/api/iterator"

	apperrors "memoir-api/internal/errors"
	"memoir-api/internal/models"
)

// RecordQuery narrows a photo-record lookup. The zero value matches
// everything.
type RecordQuery struct {
	OwnerID string
	Filter  map[string]interface{} // field -> required value
	Limit   int
}

// RecordSource is the read-only view of the photo-record store that this
// pipeline consumes. Uploading and editing records belongs to the CRUD
// layer outside this codebase.
type RecordSource interface {
	QueryRecords(ctx context.Context, q RecordQuery) ([]models.PhotoRecord, error)
	RecordsByCategory(ctx context.Context, ownerID, category string) ([]models.PhotoRecord, error)
	RecordsByMonth(ctx context.Context, ownerID string, start, end time.Time) ([]models.PhotoRecord, error)
}

type FirestoreRecordSource struct {
	client     *firestore.Client
	collection string
	logger     *zap.Logger
}

func NewFirestoreRecordSource(client *firestore.Client, collection string, logger *zap.Logger) *FirestoreRecordSource {
	return &FirestoreRecordSource{
		client:     client,
		collection: collection,
		logger:     logger,
	}
}

// Retrieves photo records matching the query, ordered by creation time.
func (rs *FirestoreRecordSource) QueryRecords(ctx context.Context, q RecordQuery) ([]models.PhotoRecord, error) {
	if q.Limit < 0 {
		return nil, fmt.Errorf("%w: limit cannot be negative", apperrors.ErrInvalidInput)
	}

	query := rs.client.Collection(rs.collection).Query
	if q.OwnerID != "" {
		query = query.Where("userId", "==", q.OwnerID)
	}
	for field, value := range q.Filter {
		query = query.Where(field, "==", value)
	}
	query = query.OrderBy("createdAt", firestore.Asc)

	if q.Limit > 0 {
		// Cap maximum limit to prevent excessive memory usage
		if q.Limit > 1000 {
			q.Limit = 1000
		}
		query = query.Limit(q.Limit)
	}

	return rs.collect(ctx, query)
}

// Retrieves an owner's records carrying the given category.
func (rs *FirestoreRecordSource) RecordsByCategory(ctx context.Context, ownerID, category string) ([]models.PhotoRecord, error) {
	query := rs.client.Collection(rs.collection).
		Where("userId", "==", ownerID).
		Where("categories", "array-contains", category).
		OrderBy("createdAt", firestore.Asc)

	return rs.collect(ctx, query)
}

// Retrieves an owner's records created inside the half-open [start, end)
// interval.
func (rs *FirestoreRecordSource) RecordsByMonth(ctx context.Context, ownerID string, start, end time.Time) ([]models.PhotoRecord, error) {
	query := rs.client.Collection(rs.collection).
		Where("userId", "==", ownerID).
		Where("createdAt", ">=", start).
		Where("createdAt", "<", end).
		OrderBy("createdAt", firestore.Asc)

	return rs.collect(ctx, query)
}

func (rs *FirestoreRecordSource) collect(ctx context.Context, query firestore.Query) ([]models.PhotoRecord, error) {
	iter := query.Documents(ctx)
	defer iter.Stop()

	var results []models.PhotoRecord
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to iterate records: %w", err)
		}

		var record models.PhotoRecord
		if err := doc.DataTo(&record); err != nil {
			// Log but don't fail on individual document parse errors
			rs.logger.Warn("skipping malformed photo record",
				zap.String("doc", doc.Ref.ID),
				zap.Error(err))
			continue
		}
		record.ID = doc.Ref.ID

		results = append(results, record)
	}

	return results, nil
}

// BlobDocument is one binary photo document from the blob collection. The
// payload shape varies by importer; the ingestor normalizes it.
type BlobDocument struct {
	ID      string
	Payload interface{}
}

// BlobSource streams binary photo documents out of the document store.
type BlobSource interface {
	Blobs(ctx context.Context) ([]BlobDocument, error)
}

type FirestoreBlobSource struct {
	client     *firestore.Client
	collection string
}

func NewFirestoreBlobSource(client *firestore.Client, collection string) *FirestoreBlobSource {
	return &FirestoreBlobSource{client: client, collection: collection}
}

// Retrieves every document in the blob collection, surfacing the raw "data"
// field untouched. Documents without one are surfaced with a nil payload so
// the caller can count skips.
func (bs *FirestoreBlobSource) Blobs(ctx context.Context) ([]BlobDocument, error) {
	iter := bs.client.Collection(bs.collection).Documents(ctx)
	defer iter.Stop()

	var blobs []BlobDocument
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to iterate blobs: %w", err)
		}

		blobs = append(blobs, BlobDocument{
			ID:      doc.Ref.ID,
			Payload: doc.Data()["data"],
		})
	}

	return blobs, nil
}
