package services

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/firestore"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	apperrors "memoir-api/internal/errors"
	"memoir-api/internal/models"
)

// CollectionStore persists the curated collections this pipeline produces.
// Albums are replaced wholesale per owner; scrapbook membership uses atomic
// set semantics so concurrent events cannot create duplicate members.
type CollectionStore interface {
	ReplaceAlbums(ctx context.Context, ownerID string, albums []models.Album) error
	FindScrapbook(ctx context.Context, ownerID, title string) (*models.Scrapbook, error)
	CreateScrapbook(ctx context.Context, scrapbook *models.Scrapbook) (string, error)
	AddScrapbookPost(ctx context.Context, scrapbookID, postID string) error
	RemoveScrapbookPost(ctx context.Context, scrapbookID, postID string) error
	SetScrapbookDescription(ctx context.Context, scrapbookID, description string) error
	ScrapbooksContaining(ctx context.Context, postID string) ([]models.Scrapbook, error)
}

type FirestoreCollectionStore struct {
	client     *firestore.Client
	albums     string
	scrapbooks string
	logger     *zap.Logger
}

func NewFirestoreCollectionStore(client *firestore.Client, albumsCollection, scrapbooksCollection string, logger *zap.Logger) *FirestoreCollectionStore {
	return &FirestoreCollectionStore{
		client:     client,
		albums:     albumsCollection,
		scrapbooks: scrapbooksCollection,
		logger:     logger,
	}
}

// Replaces all of one owner's albums with the given set: delete everything
// under the owner's partition, then insert. Stale albums from a prior run
// with different parameters must not linger, and owner A's run must never
// touch owner B's albums.
func (cs *FirestoreCollectionStore) ReplaceAlbums(ctx context.Context, ownerID string, albums []models.Album) error {
	iter := cs.client.Collection(cs.albums).Where("userId", "==", ownerID).Documents(ctx)
	defer iter.Stop()

	deleted := 0
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return fmt.Errorf("failed to list existing albums: %w", err)
		}
		if _, err := doc.Ref.Delete(ctx); err != nil {
			return fmt.Errorf("failed to delete album %s: %w", doc.Ref.ID, err)
		}
		deleted++
	}

	for i := range albums {
		album := albums[i]
		if album.ID == "" {
			album.ID = uuid.NewString()
		}
		album.OwnerID = ownerID
		if _, err := cs.client.Collection(cs.albums).Doc(album.ID).Set(ctx, album); err != nil {
			return fmt.Errorf("failed to write album %s: %w", album.BoundaryID, err)
		}
	}

	cs.logger.Info("replaced albums",
		zap.String("owner", ownerID),
		zap.Int("deleted", deleted),
		zap.Int("inserted", len(albums)))

	return nil
}

// Finds an owner's scrapbook by its deterministic title, the natural key of
// the scrapbook state machine. Returns ErrNotFound when absent.
func (cs *FirestoreCollectionStore) FindScrapbook(ctx context.Context, ownerID, title string) (*models.Scrapbook, error) {
	iter := cs.client.Collection(cs.scrapbooks).
		Where("userId", "==", ownerID).
		Where("title", "==", title).
		Limit(1).
		Documents(ctx)
	defer iter.Stop()

	doc, err := iter.Next()
	if err != nil {
		if err == iterator.Done {
			return nil, apperrors.ErrNotFound
		}
		return nil, fmt.Errorf("failed to query scrapbooks: %w", err)
	}

	var scrapbook models.Scrapbook
	if err := doc.DataTo(&scrapbook); err != nil {
		return nil, fmt.Errorf("failed to parse scrapbook: %w", err)
	}
	scrapbook.ID = doc.Ref.ID

	return &scrapbook, nil
}

// Creates a new scrapbook document and returns its id.
func (cs *FirestoreCollectionStore) CreateScrapbook(ctx context.Context, scrapbook *models.Scrapbook) (string, error) {
	if scrapbook.ID == "" {
		scrapbook.ID = uuid.NewString()
	}
	now := time.Now()
	scrapbook.CreatedAt = now
	scrapbook.UpdatedAt = now

	if _, err := cs.client.Collection(cs.scrapbooks).Doc(scrapbook.ID).Set(ctx, scrapbook); err != nil {
		return "", fmt.Errorf("failed to create scrapbook %q: %w", scrapbook.Title, err)
	}

	return scrapbook.ID, nil
}

// Adds a post reference to the membership set. ArrayUnion is a no-op when
// the reference is already present, which keeps concurrent events and
// re-runs idempotent.
func (cs *FirestoreCollectionStore) AddScrapbookPost(ctx context.Context, scrapbookID, postID string) error {
	return cs.updateScrapbook(ctx, scrapbookID, firestore.Update{
		Path:  "posts",
		Value: firestore.ArrayUnion(postID),
	})
}

// Removes a post reference from the membership set.
func (cs *FirestoreCollectionStore) RemoveScrapbookPost(ctx context.Context, scrapbookID, postID string) error {
	return cs.updateScrapbook(ctx, scrapbookID, firestore.Update{
		Path:  "posts",
		Value: firestore.ArrayRemove(postID),
	})
}

// Overwrites the generated description.
func (cs *FirestoreCollectionStore) SetScrapbookDescription(ctx context.Context, scrapbookID, description string) error {
	return cs.updateScrapbook(ctx, scrapbookID, firestore.Update{
		Path:  "description",
		Value: description,
	})
}

func (cs *FirestoreCollectionStore) updateScrapbook(ctx context.Context, scrapbookID string, update firestore.Update) error {
	updates := []firestore.Update{
		update,
		{Path: "updatedAt", Value: time.Now()},
	}
	_, err := cs.client.Collection(cs.scrapbooks).Doc(scrapbookID).Update(ctx, updates)
	if err != nil {
		// Check if document not found
		if status.Code(err) == codes.NotFound {
			return apperrors.ErrNotFound
		}
		return fmt.Errorf("failed to update scrapbook %s: %w", scrapbookID, err)
	}
	return nil
}

// Retrieves every scrapbook, across owners, whose membership set references
// the given post id. Used when a photo record is deleted.
func (cs *FirestoreCollectionStore) ScrapbooksContaining(ctx context.Context, postID string) ([]models.Scrapbook, error) {
	iter := cs.client.Collection(cs.scrapbooks).
		Where("posts", "array-contains", postID).
		Documents(ctx)
	defer iter.Stop()

	var results []models.Scrapbook
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to iterate scrapbooks: %w", err)
		}

		var scrapbook models.Scrapbook
		if err := doc.DataTo(&scrapbook); err != nil {
			cs.logger.Warn("skipping malformed scrapbook",
				zap.String("doc", doc.Ref.ID),
				zap.Error(err))
			continue
		}
		scrapbook.ID = doc.Ref.ID

		results = append(results, scrapbook)
	}

	return results, nil
}
