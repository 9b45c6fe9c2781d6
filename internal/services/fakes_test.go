package services

import (
	"context"
	"fmt"
	"sort"
	"time"

	apperrors "memoir-api/internal/errors"
	"memoir-api/internal/models"
)

// In-memory doubles for the store interfaces. They keep the same contracts
// as the Firestore implementations: title-keyed scrapbook lookup, set
// semantics on membership, owner-partitioned album replacement.

type fakeGeocoder struct {
	fn    func(models.GeoPoint) ([]models.Boundary, error)
	calls int
}

func (g *fakeGeocoder) ReverseGeocode(_ context.Context, point models.GeoPoint) ([]models.Boundary, error) {
	g.calls++
	return g.fn(point)
}

type memRecordSource struct {
	records []models.PhotoRecord
}

func (m *memRecordSource) QueryRecords(_ context.Context, q RecordQuery) ([]models.PhotoRecord, error) {
	var out []models.PhotoRecord
	for _, r := range m.records {
		if q.OwnerID != "" && r.OwnerID != q.OwnerID {
			continue
		}
		out = append(out, r)
		if q.Limit > 0 && len(out) == q.Limit {
			break
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (m *memRecordSource) RecordsByCategory(_ context.Context, ownerID, category string) ([]models.PhotoRecord, error) {
	var out []models.PhotoRecord
	for _, r := range m.records {
		if r.OwnerID == ownerID && r.HasCategory(category) {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

func (m *memRecordSource) RecordsByMonth(_ context.Context, ownerID string, start, end time.Time) ([]models.PhotoRecord, error) {
	var out []models.PhotoRecord
	for _, r := range m.records {
		if r.OwnerID != ownerID {
			continue
		}
		if r.CreatedAt.Before(start) || !r.CreatedAt.Before(end) {
			continue
		}
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

type memCollectionStore struct {
	albums     map[string][]models.Album
	scrapbooks []*models.Scrapbook
	nextID     int
}

func newMemCollectionStore() *memCollectionStore {
	return &memCollectionStore{albums: make(map[string][]models.Album)}
}

func (m *memCollectionStore) ReplaceAlbums(_ context.Context, ownerID string, albums []models.Album) error {
	m.albums[ownerID] = append([]models.Album(nil), albums...)
	return nil
}

func (m *memCollectionStore) FindScrapbook(_ context.Context, ownerID, title string) (*models.Scrapbook, error) {
	for _, sb := range m.scrapbooks {
		if sb.OwnerID == ownerID && sb.Title == title {
			copied := *sb
			copied.Posts = append([]string(nil), sb.Posts...)
			return &copied, nil
		}
	}
	return nil, apperrors.ErrNotFound
}

func (m *memCollectionStore) CreateScrapbook(_ context.Context, scrapbook *models.Scrapbook) (string, error) {
	m.nextID++
	scrapbook.ID = fmt.Sprintf("sb-%d", m.nextID)
	copied := *scrapbook
	copied.Posts = append([]string(nil), scrapbook.Posts...)
	m.scrapbooks = append(m.scrapbooks, &copied)
	return scrapbook.ID, nil
}

func (m *memCollectionStore) AddScrapbookPost(_ context.Context, scrapbookID, postID string) error {
	sb := m.byID(scrapbookID)
	if sb == nil {
		return apperrors.ErrNotFound
	}
	if !sb.HasPost(postID) {
		sb.Posts = append(sb.Posts, postID)
	}
	return nil
}

func (m *memCollectionStore) RemoveScrapbookPost(_ context.Context, scrapbookID, postID string) error {
	sb := m.byID(scrapbookID)
	if sb == nil {
		return apperrors.ErrNotFound
	}
	kept := sb.Posts[:0]
	for _, p := range sb.Posts {
		if p != postID {
			kept = append(kept, p)
		}
	}
	sb.Posts = kept
	return nil
}

func (m *memCollectionStore) SetScrapbookDescription(_ context.Context, scrapbookID, description string) error {
	sb := m.byID(scrapbookID)
	if sb == nil {
		return apperrors.ErrNotFound
	}
	sb.Description = description
	return nil
}

func (m *memCollectionStore) ScrapbooksContaining(_ context.Context, postID string) ([]models.Scrapbook, error) {
	var out []models.Scrapbook
	for _, sb := range m.scrapbooks {
		if sb.HasPost(postID) {
			copied := *sb
			copied.Posts = append([]string(nil), sb.Posts...)
			out = append(out, copied)
		}
	}
	return out, nil
}

func (m *memCollectionStore) byID(id string) *models.Scrapbook {
	for _, sb := range m.scrapbooks {
		if sb.ID == id {
			return sb
		}
	}
	return nil
}

func (m *memCollectionStore) byTitle(ownerID, title string) *models.Scrapbook {
	for _, sb := range m.scrapbooks {
		if sb.OwnerID == ownerID && sb.Title == title {
			return sb
		}
	}
	return nil
}

type memBlobSource struct {
	blobs []BlobDocument
}

func (m *memBlobSource) Blobs(context.Context) ([]BlobDocument, error) {
	return m.blobs, nil
}
