package services

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	apperrors "memoir-api/internal/errors"
	"memoir-api/internal/models"
	"memoir-api/internal/utils"
)

// DefaultScrapbookMinPosts gates scrapbook creation: a month or category
// scrapbook exists only once this many records match it.
const DefaultScrapbookMinPosts = 6

// ScrapbookUpdate reports what one event did, per scrapbook title.
type ScrapbookUpdate struct {
	Disabled       bool
	Created        []string
	Updated        []string
	BelowThreshold []string
}

// ListSummary reports a batch regeneration run.
type ListSummary struct {
	Disabled       bool
	ListsCreated   int
	ListsUpdated   int
	BelowThreshold int
	TotalPosts     int
}

// ScrapbookService incrementally maintains per-owner month and category
// scrapbooks from photo-record create/update/delete events. The whole path
// sits behind one enable flag injected at construction; when disabled every
// operation is an explicit no-op, not an error.
type ScrapbookService struct {
	records  RecordSource
	store    CollectionStore
	enabled  bool
	minPosts int
	logger   *zap.Logger
}

func NewScrapbookService(records RecordSource, store CollectionStore, enabled bool, minPosts int, logger *zap.Logger) *ScrapbookService {
	if minPosts < 1 {
		minPosts = DefaultScrapbookMinPosts
	}
	return &ScrapbookService{
		records:  records,
		store:    store,
		enabled:  enabled,
		minPosts: minPosts,
		logger:   logger,
	}
}

// CategoryTitle is the deterministic title of a category scrapbook.
func CategoryTitle(category string) string {
	return "My " + category + " Memories"
}

func scrapbookDescription(count int) string {
	if count == 1 {
		return "A scrapbook of 1 memory."
	}
	return fmt.Sprintf("A scrapbook of %d memories.", count)
}

// HandleRecordCreated reacts to a new photo record: its month scrapbook and
// every category scrapbook either gains the record (when already active) or
// is created the moment the matching-record count reaches the threshold.
func (s *ScrapbookService) HandleRecordCreated(ctx context.Context, record *models.PhotoRecord) (*ScrapbookUpdate, error) {
	if !s.enabled {
		return &ScrapbookUpdate{Disabled: true}, nil
	}

	update := &ScrapbookUpdate{}

	monthTitle := utils.MonthTitle(record.CreatedAt)
	if err := s.addToScrapbook(ctx, record, monthTitle, s.monthMatches(record), update); err != nil {
		return nil, err
	}

	for _, category := range record.Categories {
		if err := s.addToScrapbook(ctx, record, CategoryTitle(category), s.categoryMatches(record.OwnerID, category), update); err != nil {
			return nil, err
		}
	}

	return update, nil
}

// HandleRecordUpdated reconciles category scrapbooks after a record edit:
// the record is pulled from scrapbooks of categories it no longer has, then
// added to its new categories, respecting the creation threshold for titles
// that are not active yet.
func (s *ScrapbookService) HandleRecordUpdated(ctx context.Context, old, updated *models.PhotoRecord) (*ScrapbookUpdate, error) {
	if !s.enabled {
		return &ScrapbookUpdate{Disabled: true}, nil
	}

	update := &ScrapbookUpdate{}

	for _, category := range old.Categories {
		if updated.HasCategory(category) {
			continue
		}
		if err := s.removeFromTitled(ctx, updated.OwnerID, CategoryTitle(category), old.ID, update); err != nil {
			return nil, err
		}
	}

	for _, category := range updated.Categories {
		if old.HasCategory(category) {
			continue
		}
		if err := s.addToScrapbook(ctx, updated, CategoryTitle(category), s.categoryMatches(updated.OwnerID, category), update); err != nil {
			return nil, err
		}
	}

	return update, nil
}

// HandleRecordDeleted pulls the record out of every scrapbook that lists
// it, leaving other members untouched.
func (s *ScrapbookService) HandleRecordDeleted(ctx context.Context, recordID string) (*ScrapbookUpdate, error) {
	if !s.enabled {
		return &ScrapbookUpdate{Disabled: true}, nil
	}

	scrapbooks, err := s.store.ScrapbooksContaining(ctx, recordID)
	if err != nil {
		return nil, err
	}

	update := &ScrapbookUpdate{}
	for _, scrapbook := range scrapbooks {
		if err := s.store.RemoveScrapbookPost(ctx, scrapbook.ID, recordID); err != nil {
			return nil, err
		}
		if err := s.store.SetScrapbookDescription(ctx, scrapbook.ID, scrapbookDescription(len(scrapbook.Posts)-1)); err != nil {
			return nil, err
		}
		update.Updated = append(update.Updated, scrapbook.Title)
	}

	s.logger.Info("record pulled from scrapbooks",
		zap.String("record", recordID),
		zap.Int("scrapbooks", len(scrapbooks)))

	return update, nil
}

// matcher fetches all records currently matching one scrapbook key.
type matcher func(ctx context.Context) ([]models.PhotoRecord, error)

func (s *ScrapbookService) monthMatches(record *models.PhotoRecord) matcher {
	ownerID := record.OwnerID
	start, end := utils.MonthBounds(record.CreatedAt)
	return func(ctx context.Context) ([]models.PhotoRecord, error) {
		return s.records.RecordsByMonth(ctx, ownerID, start, end)
	}
}

func (s *ScrapbookService) categoryMatches(ownerID, category string) matcher {
	return func(ctx context.Context) ([]models.PhotoRecord, error) {
		return s.records.RecordsByCategory(ctx, ownerID, category)
	}
}

// addToScrapbook runs the Absent->Active / Active->Active transitions for
// one (owner, title) key.
func (s *ScrapbookService) addToScrapbook(ctx context.Context, record *models.PhotoRecord, title string, match matcher, update *ScrapbookUpdate) error {
	scrapbook, err := s.store.FindScrapbook(ctx, record.OwnerID, title)
	switch {
	case err == nil:
		// Active: set-semantics membership update plus description refresh.
		count := len(scrapbook.Posts)
		if !scrapbook.HasPost(record.ID) {
			if err := s.store.AddScrapbookPost(ctx, scrapbook.ID, record.ID); err != nil {
				return err
			}
			count++
		}
		if err := s.store.SetScrapbookDescription(ctx, scrapbook.ID, scrapbookDescription(count)); err != nil {
			return err
		}
		update.Updated = append(update.Updated, title)
		return nil

	case errors.Is(err, apperrors.ErrNotFound):
		matches, err := match(ctx)
		if err != nil {
			return err
		}
		if len(matches) < s.minPosts {
			update.BelowThreshold = append(update.BelowThreshold, title)
			return nil
		}
		if err := s.createSeeded(ctx, record.OwnerID, title, matches); err != nil {
			return err
		}
		update.Created = append(update.Created, title)
		return nil

	default:
		return err
	}
}

// createSeeded transitions a title from Absent to Active: the new scrapbook
// is seeded with all currently matching records, not just the triggering
// one, with the cover taken from the earliest match that has an image.
func (s *ScrapbookService) createSeeded(ctx context.Context, ownerID, title string, matches []models.PhotoRecord) error {
	posts := make([]string, 0, len(matches))
	seen := make(map[string]bool, len(matches))
	cover := ""

	for _, match := range matches {
		if seen[match.ID] {
			continue
		}
		seen[match.ID] = true
		posts = append(posts, match.ID)
		if cover == "" {
			cover = match.FirstImageURL()
		}
	}

	scrapbook := &models.Scrapbook{
		OwnerID:     ownerID,
		Title:       title,
		Description: scrapbookDescription(len(posts)),
		CoverImage:  cover,
		Posts:       posts,
	}

	if _, err := s.store.CreateScrapbook(ctx, scrapbook); err != nil {
		return err
	}

	s.logger.Info("scrapbook created",
		zap.String("owner", ownerID),
		zap.String("title", title),
		zap.Int("posts", len(posts)))

	return nil
}

func (s *ScrapbookService) removeFromTitled(ctx context.Context, ownerID, title, recordID string, update *ScrapbookUpdate) error {
	scrapbook, err := s.store.FindScrapbook(ctx, ownerID, title)
	if errors.Is(err, apperrors.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if !scrapbook.HasPost(recordID) {
		return nil
	}

	if err := s.store.RemoveScrapbookPost(ctx, scrapbook.ID, recordID); err != nil {
		return err
	}
	if err := s.store.SetScrapbookDescription(ctx, scrapbook.ID, scrapbookDescription(len(scrapbook.Posts)-1)); err != nil {
		return err
	}

	update.Updated = append(update.Updated, title)
	return nil
}

// GenerateLists replays all of an owner's records through the same
// threshold logic in one batch. Safe to re-run: creation is keyed by title
// and membership updates use set semantics.
func (s *ScrapbookService) GenerateLists(ctx context.Context, ownerID string) (*ListSummary, error) {
	if !s.enabled {
		return &ListSummary{Disabled: true}, nil
	}

	records, err := s.records.QueryRecords(ctx, RecordQuery{OwnerID: ownerID})
	if err != nil {
		return nil, err
	}

	// Bucket by deterministic title; records arrive in creation order so
	// each bucket keeps its earliest match first.
	buckets := make(map[string][]models.PhotoRecord)
	var order []string
	add := func(title string, record models.PhotoRecord) {
		if _, ok := buckets[title]; !ok {
			order = append(order, title)
		}
		buckets[title] = append(buckets[title], record)
	}

	for _, record := range records {
		add(utils.MonthTitle(record.CreatedAt), record)
		for _, category := range record.Categories {
			add(CategoryTitle(category), record)
		}
	}

	summary := &ListSummary{}
	for _, title := range order {
		matches := buckets[title]
		if len(matches) < s.minPosts {
			summary.BelowThreshold++
			continue
		}

		scrapbook, err := s.store.FindScrapbook(ctx, ownerID, title)
		switch {
		case errors.Is(err, apperrors.ErrNotFound):
			if err := s.createSeeded(ctx, ownerID, title, matches); err != nil {
				return nil, err
			}
			summary.ListsCreated++
			summary.TotalPosts += len(matches)

		case err != nil:
			return nil, err

		default:
			count := len(scrapbook.Posts)
			for _, match := range matches {
				if scrapbook.HasPost(match.ID) {
					continue
				}
				if err := s.store.AddScrapbookPost(ctx, scrapbook.ID, match.ID); err != nil {
					return nil, err
				}
				count++
			}
			if err := s.store.SetScrapbookDescription(ctx, scrapbook.ID, scrapbookDescription(count)); err != nil {
				return nil, err
			}
			summary.ListsUpdated++
			summary.TotalPosts += count
		}
	}

	s.logger.Info("scrapbook list generation complete",
		zap.String("owner", ownerID),
		zap.Int("created", summary.ListsCreated),
		zap.Int("updated", summary.ListsUpdated),
		zap.Int("belowThreshold", summary.BelowThreshold))

	return summary, nil
}
