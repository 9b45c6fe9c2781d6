package services

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"go.uber.org/zap"

	"memoir-api/internal/models"
)

func TestDecodeBlobPayload(t *testing.T) {
	tests := []struct {
		name    string
		payload interface{}
		want    []byte
		wantOK  bool
	}{
		{
			name:    "raw bytes",
			payload: []byte{0x01, 0x02, 0x03},
			want:    []byte{0x01, 0x02, 0x03},
			wantOK:  true,
		},
		{
			name:    "empty bytes rejected",
			payload: []byte{},
			wantOK:  false,
		},
		{
			name:    "bytes wrapper map",
			payload: map[string]interface{}{"bytes": []byte{0xAA}},
			want:    []byte{0xAA},
			wantOK:  true,
		},
		{
			name:    "data wrapper map",
			payload: map[string]interface{}{"data": []byte{0xBB}},
			want:    []byte{0xBB},
			wantOK:  true,
		},
		{
			name:    "nested wrapper",
			payload: map[string]interface{}{"data": map[string]interface{}{"bytes": []byte{0xCC}}},
			want:    []byte{0xCC},
			wantOK:  true,
		},
		{
			name:    "int64 array",
			payload: []interface{}{int64(1), int64(255)},
			want:    []byte{0x01, 0xFF},
			wantOK:  true,
		},
		{
			name:    "float64 array",
			payload: []interface{}{float64(72), float64(105)},
			want:    []byte{'H', 'i'},
			wantOK:  true,
		},
		{
			name:    "mixed array rejected",
			payload: []interface{}{int64(1), "nope"},
			wantOK:  false,
		},
		{
			name:    "wrapper without known keys",
			payload: map[string]interface{}{"payload": []byte{0x01}},
			wantOK:  false,
		},
		{
			name:   "string rejected",
			payload: "not bytes",
			wantOK: false,
		},
		{
			name:   "nil rejected",
			wantOK: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := decodeBlobPayload(tt.payload)
			if ok != tt.wantOK {
				t.Fatalf("decodeBlobPayload() ok = %v, want %v", ok, tt.wantOK)
			}
			if !ok {
				return
			}
			if string(got) != string(tt.want) {
				t.Errorf("decodeBlobPayload() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestIngestBlobs(t *testing.T) {
	blobs := &memBlobSource{blobs: []BlobDocument{
		{ID: "blob-1", Payload: []byte{0xFF, 0xD8, 0xFF, 0xE0}},
		{ID: "blob-2", Payload: map[string]interface{}{"data": []interface{}{int64(1), int64(2)}}},
		{ID: "blob-3", Payload: "unrecognized"},
	}}

	svc := NewIngestService(nil, blobs, nil, 1, zap.NewNop())
	entries, stats, err := svc.IngestBlobs(context.Background())
	if err != nil {
		t.Fatalf("IngestBlobs error: %v", err)
	}

	if stats.Processed != 2 || stats.Skipped != 1 {
		t.Errorf("stats = %+v, want 2 processed / 1 skipped", stats)
	}
	if len(entries) != 2 {
		t.Fatalf("got %d entries, want 2", len(entries))
	}
	// Payload bytes carry no usable metadata; the entry is still produced.
	if entries[0].SourceRef != "blob-1" || entries[0].GPS != nil {
		t.Errorf("entry[0] = %+v, want metadata-less blob-1 entry", entries[0])
	}
	if stats.WithGPS != 0 {
		t.Errorf("WithGPS = %d, want 0 for garbage payloads", stats.WithGPS)
	}
}

func TestIngestDirectory(t *testing.T) {
	dir := t.TempDir()
	files := map[string][]byte{
		"a.jpg":      {0xFF, 0xD8, 0xFF, 0xE0},
		"b.HEIC":     {0x00, 0x00, 0x00, 0x18, 'f', 't', 'y', 'p', 'h', 'e', 'i', 'c'},
		"notes.txt":  []byte("not an image"),
		"thumb.webp": {0x52, 0x49, 0x46, 0x46},
	}
	for name, data := range files {
		if err := os.WriteFile(filepath.Join(dir, name), data, 0o644); err != nil {
			t.Fatal(err)
		}
	}
	if err := os.Mkdir(filepath.Join(dir, "nested"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "nested", "c.png"), []byte{0x89, 'P', 'N', 'G'}, 0o644); err != nil {
		t.Fatal(err)
	}

	svc := NewIngestService(nil, nil, nil, 1, zap.NewNop())
	entries, stats, err := svc.IngestDirectory(context.Background(), dir)
	if err != nil {
		t.Fatalf("IngestDirectory error: %v", err)
	}

	// Four image files including the nested one; the text file is ignored
	// silently, not counted as skipped.
	if stats.Processed != 4 {
		t.Errorf("Processed = %d, want 4", stats.Processed)
	}
	if stats.Skipped != 0 {
		t.Errorf("Skipped = %d, want 0", stats.Skipped)
	}
	if len(entries) != 4 {
		t.Errorf("got %d entries, want 4", len(entries))
	}
}

func TestIngestDirectoryMissing(t *testing.T) {
	svc := NewIngestService(nil, nil, nil, 1, zap.NewNop())
	if _, _, err := svc.IngestDirectory(context.Background(), filepath.Join(t.TempDir(), "absent")); err == nil {
		t.Error("IngestDirectory on a missing directory returned nil error")
	}
}

func TestIngestRecordsSkipsBadDownloads(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/ok.jpg":
			// Valid download, but no EXIF: the record path requires GPS.
			w.Write([]byte{0xFF, 0xD8, 0xFF, 0xE0, 0x00, 0x10})
		default:
			http.NotFound(w, r)
		}
	}))
	defer server.Close()

	records := &memRecordSource{records: []models.PhotoRecord{
		{
			ID:      "rec-1",
			OwnerID: "owner-1",
			Images: []models.RecordImage{
				{URL: server.URL + "/ok.jpg", Order: 0},
				{URL: server.URL + "/gone.jpg", Order: 1},
			},
			CreatedAt: time.Date(2026, time.March, 1, 0, 0, 0, 0, time.UTC),
		},
	}}

	svc := NewIngestService(records, nil, nil, 2, zap.NewNop())
	entries, stats, err := svc.IngestRecords(context.Background(), RecordQuery{OwnerID: "owner-1"})
	if err != nil {
		t.Fatalf("IngestRecords error: %v", err)
	}

	if len(entries) != 0 {
		t.Errorf("got %d entries, want 0 (no GPS, one 404)", len(entries))
	}
	if stats.Skipped != 2 || stats.Processed != 0 {
		t.Errorf("stats = %+v, want 2 skipped / 0 processed", stats)
	}
}

func TestIngestRecordsCancelledContextIsError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte{0xFF, 0xD8, 0xFF, 0xE0})
	}))
	defer server.Close()

	records := &memRecordSource{records: []models.PhotoRecord{
		{
			ID:      "rec-1",
			OwnerID: "owner-1",
			Images:  []models.RecordImage{{URL: server.URL + "/a.jpg", Order: 0}},
		},
	}}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	svc := NewIngestService(records, nil, nil, 1, zap.NewNop())
	_, _, err := svc.IngestRecords(ctx, RecordQuery{OwnerID: "owner-1"})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("IngestRecords on cancelled context = %v, want context.Canceled", err)
	}
}

func TestIngestRecordsNoFetcherForObjectPath(t *testing.T) {
	records := &memRecordSource{records: []models.PhotoRecord{
		{
			ID:      "rec-1",
			OwnerID: "owner-1",
			Images:  []models.RecordImage{{URL: "photos/owner-1/img.jpg", Order: 0}},
		},
	}}

	svc := NewIngestService(records, nil, nil, 1, zap.NewNop())
	_, stats, err := svc.IngestRecords(context.Background(), RecordQuery{OwnerID: "owner-1"})
	if err != nil {
		t.Fatalf("IngestRecords error: %v", err)
	}
	if stats.Skipped != 1 {
		t.Errorf("stats = %+v, want the object-path image skipped", stats)
	}
}
