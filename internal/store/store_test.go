package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/openappraisal/appraisal-engine/internal/appraisal"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "appraisals.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func sampleResult(name string, value float64) *appraisal.AppraisalResult {
	return &appraisal.AppraisalResult{
		ID:        uuid.NewString(),
		CreatedAt: time.Now().UTC(),
		Subject: appraisal.SubjectProperty{
			Name:         name,
			PropertyType: appraisal.PropertyOffice,
			Location:     appraisal.LocationAttributes{City: "Fort Worth", State: "TX"},
		},
		Validation: appraisal.ValidationResult{IsValid: true, QualityScore: 94},
		FinalValue: value,
		Confidence: 82,
		Metadata: appraisal.RunMetadata{
			EffectiveDate: time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC),
		},
	}
}

func TestSaveAndGet(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	want := sampleResult("Riverside Commons", 13_600_000)
	if err := s.Save(ctx, want); err != nil {
		t.Fatalf("save: %v", err)
	}

	got, err := s.Get(ctx, want.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Subject.Name != want.Subject.Name || got.FinalValue != want.FinalValue {
		t.Fatalf("round trip mismatch: %+v", got)
	}
	if got.Validation.QualityScore != 94 {
		t.Fatalf("quality score %d", got.Validation.QualityScore)
	}
}

func TestGetMissing(t *testing.T) {
	s := openTestStore(t)
	if _, err := s.Get(context.Background(), "no-such-id"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestSaveIsIdempotentOnID(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	r := sampleResult("Summit Tower", 14_000_000)
	if err := s.Save(ctx, r); err != nil {
		t.Fatalf("save: %v", err)
	}
	r.FinalValue = 14_200_000
	if err := s.Save(ctx, r); err != nil {
		t.Fatalf("resave: %v", err)
	}

	got, err := s.Get(ctx, r.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.FinalValue != 14_200_000 {
		t.Fatalf("expected updated value, got %.0f", got.FinalValue)
	}
	list, err := s.List(ctx, 10, 0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 1 {
		t.Fatalf("expected 1 row, got %d", len(list))
	}
}

func TestListOrdersNewestFirst(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	older := sampleResult("Older", 1_000_000)
	older.CreatedAt = time.Now().UTC().Add(-time.Hour)
	newer := sampleResult("Newer", 2_000_000)
	for _, r := range []*appraisal.AppraisalResult{older, newer} {
		if err := s.Save(ctx, r); err != nil {
			t.Fatalf("save: %v", err)
		}
	}

	list, err := s.List(ctx, 10, 0)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(list) != 2 || list[0].PropertyName != "Newer" {
		t.Fatalf("unexpected order: %+v", list)
	}
}

func TestDelete(t *testing.T) {
	s := openTestStore(t)
	ctx := context.Background()

	r := sampleResult("Doomed", 5_000_000)
	if err := s.Save(ctx, r); err != nil {
		t.Fatalf("save: %v", err)
	}
	if err := s.Delete(ctx, r.ID); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if err := s.Delete(ctx, r.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound on second delete, got %v", err)
	}
}
