package search

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/hyperjump/recall/internal/models"
	"github.com/hyperjump/recall/internal/storage"
)

func c(id string, source models.Source, score float64) *models.Candidate {
	return &models.Candidate{ID: models.ReminderID(id), Source: source, Score: score}
}

func TestFusedSet_Insert(t *testing.T) {
	set := NewFusedSet()
	if !set.Insert(c("r1", models.SourceVector, 0.6)) {
		t.Fatal("first insert should be stored")
	}
	if set.Insert(c("r1", models.SourceKeyword, 0.7)) {
		t.Error("lower priority source replaced a vector hit")
	}
	if !set.Insert(c("r1", models.SourceDate, 1.0)) {
		t.Error("date source should replace a vector hit")
	}
	if set.Insert(c("r1", models.SourceDate, 1.0)) {
		t.Error("equal priority should keep the existing entry")
	}
	ranked := set.Ranked(10)
	if len(ranked) != 1 {
		t.Fatalf("len = %d, want 1", len(ranked))
	}
	if ranked[0].Source != models.SourceDate || ranked[0].Score != 1.0 {
		t.Errorf("kept %s/%v, want date/1.0", ranked[0].Source, ranked[0].Score)
	}
}

func TestFusedSet_RankedOrderAndLimit(t *testing.T) {
	set := NewFusedSet()
	for i := 0; i < 12; i++ {
		set.Insert(c(fmt.Sprintf("v%02d", i), models.SourceVector, float64(i)/20))
	}
	set.Insert(c("k1", models.SourceKeyword, 0.5))
	set.Insert(c("e1", models.SourceKeywordEmbed, 0.5))

	ranked := set.Ranked(10)
	if len(ranked) != 10 {
		t.Fatalf("len = %d, want 10", len(ranked))
	}
	for i := 1; i < len(ranked); i++ {
		if ranked[i].Score > ranked[i-1].Score {
			t.Fatalf("not sorted at %d: %v > %v", i, ranked[i].Score, ranked[i-1].Score)
		}
	}
	if ranked[0].ID != "v11" {
		t.Errorf("top = %s, want v11", ranked[0].ID)
	}
	// 0.5 ties: keyword_embed, then vector, then keyword.
	var ties []models.ReminderID
	for _, r := range ranked {
		if r.Score == 0.5 {
			ties = append(ties, r.ID)
		}
	}
	want := []models.ReminderID{"e1", "v10", "k1"}
	if fmt.Sprint(ties) != fmt.Sprint(want) {
		t.Errorf("tie order = %v, want %v", ties, want)
	}
}

func TestFuse_Idempotent(t *testing.T) {
	store := newTestStore(t)
	ctx := context.Background()
	seed(t, store, &models.Reminder{ID: "r1", UserID: "u1", Title: "Dentist", Date: "2026-01-29", Time: "09:00"})
	seed(t, store, &models.Reminder{ID: "r2", UserID: "u1", Title: "Gym"})

	retrieval := func() *Retrieval {
		var r Retrieval
		r[models.SourceVector] = []*models.Candidate{c("r1", models.SourceVector, 0.8), c("r2", models.SourceVector, 0.4)}
		r[models.SourceDate] = []*models.Candidate{c("r1", models.SourceDate, ScoreDate)}
		r[models.SourceKeyword] = []*models.Candidate{c("r2", models.SourceKeyword, ScoreKeyword)}
		return &r
	}
	first := Fuse(ctx, store, "u1", retrieval(), 10, nil)
	second := Fuse(ctx, store, "u1", retrieval(), 10, nil)

	if len(first) != 2 || len(second) != 2 {
		t.Fatalf("len = %d/%d, want 2", len(first), len(second))
	}
	for i := range first {
		if *first[i] != *second[i] {
			t.Errorf("run differs at %d: %+v vs %+v", i, first[i], second[i])
		}
	}
	if first[0].ID != "r1" || first[0].Score != 1.0 || first[0].Title != "Dentist" {
		t.Errorf("top = %+v, want hydrated r1 at 1.0", first[0])
	}
	if first[1].ID != "r2" || first[1].Source != models.SourceVector {
		t.Errorf("second = %+v, want r2 from vector", first[1])
	}
}

func TestFuse_DropsStaleIDs(t *testing.T) {
	store := newTestStore(t)
	seed(t, store, &models.Reminder{ID: "r1", UserID: "u1", Title: "Dentist"})

	var r Retrieval
	r[models.SourceVector] = []*models.Candidate{c("r1", models.SourceVector, 0.5), c("gone", models.SourceVector, 0.9)}
	fused := Fuse(context.Background(), store, "u1", &r, 10, nil)
	if len(fused) != 1 || fused[0].ID != "r1" {
		t.Errorf("fused = %+v, want only r1", fused)
	}
}

type hydrateFailStore struct {
	storage.ReminderStore
}

func (hydrateFailStore) GetReminders(context.Context, string, []models.ReminderID) ([]*models.Reminder, error) {
	return nil, errors.New("database is locked")
}

func TestFuse_HydrationFailureKeepsCandidates(t *testing.T) {
	var r Retrieval
	r[models.SourceVector] = []*models.Candidate{c("r1", models.SourceVector, 0.5)}
	fused := Fuse(context.Background(), hydrateFailStore{}, "u1", &r, 10, nil)
	if len(fused) != 1 {
		t.Errorf("len = %d, want 1", len(fused))
	}
}
