package repository_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/jask/pathoscreen/internal/database"
	"github.com/jask/pathoscreen/internal/database/repository"
)

func openRepo(t *testing.T) *repository.AnalysisRepo {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "history.db")
	require.NoError(t, database.RunMigrations(dbPath))
	db, err := database.Open(dbPath)
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	return repository.NewAnalysisRepo(db)
}

func TestRecordAndList(t *testing.T) {
	t.Parallel()
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	repo := openRepo(t)

	base := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	require.NoError(t, repo.Record(ctx, repository.Analysis{
		ID: "a1", Variant: "SR", Organ: "Liver", ImageName: "liver.jpg",
		Status:       repository.StatusCompleted,
		Observations: "...", Diagnosis: "Hepatocellular carcinoma, suspected",
		Confidence: "High", Disclaimer: "Not a substitute for pathologist review",
		CreatedAt: base,
	}))
	require.NoError(t, repo.Record(ctx, repository.Analysis{
		ID: "a2", Variant: "JR", Organ: "Kidney", ClinicalContext: "hematuria", ImageName: "kidney.png",
		Status: repository.StatusFailed, Error: "status 502",
		CreatedAt: base.Add(time.Minute),
	}))

	all, err := repo.List(ctx, 0)
	require.NoError(t, err)
	require.Len(t, all, 2)
	require.Equal(t, "a2", all[0].ID)
	require.Equal(t, "hematuria", all[0].ClinicalContext)
	require.Equal(t, repository.StatusFailed, all[0].Status)
	require.Equal(t, "a1", all[1].ID)
	require.True(t, base.Equal(all[1].CreatedAt))

	one, err := repo.List(ctx, 1)
	require.NoError(t, err)
	require.Len(t, one, 1)

	got, err := repo.Get(ctx, "a1")
	require.NoError(t, err)
	require.NotNil(t, got)
	require.Equal(t, "Hepatocellular carcinoma, suspected", got.Diagnosis)

	missing, err := repo.Get(ctx, "nope")
	require.NoError(t, err)
	require.Nil(t, missing)
}

func TestRecordRejectsUnknownStatus(t *testing.T) {
	t.Parallel()
	repo := openRepo(t)
	err := repo.Record(context.Background(), repository.Analysis{ID: "x", Status: "pending", CreatedAt: time.Now()})
	require.Error(t, err)
}

func TestRecordIsIdempotentPerID(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	repo := openRepo(t)
	a := repository.Analysis{ID: "a1", Variant: "SR", Organ: "Liver", ImageName: "l.jpg", Status: repository.StatusFailed, Error: "timeout", CreatedAt: time.Now()}
	require.NoError(t, repo.Record(ctx, a))
	a.Status = repository.StatusCompleted
	a.Error = ""
	a.Diagnosis = "benign"
	require.NoError(t, repo.Record(ctx, a))

	all, err := repo.List(ctx, 0)
	require.NoError(t, err)
	require.Len(t, all, 1)
	require.Equal(t, repository.StatusCompleted, all[0].Status)
	require.Equal(t, "benign", all[0].Diagnosis)
}
