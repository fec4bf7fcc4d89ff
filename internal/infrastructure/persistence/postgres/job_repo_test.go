package postgres

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"asset-forge/internal/domain/entity"
	"asset-forge/internal/domain/repository"
)

func setupTestDB(t *testing.T) *Client {
	t.Helper()
	client, err := NewSQLiteClient(":memory:")
	require.NoError(t, err)
	require.NoError(t, client.AutoMigrate(context.Background()))
	t.Cleanup(func() { _ = client.Close() })
	return client
}

func newJob(id string, created time.Time) *entity.GenerationJob {
	job := entity.NewGenerationJob(id, entity.GenerationRequest{Prompt: "smooth stone", Seed: 123, Steps: 30, GuidanceScale: 10})
	job.CreatedAt = created
	job.UpdatedAt = created
	return job
}

func TestJobRepositoryRoundTrip(t *testing.T) {
	repo := NewJobRepository(setupTestDB(t))
	ctx := context.Background()
	created := time.Date(2026, 5, 1, 8, 30, 0, 0, time.UTC)

	job := newJob("a", created)
	require.NoError(t, repo.Create(ctx, job))
	assert.Error(t, repo.Create(ctx, job), "duplicate primary key")

	got, err := repo.GetByID(ctx, "a")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, job.Request, got.Request)
	assert.Equal(t, entity.JobStatusPending, got.Status)
	assert.True(t, created.Equal(got.CreatedAt))
	assert.Nil(t, got.Result)
	assert.Nil(t, got.StartedAt)

	got.Start()
	got.Complete(&entity.GenerationResult{
		JobID:     "a",
		Shape:     entity.ShapeStone,
		Modifiers: []entity.Modifier{entity.ModifierSmooth},
		Metrics:   &entity.MeshMetrics{VertexCount: 642, FaceCount: 1280, IsWatertight: true},
		LODs:      map[string]int{"lod1": 640, "lod2": 320},
		Files:     map[string]string{"main": "outputs/a/main.glb"},
	})
	require.NoError(t, repo.Update(ctx, got))

	done, err := repo.GetByID(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, entity.JobStatusCompleted, done.Status)
	require.NotNil(t, done.Result)
	assert.Equal(t, entity.ShapeStone, done.Result.Shape)
	assert.Equal(t, 1280, done.Result.Metrics.FaceCount)
	assert.Equal(t, 320, done.Result.LODs["lod2"])
	require.NotNil(t, done.CompletedAt)
	assert.True(t, created.Equal(done.CreatedAt), "created_at is never rewritten")
}

func TestJobRepositoryMissing(t *testing.T) {
	repo := NewJobRepository(setupTestDB(t))
	ctx := context.Background()

	job, err := repo.GetByID(ctx, "missing")
	require.NoError(t, err)
	assert.Nil(t, job)
	assert.Error(t, repo.Update(ctx, newJob("missing", time.Now().UTC())))
}

func TestJobRepositoryFailKeepsErrorMessage(t *testing.T) {
	repo := NewJobRepository(setupTestDB(t))
	ctx := context.Background()

	job := newJob("f", time.Now().UTC())
	require.NoError(t, repo.Create(ctx, job))
	job.Start()
	job.Fail("mesh failed export/import round trip")
	require.NoError(t, repo.Update(ctx, job))

	got, err := repo.GetByID(ctx, "f")
	require.NoError(t, err)
	assert.Equal(t, entity.JobStatusFailed, got.Status)
	assert.Equal(t, "mesh failed export/import round trip", got.ErrorMessage)
}

func TestJobRepositoryListStatsClear(t *testing.T) {
	repo := NewJobRepository(setupTestDB(t))
	ctx := context.Background()
	base := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)

	for i := 0; i < 6; i++ {
		job := newJob(fmt.Sprintf("job-%d", i), base.Add(time.Duration(i)*time.Minute))
		require.NoError(t, repo.Create(ctx, job))
		switch i % 3 {
		case 1:
			job.Start()
			require.NoError(t, repo.Update(ctx, job))
		case 2:
			job.Start()
			job.Complete(&entity.GenerationResult{JobID: job.ID})
			require.NoError(t, repo.Update(ctx, job))
		}
	}

	page, err := repo.List(ctx, nil, repository.NewPagination(2, 4))
	require.NoError(t, err)
	assert.Equal(t, int64(6), page.Total)
	assert.Equal(t, 2, page.TotalPages)
	require.Len(t, page.Items, 2)
	assert.Equal(t, "job-1", page.Items[0].ID)
	assert.Equal(t, "job-0", page.Items[1].ID)

	running, err := repo.List(ctx, &repository.JobFilter{Status: entity.JobStatusRunning}, repository.NewPagination(1, 10))
	require.NoError(t, err)
	assert.Equal(t, int64(2), running.Total)

	stats, err := repo.GetJobStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, repository.JobStats{TotalJobs: 6, PendingJobs: 2, RunningJobs: 2, CompletedJobs: 2}, *stats)

	require.NoError(t, repo.Clear(ctx))
	stats, err = repo.GetJobStats(ctx)
	require.NoError(t, err)
	assert.Zero(t, stats.TotalJobs)
}

func TestHealthCheck(t *testing.T) {
	client := setupTestDB(t)
	assert.NoError(t, client.HealthCheck(context.Background()))
}
