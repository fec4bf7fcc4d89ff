package redis

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"asset-forge/internal/domain/entity"
	"asset-forge/internal/domain/repository"
)

func setupTestRedis(t *testing.T) (*miniredis.Miniredis, *Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })
	return mr, NewClientFromRedis(rdb)
}

func newJob(id string, created time.Time) *entity.GenerationJob {
	job := entity.NewGenerationJob(id, entity.GenerationRequest{Prompt: "spiky cube", Seed: 42, Steps: 20, GuidanceScale: 7.5})
	job.CreatedAt = created
	return job
}

func TestJobRepositoryCreateGetUpdate(t *testing.T) {
	mr, client := setupTestRedis(t)
	repo := NewJobRepository(client, "test")
	ctx := context.Background()

	job := newJob("a", time.Now().UTC())
	require.NoError(t, repo.Create(ctx, job))
	assert.True(t, mr.Exists("test:job:a"))
	assert.Error(t, repo.Create(ctx, job), "duplicate id")

	got, err := repo.GetByID(ctx, "a")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "spiky cube", got.Request.Prompt)
	assert.Equal(t, entity.JobStatusPending, got.Status)

	got.Start()
	got.Complete(&entity.GenerationResult{
		JobID: "a",
		Shape: entity.ShapeCube,
		Files: map[string]string{"main": "outputs/a/main.glb"},
	})
	require.NoError(t, repo.Update(ctx, got))

	again, err := repo.GetByID(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, entity.JobStatusCompleted, again.Status)
	require.NotNil(t, again.Result)
	assert.Equal(t, "outputs/a/main.glb", again.Result.Files["main"])

	pending, err := mr.ZMembers("test:jobs:status:pending")
	if err == nil {
		assert.Empty(t, pending)
	}
	completed, err := mr.ZMembers("test:jobs:status:completed")
	require.NoError(t, err)
	assert.Equal(t, []string{"a"}, completed)
}

func TestJobRepositoryMissing(t *testing.T) {
	_, client := setupTestRedis(t)
	repo := NewJobRepository(client, "test")
	ctx := context.Background()

	job, err := repo.GetByID(ctx, "missing")
	require.NoError(t, err)
	assert.Nil(t, job)

	assert.Error(t, repo.Update(ctx, newJob("missing", time.Now())))
}

func TestJobRepositoryListStatsClear(t *testing.T) {
	_, client := setupTestRedis(t)
	repo := NewJobRepository(client, "")
	ctx := context.Background()

	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		job := newJob(fmt.Sprintf("job-%d", i), base.Add(time.Duration(i)*time.Second))
		require.NoError(t, repo.Create(ctx, job))
		if i%2 == 1 {
			job.Start()
			job.Fail("mesh has no vertices or faces")
			require.NoError(t, repo.Update(ctx, job))
		}
	}

	page, err := repo.List(ctx, nil, repository.NewPagination(1, 3))
	require.NoError(t, err)
	assert.Equal(t, int64(5), page.Total)
	assert.Equal(t, 2, page.TotalPages)
	require.Len(t, page.Items, 3)
	assert.Equal(t, "job-4", page.Items[0].ID)
	assert.Equal(t, "job-2", page.Items[2].ID)

	failed, err := repo.List(ctx, &repository.JobFilter{Status: entity.JobStatusFailed}, repository.NewPagination(1, 10))
	require.NoError(t, err)
	assert.Equal(t, int64(2), failed.Total)
	for _, j := range failed.Items {
		assert.Equal(t, entity.JobStatusFailed, j.Status)
	}

	stats, err := repo.GetJobStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, repository.JobStats{TotalJobs: 5, PendingJobs: 3, FailedJobs: 2}, *stats)

	require.NoError(t, repo.Clear(ctx))
	stats, err = repo.GetJobStats(ctx)
	require.NoError(t, err)
	assert.Zero(t, stats.TotalJobs)
	job, err := repo.GetByID(ctx, "job-0")
	require.NoError(t, err)
	assert.Nil(t, job)
}

func TestHealthCheck(t *testing.T) {
	mr, client := setupTestRedis(t)
	require.NoError(t, client.HealthCheck(context.Background()))

	mr.Close()
	assert.Error(t, client.HealthCheck(context.Background()))
}
