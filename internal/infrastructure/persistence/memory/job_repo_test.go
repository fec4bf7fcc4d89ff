package memory

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"asset-forge/internal/domain/entity"
	"asset-forge/internal/domain/repository"
)

func newJob(id string, created time.Time) *entity.GenerationJob {
	job := entity.NewGenerationJob(id, entity.GenerationRequest{Prompt: "cube", Seed: 1, Steps: 10, GuidanceScale: 5})
	job.CreatedAt = created
	return job
}

func TestJobRepositoryCRUD(t *testing.T) {
	ctx := context.Background()
	repo := NewJobRepository()

	job := newJob("a", time.Now())
	require.NoError(t, repo.Create(ctx, job))
	assert.Error(t, repo.Create(ctx, job))

	got, err := repo.GetByID(ctx, "a")
	require.NoError(t, err)
	assert.Equal(t, entity.JobStatusPending, got.Status)

	// 返回副本，修改不影响存储
	got.Status = entity.JobStatusFailed
	again, _ := repo.GetByID(ctx, "a")
	assert.Equal(t, entity.JobStatusPending, again.Status)

	got.Start()
	require.NoError(t, repo.Update(ctx, got))
	again, _ = repo.GetByID(ctx, "a")
	assert.Equal(t, entity.JobStatusRunning, again.Status)

	missing, err := repo.GetByID(ctx, "nope")
	require.NoError(t, err)
	assert.Nil(t, missing)
	assert.Error(t, repo.Update(ctx, newJob("nope", time.Now())))
}

func TestJobRepositoryListAndStats(t *testing.T) {
	ctx := context.Background()
	repo := NewJobRepository()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		job := newJob(fmt.Sprintf("job-%d", i), base.Add(time.Duration(i)*time.Minute))
		if i%2 == 0 {
			job.Start()
			job.Complete(&entity.GenerationResult{})
		}
		require.NoError(t, repo.Create(ctx, job))
	}

	page, err := repo.List(ctx, nil, repository.NewPagination(1, 2))
	require.NoError(t, err)
	assert.Equal(t, int64(5), page.Total)
	assert.Equal(t, 3, page.TotalPages)
	require.Len(t, page.Items, 2)
	assert.Equal(t, "job-4", page.Items[0].ID)
	assert.Equal(t, "job-3", page.Items[1].ID)

	done, err := repo.List(ctx, &repository.JobFilter{Status: entity.JobStatusCompleted}, repository.NewPagination(1, 10))
	require.NoError(t, err)
	assert.Equal(t, int64(3), done.Total)

	beyond, err := repo.List(ctx, nil, repository.NewPagination(9, 10))
	require.NoError(t, err)
	assert.Empty(t, beyond.Items)

	stats, err := repo.GetJobStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, repository.JobStats{TotalJobs: 5, PendingJobs: 2, CompletedJobs: 3}, *stats)

	require.NoError(t, repo.Clear(ctx))
	stats, _ = repo.GetJobStats(ctx)
	assert.Zero(t, stats.TotalJobs)
}

func TestJobRepositoryConcurrentAccess(t *testing.T) {
	ctx := context.Background()
	repo := NewJobRepository()
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			id := fmt.Sprintf("job-%d", i)
			_ = repo.Create(ctx, newJob(id, time.Now()))
			job, _ := repo.GetByID(ctx, id)
			job.Start()
			_ = repo.Update(ctx, job)
			_, _ = repo.List(ctx, nil, repository.NewPagination(1, 10))
		}(i)
	}
	wg.Wait()

	stats, err := repo.GetJobStats(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(50), stats.RunningJobs)
}
