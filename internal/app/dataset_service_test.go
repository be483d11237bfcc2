package app

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/jsamuelsen/eda-panel/internal/adapters/memstore"
	"github.com/jsamuelsen/eda-panel/internal/domain"
	"github.com/jsamuelsen/eda-panel/internal/mocks"
)

func TestDatasetService_Load_ReportsProgress(t *testing.T) {
	f := newFixture(t, memstore.Options{})

	var (
		mu       sync.Mutex
		progress []int
	)

	ds, err := f.service.Load(context.Background(), LoadRequest{
		File: csvFile("people.csv", peopleCSV),
		Progress: func(pct int, _ string) {
			mu.Lock()
			defer mu.Unlock()

			progress = append(progress, pct)
		},
	})
	require.NoError(t, err)

	assert.Equal(t, []int{
		ProgressValidated, ProgressDecoded, ProgressParsed, ProgressVerified, ProgressStored,
	}, progress)
	assert.Equal(t, domain.FormatCSV, ds.Format)
	assert.Equal(t, 5, ds.Rows())

	stored, err := f.store.Get(context.Background(), ds.ID)
	require.NoError(t, err)
	assert.Same(t, ds, stored)
}

func TestDatasetService_Load_Failures(t *testing.T) {
	tests := []struct {
		name     string
		file     domain.RawFile
		step     Stage
		errCheck func(error) bool
		progress []int
	}{
		{
			name:     "unsupported extension",
			file:     csvFile("notes.txt", "a\n1\n"),
			step:     StageCheck,
			errCheck: domain.IsValidation,
		},
		{
			name:     "missing name",
			file:     domain.RawFile{Data: []byte("a\n1\n")},
			step:     StageCheck,
			errCheck: domain.IsValidation,
		},
		{
			name:     "header only",
			file:     csvFile("empty.csv", "a,b\n"),
			step:     StageParse,
			errCheck: func(err error) bool { return errors.Is(err, domain.ErrEmptyDataset) },
			progress: []int{ProgressValidated, ProgressDecoded},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, memstore.Options{})

			var progress []int

			_, err := f.service.Load(context.Background(), LoadRequest{
				File:     tt.file,
				Progress: func(pct int, _ string) { progress = append(progress, pct) },
			})
			require.Error(t, err)
			assert.True(t, tt.errCheck(err), "unexpected error: %v", err)

			step, ok := FailedStage(err)
			require.True(t, ok)
			assert.Equal(t, tt.step, step)
			assert.Equal(t, tt.progress, progress)
			assert.Zero(t, f.store.Len())
		})
	}
}

func TestDatasetService_Load_RecordsMetrics(t *testing.T) {
	metrics := mocks.NewMockAnalysisMetrics(t)
	metrics.EXPECT().DatasetLoaded(mock.Anything, domain.FormatCSV).Return().Once()

	f := newFixture(t, memstore.Options{}, func(cfg *DatasetServiceConfig) {
		cfg.Metrics = metrics
	})

	loadPeople(t, f)
}

func TestDatasetService_Load_Capacity(t *testing.T) {
	t.Run("evicts oldest", func(t *testing.T) {
		f := newFixture(t, memstore.Options{MaxDatasets: 1, EvictOldest: true})

		first := loadPeople(t, f)
		time.Sleep(time.Millisecond)
		second := loadPeople(t, f)

		assert.Equal(t, 1, f.store.Len())

		_, err := f.service.Get(context.Background(), first.ID)
		assert.True(t, domain.IsNotFound(err))

		_, err = f.service.Get(context.Background(), second.ID)
		assert.NoError(t, err)
	})

	t.Run("rejects when eviction is off", func(t *testing.T) {
		f := newFixture(t, memstore.Options{MaxDatasets: 1})

		loadPeople(t, f)

		_, err := f.service.Load(context.Background(), LoadRequest{File: csvFile("again.csv", peopleCSV)})
		require.Error(t, err)
		assert.True(t, domain.IsConflict(err))

		step, _ := FailedStage(err)
		assert.Equal(t, StageStore, step)
	})
}

func TestDatasetService_LoadFile(t *testing.T) {
	f := newFixture(t, memstore.Options{})

	path := filepath.Join(t.TempDir(), "people.csv")
	require.NoError(t, os.WriteFile(path, []byte(peopleCSV), 0o600))

	ds, err := f.service.LoadFile(context.Background(), path)
	require.NoError(t, err)
	assert.Equal(t, path, ds.Source)

	require.NoError(t, f.service.Ingest(context.Background(), path))
	assert.Equal(t, 2, f.store.Len())

	err = f.service.Ingest(context.Background(), filepath.Join(t.TempDir(), "absent.csv"))
	assert.True(t, domain.IsNotFound(err))
}

func TestDatasetService_LoadFiles_PartialFailure(t *testing.T) {
	f := newFixture(t, memstore.Options{})
	dir := t.TempDir()

	good := filepath.Join(dir, "good.csv")
	require.NoError(t, os.WriteFile(good, []byte(peopleCSV), 0o600))

	results := f.service.LoadFiles(context.Background(), 2, good, filepath.Join(dir, "missing.csv"), good)
	require.Len(t, results, 3)

	require.NoError(t, results[0].Err)
	assert.Equal(t, "good.csv", results[0].Dataset.Name)
	assert.True(t, domain.IsNotFound(results[1].Err))
	assert.Nil(t, results[1].Dataset)
	assert.Equal(t, filepath.Join(dir, "missing.csv"), results[1].Path)
	require.NoError(t, results[2].Err)
	assert.NotEqual(t, results[0].Dataset.ID, results[2].Dataset.ID)
	assert.Equal(t, 2, f.store.Len())
}

func TestDatasetService_LoadFiles_ZeroLimit(t *testing.T) {
	f := newFixture(t, memstore.Options{})

	good := filepath.Join(t.TempDir(), "good.csv")
	require.NoError(t, os.WriteFile(good, []byte(peopleCSV), 0o600))

	results := f.service.LoadFiles(context.Background(), 0, good)
	require.Len(t, results, 1)
	require.NoError(t, results[0].Err)
}

func TestDatasetService_LoadAsync(t *testing.T) {
	tests := []struct {
		name      string
		file      domain.RawFile
		status    domain.JobStatus
		datasetID bool
	}{
		{"succeeds", csvFile("people.csv", peopleCSV), domain.JobSucceeded, true},
		{"fails on empty table", csvFile("empty.csv", "a,b\n"), domain.JobFailed, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t, memstore.Options{})

			ctx, cancel := context.WithCancel(context.Background())

			job, err := f.service.LoadAsync(ctx, LoadRequest{File: tt.file})
			require.NoError(t, err)
			assert.Equal(t, domain.JobPending, job.Status)
			assert.Equal(t, tt.file.Name, job.FileName)

			cancel()

			waitCtx, waitCancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer waitCancel()

			require.NoError(t, f.service.Wait(waitCtx))

			got, err := f.service.Job(context.Background(), job.ID)
			require.NoError(t, err)
			assert.Equal(t, tt.status, got.Status)
			assert.False(t, got.UpdatedAt.Before(got.CreatedAt))

			if tt.datasetID {
				assert.Equal(t, ProgressStored, got.Progress)
				assert.NotEmpty(t, got.DatasetID)
				assert.Empty(t, got.Error)

				_, err := f.service.Get(context.Background(), got.DatasetID)
				assert.NoError(t, err)
			} else {
				assert.Empty(t, got.DatasetID)
				assert.Contains(t, got.Error, "dataset is empty")
			}
		})
	}
}

func TestDatasetService_LoadAsync_Rejections(t *testing.T) {
	t.Run("invalid file fails immediately", func(t *testing.T) {
		f := newFixture(t, memstore.Options{})

		_, err := f.service.LoadAsync(context.Background(), LoadRequest{File: csvFile("notes.txt", "x")})
		assert.True(t, domain.IsValidation(err))
	})

	t.Run("no job store", func(t *testing.T) {
		f := newFixture(t, memstore.Options{}, func(cfg *DatasetServiceConfig) {
			cfg.Jobs = nil
		})

		_, err := f.service.LoadAsync(context.Background(), LoadRequest{File: csvFile("people.csv", peopleCSV)})
		assert.True(t, domain.IsUnavailable(err))

		_, err = f.service.Job(context.Background(), "any")
		assert.True(t, domain.IsNotFound(err))
	})
}

func TestDatasetService_Import(t *testing.T) {
	tests := []struct {
		name       string
		setupMocks func(*mocks.MockDatasetSource)
		errCheck   func(error) bool
	}{
		{
			name: "success",
			setupMocks: func(src *mocks.MockDatasetSource) {
				raw := csvFile("remote.csv", peopleCSV)
				src.EXPECT().Fetch(mock.Anything, "exports/remote.csv").Return(&raw, nil)
			},
		},
		{
			name: "missing remote file",
			setupMocks: func(src *mocks.MockDatasetSource) {
				src.EXPECT().Fetch(mock.Anything, "exports/remote.csv").
					Return(nil, domain.NewNotFoundError("file", "exports/remote.csv"))
			},
			errCheck: domain.IsNotFound,
		},
		{
			name: "remote decodes to nothing",
			setupMocks: func(src *mocks.MockDatasetSource) {
				raw := csvFile("remote.csv", "a\n")
				src.EXPECT().Fetch(mock.Anything, "exports/remote.csv").Return(&raw, nil)
			},
			errCheck: domain.IsValidation,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := mocks.NewMockDatasetSource(t)
			tt.setupMocks(src)

			f := newFixture(t, memstore.Options{}, func(cfg *DatasetServiceConfig) {
				cfg.Source = src
			})

			ds, err := f.service.Import(context.Background(), "exports/remote.csv")

			if tt.errCheck != nil {
				require.Error(t, err)
				assert.True(t, tt.errCheck(err), "unexpected error: %v", err)
				assert.Zero(t, f.store.Len())

				return
			}

			require.NoError(t, err)
			assert.Equal(t, "remote.csv", ds.Name)
			assert.Equal(t, 1, f.store.Len())
		})
	}
}

func TestDatasetService_Import_NoSource(t *testing.T) {
	f := newFixture(t, memstore.Options{})

	_, err := f.service.Import(context.Background(), "a.csv")

	assert.True(t, domain.IsUnavailable(err))
}

func TestDatasetService_Lookup(t *testing.T) {
	f := newFixture(t, memstore.Options{})
	ds := loadPeople(t, f)
	ctx := context.Background()

	list, err := f.service.List(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, ds.ID, list[0].ID)

	summary, err := f.service.Summary(ctx, ds.ID)
	require.NoError(t, err)
	assert.Equal(t, 5, summary.Rows)
	assert.Equal(t, 4, summary.Columns)
	assert.Equal(t, 2, summary.MissingCells)

	require.NoError(t, f.service.Delete(ctx, ds.ID))
	assert.True(t, domain.IsNotFound(f.service.Delete(ctx, ds.ID)))

	_, err = f.service.Summary(ctx, ds.ID)
	assert.True(t, domain.IsNotFound(err))
}

func TestDatasetService_Columns(t *testing.T) {
	f := newFixture(t, memstore.Options{})
	ds := loadPeople(t, f)

	tests := []struct {
		name     string
		filter   ColumnFilter
		want     []string
		errCheck func(error) bool
	}{
		{"no filter", ColumnFilter{}, []string{"id", "age", "dept", "score"}, nil},
		{"all kinds", ColumnFilter{Kind: "ALL"}, []string{"id", "age", "dept", "score"}, nil},
		{"numeric only", ColumnFilter{Kind: "numeric"}, []string{"id", "age", "score"}, nil},
		{"categorical only", ColumnFilter{Kind: "categorical"}, []string{"dept"}, nil},
		{"search is case insensitive", ColumnFilter{Search: " AG "}, []string{"age"}, nil},
		{"search and kind", ColumnFilter{Search: "e", Kind: "numeric"}, []string{"age", "score"}, nil},
		{"no match", ColumnFilter{Search: "zzz"}, []string{}, nil},
		{"invalid kind", ColumnFilter{Kind: "money"}, nil, domain.IsValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cols, err := f.service.Columns(context.Background(), ds.ID, tt.filter)

			if tt.errCheck != nil {
				require.Error(t, err)
				assert.True(t, tt.errCheck(err))

				return
			}

			require.NoError(t, err)

			names := make([]string, len(cols))
			for i, c := range cols {
				names[i] = c.Name
			}

			assert.Equal(t, tt.want, names)
		})
	}

	_, err := f.service.Columns(context.Background(), "missing", ColumnFilter{})
	assert.True(t, domain.IsNotFound(err))
}
