package app

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/jsamuelsen/eda-panel/internal/adapters/loader"
	"github.com/jsamuelsen/eda-panel/internal/adapters/memstore"
	"github.com/jsamuelsen/eda-panel/internal/analysis"
	"github.com/jsamuelsen/eda-panel/internal/domain"
)

const peopleCSV = "id,age,dept,score\n" +
	"1,34,HR,7.5\n" +
	"2,,IT,6\n" +
	"3,51,Sales,8\n" +
	"4,29,IT,\n" +
	"5,40,HR,9.5\n"

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func csvFile(name, content string) domain.RawFile {
	return domain.RawFile{Name: name, Path: "/tmp/" + name, Data: []byte(content)}
}

type fixture struct {
	store   *memstore.Store
	loader  *loader.Loader
	engine  *analysis.Engine
	service *DatasetService
}

func newFixture(t *testing.T, opts memstore.Options, mutate ...func(*DatasetServiceConfig)) *fixture {
	t.Helper()

	f := &fixture{
		store:  memstore.New(opts),
		loader: loader.New(loader.DefaultOptions(), discardLogger()),
		engine: analysis.New(analysis.DefaultOptions(), discardLogger()),
	}

	cfg := DatasetServiceConfig{
		Repo:   f.store,
		Jobs:   f.store,
		Loader: f.loader,
		Engine: f.engine,
		Logger: discardLogger(),
	}

	for _, m := range mutate {
		m(&cfg)
	}

	f.service = NewDatasetService(cfg)

	return f
}

func loadPeople(t *testing.T, f *fixture) *domain.Dataset {
	t.Helper()

	ds, err := f.service.Load(context.Background(), LoadRequest{File: csvFile("people.csv", peopleCSV)})
	require.NoError(t, err)

	return ds
}
