package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jsamuelsen/eda-panel/internal/domain"
	"github.com/jsamuelsen/eda-panel/internal/platform/logging"
)

// Stage is one step of dataset ingest. A file reaches the store only after
// every earlier stage succeeded.
type Stage string

const (
	StageCheck  Stage = "check"  // name, extension, size
	StageDecode Stage = "decode" // resolve the text encoding
	StageParse  Stage = "parse"  // build typed columns
	StageVerify Stage = "verify" // rectangular and non-empty
	StageStore  Stage = "store"
)

// StageError records the ingest stage that failed.
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// FailedStage returns the ingest stage err came from.
func FailedStage(err error) (Stage, bool) {
	var se *StageError
	if errors.As(err, &se) {
		return se.Stage, true
	}

	return "", false
}

// ingest is the state one file accumulates on its way to the store.
type ingest struct {
	file     domain.RawFile
	text     string
	encoding string
	ds       *domain.Dataset
}

type stage struct {
	name     Stage
	progress int
	message  string
	run      func(ctx context.Context, in *ingest) error
}

func (s *DatasetService) ingestStages() []stage {
	return []stage{
		{StageCheck, ProgressValidated, "file validated", func(_ context.Context, in *ingest) error {
			format, err := s.loader.Check(in.file.Name, int64(len(in.file.Data)))
			in.file.Format = format

			return err
		}},
		{StageDecode, ProgressDecoded, "encoding resolved", func(_ context.Context, in *ingest) error {
			var err error
			in.text, in.encoding, err = s.loader.Text(in.file)

			return err
		}},
		{StageParse, ProgressParsed, "table parsed", func(ctx context.Context, in *ingest) error {
			var err error
			in.ds, err = s.loader.Parse(ctx, in.file, in.text, in.encoding)

			return err
		}},
		{StageVerify, ProgressVerified, "dataset verified", func(_ context.Context, in *ingest) error {
			return in.ds.Validate()
		}},
		{StageStore, ProgressStored, "dataset stored", func(ctx context.Context, in *ingest) error {
			evicted, err := s.repo.Save(ctx, in.ds)
			for _, id := range evicted {
				s.logger.InfoContext(ctx, "dataset evicted", slog.String("dataset_id", id))
			}

			return err
		}},
	}
}

// runIngest walks in through every stage, reporting progress after each.
func (s *DatasetService) runIngest(ctx context.Context, in *ingest, progress ProgressFunc) error {
	logger := s.logger
	if l, ok := logging.Lookup(ctx); ok {
		logger = l
	}

	logger = logger.With(slog.String("file", in.file.Name))

	for _, st := range s.ingestStages() {
		if err := ctx.Err(); err != nil {
			return &StageError{Stage: st.name, Err: err}
		}

		start := time.Now()

		if err := st.run(ctx, in); err != nil {
			logger.WarnContext(ctx, "ingest stage failed", slog.String("stage", string(st.name)), slog.Any("error", err))
			return &StageError{Stage: st.name, Err: err}
		}

		logger.DebugContext(ctx, "ingest stage done",
			slog.String("stage", string(st.name)),
			slog.Duration("duration", time.Since(start)),
		)

		progress(st.progress, st.message)
	}

	return nil
}
