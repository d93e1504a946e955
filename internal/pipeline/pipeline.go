// Package pipeline processes one submission end to end: classify, parse,
// validate, apply to the record store, then report back on the issue.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"registry/internal/classify"
	"registry/internal/intake"
	"registry/internal/logging"
	"registry/internal/report"
	"registry/internal/types"
	"registry/internal/validate"
)

// RecordStore is the subset of store.Store the pipeline writes through.
type RecordStore interface {
	Create(ctx context.Context, name, state, options, owner string) (types.StoredRecord, error)
	Update(ctx context.Context, id int64, name, state, options, owner string) (types.StoredRecord, error)
	Close() error
}

// Opener acquires the store for one run. The pipeline closes it.
type Opener func() (RecordStore, error)

// Notifier posts a comment on the submission.
type Notifier interface {
	Comment(ctx context.Context, number int, body string) error
}

// Closer closes the submission after a successful apply.
type Closer interface {
	Close(ctx context.Context, number int) error
}

// Labeler tags the submission with its outcome.
type Labeler interface {
	AddLabels(ctx context.Context, number int, labels []string) error
}

// Outcome is the result of one run.
type Outcome struct {
	RunID      string
	Expected   types.OperationKind
	Record     *types.NormalizedRecord
	Validation *types.ValidationResult
	Stored     *types.StoredRecord
	Applied    bool
	Message    string
	// Err is the rejection cause, nil when the record was applied.
	Err error
}

// Processor wires the stages together. Build with New.
type Processor struct {
	open           Opener
	classifier     classify.Classifier
	notifier       Notifier
	closer         Closer
	labeler        Labeler
	closeOnSuccess bool
	dryRun         bool
	successLabels  []string
	rejectLabels   []string
	logger         *zap.Logger
}

// Option customizes a Processor.
type Option func(*Processor)

// WithClassifier overrides the default label sets.
func WithClassifier(c classify.Classifier) Option {
	return func(p *Processor) { p.classifier = c }
}

// WithNotifier posts outcome messages through n.
func WithNotifier(n Notifier) Option {
	return func(p *Processor) { p.notifier = n }
}

// WithCloser closes the submission through c after a successful apply.
func WithCloser(c Closer) Option {
	return func(p *Processor) {
		p.closer = c
		p.closeOnSuccess = c != nil
	}
}

// WithLabeler tags submissions with the given success / rejection labels.
func WithLabeler(l Labeler, success, reject []string) Option {
	return func(p *Processor) {
		p.labeler = l
		p.successLabels = success
		p.rejectLabels = reject
	}
}

// WithDryRun skips the store and every sink.
func WithDryRun(dry bool) Option {
	return func(p *Processor) { p.dryRun = dry }
}

// WithLogger routes pipeline logs to l.
func WithLogger(l *zap.Logger) Option {
	return func(p *Processor) { p.logger = logging.For(l, logging.CategoryPipeline) }
}

// New builds a processor that acquires its store through open.
func New(open Opener, opts ...Option) *Processor {
	p := &Processor{
		open:       open,
		classifier: classify.New(nil, nil),
		logger:     zap.NewNop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// slowRun is the run duration above which Process logs a warning.
const slowRun = 5 * time.Second

// ErrRejected wraps every rejection returned by Process.
var ErrRejected = errors.New("submission rejected")

// Process runs one submission. A rejected submission returns an error
// wrapping ErrRejected and the cause; sink failures are joined onto it.
func (p *Processor) Process(ctx context.Context, sub types.Submission) (out Outcome, err error) {
	out.RunID = uuid.NewString()
	log := p.logger.With(zap.String("run_id", out.RunID), zap.Int("issue", sub.Number), zap.String("author", sub.Author))
	timer := logging.StartTimer(log, "process")
	defer timer.StopWithThreshold(slowRun)

	out.Expected = p.classifier.Classify(sub.Title, sub.Labels)
	log.Debug("classified submission", zap.Stringer("expected", out.Expected))

	var st RecordStore
	if !p.dryRun {
		st, err = p.open()
		if err != nil {
			log.Error("open record store", zap.Error(err))
			return p.reject(ctx, log, sub, out, fmt.Errorf("open record store: %w", err))
		}
		defer func() {
			if cerr := st.Close(); cerr != nil {
				log.Warn("close record store", zap.Error(cerr))
				err = multierr.Append(err, fmt.Errorf("close record store: %w", cerr))
			}
		}()
	}

	rec, perr := intake.ParseSubmission(sub)
	if perr != nil {
		log.Info("parse failed", zap.Error(perr))
		return p.reject(ctx, log, sub, out, perr)
	}
	out.Record = &rec

	result := validate.Validate(rec, out.Expected)
	out.Validation = &result
	if !result.Valid {
		log.Info("validation failed", zap.Any("codes", result.Codes()))
		return p.reject(ctx, log, sub, out, result.Err())
	}

	if p.dryRun {
		out.Message = report.Planned(rec)
		log.Info("dry run complete", zap.Stringer("kind", rec.Kind))
		return out, nil
	}

	stored, aerr := apply(ctx, st, rec, sub.Author)
	if aerr != nil {
		log.Warn("apply failed", zap.Error(aerr))
		return p.reject(ctx, log, sub, out, aerr)
	}
	out.Stored = &stored
	out.Applied = true
	out.Message = report.Success(rec.Kind, stored)
	log.Info("record applied", zap.Stringer("kind", rec.Kind), zap.Int64("id", stored.ID))

	if serr := p.respond(ctx, sub.Number, out.Message, p.successLabels); serr != nil {
		return out, serr
	}
	if p.closeOnSuccess && sub.Number > 0 {
		if cerr := p.closer.Close(ctx, sub.Number); cerr != nil {
			log.Warn("close submission", zap.Error(cerr))
			return out, fmt.Errorf("close submission: %w", cerr)
		}
	}
	return out, nil
}

func apply(ctx context.Context, st RecordStore, rec types.NormalizedRecord, owner string) (types.StoredRecord, error) {
	if id, ok := rec.ID(); ok {
		return st.Update(ctx, id, rec.Name, rec.State, rec.Options, owner)
	}
	return st.Create(ctx, rec.Name, rec.State, rec.Options, owner)
}

// reject records cause on out, posts the rejection message and leaves the
// submission open.
func (p *Processor) reject(ctx context.Context, log *zap.Logger, sub types.Submission, out Outcome, cause error) (Outcome, error) {
	out.Err = cause
	out.Message = report.Rejection(cause)
	err := fmt.Errorf("%w: %w", ErrRejected, cause)
	if p.dryRun {
		return out, err
	}
	if serr := p.respond(ctx, sub.Number, out.Message, p.rejectLabels); serr != nil {
		log.Warn("report rejection", zap.Error(serr))
		err = multierr.Append(err, serr)
	}
	return out, err
}

// respond posts the comment and labels concurrently. Runs without an issue
// number (local CLI input) have nowhere to respond to.
func (p *Processor) respond(ctx context.Context, number int, body string, labels []string) error {
	if number <= 0 || p.dryRun {
		return nil
	}
	g, gctx := errgroup.WithContext(ctx)
	if p.notifier != nil {
		g.Go(func() error {
			if err := p.notifier.Comment(gctx, number, body); err != nil {
				return fmt.Errorf("post comment: %w", err)
			}
			return nil
		})
	}
	if p.labeler != nil && len(labels) > 0 {
		g.Go(func() error {
			if err := p.labeler.AddLabels(gctx, number, labels); err != nil {
				return fmt.Errorf("add labels: %w", err)
			}
			return nil
		})
	}
	return g.Wait()
}
