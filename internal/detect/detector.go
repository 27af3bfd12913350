package detect

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"sync/atomic"

	"github.com/picdup/picdup/internal/imghash"
	"github.com/picdup/picdup/internal/imgio"
	"github.com/picdup/picdup/internal/model"
)

// Stage names, as recorded in RunStatistics.CompletedStages.
const (
	StageExactMatch = "exact_match"
	StagePureColor  = "pure_color"
	StagePerceptual = "perceptual"
)

// cancelCheckStride is how many pair comparisons the grouping loops make
// between context checks. Comparisons are cheap; polling every one would
// cost more than it saves.
const cancelCheckStride = 64

// State describes where in the staged pipeline a detector currently is.
type State int32

// Detector states, in pipeline order.
const (
	StateIdle State = iota
	StateExactMatch
	StatePureColor
	StatePerceptual
	StateDone
	StateStopped
)

// String implements fmt.Stringer.
func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateExactMatch:
		return "exact_match"
	case StatePureColor:
		return "pure_color"
	case StatePerceptual:
		return "perceptual"
	case StateDone:
		return "done"
	case StateStopped:
		return "stopped"
	default:
		return fmt.Sprintf("state(%d)", int32(s))
	}
}

// Source supplies file bytes and decoded images to the detector.
//
// Design decision: an interface rather than direct file access so tests
// can feed synthetic images without touching the filesystem, and so a
// future archive or remote source slots in without detector changes.
type Source interface {
	// Raw returns the unmodified file bytes at path.
	Raw(path string) ([]byte, error)

	// Image returns the decoded, orientation-corrected image at path.
	Image(path string) (image.Image, error)
}

// Detector runs the staged duplicate detection pipeline. A Detector is
// reusable but not concurrent: one Detect call at a time.
type Detector struct {
	cfg      Config
	provider imghash.Provider
	source   Source
	logger   *slog.Logger
	progress func(string)
	state    atomic.Int32
}

// Option configures a Detector.
type Option func(*Detector)

// WithLogger sets a custom logger. Defaults to slog.Default.
func WithLogger(logger *slog.Logger) Option {
	return func(d *Detector) {
		d.logger = logger
	}
}

// WithProgress sets a callback that receives human-readable progress
// messages during a run. Messages are advisory; the callback must not
// block for long since it is invoked from the detection goroutines.
func WithProgress(fn func(string)) Option {
	return func(d *Detector) {
		d.progress = fn
	}
}

// WithProvider overrides the hash provider. Defaults to imghash.NewHasher
// configured with the run's pure-color cutoff.
func WithProvider(p imghash.Provider) Option {
	return func(d *Detector) {
		d.provider = p
	}
}

// WithSource overrides the image source. Defaults to reading files from
// the local filesystem.
func WithSource(s Source) Option {
	return func(d *Detector) {
		d.source = s
	}
}

// New creates a Detector for the given configuration.
func New(cfg Config, opts ...Option) *Detector {
	cfg.normalize()
	d := &Detector{cfg: cfg}
	for _, opt := range opts {
		opt(d)
	}
	if d.logger == nil {
		d.logger = slog.Default()
	}
	if d.provider == nil {
		d.provider = imghash.NewHasher(imghash.WithPureColorCutoff(cfg.PureColorCutoff))
	}
	if d.source == nil {
		d.source = imgio.NewFileSource()
	}
	return d
}

// State returns the detector's current pipeline state. Safe to call from
// another goroutine while Detect runs.
func (d *Detector) State() State {
	return State(d.state.Load())
}

func (d *Detector) setState(s State) {
	d.state.Store(int32(s))
}

// runState is the mutable bookkeeping shared by the stages of one run.
// All mutation happens on the sequential grouping path; the parallel hash
// workers write only to their own slice slots.
type runState struct {
	stats *model.RunStatistics

	// consumed marks discovery indices already claimed by a group.
	consumed *bitset

	// dropped marks discovery indices whose file could not be read or
	// decoded. Dropped files are counted as skipped exactly once.
	dropped *bitset
}

func (rs *runState) skip(index int, path string, err error, logger *slog.Logger) {
	if rs.dropped.get(index) {
		return
	}
	rs.dropped.set(index)
	rs.stats.SkippedFiles++
	logger.Warn("skipping unreadable image", "path", path, "error", err)
}

func (rs *runState) active(index int) bool {
	return !rs.consumed.get(index) && !rs.dropped.get(index)
}

// Detect runs the full pipeline over the given image paths and returns
// the duplicate groups found, in stage order then discovery order.
//
// Cancellation is not an error: when ctx is cancelled mid-run, Detect
// returns the groups completed so far with Stats.Stopped set and a nil
// error. A ProviderUnstableError is fatal and aborts the run.
func (d *Detector) Detect(ctx context.Context, paths []string) ([]model.DuplicateGroup, *model.RunStatistics, error) {
	stats := model.NewRunStatistics(len(paths))
	defer stats.Finish()

	rs := &runState{
		stats:    stats,
		consumed: newBitset(len(paths)),
		dropped:  newBitset(len(paths)),
	}
	var groups []model.DuplicateGroup

	finish := func(err error) ([]model.DuplicateGroup, *model.RunStatistics, error) {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			d.setState(StateStopped)
			stats.Stopped = true
			d.logger.Warn("detection cancelled",
				"groups", len(groups),
				"completed_stages", stats.CompletedStages,
			)
			return groups, stats, nil
		}
		if err != nil {
			d.setState(StateStopped)
			return groups, stats, err
		}
		d.setState(StateDone)
		return groups, stats, nil
	}

	d.setState(StateExactMatch)
	d.progressf("stage 1/3: fingerprinting %d files", len(paths))
	records, exactGroups, err := d.exactStage(ctx, paths, rs)
	groups = append(groups, exactGroups...)
	if err != nil {
		return finish(err)
	}
	stats.StageCompleted(StageExactMatch)

	if d.cfg.DetectPureColor {
		d.setState(StatePureColor)
		d.progressf("stage 2/3: pure-color filtering")
		pcGroups, err := d.pureColorStage(ctx, remaining(records, rs), rs)
		groups = append(groups, pcGroups...)
		if err != nil {
			return finish(err)
		}
		stats.StageCompleted(StagePureColor)
	} else {
		d.logger.Debug("pure-color filtering disabled")
	}

	d.setState(StatePerceptual)
	d.progressf("stage 3/3: perceptual grouping")
	pGroups, err := d.perceptualStage(ctx, remaining(records, rs), rs)
	groups = append(groups, pGroups...)
	if err != nil {
		return finish(err)
	}
	stats.StageCompleted(StagePerceptual)

	d.logger.Info("detection complete",
		"images", len(paths),
		"groups", len(groups),
		"skipped", stats.SkippedFiles,
	)
	return finish(nil)
}

// remaining filters records down to those not yet consumed or dropped,
// preserving discovery order.
func remaining(records []*model.ImageRecord, rs *runState) []*model.ImageRecord {
	out := make([]*model.ImageRecord, 0, len(records))
	for _, r := range records {
		if rs.active(r.Index) {
			out = append(out, r)
		}
	}
	return out
}

func (d *Detector) progressf(format string, args ...any) {
	if d.progress == nil {
		return
	}
	d.progress(fmt.Sprintf(format, args...))
}
