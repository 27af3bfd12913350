package detect

import (
	"context"
	"errors"
	"image"

	"github.com/picdup/picdup/internal/model"
	"golang.org/x/sync/errgroup"
)

// strategy is one way of running the perceptual grouping stage.
type strategy struct {
	name string
	run  func(ctx context.Context, records []*model.ImageRecord, rs *runState) ([]model.DuplicateGroup, error)
}

// strategies returns the perceptual strategy chain for this run, most
// capable first. A StrategyError from one entry downgrades to the next.
func (d *Detector) strategies() []strategy {
	var chain []strategy
	if d.cfg.EnhancedSimilarity {
		chain = append(chain, strategy{"enhanced", d.enhancedStrategy})
	}
	if d.cfg.EnhancedSimilarity || d.cfg.DetectRotation {
		chain = append(chain, strategy{"rotation", d.rotationStrategy})
	}
	return append(chain, strategy{"baseline", d.baselineStrategy})
}

// perceptualStage groups the surviving candidates by perceptual hash
// agreement, degrading through the strategy chain when a strategy cannot
// run. Running with no perceptual groups at all is preferred over failing
// the whole run for a strategy-level problem.
func (d *Detector) perceptualStage(ctx context.Context, records []*model.ImageRecord, rs *runState) ([]model.DuplicateGroup, error) {
	for _, s := range d.strategies() {
		groups, err := s.run(ctx, records, rs)
		var serr *StrategyError
		if errors.As(err, &serr) {
			d.logger.Warn("perceptual strategy downgraded",
				"strategy", s.name,
				"error", err,
			)
			d.progressf("%s strategy unavailable, falling back", s.name)
			continue
		}
		return groups, err
	}
	d.logger.Warn("all perceptual strategies failed, no perceptual groups")
	return nil, nil
}

// tripleDistances returns the three per-algorithm Hamming distances
// between two hash triples.
func tripleDistances(a, b model.HashTriple) (dd, da, df int, err error) {
	if dd, err = a.Difference.Distance(b.Difference); err != nil {
		return 0, 0, 0, err
	}
	if da, err = a.Average.Distance(b.Average); err != nil {
		return 0, 0, 0, err
	}
	if df, err = a.Frequency.Distance(b.Frequency); err != nil {
		return 0, 0, 0, err
	}
	return dd, da, df, nil
}

// computeBaseHashes decodes each record's image concurrently and fills in
// its unrotated hash triple. Unreadable files are dropped from the pool.
// The returned slice holds only successfully hashed records.
func (d *Detector) computeBaseHashes(ctx context.Context, records []*model.ImageRecord, rs *runState) ([]*model.ImageRecord, error) {
	errs := make([]error, len(records))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(d.cfg.Workers)
	for i, rec := range records {
		g.Go(func() error {
			select {
			case <-gctx.Done():
				return gctx.Err()
			default:
			}
			img, err := d.source.Image(rec.Path)
			if err != nil {
				errs[i] = &DecodeError{Path: rec.Path, Err: err}
				return nil
			}
			triple, err := d.hashTriple(img)
			if err != nil {
				return err
			}
			rec.Hashes = triple
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	hashed := make([]*model.ImageRecord, 0, len(records))
	for i, rec := range records {
		if errs[i] != nil {
			rs.skip(rec.Index, rec.Path, errs[i], d.logger)
			continue
		}
		hashed = append(hashed, rec)
	}
	return hashed, nil
}

// hashTriple computes all three perceptual hashes of a decoded image at
// the configured hash size.
func (d *Detector) hashTriple(img image.Image) (model.HashTriple, error) {
	var triple model.HashTriple
	var err error
	if triple.Difference, err = d.provider.Difference(img, d.cfg.HashSize); err != nil {
		return model.HashTriple{}, err
	}
	if triple.Average, err = d.provider.Average(img, d.cfg.HashSize); err != nil {
		return model.HashTriple{}, err
	}
	if triple.Frequency, err = d.provider.Frequency(img, d.cfg.HashSize); err != nil {
		return model.HashTriple{}, err
	}
	return triple, nil
}

// baselineStrategy is the single-orientation 2-of-3 voting strategy: two
// images are duplicates when at least two algorithms report a distance
// strictly below their thresholds.
func (d *Detector) baselineStrategy(ctx context.Context, records []*model.ImageRecord, rs *runState) ([]model.DuplicateGroup, error) {
	hashed, err := d.computeBaseHashes(ctx, records, rs)
	if err != nil {
		return nil, err
	}
	if len(hashed) == 0 && len(records) > 0 {
		return nil, &StrategyError{Strategy: "baseline", Err: errors.New("no images could be hashed")}
	}

	cmp := func(base, cand *model.ImageRecord) (pairMatch, bool, error) {
		dd, da, df, err := tripleDistances(base.Hashes, cand.Hashes)
		if err != nil {
			return pairMatch{}, false, err
		}
		algos := algoSet{
			difference: dd < d.cfg.DifferenceThreshold,
			average:    da < d.cfg.AverageThreshold,
			frequency:  df < d.cfg.FrequencyThreshold,
		}
		if !vote(algos) {
			return pairMatch{}, false, nil
		}
		m := model.Member{
			Path:               cand.Path,
			DifferenceDistance: dd,
			AverageDistance:    da,
			FrequencyDistance:  df,
		}
		return pairMatch{member: m, algos: algos}, true, nil
	}

	return d.greedyGroups(ctx, "perceptual", hashed, rs, cmp,
		func(g *model.DuplicateGroup, algos algoSet) {
			g.Reasons = algos.reasons()
		})
}

// vote implements the 2-of-3 agreement rule.
func vote(a algoSet) bool {
	return countVotes(a) >= 2
}
