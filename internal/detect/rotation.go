package detect

import (
	"context"
	"errors"
	"image"

	"github.com/disintegration/imaging"
	"github.com/picdup/picdup/internal/model"
	"golang.org/x/sync/errgroup"
)

// rotate returns img rotated counter-clockwise by a right angle. Right
// angles use the exact lossless rotations, so rotated hashes are not
// polluted by resampling noise.
func rotate(img image.Image, angle int) image.Image {
	switch angle {
	case 90:
		return imaging.Rotate90(img)
	case 180:
		return imaging.Rotate180(img)
	case 270:
		return imaging.Rotate270(img)
	default:
		return img
	}
}

// computeRotatedHashes decodes each record once and fills in its hash
// triples for all four orientations. Unreadable files are dropped.
func (d *Detector) computeRotatedHashes(ctx context.Context, records []*model.ImageRecord, rs *runState) ([]*model.ImageRecord, error) {
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
			if rec.Hashes, err = d.hashTriple(img); err != nil {
				return err
			}
			rec.Rotated = make(map[int]model.HashTriple, 3)
			for _, angle := range rotationAngles[1:] {
				triple, err := d.hashTriple(rotate(img, angle))
				if err != nil {
					return err
				}
				rec.Rotated[angle] = triple
			}
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

// rotationStrategy compares every orientation of one image against every
// orientation of the other and votes on the per-algorithm minimum
// distances. A copy rotated by a right angle therefore matches as if it
// were upright, and the best-aligned orientation pair tells us the
// relative rotation.
func (d *Detector) rotationStrategy(ctx context.Context, records []*model.ImageRecord, rs *runState) ([]model.DuplicateGroup, error) {
	hashed, err := d.computeRotatedHashes(ctx, records, rs)
	if err != nil {
		return nil, err
	}
	if len(hashed) == 0 && len(records) > 0 {
		return nil, &StrategyError{Strategy: "rotation", Err: errors.New("no images could be hashed")}
	}

	cmp := func(base, cand *model.ImageRecord) (pairMatch, bool, error) {
		minDD, minDA, minDF := -1, -1, -1
		bestSum := -1
		bestAngle := 0
		for _, ai := range rotationAngles {
			t1, ok := base.TripleAt(ai)
			if !ok {
				continue
			}
			for _, aj := range rotationAngles {
				t2, ok := cand.TripleAt(aj)
				if !ok {
					continue
				}
				dd, da, df, err := tripleDistances(t1, t2)
				if err != nil {
					return pairMatch{}, false, err
				}
				if minDD < 0 || dd < minDD {
					minDD = dd
				}
				if minDA < 0 || da < minDA {
					minDA = da
				}
				if minDF < 0 || df < minDF {
					minDF = df
				}
				if sum := dd + da + df; bestSum < 0 || sum < bestSum {
					bestSum = sum
					bestAngle = (aj - ai + 360) % 360
				}
			}
		}
		if bestSum < 0 {
			return pairMatch{}, false, nil
		}
		algos := algoSet{
			difference: minDD < d.cfg.DifferenceThreshold,
			average:    minDA < d.cfg.AverageThreshold,
			frequency:  minDF < d.cfg.FrequencyThreshold,
		}
		if !vote(algos) {
			return pairMatch{}, false, nil
		}
		m := model.Member{
			Path:               cand.Path,
			DifferenceDistance: minDD,
			AverageDistance:    minDA,
			FrequencyDistance:  minDF,
			RotationAngle:      bestAngle,
		}
		return pairMatch{member: m, algos: algos}, true, nil
	}

	return d.greedyGroups(ctx, "rotation", hashed, rs, cmp,
		func(g *model.DuplicateGroup, algos algoSet) {
			g.Reasons = append(algos.reasons(), model.ReasonRotation)
		})
}
