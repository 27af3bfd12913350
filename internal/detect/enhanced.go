package detect

import (
	"context"
	"errors"
	"fmt"
	"image"
	"math"
	"strings"
	"sync/atomic"
	"time"

	"github.com/disintegration/imaging"
	"github.com/picdup/picdup/internal/feature"
	"github.com/picdup/picdup/internal/model"
	"golang.org/x/sync/errgroup"
)

// progressStride is how many prepared images pass between ETA updates
// during the enhanced precompute, the most expensive phase of a run.
const progressStride = 8

// buildVariants computes the rotation × scale cross product of an image:
// each variant carries its own hash triple and feature vector. Variants
// too small to hash are skipped rather than failing the image.
func (d *Detector) buildVariants(img image.Image) ([]model.Variant, error) {
	variants := make([]model.Variant, 0, len(rotationAngles)*len(variantScales))
	for _, angle := range rotationAngles {
		rot := rotate(img, angle)
		rb := rot.Bounds()
		for _, scale := range variantScales {
			w := int(math.Round(float64(rb.Dx()) * scale))
			h := int(math.Round(float64(rb.Dy()) * scale))
			if w < 2 || h < 2 {
				continue
			}
			scaled := rot
			if scale != 1.0 {
				scaled = imaging.Resize(rot, w, h, imaging.Lanczos)
			}
			triple, err := d.hashTriple(scaled)
			if err != nil {
				return nil, err
			}
			variants = append(variants, model.Variant{
				Angle:    angle,
				Scale:    scale,
				HashSize: d.cfg.HashSize,
				Width:    w,
				Height:   h,
				Hashes:   triple,
				Features: feature.Extract(scaled),
			})
		}
	}
	return variants, nil
}

// computeVariants decodes each record once and fills in its feature vector
// and full variant set, reporting progress with an ETA as it goes.
func (d *Detector) computeVariants(ctx context.Context, records []*model.ImageRecord, rs *runState) ([]*model.ImageRecord, error) {
	errs := make([]error, len(records))
	start := time.Now()
	var done atomic.Int64

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
			rec.Features = feature.Extract(img)
			if rec.Variants, err = d.buildVariants(img); err != nil {
				return err
			}

			n := done.Add(1)
			if n%progressStride == 0 || int(n) == len(records) {
				elapsed := time.Since(start)
				eta := time.Duration(float64(elapsed) / float64(n) * float64(int64(len(records))-n))
				d.progressf("enhanced: prepared %d/%d images (%d%%, ETA %s)",
					n, len(records), int(n)*100/len(records), eta.Round(time.Second))
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

// enhancedStrategy compares every variant pair of two images, blending
// hash distance with feature similarity. Voting happens on per-algorithm
// minimum distances with the looser inclusive thresholds; a pair with only
// one agreeing algorithm is still accepted when its feature vectors are
// close. Every accepted pair must additionally clear the confidence gate.
func (d *Detector) enhancedStrategy(ctx context.Context, records []*model.ImageRecord, rs *runState) ([]model.DuplicateGroup, error) {
	hashed, err := d.computeVariants(ctx, records, rs)
	if err != nil {
		return nil, err
	}
	if len(hashed) == 0 && len(records) > 0 {
		return nil, &StrategyError{Strategy: "enhanced", Err: errors.New("no images could be prepared")}
	}

	maxDist := float64(d.cfg.HashSize * d.cfg.HashSize)
	fw := d.cfg.FeatureWeight

	cmp := func(base, cand *model.ImageRecord) (pairMatch, bool, error) {
		minDD, minDA, minDF := -1, -1, -1
		bestCombined := math.Inf(1)
		var bestAvg, bestFeatSim float64
		var bestV1, bestV2 model.Variant
		found := false

		for _, v1 := range base.Variants {
			for _, v2 := range cand.Variants {
				if v1.HashSize != v2.HashSize {
					continue
				}
				dd, da, df, err := tripleDistances(v1.Hashes, v2.Hashes)
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
				featSim := feature.Similarity(v1.Features, v2.Features)
				avgDist := float64(dd+da+df) / 3
				combined := avgDist*(1-fw) + (1-featSim)*maxDist*fw
				if combined < bestCombined {
					bestCombined = combined
					bestAvg = avgDist
					bestFeatSim = featSim
					bestV1, bestV2 = v1, v2
					found = true
				}
			}
		}
		if !found {
			return pairMatch{}, false, nil
		}

		algos := algoSet{
			difference: minDD <= enhancedDifferenceThreshold,
			average:    minDA <= enhancedAverageThreshold,
			frequency:  minDF <= enhancedFrequencyThreshold,
		}
		votes := countVotes(algos)
		if votes < 2 && !(votes >= 1 && bestFeatSim > featureSimilarCutoff) {
			return pairMatch{}, false, nil
		}

		confidence := 0.7*(1-bestAvg/maxDist) + 0.3*bestFeatSim
		confidence = math.Max(0, math.Min(1, confidence))
		if confidence < d.cfg.ConfidenceThreshold {
			return pairMatch{}, false, nil
		}

		m := model.Member{
			Path:               cand.Path,
			DifferenceDistance: minDD,
			AverageDistance:    minDA,
			FrequencyDistance:  minDF,
			RotationAngle:      (bestV2.Angle - bestV1.Angle + 360) % 360,
			Confidence:         confidence,
			Detail:             detailLabel(bestV1, bestV2),
		}
		return pairMatch{member: m, algos: algos}, true, nil
	}

	return d.greedyGroups(ctx, "enhanced", hashed, rs, cmp,
		func(g *model.DuplicateGroup, algos algoSet) {
			g.Reasons = append(algos.reasons(), model.ReasonEnhanced)
			g.Confidence = meanConfidence(g.Members)
		})
}

// meanConfidence averages the confidences of the matched members; the
// group base carries no confidence of its own.
func meanConfidence(members []model.Member) float64 {
	var sum float64
	n := 0
	for _, m := range members {
		if m.Confidence > 0 {
			sum += m.Confidence
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return sum / float64(n)
}

// detailLabel describes which transformations separate the best-aligned
// variant pair, e.g. "rotation 90°+scale 1.67x".
func detailLabel(a, b model.Variant) string {
	var parts []string

	angle := a.Angle - b.Angle
	if angle < 0 {
		angle = -angle
	}
	if angle > 180 {
		angle = 360 - angle
	}
	if angle > 0 {
		parts = append(parts, fmt.Sprintf("rotation %d°", angle))
	}

	if math.Abs(a.Scale-b.Scale) > 0.01 {
		lo, hi := a.Scale, b.Scale
		if lo > hi {
			lo, hi = hi, lo
		}
		parts = append(parts, fmt.Sprintf("scale %.2fx", hi/lo))
	}

	if resolutionChanged(a, b) {
		parts = append(parts, "resolution change")
	}
	if len(parts) == 0 {
		return "identical"
	}
	return strings.Join(parts, "+")
}

// resolutionChanged reports whether the underlying source images differ in
// pixel dimensions, after undoing the variant's own scale and rotation.
func resolutionChanged(a, b model.Variant) bool {
	aw, ah := sourceDims(a)
	bw, bh := sourceDims(b)
	return aw != bw || ah != bh
}

// sourceDims recovers the original dimensions behind a variant, sorted so
// that rotation by 90° does not register as a size change.
func sourceDims(v model.Variant) (int, int) {
	w := int(math.Round(float64(v.Width) / v.Scale))
	h := int(math.Round(float64(v.Height) / v.Scale))
	if w > h {
		w, h = h, w
	}
	return w, h
}

// countVotes returns how many algorithms agreed.
func countVotes(a algoSet) int {
	n := 0
	if a.difference {
		n++
	}
	if a.average {
		n++
	}
	if a.frequency {
		n++
	}
	return n
}
