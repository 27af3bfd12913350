package detect

import (
	"context"

	"github.com/picdup/picdup/internal/model"
	"golang.org/x/sync/errgroup"
)

// pureColorStage decodes the surviving candidates concurrently and pulls
// near-uniform images out of the pool. Every pure-color image is consumed
// and counted, but a group is only reported when at least two were found:
// a lone solid-color image has no duplicate to show.
func (d *Detector) pureColorStage(ctx context.Context, records []*model.ImageRecord, rs *runState) ([]model.DuplicateGroup, error) {
	type result struct {
		pure bool
		err  error
	}
	results := make([]result, len(records))

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
				results[i] = result{err: &DecodeError{Path: rec.Path, Err: err}}
				return nil
			}
			results[i] = result{pure: d.provider.IsPureColor(img, d.cfg.PureColorCutoff)}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var members []model.Member
	for i, r := range results {
		rec := records[i]
		if r.err != nil {
			rs.skip(rec.Index, rec.Path, r.err, d.logger)
			continue
		}
		if !r.pure {
			continue
		}
		rec.PureColor = true
		rs.consumed.set(rec.Index)
		rs.stats.PureColorImages++
		members = append(members, model.Member{Path: rec.Path})
	}

	d.logger.Info("pure-color stage complete",
		"candidates", len(records),
		"pure_color", len(members),
	)
	if len(members) < 2 {
		return nil, nil
	}

	group := model.DuplicateGroup{
		Reasons: []model.Reason{model.ReasonPureColor},
		Members: members,
	}
	rs.stats.AddGroup(&group)
	d.progressf("pure color: grouped %d near-uniform images", len(members))
	return []model.DuplicateGroup{group}, nil
}
