package detect

import (
	"context"
	"path/filepath"

	"github.com/picdup/picdup/internal/model"
	"golang.org/x/sync/errgroup"
)

// exactStage fingerprints every file concurrently and groups byte-identical
// copies. It returns the records for all readable files; those claimed by
// an exact group (every copy but the first) are marked consumed.
//
// Design decision: the first copy of each identical set stays in the
// candidate pool. It still participates in perceptual grouping, so a
// byte-identical pair and a recompressed third copy end up reported rather
// than the third copy silently escaping because its twins were removed.
func (d *Detector) exactStage(ctx context.Context, paths []string, rs *runState) ([]*model.ImageRecord, []model.DuplicateGroup, error) {
	type result struct {
		fingerprint string
		err         error
	}
	// Pre-allocated and indexed by discovery position so the parallel
	// workers never contend on shared state.
	results := make([]result, len(paths))

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(d.cfg.Workers)
	for i, path := range paths {
		g.Go(func() error {
			select {
			case <-gctx.Done():
				return gctx.Err()
			default:
			}
			raw, err := d.source.Raw(path)
			if err != nil {
				results[i] = result{err: &DecodeError{Path: path, Err: err}}
				return nil
			}
			results[i] = result{fingerprint: d.provider.Fingerprint(raw)}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}

	failed := 0
	for _, r := range results {
		if r.err != nil {
			failed++
		}
	}
	if len(paths) >= errorBudgetMinFiles && failed*errorBudgetDivisor > len(paths) {
		return nil, nil, &ProviderUnstableError{
			Stage:     StageExactMatch,
			Failed:    failed,
			Total:     len(paths),
			Processed: len(paths) - failed,
		}
	}

	records := make([]*model.ImageRecord, 0, len(paths)-failed)
	byFingerprint := make(map[string][]*model.ImageRecord)
	order := make([]string, 0, len(paths))
	for i, r := range results {
		if r.err != nil {
			rs.skip(i, paths[i], r.err, d.logger)
			continue
		}
		rec := &model.ImageRecord{Path: paths[i], Index: i, Fingerprint: r.fingerprint}
		records = append(records, rec)
		if len(byFingerprint[r.fingerprint]) == 0 {
			order = append(order, r.fingerprint)
		}
		byFingerprint[r.fingerprint] = append(byFingerprint[r.fingerprint], rec)
	}

	var groups []model.DuplicateGroup
	for _, fp := range order {
		recs := byFingerprint[fp]
		if len(recs) < 2 {
			continue
		}
		members := make([]model.Member, len(recs))
		for i, rec := range recs {
			members[i] = model.Member{Path: rec.Path}
			if i > 0 {
				rs.consumed.set(rec.Index)
			}
		}
		group := model.DuplicateGroup{
			Reasons: []model.Reason{model.ReasonExactMatch},
			Members: members,
		}
		rs.stats.AddGroup(&group)
		groups = append(groups, group)
		d.progressf("exact match: %d identical copies of %s", len(recs), filepath.Base(recs[0].Path))
	}

	d.logger.Info("exact match stage complete",
		"files", len(paths),
		"failed", failed,
		"groups", len(groups),
	)
	return records, groups, nil
}
