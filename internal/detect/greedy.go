package detect

import (
	"context"
	"path/filepath"

	"github.com/picdup/picdup/internal/model"
)

// algoSet records which hash algorithms agreed on a match.
type algoSet struct {
	difference bool
	average    bool
	frequency  bool
}

// merge folds another set into this one.
func (a *algoSet) merge(b algoSet) {
	a.difference = a.difference || b.difference
	a.average = a.average || b.average
	a.frequency = a.frequency || b.frequency
}

// reasons returns the agreeing algorithms as group reasons in fixed order.
func (a algoSet) reasons() []model.Reason {
	var out []model.Reason
	if a.difference {
		out = append(out, model.ReasonDifferenceHash)
	}
	if a.average {
		out = append(out, model.ReasonAverageHash)
	}
	if a.frequency {
		out = append(out, model.ReasonFrequencyHash)
	}
	return out
}

// pairMatch is the outcome of a successful base/candidate comparison.
type pairMatch struct {
	member model.Member
	algos  algoSet
}

// pairFunc compares a candidate against a group base. It returns the
// member to record and true when the pair matches.
type pairFunc func(base, cand *model.ImageRecord) (pairMatch, bool, error)

// greedyGroups runs the single-pass greedy grouping shared by all
// perceptual strategies: each unconsumed record in discovery order becomes
// a base, collects every later unconsumed record that matches it, and the
// resulting group consumes all its members.
//
// Design decision: greedy single-pass rather than transitive closure. If A
// matches B and B matches C but A does not match C, closure would merge
// all three and chains of borderline pairs could sweep up visually
// unrelated images. Greedy keeps every member within threshold of the
// group base, at the cost of occasionally splitting a cluster in two.
//
// finalize receives the assembled group and the union of agreeing
// algorithms and must set the group's reasons and confidence.
func (d *Detector) greedyGroups(
	ctx context.Context,
	name string,
	records []*model.ImageRecord,
	rs *runState,
	cmp pairFunc,
	finalize func(g *model.DuplicateGroup, algos algoSet),
) ([]model.DuplicateGroup, error) {
	var groups []model.DuplicateGroup
	comparisons := 0
	for i, base := range records {
		if !rs.active(base.Index) {
			continue
		}
		var matches []pairMatch
		for _, cand := range records[i+1:] {
			if !rs.active(cand.Index) {
				continue
			}
			comparisons++
			if comparisons%cancelCheckStride == 0 {
				select {
				case <-ctx.Done():
					return groups, ctx.Err()
				default:
				}
			}
			m, ok, err := cmp(base, cand)
			if err != nil {
				return groups, err
			}
			if !ok {
				continue
			}
			matches = append(matches, m)
			rs.consumed.set(cand.Index)
		}
		if len(matches) == 0 {
			continue
		}
		rs.consumed.set(base.Index)

		members := make([]model.Member, 0, len(matches)+1)
		members = append(members, model.Member{Path: base.Path})
		var algos algoSet
		for _, m := range matches {
			members = append(members, m.member)
			algos.merge(m.algos)
		}
		group := model.DuplicateGroup{Members: members}
		finalize(&group, algos)
		rs.stats.AddGroup(&group)
		groups = append(groups, group)
		d.progressf("%s: grouped %d images around %s", name, len(members), filepath.Base(base.Path))
	}
	return groups, nil
}
