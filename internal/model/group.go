package model

import "strings"

// Reason classifies why a duplicate group was formed. A group can carry
// several reasons, e.g. difference and average hash agreement plus a
// rotation diagnostic.
type Reason string

// Reason values, in the order stages run.
const (
	ReasonExactMatch     Reason = "exact_match"
	ReasonPureColor      Reason = "pure_color"
	ReasonDifferenceHash Reason = "difference_hash"
	ReasonAverageHash    Reason = "average_hash"
	ReasonFrequencyHash  Reason = "frequency_hash"
	ReasonRotation       Reason = "rotation_detected"
	ReasonEnhanced       Reason = "enhanced_detected"
)

// shortName maps reasons to the fragments used in human-readable labels.
var shortName = map[Reason]string{
	ReasonExactMatch:     "exact match",
	ReasonPureColor:      "pure color",
	ReasonDifferenceHash: "difference",
	ReasonAverageHash:    "average",
	ReasonFrequencyHash:  "frequency",
	ReasonRotation:       "rotation detected",
	ReasonEnhanced:       "enhanced",
}

// Member is one image inside a duplicate group. The first member of a
// group is the base; its distances are zero by definition.
type Member struct {
	// Path is the image file path.
	Path string `json:"path"`

	// DifferenceDistance, AverageDistance and FrequencyDistance are the
	// Hamming distances to the group base.
	DifferenceDistance int `json:"difference_distance"`
	AverageDistance    int `json:"average_distance"`
	FrequencyDistance  int `json:"frequency_distance"`

	// RotationAngle is the detected rotation relative to the base in
	// degrees, 0 when no rotation was involved.
	RotationAngle int `json:"rotation_angle,omitempty"`

	// Confidence is the enhanced detector's blended score in [0,1].
	// Zero for members found by other stages.
	Confidence float64 `json:"confidence,omitempty"`

	// Detail is the detection-type label from the enhanced detector,
	// e.g. "rotation 180°+scale 1.3x+resolution change".
	Detail string `json:"detail,omitempty"`

	// Taken is the EXIF capture time when available, RFC 3339 formatted.
	// Filled in by report enrichment, not by the detector.
	Taken string `json:"taken,omitempty"`
}

// DuplicateGroup is a set of images judged to be duplicates of each
// other. Every group has at least two members; a path belongs to at most
// one group per run.
type DuplicateGroup struct {
	// Reasons is the set of classifications that formed this group.
	Reasons []Reason `json:"reasons"`

	// Members lists the images in discovery order; Members[0] is the base.
	Members []Member `json:"members"`

	// Confidence is the mean member confidence for enhanced groups,
	// zero otherwise.
	Confidence float64 `json:"confidence,omitempty"`
}

// HasReason reports whether the group carries the given reason.
func (g *DuplicateGroup) HasReason(r Reason) bool {
	for _, have := range g.Reasons {
		if have == r {
			return true
		}
	}
	return false
}

// Label renders the group's reasons as a short human-readable string such
// as "difference+average (rotation detected)".
func (g *DuplicateGroup) Label() string {
	var algos, notes []string
	for _, r := range g.Reasons {
		switch r {
		case ReasonRotation:
			notes = append(notes, shortName[r])
		case ReasonEnhanced:
			notes = append(notes, shortName[r])
		default:
			algos = append(algos, shortName[r])
		}
	}
	label := strings.Join(algos, "+")
	if len(notes) > 0 {
		note := strings.Join(notes, ", ")
		if label == "" {
			return note
		}
		label += " (" + note + ")"
	}
	return label
}

// Paths returns the member paths in order.
func (g *DuplicateGroup) Paths() []string {
	paths := make([]string, len(g.Members))
	for i, m := range g.Members {
		paths[i] = m.Path
	}
	return paths
}
