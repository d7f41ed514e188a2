// Package feedback turns session problem segments into coaching notes.
// A local language model phrases the notes when one is reachable;
// otherwise deterministic templates take over.
package feedback

import (
	"fmt"
	"sort"
	"strings"

	"github.com/seanbenoit06/dancetrainer/internal/session"
)

// Severity bands for a segment, keyed off its average score.
const (
	SeverityHigh   = "high"
	SeverityMedium = "medium"
	SeverityLow    = "low"
)

// maxItems caps the notes per session; only the worst segments are
// worth coaching on.
const maxItems = 5

// Item is one coaching note for a problem segment.
type Item struct {
	Title    string  `json:"title"`
	Body     string  `json:"body"`
	Severity string  `json:"severity"`
	StartMs  int64   `json:"start_ms"`
	EndMs    int64   `json:"end_ms"`
	Accuracy float64 `json:"accuracy"`
}

func severityFor(score float64) string {
	switch {
	case score < 0.5:
		return SeverityHigh
	case score < 0.7:
		return SeverityMedium
	default:
		return SeverityLow
	}
}

// worstSegments orders segments worst first and keeps at most limit.
func worstSegments(segments []session.Segment, limit int) []session.Segment {
	out := make([]session.Segment, len(segments))
	copy(out, segments)
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].AvgScore < out[j].AvgScore
	})
	if len(out) > limit {
		out = out[:limit]
	}
	return out
}

// titleFor names the segment by its worst joint and start time.
func titleFor(seg session.Segment) string {
	part := "Full Body"
	if len(seg.JointErrors) > 0 {
		part = seg.JointErrors[0].Joint.DisplayName()
	}
	return fmt.Sprintf("%s at %.1fs", part, float64(seg.StartMs)/1000)
}

// templateItem builds the deterministic fallback note for a segment.
func templateItem(seg session.Segment) Item {
	item := Item{
		Title:    titleFor(seg),
		Severity: severityFor(seg.AvgScore),
		StartMs:  seg.StartMs,
		EndMs:    seg.EndMs,
		Accuracy: seg.AvgScore,
	}

	if len(seg.JointErrors) > 0 {
		worst := seg.JointErrors[0]
		item.Body = fmt.Sprintf(
			"Your %s angle measured %.0f° where the routine calls for %.0f°. Work on closing that %.0f° gap through this passage.",
			strings.ToLower(worst.Joint.DisplayName()), worst.Actual, worst.Expected, worst.Difference,
		)
	} else {
		item.Body = fmt.Sprintf(
			"Accuracy dropped to %.0f%% here. Stay fully in frame and keep pace with the routine.",
			seg.AvgScore*100,
		)
	}

	return item
}
