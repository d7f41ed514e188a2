package feedback

import (
	"context"
	"fmt"
	"strings"

	"github.com/seanbenoit06/dancetrainer/internal/session"
)

// Generator produces coaching notes for a finished session. With a nil
// client every note comes from the templates.
type Generator struct {
	client *Client
}

// NewGenerator creates a Generator. client may be nil.
func NewGenerator(client *Client) *Generator {
	return &Generator{client: client}
}

// Generate builds at most five notes covering the worst segments of the
// summary, worst first. Model failures fall back to the template text
// per note; Generate itself never fails.
func (g *Generator) Generate(ctx context.Context, summary session.Summary) []Item {
	segments := worstSegments(summary.Segments, maxItems)

	items := make([]Item, 0, len(segments))
	for _, seg := range segments {
		item := templateItem(seg)
		if g.client != nil {
			if reply, err := g.client.Coach(ctx, coachPrompt(seg)); err == nil {
				if text := strings.TrimSpace(reply); text != "" {
					item.Body = text
				}
			}
		}
		items = append(items, item)
	}

	return items
}

// coachPrompt describes one problem segment to the model.
func coachPrompt(seg session.Segment) string {
	var b strings.Builder

	fmt.Fprintf(&b, "You are a dance coach reviewing a student's practice run.\n")
	fmt.Fprintf(&b, "Between %.1fs and %.1fs the student's accuracy dropped to %.0f%%.\n",
		float64(seg.StartMs)/1000, float64(seg.EndMs)/1000, seg.AvgScore*100)

	if len(seg.JointErrors) > 0 {
		b.WriteString("Problem joints:\n")
		for _, je := range seg.JointErrors {
			fmt.Fprintf(&b, "- %s: measured %.0f degrees, target %.0f degrees (off by %.0f)\n",
				strings.ToLower(je.Joint.DisplayName()), je.Actual, je.Expected, je.Difference)
		}
	} else {
		b.WriteString("No joints were trackable during this stretch.\n")
	}

	b.WriteString("Write one short, encouraging coaching tip of at most two sentences telling the student what to fix.")
	return b.String()
}
