package feedback

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/seanbenoit06/dancetrainer/internal/compare"
	"github.com/seanbenoit06/dancetrainer/internal/feature"
	"github.com/seanbenoit06/dancetrainer/internal/session"
)

func elbowSegment() session.Segment {
	return session.Segment{
		StartMs:  2200,
		EndMs:    2900,
		Frames:   10,
		MinScore: 0.31,
		AvgScore: 0.42,
		JointErrors: []compare.JointDiff{
			{Joint: feature.LeftElbow, Expected: 180, Actual: 150, Difference: 30},
		},
	}
}

func summaryWith(segments ...session.Segment) session.Summary {
	return session.Summary{SessionID: "sess-1", Segments: segments}
}

func TestTitleFor(t *testing.T) {
	assert.Equal(t, "Left Elbow at 2.2s", titleFor(elbowSegment()))

	blind := session.Segment{StartMs: 5000, AvgScore: 0.2}
	assert.Equal(t, "Full Body at 5.0s", titleFor(blind))
}

func TestTemplateItem(t *testing.T) {
	item := templateItem(elbowSegment())

	assert.Equal(t, "Left Elbow at 2.2s", item.Title)
	assert.Equal(t, SeverityHigh, item.Severity)
	assert.Equal(t, int64(2200), item.StartMs)
	assert.Equal(t, int64(2900), item.EndMs)
	assert.InDelta(t, 0.42, item.Accuracy, 1e-9)
	assert.Contains(t, item.Body, "left elbow")
	assert.Contains(t, item.Body, "150")
	assert.Contains(t, item.Body, "180")
	assert.Contains(t, item.Body, "30")
}

func TestTemplateItem_NoJointErrors(t *testing.T) {
	item := templateItem(session.Segment{StartMs: 1000, EndMs: 1500, AvgScore: 0.55})

	assert.Equal(t, SeverityMedium, item.Severity)
	assert.Contains(t, item.Body, "55%")
	assert.Contains(t, item.Body, "in frame")
}

func TestGenerator_NoClient(t *testing.T) {
	g := NewGenerator(nil)

	items := g.Generate(context.Background(), summaryWith(elbowSegment()))

	require.Len(t, items, 1)
	assert.Equal(t, templateItem(elbowSegment()).Body, items[0].Body)
}

func TestGenerator_ModelReply(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/generate", r.URL.Path)

		var req generateRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.False(t, req.Stream)
		assert.Contains(t, req.Prompt, "left elbow")
		assert.Contains(t, req.Prompt, "42%")

		json.NewEncoder(w).Encode(generateResponse{Response: "  Lift the elbow sooner.  ", Done: true})
	}))
	defer srv.Close()

	g := NewGenerator(NewClient(ClientConfig{BaseURL: srv.URL}))
	items := g.Generate(context.Background(), summaryWith(elbowSegment()))

	require.Len(t, items, 1)
	assert.Equal(t, "Lift the elbow sooner.", items[0].Body)
	// Title, severity and timing always come from the segment itself
	assert.Equal(t, "Left Elbow at 2.2s", items[0].Title)
	assert.Equal(t, SeverityHigh, items[0].Severity)
}

func TestGenerator_ModelFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "overloaded", http.StatusInternalServerError)
	}))
	defer srv.Close()

	g := NewGenerator(NewClient(ClientConfig{BaseURL: srv.URL}))
	items := g.Generate(context.Background(), summaryWith(elbowSegment()))

	require.Len(t, items, 1)
	assert.Equal(t, templateItem(elbowSegment()).Body, items[0].Body)
}

func TestGenerator_EmptyModelReply(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(generateResponse{Response: "   ", Done: true})
	}))
	defer srv.Close()

	g := NewGenerator(NewClient(ClientConfig{BaseURL: srv.URL}))
	items := g.Generate(context.Background(), summaryWith(elbowSegment()))

	require.Len(t, items, 1)
	assert.Equal(t, templateItem(elbowSegment()).Body, items[0].Body)
}

func TestGenerator_CapsAtWorstFive(t *testing.T) {
	segments := make([]session.Segment, 7)
	for i := range segments {
		segments[i] = session.Segment{
			StartMs:  int64(i * 1000),
			EndMs:    int64(i*1000 + 500),
			AvgScore: 0.1 * float64(i+1),
		}
	}

	g := NewGenerator(nil)
	items := g.Generate(context.Background(), summaryWith(segments...))

	require.Len(t, items, 5)
	for i := 1; i < len(items); i++ {
		assert.LessOrEqual(t, items[i-1].Accuracy, items[i].Accuracy)
	}
	assert.InDelta(t, 0.1, items[0].Accuracy, 1e-9)
}

func TestGenerator_EmptySummary(t *testing.T) {
	g := NewGenerator(nil)

	assert.Empty(t, g.Generate(context.Background(), session.Summary{}))
}

func TestClient_IsAvailable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/tags", r.URL.Path)
		w.WriteHeader(http.StatusOK)
	}))

	client := NewClient(ClientConfig{BaseURL: srv.URL})
	assert.True(t, client.IsAvailable(context.Background()))

	srv.Close()
	assert.False(t, client.IsAvailable(context.Background()))
}
