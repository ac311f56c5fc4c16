package sweep

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/cognicore/topica/pkg/topica/coherence"
	"github.com/cognicore/topica/pkg/topica/corpus"
	"github.com/cognicore/topica/pkg/topica/internalerr"
	"github.com/cognicore/topica/pkg/topica/lda"
)

func testInput() Input {
	var texts [][]string
	for i := 0; i < 10; i++ {
		texts = append(texts,
			[]string{"wall", "border", "security", "wall"},
			[]string{"jobs", "economy", "market", "jobs"},
			[]string{"news", "media", "fake", "media"},
		)
	}
	dict, bows := corpus.Build(texts)
	return Input{Dictionary: dict, BoWs: bows, Texts: texts}
}

func testOptions() Options {
	return Options{
		LDA:       lda.Config{Passes: 3, Seed: lda.SeedValue(5)},
		Coherence: coherence.Options{TopN: 3},
	}
}

func TestRangeCounts(t *testing.T) {
	got, err := Range{Start: 2, Limit: 8, Step: 3}.Counts()
	require.NoError(t, err)
	require.Equal(t, []int{2, 5}, got)

	got, err = Range{Start: 2, Limit: 3, Step: 1}.Counts()
	require.NoError(t, err)
	require.Equal(t, []int{2}, got)
}

func TestRangeInvalid(t *testing.T) {
	for _, r := range []Range{
		{Start: 5, Limit: 5, Step: 1},
		{Start: 5, Limit: 2, Step: 1},
		{Start: 2, Limit: 8, Step: 0},
		{Start: 2, Limit: 8, Step: -1},
		{Start: 0, Limit: 8, Step: 2},
	} {
		_, err := r.Counts()
		require.ErrorIs(t, err, internalerr.ErrInvalidInput, "%+v", r)
	}
}

func TestRunOnePointPerCount(t *testing.T) {
	in := testInput()
	points, err := Run(context.Background(), in, Range{Start: 2, Limit: 5, Step: 1}, testOptions())
	require.NoError(t, err)
	require.Len(t, points, 3)

	for i, p := range points {
		require.Equal(t, 2+i, p.K)
		require.NotNil(t, p.Model)
		require.Equal(t, p.K, p.Model.K())
		require.Len(t, p.PerTopic, p.K)
	}
	require.NotSame(t, points[0].Model, points[1].Model)

	p, ok := Find(points, 3)
	require.True(t, ok)
	require.Equal(t, 3, p.K)
	_, ok = Find(points, 9)
	require.False(t, ok)
}

func TestRunInvalidRange(t *testing.T) {
	_, err := Run(context.Background(), testInput(), Range{Start: 4, Limit: 2, Step: 1}, testOptions())
	require.ErrorIs(t, err, internalerr.ErrInvalidInput)
}

func TestRunCountExceedsVocabulary(t *testing.T) {
	in := testInput()
	points, err := Run(context.Background(), in, Range{Start: in.Dictionary.Len(), Limit: in.Dictionary.Len() + 2, Step: 1}, testOptions())
	require.ErrorIs(t, err, internalerr.ErrInvalidInput)
	require.Len(t, points, 1)
}

func TestRunCancelledBetweenIterations(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	points, err := Run(ctx, testInput(), Range{Start: 2, Limit: 4, Step: 1}, testOptions())
	require.ErrorIs(t, err, context.Canceled)
	require.Empty(t, points)
}

func TestTableAndPlot(t *testing.T) {
	points := []Point{{K: 2, Coherence: 0.41}, {K: 5, Coherence: 0.47}}

	require.Equal(t, []Row{{K: 2, Coherence: 0.41}, {K: 5, Coherence: 0.47}}, Table(points))

	var buf bytes.Buffer
	require.NoError(t, WriteTable(&buf, points))
	require.Equal(t, "num_topics,coherence\n2,0.4100\n5,0.4700\n", buf.String())

	path := filepath.Join(t.TempDir(), "output", "n_topics_coherence.jpg")
	require.NoError(t, Plot(points, path))
	info, err := os.Stat(path)
	require.NoError(t, err)
	require.Positive(t, info.Size())

	require.Error(t, Plot(nil, path))
	require.True(t, strings.HasSuffix(DefaultPlotPath, "n_topics_coherence.jpg"))
}
