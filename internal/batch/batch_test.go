package batch

import (
	"context"
	"errors"
	"image"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MeKo-Tech/cardscan/internal/catalog"
	"github.com/MeKo-Tech/cardscan/internal/ocr"
	"github.com/MeKo-Tech/cardscan/internal/scanner"
	"github.com/MeKo-Tech/cardscan/internal/testutil"
)

type fakeEngine struct {
	text  string
	err   error
	calls atomic.Int64
}

func (f *fakeEngine) Recognize(_ context.Context, _ image.Image) (*ocr.Result, error) {
	f.calls.Add(1)
	if f.err != nil {
		return nil, f.err
	}
	return &ocr.Result{
		Text:  f.text,
		Words: []ocr.Word{{Text: f.text, Confidence: 90}},
	}, nil
}

func (f *fakeEngine) Close() error { return nil }

func testStore() *catalog.Store {
	store := catalog.NewStore()
	store.Replace([]catalog.Card{
		{ID: "OGN-170", Name: "Shadow Wolf", Number: "170", SetCode: "OGN", SetName: "Origins"},
		{ID: "OGN-002", Name: "Flame Drake", Number: "2", SetCode: "OGN", SetName: "Origins"},
	})
	return store
}

func writeTestCards(t *testing.T, dir string, n int) []string {
	t.Helper()
	paths := make([]string, 0, n)
	cfg := testutil.DefaultCardConfig()
	for i := 0; i < n; i++ {
		name := "card" + string(rune('a'+i)) + ".png"
		paths = append(paths, testutil.WriteCardPNG(t, dir, name, cfg))
	}
	return paths
}

func TestProcessBatchDirectory(t *testing.T) {
	dir := t.TempDir()
	writeTestCards(t, dir, 3)

	engine := &fakeEngine{text: "Shadow Wolf\n170/298\nOGN"}
	res, err := ProcessBatch(context.Background(), engine, testStore(), []string{dir}, Config{
		Scan:    scanner.DefaultConfig(),
		Workers: 2,
	})
	require.NoError(t, err)

	assert.Len(t, res.Items, 3)
	assert.Equal(t, 3, res.Processed())
	assert.Equal(t, 0, res.Failed())
	assert.Equal(t, 3, res.Identified())
	assert.Equal(t, 2, res.WorkerCount)
	assert.Equal(t, int64(3), engine.calls.Load())

	for _, item := range res.Items {
		require.NoError(t, item.Err)
		require.NotNil(t, item.Result.BestMatch)
		assert.Equal(t, "OGN-170", item.Result.BestMatch.Card.ID)
	}
}

func TestProcessBatchPreservesOrder(t *testing.T) {
	dir := t.TempDir()
	paths := writeTestCards(t, dir, 4)

	engine := &fakeEngine{text: "Shadow Wolf\n170/298"}
	res, err := ProcessBatch(context.Background(), engine, testStore(), paths, Config{
		Scan:    scanner.DefaultConfig(),
		Workers: 4,
	})
	require.NoError(t, err)
	require.Len(t, res.Items, 4)
	for i, item := range res.Items {
		assert.Equal(t, paths[i], item.Path)
	}
}

func TestProcessBatchNoFiles(t *testing.T) {
	dir := t.TempDir()

	engine := &fakeEngine{}
	_, err := ProcessBatch(context.Background(), engine, testStore(), []string{dir}, Config{
		Scan: scanner.DefaultConfig(),
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no image files found")
}

func TestProcessBatchMissingPath(t *testing.T) {
	engine := &fakeEngine{}
	_, err := ProcessBatch(context.Background(), engine, testStore(), []string{"/does/not/exist"}, Config{
		Scan: scanner.DefaultConfig(),
	})
	require.Error(t, err)
}

func TestProcessBatchContinueOnError(t *testing.T) {
	dir := t.TempDir()
	writeTestCards(t, dir, 2)

	engine := &fakeEngine{err: errors.New("engine down")}
	res, err := ProcessBatch(context.Background(), engine, testStore(), []string{dir}, Config{
		Scan:            scanner.DefaultConfig(),
		Workers:         1,
		ContinueOnError: true,
	})
	require.NoError(t, err)

	assert.Equal(t, 0, res.Processed())
	assert.Equal(t, 2, res.Failed())
	for _, item := range res.Items {
		require.Error(t, item.Err)
	}
}

func TestProcessBatchStopOnError(t *testing.T) {
	dir := t.TempDir()
	writeTestCards(t, dir, 3)

	engine := &fakeEngine{err: errors.New("engine down")}
	_, err := ProcessBatch(context.Background(), engine, testStore(), []string{dir}, Config{
		Scan:    scanner.DefaultConfig(),
		Workers: 1,
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "engine down")
}

func TestProcessBatchContextCancel(t *testing.T) {
	dir := t.TempDir()
	writeTestCards(t, dir, 2)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	engine := &fakeEngine{text: "anything"}
	_, err := ProcessBatch(ctx, engine, testStore(), []string{dir}, Config{
		Scan:            scanner.DefaultConfig(),
		Workers:         1,
		ContinueOnError: true,
	})
	require.Error(t, err)
}
