package service

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/alexivanou/sportslocations/internal/cache"
	"github.com/alexivanou/sportslocations/internal/config"
	"github.com/alexivanou/sportslocations/internal/model"
	"github.com/alexivanou/sportslocations/internal/upstream"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// countingSearcher is a stub upstream returning canned bodies per search text
type countingSearcher struct {
	mu     sync.Mutex
	bodies map[string]string
	err    error
	calls  atomic.Int32
}

func (c *countingSearcher) Search(_ context.Context, text string) ([]byte, error) {
	c.calls.Add(1)
	if c.err != nil {
		return nil, c.err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	body, ok := c.bodies[text]
	if !ok {
		return []byte(`{"data":{"unifiedSearch":{"edges":[]}}}`), nil
	}
	return []byte(body), nil
}

func venueEdge(id int, names string) string {
	return fmt.Sprintf(`{"node":{"venue":{"meta":{"id":"%d"},"name":%s}}}`, id, names)
}

func edgesBody(edges ...string) string {
	body := `{"data":{"unifiedSearch":{"edges":[`
	for i, e := range edges {
		if i > 0 {
			body += ","
		}
		body += e
	}
	return body + `]}}}`
}

func testConfig() *config.Config {
	return &config.Config{
		Upstream: config.UpstreamConfig{RootField: "unifiedSearch"},
		Cache:    config.CacheConfig{RawTTL: time.Hour, QueryTTL: 15 * time.Minute},
		Locale:   config.LocaleConfig{Current: "en", Default: "fi"},
		Selection: config.SelectionConfig{
			Max:         3,
			ResultLimit: 100,
		},
	}
}

func newSearch(up upstream.Searcher, cfg *config.Config) *LocationSearch {
	return NewLocationSearch(up, cache.NewMemory(), cfg, nil)
}

func TestLocationSearch_ArenaScenario(t *testing.T) {
	up := &countingSearcher{bodies: map[string]string{
		"arena": edgesBody(
			venueEdge(10, `{"fi":"Areena A","en":"Arena A"}`),
			venueEdge(11, `{"fi":"Areena B"}`),
		),
	}}
	svc := newSearch(up, testConfig())

	resp, err := svc.SearchEnvelope(context.Background(), model.QueryParams{Search: "arena", Page: 1})
	require.NoError(t, err)

	require.Len(t, resp.Results, 1)
	assert.Equal(t, "Results", resp.Results[0].Text)
	assert.Equal(t, []model.ResultNode{
		{ID: 10, Text: "Arena A (id: 10)"},
		{ID: 11, Text: "Areena B (id: 11)"},
	}, resp.Results[0].Children)
	assert.Equal(t, 2, resp.Count)
	assert.Equal(t, 100, resp.Limit)
	assert.False(t, resp.More)
}

func TestLocationSearch_Dedup(t *testing.T) {
	up := &countingSearcher{bodies: map[string]string{
		"hall": edgesBody(
			venueEdge(10, `{"fi":"Halli"}`),
			venueEdge(12, `{"fi":"Kenttä"}`),
			venueEdge(10, `{"fi":"Halli uudestaan"}`),
		),
	}}
	svc := newSearch(up, testConfig())

	res, err := svc.Search(context.Background(), model.QueryParams{Search: "hall"})
	require.NoError(t, err)
	require.Len(t, res.Locations, 2)
	assert.Equal(t, 10, res.Locations[0].ID)
	assert.Equal(t, "Halli", res.Locations[0].Name["fi"])
	assert.Equal(t, 12, res.Locations[1].ID)
}

func TestLocationSearch_CacheHitStability(t *testing.T) {
	up := &countingSearcher{bodies: map[string]string{
		"pool": edgesBody(venueEdge(5, `{"fi":"Uimahalli"}`)),
	}}
	svc := newSearch(up, testConfig())
	ctx := context.Background()
	q := model.QueryParams{Search: "pool", Filters: map[string]string{"title": "Pools"}}

	first, err := svc.Search(ctx, q)
	require.NoError(t, err)
	second, err := svc.Search(ctx, q)
	require.NoError(t, err)

	assert.Equal(t, first.Locations, second.Locations)
	assert.EqualValues(t, 1, up.calls.Load())

	// Different filters miss the query cache but share the raw search cache
	q.Filters["title"] = "Other"
	_, err = svc.Search(ctx, q)
	require.NoError(t, err)
	assert.EqualValues(t, 1, up.calls.Load())
}

func TestLocationSearch_CacheExpiry(t *testing.T) {
	up := &countingSearcher{}
	now := time.Now()
	mem := cache.NewMemory().WithClock(func() time.Time { return now })
	svc := NewLocationSearch(up, mem, testConfig(), nil)
	ctx := context.Background()

	_, err := svc.Search(ctx, model.QueryParams{Search: "x"})
	require.NoError(t, err)

	now = now.Add(16 * time.Minute)
	_, err = svc.Search(ctx, model.QueryParams{Search: "x"})
	require.NoError(t, err)
	assert.EqualValues(t, 1, up.calls.Load(), "raw cache still live after query cache expired")

	now = now.Add(time.Hour)
	_, err = svc.Search(ctx, model.QueryParams{Search: "x"})
	require.NoError(t, err)
	assert.EqualValues(t, 2, up.calls.Load())
}

func TestLocationSearch_MalformedResponse(t *testing.T) {
	up := &countingSearcher{bodies: map[string]string{"bad": "<html>gateway</html>"}}
	svc := newSearch(up, testConfig())

	resp, err := svc.SearchEnvelope(context.Background(), model.QueryParams{Search: "bad"})
	require.NoError(t, err)
	assert.Empty(t, resp.Results)
	assert.Equal(t, 0, resp.Count)
}

func TestLocationSearch_UpstreamUnavailable(t *testing.T) {
	up := &countingSearcher{err: fmt.Errorf("%w: status=503", upstream.ErrUnavailable)}
	svc := newSearch(up, testConfig())
	ctx := context.Background()

	_, err := svc.Search(ctx, model.QueryParams{Search: "arena"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, upstream.ErrUnavailable))

	// failures are not cached
	up.err = nil
	_, err = svc.Search(ctx, model.QueryParams{Search: "arena"})
	require.NoError(t, err)
	assert.EqualValues(t, 2, up.calls.Load())
}

func TestLocationSearch_Pagination(t *testing.T) {
	up := &countingSearcher{bodies: map[string]string{
		"": edgesBody(
			venueEdge(1, `{"fi":"A"}`),
			venueEdge(2, `{"fi":"B"}`),
			venueEdge(3, `{"fi":"C"}`),
		),
	}}
	cfg := testConfig()
	cfg.Selection.ResultLimit = 2
	svc := newSearch(up, cfg)
	ctx := context.Background()

	page1, err := svc.SearchEnvelope(ctx, model.QueryParams{Page: 1})
	require.NoError(t, err)
	assert.Equal(t, 2, page1.Count)
	assert.True(t, page1.More)

	page2, err := svc.SearchEnvelope(ctx, model.QueryParams{Page: 2})
	require.NoError(t, err)
	assert.Equal(t, 1, page2.Count)
	assert.False(t, page2.More)
	assert.Equal(t, 3, page2.Results[0].Children[0].ID)

	page3, err := svc.SearchEnvelope(ctx, model.QueryParams{Page: 3})
	require.NoError(t, err)
	assert.Empty(t, page3.Results)
	assert.EqualValues(t, 1, up.calls.Load())
}

func TestLocationSearch_LanguageFilter(t *testing.T) {
	up := &countingSearcher{bodies: map[string]string{
		"areena": edgesBody(venueEdge(10, `{"fi":"Areena A","sv":"Arenan A","en":"Arena A"}`)),
	}}
	svc := newSearch(up, testConfig())

	resp, err := svc.SearchEnvelope(context.Background(), model.QueryParams{
		Search:  "areena",
		Filters: map[string]string{"language": "sv"},
	})
	require.NoError(t, err)
	assert.Equal(t, "Arenan A (id: 10)", resp.Results[0].Children[0].Text)
}

// blockingSearcher holds every call until release is closed or the call's
// context ends
type blockingSearcher struct {
	once    sync.Once
	started chan struct{}
	release chan struct{}
	body    []byte
	calls   atomic.Int32
}

func newBlockingSearcher(body string) *blockingSearcher {
	return &blockingSearcher{
		started: make(chan struct{}),
		release: make(chan struct{}),
		body:    []byte(body),
	}
}

func (b *blockingSearcher) Search(ctx context.Context, _ string) ([]byte, error) {
	b.calls.Add(1)
	b.once.Do(func() { close(b.started) })
	select {
	case <-b.release:
		return b.body, nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func TestLocationSearch_CancelledCallerDoesNotFailOthers(t *testing.T) {
	up := newBlockingSearcher(edgesBody(venueEdge(10, `{"fi":"Areena A"}`)))
	svc := newSearch(up, testConfig())
	q := model.QueryParams{Search: "arena"}

	ctxA, cancelA := context.WithCancel(context.Background())
	errA := make(chan error, 1)
	go func() {
		_, err := svc.Search(ctxA, q)
		errA <- err
	}()
	<-up.started

	type outcome struct {
		res *model.SearchResult
		err error
	}
	resB := make(chan outcome, 1)
	go func() {
		res, err := svc.Search(context.Background(), q)
		resB <- outcome{res, err}
	}()
	// give the second caller time to join the in-flight call
	time.Sleep(50 * time.Millisecond)

	cancelA()
	select {
	case err := <-errA:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("cancelled caller kept waiting")
	}

	close(up.release)
	select {
	case out := <-resB:
		require.NoError(t, out.err)
		require.Len(t, out.res.Locations, 1)
		assert.Equal(t, 10, out.res.Locations[0].ID)
	case <-time.After(time.Second):
		t.Fatal("second caller never got a result")
	}
	assert.EqualValues(t, 1, up.calls.Load())

	// the payload fetched for the joined callers is cached
	_, err := svc.Search(context.Background(), q)
	require.NoError(t, err)
	assert.EqualValues(t, 1, up.calls.Load())
}

func TestLocationSearch_UpstreamTimeout(t *testing.T) {
	up := newBlockingSearcher("")
	cfg := testConfig()
	cfg.Upstream.Timeout = 50 * time.Millisecond
	svc := newSearch(up, cfg)

	_, err := svc.Search(context.Background(), model.QueryParams{Search: "slow"})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}
