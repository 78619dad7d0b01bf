package service

import (
	"context"
	"time"

	"github.com/alexivanou/sportslocations/internal/cache"
	"github.com/alexivanou/sportslocations/internal/config"
	"github.com/alexivanou/sportslocations/internal/metrics"
	"github.com/alexivanou/sportslocations/internal/model"
	"github.com/alexivanou/sportslocations/internal/upstream"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// languageFilter is the sibling field carrying the layout language
const languageFilter = "language"

// defaultUpstreamTimeout bounds a shared upstream call when none is configured
const defaultUpstreamTimeout = 10 * time.Second

// LocationSearch resolves location searches from cache or the upstream backend
type LocationSearch struct {
	upstream        upstream.Searcher
	rootField       string
	cache           cache.Cache
	rawTTL          time.Duration
	queryTTL        time.Duration
	upstreamTimeout time.Duration
	locale          config.LocaleConfig
	resultLimit     int
	group           singleflight.Group
	logger          *zap.Logger
}

// NewLocationSearch creates a search service
func NewLocationSearch(up upstream.Searcher, c cache.Cache, cfg *config.Config, logger *zap.Logger) *LocationSearch {
	if logger == nil {
		logger = zap.NewNop()
	}
	limit := cfg.Selection.ResultLimit
	if limit <= 0 {
		limit = 100
	}
	timeout := cfg.Upstream.Timeout
	if timeout <= 0 {
		timeout = defaultUpstreamTimeout
	}
	return &LocationSearch{
		upstream:        up,
		rootField:       cfg.Upstream.RootField,
		cache:           c,
		rawTTL:          cfg.Cache.RawTTL,
		queryTTL:        cfg.Cache.QueryTTL,
		upstreamTimeout: timeout,
		locale:          cfg.Locale,
		resultLimit:     limit,
		logger:          logger.Named("search"),
	}
}

// Search returns the deduplicated locations of the requested page.
// Upstream failures are returned; malformed payloads are logged and yield no results.
func (s *LocationSearch) Search(ctx context.Context, q model.QueryParams) (*model.SearchResult, error) {
	q = q.Normalize()

	raw, err := s.fetchRaw(ctx, q)
	if err != nil {
		return nil, err
	}

	locations, err := upstream.ParseLocations(raw, s.rootField)
	if err != nil {
		s.logger.Error("Failed to process locations",
			zap.String("search", q.Search),
			zap.Error(err),
		)
		metrics.MalformedResponses.Inc()
		locations = nil
	}

	locations = dedupeLocations(locations)

	start := (q.Page - 1) * s.resultLimit
	if start >= len(locations) {
		return &model.SearchResult{Locations: []model.Location{}}, nil
	}
	end := start + s.resultLimit
	if end > len(locations) {
		end = len(locations)
	}

	return &model.SearchResult{
		Locations: locations[start:end],
		HasMore:   end < len(locations),
	}, nil
}

// SearchEnvelope wraps the search result into the widget response envelope
func (s *LocationSearch) SearchEnvelope(ctx context.Context, q model.QueryParams) (*model.SearchResponse, error) {
	result, err := s.Search(ctx, q)
	if err != nil {
		return nil, err
	}

	lang := q.Filter(languageFilter)
	if lang == "" {
		lang = s.locale.Current
	}

	resp := &model.SearchResponse{
		Results: []model.ResultNode{},
		Count:   len(result.Locations),
		Limit:   s.resultLimit,
		More:    result.HasMore,
	}
	if len(result.Locations) == 0 {
		return resp, nil
	}

	children := make([]model.ResultNode, 0, len(result.Locations))
	for _, loc := range result.Locations {
		children = append(children, loc.Choice(lang, s.locale.Default))
	}
	resp.Results = append(resp.Results, model.ResultNode{
		Text:     model.ResultsGroupLabel,
		Children: children,
	})
	return resp, nil
}

// fetchRaw resolves the raw upstream payload through the query cache, then
// the raw search cache, then the backend. Errors are never cached.
func (s *LocationSearch) fetchRaw(ctx context.Context, q model.QueryParams) ([]byte, error) {
	queryKey := model.QueryCachePrefix + q.CacheKey()
	if raw, ok := s.cacheGet(ctx, "query", queryKey); ok {
		return raw, nil
	}

	rawKey := model.RawCachePrefix + model.HashKey(q.Search)
	raw, ok := s.cacheGet(ctx, "raw", rawKey)
	if !ok {
		// The shared call outlives any single caller: a caller that goes away
		// only stops waiting, the others still get the payload.
		ch := s.group.DoChan(rawKey, func() (interface{}, error) {
			callCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.upstreamTimeout)
			defer cancel()

			start := time.Now()
			body, err := s.upstream.Search(callCtx, q.Search)
			metrics.UpstreamDuration.Observe(time.Since(start).Seconds())
			if err != nil {
				metrics.UpstreamRequests.WithLabelValues("error").Inc()
				return nil, err
			}
			metrics.UpstreamRequests.WithLabelValues("ok").Inc()
			s.cacheSet(callCtx, rawKey, body, s.rawTTL)
			return body, nil
		})

		var res singleflight.Result
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case res = <-ch:
		}
		if res.Err != nil {
			s.logger.Warn("Upstream search failed", zap.String("search", q.Search), zap.Error(res.Err))
			return nil, res.Err
		}
		if res.Shared {
			s.logger.Debug("Shared in-flight upstream call", zap.String("search", q.Search))
		}
		raw = res.Val.([]byte)
	}

	s.cacheSet(ctx, queryKey, raw, s.queryTTL)
	return raw, nil
}

func (s *LocationSearch) cacheGet(ctx context.Context, layer, key string) ([]byte, bool) {
	raw, ok, err := s.cache.Get(ctx, key)
	if err != nil {
		s.logger.Warn("Cache read failed", zap.String("key", key), zap.Error(err))
		ok = false
	}
	if ok {
		metrics.CacheLookups.WithLabelValues(layer, "hit").Inc()
		return raw, true
	}
	metrics.CacheLookups.WithLabelValues(layer, "miss").Inc()
	return nil, false
}

func (s *LocationSearch) cacheSet(ctx context.Context, key string, val []byte, ttl time.Duration) {
	if err := s.cache.Set(ctx, key, val, ttl); err != nil {
		s.logger.Warn("Cache write failed", zap.String("key", key), zap.Error(err))
	}
}

// dedupeLocations keeps the first occurrence of every id
func dedupeLocations(locations []model.Location) []model.Location {
	seen := make(map[int]bool, len(locations))
	out := make([]model.Location, 0, len(locations))
	for _, loc := range locations {
		if seen[loc.ID] {
			continue
		}
		seen[loc.ID] = true
		out = append(out, loc)
	}
	return out
}
