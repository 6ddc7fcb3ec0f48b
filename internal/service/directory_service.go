package service

import (
	"context"
	"strings"

	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"github.com/shoplocal/directory-service/internal/cache"
	"github.com/shoplocal/directory-service/internal/dedupe"
	"github.com/shoplocal/directory-service/internal/domain"
	"github.com/shoplocal/directory-service/internal/geo"
	"github.com/shoplocal/directory-service/internal/log"
	"github.com/shoplocal/directory-service/internal/repository"
	"github.com/shoplocal/directory-service/internal/session"
	"github.com/shoplocal/directory-service/internal/tracking"
	"github.com/shoplocal/directory-service/internal/viewstate"
)

const (
	facetCacheName = "facets"
	facetCacheKey  = "all"
)

type directoryServiceImpl struct {
	repo     repository.SearchRepository
	cache    *cache.TTLCache
	resolver *geo.Resolver
	notifier *tracking.Notifier
	prefs    *viewstate.Manager
	sessions *session.Registry
	sf       singleflight.Group
}

// NewDirectoryService creates the query orchestrator.
func NewDirectoryService(
	repo repository.SearchRepository,
	ttlCache *cache.TTLCache,
	resolver *geo.Resolver,
	notifier *tracking.Notifier,
	prefs *viewstate.Manager,
	sessions *session.Registry,
) DirectoryService {
	return &directoryServiceImpl{
		repo:     repo,
		cache:    ttlCache,
		resolver: resolver,
		notifier: notifier,
		prefs:    prefs,
		sessions: sessions,
	}
}

func (s *directoryServiceImpl) Browse(ctx context.Context, sessionID string, req *domain.BrowseRequest) (*domain.BrowseResult, error) {
	s.normalizeRequest(req)

	sess := s.sessions.Get(sessionID)
	seq := sess.Begin()

	key := req.Key()
	v, err, _ := s.sf.Do(key, func() (interface{}, error) {
		rows, total, err := s.repo.SearchListings(ctx, req)
		if err != nil {
			return nil, err
		}

		deduped := dedupe.Listings(rows)
		removed := len(rows) - len(deduped)

		return &domain.BrowseResult{
			Listings:   deduped,
			Pagination: dedupe.Envelope(req.Page, req.Limit, total, removed),
		}, nil
	})

	if err != nil {
		// Keep previously loaded data on screen; the error is additive
		// unless nothing has ever loaded for this session.
		if last := sess.LastResult(); last != nil {
			stale := *last
			stale.Stale = true
			return &stale, err
		}
		return nil, err
	}

	res := v.(*domain.BrowseResult)

	// A response for a superseded query answers its own caller but must
	// not become the session's current result set or fire tracking.
	if !sess.Commit(seq, res) {
		l := log.Ctx(ctx)
		l.Debug().Str("key", key).Msg("discarding stale search response")
		return res, nil
	}

	if sig := req.TrackingSignature(); sess.Tracker().ShouldTrack(sig) {
		var loc *domain.UserLocation
		if req.HasCoords() {
			loc = &domain.UserLocation{Lat: *req.Lat, Lng: *req.Lng}
		}
		s.notifier.SearchPerformed(sig, strings.TrimSpace(req.Query), loc)
	}

	return res, nil
}

func (s *directoryServiceImpl) Facets(ctx context.Context) (*domain.FacetSet, error) {
	var cached domain.FacetSet
	if s.cache.Get(ctx, facetCacheName, facetCacheKey, &cached) {
		return &cached, nil
	}

	v, err, _ := s.sf.Do("facets", func() (interface{}, error) {
		var fs domain.FacetSet

		g, gCtx := errgroup.WithContext(ctx)
		g.Go(func() error {
			var err error
			fs.Categories, err = s.repo.CategoryFacets(gCtx)
			return err
		})
		g.Go(func() error {
			var err error
			fs.StoreTypes, err = s.repo.StoreTypeFacets(gCtx)
			return err
		})
		if err := g.Wait(); err != nil {
			return nil, err
		}

		s.cache.Set(ctx, facetCacheName, facetCacheKey, &fs)
		return &fs, nil
	})
	if err != nil {
		return nil, err
	}

	return v.(*domain.FacetSet), nil
}

func (s *directoryServiceImpl) Locate(ctx context.Context, in geo.Input) *domain.UserLocation {
	return s.resolver.Resolve(ctx, in)
}

func (s *directoryServiceImpl) LoadPreference(ctx context.Context, sessionID string) domain.ViewPreference {
	return s.prefs.Load(ctx, sessionID)
}

func (s *directoryServiceImpl) SavePreference(ctx context.Context, sessionID string, pref domain.ViewPreference) error {
	return s.prefs.Save(ctx, sessionID, pref)
}

func (s *directoryServiceImpl) normalizeRequest(req *domain.BrowseRequest) {
	if req.Page < 1 {
		req.Page = 1
	}
	if !domain.ValidPageSize(req.Limit) {
		req.Limit = domain.DefaultPageSize
	}
	switch req.Sort {
	case domain.SortDistance, domain.SortRating, domain.SortName:
	default:
		req.Sort = ""
	}
	if req.Sort == domain.SortDistance && !req.HasCoords() {
		req.Sort = ""
	}
}
