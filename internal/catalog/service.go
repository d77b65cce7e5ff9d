package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"net/url"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/singleflight"

	"storefront/internal/apiclient"
	"storefront/internal/logging"
	"storefront/internal/models"
)

// FeaturedLimit is how many products the home page shows.
const FeaturedLimit = 8

const defaultTTL = 2 * time.Minute

type API interface {
	ListProducts(ctx context.Context, filter apiclient.ProductFilter) (models.ProductPage, error)
	GetProduct(ctx context.Context, id string) (models.Product, error)
	Categories(ctx context.Context) ([]models.Category, error)
}

// Service serves the public catalog through a read-through cache. Cache
// failures are logged and skipped; only API failures reach the caller.
type Service struct {
	api    API
	cache  Cache
	ttl    time.Duration
	logger *zap.Logger
	group  singleflight.Group
}

func NewService(api API, cache Cache, ttl time.Duration, logger *zap.Logger) *Service {
	if cache == nil {
		cache = NewMemoryCache()
	}
	if ttl <= 0 {
		ttl = defaultTTL
	}
	return &Service{
		api:    api,
		cache:  cache,
		ttl:    ttl,
		logger: logging.Component(logger, "catalog"),
	}
}

type Home struct {
	Featured   []models.Product  `json:"featured"`
	Categories []models.Category `json:"categories"`
}

func (s *Service) Products(ctx context.Context, filter apiclient.ProductFilter) (models.ProductPage, error) {
	return load(ctx, s, productsKey(filter), func(ctx context.Context) (models.ProductPage, error) {
		return s.api.ListProducts(ctx, filter)
	})
}

func (s *Service) Product(ctx context.Context, id string) (models.Product, error) {
	return load(ctx, s, "product:"+url.PathEscape(id), func(ctx context.Context) (models.Product, error) {
		return s.api.GetProduct(ctx, id)
	})
}

func (s *Service) Categories(ctx context.Context) ([]models.Category, error) {
	return load(ctx, s, "categories", s.api.Categories)
}

// Home loads the featured products and the categories in parallel.
func (s *Service) Home(ctx context.Context) (Home, error) {
	var home Home
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		page, err := s.Products(gctx, apiclient.ProductFilter{Page: 1, Limit: FeaturedLimit})
		home.Featured = page.Products
		return err
	})
	g.Go(func() error {
		categories, err := s.Categories(gctx)
		home.Categories = categories
		return err
	})
	if err := g.Wait(); err != nil {
		return Home{}, err
	}
	return home, nil
}

// Invalidate drops the cached products and the category list, e.g. after
// an order changed their stock.
func (s *Service) Invalidate(ctx context.Context, productIDs ...string) {
	keys := []string{"categories"}
	for _, id := range productIDs {
		keys = append(keys, "product:"+url.PathEscape(id))
	}
	if err := s.cache.Delete(ctx, keys...); err != nil {
		s.logger.Warn("cache invalidate failed", zap.Error(err))
	}
}

func productsKey(filter apiclient.ProductFilter) string {
	// url.Values.Encode sorts by key, so equal filters share an entry.
	return "products:" + filter.Query().Encode()
}

func load[T any](ctx context.Context, s *Service, key string, fetch func(context.Context) (T, error)) (T, error) {
	var zero T

	data, err := s.cache.Get(ctx, key)
	if err == nil {
		var v T
		if err := json.Unmarshal(data, &v); err == nil {
			return v, nil
		}
		s.logger.Warn("discarding undecodable cache entry", zap.String("key", key))
	} else if !errors.Is(err, ErrCacheMiss) {
		s.logger.Warn("cache read failed", zap.String("key", key), zap.Error(err))
	}

	v, err, shared := s.group.Do(key, func() (interface{}, error) {
		fresh, err := fetch(ctx)
		if err != nil {
			return nil, err
		}
		if encoded, err := json.Marshal(fresh); err == nil {
			if err := s.cache.Set(ctx, key, encoded, s.ttl); err != nil {
				s.logger.Warn("cache write failed", zap.String("key", key), zap.Error(err))
			}
		}
		return fresh, nil
	})
	if err != nil {
		return zero, err
	}
	if shared {
		s.logger.Debug("coalesced catalog fetch", zap.String("key", key))
	}
	return v.(T), nil
}
