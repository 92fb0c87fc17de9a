package services

import (
	"context"
	"encoding/json"
	"time"

	"github.com/hyunwoogil/restaurant-order-service/internal/views"
	"github.com/hyunwoogil/restaurant-order-service/pkg"
	"github.com/hyunwoogil/restaurant-order-service/pkg/database"
	"github.com/hyunwoogil/restaurant-order-service/pkg/models"
	"github.com/hyunwoogil/restaurant-order-service/pkg/repositories"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const menuCacheKey = "menu:snapshot"

// MenuService serves the customer-facing catalog. The full menu snapshot is
// cached in Redis; the catalog changes rarely and the menu endpoint carries
// most of the read traffic.
type MenuService interface {
	GetMenu(ctx context.Context, traceID string) (views.MenuResponse, error)
	GetItem(ctx context.Context, traceID string, itemID string) (models.MenuItem, error)
}

type MenuServiceImpl struct {
	logger      *zap.Logger
	db          *database.DB
	menuRepo    repositories.MenuRepository
	redisClient *redis.Client // nil disables caching
	cacheTTL    time.Duration
}

func NewMenuService(logger *zap.Logger, db *database.DB, menuRepo repositories.MenuRepository, redisClient *redis.Client, cacheTTL time.Duration) MenuService {
	return &MenuServiceImpl{
		logger:      logger,
		db:          db,
		menuRepo:    menuRepo,
		redisClient: redisClient,
		cacheTTL:    cacheTTL,
	}
}

func (s *MenuServiceImpl) GetMenu(ctx context.Context, traceID string) (views.MenuResponse, error) {
	if cached, ok := s.readCache(ctx, traceID); ok {
		return cached, nil
	}

	var resp views.MenuResponse
	var err error
	if resp.Categories, err = s.menuRepo.ListCategories(ctx, s.db); err != nil {
		return views.MenuResponse{}, pkg.HandleSQLError(traceID, s.logger, err)
	}
	if resp.Items, err = s.menuRepo.ListItems(ctx, s.db); err != nil {
		return views.MenuResponse{}, pkg.HandleSQLError(traceID, s.logger, err)
	}
	if resp.Options, err = s.menuRepo.ListOptions(ctx, s.db); err != nil {
		return views.MenuResponse{}, pkg.HandleSQLError(traceID, s.logger, err)
	}
	if resp.OptionValues, err = s.menuRepo.ListOptionValues(ctx, s.db); err != nil {
		return views.MenuResponse{}, pkg.HandleSQLError(traceID, s.logger, err)
	}
	if resp.ItemOptionMap, err = s.menuRepo.ListItemOptionMap(ctx, s.db); err != nil {
		return views.MenuResponse{}, pkg.HandleSQLError(traceID, s.logger, err)
	}

	s.writeCache(ctx, traceID, resp)
	return resp, nil
}

func (s *MenuServiceImpl) GetItem(ctx context.Context, traceID string, itemID string) (models.MenuItem, error) {
	id, err := parseOptionalUUID(&itemID, "itemId")
	if err != nil {
		return models.MenuItem{}, err
	}
	if id == nil {
		return models.MenuItem{}, pkg.NewAppError(pkg.ErrInvalidInputCode, "itemId is required", nil)
	}

	item, err := s.menuRepo.FindItem(ctx, s.db, *id)
	if err != nil {
		return models.MenuItem{}, pkg.HandleSQLError(traceID, s.logger, err)
	}
	if item == nil {
		return models.MenuItem{}, pkg.NewAppError(pkg.ErrNotFoundCode, "menu item not found", nil)
	}
	return *item, nil
}

// readCache misses on any Redis problem; the menu always has the database to
// fall back on.
func (s *MenuServiceImpl) readCache(ctx context.Context, traceID string) (views.MenuResponse, bool) {
	if s.redisClient == nil {
		return views.MenuResponse{}, false
	}

	raw, err := s.redisClient.Get(ctx, menuCacheKey).Bytes()
	if err != nil {
		if err != redis.Nil {
			s.logger.Warn("menu cache read failed", zap.String(pkg.TraceId, traceID), zap.Error(err))
		}
		return views.MenuResponse{}, false
	}

	var resp views.MenuResponse
	if err = json.Unmarshal(raw, &resp); err != nil {
		s.logger.Warn("menu cache corrupt, ignoring", zap.String(pkg.TraceId, traceID), zap.Error(err))
		return views.MenuResponse{}, false
	}
	return resp, true
}

func (s *MenuServiceImpl) writeCache(ctx context.Context, traceID string, resp views.MenuResponse) {
	if s.redisClient == nil {
		return
	}
	raw, err := json.Marshal(resp)
	if err != nil {
		return
	}
	if err = s.redisClient.Set(ctx, menuCacheKey, raw, s.cacheTTL).Err(); err != nil {
		s.logger.Warn("menu cache write failed", zap.String(pkg.TraceId, traceID), zap.Error(err))
	}
}
