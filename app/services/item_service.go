package services

import (
	"context"
	"io"
	"math"
	"path"
	"regexp"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"go.mongodb.org/mongo-driver/bson/primitive"

	"github.com/shashiranjanraj/kabadi/app/models"
	"github.com/shashiranjanraj/kabadi/app/policies"
	"github.com/shashiranjanraj/kabadi/app/repositories"
	"github.com/shashiranjanraj/kabadi/app/views"
	"github.com/shashiranjanraj/kabadi/pkg/cache"
	"github.com/shashiranjanraj/kabadi/pkg/logger"
	"github.com/shashiranjanraj/kabadi/pkg/metrics"
	"github.com/shashiranjanraj/kabadi/pkg/storage"
)

// AvailableItemsKey caches the public listing of available items.
const AvailableItemsKey = "items:available"

// Upload is an image file received with an item create or update.
type Upload struct {
	Filename    string
	ContentType string
	Body        io.Reader
}

type ItemInput struct {
	Name        string
	Category    models.Category
	Weight      float64
	Price       float64
	Description string
}

// Validate rejects an unknown category and weights or prices that are not
// finite numbers.
func (in ItemInput) Validate() error {
	if !in.Category.Valid() {
		return ErrInvalidInput.Withf("unknown category %q", in.Category)
	}
	return finite(map[string]*float64{"weight": &in.Weight, "price": &in.Price})
}

func validateUpdate(upd models.ItemUpdate) error {
	if upd.Category != nil && !upd.Category.Valid() {
		return ErrInvalidInput.Withf("unknown category %q", *upd.Category)
	}
	return finite(map[string]*float64{"weight": upd.Weight, "price": upd.Price})
}

func finite(fields map[string]*float64) error {
	for name, v := range fields {
		if v != nil && (math.IsInf(*v, 0) || math.IsNaN(*v)) {
			return ErrInvalidInput.Withf("%s must be a finite number", name)
		}
	}
	return nil
}

type ItemService struct {
	store    repositories.Store
	disk     storage.Disk
	cache    cache.Cache
	cacheTTL time.Duration
}

func NewItemService(store repositories.Store, disk storage.Disk, c cache.Cache, cacheTTL time.Duration) *ItemService {
	if c == nil {
		c = cache.Nop{}
	}
	return &ItemService{store: store, disk: disk, cache: c, cacheTTL: cacheTTL}
}

// Create lists a new item for the calling seller. The seller's current
// address is copied onto the item. A failed upload aborts the create.
func (s *ItemService) Create(ctx context.Context, p policies.Principal, in ItemInput, img *Upload) (*models.Item, error) {
	if !p.Can(policies.ActionManageItems) {
		return nil, ErrForbidden
	}
	if err := in.Validate(); err != nil {
		return nil, err
	}

	seller, err := s.store.Users().FindByID(ctx, p.UserID)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, upstream(err, "find seller")
	}
	if seller.Address() == "" {
		return nil, ErrAddressMissing.Withf("seller %s has no address", seller.ID.Hex())
	}

	it := models.Item{
		Name:        in.Name,
		Category:    in.Category,
		Weight:      in.Weight,
		Price:       in.Price,
		Description: in.Description,
		Status:      models.ItemAvailable,
		SellerID:    seller.ID,
		Address:     seller.Address(),
	}

	key, err := s.upload(ctx, img)
	if err != nil {
		return nil, err
	}
	if key != "" {
		it.Image = s.disk.URL(key)
	}

	if err := s.store.Items().Create(ctx, &it); err != nil {
		s.discard(ctx, key)
		return nil, upstream(err, "create item")
	}

	s.invalidate(ctx)
	logger.WithCtx(ctx).Info("item created", "item_id", it.ID.Hex())
	return &it, nil
}

// ListAvailable returns every available item with its seller joined.
func (s *ItemService) ListAvailable(ctx context.Context) ([]views.Item, error) {
	var cached []views.Item
	if s.cache.Get(ctx, AvailableItemsKey, &cached) {
		metrics.CacheHits.WithLabelValues(AvailableItemsKey).Inc()
		return cached, nil
	}
	metrics.CacheMisses.WithLabelValues(AvailableItemsKey).Inc()

	items, err := s.store.Items().Find(ctx, repositories.ItemFilter{Status: models.ItemAvailable})
	if err != nil {
		return nil, upstream(err, "list items")
	}
	out, err := joinSellers(ctx, s.store, items, views.Party)
	if err != nil {
		return nil, err
	}

	if err := s.cache.Set(ctx, AvailableItemsKey, out, s.cacheTTL); err != nil {
		logger.WithCtx(ctx).Warn("cache set failed", "key", AvailableItemsKey, "error", err)
	}
	return out, nil
}

// Get returns one item, in any status, with its seller joined.
func (s *ItemService) Get(ctx context.Context, id primitive.ObjectID) (*views.Item, error) {
	it, err := s.store.Items().FindByID(ctx, id)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, ErrItemNotFound
	}
	if err != nil {
		return nil, upstream(err, "find item")
	}

	out, err := joinSellers(ctx, s.store, []models.Item{*it}, views.Party)
	if err != nil {
		return nil, err
	}
	return &out[0], nil
}

// Update changes an item the caller owns. A new upload replaces the image;
// otherwise the current image is kept.
func (s *ItemService) Update(ctx context.Context, p policies.Principal, id primitive.ObjectID, upd models.ItemUpdate, img *Upload) (*models.Item, error) {
	if !p.Can(policies.ActionManageItems) {
		return nil, ErrForbidden
	}
	if err := validateUpdate(upd); err != nil {
		return nil, err
	}

	current, err := s.owned(ctx, p, id)
	if err != nil {
		return nil, err
	}

	key, err := s.upload(ctx, img)
	if err != nil {
		return nil, err
	}
	if key != "" {
		url := s.disk.URL(key)
		upd.Image = &url
	}

	it, err := s.store.Items().UpdateOwned(ctx, id, p.UserID, upd)
	if err != nil {
		s.discard(ctx, key)
		if errors.Is(err, repositories.ErrNotFound) {
			return nil, ErrItemNotFound
		}
		return nil, upstream(err, "update item")
	}

	if key != "" {
		s.discardURL(ctx, current.Image)
	}
	s.invalidate(ctx)
	return it, nil
}

// Delete removes an item the caller owns, along with its stored image.
func (s *ItemService) Delete(ctx context.Context, p policies.Principal, id primitive.ObjectID) error {
	if !p.Can(policies.ActionManageItems) {
		return ErrForbidden
	}

	it, err := s.store.Items().DeleteOwned(ctx, id, p.UserID)
	if errors.Is(err, repositories.ErrNotFound) {
		return ErrItemNotFound
	}
	if err != nil {
		return upstream(err, "delete item")
	}

	s.discardURL(ctx, it.Image)
	s.invalidate(ctx)
	logger.WithCtx(ctx).Info("item deleted", "item_id", id.Hex())
	return nil
}

// ListOwn returns the caller's available items.
func (s *ItemService) ListOwn(ctx context.Context, p policies.Principal) ([]views.Item, error) {
	if !p.Can(policies.ActionManageItems) {
		return nil, ErrForbidden
	}

	items, err := s.store.Items().Find(ctx, repositories.ItemFilter{SellerID: &p.UserID, Status: models.ItemAvailable})
	if err != nil {
		return nil, upstream(err, "list own items")
	}
	return joinSellers(ctx, s.store, items, views.Contact)
}

// ListStatuses returns every item the caller owns, projected to name, image
// and status.
func (s *ItemService) ListStatuses(ctx context.Context, p policies.Principal) ([]views.ItemStatus, error) {
	if !p.Can(policies.ActionManageItems) {
		return nil, ErrForbidden
	}

	items, err := s.store.Items().Find(ctx, repositories.ItemFilter{SellerID: &p.UserID})
	if err != nil {
		return nil, upstream(err, "list item statuses")
	}
	out := make([]views.ItemStatus, 0, len(items))
	for _, it := range items {
		out = append(out, views.ItemStatusOf(it))
	}
	return out, nil
}

// Invalidate drops the cached available listing. Order placement calls it
// once an item is sold.
func (s *ItemService) Invalidate(ctx context.Context) { s.invalidate(ctx) }

func (s *ItemService) owned(ctx context.Context, p policies.Principal, id primitive.ObjectID) (*models.Item, error) {
	it, err := s.store.Items().FindByID(ctx, id)
	if errors.Is(err, repositories.ErrNotFound) {
		return nil, ErrItemNotFound
	}
	if err != nil {
		return nil, upstream(err, "find item")
	}
	if it.SellerID != p.UserID {
		return nil, ErrItemNotFound
	}
	return it, nil
}

var unsafeName = regexp.MustCompile(`[^A-Za-z0-9._-]+`)

// imageKey names an upload images/<uuid>_<name> so names never collide.
func imageKey(filename string) string {
	name := unsafeName.ReplaceAllString(path.Base(strings.ReplaceAll(filename, `\`, "/")), "_")
	name = strings.Trim(name, "._")
	if name == "" {
		name = "image"
	}
	return "images/" + uuid.NewString() + "_" + name
}

func (s *ItemService) upload(ctx context.Context, img *Upload) (string, error) {
	if img == nil || img.Body == nil {
		return "", nil
	}
	if s.disk == nil {
		return "", ErrUpload.Withf("no storage disk configured")
	}

	key := imageKey(img.Filename)
	if err := s.disk.Put(ctx, key, img.Body, img.ContentType); err != nil {
		return "", ErrUpload.With(err)
	}
	return key, nil
}

func (s *ItemService) discard(ctx context.Context, key string) {
	if key == "" {
		return
	}
	if err := s.disk.Delete(ctx, key); err != nil {
		logger.WithCtx(ctx).Warn("orphaned image not removed", "path", key, "error", err)
	}
}

func (s *ItemService) discardURL(ctx context.Context, url string) {
	if url == "" || s.disk == nil {
		return
	}
	if key, ok := s.disk.Path(url); ok {
		s.discard(ctx, key)
	}
}

func (s *ItemService) invalidate(ctx context.Context) {
	if err := s.cache.Del(ctx, AvailableItemsKey); err != nil {
		logger.WithCtx(ctx).Warn("cache invalidation failed", "key", AvailableItemsKey, "error", err)
	}
}
