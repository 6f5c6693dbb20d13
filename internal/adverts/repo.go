package adverts

import (
	"context"
	"math"
	"sort"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/adee-tech/adee-backend/pkg/db/models"
)

// kmPerLatDegree is the flat-earth approximation used for the geo window:
// one degree of latitude spans roughly 111 km. Longitude degrees shrink by
// cos(lat). Not geodesically exact, and intentionally so.
const kmPerLatDegree = 111.0

// Repository encapsulates advert persistence.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs an adverts repo bound to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Create inserts the advert row alone. Specification rows are inserted
// separately; a failure between the two steps leaves an advert without
// specifications rather than rolling the advert back.
func (r *Repository) Create(ctx context.Context, advert *models.Advert) (*models.Advert, error) {
	if err := r.db.WithContext(ctx).Omit("Specifications").Create(advert).Error; err != nil {
		return nil, err
	}
	return advert, nil
}

// CreateSpecifications inserts the attribute rows for an advert.
func (r *Repository) CreateSpecifications(ctx context.Context, advertID uuid.UUID, specs []SpecificationInput) error {
	if len(specs) == 0 {
		return nil
	}
	rows := make([]models.Specification, 0, len(specs))
	for _, spec := range specs {
		rows = append(rows, models.Specification{
			AdvertID: advertID,
			Key:      spec.Key,
			Value:    spec.Value,
		})
	}
	return r.db.WithContext(ctx).Create(&rows).Error
}

// ReplaceSpecifications swaps the advert's attribute set.
func (r *Repository) ReplaceSpecifications(ctx context.Context, advertID uuid.UUID, specs []SpecificationInput) error {
	if err := r.db.WithContext(ctx).
		Where("advert_id = ?", advertID).
		Delete(&models.Specification{}).Error; err != nil {
		return err
	}
	return r.CreateSpecifications(ctx, advertID, specs)
}

// FindByID loads one advert with its specifications.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Advert, error) {
	var advert models.Advert
	if err := r.db.WithContext(ctx).
		Preload("Specifications").
		First(&advert, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &advert, nil
}

// FindByIDs loads the given adverts with specifications in one query.
// Unknown ids are silently absent from the result.
func (r *Repository) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Advert, error) {
	if len(ids) == 0 {
		return []models.Advert{}, nil
	}
	var adverts []models.Advert
	if err := r.db.WithContext(ctx).
		Preload("Specifications").
		Where("id IN ?", ids).
		Find(&adverts).Error; err != nil {
		return nil, err
	}
	return adverts, nil
}

// FindAvailableByCategory loads every available advert in the category
// except the given one, specifications included, in stable id order.
func (r *Repository) FindAvailableByCategory(ctx context.Context, category string, exclude uuid.UUID) ([]models.Advert, error) {
	var adverts []models.Advert
	if err := r.db.WithContext(ctx).
		Preload("Specifications").
		Where("category = ? AND available = ? AND id <> ?", category, true, exclude).
		Order("id ASC").
		Find(&adverts).Error; err != nil {
		return nil, err
	}
	return adverts, nil
}

// List returns adverts newest-first for plain browsing.
func (r *Repository) List(ctx context.Context, offset, limit int) ([]models.Advert, error) {
	var adverts []models.Advert
	if err := r.db.WithContext(ctx).
		Preload("Specifications").
		Where("available = ?", true).
		Order("created_at DESC").
		Order("id DESC").
		Offset(offset).
		Limit(limit).
		Find(&adverts).Error; err != nil {
		return nil, err
	}
	return adverts, nil
}

// ListByOwner returns every advert belonging to a user, newest-first.
func (r *Repository) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]models.Advert, error) {
	var adverts []models.Advert
	if err := r.db.WithContext(ctx).
		Preload("Specifications").
		Where("user_id = ?", ownerID).
		Order("created_at DESC").
		Order("id DESC").
		Find(&adverts).Error; err != nil {
		return nil, err
	}
	return adverts, nil
}

// searchFilter is the storage-level slice of SearchParams: everything the
// database can answer. Rating, sorting, and pagination happen in memory.
type searchFilter struct {
	Category     *string
	Title        *string
	MinPrice     *float64
	MaxPrice     *float64
	CustomFields map[string]string
	CenterLat    *float64
	CenterLon    *float64
	RangeKM      *float64
}

// Search returns every available advert matching the storage-level
// filters, specifications included, in stable newest-first order.
func (r *Repository) Search(ctx context.Context, filter searchFilter) ([]models.Advert, error) {
	query := r.db.WithContext(ctx).
		Model(&models.Advert{}).
		Preload("Specifications").
		Where("available = ?", true)

	if filter.Category != nil && *filter.Category != "" {
		query = query.Where("category = ?", *filter.Category)
	}
	if filter.Title != nil && *filter.Title != "" {
		// Explicit ESCAPE: sqlite's LIKE has no default escape character.
		query = query.Where(`title LIKE ? ESCAPE '\'`, "%"+escapeLike(*filter.Title)+"%")
	}
	if filter.MinPrice != nil {
		query = query.Where("price >= ?", *filter.MinPrice)
	}
	if filter.MaxPrice != nil {
		query = query.Where("price <= ?", *filter.MaxPrice)
	}

	// Every custom field must be satisfied by some specification row.
	for _, key := range sortedKeys(filter.CustomFields) {
		query = query.Where(
			"EXISTS (SELECT 1 FROM specifications s WHERE s.advert_id = adverts.id AND s.key = ? AND s.value = ?)",
			key, filter.CustomFields[key],
		)
	}

	if filter.CenterLat != nil && filter.CenterLon != nil && filter.RangeKM != nil {
		latDelta := *filter.RangeKM / kmPerLatDegree
		cosLat := math.Cos(*filter.CenterLat * math.Pi / 180)
		query = query.Where("lat BETWEEN ? AND ?", *filter.CenterLat-latDelta, *filter.CenterLat+latDelta)
		if math.Abs(cosLat) > 1e-9 {
			lonDelta := math.Abs(*filter.RangeKM / (kmPerLatDegree * cosLat))
			query = query.Where("lon BETWEEN ? AND ?", *filter.CenterLon-lonDelta, *filter.CenterLon+lonDelta)
		}
	}

	var adverts []models.Advert
	if err := query.
		Order("created_at DESC").
		Order("id DESC").
		Find(&adverts).Error; err != nil {
		return nil, err
	}
	return adverts, nil
}

// Update applies a column map to one advert.
func (r *Repository) Update(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	if len(updates) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Model(&models.Advert{}).
		Where("id = ?", id).
		Updates(updates).Error
}

// MarkSold closes the listing in favor of the buyer.
func (r *Repository) MarkSold(ctx context.Context, id, buyerID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Model(&models.Advert{}).
		Where("id = ?", id).
		Updates(map[string]any{"sold_to": buyerID, "available": false}).Error
}

// SetAvailable flips the availability flag, used while a deal is pending.
func (r *Repository) SetAvailable(ctx context.Context, id uuid.UUID, available bool) error {
	return r.db.WithContext(ctx).
		Model(&models.Advert{}).
		Where("id = ?", id).
		UpdateColumn("available", available).Error
}

// Delete removes the advert; specifications cascade.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&models.Advert{}, "id = ?", id).Error
}

// PurgeByUser removes every advert owned by the user. Used when an
// account is banned.
func (r *Repository) PurgeByUser(ctx context.Context, userID uuid.UUID) error {
	return r.db.WithContext(ctx).Delete(&models.Advert{}, "user_id = ?", userID).Error
}

func sortedKeys(fields map[string]string) []string {
	keys := make([]string, 0, len(fields))
	for key := range fields {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

func escapeLike(value string) string {
	replaced := make([]rune, 0, len(value))
	for _, r := range value {
		if r == '%' || r == '_' || r == '\\' {
			replaced = append(replaced, '\\')
		}
		replaced = append(replaced, r)
	}
	return string(replaced)
}
