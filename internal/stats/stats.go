package stats

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/adee-tech/adee-backend/pkg/db/models"
	pkgerrors "github.com/adee-tech/adee-backend/pkg/errors"
)

// Overview is the platform-wide count snapshot.
type Overview struct {
	Users        int64 `json:"users"`
	UsersToday   int64 `json:"users_today"`
	Adverts      int64 `json:"adverts"`
	AdvertsToday int64 `json:"adverts_today"`
}

// Repository answers count queries over the core tables.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a stats repo bound to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// CountUsers returns total users, and users created at or after since.
func (r *Repository) CountUsers(ctx context.Context, since time.Time) (total, recent int64, err error) {
	if err = r.db.WithContext(ctx).Model(&models.User{}).Count(&total).Error; err != nil {
		return 0, 0, err
	}
	err = r.db.WithContext(ctx).Model(&models.User{}).
		Where("created_at >= ?", since).
		Count(&recent).Error
	return total, recent, err
}

// CountAdverts returns total adverts, and adverts created at or after since.
func (r *Repository) CountAdverts(ctx context.Context, since time.Time) (total, recent int64, err error) {
	if err = r.db.WithContext(ctx).Model(&models.Advert{}).Count(&total).Error; err != nil {
		return 0, 0, err
	}
	err = r.db.WithContext(ctx).Model(&models.Advert{}).
		Where("created_at >= ?", since).
		Count(&recent).Error
	return total, recent, err
}

type statsRepository interface {
	CountUsers(ctx context.Context, since time.Time) (total, recent int64, err error)
	CountAdverts(ctx context.Context, since time.Time) (total, recent int64, err error)
}

// Service exposes the public stats snapshot.
type Service struct {
	repo statsRepository
	now  func() time.Time
}

// NewService builds a stats service over the count queries.
func NewService(repo statsRepository) (*Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("stats repository is required")
	}
	return &Service{repo: repo, now: time.Now}, nil
}

// Snapshot returns totals plus today's signups and listings. "Today" starts
// at UTC midnight.
func (s *Service) Snapshot(ctx context.Context) (*Overview, error) {
	startOfDay := s.now().UTC().Truncate(24 * time.Hour)

	users, usersToday, err := s.repo.CountUsers(ctx, startOfDay)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count users")
	}
	adverts, advertsToday, err := s.repo.CountAdverts(ctx, startOfDay)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count adverts")
	}

	return &Overview{
		Users:        users,
		UsersToday:   usersToday,
		Adverts:      adverts,
		AdvertsToday: advertsToday,
	}, nil
}
