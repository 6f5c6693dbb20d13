package favorites

import (
	"context"
	"errors"
	"testing"

	"github.com/google/uuid"

	"github.com/adee-tech/adee-backend/internal/adverts"
	"github.com/adee-tech/adee-backend/pkg/db/models"
	pkgerrors "github.com/adee-tech/adee-backend/pkg/errors"
)

type pairKey struct {
	user   uuid.UUID
	advert uuid.UUID
}

type stubFavoriteRepo struct {
	pairs map[pairKey]bool
	order []uuid.UUID
}

func newStubFavoriteRepo() *stubFavoriteRepo {
	return &stubFavoriteRepo{pairs: map[pairKey]bool{}}
}

func (s *stubFavoriteRepo) Create(ctx context.Context, userID, advertID uuid.UUID) (*models.Favorite, error) {
	key := pairKey{user: userID, advert: advertID}
	if s.pairs[key] {
		return nil, errors.New(`duplicate key value violates unique constraint "favorites_user_advert_key"`)
	}
	s.pairs[key] = true
	s.order = append(s.order, advertID)
	return &models.Favorite{UserID: userID, AdvertID: advertID}, nil
}

func (s *stubFavoriteRepo) Delete(ctx context.Context, userID, advertID uuid.UUID) (bool, error) {
	key := pairKey{user: userID, advert: advertID}
	if !s.pairs[key] {
		return false, nil
	}
	delete(s.pairs, key)
	return true, nil
}

func (s *stubFavoriteRepo) AdvertIDsForUser(ctx context.Context, userID uuid.UUID) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	for _, advertID := range s.order {
		if s.pairs[pairKey{user: userID, advert: advertID}] {
			ids = append(ids, advertID)
		}
	}
	return ids, nil
}

type stubAdvertReader struct {
	adverts    map[uuid.UUID]adverts.AdvertDTO
	getCalls   int
	batchCalls int
}

func (s *stubAdvertReader) GetByID(ctx context.Context, advertID uuid.UUID, viewer *uuid.UUID) (*adverts.AdvertDTO, error) {
	s.getCalls++
	dto, ok := s.adverts[advertID]
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "advert not found")
	}
	return &dto, nil
}

func (s *stubAdvertReader) GetByIDs(ctx context.Context, advertIDs []uuid.UUID, viewer *uuid.UUID) ([]adverts.AdvertDTO, error) {
	s.batchCalls++
	result := make([]adverts.AdvertDTO, 0, len(advertIDs))
	for _, id := range advertIDs {
		if dto, ok := s.adverts[id]; ok {
			result = append(result, dto)
		}
	}
	return result, nil
}

func newFavoritesFixture(t *testing.T, known ...adverts.AdvertDTO) (Service, *stubFavoriteRepo, *stubAdvertReader) {
	t.Helper()
	repo := newStubFavoriteRepo()
	reader := &stubAdvertReader{adverts: map[uuid.UUID]adverts.AdvertDTO{}}
	for _, dto := range known {
		reader.adverts[dto.ID] = dto
	}
	svc, err := NewService(ServiceParams{FavoriteRepo: repo, Adverts: reader})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return svc, repo, reader
}

func TestAddAndRemoveFavorite(t *testing.T) {
	advert := adverts.AdvertDTO{ID: uuid.New(), Title: "Golf"}
	svc, repo, _ := newFavoritesFixture(t, advert)
	ctx := context.Background()
	user := uuid.New()

	if err := svc.Add(ctx, user, advert.ID); err != nil {
		t.Fatalf("add: %v", err)
	}
	if !repo.pairs[pairKey{user: user, advert: advert.ID}] {
		t.Fatal("favorite not stored")
	}

	// Doing it twice is a conflict, not a silent no-op.
	err := svc.Add(ctx, user, advert.ID)
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeConflict {
		t.Fatalf("expected CONFLICT, got %v", err)
	}

	if err := svc.Remove(ctx, user, advert.ID); err != nil {
		t.Fatalf("remove: %v", err)
	}
	err = svc.Remove(ctx, user, advert.ID)
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected NOT_FOUND, got %v", err)
	}
}

func TestAddUnknownAdvert(t *testing.T) {
	svc, _, _ := newFavoritesFixture(t)

	err := svc.Add(context.Background(), uuid.New(), uuid.New())
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected NOT_FOUND, got %v", err)
	}
}

func TestListSkipsDeletedAdverts(t *testing.T) {
	kept := adverts.AdvertDTO{ID: uuid.New(), Title: "Golf"}
	doomed := adverts.AdvertDTO{ID: uuid.New(), Title: "Passat"}
	svc, _, reader := newFavoritesFixture(t, kept, doomed)
	ctx := context.Background()
	user := uuid.New()

	if err := svc.Add(ctx, user, kept.ID); err != nil {
		t.Fatalf("add kept: %v", err)
	}
	if err := svc.Add(ctx, user, doomed.ID); err != nil {
		t.Fatalf("add doomed: %v", err)
	}

	delete(reader.adverts, doomed.ID)

	result, err := svc.List(ctx, user)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(result) != 1 || result[0].ID != kept.ID {
		t.Fatalf("expected only the surviving advert, got %d results", len(result))
	}
}

func TestListLoadsAdvertsInOneBatch(t *testing.T) {
	svc, _, reader := newFavoritesFixture(t)
	ctx := context.Background()
	user := uuid.New()

	for i := 0; i < 5; i++ {
		dto := adverts.AdvertDTO{ID: uuid.New(), Title: "Advert"}
		reader.adverts[dto.ID] = dto
		if err := svc.Add(ctx, user, dto.ID); err != nil {
			t.Fatalf("add: %v", err)
		}
	}
	reader.getCalls = 0

	result, err := svc.List(ctx, user)
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(result) != 5 {
		t.Fatalf("expected 5 adverts, got %d", len(result))
	}
	if reader.batchCalls != 1 || reader.getCalls != 0 {
		t.Fatalf("expected a single batch load, got %d batch and %d single calls", reader.batchCalls, reader.getCalls)
	}
}
