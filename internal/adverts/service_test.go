package adverts

import (
	"context"
	"io"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/adee-tech/adee-backend/pkg/db/models"
	"github.com/adee-tech/adee-backend/pkg/enums"
	pkgerrors "github.com/adee-tech/adee-backend/pkg/errors"
	"github.com/adee-tech/adee-backend/pkg/logger"
)

type stubAdvertRepo struct {
	adverts map[uuid.UUID]*models.Advert
	order   []uuid.UUID

	deleted     []uuid.UUID
	specWrites  map[uuid.UUID][]SpecificationInput
	lastUpdates map[string]any
}

func newStubAdvertRepo(adverts ...*models.Advert) *stubAdvertRepo {
	repo := &stubAdvertRepo{
		adverts:    map[uuid.UUID]*models.Advert{},
		specWrites: map[uuid.UUID][]SpecificationInput{},
	}
	for _, advert := range adverts {
		repo.add(advert)
	}
	return repo
}

func (s *stubAdvertRepo) add(advert *models.Advert) {
	if advert.ID == uuid.Nil {
		advert.ID = uuid.New()
	}
	s.adverts[advert.ID] = advert
	s.order = append(s.order, advert.ID)
}

func (s *stubAdvertRepo) Create(ctx context.Context, advert *models.Advert) (*models.Advert, error) {
	s.add(advert)
	return advert, nil
}

func (s *stubAdvertRepo) CreateSpecifications(ctx context.Context, advertID uuid.UUID, specs []SpecificationInput) error {
	s.specWrites[advertID] = append(s.specWrites[advertID], specs...)
	advert := s.adverts[advertID]
	for _, spec := range specs {
		advert.Specifications = append(advert.Specifications, models.Specification{
			AdvertID: advertID, Key: spec.Key, Value: spec.Value,
		})
	}
	return nil
}

func (s *stubAdvertRepo) ReplaceSpecifications(ctx context.Context, advertID uuid.UUID, specs []SpecificationInput) error {
	s.adverts[advertID].Specifications = nil
	s.specWrites[advertID] = nil
	return s.CreateSpecifications(ctx, advertID, specs)
}

func (s *stubAdvertRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.Advert, error) {
	advert, ok := s.adverts[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *advert
	return &copied, nil
}

func (s *stubAdvertRepo) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]models.Advert, error) {
	var result []models.Advert
	for _, id := range ids {
		if advert, ok := s.adverts[id]; ok {
			result = append(result, *advert)
		}
	}
	return result, nil
}

func (s *stubAdvertRepo) FindAvailableByCategory(ctx context.Context, category string, exclude uuid.UUID) ([]models.Advert, error) {
	var result []models.Advert
	for _, id := range s.order {
		advert := s.adverts[id]
		if advert.Category == category && advert.Available && advert.ID != exclude {
			result = append(result, *advert)
		}
	}
	return result, nil
}

func (s *stubAdvertRepo) List(ctx context.Context, offset, limit int) ([]models.Advert, error) {
	var result []models.Advert
	for _, id := range s.order {
		if advert := s.adverts[id]; advert.Available {
			result = append(result, *advert)
		}
	}
	if offset >= len(result) {
		return []models.Advert{}, nil
	}
	end := offset + limit
	if end > len(result) {
		end = len(result)
	}
	return result[offset:end], nil
}

func (s *stubAdvertRepo) ListByOwner(ctx context.Context, ownerID uuid.UUID) ([]models.Advert, error) {
	var result []models.Advert
	for _, id := range s.order {
		if advert := s.adverts[id]; advert.UserID == ownerID {
			result = append(result, *advert)
		}
	}
	return result, nil
}

func (s *stubAdvertRepo) Search(ctx context.Context, filter searchFilter) ([]models.Advert, error) {
	var result []models.Advert
	for _, id := range s.order {
		advert := s.adverts[id]
		if !advert.Available {
			continue
		}
		if filter.Category != nil && *filter.Category != "" && advert.Category != *filter.Category {
			continue
		}
		if filter.Title != nil && *filter.Title != "" && !contains(advert.Title, *filter.Title) {
			continue
		}
		if filter.MinPrice != nil && advert.Price < *filter.MinPrice {
			continue
		}
		if filter.MaxPrice != nil && advert.Price > *filter.MaxPrice {
			continue
		}
		if !matchesCustomFields(advert, filter.CustomFields) {
			continue
		}
		result = append(result, *advert)
	}
	return result, nil
}

func matchesCustomFields(advert *models.Advert, fields map[string]string) bool {
	for key, value := range fields {
		found := false
		for _, spec := range advert.Specifications {
			if spec.Key == key && spec.Value == value {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

func contains(haystack, needle string) bool {
	for i := 0; i+len(needle) <= len(haystack); i++ {
		if haystack[i:i+len(needle)] == needle {
			return true
		}
	}
	return false
}

func (s *stubAdvertRepo) Update(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	s.lastUpdates = updates
	advert := s.adverts[id]
	if title, ok := updates["title"].(string); ok {
		advert.Title = title
	}
	if price, ok := updates["price"].(float64); ok {
		advert.Price = price
	}
	return nil
}

func (s *stubAdvertRepo) Delete(ctx context.Context, id uuid.UUID) error {
	s.deleted = append(s.deleted, id)
	delete(s.adverts, id)
	return nil
}

type stubUserGetter struct {
	users map[uuid.UUID]*models.User
}

func newStubUserGetter(users ...*models.User) *stubUserGetter {
	getter := &stubUserGetter{users: map[uuid.UUID]*models.User{}}
	for _, user := range users {
		if user.ID == uuid.Nil {
			user.ID = uuid.New()
		}
		getter.users[user.ID] = user
	}
	return getter
}

func (s *stubUserGetter) FindByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	user, ok := s.users[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	copied := *user
	return &copied, nil
}

func (s *stubUserGetter) FindByIDs(ctx context.Context, ids []uuid.UUID) ([]models.User, error) {
	var result []models.User
	for _, id := range ids {
		if user, ok := s.users[id]; ok {
			result = append(result, *user)
		}
	}
	return result, nil
}

type stubRatings struct {
	byOwner map[uuid.UUID]float64
	calls   int
}

func (s *stubRatings) AverageRatingByOwner(ctx context.Context, ownerIDs []uuid.UUID) (map[uuid.UUID]float64, error) {
	s.calls++
	result := map[uuid.UUID]float64{}
	for _, id := range ownerIDs {
		if rating, ok := s.byOwner[id]; ok {
			result[id] = rating
		}
	}
	return result, nil
}

type stubFavorites struct {
	favorited map[uuid.UUID]bool
}

func (s *stubFavorites) FavoritedSet(ctx context.Context, userID uuid.UUID, advertIDs []uuid.UUID) (map[uuid.UUID]bool, error) {
	result := map[uuid.UUID]bool{}
	for _, id := range advertIDs {
		if s.favorited[id] {
			result[id] = true
		}
	}
	return result, nil
}

type advertsFixture struct {
	svc       Service
	repo      *stubAdvertRepo
	users     *stubUserGetter
	ratings   *stubRatings
	favorites *stubFavorites
}

func newAdvertsFixture(t *testing.T, repo *stubAdvertRepo, users *stubUserGetter) *advertsFixture {
	t.Helper()
	ratings := &stubRatings{byOwner: map[uuid.UUID]float64{}}
	favorites := &stubFavorites{favorited: map[uuid.UUID]bool{}}
	svc, err := NewService(ServiceParams{
		AdvertRepo: repo,
		UserRepo:   users,
		Ratings:    ratings,
		Favorites:  favorites,
		Logger:     logger.New(logger.Options{Level: zerolog.ErrorLevel, Output: io.Discard}),
	})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	return &advertsFixture{svc: svc, repo: repo, users: users, ratings: ratings, favorites: favorites}
}

func verifiedUser() *models.User {
	email := "owner@example.com"
	return &models.User{ID: uuid.New(), Email: &email, Role: enums.RoleUser, EmailVerified: true}
}

func availableAdvert(owner uuid.UUID, category, title string, price float64) *models.Advert {
	return &models.Advert{
		ID:        uuid.New(),
		UserID:    owner,
		Category:  category,
		Title:     title,
		Price:     price,
		PhotoURL:  "https://cdn.example.com/p.jpg",
		Available: true,
	}
}

func TestCreateRequiresVerifiedAccount(t *testing.T) {
	owner := verifiedUser()
	owner.EmailVerified = false
	f := newAdvertsFixture(t, newStubAdvertRepo(), newStubUserGetter(owner))

	_, err := f.svc.Create(context.Background(), owner.ID, CreateAdvertRequest{
		Category: "cars", Title: "Golf", Description: "mk4", PhotoURL: "https://cdn.example.com/p.jpg",
	})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeForbidden {
		t.Fatalf("expected FORBIDDEN for unverified account, got %v", err)
	}

	owner.EmailVerified = true
	owner.Banned = true
	_, err = f.svc.Create(context.Background(), owner.ID, CreateAdvertRequest{
		Category: "cars", Title: "Golf", Description: "mk4", PhotoURL: "https://cdn.example.com/p.jpg",
	})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeForbidden {
		t.Fatalf("expected FORBIDDEN for banned account, got %v", err)
	}
}

func TestCreateWritesAdvertAndSpecifications(t *testing.T) {
	owner := verifiedUser()
	repo := newStubAdvertRepo()
	f := newAdvertsFixture(t, repo, newStubUserGetter(owner))

	dto, err := f.svc.Create(context.Background(), owner.ID, CreateAdvertRequest{
		Category:    "cars",
		Title:       "Golf",
		Description: "mk4",
		Price:       3500,
		PhotoURL:    "https://cdn.example.com/p.jpg",
		Specifications: []SpecificationInput{
			{Key: "color", Value: "red"},
			{Key: "fuel", Value: "petrol"},
		},
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	if !dto.Available {
		t.Fatal("new advert must be available")
	}
	if len(dto.Specifications) != 2 {
		t.Fatalf("expected 2 specifications, got %d", len(dto.Specifications))
	}
	if len(repo.specWrites[dto.ID]) != 2 {
		t.Fatal("specifications not written through repo")
	}
}

func TestCreateRejectsMissingPhoto(t *testing.T) {
	owner := verifiedUser()
	f := newAdvertsFixture(t, newStubAdvertRepo(), newStubUserGetter(owner))

	_, err := f.svc.Create(context.Background(), owner.ID, CreateAdvertRequest{
		Category: "cars", Title: "Golf", Description: "mk4",
	})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected VALIDATION, got %v", err)
	}
}

func TestUpdateOwnershipAndSaleImmutability(t *testing.T) {
	owner := verifiedUser()
	stranger := verifiedUser()
	advert := availableAdvert(owner.ID, "cars", "Golf", 3500)
	repo := newStubAdvertRepo(advert)
	f := newAdvertsFixture(t, repo, newStubUserGetter(owner, stranger))
	title := "Golf mk4"

	_, err := f.svc.Update(context.Background(), stranger.ID, advert.ID, UpdateAdvertRequest{Title: &title})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeForbidden {
		t.Fatalf("expected FORBIDDEN for non-owner, got %v", err)
	}

	dto, err := f.svc.Update(context.Background(), owner.ID, advert.ID, UpdateAdvertRequest{Title: &title})
	if err != nil {
		t.Fatalf("owner update: %v", err)
	}
	if dto.Title != title {
		t.Fatalf("expected updated title, got %q", dto.Title)
	}

	buyer := uuid.New()
	advert.SoldTo = &buyer
	_, err = f.svc.Update(context.Background(), owner.ID, advert.ID, UpdateAdvertRequest{Title: &title})
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeForbidden {
		t.Fatalf("expected FORBIDDEN for sold advert, got %v", err)
	}
}

func TestDeleteAuthorizationMatrix(t *testing.T) {
	owner := verifiedUser()
	stranger := verifiedUser()
	advert := availableAdvert(owner.ID, "cars", "Golf", 3500)
	buyer := uuid.New()
	advert.SoldTo = &buyer
	repo := newStubAdvertRepo(advert)
	f := newAdvertsFixture(t, repo, newStubUserGetter(owner, stranger))
	ctx := context.Background()

	err := f.svc.Delete(ctx, stranger.ID, enums.RoleUser, advert.ID)
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeForbidden {
		t.Fatalf("expected FORBIDDEN for stranger, got %v", err)
	}

	// Once sold, even the owner cannot delete.
	err = f.svc.Delete(ctx, owner.ID, enums.RoleUser, advert.ID)
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeForbidden {
		t.Fatalf("expected FORBIDDEN for owner of sold advert, got %v", err)
	}

	// Staff always can.
	if err := f.svc.Delete(ctx, stranger.ID, enums.RoleModerator, advert.ID); err != nil {
		t.Fatalf("moderator delete: %v", err)
	}
	if len(repo.deleted) != 1 || repo.deleted[0] != advert.ID {
		t.Fatalf("expected advert deleted, got %v", repo.deleted)
	}
}

func TestGetByIDEnrichment(t *testing.T) {
	owner := verifiedUser()
	advert := availableAdvert(owner.ID, "cars", "Golf", 3500)
	f := newAdvertsFixture(t, newStubAdvertRepo(advert), newStubUserGetter(owner))
	f.ratings.byOwner[owner.ID] = 4.5
	f.favorites.favorited[advert.ID] = true
	viewer := uuid.New()

	dto, err := f.svc.GetByID(context.Background(), advert.ID, &viewer)
	if err != nil {
		t.Fatalf("get by id: %v", err)
	}
	if dto.OwnerRating != 4.5 {
		t.Fatalf("expected owner rating 4.5, got %f", dto.OwnerRating)
	}
	if !dto.IsFavorited {
		t.Fatal("expected is_favorited for viewer")
	}
	if dto.Owner == nil || dto.Owner.ID != owner.ID {
		t.Fatal("expected owner summary")
	}

	// Anonymous viewers never see favorite flags.
	dto, err = f.svc.GetByID(context.Background(), advert.ID, nil)
	if err != nil {
		t.Fatalf("anonymous get: %v", err)
	}
	if dto.IsFavorited {
		t.Fatal("anonymous viewer must not see is_favorited")
	}
}
