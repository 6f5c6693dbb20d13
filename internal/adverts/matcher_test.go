package adverts

import (
	"context"
	"testing"

	"github.com/google/uuid"

	"github.com/adee-tech/adee-backend/pkg/db/models"
	pkgerrors "github.com/adee-tech/adee-backend/pkg/errors"
)

func withSpecs(advert *models.Advert, pairs ...string) *models.Advert {
	for i := 0; i+1 < len(pairs); i += 2 {
		advert.Specifications = append(advert.Specifications, models.Specification{
			AdvertID: advert.ID, Key: pairs[i], Value: pairs[i+1],
		})
	}
	return advert
}

func TestSimilarAdvertsExactMatchPriority(t *testing.T) {
	owner := verifiedUser()
	reference := withSpecs(availableAdvert(owner.ID, "cars", "Golf", 3500),
		"color", "red", "fuel", "petrol")
	exact := withSpecs(availableAdvert(owner.ID, "cars", "Polo", 3000),
		"color", "red", "fuel", "petrol")
	partial := withSpecs(availableAdvert(owner.ID, "cars", "Passat", 5000),
		"color", "red", "fuel", "diesel")
	unrelated := withSpecs(availableAdvert(owner.ID, "cars", "Lupo", 1500),
		"color", "blue", "fuel", "diesel")

	repo := newStubAdvertRepo(reference, partial, unrelated, exact)
	f := newAdvertsFixture(t, repo, newStubUserGetter(owner))

	result, err := f.svc.SimilarAdverts(context.Background(), reference.ID, nil)
	if err != nil {
		t.Fatalf("similar adverts: %v", err)
	}
	if len(result) != 3 {
		t.Fatalf("expected 3 similar adverts, got %d", len(result))
	}
	if result[0].ID != exact.ID {
		t.Fatalf("expected exact match first, got %s", result[0].Title)
	}
	if result[1].ID != partial.ID {
		t.Fatalf("expected partial match second, got %s", result[1].Title)
	}
	if result[2].ID != unrelated.ID {
		t.Fatalf("expected zero-overlap advert last, got %s", result[2].Title)
	}
	for _, dto := range result {
		if dto.ID == reference.ID {
			t.Fatal("reference advert leaked into results")
		}
	}
}

func TestSimilarAdvertsZeroOverlapFillsCap(t *testing.T) {
	owner := verifiedUser()
	reference := withSpecs(availableAdvert(owner.ID, "cars", "Golf", 3500),
		"color", "red", "fuel", "petrol")
	exact := withSpecs(availableAdvert(owner.ID, "cars", "Polo", 3000),
		"color", "red", "fuel", "petrol")

	repo := newStubAdvertRepo(reference, exact)
	for i := 0; i < 3; i++ {
		repo.add(withSpecs(availableAdvert(owner.ID, "cars", "Bare", 500), "color", "blue"))
	}
	f := newAdvertsFixture(t, repo, newStubUserGetter(owner))

	result, err := f.svc.SimilarAdverts(context.Background(), reference.ID, nil)
	if err != nil {
		t.Fatalf("similar adverts: %v", err)
	}
	if len(result) != similarAdvertsLimit {
		t.Fatalf("expected %d results, got %d", similarAdvertsLimit, len(result))
	}
	if result[0].ID != exact.ID {
		t.Fatalf("expected exact match first, got %s", result[0].Title)
	}
}

func TestSimilarAdvertsOverlapOrdering(t *testing.T) {
	owner := verifiedUser()
	reference := withSpecs(availableAdvert(owner.ID, "cars", "Golf", 3500),
		"color", "red", "fuel", "petrol", "gearbox", "manual")
	twoOverlap := withSpecs(availableAdvert(owner.ID, "cars", "A", 1),
		"color", "red", "fuel", "petrol", "doors", "5")
	oneOverlap := withSpecs(availableAdvert(owner.ID, "cars", "B", 1),
		"color", "red", "doors", "3")

	// Listed one-overlap first so ranking, not insertion order, must win.
	repo := newStubAdvertRepo(reference, oneOverlap, twoOverlap)
	f := newAdvertsFixture(t, repo, newStubUserGetter(owner))

	result, err := f.svc.SimilarAdverts(context.Background(), reference.ID, nil)
	if err != nil {
		t.Fatalf("similar adverts: %v", err)
	}
	if len(result) != 2 {
		t.Fatalf("expected 2 results, got %d", len(result))
	}
	if result[0].ID != twoOverlap.ID || result[1].ID != oneOverlap.ID {
		t.Fatalf("expected overlap-descending order, got %s then %s", result[0].Title, result[1].Title)
	}
}

func TestSimilarAdvertsCapAndAvailability(t *testing.T) {
	owner := verifiedUser()
	reference := withSpecs(availableAdvert(owner.ID, "cars", "Golf", 3500), "color", "red")
	repo := newStubAdvertRepo(reference)
	for i := 0; i < 6; i++ {
		repo.add(withSpecs(availableAdvert(owner.ID, "cars", "Match", 1), "color", "red"))
	}
	sold := withSpecs(availableAdvert(owner.ID, "cars", "Sold", 1), "color", "red")
	sold.Available = false
	repo.add(sold)

	f := newAdvertsFixture(t, repo, newStubUserGetter(owner))
	result, err := f.svc.SimilarAdverts(context.Background(), reference.ID, nil)
	if err != nil {
		t.Fatalf("similar adverts: %v", err)
	}
	if len(result) != similarAdvertsLimit {
		t.Fatalf("expected cap of %d, got %d", similarAdvertsLimit, len(result))
	}
	for _, dto := range result {
		if dto.ID == sold.ID {
			t.Fatal("unavailable advert returned")
		}
	}
}

func TestSimilarAdvertsStaysInCategory(t *testing.T) {
	owner := verifiedUser()
	reference := withSpecs(availableAdvert(owner.ID, "cars", "Golf", 3500), "color", "red")
	noSpecs := availableAdvert(owner.ID, "cars", "Bare", 900)
	otherCategory := availableAdvert(owner.ID, "bikes", "BMX", 200)

	repo := newStubAdvertRepo(reference, noSpecs, otherCategory)
	f := newAdvertsFixture(t, repo, newStubUserGetter(owner))

	result, err := f.svc.SimilarAdverts(context.Background(), reference.ID, nil)
	if err != nil {
		t.Fatalf("similar adverts: %v", err)
	}
	if len(result) != 1 || result[0].ID != noSpecs.ID {
		t.Fatalf("expected the category's bare advert only, got %v", result)
	}
}

func TestSimilarAdvertsUnknownReference(t *testing.T) {
	owner := verifiedUser()
	f := newAdvertsFixture(t, newStubAdvertRepo(), newStubUserGetter(owner))

	_, err := f.svc.SimilarAdverts(context.Background(), uuid.New(), nil)
	if typed := pkgerrors.As(err); typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected NOT_FOUND, got %v", err)
	}
}

func TestRankCandidatesDuplicateSpecRowsAreASet(t *testing.T) {
	owner := verifiedUser()
	reference := withSpecs(availableAdvert(owner.ID, "cars", "Golf", 1), "color", "red")
	// Duplicate rows must not count as extra overlap.
	doubled := withSpecs(availableAdvert(owner.ID, "cars", "A", 1), "color", "red", "color", "red")
	single := withSpecs(availableAdvert(owner.ID, "cars", "B", 1), "color", "red")

	selected := rankCandidates(reference, []models.Advert{*doubled, *single})
	if len(selected) != 2 {
		t.Fatalf("expected both candidates, got %d", len(selected))
	}
	// Both are exact set matches so insertion order holds.
	if selected[0].ID != doubled.ID || selected[1].ID != single.ID {
		t.Fatal("expected stable insertion order for equal candidates")
	}
}
