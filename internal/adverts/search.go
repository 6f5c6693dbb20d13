package adverts

import (
	"context"
	"sort"

	"github.com/google/uuid"

	"github.com/adee-tech/adee-backend/pkg/db/models"
	"github.com/adee-tech/adee-backend/pkg/enums"
	pkgerrors "github.com/adee-tech/adee-backend/pkg/errors"
	"github.com/adee-tech/adee-backend/pkg/pagination"
)

// Search runs the browse pipeline: the storage layer answers availability,
// category, title, price, specification, and geo filters; owner ratings,
// the min_rating cut, sorting, and pagination are applied in memory on the
// filtered set.
func (s *service) Search(ctx context.Context, params SearchParams, viewer *uuid.UUID) ([]AdvertDTO, error) {
	rows, err := s.adverts.Search(ctx, searchFilter{
		Category:     params.Category,
		Title:        params.Title,
		MinPrice:     params.MinPrice,
		MaxPrice:     params.MaxPrice,
		CustomFields: params.CustomFields,
		CenterLat:    params.CenterLat,
		CenterLon:    params.CenterLon,
		RangeKM:      params.RangeKM,
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "search adverts")
	}

	dtos, err := s.enrich.enrich(ctx, rows, viewer)
	if err != nil {
		return nil, err
	}

	if params.MinRating != nil {
		filtered := dtos[:0]
		for _, dto := range dtos {
			if dto.OwnerRating >= *params.MinRating {
				filtered = append(filtered, dto)
			}
		}
		dtos = filtered
	}

	sortAdverts(dtos, params.SortField, params.SortOrder)

	return pagination.Slice(dtos, pagination.Params{Limit: params.Limit, Offset: params.Offset}), nil
}

// sortAdverts orders the page in place. An unrecognised field leaves the
// storage order untouched; the sort is stable so equal keys keep it too.
func sortAdverts(dtos []AdvertDTO, field enums.SortField, order enums.SortOrder) {
	if !field.IsValid() {
		return
	}
	asc := order == enums.SortOrderAsc

	less := func(i, j int) bool { return false }
	switch field {
	case enums.SortFieldRating:
		less = func(i, j int) bool { return dtos[i].OwnerRating < dtos[j].OwnerRating }
	case enums.SortFieldPrice:
		less = func(i, j int) bool { return dtos[i].Price < dtos[j].Price }
	case enums.SortFieldTitle:
		less = func(i, j int) bool { return dtos[i].Title < dtos[j].Title }
	}

	sort.SliceStable(dtos, func(i, j int) bool {
		if asc {
			return less(i, j)
		}
		return less(j, i)
	})
}

// List returns the newest available adverts, enriched the same way the
// search pipeline enriches its results.
func (s *service) List(ctx context.Context, offset, limit int, viewer *uuid.UUID) ([]AdvertDTO, error) {
	params := pagination.Normalize(pagination.Params{Limit: limit, Offset: offset})
	rows, err := s.adverts.List(ctx, params.Offset, params.Limit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list adverts")
	}
	return s.enrich.enrich(ctx, rows, viewer)
}

func (s *service) enrichOne(ctx context.Context, row *models.Advert, viewer *uuid.UUID) (*AdvertDTO, error) {
	dtos, err := s.enrich.enrich(ctx, []models.Advert{*row}, viewer)
	if err != nil {
		return nil, err
	}
	return &dtos[0], nil
}
