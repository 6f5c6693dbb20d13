package controllers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/adee-tech/adee-backend/api/middleware"
	"github.com/adee-tech/adee-backend/api/responses"
	"github.com/adee-tech/adee-backend/api/validators"
	"github.com/adee-tech/adee-backend/internal/adverts"
	"github.com/adee-tech/adee-backend/pkg/enums"
	pkgerrors "github.com/adee-tech/adee-backend/pkg/errors"
	"github.com/adee-tech/adee-backend/pkg/logger"
	"github.com/adee-tech/adee-backend/pkg/metrics"
	"github.com/adee-tech/adee-backend/pkg/pagination"
)

// reservedSearchParams are query keys with a fixed meaning; every other key
// is treated as a specification filter.
var reservedSearchParams = map[string]bool{
	"category":   true,
	"title":      true,
	"min_price":  true,
	"max_price":  true,
	"min_rating": true,
	"lat":        true,
	"lon":        true,
	"range_km":   true,
	"sort_by":    true,
	"order":      true,
	"offset":     true,
	"limit":      true,
}

// AdvertCreate publishes a listing for the caller.
func AdvertCreate(svc adverts.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		principal := middleware.PrincipalFromContext(ctx)
		if principal == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
			return
		}

		var req adverts.CreateAdvertRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		advert, err := svc.Create(ctx, principal.UserID, req)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, advert)
	}
}

// AdvertUpdate edits the caller's listing.
func AdvertUpdate(svc adverts.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		principal := middleware.PrincipalFromContext(ctx)
		if principal == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
			return
		}

		advertID, err := parseAdvertID(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		var req adverts.UpdateAdvertRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		advert, err := svc.Update(ctx, principal.UserID, advertID, req)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, advert)
	}
}

// AdvertDelete removes a listing, subject to the ownership and sale rules.
func AdvertDelete(svc adverts.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		principal := middleware.PrincipalFromContext(ctx)
		if principal == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
			return
		}

		advertID, err := parseAdvertID(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		if err := svc.Delete(ctx, principal.UserID, principal.Role, advertID); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "deleted"})
	}
}

// AdvertGet returns one enriched listing. The favorite flag reflects the
// caller when credentials were supplied.
func AdvertGet(svc adverts.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		advertID, err := parseAdvertID(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		advert, err := svc.GetByID(ctx, advertID, viewerID(r))
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, advert)
	}
}

// AdvertList returns the newest listings page.
func AdvertList(svc adverts.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		offset, limit, err := parsePagination(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		result, err := svc.List(ctx, offset, limit, viewerID(r))
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

// AdvertListMine returns every listing the caller owns.
func AdvertListMine(svc adverts.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		principal := middleware.PrincipalFromContext(ctx)
		if principal == nil {
			responses.WriteError(ctx, logg, w, pkgerrors.New(pkgerrors.CodeUnauthorized, "missing credentials"))
			return
		}

		result, err := svc.ListByOwner(ctx, principal.UserID, &principal.UserID)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

// AdvertSearch runs the filtered search pipeline. Unreserved query keys are
// matched against advert specifications.
func AdvertSearch(svc adverts.Service, m *metrics.HTTPMetrics, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		params, err := searchParamsFromQuery(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		result, err := svc.Search(ctx, params, viewerID(r))
		if err != nil {
			if m != nil {
				m.IncSearch("error")
			}
			responses.WriteError(ctx, logg, w, err)
			return
		}

		if m != nil {
			outcome := "hit"
			if len(result) == 0 {
				outcome = "miss"
			}
			m.IncSearch(outcome)
		}
		responses.WriteSuccess(w, result)
	}
}

// AdvertSimilar returns listings closest to the given one by specification
// overlap.
func AdvertSimilar(svc adverts.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()

		advertID, err := parseAdvertID(r)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		result, err := svc.SimilarAdverts(ctx, advertID, viewerID(r))
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

func parseAdvertID(r *http.Request) (uuid.UUID, error) {
	advertID, err := uuid.Parse(chi.URLParam(r, "advertId"))
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid advert id")
	}
	return advertID, nil
}

// viewerID returns the authenticated caller's id, nil for anonymous requests.
func viewerID(r *http.Request) *uuid.UUID {
	principal := middleware.PrincipalFromContext(r.Context())
	if principal == nil {
		return nil
	}
	id := principal.UserID
	return &id
}

func parsePagination(r *http.Request) (offset, limit int, err error) {
	offset, err = validators.ParseQueryInt(r, "offset", 0, 0, 1<<30)
	if err != nil {
		return 0, 0, err
	}
	limit, err = validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
	if err != nil {
		return 0, 0, err
	}
	return offset, limit, nil
}

func searchParamsFromQuery(r *http.Request) (adverts.SearchParams, error) {
	var params adverts.SearchParams

	offset, limit, err := parsePagination(r)
	if err != nil {
		return params, err
	}
	params.Offset = offset
	params.Limit = limit

	query := r.URL.Query()
	if category := strings.TrimSpace(query.Get("category")); category != "" {
		params.Category = &category
	}
	if title := strings.TrimSpace(query.Get("title")); title != "" {
		params.Title = &title
	}

	for key, dest := range map[string]**float64{
		"min_price":  &params.MinPrice,
		"max_price":  &params.MaxPrice,
		"min_rating": &params.MinRating,
		"lat":        &params.CenterLat,
		"lon":        &params.CenterLon,
		"range_km":   &params.RangeKM,
	} {
		value, err := validators.ParseQueryFloat(r, key)
		if err != nil {
			return params, err
		}
		*dest = value
	}

	params.SortField = enums.SortField(strings.TrimSpace(query.Get("sort_by")))
	params.SortOrder = enums.ParseSortOrder(query.Get("order"))

	// Any other query key filters on an advert specification.
	custom := map[string]string{}
	for key, values := range query {
		if reservedSearchParams[key] || len(values) == 0 {
			continue
		}
		if value := strings.TrimSpace(values[0]); value != "" {
			custom[key] = value
		}
	}
	if len(custom) > 0 {
		params.CustomFields = custom
	}

	return params, nil
}
