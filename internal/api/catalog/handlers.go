// internal/api/catalog/handlers.go
package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/codr1/plantfloor/internal/api/apiutil"
	"github.com/codr1/plantfloor/internal/api/authz"
	dbgen "github.com/codr1/plantfloor/internal/db/generated"
	"github.com/codr1/plantfloor/internal/models"
)

const (
	catalogQueryTimeout = 5 * time.Second
	slugParam           = "slug"
)

var queries catalogQueries

type catalogQueries interface {
	CountCategoryProducts(ctx context.Context, slug string) (int64, error)
	DeleteCategory(ctx context.Context, slug string) (int64, error)
	DeleteProduct(ctx context.Context, slug string) (int64, error)
	GetCategoryBySlug(ctx context.Context, slug string) (dbgen.Category, error)
	GetProductBySlug(ctx context.Context, slug string) (dbgen.GetProductBySlugRow, error)
	ListCategories(ctx context.Context) ([]dbgen.Category, error)
	ListProducts(ctx context.Context, arg dbgen.ListProductsParams) ([]dbgen.ListProductsRow, error)
	UpsertCategory(ctx context.Context, arg dbgen.UpsertCategoryParams) (dbgen.Category, error)
	UpsertProduct(ctx context.Context, arg dbgen.UpsertProductParams) (dbgen.Product, error)
}

type categoryRequest struct {
	Slug        string `json:"slug" validate:"required,slug"`
	Name        string `json:"name" validate:"required,max=120"`
	Description string `json:"description" validate:"max=2000"`
	SortOrder   int64  `json:"sortOrder" validate:"gte=0,lte=10000"`
}

type productRequest struct {
	Slug         string `json:"slug" validate:"required,slug"`
	CategorySlug string `json:"categorySlug" validate:"required,slug"`
	Name         string `json:"name" validate:"required,max=160"`
	Manufacturer string `json:"manufacturer" validate:"max=120"`
	Summary      string `json:"summary" validate:"max=500"`
	Description  string `json:"description" validate:"max=20000"`
	ImageURL     string `json:"imageUrl" validate:"omitempty,max=500"`
	IsFeatured   bool   `json:"isFeatured"`
}

// InitHandlers must be called during server startup before handling requests.
func InitHandlers(q *dbgen.Queries) {
	if q == nil {
		return
	}
	queries = q
}

// GET /api/v1/categories
func HandleCategoriesList(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())

	q := loadQueries()
	if q == nil {
		logger.Error().Msg("Database queries not initialized")
		apiutil.WriteJSONError(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), catalogQueryTimeout)
	defer cancel()

	categories, err := ListCategories(ctx)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to list categories")
		apiutil.WriteJSONError(w, http.StatusInternalServerError, "Failed to load categories")
		return
	}

	if err := apiutil.WriteJSON(w, http.StatusOK, map[string]any{"categories": categories}); err != nil {
		logger.Error().Err(err).Msg("Failed to write categories response")
	}
}

// POST /api/v1/categories
func HandleCategorySave(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())

	if !apiutil.RequireRole(w, r, authz.RoleAdmin, authz.RoleEditor) {
		return
	}
	q := loadQueries()
	if q == nil {
		logger.Error().Msg("Database queries not initialized")
		apiutil.WriteJSONError(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}

	var req categoryRequest
	if err := decodeRequest(r, &req); err != nil {
		apiutil.WriteHandlerError(w, r, err, "Invalid request")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), catalogQueryTimeout)
	defer cancel()

	now := time.Now().UTC()
	saved, err := q.UpsertCategory(ctx, dbgen.UpsertCategoryParams{
		Slug:        req.Slug,
		Name:        req.Name,
		Description: req.Description,
		SortOrder:   req.SortOrder,
		CreatedAt:   now,
		UpdatedAt:   now,
	})
	if err != nil {
		logger.Error().Err(err).Str("slug", req.Slug).Msg("Failed to save category")
		apiutil.WriteJSONError(w, http.StatusInternalServerError, "Failed to save category")
		return
	}

	logger.Info().Str("slug", saved.Slug).Msg("Category saved")
	if err := apiutil.WriteJSON(w, http.StatusOK, map[string]any{"category": models.CategoryFromDB(saved)}); err != nil {
		logger.Error().Err(err).Msg("Failed to write category response")
	}
}

// DELETE /api/v1/categories/{slug}
func HandleCategoryDelete(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())

	if !apiutil.RequireRole(w, r, authz.RoleAdmin, authz.RoleEditor) {
		return
	}
	q := loadQueries()
	if q == nil {
		logger.Error().Msg("Database queries not initialized")
		apiutil.WriteJSONError(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}

	slug, err := slugFromRequest(r)
	if err != nil {
		apiutil.WriteJSONError(w, http.StatusBadRequest, err.Error())
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), catalogQueryTimeout)
	defer cancel()

	count, err := q.CountCategoryProducts(ctx, slug)
	if err != nil {
		logger.Error().Err(err).Str("slug", slug).Msg("Failed to count category products")
		apiutil.WriteJSONError(w, http.StatusInternalServerError, "Failed to delete category")
		return
	}
	if count > 0 {
		apiutil.WriteJSONError(w, http.StatusConflict, fmt.Sprintf("Category still has %d products", count))
		return
	}

	deleted, err := q.DeleteCategory(ctx, slug)
	if err != nil {
		if apiutil.IsSQLiteForeignKeyViolation(err) {
			apiutil.WriteJSONError(w, http.StatusConflict, "Category still has products")
			return
		}
		logger.Error().Err(err).Str("slug", slug).Msg("Failed to delete category")
		apiutil.WriteJSONError(w, http.StatusInternalServerError, "Failed to delete category")
		return
	}
	if deleted == 0 {
		apiutil.WriteJSONError(w, http.StatusNotFound, "Category not found")
		return
	}

	logger.Info().Str("slug", slug).Msg("Category deleted")
	w.WriteHeader(http.StatusNoContent)
}

// GET /api/v1/products?category=slug&featured=true
func HandleProductsList(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())

	q := loadQueries()
	if q == nil {
		logger.Error().Msg("Database queries not initialized")
		apiutil.WriteJSONError(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}

	category := strings.TrimSpace(r.URL.Query().Get("category"))
	if category != "" && !models.IsSlug(category) {
		apiutil.WriteJSONError(w, http.StatusBadRequest, "category must be a valid slug")
		return
	}
	featured, err := apiutil.ParseBool(r.URL.Query().Get("featured"))
	if err != nil {
		apiutil.WriteJSONError(w, http.StatusBadRequest, "featured must be true or false")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), catalogQueryTimeout)
	defer cancel()

	products, err := ListProducts(ctx, category, featured)
	if err != nil {
		logger.Error().Err(err).Str("category", category).Msg("Failed to list products")
		apiutil.WriteJSONError(w, http.StatusInternalServerError, "Failed to load products")
		return
	}

	if err := apiutil.WriteJSON(w, http.StatusOK, map[string]any{"products": products}); err != nil {
		logger.Error().Err(err).Msg("Failed to write products response")
	}
}

// GET /api/v1/products/{slug}
func HandleProductDetail(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())

	if loadQueries() == nil {
		logger.Error().Msg("Database queries not initialized")
		apiutil.WriteJSONError(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}

	slug, err := slugFromRequest(r)
	if err != nil {
		apiutil.WriteJSONError(w, http.StatusBadRequest, err.Error())
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), catalogQueryTimeout)
	defer cancel()

	product, err := GetProduct(ctx, slug)
	if err != nil {
		logger.Error().Err(err).Str("slug", slug).Msg("Failed to load product")
		apiutil.WriteJSONError(w, http.StatusInternalServerError, "Failed to load product")
		return
	}
	if product == nil {
		apiutil.WriteJSONError(w, http.StatusNotFound, "Product not found")
		return
	}

	if err := apiutil.WriteJSON(w, http.StatusOK, map[string]any{"product": product}); err != nil {
		logger.Error().Err(err).Msg("Failed to write product response")
	}
}

// POST /api/v1/products
func HandleProductSave(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())

	if !apiutil.RequireRole(w, r, authz.RoleAdmin, authz.RoleEditor) {
		return
	}
	q := loadQueries()
	if q == nil {
		logger.Error().Msg("Database queries not initialized")
		apiutil.WriteJSONError(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}

	var req productRequest
	if err := decodeRequest(r, &req); err != nil {
		apiutil.WriteHandlerError(w, r, err, "Invalid request")
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), catalogQueryTimeout)
	defer cancel()

	category, err := q.GetCategoryBySlug(ctx, req.CategorySlug)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			apiutil.WriteJSONError(w, http.StatusBadRequest, "categorySlug does not match a category")
			return
		}
		logger.Error().Err(err).Str("category", req.CategorySlug).Msg("Failed to load category")
		apiutil.WriteJSONError(w, http.StatusInternalServerError, "Failed to save product")
		return
	}

	now := time.Now().UTC()
	saved, err := q.UpsertProduct(ctx, dbgen.UpsertProductParams{
		Slug:         req.Slug,
		CategoryID:   category.ID,
		Name:         req.Name,
		Manufacturer: req.Manufacturer,
		Summary:      req.Summary,
		Description:  req.Description,
		ImageUrl:     req.ImageURL,
		IsFeatured:   req.IsFeatured,
		CreatedAt:    now,
		UpdatedAt:    now,
	})
	if err != nil {
		if apiutil.IsSQLiteForeignKeyViolation(err) {
			apiutil.WriteJSONError(w, http.StatusBadRequest, "categorySlug does not match a category")
			return
		}
		logger.Error().Err(err).Str("slug", req.Slug).Msg("Failed to save product")
		apiutil.WriteJSONError(w, http.StatusInternalServerError, "Failed to save product")
		return
	}

	logger.Info().Str("slug", saved.Slug).Str("category", category.Slug).Msg("Product saved")
	if err := apiutil.WriteJSON(w, http.StatusOK, map[string]any{"product": models.ProductWithCategory(saved, category)}); err != nil {
		logger.Error().Err(err).Msg("Failed to write product response")
	}
}

// DELETE /api/v1/products/{slug}
func HandleProductDelete(w http.ResponseWriter, r *http.Request) {
	logger := log.Ctx(r.Context())

	if !apiutil.RequireRole(w, r, authz.RoleAdmin, authz.RoleEditor) {
		return
	}
	q := loadQueries()
	if q == nil {
		logger.Error().Msg("Database queries not initialized")
		apiutil.WriteJSONError(w, http.StatusInternalServerError, "Internal Server Error")
		return
	}

	slug, err := slugFromRequest(r)
	if err != nil {
		apiutil.WriteJSONError(w, http.StatusBadRequest, err.Error())
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), catalogQueryTimeout)
	defer cancel()

	deleted, err := q.DeleteProduct(ctx, slug)
	if err != nil {
		logger.Error().Err(err).Str("slug", slug).Msg("Failed to delete product")
		apiutil.WriteJSONError(w, http.StatusInternalServerError, "Failed to delete product")
		return
	}
	if deleted == 0 {
		apiutil.WriteJSONError(w, http.StatusNotFound, "Product not found")
		return
	}

	logger.Info().Str("slug", slug).Msg("Product deleted")
	w.WriteHeader(http.StatusNoContent)
}

// ListCategories returns all categories in display order.
func ListCategories(ctx context.Context) ([]models.Category, error) {
	q := loadQueries()
	if q == nil {
		return nil, errors.New("catalog queries not initialized")
	}
	rows, err := q.ListCategories(ctx)
	if err != nil {
		return nil, err
	}
	return models.CategoriesFromDB(rows), nil
}

// ListProducts returns products, optionally limited to one category or to
// featured products.
func ListProducts(ctx context.Context, categorySlug string, featuredOnly bool) ([]models.Product, error) {
	q := loadQueries()
	if q == nil {
		return nil, errors.New("catalog queries not initialized")
	}
	rows, err := q.ListProducts(ctx, dbgen.ListProductsParams{
		CategorySlug: apiutil.ToNullString(categorySlug),
		FeaturedOnly: featuredOnly,
	})
	if err != nil {
		return nil, err
	}
	return models.ProductsFromDB(rows), nil
}

// GetProduct returns nil, nil when no product has the slug.
func GetProduct(ctx context.Context, slug string) (*models.Product, error) {
	q := loadQueries()
	if q == nil {
		return nil, errors.New("catalog queries not initialized")
	}
	row, err := q.GetProductBySlug(ctx, slug)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	product := models.ProductFromDB(row)
	return &product, nil
}

func slugFromRequest(r *http.Request) (string, error) {
	slug := strings.TrimSpace(r.PathValue(slugParam))
	if !models.IsSlug(slug) {
		return "", fmt.Errorf("invalid slug")
	}
	return slug, nil
}

func decodeRequest(r *http.Request, dst any) error {
	if err := apiutil.DecodeJSON(r, dst); err != nil {
		return apiutil.HandlerError{Status: http.StatusBadRequest, Message: "Invalid JSON body", Err: err}
	}
	return apiutil.ValidateStruct(dst)
}

func loadQueries() catalogQueries {
	return queries
}
