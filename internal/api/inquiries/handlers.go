// internal/api/inquiries/handlers.go
package inquiries

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/nyaruka/phonenumbers"
	"github.com/rs/zerolog/log"

	"github.com/codr1/plantfloor/internal/api/apiutil"
	"github.com/codr1/plantfloor/internal/api/authz"
	"github.com/codr1/plantfloor/internal/api/htmx"
	"github.com/codr1/plantfloor/internal/config"
	dbgen "github.com/codr1/plantfloor/internal/db/generated"
	"github.com/codr1/plantfloor/internal/email"
	"github.com/codr1/plantfloor/internal/models"
	"github.com/codr1/plantfloor/internal/ratelimit"
)

const (
	inquiryQueryTimeout = 5 * time.Second
	defaultPhoneRegion  = "US"
	defaultListLimit    = 50
	maxListLimit        = 200
)

var (
	queries    inquiryQueries
	sender     email.EmailSender
	salesInbox string
	limiter    *ratelimit.Limiter
	trustProxy bool
)

type inquiryQueries interface {
	CreateInquiry(ctx context.Context, arg dbgen.CreateInquiryParams) (dbgen.Inquiry, error)
	ListInquiries(ctx context.Context, limit int64) ([]dbgen.Inquiry, error)
}

type contactRequest struct {
	Name    string `json:"name" validate:"required,max=120"`
	Email   string `json:"email" validate:"required,email,max=254"`
	Phone   string `json:"phone" validate:"max=40"`
	Company string `json:"company" validate:"max=160"`
	Message string `json:"message" validate:"required,max=5000"`
}

type quoteRequest struct {
	Name        string `json:"name" validate:"required,max=120"`
	Email       string `json:"email" validate:"required,email,max=254"`
	Phone       string `json:"phone" validate:"required,max=40"`
	Company     string `json:"company" validate:"max=160"`
	ProductSlug string `json:"productSlug" validate:"omitempty,slug"`
	Quantity    int64  `json:"quantity" validate:"gte=1,lte=1000000"`
	Message     string `json:"message" validate:"max=5000"`
}

// InitHandlers must be called during server startup before handling requests.
// A nil s disables notification emails.
func InitHandlers(q *dbgen.Queries, cfg *config.Config, s email.EmailSender, l *ratelimit.Limiter) {
	if q != nil {
		queries = q
	}
	if cfg != nil {
		salesInbox = strings.TrimSpace(cfg.Email.SalesInbox)
		trustProxy = cfg.App.TrustProxy
	}
	sender = s
	limiter = l
}

// POST /api/v1/contact
func HandleContact(w http.ResponseWriter, r *http.Request) {
	var req contactRequest
	if err := decodeContact(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	phone, err := normalizePhone(req.Phone)
	if err != nil {
		writeError(w, r, err)
		return
	}

	submit(w, r, dbgen.CreateInquiryParams{
		Kind:    models.InquiryKindContact,
		Name:    req.Name,
		Email:   strings.ToLower(req.Email),
		Phone:   apiutil.ToNullString(phone),
		Company: apiutil.ToNullString(req.Company),
		Message: req.Message,
	}, "Thanks for reaching out. We'll reply within one business day.")
}

// POST /api/v1/quote
func HandleQuote(w http.ResponseWriter, r *http.Request) {
	var req quoteRequest
	if err := decodeQuote(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	phone, err := normalizePhone(req.Phone)
	if err != nil {
		writeError(w, r, err)
		return
	}

	quantity := req.Quantity
	submit(w, r, dbgen.CreateInquiryParams{
		Kind:        models.InquiryKindQuote,
		Name:        req.Name,
		Email:       strings.ToLower(req.Email),
		Phone:       apiutil.ToNullString(phone),
		Company:     apiutil.ToNullString(req.Company),
		ProductSlug: apiutil.ToNullString(req.ProductSlug),
		Quantity:    apiutil.ToNullInt64(&quantity),
		Message:     req.Message,
	}, "Thanks! A sales engineer will send your quote within one business day.")
}

// GET /api/v1/inquiries
func HandleInquiriesList(w http.ResponseWriter, r *http.Request) {
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

	limit := int64(defaultListLimit)
	if raw := strings.TrimSpace(r.URL.Query().Get("limit")); raw != "" {
		parsed, err := apiutil.ParsePositiveInt64Field(raw, "limit")
		if err != nil {
			apiutil.WriteJSONError(w, http.StatusBadRequest, err.Error())
			return
		}
		limit = min(parsed, maxListLimit)
	}

	ctx, cancel := context.WithTimeout(r.Context(), inquiryQueryTimeout)
	defer cancel()

	rows, err := q.ListInquiries(ctx, limit)
	if err != nil {
		logger.Error().Err(err).Msg("Failed to list inquiries")
		apiutil.WriteJSONError(w, http.StatusInternalServerError, "Failed to load inquiries")
		return
	}

	if err := apiutil.WriteJSON(w, http.StatusOK, map[string]any{"inquiries": models.InquiriesFromDB(rows)}); err != nil {
		logger.Error().Err(err).Msg("Failed to write inquiries response")
	}
}

func submit(w http.ResponseWriter, r *http.Request, params dbgen.CreateInquiryParams, thanks string) {
	logger := log.Ctx(r.Context())

	q := loadQueries()
	if q == nil {
		logger.Error().Msg("Database queries not initialized")
		writeError(w, r, apiutil.HandlerError{Status: http.StatusInternalServerError, Message: "Internal Server Error"})
		return
	}

	ip := ratelimit.GetClientIP(r, trustProxy)
	if limiter != nil {
		result := limiter.CheckSubmit(params.Email, ip)
		if !result.Allowed {
			ratelimit.LogRateLimitExceeded(params.Kind, params.Email, ip, result.Reason)
			w.Header().Set("Retry-After", ratelimit.RetryAfterSeconds(result.RetryAfter))
			writeError(w, r, apiutil.HandlerError{Status: http.StatusTooManyRequests, Message: "Too many submissions. Please try again later."})
			return
		}
	}

	ctx, cancel := context.WithTimeout(r.Context(), inquiryQueryTimeout)
	defer cancel()

	params.CreatedAt = time.Now().UTC()
	row, err := q.CreateInquiry(ctx, params)
	if err != nil {
		logger.Error().Err(err).Str("kind", params.Kind).Msg("Failed to store inquiry")
		writeError(w, r, apiutil.HandlerError{Status: http.StatusInternalServerError, Message: "Failed to submit request", Err: err})
		return
	}
	if limiter != nil {
		limiter.RecordSubmit(params.Email, ip)
	}

	inquiry := models.InquiryFromDB(row)
	logger.Info().Int64("inquiry_id", inquiry.ID).Str("kind", inquiry.Kind).Msg("Inquiry received")
	email.NotifyInquiry(r.Context(), sender, salesInbox, inquiry, logger)

	if htmx.IsRequest(r) {
		apiutil.WriteHTMLFeedback(w, http.StatusCreated, thanks)
		return
	}
	if err := apiutil.WriteJSON(w, http.StatusCreated, map[string]any{"inquiry": inquiry}); err != nil {
		logger.Error().Err(err).Msg("Failed to write inquiry response")
	}
}

func decodeContact(r *http.Request, req *contactRequest) error {
	if apiutil.IsJSONRequest(r) {
		if err := apiutil.DecodeJSON(r, req); err != nil {
			return apiutil.HandlerError{Status: http.StatusBadRequest, Message: "Invalid JSON body", Err: err}
		}
	} else {
		if err := r.ParseForm(); err != nil {
			return apiutil.HandlerError{Status: http.StatusBadRequest, Message: "Invalid form body", Err: err}
		}
		req.Name = r.FormValue("name")
		req.Email = r.FormValue("email")
		req.Phone = r.FormValue("phone")
		req.Company = r.FormValue("company")
		req.Message = r.FormValue("message")
	}

	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.TrimSpace(req.Email)
	req.Phone = strings.TrimSpace(req.Phone)
	req.Company = strings.TrimSpace(req.Company)
	req.Message = strings.TrimSpace(req.Message)
	return apiutil.ValidateStruct(req)
}

func decodeQuote(r *http.Request, req *quoteRequest) error {
	if apiutil.IsJSONRequest(r) {
		if err := apiutil.DecodeJSON(r, req); err != nil {
			return apiutil.HandlerError{Status: http.StatusBadRequest, Message: "Invalid JSON body", Err: err}
		}
	} else {
		if err := r.ParseForm(); err != nil {
			return apiutil.HandlerError{Status: http.StatusBadRequest, Message: "Invalid form body", Err: err}
		}
		req.Name = r.FormValue("name")
		req.Email = r.FormValue("email")
		req.Phone = r.FormValue("phone")
		req.Company = r.FormValue("company")
		req.ProductSlug = apiutil.FirstNonEmpty(r.FormValue("product_slug"), r.FormValue("productSlug"))
		req.Message = r.FormValue("message")
		if raw := strings.TrimSpace(r.FormValue("quantity")); raw != "" {
			quantity, err := strconv.ParseInt(raw, 10, 64)
			if err != nil {
				return apiutil.FieldError{Field: "quantity", Reason: "must be a whole number"}
			}
			req.Quantity = quantity
		}
	}

	req.Name = strings.TrimSpace(req.Name)
	req.Email = strings.TrimSpace(req.Email)
	req.Phone = strings.TrimSpace(req.Phone)
	req.Company = strings.TrimSpace(req.Company)
	req.ProductSlug = strings.TrimSpace(req.ProductSlug)
	req.Message = strings.TrimSpace(req.Message)
	return apiutil.ValidateStruct(req)
}

// normalizePhone formats raw as E.164, reading numbers without a country code
// as US numbers. Blank input stays blank.
func normalizePhone(raw string) (string, error) {
	if raw == "" {
		return "", nil
	}
	number, err := phonenumbers.Parse(raw, defaultPhoneRegion)
	if err != nil || !phonenumbers.IsValidNumber(number) {
		return "", apiutil.FieldError{Field: "phone", Reason: "must be a valid phone number"}
	}
	return phonenumbers.Format(number, phonenumbers.E164), nil
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	if !htmx.IsRequest(r) {
		apiutil.WriteHandlerError(w, r, err, "Failed to submit request")
		return
	}

	var handlerErr apiutil.HandlerError
	var fieldErr apiutil.FieldError
	switch {
	case errors.As(err, &handlerErr):
		if handlerErr.Status >= http.StatusInternalServerError {
			log.Ctx(r.Context()).Error().Err(err).Msg(handlerErr.Message)
		}
		apiutil.WriteHTMLFeedback(w, handlerErr.Status, handlerErr.Message)
	case errors.As(err, &fieldErr):
		apiutil.WriteHTMLFeedback(w, http.StatusBadRequest, fmt.Sprintf("Please check the form: %s.", fieldErr.Error()))
	default:
		log.Ctx(r.Context()).Error().Err(err).Msg("Failed to submit request")
		apiutil.WriteHTMLFeedback(w, http.StatusInternalServerError, "Failed to submit request")
	}
}

func loadQueries() inquiryQueries {
	return queries
}
