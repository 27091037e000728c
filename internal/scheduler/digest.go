package scheduler

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/go-co-op/gocron/v2"
	"github.com/rs/zerolog/log"

	dbgen "github.com/codr1/plantfloor/internal/db/generated"
	"github.com/codr1/plantfloor/internal/email"
	"github.com/codr1/plantfloor/internal/models"
)

const (
	digestJobName    = "inquiry_digest"
	digestJobTimeout = 2 * time.Minute
)

type digestQueries interface {
	ListUndigestedInquiries(ctx context.Context) ([]dbgen.Inquiry, error)
	MarkInquiriesDigested(ctx context.Context, arg dbgen.MarkInquiriesDigestedParams) (int64, error)
}

// RegisterDigestJob schedules the inquiry digest on cronExpr.
func RegisterDigestJob(q digestQueries, sender email.EmailSender, inbox, cronExpr string) error {
	if q == nil {
		return fmt.Errorf("digest job requires database")
	}

	jobLogger := log.With().
		Str("component", "inquiry_digest_job").
		Str("job_name", digestJobName).
		Str("cron", cronExpr).
		Logger()

	_, err := AddJob(digestJobName, cronExpr, func() {
		ctx, cancel := context.WithTimeout(context.Background(), digestJobTimeout)
		defer cancel()
		ctx = jobLogger.WithContext(ctx)

		sent, err := RunDigest(ctx, q, sender, inbox, time.Now().UTC())
		if err != nil {
			jobLogger.Error().Err(err).Msg("Inquiry digest failed")
			return
		}
		jobLogger.Info().Int("inquiries", sent).Msg("Inquiry digest completed")
	}, gocron.WithSingletonMode(gocron.LimitModeReschedule))
	if err != nil {
		return fmt.Errorf("add inquiry digest job: %w", err)
	}

	jobLogger.Info().Msg("Inquiry digest job registered")
	return nil
}

// RunDigest emails every undigested inquiry to inbox in one message and marks
// them digested. Inquiries stay pending when the send fails so the next run
// retries them. It returns the number of inquiries included.
func RunDigest(ctx context.Context, q digestQueries, sender email.EmailSender, inbox string, now time.Time) (int, error) {
	logger := log.Ctx(ctx)

	if sender == nil || strings.TrimSpace(inbox) == "" {
		logger.Debug().Msg("Inquiry digest skipped: email not configured")
		return 0, nil
	}

	rows, err := q.ListUndigestedInquiries(ctx)
	if err != nil {
		return 0, fmt.Errorf("list undigested inquiries: %w", err)
	}
	if len(rows) == 0 {
		return 0, nil
	}

	inquiries := models.InquiriesFromDB(rows)
	message := email.BuildDigest(inquiries, now)
	if err := sender.Send(ctx, inbox, message.Subject, message.Body); err != nil {
		return 0, fmt.Errorf("send inquiry digest: %w", err)
	}

	var maxID int64
	for _, inquiry := range inquiries {
		if inquiry.ID > maxID {
			maxID = inquiry.ID
		}
	}
	marked, err := q.MarkInquiriesDigested(ctx, dbgen.MarkInquiriesDigestedParams{
		DigestedAt: sql.NullTime{Time: now, Valid: true},
		ID:         maxID,
	})
	if err != nil {
		return len(inquiries), fmt.Errorf("mark inquiries digested: %w", err)
	}
	if marked != int64(len(inquiries)) {
		logger.Warn().Int64("marked", marked).Int("sent", len(inquiries)).Msg("Digest marked a different number of inquiries than it sent")
	}
	return len(inquiries), nil
}
