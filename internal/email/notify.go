package email

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/codr1/plantfloor/internal/models"
)

const notificationEmailTimeout = 10 * time.Second

// NotifyInquiry emails the sales inbox about inquiry in the background. It is a
// no-op when sender or inbox is unset.
func NotifyInquiry(ctx context.Context, sender EmailSender, inbox string, inquiry models.Inquiry, logger *zerolog.Logger) {
	inbox = strings.TrimSpace(inbox)
	if sender == nil || inbox == "" {
		return
	}
	message := BuildInquiryNotification(inquiry)

	go func() {
		sendCtx, cancel := newEmailContext(ctx, notificationEmailTimeout)
		defer cancel()
		if err := sender.SendWithReplyTo(sendCtx, inbox, message.Subject, message.Body, inquiry.Email); err != nil && logger != nil {
			logger.Error().Err(err).Int64("inquiry_id", inquiry.ID).Msg("Failed to send inquiry notification")
		}
	}()
}
