package email

import (
	"context"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/codr1/plantfloor/internal/models"
)

type sentMessage struct {
	recipient string
	subject   string
	body      string
	replyTo   string
	ctxErr    error
}

type fakeEmailSender struct {
	calls int32
	sent  chan sentMessage
}

func newFakeEmailSender() *fakeEmailSender {
	return &fakeEmailSender{sent: make(chan sentMessage, 4)}
}

func (f *fakeEmailSender) Send(ctx context.Context, recipient, subject, body string) error {
	return f.SendWithReplyTo(ctx, recipient, subject, body, "")
}

func (f *fakeEmailSender) SendWithReplyTo(ctx context.Context, recipient, subject, body, replyTo string) error {
	atomic.AddInt32(&f.calls, 1)
	// Give a canceled parent a chance to propagate before reporting.
	time.Sleep(20 * time.Millisecond)
	f.sent <- sentMessage{recipient: recipient, subject: subject, body: body, replyTo: replyTo, ctxErr: ctx.Err()}
	return nil
}

func waitForMessage(t *testing.T, ch <-chan sentMessage) sentMessage {
	t.Helper()

	select {
	case msg := <-ch:
		return msg
	case <-time.After(time.Second):
		t.Fatal("expected an email to be sent")
		return sentMessage{}
	}
}

func sampleQuote() models.Inquiry {
	quantity := int64(4)
	return models.Inquiry{
		ID:          12,
		Kind:        models.InquiryKindQuote,
		Name:        "Dana Ortiz",
		Email:       "dana@example.com",
		Phone:       "+14155550100",
		Company:     "Ortiz Packaging",
		ProductSlug: "powerflex-525",
		Quantity:    &quantity,
		Message:     "Need them by Friday.",
		CreatedAt:   time.Date(2026, time.May, 4, 15, 30, 0, 0, time.UTC),
	}
}

func TestBuildInquiryNotification(t *testing.T) {
	message := BuildInquiryNotification(sampleQuote())

	if message.Subject != "Quote request from Dana Ortiz (Ortiz Packaging)" {
		t.Fatalf("subject = %q", message.Subject)
	}
	for _, want := range []string{"Phone: +14155550100", "Product: powerflex-525", "Quantity: 4", "Need them by Friday."} {
		if !strings.Contains(message.Body, want) {
			t.Fatalf("body missing %q:\n%s", want, message.Body)
		}
	}
}

func TestBuildInquiryNotificationOmitsEmptyFields(t *testing.T) {
	message := BuildInquiryNotification(models.Inquiry{
		Kind:    models.InquiryKindContact,
		Name:    "Sam",
		Email:   "sam@example.com",
		Message: "Hello",
	})
	if message.Subject != "Contact message from Sam" {
		t.Fatalf("subject = %q", message.Subject)
	}
	for _, unwanted := range []string{"Phone:", "Company:", "Quantity:"} {
		if strings.Contains(message.Body, unwanted) {
			t.Fatalf("body should not contain %q:\n%s", unwanted, message.Body)
		}
	}
}

func TestBuildDigest(t *testing.T) {
	contact := models.Inquiry{Kind: models.InquiryKindContact, Name: "Sam", Email: "sam@example.com"}
	message := BuildDigest([]models.Inquiry{sampleQuote(), contact}, time.Date(2026, time.May, 5, 7, 0, 0, 0, time.UTC))

	if message.Subject != "Inquiry digest for May 5, 2026: 2 new (1 quote requests)" {
		t.Fatalf("subject = %q", message.Subject)
	}
	if !strings.Contains(message.Body, "#1 Quote request") || !strings.Contains(message.Body, "#2 Contact message") {
		t.Fatalf("unexpected digest body:\n%s", message.Body)
	}
}

func TestNotifyInquiryOutlivesRequestContext(t *testing.T) {
	sender := newFakeEmailSender()

	ctx, cancel := context.WithCancel(context.Background())
	NotifyInquiry(ctx, sender, "sales@example.com", sampleQuote(), nil)
	cancel()

	msg := waitForMessage(t, sender.sent)
	if msg.ctxErr != nil {
		t.Fatalf("expected send context to survive request cancellation, got %v", msg.ctxErr)
	}
	if msg.recipient != "sales@example.com" || msg.replyTo != "dana@example.com" {
		t.Fatalf("unexpected message routing: %+v", msg)
	}
}

func TestNotifyInquiryWithoutInboxIsNoop(t *testing.T) {
	sender := newFakeEmailSender()

	NotifyInquiry(context.Background(), sender, " ", sampleQuote(), nil)
	NotifyInquiry(context.Background(), nil, "sales@example.com", sampleQuote(), nil)

	time.Sleep(50 * time.Millisecond)
	if atomic.LoadInt32(&sender.calls) != 0 {
		t.Fatalf("expected no sends, got %d", atomic.LoadInt32(&sender.calls))
	}
}
