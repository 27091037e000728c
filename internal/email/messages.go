package email

import (
	"fmt"
	"strings"
	"time"

	"github.com/codr1/plantfloor/internal/models"
)

type Message struct {
	Subject string
	Body    string
}

func kindLabel(kind string) string {
	if kind == models.InquiryKindQuote {
		return "Quote request"
	}
	return "Contact message"
}

// BuildInquiryNotification formats the sales-inbox email for one inquiry.
func BuildInquiryNotification(inquiry models.Inquiry) Message {
	subject := fmt.Sprintf("%s from %s", kindLabel(inquiry.Kind), inquiry.Name)
	if inquiry.Company != "" {
		subject += " (" + inquiry.Company + ")"
	}

	var b strings.Builder
	writeInquiry(&b, inquiry)
	b.WriteString("\nReply to this email to respond to the customer directly.\n")
	return Message{Subject: subject, Body: b.String()}
}

// BuildDigest summarizes inquiries received since the previous digest.
func BuildDigest(inquiries []models.Inquiry, now time.Time) Message {
	quotes := 0
	for _, inquiry := range inquiries {
		if inquiry.Kind == models.InquiryKindQuote {
			quotes++
		}
	}

	subject := fmt.Sprintf("Inquiry digest for %s: %d new (%d quote requests)", now.Format("Jan 2, 2006"), len(inquiries), quotes)

	var b strings.Builder
	fmt.Fprintf(&b, "%d inquiries arrived since the last digest.\n", len(inquiries))
	for i, inquiry := range inquiries {
		fmt.Fprintf(&b, "\n#%d %s\n", i+1, kindLabel(inquiry.Kind))
		writeInquiry(&b, inquiry)
	}
	return Message{Subject: subject, Body: b.String()}
}

func writeInquiry(b *strings.Builder, inquiry models.Inquiry) {
	fmt.Fprintf(b, "Received: %s\n", inquiry.CreatedAt.UTC().Format(time.RFC1123))
	fmt.Fprintf(b, "Name: %s\n", inquiry.Name)
	fmt.Fprintf(b, "Email: %s\n", inquiry.Email)
	if inquiry.Phone != "" {
		fmt.Fprintf(b, "Phone: %s\n", inquiry.Phone)
	}
	if inquiry.Company != "" {
		fmt.Fprintf(b, "Company: %s\n", inquiry.Company)
	}
	if inquiry.ProductSlug != "" {
		fmt.Fprintf(b, "Product: %s\n", inquiry.ProductSlug)
	}
	if inquiry.Quantity != nil {
		fmt.Fprintf(b, "Quantity: %d\n", *inquiry.Quantity)
	}
	if message := strings.TrimSpace(inquiry.Message); message != "" {
		fmt.Fprintf(b, "Message:\n%s\n", message)
	}
}
