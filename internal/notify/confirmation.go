package notify

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/brightsmile/clinic-scheduling/internal/booking"
	"github.com/brightsmile/clinic-scheduling/pkg/logging"
)

// BookingMailer builds and sends the post-commit confirmation email. It
// implements booking.Notifier.
type BookingMailer struct {
	sender   EmailSender
	baseURL  string
	tokenTTL time.Duration
	logger   *logging.Logger
}

func NewBookingMailer(sender EmailSender, baseURL string, tokenTTL time.Duration, logger *logging.Logger) *BookingMailer {
	if logger == nil {
		logger = logging.Default()
	}
	return &BookingMailer{
		sender:   sender,
		baseURL:  strings.TrimRight(baseURL, "/"),
		tokenTTL: tokenTTL,
		logger:   logger,
	}
}

func (m *BookingMailer) SendConfirmation(ctx context.Context, detail *booking.AppointmentDetail, confirmToken string) error {
	if detail.Patient.Email == "" {
		return nil
	}

	msg := EmailMessage{
		To:      detail.Patient.Email,
		ToName:  detail.Patient.Name,
		Subject: fmt.Sprintf("Appointment request received for %s", detail.Slot.StartsAt.Format("Monday, January 2")),
		Body:    m.confirmationBody(detail, confirmToken),
	}

	return m.sender.Send(ctx, msg)
}

func (m *BookingMailer) confirmationBody(detail *booking.AppointmentDetail, confirmToken string) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Hi %s,\n\n", detail.Patient.Name)
	fmt.Fprintf(&b, "We received your appointment request with %s.\n\n", detail.DentistName)
	fmt.Fprintf(&b, "Service:  %s (%d minutes)\n", detail.ServiceType.Name, detail.ServiceType.DurationMinutes)
	fmt.Fprintf(&b, "When:     %s, %s - %s\n\n",
		detail.Slot.StartsAt.Format("Monday, January 2 2006"),
		detail.Slot.StartsAt.Format("15:04"),
		detail.Slot.EndsAt.Format("15:04"),
	)

	if confirmToken != "" {
		fmt.Fprintf(&b, "Please confirm your appointment using this link:\n%s/appointments/confirm?token=%s\n\n", m.baseURL, confirmToken)
		fmt.Fprintf(&b, "The link is valid once and expires after %s.\n\n", ttlPhrase(m.tokenTTL))
	}

	b.WriteString("If you did not request this appointment you can ignore this email.\n")

	return b.String()
}

// ttlPhrase renders the token lifetime for the email body: whole hours read
// naturally, anything else falls back to Duration formatting.
func ttlPhrase(ttl time.Duration) string {
	if ttl >= time.Hour && ttl%time.Hour == 0 {
		return fmt.Sprintf("%d hours", int(ttl/time.Hour))
	}
	return ttl.String()
}
