package mailer

import (
	"context"

	"github.com/metinatakli/cinema-seat-booking/internal/domain"
)

const ReconciliationTemplate = "reconciliation_required.tmpl"

// OpsNotifier mails operators about paid orders that need manual follow-up.
type OpsNotifier struct {
	mailer    Mailer
	recipient string
}

func NewOpsNotifier(mailer Mailer, recipient string) *OpsNotifier {
	return &OpsNotifier{mailer: mailer, recipient: recipient}
}

func (n *OpsNotifier) NotifyReconciliation(ctx context.Context, rec domain.Reconciliation) error {
	if n.recipient == "" {
		return nil
	}

	data := map[string]any{
		"OrderID":    rec.OrderID,
		"PaymentID":  rec.PaymentID,
		"UserID":     rec.UserID.String(),
		"Reason":     rec.Reason,
		"Movie":      rec.Showtime.Movie,
		"Location":   rec.Showtime.Location,
		"Hall":       rec.Showtime.Hall.Name,
		"Timing":     rec.Showtime.Timing,
		"Day":        rec.Showtime.Day,
		"Date":       rec.Showtime.Date,
		"Month":      rec.Showtime.Month,
		"Seats":      rec.Seats,
		"TakenSeats": rec.TakenSeats,
		"Amount":     rec.Amount,
		"Currency":   rec.Currency,
	}

	return n.mailer.Send(n.recipient, ReconciliationTemplate, data)
}
