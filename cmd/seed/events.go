package main

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/uuid"
	"github.com/marcelsud/webhook-inspector/webhook"
)

var eventTypes = []string{
	"payment_intent.succeeded",
	"payment_intent.payment_failed",
	"charge.refunded",
	"invoice.payment_succeeded",
	"invoice.payment_failed",
	"invoice.created",
	"invoice.finalized",
	"customer.created",
	"customer.updated",
	"subscription.created",
	"subscription.updated",
	"payment_method.attached",
	"charge.dispute.created",
	"charge.dispute.closed",
	"payout.paid",
}

// pretty is how many of the first samples carry an indented body
const pretty = 4

// stripeEvents builds n stripe-like captures, oldest first, one millisecond apart
func stripeEvents(f *gofakeit.Faker, n int, now time.Time) ([]webhook.Webhook, error) {
	base := now.Truncate(time.Microsecond).Add(-time.Duration(n) * time.Millisecond)
	samples := make([]webhook.Webhook, 0, n)

	for i := 0; i < n; i++ {
		id, err := uuid.NewV7()
		if err != nil {
			return nil, fmt.Errorf("generating webhook id: %w", err)
		}
		eventType := f.RandomString(eventTypes)

		object := map[string]any{
			"amount":   f.IntRange(50, 500000),
			"currency": strings.ToLower(f.CurrencyShort()),
			"customer": "cus_" + f.LetterN(8),
		}
		event := map[string]any{
			"id":   id.String(),
			"type": eventType,
			"data": map[string]any{"object": object},
		}

		var raw []byte
		if i < pretty {
			object["id"] = "obj_" + f.LetterN(8)
			raw, err = json.MarshalIndent(event, "", "  ")
		} else {
			object["id"] = "pi_" + f.LetterN(10)
			event["created"] = now.Unix() - int64(f.IntRange(0, 60*60*24*30))
			if strings.HasPrefix(eventType, "invoice") {
				object["invoice_number"] = strconv.Itoa(f.IntRange(1000, 9999))
			}
			if strings.Contains(eventType, "dispute") || eventType == "charge.refunded" {
				object["refund"] = map[string]any{"id": "re_" + f.LetterN(8)}
			}
			raw, err = json.Marshal(event)
		}
		if err != nil {
			return nil, fmt.Errorf("marshaling event: %w", err)
		}

		body := string(raw)
		contentType := "application/json"
		contentLength := int64(len(raw))
		signatureLen := uint(48)
		if i < pretty {
			signatureLen = 40
		}

		samples = append(samples, webhook.Webhook{
			ID:            id.String(),
			Method:        "POST",
			Pathname:      "/stripe/events",
			IP:            f.IPv4Address(),
			StatusCode:    200,
			ContentType:   &contentType,
			ContentLength: &contentLength,
			QueryParams:   map[string]string{},
			Headers: map[string]string{
				"user-agent":       "Stripe/1.0",
				"content-type":     contentType,
				"stripe-signature": f.LetterN(signatureLen),
			},
			Body:      &body,
			CreatedAt: base.Add(time.Duration(i) * time.Millisecond),
		})
	}

	return samples, nil
}
