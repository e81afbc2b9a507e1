package webhook

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// EventKind classifies provider event types.
type EventKind int

const (
	EventUnknown EventKind = iota
	EventPaid
	EventFailed
)

func (k EventKind) String() string {
	switch k {
	case EventPaid:
		return "paid"
	case EventFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Matched case-insensitively as substrings so new provider variants such as
// "Transaction.Paid" or "payment.succeeded" classify without a code change.
var (
	paidKeywords   = []string{"Paid", "Succeeded", "Completed"}
	failedKeywords = []string{"Failed"}
)

// Lookup order for the order identifier inside the event data.
var orderIDKeys = []string{"orderId", "order_id", "merchant_uid", "merchantUid", "paymentId", "payment_id"}

type Event struct {
	Type    string
	Kind    EventKind
	OrderID string
}

// Classify maps a raw event type to its kind. Paid keywords win over failed ones.
func Classify(eventType string) EventKind {
	t := strings.ToLower(eventType)
	if t == "" {
		return EventUnknown
	}
	for _, kw := range paidKeywords {
		if strings.Contains(t, strings.ToLower(kw)) {
			return EventPaid
		}
	}
	for _, kw := range failedKeywords {
		if strings.Contains(t, strings.ToLower(kw)) {
			return EventFailed
		}
	}
	return EventUnknown
}

// ParseEvent decodes an already verified body. Missing fields are not an error;
// the caller treats such events as ignorable.
func ParseEvent(payload []byte) (Event, error) {
	var body map[string]any
	if err := json.Unmarshal(payload, &body); err != nil {
		return Event{}, fmt.Errorf("%w: %v", ErrInvalidPayload, err)
	}

	data := body
	if nested, ok := body["data"].(map[string]any); ok {
		data = nested
	}

	ev := Event{
		Type:    firstString(data, "status"),
		OrderID: firstString(data, orderIDKeys...),
	}
	if ev.Type == "" {
		ev.Type = firstString(body, "type")
	}
	ev.Kind = Classify(ev.Type)
	return ev, nil
}

func firstString(m map[string]any, keys ...string) string {
	for _, k := range keys {
		switch v := m[k].(type) {
		case string:
			if s := strings.TrimSpace(v); s != "" {
				return s
			}
		case float64:
			return strconv.FormatFloat(v, 'f', -1, 64)
		}
	}
	return ""
}
