package amqp

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"budget/internal/core"
)

// EventKind says what happened to an item.
type EventKind string

const (
	ItemCreated EventKind = "created"
	ItemUpdated EventKind = "updated"
	ItemDeleted EventKind = "deleted"
)

// ItemEvent announces a change to one budget item. Periods lists the anchor
// periods touched by the change (old and new anchor on update), so consumers
// know which months to rebuild without reading the item back.
type ItemEvent struct {
	Kind      EventKind     `json:"kind"`
	UserID    string        `json:"user_id"`
	ItemID    string        `json:"item_id"`
	Periods   []core.Period `json:"periods"`
	Timestamp time.Time     `json:"timestamp"`
}

func NewItemEvent(kind EventKind, userID, itemID string, periods ...core.Period) *ItemEvent {
	return &ItemEvent{
		Kind:      kind,
		UserID:    userID,
		ItemID:    itemID,
		Periods:   dedupePeriods(periods),
		Timestamp: time.Now(),
	}
}

func (e *ItemEvent) Validate() error {
	switch e.Kind {
	case ItemCreated, ItemUpdated, ItemDeleted:
	default:
		return fmt.Errorf("unknown event kind %q", e.Kind)
	}
	if e.UserID == "" {
		return errors.New("missing user id")
	}
	for _, p := range e.Periods {
		if err := p.Validate(); err != nil {
			return err
		}
	}
	return nil
}

func (e *ItemEvent) ToJSON() ([]byte, error) {
	return json.Marshal(e)
}

// ItemEventFromJSON decodes and validates an event.
func ItemEventFromJSON(data []byte) (*ItemEvent, error) {
	var ev ItemEvent
	if err := json.Unmarshal(data, &ev); err != nil {
		return nil, err
	}
	if err := ev.Validate(); err != nil {
		return nil, err
	}
	return &ev, nil
}

func dedupePeriods(in []core.Period) []core.Period {
	out := make([]core.Period, 0, len(in))
	seen := make(map[core.Period]struct{}, len(in))
	for _, p := range in {
		if _, ok := seen[p]; ok {
			continue
		}
		seen[p] = struct{}{}
		out = append(out, p)
	}
	return out
}
