package event

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	pkgkafka "github.com/utafrali/bookreview/pkg/kafka"
)

// TopicBookDeleted is published by the book service when a book is removed.
var TopicBookDeleted = pkgkafka.Topic("book", "deleted")

const eventTypeBookDeleted = "book.deleted"

// bookDeletedData mirrors the book service's book.deleted payload.
type bookDeletedData struct {
	ID int64 `json:"id"`
}

// Evictor drops cached knowledge about a book.
type Evictor interface {
	Evict(ctx context.Context, bookID int64) error
}

// BookEventHandler keeps the existence cache honest when books are deleted.
// Existing reviews of a deleted book are left alone.
type BookEventHandler struct {
	evictor Evictor
	logger  *slog.Logger
}

// NewBookEventHandler creates a BookEventHandler.
func NewBookEventHandler(evictor Evictor, logger *slog.Logger) *BookEventHandler {
	return &BookEventHandler{evictor: evictor, logger: logger}
}

// Handle implements pkgkafka.Handler.
func (h *BookEventHandler) Handle(ctx context.Context, evt *pkgkafka.Event) error {
	if evt.EventType != eventTypeBookDeleted {
		h.logger.DebugContext(ctx, "ignoring book event", slog.String("event_type", evt.EventType))
		return nil
	}

	bookID, err := deletedBookID(evt)
	if err != nil {
		return err
	}

	if err := h.evictor.Evict(ctx, bookID); err != nil {
		return err
	}
	h.logger.InfoContext(ctx, "evicted deleted book from cache", slog.Int64("book_id", bookID))
	return nil
}

func deletedBookID(evt *pkgkafka.Event) (int64, error) {
	var data bookDeletedData
	if err := evt.UnmarshalData(&data); err == nil && data.ID > 0 {
		return data.ID, nil
	}
	id, err := strconv.ParseInt(evt.AggregateID, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("book.deleted event %s has no usable book id", evt.EventID)
	}
	return id, nil
}
