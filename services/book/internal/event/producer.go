package event

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	pkgkafka "github.com/utafrali/bookreview/pkg/kafka"
	"github.com/utafrali/bookreview/pkg/logger"
	"github.com/utafrali/bookreview/services/book/internal/domain"
)

// Topics published by the book service.
var (
	TopicBookCreated = pkgkafka.Topic("book", "created")
	TopicBookUpdated = pkgkafka.Topic("book", "updated")
	TopicBookDeleted = pkgkafka.Topic("book", "deleted")
)

// SourceBookService identifies events from this service.
const SourceBookService = "book-service"

// BookData is the payload of book.created and book.updated.
type BookData struct {
	ID            int64   `json:"id"`
	Title         string  `json:"title"`
	Author        string  `json:"author"`
	Description   *string `json:"description,omitempty"`
	PublishedYear *int    `json:"published_year,omitempty"`
}

// BookDeletedData is the payload of book.deleted.
type BookDeletedData struct {
	ID int64 `json:"id"`
}

// Producer publishes book lifecycle events.
type Producer struct {
	publisher pkgkafka.Publisher
	logger    *slog.Logger
}

// NewProducer creates a Producer over publisher.
func NewProducer(publisher pkgkafka.Publisher, logger *slog.Logger) *Producer {
	return &Producer{publisher: publisher, logger: logger}
}

// PublishBookCreated publishes book.created.
func (p *Producer) PublishBookCreated(ctx context.Context, b *domain.Book) error {
	return p.publish(ctx, TopicBookCreated, "book.created", b.ID, toBookData(b))
}

// PublishBookUpdated publishes book.updated.
func (p *Producer) PublishBookUpdated(ctx context.Context, b *domain.Book) error {
	return p.publish(ctx, TopicBookUpdated, "book.updated", b.ID, toBookData(b))
}

// PublishBookDeleted publishes book.deleted.
func (p *Producer) PublishBookDeleted(ctx context.Context, id int64) error {
	return p.publish(ctx, TopicBookDeleted, "book.deleted", id, BookDeletedData{ID: id})
}

func (p *Producer) publish(ctx context.Context, topic, eventType string, id int64, data any) error {
	evt, err := pkgkafka.NewEvent(eventType, strconv.FormatInt(id, 10), SourceBookService, data)
	if err != nil {
		return fmt.Errorf("create %s event: %w", eventType, err)
	}
	evt.CorrelationID = logger.CorrelationIDFromContext(ctx)

	if err := p.publisher.Publish(ctx, topic, evt); err != nil {
		return err
	}
	p.logger.DebugContext(ctx, "book event queued", slog.String("event_type", eventType), slog.Int64("book_id", id))
	return nil
}

func toBookData(b *domain.Book) BookData {
	return BookData{
		ID:            b.ID,
		Title:         b.Title,
		Author:        b.Author,
		Description:   b.Description,
		PublishedYear: b.PublishedYear,
	}
}
