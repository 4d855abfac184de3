package event

import (
	"context"
	"fmt"
	"log/slog"
	"strconv"

	pkgkafka "github.com/utafrali/bookreview/pkg/kafka"
	"github.com/utafrali/bookreview/pkg/logger"
	"github.com/utafrali/bookreview/services/review/internal/domain"
)

// Topics published by the review service.
var (
	TopicReviewCreated = pkgkafka.Topic("review", "created")
	TopicReviewDeleted = pkgkafka.Topic("review", "deleted")
)

// SourceReviewService identifies events from this service.
const SourceReviewService = "review-service"

// ReviewCreatedData is the payload of review.created.
type ReviewCreatedData struct {
	ID       int64  `json:"id"`
	BookID   int64  `json:"book_id"`
	Reviewer string `json:"reviewer"`
	Rating   int    `json:"rating"`
}

// ReviewDeletedData is the payload of review.deleted.
type ReviewDeletedData struct {
	ID int64 `json:"id"`
}

// Producer publishes review lifecycle events.
type Producer struct {
	publisher pkgkafka.Publisher
	logger    *slog.Logger
}

// NewProducer creates a Producer over publisher.
func NewProducer(publisher pkgkafka.Publisher, logger *slog.Logger) *Producer {
	return &Producer{publisher: publisher, logger: logger}
}

// PublishReviewCreated publishes review.created.
func (p *Producer) PublishReviewCreated(ctx context.Context, r *domain.Review) error {
	return p.publish(ctx, TopicReviewCreated, "review.created", r.ID, ReviewCreatedData{
		ID:       r.ID,
		BookID:   r.BookID,
		Reviewer: r.Reviewer,
		Rating:   r.Rating,
	})
}

// PublishReviewDeleted publishes review.deleted.
func (p *Producer) PublishReviewDeleted(ctx context.Context, id int64) error {
	return p.publish(ctx, TopicReviewDeleted, "review.deleted", id, ReviewDeletedData{ID: id})
}

func (p *Producer) publish(ctx context.Context, topic, eventType string, id int64, data any) error {
	evt, err := pkgkafka.NewEvent(eventType, strconv.FormatInt(id, 10), SourceReviewService, data)
	if err != nil {
		return fmt.Errorf("create %s event: %w", eventType, err)
	}
	evt.CorrelationID = logger.CorrelationIDFromContext(ctx)

	if err := p.publisher.Publish(ctx, topic, evt); err != nil {
		return err
	}
	p.logger.DebugContext(ctx, "review event queued", slog.String("event_type", eventType), slog.Int64("review_id", id))
	return nil
}
