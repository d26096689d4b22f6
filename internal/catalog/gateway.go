package catalog

import (
	"context"
	"errors"
)

// ErrUnavailable indicates the catalog backend could not be reached after
// retries. Tools treat it the same as an empty result: safe copy, no facts.
var ErrUnavailable = errors.New("catalog: backend unavailable")

// Gateway exposes read-only catalog queries plus the append-only
// interaction log. Missing rows yield (nil, nil) — never a fabricated
// record.
type Gateway interface {
	GetCourse(ctx context.Context, id string) (*Course, error)
	SearchCourses(ctx context.Context, text string) ([]Course, error)
	ListSessions(ctx context.Context, courseID string) ([]Session, error)
	ListPractices(ctx context.Context, sessionID string) ([]Practice, error)
	ListDeliverables(ctx context.Context, sessionID string) ([]Deliverable, error)
	ListBonuses(ctx context.Context, courseID string) ([]Bonus, error)
	ListFreeResources(ctx context.Context, courseID string) ([]FreeResource, error)
	GetPaymentInfo(ctx context.Context) (*PaymentInfo, error)
	LogInteraction(ctx context.Context, interaction Interaction) error
}
