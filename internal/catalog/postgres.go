package catalog

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"

	"github.com/impulsa-ai/brenda/pkg/logging"
)

type db interface {
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	Exec(ctx context.Context, sql string, args ...any) (pgconn.CommandTag, error)
}

// PostgresGateway reads catalog projections from the relational database.
type PostgresGateway struct {
	db          db
	logger      *logging.Logger
	maxAttempts int
	baseDelay   time.Duration
}

var _ Gateway = (*PostgresGateway)(nil)

// PostgresOption configures the gateway.
type PostgresOption func(*PostgresGateway)

// WithRetry overrides the transient-failure retry policy.
func WithRetry(attempts int, baseDelay time.Duration) PostgresOption {
	return func(g *PostgresGateway) {
		if attempts > 0 {
			g.maxAttempts = attempts
		}
		if baseDelay > 0 {
			g.baseDelay = baseDelay
		}
	}
}

// NewPostgresGateway initializes a gateway backed by a pgx pool.
func NewPostgresGateway(db db, logger *logging.Logger, opts ...PostgresOption) *PostgresGateway {
	if db == nil {
		panic("catalog: db required")
	}
	if logger == nil {
		logger = logging.Default()
	}
	g := &PostgresGateway{
		db:          db,
		logger:      logger,
		maxAttempts: 3,
		baseDelay:   200 * time.Millisecond,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

const courseColumns = `id, name, short_description, long_description, level,
	price, currency, total_duration_min, session_count, status,
	subtheme_id, syllabus_url, course_url, purchase_url, audience_category`

// GetCourse fetches one course by id. A missing row yields (nil, nil).
func (g *PostgresGateway) GetCourse(ctx context.Context, id string) (*Course, error) {
	query := fmt.Sprintf(`SELECT %s FROM courses WHERE id = $1`, courseColumns)

	var course Course
	err := g.withRetry(ctx, "get_course", func() error {
		row := g.db.QueryRow(ctx, query, id)
		return scanCourse(row, &course)
	})
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &course, nil
}

// SearchCourses matches active courses by name or description, newest first.
func (g *PostgresGateway) SearchCourses(ctx context.Context, text string) ([]Course, error) {
	query := fmt.Sprintf(`
		SELECT %s FROM courses
		WHERE status = 'active'
		  AND (name ILIKE '%%' || $1 || '%%' OR short_description ILIKE '%%' || $1 || '%%')
		ORDER BY name
		LIMIT 10`, courseColumns)

	var courses []Course
	err := g.withRetry(ctx, "search_courses", func() error {
		rows, err := g.db.Query(ctx, query, text)
		if err != nil {
			return err
		}
		defer rows.Close()

		courses = courses[:0]
		for rows.Next() {
			var c Course
			if err := scanCourse(rows, &c); err != nil {
				return err
			}
			courses = append(courses, c)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return courses, nil
}

// ListSessions returns a course's sessions ordered by index.
func (g *PostgresGateway) ListSessions(ctx context.Context, courseID string) ([]Session, error) {
	query := `
		SELECT id, course_id, session_index, title, objective, duration_minutes, modality
		FROM sessions
		WHERE course_id = $1
		ORDER BY session_index`

	var sessions []Session
	err := g.withRetry(ctx, "list_sessions", func() error {
		rows, err := g.db.Query(ctx, query, courseID)
		if err != nil {
			return err
		}
		defer rows.Close()

		sessions = sessions[:0]
		for rows.Next() {
			var s Session
			if err := rows.Scan(&s.ID, &s.CourseID, &s.SessionIndex, &s.Title,
				&s.Objective, &s.DurationMinutes, &s.Modality); err != nil {
				return err
			}
			sessions = append(sessions, s)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return sessions, nil
}

// ListPractices returns a session's practices ordered by index.
func (g *PostgresGateway) ListPractices(ctx context.Context, sessionID string) ([]Practice, error) {
	query := `
		SELECT id, session_id, practice_index, title, description, duration, is_mandatory, resource_type
		FROM practices
		WHERE session_id = $1
		ORDER BY practice_index`

	var practices []Practice
	err := g.withRetry(ctx, "list_practices", func() error {
		rows, err := g.db.Query(ctx, query, sessionID)
		if err != nil {
			return err
		}
		defer rows.Close()

		practices = practices[:0]
		for rows.Next() {
			var p Practice
			if err := rows.Scan(&p.ID, &p.SessionID, &p.PracticeIndex, &p.Title,
				&p.Description, &p.Duration, &p.IsMandatory, &p.ResourceType); err != nil {
				return err
			}
			practices = append(practices, p)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return practices, nil
}

// ListDeliverables returns a session's deliverables.
func (g *PostgresGateway) ListDeliverables(ctx context.Context, sessionID string) ([]Deliverable, error) {
	query := `
		SELECT id, session_id, name, type, resource_url, is_mandatory
		FROM deliverables
		WHERE session_id = $1
		ORDER BY name`

	var deliverables []Deliverable
	err := g.withRetry(ctx, "list_deliverables", func() error {
		rows, err := g.db.Query(ctx, query, sessionID)
		if err != nil {
			return err
		}
		defer rows.Close()

		deliverables = deliverables[:0]
		for rows.Next() {
			var d Deliverable
			if err := rows.Scan(&d.ID, &d.SessionID, &d.Name, &d.Type,
				&d.ResourceURL, &d.IsMandatory); err != nil {
				return err
			}
			deliverables = append(deliverables, d)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return deliverables, nil
}

// ListBonuses returns the active bonuses of a course.
func (g *PostgresGateway) ListBonuses(ctx context.Context, courseID string) ([]Bonus, error) {
	query := `
		SELECT id, course_id, name, description, original_value, expires_at,
		       max_claims, current_claims, active
		FROM bonuses
		WHERE course_id = $1 AND active = TRUE
		ORDER BY original_value DESC`

	var bonuses []Bonus
	err := g.withRetry(ctx, "list_bonuses", func() error {
		rows, err := g.db.Query(ctx, query, courseID)
		if err != nil {
			return err
		}
		defer rows.Close()

		bonuses = bonuses[:0]
		for rows.Next() {
			var b Bonus
			if err := rows.Scan(&b.ID, &b.CourseID, &b.Name, &b.Description,
				&b.OriginalValue, &b.ExpiresAt, &b.MaxClaims, &b.CurrentClaims, &b.Active); err != nil {
				return err
			}
			bonuses = append(bonuses, b)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return bonuses, nil
}

// ListFreeResources returns the active free resources of a course.
func (g *PostgresGateway) ListFreeResources(ctx context.Context, courseID string) ([]FreeResource, error) {
	query := `
		SELECT id, course_id, resource_name, resource_type, resource_url,
		       resource_description, active
		FROM free_resources
		WHERE course_id = $1 AND active = TRUE
		ORDER BY resource_name`

	var resources []FreeResource
	err := g.withRetry(ctx, "list_free_resources", func() error {
		rows, err := g.db.Query(ctx, query, courseID)
		if err != nil {
			return err
		}
		defer rows.Close()

		resources = resources[:0]
		for rows.Next() {
			var r FreeResource
			if err := rows.Scan(&r.ID, &r.CourseID, &r.Name, &r.Type,
				&r.URL, &r.Description, &r.Active); err != nil {
				return err
			}
			resources = append(resources, r)
		}
		return rows.Err()
	})
	if err != nil {
		return nil, err
	}
	return resources, nil
}

// GetPaymentInfo fetches the active payment record, or (nil, nil).
func (g *PostgresGateway) GetPaymentInfo(ctx context.Context) (*PaymentInfo, error) {
	query := `
		SELECT company_name, bank_name, clabe_account, rfc,
		       cfdi_usage, cfdi_description, is_active
		FROM payment_info
		WHERE is_active = TRUE
		LIMIT 1`

	var info PaymentInfo
	err := g.withRetry(ctx, "get_payment_info", func() error {
		row := g.db.QueryRow(ctx, query)
		return row.Scan(&info.CompanyName, &info.BankName, &info.ClabeAccount,
			&info.RFC, &info.CFDIUsage, &info.CFDIDescription, &info.Active)
	})
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &info, nil
}

// LogInteraction appends one interaction-log row. The only write path.
func (g *PostgresGateway) LogInteraction(ctx context.Context, interaction Interaction) error {
	metadata := []byte("{}")
	if len(interaction.Metadata) > 0 {
		encoded, err := json.Marshal(interaction.Metadata)
		if err != nil {
			return fmt.Errorf("catalog: encode interaction metadata: %w", err)
		}
		metadata = encoded
	}

	query := `
		INSERT INTO interaction_log (lead_id, course_id, interaction_type, metadata)
		VALUES ($1, $2, $3, $4)`

	return g.withRetry(ctx, "log_interaction", func() error {
		_, err := g.db.Exec(ctx, query,
			interaction.LeadID, interaction.CourseID, interaction.InteractionType, metadata)
		return err
	})
}

func scanCourse(row pgx.Row, c *Course) error {
	return row.Scan(&c.ID, &c.Name, &c.ShortDescription, &c.LongDescription,
		&c.Level, &c.Price, &c.Currency, &c.TotalDurationMin, &c.SessionCount,
		&c.Status, &c.SubthemeID, &c.SyllabusURL, &c.CourseURL, &c.PurchaseURL,
		&c.AudienceCategory)
}

// withRetry runs fn up to maxAttempts times with exponential backoff.
// pgx.ErrNoRows is returned immediately; it is a result, not a failure.
func (g *PostgresGateway) withRetry(ctx context.Context, op string, fn func() error) error {
	delay := g.baseDelay
	var lastErr error
	for attempt := 1; attempt <= g.maxAttempts; attempt++ {
		err := fn()
		if err == nil || errors.Is(err, pgx.ErrNoRows) || errors.Is(err, context.Canceled) {
			return err
		}
		lastErr = err
		g.logger.Warn("catalog query failed", "op", op, "attempt", attempt, "error", err)
		if attempt == g.maxAttempts {
			break
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(delay):
		}
		delay *= 2
	}
	return fmt.Errorf("%w: %s: %v", ErrUnavailable, op, lastErr)
}
