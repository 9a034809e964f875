package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/google/uuid"
	"github.com/ignite/health-surveillance/internal/analytics"
)

// DefaultLimit caps a fetch when the query carries no limit.
const DefaultLimit = 50000

const eventsQuery = `
	SELECT hr.id, hr.migrant_id,
	       COALESCE(m.district,''), COALESCE(m.taluk,''), COALESCE(m.village,''),
	       COALESCE(NULLIF(hr.camp,''), m.camp, ''),
	       hr.date_of_issue, COALESCE(hr.is_contagious, false),
	       COALESCE(hr.confirmed_disease,''), COALESCE(hr.suspected_disease,''),
	       hr.follow_up_date, COALESCE(hr.notes,'')
	FROM health_records hr
	LEFT JOIN migrants m ON m.id = hr.migrant_id
	WHERE hr.date_of_issue BETWEEN $1 AND $2
	ORDER BY hr.date_of_issue DESC
	LIMIT $3`

// EventStore implements analytics.RecordStore against PostgreSQL. Health
// records are joined with the migrant registry so every row carries the
// subject's district, taluk and village.
type EventStore struct{ db *sql.DB }

// NewEventStore creates a Postgres-backed record store.
func NewEventStore(db *sql.DB) *EventStore { return &EventStore{db: db} }

var _ analytics.RecordStore = (*EventStore)(nil)

func (s *EventStore) Fetch(ctx context.Context, q analytics.Query) ([]analytics.Record, error) {
	limit := q.Limit
	if limit <= 0 {
		limit = DefaultLimit
	}

	rows, err := s.db.QueryContext(ctx, eventsQuery, q.Start, q.End, limit)
	if err != nil {
		return nil, fmt.Errorf("query health records: %w", err)
	}
	defer rows.Close()

	out := make([]analytics.Record, 0, 64)
	for rows.Next() {
		var (
			r         analytics.Record
			id        sql.NullString
			subjectID sql.NullString
			followUp  sql.NullTime
		)
		if err := rows.Scan(
			&id, &subjectID,
			&r.District, &r.Taluk, &r.Village, &r.Camp,
			&r.IssuedAt, &r.Contagious,
			&r.ConfirmedDisease, &r.SuspectedDisease,
			&followUp, &r.Notes,
		); err != nil {
			return nil, fmt.Errorf("scan health record: %w", err)
		}
		r.ID = id.String
		if !id.Valid || id.String == "" {
			r.ID = uuid.New().String()
		}
		r.SubjectID = subjectID.String
		if followUp.Valid {
			t := followUp.Time
			r.FollowUpAt = &t
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate health records: %w", err)
	}
	return out, nil
}
