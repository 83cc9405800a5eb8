package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	bookingDomain "github.com/RentalBee/service-rental/internal/domain/booking"
	reportDomain "github.com/RentalBee/service-rental/internal/domain/report"
	userDomain "github.com/RentalBee/service-rental/internal/domain/user"
)

const salesQuery = `
SELECT b.pickup_location_id AS location_id,
       l.name AS location_name,
       b.car_id,
       c.model AS car_model,
       COUNT(*) AS bookings,
       COALESCE(SUM(GREATEST(1, CEIL(EXTRACT(EPOCH FROM (b.dropoff_at - b.pickup_at)) / 86400))), 0)::BIGINT AS rental_days,
       COALESCE(SUM(
           GREATEST(1, CEIL(EXTRACT(EPOCH FROM (b.dropoff_at - b.pickup_at)) / 86400)) * c.price_per_day_cents
           + CASE WHEN b.pickup_location_id <> b.dropoff_location_id THEN $6 ELSE 0 END
       ), 0)::BIGINT AS revenue_cents
FROM bookings b
JOIN cars c ON c.id = b.car_id
JOIN locations l ON l.id = b.pickup_location_id
WHERE b.status <> ALL($1::text[])
  AND b.pickup_at >= $2 AND b.pickup_at < $3
  AND ($4::uuid IS NULL OR b.pickup_location_id = $4)
  AND ($5::uuid IS NULL OR b.car_id = $5)
GROUP BY b.pickup_location_id, l.name, b.car_id, c.model
ORDER BY revenue_cents DESC, car_model ASC`

const staffQuery = `
WITH events AS (
    SELECT changed_by, changed_at, cancel_review,
           LAG(cancel_review) OVER (PARTITION BY booking_id ORDER BY changed_at, id) AS prev_review
    FROM booking_status_events
)
SELECT e.changed_by AS agent_id,
       u.first_name || ' ' || u.last_name AS agent_name,
       COUNT(*) AS status_changes,
       COUNT(*) FILTER (
           WHERE e.cancel_review IN ('APPROVED', 'REJECTED')
             AND e.cancel_review IS DISTINCT FROM e.prev_review
       ) AS cancel_reviews
FROM events e
JOIN users u ON u.id = e.changed_by
WHERE u.role = ANY($1::text[])
  AND e.changed_at >= $2 AND e.changed_at < $3
GROUP BY e.changed_by, u.first_name, u.last_name
ORDER BY status_changes DESC, agent_name ASC`

// SQLReportRepository runs reporting queries as plain SQL through sqlx.
type SQLReportRepository struct {
	db             *sqlx.DB
	oneWayFeeCents int64
}

// NewSQLReportRepository creates a report repository. oneWayFeeCents must
// match the pricing strategy used for quotes.
func NewSQLReportRepository(db *sqlx.DB, oneWayFeeCents int64) *SQLReportRepository {
	return &SQLReportRepository{db: db, oneWayFeeCents: oneWayFeeCents}
}

// Sales returns revenue per car and pickup location.
func (r *SQLReportRepository) Sales(ctx context.Context, q reportDomain.SalesQuery) ([]reportDomain.SalesRow, error) {
	rows := []reportDomain.SalesRow{}
	excluded := pq.Array([]string{string(bookingDomain.StatusCanceled)})
	if err := r.db.SelectContext(ctx, &rows, salesQuery,
		excluded, q.From, q.To, q.LocationID, q.CarID, r.oneWayFeeCents,
	); err != nil {
		return nil, fmt.Errorf("failed to run sales report: %w", err)
	}
	return rows, nil
}

// StaffPerformance counts the booking changes made by staff members.
func (r *SQLReportRepository) StaffPerformance(ctx context.Context, from, to time.Time) ([]reportDomain.StaffRow, error) {
	rows := []reportDomain.StaffRow{}
	roles := pq.Array([]string{string(userDomain.RoleSupportAgent), string(userDomain.RoleAdmin)})
	if err := r.db.SelectContext(ctx, &rows, staffQuery, roles, from, to); err != nil {
		return nil, fmt.Errorf("failed to run staff report: %w", err)
	}
	return rows, nil
}
