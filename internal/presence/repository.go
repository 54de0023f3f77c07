package presence

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/user/orbit-back/internal/models"
)

type Repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// SetStatus upserts a user's presence row. last_changed_at only moves when
// the status actually changes, so repeated heartbeats don't churn it.
func (r *Repository) SetStatus(ctx context.Context, userID uuid.UUID, status models.PresenceStatus) (*models.PresenceRecord, error) {
	record := &models.PresenceRecord{}
	err := r.db.QueryRow(ctx, `
		INSERT INTO presence (user_id, status, last_changed_at)
		VALUES ($1, $2, NOW())
		ON CONFLICT (user_id) DO UPDATE
		SET status = EXCLUDED.status,
		    last_changed_at = CASE
		        WHEN presence.status = EXCLUDED.status THEN presence.last_changed_at
		        ELSE NOW()
		    END
		RETURNING user_id, status, last_changed_at
	`, userID, status).Scan(&record.UserID, &record.Status, &record.LastChangedAt)
	if err != nil {
		return nil, err
	}
	return record, nil
}

// GetStatus returns a user's presence, defaulting to offline when no row
// exists yet.
func (r *Repository) GetStatus(ctx context.Context, userID uuid.UUID) (*models.PresenceRecord, error) {
	record := &models.PresenceRecord{}
	err := r.db.QueryRow(ctx, `
		SELECT user_id, status, last_changed_at FROM presence WHERE user_id = $1
	`, userID).Scan(&record.UserID, &record.Status, &record.LastChangedAt)
	if err != nil {
		return &models.PresenceRecord{
			UserID:        userID,
			Status:        models.StatusOffline,
			LastChangedAt: time.Time{},
		}, nil
	}
	return record, nil
}

// Snapshot returns presence for a set of users in one query. Users without a
// row are reported offline.
func (r *Repository) Snapshot(ctx context.Context, userIDs []uuid.UUID) (map[string]*models.PresenceRecord, error) {
	snapshot := make(map[string]*models.PresenceRecord, len(userIDs))
	for _, id := range userIDs {
		snapshot[id.String()] = &models.PresenceRecord{UserID: id, Status: models.StatusOffline}
	}

	if len(userIDs) == 0 {
		return snapshot, nil
	}

	rows, err := r.db.Query(ctx, `
		SELECT user_id, status, last_changed_at FROM presence WHERE user_id = ANY($1)
	`, userIDs)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		record := &models.PresenceRecord{}
		if err := rows.Scan(&record.UserID, &record.Status, &record.LastChangedAt); err != nil {
			return nil, err
		}
		snapshot[record.UserID.String()] = record
	}
	return snapshot, rows.Err()
}
