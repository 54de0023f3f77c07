package calls

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/user/orbit-back/internal/models"
)

var (
	ErrSessionNotFound  = errors.New("call session not found")
	ErrNotInSession     = errors.New("not a participant of this call")
	ErrAlreadyInCall    = errors.New("an active call already exists for this pair")
	ErrSessionNotActive = errors.New("call session already ended")
	ErrNotRinging       = errors.New("call is not awaiting an answer")
)

const sessionColumns = `id, caller_id, callee_id, offer_sdp, answer_sdp, status, created_at, ended_at`

type Repository struct {
	db *pgxpool.Pool
}

func NewRepository(db *pgxpool.Pool) *Repository {
	return &Repository{db: db}
}

// CreateSession starts a call from caller to callee with the caller's offer.
// At most one non-ended session may exist per unordered pair, in either
// direction.
func (r *Repository) CreateSession(ctx context.Context, callerID, calleeID uuid.UUID, offerSDP string) (*models.CallSession, error) {
	tx, err := r.db.Begin(ctx)
	if err != nil {
		return nil, err
	}
	defer tx.Rollback(ctx)

	var exists bool
	err = tx.QueryRow(ctx, `
		SELECT EXISTS(
			SELECT 1 FROM call_sessions
			WHERE status != 'ended'
			  AND ((caller_id = $1 AND callee_id = $2) OR (caller_id = $2 AND callee_id = $1))
		)
	`, callerID, calleeID).Scan(&exists)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrAlreadyInCall
	}

	session := &models.CallSession{}
	err = tx.QueryRow(ctx, `
		INSERT INTO call_sessions (caller_id, callee_id, offer_sdp)
		VALUES ($1, $2, $3)
		RETURNING `+sessionColumns+`
	`, callerID, calleeID, offerSDP).Scan(
		&session.ID, &session.CallerID, &session.CalleeID, &session.OfferSDP,
		&session.AnswerSDP, &session.Status, &session.CreatedAt, &session.EndedAt,
	)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, err
	}
	return session, nil
}

// GetSession loads a session, verifying userID is one of its two sides.
func (r *Repository) GetSession(ctx context.Context, sessionID, userID uuid.UUID) (*models.CallSession, error) {
	session := &models.CallSession{}
	err := r.db.QueryRow(ctx, `
		SELECT `+sessionColumns+` FROM call_sessions WHERE id = $1
	`, sessionID).Scan(
		&session.ID, &session.CallerID, &session.CalleeID, &session.OfferSDP,
		&session.AnswerSDP, &session.Status, &session.CreatedAt, &session.EndedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrSessionNotFound
	}
	if err != nil {
		return nil, err
	}

	if _, ok := session.RoleOf(userID); !ok {
		return nil, ErrNotInSession
	}
	return session, nil
}

// SetAnswer records the callee's answer and moves calling -> connected. Only
// the callee may answer, and only while the session is still ringing.
func (r *Repository) SetAnswer(ctx context.Context, sessionID, userID uuid.UUID, answerSDP string) (*models.CallSession, error) {
	session, err := r.GetSession(ctx, sessionID, userID)
	if err != nil {
		return nil, err
	}
	if session.CalleeID != userID {
		return nil, ErrNotInSession
	}
	if session.Status != models.CallCalling {
		return nil, ErrNotRinging
	}

	err = r.db.QueryRow(ctx, `
		UPDATE call_sessions
		SET answer_sdp = $1, status = 'connected'
		WHERE id = $2 AND status = 'calling'
		RETURNING `+sessionColumns+`
	`, answerSDP, sessionID).Scan(
		&session.ID, &session.CallerID, &session.CalleeID, &session.OfferSDP,
		&session.AnswerSDP, &session.Status, &session.CreatedAt, &session.EndedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotRinging
	}
	if err != nil {
		return nil, err
	}
	return session, nil
}

// EndSession tombstones a session. The row stays behind marked 'ended' so a
// late reader sees a definitive terminal state rather than an absence. Either
// side may end; ending an already ended session is a no-op.
func (r *Repository) EndSession(ctx context.Context, sessionID, userID uuid.UUID) (*models.CallSession, error) {
	session, err := r.GetSession(ctx, sessionID, userID)
	if err != nil {
		return nil, err
	}
	if session.Status == models.CallEnded {
		return session, nil
	}

	err = r.db.QueryRow(ctx, `
		UPDATE call_sessions
		SET status = 'ended', ended_at = NOW()
		WHERE id = $1
		RETURNING `+sessionColumns+`
	`, sessionID).Scan(
		&session.ID, &session.CallerID, &session.CalleeID, &session.OfferSDP,
		&session.AnswerSDP, &session.Status, &session.CreatedAt, &session.EndedAt,
	)
	if err != nil {
		return nil, err
	}
	return session, nil
}

// AddCandidate appends an ICE candidate under the writer's role. The payload
// is stored and relayed verbatim.
func (r *Repository) AddCandidate(ctx context.Context, sessionID, userID uuid.UUID, candidate json.RawMessage) (*models.CallCandidate, error) {
	session, err := r.GetSession(ctx, sessionID, userID)
	if err != nil {
		return nil, err
	}
	if session.Status == models.CallEnded {
		return nil, ErrSessionNotActive
	}

	role, _ := session.RoleOf(userID)

	record := &models.CallCandidate{}
	err = r.db.QueryRow(ctx, `
		INSERT INTO call_candidates (session_id, role, candidate)
		VALUES ($1, $2, $3)
		RETURNING id, session_id, role, candidate, created_at
	`, sessionID, role, candidate).Scan(
		&record.ID, &record.SessionID, &record.Role, &record.Candidate, &record.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return record, nil
}

// GetCandidates returns the candidates written by the PEER of userID, oldest
// first. Each side reads the other side's trickle.
func (r *Repository) GetCandidates(ctx context.Context, sessionID, userID uuid.UUID) ([]*models.CallCandidate, error) {
	session, err := r.GetSession(ctx, sessionID, userID)
	if err != nil {
		return nil, err
	}
	role, _ := session.RoleOf(userID)

	rows, err := r.db.Query(ctx, `
		SELECT id, session_id, role, candidate, created_at
		FROM call_candidates
		WHERE session_id = $1 AND role = $2
		ORDER BY created_at
	`, sessionID, role.Other())
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	candidates := []*models.CallCandidate{}
	for rows.Next() {
		c := &models.CallCandidate{}
		if err := rows.Scan(&c.ID, &c.SessionID, &c.Role, &c.Candidate, &c.CreatedAt); err != nil {
			return nil, err
		}
		candidates = append(candidates, c)
	}
	return candidates, rows.Err()
}

// GetActiveSessionForUser returns the user's current non-ended session, or
// nil if they are not in a call.
func (r *Repository) GetActiveSessionForUser(ctx context.Context, userID uuid.UUID) (*models.CallSession, error) {
	session := &models.CallSession{}
	err := r.db.QueryRow(ctx, `
		SELECT `+sessionColumns+`
		FROM call_sessions
		WHERE status != 'ended' AND (caller_id = $1 OR callee_id = $1)
		ORDER BY created_at DESC
		LIMIT 1
	`, userID).Scan(
		&session.ID, &session.CallerID, &session.CalleeID, &session.OfferSDP,
		&session.AnswerSDP, &session.Status, &session.CreatedAt, &session.EndedAt,
	)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return session, nil
}

// GetIncomingSessions returns sessions still ringing toward the user, used to
// re-present missed ringers on reconnect.
func (r *Repository) GetIncomingSessions(ctx context.Context, userID uuid.UUID) ([]*models.CallSession, error) {
	rows, err := r.db.Query(ctx, `
		SELECT `+sessionColumns+`
		FROM call_sessions
		WHERE callee_id = $1 AND status = 'calling'
		ORDER BY created_at
	`, userID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var sessions []*models.CallSession
	for rows.Next() {
		session := &models.CallSession{}
		err := rows.Scan(
			&session.ID, &session.CallerID, &session.CalleeID, &session.OfferSDP,
			&session.AnswerSDP, &session.Status, &session.CreatedAt, &session.EndedAt,
		)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, session)
	}
	return sessions, rows.Err()
}
