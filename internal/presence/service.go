package presence

import (
	"context"
	"errors"
	"log"

	"github.com/google/uuid"
	"github.com/user/orbit-back/internal/models"
)

var ErrInvalidStatus = errors.New("invalid presence status")

// Broadcaster fans a presence change out to everyone who can see the user.
type Broadcaster interface {
	BroadcastPresence(record *models.PresenceRecord)
}

// Service owns presence transitions. Connections drive online/offline;
// away is only ever set explicitly by the user.
type Service struct {
	repo        *Repository
	broadcaster Broadcaster
}

func NewService(repo *Repository, broadcaster Broadcaster) *Service {
	return &Service{repo: repo, broadcaster: broadcaster}
}

// SetStatus applies an explicit status change requested by the user.
func (s *Service) SetStatus(ctx context.Context, userID uuid.UUID, status models.PresenceStatus) (*models.PresenceRecord, error) {
	if !status.Valid() {
		return nil, ErrInvalidStatus
	}

	record, err := s.repo.SetStatus(ctx, userID, status)
	if err != nil {
		return nil, err
	}

	s.broadcaster.BroadcastPresence(record)
	return record, nil
}

// HandleConnect marks a freshly connected user online.
func (s *Service) HandleConnect(ctx context.Context, userID uuid.UUID) {
	record, err := s.repo.SetStatus(ctx, userID, models.StatusOnline)
	if err != nil {
		log.Printf("Failed to set user %s online: %v", userID, err)
		return
	}
	s.broadcaster.BroadcastPresence(record)
}

// HandleDisconnect marks a disconnected user offline. Best effort; the
// connection is already gone, so failures are only logged.
func (s *Service) HandleDisconnect(ctx context.Context, userID uuid.UUID) {
	record, err := s.repo.SetStatus(ctx, userID, models.StatusOffline)
	if err != nil {
		log.Printf("Failed to set user %s offline: %v", userID, err)
		return
	}
	s.broadcaster.BroadcastPresence(record)
}

// GetStatus returns a single user's presence.
func (s *Service) GetStatus(ctx context.Context, userID uuid.UUID) (*models.PresenceRecord, error) {
	return s.repo.GetStatus(ctx, userID)
}

// Snapshot returns presence for a set of users keyed by user id.
func (s *Service) Snapshot(ctx context.Context, userIDs []uuid.UUID) (map[string]*models.PresenceRecord, error) {
	return s.repo.Snapshot(ctx, userIDs)
}
