package calls

import (
	"time"

	"github.com/livekit/protocol/auth"
)

type MediaConfig struct {
	Host      string
	APIKey    string
	APISecret string
}

// MediaTokenService mints room-join tokens for the media plane. The room name
// is derived from the signaling session id, so both sides of a call land in
// the same room.
type MediaTokenService struct {
	config MediaConfig
}

func NewMediaTokenService(config MediaConfig) *MediaTokenService {
	return &MediaTokenService{config: config}
}

func (s *MediaTokenService) GenerateToken(sessionID, userID, username string) (string, error) {
	at := auth.NewAccessToken(s.config.APIKey, s.config.APISecret)

	at.SetVideoGrant(&auth.VideoGrant{
		RoomJoin: true,
		Room:     "call-" + sessionID,
	}).
		SetIdentity(userID).
		SetName(username).
		SetValidFor(24 * time.Hour)

	return at.ToJWT()
}

func (s *MediaTokenService) GetWebSocketURL() string {
	return s.config.Host
}
