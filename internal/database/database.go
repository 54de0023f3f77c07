package database

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"
)

type DB struct {
	Pool *pgxpool.Pool
}

func New(databaseURL string) (*DB, error) {
	pool, err := pgxpool.New(context.Background(), databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	if err := pool.Ping(context.Background()); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &DB{Pool: pool}, nil
}

func (db *DB) Close() {
	db.Pool.Close()
}

func (db *DB) Migrate(ctx context.Context) error {
	schema := `
		CREATE EXTENSION IF NOT EXISTS "uuid-ossp";

		CREATE TABLE IF NOT EXISTS users (
			id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
			email VARCHAR(255) UNIQUE NOT NULL,
			password_hash VARCHAR(255) NOT NULL,
			display_name VARCHAR(64),
			avatar_url TEXT,
			created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
			updated_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
		);

		CREATE TABLE IF NOT EXISTS refresh_tokens (
			id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
			user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			token VARCHAR(255) UNIQUE NOT NULL,
			expires_at TIMESTAMP WITH TIME ZONE NOT NULL,
			created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
		);

		CREATE INDEX IF NOT EXISTS idx_users_email ON users(email);
		CREATE INDEX IF NOT EXISTS idx_refresh_tokens_token ON refresh_tokens(token);
		CREATE INDEX IF NOT EXISTS idx_refresh_tokens_user_id ON refresh_tokens(user_id);

		-- Conversations. DM ids are derived deterministically from the
		-- participant pair, so dm rows are inserted with an explicit id.
		CREATE TABLE IF NOT EXISTS conversations (
			id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
			type VARCHAR(20) NOT NULL DEFAULT 'dm',
			name VARCHAR(100),
			avatar_url TEXT,
			owner_id UUID REFERENCES users(id) ON DELETE SET NULL,
			last_message_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
			created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
			updated_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
		);

		CREATE TABLE IF NOT EXISTS conversation_participants (
			conversation_id UUID NOT NULL REFERENCES conversations(id) ON DELETE CASCADE,
			user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			joined_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
			PRIMARY KEY (conversation_id, user_id)
		);

		CREATE TABLE IF NOT EXISTS messages (
			id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
			conversation_id UUID NOT NULL REFERENCES conversations(id) ON DELETE CASCADE,
			sender_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			kind VARCHAR(20) NOT NULL DEFAULT 'text',
			body TEXT,
			reply_to_id UUID REFERENCES messages(id) ON DELETE SET NULL,
			edited BOOLEAN NOT NULL DEFAULT FALSE,
			edited_at TIMESTAMP WITH TIME ZONE,
			sent_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
			updated_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
		);

		CREATE INDEX IF NOT EXISTS idx_conversation_participants_user ON conversation_participants(user_id);
		CREATE INDEX IF NOT EXISTS idx_conversations_last_message ON conversations(last_message_at DESC);
		CREATE INDEX IF NOT EXISTS idx_messages_conversation ON messages(conversation_id);
		CREATE INDEX IF NOT EXISTS idx_messages_conv_sent ON messages(conversation_id, sent_at DESC);

		-- Read receipts: monotonic, insert-only outside message deletion.
		CREATE TABLE IF NOT EXISTS message_reads (
			message_id UUID NOT NULL REFERENCES messages(id) ON DELETE CASCADE,
			user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			read_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
			PRIMARY KEY (message_id, user_id)
		);

		CREATE INDEX IF NOT EXISTS idx_message_reads_user ON message_reads(user_id);

		CREATE TABLE IF NOT EXISTS reactions (
			id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
			message_id UUID NOT NULL REFERENCES messages(id) ON DELETE CASCADE,
			user_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			emoji VARCHAR(32) NOT NULL,
			created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
			UNIQUE(message_id, user_id, emoji)
		);

		CREATE INDEX IF NOT EXISTS idx_reactions_message ON reactions(message_id);

		CREATE TABLE IF NOT EXISTS attachments (
			id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
			message_id UUID REFERENCES messages(id) ON DELETE CASCADE,
			uploader_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			kind VARCHAR(20) NOT NULL DEFAULT 'file',
			url TEXT NOT NULL,
			filename VARCHAR(255) NOT NULL,
			size BIGINT NOT NULL DEFAULT 0,
			created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
		);

		CREATE INDEX IF NOT EXISTS idx_attachments_message ON attachments(message_id);
		CREATE INDEX IF NOT EXISTS idx_attachments_uploader ON attachments(uploader_id);

		-- One presence row per user, upserted.
		CREATE TABLE IF NOT EXISTS presence (
			user_id UUID PRIMARY KEY REFERENCES users(id) ON DELETE CASCADE,
			status VARCHAR(20) NOT NULL DEFAULT 'offline',
			last_changed_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
		);

		-- Call signaling sessions. 'ended' rows are tombstones.
		CREATE TABLE IF NOT EXISTS call_sessions (
			id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
			caller_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			callee_id UUID NOT NULL REFERENCES users(id) ON DELETE CASCADE,
			offer_sdp TEXT NOT NULL,
			answer_sdp TEXT,
			status VARCHAR(20) NOT NULL DEFAULT 'calling',
			created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW(),
			ended_at TIMESTAMP WITH TIME ZONE,
			CHECK (caller_id != callee_id)
		);

		CREATE INDEX IF NOT EXISTS idx_call_sessions_callee ON call_sessions(callee_id) WHERE status != 'ended';
		CREATE INDEX IF NOT EXISTS idx_call_sessions_caller ON call_sessions(caller_id) WHERE status != 'ended';

		CREATE TABLE IF NOT EXISTS call_candidates (
			id UUID PRIMARY KEY DEFAULT uuid_generate_v4(),
			session_id UUID NOT NULL REFERENCES call_sessions(id) ON DELETE CASCADE,
			role VARCHAR(10) NOT NULL,
			candidate JSONB NOT NULL,
			created_at TIMESTAMP WITH TIME ZONE DEFAULT NOW()
		);

		CREATE INDEX IF NOT EXISTS idx_call_candidates_session ON call_candidates(session_id, role);
	`

	_, err := db.Pool.Exec(ctx, schema)
	return err
}
