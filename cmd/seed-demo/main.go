package main

import (
	"context"
	"fmt"
	"log"

	"github.com/google/uuid"
	"github.com/user/orbit-back/internal/auth"
	"github.com/user/orbit-back/internal/config"
	"github.com/user/orbit-back/internal/database"
	"github.com/user/orbit-back/internal/messages"
	"github.com/user/orbit-back/internal/models"
)

// Seeds a handful of demo accounts and conversations for local development.
func main() {
	ctx := context.Background()
	cfg := config.Load()

	db, err := database.New(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()

	if err := db.Migrate(ctx); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	authRepo := auth.NewRepository(db.Pool)
	messagesRepo := messages.NewRepository(db.Pool)

	demoUsers := []struct {
		email       string
		displayName string
	}{
		{"alice@example.com", "Alice"},
		{"bob@example.com", "Bob"},
		{"carol@example.com", "Carol"},
	}

	passwordHash, err := auth.HashPassword("password123")
	if err != nil {
		log.Fatalf("Failed to hash password: %v", err)
	}

	users := make([]*models.User, 0, len(demoUsers))
	for _, du := range demoUsers {
		user, err := authRepo.CreateUser(ctx, du.email, passwordHash, du.displayName)
		if err != nil {
			user, err = authRepo.GetUserByEmail(ctx, du.email)
			if err != nil {
				log.Fatalf("Failed to create or fetch %s: %v", du.email, err)
			}
			log.Printf("User already exists: %s", du.email)
		} else {
			log.Printf("Created user: %s (%s)", du.email, user.ID)
		}
		users = append(users, user)
	}

	// Alice <-> Bob DM with a short exchange
	dm, err := messagesRepo.GetOrCreateDM(ctx, users[0].ID, users[1].ID)
	if err != nil {
		log.Fatalf("Failed to create DM: %v", err)
	}
	log.Printf("DM conversation: %s", dm.ID)

	if dm.LastMessage == nil {
		exchanges := []struct {
			sender int
			body   string
		}{
			{0, "Hey Bob, how's it going?"},
			{1, "Pretty good! Just trying out this new chat."},
			{0, "Nice, the typing indicator actually works."},
		}
		for _, e := range exchanges {
			msg, err := messagesRepo.SendMessage(ctx, dm.ID, users[e.sender].ID, models.KindText, e.body, nil, nil)
			if err != nil {
				log.Fatalf("Failed to seed message: %v", err)
			}
			log.Printf("Seeded message %s", msg.ID)
		}
	}

	// Group chat with all three
	group, err := messagesRepo.CreateGroup(ctx, users[0].ID, "Demo Crew", []uuid.UUID{users[1].ID, users[2].ID})
	if err != nil {
		log.Fatalf("Failed to create group: %v", err)
	}

	fmt.Printf("Seeded %d users, DM %s, group %s\n", len(users), dm.ID, group.ID)
}
