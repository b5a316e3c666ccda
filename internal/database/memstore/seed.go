package memstore

import (
	"context"
	"fmt"

	"github.com/benvon/study-planner/internal/models"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Fixed IDs so mock-mode clients can hard-code them
var (
	DevUserID    = uuid.MustParse("00000000-0000-4000-8000-000000000001")
	DevJourneyID = uuid.MustParse("00000000-0000-4000-8000-000000000002")
	DevPathID    = uuid.MustParse("00000000-0000-4000-8000-000000000003")
)

// DevUserSubject is the identity-provider subject of the seeded development user
const DevUserSubject = "dev-user"

// Seed creates the development user, an active journey and a sample learning path
func (s *Store) Seed(ctx context.Context) (*models.User, error) {
	subject := DevUserSubject
	name := "Development User"
	user := &models.User{
		ID:            DevUserID,
		Email:         "dev@localhost",
		ProviderID:    &subject,
		Name:          &name,
		EmailVerified: true,
	}
	if err := s.Users().Create(ctx, user); err != nil {
		return nil, fmt.Errorf("failed to seed user: %w", err)
	}

	journey := &models.Journey{
		ID:     DevJourneyID,
		UserID: DevUserID,
		Title:  "Learn Go",
		Status: models.JourneyStatusActive,
	}
	if err := s.Journeys().Create(ctx, journey); err != nil {
		return nil, fmt.Errorf("failed to seed journey: %w", err)
	}

	path := &models.LearningPath{
		ID:     DevPathID,
		UserID: DevUserID,
		Title:  "Go Fundamentals",
		Status: models.LearningPathStatusActive,
	}
	titles := []struct{ title, youtubeID string }{
		{"Tour of Go", "YS4e4q9oBaU"},
		{"Concurrency Patterns", "f6kdp27TYZs"},
		{"Error Handling", "lsBF58Q-DnY"},
		{"Testing in Go", "ndmB0bj7eyw"},
	}
	steps := make([]*models.LearningPathStep, 0, len(titles))
	for i, t := range titles {
		steps = append(steps, &models.LearningPathStep{
			ID:        uuid.NewSHA1(DevPathID, []byte(t.youtubeID)),
			StepOrder: i + 1,
			Title:     t.title,
			Videos:    []models.VideoReference{{YoutubeID: t.youtubeID, Title: t.title}},
			Status:    models.StepStatusPending,
		})
	}
	if err := s.LearningPaths().Create(ctx, path, steps); err != nil {
		return nil, fmt.Errorf("failed to seed learning path: %w", err)
	}

	s.log.Info("mock_store_seeded",
		zap.String("user_id", DevUserID.String()),
		zap.String("journey_id", DevJourneyID.String()),
		zap.String("path_id", DevPathID.String()),
	)
	return user, nil
}
