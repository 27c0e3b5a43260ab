package service

import (
	"context"
	"time"

	"subsidy-intake-be/internal/dto"
	"subsidy-intake-be/internal/mapper"
	"subsidy-intake-be/internal/repository/contract"

	"github.com/gofiber/fiber/v2"
)

type ISessionService interface {
	Show(ctx context.Context, userID string) (*dto.SessionResponse, error)
	Reset(ctx context.Context, userID string) error
}

type sessionService struct {
	sessions   contract.SessionRepository
	handoffTTL time.Duration
	now        func() time.Time
}

func NewSessionService(sessions contract.SessionRepository, handoffTTL time.Duration) ISessionService {
	return &sessionService{
		sessions:   sessions,
		handoffTTL: handoffTTL,
		now:        time.Now,
	}
}

func (s *sessionService) Show(ctx context.Context, userID string) (*dto.SessionResponse, error) {
	session, err := s.sessions.Get(ctx, userID)
	if err != nil {
		return nil, err
	}
	if session == nil {
		return nil, fiber.NewError(fiber.StatusNotFound, "Session not found")
	}

	res := mapper.ToSessionResponse(session, session.HandoffActiveWithin(s.now(), s.handoffTTL))
	return &res, nil
}

func (s *sessionService) Reset(ctx context.Context, userID string) error {
	return s.sessions.Delete(ctx, userID)
}
