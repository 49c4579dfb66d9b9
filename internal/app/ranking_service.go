package app

import (
	"context"

	"formrank-service/internal/domain"
)

// DefaultTopLimit caps top-participant queries when no limit is given.
const DefaultTopLimit = 10

// RankingStore reads the derived ranking state. Implementations must order
// by total score descending, registration time ascending, then id ascending,
// so repeated reads over unchanged data return identical output.
type RankingStore interface {
	GlobalRanking(ctx context.Context) ([]domain.RankingEntry, error)
	TopParticipants(ctx context.Context, limit int) ([]domain.RankingEntry, error)
	Overview(ctx context.Context) (domain.Overview, error)
	FindParticipantByEmail(ctx context.Context, email string) (domain.Participant, error)
}

// RankingService derives the global leaderboard from committed submissions.
// It holds no state of its own: every call reflects the store as-is.
type RankingService struct {
	store RankingStore
}

func NewRankingService(store RankingStore) *RankingService {
	return &RankingService{store: store}
}

// GlobalRanking returns every participant with points, best first.
func (s *RankingService) GlobalRanking(ctx context.Context) ([]domain.RankingEntry, error) {
	return s.store.GlobalRanking(ctx)
}

// TopParticipants returns the first limit ranking rows.
func (s *RankingService) TopParticipants(ctx context.Context, limit int) ([]domain.RankingEntry, error) {
	if limit <= 0 {
		limit = DefaultTopLimit
	}
	return s.store.TopParticipants(ctx, limit)
}

// Standing looks a participant up by email and annotates it with its ranking
// position. Participants without points keep position zero.
func (s *RankingService) Standing(ctx context.Context, email string) (domain.Standing, error) {
	participant, err := s.store.FindParticipantByEmail(ctx, normalizeEmail(email))
	if err != nil {
		return domain.Standing{}, err
	}
	standing := domain.Standing{Participant: participant}
	if participant.TotalScore <= 0 {
		return standing, nil
	}
	ranking, err := s.store.GlobalRanking(ctx)
	if err != nil {
		return domain.Standing{}, err
	}
	for _, entry := range ranking {
		if entry.Email == participant.Email {
			standing.Position = entry.Position
			break
		}
	}
	return standing, nil
}

// Overview returns the platform-wide counters.
func (s *RankingService) Overview(ctx context.Context) (domain.Overview, error) {
	return s.store.Overview(ctx)
}
