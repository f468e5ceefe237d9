package polls

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"terrace/internal/domain"
	"terrace/internal/infra/metrics"
)

var (
	ErrAlreadyVoted = errors.New("в этом опросе уже проголосовано")
	ErrPollExpired  = errors.New("опрос завершён")
	ErrBadOption    = errors.New("вариант вне диапазона")
)

// PollView — опрос вместе с производными счётчиками и голосом пользователя.
type PollView struct {
	Poll    domain.Poll        `json:"poll"`
	Results domain.PollResults `json:"results"`
	MyVote  *int               `json:"my_vote,omitempty"`
}

// Service управляет опросами дня.
type Service struct {
	polls domain.PollRepo
	log   zerolog.Logger
	now   func() time.Time
}

// NewService создаёт сервис опросов.
func NewService(polls domain.PollRepo, logger zerolog.Logger) *Service {
	return &Service{polls: polls, log: logger, now: time.Now}
}

// Overview возвращает опросы со счётчиками и голосами пользователя.
func (s *Service) Overview(ctx context.Context, voterID string) ([]PollView, error) {
	list, err := s.polls.ListPolls(ctx)
	if err != nil {
		return nil, fmt.Errorf("получение опросов: %w", err)
	}
	votes, err := s.polls.ListUserVotes(ctx, voterID)
	if err != nil {
		return nil, fmt.Errorf("получение голосов: %w", err)
	}
	mine := make(map[string]int, len(votes))
	for _, vote := range votes {
		mine[vote.PollID] = vote.OptionIndex
	}

	views := make([]PollView, 0, len(list))
	for _, poll := range list {
		results, err := s.polls.CountVotes(ctx, poll.ID, len(poll.Options))
		if err != nil {
			return nil, fmt.Errorf("подсчёт голосов: %w", err)
		}
		view := PollView{Poll: poll, Results: results}
		if idx, ok := mine[poll.ID]; ok {
			chosen := idx
			view.MyVote = &chosen
		}
		views = append(views, view)
	}
	return views, nil
}

// Vote учитывает голос. Проверка «уже голосовал» идёт по известному
// клиенту состоянию, но окончательно инвариант держит уникальный ключ
// хранилища: параллельные вкладки гонку клиентской проверки обходят.
func (s *Service) Vote(ctx context.Context, voterID, pollID string, optionIndex int) (domain.PollVote, error) {
	poll, err := s.polls.GetPoll(ctx, pollID)
	if err != nil {
		return domain.PollVote{}, fmt.Errorf("получение опроса: %w", err)
	}
	if poll.Expired(s.now()) {
		return domain.PollVote{}, ErrPollExpired
	}
	if optionIndex < 0 || optionIndex >= len(poll.Options) {
		return domain.PollVote{}, ErrBadOption
	}
	votes, err := s.polls.ListUserVotes(ctx, voterID)
	if err != nil {
		return domain.PollVote{}, fmt.Errorf("получение голосов: %w", err)
	}
	for _, vote := range votes {
		if vote.PollID == pollID {
			return domain.PollVote{}, ErrAlreadyVoted
		}
	}

	vote := domain.PollVote{
		ID:          uuid.NewString(),
		PollID:      pollID,
		VoterID:     voterID,
		OptionIndex: optionIndex,
		CreatedAt:   s.now().UTC(),
	}
	saved, err := s.polls.InsertVote(ctx, vote)
	if err != nil {
		if errors.Is(err, domain.ErrDuplicateVote) {
			return domain.PollVote{}, ErrAlreadyVoted
		}
		return domain.PollVote{}, fmt.Errorf("сохранение голоса: %w", err)
	}
	metrics.VotesCastTotal.Inc()
	return saved, nil
}
