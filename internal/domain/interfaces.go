package domain

import (
	"context"
	"time"
)

// ProfileRepo управляет профилями болельщиков.
type ProfileRepo interface {
	UpsertProfile(ctx context.Context, profile Profile) (Profile, error)
	GetProfile(ctx context.Context, id string) (Profile, error)
	UpdateName(ctx context.Context, id, fullName string) (Profile, error)
	UpdateLocation(ctx context.Context, id string, loc Location) error
	AddPoints(ctx context.Context, id string, delta int) error
	SetStreak(ctx context.Context, id string, streak int) error
	TopByPoints(ctx context.Context, limit int) ([]Profile, error)
}

// MessageRepo управляет сообщениями чатов.
type MessageRepo interface {
	InsertMessage(ctx context.Context, msg Message) (Message, error)
	GetMessage(ctx context.Context, id string) (Message, error)
	ListMessages(ctx context.Context, scope string, limit int) ([]Message, error)
}

// PostRepo управляет постами ленты.
type PostRepo interface {
	InsertPost(ctx context.Context, post Post) (Post, error)
	GetPost(ctx context.Context, id string) (Post, error)
	ListPosts(ctx context.Context, limit int) ([]Post, error)
	SetLikes(ctx context.Context, id string, likes int) (Post, error)
}

// PollRepo управляет опросами и голосами.
type PollRepo interface {
	ListPolls(ctx context.Context) ([]Poll, error)
	GetPoll(ctx context.Context, id string) (Poll, error)
	InsertVote(ctx context.Context, vote PollVote) (PollVote, error)
	ListUserVotes(ctx context.Context, voterID string) ([]PollVote, error)
	CountVotes(ctx context.Context, pollID string, optionCount int) (PollResults, error)
}

// PredictionRepo управляет прогнозами и матчами.
type PredictionRepo interface {
	UpsertPrediction(ctx context.Context, pred Prediction) (Prediction, error)
	ListUserPredictions(ctx context.Context, userID string) ([]Prediction, error)
	ListMatchPredictions(ctx context.Context, matchID string) ([]Prediction, error)
	MarkGraded(ctx context.Context, id string, correct bool, points int) error
	ListUpcomingMatches(ctx context.Context, from time.Time) ([]Match, error)
}

// StandingRepo управляет агрегатами клубов.
type StandingRepo interface {
	ListStandings(ctx context.Context) ([]ClubStanding, error)
	AddClubPoints(ctx context.Context, clubID string, delta int) error
	AddClubMember(ctx context.Context, clubID, clubName string) error
	RemoveClubMember(ctx context.Context, clubID string) error
}

// EventBus — транспорт realtime-уведомлений о вставках.
// Отмена подписки обязана выполняться при смене скоупа или закрытии вида.
type EventBus interface {
	Publish(ctx context.Context, topic string, event ChangeEvent) error
	Subscribe(ctx context.Context, topic string) (<-chan ChangeEvent, func(), error)
}

// Presence отслеживает участников, удерживающих активную подписку на скоуп.
type Presence interface {
	Track(ctx context.Context, scope, userID string) error
	Untrack(ctx context.Context, scope, userID string) error
	Count(ctx context.Context, scope string) (int, error)
}

// Geocoder выполняет обратное геокодирование. Ошибки — best-effort.
type Geocoder interface {
	ReverseGeocode(ctx context.Context, lat, lon float64) (Location, error)
}

// Cache используется для простых TTL-хранилищ.
type Cache interface {
	Once(key string, ttl time.Duration, fn func() error) error
	Set(key string, value []byte, ttl time.Duration) error
	Get(key string) ([]byte, error)
}
