package domain

import (
	"errors"
	"time"
)

// ScopeGlobal — сентинел общего чата, видимого болельщикам всех клубов.
const ScopeGlobal = "global"

// Потолки длины пользовательского ввода и счёта прогноза.
const (
	MessageMaxLen = 500
	PostMaxLen    = 280
	NameMaxLen    = 40
	ScoreMax      = 9
)

var (
	// ErrProfileNotFound — профиль по идентификатору не найден.
	ErrProfileNotFound = errors.New("профиль не найден")
	// ErrRecordNotFound — запись по идентификатору не найдена.
	ErrRecordNotFound = errors.New("запись не найдена")
	// ErrDuplicateVote — повторный голос в том же опросе.
	ErrDuplicateVote = errors.New("голос уже учтён")
)

// Profile описывает профиль болельщика. Создаётся при первом выборе клуба.
type Profile struct {
	ID          string    `json:"id"`
	FullName    string    `json:"full_name"`
	Email       string    `json:"email,omitempty"`
	ClubID      string    `json:"club_id"`
	ClubName    string    `json:"club_name"`
	Points      int       `json:"points"`
	Streak      int       `json:"streak"`
	City        string    `json:"city,omitempty"`
	Country     string    `json:"country,omitempty"`
	CountryCode string    `json:"country_code,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

// AuthorRef — денормализованные поля автора, подставляются при чтении.
type AuthorRef struct {
	FullName string `json:"full_name"`
	Email    string `json:"email,omitempty"`
	ClubID   string `json:"club_id,omitempty"`
	ClubName string `json:"club_name,omitempty"`
}

// Message — сообщение чата. Скоуп — id клуба либо ScopeGlobal.
// Append-only: клиент никогда не редактирует и не удаляет сообщения.
type Message struct {
	ID        string    `json:"id"`
	Scope     string    `json:"scope"`
	AuthorID  string    `json:"author_id"`
	ClubName  string    `json:"club_name"`
	Body      string    `json:"body"`
	CreatedAt time.Time `json:"created_at"`
	Author    AuthorRef `json:"author"`
}

// Post — пост ленты. Append-only, кроме счётчика лайков.
type Post struct {
	ID        string    `json:"id"`
	AuthorID  string    `json:"author_id"`
	ClubID    string    `json:"club_id"`
	ClubName  string    `json:"club_name"`
	Body      string    `json:"body"`
	Likes     int       `json:"likes"`
	CreatedAt time.Time `json:"created_at"`
	Author    AuthorRef `json:"author"`
}

// Poll описывает опрос с фиксированным списком вариантов и сроком действия.
type Poll struct {
	ID        string    `json:"id"`
	Question  string    `json:"question"`
	Options   []string  `json:"options"`
	ExpiresAt time.Time `json:"expires_at"`
	CreatedAt time.Time `json:"created_at"`
}

// Expired сообщает, истёк ли опрос к моменту now.
func (p Poll) Expired(now time.Time) bool {
	return !now.Before(p.ExpiresAt)
}

// PollVote связывает (опрос, голосующий, индекс варианта).
// Инвариант: не более одного голоса на пару (опрос, голосующий).
type PollVote struct {
	ID          string    `json:"id"`
	PollID      string    `json:"poll_id"`
	VoterID     string    `json:"voter_id"`
	OptionIndex int       `json:"option_index"`
	CreatedAt   time.Time `json:"created_at"`
}

// PollResults — производные счётчики голосов. Никогда не хранятся в БД.
type PollResults struct {
	PollID string `json:"poll_id"`
	Counts []int  `json:"counts"`
	Total  int    `json:"total"`
}

// Percent возвращает долю варианта в процентах (0..100).
func (r PollResults) Percent(optionIndex int) int {
	if r.Total == 0 || optionIndex < 0 || optionIndex >= len(r.Counts) {
		return 0
	}
	return int(float64(r.Counts[optionIndex])/float64(r.Total)*100 + 0.5)
}

// Match описывает матч, на который принимаются прогнозы.
type Match struct {
	ID        string    `json:"id"`
	HomeTeam  string    `json:"home_team"`
	AwayTeam  string    `json:"away_team"`
	KickoffAt time.Time `json:"kickoff_at"`
}

// Prediction — прогноз счёта. Не более одного на пару (матч, пользователь);
// повторная отправка перезаписывает прежний прогноз.
type Prediction struct {
	ID            string    `json:"id"`
	MatchID       string    `json:"match_id"`
	UserID        string    `json:"user_id"`
	HomeScore     int       `json:"home_score"`
	AwayScore     int       `json:"away_score"`
	Graded        bool      `json:"graded"`
	Correct       bool      `json:"correct"`
	AwardedPoints int       `json:"awarded_points"`
	CreatedAt     time.Time `json:"created_at"`
	UpdatedAt     time.Time `json:"updated_at"`
}

// MatchResult — итоговый счёт матча, по которому оцениваются прогнозы.
type MatchResult struct {
	MatchID   string `json:"match_id"`
	HomeScore int    `json:"home_score"`
	AwayScore int    `json:"away_score"`
}

// Outcome возвращает исход: 1 — хозяева, -1 — гости, 0 — ничья.
func (r MatchResult) Outcome() int {
	switch {
	case r.HomeScore > r.AwayScore:
		return 1
	case r.HomeScore < r.AwayScore:
		return -1
	default:
		return 0
	}
}

// ClubStanding — агрегат клуба. Поддерживается воркером оценки,
// клиентская сторона его только читает.
type ClubStanding struct {
	ClubID       string `json:"club_id"`
	ClubName     string `json:"club_name"`
	TotalPoints  int    `json:"total_points"`
	TotalMembers int    `json:"total_members"`
}

// Location — результат обратного геокодирования.
type Location struct {
	City        string `json:"city,omitempty"`
	Country     string `json:"country,omitempty"`
	CountryCode string `json:"country_code,omitempty"`
}
