package repo

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"terrace/internal/domain"
	"terrace/internal/infra/metrics"
)

// Postgres реализует репозитории на основе pgxpool.
type Postgres struct {
	pool *pgxpool.Pool
}

var (
	_ domain.ProfileRepo    = (*Postgres)(nil)
	_ domain.MessageRepo    = (*Postgres)(nil)
	_ domain.PostRepo       = (*Postgres)(nil)
	_ domain.PollRepo       = (*Postgres)(nil)
	_ domain.PredictionRepo = (*Postgres)(nil)
	_ domain.StandingRepo   = (*Postgres)(nil)
)

const uniqueViolation = "23505"

// NewPostgres создаёт адаптер БД.
func NewPostgres(pool *pgxpool.Pool) *Postgres {
	return &Postgres{pool: pool}
}

func (p *Postgres) connCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	if ctx == nil {
		ctx = context.Background()
	}
	if _, ok := ctx.Deadline(); ok {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, 5*time.Second)
}

// UpsertProfile сохраняет профиль. Повторный онбординг обновляет клуб и имя,
// не трогая накопленные очки и серию.
func (p *Postgres) UpsertProfile(ctx context.Context, profile domain.Profile) (domain.Profile, error) {
	ctx, cancel := p.connCtx(ctx)
	defer cancel()

	var saved domain.Profile
	start := time.Now()
	err := p.pool.QueryRow(ctx, `
INSERT INTO profiles (id, full_name, email, club_id, club_name)
VALUES ($1, $2, NULLIF($3,''), $4, $5)
ON CONFLICT (id) DO UPDATE SET full_name = EXCLUDED.full_name, club_id = EXCLUDED.club_id, club_name = EXCLUDED.club_name, updated_at = now()
RETURNING id, full_name, COALESCE(email,''), club_id, club_name, points, streak, COALESCE(city,''), COALESCE(country,''), COALESCE(country_code,''), created_at, updated_at
`, profile.ID, profile.FullName, profile.Email, profile.ClubID, profile.ClubName).
		Scan(&saved.ID, &saved.FullName, &saved.Email, &saved.ClubID, &saved.ClubName,
			&saved.Points, &saved.Streak, &saved.City, &saved.Country, &saved.CountryCode,
			&saved.CreatedAt, &saved.UpdatedAt)
	metrics.ObserveNetworkRequest("postgres", "profiles_upsert", "profiles", start, err)
	return saved, err
}

// GetProfile возвращает профиль по идентификатору.
func (p *Postgres) GetProfile(ctx context.Context, id string) (domain.Profile, error) {
	ctx, cancel := p.connCtx(ctx)
	defer cancel()

	var profile domain.Profile
	start := time.Now()
	err := p.pool.QueryRow(ctx, `
SELECT id, full_name, COALESCE(email,''), club_id, club_name, points, streak, COALESCE(city,''), COALESCE(country,''), COALESCE(country_code,''), created_at, updated_at
FROM profiles WHERE id=$1
`, id).Scan(&profile.ID, &profile.FullName, &profile.Email, &profile.ClubID, &profile.ClubName,
		&profile.Points, &profile.Streak, &profile.City, &profile.Country, &profile.CountryCode,
		&profile.CreatedAt, &profile.UpdatedAt)
	metrics.ObserveNetworkRequest("postgres", "profiles_get", "profiles", start, err)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Profile{}, domain.ErrProfileNotFound
	}
	return profile, err
}

// UpdateName обновляет отображаемое имя.
func (p *Postgres) UpdateName(ctx context.Context, id, fullName string) (domain.Profile, error) {
	ctx, cancel := p.connCtx(ctx)
	defer cancel()

	var profile domain.Profile
	start := time.Now()
	err := p.pool.QueryRow(ctx, `
UPDATE profiles SET full_name=$2, updated_at=now() WHERE id=$1
RETURNING id, full_name, COALESCE(email,''), club_id, club_name, points, streak, COALESCE(city,''), COALESCE(country,''), COALESCE(country_code,''), created_at, updated_at
`, id, fullName).Scan(&profile.ID, &profile.FullName, &profile.Email, &profile.ClubID, &profile.ClubName,
		&profile.Points, &profile.Streak, &profile.City, &profile.Country, &profile.CountryCode,
		&profile.CreatedAt, &profile.UpdatedAt)
	metrics.ObserveNetworkRequest("postgres", "profiles_update_name", "profiles", start, err)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Profile{}, domain.ErrProfileNotFound
	}
	return profile, err
}

// UpdateLocation сохраняет результат геокодирования.
func (p *Postgres) UpdateLocation(ctx context.Context, id string, loc domain.Location) error {
	ctx, cancel := p.connCtx(ctx)
	defer cancel()

	start := time.Now()
	_, err := p.pool.Exec(ctx, `
UPDATE profiles SET city=NULLIF($2,''), country=NULLIF($3,''), country_code=NULLIF($4,''), updated_at=now()
WHERE id=$1
`, id, loc.City, loc.Country, loc.CountryCode)
	metrics.ObserveNetworkRequest("postgres", "profiles_update_location", "profiles", start, err)
	return err
}

// AddPoints атомарно начисляет очки профилю.
func (p *Postgres) AddPoints(ctx context.Context, id string, delta int) error {
	ctx, cancel := p.connCtx(ctx)
	defer cancel()

	start := time.Now()
	_, err := p.pool.Exec(ctx, `UPDATE profiles SET points = points + $2, updated_at=now() WHERE id=$1`, id, delta)
	metrics.ObserveNetworkRequest("postgres", "profiles_add_points", "profiles", start, err)
	return err
}

// SetStreak выставляет длину серии.
func (p *Postgres) SetStreak(ctx context.Context, id string, streak int) error {
	ctx, cancel := p.connCtx(ctx)
	defer cancel()

	start := time.Now()
	_, err := p.pool.Exec(ctx, `UPDATE profiles SET streak=$2, updated_at=now() WHERE id=$1`, id, streak)
	metrics.ObserveNetworkRequest("postgres", "profiles_set_streak", "profiles", start, err)
	return err
}

// TopByPoints возвращает профили по убыванию очков.
func (p *Postgres) TopByPoints(ctx context.Context, limit int) ([]domain.Profile, error) {
	ctx, cancel := p.connCtx(ctx)
	defer cancel()

	start := time.Now()
	rows, err := p.pool.Query(ctx, `
SELECT id, full_name, COALESCE(email,''), club_id, club_name, points, streak, COALESCE(city,''), COALESCE(country,''), COALESCE(country_code,''), created_at, updated_at
FROM profiles
ORDER BY points DESC, created_at ASC
LIMIT $1
`, limit)
	metrics.ObserveNetworkRequest("postgres", "profiles_top_by_points", "profiles", start, err)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var profiles []domain.Profile
	for rows.Next() {
		var profile domain.Profile
		if err := rows.Scan(&profile.ID, &profile.FullName, &profile.Email, &profile.ClubID, &profile.ClubName,
			&profile.Points, &profile.Streak, &profile.City, &profile.Country, &profile.CountryCode,
			&profile.CreatedAt, &profile.UpdatedAt); err != nil {
			return nil, err
		}
		profiles = append(profiles, profile)
	}
	return profiles, rows.Err()
}

const messageColumns = `
m.id, m.scope, m.author_id, m.club_name, m.body, m.created_at,
COALESCE(a.full_name,''), COALESCE(a.email,''), COALESCE(a.club_id,''), COALESCE(a.club_name,'')`

func scanMessage(row pgx.Row) (domain.Message, error) {
	var msg domain.Message
	err := row.Scan(&msg.ID, &msg.Scope, &msg.AuthorID, &msg.ClubName, &msg.Body, &msg.CreatedAt,
		&msg.Author.FullName, &msg.Author.Email, &msg.Author.ClubID, &msg.Author.ClubName)
	return msg, err
}

// InsertMessage сохраняет сообщение чата.
func (p *Postgres) InsertMessage(ctx context.Context, msg domain.Message) (domain.Message, error) {
	ctx, cancel := p.connCtx(ctx)
	defer cancel()

	start := time.Now()
	_, err := p.pool.Exec(ctx, `
INSERT INTO messages (id, scope, author_id, club_name, body)
VALUES ($1, $2, $3, $4, $5)
`, msg.ID, msg.Scope, msg.AuthorID, msg.ClubName, msg.Body)
	metrics.ObserveNetworkRequest("postgres", "messages_insert", "messages", start, err)
	if err != nil {
		return domain.Message{}, err
	}
	return p.GetMessage(ctx, msg.ID)
}

// GetMessage возвращает сообщение с полями автора.
func (p *Postgres) GetMessage(ctx context.Context, id string) (domain.Message, error) {
	ctx, cancel := p.connCtx(ctx)
	defer cancel()

	start := time.Now()
	msg, err := scanMessage(p.pool.QueryRow(ctx, `
SELECT `+messageColumns+`
FROM messages m LEFT JOIN profiles a ON a.id = m.author_id
WHERE m.id=$1
`, id))
	metrics.ObserveNetworkRequest("postgres", "messages_get", "messages", start, err)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Message{}, domain.ErrRecordNotFound
	}
	return msg, err
}

// ListMessages возвращает последние сообщения скоупа в хронологическом порядке.
func (p *Postgres) ListMessages(ctx context.Context, scope string, limit int) ([]domain.Message, error) {
	ctx, cancel := p.connCtx(ctx)
	defer cancel()

	// Последняя страница выбирается по убыванию и разворачивается:
	// клиент рисует историю сверху вниз.
	start := time.Now()
	rows, err := p.pool.Query(ctx, `
SELECT * FROM (
    SELECT `+messageColumns+`
    FROM messages m LEFT JOIN profiles a ON a.id = m.author_id
    WHERE m.scope=$1
    ORDER BY m.created_at DESC
    LIMIT $2
) page ORDER BY created_at ASC
`, scope, limit)
	metrics.ObserveNetworkRequest("postgres", "messages_list", "messages", start, err)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var msgs []domain.Message
	for rows.Next() {
		msg, err := scanMessage(rows)
		if err != nil {
			return nil, err
		}
		msgs = append(msgs, msg)
	}
	return msgs, rows.Err()
}

const postColumns = `
p.id, p.author_id, p.club_id, p.club_name, p.body, p.likes, p.created_at,
COALESCE(a.full_name,''), COALESCE(a.email,''), COALESCE(a.club_id,''), COALESCE(a.club_name,'')`

func scanPost(row pgx.Row) (domain.Post, error) {
	var post domain.Post
	err := row.Scan(&post.ID, &post.AuthorID, &post.ClubID, &post.ClubName, &post.Body, &post.Likes, &post.CreatedAt,
		&post.Author.FullName, &post.Author.Email, &post.Author.ClubID, &post.Author.ClubName)
	return post, err
}

// InsertPost сохраняет пост ленты.
func (p *Postgres) InsertPost(ctx context.Context, post domain.Post) (domain.Post, error) {
	ctx, cancel := p.connCtx(ctx)
	defer cancel()

	start := time.Now()
	_, err := p.pool.Exec(ctx, `
INSERT INTO posts (id, author_id, club_id, club_name, body, likes)
VALUES ($1, $2, $3, $4, $5, $6)
`, post.ID, post.AuthorID, post.ClubID, post.ClubName, post.Body, post.Likes)
	metrics.ObserveNetworkRequest("postgres", "posts_insert", "posts", start, err)
	if err != nil {
		return domain.Post{}, err
	}
	return p.GetPost(ctx, post.ID)
}

// GetPost возвращает пост с полями автора.
func (p *Postgres) GetPost(ctx context.Context, id string) (domain.Post, error) {
	ctx, cancel := p.connCtx(ctx)
	defer cancel()

	start := time.Now()
	post, err := scanPost(p.pool.QueryRow(ctx, `
SELECT `+postColumns+`
FROM posts p LEFT JOIN profiles a ON a.id = p.author_id
WHERE p.id=$1
`, id))
	metrics.ObserveNetworkRequest("postgres", "posts_get", "posts", start, err)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Post{}, domain.ErrRecordNotFound
	}
	return post, err
}

// ListPosts возвращает последние посты, свежие первыми.
func (p *Postgres) ListPosts(ctx context.Context, limit int) ([]domain.Post, error) {
	ctx, cancel := p.connCtx(ctx)
	defer cancel()

	start := time.Now()
	rows, err := p.pool.Query(ctx, `
SELECT `+postColumns+`
FROM posts p LEFT JOIN profiles a ON a.id = p.author_id
ORDER BY p.created_at DESC
LIMIT $1
`, limit)
	metrics.ObserveNetworkRequest("postgres", "posts_list", "posts", start, err)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var posts []domain.Post
	for rows.Next() {
		post, err := scanPost(rows)
		if err != nil {
			return nil, err
		}
		posts = append(posts, post)
	}
	return posts, rows.Err()
}

// SetLikes перезаписывает счётчик лайков значением клиента.
func (p *Postgres) SetLikes(ctx context.Context, id string, likes int) (domain.Post, error) {
	ctx, cancel := p.connCtx(ctx)
	defer cancel()

	start := time.Now()
	tag, err := p.pool.Exec(ctx, `UPDATE posts SET likes=$2 WHERE id=$1`, id, likes)
	metrics.ObserveNetworkRequest("postgres", "posts_set_likes", "posts", start, err)
	if err != nil {
		return domain.Post{}, err
	}
	if tag.RowsAffected() == 0 {
		return domain.Post{}, domain.ErrRecordNotFound
	}
	return p.GetPost(ctx, id)
}

// ListPolls возвращает опросы, свежие первыми.
func (p *Postgres) ListPolls(ctx context.Context) ([]domain.Poll, error) {
	ctx, cancel := p.connCtx(ctx)
	defer cancel()

	start := time.Now()
	rows, err := p.pool.Query(ctx, `
SELECT id, question, options, expires_at, created_at
FROM polls
ORDER BY created_at DESC
`)
	metrics.ObserveNetworkRequest("postgres", "polls_list", "polls", start, err)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var polls []domain.Poll
	for rows.Next() {
		var poll domain.Poll
		if err := rows.Scan(&poll.ID, &poll.Question, &poll.Options, &poll.ExpiresAt, &poll.CreatedAt); err != nil {
			return nil, err
		}
		polls = append(polls, poll)
	}
	return polls, rows.Err()
}

// GetPoll возвращает опрос по идентификатору.
func (p *Postgres) GetPoll(ctx context.Context, id string) (domain.Poll, error) {
	ctx, cancel := p.connCtx(ctx)
	defer cancel()

	var poll domain.Poll
	start := time.Now()
	err := p.pool.QueryRow(ctx, `
SELECT id, question, options, expires_at, created_at FROM polls WHERE id=$1
`, id).Scan(&poll.ID, &poll.Question, &poll.Options, &poll.ExpiresAt, &poll.CreatedAt)
	metrics.ObserveNetworkRequest("postgres", "polls_get", "polls", start, err)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Poll{}, domain.ErrRecordNotFound
	}
	return poll, err
}

// InsertVote сохраняет голос. Инвариант «не более одного голоса на пару
// (опрос, голосующий)» держит уникальный ключ таблицы.
func (p *Postgres) InsertVote(ctx context.Context, vote domain.PollVote) (domain.PollVote, error) {
	ctx, cancel := p.connCtx(ctx)
	defer cancel()

	start := time.Now()
	err := p.pool.QueryRow(ctx, `
INSERT INTO poll_votes (id, poll_id, voter_id, option_index)
VALUES ($1, $2, $3, $4)
RETURNING created_at
`, vote.ID, vote.PollID, vote.VoterID, vote.OptionIndex).Scan(&vote.CreatedAt)
	metrics.ObserveNetworkRequest("postgres", "poll_votes_insert", "poll_votes", start, err)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == uniqueViolation {
			return domain.PollVote{}, domain.ErrDuplicateVote
		}
		return domain.PollVote{}, err
	}
	return vote, nil
}

// ListUserVotes возвращает голоса пользователя по всем опросам.
func (p *Postgres) ListUserVotes(ctx context.Context, voterID string) ([]domain.PollVote, error) {
	ctx, cancel := p.connCtx(ctx)
	defer cancel()

	start := time.Now()
	rows, err := p.pool.Query(ctx, `
SELECT id, poll_id, voter_id, option_index, created_at
FROM poll_votes WHERE voter_id=$1
`, voterID)
	metrics.ObserveNetworkRequest("postgres", "poll_votes_list_user", "poll_votes", start, err)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var votes []domain.PollVote
	for rows.Next() {
		var vote domain.PollVote
		if err := rows.Scan(&vote.ID, &vote.PollID, &vote.VoterID, &vote.OptionIndex, &vote.CreatedAt); err != nil {
			return nil, err
		}
		votes = append(votes, vote)
	}
	return votes, rows.Err()
}

// CountVotes считает голоса опроса по вариантам.
func (p *Postgres) CountVotes(ctx context.Context, pollID string, optionCount int) (domain.PollResults, error) {
	ctx, cancel := p.connCtx(ctx)
	defer cancel()

	results := domain.PollResults{PollID: pollID, Counts: make([]int, optionCount)}
	start := time.Now()
	rows, err := p.pool.Query(ctx, `
SELECT option_index, COUNT(*) FROM poll_votes WHERE poll_id=$1 GROUP BY option_index
`, pollID)
	metrics.ObserveNetworkRequest("postgres", "poll_votes_count", "poll_votes", start, err)
	if err != nil {
		return domain.PollResults{}, err
	}
	defer rows.Close()
	for rows.Next() {
		var idx, count int
		if err := rows.Scan(&idx, &count); err != nil {
			return domain.PollResults{}, err
		}
		if idx >= 0 && idx < optionCount {
			results.Counts[idx] = count
			results.Total += count
		}
	}
	return results, rows.Err()
}

// UpsertPrediction сохраняет прогноз. Повторная отправка по той же паре
// (матч, пользователь) перезаписывает счёт и сбрасывает оценку.
func (p *Postgres) UpsertPrediction(ctx context.Context, pred domain.Prediction) (domain.Prediction, error) {
	ctx, cancel := p.connCtx(ctx)
	defer cancel()

	var saved domain.Prediction
	start := time.Now()
	err := p.pool.QueryRow(ctx, `
INSERT INTO predictions (id, match_id, user_id, home_score, away_score)
VALUES ($1, $2, $3, $4, $5)
ON CONFLICT (match_id, user_id) DO UPDATE SET home_score = EXCLUDED.home_score, away_score = EXCLUDED.away_score, graded = false, correct = false, awarded_points = 0, updated_at = now()
RETURNING id, match_id, user_id, home_score, away_score, graded, correct, awarded_points, created_at, updated_at
`, pred.ID, pred.MatchID, pred.UserID, pred.HomeScore, pred.AwayScore).
		Scan(&saved.ID, &saved.MatchID, &saved.UserID, &saved.HomeScore, &saved.AwayScore,
			&saved.Graded, &saved.Correct, &saved.AwardedPoints, &saved.CreatedAt, &saved.UpdatedAt)
	metrics.ObserveNetworkRequest("postgres", "predictions_upsert", "predictions", start, err)
	return saved, err
}

func (p *Postgres) listPredictions(ctx context.Context, operation, where string, arg any) ([]domain.Prediction, error) {
	ctx, cancel := p.connCtx(ctx)
	defer cancel()

	start := time.Now()
	rows, err := p.pool.Query(ctx, `
SELECT id, match_id, user_id, home_score, away_score, graded, correct, awarded_points, created_at, updated_at
FROM predictions WHERE `+where+`
ORDER BY created_at DESC
`, arg)
	metrics.ObserveNetworkRequest("postgres", operation, "predictions", start, err)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var preds []domain.Prediction
	for rows.Next() {
		var pred domain.Prediction
		if err := rows.Scan(&pred.ID, &pred.MatchID, &pred.UserID, &pred.HomeScore, &pred.AwayScore,
			&pred.Graded, &pred.Correct, &pred.AwardedPoints, &pred.CreatedAt, &pred.UpdatedAt); err != nil {
			return nil, err
		}
		preds = append(preds, pred)
	}
	return preds, rows.Err()
}

// ListUserPredictions возвращает прогнозы пользователя.
func (p *Postgres) ListUserPredictions(ctx context.Context, userID string) ([]domain.Prediction, error) {
	return p.listPredictions(ctx, "predictions_list_user", "user_id=$1", userID)
}

// ListMatchPredictions возвращает прогнозы матча.
func (p *Postgres) ListMatchPredictions(ctx context.Context, matchID string) ([]domain.Prediction, error) {
	return p.listPredictions(ctx, "predictions_list_match", "match_id=$1", matchID)
}

// MarkGraded фиксирует результат оценки прогноза.
func (p *Postgres) MarkGraded(ctx context.Context, id string, correct bool, points int) error {
	ctx, cancel := p.connCtx(ctx)
	defer cancel()

	start := time.Now()
	_, err := p.pool.Exec(ctx, `
UPDATE predictions SET graded=true, correct=$2, awarded_points=$3, updated_at=now() WHERE id=$1
`, id, correct, points)
	metrics.ObserveNetworkRequest("postgres", "predictions_mark_graded", "predictions", start, err)
	return err
}

// ListUpcomingMatches возвращает матчи с началом позже from.
func (p *Postgres) ListUpcomingMatches(ctx context.Context, from time.Time) ([]domain.Match, error) {
	ctx, cancel := p.connCtx(ctx)
	defer cancel()

	start := time.Now()
	rows, err := p.pool.Query(ctx, `
SELECT id, home_team, away_team, kickoff_at
FROM matches WHERE kickoff_at > $1
ORDER BY kickoff_at ASC
`, from)
	metrics.ObserveNetworkRequest("postgres", "matches_list_upcoming", "matches", start, err)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var matches []domain.Match
	for rows.Next() {
		var match domain.Match
		if err := rows.Scan(&match.ID, &match.HomeTeam, &match.AwayTeam, &match.KickoffAt); err != nil {
			return nil, err
		}
		matches = append(matches, match)
	}
	return matches, rows.Err()
}

// ListStandings возвращает зачёт клубов.
func (p *Postgres) ListStandings(ctx context.Context) ([]domain.ClubStanding, error) {
	ctx, cancel := p.connCtx(ctx)
	defer cancel()

	start := time.Now()
	rows, err := p.pool.Query(ctx, `
SELECT club_id, club_name, total_points, total_members
FROM club_standings
ORDER BY total_points DESC, club_name ASC
`)
	metrics.ObserveNetworkRequest("postgres", "club_standings_list", "club_standings", start, err)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var standings []domain.ClubStanding
	for rows.Next() {
		var standing domain.ClubStanding
		if err := rows.Scan(&standing.ClubID, &standing.ClubName, &standing.TotalPoints, &standing.TotalMembers); err != nil {
			return nil, err
		}
		standings = append(standings, standing)
	}
	return standings, rows.Err()
}

// AddClubPoints атомарно начисляет очки клубу.
func (p *Postgres) AddClubPoints(ctx context.Context, clubID string, delta int) error {
	ctx, cancel := p.connCtx(ctx)
	defer cancel()

	start := time.Now()
	_, err := p.pool.Exec(ctx, `
UPDATE club_standings SET total_points = total_points + $2 WHERE club_id=$1
`, clubID, delta)
	metrics.ObserveNetworkRequest("postgres", "club_standings_add_points", "club_standings", start, err)
	return err
}

// AddClubMember учитывает нового болельщика клуба.
func (p *Postgres) AddClubMember(ctx context.Context, clubID, clubName string) error {
	ctx, cancel := p.connCtx(ctx)
	defer cancel()

	start := time.Now()
	_, err := p.pool.Exec(ctx, `
INSERT INTO club_standings (club_id, club_name, total_points, total_members)
VALUES ($1, $2, 0, 1)
ON CONFLICT (club_id) DO UPDATE SET total_members = club_standings.total_members + 1
`, clubID, clubName)
	metrics.ObserveNetworkRequest("postgres", "club_standings_add_member", "club_standings", start, err)
	return err
}

// RemoveClubMember списывает болельщика при смене клуба.
func (p *Postgres) RemoveClubMember(ctx context.Context, clubID string) error {
	ctx, cancel := p.connCtx(ctx)
	defer cancel()

	start := time.Now()
	_, err := p.pool.Exec(ctx, `
UPDATE club_standings SET total_members = GREATEST(total_members - 1, 0) WHERE club_id=$1
`, clubID)
	metrics.ObserveNetworkRequest("postgres", "club_standings_remove_member", "club_standings", start, err)
	return err
}
