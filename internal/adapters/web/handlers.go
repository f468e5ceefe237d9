// Package web — HTTP и websocket поверхность приложения.
package web

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	chi "github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/rs/zerolog"

	"terrace/internal/domain"
	infrahttp "terrace/internal/infra/http"
	"terrace/internal/usecase/chat"
	"terrace/internal/usecase/feed"
	"terrace/internal/usecase/leaderboard"
	"terrace/internal/usecase/polls"
	"terrace/internal/usecase/predictions"
	"terrace/internal/usecase/profile"
)

var errAdminForbidden = errors.New("нет доступа")

// Handler собирает REST-маршруты приложения.
type Handler struct {
	chat        *chat.Service
	feed        *feed.Service
	polls       *polls.Service
	predictions *predictions.Service
	leaderboard *leaderboard.Service
	profile     *profile.Service
	queue       domain.GradeQueue
	sessions    *infrahttp.Sessions
	gateway     *Gateway
	adminToken  string
	log         zerolog.Logger
}

// NewHandler создаёт обработчик.
func NewHandler(
	chatSvc *chat.Service,
	feedSvc *feed.Service,
	pollsSvc *polls.Service,
	predictionsSvc *predictions.Service,
	leaderboardSvc *leaderboard.Service,
	profileSvc *profile.Service,
	queue domain.GradeQueue,
	sessions *infrahttp.Sessions,
	gateway *Gateway,
	adminToken string,
	logger zerolog.Logger,
) *Handler {
	return &Handler{
		chat:        chatSvc,
		feed:        feedSvc,
		polls:       pollsSvc,
		predictions: predictionsSvc,
		leaderboard: leaderboardSvc,
		profile:     profileSvc,
		queue:       queue,
		sessions:    sessions,
		gateway:     gateway,
		adminToken:  adminToken,
		log:         logger,
	}
}

// Register вешает маршруты на роутер.
func (h *Handler) Register(r chi.Router) {
	r.Route("/api/v1", func(r chi.Router) {
		r.Use(middleware.Timeout(30 * time.Second))

		r.Get("/clubs", h.listClubs)
		r.Post("/onboarding", h.onboard)

		r.Group(func(r chi.Router) {
			r.Use(infrahttp.AuthMiddleware(h.sessions))

			r.Post("/auth/signout", h.signOut)

			r.Get("/chat/{scope}/messages", h.chatHistory)
			r.Post("/chat/{scope}/messages", h.sendMessage)

			r.Get("/feed", h.feedRecent)
			r.Post("/feed", h.createPost)
			r.Post("/feed/{id}/like", h.likePost)

			r.Get("/polls", h.pollsOverview)
			r.Post("/polls/{id}/vote", h.vote)

			r.Get("/matches", h.upcomingMatches)
			r.Get("/predictions", h.myPredictions)
			r.Put("/predictions/{matchID}", h.submitPrediction)

			r.Get("/leaderboard", h.topPlayers)
			r.Get("/standings", h.clubTable)

			r.Get("/profile", h.getProfile)
			r.Patch("/profile", h.rename)
			r.Post("/profile/location", h.detectLocation)
			r.Get("/profile/stats", h.stats)
			r.Get("/profile/rank", h.rank)
		})

		r.Post("/admin/results", h.submitResult)
	})

	// Realtime живёт вне Timeout-группы.
	r.Route("/ws", func(r chi.Router) {
		r.Use(infrahttp.AuthMiddleware(h.sessions))
		r.Get("/chat/{scope}", h.gateway.ServeChat)
		r.Get("/feed", h.gateway.ServeFeed)
	})
}

func (h *Handler) listClubs(w http.ResponseWriter, r *http.Request) {
	infrahttp.WriteJSON(w, http.StatusOK, domain.Clubs())
}

type onboardRequest struct {
	UserID   string `json:"user_id"`
	Email    string `json:"email"`
	FullName string `json:"full_name"`
	ClubID   string `json:"club_id"`
}

type sessionResponse struct {
	Token   string         `json:"token"`
	Profile domain.Profile `json:"profile"`
}

func (h *Handler) onboard(w http.ResponseWriter, r *http.Request) {
	var req onboardRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		infrahttp.WriteError(w, http.StatusBadRequest, err)
		return
	}
	if req.UserID == "" {
		infrahttp.WriteError(w, http.StatusBadRequest, errors.New("user_id обязателен"))
		return
	}
	saved, err := h.profile.Onboard(r.Context(), req.UserID, req.Email, req.FullName, req.ClubID)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	infrahttp.WriteJSON(w, http.StatusCreated, sessionResponse{
		Token:   h.sessions.Issue(saved.ID),
		Profile: saved,
	})
}

func (h *Handler) signOut(w http.ResponseWriter, r *http.Request) {
	if err := h.sessions.Revoke(infrahttp.BearerToken(r)); err != nil {
		infrahttp.WriteError(w, http.StatusBadRequest, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *Handler) chatHistory(w http.ResponseWriter, r *http.Request) {
	msgs, err := h.chat.History(r.Context(), infrahttp.UserID(r.Context()), chi.URLParam(r, "scope"))
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	infrahttp.WriteJSON(w, http.StatusOK, msgs)
}

type sendMessageRequest struct {
	Body string `json:"body"`
}

func (h *Handler) sendMessage(w http.ResponseWriter, r *http.Request) {
	var req sendMessageRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		infrahttp.WriteError(w, http.StatusBadRequest, err)
		return
	}
	msg, err := h.chat.Send(r.Context(), infrahttp.UserID(r.Context()), chi.URLParam(r, "scope"), req.Body)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	infrahttp.WriteJSON(w, http.StatusCreated, msg)
}

func (h *Handler) feedRecent(w http.ResponseWriter, r *http.Request) {
	posts, err := h.feed.Recent(r.Context())
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	infrahttp.WriteJSON(w, http.StatusOK, posts)
}

type createPostRequest struct {
	Body string `json:"body"`
}

func (h *Handler) createPost(w http.ResponseWriter, r *http.Request) {
	var req createPostRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		infrahttp.WriteError(w, http.StatusBadRequest, err)
		return
	}
	post, err := h.feed.Create(r.Context(), infrahttp.UserID(r.Context()), req.Body)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	infrahttp.WriteJSON(w, http.StatusCreated, post)
}

type likeRequest struct {
	KnownLikes int `json:"known_likes"`
}

func (h *Handler) likePost(w http.ResponseWriter, r *http.Request) {
	var req likeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		infrahttp.WriteError(w, http.StatusBadRequest, err)
		return
	}
	post, err := h.feed.Like(r.Context(), chi.URLParam(r, "id"), req.KnownLikes)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	infrahttp.WriteJSON(w, http.StatusOK, post)
}

func (h *Handler) pollsOverview(w http.ResponseWriter, r *http.Request) {
	views, err := h.polls.Overview(r.Context(), infrahttp.UserID(r.Context()))
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	infrahttp.WriteJSON(w, http.StatusOK, views)
}

type voteRequest struct {
	Option int `json:"option"`
}

func (h *Handler) vote(w http.ResponseWriter, r *http.Request) {
	var req voteRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		infrahttp.WriteError(w, http.StatusBadRequest, err)
		return
	}
	voteRec, err := h.polls.Vote(r.Context(), infrahttp.UserID(r.Context()), chi.URLParam(r, "id"), req.Option)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	infrahttp.WriteJSON(w, http.StatusCreated, voteRec)
}

func (h *Handler) upcomingMatches(w http.ResponseWriter, r *http.Request) {
	matches, err := h.predictions.Upcoming(r.Context())
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	infrahttp.WriteJSON(w, http.StatusOK, matches)
}

func (h *Handler) myPredictions(w http.ResponseWriter, r *http.Request) {
	mine, err := h.predictions.Mine(r.Context(), infrahttp.UserID(r.Context()))
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	infrahttp.WriteJSON(w, http.StatusOK, mine)
}

type predictionRequest struct {
	HomeScore int `json:"home_score"`
	AwayScore int `json:"away_score"`
}

func (h *Handler) submitPrediction(w http.ResponseWriter, r *http.Request) {
	var req predictionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		infrahttp.WriteError(w, http.StatusBadRequest, err)
		return
	}
	pred, err := h.predictions.Submit(r.Context(), infrahttp.UserID(r.Context()), chi.URLParam(r, "matchID"), req.HomeScore, req.AwayScore)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	infrahttp.WriteJSON(w, http.StatusOK, pred)
}

func (h *Handler) topPlayers(w http.ResponseWriter, r *http.Request) {
	board, err := h.leaderboard.TopPlayers(r.Context(), infrahttp.UserID(r.Context()))
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	infrahttp.WriteJSON(w, http.StatusOK, board)
}

func (h *Handler) clubTable(w http.ResponseWriter, r *http.Request) {
	table, err := h.leaderboard.ClubTable(r.Context())
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	infrahttp.WriteJSON(w, http.StatusOK, table)
}

func (h *Handler) getProfile(w http.ResponseWriter, r *http.Request) {
	p, err := h.profile.Get(r.Context(), infrahttp.UserID(r.Context()))
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	infrahttp.WriteJSON(w, http.StatusOK, p)
}

type renameRequest struct {
	FullName string `json:"full_name"`
}

func (h *Handler) rename(w http.ResponseWriter, r *http.Request) {
	var req renameRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		infrahttp.WriteError(w, http.StatusBadRequest, err)
		return
	}
	p, err := h.profile.Rename(r.Context(), infrahttp.UserID(r.Context()), req.FullName)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	infrahttp.WriteJSON(w, http.StatusOK, p)
}

type locationRequest struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

func (h *Handler) detectLocation(w http.ResponseWriter, r *http.Request) {
	var req locationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		infrahttp.WriteError(w, http.StatusBadRequest, err)
		return
	}
	loc := h.profile.DetectLocation(r.Context(), infrahttp.UserID(r.Context()), req.Lat, req.Lon)
	infrahttp.WriteJSON(w, http.StatusOK, loc)
}

func (h *Handler) stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.profile.Stats(r.Context(), infrahttp.UserID(r.Context()))
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	infrahttp.WriteJSON(w, http.StatusOK, stats)
}

func (h *Handler) rank(w http.ResponseWriter, r *http.Request) {
	card, err := h.profile.Rank(r.Context(), infrahttp.UserID(r.Context()))
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	infrahttp.WriteJSON(w, http.StatusOK, card)
}

type resultRequest struct {
	MatchID   string `json:"match_id"`
	HomeScore int    `json:"home_score"`
	AwayScore int    `json:"away_score"`
}

// submitResult принимает итоговый счёт и ставит задачу воркеру оценки.
// Доступ только по админскому токену.
func (h *Handler) submitResult(w http.ResponseWriter, r *http.Request) {
	if h.adminToken == "" || r.Header.Get("X-Admin-Token") != h.adminToken {
		infrahttp.WriteError(w, http.StatusForbidden, errAdminForbidden)
		return
	}
	var req resultRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		infrahttp.WriteError(w, http.StatusBadRequest, err)
		return
	}
	if req.MatchID == "" {
		infrahttp.WriteError(w, http.StatusBadRequest, errors.New("match_id обязателен"))
		return
	}
	job := domain.GradeJob{
		Result: domain.MatchResult{
			MatchID:   req.MatchID,
			HomeScore: req.HomeScore,
			AwayScore: req.AwayScore,
		},
		RequestedAt: time.Now(),
	}
	if err := h.queue.Enqueue(r.Context(), job); err != nil {
		infrahttp.WriteError(w, http.StatusInternalServerError, err)
		return
	}
	w.WriteHeader(http.StatusAccepted)
}

// writeServiceError переводит ошибки usecase-слоя в HTTP-статусы.
func (h *Handler) writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrProfileNotFound), errors.Is(err, domain.ErrRecordNotFound):
		infrahttp.WriteError(w, http.StatusNotFound, err)
	case errors.Is(err, chat.ErrScopeForbidden):
		infrahttp.WriteError(w, http.StatusForbidden, err)
	case errors.Is(err, polls.ErrAlreadyVoted):
		infrahttp.WriteError(w, http.StatusConflict, err)
	case errors.Is(err, chat.ErrEmptyMessage),
		errors.Is(err, chat.ErrMessageTooLong),
		errors.Is(err, feed.ErrEmptyPost),
		errors.Is(err, feed.ErrPostTooLong),
		errors.Is(err, polls.ErrPollExpired),
		errors.Is(err, polls.ErrBadOption),
		errors.Is(err, predictions.ErrMatchClosed),
		errors.Is(err, profile.ErrUnknownClub),
		errors.Is(err, profile.ErrEmptyName),
		errors.Is(err, profile.ErrNameTooLong):
		infrahttp.WriteError(w, http.StatusBadRequest, err)
	default:
		h.log.Error().Err(err).Msg("необработанная ошибка запроса")
		infrahttp.WriteError(w, http.StatusInternalServerError, err)
	}
}
