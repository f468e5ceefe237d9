package web

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	chi "github.com/go-chi/chi/v5"
	"github.com/rs/zerolog"

	"terrace/internal/domain"
	infrahttp "terrace/internal/infra/http"
	"terrace/internal/infra/metrics"
	"terrace/internal/sync"
	"terrace/internal/usecase/chat"
	"terrace/internal/usecase/feed"
)

const (
	outboundBuffer = 32
	sendCooldown   = time.Second
	writeTimeout   = 10 * time.Second
)

// Gateway гоняет виды по websocket: снапшот при подключении, затем
// дельты по мере событий шины. Один сокет — один вид.
type Gateway struct {
	bus      domain.EventBus
	presence domain.Presence
	chat     *chat.Service
	feed     *feed.Service
	profiles domain.ProfileRepo
	log      zerolog.Logger
}

// NewGateway создаёт realtime-шлюз.
func NewGateway(
	bus domain.EventBus,
	presence domain.Presence,
	chatSvc *chat.Service,
	feedSvc *feed.Service,
	profiles domain.ProfileRepo,
	logger zerolog.Logger,
) *Gateway {
	return &Gateway{
		bus:      bus,
		presence: presence,
		chat:     chatSvc,
		feed:     feedSvc,
		profiles: profiles,
		log:      logger,
	}
}

type frame struct {
	Type  string `json:"type"`
	Phase string `json:"phase,omitempty"`
	Items any    `json:"items,omitempty"`
	Item  any    `json:"item,omitempty"`
	Count *int   `json:"count,omitempty"`
	Error string `json:"error,omitempty"`
}

type inbound struct {
	Type string `json:"type"`
	Body string `json:"body"`
}

func phaseName(phase sync.Phase) string {
	switch phase {
	case sync.PhaseLoading:
		return "loading"
	case sync.PhaseEmpty:
		return "empty"
	default:
		return "ready"
	}
}

// ServeChat подключает клиента к виду чата. Клубный чат доступен только
// болельщикам клуба; общий — всем. Через сокет же принимается отправка
// сообщений, защищённая от повторного входа и дребезга.
func (g *Gateway) ServeChat(w http.ResponseWriter, r *http.Request) {
	scope := chi.URLParam(r, "scope")
	userID := infrahttp.UserID(r.Context())

	if scope != domain.ScopeGlobal {
		p, err := g.profiles.GetProfile(r.Context(), userID)
		if err != nil || p.ClubID != scope {
			infrahttp.WriteError(w, http.StatusForbidden, chat.ErrScopeForbidden)
			return
		}
	}

	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		g.log.Warn().Err(err).Msg("шлюз: рукопожатие не удалось")
		return
	}
	defer conn.Close(websocket.StatusInternalError, "внутренняя ошибка")

	metrics.RealtimeConnections.WithLabelValues("chat").Inc()
	defer metrics.RealtimeConnections.WithLabelValues("chat").Dec()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	view := sync.NewView[domain.Message](sync.OrderAsc, func(m domain.Message) string { return m.ID })
	out := make(chan frame, outboundBuffer)
	enqueue := func(f frame) {
		select {
		case out <- f:
		case <-ctx.Done():
		}
	}

	binder := sync.NewBinder(view, func(ctx context.Context) ([]domain.Message, error) {
		return g.chat.History(ctx, userID, scope)
	}, g.log)
	_ = binder.Bind(ctx) // ошибка уже залогирована, вид в согласованной фазе
	// Снапшот встаёт в очередь до запуска подписки: событие, пришедшее в
	// зазоре, не должно отрисоваться раньше снапшота, который его уже несёт.
	enqueue(frame{Type: "snapshot", Phase: phaseName(view.Phase()), Items: view.Items()})

	sub := sync.NewSubscriber(g.bus, domain.Topic(domain.TableMessages, scope), view, g.chat.Get, g.log).
		WithPresence(g.presence, scope, userID, func(count int) {
			c := count
			enqueue(frame{Type: "peers", Count: &c})
		}).
		WithApplied(func(m domain.Message) {
			enqueue(frame{Type: "append", Item: m})
		})
	if err := sub.Start(ctx); err != nil {
		g.log.Error().Err(err).Str("scope", scope).Msg("шлюз: подписка не запустилась")
		conn.Close(websocket.StatusInternalError, "подписка не запустилась")
		return
	}
	defer sub.Close()

	go g.writeLoop(ctx, cancel, conn, out)

	mutator := sync.NewMutator(g.log, sendCooldown)
	for {
		var in inbound
		if err := wsjson.Read(ctx, conn, &in); err != nil {
			cancel()
			return
		}
		if in.Type != "send" {
			continue
		}
		var sent domain.Message
		err := mutator.Run(ctx, sync.Op{
			Write: func(ctx context.Context) error {
				var err error
				sent, err = g.chat.Send(ctx, userID, scope, in.Body)
				return err
			},
		})
		if err != nil {
			enqueue(frame{Type: "error", Error: err.Error()})
			continue
		}
		// Оптимистичная отрисовка: эхо с шины дедуплицируется по id.
		if view.Apply(sent) {
			enqueue(frame{Type: "append", Item: sent})
		}
	}
}

// ServeFeed подключает клиента к виду ленты. Лента по сокету только
// читается: посты и лайки идут через REST.
func (g *Gateway) ServeFeed(w http.ResponseWriter, r *http.Request) {
	conn, err := websocket.Accept(w, r, nil)
	if err != nil {
		g.log.Warn().Err(err).Msg("шлюз: рукопожатие не удалось")
		return
	}
	defer conn.Close(websocket.StatusInternalError, "внутренняя ошибка")

	metrics.RealtimeConnections.WithLabelValues("feed").Inc()
	defer metrics.RealtimeConnections.WithLabelValues("feed").Dec()

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	view := sync.NewView[domain.Post](sync.OrderDesc, func(p domain.Post) string { return p.ID })
	out := make(chan frame, outboundBuffer)
	enqueue := func(f frame) {
		select {
		case out <- f:
		case <-ctx.Done():
		}
	}

	binder := sync.NewBinder(view, func(ctx context.Context) ([]domain.Post, error) {
		return g.feed.Recent(ctx)
	}, g.log)
	_ = binder.Bind(ctx)
	// Как и в чате: сначала снапшот, потом подписка.
	enqueue(frame{Type: "snapshot", Phase: phaseName(view.Phase()), Items: view.Items()})

	sub := sync.NewSubscriber(g.bus, domain.Topic(domain.TablePosts, ""), view, g.feed.Get, g.log).
		WithApplied(func(p domain.Post) {
			enqueue(frame{Type: "append", Item: p})
		})
	if err := sub.Start(ctx); err != nil {
		g.log.Error().Err(err).Msg("шлюз: подписка не запустилась")
		conn.Close(websocket.StatusInternalError, "подписка не запустилась")
		return
	}
	defer sub.Close()

	go g.writeLoop(ctx, cancel, conn, out)

	// Входящие фреймы ленте не нужны: читаем только для контроля закрытия.
	readCtx := conn.CloseRead(ctx)
	<-readCtx.Done()
}

func (g *Gateway) writeLoop(ctx context.Context, cancel context.CancelFunc, conn *websocket.Conn, out <-chan frame) {
	for {
		select {
		case <-ctx.Done():
			return
		case f := <-out:
			writeCtx, done := context.WithTimeout(ctx, writeTimeout)
			err := wsjson.Write(writeCtx, conn, f)
			done()
			if err != nil {
				if !errors.Is(err, context.Canceled) {
					g.log.Debug().Err(err).Msg("шлюз: запись в сокет не удалась")
				}
				cancel()
				return
			}
		}
	}
}
