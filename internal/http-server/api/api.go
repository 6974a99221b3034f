package api

import (
	"fmt"
	"log/slog"
	"net"
	"net/http"

	"danceschool/internal/config"
	"danceschool/internal/http-server/handlers/chat"
	"danceschool/internal/http-server/handlers/errors"
	"danceschool/internal/http-server/handlers/health"
	privatechat "danceschool/internal/http-server/handlers/private-chat"
	"danceschool/internal/http-server/handlers/user"
	"danceschool/internal/http-server/middleware/authenticate"
	"danceschool/internal/http-server/middleware/logger"
	"danceschool/internal/http-server/middleware/timeout"
	"danceschool/internal/lib/sl"
	"danceschool/internal/ws"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/render"
)

type Server struct {
	conf       *config.Config
	httpServer *http.Server
	log        *slog.Logger
}

type Handler interface {
	authenticate.Authenticate
	chat.Core
	privatechat.Core
	user.Core
	health.Core
}

func NewRouter(conf *config.Config, log *slog.Logger, handler Handler, hub *ws.Hub) http.Handler {
	router := chi.NewRouter()
	router.Use(middleware.RequestID)
	router.Use(middleware.Recoverer)
	router.Use(logger.New(log))
	router.Use(cors.Handler(cors.Options{
		AllowedOrigins:   conf.Cors.Origins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: true,
		MaxAge:           300,
	}))

	router.NotFound(errors.NotFound(log))
	router.MethodNotAllowed(errors.NotAllowed(log))

	router.Route("/api", func(api chi.Router) {
		// the websocket outlives any request timeout
		api.Get("/ws", func(w http.ResponseWriter, r *http.Request) {
			ws.ServeWs(hub, handler, log, w, r)
		})

		api.Group(func(r chi.Router) {
			r.Use(timeout.Timeout(conf.Listen.Timeout))
			r.Use(render.SetContentType(render.ContentTypeJSON))

			r.Get("/health", health.Health(log, handler))
			r.Post("/auth/login", user.Login(log, handler))

			r.Group(func(r chi.Router) {
				r.Use(authenticate.New(log, handler))

				r.Route("/auth", func(r chi.Router) {
					r.Get("/me", user.GetUser(log))
					r.Post("/register", user.CreateUser(log, handler))
				})
				r.Route("/chat", func(r chi.Router) {
					r.Get("/my-chats", chat.MyChats(log, handler))
					r.Get("/conversations", chat.Conversations(log, handler))
					r.Get("/group/{groupId}", chat.GetGroupChat(log, handler))
					r.Post("/group/{groupId}/messages", chat.SendGroupMessage(log, handler))
					r.Put("/group/{groupId}/messages/{messageId}/read", chat.MarkMessageRead(log, handler))
				})
				r.Route("/private-chat", func(r chi.Router) {
					r.Get("/chats", privatechat.ListChats(log, handler))
					r.Get("/users", privatechat.ListUsers(log, handler))
					r.Get("/chats/{partnerId}", privatechat.GetChat(log, handler))
					r.Post("/chats/{partnerId}/messages", privatechat.SendMessage(log, handler))
				})
			})
		})
	})

	return router
}

func New(conf *config.Config, log *slog.Logger, handler Handler, hub *ws.Hub) error {

	server := Server{
		conf: conf,
		log:  log.With(sl.Module("api.server")),
	}

	httpLog := slog.NewLogLogger(log.Handler(), slog.LevelError)
	server.httpServer = &http.Server{
		Handler:  NewRouter(conf, log, handler, hub),
		ErrorLog: httpLog,
	}

	serverAddress := fmt.Sprintf("%s:%s", conf.Listen.BindIP, conf.Listen.Port)
	listener, err := net.Listen("tcp", serverAddress)
	if err != nil {
		return err
	}

	server.log.Info("starting api server", slog.String("address", serverAddress))

	return server.httpServer.Serve(listener)
}
