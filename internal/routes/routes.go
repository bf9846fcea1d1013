package routes

import (
	"log/slog"
	"net/http"
	"time"

	carthandler "cartstore/internal/handlers/cart"
	"cartstore/internal/session"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

type Routes struct {
	log           *slog.Logger
	cartHandler   *carthandler.Handler
	sessionCookie string
	staticDir     string
}

func New(log *slog.Logger, cartHandler *carthandler.Handler, sessionCookie string, staticDir string) *Routes {
	return &Routes{
		log:           log,
		cartHandler:   cartHandler,
		sessionCookie: sessionCookie,
		staticDir:     staticDir,
	}
}

func (rt *Routes) Register() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Recoverer)
	r.Use(rt.logRequests)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("ok"))
	})

	r.Group(func(r chi.Router) {
		r.Use(session.Middleware(rt.sessionCookie))

		r.Route("/cart", func(r chi.Router) {
			// GET /cart
			r.Get("/", rt.cartHandler.ViewCart)
			// GET /cart/count
			r.Get("/count", rt.cartHandler.CartCount)
			// POST /cart/items
			r.Post("/items", rt.cartHandler.AddToCart)
			// POST /cart/buy-now
			r.Post("/buy-now", rt.cartHandler.BuyNow)

			r.Route("/items/{id}", func(r chi.Router) {
				r.Post("/increment", withID(rt.cartHandler.Increment))
				r.Post("/decrement", withID(rt.cartHandler.Decrement))
				r.Post("/quantity", withID(rt.cartHandler.UpdateQuantity))
				r.Post("/remove", withID(rt.cartHandler.RemoveFromCart))
			})
		})

		r.Route("/api/cart", func(r chi.Router) {
			r.Get("/", rt.cartHandler.GetCartJSON)
			r.Put("/items/{id}", withID(rt.cartHandler.SetQuantityJSON))
			r.Delete("/items/{id}", withID(rt.cartHandler.DeleteItemJSON))
		})

		if rt.staticDir != "" {
			r.Handle("/*", http.FileServer(http.Dir(rt.staticDir)))
		}
	})

	return r
}

func withID(h func(http.ResponseWriter, *http.Request, string)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		h(w, r, chi.URLParam(r, "id"))
	}
}

func (rt *Routes) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
		start := time.Now()

		next.ServeHTTP(ww, r)

		rt.log.Info("request completed",
			slog.String("method", r.Method),
			slog.String("path", r.URL.Path),
			slog.Int("status", ww.Status()),
			slog.Int("bytes", ww.BytesWritten()),
			slog.String("request_id", middleware.GetReqID(r.Context())),
			slog.Duration("duration", time.Since(start)),
		)
	})
}
