package httpapi

import (
	"context"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"github.com/dmitrijs2005/photovault/internal/logging"
	"github.com/dmitrijs2005/photovault/internal/server/services"
)

// Server is the HTTP front of the photo service.
type Server struct {
	address   string
	logger    logging.Logger
	users     *services.UserService
	photos    *services.PhotoService
	albums    *services.AlbumService
	jwtSecret []byte
}

func NewServer(address string, logger logging.Logger, us *services.UserService, ps *services.PhotoService, as *services.AlbumService, secretKey string) *Server {
	return &Server{
		address:   address,
		logger:    logger.With("module", "http_server"),
		users:     us,
		photos:    ps,
		albums:    as,
		jwtSecret: []byte(secretKey),
	}
}

// Router assembles the chi route tree.
func (s *Server) Router() http.Handler {
	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "POST", "PATCH", "DELETE", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		MaxAge:         300,
	}))

	r.Get("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"status":"ok"}`))
	})

	r.Route("/api", func(r chi.Router) {
		r.Route("/auth", func(r chi.Router) {
			r.Post("/signup", s.handleSignup)
			r.Post("/login", s.handleLogin)
			r.Post("/refresh", s.handleRefresh)
		})

		// Public, token-addressed shared albums: no authentication.
		r.Route("/public/albums", func(r chi.Router) {
			r.Get("/{token}", s.handleSharedAlbum)
			r.Get("/{token}/photos", s.handleSharedAlbumPhotos)
		})

		r.Group(func(r chi.Router) {
			r.Use(requireAuth(s.jwtSecret))

			r.Route("/photos", func(r chi.Router) {
				r.Get("/", s.handleListPhotos)
				r.Post("/", s.handleUploadPhoto)
				r.Get("/unassigned", s.handleListUnassignedPhotos)
				r.Get("/{id}", s.handleGetPhoto)
				r.Patch("/{id}", s.handleUpdatePhoto)
				r.Delete("/{id}", s.handleDeletePhoto)
			})

			r.Route("/albums", func(r chi.Router) {
				r.Get("/", s.handleListAlbums)
				r.Post("/", s.handleCreateAlbum)
				r.Get("/{id}", s.handleGetAlbum)
				r.Patch("/{id}", s.handleUpdateAlbum)
				r.Delete("/{id}", s.handleDeleteAlbum)
				r.Get("/{id}/photos", s.handleListAlbumPhotos)
				r.Post("/{id}/share", s.handleEnableSharing)
				r.Delete("/{id}/share", s.handleDisableSharing)
			})
		})
	})

	return r
}

// Run starts the HTTP server and shuts it down gracefully when ctx is
// cancelled.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:         s.address,
		Handler:      s.Router(),
		ReadTimeout:  30 * time.Second,
		WriteTimeout: 30 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info(ctx, "starting HTTP server", "address", s.address)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		s.logger.Info(ctx, "stopping HTTP server...")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	case err := <-errCh:
		return err
	}
}
