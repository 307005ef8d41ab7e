package server

import (
	"context"
	"net/http"
	"time"

	"github.com/acapretti/bogofree/internal/utils"
	"github.com/acapretti/bogofree/pkg/catalog"
	"github.com/acapretti/bogofree/pkg/hooks"
	"github.com/acapretti/bogofree/pkg/settings"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"golang.org/x/net/xsrftoken"
)

const (
	settingsPath = "/admin/settings"
	nonceField   = "bogo_settings_nonce"
	nonceAction  = "bogo_save_settings"

	// ManageOptions is the capability guarding every admin page.
	ManageOptions = "manage_options"
)

type Server struct {
	Settings settings.Repository
	Catalog  catalog.Catalog
	Bus      *hooks.Bus
	Username string
	Password string
	// Secret keys the settings form nonce.
	Secret string
	// Insecure allows settings writes when no credentials are configured.
	Insecure bool

	pages []hooks.MenuPage
}

// New builds a server. A nil cat lists no categories.
func New(repo settings.Repository, cat catalog.Catalog, bus *hooks.Bus, user, pass, secret string) *Server {
	if cat == nil {
		cat = &catalog.Static{}
	}
	s := &Server{
		Settings: repo,
		Catalog:  cat,
		Bus:      bus,
		Username: user,
		Password: pass,
		Secret:   secret,
	}
	bus.Subscribe(hooks.AdminMenu, hooks.StageDefault, "server.settings-page", s.addSettingsPage)
	return s
}

func (s *Server) addSettingsPage(_ context.Context, payload any) error {
	p, ok := payload.(*hooks.MenuPayload)
	if !ok {
		return nil
	}
	p.Pages = append(p.Pages, hooks.MenuPage{
		Slug:       "settings",
		Title:      "BOGO Free Settings",
		Capability: ManageOptions,
	})
	return nil
}

// Pages collects the admin pages offered on AdminMenu.
func (s *Server) Pages(ctx context.Context) ([]hooks.MenuPage, error) {
	var menu hooks.MenuPayload
	if err := s.Bus.Emit(ctx, hooks.AdminMenu, &menu); err != nil {
		return nil, err
	}
	return menu.Pages, nil
}

// Router builds the HTTP handler tree.
func (s *Server) Router(ctx context.Context) (http.Handler, error) {
	pages, err := s.Pages(ctx)
	if err != nil {
		return nil, err
	}

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("ok"))
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Route("/admin", func(r chi.Router) {
		r.Use(s.basicAuth)
		for _, p := range pages {
			if p.Slug != "settings" {
				continue
			}
			r.Get("/"+p.Slug, s.handleSettingsPage)
			r.With(s.requireCredentials).Post("/"+p.Slug, s.handleSettingsSubmit)
		}
	})

	r.Route("/api", func(r chi.Router) {
		r.Use(s.basicAuth)
		r.Get("/settings", s.handleGetSettings)
		r.With(s.requireCredentials).Put("/settings", s.handlePutSettings)
		r.With(s.requireCredentials).Delete("/settings", s.handleDeleteSettings)
		r.Post("/cart/before-totals", s.handleBeforeTotals)
	})

	return r, nil
}

func (s *Server) Start(ctx context.Context, addr string) error {
	h, err := s.Router(ctx)
	if err != nil {
		return err
	}
	srv := &http.Server{
		Addr:              addr,
		Handler:           h,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		utils.Log.Infof("Starting server on %s", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		return srv.Shutdown(shutdownCtx)
	}
}

func (s *Server) basicAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.Username == "" && s.Password == "" {
			next.ServeHTTP(w, r)
			return
		}
		user, pass, ok := r.BasicAuth()
		if !ok || user != s.Username || pass != s.Password {
			w.Header().Set("WWW-Authenticate", `Basic realm="Restricted"`)
			http.Error(w, "Unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// requireCredentials refuses settings writes on a server running without
// admin credentials, unless it was started as insecure.
func (s *Server) requireCredentials(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.Username == "" && s.Password == "" && !s.Insecure {
			http.Error(w, "Administrative credentials are not configured.", http.StatusForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// nonceUser is the identity the form nonce is bound to.
func (s *Server) nonceUser() string {
	if s.Username == "" {
		return "admin"
	}
	return s.Username
}

func (s *Server) formNonce() string {
	return xsrftoken.Generate(s.Secret, s.nonceUser(), nonceAction)
}

func (s *Server) validNonce(token string) bool {
	return xsrftoken.Valid(token, s.Secret, s.nonceUser(), nonceAction)
}
