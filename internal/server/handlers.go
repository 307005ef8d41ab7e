package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/acapretti/bogofree/internal/metrics"
	"github.com/acapretti/bogofree/internal/utils"
	"github.com/acapretti/bogofree/pkg/cart"
	"github.com/acapretti/bogofree/pkg/hooks"
	"github.com/acapretti/bogofree/pkg/promo"
	"github.com/acapretti/bogofree/pkg/settings"
)

// maxBodyBytes caps every request body.
const maxBodyBytes = 1 << 20

// readBody reads the whole request body up to maxBodyBytes. On failure the
// error response is already written.
func readBody(w http.ResponseWriter, r *http.Request) ([]byte, bool) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			http.Error(w, err.Error(), http.StatusRequestEntityTooLarge)
			return nil, false
		}
		http.Error(w, err.Error(), http.StatusBadRequest)
		return nil, false
	}
	return body, true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func (s *Server) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	cfg, err := s.Settings.Load(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, cfg)
}

func (s *Server) handlePutSettings(w http.ResponseWriter, r *http.Request) {
	body, ok := readBody(w, r)
	if !ok {
		return
	}
	cfg, err := settings.DecodeJSON(bytes.NewReader(body))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if err := s.Settings.Save(r.Context(), cfg); err != nil {
		var vErr *settings.ValidationError
		if errors.As(err, &vErr) {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	metrics.RecordSettingsSave()
	writeJSON(w, http.StatusOK, cfg)
}

func (s *Server) handleDeleteSettings(w http.ResponseWriter, r *http.Request) {
	if err := s.Bus.Emit(r.Context(), hooks.Uninstall, nil); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type TotalsResponse struct {
	Lines    []cart.Line      `json:"lines"`
	Total    string           `json:"total"`
	Skipped  bool             `json:"skipped"`
	Enabled  bool             `json:"enabled"`
	Qualify  bool             `json:"qualifies"`
	Added    []cart.Line      `json:"added"`
	Removed  []cart.Line      `json:"removed"`
	Failed   []cart.ProductID `json:"failed"`
	Repriced []string         `json:"repriced"`
}

// handleBeforeTotals runs one recalculation pass over the posted cart.
// Query flags admin and async describe the calling context.
func (s *Server) handleBeforeTotals(w http.ResponseWriter, r *http.Request) {
	body, ok := readBody(w, r)
	if !ok {
		return
	}
	c, err := cart.Decode(bytes.NewReader(body))
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	q := r.URL.Query()
	payload := &hooks.TotalsPayload{
		Cart:  c,
		Admin: queryBool(q.Get("admin")),
		Async: queryBool(q.Get("async")),
	}
	if err := s.Bus.Emit(r.Context(), hooks.BeforeTotals, payload); err != nil {
		utils.Log.Errorf("before-totals pass failed: %v", err)
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}

	report := promo.ReportFrom(payload)
	metrics.RecordPass(report)

	writeJSON(w, http.StatusOK, TotalsResponse{
		Lines:    c.Lines(),
		Total:    cart.Total(c).StringFixed(2),
		Skipped:  report.Skipped,
		Enabled:  report.Enabled,
		Qualify:  report.Qualifies,
		Added:    report.Added,
		Removed:  report.Removed,
		Failed:   report.Failed,
		Repriced: report.Repriced,
	})
}

func queryBool(v string) bool {
	b, _ := strconv.ParseBool(v)
	return b
}

func (s *Server) handleSettingsPage(w http.ResponseWriter, r *http.Request) {
	cfg, err := s.Settings.Load(r.Context())
	if err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
		return
	}
	s.renderSettings(w, r, http.StatusOK, cfg, nil)
}

func (s *Server) handleSettingsSubmit(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := r.ParseForm(); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if !s.validNonce(r.PostForm.Get(nonceField)) {
		http.Error(w, "Security check failed.", http.StatusForbidden)
		return
	}

	cfg := settings.ParseForm(r.PostForm)
	if err := s.Settings.Save(r.Context(), cfg); err != nil {
		utils.Log.Errorf("saving settings: %v", err)
		s.renderSettings(w, r, http.StatusInternalServerError, cfg, &Notice{Kind: "error", Message: "Settings could not be saved."})
		return
	}
	metrics.RecordSettingsSave()
	s.renderSettings(w, r, http.StatusOK, cfg, &Notice{Kind: "updated", Message: "Settings saved."})
}

func (s *Server) renderSettings(w http.ResponseWriter, r *http.Request, status int, cfg settings.Configuration, notice *Notice) {
	data := settingsPageData{
		Config: cfg,
		Nonce:  s.formNonce(),
		Notice: notice,
	}
	cats, err := s.Catalog.Categories(r.Context())
	if err != nil {
		utils.Log.Warnf("listing categories: %v", err)
		data.CategoriesErr = true
	}
	data.Categories = cats

	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.WriteHeader(status)
	if err := settingsPage(data).Render(w); err != nil {
		utils.Log.Errorf("rendering settings page: %v", err)
	}
}
