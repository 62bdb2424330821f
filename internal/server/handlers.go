package server

import (
	"math"
	"net/http"
	"strconv"

	"github.com/disintegration/imaging"

	"github.com/matzehuels/globe/pkg/annotation"
	"github.com/matzehuels/globe/pkg/compositor"
	"github.com/matzehuels/globe/pkg/errors"
	"github.com/matzehuels/globe/pkg/geo"
	"github.com/matzehuels/globe/pkg/geocode"
	"github.com/matzehuels/globe/pkg/intel"
	"github.com/matzehuels/globe/pkg/workspace"
)

// =============================================================================
// Service
// =============================================================================

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]any{
		"status":     "ok",
		"map":        s.cfg.MapEnabled,
		"describer":  s.describer.Source(),
		"workspaces": s.registry.Len(),
	})
}

func (s *Server) handleDescribe(w http.ResponseWriter, r *http.Request) {
	var req intel.Request
	if err := decode(r, &req); err != nil {
		s.writeErr(w, err)
		return
	}
	if req.Mode == "" {
		req.Mode = intel.ModeFacts
	}
	mode, err := intel.ValidateMode(string(req.Mode))
	if err != nil {
		s.writeErr(w, err)
		return
	}
	req.Mode = mode
	if err := errors.ValidateLngLat(req.Lng, req.Lat); err != nil {
		s.writeErr(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]any{
		"place":  req.Name(),
		"mode":   req.Mode,
		"source": s.describer.Source(),
		"text":   s.describer.Describe(r.Context(), req),
	})
}

// =============================================================================
// Workspaces
// =============================================================================

func (s *Server) handleCreateWorkspace(w http.ResponseWriter, r *http.Request) {
	ws, err := s.registry.Create(r.Context())
	if err != nil {
		s.writeErr(w, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, ws.Info())
}

func (s *Server) handleListWorkspaces(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]any{"ids": s.registry.IDs()})
}

func (s *Server) handleGetWorkspace(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, workspaceFrom(r).Info())
}

func (s *Server) handleDeleteWorkspace(w http.ResponseWriter, r *http.Request) {
	if err := s.registry.Delete(workspaceFrom(r).ID()); err != nil {
		s.writeErr(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// Exploring
// =============================================================================

func (s *Server) handleClick(w http.ResponseWriter, r *http.Request) {
	var p geo.LngLat
	if err := decode(r, &p); err != nil {
		s.writeErr(w, err)
		return
	}
	res, err := workspaceFrom(r).Click(r.Context(), p)
	if err != nil {
		s.writeErr(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleSearch(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query().Get("q")
	features := workspaceFrom(r).Search(r.Context(), q)
	if features == nil {
		features = []geocode.Feature{}
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"query": q, "features": features})
}

type queryBody struct {
	Q string `json:"q"`
}

func (s *Server) handleType(w http.ResponseWriter, r *http.Request) {
	var body queryBody
	if err := decode(r, &body); err != nil {
		s.writeErr(w, err)
		return
	}
	gen := workspaceFrom(r).Type(body.Q)
	s.writeJSON(w, http.StatusAccepted, map[string]any{"generation": gen})
}

func (s *Server) handleSuggestions(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, workspaceFrom(r).Suggestions())
}

func (s *Server) handleSelect(w http.ResponseWriter, r *http.Request) {
	var f geocode.Feature
	if err := decode(r, &f); err != nil {
		s.writeErr(w, err)
		return
	}
	res, err := workspaceFrom(r).Select(r.Context(), f)
	if err != nil {
		s.writeErr(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, res)
}

func (s *Server) handleSummary(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, workspaceFrom(r).Summary())
}

// =============================================================================
// Info panel
// =============================================================================

type modeBody struct {
	Mode string `json:"mode"`
}

func (s *Server) handleSetMode(w http.ResponseWriter, r *http.Request) {
	var body modeBody
	if err := decode(r, &body); err != nil {
		s.writeErr(w, err)
		return
	}
	st, err := workspaceFrom(r).SetMode(r.Context(), body.Mode)
	if err != nil {
		s.writeErr(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, st)
}

func (s *Server) handleGetPanel(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, workspaceFrom(r).Panel())
}

func (s *Server) handleOpenPanel(w http.ResponseWriter, r *http.Request) {
	var place intel.Place
	if err := decode(r, &place); err != nil {
		s.writeErr(w, err)
		return
	}
	ws := workspaceFrom(r)
	if _, err := ws.OpenPanel(r.Context(), place); err != nil {
		s.writeErr(w, err)
		return
	}
	s.writeJSON(w, http.StatusAccepted, ws.Panel())
}

func (s *Server) handleClosePanel(w http.ResponseWriter, r *http.Request) {
	workspaceFrom(r).ClosePanel()
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// Markers
// =============================================================================

type colorBody struct {
	Color string `json:"color"`
}

func (s *Server) handleSetMarkerColor(w http.ResponseWriter, r *http.Request) {
	var body colorBody
	if err := decode(r, &body); err != nil {
		s.writeErr(w, err)
		return
	}
	if err := workspaceFrom(r).SetMarkerColor(body.Color); err != nil {
		s.writeErr(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, body)
}

type enabledBody struct {
	Enabled bool `json:"enabled"`
}

func (s *Server) handleSetMarkersEnabled(w http.ResponseWriter, r *http.Request) {
	var body enabledBody
	if err := decode(r, &body); err != nil {
		s.writeErr(w, err)
		return
	}
	workspaceFrom(r).SetMarkersEnabled(body.Enabled)
	s.writeJSON(w, http.StatusOK, body)
}

func (s *Server) handleListMarkers(w http.ResponseWriter, r *http.Request) {
	markers := workspaceFrom(r).Markers()
	if markers == nil {
		markers = []annotation.Marker{}
	}
	s.writeJSON(w, http.StatusOK, markers)
}

type markerBody struct {
	Position geo.LngLat `json:"position"`
	annotation.Style
}

func (s *Server) handleAddMarker(w http.ResponseWriter, r *http.Request) {
	var body markerBody
	if err := decode(r, &body); err != nil {
		s.writeErr(w, err)
		return
	}
	m, err := workspaceFrom(r).AddMarker(body.Position, body.Style)
	if err != nil {
		s.writeErr(w, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, m)
}

func (s *Server) handleClearMarkers(w http.ResponseWriter, r *http.Request) {
	workspaceFrom(r).ClearMarkers()
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleRemoveMarker(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "markerID", errors.ErrCodeMarkerNotFound)
	if err == nil {
		err = workspaceFrom(r).RemoveMarker(id)
	}
	if err != nil {
		s.writeErr(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// Legend
// =============================================================================

func (s *Server) handleListLegend(w http.ResponseWriter, r *http.Request) {
	items := workspaceFrom(r).LegendItems()
	if items == nil {
		items = []annotation.LegendItem{}
	}
	s.writeJSON(w, http.StatusOK, items)
}

func (s *Server) handleAddLegend(w http.ResponseWriter, r *http.Request) {
	var style annotation.Style
	if r.ContentLength != 0 {
		if err := decode(r, &style); err != nil {
			s.writeErr(w, err)
			return
		}
	}
	it, err := workspaceFrom(r).AddLegendItem(style)
	if err != nil {
		s.writeErr(w, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, it)
}

func (s *Server) handleUpdateLegend(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "itemID", errors.ErrCodeNotFound)
	if err != nil {
		s.writeErr(w, err)
		return
	}
	var patch annotation.LegendPatch
	if err := decode(r, &patch); err != nil {
		s.writeErr(w, err)
		return
	}
	it, err := workspaceFrom(r).UpdateLegendItem(id, patch)
	if err != nil {
		s.writeErr(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, it)
}

func (s *Server) handleMoveLegend(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "itemID", errors.ErrCodeNotFound)
	if err != nil {
		s.writeErr(w, err)
		return
	}
	var p geo.LngLat
	if err := decode(r, &p); err != nil {
		s.writeErr(w, err)
		return
	}
	it, err := workspaceFrom(r).MoveLegendItem(id, p)
	if err != nil {
		s.writeErr(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, it)
}

func (s *Server) handleRemoveLegend(w http.ResponseWriter, r *http.Request) {
	id, err := idParam(r, "itemID", errors.ErrCodeNotFound)
	if err == nil {
		err = workspaceFrom(r).RemoveLegendItem(id)
	}
	if err != nil {
		s.writeErr(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// =============================================================================
// Header and export
// =============================================================================

func (s *Server) handleSetHeader(w http.ResponseWriter, r *http.Request) {
	h, err := headerFromQuery(r)
	if err != nil {
		s.writeErr(w, err)
		return
	}
	img, err := imaging.Decode(http.MaxBytesReader(w, r.Body, s.cfg.MaxUploadBytes), imaging.AutoOrientation(true))
	if err != nil {
		s.writeErr(w, errors.Wrap(errors.ErrCodeInvalidImage, err, "cannot decode header image"))
		return
	}
	ws := workspaceFrom(r)
	if err := ws.SetHeader(img, h); err != nil {
		s.writeErr(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, ws.Info())
}

func headerFromQuery(r *http.Request) (workspace.Header, error) {
	q := r.URL.Query()
	h := workspace.Header{Anchor: compositor.Corner(q.Get("anchor"))}
	for name, dst := range map[string]*float64{"width": &h.Width, "x": &h.Offset.X, "y": &h.Offset.Y} {
		raw := q.Get(name)
		if raw == "" {
			continue
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
			return h, errors.New(errors.ErrCodeInvalidInput, "invalid %s %q", name, raw)
		}
		*dst = v
	}
	return h, nil
}

func (s *Server) handleRemoveHeader(w http.ResponseWriter, r *http.Request) {
	if err := workspaceFrom(r).SetHeader(nil, workspace.Header{}); err != nil {
		s.writeErr(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	res, _, err := workspaceFrom(r).Export(r.Context())
	if err != nil {
		s.writeErr(w, err)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Content-Disposition", `attachment; filename="`+res.Filename+`"`)
	w.Header().Set("Content-Length", strconv.Itoa(len(res.PNG)))
	w.Header().Set("X-Export-Scale", strconv.FormatFloat(res.Scale, 'f', -1, 64))
	w.WriteHeader(http.StatusOK)
	if _, err := w.Write(res.PNG); err != nil {
		s.logger.Warn("write export", "err", err)
	}
}
