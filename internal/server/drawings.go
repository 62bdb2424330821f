package server

import (
	"net/http"

	"github.com/matzehuels/globe/pkg/drawing"
	"github.com/matzehuels/globe/pkg/errors"
	"github.com/matzehuels/globe/pkg/geo"
)

type startBody struct {
	Color string `json:"color"`
	Label string `json:"label"`
}

type labelBody struct {
	Label string `json:"label"`
}

type pointerBody struct {
	Button int `json:"button"`
	geo.LngLat
}

type strokeBody struct {
	Points []geo.LngLat `json:"points"`
}

func drawingID(r *http.Request) (int64, error) {
	return idParam(r, "drawingID", errors.ErrCodeDrawingNotFound)
}

func (s *Server) handleListDrawings(w http.ResponseWriter, r *http.Request) {
	ds := workspaceFrom(r).Drawings()
	if ds == nil {
		ds = []drawing.Drawing{}
	}
	s.writeJSON(w, http.StatusOK, ds)
}

func (s *Server) handleStartDrawing(w http.ResponseWriter, r *http.Request) {
	var body startBody
	if r.ContentLength != 0 {
		if err := decode(r, &body); err != nil {
			s.writeErr(w, err)
			return
		}
	}
	d, err := workspaceFrom(r).StartDrawing(body.Color, body.Label)
	if err != nil {
		s.writeErr(w, err)
		return
	}
	s.writeJSON(w, http.StatusCreated, d)
}

func (s *Server) handleRemoveAllDrawings(w http.ResponseWriter, r *http.Request) {
	workspaceFrom(r).RemoveAllDrawings()
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleFinishDrawing(w http.ResponseWriter, r *http.Request) {
	workspaceFrom(r).FinishDrawing()
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleGetDrawing(w http.ResponseWriter, r *http.Request) {
	id, err := drawingID(r)
	if err != nil {
		s.writeErr(w, err)
		return
	}
	d, err := workspaceFrom(r).Drawing(id)
	if err != nil {
		s.writeErr(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, d)
}

// drawingOp runs op on the drawing named in the URL and answers with the
// drawing's new state.
func (s *Server) drawingOp(w http.ResponseWriter, r *http.Request, op func(id int64) error) {
	id, err := drawingID(r)
	if err != nil {
		s.writeErr(w, err)
		return
	}
	if err := op(id); err != nil {
		s.writeErr(w, err)
		return
	}
	d, err := workspaceFrom(r).Drawing(id)
	if err != nil {
		s.writeErr(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, d)
}

func (s *Server) handleEditDrawing(w http.ResponseWriter, r *http.Request) {
	s.drawingOp(w, r, workspaceFrom(r).EditDrawing)
}

func (s *Server) handleUndoDrawing(w http.ResponseWriter, r *http.Request) {
	s.drawingOp(w, r, workspaceFrom(r).UndoStroke)
}

func (s *Server) handleClearDrawing(w http.ResponseWriter, r *http.Request) {
	s.drawingOp(w, r, workspaceFrom(r).ClearDrawing)
}

func (s *Server) handleSetDrawingColor(w http.ResponseWriter, r *http.Request) {
	var body colorBody
	if err := decode(r, &body); err != nil {
		s.writeErr(w, err)
		return
	}
	s.drawingOp(w, r, func(id int64) error {
		return workspaceFrom(r).SetDrawingColor(id, body.Color)
	})
}

func (s *Server) handleSetDrawingLabel(w http.ResponseWriter, r *http.Request) {
	var body labelBody
	if err := decode(r, &body); err != nil {
		s.writeErr(w, err)
		return
	}
	s.drawingOp(w, r, func(id int64) error {
		return workspaceFrom(r).SetDrawingLabel(id, body.Label)
	})
}

func (s *Server) handleRemoveDrawing(w http.ResponseWriter, r *http.Request) {
	id, err := drawingID(r)
	if err == nil {
		err = workspaceFrom(r).RemoveDrawing(id)
	}
	if err != nil {
		s.writeErr(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handlePointerDown(w http.ResponseWriter, r *http.Request) {
	var body pointerBody
	if err := decode(r, &body); err != nil {
		s.writeErr(w, err)
		return
	}
	opened, err := workspaceFrom(r).PointerDown(body.Button, body.LngLat)
	if err != nil {
		s.writeErr(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]bool{"drawing": opened})
}

func (s *Server) handlePointerMove(w http.ResponseWriter, r *http.Request) {
	var p geo.LngLat
	if err := decode(r, &p); err != nil {
		s.writeErr(w, err)
		return
	}
	added, err := workspaceFrom(r).PointerMove(p)
	if err != nil {
		s.writeErr(w, err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]bool{"added": added})
}

func (s *Server) handlePointerUp(w http.ResponseWriter, r *http.Request) {
	workspaceFrom(r).PointerUp()
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleStroke(w http.ResponseWriter, r *http.Request) {
	var body strokeBody
	if err := decode(r, &body); err != nil {
		s.writeErr(w, err)
		return
	}
	ws := workspaceFrom(r)
	if err := ws.Stroke(body.Points); err != nil {
		s.writeErr(w, err)
		return
	}
	d, _ := ws.ActiveDrawing()
	s.writeJSON(w, http.StatusOK, d)
}
