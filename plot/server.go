package plot

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/gorilla/mux"

	"github.com/vitalchart/vitalchart/model"
	"github.com/vitalchart/vitalchart/tools/log"
)

// server 把 Chart 暴露给浏览器端的渲染器
type server struct {
	chart *Chart
}

type zoomRequest struct {
	DeltaY float64 `json:"deltaY"`
}

type pointerRequest struct {
	X float64 `json:"x"`
}

type resizeRequest struct {
	Width int `json:"width"`
}

type loadRequest struct {
	Start  string `json:"start"`
	End    string `json:"end"`
	Preset string `json:"preset"`
}

type viewportResponse struct {
	Panel    string         `json:"panel"`
	Viewport model.Viewport `json:"viewport"`
}

type toggleResponse struct {
	Annotation string `json:"annotation"`
	Selected   bool   `json:"selected"`
}

// NewRouter creates the HTTP API of a chart
// NewRouter 创建图表的 HTTP 接口
func NewRouter(chart *Chart) *mux.Router {
	s := &server{chart: chart}
	r := mux.NewRouter()

	r.HandleFunc("/health", healthHandler).Methods("GET")
	r.HandleFunc("/presets", s.presets).Methods("GET")
	r.HandleFunc("/load", s.load).Methods("POST")
	r.HandleFunc("/retry", s.retry).Methods("POST")
	r.HandleFunc("/tick", s.tick).Methods("POST")
	r.HandleFunc("/preset/{preset}", s.applyPresetAll).Methods("POST")

	r.HandleFunc("/panels", s.frames).Methods("GET")
	r.HandleFunc("/panels/{panel}", s.frame).Methods("GET")
	r.HandleFunc("/panels/{panel}/zoom", s.zoom).Methods("POST")
	r.HandleFunc("/panels/{panel}/pointer/down", s.pointerDown).Methods("POST")
	r.HandleFunc("/panels/{panel}/pointer/move", s.pointerMove).Methods("POST")
	r.HandleFunc("/panels/{panel}/pointer/up", s.pointerUp).Methods("POST")
	r.HandleFunc("/panels/{panel}/reset", s.reset).Methods("POST")
	r.HandleFunc("/panels/{panel}/resize", s.resize).Methods("POST")
	r.HandleFunc("/panels/{panel}/retry", s.retryPanel).Methods("POST")
	r.HandleFunc("/panels/{panel}/preset/{preset}", s.applyPreset).Methods("POST")
	r.HandleFunc("/panels/{panel}/tooltip", s.tooltip).Methods("GET")
	r.HandleFunc("/panels/{panel}/annotations", s.annotations).Methods("GET")
	r.HandleFunc("/panels/{panel}/annotations/{annotation}/toggle", s.toggle).Methods("POST")
	r.HandleFunc("/panels/{panel}/export.csv", s.exportCSV).Methods("GET")
	r.HandleFunc("/panels/{panel}/export.png", s.exportPNG).Methods("GET")

	return r
}

func healthHandler(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(body); err != nil {
		log.Warnf("write response: %v", err)
	}
}

func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, statusOf(err), map[string]string{"error": err.Error()})
}

func statusOf(err error) int {
	var renderErr *RenderError
	switch {
	case errors.Is(err, ErrUnknownPanel), errors.Is(err, ErrUnknownPreset),
		errors.Is(err, ErrUnknownAnnotation), errors.Is(err, ErrPointNotFound):
		return http.StatusNotFound
	case errors.Is(err, ErrInvalidWindow), errors.Is(err, model.ErrInvalidTimestamp):
		return http.StatusBadRequest
	case errors.Is(err, ErrGestureActive), errors.Is(err, ErrNoGesture),
		errors.Is(err, ErrSuperseded), errors.Is(err, ErrNothingToRetry):
		return http.StatusConflict
	case errors.Is(err, ErrNoData):
		return http.StatusUnprocessableEntity
	case errors.As(err, &renderErr):
		return http.StatusInternalServerError
	}
	return http.StatusBadGateway
}

func decode(w http.ResponseWriter, r *http.Request, body any) bool {
	if err := json.NewDecoder(r.Body).Decode(body); err != nil {
		http.Error(w, "invalid request", http.StatusBadRequest)
		return false
	}
	return true
}

func (s *server) presets(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"presets":  s.chart.Presets(),
		"broadest": s.chart.BroadestPreset().ID,
	})
}

func (s *server) load(w http.ResponseWriter, r *http.Request) {
	var req loadRequest
	if !decode(w, r, &req) {
		return
	}

	var err error
	if req.Preset != "" {
		err = s.chart.LoadPreset(r.Context(), req.Preset)
	} else {
		var window model.LoadWindow
		if window.Start, err = model.ParseTimestamp(req.Start); err != nil {
			writeError(w, err)
			return
		}
		if window.End, err = model.ParseTimestamp(req.End); err != nil {
			writeError(w, err)
			return
		}
		err = s.chart.Load(r.Context(), window)
	}
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{"window": s.chart.Window()})
}

func (s *server) retry(w http.ResponseWriter, r *http.Request) {
	if err := s.chart.Retry(r.Context()); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"window": s.chart.Window()})
}

func (s *server) tick(w http.ResponseWriter, _ *http.Request) {
	s.chart.Tick()
	w.WriteHeader(http.StatusNoContent)
}

func (s *server) applyPresetAll(w http.ResponseWriter, r *http.Request) {
	window, err := s.chart.ApplyPresetAll(mux.Vars(r)["preset"])
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"window": window})
}

func (s *server) frames(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.chart.Frames())
}

func (s *server) frame(w http.ResponseWriter, r *http.Request) {
	frame, err := s.chart.Frame(mux.Vars(r)["panel"])
	s.writeFrame(w, frame, err)
}

func (s *server) retryPanel(w http.ResponseWriter, r *http.Request) {
	frame, err := s.chart.RetryPanel(mux.Vars(r)["panel"])
	s.writeFrame(w, frame, err)
}

// writeFrame 渲染失败时仍然返回带有内联错误的 Frame，渲染器据此显示重试按钮
func (s *server) writeFrame(w http.ResponseWriter, frame Frame, err error) {
	var renderErr *RenderError
	switch {
	case err == nil:
		writeJSON(w, http.StatusOK, frame)
	case errors.As(err, &renderErr):
		writeJSON(w, http.StatusOK, frame)
	default:
		writeError(w, err)
	}
}

func (s *server) writeViewport(w http.ResponseWriter, panelID string, viewport model.Viewport, err error) {
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, viewportResponse{Panel: panelID, Viewport: viewport})
}

func (s *server) zoom(w http.ResponseWriter, r *http.Request) {
	var req zoomRequest
	if !decode(w, r, &req) {
		return
	}
	panelID := mux.Vars(r)["panel"]
	viewport, err := s.chart.Zoom(panelID, req.DeltaY)
	s.writeViewport(w, panelID, viewport, err)
}

func (s *server) pointerDown(w http.ResponseWriter, r *http.Request) {
	var req pointerRequest
	if !decode(w, r, &req) {
		return
	}
	if err := s.chart.PointerDown(mux.Vars(r)["panel"], req.X); err != nil {
		writeError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *server) pointerMove(w http.ResponseWriter, r *http.Request) {
	var req pointerRequest
	if !decode(w, r, &req) {
		return
	}
	panelID := mux.Vars(r)["panel"]
	viewport, err := s.chart.PointerMove(panelID, req.X)
	s.writeViewport(w, panelID, viewport, err)
}

func (s *server) pointerUp(w http.ResponseWriter, r *http.Request) {
	panelID := mux.Vars(r)["panel"]
	viewport, err := s.chart.PointerUp(panelID)
	s.writeViewport(w, panelID, viewport, err)
}

func (s *server) reset(w http.ResponseWriter, r *http.Request) {
	panelID := mux.Vars(r)["panel"]
	viewport, err := s.chart.Reset(panelID)
	s.writeViewport(w, panelID, viewport, err)
}

func (s *server) resize(w http.ResponseWriter, r *http.Request) {
	var req resizeRequest
	if !decode(w, r, &req) {
		return
	}
	panelID := mux.Vars(r)["panel"]
	if err := s.chart.Resize(panelID, req.Width); err != nil {
		if errors.Is(err, ErrUnknownPanel) {
			writeError(w, err)
			return
		}
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *server) applyPreset(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	viewport, err := s.chart.ApplyPreset(vars["panel"], vars["preset"])
	s.writeViewport(w, vars["panel"], viewport, err)
}

func (s *server) tooltip(w http.ResponseWriter, r *http.Request) {
	t, err := model.ParseTimestamp(r.URL.Query().Get("t"))
	if err != nil {
		writeError(w, err)
		return
	}

	tooltip, err := s.chart.Tooltip(mux.Vars(r)["panel"], t)
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, tooltip)
}

func (s *server) annotations(w http.ResponseWriter, r *http.Request) {
	events, err := s.chart.Annotations(mux.Vars(r)["panel"])
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, events)
}

func (s *server) toggle(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	selected, err := s.chart.ToggleAnnotation(vars["panel"], vars["annotation"])
	if err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, toggleResponse{Annotation: vars["annotation"], Selected: selected})
}

func (s *server) exportCSV(w http.ResponseWriter, r *http.Request) {
	panelID := mux.Vars(r)["panel"]
	if _, err := s.chart.Viewport(panelID); err != nil {
		writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="`+panelID+`.csv"`)
	if err := s.chart.ExportCSV(panelID, w); err != nil {
		log.WithField("panel", panelID).Errorf("export csv: %v", err)
	}
}

func (s *server) exportPNG(w http.ResponseWriter, r *http.Request) {
	panelID := mux.Vars(r)["panel"]

	// 先渲染到内存，失败时还能返回错误状态码
	buffer := new(bytes.Buffer)
	if err := s.chart.ExportPNG(panelID, buffer); err != nil {
		writeError(w, err)
		return
	}

	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Content-Disposition", `attachment; filename="`+panelID+`.png"`)
	if _, err := buffer.WriteTo(w); err != nil {
		log.WithField("panel", panelID).Warnf("write png: %v", err)
	}
}
