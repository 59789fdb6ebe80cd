// Package server exposes a Session over HTTP: upload an image, start,
// cancel, undo and repeat filters, poll progress and fetch the histogram.
package server

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"image"
	"image/png"
	"io"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/maax3v3/pixfilter/internal/buffer"
	"github.com/maax3v3/pixfilter/internal/cli"
	"github.com/maax3v3/pixfilter/internal/histogram"
	"github.com/maax3v3/pixfilter/internal/imaging"
	"github.com/maax3v3/pixfilter/internal/renderer"
	"github.com/maax3v3/pixfilter/internal/session"
)

// Upload limits. MaxUploadPixels is checked against the decoded header before
// any pixel data is allocated.
const (
	MaxUploadBytes  = 64 << 20
	MaxUploadPixels = 64 << 20
)

var (
	errNotRunning = errors.New("no filter is running")
	errBadUpload  = errors.New("invalid image upload")
	errTooLarge   = errors.New("image upload too large")
)

// Server serves a single Session.
type Server struct {
	ctx       context.Context
	session   *session.Session
	font      renderer.FontRenderer
	logger    *log.Logger
	maxBytes  int64
	maxPixels int64
}

// New returns a Server. Jobs are started under ctx, so cancelling ctx
// cancels any running filter.
func New(ctx context.Context, s *session.Session, font renderer.FontRenderer, logger *log.Logger) *Server {
	if logger == nil {
		logger = log.Default()
	}
	return &Server{
		ctx:       ctx,
		session:   s,
		font:      font,
		logger:    logger,
		maxBytes:  MaxUploadBytes,
		maxPixels: MaxUploadPixels,
	}
}

// Routes returns the HTTP handler.
func (srv *Server) Routes() http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RequestLogger(&middleware.DefaultLogFormatter{Logger: srv.logger, NoColor: true}))
	r.Use(middleware.Recoverer)

	r.Get("/image", srv.getImage)
	r.Put("/image", srv.putImage)
	r.Post("/filters/{action}", srv.startFilter)
	r.Get("/status", srv.getStatus)
	r.Post("/cancel", srv.cancel)
	r.Post("/undo", srv.undo)
	r.Post("/repeat", srv.repeat)
	r.Get("/histogram", srv.getHistogram)
	r.Get("/histogram.png", srv.getHistogramChart)

	return r
}

// Status is the payload of GET /status.
type Status struct {
	Running    bool   `json:"running"`
	Progress   int    `json:"progress"`
	Filter     string `json:"filter,omitempty"`
	LastFilter string `json:"last_filter,omitempty"`
	Width      int    `json:"width"`
	Height     int    `json:"height"`
	CanUndo    bool   `json:"can_undo"`
}

// HistogramResponse is the payload of GET /histogram.
type HistogramResponse struct {
	Counts      histogram.Histogram      `json:"counts"`
	Percentages *[histogram.Bins]float64 `json:"percentages,omitempty"`
	Ticks       []int                    `json:"ticks"`
}

func (srv *Server) getImage(w http.ResponseWriter, r *http.Request) {
	cur := srv.session.Current()
	if cur == nil {
		writeError(w, session.ErrNoImage)
		return
	}
	w.Header().Set("Content-Type", "image/png")
	if err := png.Encode(w, cur.ToImage()); err != nil {
		srv.logger.Printf("encoding image: %v", err)
	}
}

func (srv *Server) putImage(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, srv.maxBytes))
	if err != nil {
		var tooBig *http.MaxBytesError
		if errors.As(err, &tooBig) {
			writeError(w, fmt.Errorf("%w: body exceeds %d bytes", errTooLarge, tooBig.Limit))
			return
		}
		writeError(w, fmt.Errorf("%w: %v", errBadUpload, err))
		return
	}
	cfg, _, err := image.DecodeConfig(bytes.NewReader(body))
	if err != nil {
		writeError(w, fmt.Errorf("%w: %v", errBadUpload, err))
		return
	}
	if int64(cfg.Width)*int64(cfg.Height) > srv.maxPixels {
		writeError(w, fmt.Errorf("%w: %dx%d exceeds %d pixels", errTooLarge, cfg.Width, cfg.Height, srv.maxPixels))
		return
	}
	img, format, err := imaging.Decode(bytes.NewReader(body))
	if err != nil {
		writeError(w, fmt.Errorf("%w: %v", errBadUpload, err))
		return
	}
	b := buffer.FromImage(img)
	if err := srv.session.Load(b); err != nil {
		writeError(w, err)
		return
	}
	srv.logger.Printf("loaded %s image %dx%d", format, b.Width, b.Height)
	writeJSON(w, http.StatusCreated, srv.status())
}

func (srv *Server) startFilter(w http.ResponseWriter, r *http.Request) {
	f, err := cli.ParseFilter(chi.URLParam(r, "action"), r.URL.Query().Get("amount"))
	if err != nil {
		writeError(w, err)
		return
	}
	job, err := srv.session.Start(srv.ctx, f)
	if err != nil {
		writeError(w, err)
		return
	}
	srv.watch(job)
	writeJSON(w, http.StatusAccepted, srv.status())
}

func (srv *Server) repeat(w http.ResponseWriter, r *http.Request) {
	job, err := srv.session.Repeat(srv.ctx)
	if err != nil {
		writeError(w, err)
		return
	}
	srv.watch(job)
	writeJSON(w, http.StatusAccepted, srv.status())
}

// watch logs the outcome of job once it ends.
func (srv *Server) watch(job *session.Job) {
	srv.logger.Printf("started %s", job.Filter())
	go func() {
		res := job.Wait()
		switch {
		case res.Cancelled:
			srv.logger.Printf("cancelled %s", res.Filter)
		case res.Err != nil:
			srv.logger.Printf("failed %s: %v", res.Filter, res.Err)
		default:
			srv.logger.Printf("finished %s", res.Filter)
		}
	}()
}

func (srv *Server) cancel(w http.ResponseWriter, r *http.Request) {
	job := srv.session.Active()
	if job == nil {
		writeError(w, errNotRunning)
		return
	}
	job.Cancel()
	writeJSON(w, http.StatusAccepted, srv.status())
}

func (srv *Server) undo(w http.ResponseWriter, r *http.Request) {
	if err := srv.session.Undo(); err != nil {
		writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, srv.status())
}

func (srv *Server) getStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, srv.status())
}

func (srv *Server) status() Status {
	var st Status
	if job := srv.session.Active(); job != nil {
		st.Running = true
		st.Progress = job.Percent()
		st.Filter = job.Filter().String()
	}
	if f, ok := srv.session.LastFilter(); ok {
		st.LastFilter = f.String()
	}
	if cur := srv.session.Current(); cur != nil {
		st.Width, st.Height = cur.Width, cur.Height
	}
	st.CanUndo = srv.session.Previous() != nil
	return st
}

func (srv *Server) getHistogram(w http.ResponseWriter, r *http.Request) {
	h, err := srv.session.Histogram()
	if err != nil {
		writeError(w, err)
		return
	}
	resp := HistogramResponse{Counts: h, Ticks: histogram.Ticks()}
	if pct, err := h.Percentages(); err == nil {
		resp.Percentages = &pct
	}
	writeJSON(w, http.StatusOK, resp)
}

func (srv *Server) getHistogramChart(w http.ResponseWriter, r *http.Request) {
	h, err := srv.session.Histogram()
	if err != nil {
		writeError(w, err)
		return
	}
	cfg, err := cli.ChartConfig(r.URL.Query().Get("bar"), r.URL.Query().Get("background"))
	if err != nil {
		writeError(w, err)
		return
	}
	chart := renderer.Chart(&h, srv.font, cfg)
	w.Header().Set("Content-Type", "image/png")
	if err := png.Encode(w, chart); err != nil {
		srv.logger.Printf("encoding histogram: %v", err)
	}
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, err error) {
	writeJSON(w, statusFor(err), map[string]string{"error": err.Error()})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, cli.ErrInvalidParameter), errors.Is(err, errBadUpload):
		return http.StatusBadRequest
	case errors.Is(err, errTooLarge):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, session.ErrNoImage):
		return http.StatusNotFound
	case errors.Is(err, session.ErrBusy),
		errors.Is(err, session.ErrNoFilter),
		errors.Is(err, session.ErrNothingToUndo),
		errors.Is(err, errNotRunning):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}
