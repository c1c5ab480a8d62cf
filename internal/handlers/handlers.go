package handlers

import (
	"encoding/json"
	"errors"
	"image"
	"image/jpeg"
	"image/png"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"

	"github.com/p1sangmas/SmartColorizer/internal/colorize"
)

// statusClientClosedRequest reports a request that was cancelled before producing output.
const statusClientClosedRequest = 499

type Handler struct {
	pipeline  *colorize.Orchestrator
	model     colorize.Readiness
	maxUpload int64
	logger    logrus.FieldLogger
}

func NewHandler(pipeline *colorize.Orchestrator, model colorize.Readiness, maxUpload int64, logger logrus.FieldLogger) *Handler {
	return &Handler{
		pipeline:  pipeline,
		model:     model,
		maxUpload: maxUpload,
		logger:    logger,
	}
}

func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":       "healthy",
		"model_loaded": h.model == nil || h.model.Ready(),
		"state":        h.pipeline.State().String(),
	})
}

// Colorize accepts a multipart upload in the "image" field and responds with
// the colorized 256x256 image as PNG, or JPEG when format=jpeg.
func (h *Handler) Colorize(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxUpload)
	if err := r.ParseMultipartForm(h.maxUpload); err != nil {
		http.Error(w, "Failed to parse form", http.StatusBadRequest)
		return
	}

	file, header, err := r.FormFile("image")
	if err != nil {
		http.Error(w, "No image file provided. Use 'image' as the form field name", http.StatusBadRequest)
		return
	}
	defer file.Close()

	img, format, err := image.Decode(file)
	if err != nil {
		http.Error(w, "Invalid image format. Supported: JPEG, PNG, BMP, TIFF, WebP", http.StatusBadRequest)
		return
	}

	log := h.logger.WithFields(logrus.Fields{
		"file":   header.Filename,
		"bytes":  header.Size,
		"format": format,
		"width":  img.Bounds().Dx(),
		"height": img.Bounds().Dy(),
	})
	log.Info("colorize request")

	start := time.Now()
	out, err := h.pipeline.Colorize(r.Context(), img)
	if err != nil {
		status := statusFor(err)
		if status >= http.StatusInternalServerError {
			log.WithError(err).Error("colorize failed")
		} else {
			log.WithError(err).Info("colorize rejected")
		}
		http.Error(w, err.Error(), status)
		return
	}
	log.WithField("elapsed", time.Since(start).String()).Info("colorize complete")

	if r.URL.Query().Get("format") == "jpeg" {
		w.Header().Set("Content-Type", "image/jpeg")
		if err := jpeg.Encode(w, out, &jpeg.Options{Quality: 95}); err != nil {
			log.WithError(err).Warn("failed to write response")
		}
		return
	}
	w.Header().Set("Content-Type", "image/png")
	if err := png.Encode(w, out); err != nil {
		log.WithError(err).Warn("failed to write response")
	}
}

// Cancel signals the in-flight colorization, if any.
func (h *Handler) Cancel(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}
	cancelled := h.pipeline.Cancel()
	h.logger.WithField("cancelled", cancelled).Info("cancel requested")
	writeJSON(w, http.StatusOK, map[string]bool{"cancelled": cancelled})
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, colorize.ErrEncode):
		return http.StatusBadRequest
	case errors.Is(err, colorize.ErrBusy):
		return http.StatusConflict
	case errors.Is(err, colorize.ErrModelNotLoaded):
		return http.StatusServiceUnavailable
	case errors.Is(err, colorize.ErrCancelled):
		return statusClientClosedRequest
	default:
		return http.StatusInternalServerError
	}
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}
