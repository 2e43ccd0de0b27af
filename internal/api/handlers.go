package api

import (
	"errors"
	"io"
	"mime/multipart"
	"net/http"
	"strings"

	"log/slog"

	"github.com/gorilla/mux"

	"lensflow/internal/ingest"
	"lensflow/internal/metrics"
	"lensflow/internal/photo"
	"lensflow/internal/pipeline"
	"lensflow/internal/views"
)

const maxUploadBytes = 128 << 20

func (s *Server) handleListPhotos(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query()
	category := strings.TrimSpace(query.Get("category"))
	search := query.Get("q")

	filtered := views.Filter(s.store.Snapshot(), category, search)

	if strings.EqualFold(query.Get("view"), "timeline") {
		groups := views.GroupByMonth(filtered)
		s.writeJSON(w, http.StatusOK, TimelineResponse{Groups: FromGroups(groups)})
		return
	}
	s.writeJSON(w, http.StatusOK, PhotoListResponse{Photos: FromPhotos(filtered)})
}

func (s *Server) handleGetPhoto(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	p, ok := s.store.Get(id)
	if !ok {
		s.writeError(w, http.StatusNotFound, "photo not found")
		return
	}
	s.writeJSON(w, http.StatusOK, PhotoResponse{Photo: FromPhoto(p)})
}

func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes)
	if err := r.ParseMultipartForm(32 << 20); err != nil {
		s.writeError(w, http.StatusBadRequest, "invalid multipart request")
		return
	}
	defer func() {
		_ = r.MultipartForm.RemoveAll()
	}()

	var payloads []photo.Payload
	excluded := 0
	for _, headers := range r.MultipartForm.File {
		for _, header := range headers {
			payload, err := readUpload(header.Filename, header)
			if err != nil {
				excluded++
				metrics.IngestRejectedTotal.Inc()
				s.logger.Warn("excluding upload",
					slog.String("name", header.Filename),
					slog.String("error", err.Error()))
				continue
			}
			payloads = append(payloads, payload)
		}
	}
	if len(payloads) == 0 && excluded == 0 {
		s.writeError(w, http.StatusBadRequest, "no files in request")
		return
	}

	result := s.pipeline.IngestBatch(r.Context(), payloads)
	result.Excluded += excluded

	added := FromPhotos(result.Added)
	if added == nil {
		added = []PhotoView{}
	}
	s.writeJSON(w, http.StatusCreated, IngestResponse{Added: added, Excluded: result.Excluded})
}

func readUpload(name string, header *multipart.FileHeader) (photo.Payload, error) {
	file, err := header.Open()
	if err != nil {
		return photo.Payload{}, err
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		return photo.Payload{}, err
	}
	return ingest.FromBytes(name, data)
}

func (s *Server) handleAnimate(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]
	err := s.pipeline.Animate(r.Context(), id)
	switch {
	case err == nil:
		s.writeJSON(w, http.StatusAccepted, AnimateResponse{ID: id, Status: "accepted"})
	case errors.Is(err, pipeline.ErrUnknownPhoto):
		s.writeError(w, http.StatusNotFound, "photo not found")
	case errors.Is(err, pipeline.ErrAlreadyAnimated):
		s.writeError(w, http.StatusConflict, "photo already animated")
	case errors.Is(err, pipeline.ErrAnimationInFlight):
		s.writeError(w, http.StatusConflict, "animation already in flight")
	default:
		s.writeError(w, http.StatusInternalServerError, err.Error())
	}
}

func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	if s.status != nil {
		s.writeJSON(w, http.StatusOK, s.status())
		return
	}
	s.writeJSON(w, http.StatusOK, StatusResponse{Running: true, Photos: s.store.Len()})
}

func (s *Server) handleHealthz(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok\n"))
}
