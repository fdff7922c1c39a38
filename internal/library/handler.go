package library

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/ovaphlow/pitchfork/service-library-go/internal/common"
	"github.com/ovaphlow/pitchfork/service-library-go/pkg/query"
	"github.com/ovaphlow/pitchfork/service-library-go/pkg/response"
)

// Handler serves /api/libraries/. Capability checks happen in the router.
type Handler struct {
	svc    *Service
	logger *zap.SugaredLogger
}

func NewHandler(svc *Service, logger *zap.SugaredLogger) *Handler {
	return &Handler{svc: svc, logger: logger}
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	libs, err := h.svc.List(r.Context())
	if err != nil {
		h.fail(w, err)
		return
	}
	response.JSON(w, http.StatusOK, map[string]any{"results": libs})
}

func (h *Handler) Retrieve(w http.ResponseWriter, r *http.Request) {
	id, ok := query.PathID(r, "id")
	if !ok {
		response.NotFound(w)
		return
	}
	l, err := h.svc.Get(r.Context(), id)
	if err != nil {
		h.fail(w, err)
		return
	}
	response.JSON(w, http.StatusOK, l)
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var in Input
	if !response.Decode(w, r, &in) {
		return
	}
	l, err := h.svc.Create(r.Context(), in)
	if err != nil {
		h.fail(w, err)
		return
	}
	h.logger.Infow("library created", "id", l.ID)
	response.JSON(w, http.StatusCreated, l)
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	id, ok := query.PathID(r, "id")
	if !ok {
		response.NotFound(w)
		return
	}
	var in Input
	if !response.Decode(w, r, &in) {
		return
	}
	l, err := h.svc.Update(r.Context(), id, in, r.Method == http.MethodPatch)
	if err != nil {
		h.fail(w, err)
		return
	}
	response.JSON(w, http.StatusOK, l)
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	id, ok := query.PathID(r, "id")
	if !ok {
		response.NotFound(w)
		return
	}
	if err := h.svc.Delete(r.Context(), id); err != nil {
		h.fail(w, err)
		return
	}
	response.NoContent(w)
}

type librarianRequest struct {
	Name string `json:"name"`
}

// SetLibrarian serves PUT /api/libraries/{id}/librarian/.
func (h *Handler) SetLibrarian(w http.ResponseWriter, r *http.Request) {
	id, ok := query.PathID(r, "id")
	if !ok {
		response.NotFound(w)
		return
	}
	var req librarianRequest
	if !response.Decode(w, r, &req) {
		return
	}
	l, err := h.svc.SetLibrarian(r.Context(), id, req.Name)
	if err != nil {
		h.fail(w, err)
		return
	}
	response.JSON(w, http.StatusOK, l)
}


func (h *Handler) fail(w http.ResponseWriter, err error) {
	if verr, ok := common.AsValidation(err); ok {
		response.Validation(w, verr)
		return
	}
	if errors.Is(err, common.ErrNotFound) {
		response.NotFound(w)
		return
	}
	h.logger.Errorw("library request failed", "err", err)
	response.Error(w, http.StatusInternalServerError, "A server error occurred.")
}
