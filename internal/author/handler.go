package author

import (
	"errors"
	"io"
	"net/http"

	"go.uber.org/zap"

	"github.com/ovaphlow/pitchfork/service-library-go/internal/author/entity"
	"github.com/ovaphlow/pitchfork/service-library-go/internal/common"
	"github.com/ovaphlow/pitchfork/service-library-go/pkg/query"
	"github.com/ovaphlow/pitchfork/service-library-go/pkg/response"
)

const maxBodyBytes = 1 << 20

// Handler exposes the author endpoints. Authentication is enforced by the router.
type Handler struct {
	svc    *Service
	logger *zap.SugaredLogger
}

func NewHandler(svc *Service, logger *zap.SugaredLogger) *Handler {
	return &Handler{svc: svc, logger: logger}
}

type listMeta struct {
	Count int `json:"count"`
	Applied
}

type listResponse struct {
	Results []entity.Detail `json:"results"`
	Meta    listMeta        `json:"meta"`
}

type writeResponse struct {
	Message string         `json:"message"`
	Author  *entity.Detail `json:"author"`
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	q, applied := ParseQuery(r.URL.Query())
	authors, total, err := h.svc.List(r.Context(), q)
	if err != nil {
		h.fail(w, err)
		return
	}
	response.JSON(w, http.StatusOK, listResponse{Results: authors, Meta: listMeta{Count: total, Applied: applied}})
}

func (h *Handler) Retrieve(w http.ResponseWriter, r *http.Request) {
	id, ok := query.PathID(r, "id")
	if !ok {
		response.NotFound(w)
		return
	}
	a, err := h.svc.Get(r.Context(), id)
	if err != nil {
		h.fail(w, err)
		return
	}
	response.JSON(w, http.StatusOK, a)
}

// CreateBare serves POST /api/authors/ and answers with the author itself.
func (h *Handler) CreateBare(w http.ResponseWriter, r *http.Request) {
	if a, ok := h.create(w, r); ok {
		response.JSON(w, http.StatusCreated, a)
	}
}

func (h *Handler) UpdateBare(w http.ResponseWriter, r *http.Request) {
	if a, ok := h.update(w, r); ok {
		response.JSON(w, http.StatusOK, a)
	}
}

func (h *Handler) DeleteBare(w http.ResponseWriter, r *http.Request) {
	if h.delete(w, r) {
		response.NoContent(w)
	}
}

// Create serves POST /api/authors/create/.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	if a, ok := h.create(w, r); ok {
		response.JSON(w, http.StatusCreated, writeResponse{Message: "Author created successfully.", Author: a})
	}
}

func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	if a, ok := h.update(w, r); ok {
		response.JSON(w, http.StatusOK, writeResponse{Message: "Author updated successfully.", Author: a})
	}
}

func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	if h.delete(w, r) {
		response.Message(w, http.StatusOK, "Author and related books deleted successfully.")
	}
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) (*entity.Detail, bool) {
	in, ok := h.decode(w, r)
	if !ok {
		return nil, false
	}
	a, err := h.svc.Create(r.Context(), in)
	if err != nil {
		h.fail(w, err)
		return nil, false
	}
	h.logger.Debugw("author created", "id", a.ID)
	return a, true
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) (*entity.Detail, bool) {
	id, ok := query.PathID(r, "id")
	if !ok {
		response.NotFound(w)
		return nil, false
	}
	in, ok := h.decode(w, r)
	if !ok {
		return nil, false
	}
	a, err := h.svc.Update(r.Context(), id, in, r.Method == http.MethodPatch)
	if err != nil {
		h.fail(w, err)
		return nil, false
	}
	return a, true
}

func (h *Handler) delete(w http.ResponseWriter, r *http.Request) bool {
	id, ok := query.PathID(r, "id")
	if !ok {
		response.NotFound(w)
		return false
	}
	if err := h.svc.Delete(r.Context(), id); err != nil {
		h.fail(w, err)
		return false
	}
	h.logger.Debugw("author deleted", "id", id)
	return true
}

func (h *Handler) decode(w http.ResponseWriter, r *http.Request) (Input, bool) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		response.Error(w, http.StatusBadRequest, "Could not read request body.")
		return Input{}, false
	}
	in, err := DecodeInput(body)
	if err != nil {
		if verr, ok := common.AsValidation(err); ok {
			response.Validation(w, verr)
			return Input{}, false
		}
		response.Error(w, http.StatusBadRequest, "JSON parse error - "+err.Error())
		return Input{}, false
	}
	return in, true
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
	h.logger.Errorw("author request failed", "err", err)
	response.Error(w, http.StatusInternalServerError, "A server error occurred.")
}
