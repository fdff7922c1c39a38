package book

import (
	"errors"
	"io"
	"net/http"

	"go.uber.org/zap"

	"github.com/ovaphlow/pitchfork/service-library-go/internal/book/entity"
	"github.com/ovaphlow/pitchfork/service-library-go/internal/common"
	"github.com/ovaphlow/pitchfork/service-library-go/pkg/query"
	"github.com/ovaphlow/pitchfork/service-library-go/pkg/response"
)

const maxBodyBytes = 1 << 20

// Handler exposes the book endpoints. Authentication is enforced by the router.
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
	Results []entity.Book `json:"results"`
	Meta    listMeta      `json:"meta"`
}

type writeResponse struct {
	Message string       `json:"message"`
	Book    *entity.Book `json:"book"`
}

// List serves GET /api/books/ with filters, search, ordering and pagination.
func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	q, applied := ParseQuery(r.URL.Query(), h.svc.CurrentYear())
	books, total, err := h.svc.List(r.Context(), q)
	if err != nil {
		h.fail(w, err)
		return
	}
	response.JSON(w, http.StatusOK, listResponse{
		Results: books,
		Meta:    listMeta{Count: total, Applied: applied},
	})
}

func (h *Handler) Retrieve(w http.ResponseWriter, r *http.Request) {
	id, ok := query.PathID(r, "id")
	if !ok {
		response.NotFound(w)
		return
	}
	b, err := h.svc.Get(r.Context(), id)
	if err != nil {
		h.fail(w, err)
		return
	}
	response.JSON(w, http.StatusOK, b)
}

// Create serves POST /api/books/create/.
func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	b, ok := h.create(w, r)
	if !ok {
		return
	}
	response.JSON(w, http.StatusCreated, writeResponse{Message: "Book created successfully.", Book: b})
}

// Update serves PUT and PATCH /api/books/{id}/update/.
func (h *Handler) Update(w http.ResponseWriter, r *http.Request) {
	b, ok := h.update(w, r)
	if !ok {
		return
	}
	response.JSON(w, http.StatusOK, writeResponse{Message: "Book updated successfully.", Book: b})
}

// Delete serves DELETE /api/books/{id}/delete/.
func (h *Handler) Delete(w http.ResponseWriter, r *http.Request) {
	if !h.delete(w, r) {
		return
	}
	response.Message(w, http.StatusOK, "Book deleted successfully.")
}

// CreateBare is the combined list/create variant: it answers with the book itself.
func (h *Handler) CreateBare(w http.ResponseWriter, r *http.Request) {
	b, ok := h.create(w, r)
	if !ok {
		return
	}
	response.JSON(w, http.StatusCreated, b)
}

func (h *Handler) UpdateBare(w http.ResponseWriter, r *http.Request) {
	b, ok := h.update(w, r)
	if !ok {
		return
	}
	response.JSON(w, http.StatusOK, b)
}

func (h *Handler) DeleteBare(w http.ResponseWriter, r *http.Request) {
	if !h.delete(w, r) {
		return
	}
	response.NoContent(w)
}

func (h *Handler) create(w http.ResponseWriter, r *http.Request) (*entity.Book, bool) {
	in, ok := h.decode(w, r)
	if !ok {
		return nil, false
	}
	b, err := h.svc.Create(r.Context(), in)
	if err != nil {
		h.fail(w, err)
		return nil, false
	}
	h.logger.Debugw("book created", "id", b.ID, "author", b.AuthorID)
	return b, true
}

func (h *Handler) update(w http.ResponseWriter, r *http.Request) (*entity.Book, bool) {
	id, ok := query.PathID(r, "id")
	if !ok {
		response.NotFound(w)
		return nil, false
	}
	in, ok := h.decode(w, r)
	if !ok {
		return nil, false
	}
	b, err := h.svc.Update(r.Context(), id, in, r.Method == http.MethodPatch)
	if err != nil {
		h.fail(w, err)
		return nil, false
	}
	return b, true
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
	h.logger.Debugw("book deleted", "id", id)
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
		h.logger.Debugw("invalid book payload", "err", err)
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
	h.logger.Errorw("book request failed", "err", err)
	response.Error(w, http.StatusInternalServerError, "A server error occurred.")
}
