package group

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/ovaphlow/pitchfork/service-library-go/internal/common"
	"github.com/ovaphlow/pitchfork/service-library-go/pkg/query"
	"github.com/ovaphlow/pitchfork/service-library-go/pkg/response"
)

// Handler contains dependencies for handling group endpoints.
type Handler struct {
	svc    *Service
	logger *zap.SugaredLogger
}

// NewHandler constructs a new Handler.
func NewHandler(svc *Service, logger *zap.SugaredLogger) *Handler {
	return &Handler{svc: svc, logger: logger}
}

func (h *Handler) List(w http.ResponseWriter, r *http.Request) {
	groups, err := h.svc.List(r.Context())
	if err != nil {
		h.fail(w, err)
		return
	}
	response.JSON(w, http.StatusOK, map[string]any{"results": groups})
}

func (h *Handler) Create(w http.ResponseWriter, r *http.Request) {
	var in Input
	if !response.Decode(w, r, &in) {
		return
	}
	g, err := h.svc.Create(r.Context(), in)
	if err != nil {
		h.fail(w, err)
		return
	}
	h.logger.Infow("group created", "id", g.ID, "name", g.Name)
	response.JSON(w, http.StatusCreated, g)
}

func (h *Handler) Retrieve(w http.ResponseWriter, r *http.Request) {
	id, ok := query.PathID(r, "id")
	if !ok {
		response.NotFound(w)
		return
	}
	g, err := h.svc.Get(r.Context(), id)
	if err != nil {
		h.fail(w, err)
		return
	}
	response.JSON(w, http.StatusOK, g)
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
	g, err := h.svc.Update(r.Context(), id, in, r.Method == http.MethodPatch)
	if err != nil {
		h.fail(w, err)
		return
	}
	response.JSON(w, http.StatusOK, g)
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

type memberRequest struct {
	UserID common.ID `json:"user_id"`
}

// AddMember serves POST /api/groups/{id}/members/.
func (h *Handler) AddMember(w http.ResponseWriter, r *http.Request) {
	id, ok := query.PathID(r, "id")
	if !ok {
		response.NotFound(w)
		return
	}
	var req memberRequest
	if !response.Decode(w, r, &req) {
		return
	}
	if req.UserID <= 0 {
		response.Validation(w, common.ValidationError{"user_id": {"This field is required."}})
		return
	}
	if err := h.svc.AddMember(r.Context(), id, int64(req.UserID)); err != nil {
		h.fail(w, err)
		return
	}
	h.logger.Infow("group member added", "group_id", id, "user_id", int64(req.UserID))
	response.NoContent(w)
}

// RemoveMember serves DELETE /api/groups/{id}/members/{user_id}/.
func (h *Handler) RemoveMember(w http.ResponseWriter, r *http.Request) {
	id, ok := query.PathID(r, "id")
	if !ok {
		response.NotFound(w)
		return
	}
	userID, ok := query.PathID(r, "user_id")
	if !ok {
		response.NotFound(w)
		return
	}
	if err := h.svc.RemoveMember(r.Context(), id, userID); err != nil {
		h.fail(w, err)
		return
	}
	response.NoContent(w)
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
	h.logger.Errorw("group request failed", "err", err)
	response.Error(w, http.StatusInternalServerError, "A server error occurred.")
}
