package profile

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/ovaphlow/pitchfork/service-library-go/internal/common"
	"github.com/ovaphlow/pitchfork/service-library-go/internal/principal"
	"github.com/ovaphlow/pitchfork/service-library-go/internal/profile/entity"
	"github.com/ovaphlow/pitchfork/service-library-go/pkg/query"
	"github.com/ovaphlow/pitchfork/service-library-go/pkg/response"
)

type Handler struct {
	svc    *Service
	logger *zap.SugaredLogger
}

func NewHandler(svc *Service, logger *zap.SugaredLogger) *Handler {
	return &Handler{svc: svc, logger: logger}
}

type roleResponse struct {
	Role    string `json:"role"`
	Message string `json:"message"`
}

// RoleView serves GET /api/roles/{role}/ to callers holding that role.
func (h *Handler) RoleView(w http.ResponseWriter, r *http.Request) {
	role, ok := entity.ParseRole(r.PathValue("role"))
	if !ok {
		response.NotFound(w)
		return
	}
	p, ok := principal.FromContext(r.Context())
	if !ok {
		response.Error(w, http.StatusUnauthorized, "Authentication credentials were not provided.")
		return
	}
	if err := h.svc.Require(r.Context(), p.UserID, role); err != nil {
		if errors.Is(err, ErrWrongRole) {
			response.Error(w, http.StatusForbidden, "You do not have permission to perform this action.")
			return
		}
		h.fail(w, err)
		return
	}
	response.JSON(w, http.StatusOK, roleResponse{Role: role, Message: "Welcome, " + role + "."})
}

type roleRequest struct {
	Role string `json:"role"`
}

// SetRole serves PUT /api/users/{id}/role/.
func (h *Handler) SetRole(w http.ResponseWriter, r *http.Request) {
	id, ok := query.PathID(r, "id")
	if !ok {
		response.NotFound(w)
		return
	}
	var req roleRequest
	if !response.Decode(w, r, &req) {
		return
	}
	p, err := h.svc.SetRole(r.Context(), id, req.Role)
	if err != nil {
		h.fail(w, err)
		return
	}
	h.logger.Infow("role changed", "user_id", id, "role", p.Role)
	response.JSON(w, http.StatusOK, p)
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
	h.logger.Errorw("profile request failed", "err", err)
	response.Error(w, http.StatusInternalServerError, "A server error occurred.")
}
