package user

import (
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/ovaphlow/pitchfork/service-library-go/internal/common"
	"github.com/ovaphlow/pitchfork/service-library-go/internal/principal"
	"github.com/ovaphlow/pitchfork/service-library-go/internal/user/entity"
	"github.com/ovaphlow/pitchfork/service-library-go/pkg/response"
)

// Handler exposes HTTP endpoints for account operations.
type Handler struct {
	svc            *UserService
	logger         *zap.SugaredLogger
	maxUploadBytes int64
}

func NewHandler(svc *UserService, logger *zap.SugaredLogger, maxUploadBytes int64) *Handler {
	if maxUploadBytes <= 0 {
		maxUploadBytes = 5 << 20
	}
	return &Handler{svc: svc, logger: logger, maxUploadBytes: maxUploadBytes}
}

// Register serves POST /api/auth/register.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req NewUser
	if !response.Decode(w, r, &req) {
		return
	}
	u, err := h.svc.CreateUser(r.Context(), req)
	if err != nil {
		h.fail(w, err)
		return
	}
	h.logger.Infow("user registered", "user_id", u.ID, "username", u.Username)
	response.JSON(w, http.StatusCreated, entity.NewView(u, ""))
}

// Me serves GET /api/auth/me.
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	p, _ := principal.FromContext(r.Context())
	v, err := h.svc.View(r.Context(), p.UserID)
	if err != nil {
		h.fail(w, err)
		return
	}
	response.JSON(w, http.StatusOK, v)
}

// UpdateMe serves PATCH /api/users/me.
func (h *Handler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	p, _ := principal.FromContext(r.Context())
	var req ProfileUpdate
	if !response.Decode(w, r, &req) {
		return
	}
	v, err := h.svc.UpdateMe(r.Context(), p.UserID, req)
	if err != nil {
		h.fail(w, err)
		return
	}
	response.JSON(w, http.StatusOK, v)
}

// UploadPhoto serves PUT /api/users/me/photo with a multipart profile_photo field.
func (h *Handler) UploadPhoto(w http.ResponseWriter, r *http.Request) {
	p, _ := principal.FromContext(r.Context())
	r.Body = http.MaxBytesReader(w, r.Body, h.maxUploadBytes+(1<<20))
	if err := r.ParseMultipartForm(h.maxUploadBytes); err != nil {
		response.Validation(w, common.ValidationError{"profile_photo": {"The submitted data was not a file. Check the encoding type on the form."}})
		return
	}
	file, header, err := r.FormFile("profile_photo")
	if err != nil {
		response.Validation(w, common.ValidationError{"profile_photo": {"No file was submitted."}})
		return
	}
	defer file.Close()
	if header.Size > h.maxUploadBytes {
		response.Validation(w, common.ValidationError{"profile_photo": {"The uploaded file is too large."}})
		return
	}
	v, err := h.svc.SetPhoto(r.Context(), p.UserID, file, header.Size, header.Header.Get("Content-Type"))
	if err != nil {
		h.fail(w, err)
		return
	}
	response.JSON(w, http.StatusOK, v)
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
	h.logger.Errorw("user request failed", "err", err)
	response.Error(w, http.StatusInternalServerError, "A server error occurred.")
}
