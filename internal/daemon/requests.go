package daemon

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/felixgeelhaar/etltrainer/internal/domain"
	"github.com/go-playground/validator/v10"
)

// maxCodeBytes bounds editor and submission payloads
const maxCodeBytes = 64 * 1024

type createSessionRequest struct {
	UserID    string `json:"user_id,omitempty" validate:"omitempty,max=64"`
	PatternID string `json:"pattern_id" validate:"required"`
	Mode      string `json:"mode,omitempty" validate:"mode"`
}

type changePatternRequest struct {
	PatternID string `json:"pattern_id" validate:"required"`
}

type setModeRequest struct {
	Mode string `json:"mode" validate:"required,mode"`
}

type editorRequest struct {
	Code string `json:"code" validate:"max=65536"`
}

type submitRequest struct {
	// Code replaces the editor before validation when present
	Code *string `json:"code,omitempty" validate:"omitempty,max=65536"`
}

type retryRequest struct {
	LogID int64 `json:"log_id" validate:"required,gt=0"`
}

func newValidator() *validator.Validate {
	v := validator.New(validator.WithRequiredStructEnabled())
	_ = v.RegisterValidation("mode", validateMode)
	return v
}

// validateMode accepts the training modes, empty meaning canned
func validateMode(fl validator.FieldLevel) bool {
	_, err := domain.ParseMode(fl.Field().String())
	return err == nil
}

// decode reads and validates a JSON body. An empty body decodes as the zero
// value so optional-body endpoints accept bare POSTs.
func (s *Server) decode(w http.ResponseWriter, r *http.Request, dst any) bool {
	body := http.MaxBytesReader(w, r.Body, 2*maxCodeBytes)
	if err := json.NewDecoder(body).Decode(dst); err != nil && !errors.Is(err, io.EOF) {
		s.jsonError(w, http.StatusBadRequest, "invalid request body", err)
		return false
	}
	if err := s.validate.Struct(dst); err != nil {
		s.jsonError(w, http.StatusBadRequest, "validation failed", err)
		return false
	}
	return true
}
