package httpx

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/ariefcatur/go-digital-market.git/internal/errs"
	"go.uber.org/zap"
)

const maxBodyBytes = 1 << 20

type errorBody struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

// statusFor maps an error kind to its HTTP status.
func statusFor(err error) int {
	switch errs.Kind(err) {
	case errs.ErrNotFound:
		return http.StatusNotFound
	case errs.ErrNotEntitled:
		return http.StatusForbidden
	case errs.ErrInvalidSignature, errs.ErrInvalid:
		return http.StatusBadRequest
	case errs.ErrConflict:
		return http.StatusConflict
	case errs.ErrUpstream:
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

// writeError hides the details of upstream and internal failures from clients.
func writeError(w http.ResponseWriter, log *zap.Logger, err error) {
	code := statusFor(err)
	msg := err.Error()
	switch code {
	case http.StatusBadGateway:
		msg = "upstream unavailable"
	case http.StatusInternalServerError:
		msg = "internal error"
	}
	if code >= 500 && log != nil {
		log.Error("request failed", zap.Int("status", code), zap.Error(err))
	}
	writeJSON(w, code, errorBody{Error: msg})
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var mbe *http.MaxBytesError
		if errors.As(err, &mbe) {
			return fmt.Errorf("%w: body too large", errs.ErrInvalid)
		}
		return fmt.Errorf("%w: invalid json", errs.ErrInvalid)
	}
	return nil
}
