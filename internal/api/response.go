package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"goods-be/internal/apperr"
	"goods-be/internal/logger"

	"go.uber.org/zap"
)

const maxBodyBytes = 1 << 20

var (
	ErrLoginRequired = apperr.New(apperr.KindUnauthorized, "log in required")
	ErrBadRequest    = apperr.New(apperr.KindValidation, "invalid request body")
	ErrMissingArgs   = apperr.New(apperr.KindValidation, "required arguments are missing")
	ErrBadQuery      = apperr.New(apperr.KindValidation, "invalid query parameter")
)

type envelope map[string]any

func writeJSON(w http.ResponseWriter, status int, body envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

// writeOK merges fields into a successful envelope.
func writeOK(w http.ResponseWriter, fields envelope) {
	body := envelope{"Status": true}
	for k, v := range fields {
		body[k] = v
	}
	writeJSON(w, http.StatusOK, body)
}

func statusFor(kind apperr.Kind) int {
	switch kind {
	case apperr.KindValidation:
		return http.StatusBadRequest
	case apperr.KindUnauthorized:
		return http.StatusUnauthorized
	case apperr.KindForbidden:
		return http.StatusForbidden
	case apperr.KindNotFound:
		return http.StatusNotFound
	case apperr.KindConflict:
		return http.StatusConflict
	case apperr.KindIntegrity:
		return http.StatusUnprocessableEntity
	case apperr.KindUpstream:
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(apperr.KindOf(err))
	log := logger.FromCtx(r.Context())
	if status >= http.StatusInternalServerError && status != http.StatusBadGateway {
		log.Error("request failed", zap.String("path", r.URL.Path), zap.Error(err))
	} else {
		log.Debug("request rejected", zap.String("path", r.URL.Path), zap.Int("status", status), zap.Error(err))
	}
	writeJSON(w, status, envelope{"Status": false, "Error": apperr.Message(err)})
}

func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.UseNumber()
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return ErrMissingArgs
		}
		return ErrBadRequest.With(err.Error())
	}
	return nil
}
