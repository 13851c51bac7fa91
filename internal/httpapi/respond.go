package httpapi

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/KostevSerg/flo-rustic-shop/internal/domain"
)

const maxBodyBytes = 1 << 20

// Responder writes JSON responses and maps domain errors onto status codes.
type Responder struct {
	logger *slog.Logger
}

func NewResponder(logger *slog.Logger) Responder {
	return Responder{logger: logger}
}

func (r Responder) JSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		r.logger.Error("failed to encode response", "error", err)
	}
}

func (r Responder) Error(w http.ResponseWriter, status int, message string) {
	r.JSON(w, status, map[string]string{"error": message})
}

// Fail writes err to the client. Known domain errors are surfaced with their
// message; anything else is logged and reported as an internal error.
func (r Responder) Fail(w http.ResponseWriter, err error) {
	status := StatusFor(err)
	if status == http.StatusInternalServerError && !isDomainError(err) {
		r.logger.Error("unhandled error", "error", err)
		r.Error(w, status, "internal server error")
		return
	}
	r.Error(w, status, err.Error())
}

type validationResponse struct {
	Error   string            `json:"error"`
	Details map[string]string `json:"details"`
}

func (r Responder) Invalid(w http.ResponseWriter, details map[string]string) {
	r.JSON(w, http.StatusBadRequest, validationResponse{Error: "validation failed", Details: details})
}

// StatusFor maps an error onto the HTTP status reported to clients.
func StatusFor(err error) int {
	switch {
	case errors.Is(err, domain.ErrInvalidArgument):
		return http.StatusBadRequest
	case errors.Is(err, domain.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrConflict):
		return http.StatusConflict
	default:
		return http.StatusInternalServerError
	}
}

func isDomainError(err error) bool {
	return errors.Is(err, domain.ErrUnavailable) || errors.Is(err, domain.ErrUpstream)
}

// Decode reads a JSON request body into dst.
func Decode(r *http.Request, dst any) error {
	body := http.MaxBytesReader(nil, r.Body, maxBodyBytes)
	if err := json.NewDecoder(body).Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return fmt.Errorf("%w: empty request body", domain.ErrInvalidArgument)
		}
		return fmt.Errorf("%w: invalid request body", domain.ErrInvalidArgument)
	}
	return nil
}

// ParseID parses a positive integer identifier taken from a path or query
// parameter called name.
func ParseID(name, raw string) (int64, error) {
	if raw == "" {
		return 0, fmt.Errorf("%w: %s is required", domain.ErrInvalidArgument, name)
	}
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: %s must be a positive integer", domain.ErrInvalidArgument, name)
	}
	return id, nil
}
