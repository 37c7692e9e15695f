package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/gorilla/mux"
)

var (
	// ErrInvalidID возвращается для нечислового или неположительного ID в пути
	ErrInvalidID = errors.New("invalid id")

	// ErrInvalidTime возвращается для времени не в формате RFC 3339
	ErrInvalidTime = errors.New("invalid time")
)

// PathID читает положительный int64 параметр пути
func PathID(r *http.Request, name string) (int64, error) {
	raw := mux.Vars(r)[name]
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("%w: %s=%q", ErrInvalidID, name, raw)
	}
	return id, nil
}

// QueryTime читает обязательный query параметр в формате RFC 3339
func QueryTime(r *http.Request, name string) (time.Time, error) {
	raw := r.URL.Query().Get(name)
	t, err := time.Parse(time.RFC3339, raw)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %s=%q", ErrInvalidTime, name, raw)
	}
	return t.UTC(), nil
}

// OptionalQueryTime как QueryTime, но отсутствующий параметр даёт nil
func OptionalQueryTime(r *http.Request, name string) (*time.Time, error) {
	if r.URL.Query().Get(name) == "" {
		return nil, nil
	}
	t, err := QueryTime(r, name)
	if err != nil {
		return nil, err
	}
	return &t, nil
}

// OptionalQueryString возвращает nil для отсутствующего параметра
func OptionalQueryString(r *http.Request, name string) *string {
	v := r.URL.Query().Get(name)
	if v == "" {
		return nil
	}
	return &v
}

// QueryLimit читает limit, 0 если не задан
func QueryLimit(r *http.Request) (uint64, error) {
	raw := r.URL.Query().Get("limit")
	if raw == "" {
		return 0, nil
	}
	limit, err := strconv.ParseUint(raw, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: limit=%q", ErrInvalidID, raw)
	}
	return limit, nil
}
