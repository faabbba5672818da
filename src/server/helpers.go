package server

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"nepse-observer/src/helpers"

	"github.com/gin-gonic/gin"
)

// -----------------------------------------------------------------------------

// queryInt reads an integer query parameter clamped to [min, max].
// Missing or unparsable values yield def.
func queryInt(c *gin.Context, key string, def, min, max int) int {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return def
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return def
	}
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}

// -----------------------------------------------------------------------------

func queryFloat(c *gin.Context, key string, def float64) float64 {
	raw := strings.TrimSpace(c.Query(key))
	if raw == "" {
		return def
	}
	v, err := strconv.ParseFloat(raw, 64)
	if err != nil || v < 0 {
		return def
	}
	return v
}

// -----------------------------------------------------------------------------

// descending accepts "desc" (any case); everything else sorts ascending.
func descending(dir string) bool {
	return strings.EqualFold(strings.TrimSpace(dir), "desc")
}

// -----------------------------------------------------------------------------

func millis(d time.Duration) int64 {
	return d.Milliseconds()
}

// -----------------------------------------------------------------------------

// statusFor maps the error taxonomy onto HTTP status codes.
func statusFor(err error) int {
	var valErr *helpers.ValidationError
	var dbErr *helpers.DatabaseError
	switch {
	case errors.As(err, &valErr):
		return http.StatusBadRequest
	case errors.As(err, &dbErr):
		return http.StatusInternalServerError
	default:
		return helpers.StatusCode(err, http.StatusInternalServerError)
	}
}

func writeError(c *gin.Context, err error) {
	c.JSON(statusFor(err), gin.H{"error": err.Error()})
}

// -----------------------------------------------------------------------------

func contains(slice []string, item string) bool {
	for _, s := range slice {
		if s == item {
			return true
		}
	}
	return false
}
