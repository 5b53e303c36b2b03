package httpapi

import (
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/gin-gonic/gin"

	"callops/internal/store"
)

// listMeta travels with every list response so clients can paginate without
// a separate count round trip.
type listMeta struct {
	Page  int   `json:"page"`
	Limit int   `json:"limit"`
	Total int64 `json:"total"`
}

type listResponse struct {
	Data any      `json:"data"`
	Meta listMeta `json:"meta"`
}

// parseListQuery reads pagination, ordering and filters from the query
// string. Filters arrive as a JSON array in the `where` parameter, e.g.
// where=[{"key":"status","operator":"=","value":"pending"}].
func parseListQuery(c *gin.Context) (store.ListQuery, error) {
	q := store.ListQuery{}

	var err error
	if q.Page, err = intQuery(c, "page"); err != nil {
		return q, err
	}
	if q.Limit, err = intQuery(c, "limit"); err != nil {
		return q, err
	}
	q.OrderBy = c.Query("order_by")
	switch order := c.Query("order"); order {
	case "", "asc":
	case "desc":
		q.Desc = true
	default:
		return q, fmt.Errorf("order must be asc or desc, got %q", order)
	}

	if raw := c.Query("where"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &q.Filters); err != nil {
			return q, fmt.Errorf("where must be a JSON filter array: %w", err)
		}
	}

	return q.Normalize(), nil
}

func intQuery(c *gin.Context, name string) (int, error) {
	raw := c.Query(name)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("%s must be an integer", name)
	}
	return n, nil
}

func idParam(c *gin.Context) (int64, error) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil || id <= 0 {
		return 0, fmt.Errorf("id must be a positive integer")
	}
	return id, nil
}
