package handlers

import (
	"fmt"
	"net/http"
	"strconv"

	"github.com/namsan/ministry/internal/models"
)

// parseWeights reads the six composite-score weights from w0..w5 query
// params. Missing or malformed values fall back to the even split. Weights
// live in the request only; nothing is persisted.
func parseWeights(r *http.Request) models.Weights {
	w := models.EqualWeights()
	q := r.URL.Query()
	for i := 0; i < models.IndicatorCount; i++ {
		raw := q.Get(fmt.Sprintf("w%d", i))
		if raw == "" {
			continue
		}
		v, err := strconv.ParseFloat(raw, 64)
		if err != nil || v < 0 || v > 100 {
			continue
		}
		w[i] = v
	}
	return w
}

// weightQuery re-encodes weights for links that must carry the current
// slider state along.
func weightQuery(w models.Weights) string {
	out := ""
	for i := 0; i < models.IndicatorCount; i++ {
		out += fmt.Sprintf("&w%d=%g", i, w[i])
	}
	return out
}
