// Package handlers implements the REST endpoints of the Kraxel API.
package handlers

import (
	"net/http"
	"strconv"
)

func queryInt(r *http.Request, name string, def int) int {
	v := r.URL.Query().Get(name)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return def
	}
	return n
}

func queryFloat(r *http.Request, name string) *float64 {
	v := r.URL.Query().Get(name)
	if v == "" {
		return nil
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return nil
	}
	return &f
}

func queryBool(r *http.Request, name string, def bool) bool {
	v := r.URL.Query().Get(name)
	if v == "" {
		return def
	}
	return v == "true" || v == "1" || v == "yes"
}

func pageMeta(total int64, limit, offset int) map[string]any {
	return map[string]any{
		"total":  total,
		"limit":  limit,
		"offset": offset,
	}
}
