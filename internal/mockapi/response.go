package mockapi

import (
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/PHJ369906/aox-miniapp/internal/core/domain"
)

func writeEnvelope(w http.ResponseWriter, status, code int, msg string, data any) {
	var raw json.RawMessage
	if data != nil {
		var err error
		if raw, err = json.Marshal(data); err != nil {
			status, code, msg, raw = http.StatusInternalServerError, 500, "encode failed", nil
		}
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(domain.Envelope{
		Code:      code,
		Msg:       msg,
		Data:      raw,
		Timestamp: time.Now().UnixMilli(),
	})
}

func respondOK(w http.ResponseWriter, data any) {
	writeEnvelope(w, http.StatusOK, domain.CodeOK, "success", data)
}

// respondFail reports a business failure with HTTP 200.
func respondFail(w http.ResponseWriter, code int, msg string) {
	writeEnvelope(w, http.StatusOK, code, msg, nil)
}

func (s *Server) writeExpired(w http.ResponseWriter, msg string) {
	status := http.StatusOK
	if s.httpUnauthorized.Load() {
		status = http.StatusUnauthorized
	}
	writeEnvelope(w, status, domain.CodeUnauthorized, msg, nil)
}

func decodeBody(r *http.Request, dst any) bool {
	return json.NewDecoder(r.Body).Decode(dst) == nil
}

func idParam(r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	return id, err == nil && id > 0
}

func pageParams(r *http.Request) (pageNum, pageSize int) {
	pageNum, _ = strconv.Atoi(r.URL.Query().Get("pageNum"))
	pageSize, _ = strconv.Atoi(r.URL.Query().Get("pageSize"))
	if pageNum < 1 {
		pageNum = 1
	}
	if pageSize < 1 {
		pageSize = 10
	}
	return pageNum, pageSize
}

// paginate slices items into the requested page.
func paginate[T any](items []T, pageNum, pageSize int) map[string]any {
	start := (pageNum - 1) * pageSize
	if start > len(items) {
		start = len(items)
	}
	end := min(start+pageSize, len(items))
	records := append([]T{}, items[start:end]...)
	return map[string]any{
		"records": records,
		"total":   len(items),
		"current": pageNum,
		"size":    pageSize,
	}
}
