package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/gorilla/mux"
	"go.uber.org/zap"

	"swiss-hub/internal/database"
)

// ApiHandler serves the row API over a storage engine.
type ApiHandler struct {
	Rows database.Rows
	Log  *zap.Logger
	Now  func() time.Time
}

func NewApiHandler(rows database.Rows, log *zap.Logger) *ApiHandler {
	if log == nil {
		log = zap.NewNop()
	}
	return &ApiHandler{Rows: rows, Log: log, Now: time.Now}
}

func (h *ApiHandler) table(w http.ResponseWriter, r *http.Request) (database.Table, bool) {
	name := mux.Vars(r)["table"]
	t, ok := database.Lookup(name)
	if !ok {
		respondWithError(w, http.StatusNotFound, "Unknown table "+name)
	}
	return t, ok
}

// query reads equality filters and an optional order=col.dir from the URL.
func query(t database.Table, r *http.Request) (database.Query, error) {
	q := database.Query{Where: map[string]any{}}
	for key, values := range r.URL.Query() {
		if len(values) == 0 {
			continue
		}
		if key == "order" {
			col, desc, err := t.ParseOrder(values[0])
			if err != nil {
				return q, err
			}
			q.OrderBy, q.Desc = col, desc
			continue
		}
		v, err := t.ParseFilter(key, values[0])
		if err != nil {
			return q, err
		}
		q.Where[key] = v
	}
	return q, nil
}

func decodeBody(r *http.Request) (map[string]any, error) {
	var body map[string]any
	dec := json.NewDecoder(r.Body)
	dec.UseNumber()
	if err := dec.Decode(&body); err != nil {
		return nil, err
	}
	return body, nil
}

func (h *ApiHandler) respondWithStoreError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, database.ErrNotFound):
		respondWithError(w, http.StatusNotFound, "Row not found")
	case errors.Is(err, database.ErrUniqueViolation), errors.Is(err, database.ErrForeignKey):
		respondWithError(w, http.StatusConflict, err.Error())
	case errors.Is(err, database.ErrInvalidValue):
		respondWithError(w, http.StatusBadRequest, err.Error())
	default:
		h.Log.Error("row storage failed",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.Error(err))
		respondWithError(w, http.StatusInternalServerError, "Storage error")
	}
}

func (h *ApiHandler) ListRows(w http.ResponseWriter, r *http.Request) {
	t, ok := h.table(w, r)
	if !ok {
		return
	}
	q, err := query(t, r)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}
	rows, err := h.Rows.List(r.Context(), t, q)
	if err != nil {
		h.respondWithStoreError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, rows)
}

func (h *ApiHandler) GetRow(w http.ResponseWriter, r *http.Request) {
	t, ok := h.table(w, r)
	if !ok {
		return
	}
	row, err := h.Rows.Get(r.Context(), t, mux.Vars(r)["id"])
	if err != nil {
		h.respondWithStoreError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, row)
}

func (h *ApiHandler) CreateRow(w http.ResponseWriter, r *http.Request) {
	t, ok := h.table(w, r)
	if !ok {
		return
	}
	body, err := decodeBody(r)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	row, err := t.Coerce(body, false)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}
	if details := validateRow(t, row); details != nil {
		respondWithDetails(w, http.StatusUnprocessableEntity, "Validation failed", details)
		return
	}

	created, err := h.Rows.Insert(r.Context(), t, t.WithDefaults(row, h.Now().UTC()))
	if err != nil {
		h.respondWithStoreError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusCreated, created)
}

func (h *ApiHandler) UpdateRow(w http.ResponseWriter, r *http.Request) {
	t, ok := h.table(w, r)
	if !ok {
		return
	}
	body, err := decodeBody(r)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid request payload")
		return
	}
	delete(body, "id")
	changes, err := t.Coerce(body, true)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}
	if details := validateRow(t, changes); details != nil {
		respondWithDetails(w, http.StatusUnprocessableEntity, "Validation failed", details)
		return
	}

	updated, err := h.Rows.Update(r.Context(), t, mux.Vars(r)["id"], t.Touched(changes, h.Now().UTC()))
	if err != nil {
		h.respondWithStoreError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, updated)
}

func (h *ApiHandler) DeleteRow(w http.ResponseWriter, r *http.Request) {
	t, ok := h.table(w, r)
	if !ok {
		return
	}
	n, err := h.Rows.Delete(r.Context(), t, map[string]any{"id": mux.Vars(r)["id"]})
	if err != nil {
		h.respondWithStoreError(w, r, err)
		return
	}
	if n == 0 {
		respondWithError(w, http.StatusNotFound, "Row not found")
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]int64{"deleted": n})
}

// DeleteRows removes every row matching the query filters. At least one
// filter is required.
func (h *ApiHandler) DeleteRows(w http.ResponseWriter, r *http.Request) {
	t, ok := h.table(w, r)
	if !ok {
		return
	}
	q, err := query(t, r)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, err.Error())
		return
	}
	if len(q.Where) == 0 {
		respondWithError(w, http.StatusBadRequest, "Bulk delete requires a filter")
		return
	}
	n, err := h.Rows.Delete(r.Context(), t, q.Where)
	if err != nil {
		h.respondWithStoreError(w, r, err)
		return
	}
	respondWithJSON(w, http.StatusOK, map[string]int64{"deleted": n})
}

func (h *ApiHandler) Stats(w http.ResponseWriter, r *http.Request) {
	counts := map[string]int64{}
	for key, name := range map[string]string{
		"total_courses":     "courses",
		"total_users":       "users",
		"total_enrollments": "enrollments",
	} {
		t, _ := database.Lookup(name)
		n, err := h.Rows.Count(r.Context(), t)
		if err != nil {
			h.respondWithStoreError(w, r, err)
			return
		}
		counts[key] = n
	}
	respondWithJSON(w, http.StatusOK, counts)
}

func (h *ApiHandler) Health(w http.ResponseWriter, r *http.Request) {
	respondWithJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func respondWithJSON(w http.ResponseWriter, code int, payload interface{}) {
	response, _ := json.Marshal(payload)
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	w.Write(response)
}

func respondWithError(w http.ResponseWriter, code int, message string) {
	respondWithJSON(w, code, map[string]string{"error": message})
}

func respondWithDetails(w http.ResponseWriter, code int, message string, details map[string]string) {
	respondWithJSON(w, code, map[string]any{"error": message, "details": details})
}
