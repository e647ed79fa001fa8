package api

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	httpSwagger "github.com/swaggo/http-swagger"

	"message-stats/internal/metrics"
	"message-stats/internal/model"
	"message-stats/internal/query"
	"message-stats/internal/storage"
)

// ErrorResponse is the wire form of every client-facing error.
type ErrorResponse struct {
	Detail string `json:"detail"`
}

// StatsResponse aggregates a filtered message set.
type StatsResponse struct {
	Messages      []model.Message `json:"messages"`
	MessagesCount int             `json:"messages_count"`
	TotalAmount   model.Amount    `json:"total_amount"`
}

func (a *API) Router() http.Handler {
	r := chi.NewRouter()

	r.Get("/", a.ListMessages)
	r.Post("/", a.CreateMessage)
	r.Get("/message/{uuid}", a.GetMessage)
	r.Get("/messages/", a.ListFilteredMessages)
	r.Get("/stats/", a.GetStats)

	r.Handle("/metrics", metrics.Handler())
	r.Get("/swagger/*", httpSwagger.WrapHandler)

	return r
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, ErrorResponse{Detail: detail})
}

// @Summary List all messages
// @Tags Messages
// @Produce json
// @Success 200 {array} model.Message
// @Router / [get]
func (a *API) ListMessages(w http.ResponseWriter, r *http.Request) {
	messages, err := a.Store.ListMessages()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if messages == nil {
		messages = []model.Message{}
	}
	writeJSON(w, http.StatusOK, messages)
}

// @Summary Create a message
// @Tags Messages
// @Accept json
// @Produce json
// @Param body body model.Message true "Message to create"
// @Success 200 {object} model.Message
// @Failure 400 {object} ErrorResponse "Message already exists"
// @Failure 422 {object} ErrorResponse
// @Router / [post]
func (a *API) CreateMessage(w http.ResponseWriter, r *http.Request) {
	var m model.Message
	if err := json.NewDecoder(r.Body).Decode(&m); err != nil {
		if errors.Is(err, model.ErrInvalidPrecision) {
			writeError(w, http.StatusUnprocessableEntity, err.Error())
			return
		}
		writeError(w, http.StatusUnprocessableEntity, "invalid request body")
		return
	}
	if err := m.Validate(); err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	if err := a.Store.InsertMessage(&m); err != nil {
		if errors.Is(err, storage.ErrDuplicateMessage) {
			writeError(w, http.StatusBadRequest, "Message already exists")
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	metrics.MessagesCreated.WithLabelValues("api").Inc()
	log.Printf("API: Created message %s", m.UUID)
	writeJSON(w, http.StatusOK, m)
}

// @Summary Get a message by uuid
// @Tags Messages
// @Produce json
// @Param uuid path string true "Message UUID"
// @Success 200 {object} model.Message
// @Failure 404 {object} ErrorResponse "Message not found"
// @Router /message/{uuid} [get]
func (a *API) GetMessage(w http.ResponseWriter, r *http.Request) {
	idStr := chi.URLParam(r, "uuid")
	id, err := uuid.Parse(idStr)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, "invalid message uuid")
		return
	}

	m, err := a.Store.GetMessageByUUID(id)
	if err != nil {
		if errors.Is(err, storage.ErrMessageNotFound) {
			writeError(w, http.StatusNotFound, "Message not found")
			return
		}
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, http.StatusOK, m)
}

// @Summary List messages matching the filter parameters
// @Tags Messages
// @Produce json
// @Param start_date query string false "Start of the date range, YYYY-MM-DD or YYYYMMDD"
// @Param end_date query string false "End of the date range, YYYY-MM-DD or YYYYMMDD"
// @Param customerid query int false "Customer ID"
// @Param type query string false "Message type"
// @Success 200 {array} model.Message
// @Failure 422 {object} ErrorResponse
// @Router /messages/ [get]
func (a *API) ListFilteredMessages(w http.ResponseWriter, r *http.Request) {
	f, err := query.FromQuery(r.URL.Query())
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	messages, err := a.Store.ListFiltered(f)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if messages == nil {
		messages = []model.Message{}
	}
	writeJSON(w, http.StatusOK, messages)
}

// @Summary Stats over the messages matching the filter parameters
// @Tags Stats
// @Produce json
// @Param start_date query string false "Start of the date range, YYYY-MM-DD or YYYYMMDD"
// @Param end_date query string false "End of the date range, YYYY-MM-DD or YYYYMMDD"
// @Param customerid query int false "Customer ID"
// @Param type query string false "Message type"
// @Success 200 {object} StatsResponse
// @Failure 422 {object} ErrorResponse
// @Router /stats/ [get]
func (a *API) GetStats(w http.ResponseWriter, r *http.Request) {
	f, err := query.FromQuery(r.URL.Query())
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return
	}

	messages, err := a.Store.ListFiltered(f)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if messages == nil {
		messages = []model.Message{}
	}

	var total model.Amount
	for _, m := range messages {
		total = total.Add(m.Amount)
	}

	writeJSON(w, http.StatusOK, StatsResponse{
		Messages:      messages,
		MessagesCount: len(messages),
		TotalAmount:   total,
	})
}
