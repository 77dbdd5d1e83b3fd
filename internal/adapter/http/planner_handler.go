package http

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/YelzhanWeb/bulkplan/internal/adapter/logger"
	"github.com/YelzhanWeb/bulkplan/internal/adapter/render"
	"github.com/YelzhanWeb/bulkplan/internal/app/session"
	"github.com/YelzhanWeb/bulkplan/internal/domain"
	"github.com/YelzhanWeb/bulkplan/internal/interfaces"
)

const DefaultMaxBodyBytes = 10 << 20

type PlannerHandler struct {
	service      interfaces.PlannerService
	logger       logger.Logger
	renderer     *render.Renderer
	maxBodyBytes int64
}

func NewPlannerHandler(service interfaces.PlannerService, logger logger.Logger, maxBodyBytes int64) *PlannerHandler {
	if maxBodyBytes <= 0 {
		maxBodyBytes = DefaultMaxBodyBytes
	}
	return &PlannerHandler{
		service:      service,
		logger:       logger,
		renderer:     render.Plain(),
		maxBodyBytes: maxBodyBytes,
	}
}

type CommandRequest struct {
	Text   string `json:"text"`
	Source string `json:"source,omitempty"`
}

type ScheduleResponse struct {
	Operations []domain.Operation `json:"operations"`
	Orders     int                `json:"orders"`
	Total      int                `json:"total_operations"`
	SpanStart  time.Time          `json:"span_start"`
	SpanEnd    time.Time          `json:"span_end"`
}

type ErrorResponse struct {
	Error string `json:"error"`
}

// GetSchedule returns the current schedule narrowed by the max_orders,
// product and machine query parameters.
func (h *PlannerHandler) GetSchedule(w http.ResponseWriter, r *http.Request) {
	h.writeSchedule(w, r, h.service.Current())
}

func (h *PlannerHandler) GetBaseSchedule(w http.ResponseWriter, r *http.Request) {
	h.writeSchedule(w, r, h.service.Base())
}

func (h *PlannerHandler) writeSchedule(w http.ResponseWriter, r *http.Request, sched domain.Schedule) {
	filter, err := filterFromQuery(r)
	if err != nil {
		respondError(w, err.Error(), http.StatusBadRequest)
		return
	}

	ops := filter.Apply(sched.Operations())
	resp := ScheduleResponse{
		Operations: ops,
		Orders:     countOrders(ops),
		Total:      sched.Len(),
	}
	resp.SpanStart, resp.SpanEnd = sched.Span()
	if resp.Operations == nil {
		resp.Operations = []domain.Operation{}
	}

	respondJSON(w, http.StatusOK, resp)
}

// GetTimeline renders the filtered current schedule as a plain-text chart.
func (h *PlannerHandler) GetTimeline(w http.ResponseWriter, r *http.Request) {
	filter, err := filterFromQuery(r)
	if err != nil {
		respondError(w, err.Error(), http.StatusBadRequest)
		return
	}

	opts := render.Options{Width: render.DefaultWidth, Color: render.ColorMode(r.URL.Query().Get("color"))}
	if v := r.URL.Query().Get("width"); v != "" {
		width, err := strconv.Atoi(v)
		if err != nil || width < 10 {
			respondError(w, "width must be an integer >= 10", http.StatusBadRequest)
			return
		}
		opts.Width = width
	}

	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = io.WriteString(w, h.renderer.Timeline(filter.Apply(h.service.Current().Operations()), opts))
}

func (h *PlannerHandler) GetOrderOperations(w http.ResponseWriter, r *http.Request) {
	orderID := strings.ToUpper(chi.URLParam(r, "id"))

	ops, err := h.service.OrderTimeline(orderID)
	if err != nil {
		if errors.Is(err, domain.ErrUnknownOrder) {
			respondError(w, "Order not found", http.StatusNotFound)
			return
		}
		respondError(w, err.Error(), http.StatusInternalServerError)
		return
	}

	respondJSON(w, http.StatusOK, ops)
}

func (h *PlannerHandler) ListMachines(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.service.MachineNames())
}

// ListProducts returns the product codes accepted by the product filter.
func (h *PlannerHandler) ListProducts(w http.ResponseWriter, r *http.Request) {
	products := h.service.Base().Products()
	sort.Strings(products)
	if products == nil {
		products = []string{}
	}
	respondJSON(w, http.StatusOK, products)
}

// PostCommand applies a typed command. Rejected commands answer 422 with the
// same body shape as accepted ones.
func (h *PlannerHandler) PostCommand(w http.ResponseWriter, r *http.Request) {
	var req CommandRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, h.maxBodyBytes)).Decode(&req); err != nil {
		respondError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	source := req.Source
	if source == "" {
		source = domain.SourceText
	}

	res, err := h.service.ProcessText(r.Context(), req.Text, source)
	if err != nil {
		if errors.Is(err, session.ErrEmptyCommand) {
			respondError(w, "text is required", http.StatusBadRequest)
			return
		}
		h.logger.Error("command_failed", "Failed to process command", requestIDFrom(r), nil, err)
		respondError(w, err.Error(), http.StatusInternalServerError)
		return
	}

	respondJSON(w, resultStatus(res), res)
}

// PostVoiceCommand transcribes the raw request body and applies the result.
func (h *PlannerHandler) PostVoiceCommand(w http.ResponseWriter, r *http.Request) {
	audio, err := io.ReadAll(http.MaxBytesReader(w, r.Body, h.maxBodyBytes))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respondError(w, "Audio too large", http.StatusRequestEntityTooLarge)
			return
		}
		respondError(w, "Failed to read audio", http.StatusBadRequest)
		return
	}

	mimetype := r.Header.Get("Content-Type")
	if mimetype == "" {
		mimetype = "audio/wav"
	}

	res, err := h.service.ProcessVoice(r.Context(), audio, mimetype)
	if err != nil {
		status := voiceErrorStatus(err)
		if status >= http.StatusInternalServerError {
			h.logger.Error("voice_command_failed", "Failed to process voice command", requestIDFrom(r), nil, err)
		}
		respondError(w, err.Error(), status)
		return
	}

	respondJSON(w, resultStatus(res), res)
}

func (h *PlannerHandler) ListCommands(w http.ResponseWriter, r *http.Request) {
	entries := h.service.Commands()
	if entries == nil {
		entries = []domain.CommandEntry{}
	}
	respondJSON(w, http.StatusOK, entries)
}

func (h *PlannerHandler) GetTranscript(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"transcript": h.service.LastTranscript()})
}

func (h *PlannerHandler) PostReset(w http.ResponseWriter, r *http.Request) {
	h.service.Reset(r.Context())
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"status":     "reset",
		"operations": h.service.Current().Len(),
	})
}

func (h *PlannerHandler) Health(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func resultStatus(res interfaces.CommandResult) int {
	if res.Accepted {
		return http.StatusOK
	}
	return http.StatusUnprocessableEntity
}

func voiceErrorStatus(err error) int {
	switch {
	case errors.Is(err, session.ErrDuplicateAudio):
		return http.StatusConflict
	case errors.Is(err, session.ErrNoSpeech):
		return http.StatusUnprocessableEntity
	case errors.Is(err, session.ErrNoTranscriber):
		return http.StatusServiceUnavailable
	default:
		return http.StatusBadGateway
	}
}

func filterFromQuery(r *http.Request) (render.Filter, error) {
	q := r.URL.Query()
	filter := render.Filter{
		MaxOrders: render.DefaultMaxOrders,
		Products:  splitList(q["product"]),
		Machines:  splitList(q["machine"]),
	}

	if v := q.Get("max_orders"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 {
			return render.Filter{}, errors.New("max_orders must be a positive integer")
		}
		filter.MaxOrders = n
	}
	return filter, nil
}

// splitList accepts both repeated parameters and comma separated values.
func splitList(values []string) []string {
	var out []string
	for _, v := range values {
		for _, part := range strings.Split(v, ",") {
			if part = strings.TrimSpace(part); part != "" {
				out = append(out, part)
			}
		}
	}
	return out
}

func countOrders(ops []domain.Operation) int {
	seen := make(map[string]struct{})
	for _, op := range ops {
		seen[op.OrderID] = struct{}{}
	}
	return len(seen)
}

func respondJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func respondError(w http.ResponseWriter, message string, status int) {
	respondJSON(w, status, ErrorResponse{Error: message})
}
