package httpx

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/redis/go-redis/v9"

	"github.com/stocklink/mo-reconcile/internal/recon"
	"github.com/stocklink/mo-reconcile/internal/redisx"
	"github.com/stocklink/mo-reconcile/internal/worker"
)

// ReconHandler is the synchronous surface for hosts that call in-request
// instead of dispatching events.
type ReconHandler struct {
	Store   recon.Store
	Trigger *recon.Trigger
	Redis   *redis.Client
	Pub     *worker.Publisher

	PlaceholderProductID int64
}

func (h *ReconHandler) Register(r *chi.Mux) {
	r.Get("/order-entry/options", h.orderEntryOptions)
	r.Get("/mo/{ref}", h.resolveMO)
	r.Post("/orders/{id}/reconcile", h.reconcileOrder)
	r.Post("/shipments/{id}/reconcile", h.reconcileShipment)
}

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}

type reconcileResp struct {
	Status int                 `json:"status"`
	Lines  []recon.LineOutcome `json:"lines"`
}

func (h *ReconHandler) orderEntryOptions(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	tx, err := h.Store.Begin(ctx)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	defer tx.Rollback(ctx)

	opts, err := recon.OrderEntryOptions(ctx, tx)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	writeJSON(w, http.StatusOK, opts)
}

type moPreview struct {
	MORef      string `json:"mo_ref"`
	Status     string `json:"status"`
	ProductID  int64  `json:"product_id"`
	ProductRef string `json:"product_ref"`
	LotID      int64  `json:"lot_id"`
	LotQty     int    `json:"lot_qty"`
}

func (h *ReconHandler) resolveMO(w http.ResponseWriter, r *http.Request) {
	ref := chi.URLParam(r, "ref")
	if ref == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "missing ref"})
		return
	}

	ctx, cancel := context.WithTimeout(r.Context(), 3*time.Second)
	defer cancel()

	// cache first
	key := fmt.Sprintf(redisx.KeyMOResolve, ref)
	if s, err := h.Redis.Get(ctx, key).Result(); err == nil && s != "" {
		writeJSON(w, http.StatusOK, json.RawMessage(s))
		return
	}

	tx, err := h.Store.Begin(ctx)
	if err != nil {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	defer tx.Rollback(ctx)

	resolver := &recon.Resolver{PlaceholderProductID: h.PlaceholderProductID}
	res, err := resolver.Resolve(ctx, tx, ref)
	if err != nil {
		if recon.IsValidation(err) {
			writeJSON(w, http.StatusConflict, map[string]string{
				"error": err.Error(), "reason": recon.ReasonCode(err),
			})
			return
		}
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}

	p := moPreview{
		MORef:      res.MO.Ref,
		Status:     string(res.MO.Status),
		ProductID:  res.MO.ProductID,
		ProductRef: res.MO.ProductRef,
		LotID:      res.Lot.ID,
		LotQty:     res.Lot.Qty,
	}
	b, _ := json.Marshal(p)
	_ = h.Redis.Set(ctx, key, b, redisx.TTLMOResolve).Err()
	writeJSON(w, http.StatusOK, p)
}

func (h *ReconHandler) reconcileOrder(w http.ResponseWriter, r *http.Request) {
	orderID, ok := pathID(w, r)
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	status, results, err := h.Trigger.OrderValidated(ctx, orderID)
	if status == recon.StatusFailed {
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	trace := r.Header.Get("X-Request-Id")
	if status == recon.StatusApplied {
		h.Pub.PublishApplied("order", orderID, results, trace)
		h.dropPreviews(ctx, results)
	}
	writeJSON(w, http.StatusOK, reconcileResp{Status: status, Lines: recon.Outcomes(results)})
}

func (h *ReconHandler) reconcileShipment(w http.ResponseWriter, r *http.Request) {
	shipmentID, ok := pathID(w, r)
	if !ok {
		return
	}
	ctx, cancel := context.WithTimeout(r.Context(), 5*time.Second)
	defer cancel()

	status, results, err := h.Trigger.ShipmentSubmitted(ctx, shipmentID)
	trace := r.Header.Get("X-Request-Id")
	if status == recon.StatusFailed {
		if recon.IsValidation(err) {
			h.Pub.PublishRejected("shipment", shipmentID, recon.ReasonCode(err), results, trace)
			writeJSON(w, http.StatusConflict, reconcileResp{Status: status, Lines: recon.Outcomes(results)})
			return
		}
		writeJSON(w, http.StatusInternalServerError, map[string]string{"error": err.Error()})
		return
	}
	if status == recon.StatusApplied {
		h.Pub.PublishApplied("shipment", shipmentID, results, trace)
		h.dropPreviews(ctx, results)
	}
	writeJSON(w, http.StatusOK, reconcileResp{Status: status, Lines: recon.Outcomes(results)})
}

// an applied rewrite consumed lot stock, so any cached resolution
// preview for those MOs is stale
func (h *ReconHandler) dropPreviews(ctx context.Context, results []recon.LineResult) {
	if keys := worker.MOPreviewKeys(results); len(keys) > 0 {
		_ = h.Redis.Del(ctx, keys...).Err()
	}
}

func pathID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
	if err != nil || id <= 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid id"})
		return 0, false
	}
	return id, true
}
