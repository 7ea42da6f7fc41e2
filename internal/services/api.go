package services

import (
	"context"
	"encoding/json"
	"errors"
	"math/big"
	"net/http"
	"strconv"

	"hashvault/escrow/internal/models"
	"hashvault/escrow/internal/stores"

	"github.com/ethereum/go-ethereum/common"
	"github.com/rs/zerolog"
)

// ApiService is the HTTP facade over the escrow operations. Caller identity
// is explicit in every mutating request body; authentication of that
// identity is the deployment's concern, not the core's.
type ApiService struct {
	server *http.Server
	escrow *EscrowService
	log    zerolog.Logger
}

func NewApiService(escrow *EscrowService, addr string, log zerolog.Logger) *ApiService {
	a := &ApiService{
		escrow: escrow,
		log:    log,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST /deposits", a.handleCreateDeposit)
	mux.HandleFunc("GET /deposits/{id}", a.handleGetDeposit)
	mux.HandleFunc("POST /deposits/{id}/refund", a.handleRefundDeposit)
	mux.HandleFunc("POST /deposits/{id}/receivers", a.handleAddReceiver)
	mux.HandleFunc("GET /addressed/{id}", a.handleGetAddressed)
	mux.HandleFunc("POST /addressed/{id}/claim", a.handleClaim)
	mux.HandleFunc("POST /addressed/{id}/refund", a.handleRefundAddressed)
	mux.HandleFunc("POST /addressed/{id}/cancel", a.handleCancelAddressed)

	a.server = &http.Server{
		Addr:    addr,
		Handler: mux,
	}
	return a
}

func (a *ApiService) Start() error {
	return a.server.ListenAndServe()
}

func (a *ApiService) Shutdown(ctx context.Context) error {
	return a.server.Shutdown(ctx)
}

func (a *ApiService) Handler() http.Handler {
	return a.server.Handler
}

type createDepositRequest struct {
	Caller common.Address   `json:"caller"`
	Kind   models.AssetKind `json:"kind"`
	Token  common.Address   `json:"token"`
	Amount *big.Int         `json:"amount"`
}

type addReceiverRequest struct {
	Caller          common.Address `json:"caller"`
	Amount          *big.Int       `json:"amount"`
	Receiver        common.Address `json:"receiver"`
	Commitment      common.Hash    `json:"commitment"`
	ValiditySeconds int64          `json:"validity_seconds"`
	Memo            string         `json:"memo"`
}

type claimRequest struct {
	Caller common.Address `json:"caller"`
	Secret string         `json:"secret"`
}

type callerRequest struct {
	Caller common.Address `json:"caller"`
}

type idResponse struct {
	ID     uint64 `json:"id"`
	Status string `json:"status"`
}

type statusResponse struct {
	Status string `json:"status"`
}

func (a *ApiService) handleCreateDeposit(w http.ResponseWriter, r *http.Request) {
	var req createDepositRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}

	var (
		id  uint64
		err error
	)
	switch req.Kind {
	case models.AssetNative:
		id, err = a.escrow.CreateNativeDeposit(r.Context(), req.Caller, req.Amount)
	case models.AssetFungible:
		id, err = a.escrow.CreateFungibleDeposit(r.Context(), req.Caller, req.Token, req.Amount)
	default:
		http.Error(w, "unsupported asset kind", http.StatusBadRequest)
		return
	}
	if err != nil {
		a.writeError(w, err)
		return
	}
	writeJSON(w, idResponse{ID: id, Status: "ok"})
}

func (a *ApiService) handleGetDeposit(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	dep, err := a.escrow.Deposit(r.Context(), id)
	if err != nil {
		a.writeError(w, err)
		return
	}
	writeJSON(w, dep)
}

func (a *ApiService) handleRefundDeposit(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req callerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if err := a.escrow.RefundDeposit(r.Context(), req.Caller, id); err != nil {
		a.writeError(w, err)
		return
	}
	writeJSON(w, statusResponse{Status: "ok"})
}

func (a *ApiService) handleAddReceiver(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req addReceiverRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	addressedID, err := a.escrow.AddReceiver(r.Context(), req.Caller, id, req.Amount, req.Receiver, req.Commitment, req.ValiditySeconds, req.Memo)
	if err != nil {
		a.writeError(w, err)
		return
	}
	writeJSON(w, idResponse{ID: addressedID, Status: "ok"})
}

func (a *ApiService) handleGetAddressed(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	ad, err := a.escrow.AddressedDeposit(r.Context(), id)
	if err != nil {
		a.writeError(w, err)
		return
	}
	writeJSON(w, ad)
}

func (a *ApiService) handleClaim(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req claimRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if err := a.escrow.Claim(r.Context(), req.Caller, id, []byte(req.Secret)); err != nil {
		a.writeError(w, err)
		return
	}
	writeJSON(w, statusResponse{Status: "ok"})
}

func (a *ApiService) handleRefundAddressed(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req callerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if err := a.escrow.RefundAddressedDeposit(r.Context(), req.Caller, id); err != nil {
		a.writeError(w, err)
		return
	}
	writeJSON(w, statusResponse{Status: "ok"})
}

func (a *ApiService) handleCancelAddressed(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req callerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request body", http.StatusBadRequest)
		return
	}
	if err := a.escrow.CancelAddressedDeposit(r.Context(), req.Caller, id); err != nil {
		a.writeError(w, err)
		return
	}
	writeJSON(w, statusResponse{Status: "ok"})
}

func (a *ApiService) writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, stores.ErrDepositNotFound), errors.Is(err, stores.ErrAddressedNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, stores.ErrUnauthorized),
		errors.Is(err, stores.ErrReceiverMismatch),
		errors.Is(err, stores.ErrWrongPassword):
		http.Error(w, err.Error(), http.StatusForbidden)
	case errors.Is(err, stores.ErrInvalidAmount),
		errors.Is(err, stores.ErrInsufficientBalance),
		errors.Is(err, stores.ErrZeroBalance),
		errors.Is(err, stores.ErrNotExpired),
		errors.Is(err, stores.ErrExpired),
		errors.Is(err, stores.ErrInactive):
		http.Error(w, err.Error(), http.StatusConflict)
	default:
		a.log.Error().Err(err).Msg("internal error")
		http.Error(w, "internal server error", http.StatusInternalServerError)
	}
}

func pathID(w http.ResponseWriter, r *http.Request) (uint64, bool) {
	id, err := strconv.ParseUint(r.PathValue("id"), 10, 64)
	if err != nil {
		http.Error(w, "invalid id", http.StatusBadRequest)
		return 0, false
	}
	return id, true
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(v)
}
