package api

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/mynextid/private-score/models"
	"github.com/mynextid/private-score/proof"
	"github.com/mynextid/private-score/proof/gnarkbackend"
	"github.com/mynextid/private-score/service"
)

// Server handles HTTP requests for scores, commitments and proofs
type Server struct {
	svc     *service.Service
	backend string
}

// NewServer creates a new HTTP server. backend names the proof backend in
// circuit listings.
func NewServer(svc *service.Service, backend string) *Server {
	return &Server{
		svc:     svc,
		backend: backend,
	}
}

// ==== Request/Response Types ====

// ScoreResponse is a wallet's computed credit score
type ScoreResponse struct {
	Address string                   `json:"address"`
	Result  models.CreditScoreResult `json:"result"`
}

// ProveResponse represents a proof generation response
type ProveResponse struct {
	Proof     models.GeneratedProof `json:"proof"`
	ProofHash string                `json:"proofHash"`
	Nonce     uint64                `json:"nonce"`
}

// VerifyRequest represents a proof verification request. With Address set
// the proof is also checked against that wallet's commitment.
type VerifyRequest struct {
	Proof   models.GeneratedProof `json:"proof"`
	Address string                `json:"address,omitempty"`
}

// VerifyResponse represents a proof verification response
type VerifyResponse struct {
	Valid     bool      `json:"valid"`
	Timestamp time.Time `json:"timestamp"`
	Message   string    `json:"message,omitempty"`
}

// ErrorResponse represents an error response
type ErrorResponse struct {
	Error     string    `json:"error"`
	Code      string    `json:"code,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// CircuitInfoResponse represents circuit information
type CircuitInfoResponse struct {
	Name            models.Circuit `json:"name"`
	Version         uint           `json:"version"`
	Description     string         `json:"description"`
	ValiditySeconds int64          `json:"validitySeconds"`
	Checks          []string       `json:"checks,omitempty"`
	PublicInputs    []string       `json:"publicInputs"`
}

// CircuitListResponse represents a list of circuits
type CircuitListResponse struct {
	Circuits []CircuitInfoResponse `json:"circuits"`
	Count    int                   `json:"count"`
	Backend  string                `json:"backend"`
}

// PoolResponse is a lending pool and the collateral saved by a credit proof
type PoolResponse struct {
	models.LendingPool
	CollateralSavingsBps uint32 `json:"collateralSavingsBps"`
}

// ==== Handlers ====

// HandleHealth handles health check requests
func (s *Server) HandleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
		"time":   time.Now().Format(time.RFC3339),
	})
}

func circuitInfo(ci gnarkbackend.CircuitInfo) CircuitInfoResponse {
	info := CircuitInfoResponse{
		Name:            ci.Circuit,
		Version:         ci.Version,
		Description:     ci.Description,
		ValiditySeconds: int64(ci.Circuit.Validity().Seconds()),
		PublicInputs:    publicInputNames(ci.Circuit),
	}
	if ci.Circuit.Composite() {
		info.Checks = models.CompositeChecks
	}
	return info
}

// HandleListCircuits lists all available circuits
func (s *Server) HandleListCircuits(w http.ResponseWriter, r *http.Request) {
	circuits := make([]CircuitInfoResponse, 0, len(gnarkbackend.CircuitList))
	for _, ci := range gnarkbackend.CircuitList {
		circuits = append(circuits, circuitInfo(ci))
	}

	respondJSON(w, http.StatusOK, CircuitListResponse{
		Circuits: circuits,
		Count:    len(circuits),
		Backend:  s.backend,
	})
}

// HandleGetCircuit gets information about a specific circuit
func (s *Server) HandleGetCircuit(w http.ResponseWriter, r *http.Request) {
	circuitName := chi.URLParam(r, "circuit")

	ci, ok := gnarkbackend.Lookup(models.Circuit(circuitName))
	if !ok {
		respondError(w, http.StatusNotFound, "circuit_not_found",
			fmt.Sprintf("circuit '%s' not found", circuitName))
		return
	}

	respondJSON(w, http.StatusOK, circuitInfo(ci))
}

// HandleListPools lists the configured lending pools
func (s *Server) HandleListPools(w http.ResponseWriter, r *http.Request) {
	pools := make([]PoolResponse, 0)
	for _, p := range s.svc.Pools() {
		pools = append(pools, PoolResponse{LendingPool: p, CollateralSavingsBps: p.CollateralSavingsBps()})
	}
	respondJSON(w, http.StatusOK, pools)
}

// HandleScore computes the score of a wallet
func (s *Server) HandleScore(w http.ResponseWriter, r *http.Request) {
	address := chi.URLParam(r, "address")

	result, err := s.svc.Score(r.Context(), address)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, ScoreResponse{Address: address, Result: result})
}

// HandleRegister commits to the wallet's current score
func (s *Server) HandleRegister(w http.ResponseWriter, r *http.Request) {
	record, err := s.svc.Register(r.Context(), chi.URLParam(r, "address"))
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, record.Public(s.svc.Now()))
}

// HandleUpdate rotates the wallet's commitment to a fresh score
func (s *Server) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	record, err := s.svc.Update(r.Context(), chi.URLParam(r, "address"))
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, record.Public(s.svc.Now()))
}

// HandleGetCommitment returns the active public commitment
func (s *Server) HandleGetCommitment(w http.ResponseWriter, r *http.Request) {
	record, err := s.svc.Commitment(r.Context(), chi.URLParam(r, "address"))
	if err != nil {
		respondServiceError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, record.Public(s.svc.Now()))
}

// HandleRevoke deletes the wallet's commitment
func (s *Server) HandleRevoke(w http.ResponseWriter, r *http.Request) {
	if err := s.svc.Revoke(r.Context(), chi.URLParam(r, "address")); err != nil {
		respondServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// HandleProve handles proof generation requests
func (s *Server) HandleProve(w http.ResponseWriter, r *http.Request) {
	circuitName := chi.URLParam(r, "circuit")

	// Check if circuit exists
	circuit, err := models.ParseCircuit(circuitName)
	if err != nil {
		respondError(w, http.StatusNotFound, "circuit_not_found",
			fmt.Sprintf("circuit '%s' not found", circuitName))
		return
	}

	var params service.ProveParams
	if !decodeBody(w, r, &params) {
		return
	}

	generated, err := s.svc.Prove(r.Context(), chi.URLParam(r, "address"), circuit, params)
	if err != nil {
		respondServiceError(w, err)
		return
	}

	proofBytes, _, err := proof.EncodeForVerifier(generated)
	if err != nil {
		respondServiceError(w, err)
		return
	}
	nonce, _ := proof.Nonce(generated)

	respondJSON(w, http.StatusOK, ProveResponse{
		Proof:     generated,
		ProofHash: proof.ProofHash(proofBytes),
		Nonce:     nonce,
	})
}

// HandleVerify handles proof verification requests
func (s *Server) HandleVerify(w http.ResponseWriter, r *http.Request) {
	circuitName := chi.URLParam(r, "circuit")

	circuit, err := models.ParseCircuit(circuitName)
	if err != nil {
		respondError(w, http.StatusNotFound, "circuit_not_found",
			fmt.Sprintf("circuit '%s' not found", circuitName))
		return
	}

	var req VerifyRequest
	if !decodeBody(w, r, &req) {
		return
	}

	// Verify proof
	if req.Address != "" {
		err = s.svc.CheckSubmission(r.Context(), req.Address, req.Proof)
		if err == nil && req.Proof.Proof.Circuit != circuit {
			err = fmt.Errorf("%w: artifact is for %s", proof.ErrCircuitMismatch, req.Proof.Proof.Circuit)
		}
	} else {
		err = s.svc.Verify(req.Proof, circuit)
	}

	if err != nil && !isVerdict(err) {
		respondServiceError(w, err)
		return
	}

	response := VerifyResponse{
		Valid:     err == nil,
		Timestamp: time.Now(),
	}

	if err != nil {
		response.Message = fmt.Sprintf("verification failed: %v", err)
	} else {
		response.Message = "proof is valid"
	}

	respondJSON(w, http.StatusOK, response)
}

// ==== Helper Functions ====

// decodeBody parses a JSON request body into v. An empty body leaves v
// untouched.
func decodeBody(w http.ResponseWriter, r *http.Request, v any) bool {
	body, err := io.ReadAll(r.Body)
	if err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request",
			"failed to read request body")
		return false
	}
	defer r.Body.Close()

	if len(body) == 0 {
		return true
	}
	if err := json.Unmarshal(body, v); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_json",
			fmt.Sprintf("failed to parse request: %v", err))
		return false
	}
	return true
}

// respondJSON writes a JSON response
func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		http.Error(w, err.Error(), http.StatusInternalServerError)
	}
}

// respondError writes an error response
func respondError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, ErrorResponse{
		Error:     message,
		Code:      code,
		Timestamp: time.Now(),
	})
}
