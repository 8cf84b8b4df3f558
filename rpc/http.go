package rpc

import (
	"crypto/subtle"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"os"
	"strings"
	"sync"

	"golang.org/x/time/rate"

	"dropvest/native/airdrop"
	"dropvest/native/token"
	"dropvest/observability"
)

const (
	jsonRPCVersion  = "2.0"
	maxRequestBytes = 1 << 20 // 1 MiB

	claimRatePerSecond = 5
	claimRateBurst     = 10
)

const (
	codeParseError     = -32700
	codeInvalidRequest = -32600
	codeMethodNotFound = -32601
	codeInvalidParams  = -32602
	codeUnauthorized   = -32001
	codeServerError    = -32000
	codeRateLimited    = -32020
)

// AuthTokenEnv names the environment variable holding the bearer token that
// gates administrative methods.
const AuthTokenEnv = "DROPVEST_RPC_TOKEN"

// Server exposes the airdrop engine over a single JSON-RPC endpoint.
type Server struct {
	engine  *airdrop.Engine
	ledger  *token.Ledger
	log     *slog.Logger
	metrics *observability.AirdropMetrics

	authToken string

	mu       sync.Mutex
	limiters map[string]*rate.Limiter
}

func NewServer(engine *airdrop.Engine, ledger *token.Ledger, logger *slog.Logger) *Server {
	if logger == nil {
		logger = slog.Default()
	}
	return &Server{
		engine:    engine,
		ledger:    ledger,
		log:       logger,
		metrics:   observability.Airdrop(),
		authToken: strings.TrimSpace(os.Getenv(AuthTokenEnv)),
		limiters:  make(map[string]*rate.Limiter),
	}
}

// Start serves the JSON-RPC endpoint on addr and blocks until the listener
// fails.
func (s *Server) Start(addr string) error {
	s.log.Info("starting JSON-RPC server", slog.String("addr", addr))
	server := &http.Server{Addr: addr, Handler: s.Handler()}
	return server.ListenAndServe()
}

// Handler returns the HTTP handler backing the server. Exposed for tests.
func (s *Server) Handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/", s.handle)
	return mux
}

type RPCRequest struct {
	JSONRPC string            `json:"jsonrpc"`
	Method  string            `json:"method"`
	Params  []json.RawMessage `json:"params"`
	ID      interface{}       `json:"id"`
}

type RPCResponse struct {
	JSONRPC string      `json:"jsonrpc"`
	ID      interface{} `json:"id"`
	Result  interface{} `json:"result,omitempty"`
	Error   *RPCError   `json:"error,omitempty"`
}

type RPCError struct {
	Code    int         `json:"code"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

func (s *Server) handle(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, nil, codeInvalidRequest, "POST required")
		return
	}
	body, err := io.ReadAll(io.LimitReader(r.Body, maxRequestBytes))
	if err != nil {
		writeError(w, http.StatusBadRequest, nil, codeParseError, "failed to read request body")
		return
	}
	var req RPCRequest
	if err := json.Unmarshal(body, &req); err != nil {
		writeError(w, http.StatusBadRequest, nil, codeParseError, "invalid JSON payload")
		return
	}
	if req.JSONRPC != "" && req.JSONRPC != jsonRPCVersion {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidRequest, "unsupported JSON-RPC version")
		return
	}

	switch req.Method {
	case "airdrop_claim":
		if !s.allowClaim(r) {
			writeError(w, http.StatusTooManyRequests, req.ID, codeRateLimited, "claim rate limit exceeded")
			return
		}
		s.handleClaim(w, &req)
	case "airdrop_claimableAmount":
		s.handleClaimableAmount(w, &req)
	case "airdrop_claimedAmount":
		s.handleClaimedAmount(w, &req)
	case "airdrop_merkleRoot":
		s.handleMerkleRoot(w, &req)
	case "airdrop_vestingSchedule":
		s.handleVestingSchedule(w, &req)
	case "airdrop_setMerkleRoot":
		if !s.authorized(r) {
			writeError(w, http.StatusUnauthorized, req.ID, codeUnauthorized, "unauthorized")
			return
		}
		s.handleSetMerkleRoot(w, &req)
	case "airdrop_rescueTokens":
		if !s.authorized(r) {
			writeError(w, http.StatusUnauthorized, req.ID, codeUnauthorized, "unauthorized")
			return
		}
		s.handleRescueTokens(w, &req)
	case "token_balanceOf":
		s.handleBalanceOf(w, &req)
	default:
		writeError(w, http.StatusNotFound, req.ID, codeMethodNotFound, fmt.Sprintf("method %q not found", req.Method))
	}
}

// authorized gates administrative methods behind the configured bearer token.
// Comparison is constant time. An empty configured token disables the
// administrative surface entirely.
func (s *Server) authorized(r *http.Request) bool {
	if s.authToken == "" {
		return false
	}
	header := strings.TrimSpace(r.Header.Get("Authorization"))
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return false
	}
	supplied := strings.TrimSpace(header[len(prefix):])
	return subtle.ConstantTimeCompare([]byte(supplied), []byte(s.authToken)) == 1
}

func (s *Server) allowClaim(r *http.Request) bool {
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		host = r.RemoteAddr
	}
	s.mu.Lock()
	limiter, ok := s.limiters[host]
	if !ok {
		limiter = rate.NewLimiter(rate.Limit(claimRatePerSecond), claimRateBurst)
		s.limiters[host] = limiter
	}
	s.mu.Unlock()
	return limiter.Allow()
}

func writeResult(w http.ResponseWriter, id interface{}, result interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	_ = json.NewEncoder(w).Encode(RPCResponse{JSONRPC: jsonRPCVersion, ID: id, Result: result})
}

func writeError(w http.ResponseWriter, status int, id interface{}, code int, message string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(RPCResponse{
		JSONRPC: jsonRPCVersion,
		ID:      id,
		Error:   &RPCError{Code: code, Message: message},
	})
}
