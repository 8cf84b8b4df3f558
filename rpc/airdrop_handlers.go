package rpc

import (
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"net/http"
	"strings"
	"time"

	"dropvest/crypto"
	"dropvest/native/airdrop"
)

type claimParams struct {
	Recipient string   `json:"recipient"`
	Amount    string   `json:"amount"`
	Proof     []string `json:"proof"`
}

type claimableParams struct {
	Recipient string `json:"recipient"`
	Amount    string `json:"amount"`
}

type claimedParams struct {
	Recipient string `json:"recipient"`
}

type setRootParams struct {
	Caller string `json:"caller"`
	Root   string `json:"root"`
}

type rescueParams struct {
	Caller string `json:"caller"`
	Token  string `json:"token"`
	Amount string `json:"amount"`
}

type balanceOfParams struct {
	Address string `json:"address"`
	Token   string `json:"token"`
}

func decodeParams(req *RPCRequest, out interface{}) error {
	if len(req.Params) != 1 {
		return fmt.Errorf("expected exactly one params object")
	}
	return json.Unmarshal(req.Params[0], out)
}

func parseAddress(value string) ([20]byte, error) {
	addr, err := crypto.DecodeAddress(strings.TrimSpace(value))
	if err != nil {
		return [20]byte{}, err
	}
	return addr.Array(), nil
}

func parseAmount(value string) (*big.Int, error) {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return nil, fmt.Errorf("amount required")
	}
	amount, ok := new(big.Int).SetString(trimmed, 10)
	if !ok {
		return nil, fmt.Errorf("invalid amount %q", value)
	}
	return amount, nil
}

// parseProof decodes hex-encoded sibling hashes. Elements that fail to decode
// are passed through as raw bytes: the verifier treats any malformed element
// as a verification failure, which keeps the zero-address probe path silent.
func parseProof(elems []string) [][]byte {
	proof := make([][]byte, 0, len(elems))
	for _, elem := range elems {
		trimmed := strings.TrimSpace(elem)
		trimmed = strings.TrimPrefix(strings.TrimPrefix(trimmed, "0x"), "0X")
		decoded, err := hex.DecodeString(trimmed)
		if err != nil {
			proof = append(proof, []byte(elem))
			continue
		}
		proof = append(proof, decoded)
	}
	return proof
}

func parseRoot(value string) ([32]byte, error) {
	var root [32]byte
	trimmed := strings.TrimSpace(value)
	trimmed = strings.TrimPrefix(strings.TrimPrefix(trimmed, "0x"), "0X")
	decoded, err := hex.DecodeString(trimmed)
	if err != nil {
		return root, fmt.Errorf("invalid root hex: %w", err)
	}
	if len(decoded) != len(root) {
		return root, fmt.Errorf("root must be 32 bytes, got %d", len(decoded))
	}
	copy(root[:], decoded)
	return root, nil
}

func (s *Server) writeEngineError(w http.ResponseWriter, id interface{}, err error) {
	switch {
	case errors.Is(err, airdrop.ErrNotOwner):
		writeError(w, http.StatusForbidden, id, codeUnauthorized, err.Error())
	case errors.Is(err, airdrop.ErrClaimingNotStarted),
		errors.Is(err, airdrop.ErrInvalidProof),
		errors.Is(err, airdrop.ErrNothingToClaim),
		errors.Is(err, airdrop.ErrTransferFailed):
		writeError(w, http.StatusBadRequest, id, codeServerError, err.Error())
	default:
		writeError(w, http.StatusInternalServerError, id, codeServerError, "internal error")
	}
}

func claimOutcome(err error) string {
	switch {
	case err == nil:
		return "paid"
	case errors.Is(err, airdrop.ErrClaimingNotStarted):
		return "not_started"
	case errors.Is(err, airdrop.ErrInvalidProof):
		return "invalid_proof"
	case errors.Is(err, airdrop.ErrNothingToClaim):
		return "nothing_to_claim"
	case errors.Is(err, airdrop.ErrTransferFailed):
		return "transfer_failed"
	default:
		return "error"
	}
}

func (s *Server) handleClaim(w http.ResponseWriter, req *RPCRequest) {
	started := time.Now()
	var params claimParams
	if err := decodeParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error())
		return
	}
	recipient, err := parseAddress(params.Recipient)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, fmt.Sprintf("invalid recipient: %v", err))
		return
	}
	amount, err := parseAmount(params.Amount)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error())
		return
	}

	paid, err := s.engine.Claim(recipient, amount, parseProof(params.Proof))
	s.metrics.ObserveClaim(claimOutcome(err), started)
	if err != nil {
		s.log.Info("claim rejected",
			"recipient", params.Recipient,
			"reason", claimOutcome(err))
		s.writeEngineError(w, req.ID, err)
		return
	}
	s.log.Info("claim paid",
		"recipient", params.Recipient,
		"amount", paid.String())
	writeResult(w, req.ID, map[string]string{"paid": paid.String()})
}

func (s *Server) handleClaimableAmount(w http.ResponseWriter, req *RPCRequest) {
	var params claimableParams
	if err := decodeParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error())
		return
	}
	recipient, err := parseAddress(params.Recipient)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, fmt.Sprintf("invalid recipient: %v", err))
		return
	}
	amount, err := parseAmount(params.Amount)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error())
		return
	}
	claimable, err := s.engine.ClaimableAmount(recipient, amount)
	if err != nil {
		s.writeEngineError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, map[string]string{"claimable": claimable.String()})
}

func (s *Server) handleClaimedAmount(w http.ResponseWriter, req *RPCRequest) {
	var params claimedParams
	if err := decodeParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error())
		return
	}
	recipient, err := parseAddress(params.Recipient)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, fmt.Sprintf("invalid recipient: %v", err))
		return
	}
	claimed, err := s.engine.ClaimedAmount(recipient)
	if err != nil {
		s.writeEngineError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, map[string]string{"claimed": claimed.String()})
}

func (s *Server) handleMerkleRoot(w http.ResponseWriter, req *RPCRequest) {
	root, err := s.engine.MerkleRoot()
	if err != nil {
		s.writeEngineError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, map[string]string{"root": "0x" + hex.EncodeToString(root[:])})
}

func (s *Server) handleVestingSchedule(w http.ResponseWriter, req *RPCRequest) {
	schedule := s.engine.Schedule()
	writeResult(w, req.ID, map[string]interface{}{
		"startTime":  schedule.StartTime,
		"endTime":    schedule.EndTime,
		"instantBps": schedule.InstantBps,
		"token":      s.engine.Token(),
	})
}

func (s *Server) handleSetMerkleRoot(w http.ResponseWriter, req *RPCRequest) {
	var params setRootParams
	if err := decodeParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error())
		return
	}
	caller, err := parseAddress(params.Caller)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, fmt.Sprintf("invalid caller: %v", err))
		return
	}
	root, err := parseRoot(params.Root)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error())
		return
	}
	if err := s.engine.SetMerkleRoot(caller, root); err != nil {
		s.metrics.ObserveAdmin("set_merkle_root", "rejected")
		s.writeEngineError(w, req.ID, err)
		return
	}
	s.metrics.ObserveAdmin("set_merkle_root", "ok")
	s.log.Info("merkle root rotated", "root", params.Root)
	writeResult(w, req.ID, map[string]bool{"ok": true})
}

func (s *Server) handleRescueTokens(w http.ResponseWriter, req *RPCRequest) {
	var params rescueParams
	if err := decodeParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error())
		return
	}
	caller, err := parseAddress(params.Caller)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, fmt.Sprintf("invalid caller: %v", err))
		return
	}
	amount, err := parseAmount(params.Amount)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error())
		return
	}
	if err := s.engine.RescueTokens(caller, params.Token, amount); err != nil {
		s.metrics.ObserveAdmin("rescue_tokens", "rejected")
		s.writeEngineError(w, req.ID, err)
		return
	}
	s.metrics.ObserveAdmin("rescue_tokens", "ok")
	s.log.Info("tokens rescued", "token", params.Token, "amount", params.Amount)
	writeResult(w, req.ID, map[string]bool{"ok": true})
}

func (s *Server) handleBalanceOf(w http.ResponseWriter, req *RPCRequest) {
	var params balanceOfParams
	if err := decodeParams(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error())
		return
	}
	addr, err := parseAddress(params.Address)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, fmt.Sprintf("invalid address: %v", err))
		return
	}
	symbol := params.Token
	if strings.TrimSpace(symbol) == "" {
		symbol = s.engine.Token()
	}
	balance, err := s.ledger.BalanceOf(symbol, addr)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeInvalidParams, err.Error())
		return
	}
	writeResult(w, req.ID, map[string]string{"balance": balance.String()})
}
