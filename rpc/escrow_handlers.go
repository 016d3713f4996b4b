package rpc

import (
	"encoding/json"
	"errors"
	"fmt"
	"math/big"
	"net/http"
	"strings"

	"escrowd/native/escrow"
)

const (
	codeEscrowInvalidParams = -32021
	codeEscrowNotFound      = -32022
	codeEscrowForbidden     = -32023
	codeEscrowConflict      = -32024
	codeEscrowInternal      = -32025
)

type escrowCreateParams struct {
	Buyer          string `json:"buyer"`
	Seller         string `json:"seller"`
	Token          string `json:"token"`
	Amount         string `json:"amount"`
	TimeoutSeconds int64  `json:"timeoutSeconds"`
}

type escrowIDParams struct {
	ID uint64 `json:"id"`
}

type escrowActorParams struct {
	ID     uint64 `json:"id"`
	Caller string `json:"caller"`
}

type escrowCreateResult struct {
	ID uint64 `json:"id"`
}

type dealJSON struct {
	ID              uint64 `json:"id"`
	Buyer           string `json:"buyer"`
	Seller          string `json:"seller"`
	Token           string `json:"token"`
	Amount          string `json:"amount"`
	TimeoutDuration int64  `json:"timeoutDuration"`
	DepositedAt     int64  `json:"depositedAt,omitempty"`
	TimeoutAt       int64  `json:"timeoutAt,omitempty"`
	Status          string `json:"status"`
}

func newDealJSON(deal *escrow.Deal) *dealJSON {
	return &dealJSON{
		ID:              deal.ID,
		Buyer:           deal.Buyer.Hex(),
		Seller:          deal.Seller.Hex(),
		Token:           deal.Token.Hex(),
		Amount:          deal.Amount.String(),
		TimeoutDuration: deal.TimeoutDuration,
		DepositedAt:     deal.DepositedAt,
		TimeoutAt:       deal.TimeoutAt,
		Status:          deal.Status.String(),
	}
}

func decodeSingleParam(req *RPCRequest, out interface{}) error {
	if len(req.Params) != 1 {
		return fmt.Errorf("exactly one parameter object expected")
	}
	return json.Unmarshal(req.Params[0], out)
}

func parseAmount(raw string) (*big.Int, error) {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil, fmt.Errorf("amount required")
	}
	amount, ok := new(big.Int).SetString(trimmed, 10)
	if !ok {
		return nil, fmt.Errorf("amount must be a base-10 integer")
	}
	return amount, nil
}

// writeLedgerError maps the ledger's sentinel errors onto the escrow RPC
// error-code block. Anything unrecognised is an internal failure.
func (s *Server) writeLedgerError(w http.ResponseWriter, id interface{}, err error) {
	switch {
	case errors.Is(err, escrow.ErrDealNotFound):
		writeError(w, http.StatusNotFound, id, codeEscrowNotFound, "not_found", err.Error())
	case errors.Is(err, escrow.ErrUnauthorized):
		writeError(w, http.StatusForbidden, id, codeEscrowForbidden, "forbidden", err.Error())
	case errors.Is(err, escrow.ErrInvalidState),
		errors.Is(err, escrow.ErrTimeoutNotReached):
		writeError(w, http.StatusConflict, id, codeEscrowConflict, "conflict", err.Error())
	case errors.Is(err, escrow.ErrReentrantCall):
		s.metrics.RecordReentrancyRejection()
		writeError(w, http.StatusConflict, id, codeEscrowConflict, "conflict", err.Error())
	case errors.Is(err, escrow.ErrInvalidAmount),
		errors.Is(err, escrow.ErrZeroIdentity),
		errors.Is(err, escrow.ErrTimeoutTooShort),
		errors.Is(err, escrow.ErrTimeoutTooLong):
		writeError(w, http.StatusBadRequest, id, codeEscrowInvalidParams, "invalid_params", err.Error())
	default:
		s.log.Error("escrow operation failed", "err", err)
		writeError(w, http.StatusInternalServerError, id, codeEscrowInternal, "internal_error", err.Error())
	}
}

func (s *Server) handleEscrowCreate(w http.ResponseWriter, req *RPCRequest) {
	var params escrowCreateParams
	if err := decodeSingleParam(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeEscrowInvalidParams, "invalid_params", err.Error())
		return
	}
	buyer, err := escrow.ParseAddress(params.Buyer)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeEscrowInvalidParams, "invalid_params", err.Error())
		return
	}
	seller, err := escrow.ParseAddress(params.Seller)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeEscrowInvalidParams, "invalid_params", err.Error())
		return
	}
	token, err := escrow.ParseAddress(params.Token)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeEscrowInvalidParams, "invalid_params", err.Error())
		return
	}
	amount, err := parseAmount(params.Amount)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeEscrowInvalidParams, "invalid_params", err.Error())
		return
	}

	id, err := s.ledger.Create(buyer, seller, token, amount, params.TimeoutSeconds)
	if err != nil {
		s.writeLedgerError(w, req.ID, err)
		return
	}
	s.metrics.RecordTransition(escrow.StatusCreated.String())
	writeResult(w, req.ID, escrowCreateResult{ID: id})
}

func (s *Server) handleEscrowDeposit(w http.ResponseWriter, req *RPCRequest) {
	s.handleTransition(w, req, escrow.StatusDeposited, s.ledger.Deposit)
}

func (s *Server) handleEscrowRelease(w http.ResponseWriter, req *RPCRequest) {
	s.handleTransition(w, req, escrow.StatusReleased, s.ledger.Release)
}

func (s *Server) handleEscrowRefund(w http.ResponseWriter, req *RPCRequest) {
	s.handleTransition(w, req, escrow.StatusRefunded, s.ledger.Refund)
}

func (s *Server) handleEscrowTimeoutRefund(w http.ResponseWriter, req *RPCRequest) {
	s.handleTransition(w, req, escrow.StatusRefunded, s.ledger.TimeoutRefund)
}

func (s *Server) handleTransition(w http.ResponseWriter, req *RPCRequest, result escrow.DealStatus, op func(uint64, escrow.Address) error) {
	var params escrowActorParams
	if err := decodeSingleParam(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeEscrowInvalidParams, "invalid_params", err.Error())
		return
	}
	caller, err := escrow.ParseAddress(params.Caller)
	if err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeEscrowInvalidParams, "invalid_params", err.Error())
		return
	}
	if err := op(params.ID, caller); err != nil {
		s.writeLedgerError(w, req.ID, err)
		return
	}
	s.metrics.RecordTransition(result.String())
	deal, err := s.ledger.Get(params.ID)
	if err != nil {
		s.writeLedgerError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, newDealJSON(deal))
}

func (s *Server) handleEscrowGet(w http.ResponseWriter, req *RPCRequest) {
	var params escrowIDParams
	if err := decodeSingleParam(req, &params); err != nil {
		writeError(w, http.StatusBadRequest, req.ID, codeEscrowInvalidParams, "invalid_params", err.Error())
		return
	}
	deal, err := s.ledger.Get(params.ID)
	if err != nil {
		s.writeLedgerError(w, req.ID, err)
		return
	}
	writeResult(w, req.ID, newDealJSON(deal))
}
