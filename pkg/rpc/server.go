// Package rpc provides the JSON-RPC surface of the mint service.
package rpc

import (
	"encoding/json"
	"io"
	"math/big"
	"net/http"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/common/hexutil"

	"github.com/tentou-tech/mimboku-mint-go/pkg/ledger"
	"github.com/tentou-tech/mimboku-mint-go/pkg/relay"
	"github.com/tentou-tech/mimboku-mint-go/pkg/rounds"
	"github.com/tentou-tech/mimboku-mint-go/pkg/token"
)

// JSON-RPC error codes.
const (
	ErrCodeParseError     = -32700
	ErrCodeInvalidRequest = -32600
	ErrCodeMethodNotFound = -32601
	ErrCodeInvalidParams  = -32602
	ErrCodeInternal       = -32603
)

// Version information.
const (
	ClientVersion = "mimboku-mint-go/v0.1.0"
)

// Request represents a JSON-RPC request.
type Request struct {
	Jsonrpc string          `json:"jsonrpc"`
	ID      interface{}     `json:"id"`
	Method  string          `json:"method"`
	Params  json.RawMessage `json:"params"`
}

// Response represents a JSON-RPC response.
type Response struct {
	Jsonrpc string       `json:"jsonrpc"`
	ID      interface{}  `json:"id"`
	Result  interface{}  `json:"result,omitempty"`
	Error   *ErrorObject `json:"error,omitempty"`
}

// ErrorObject represents a JSON-RPC error.
type ErrorObject struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
}

// Server exposes the mint controller, relay, ledger, and collection over
// a single-POST JSON-RPC endpoint.
type Server struct {
	controller *rounds.Controller
	relay      *relay.Controller
	ledger     *ledger.Ledger
	collection *token.Collection
	chainID    uint64
}

// NewServer creates a new RPC server.
func NewServer(controller *rounds.Controller, relayController *relay.Controller, l *ledger.Ledger, collection *token.Collection, chainID uint64) *Server {
	return &Server{
		controller: controller,
		relay:      relayController,
		ledger:     l,
		collection: collection,
		chainID:    chainID,
	}
}

// ServeHTTP handles HTTP requests.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")

	body, err := io.ReadAll(r.Body)
	if err != nil {
		s.writeError(w, nil, ErrCodeParseError, "Failed to read request body")
		return
	}

	var req Request
	if err := json.Unmarshal(body, &req); err != nil {
		s.writeError(w, nil, ErrCodeParseError, "Parse error")
		return
	}

	result, rpcErr := s.handleMethod(req.Method, req.Params)
	if rpcErr != nil {
		s.writeError(w, req.ID, rpcErr.Code, rpcErr.Message)
		return
	}

	json.NewEncoder(w).Encode(Response{
		Jsonrpc: "2.0",
		ID:      req.ID,
		Result:  result,
	})
}

func (s *Server) writeError(w http.ResponseWriter, id interface{}, code int, message string) {
	resp := Response{
		Jsonrpc: "2.0",
		ID:      id,
		Error: &ErrorObject{
			Code:    code,
			Message: message,
		},
	}
	json.NewEncoder(w).Encode(resp)
}

func (s *Server) handleMethod(method string, params json.RawMessage) (interface{}, *ErrorObject) {
	switch method {
	// mint surface
	case "rm_mint":
		return s.rmMint(params)
	case "rm_relayMint":
		return s.rmRelayMint(params)

	// query surface
	case "rm_stageToMint":
		return s.rmStageToMint(params)
	case "rm_maxSupply":
		return s.rmMaxSupply()
	case "rm_totalSupply":
		return s.rmTotalSupply()
	case "rm_preMintedCount":
		return s.rmPreMintedCount()
	case "rm_lastMintedTokenId":
		return s.rmLastMintedTokenID()
	case "rm_isTest":
		return s.rmIsTest()
	case "rm_signer":
		return s.rmSigner()

	// admin surface
	case "rm_setStageMintInfo":
		return s.rmSetStageMintInfo(params)
	case "rm_setPreMintedCount":
		return s.rmSetPreMintedCount(params)
	case "rm_setMaxSupply":
		return s.rmSetMaxSupply(params)
	case "rm_enableTestMode":
		return s.rmEnableTestMode(params)
	case "rm_setSigner":
		return s.rmSetSigner(params)

	// collection queries
	case "nft_ownerOf":
		return s.nftOwnerOf(params)
	case "nft_balanceOf":
		return s.nftBalanceOf(params)

	// local ledger helpers
	case "rm_balanceOf":
		return s.rmBalanceOf(params)
	case "rm_fund":
		return s.rmFund(params)

	case "web3_clientVersion":
		return ClientVersion, nil
	case "net_version":
		return s.chainID, nil

	default:
		return nil, &ErrorObject{Code: ErrCodeMethodNotFound, Message: "Method not found"}
	}
}

// bigValue unwraps an optional attached value.
func bigValue(v *hexutil.Big) *big.Int {
	if v == nil {
		return new(big.Int)
	}
	return (*big.Int)(v)
}

// mintArgs mirrors the mint call shape: caller, stage, signature, proof,
// mint params, and the attached payment value.
type mintArgs struct {
	Caller    common.Address    `json:"caller"`
	Stage     string            `json:"stage"`
	Signature hexutil.Bytes     `json:"signature"`
	Proof     []common.Hash     `json:"proof"`
	Params    rounds.MintParams `json:"mintparams"`
	Value     *hexutil.Big      `json:"value"`
}

// rm_mint runs the full mint flow.
func (s *Server) rmMint(params json.RawMessage) (interface{}, *ErrorObject) {
	var args []mintArgs
	if err := json.Unmarshal(params, &args); err != nil || len(args) < 1 {
		return nil, &ErrorObject{Code: ErrCodeInvalidParams, Message: "Invalid params"}
	}

	a := args[0]
	tokenID, ipID, err := s.controller.Mint(a.Caller, a.Stage, a.Signature, a.Proof, a.Params, bigValue(a.Value))
	if err != nil {
		return nil, &ErrorObject{Code: ErrCodeInternal, Message: err.Error()}
	}

	return map[string]interface{}{
		"tokenId": tokenID,
		"ipId":    ipID,
	}, nil
}

// rm_relayMint runs the relay mint flow.
func (s *Server) rmRelayMint(params json.RawMessage) (interface{}, *ErrorObject) {
	var args []mintArgs
	if err := json.Unmarshal(params, &args); err != nil || len(args) < 1 {
		return nil, &ErrorObject{Code: ErrCodeInvalidParams, Message: "Invalid params"}
	}

	a := args[0]
	tokenID, ipID, err := s.relay.Mint(a.Caller, a.Stage, a.Signature, a.Params, bigValue(a.Value))
	if err != nil {
		return nil, &ErrorObject{Code: ErrCodeInternal, Message: err.Error()}
	}

	return map[string]interface{}{
		"tokenId": tokenID,
		"ipId":    ipID,
	}, nil
}

// rm_stageToMint returns a stage configuration.
func (s *Server) rmStageToMint(params json.RawMessage) (interface{}, *ErrorObject) {
	var args []string
	if err := json.Unmarshal(params, &args); err != nil || len(args) < 1 {
		return nil, &ErrorObject{Code: ErrCodeInvalidParams, Message: "Invalid params"}
	}

	info, err := s.controller.StageToMint(args[0])
	if err != nil {
		return nil, &ErrorObject{Code: ErrCodeInternal, Message: err.Error()}
	}
	return info, nil
}

func (s *Server) rmMaxSupply() (interface{}, *ErrorObject) {
	return s.controller.MaxSupply(), nil
}

func (s *Server) rmTotalSupply() (interface{}, *ErrorObject) {
	return s.controller.TotalSupply(), nil
}

func (s *Server) rmPreMintedCount() (interface{}, *ErrorObject) {
	return s.controller.PreMintedCount(), nil
}

func (s *Server) rmLastMintedTokenID() (interface{}, *ErrorObject) {
	return s.controller.LastMintedTokenID(), nil
}

func (s *Server) rmIsTest() (interface{}, *ErrorObject) {
	return s.controller.IsTest(), nil
}

func (s *Server) rmSigner() (interface{}, *ErrorObject) {
	return s.controller.Signer(), nil
}

// stageArgs carries a role-gated stage registration.
type stageArgs struct {
	Caller common.Address       `json:"caller"`
	Info   rounds.StageMintInfo `json:"stageMintInfo"`
}

// rm_setStageMintInfo inserts or updates a stage. Operator only.
func (s *Server) rmSetStageMintInfo(params json.RawMessage) (interface{}, *ErrorObject) {
	var args []stageArgs
	if err := json.Unmarshal(params, &args); err != nil || len(args) < 1 {
		return nil, &ErrorObject{Code: ErrCodeInvalidParams, Message: "Invalid params"}
	}

	if err := s.controller.SetStageMintInfo(args[0].Caller, args[0].Info); err != nil {
		return nil, &ErrorObject{Code: ErrCodeInternal, Message: err.Error()}
	}
	return true, nil
}

// callerAmountArgs carries a role-gated counter update.
type callerAmountArgs struct {
	Caller common.Address `json:"caller"`
	Amount uint64         `json:"amount"`
}

// rm_setPreMintedCount updates the pre-minted allowance. Operator only.
func (s *Server) rmSetPreMintedCount(params json.RawMessage) (interface{}, *ErrorObject) {
	var args []callerAmountArgs
	if err := json.Unmarshal(params, &args); err != nil || len(args) < 1 {
		return nil, &ErrorObject{Code: ErrCodeInvalidParams, Message: "Invalid params"}
	}

	if err := s.controller.SetPreMintedCount(args[0].Caller, args[0].Amount); err != nil {
		return nil, &ErrorObject{Code: ErrCodeInternal, Message: err.Error()}
	}
	return true, nil
}

// rm_setMaxSupply raises the max supply override. Operator only.
func (s *Server) rmSetMaxSupply(params json.RawMessage) (interface{}, *ErrorObject) {
	var args []callerAmountArgs
	if err := json.Unmarshal(params, &args); err != nil || len(args) < 1 {
		return nil, &ErrorObject{Code: ErrCodeInvalidParams, Message: "Invalid params"}
	}

	if err := s.controller.SetMaxSupply(args[0].Caller, args[0].Amount); err != nil {
		return nil, &ErrorObject{Code: ErrCodeInternal, Message: err.Error()}
	}
	return true, nil
}

// rm_enableTestMode toggles test mode. Default admin only.
func (s *Server) rmEnableTestMode(params json.RawMessage) (interface{}, *ErrorObject) {
	var args []struct {
		Caller  common.Address `json:"caller"`
		Enabled bool           `json:"enabled"`
	}
	if err := json.Unmarshal(params, &args); err != nil || len(args) < 1 {
		return nil, &ErrorObject{Code: ErrCodeInvalidParams, Message: "Invalid params"}
	}

	if err := s.controller.EnableTestMode(args[0].Caller, args[0].Enabled); err != nil {
		return nil, &ErrorObject{Code: ErrCodeInternal, Message: err.Error()}
	}
	return true, nil
}

// rm_setSigner updates the request signer identity. Default admin only.
func (s *Server) rmSetSigner(params json.RawMessage) (interface{}, *ErrorObject) {
	var args []struct {
		Caller common.Address `json:"caller"`
		Signer common.Address `json:"signer"`
	}
	if err := json.Unmarshal(params, &args); err != nil || len(args) < 1 {
		return nil, &ErrorObject{Code: ErrCodeInvalidParams, Message: "Invalid params"}
	}

	if err := s.controller.SetSigner(args[0].Caller, args[0].Signer); err != nil {
		return nil, &ErrorObject{Code: ErrCodeInternal, Message: err.Error()}
	}
	return true, nil
}

// nft_ownerOf returns the owner of a token.
func (s *Server) nftOwnerOf(params json.RawMessage) (interface{}, *ErrorObject) {
	var args []uint64
	if err := json.Unmarshal(params, &args); err != nil || len(args) < 1 {
		return nil, &ErrorObject{Code: ErrCodeInvalidParams, Message: "Invalid params"}
	}

	owner, err := s.collection.OwnerOf(args[0])
	if err != nil {
		return nil, &ErrorObject{Code: ErrCodeInternal, Message: err.Error()}
	}
	return owner, nil
}

// nft_balanceOf returns the token count of an address.
func (s *Server) nftBalanceOf(params json.RawMessage) (interface{}, *ErrorObject) {
	var args []common.Address
	if err := json.Unmarshal(params, &args); err != nil || len(args) < 1 {
		return nil, &ErrorObject{Code: ErrCodeInvalidParams, Message: "Invalid params"}
	}

	return s.collection.BalanceOf(args[0]), nil
}

// rm_balanceOf returns the native balance of an address.
func (s *Server) rmBalanceOf(params json.RawMessage) (interface{}, *ErrorObject) {
	var args []common.Address
	if err := json.Unmarshal(params, &args); err != nil || len(args) < 1 {
		return nil, &ErrorObject{Code: ErrCodeInvalidParams, Message: "Invalid params"}
	}

	return hexutil.EncodeBig(s.ledger.BalanceOf(args[0])), nil
}

// rm_fund credits a local account. Local development helper.
func (s *Server) rmFund(params json.RawMessage) (interface{}, *ErrorObject) {
	var args []struct {
		Address common.Address `json:"address"`
		Value   *hexutil.Big   `json:"value"`
	}
	if err := json.Unmarshal(params, &args); err != nil || len(args) < 1 || args[0].Value == nil {
		return nil, &ErrorObject{Code: ErrCodeInvalidParams, Message: "Invalid params"}
	}

	if err := s.ledger.Credit(args[0].Address, bigValue(args[0].Value)); err != nil {
		return nil, &ErrorObject{Code: ErrCodeInternal, Message: err.Error()}
	}
	return true, nil
}

// ListenAndServe starts the HTTP server.
func (s *Server) ListenAndServe(addr string) error {
	return http.ListenAndServe(addr, s)
}
