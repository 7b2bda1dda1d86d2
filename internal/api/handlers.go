package api

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/MJE43/nearkarts-go/internal/contract"
	"github.com/MJE43/nearkarts-go/internal/kart"
	"github.com/MJE43/nearkarts-go/internal/store"
)

// decode parses the body into T and writes the validation error on failure.
func decode[T any](s *Server, w http.ResponseWriter, r *http.Request, schema string) (T, bool) {
	req, err := decodeBody[T](s.schemas, r, w, schema)
	if err != nil {
		var re *requestError
		if errors.As(err, &re) {
			s.errorHandler.HandleValidationError(w, r, re.field, re.message)
		} else {
			s.errorHandler.HandleError(w, r, err, http.StatusInternalServerError)
		}
		return req, false
	}
	return req, true
}

func queryInt(r *http.Request, key string, def int) (int, error) {
	v := r.URL.Query().Get(key)
	if v == "" {
		return def, nil
	}
	return strconv.Atoi(v)
}

func tokenArgs(r *http.Request) contract.TokenArgs {
	return contract.TokenArgs{TokenID: chi.URLParam(r, "tokenID")}
}

func contractKey(key string) contract.KeyArgs {
	return contract.KeyArgs{PubKey: key}
}

// POST /api/v1/signers
func (s *Server) handleAddSigner(w http.ResponseWriter, r *http.Request) {
	req, ok := decode[SignerRequest](s, w, r, schemaSigner)
	if !ok {
		return
	}
	if err := s.contract.AddSignerKey(r.Context(), req.Env, req.KeyArgs); err != nil {
		s.errorHandler.HandleContractError(w, r, "add_signer_key", err)
		return
	}
	s.writeJSON(w, http.StatusCreated, map[string]string{"pub_key": req.PubKey})
}

// DELETE /api/v1/signers/{key}
func (s *Server) handleRemoveSigner(w http.ResponseWriter, r *http.Request) {
	req, ok := decode[CallRequest](s, w, r, schemaCall)
	if !ok {
		return
	}
	key := chi.URLParam(r, "key")
	if err := s.contract.RemoveSignerKey(r.Context(), req.Env, contractKey(key)); err != nil {
		s.errorHandler.HandleContractError(w, r, "remove_signer_key", err)
		return
	}
	w.Header().Set("X-Engine-Version", EngineVersion)
	w.WriteHeader(http.StatusNoContent)
}

// GET /api/v1/signers
func (s *Server) handleListSigners(w http.ResponseWriter, r *http.Request) {
	keys, err := s.contract.SignerKeys(r.Context())
	if err != nil {
		s.errorHandler.HandleError(w, r, err, http.StatusInternalServerError)
		return
	}
	s.writeJSON(w, http.StatusOK, SignersResponse{Keys: keys})
}

// POST /api/v1/karts
func (s *Server) handleMint(w http.ResponseWriter, r *http.Request) {
	req, ok := decode[MintRequest](s, w, r, schemaMint)
	if !ok {
		return
	}
	tok, err := s.contract.Mint(r.Context(), req.Env, req.MintArgs)
	if err != nil {
		s.errorHandler.HandleContractError(w, r, "nft_mint", err)
		return
	}
	w.Header().Set("Location", "/api/v1/karts/"+tok.TokenID)
	s.writeJSON(w, http.StatusCreated, tok)
}

// GET /api/v1/karts[?index=N]
func (s *Server) handleKarts(w http.ResponseWriter, r *http.Request) {
	if r.URL.Query().Has("index") {
		index, err := queryInt(r, "index", 0)
		if err != nil || index < 0 {
			s.errorHandler.HandleValidationError(w, r, "index", "index must be a non-negative integer")
			return
		}
		id, err := s.contract.TokenIDByIndex(r.Context(), index)
		if err != nil {
			s.errorHandler.HandleContractError(w, r, "get_token_id_by_index", err)
			return
		}
		s.writeJSON(w, http.StatusOK, KartIndexResponse{Index: index, TokenID: id})
		return
	}

	n, err := s.contract.NumKarts(r.Context())
	if err != nil {
		s.errorHandler.HandleError(w, r, err, http.StatusInternalServerError)
		return
	}
	s.writeJSON(w, http.StatusOK, KartCountResponse{Count: n})
}

// GET /api/v1/karts/{tokenID}
func (s *Server) handleToken(w http.ResponseWriter, r *http.Request) {
	tok, err := s.contract.Token(r.Context(), chi.URLParam(r, "tokenID"))
	if err != nil {
		s.errorHandler.HandleContractError(w, r, "nft_token", err)
		return
	}
	s.writeJSON(w, http.StatusOK, tok)
}

// GET /api/v1/karts/{tokenID}/metadata
func (s *Server) handleTokenMetadata(w http.ResponseWriter, r *http.Request) {
	meta, err := s.contract.TokenMetadata(r.Context(), chi.URLParam(r, "tokenID"))
	if err != nil {
		s.errorHandler.HandleContractError(w, r, "nft_get_token_metadata", err)
		return
	}
	s.writeJSON(w, http.StatusOK, meta)
}

// GET /api/v1/karts/{tokenID}/title
func (s *Server) handleTokenTitle(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "tokenID")
	title, err := s.contract.MetadataTitle(r.Context(), id)
	if err != nil {
		s.errorHandler.HandleContractError(w, r, "nft_get_metadata_title", err)
		return
	}
	s.writeJSON(w, http.StatusOK, map[string]string{"token_id": id, "title": title})
}

// GET /api/v1/karts/{tokenID}/config
func (s *Server) handleGetConfig(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "tokenID")
	extra, err := s.contract.MetadataExtra(r.Context(), id)
	if err != nil {
		s.errorHandler.HandleContractError(w, r, "near_kart_get_config", err)
		return
	}
	cfg, err := kart.Decode(extra)
	if err != nil {
		s.errorHandler.HandleContractError(w, r, "near_kart_get_config", err)
		return
	}
	s.writeJSON(w, http.StatusOK, KartConfigResponse{TokenID: id, Config: cfg, Encoded: extra})
}

// PUT /api/v1/karts/{tokenID}/config
func (s *Server) handleConfigure(w http.ResponseWriter, r *http.Request) {
	req, ok := decode[ConfigureRequest](s, w, r, schemaConfigure)
	if !ok {
		return
	}
	req.TokenID = chi.URLParam(r, "tokenID")
	if err := s.contract.Configure(r.Context(), req.Env, req.ConfigureArgs); err != nil {
		s.errorHandler.HandleContractError(w, r, "configure", err)
		return
	}
	s.handleGetConfig(w, r)
}

// POST /api/v1/karts/{tokenID}/upgrade
func (s *Server) handleUpgrade(w http.ResponseWriter, r *http.Request) {
	req, ok := decode[UpgradeRequest](s, w, r, schemaUpgrade)
	if !ok {
		return
	}
	req.TokenID = chi.URLParam(r, "tokenID")
	if err := s.contract.Upgrade(r.Context(), req.Env, req.UpgradeArgs); err != nil {
		s.errorHandler.HandleContractError(w, r, "upgrade", err)
		return
	}
	s.handleGetConfig(w, r)
}

// POST /api/v1/karts/{tokenID}/battle
func (s *Server) handleBattle(w http.ResponseWriter, r *http.Request) {
	req, ok := decode[CallRequest](s, w, r, schemaCall)
	if !ok {
		return
	}
	rec, err := s.contract.Battle(r.Context(), req.Env, tokenArgs(r))
	if err != nil {
		s.errorHandler.HandleContractError(w, r, "game_simple_battle", err)
		return
	}
	s.writeJSON(w, http.StatusOK, rec)
}

// POST /api/v1/karts/{tokenID}/opponent
func (s *Server) handleOpponent(w http.ResponseWriter, r *http.Request) {
	req, ok := decode[CallRequest](s, w, r, schemaCall)
	if !ok {
		return
	}
	args := tokenArgs(r)
	opp, err := s.contract.GetRandomOpponent(r.Context(), req.Env, args)
	if err != nil {
		s.errorHandler.HandleContractError(w, r, "get_random_opponent", err)
		return
	}
	s.writeJSON(w, http.StatusOK, OpponentResponse{TokenID: args.TokenID, OpponentID: opp})
}

// POST /api/v1/karts/{tokenID}/transfer
func (s *Server) handleTransfer(w http.ResponseWriter, r *http.Request) {
	req, ok := decode[TransferRequest](s, w, r, schemaTransfer)
	if !ok {
		return
	}
	req.TokenID = chi.URLParam(r, "tokenID")
	if err := s.contract.Transfer(r.Context(), req.Env, req.TransferArgs); err != nil {
		s.errorHandler.HandleContractError(w, r, "nft_transfer", err)
		return
	}
	s.handleToken(w, r)
}

// GET /api/v1/accounts/{accountID}/last-battle
func (s *Server) handleLastBattle(w http.ResponseWriter, r *http.Request) {
	rec, err := s.contract.GetLastBattle(r.Context(), chi.URLParam(r, "accountID"))
	if err != nil {
		s.errorHandler.HandleContractError(w, r, "get_last_battle", err)
		return
	}
	s.writeJSON(w, http.StatusOK, rec)
}

// GET /api/v1/accounts/{accountID}/karts?offset=&limit=
func (s *Server) handleOwnerKarts(w http.ResponseWriter, r *http.Request) {
	account := chi.URLParam(r, "accountID")
	offset, err := queryInt(r, "offset", 0)
	if err != nil || offset < 0 {
		s.errorHandler.HandleValidationError(w, r, "offset", "offset must be a non-negative integer")
		return
	}
	limit, err := queryInt(r, "limit", 0)
	if err != nil || limit < 0 {
		s.errorHandler.HandleValidationError(w, r, "limit", "limit must be a non-negative integer")
		return
	}

	toks, err := s.contract.TokensForOwner(r.Context(), account, offset, limit)
	if err != nil {
		s.errorHandler.HandleError(w, r, err, http.StatusInternalServerError)
		return
	}
	supply, err := s.contract.SupplyForOwner(r.Context(), account)
	if err != nil {
		s.errorHandler.HandleError(w, r, err, http.StatusInternalServerError)
		return
	}
	s.writeJSON(w, http.StatusOK, OwnerKartsResponse{AccountID: account, Supply: supply, Tokens: toks})
}

// GET /api/v1/metadata
func (s *Server) handleContractMetadata(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, s.contract.ContractMetadata())
}

// GET /api/v1/version
func (s *Server) handleVersion(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, GetVersionInfo())
}

// GET /api/v1/events?after=&limit=
func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	var after int64
	if v := r.URL.Query().Get("after"); v != "" {
		n, err := strconv.ParseInt(v, 10, 64)
		if err != nil {
			s.errorHandler.HandleValidationError(w, r, "after", "after must be an event id")
			return
		}
		after = n
	}
	limit, err := queryInt(r, "limit", 100)
	if err != nil || limit <= 0 || limit > 1000 {
		s.errorHandler.HandleValidationError(w, r, "limit", "limit must be between 1 and 1000")
		return
	}
	evs, err := s.contract.Events(r.Context(), after, limit)
	if err != nil {
		s.errorHandler.HandleError(w, r, err, http.StatusInternalServerError)
		return
	}
	if evs == nil {
		evs = []store.Event{}
	}
	s.writeJSON(w, http.StatusOK, map[string]any{"events": evs, "count": len(evs)})
}
