package api

import (
	"github.com/MJE43/nearkarts-go/internal/contract"
	"github.com/MJE43/nearkarts-go/internal/kart"
	"github.com/MJE43/nearkarts-go/internal/nft"
)

// EngineError represents a structured error response with context
type EngineError struct {
	Type      string         `json:"type"`
	Message   string         `json:"message"`
	Context   map[string]any `json:"context,omitempty"`
	RequestID string         `json:"request_id,omitempty"`
	Timestamp string         `json:"timestamp,omitempty"`
}

// Error implements the error interface
func (e EngineError) Error() string {
	return e.Message
}

// Error types outside the contract's own kinds.
const (
	ErrTypeValidation = "validation_error"
	ErrTypeNotFound   = string(kart.KindNotFound)
	ErrTypeTimeout    = "timeout"
	ErrTypeInternal   = "internal_error"
)

// ErrorCategory represents error categories for monitoring
type ErrorCategory string

const (
	CategoryValidation ErrorCategory = "validation"
	CategoryAuth       ErrorCategory = "auth"
	CategoryContract   ErrorCategory = "contract"
	CategorySystem     ErrorCategory = "system"
	CategoryTimeout    ErrorCategory = "timeout"
)

// GetErrorCategory returns the category for an error type
func GetErrorCategory(errType string) ErrorCategory {
	switch errType {
	case ErrTypeValidation, string(kart.KindInvalidArgument), string(kart.KindSignatureFormat), string(kart.KindEquip), string(kart.KindCodec):
		return CategoryValidation
	case string(kart.KindAuthorization), string(kart.KindSignerNotRegistered), string(kart.KindSignatureVerification):
		return CategoryAuth
	case string(kart.KindInsufficientPayment), string(kart.KindDuplicateToken), string(kart.KindKartLocked),
		string(kart.KindNoLastBattle), string(kart.KindNotFound):
		return CategoryContract
	case ErrTypeTimeout:
		return CategoryTimeout
	default:
		return CategorySystem
	}
}

// VersionInfo contains engine version information
type VersionInfo struct {
	EngineVersion string `json:"engine_version"`
	GitCommit     string `json:"git_commit,omitempty"`
	BuildTime     string `json:"build_time,omitempty"`
}

// Request bodies carry the caller's host context next to the call
// arguments. Path parameters override token ids in the body.

type MintRequest struct {
	Env contract.Env `json:"env"`
	contract.MintArgs
}

type UpgradeRequest struct {
	Env contract.Env `json:"env"`
	contract.UpgradeArgs
}

type ConfigureRequest struct {
	Env contract.Env `json:"env"`
	contract.ConfigureArgs
}

type TransferRequest struct {
	Env contract.Env `json:"env"`
	contract.TransferArgs
}

type SignerRequest struct {
	Env contract.Env `json:"env"`
	contract.KeyArgs
}

// CallRequest is the body of calls that take no arguments besides the path.
type CallRequest struct {
	Env contract.Env `json:"env"`
}

// KartCountResponse answers GET /karts.
type KartCountResponse struct {
	Count int `json:"count"`
}

// KartIndexResponse answers GET /karts?index=N.
type KartIndexResponse struct {
	Index   int    `json:"index"`
	TokenID string `json:"token_id"`
}

// OwnerKartsResponse lists an account's karts.
type OwnerKartsResponse struct {
	AccountID string      `json:"account_id"`
	Supply    int         `json:"supply"`
	Tokens    []nft.Token `json:"tokens"`
}

// OpponentResponse answers an opponent draw.
type OpponentResponse struct {
	TokenID    string `json:"token_id"`
	OpponentID string `json:"opponent_id"`
}

// KartConfigResponse carries a decoded configuration and its stored form.
type KartConfigResponse struct {
	TokenID string      `json:"token_id"`
	Config  kart.Config `json:"config"`
	Encoded string      `json:"encoded"`
}

// SignersResponse lists registered signer keys.
type SignersResponse struct {
	Keys []string `json:"keys"`
}
