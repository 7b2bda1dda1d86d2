package nft

import (
	"encoding/json"
	"fmt"
)

// EventPrefix starts every structured log line.
const EventPrefix = "EVENT_JSON:"

// StandardName identifies NEP-171 events.
const StandardName = "nep171"

// MintLog is one entry of an nft_mint event.
type MintLog struct {
	OwnerID  string   `json:"owner_id"`
	TokenIDs []string `json:"token_ids"`
	Memo     *string  `json:"memo,omitempty"`
}

// TransferLog is one entry of an nft_transfer event.
type TransferLog struct {
	AuthorizedID *string  `json:"authorized_id,omitempty"`
	OldOwnerID   string   `json:"old_owner_id"`
	NewOwnerID   string   `json:"new_owner_id"`
	TokenIDs     []string `json:"token_ids"`
	Memo         *string  `json:"memo,omitempty"`
}

// EventLog is the NEP-171 envelope.
type EventLog struct {
	Standard string `json:"standard"`
	Version  string `json:"version"`
	Event    string `json:"event"`
	Data     any    `json:"data"`
}

// NewMintEvent builds an nft_mint envelope.
func NewMintEvent(entries ...MintLog) EventLog {
	return EventLog{Standard: StandardName, Version: MetadataSpec, Event: "nft_mint", Data: entries}
}

// NewTransferEvent builds an nft_transfer envelope.
func NewTransferEvent(entries ...TransferLog) EventLog {
	return EventLog{Standard: StandardName, Version: MetadataSpec, Event: "nft_transfer", Data: entries}
}

// Format renders v as an EVENT_JSON log line.
func Format(v any) (string, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("nft: encode event: %w", err)
	}
	return EventPrefix + string(b), nil
}
