package contract

import (
	"context"

	"github.com/shopspring/decimal"

	"github.com/MJE43/nearkarts-go/internal/kart"
	"github.com/MJE43/nearkarts-go/internal/nft"
	"github.com/MJE43/nearkarts-go/internal/signer"
	"github.com/MJE43/nearkarts-go/internal/store"
)

// KeyArgs carry a signer public key.
type KeyArgs struct {
	PubKey string `json:"pub_key"`
}

// OneYocto is the exact deposit a transfer must attach.
var OneYocto = decimal.New(1, 0)

// TransferArgs are the arguments of Transfer.
type TransferArgs struct {
	ReceiverID string  `json:"receiver_id"`
	TokenID    string  `json:"token_id"`
	Memo       *string `json:"memo,omitempty"`
}

// AddSignerKey registers a content signing key. Administrator only.
func (k *Contract) AddSignerKey(ctx context.Context, env Env, args KeyArgs) error {
	_, err := execute(ctx, k, "add_signer_key", env, args, func(c *call) (struct{}, error) {
		return struct{}{}, c.registry(k.account).Add(ctx, env.Predecessor, args.PubKey)
	})
	return err
}

// RemoveSignerKey unregisters a content signing key. Administrator only.
func (k *Contract) RemoveSignerKey(ctx context.Context, env Env, args KeyArgs) error {
	_, err := execute(ctx, k, "remove_signer_key", env, args, func(c *call) (struct{}, error) {
		return struct{}{}, c.registry(k.account).Remove(ctx, env.Predecessor, args.PubKey)
	})
	return err
}

// Transfer moves a token the caller owns to another account. The caller
// attaches exactly one yoctoNEAR.
func (k *Contract) Transfer(ctx context.Context, env Env, args TransferArgs) error {
	_, err := execute(ctx, k, "nft_transfer", env, args, func(c *call) (struct{}, error) {
		if !env.AttachedDeposit.Equal(OneYocto) {
			return struct{}{}, kart.ErrNotOneYocto
		}
		if args.ReceiverID == "" {
			return struct{}{}, kart.ErrNoReceiver
		}
		if err := requireOwner(c, args.TokenID); err != nil {
			return struct{}{}, err
		}
		if args.ReceiverID == env.Predecessor {
			return struct{}{}, kart.ErrSameOwner
		}
		if err := c.tx.SetOwner(ctx, args.TokenID, args.ReceiverID); err != nil {
			return struct{}{}, err
		}
		return struct{}{}, c.emit(nft.NewTransferEvent(nft.TransferLog{
			OldOwnerID: env.Predecessor,
			NewOwnerID: args.ReceiverID,
			TokenIDs:   []string{args.TokenID},
			Memo:       args.Memo,
		}))
	})
	return err
}

// SignerKeys lists the registered signing keys.
func (k *Contract) SignerKeys(ctx context.Context) ([]string, error) {
	return view(ctx, k, func(tx *store.Tx) ([]string, error) {
		return signer.NewRegistry(tx, k.account).Keys(ctx)
	})
}

// GetConfig decodes the configuration stored on tokenID.
func (k *Contract) GetConfig(ctx context.Context, tokenID string) (kart.Config, error) {
	return view(ctx, k, func(tx *store.Tx) (kart.Config, error) {
		extra, err := tx.Extra(ctx, tokenID)
		if err != nil {
			return kart.Config{}, err
		}
		return kart.Decode(extra)
	})
}

// NumKarts returns the number of minted karts.
func (k *Contract) NumKarts(ctx context.Context) (int, error) {
	return view(ctx, k, func(tx *store.Tx) (int, error) {
		return tx.CountTokens(ctx)
	})
}

// TokenIDByIndex returns the token at index in enumeration order.
func (k *Contract) TokenIDByIndex(ctx context.Context, index int) (string, error) {
	if index < 0 {
		return "", kart.ErrTokenNotFound
	}
	return view(ctx, k, func(tx *store.Tx) (string, error) {
		return tx.TokenIDAt(ctx, index)
	})
}

// Token returns the ledger entry for tokenID.
func (k *Contract) Token(ctx context.Context, tokenID string) (nft.Token, error) {
	return view(ctx, k, func(tx *store.Tx) (nft.Token, error) {
		return tx.Token(ctx, tokenID)
	})
}

// TokenMetadata returns the metadata record of tokenID.
func (k *Contract) TokenMetadata(ctx context.Context, tokenID string) (nft.TokenMetadata, error) {
	tok, err := k.Token(ctx, tokenID)
	if err != nil {
		return nft.TokenMetadata{}, err
	}
	return tok.Metadata, nil
}

func (k *Contract) MetadataTitle(ctx context.Context, tokenID string) (string, error) {
	meta, err := k.TokenMetadata(ctx, tokenID)
	if err != nil {
		return "", err
	}
	return nft.Value(meta.Title), nil
}

func (k *Contract) MetadataExtra(ctx context.Context, tokenID string) (string, error) {
	meta, err := k.TokenMetadata(ctx, tokenID)
	if err != nil {
		return "", err
	}
	return nft.Value(meta.Extra), nil
}

// TokensForOwner pages through the tokens of owner. A zero limit returns
// everything after offset.
func (k *Contract) TokensForOwner(ctx context.Context, owner string, offset, limit int) ([]nft.Token, error) {
	if offset < 0 {
		offset = 0
	}
	return view(ctx, k, func(tx *store.Tx) ([]nft.Token, error) {
		toks, err := tx.TokensForOwner(ctx, owner, offset, limit)
		if toks == nil && err == nil {
			toks = []nft.Token{}
		}
		return toks, err
	})
}

// SupplyForOwner counts the tokens held by owner.
func (k *Contract) SupplyForOwner(ctx context.Context, owner string) (int, error) {
	return view(ctx, k, func(tx *store.Tx) (int, error) {
		return tx.CountForOwner(ctx, owner)
	})
}

// ContractMetadata returns the collection metadata.
func (k *Contract) ContractMetadata() nft.ContractMetadata {
	return k.metadata
}

// Events pages through committed event lines after afterID.
func (k *Contract) Events(ctx context.Context, afterID int64, limit int) ([]store.Event, error) {
	return view(ctx, k, func(tx *store.Tx) ([]store.Event, error) {
		return tx.Events(ctx, afterID, limit)
	})
}

// Journal pages through recorded calls after afterSeq.
func (k *Contract) Journal(ctx context.Context, afterSeq int64, limit int) ([]store.JournalEntry, error) {
	return view(ctx, k, func(tx *store.Tx) ([]store.JournalEntry, error) {
		return tx.Journal(ctx, afterSeq, limit)
	})
}
