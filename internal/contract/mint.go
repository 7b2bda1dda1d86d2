package contract

import (
	"context"

	"github.com/MJE43/nearkarts-go/internal/kart"
	"github.com/MJE43/nearkarts-go/internal/nft"
)

// SeriesDescription is written into every minted token's metadata.
const SeriesDescription = "NEAR Karts Series 1"

// Kart configuration event names.
const (
	EventConfigureOnMint    = "configure_on_mint"
	EventConfigureOnUpgrade = "configure_on_upgrade"
)

// KartMeta describes the media attached to a kart.
type KartMeta struct {
	TokenID   string `json:"token_id"`
	Name      string `json:"name"`
	Media     string `json:"media"`
	Reference string `json:"reference"`
}

// KartMetaLog is emitted when a kart's configuration and media change.
type KartMetaLog struct {
	Event string   `json:"event"`
	Data  KartMeta `json:"data"`
}

// MintArgs are the arguments of Mint.
type MintArgs struct {
	TokenID    string      `json:"token_id"`
	ReceiverID string      `json:"receiver_id"`
	Name       string      `json:"name"`
	Kart       kart.Config `json:"near_kart_new"`
	CID        string      `json:"cid"`
	Sig        string      `json:"sig"`
	PubKey     string      `json:"pub_key"`
}

// UpgradeArgs are the arguments of Upgrade.
type UpgradeArgs struct {
	TokenID string      `json:"token_id"`
	Kart    kart.Config `json:"near_kart_new"`
	CID     string      `json:"cid"`
	Sig     string      `json:"sig"`
	PubKey  string      `json:"pub_key"`
}

// ConfigureArgs are the arguments of Configure.
type ConfigureArgs struct {
	TokenID string      `json:"token_id"`
	Kart    kart.Config `json:"near_kart_new"`
}

// Mint creates a kart token owned by args.ReceiverID, or by the caller when
// no receiver is given.
func (k *Contract) Mint(ctx context.Context, env Env, args MintArgs) (nft.Token, error) {
	return execute(ctx, k, "nft_mint", env, args, func(c *call) (nft.Token, error) {
		if err := k.requireDeposit(env, kart.ErrMintPaymentTooLow); err != nil {
			return nft.Token{}, err
		}
		if args.TokenID == "" {
			return nft.Token{}, kart.ErrNoTokenID
		}
		if err := c.registry(k.account).Approve(ctx, args.CID, args.Sig, args.PubKey); err != nil {
			return nft.Token{}, err
		}

		owner := args.ReceiverID
		if owner == "" {
			owner = env.Predecessor
		}

		cfg := kart.ForMint(args.Kart)
		if err := kart.Validate(cfg, cfg); err != nil {
			return nft.Token{}, err
		}

		tok := nft.Token{
			TokenID: args.TokenID,
			OwnerID: owner,
			Metadata: nft.TokenMetadata{
				Title:       nft.String(args.Name),
				Description: nft.String(SeriesDescription),
				Media:       nft.String(args.CID),
				Copies:      nft.Uint64(1),
				Extra:       nft.String(kart.Encode(cfg)),
			},
		}
		if err := c.tx.InsertToken(ctx, tok); err != nil {
			return nft.Token{}, err
		}

		if err := c.emit(nft.NewMintEvent(nft.MintLog{OwnerID: owner, TokenIDs: []string{args.TokenID}})); err != nil {
			return nft.Token{}, err
		}
		if err := c.emit(KartMetaLog{
			Event: EventConfigureOnMint,
			Data:  KartMeta{TokenID: args.TokenID, Name: args.Name, Media: args.CID},
		}); err != nil {
			return nft.Token{}, err
		}
		return tok, nil
	})
}

// Upgrade applies a signed equipment change to an unlocked kart and locks it
// again one level higher.
func (k *Contract) Upgrade(ctx context.Context, env Env, args UpgradeArgs) error {
	_, err := execute(ctx, k, "upgrade", env, args, func(c *call) (struct{}, error) {
		if err := requireOwner(c, args.TokenID); err != nil {
			return struct{}{}, err
		}
		if err := k.requireDeposit(env, kart.ErrUpgradePaymentTooLow); err != nil {
			return struct{}{}, err
		}
		if err := c.registry(k.account).Approve(ctx, args.CID, args.Sig, args.PubKey); err != nil {
			return struct{}{}, err
		}

		tok, err := c.tx.Token(ctx, args.TokenID)
		if err != nil {
			return struct{}{}, err
		}
		current, err := kart.Decode(nft.Value(tok.Metadata.Extra))
		if err != nil {
			return struct{}{}, err
		}
		if current.Locked {
			return struct{}{}, kart.ErrKartLocked
		}
		if err := kart.Validate(args.Kart, current); err != nil {
			return struct{}{}, err
		}

		next := kart.ApplyUpgrade(current, args.Kart)
		if err := c.tx.SetExtra(ctx, args.TokenID, kart.Encode(next)); err != nil {
			return struct{}{}, err
		}
		if err := c.tx.SetMedia(ctx, args.TokenID, args.CID); err != nil {
			return struct{}{}, err
		}
		return struct{}{}, c.emit(KartMetaLog{
			Event: EventConfigureOnUpgrade,
			Data:  KartMeta{TokenID: args.TokenID, Name: nft.Value(tok.Metadata.Title), Media: args.CID},
		})
	})
	return err
}

// Configure lets the owner re-equip a kart without a signature or payment.
// Only the equipment and cosmetic fields of args.Kart are taken; level,
// lock state and unlocks stay as stored.
func (k *Contract) Configure(ctx context.Context, env Env, args ConfigureArgs) error {
	_, err := execute(ctx, k, "configure", env, args, func(c *call) (struct{}, error) {
		if err := requireOwner(c, args.TokenID); err != nil {
			return struct{}{}, err
		}
		extra, err := c.tx.Extra(ctx, args.TokenID)
		if err != nil {
			return struct{}{}, err
		}
		current, err := kart.Decode(extra)
		if err != nil {
			return struct{}{}, err
		}

		next := kart.ApplyEquipment(current, args.Kart)
		if err := kart.Validate(next, current); err != nil {
			return struct{}{}, err
		}
		return struct{}{}, c.tx.SetExtra(ctx, args.TokenID, kart.Encode(next))
	})
	return err
}
