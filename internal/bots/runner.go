package bots

import (
	"context"
	"crypto/ed25519"
	"errors"
	"fmt"
	"log"
	"os"

	"golang.org/x/sync/errgroup"

	"github.com/MJE43/nearkarts-go/internal/contract"
	"github.com/MJE43/nearkarts-go/internal/kart"
	"github.com/MJE43/nearkarts-go/internal/nft"
	"github.com/MJE43/nearkarts-go/internal/signer"
)

// Minter mints kart tokens. *contract.Contract satisfies it.
type Minter interface {
	Mint(ctx context.Context, env contract.Env, args contract.MintArgs) (nft.Token, error)
}

// EnvFunc returns the call environment for the next mint by caller.
type EnvFunc func(caller string) contract.Env

// Result is the outcome for one bot. Skipped is set when the token id was
// already minted.
type Result struct {
	TokenID string      `json:"token_id"`
	Config  kart.Config `json:"config"`
	Skipped bool        `json:"skipped"`
	Token   *nft.Token  `json:"token,omitempty"`
	Logs    []LogEntry  `json:"logs,omitempty"`
}

// Runner designs roster bots with their scripts and mints them.
type Runner struct {
	minter   Minter
	key      ed25519.PrivateKey
	env      EnvFunc
	logger   *log.Logger
	parallel int
}

// NewRunner creates a Runner that signs content ids with key.
func NewRunner(m Minter, key ed25519.PrivateKey, env EnvFunc, logger *log.Logger) *Runner {
	if logger == nil {
		logger = log.New(os.Stdout, "[BOTS] ", log.LstdFlags)
	}
	return &Runner{minter: m, key: key, env: env, logger: logger, parallel: 4}
}

// Design runs every bot script and returns the mint configs in roster order.
// Scripts run concurrently, each in its own VM; the first failure cancels
// the rest.
func (r *Runner) Design(ctx context.Context, roster Roster) ([]Result, error) {
	results := make([]Result, len(roster.Bots))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(r.parallel)

	for i, bot := range roster.Bots {
		i, bot := i, bot
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			vm := NewVM()
			if err := vm.Execute(bot.Source); err != nil {
				return fmt.Errorf("bot %q: %w", bot.TokenID, err)
			}
			cfg, err := vm.Design(kart.NewConfig().Level)
			if err != nil {
				return fmt.Errorf("bot %q: %w", bot.TokenID, err)
			}
			mintCfg := kart.ForMint(cfg)
			if err := kart.Validate(mintCfg, mintCfg); err != nil {
				return fmt.Errorf("bot %q: %w", bot.TokenID, err)
			}
			results[i] = Result{TokenID: bot.TokenID, Config: mintCfg, Logs: vm.Logs()}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, nil
}

// Run designs the roster and mints each bot to the roster owner in order.
// Bots whose token id already exists are skipped.
func (r *Runner) Run(ctx context.Context, roster Roster) ([]Result, error) {
	if err := roster.Validate(); err != nil {
		return nil, err
	}
	results, err := r.Design(ctx, roster)
	if err != nil {
		return nil, err
	}

	pub := signer.PublicKeyHex(r.key)
	for i, bot := range roster.Bots {
		args := contract.MintArgs{
			TokenID:    bot.TokenID,
			ReceiverID: roster.Owner,
			Name:       bot.Name,
			Kart:       results[i].Config,
			CID:        bot.CID,
			Sig:        signer.Sign(r.key, bot.CID),
			PubKey:     pub,
		}
		tok, err := r.minter.Mint(ctx, r.env(roster.Owner), args)
		switch {
		case errors.Is(err, kart.ErrDuplicateToken):
			results[i].Skipped = true
			r.logger.Printf("bot_skipped token_id=%s reason=exists", bot.TokenID)
		case err != nil:
			return results[:i], fmt.Errorf("mint bot %q: %w", bot.TokenID, err)
		default:
			results[i].Token = &tok
			r.logger.Printf("bot_minted token_id=%s owner=%s extra=%s", bot.TokenID, tok.OwnerID, nft.Value(tok.Metadata.Extra))
		}
	}
	return results, nil
}
