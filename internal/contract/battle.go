package contract

import (
	"context"

	"github.com/MJE43/nearkarts-go/internal/battle"
	"github.com/MJE43/nearkarts-go/internal/kart"
	"github.com/MJE43/nearkarts-go/internal/store"
)

// TokenArgs name a single kart.
type TokenArgs struct {
	TokenID string `json:"token_id"`
}

// Battle fights the caller's kart against a random opponent. The record
// replaces the caller's last battle.
func (k *Contract) Battle(ctx context.Context, env Env, args TokenArgs) (battle.Record, error) {
	return execute(ctx, k, "game_simple_battle", env, args, func(c *call) (battle.Record, error) {
		if err := requireOwner(c, args.TokenID); err != nil {
			return battle.Record{}, err
		}
		extra, err := c.tx.Extra(ctx, args.TokenID)
		if err != nil {
			return battle.Record{}, err
		}
		cfg, err := kart.Decode(extra)
		if err != nil {
			return battle.Record{}, err
		}
		ids, err := c.tx.TokenIDs(ctx)
		if err != nil {
			return battle.Record{}, err
		}
		rng, err := c.random()
		if err != nil {
			return battle.Record{}, err
		}

		out := battle.Run(rng, args.TokenID, cfg, ids)
		if out.Changed {
			if err := c.tx.SetExtra(ctx, args.TokenID, kart.Encode(out.Config)); err != nil {
				return battle.Record{}, err
			}
		}
		if err := c.tx.PutLastBattle(ctx, env.Predecessor, out.Record); err != nil {
			return battle.Record{}, err
		}
		if err := c.emit(battle.Log{Event: battle.EventName, Data: out.Record}); err != nil {
			return battle.Record{}, err
		}
		return out.Record, nil
	})
}

// GetRandomOpponent picks an opponent for tokenID. It consumes a random
// draw, so it runs as a call rather than a view.
func (k *Contract) GetRandomOpponent(ctx context.Context, env Env, args TokenArgs) (string, error) {
	return execute(ctx, k, "get_random_opponent", env, args, func(c *call) (string, error) {
		ids, err := c.tx.TokenIDs(ctx)
		if err != nil {
			return "", err
		}
		rng, err := c.random()
		if err != nil {
			return "", err
		}
		return battle.PickOpponent(rng, args.TokenID, ids), nil
	})
}

// GetLastBattle returns the most recent battle fought by account.
func (k *Contract) GetLastBattle(ctx context.Context, account string) (battle.Record, error) {
	return view(ctx, k, func(tx *store.Tx) (battle.Record, error) {
		rec, ok, err := tx.LastBattle(ctx, account)
		if err != nil {
			return battle.Record{}, err
		}
		if !ok {
			return battle.Record{}, kart.ErrNoLastBattle
		}
		return rec, nil
	})
}
