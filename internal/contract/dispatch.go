package contract

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
)

type handler func(ctx context.Context, k *Contract, env Env, raw json.RawMessage) (any, error)

func bind[A any, R any](fn func(k *Contract, ctx context.Context, env Env, args A) (R, error)) handler {
	return func(ctx context.Context, k *Contract, env Env, raw json.RawMessage) (any, error) {
		var args A
		if len(raw) > 0 {
			if err := json.Unmarshal(raw, &args); err != nil {
				return nil, fmt.Errorf("decode args: %w", err)
			}
		}
		return fn(k, ctx, env, args)
	}
}

func noResult[A any](fn func(k *Contract, ctx context.Context, env Env, args A) error) handler {
	return bind(func(k *Contract, ctx context.Context, env Env, args A) (struct{}, error) {
		return struct{}{}, fn(k, ctx, env, args)
	})
}

// Journaled method names map to their entry points.
var handlers = map[string]handler{
	"add_signer_key":      noResult((*Contract).AddSignerKey),
	"remove_signer_key":   noResult((*Contract).RemoveSignerKey),
	"nft_mint":            bind((*Contract).Mint),
	"upgrade":             noResult((*Contract).Upgrade),
	"configure":           noResult((*Contract).Configure),
	"game_simple_battle":  bind((*Contract).Battle),
	"get_random_opponent": bind((*Contract).GetRandomOpponent),
	"nft_transfer":        noResult((*Contract).Transfer),
}

// Methods lists the method names accepted by Dispatch.
func Methods() []string {
	names := make([]string, 0, len(handlers))
	for name := range handlers {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Dispatch runs a state changing method by name with JSON encoded
// arguments. It is the entry used when replaying a journal.
func (k *Contract) Dispatch(ctx context.Context, method string, env Env, args json.RawMessage) (any, error) {
	h, ok := handlers[method]
	if !ok {
		return nil, fmt.Errorf("unknown method %q", method)
	}
	return h(ctx, k, env, args)
}
