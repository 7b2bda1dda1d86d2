package signer

import (
	"context"
	"fmt"
	"strings"

	"github.com/MJE43/nearkarts-go/internal/kart"
)

// KeySet is the persisted set of authorized public keys.
type KeySet interface {
	HasSignerKey(ctx context.Context, key string) (bool, error)
	AddSignerKey(ctx context.Context, key string) error
	RemoveSignerKey(ctx context.Context, key string) error
	SignerKeys(ctx context.Context) ([]string, error)
}

// IsAdmin reports whether predecessor may administer contractAccount: it
// must have at least two dot separated segments and contractAccount must end
// with it.
func IsAdmin(predecessor, contractAccount string) bool {
	if len(strings.Split(predecessor, ".")) < 2 {
		return false
	}
	return strings.HasSuffix(contractAccount, predecessor)
}

// Registry gates a KeySet behind the administrator rule.
type Registry struct {
	keys            KeySet
	contractAccount string
}

// NewRegistry binds keys to the contract's own account id.
func NewRegistry(keys KeySet, contractAccount string) *Registry {
	return &Registry{keys: keys, contractAccount: contractAccount}
}

// Add inserts key. Adding a present key is a no-op.
func (r *Registry) Add(ctx context.Context, predecessor, key string) error {
	if !IsAdmin(predecessor, r.contractAccount) {
		return kart.ErrNotAdmin
	}
	if err := r.keys.AddSignerKey(ctx, key); err != nil {
		return fmt.Errorf("add signer key: %w", err)
	}
	return nil
}

// Remove deletes key. Removing an absent key is a no-op.
func (r *Registry) Remove(ctx context.Context, predecessor, key string) error {
	if !IsAdmin(predecessor, r.contractAccount) {
		return kart.ErrNotAdmin
	}
	if err := r.keys.RemoveSignerKey(ctx, key); err != nil {
		return fmt.Errorf("remove signer key: %w", err)
	}
	return nil
}

// Contains reports whether key is registered.
func (r *Registry) Contains(ctx context.Context, key string) (bool, error) {
	ok, err := r.keys.HasSignerKey(ctx, key)
	if err != nil {
		return false, fmt.Errorf("lookup signer key: %w", err)
	}
	return ok, nil
}

// Keys lists registered keys in ascending order.
func (r *Registry) Keys(ctx context.Context) ([]string, error) {
	return r.keys.SignerKeys(ctx)
}

// Approve runs the content authorization sequence shared by mint and
// upgrade: registered key first, then the signature over contentID.
func (r *Registry) Approve(ctx context.Context, contentID, signatureHex, publicKeyHex string) error {
	ok, err := r.Contains(ctx, publicKeyHex)
	if err != nil {
		return err
	}
	if !ok {
		return kart.ErrSignerNotRegistered
	}
	return Authorize(contentID, signatureHex, publicKeyHex)
}
