package contract

import (
	"context"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io"
	"log"
	"os"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/MJE43/nearkarts-go/internal/engine"
	"github.com/MJE43/nearkarts-go/internal/kart"
	"github.com/MJE43/nearkarts-go/internal/nft"
	"github.com/MJE43/nearkarts-go/internal/signer"
	"github.com/MJE43/nearkarts-go/internal/store"
)

// DefaultMinDeposit is 0.1 NEAR in yoctoNEAR.
var DefaultMinDeposit = decimal.New(1, 23)

// Seed is the block random seed, carried as hex in JSON.
type Seed []byte

func (s Seed) MarshalText() ([]byte, error) {
	return []byte(hex.EncodeToString(s)), nil
}

func (s *Seed) UnmarshalText(b []byte) error {
	raw, err := hex.DecodeString(string(b))
	if err != nil {
		return fmt.Errorf("random_seed: %w", err)
	}
	*s = raw
	return nil
}

// Env is the host context of one call.
type Env struct {
	Predecessor     string          `json:"predecessor"`
	AttachedDeposit decimal.Decimal `json:"attached_deposit"`
	BlockIndex      uint64          `json:"block_index"`
	RandomSeed      Seed            `json:"random_seed"`
}

func (e Env) beacon() engine.Beacon {
	return engine.FixedBeacon{Block: e.BlockIndex, Seed: e.RandomSeed}
}

// Publisher receives committed events.
type Publisher interface {
	Publish(ev store.Event)
}

// Options configures a Contract.
type Options struct {
	// ContractAccount is the contract's own account id, used by the
	// administrator rule.
	ContractAccount string
	MinDeposit      decimal.Decimal
	Metadata        nft.ContractMetadata
	Logger          *log.Logger
	Publisher       Publisher
}

// Contract executes kart calls against the store. Each call runs in its own
// store transaction; an error from any step discards all of its writes.
type Contract struct {
	store      *store.Store
	account    string
	minDeposit decimal.Decimal
	metadata   nft.ContractMetadata
	logger     *log.Logger
	publisher  Publisher
}

// New creates a Contract over st.
func New(st *store.Store, opts Options) *Contract {
	if opts.MinDeposit.IsZero() {
		opts.MinDeposit = DefaultMinDeposit
	}
	if opts.Metadata.Spec == "" {
		opts.Metadata = nft.DefaultContractMetadata()
	}
	if opts.Logger == nil {
		opts.Logger = log.New(os.Stdout, "[CONTRACT] ", log.LstdFlags|log.Lshortfile)
	}
	return &Contract{
		store:      st,
		account:    opts.ContractAccount,
		minDeposit: opts.MinDeposit,
		metadata:   opts.Metadata,
		logger:     opts.Logger,
		publisher:  opts.Publisher,
	}
}

// DiscardLogger is a logger for tests and tools that do not want call logs.
func DiscardLogger() *log.Logger {
	return log.New(io.Discard, "", 0)
}

// call is the state of one in-flight entry point.
type call struct {
	ctx    context.Context
	id     string
	method string
	env    Env
	tx     *store.Tx
	rng    *engine.RandomEngine
	lines  []string
}

// random returns the call's generator, loading persisted state on first use.
func (c *call) random() (*engine.RandomEngine, error) {
	if c.rng != nil {
		return c.rng, nil
	}
	st, err := c.tx.RandomState(c.ctx)
	if err != nil {
		return nil, err
	}
	c.rng = engine.NewRandomEngine(c.env.beacon(), st)
	return c.rng, nil
}

func (c *call) emit(v any) error {
	line, err := nft.Format(v)
	if err != nil {
		return err
	}
	c.lines = append(c.lines, line)
	return nil
}

func (c *call) registry(account string) *signer.Registry {
	return signer.NewRegistry(c.tx, account)
}

// execute runs fn as one atomic call and journals it on success.
func execute[T any](ctx context.Context, k *Contract, method string, env Env, args any, fn func(*call) (T, error)) (T, error) {
	var (
		result T
		events []store.Event
	)
	c := &call{ctx: ctx, id: uuid.New().String(), method: method, env: env}

	err := k.store.Update(ctx, func(tx *store.Tx) error {
		c.tx = tx
		out, err := fn(c)
		if err != nil {
			return err
		}
		result = out

		if c.rng != nil && c.rng.Draws() > 0 {
			if err := tx.SaveRandomState(ctx, c.rng.State()); err != nil {
				return err
			}
		}
		for _, line := range c.lines {
			ev, err := tx.AppendEvent(ctx, c.id, line)
			if err != nil {
				return err
			}
			events = append(events, ev)
		}
		return k.journal(c, args, out)
	})
	if err != nil {
		k.logger.Printf("call_aborted method=%s call_id=%s predecessor=%s block=%d error=%q",
			method, c.id, env.Predecessor, env.BlockIndex, err.Error())
		var zero T
		return zero, err
	}

	k.logger.Printf("call_committed method=%s call_id=%s predecessor=%s block=%d events=%d",
		method, c.id, env.Predecessor, env.BlockIndex, len(events))
	for _, ev := range events {
		k.logger.Print(ev.Line)
		if k.publisher != nil {
			k.publisher.Publish(ev)
		}
	}
	return result, nil
}

func (k *Contract) journal(c *call, args, result any) error {
	envJSON, err := json.Marshal(c.env)
	if err != nil {
		return fmt.Errorf("encode env: %w", err)
	}
	argsJSON, err := json.Marshal(args)
	if err != nil {
		return fmt.Errorf("encode args: %w", err)
	}
	resultJSON, err := json.Marshal(result)
	if err != nil {
		return fmt.Errorf("encode result: %w", err)
	}
	_, err = c.tx.AppendJournal(c.ctx, store.JournalEntry{
		CallID: c.id,
		Method: c.method,
		Env:    envJSON,
		Args:   argsJSON,
		Result: resultJSON,
	})
	return err
}

// view runs fn against a read-only snapshot.
func view[T any](ctx context.Context, k *Contract, fn func(*store.Tx) (T, error)) (T, error) {
	var result T
	err := k.store.View(ctx, func(tx *store.Tx) error {
		out, err := fn(tx)
		if err != nil {
			return err
		}
		result = out
		return nil
	})
	return result, err
}

// requireDeposit rejects env when the attached deposit is under the minimum.
func (k *Contract) requireDeposit(env Env, tooLow *kart.Error) error {
	if env.AttachedDeposit.LessThan(k.minDeposit) {
		return tooLow
	}
	return nil
}

// requireOwner loads the owner of tokenID and checks it against the caller.
func requireOwner(c *call, tokenID string) error {
	owner, err := c.tx.OwnerOf(c.ctx, tokenID)
	if err != nil {
		return err
	}
	if owner != c.env.Predecessor {
		return kart.ErrNotTokenOwner
	}
	return nil
}
