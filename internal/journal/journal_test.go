package journal

import (
	"bytes"
	"context"
	"crypto/ed25519"
	"encoding/json"
	"fmt"
	"path/filepath"
	"testing"

	"github.com/klauspost/compress/zstd"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/MJE43/nearkarts-go/internal/contract"
	"github.com/MJE43/nearkarts-go/internal/kart"
	"github.com/MJE43/nearkarts-go/internal/signer"
	"github.com/MJE43/nearkarts-go/internal/store"
)

const account = "nft.nearkarts.testnet"

type memSource []store.JournalEntry

func (m memSource) Journal(_ context.Context, afterSeq int64, limit int) ([]store.JournalEntry, error) {
	var out []store.JournalEntry
	for _, e := range m {
		if e.Seq > afterSeq && len(out) < limit {
			out = append(out, e)
		}
	}
	return out, nil
}

func newContract(t *testing.T, name string) *contract.Contract {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), name))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })
	return contract.New(st, contract.Options{ContractAccount: account, Logger: contract.DiscardLogger()})
}

func envAt(pred string, block uint64, deposit decimal.Decimal) contract.Env {
	return contract.Env{
		Predecessor:     pred,
		AttachedDeposit: deposit,
		BlockIndex:      block,
		RandomSeed:      contract.Seed(fmt.Sprintf("seed-%032d", block)),
	}
}

// record drives a short session and returns its journal.
func record(t *testing.T) *contract.Contract {
	t.Helper()
	ctx := context.Background()
	k := newContract(t, "source.db")
	priv := ed25519.NewKeyFromSeed(bytes.Repeat([]byte{3}, ed25519.SeedSize))
	pub := signer.PublicKeyHex(priv)

	block := uint64(100)
	require.NoError(t, k.AddSignerKey(ctx, envAt("nearkarts.testnet", block, decimal.Zero), contract.KeyArgs{PubKey: pub}))
	for i, owner := range []string{"alice.testnet", "bob.testnet", "carol.testnet"} {
		block++
		cid := fmt.Sprintf("bafk-%d", i)
		_, err := k.Mint(ctx, envAt(owner, block, contract.DefaultMinDeposit), contract.MintArgs{
			TokenID: fmt.Sprint(i), ReceiverID: owner, Name: owner, Kart: kart.Config{Skin: 1},
			CID: cid, Sig: signer.Sign(priv, cid), PubKey: pub,
		})
		require.NoError(t, err)
	}
	for i := 0; i < 12; i++ {
		if i%3 != 0 {
			block++
		}
		_, err := k.Battle(ctx, envAt("alice.testnet", block, decimal.Zero), contract.TokenArgs{TokenID: "0"})
		require.NoError(t, err)
	}
	return k
}

func TestExportReplayReproduces(t *testing.T) {
	ctx := context.Background()
	src := record(t)

	var buf bytes.Buffer
	n, err := Export(ctx, src, 0, &buf)
	require.NoError(t, err)
	assert.Equal(t, 16, n)

	rep, err := Replay(ctx, newContract(t, "replica.db"), bytes.NewReader(buf.Bytes()))
	require.NoError(t, err)
	assert.Equal(t, 16, rep.Calls)
	assert.True(t, rep.OK(), "mismatches: %+v", rep.Mismatches)
}

func TestReplayDetectsDivergence(t *testing.T) {
	ctx := context.Background()
	src := record(t)
	entries, err := src.Journal(ctx, 0, 0)
	require.NoError(t, err)

	last := &entries[len(entries)-1]
	require.Equal(t, "game_simple_battle", last.Method)
	last.Result = json.RawMessage(`{"home_token_id":"0","away_token_id":"9","winner":1,"battle":0,"prize":"0","extra":""}`)

	var buf bytes.Buffer
	_, err = Export(ctx, memSource(entries), 0, &buf)
	require.NoError(t, err)

	rep, err := Replay(ctx, newContract(t, "replica.db"), &buf)
	require.NoError(t, err)
	require.Len(t, rep.Mismatches, 1)
	assert.Equal(t, last.Seq, rep.Mismatches[0].Seq)
	assert.NotEmpty(t, rep.Mismatches[0].Got)
}

func TestReplayRecordsFailedCalls(t *testing.T) {
	ctx := context.Background()
	env, _ := json.Marshal(envAt("alice.testnet", 1, decimal.Zero))
	entries := memSource{
		{Seq: 1, Method: "game_simple_battle", Env: env, Args: json.RawMessage(`{"token_id":"0"}`), Result: json.RawMessage(`{}`)},
	}
	var buf bytes.Buffer
	_, err := Export(ctx, entries, 0, &buf)
	require.NoError(t, err)

	rep, err := Replay(ctx, newContract(t, "replica.db"), &buf)
	require.NoError(t, err)
	require.Len(t, rep.Mismatches, 1)
	assert.Equal(t, kart.ErrTokenNotFound.Error(), rep.Mismatches[0].Error)
}

func TestExportPages(t *testing.T) {
	var src memSource
	for i := 1; i <= 2*pageSize+3; i++ {
		src = append(src, store.JournalEntry{Seq: int64(i), Method: "configure", Env: json.RawMessage(`{}`), Args: json.RawMessage(`{}`), Result: json.RawMessage(`{}`)})
	}
	var buf bytes.Buffer
	n, err := Export(context.Background(), src, 10, &buf)
	require.NoError(t, err)
	assert.Equal(t, len(src)-10, n)

	var seqs []int64
	require.NoError(t, Read(&buf, func(e store.JournalEntry) error {
		seqs = append(seqs, e.Seq)
		return nil
	}))
	require.Len(t, seqs, n)
	assert.Equal(t, int64(11), seqs[0])
	assert.Equal(t, int64(len(src)), seqs[len(seqs)-1])
}

func TestReadRejectsGarbage(t *testing.T) {
	var buf bytes.Buffer
	enc, err := zstd.NewWriter(&buf)
	require.NoError(t, err)
	_, err = enc.Write([]byte("{not json}\n"))
	require.NoError(t, err)
	require.NoError(t, enc.Close())

	err = Read(&buf, func(store.JournalEntry) error { return nil })
	require.Error(t, err)
	assert.Contains(t, err.Error(), "line 1")
}

func TestExportFile(t *testing.T) {
	dir := t.TempDir()
	path, n, err := ExportFile(context.Background(), memSource{{Seq: 1, Method: "configure", Env: json.RawMessage(`{}`), Args: json.RawMessage(`{}`), Result: json.RawMessage(`{}`)}}, dir)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.Equal(t, dir, filepath.Dir(path))
	assert.Contains(t, filepath.Base(path), ".jsonl.zst")
}
