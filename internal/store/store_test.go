package store

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/MJE43/nearkarts-go/internal/battle"
	"github.com/MJE43/nearkarts-go/internal/engine"
	"github.com/MJE43/nearkarts-go/internal/kart"
	"github.com/MJE43/nearkarts-go/internal/nft"
)

func testStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "karts.db"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func mintToken(id, owner string) nft.Token {
	return nft.Token{
		TokenID: id,
		OwnerID: owner,
		Metadata: nft.TokenMetadata{
			Title: nft.String("kart " + id),
			Extra: nft.String(""),
		},
	}
}

func TestMigrateIsIdempotent(t *testing.T) {
	s := testStore(t)
	if err := s.Migrate(context.Background()); err != nil {
		t.Fatalf("second Migrate: %v", err)
	}
}

func TestTokens(t *testing.T) {
	ctx := context.Background()
	s := testStore(t)

	err := s.Update(ctx, func(tx *Tx) error {
		for _, id := range []string{"2", "0", "10", "1"} {
			owner := "alice.testnet"
			if id == "10" {
				owner = "bob.testnet"
			}
			if err := tx.InsertToken(ctx, mintToken(id, owner)); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		t.Fatalf("insert: %v", err)
	}

	err = s.Update(ctx, func(tx *Tx) error {
		return tx.InsertToken(ctx, mintToken("1", "carol.testnet"))
	})
	if !errors.Is(err, kart.ErrDuplicateToken) {
		t.Fatalf("duplicate insert = %v, want ErrDuplicateToken", err)
	}

	err = s.View(ctx, func(tx *Tx) error {
		ids, err := tx.TokenIDs(ctx)
		if err != nil {
			return err
		}
		want := []string{"0", "1", "10", "2"}
		if len(ids) != len(want) {
			t.Fatalf("TokenIDs = %v, want %v", ids, want)
		}
		for i := range want {
			if ids[i] != want[i] {
				t.Errorf("TokenIDs[%d] = %q, want %q", i, ids[i], want[i])
			}
		}

		if n, _ := tx.CountTokens(ctx); n != 4 {
			t.Errorf("CountTokens = %d, want 4", n)
		}
		if id, _ := tx.TokenIDAt(ctx, 2); id != "10" {
			t.Errorf("TokenIDAt(2) = %q, want 10", id)
		}
		if _, err := tx.TokenIDAt(ctx, 4); !errors.Is(err, kart.ErrTokenNotFound) {
			t.Errorf("TokenIDAt(4) = %v, want ErrTokenNotFound", err)
		}

		owned, err := tx.TokensForOwner(ctx, "alice.testnet", 1, 0)
		if err != nil {
			return err
		}
		if len(owned) != 2 || owned[0].TokenID != "1" || owned[1].TokenID != "2" {
			t.Errorf("TokensForOwner offset 1 = %+v", owned)
		}
		if n, _ := tx.CountForOwner(ctx, "bob.testnet"); n != 1 {
			t.Errorf("CountForOwner(bob) = %d, want 1", n)
		}

		if _, err := tx.Token(ctx, "missing"); !errors.Is(err, kart.ErrTokenNotFound) {
			t.Errorf("Token(missing) = %v, want ErrTokenNotFound", err)
		}
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
}

func TestMetadataUpdates(t *testing.T) {
	ctx := context.Background()
	s := testStore(t)

	err := s.Update(ctx, func(tx *Tx) error {
		if err := tx.InsertToken(ctx, mintToken("0", "alice.testnet")); err != nil {
			return err
		}
		if err := tx.SetExtra(ctx, "0", "dc0013"); err != nil {
			return err
		}
		if err := tx.SetMedia(ctx, "0", "bafkcid"); err != nil {
			return err
		}
		return tx.SetOwner(ctx, "0", "bob.testnet")
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}

	err = s.View(ctx, func(tx *Tx) error {
		tok, err := tx.Token(ctx, "0")
		if err != nil {
			return err
		}
		if nft.Value(tok.Metadata.Extra) != "dc0013" || nft.Value(tok.Metadata.Media) != "bafkcid" {
			t.Errorf("metadata = %+v", tok.Metadata)
		}
		if nft.Value(tok.Metadata.Title) != "kart 0" {
			t.Errorf("title lost: %+v", tok.Metadata)
		}
		if owner, _ := tx.OwnerOf(ctx, "0"); owner != "bob.testnet" {
			t.Errorf("OwnerOf = %q", owner)
		}
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}

	err = s.Update(ctx, func(tx *Tx) error { return tx.SetExtra(ctx, "nope", "x") })
	if !errors.Is(err, kart.ErrTokenNotFound) {
		t.Errorf("SetExtra(missing) = %v, want ErrTokenNotFound", err)
	}
}

func TestUpdateRollsBackOnError(t *testing.T) {
	ctx := context.Background()
	s := testStore(t)
	boom := errors.New("boom")

	err := s.Update(ctx, func(tx *Tx) error {
		if err := tx.InsertToken(ctx, mintToken("0", "alice.testnet")); err != nil {
			return err
		}
		if err := tx.AddSignerKey(ctx, "k1"); err != nil {
			return err
		}
		if err := tx.SaveRandomState(ctx, engine.State{Buffer: make([]byte, 32), Cursor: 3, LastBlock: 9}); err != nil {
			return err
		}
		if err := tx.PutLastBattle(ctx, "alice.testnet", battle.Record{HomeTokenID: "0"}); err != nil {
			return err
		}
		if _, err := tx.AppendEvent(ctx, "call-1", "EVENT_JSON:{}"); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("Update = %v, want boom", err)
	}

	err = s.View(ctx, func(tx *Tx) error {
		if ok, _ := tx.TokenExists(ctx, "0"); ok {
			t.Error("token survived rollback")
		}
		if ok, _ := tx.HasSignerKey(ctx, "k1"); ok {
			t.Error("signer key survived rollback")
		}
		if st, _ := tx.RandomState(ctx); st.Cursor != 0 || st.LastBlock != 0 {
			t.Errorf("random state survived rollback: %+v", st)
		}
		if _, ok, _ := tx.LastBattle(ctx, "alice.testnet"); ok {
			t.Error("last battle survived rollback")
		}
		if evs, _ := tx.Events(ctx, 0, 0); len(evs) != 0 {
			t.Errorf("events survived rollback: %v", evs)
		}
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
}

func TestSignerKeys(t *testing.T) {
	ctx := context.Background()
	s := testStore(t)

	err := s.Update(ctx, func(tx *Tx) error {
		for _, k := range []string{"b", "a", "b"} {
			if err := tx.AddSignerKey(ctx, k); err != nil {
				return err
			}
		}
		return tx.RemoveSignerKey(ctx, "zzz")
	})
	if err != nil {
		t.Fatal(err)
	}
	s.View(ctx, func(tx *Tx) error {
		keys, err := tx.SignerKeys(ctx)
		if err != nil {
			t.Fatal(err)
		}
		if len(keys) != 2 || keys[0] != "a" || keys[1] != "b" {
			t.Errorf("SignerKeys = %v, want [a b]", keys)
		}
		return nil
	})
}

func TestRandomStateRoundTrip(t *testing.T) {
	ctx := context.Background()
	s := testStore(t)

	buf := make([]byte, 32)
	for i := range buf {
		buf[i] = byte(255 - i)
	}
	want := engine.State{Buffer: buf, Cursor: 7, LastBlock: 1 << 40}
	if err := s.Update(ctx, func(tx *Tx) error { return tx.SaveRandomState(ctx, want) }); err != nil {
		t.Fatal(err)
	}
	s.View(ctx, func(tx *Tx) error {
		got, err := tx.RandomState(ctx)
		if err != nil {
			t.Fatal(err)
		}
		if string(got.Buffer) != string(want.Buffer) || got.Cursor != want.Cursor || got.LastBlock != want.LastBlock {
			t.Errorf("RandomState = %+v, want %+v", got, want)
		}
		return nil
	})
}

func TestLastBattleOverwrite(t *testing.T) {
	ctx := context.Background()
	s := testStore(t)

	for _, prize := range []string{"3", "0"} {
		rec := battle.Record{HomeTokenID: "0", AwayTokenID: "1", Battle: 42, Prize: prize}
		if err := s.Update(ctx, func(tx *Tx) error { return tx.PutLastBattle(ctx, "alice.testnet", rec) }); err != nil {
			t.Fatal(err)
		}
	}
	s.View(ctx, func(tx *Tx) error {
		rec, ok, err := tx.LastBattle(ctx, "alice.testnet")
		if err != nil || !ok {
			t.Fatalf("LastBattle = %v, %v", ok, err)
		}
		if rec.Prize != "0" || rec.Battle != 42 {
			t.Errorf("LastBattle = %+v, want latest record", rec)
		}
		if _, ok, _ := tx.LastBattle(ctx, "bob.testnet"); ok {
			t.Error("bob has a last battle")
		}
		return nil
	})
}

func TestJournal(t *testing.T) {
	ctx := context.Background()
	s := testStore(t)

	for i, m := range []string{"mint", "battle"} {
		e := JournalEntry{CallID: m + "-id", Method: m, Env: []byte(`{}`), Args: []byte(`{"i":1}`), Result: []byte(`null`)}
		err := s.Update(ctx, func(tx *Tx) error {
			got, err := tx.AppendJournal(ctx, e)
			if err != nil {
				return err
			}
			if got.Seq != int64(i+1) {
				t.Errorf("seq = %d, want %d", got.Seq, i+1)
			}
			return nil
		})
		if err != nil {
			t.Fatal(err)
		}
	}
	s.View(ctx, func(tx *Tx) error {
		entries, err := tx.Journal(ctx, 1, 0)
		if err != nil {
			t.Fatal(err)
		}
		if len(entries) != 1 || entries[0].Method != "battle" || string(entries[0].Args) != `{"i":1}` {
			t.Errorf("Journal(after 1) = %+v", entries)
		}
		return nil
	})
}
