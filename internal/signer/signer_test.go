package signer

import (
	"context"
	"errors"
	"path/filepath"
	"sort"
	"testing"

	"github.com/zalando/go-keyring"

	"github.com/MJE43/nearkarts-go/internal/kart"
)

const (
	testCID    = "bafkreic6ngsuiw43wzwrp6ocvd5zpddyac55ll6pbkhuqlwo7zft2g6bcm"
	testSig    = "43e2e88d7286e4aa26450f5167fb8c8718817832313938c532351d261e711d13926eb1ad847d3e7a81461bd7b0ee7da702fbcd45e1bad025c7b1378e66f6030d"
	testPubKey = "c58b29b2a183a22fca6e6503e30d61a0ac3e36dbcfb946eb59fbb9d76876a462"
)

func TestVerify(t *testing.T) {
	tests := []struct {
		name    string
		message string
		sig     string
		pub     string
		want    bool
		wantErr error
	}{
		{"known good", testCID, testSig, testPubKey, true, nil},
		{"other message", testCID + "x", testSig, testPubKey, false, nil},
		{"flipped signature byte", testCID, "53" + testSig[2:], testPubKey, false, nil},
		{"signature not hex", testCID, "zz" + testSig[2:], testPubKey, false, kart.ErrSignatureMalformed},
		{"short signature", testCID, testSig[:126], testPubKey, false, kart.ErrSignatureMalformed},
		{"key not hex", testCID, testSig, "g" + testPubKey[1:], false, kart.ErrSignatureMalformed},
		{"short key", testCID, testSig, testPubKey[:62], false, kart.ErrSignatureMalformed},
		{"empty key", testCID, testSig, "", false, kart.ErrSignatureMalformed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Verify(tt.message, tt.sig, tt.pub)
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("Verify() error = %v, want %v", err, tt.wantErr)
			}
			if got != tt.want {
				t.Errorf("Verify() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestAuthorize(t *testing.T) {
	if err := Authorize(testCID, testSig, testPubKey); err != nil {
		t.Errorf("Authorize(valid) = %v", err)
	}
	if err := Authorize("other", testSig, testPubKey); !errors.Is(err, kart.ErrSignatureVerification) {
		t.Errorf("Authorize(mismatch) = %v, want ErrSignatureVerification", err)
	}
}

func TestSignRoundTrip(t *testing.T) {
	priv, err := ParsePrivateKey("9d61b19deffd5a60ba844af492ec2cc44449c5697b326919703bac031cae7f60")
	if err != nil {
		t.Fatalf("ParsePrivateKey: %v", err)
	}
	sig := Sign(priv, testCID)
	ok, err := Verify(testCID, sig, PublicKeyHex(priv))
	if err != nil || !ok {
		t.Errorf("Verify(Sign()) = %v, %v", ok, err)
	}
	if PublicKeyHex(priv) != "d75a980182b10ab7d54bfed3c964073a0ee172f3daa62325af021a68f707511a" {
		t.Errorf("unexpected public key %s", PublicKeyHex(priv))
	}

	if _, err := ParsePrivateKey("abcd"); err == nil {
		t.Error("ParsePrivateKey accepted a 2 byte key")
	}
}

func TestIsAdmin(t *testing.T) {
	tests := []struct {
		predecessor string
		contract    string
		want        bool
	}{
		{"nearkarts.testnet", "nearkarts.testnet", true},
		{"nearkarts.testnet", "nft.nearkarts.testnet", true},
		{"muhindogalien.testnet", "near_karts.muhindogalien.testnet", true},
		{"alice.testnet", "nft.nearkarts.testnet", false},
		{"testnet", "nft.testnet", false},
		{"nft.nearkarts.testnet", "nearkarts.testnet", false},
		{"", "nearkarts.testnet", false},
	}
	for _, tt := range tests {
		if got := IsAdmin(tt.predecessor, tt.contract); got != tt.want {
			t.Errorf("IsAdmin(%q, %q) = %v, want %v", tt.predecessor, tt.contract, got, tt.want)
		}
	}
}

type memKeys map[string]struct{}

func (m memKeys) HasSignerKey(_ context.Context, key string) (bool, error) {
	_, ok := m[key]
	return ok, nil
}

func (m memKeys) AddSignerKey(_ context.Context, key string) error {
	m[key] = struct{}{}
	return nil
}

func (m memKeys) RemoveSignerKey(_ context.Context, key string) error {
	delete(m, key)
	return nil
}

func (m memKeys) SignerKeys(context.Context) ([]string, error) {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	sort.Strings(out)
	return out, nil
}

func TestRegistry(t *testing.T) {
	ctx := context.Background()
	reg := NewRegistry(memKeys{}, "nft.nearkarts.testnet")

	if err := reg.Add(ctx, "bob.testnet", testPubKey); !errors.Is(err, kart.ErrNotAdmin) {
		t.Fatalf("Add by non admin = %v, want ErrNotAdmin", err)
	}
	if err := reg.Approve(ctx, testCID, testSig, testPubKey); !errors.Is(err, kart.ErrSignerNotRegistered) {
		t.Fatalf("Approve before add = %v, want ErrSignerNotRegistered", err)
	}

	for i := 0; i < 2; i++ {
		if err := reg.Add(ctx, "nearkarts.testnet", testPubKey); err != nil {
			t.Fatalf("Add #%d: %v", i, err)
		}
	}
	keys, _ := reg.Keys(ctx)
	if len(keys) != 1 {
		t.Errorf("Keys() = %v, want one key", keys)
	}
	if err := reg.Approve(ctx, testCID, testSig, testPubKey); err != nil {
		t.Errorf("Approve = %v", err)
	}
	if err := reg.Approve(ctx, "other", testSig, testPubKey); !errors.Is(err, kart.ErrSignatureVerification) {
		t.Errorf("Approve(other) = %v, want ErrSignatureVerification", err)
	}

	if err := reg.Remove(ctx, "bob.testnet", testPubKey); !errors.Is(err, kart.ErrNotAdmin) {
		t.Errorf("Remove by non admin = %v", err)
	}
	for i := 0; i < 2; i++ {
		if err := reg.Remove(ctx, "nearkarts.testnet", testPubKey); err != nil {
			t.Fatalf("Remove #%d: %v", i, err)
		}
	}
	if ok, _ := reg.Contains(ctx, testPubKey); ok {
		t.Error("key still registered after Remove")
	}
}

func TestKeyStoreKeyring(t *testing.T) {
	keyring.MockInit()
	ks := NewKeyStore("nearkarts-test", "")

	priv, err := ks.Generate("authority")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	got, err := ks.Get("authority")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !priv.Equal(got) {
		t.Error("loaded key differs from generated key")
	}
	if err := ks.Delete("authority"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := ks.Get("authority"); err == nil {
		t.Error("Get after Delete succeeded")
	}
}

func TestKeyStoreFallback(t *testing.T) {
	keyring.MockInitWithError(errors.New("dbus: session bus is not available"))
	defer keyring.MockInit()

	ks := NewKeyStore("nearkarts-test", filepath.Join(t.TempDir(), "keys.json"))
	priv, err := ks.Generate("authority")
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	got, err := ks.Get("authority")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if !priv.Equal(got) {
		t.Error("fallback key differs from generated key")
	}
	if err := ks.Delete("authority"); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := ks.Get("authority"); !errors.Is(err, ErrKeyNotFound) {
		t.Errorf("Get after Delete = %v, want ErrKeyNotFound", err)
	}
}
