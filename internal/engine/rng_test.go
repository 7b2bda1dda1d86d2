package engine

import (
	"bytes"
	"crypto/sha256"
	"testing"
)

func testSeed() []byte {
	seed := make([]byte, 32)
	for i := range seed {
		seed[i] = byte(i)
	}
	return seed
}

func TestNextSequence(t *testing.T) {
	want := []uint32{
		1661848873, 1724134246, 2433897544, 3149028175,
		4094862492, 1932374728, 2881599576, 467079389,
		791182157, 1028198646,
	}

	r := NewRandomEngine(FixedBeacon{Block: 1, Seed: testSeed()}, State{})
	for i, w := range want {
		if got := r.Next(); got != w {
			t.Errorf("draw %d = %d, want %d", i, got, w)
		}
	}
	if r.Draws() != len(want) {
		t.Errorf("Draws() = %d, want %d", r.Draws(), len(want))
	}
}

func TestFirstDrawInGenesisBlockHashesEmptyBuffer(t *testing.T) {
	r := NewRandomEngine(FixedBeacon{Block: 0, Seed: testSeed()}, State{})
	if got := r.Next(); got != 0xe3b0c442 {
		t.Errorf("Next() = %#x, want sha256(\"\") prefix 0xe3b0c442", got)
	}
}

func TestWrapRehashesWithinBlock(t *testing.T) {
	r := NewRandomEngine(FixedBeacon{Block: 7, Seed: testSeed()}, State{})
	r.Next()
	first := r.State().Buffer
	for i := 0; i < 7; i++ {
		r.Next()
	}
	if r.State().Cursor != 0 {
		t.Fatalf("cursor = %d after 8 draws, want 0", r.State().Cursor)
	}
	r.Next()
	sum := sha256.Sum256(first)
	if !bytes.Equal(r.State().Buffer, sum[:]) {
		t.Errorf("buffer after wrap is not sha256 of previous buffer")
	}
}

func TestNewBlockReseedsOnlyAtCursorZero(t *testing.T) {
	r := NewRandomEngine(FixedBeacon{Block: 1, Seed: testSeed()}, State{})
	r.Next()
	r.Next()
	st := r.State()

	other := []byte("another block seed")
	resumed := NewRandomEngine(FixedBeacon{Block: 2, Seed: other}, st)
	for i := 0; i < 6; i++ {
		resumed.Next()
	}
	if !bytes.Equal(resumed.State().Buffer, st.Buffer) {
		t.Fatal("buffer changed before cursor wrapped")
	}
	resumed.Next()
	sum := sha256.Sum256(other)
	if !bytes.Equal(resumed.State().Buffer, sum[:]) {
		t.Errorf("new block did not reseed from beacon")
	}
	if resumed.State().LastBlock != 2 {
		t.Errorf("LastBlock = %d, want 2", resumed.State().LastBlock)
	}
}

func TestResumeMatchesContinuousRun(t *testing.T) {
	beacon := FixedBeacon{Block: 3, Seed: testSeed()}

	continuous := NewRandomEngine(beacon, State{})
	var want []uint32
	for i := 0; i < 20; i++ {
		want = append(want, continuous.Next())
	}

	var got []uint32
	st := State{}
	for len(got) < 20 {
		r := NewRandomEngine(beacon, st)
		got = append(got, r.Next(), r.Next(), r.Next())
		st = r.State()
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("draw %d: resumed %d, continuous %d", i, got[i], want[i])
		}
	}
}

func TestConsecutiveDrawsDiffer(t *testing.T) {
	r := NewRandomEngine(FixedBeacon{Block: 1, Seed: testSeed()}, State{})
	for i := 0; i < 16; i++ {
		a, b := r.Next(), r.Next()
		if a == b {
			t.Errorf("round %d: consecutive draws equal (%d)", i, a)
		}
	}
}

func TestStateIsCopied(t *testing.T) {
	r := NewRandomEngine(FixedBeacon{Block: 1, Seed: testSeed()}, State{})
	r.Next()
	st := r.State()
	st.Buffer[0] ^= 0xff
	if bytes.Equal(st.Buffer, r.State().Buffer) {
		t.Error("State() shares its buffer with the engine")
	}
}
