package engine

import (
	"crypto/sha256"
	"encoding/binary"
)

const (
	bufferSize     = sha256.Size
	wordsPerBuffer = bufferSize / 4
)

// Beacon is the host's block scoped randomness.
type Beacon interface {
	BlockIndex() uint64
	RandomSeed() []byte
}

// State is the persisted generator state. Buffer is empty until the first
// draw.
type State struct {
	Buffer    []byte `json:"buffer"`
	Cursor    uint8  `json:"cursor"`
	LastBlock uint64 `json:"last_block"`
}

// RandomEngine produces 32-bit words from a sha256 chained buffer. A fresh
// beacon is hashed at most once per block; every eighth draw inside a block
// rehashes the previous buffer instead.
type RandomEngine struct {
	beacon Beacon
	state  State
	draws  int
}

// NewRandomEngine resumes a generator from a persisted state.
func NewRandomEngine(beacon Beacon, state State) *RandomEngine {
	return &RandomEngine{
		beacon: beacon,
		state:  state,
	}
}

// Next returns the next word.
func (r *RandomEngine) Next() uint32 {
	if r.state.Cursor == 0 {
		r.reseed()
	}

	offset := int(r.state.Cursor) * 4
	word := binary.BigEndian.Uint32(r.state.Buffer[offset : offset+4])

	r.state.Cursor = (r.state.Cursor + 1) % wordsPerBuffer
	r.draws++
	return word
}

func (r *RandomEngine) reseed() {
	var sum [bufferSize]byte
	if block := r.beacon.BlockIndex(); block != r.state.LastBlock {
		sum = sha256.Sum256(r.beacon.RandomSeed())
		r.state.LastBlock = block
	} else {
		sum = sha256.Sum256(r.state.Buffer)
	}
	r.state.Buffer = sum[:]
}

// State returns a copy of the current state for persistence.
func (r *RandomEngine) State() State {
	out := r.state
	out.Buffer = append([]byte(nil), r.state.Buffer...)
	return out
}

// Draws reports how many words were taken since construction. Callers use it
// to skip persisting an untouched state.
func (r *RandomEngine) Draws() int {
	return r.draws
}

// FixedBeacon is a Beacon with constant values, used by hosts that receive
// the block context with each call.
type FixedBeacon struct {
	Block uint64
	Seed  []byte
}

func (b FixedBeacon) BlockIndex() uint64 { return b.Block }
func (b FixedBeacon) RandomSeed() []byte { return b.Seed }
