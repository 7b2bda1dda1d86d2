package battle

import (
	"strconv"

	"github.com/MJE43/nearkarts-go/internal/kart"
)

// EventName tags battle log lines.
const EventName = "game_simple_battle"

// Source supplies random words.
type Source interface {
	Next() uint32
}

// Record is the result of one battle, as cached per account.
type Record struct {
	HomeTokenID string `json:"home_token_id"`
	AwayTokenID string `json:"away_token_id"`
	Winner      uint8  `json:"winner"`
	Battle      uint32 `json:"battle"`
	Prize       string `json:"prize"`
	Extra       string `json:"extra"`
}

// Won reports whether the home kart won.
func (r Record) Won() bool {
	return r.Winner == 0
}

// Log is the structured event emitted after a battle.
type Log struct {
	Event string `json:"event"`
	Data  Record `json:"data"`
}

// Outcome is a battle record plus the home kart's updated configuration.
type Outcome struct {
	Record  Record
	Config  kart.Config
	Changed bool
}

// PickOpponent selects an opponent from tokenIDs, which must be in ledger
// order. A lone token fights itself without consuming a draw. Landing on
// home moves to the next position instead of drawing again.
func PickOpponent(rng Source, home string, tokenIDs []string) string {
	n := uint32(len(tokenIDs))
	if n <= 1 {
		return home
	}
	idx := rng.Next() % n
	if tokenIDs[idx] == home {
		idx = (idx + 1) % n
	}
	return tokenIDs[idx]
}

// Run plays one battle for home. Draw order is fixed: opponent, outcome,
// then on a win prize eligibility and prize id.
func Run(rng Source, home string, cfg kart.Config, tokenIDs []string) Outcome {
	away := PickOpponent(rng, home, tokenIDs)

	battleRand := rng.Next()
	won := battleRand%4 != 0

	rec := Record{
		HomeTokenID: home,
		AwayTokenID: away,
		Winner:      1,
		Battle:      battleRand,
		Prize:       "0",
	}
	out := Outcome{Config: cfg}
	if !won {
		out.Record = rec
		return out
	}

	rec.Winner = 0
	if rng.Next()%4 != 0 {
		prize := strconv.FormatUint(uint64(rng.Next()%kart.NumDecals+1), 10)
		unlocks := kart.ParseUnlocks(out.Config.Extra1)
		if unlocks.Add(prize) {
			out.Config.Extra1 = unlocks.String()
			rec.Prize = prize
		}
	}
	out.Config.LevelUp()
	out.Changed = true
	out.Record = rec
	return out
}
