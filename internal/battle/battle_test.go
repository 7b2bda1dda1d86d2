package battle

import (
	"testing"

	"github.com/MJE43/nearkarts-go/internal/kart"
)

// script replays a fixed draw sequence.
type script struct {
	words []uint32
	pos   int
}

func draws(words ...uint32) *script {
	return &script{words: words}
}

func (s *script) Next() uint32 {
	w := s.words[s.pos]
	s.pos++
	return w
}

func (s *script) remaining() int {
	return len(s.words) - s.pos
}

func TestPickOpponent(t *testing.T) {
	ids := []string{"a", "b", "c"}
	tests := []struct {
		name  string
		home  string
		ids   []string
		words []uint32
		want  string
	}{
		{"only token fights itself", "a", []string{"a"}, nil, "a"},
		{"draw lands on other", "a", ids, []uint32{4}, "b"},
		{"draw lands on home moves on", "b", ids, []uint32{1}, "c"},
		{"wraps to first", "c", ids, []uint32{5}, "a"},
		{"two tokens", "x", []string{"x", "y"}, []uint32{0}, "y"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := draws(tt.words...)
			if got := PickOpponent(src, tt.home, tt.ids); got != tt.want {
				t.Errorf("PickOpponent() = %q, want %q", got, tt.want)
			}
			if src.remaining() != 0 {
				t.Errorf("%d draws left unused", src.remaining())
			}
		})
	}
}

func TestPickOpponentNeverSelf(t *testing.T) {
	ids := []string{"0", "1", "2", "3", "4"}
	for w := uint32(0); w < 50; w++ {
		for _, home := range ids {
			if got := PickOpponent(draws(w), home, ids); got == home {
				t.Fatalf("draw %d picked home %q", w, home)
			}
		}
	}
}

func TestRun(t *testing.T) {
	mint := kart.ForMint(kart.Config{})

	tests := []struct {
		name        string
		cfg         kart.Config
		words       []uint32
		wantWinner  uint8
		wantPrize   string
		wantExtra1  string
		wantLevel   uint32
		wantLocked  bool
		wantChanged bool
	}{
		{"loss", mint, []uint32{8}, 1, "0", "7", 1, true, false},
		{"win without prize", mint, []uint32{9, 12}, 0, "0", "7", 2, true, true},
		{"win with new prize", mint, []uint32{9, 1, 2}, 0, "3", "7,3", 2, true, true},
		{"win with duplicate prize", mint, []uint32{9, 1, 6}, 0, "0", "7", 2, true, true},
		{"prize into empty set", kart.Config{Level: 3, Locked: true}, []uint32{3, 2, 13}, 0, "7", "7", 4, true, true},
		{"level five unlocks", func() kart.Config { c := mint; c.Level = 4; return c }(), []uint32{1, 0}, 0, "0", "7", 5, false, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := draws(tt.words...)
			out := Run(src, "0", tt.cfg, []string{"0"})

			if out.Record.HomeTokenID != "0" || out.Record.AwayTokenID != "0" {
				t.Errorf("home/away = %q/%q", out.Record.HomeTokenID, out.Record.AwayTokenID)
			}
			if out.Record.Battle != tt.words[0] {
				t.Errorf("Battle = %d, want raw draw %d", out.Record.Battle, tt.words[0])
			}
			if out.Record.Winner != tt.wantWinner {
				t.Errorf("Winner = %d, want %d", out.Record.Winner, tt.wantWinner)
			}
			if out.Record.Prize != tt.wantPrize {
				t.Errorf("Prize = %q, want %q", out.Record.Prize, tt.wantPrize)
			}
			if out.Record.Extra != "" {
				t.Errorf("Extra = %q, want empty", out.Record.Extra)
			}
			if out.Config.Extra1 != tt.wantExtra1 {
				t.Errorf("Extra1 = %q, want %q", out.Config.Extra1, tt.wantExtra1)
			}
			if out.Config.Level != tt.wantLevel || out.Config.Locked != tt.wantLocked {
				t.Errorf("level/locked = %d/%v, want %d/%v", out.Config.Level, out.Config.Locked, tt.wantLevel, tt.wantLocked)
			}
			if out.Changed != tt.wantChanged {
				t.Errorf("Changed = %v, want %v", out.Changed, tt.wantChanged)
			}
			if src.remaining() != 0 {
				t.Errorf("%d draws left unused", src.remaining())
			}
		})
	}
}

func TestRunAccumulatesUnlocks(t *testing.T) {
	cfg := kart.ForMint(kart.Config{})
	prizes := []uint32{2, 0, 1, 2, 5}
	for _, p := range prizes {
		out := Run(draws(1, 1, p), "0", cfg, []string{"0"})
		cfg = out.Config
	}
	if cfg.Extra1 != "7,3,1,2,6" {
		t.Errorf("Extra1 = %q, want 7,3,1,2,6", cfg.Extra1)
	}
	if cfg.Level != 6 || cfg.Locked {
		t.Errorf("level/locked = %d/%v, want 6/false", cfg.Level, cfg.Locked)
	}
}

func TestRunDrawsOpponentFirst(t *testing.T) {
	out := Run(draws(0, 4), "b", kart.ForMint(kart.Config{}), []string{"a", "b"})
	if out.Record.AwayTokenID != "a" {
		t.Errorf("away = %q, want a", out.Record.AwayTokenID)
	}
	if out.Record.Battle != 4 || out.Record.Won() {
		t.Errorf("record = %+v, want loss with battle 4", out.Record)
	}
}
