// Package journal exports the call journal as zstd compressed JSON lines and
// replays it against a fresh contract to check that results reproduce.
package journal

import (
	"bufio"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"reflect"
	"time"

	"github.com/klauspost/compress/zstd"

	"github.com/MJE43/nearkarts-go/internal/contract"
	"github.com/MJE43/nearkarts-go/internal/store"
)

const pageSize = 500

// Source pages through recorded calls.
type Source interface {
	Journal(ctx context.Context, afterSeq int64, limit int) ([]store.JournalEntry, error)
}

// Dispatcher executes a recorded call by method name.
type Dispatcher interface {
	Dispatch(ctx context.Context, method string, env contract.Env, args json.RawMessage) (any, error)
}

// Export writes every journal entry after afterSeq to w and returns the
// number written.
func Export(ctx context.Context, src Source, afterSeq int64, w io.Writer) (int, error) {
	enc, err := zstd.NewWriter(w, zstd.WithEncoderLevel(zstd.SpeedDefault))
	if err != nil {
		return 0, fmt.Errorf("zstd writer: %w", err)
	}
	bw := bufio.NewWriterSize(enc, 128*1024)

	n := 0
	for {
		entries, err := src.Journal(ctx, afterSeq, pageSize)
		if err != nil {
			enc.Close()
			return n, err
		}
		for _, e := range entries {
			b, err := json.Marshal(e)
			if err != nil {
				enc.Close()
				return n, fmt.Errorf("encode entry %d: %w", e.Seq, err)
			}
			b = append(b, '\n')
			if _, err := bw.Write(b); err != nil {
				enc.Close()
				return n, err
			}
			afterSeq = e.Seq
			n++
		}
		if len(entries) < pageSize {
			break
		}
	}
	if err := bw.Flush(); err != nil {
		enc.Close()
		return n, err
	}
	return n, enc.Close()
}

// ExportFile writes the whole journal to a timestamped file under dir.
func ExportFile(ctx context.Context, src Source, dir string) (string, int, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", 0, err
	}
	path := filepath.Join(dir, fmt.Sprintf("journal-%s.jsonl.zst", time.Now().UTC().Format("20060102-150405")))
	f, err := os.Create(path)
	if err != nil {
		return "", 0, err
	}
	n, err := Export(ctx, src, 0, f)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return "", n, err
	}
	return path, n, nil
}

// Read decodes entries from r and hands them to fn in order.
func Read(r io.Reader, fn func(store.JournalEntry) error) error {
	dec, err := zstd.NewReader(r)
	if err != nil {
		return fmt.Errorf("zstd reader: %w", err)
	}
	defer dec.Close()

	sc := bufio.NewScanner(dec)
	sc.Buffer(make([]byte, 0, 64*1024), 8*1024*1024)
	line := 0
	for sc.Scan() {
		line++
		if len(sc.Bytes()) == 0 {
			continue
		}
		var e store.JournalEntry
		if err := json.Unmarshal(sc.Bytes(), &e); err != nil {
			return fmt.Errorf("line %d: %w", line, err)
		}
		if err := fn(e); err != nil {
			return err
		}
	}
	return sc.Err()
}

// Mismatch is a replayed call whose outcome differs from the recording.
type Mismatch struct {
	Seq    int64           `json:"seq"`
	Method string          `json:"method"`
	Want   json.RawMessage `json:"want"`
	Got    json.RawMessage `json:"got,omitempty"`
	Error  string          `json:"error,omitempty"`
}

// Report summarizes a replay.
type Report struct {
	Calls      int        `json:"calls"`
	Mismatches []Mismatch `json:"mismatches"`
}

// OK reports whether every call reproduced.
func (r Report) OK() bool {
	return len(r.Mismatches) == 0
}

// Replay re-executes the journal in r against target. A call that fails or
// returns a different result is recorded as a mismatch and replay goes on.
func Replay(ctx context.Context, target Dispatcher, r io.Reader) (Report, error) {
	rep := Report{Mismatches: []Mismatch{}}
	err := Read(r, func(e store.JournalEntry) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		var env contract.Env
		if err := json.Unmarshal(e.Env, &env); err != nil {
			return fmt.Errorf("seq %d env: %w", e.Seq, err)
		}
		rep.Calls++

		got, err := target.Dispatch(ctx, e.Method, env, e.Args)
		if err != nil {
			rep.Mismatches = append(rep.Mismatches, Mismatch{Seq: e.Seq, Method: e.Method, Want: e.Result, Error: err.Error()})
			return nil
		}
		raw, err := json.Marshal(got)
		if err != nil {
			return fmt.Errorf("seq %d result: %w", e.Seq, err)
		}
		same, err := sameJSON(e.Result, raw)
		if err != nil {
			return fmt.Errorf("seq %d compare: %w", e.Seq, err)
		}
		if !same {
			rep.Mismatches = append(rep.Mismatches, Mismatch{Seq: e.Seq, Method: e.Method, Want: e.Result, Got: raw})
		}
		return nil
	})
	return rep, err
}

func sameJSON(a, b []byte) (bool, error) {
	var va, vb any
	if err := json.Unmarshal(a, &va); err != nil {
		return false, err
	}
	if err := json.Unmarshal(b, &vb); err != nil {
		return false, err
	}
	return reflect.DeepEqual(va, vb), nil
}
