package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"

	"github.com/MJE43/nearkarts-go/internal/config"
	"github.com/MJE43/nearkarts-go/internal/contract"
	"github.com/MJE43/nearkarts-go/internal/journal"
	"github.com/MJE43/nearkarts-go/internal/store"
)

func main() {
	if len(os.Args) >= 2 {
		switch os.Args[1] {
		case "export":
			exportCmd(os.Args[2:])
			return
		case "verify":
			verifyCmd(os.Args[2:])
			return
		}
	}
	fmt.Fprintln(os.Stderr, "usage: kartreplay export|verify [flags]")
	os.Exit(2)
}

func loadConfig() config.Config {
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}
	return cfg
}

func exportCmd(args []string) {
	cfg := loadConfig()
	fs := flag.NewFlagSet("export", flag.ExitOnError)
	dbPath := fs.String("db", cfg.DBPath, "database to export from")
	outDir := fs.String("out", cfg.JournalDir, "output directory")
	_ = fs.Parse(args)

	st, err := store.Open(*dbPath)
	if err != nil {
		fmt.Fprintln(os.Stderr, "open:", err)
		os.Exit(1)
	}
	defer st.Close()

	k := contract.New(st, contract.Options{ContractAccount: cfg.ContractAccount, Logger: contract.DiscardLogger()})
	path, n, err := journal.ExportFile(context.Background(), k, *outDir)
	if err != nil {
		fmt.Fprintln(os.Stderr, "export:", err)
		os.Exit(1)
	}
	fmt.Printf("wrote %d calls to %s\n", n, path)
}

// verifyCmd replays a journal file against an empty store and reports every
// call whose result differs from the recording.
func verifyCmd(args []string) {
	cfg := loadConfig()
	fs := flag.NewFlagSet("verify", flag.ExitOnError)
	in := fs.String("in", "", "journal file (.jsonl.zst)")
	dbPath := fs.String("db", "", "replay database (default: temporary)")
	_ = fs.Parse(args)

	if *in == "" {
		fmt.Fprintln(os.Stderr, "missing -in")
		os.Exit(2)
	}

	target := *dbPath
	cleanup := func() {}
	if target == "" {
		dir, err := os.MkdirTemp("", "kartreplay-")
		if err != nil {
			fmt.Fprintln(os.Stderr, "tempdir:", err)
			os.Exit(1)
		}
		cleanup = func() { os.RemoveAll(dir) }
		target = filepath.Join(dir, "replay.db")
	}

	err := verify(cfg, *in, target)
	cleanup()
	if err != nil {
		fmt.Fprintln(os.Stderr, "verify:", err)
		os.Exit(1)
	}
}

func verify(cfg config.Config, in, target string) error {
	f, err := os.Open(in)
	if err != nil {
		return err
	}
	defer f.Close()

	st, err := store.Open(target)
	if err != nil {
		return err
	}
	defer st.Close()

	k := contract.New(st, contract.Options{
		ContractAccount: cfg.ContractAccount,
		MinDeposit:      cfg.MinDeposit,
		Logger:          contract.DiscardLogger(),
	})
	rep, err := journal.Replay(context.Background(), k, f)
	if err != nil {
		return err
	}

	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	if err := enc.Encode(rep); err != nil {
		return err
	}
	if !rep.OK() {
		return fmt.Errorf("%d of %d calls diverged", len(rep.Mismatches), rep.Calls)
	}
	return nil
}
