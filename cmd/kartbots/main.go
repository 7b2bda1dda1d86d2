package main

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"encoding/json"
	"flag"
	"log"
	"os"
	"os/signal"
	"time"

	"github.com/MJE43/nearkarts-go/internal/bots"
	"github.com/MJE43/nearkarts-go/internal/config"
	"github.com/MJE43/nearkarts-go/internal/contract"
	"github.com/MJE43/nearkarts-go/internal/signer"
	"github.com/MJE43/nearkarts-go/internal/store"
)

func main() {
	rosterPath := flag.String("roster", "bots.yaml", "bot roster file")
	keyName := flag.String("key", "", "signing key name (overrides the roster's signer)")
	dryRun := flag.Bool("dry-run", false, "run the design scripts without minting")
	flag.Parse()

	logger := log.New(os.Stdout, "[BOTS] ", log.LstdFlags)

	cfg, err := config.Load()
	if err != nil {
		logger.Fatalf("config: %v", err)
	}
	roster, err := bots.LoadRoster(*rosterPath)
	if err != nil {
		logger.Fatalf("roster: %v", err)
	}
	if *keyName != "" {
		roster.Signer = *keyName
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	if *dryRun {
		results, err := bots.NewRunner(nil, nil, nil, logger).Design(ctx, roster)
		if err != nil {
			logger.Fatalf("design: %v", err)
		}
		printResults(results)
		return
	}

	priv, err := signer.NewKeyStore(cfg.KeyringService, cfg.KeyringFallback).Get(roster.Signer)
	if err != nil {
		logger.Fatalf("signing key %q: %v", roster.Signer, err)
	}

	st, err := store.Open(cfg.DBPath)
	if err != nil {
		logger.Fatalf("open store: %v", err)
	}
	defer st.Close()

	k := contract.New(st, contract.Options{
		ContractAccount: cfg.ContractAccount,
		MinDeposit:      cfg.MinDeposit,
	})
	results, err := bots.NewRunner(k, priv, blockClock(cfg), logger).Run(ctx, roster)
	printResults(results)
	if err != nil {
		logger.Printf("run: %v", err)
		st.Close()
		os.Exit(1)
	}
}

// blockClock numbers calls by wall clock seconds and derives each seed from
// the block index, paying the minimum deposit.
func blockClock(cfg config.Config) bots.EnvFunc {
	var last uint64
	return func(caller string) contract.Env {
		block := uint64(time.Now().Unix())
		if block <= last {
			block = last + 1
		}
		last = block
		var b [8]byte
		binary.BigEndian.PutUint64(b[:], block)
		seed := sha256.Sum256(b[:])
		return contract.Env{
			Predecessor:     caller,
			AttachedDeposit: cfg.MinDeposit,
			BlockIndex:      block,
			RandomSeed:      seed[:],
		}
	}
}

func printResults(results []bots.Result) {
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(results)
}
