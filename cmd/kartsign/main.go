package main

import (
	"errors"
	"flag"
	"fmt"
	"os"

	"github.com/MJE43/nearkarts-go/internal/config"
	"github.com/MJE43/nearkarts-go/internal/signer"
)

const usage = `usage: kartsign <command> [flags]

commands:
  generate -name N            create a signing key and print its public key
  import   -name N -key HEX   store an existing 32 byte seed or 64 byte private key
  pubkey   -name N            print the public key
  sign     -name N -cid CID   print the hex signature over CID
  delete   -name N            remove the key
`

func main() {
	if len(os.Args) < 2 {
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}
	ks := signer.NewKeyStore(cfg.KeyringService, cfg.KeyringFallback)

	cmd, args := os.Args[1], os.Args[2:]
	fs := flag.NewFlagSet(cmd, flag.ExitOnError)
	name := fs.String("name", "default", "key name")
	cid := fs.String("cid", "", "content id to sign")
	key := fs.String("key", "", "hex private key or seed")
	_ = fs.Parse(args)

	if err := runCmd(ks, cmd, *name, *cid, *key); err != nil {
		fmt.Fprintln(os.Stderr, cmd+":", err)
		os.Exit(1)
	}
}

func runCmd(ks *signer.KeyStore, cmd, name, cid, key string) error {
	switch cmd {
	case "generate":
		priv, err := ks.Generate(name)
		if err != nil {
			return err
		}
		fmt.Println(signer.PublicKeyHex(priv))
	case "import":
		priv, err := signer.ParsePrivateKey(key)
		if err != nil {
			return err
		}
		if err := ks.Put(name, priv); err != nil {
			return err
		}
		fmt.Println(signer.PublicKeyHex(priv))
	case "pubkey":
		priv, err := ks.Get(name)
		if err != nil {
			return err
		}
		fmt.Println(signer.PublicKeyHex(priv))
	case "sign":
		if cid == "" {
			return errors.New("missing -cid")
		}
		priv, err := ks.Get(name)
		if err != nil {
			return err
		}
		fmt.Println(signer.Sign(priv, cid))
	case "delete":
		return ks.Delete(name)
	default:
		fmt.Fprint(os.Stderr, usage)
		os.Exit(2)
	}
	return nil
}
