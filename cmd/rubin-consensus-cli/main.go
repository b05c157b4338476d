// Command rubin-consensus-cli is a small read-only inspector for a
// rubin-node data directory: it opens the store directly (no running
// chain engine required) and prints block headers/bodies by hash or
// height, for debugging a node offline.
package main

import (
	"encoding/hex"
	"fmt"
	"os"
	"path/filepath"
	"strconv"

	"github.com/urfave/cli/v2"

	"github.com/sleepychain/node/store"
	"github.com/sleepychain/node/types"
)

func main() {
	app := &cli.App{
		Name:  "rubin-consensus-cli",
		Usage: "inspect a rubin-node data directory offline",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "datadir", Value: "./data", Usage: "node data directory"},
		},
		Commands: []*cli.Command{
			{
				Name:      "head",
				Usage:     "print the canonical tip (height, hash)",
				Action:    func(cctx *cli.Context) error { return cmdHead(cctx) },
			},
			{
				Name:      "block",
				Usage:     "print a block header and body by height or hash",
				ArgsUsage: "<height|hash>",
				Action:    func(cctx *cli.Context) error { return cmdBlock(cctx) },
			},
		},
	}
	if err := app.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func openStore(cctx *cli.Context) (*store.DB, error) {
	return store.Open(filepath.Join(cctx.String("datadir"), "chain.db"))
}

func cmdHead(cctx *cli.Context) error {
	st, err := openStore(cctx)
	if err != nil {
		return err
	}
	defer st.Close()

	hash, ok, err := st.GetCurrentHash()
	if err != nil {
		return err
	}
	if !ok {
		fmt.Println("no canonical tip recorded")
		return nil
	}
	rh, ok, err := st.GetHeader(hash)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("tip header %s not found", hash)
	}
	fmt.Printf("height=%d hash=%s verified=%v\n", rh.Header.Height, hash, rh.Verified)
	return nil
}

func cmdBlock(cctx *cli.Context) error {
	arg := cctx.Args().First()
	if arg == "" {
		return fmt.Errorf("usage: rubin-consensus-cli block <height|hash>")
	}
	st, err := openStore(cctx)
	if err != nil {
		return err
	}
	defer st.Close()

	hash, err := resolveHash(st, arg)
	if err != nil {
		return err
	}

	rh, ok, err := st.GetHeader(hash)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("block %s not found", hash)
	}
	body, ok, err := st.GetBody(hash)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("body for %s not found", hash)
	}

	fmt.Printf("hash=%s height=%d parent=%s timestamp=%d verified=%v\n",
		hash, rh.Header.Height, rh.Header.ParentHash, rh.Header.Timestamp, rh.Verified)
	fmt.Printf("transactions=%d\n", len(body.Transactions))
	for i, tx := range body.Transactions {
		fmt.Printf("  [%d] hash=%s timestamp=%d\n", i, tx.Hash, tx.Timestamp)
	}
	return nil
}

func resolveHash(st *store.DB, arg string) (types.Hash, error) {
	if height, err := strconv.ParseUint(arg, 10, 64); err == nil {
		hash, ok, err := st.GetBlockHashByNumber(height)
		if err != nil {
			return types.Hash{}, err
		}
		if !ok {
			return types.Hash{}, fmt.Errorf("no canonical block at height %d", height)
		}
		return hash, nil
	}
	raw, err := hex.DecodeString(arg)
	if err != nil {
		return types.Hash{}, fmt.Errorf("argument must be a height or hex hash: %w", err)
	}
	hash, ok := types.HashFromSlice(raw)
	if !ok {
		return types.Hash{}, fmt.Errorf("hash must be exactly 32 bytes, got %d", len(raw))
	}
	return hash, nil
}
