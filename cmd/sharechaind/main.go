// Command sharechaind wires a Config, the subsystem loggers, a
// ChainStore, and a Coordinator into a running share-chain node.
// Mirrors the teacher's btcMain: flag-parsed config path, log rotator
// initialized before anything else logs (it is never closed
// explicitly), interrupt-driven shutdown.
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/p2pool-go/sharechain/chainio/chainiotest"
	"github.com/p2pool-go/sharechain/config"
	"github.com/p2pool-go/sharechain/coordinator"
	"github.com/p2pool-go/sharechain/internal/log"
	"github.com/p2pool-go/sharechain/params"
	"github.com/p2pool-go/sharechain/persist"
	"github.com/p2pool-go/sharechain/sharechain"
)

func main() {
	var cfgPath string
	flag.StringVar(&cfgPath, "config", "", "config file path (optional; defaults to sharechaind.yml next to the binary or in the working directory)")
	flag.StringVar(&cfgPath, "c", "", "shorthand for -config")
	flag.Parse()

	if err := run(cfgPath); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func run(cfgPath string) error {
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	if err := log.InitRotator(cfg.LogFilePath()); err != nil {
		return fmt.Errorf("init log rotator: %w", err)
	}
	log.SetLevels(cfg.Log.Level)
	log.Cfg.Infof("config loaded from %s", cfgPath)

	netParams, ok := params.ByName(cfg.Network)
	if !ok {
		return fmt.Errorf("unknown network %q", cfg.Network)
	}

	chain := sharechain.NewChainStore()

	// chainiotest's share constructor stands in for a production
	// block/share codec, which is supplied by the embedding
	// application (spec.md §6 external collaborators) and is out of
	// scope for this module on its own.
	shareConstructor := chainiotest.ShareConstructor{}

	persister, err := persist.New(cfg.DataDir, shareConstructor)
	if err != nil {
		return fmt.Errorf("init persister: %w", err)
	}

	coord := coordinator.New(coordinator.Config{
		Magic:            netParams.Magic,
		ListenAddr:       cfg.ListenAddr,
		SubVersion:       cfg.SubVersion,
		Proxy:            proxyAddr(cfg),
		ShareConstructor: shareConstructor,
		Persister:        persister,
	}, chain)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go func() {
		sig := make(chan os.Signal, 1)
		signal.Notify(sig, os.Interrupt, syscall.SIGTERM)
		<-sig
		log.Coord.Infof("shutdown signal received")
		cancel()
	}()

	seeds := cfg.Seeds
	if len(seeds) == 0 {
		seeds = netParams.DefaultSeeds
	}
	coord.InitPeers(seeds)

	err = coord.Run(ctx)
	log.Coord.Infof("shutdown complete")
	return err
}

func proxyAddr(cfg *config.Config) string {
	if !cfg.Proxy.Enable {
		return ""
	}
	return cfg.Proxy.Address
}
