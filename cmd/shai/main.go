package main

import (
	"flag"
	"fmt"
	"net/http"
	"os"

	"github.com/blinklabs-io/adawallet/internal/api"
	"github.com/blinklabs-io/adawallet/internal/config"
	"github.com/blinklabs-io/adawallet/internal/indexer"
	"github.com/blinklabs-io/adawallet/internal/logging"
	"github.com/blinklabs-io/adawallet/internal/node"
	"github.com/blinklabs-io/adawallet/internal/storage"
	"github.com/blinklabs-io/adawallet/internal/wallet"
)

const (
	programName    = "shai"
	programVersion = "0.1.0"
)

var cmdlineFlags struct {
	configFile string
	version    bool
}

func main() {
	flag.StringVar(&cmdlineFlags.configFile, "config", "", "path to config file to load")
	flag.BoolVar(&cmdlineFlags.version, "version", false, "show version")
	flag.Parse()

	if cmdlineFlags.version {
		fmt.Printf("%s %s\n", programName, programVersion)
		os.Exit(0)
	}

	// Load config
	cfg, err := config.Load(cmdlineFlags.configFile)
	if err != nil {
		fmt.Printf("Failed to load config: %s\n", err)
		os.Exit(1)
	}

	// Configure logging
	logging.Configure()
	logger := logging.GetLogger()

	// Open storage
	if err := storage.GetStorage().Load(); err != nil {
		logger.Error("failed to load storage", "error", err)
		os.Exit(1)
	}

	// Derive the wallet from the configured mnemonic
	if err := wallet.Load(); err != nil {
		logger.Error("failed to load wallet", "error", err)
		os.Exit(1)
	}

	// Start debug listener
	if cfg.Debug.ListenPort > 0 {
		logger.Info(
			"starting debug listener",
			"address", cfg.Debug.ListenAddress,
			"port", cfg.Debug.ListenPort,
		)
		go func() {
			addr := fmt.Sprintf("%s:%d", cfg.Debug.ListenAddress, cfg.Debug.ListenPort)
			if err := http.ListenAndServe(addr, nil); err != nil {
				logger.Error("debug listener failed", "error", err)
				os.Exit(1)
			}
		}()
	}

	// Start chain indexer and node
	idx := indexer.New()
	if err := idx.Start(); err != nil {
		logger.Error("failed to start indexer", "error", err)
		os.Exit(1)
	}
	n := node.New(idx)
	if err := n.Start(); err != nil {
		logger.Error("failed to start node", "error", err)
		os.Exit(1)
	}

	// Serve the wallet HTTP API
	walletApi := api.NewWalletAPI(wallet.DefaultService())
	addr := fmt.Sprintf("%s:%d", cfg.ListenAddress, cfg.ListenPort)
	logger.Info("starting wallet API server", "address", addr)
	if err := walletApi.StartServer(addr); err != nil {
		logger.Error("wallet API server failed", "error", err)
		os.Exit(1)
	}
}
