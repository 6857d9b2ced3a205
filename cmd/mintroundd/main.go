// Package main provides the entry point for the mint service daemon.
package main

import (
	"flag"
	"fmt"
	"log"
	"math/big"
	"os"

	"github.com/tentou-tech/mimboku-mint-go/pkg/accounts"
	"github.com/tentou-tech/mimboku-mint-go/pkg/allowlist"
	"github.com/tentou-tech/mimboku-mint-go/pkg/config"
	"github.com/tentou-tech/mimboku-mint-go/pkg/ledger"
	"github.com/tentou-tech/mimboku-mint-go/pkg/mintsig"
	"github.com/tentou-tech/mimboku-mint-go/pkg/relay"
	"github.com/tentou-tech/mimboku-mint-go/pkg/rounds"
	"github.com/tentou-tech/mimboku-mint-go/pkg/rpc"
	"github.com/tentou-tech/mimboku-mint-go/pkg/token"
)

// Version is set at build time via ldflags.
var Version = "dev"

func main() {
	var (
		configPath  = flag.String("config", "", "path to JSON config file")
		showVersion = flag.Bool("version", false, "print version and exit")
	)
	flag.Parse()

	if *showVersion {
		fmt.Printf("mintroundd version %s\n", Version)
		os.Exit(0)
	}

	cfg := config.Default()
	if *configPath != "" {
		loaded, err := config.LoadFromFile(*configPath)
		if err != nil {
			log.Fatalf("load config: %v", err)
		}
		cfg = loaded
	}

	if err := cfg.Validate(); err != nil {
		log.Fatalf("invalid config: %v", err)
	}

	server, err := assemble(cfg)
	if err != nil {
		log.Fatalf("assemble service: %v", err)
	}

	log.Printf("mintroundd %s listening on %s (chain %d)", Version, cfg.ServerAddr(), cfg.ChainID)
	log.Fatal(server.ListenAndServe(cfg.ServerAddr()))
}

// assemble wires the service components from configuration.
func assemble(cfg *config.Config) (*rpc.Server, error) {
	chainID := new(big.Int).SetUint64(cfg.ChainID)

	bank := ledger.New()
	collection := token.NewCollection(cfg.CollectionAddress, cfg.CollectionName, cfg.Symbol, cfg.TokenURI)
	access := rounds.NewAccessControl(cfg.DefaultAdmin, cfg.Operator)
	registry := rounds.NewStageRegistry()
	authorizer := mintsig.NewAuthorizer(chainID, cfg.ControllerAddress)

	controller := rounds.NewController(access, registry, allowlist.AddressVerifier{}, authorizer, bank)
	if err := controller.SetContracts(cfg.DefaultAdmin, collection, cfg.RelayAddress); err != nil {
		return nil, err
	}
	if err := controller.SetSigner(cfg.DefaultAdmin, cfg.SignerAddress); err != nil {
		return nil, err
	}
	if cfg.TestMode {
		if err := controller.EnableTestMode(cfg.DefaultAdmin, true); err != nil {
			return nil, err
		}
	}

	for _, stage := range cfg.Stages {
		if err := controller.SetStageMintInfo(cfg.Operator, stage); err != nil {
			return nil, fmt.Errorf("register stage %q: %w", stage.Stage, err)
		}
	}

	funded := cfg.FundedAccounts
	if len(funded) == 0 && cfg.Mnemonic != "" {
		derived, err := accounts.Generate(cfg.Mnemonic, 10)
		if err != nil {
			return nil, fmt.Errorf("derive accounts: %w", err)
		}
		for _, acc := range derived {
			funded = append(funded, acc.Address)
		}
	}
	for _, addr := range funded {
		if err := bank.Credit(addr, cfg.DefaultBalance); err != nil {
			return nil, err
		}
	}

	relayAuthorizer := mintsig.NewAuthorizer(chainID, cfg.RelayAddress)
	relayController := relay.New(registry, relayAuthorizer, bank, collection, cfg.SignerAddress)

	return rpc.NewServer(controller, relayController, bank, collection, cfg.ChainID), nil
}
