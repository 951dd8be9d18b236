package main

import (
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/jessevdk/go-flags"
	"github.com/pkg/errors"
)

const (
	defaultDataDir  = "data"
	defaultLogLevel = "info"
)

type configFlags struct {
	DataDir  string `short:"b" long:"datadir" description:"Directory holding the UTXO store"`
	LogFile  string `long:"logfile" description:"File to write rotating logs to; stdout only when empty"`
	LogLevel string `short:"d" long:"loglevel" description:"Logging level {trace, debug, info, warn, error, critical}"`
	TestNet  bool   `long:"testnet" description:"Interpret descriptors and addresses for the test network"`
	Range    int64  `long:"range" description:"Derivation range for ranged descriptors" default:"1000"`

	// CommandAndParameters holds the positional command: "stats", or
	// "scan" followed by one or more output descriptors.
	CommandAndParameters []string
}

func (cfg *configFlags) netParams() *chaincfg.Params {
	if cfg.TestNet {
		return &chaincfg.TestNet3Params
	}
	return &chaincfg.MainNetParams
}

func parseConfig() (*configFlags, error) {
	cfg := &configFlags{
		DataDir:  defaultDataDir,
		LogLevel: defaultLogLevel,
	}
	parser := flags.NewParser(cfg, flags.HelpFlag)
	parser.Usage = "utxotool [OPTIONS] stats\n  utxotool [OPTIONS] scan DESCRIPTOR..."
	remainingArgs, err := parser.Parse()
	if err != nil {
		return nil, err
	}

	cfg.CommandAndParameters = remainingArgs
	if len(cfg.CommandAndParameters) == 0 {
		return nil, errors.New("a command is required: stats or scan")
	}
	switch cfg.CommandAndParameters[0] {
	case "stats":
		if len(cfg.CommandAndParameters) != 1 {
			return nil, errors.New("stats takes no parameters")
		}
	case "scan":
		if len(cfg.CommandAndParameters) < 2 {
			return nil, errors.New("scan requires at least one descriptor")
		}
	default:
		return nil, errors.Errorf("unknown command %q", cfg.CommandAndParameters[0])
	}
	return cfg, nil
}
