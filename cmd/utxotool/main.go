// utxotool inspects an on-disk UTXO store directly: it prints the aggregate
// set statistics or scans the set for outputs matching descriptors, without a
// running node.
package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/btcsuite/btcd/chaincfg/chainhash"

	"github.com/ternlabs/ternd/coindb"
	"github.com/ternlabs/ternd/descriptor"
	"github.com/ternlabs/ternd/jsondoc"
	"github.com/ternlabs/ternd/logger"
	"github.com/ternlabs/ternd/utxo"
	"github.com/ternlabs/ternd/version"
)

var log = logger.NewSubLogger("UTIL")

func main() {
	cfg, err := parseConfig()
	if err != nil {
		printErrorAndExit(fmt.Sprintf("error parsing command-line arguments: %s", err))
	}
	if cfg.LogFile != "" {
		if err := logger.InitLogRotator(cfg.LogFile); err != nil {
			printErrorAndExit(fmt.Sprintf("error opening log file: %s", err))
		}
		defer logger.CloseLogRotator()
	}
	if err := logger.SetLogLevels(cfg.LogLevel); err != nil {
		printErrorAndExit(err.Error())
	}
	log.Infof("utxotool version %s", version.Version())

	db, err := coindb.Open(cfg.DataDir)
	if err != nil {
		printErrorAndExit(fmt.Sprintf("error opening UTXO store: %s", err))
	}
	defer db.Close()

	var result *jsondoc.Value
	switch cfg.CommandAndParameters[0] {
	case "stats":
		result, err = runStats(db)
	case "scan":
		result, err = runScan(cfg, db)
	}
	if err != nil {
		printErrorAndExit(err.Error())
	}

	encoded, err := json.MarshalIndent(result, "", "  ")
	if err != nil {
		printErrorAndExit(err.Error())
	}
	fmt.Println(string(encoded))
}

// runStats streams the whole store and renders the digest and counters. The
// tool reads the store without a block index, so no height is reported.
func runStats(db *coindb.DB) (*jsondoc.Value, error) {
	stats, err := utxo.CalculateSetStats(db, func(*chainhash.Hash) (int32, error) {
		return -1, nil
	})
	if err != nil {
		return nil, err
	}

	result := jsondoc.NewObject()
	result.PushKV("bestblock", jsondoc.NewString(stats.BestBlock.String()))
	result.PushKV("transactions", jsondoc.NewUint(stats.Transactions))
	result.PushKV("txouts", jsondoc.NewUint(stats.TxOuts))
	result.PushKV("bogosize", jsondoc.NewUint(stats.BogoSize))
	result.PushKV("muhash", jsondoc.NewString(stats.Digest.String()))
	result.PushKV("disk_size", jsondoc.NewUint(stats.DiskSize))
	result.PushKV("total_amount", jsondoc.NewAmount(stats.TotalAmount))
	return result, nil
}

// runScan expands the given descriptors and scans the store for matching
// outputs.
func runScan(cfg *configFlags, db *coindb.DB) (*jsondoc.Value, error) {
	needles := make(map[string]struct{})
	for _, descText := range cfg.CommandAndParameters[1:] {
		desc, err := descriptor.Parse(descText, cfg.netParams())
		if err != nil {
			return nil, err
		}
		scanRange := cfg.Range
		if !desc.IsRange() {
			scanRange = 0
		}
		for i := int64(0); i <= scanRange; i++ {
			scripts, err := desc.Expand(uint32(i))
			if err != nil {
				return nil, err
			}
			for _, script := range scripts {
				needles[string(script)] = struct{}{}
			}
		}
	}
	log.Infof("scanning for %d scripts", len(needles))

	cursor, err := db.Cursor()
	if err != nil {
		return nil, err
	}
	scan, err := utxo.NewScanController().Scan(cursor, needles)
	if err != nil {
		return nil, err
	}

	unspents := jsondoc.NewArray()
	for _, match := range scan.Matches {
		obj := jsondoc.NewObject()
		obj.PushKV("txid", jsondoc.NewString(match.Outpoint.TxID.String()))
		obj.PushKV("vout", jsondoc.NewUint(uint64(match.Outpoint.Index)))
		obj.PushKV("amount", jsondoc.NewAmount(match.Coin.Value))
		obj.PushKV("height", jsondoc.NewInt(int64(match.Coin.Height)))
		unspents.Append(obj)
	}
	result := jsondoc.NewObject()
	result.PushKV("searched_items", jsondoc.NewInt(scan.SearchedItems))
	result.PushKV("unspents", unspents)
	result.PushKV("total_amount", jsondoc.NewAmount(scan.TotalAmount))
	return result, nil
}

func printErrorAndExit(message string) {
	fmt.Fprintf(os.Stderr, "%s\n", message)
	os.Exit(1)
}
