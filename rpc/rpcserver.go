// Package rpc implements the node's analytical query operations: chain-tip
// enumeration, UTXO set digest and scan, mempool dependency queries, block
// statistics and blocking tip waits. Each operation lives in its own
// handle_*.go file and renders its result as a jsondoc value.
package rpc

import (
	"github.com/btcsuite/btcd/chaincfg"
	"github.com/btcsuite/btcd/chaincfg/chainhash"
	"github.com/btcsuite/btcd/wire"
	"github.com/pkg/errors"

	"github.com/ternlabs/ternd/blockindex"
	"github.com/ternlabs/ternd/blockstats"
	"github.com/ternlabs/ternd/mempool"
	"github.com/ternlabs/ternd/notifier"
	"github.com/ternlabs/ternd/rpcmodel"
	"github.com/ternlabs/ternd/utxo"
)

// commandHandler describes a callback function used to handle a specific
// command.
type commandHandler func(*Server, interface{}, <-chan struct{}) (interface{}, error)

// rpcHandlers maps commands to their appropriate handler functions.
var rpcHandlers = map[string]commandHandler{
	"getBestBlockHash":      handleGetBestBlockHash,
	"getBlockCount":         handleGetBlockCount,
	"getBlockHash":          handleGetBlockHash,
	"getBlockHeader":        handleGetBlockHeader,
	"getBlockStats":         handleGetBlockStats,
	"getChainTips":          handleGetChainTips,
	"getDifficulty":         handleGetDifficulty,
	"getMempoolAncestors":   handleGetMempoolAncestors,
	"getMempoolDescendants": handleGetMempoolDescendants,
	"getMempoolEntry":       handleGetMempoolEntry,
	"getMempoolInfo":        handleGetMempoolInfo,
	"getRawMempool":         handleGetRawMempool,
	"getTxOut":              handleGetTxOut,
	"getTxOutSetInfo":       handleGetTxOutSetInfo,
	"pruneChain":            handlePruneChain,
	"scanTxOutSet":          handleScanTxOutSet,
	"waitForBlock":          handleWaitForBlock,
	"waitForBlockHeight":    handleWaitForBlockHeight,
	"waitForNewBlock":       handleWaitForNewBlock,
}

// BlockFetcher loads a stored block by hash.
type BlockFetcher interface {
	FetchBlock(hash *chainhash.Hash) (*wire.MsgBlock, error)
}

// Pruner releases block data up to a height. Implemented by the storage
// layer; the query layer only forwards the request.
type Pruner interface {
	// PruneToHeight prunes stored block data through the given height and
	// returns the height of the last pruned block.
	PruneToHeight(height int32) (int32, error)
}

// Config is the collection of node subsystems the query operations read.
// Every field except TxFetcher and Pruner is required.
type Config struct {
	ChainParams *chaincfg.Params
	Chain       *blockindex.Index
	TxMemPool   *mempool.Pool
	UTXOView    utxo.View
	Scans       *utxo.ScanController
	Notifier    *notifier.Notifier

	// BlockFetcher loads block payloads for statistics queries.
	BlockFetcher BlockFetcher

	// TxFetcher is the optional transaction index. Statistics that need
	// historical input lookups fail without it.
	TxFetcher blockstats.TxFetcher

	// Pruner is optional; pruneChain fails without it.
	Pruner Pruner
}

// Server services the query operations.
type Server struct {
	cfg Config
}

// NewServer returns a server backed by the given subsystems.
func NewServer(cfg Config) (*Server, error) {
	switch {
	case cfg.ChainParams == nil:
		return nil, errors.New("rpc: chain params are required")
	case cfg.Chain == nil:
		return nil, errors.New("rpc: block index is required")
	case cfg.TxMemPool == nil:
		return nil, errors.New("rpc: mempool is required")
	case cfg.UTXOView == nil:
		return nil, errors.New("rpc: utxo view is required")
	case cfg.Scans == nil:
		return nil, errors.New("rpc: scan controller is required")
	case cfg.Notifier == nil:
		return nil, errors.New("rpc: notifier is required")
	}
	return &Server{cfg: cfg}, nil
}

// HandleCommand dispatches a parsed command to its handler. closeChan is
// closed when the caller goes away, letting long-running handlers return
// early.
func (s *Server) HandleCommand(method string, cmd interface{}, closeChan <-chan struct{}) (interface{}, error) {
	handler, ok := rpcHandlers[method]
	if !ok {
		return nil, rpcmodel.NewErrorf(rpcmodel.ErrMisc, "Method not found: %s", method)
	}
	result, err := handler(s, cmd, closeChan)
	if err != nil {
		var rpcErr *rpcmodel.Error
		if !errors.As(err, &rpcErr) {
			err = internalRPCError(err.Error(), method)
		}
		return nil, err
	}
	return result, nil
}

// internalRPCError is a convenience function to convert an internal error to
// an RPC error with the appropriate code set. It also logs the error to the
// RPC server subsystem since internal errors really should not occur.
func internalRPCError(errStr, context string) *rpcmodel.Error {
	logStr := errStr
	if context != "" {
		logStr = context + ": " + errStr
	}
	log.Error(logStr)
	return rpcmodel.NewError(rpcmodel.ErrInternal, errStr)
}
