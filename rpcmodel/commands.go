package rpcmodel

// The command structs below follow the convention of required parameters
// first, optional parameters (pointers with documented defaults) after.

// GetChainTipsCmd defines the getChainTips command.
type GetChainTipsCmd struct{}

// GetBestBlockHashCmd defines the getBestBlockHash command.
type GetBestBlockHashCmd struct{}

// GetBlockCountCmd defines the getBlockCount command.
type GetBlockCountCmd struct{}

// GetTxOutSetInfoCmd defines the getTxOutSetInfo command.
type GetTxOutSetInfoCmd struct{}

// ScanObject is one element of a scanTxOutSet start request: an output
// descriptor plus an optional derivation range bound. Range is only
// meaningful for ranged descriptors; the default is 1000 and the maximum
// 1000000.
type ScanObject struct {
	Desc  string
	Range *int64
}

// ScanTxOutSetCmd defines the scanTxOutSet command. Action is one of
// "start", "status" or "abort"; ScanObjects is required for "start".
type ScanTxOutSetCmd struct {
	Action      string
	ScanObjects []ScanObject
}

// GetMempoolAncestorsCmd defines the getMempoolAncestors command.
type GetMempoolAncestorsCmd struct {
	TxID    string
	Verbose *bool `jsonrpcdefault:"false"`
}

// GetMempoolDescendantsCmd defines the getMempoolDescendants command.
type GetMempoolDescendantsCmd struct {
	TxID    string
	Verbose *bool `jsonrpcdefault:"false"`
}

// GetMempoolEntryCmd defines the getMempoolEntry command.
type GetMempoolEntryCmd struct {
	TxID string
}

// GetRawMempoolCmd defines the getRawMempool command.
type GetRawMempoolCmd struct {
	Verbose *bool `jsonrpcdefault:"false"`
}

// GetMempoolInfoCmd defines the getMempoolInfo command.
type GetMempoolInfoCmd struct{}

// GetBlockHashCmd defines the getBlockHash command.
type GetBlockHashCmd struct {
	Height int64
}

// GetBlockHeaderCmd defines the getBlockHeader command. Verbose selects the
// decoded object form over serialized header hex.
type GetBlockHeaderCmd struct {
	Hash    string
	Verbose *bool `jsonrpcdefault:"true"`
}

// GetDifficultyCmd defines the getDifficulty command.
type GetDifficultyCmd struct{}

// GetBlockStatsCmd defines the getBlockStats command. HashOrHeight is either
// a block hash string or a non-negative integer height on the active chain.
// Stats selects a subset of the computed statistics; nil means all.
type GetBlockStatsCmd struct {
	HashOrHeight interface{}
	Stats        *[]string
}

// GetTxOutCmd defines the getTxOut command.
type GetTxOutCmd struct {
	TxID           string
	Vout           uint32
	IncludeMempool *bool `jsonrpcdefault:"true"`
}

// WaitForNewBlockCmd defines the waitForNewBlock command. Timeout is in
// milliseconds; 0 waits indefinitely.
type WaitForNewBlockCmd struct {
	Timeout *int64 `jsonrpcdefault:"0"`
}

// WaitForBlockCmd defines the waitForBlock command.
type WaitForBlockCmd struct {
	Hash    string
	Timeout *int64 `jsonrpcdefault:"0"`
}

// WaitForBlockHeightCmd defines the waitForBlockHeight command.
type WaitForBlockHeightCmd struct {
	Height  int64
	Timeout *int64 `jsonrpcdefault:"0"`
}

// PruneChainCmd defines the pruneChain command. Height may also be a unix
// timestamp; heights greater than 1e9 are interpreted as timestamps and
// resolved to the last block before that time.
type PruneChainCmd struct {
	Height int64
}
