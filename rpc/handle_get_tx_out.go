package rpc

import (
	"encoding/hex"

	"github.com/btcsuite/btcd/btcutil"

	"github.com/ternlabs/ternd/jsondoc"
	"github.com/ternlabs/ternd/rpcmodel"
	"github.com/ternlabs/ternd/utxo"
)

// handleGetTxOut implements the getTxOut command. An unknown or spent output
// is a null result, not an error. With includeMempool the pool overlays the
// set: pool-created outputs are visible with zero confirmations and outputs a
// pool transaction spends are hidden.
func handleGetTxOut(s *Server, cmd interface{}, closeChan <-chan struct{}) (interface{}, error) {
	c := cmd.(*rpcmodel.GetTxOutCmd)
	txID, err := parseHash(c.TxID)
	if err != nil {
		return nil, err
	}
	includeMempool := c.IncludeMempool == nil || *c.IncludeMempool
	outpoint := utxo.Outpoint{TxID: *txID, Index: c.Vout}

	coin, err := s.cfg.UTXOView.CoinByOutpoint(outpoint)
	if err != nil {
		return nil, internalRPCError(err.Error(), "getTxOut")
	}

	if includeMempool {
		if coin != nil && s.poolSpends(outpoint) {
			return jsondoc.NewNull(), nil
		}
		if coin == nil {
			coin = s.poolCoin(outpoint)
		}
	}
	if coin == nil {
		return jsondoc.NewNull(), nil
	}

	tip := s.cfg.Chain.Tip()
	confirmations := int64(0)
	if coin.Height > 0 && tip != nil {
		confirmations = int64(tip.Height-coin.Height) + 1
	}

	result := jsondoc.NewObject()
	if tip != nil {
		result.PushKV("bestblock", jsondoc.NewString(tip.Hash.String()))
	}
	result.PushKV("confirmations", jsondoc.NewInt(confirmations))
	result.PushKV("value", jsondoc.NewAmount(coin.Value))
	result.PushKV("scriptPubKey", jsondoc.NewString(hex.EncodeToString(coin.PkScript)))
	result.PushKV("coinbase", jsondoc.NewBool(coin.Coinbase))
	return result, nil
}

// poolSpends reports whether any pool transaction consumes the outpoint.
func (s *Server) poolSpends(outpoint utxo.Outpoint) bool {
	for _, entry := range s.cfg.TxMemPool.Entries() {
		for _, txIn := range entry.Tx.TxIn {
			if txIn.PreviousOutPoint.Hash == outpoint.TxID &&
				txIn.PreviousOutPoint.Index == outpoint.Index {
				return true
			}
		}
	}
	return false
}

// poolCoin materializes an output created by a pool transaction, if any.
// Pool outputs carry no confirmation height.
func (s *Server) poolCoin(outpoint utxo.Outpoint) *utxo.Coin {
	entry, err := s.cfg.TxMemPool.Entry(&outpoint.TxID)
	if err != nil || int(outpoint.Index) >= len(entry.Tx.TxOut) {
		return nil
	}
	if s.poolSpends(outpoint) {
		return nil
	}
	out := entry.Tx.TxOut[outpoint.Index]
	return &utxo.Coin{
		Value:    btcutil.Amount(out.Value),
		PkScript: out.PkScript,
	}
}
