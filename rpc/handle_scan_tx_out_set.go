package rpc

import (
	"encoding/hex"

	"github.com/ternlabs/ternd/descriptor"
	"github.com/ternlabs/ternd/jsondoc"
	"github.com/ternlabs/ternd/rpcmodel"
)

const (
	// defaultScanRange is the derivation range used for ranged descriptors
	// when the caller does not give one.
	defaultScanRange = 1000

	// maxScanRange caps the derivation range of a single scan object.
	maxScanRange = 1000000
)

// handleScanTxOutSet implements the scanTxOutSet command. "start" runs the
// scan synchronously on the caller's goroutine and holds the process-wide
// reservation for its duration; "status" and "abort" act on a concurrently
// running scan.
func handleScanTxOutSet(s *Server, cmd interface{}, closeChan <-chan struct{}) (interface{}, error) {
	c := cmd.(*rpcmodel.ScanTxOutSetCmd)

	switch c.Action {
	case "status":
		if s.cfg.Scans.Reserve() {
			// No scan running.
			s.cfg.Scans.Release()
			return jsondoc.NewNull(), nil
		}
		result := jsondoc.NewObject()
		result.PushKV("progress", jsondoc.NewInt(int64(s.cfg.Scans.Progress())))
		return result, nil

	case "abort":
		if s.cfg.Scans.Reserve() {
			// Reserve worked, so no scan was running to abort.
			s.cfg.Scans.Release()
			return jsondoc.NewBool(false), nil
		}
		s.cfg.Scans.RequestAbort()
		return jsondoc.NewBool(true), nil

	case "start":
		return s.startScan(c.ScanObjects)
	}
	return nil, rpcmodel.NewErrorf(rpcmodel.ErrInvalidParameter,
		"Invalid action '%s'", c.Action)
}

func (s *Server) startScan(objects []rpcmodel.ScanObject) (interface{}, error) {
	if len(objects) == 0 {
		return nil, rpcmodel.NewError(rpcmodel.ErrInvalidParameter,
			"Scan objects argument is required for the start action")
	}
	needles, err := expandScanObjects(s, objects)
	if err != nil {
		return nil, err
	}

	if !s.cfg.Scans.Reserve() {
		return nil, rpcmodel.ErrScanInProgress
	}
	defer s.cfg.Scans.Release()

	// The tip recorded before cursor creation is the snapshot the results
	// are consistent with.
	bestBlock, err := s.cfg.UTXOView.BestBlock()
	if err != nil {
		return nil, internalRPCError(err.Error(), "scanTxOutSet")
	}
	var height int32 = -1
	if node := s.cfg.Chain.LookupNode(&bestBlock); node != nil {
		height = node.Height
	}

	cursor, err := s.cfg.UTXOView.Cursor()
	if err != nil {
		return nil, internalRPCError(err.Error(), "scanTxOutSet")
	}
	scan, err := s.cfg.Scans.Scan(cursor, needles)
	if err != nil {
		return nil, internalRPCError(err.Error(), "scanTxOutSet")
	}

	unspents := jsondoc.NewArray()
	for _, match := range scan.Matches {
		obj := jsondoc.NewObject()
		obj.PushKV("txid", jsondoc.NewString(match.Outpoint.TxID.String()))
		obj.PushKV("vout", jsondoc.NewUint(uint64(match.Outpoint.Index)))
		obj.PushKV("scriptPubKey", jsondoc.NewString(hex.EncodeToString(match.Coin.PkScript)))
		obj.PushKV("amount", jsondoc.NewAmount(match.Coin.Value))
		obj.PushKV("coinbase", jsondoc.NewBool(match.Coin.Coinbase))
		obj.PushKV("height", jsondoc.NewInt(int64(match.Coin.Height)))
		unspents.Append(obj)
	}

	result := jsondoc.NewObject()
	result.PushKV("success", jsondoc.NewBool(scan.Completed))
	result.PushKV("searched_items", jsondoc.NewInt(scan.SearchedItems))
	result.PushKV("height", jsondoc.NewInt(int64(height)))
	result.PushKV("bestblock", jsondoc.NewString(bestBlock.String()))
	result.PushKV("unspents", unspents)
	result.PushKV("total_amount", jsondoc.NewAmount(scan.TotalAmount))
	return result, nil
}

// expandScanObjects turns the request's descriptors into the needle set of
// raw locking scripts. Ranged descriptors expand indexes 0 through their
// range bound inclusive.
func expandScanObjects(s *Server, objects []rpcmodel.ScanObject) (map[string]struct{}, error) {
	needles := make(map[string]struct{})
	for _, obj := range objects {
		desc, err := descriptor.Parse(obj.Desc, s.cfg.ChainParams)
		if err != nil {
			return nil, rpcmodel.NewError(rpcmodel.ErrInvalidAddressOrKey, err.Error())
		}

		scanRange := int64(defaultScanRange)
		if obj.Range != nil {
			scanRange = *obj.Range
			if scanRange < 0 || scanRange > maxScanRange {
				return nil, rpcmodel.NewError(rpcmodel.ErrInvalidParameter,
					"range out of range")
			}
		}
		if !desc.IsRange() {
			scanRange = 0
		}

		for i := int64(0); i <= scanRange; i++ {
			scripts, err := desc.Expand(uint32(i))
			if err != nil {
				return nil, rpcmodel.NewError(rpcmodel.ErrInvalidAddressOrKey, err.Error())
			}
			for _, script := range scripts {
				needles[string(script)] = struct{}{}
			}
		}
	}
	return needles, nil
}
