package rpc

import "github.com/ternlabs/ternd/logger"

var log = logger.NewSubLogger("RPCS")
