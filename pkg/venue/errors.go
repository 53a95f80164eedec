package venue

import "errors"

// Codec errors. These are logged and dropped on inbound paths; an
// outbound failure (ErrSerialization, ErrWebSocket) is returned through
// the gateway to the RPC caller.
var (
	ErrResponseParsing         = errors.New("venue: response parsing error")
	ErrFloatingPointConversion = errors.New("venue: floating point conversion error")
	ErrFixedPointConversion    = errors.New("venue: fixed point conversion error")
	ErrSerialization           = errors.New("venue: serialization error")
	ErrWebSocket               = errors.New("venue: websocket error")
)
