package accounts

import "errors"

// Registry errors, surfaced verbatim to RPC callers.
var (
	ErrAccountAlreadyRegistered = errors.New("accounts: account already registered")
	ErrAccountNotRegistered     = errors.New("accounts: account not registered")
	ErrProxyAlreadyRegistered   = errors.New("accounts: proxy already registered")
	ErrProxyNotRegistered       = errors.New("accounts: proxy not registered")
	ErrMainAccountNotRegistered = errors.New("accounts: main account not registered")
)

// Nonce errors.
var (
	ErrNonceUninitialized    = errors.New("accounts: nonce uninitialized")
	ErrNonceValidationFailed = errors.New("accounts: nonce validation failed")
)
