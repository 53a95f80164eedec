package balance

import "errors"

var (
	// ErrAccountOrAsset is returned when no balance cell exists for the
	// requested (asset, account) pair.
	ErrAccountOrAsset = errors.New("balance: account or asset not found")
	// ErrNotEnoughFreeBalance is returned by withdraw/reserve/transfer when
	// the free balance is insufficient.
	ErrNotEnoughFreeBalance = errors.New("balance: not enough free balance")
	// ErrNotEnoughReservedBalance is returned by unreserve when the
	// reserved balance is insufficient.
	ErrNotEnoughReservedBalance = errors.New("balance: not enough reserved balance")
	// ErrOverflow is returned when an operation would overflow the
	// 128-bit fixed-point representation.
	ErrOverflow = errors.New("balance: amount overflow")
)
