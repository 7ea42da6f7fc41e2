package models

import (
	"math/big"

	"github.com/ethereum/go-ethereum/common"
)

type AssetKind string

const (
	AssetNative   AssetKind = "native"
	AssetFungible AssetKind = "fungible"
)

// Asset identifies what a deposit holds. Token is only meaningful for
// fungible assets and names the token contract.
type Asset struct {
	Kind  AssetKind      `json:"kind"`
	Token common.Address `json:"token"`
}

func NativeAsset() Asset {
	return Asset{Kind: AssetNative}
}

func FungibleAsset(token common.Address) Asset {
	return Asset{Kind: AssetFungible, Token: token}
}

// Deposit is a depositor's bulk escrow, not yet earmarked for anyone.
// Balance = funded amount - active addressed amounts - refunded amounts.
type Deposit struct {
	ID             uint64         `json:"id"`
	Depositor      common.Address `json:"depositor"`
	Asset          Asset          `json:"asset"`
	Balance        *big.Int       `json:"balance"`
	AddressedCount uint64         `json:"addressed_count"`
}

type ClosedReason string

const (
	ClosedClaimed   ClosedReason = "claimed"
	ClosedRefunded  ClosedReason = "refunded"
	ClosedCancelled ClosedReason = "cancelled"
)

// AddressedDeposit earmarks part of a parent deposit for one receiver under
// one commitment and one expiry. Amount is fixed at creation. Once Active is
// false the record is terminal; Closed says which transition ended it.
type AddressedDeposit struct {
	ID         uint64         `json:"id"`
	DepositID  uint64         `json:"deposit_id"`
	Amount     *big.Int       `json:"amount"`
	Receiver   common.Address `json:"receiver"`
	Commitment common.Hash    `json:"commitment"`
	Expiry     int64          `json:"expiry"`
	Memo       string         `json:"memo"`
	Active     bool           `json:"active"`
	Closed     ClosedReason   `json:"closed,omitempty"`
}
