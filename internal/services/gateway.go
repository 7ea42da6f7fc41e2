package services

import (
	"context"
	"fmt"
	"math/big"
	"strings"

	"hashvault/escrow/internal/models"
	"hashvault/escrow/internal/stores"

	"github.com/ethereum/go-ethereum"
	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/core/types"
	"github.com/ethereum/go-ethereum/ethclient"
	"github.com/rs/zerolog"
)

// TransferGateway is the single chokepoint for outbound value movement.
// The escrow service only calls Send after every store mutation of the
// operation has been written; a Send error aborts the whole transaction.
// Implementations must not call back into the escrow service synchronously.
type TransferGateway interface {
	Send(ctx context.Context, asset models.Asset, to common.Address, amount *big.Int) error
}

const erc20TransferJSON = `[{"constant":false,"inputs":[{"name":"to","type":"address"},{"name":"value","type":"uint256"}],"name":"transfer","outputs":[{"name":"","type":"bool"}],"type":"function"}]`

var erc20ABI = func() abi.ABI {
	a, err := abi.JSON(strings.NewReader(erc20TransferJSON))
	if err != nil {
		panic(err)
	}
	return a
}()

func erc20TransferData(to common.Address, amount *big.Int) ([]byte, error) {
	return erc20ABI.Pack("transfer", to, amount)
}

// EthTransferGateway pays out from the escrow hot wallet: native value as a
// plain value transfer, fungible value as an ERC-20 transfer call on the
// asset's token contract.
type EthTransferGateway struct {
	client    *ethclient.Client
	ks        stores.KeyStore
	hotWallet common.Address
}

func NewEthTransferGateway(client *ethclient.Client, ks stores.KeyStore, hotWallet common.Address) *EthTransferGateway {
	return &EthTransferGateway{
		client:    client,
		ks:        ks,
		hotWallet: hotWallet,
	}
}

func (g *EthTransferGateway) Send(ctx context.Context, asset models.Asset, to common.Address, amount *big.Int) error {
	if ok := g.ks.HasKey(ctx, g.hotWallet.Hex()); !ok {
		return fmt.Errorf("private key not found for %s", g.hotWallet.Hex())
	}

	var (
		txTo  common.Address
		value *big.Int
		data  []byte
	)
	switch asset.Kind {
	case models.AssetNative:
		txTo = to
		value = amount
	case models.AssetFungible:
		packed, err := erc20TransferData(to, amount)
		if err != nil {
			return fmt.Errorf("error packing transfer call: %v", err)
		}
		txTo = asset.Token
		value = new(big.Int)
		data = packed
	default:
		return fmt.Errorf("unknown asset kind %s", asset.Kind)
	}

	nonce, err := g.client.PendingNonceAt(ctx, g.hotWallet)
	if err != nil {
		return err
	}
	gasPrice, err := g.client.SuggestGasPrice(ctx)
	if err != nil {
		return err
	}
	gasLimit, err := g.client.EstimateGas(ctx, ethereum.CallMsg{
		From:  g.hotWallet,
		To:    &txTo,
		Data:  data,
		Value: value,
	})
	if err != nil {
		return err
	}

	tx := types.NewTx(&types.LegacyTx{
		Nonce:    nonce,
		To:       &txTo,
		Value:    value,
		Gas:      gasLimit,
		GasPrice: gasPrice,
		Data:     data,
	})

	chainID, err := g.client.NetworkID(ctx)
	if err != nil {
		return err
	}
	signed, err := g.ks.SignTx(ctx, g.hotWallet.Hex(), tx, chainID)
	if err != nil {
		return fmt.Errorf("error signing tx: %v", err)
	}

	return g.client.SendTransaction(ctx, signed)
}

// NoopGateway logs instead of sending. Used in dry-run mode when no chain
// endpoint is configured.
type NoopGateway struct {
	log zerolog.Logger
}

func NewNoopGateway(log zerolog.Logger) *NoopGateway {
	return &NoopGateway{log: log}
}

func (g *NoopGateway) Send(ctx context.Context, asset models.Asset, to common.Address, amount *big.Int) error {
	g.log.Info().
		Str("kind", string(asset.Kind)).
		Str("to", to.Hex()).
		Str("amount", amount.String()).
		Msg("dry-run transfer")
	return nil
}
