package services

import (
	"bytes"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
)

func TestErc20TransferData(t *testing.T) {
	to := common.HexToAddress("0x00000000000000000000000000000000000000b2")
	amount := big.NewInt(1234)

	data, err := erc20TransferData(to, amount)
	if err != nil {
		t.Fatalf("erc20TransferData error: %v", err)
	}

	// transfer(address,uint256) selector
	if !bytes.Equal(data[:4], common.Hex2Bytes("a9059cbb")) {
		t.Fatalf("selector mismatch: got %x", data[:4])
	}
	if len(data) != 4+32+32 {
		t.Fatalf("calldata length: got %d, want 68", len(data))
	}
	if got := new(big.Int).SetBytes(data[36:]); got.Cmp(amount) != 0 {
		t.Fatalf("encoded amount: got %s, want %s", got, amount)
	}
	if !bytes.Equal(data[16:36], to.Bytes()) {
		t.Fatalf("encoded recipient: got %x", data[4:36])
	}
}
