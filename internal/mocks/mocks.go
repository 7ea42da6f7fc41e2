package mocks

import (
	"context"
	"math/big"
	"time"

	"hashvault/escrow/internal/models"

	"github.com/ethereum/go-ethereum/common"
)

// ManualClock is an advanceable time source for expiry tests.
type ManualClock struct {
	T time.Time
}

func (c *ManualClock) Now() time.Time {
	return c.T
}

func (c *ManualClock) Advance(d time.Duration) {
	c.T = c.T.Add(d)
}

type SendCall struct {
	Asset  models.Asset
	To     common.Address
	Amount *big.Int
}

// MockGateway records outbound transfers, or fails every call when Err is set.
type MockGateway struct {
	Sends []SendCall
	Err   error
}

func (g *MockGateway) Send(ctx context.Context, asset models.Asset, to common.Address, amount *big.Int) error {
	if g.Err != nil {
		return g.Err
	}
	g.Sends = append(g.Sends, SendCall{
		Asset:  asset,
		To:     to,
		Amount: new(big.Int).Set(amount),
	})
	return nil
}

// RecordingSink collects emitted events in order.
type RecordingSink struct {
	Events []models.Event
}

func (s *RecordingSink) Emit(e models.Event) {
	s.Events = append(s.Events, e)
}
