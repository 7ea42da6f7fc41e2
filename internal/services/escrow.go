package services

import (
	"context"
	"math/big"

	"hashvault/escrow/internal/models"
	"hashvault/escrow/internal/stores"

	"github.com/ethereum/go-ethereum/common"
	bolt "go.etcd.io/bbolt"
)

// EscrowService orchestrates the hash-locked escrow operations. Each
// operation runs as one bbolt update: every store mutation happens before
// the gateway transfer, and any error rolls the whole transaction back.
// bbolt serializes writers, so operations never interleave.
type EscrowService struct {
	db        *stores.DB
	deposits  *stores.DepositStore
	addressed *stores.AddressedDepositStore
	gateway   TransferGateway
	clock     Clock
	events    EventSink
}

func NewEscrowService(db *stores.DB, deposits *stores.DepositStore, addressed *stores.AddressedDepositStore, gateway TransferGateway, clock Clock, events EventSink) *EscrowService {
	return &EscrowService{
		db:        db,
		deposits:  deposits,
		addressed: addressed,
		gateway:   gateway,
		clock:     clock,
		events:    events,
	}
}

// CreateNativeDeposit opens an escrow deposit holding native value. The
// funding leg is the ledger's concern; this records the escrowed balance.
func (s *EscrowService) CreateNativeDeposit(ctx context.Context, caller common.Address, amount *big.Int) (uint64, error) {
	return s.createDeposit(ctx, caller, models.NativeAsset(), amount)
}

// CreateFungibleDeposit opens an escrow deposit holding the given token.
func (s *EscrowService) CreateFungibleDeposit(ctx context.Context, caller, token common.Address, amount *big.Int) (uint64, error) {
	return s.createDeposit(ctx, caller, models.FungibleAsset(token), amount)
}

func (s *EscrowService) createDeposit(ctx context.Context, caller common.Address, asset models.Asset, amount *big.Int) (uint64, error) {
	var id uint64
	err := s.db.Update(func(tx *bolt.Tx) error {
		var err error
		id, err = s.deposits.Create(tx, caller, asset, amount)
		return err
	})
	if err != nil {
		return 0, err
	}
	s.events.Emit(models.Event{Type: models.EventDepositCreated, ID: id})
	return id, nil
}

// AddReceiver earmarks amount from the deposit for receiver, locked under
// commitment and claimable until validitySeconds from now. Memo is carried
// through unmodified.
func (s *EscrowService) AddReceiver(ctx context.Context, caller common.Address, depositID uint64, amount *big.Int, receiver common.Address, commitment common.Hash, validitySeconds int64, memo string) (uint64, error) {
	now := s.clock.Now()

	var id uint64
	err := s.db.Update(func(tx *bolt.Tx) error {
		if err := s.deposits.Debit(tx, depositID, amount, caller); err != nil {
			return err
		}
		var err error
		id, err = s.addressed.Create(tx, depositID, amount, receiver, commitment, validitySeconds, memo, now)
		return err
	})
	if err != nil {
		return 0, err
	}
	s.events.Emit(models.Event{Type: models.EventAddressedDepositCreated, ID: id})
	return id, nil
}

// Claim pays the addressed deposit out to its receiver in exchange for the
// secret. The deposit is flipped inactive before the transfer runs.
func (s *EscrowService) Claim(ctx context.Context, caller common.Address, addressedID uint64, secret []byte) error {
	now := s.clock.Now()

	err := s.db.Update(func(tx *bolt.Tx) error {
		ad, err := s.addressed.Claim(tx, addressedID, caller, secret, now)
		if err != nil {
			return err
		}
		dep, err := s.deposits.Get(tx, ad.DepositID)
		if err != nil {
			return err
		}
		return s.gateway.Send(ctx, dep.Asset, caller, ad.Amount)
	})
	if err != nil {
		return err
	}
	s.events.Emit(models.Event{Type: models.EventAddressedDepositClaimed, ID: addressedID})
	return nil
}

// RefundDeposit releases the deposit's remaining balance back to the
// depositor. The balance is zeroed before the transfer runs.
func (s *EscrowService) RefundDeposit(ctx context.Context, caller common.Address, depositID uint64) error {
	err := s.db.Update(func(tx *bolt.Tx) error {
		amount, err := s.deposits.Refund(tx, depositID, caller)
		if err != nil {
			return err
		}
		dep, err := s.deposits.Get(tx, depositID)
		if err != nil {
			return err
		}
		return s.gateway.Send(ctx, dep.Asset, caller, amount)
	})
	if err != nil {
		return err
	}
	s.events.Emit(models.Event{Type: models.EventDepositRefunded, ID: depositID})
	return nil
}

// RefundAddressedDeposit pays an expired addressed deposit back out to the
// depositor.
func (s *EscrowService) RefundAddressedDeposit(ctx context.Context, caller common.Address, addressedID uint64) error {
	now := s.clock.Now()

	err := s.db.Update(func(tx *bolt.Tx) error {
		ad, err := s.addressed.Get(tx, addressedID)
		if err != nil {
			return err
		}
		dep, err := s.deposits.Get(tx, ad.DepositID)
		if err != nil {
			return err
		}
		ad, err = s.addressed.Refund(tx, addressedID, caller, dep.Depositor, now)
		if err != nil {
			return err
		}
		return s.gateway.Send(ctx, dep.Asset, dep.Depositor, ad.Amount)
	})
	if err != nil {
		return err
	}
	s.events.Emit(models.Event{Type: models.EventAddressedDepositRefunded, ID: addressedID})
	return nil
}

// CancelAddressedDeposit restores an expired addressed deposit's amount to
// the parent deposit's balance. No value leaves the escrow.
func (s *EscrowService) CancelAddressedDeposit(ctx context.Context, caller common.Address, addressedID uint64) error {
	now := s.clock.Now()

	err := s.db.Update(func(tx *bolt.Tx) error {
		ad, err := s.addressed.Get(tx, addressedID)
		if err != nil {
			return err
		}
		dep, err := s.deposits.Get(tx, ad.DepositID)
		if err != nil {
			return err
		}
		ad, err = s.addressed.Cancel(tx, addressedID, caller, dep.Depositor, now)
		if err != nil {
			return err
		}
		return s.deposits.Credit(tx, ad.DepositID, ad.Amount)
	})
	if err != nil {
		return err
	}
	s.events.Emit(models.Event{Type: models.EventAddressedDepositCancelled, ID: addressedID})
	return nil
}

// Deposit reads a deposit by index.
func (s *EscrowService) Deposit(ctx context.Context, id uint64) (*models.Deposit, error) {
	return s.deposits.Deposit(id)
}

// AddressedDeposit reads an addressed deposit by index.
func (s *EscrowService) AddressedDeposit(ctx context.Context, id uint64) (*models.AddressedDeposit, error) {
	return s.addressed.AddressedDeposit(id)
}
