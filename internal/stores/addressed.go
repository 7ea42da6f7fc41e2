package stores

import (
	"encoding/json"
	"math/big"
	"time"

	"hashvault/escrow/internal/models"
	"hashvault/escrow/internal/utils/hashlock"

	"github.com/ethereum/go-ethereum/common"
	bolt "go.etcd.io/bbolt"
)

// AddressedDepositStore owns the append-only collection of hash-locked
// sub-deposits. Each record references its parent deposit by index only.
//
// Lifecycle is Active -> Inactive via exactly one of Claim, Refund or
// Cancel; the Active flag is the single guard making the three terminal
// transitions mutually exclusive.
type AddressedDepositStore struct {
	db *DB
}

func NewAddressedDepositStore(db *DB) *AddressedDepositStore {
	return &AddressedDepositStore{db: db}
}

func (s *AddressedDepositStore) Create(tx *bolt.Tx, depositID uint64, amount *big.Int, receiver common.Address, commitment common.Hash, validitySeconds int64, memo string, now time.Time) (uint64, error) {
	b := tx.Bucket(bucketAddressed)
	id, err := b.NextSequence()
	if err != nil {
		return 0, err
	}

	ad := models.AddressedDeposit{
		ID:         id,
		DepositID:  depositID,
		Amount:     new(big.Int).Set(amount),
		Receiver:   receiver,
		Commitment: commitment,
		Expiry:     now.Unix() + validitySeconds,
		Memo:       memo,
		Active:     true,
	}
	if err := putAddressed(tx, &ad); err != nil {
		return 0, err
	}
	return id, nil
}

// Claim releases the earmarked amount to the receiver in exchange for the
// commitment's preimage. The secret becomes public here; a counterpart
// deposit locked under the same commitment can then be claimed with it.
// Requires now < expiry.
func (s *AddressedDepositStore) Claim(tx *bolt.Tx, id uint64, caller common.Address, secret []byte, now time.Time) (*models.AddressedDeposit, error) {
	ad, err := s.Get(tx, id)
	if err != nil {
		return nil, err
	}
	if !ad.Active {
		return nil, ErrInactive
	}
	if now.Unix() >= ad.Expiry {
		return nil, ErrExpired
	}
	if ad.Receiver != caller {
		return nil, ErrReceiverMismatch
	}
	if !hashlock.Verify(secret, ad.Commitment) {
		return nil, ErrWrongPassword
	}

	ad.Active = false
	ad.Closed = models.ClosedClaimed
	if err := putAddressed(tx, ad); err != nil {
		return nil, err
	}
	return ad, nil
}

// Refund releases the earmarked amount back to the depositor after the
// validity window elapsed. Requires now >= expiry.
func (s *AddressedDepositStore) Refund(tx *bolt.Tx, id uint64, caller, depositor common.Address, now time.Time) (*models.AddressedDeposit, error) {
	return s.expire(tx, id, caller, depositor, now, models.ClosedRefunded)
}

// Cancel is Refund without the external transfer: the caller restores the
// amount to the parent deposit's balance instead.
func (s *AddressedDepositStore) Cancel(tx *bolt.Tx, id uint64, caller, depositor common.Address, now time.Time) (*models.AddressedDeposit, error) {
	return s.expire(tx, id, caller, depositor, now, models.ClosedCancelled)
}

func (s *AddressedDepositStore) expire(tx *bolt.Tx, id uint64, caller, depositor common.Address, now time.Time, reason models.ClosedReason) (*models.AddressedDeposit, error) {
	ad, err := s.Get(tx, id)
	if err != nil {
		return nil, err
	}
	if !ad.Active {
		return nil, ErrInactive
	}
	if caller != depositor {
		return nil, ErrUnauthorized
	}
	if now.Unix() < ad.Expiry {
		return nil, ErrNotExpired
	}

	ad.Active = false
	ad.Closed = reason
	if err := putAddressed(tx, ad); err != nil {
		return nil, err
	}
	return ad, nil
}

func (s *AddressedDepositStore) Get(tx *bolt.Tx, id uint64) (*models.AddressedDeposit, error) {
	v := tx.Bucket(bucketAddressed).Get(itob(id))
	if v == nil {
		return nil, ErrAddressedNotFound
	}
	var ad models.AddressedDeposit
	if err := json.Unmarshal(v, &ad); err != nil {
		return nil, err
	}
	return &ad, nil
}

// AddressedDeposit reads an addressed deposit by index outside any transaction.
func (s *AddressedDepositStore) AddressedDeposit(id uint64) (*models.AddressedDeposit, error) {
	var ad *models.AddressedDeposit
	err := s.db.View(func(tx *bolt.Tx) error {
		var e error
		ad, e = s.Get(tx, id)
		return e
	})
	if err != nil {
		return nil, err
	}
	return ad, nil
}

func putAddressed(tx *bolt.Tx, ad *models.AddressedDeposit) error {
	blob, err := json.Marshal(ad)
	if err != nil {
		return err
	}
	return tx.Bucket(bucketAddressed).Put(itob(ad.ID), blob)
}
