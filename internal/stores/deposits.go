package stores

import (
	"encoding/json"
	"math/big"

	"hashvault/escrow/internal/models"

	"github.com/ethereum/go-ethereum/common"
	bolt "go.etcd.io/bbolt"
)

// DepositStore owns the append-only collection of unaddressed deposits.
// IDs come from the bucket sequence and are never reused.
type DepositStore struct {
	db *DB
}

func NewDepositStore(db *DB) *DepositStore {
	return &DepositStore{db: db}
}

// Create records a new deposit funded with amount.
func (s *DepositStore) Create(tx *bolt.Tx, depositor common.Address, asset models.Asset, amount *big.Int) (uint64, error) {
	if amount == nil || amount.Sign() <= 0 {
		return 0, ErrInvalidAmount
	}

	b := tx.Bucket(bucketDeposits)
	id, err := b.NextSequence()
	if err != nil {
		return 0, err
	}

	dep := models.Deposit{
		ID:        id,
		Depositor: depositor,
		Asset:     asset,
		Balance:   new(big.Int).Set(amount),
	}
	if err := putDeposit(tx, &dep); err != nil {
		return 0, err
	}
	return id, nil
}

// Debit moves amount out of the deposit's balance into a new addressed
// deposit. Only the depositor may earmark funds.
func (s *DepositStore) Debit(tx *bolt.Tx, id uint64, amount *big.Int, caller common.Address) error {
	if amount == nil || amount.Sign() <= 0 {
		return ErrInvalidAmount
	}

	dep, err := s.Get(tx, id)
	if err != nil {
		return err
	}
	if dep.Depositor != caller {
		return ErrUnauthorized
	}
	if amount.Cmp(dep.Balance) > 0 {
		return ErrInsufficientBalance
	}

	dep.Balance.Sub(dep.Balance, amount)
	dep.AddressedCount++
	return putDeposit(tx, dep)
}

// Credit restores amount to the deposit's balance. Used when an addressed
// deposit is cancelled; no value leaves the escrow.
func (s *DepositStore) Credit(tx *bolt.Tx, id uint64, amount *big.Int) error {
	dep, err := s.Get(tx, id)
	if err != nil {
		return err
	}
	dep.Balance.Add(dep.Balance, amount)
	return putDeposit(tx, dep)
}

// Refund zeroes the deposit's balance and returns the released amount. The
// balance is written back as zero before the caller performs any external
// transfer, so a reentrant refund attempt sees ErrZeroBalance.
func (s *DepositStore) Refund(tx *bolt.Tx, id uint64, caller common.Address) (*big.Int, error) {
	dep, err := s.Get(tx, id)
	if err != nil {
		return nil, err
	}
	if dep.Depositor != caller {
		return nil, ErrUnauthorized
	}
	if dep.Balance.Sign() == 0 {
		return nil, ErrZeroBalance
	}

	amount := dep.Balance
	dep.Balance = new(big.Int)
	if err := putDeposit(tx, dep); err != nil {
		return nil, err
	}
	return amount, nil
}

func (s *DepositStore) Get(tx *bolt.Tx, id uint64) (*models.Deposit, error) {
	v := tx.Bucket(bucketDeposits).Get(itob(id))
	if v == nil {
		return nil, ErrDepositNotFound
	}
	var dep models.Deposit
	if err := json.Unmarshal(v, &dep); err != nil {
		return nil, err
	}
	return &dep, nil
}

// Deposit reads a deposit by index outside any transaction.
func (s *DepositStore) Deposit(id uint64) (*models.Deposit, error) {
	var dep *models.Deposit
	err := s.db.View(func(tx *bolt.Tx) error {
		var e error
		dep, e = s.Get(tx, id)
		return e
	})
	if err != nil {
		return nil, err
	}
	return dep, nil
}

func putDeposit(tx *bolt.Tx, dep *models.Deposit) error {
	blob, err := json.Marshal(dep)
	if err != nil {
		return err
	}
	return tx.Bucket(bucketDeposits).Put(itob(dep.ID), blob)
}
