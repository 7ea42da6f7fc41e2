package stores

import (
	"errors"
	"math/big"
	"testing"
	"time"

	"hashvault/escrow/internal/models"
	"hashvault/escrow/internal/utils/hashlock"

	bolt "go.etcd.io/bbolt"
)

var (
	secret     = []byte("s3cret")
	commitment = hashlock.Commit(secret)
	t0         = time.Unix(1_700_000_000, 0)
)

func createAddressed(t *testing.T, db *DB, s *AddressedDepositStore, validitySeconds int64) uint64 {
	t.Helper()
	var id uint64
	err := db.Update(func(tx *bolt.Tx) error {
		var e error
		id, e = s.Create(tx, 1, big.NewInt(50), bob, commitment, validitySeconds, "order#42", t0)
		return e
	})
	if err != nil {
		t.Fatalf("Create error: %v", err)
	}
	return id
}

func TestAddressedStore_Create(t *testing.T) {
	db := newTestDB(t)
	s := NewAddressedDepositStore(db)

	id := createAddressed(t, db, s, 300)

	ad, err := s.AddressedDeposit(id)
	if err != nil {
		t.Fatalf("AddressedDeposit error: %v", err)
	}
	if !ad.Active {
		t.Fatal("expected new addressed deposit to be active")
	}
	if ad.Expiry != t0.Unix()+300 {
		t.Fatalf("expiry: got %d, want %d", ad.Expiry, t0.Unix()+300)
	}
	if ad.Memo != "order#42" {
		t.Fatalf("memo not carried through: got %q", ad.Memo)
	}
	if ad.Closed != "" {
		t.Fatalf("expected empty closed reason, got %q", ad.Closed)
	}
}

func TestAddressedStore_Claim(t *testing.T) {
	db := newTestDB(t)
	s := NewAddressedDepositStore(db)
	id := createAddressed(t, db, s, 300)

	var amount *big.Int
	err := db.Update(func(tx *bolt.Tx) error {
		ad, e := s.Claim(tx, id, bob, secret, t0.Add(100*time.Second))
		if e != nil {
			return e
		}
		amount = ad.Amount
		return nil
	})
	if err != nil {
		t.Fatalf("Claim error: %v", err)
	}
	if amount.Cmp(big.NewInt(50)) != 0 {
		t.Fatalf("claim amount: got %s, want 50", amount)
	}

	ad, _ := s.AddressedDeposit(id)
	if ad.Active {
		t.Fatal("expected claimed deposit to be inactive")
	}
	if ad.Closed != models.ClosedClaimed {
		t.Fatalf("closed reason: got %q, want %q", ad.Closed, models.ClosedClaimed)
	}
}

func TestAddressedStore_Claim_Guards(t *testing.T) {
	db := newTestDB(t)
	s := NewAddressedDepositStore(db)
	id := createAddressed(t, db, s, 300)

	// wrong receiver, correct secret
	err := db.Update(func(tx *bolt.Tx) error {
		_, e := s.Claim(tx, id, alice, secret, t0)
		return e
	})
	if !errors.Is(err, ErrReceiverMismatch) {
		t.Fatalf("expected ErrReceiverMismatch, got %v", err)
	}

	// correct receiver, wrong secret
	err = db.Update(func(tx *bolt.Tx) error {
		_, e := s.Claim(tx, id, bob, []byte("wrong"), t0)
		return e
	})
	if !errors.Is(err, ErrWrongPassword) {
		t.Fatalf("expected ErrWrongPassword, got %v", err)
	}

	// neither failed attempt mutated state
	ad, _ := s.AddressedDeposit(id)
	if !ad.Active {
		t.Fatal("failed claims must not deactivate the deposit")
	}

	// expired exactly at the boundary
	err = db.Update(func(tx *bolt.Tx) error {
		_, e := s.Claim(tx, id, bob, secret, t0.Add(300*time.Second))
		return e
	})
	if !errors.Is(err, ErrExpired) {
		t.Fatalf("expected ErrExpired at now == expiry, got %v", err)
	}
}

func TestAddressedStore_Refund(t *testing.T) {
	db := newTestDB(t)
	s := NewAddressedDepositStore(db)
	id := createAddressed(t, db, s, 300)

	// before expiry
	err := db.Update(func(tx *bolt.Tx) error {
		_, e := s.Refund(tx, id, alice, alice, t0.Add(299*time.Second))
		return e
	})
	if !errors.Is(err, ErrNotExpired) {
		t.Fatalf("expected ErrNotExpired before expiry, got %v", err)
	}

	// not the depositor
	err = db.Update(func(tx *bolt.Tx) error {
		_, e := s.Refund(tx, id, bob, alice, t0.Add(300*time.Second))
		return e
	})
	if !errors.Is(err, ErrUnauthorized) {
		t.Fatalf("expected ErrUnauthorized, got %v", err)
	}

	// refundable exactly at expiry
	err = db.Update(func(tx *bolt.Tx) error {
		_, e := s.Refund(tx, id, alice, alice, t0.Add(300*time.Second))
		return e
	})
	if err != nil {
		t.Fatalf("Refund error at now == expiry: %v", err)
	}

	ad, _ := s.AddressedDeposit(id)
	if ad.Active || ad.Closed != models.ClosedRefunded {
		t.Fatalf("expected inactive/refunded, got active=%v closed=%q", ad.Active, ad.Closed)
	}
}

func TestAddressedStore_Cancel(t *testing.T) {
	db := newTestDB(t)
	s := NewAddressedDepositStore(db)
	id := createAddressed(t, db, s, 300)

	var ad *models.AddressedDeposit
	err := db.Update(func(tx *bolt.Tx) error {
		var e error
		ad, e = s.Cancel(tx, id, alice, alice, t0.Add(301*time.Second))
		return e
	})
	if err != nil {
		t.Fatalf("Cancel error: %v", err)
	}
	if ad.DepositID != 1 || ad.Amount.Cmp(big.NewInt(50)) != 0 {
		t.Fatalf("cancel returned wrong parent/amount: %d/%s", ad.DepositID, ad.Amount)
	}

	got, _ := s.AddressedDeposit(id)
	if got.Active || got.Closed != models.ClosedCancelled {
		t.Fatalf("expected inactive/cancelled, got active=%v closed=%q", got.Active, got.Closed)
	}
}

func TestAddressedStore_TerminalExclusivity(t *testing.T) {
	db := newTestDB(t)
	s := NewAddressedDepositStore(db)
	id := createAddressed(t, db, s, 300)

	if err := db.Update(func(tx *bolt.Tx) error {
		_, e := s.Claim(tx, id, bob, secret, t0)
		return e
	}); err != nil {
		t.Fatalf("Claim error: %v", err)
	}

	after := t0.Add(400 * time.Second)

	if err := db.Update(func(tx *bolt.Tx) error {
		_, e := s.Claim(tx, id, bob, secret, t0)
		return e
	}); !errors.Is(err, ErrInactive) {
		t.Fatalf("second claim: expected ErrInactive, got %v", err)
	}
	if err := db.Update(func(tx *bolt.Tx) error {
		_, e := s.Refund(tx, id, alice, alice, after)
		return e
	}); !errors.Is(err, ErrInactive) {
		t.Fatalf("refund after claim: expected ErrInactive, got %v", err)
	}
	if err := db.Update(func(tx *bolt.Tx) error {
		_, e := s.Cancel(tx, id, alice, alice, after)
		return e
	}); !errors.Is(err, ErrInactive) {
		t.Fatalf("cancel after claim: expected ErrInactive, got %v", err)
	}
}

func TestAddressedStore_Get_NotFound(t *testing.T) {
	db := newTestDB(t)
	s := NewAddressedDepositStore(db)

	_, err := s.AddressedDeposit(7)
	if !errors.Is(err, ErrAddressedNotFound) {
		t.Fatalf("expected ErrAddressedNotFound, got %v", err)
	}
}
