package service

import (
	"context"
	"fmt"

	log "github.com/sirupsen/logrus"

	"github.com/nhle/todo/internal/model"
	"github.com/nhle/todo/internal/store"
)

// AddressService reads and writes addresses.
type AddressService struct {
	db  Transactor
	log log.FieldLogger
}

// NewAddressService returns an AddressService on top of db.
func NewAddressService(db Transactor, logger log.FieldLogger) *AddressService {
	return &AddressService{db: db, log: logger.WithField("entity", "address")}
}

// FindAllAddresses returns every address in insertion order.
func (s *AddressService) FindAllAddresses(ctx context.Context) ([]model.Address, error) {
	var addresses []model.Address
	err := s.db.ReadTx(ctx, func(tx *store.Tx) error {
		var err error
		addresses, err = tx.ListAddresses(ctx)
		return err
	})
	return addresses, err
}

// FindAddressesByName returns the addresses named exactly name.
func (s *AddressService) FindAddressesByName(ctx context.Context, name string) ([]model.Address, error) {
	var addresses []model.Address
	err := s.db.ReadTx(ctx, func(tx *store.Tx) error {
		var err error
		addresses, err = tx.FindAddressesByName(ctx, name)
		return err
	})
	return addresses, err
}

// AddAddress stores a new address and returns it with its identity set.
// The address must not have an identity yet.
func (s *AddressService) AddAddress(ctx context.Context, address model.Address) (model.Address, error) {
	if address.HasID() {
		return model.Address{}, fmt.Errorf("adding address %q: already has id %d: %w",
			address.AddressName, *address.ID, model.ErrPrecondition)
	}
	if err := address.Validate(); err != nil {
		return model.Address{}, fmt.Errorf("adding address: %w", err)
	}

	var added model.Address
	err := s.db.WriteTx(ctx, func(tx *store.Tx) error {
		id, err := tx.InsertAddress(ctx, address)
		if err != nil {
			return err
		}
		stored, found, err := tx.GetAddress(ctx, id)
		if err != nil {
			return err
		}
		if !found || !stored.HasID() {
			return fmt.Errorf("address %d missing right after insert", id)
		}
		added = stored
		return nil
	})
	if err != nil {
		return model.Address{}, err
	}

	s.log.WithField("id", *added.ID).Info("added address")
	return added, nil
}

// DeleteAllAddresses removes every address.
func (s *AddressService) DeleteAllAddresses(ctx context.Context) error {
	var n int64
	err := s.db.WriteTx(ctx, func(tx *store.Tx) error {
		var err error
		n, err = tx.DeleteAllAddresses(ctx)
		return err
	})
	if err != nil {
		return err
	}
	s.log.WithField("deleted", n).Info("deleted all addresses")
	return nil
}
