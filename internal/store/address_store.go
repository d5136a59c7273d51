package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/nhle/todo/internal/model"
)

// addressRow is the stored shape of an address. Lines two to four are
// nullable; line one is required.
type addressRow struct {
	ID           int64          `db:"id"`
	AddressName  string         `db:"address_name"`
	AddressLine1 string         `db:"address_line1"`
	AddressLine2 sql.NullString `db:"address_line2"`
	AddressLine3 sql.NullString `db:"address_line3"`
	AddressLine4 sql.NullString `db:"address_line4"`
	ZipCode      string         `db:"zip_code"`
	City         string         `db:"city"`
	CountryCode  string         `db:"country_code"`
}

const addressColumns = "id, address_name, address_line1, address_line2, address_line3, " +
	"address_line4, zip_code, city, country_code"

func (r addressRow) toModel() model.Address {
	lines := []string{r.AddressLine1}
	for _, l := range []sql.NullString{r.AddressLine2, r.AddressLine3, r.AddressLine4} {
		if l.Valid {
			lines = append(lines, l.String)
		}
	}
	return model.Address{
		ID:           model.Ptr(r.ID),
		AddressName:  r.AddressName,
		AddressLines: lines,
		ZipCode:      r.ZipCode,
		City:         r.City,
		CountryCode:  r.CountryCode,
	}
}

func addressRowFromModel(a model.Address) (addressRow, error) {
	if err := a.Validate(); err != nil {
		return addressRow{}, err
	}
	r := addressRow{
		AddressName:  a.AddressName,
		AddressLine1: a.AddressLines[0],
		ZipCode:      a.ZipCode,
		City:         a.City,
		CountryCode:  a.CountryCode,
	}
	optional := []*sql.NullString{&r.AddressLine2, &r.AddressLine3, &r.AddressLine4}
	for i, l := range a.AddressLines[1:] {
		*optional[i] = sql.NullString{String: l, Valid: true}
	}
	return r, nil
}

// InsertAddress stores a new address and returns its generated identity.
func (t *Tx) InsertAddress(ctx context.Context, address model.Address) (int64, error) {
	if address.HasID() {
		return 0, fmt.Errorf("inserting address %d: new addresses must not have an id: %w",
			*address.ID, model.ErrPrecondition)
	}
	r, err := addressRowFromModel(address)
	if err != nil {
		return 0, fmt.Errorf("inserting address %q: %w", address.AddressName, err)
	}

	var id int64
	err = t.tx.QueryRowxContext(ctx, t.rebind(`
		INSERT INTO addresses (
			address_name, address_line1, address_line2, address_line3, address_line4,
			zip_code, city, country_code
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		RETURNING id`),
		r.AddressName, r.AddressLine1, r.AddressLine2, r.AddressLine3, r.AddressLine4,
		r.ZipCode, r.City, r.CountryCode,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("inserting address %q: %w", address.AddressName, err)
	}
	return id, nil
}

// GetAddress retrieves a single address. found is false when no row has
// the id.
func (t *Tx) GetAddress(ctx context.Context, id int64) (address model.Address, found bool, err error) {
	var r addressRow
	err = t.tx.GetContext(ctx, &r,
		t.rebind("SELECT "+addressColumns+" FROM addresses WHERE id = ?"), id)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Address{}, false, nil
	}
	if err != nil {
		return model.Address{}, false, fmt.Errorf("getting address %d: %w", id, err)
	}
	return r.toModel(), true, nil
}

// ListAddresses retrieves all addresses in insertion order.
func (t *Tx) ListAddresses(ctx context.Context) ([]model.Address, error) {
	return t.selectAddresses(ctx, "SELECT "+addressColumns+" FROM addresses ORDER BY id ASC")
}

// FindAddressesByName retrieves the addresses whose name equals name
// exactly.
func (t *Tx) FindAddressesByName(ctx context.Context, name string) ([]model.Address, error) {
	return t.selectAddresses(ctx,
		"SELECT "+addressColumns+" FROM addresses WHERE address_name = ? ORDER BY id ASC",
		name)
}

func (t *Tx) selectAddresses(ctx context.Context, query string, args ...interface{}) ([]model.Address, error) {
	var rows []addressRow
	if err := t.tx.SelectContext(ctx, &rows, t.rebind(query), args...); err != nil {
		return nil, fmt.Errorf("querying addresses: %w", err)
	}

	addresses := make([]model.Address, 0, len(rows))
	for _, r := range rows {
		addresses = append(addresses, r.toModel())
	}
	return addresses, nil
}

// DeleteAllAddresses removes every address. Appointments referring to one
// keep existing without an address.
func (t *Tx) DeleteAllAddresses(ctx context.Context) (int64, error) {
	result, err := t.tx.ExecContext(ctx, "DELETE FROM addresses")
	if err != nil {
		return 0, fmt.Errorf("deleting addresses: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("counting deleted addresses: %w", err)
	}
	return rows, nil
}
