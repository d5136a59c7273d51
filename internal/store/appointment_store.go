package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/nhle/todo/internal/model"
)

// AppointmentFilter narrows appointment queries. Nil fields do not filter.
type AppointmentFilter struct {
	// StartFrom matches start_time >= StartFrom.
	StartFrom *time.Time

	// EndBefore matches end_time < EndBefore.
	EndBefore *time.Time

	// EndAfter matches end_time > EndAfter.
	EndAfter *time.Time
}

// appointmentRow is the stored shape of an appointment. The addr_* fields
// are only filled by queries that join the address.
type appointmentRow struct {
	ID               int64          `db:"id"`
	Name             string         `db:"name"`
	StartTime        time.Time      `db:"start_time"`
	EndTime          time.Time      `db:"end_time"`
	AddressID        sql.NullInt64  `db:"address_id"`
	ExtraInformation sql.NullString `db:"extra_information"`

	AddrID          sql.NullInt64  `db:"addr_id"`
	AddrName        sql.NullString `db:"addr_address_name"`
	AddrLine1       sql.NullString `db:"addr_address_line1"`
	AddrLine2       sql.NullString `db:"addr_address_line2"`
	AddrLine3       sql.NullString `db:"addr_address_line3"`
	AddrLine4       sql.NullString `db:"addr_address_line4"`
	AddrZipCode     sql.NullString `db:"addr_zip_code"`
	AddrCity        sql.NullString `db:"addr_city"`
	AddrCountryCode sql.NullString `db:"addr_country_code"`
}

const appointmentColumns = "ap.id, ap.name, ap.start_time, ap.end_time, ap.address_id, ap.extra_information"

const appointmentAddressColumns = `,
	addr.id AS addr_id,
	addr.address_name AS addr_address_name,
	addr.address_line1 AS addr_address_line1,
	addr.address_line2 AS addr_address_line2,
	addr.address_line3 AS addr_address_line3,
	addr.address_line4 AS addr_address_line4,
	addr.zip_code AS addr_zip_code,
	addr.city AS addr_city,
	addr.country_code AS addr_country_code`

// toModel converts the row. The address is only attached when the row was
// read with the address join; callers must pass withAddress accordingly,
// otherwise the result silently lacks an address that does exist.
func (r appointmentRow) toModel(withAddress bool) model.Appointment {
	a := model.Appointment{
		ID:    model.Ptr(r.ID),
		Name:  r.Name,
		Start: r.StartTime.UTC(),
		End:   r.EndTime.UTC(),
	}
	if r.ExtraInformation.Valid {
		a.ExtraInformation = model.Ptr(r.ExtraInformation.String)
	}
	if withAddress && r.AddrID.Valid {
		addr := addressRow{
			ID:           r.AddrID.Int64,
			AddressName:  r.AddrName.String,
			AddressLine1: r.AddrLine1.String,
			AddressLine2: r.AddrLine2,
			AddressLine3: r.AddrLine3,
			AddressLine4: r.AddrLine4,
			ZipCode:      r.AddrZipCode.String,
			City:         r.AddrCity.String,
			CountryCode:  r.AddrCountryCode.String,
		}.toModel()
		a.Address = &addr
	}
	return a
}

// InsertAppointment stores a new appointment referring to addressID, if
// set, and returns its generated identity. The address name of n is not
// looked at; resolving it is the caller's job.
func (t *Tx) InsertAppointment(
	ctx context.Context,
	n model.NewAppointment,
	addressID *int64,
) (int64, error) {
	var addrID sql.NullInt64
	if addressID != nil {
		addrID = sql.NullInt64{Int64: *addressID, Valid: true}
	}
	var note sql.NullString
	if v := model.NonBlank(n.ExtraInformation); v != nil {
		note = sql.NullString{String: *v, Valid: true}
	}

	var id int64
	err := t.tx.QueryRowxContext(ctx, t.rebind(`
		INSERT INTO appointments (name, start_time, end_time, address_id, extra_information)
		VALUES (?, ?, ?, ?, ?)
		RETURNING id`),
		n.Name, n.Start.UTC(), n.End.UTC(), addrID, note,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("inserting appointment %q: %w", n.Name, err)
	}
	return id, nil
}

// GetAppointment retrieves a single appointment, joining its address when
// withAddress is set. found is false when no row has the id.
func (t *Tx) GetAppointment(
	ctx context.Context,
	id int64,
	withAddress bool,
) (appointment model.Appointment, found bool, err error) {
	query := appointmentSelect(withAddress) + " WHERE ap.id = ?"

	var r appointmentRow
	err = t.tx.GetContext(ctx, &r, t.rebind(query), id)
	if errors.Is(err, sql.ErrNoRows) {
		return model.Appointment{}, false, nil
	}
	if err != nil {
		return model.Appointment{}, false, fmt.Errorf("getting appointment %d: %w", id, err)
	}
	return r.toModel(withAddress), true, nil
}

// ListAppointments retrieves appointments matching the filter in insertion
// order, joining their addresses when withAddress is set.
func (t *Tx) ListAppointments(
	ctx context.Context,
	filter AppointmentFilter,
	withAddress bool,
) ([]model.Appointment, error) {
	query, args := buildAppointmentQuery(filter, withAddress)

	var rows []appointmentRow
	if err := t.tx.SelectContext(ctx, &rows, t.rebind(query), args...); err != nil {
		return nil, fmt.Errorf("querying appointments: %w", err)
	}

	appointments := make([]model.Appointment, 0, len(rows))
	for _, r := range rows {
		appointments = append(appointments, r.toModel(withAddress))
	}
	return appointments, nil
}

// DeleteAllAppointments removes every appointment.
func (t *Tx) DeleteAllAppointments(ctx context.Context) (int64, error) {
	result, err := t.tx.ExecContext(ctx, "DELETE FROM appointments")
	if err != nil {
		return 0, fmt.Errorf("deleting appointments: %w", err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("counting deleted appointments: %w", err)
	}
	return rows, nil
}

func appointmentSelect(withAddress bool) string {
	if !withAddress {
		return "SELECT " + appointmentColumns + " FROM appointments ap"
	}
	return "SELECT " + appointmentColumns + appointmentAddressColumns +
		" FROM appointments ap LEFT JOIN addresses addr ON addr.id = ap.address_id"
}

// buildAppointmentQuery constructs the SQL query and args for an
// AppointmentFilter.
func buildAppointmentQuery(filter AppointmentFilter, withAddress bool) (string, []interface{}) {
	var conditions []string
	var args []interface{}

	if filter.StartFrom != nil {
		conditions = append(conditions, "ap.start_time >= ?")
		args = append(args, filter.StartFrom.UTC())
	}
	if filter.EndBefore != nil {
		conditions = append(conditions, "ap.end_time < ?")
		args = append(args, filter.EndBefore.UTC())
	}
	if filter.EndAfter != nil {
		conditions = append(conditions, "ap.end_time > ?")
		args = append(args, filter.EndAfter.UTC())
	}

	query := appointmentSelect(withAddress)
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY ap.id ASC"

	return query, args
}
