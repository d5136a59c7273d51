package service

import (
	"context"
	"fmt"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/nhle/todo/internal/model"
	"github.com/nhle/todo/internal/store"
)

// AppointmentService reads and writes appointments. Every read fetches
// the associated address.
type AppointmentService struct {
	db  Transactor
	log log.FieldLogger
}

// NewAppointmentService returns an AppointmentService on top of db.
func NewAppointmentService(db Transactor, logger log.FieldLogger) *AppointmentService {
	return &AppointmentService{db: db, log: logger.WithField("entity", "appointment")}
}

// FindAllAppointments returns every appointment in insertion order.
func (s *AppointmentService) FindAllAppointments(ctx context.Context) ([]model.Appointment, error) {
	return s.list(ctx, store.AppointmentFilter{})
}

// FindAppointmentsBetween returns the appointments starting at or after
// start and ending strictly before end.
func (s *AppointmentService) FindAppointmentsBetween(
	ctx context.Context,
	start, end time.Time,
) ([]model.Appointment, error) {
	return s.list(ctx, store.AppointmentFilter{StartFrom: &start, EndBefore: &end})
}

// FindAppointmentsEndingAfter returns the appointments ending strictly
// after end.
func (s *AppointmentService) FindAppointmentsEndingAfter(ctx context.Context, end time.Time) ([]model.Appointment, error) {
	return s.list(ctx, store.AppointmentFilter{EndAfter: &end})
}

// FindAppointmentsEndingBefore returns the appointments ending strictly
// before end.
func (s *AppointmentService) FindAppointmentsEndingBefore(ctx context.Context, end time.Time) ([]model.Appointment, error) {
	return s.list(ctx, store.AppointmentFilter{EndBefore: &end})
}

func (s *AppointmentService) list(ctx context.Context, filter store.AppointmentFilter) ([]model.Appointment, error) {
	var appointments []model.Appointment
	err := s.db.ReadTx(ctx, func(tx *store.Tx) error {
		var err error
		appointments, err = tx.ListAppointments(ctx, filter, true)
		return err
	})
	if err != nil {
		return nil, err
	}
	s.log.WithField("count", len(appointments)).Debug("listed appointments")
	return appointments, nil
}

// AddAppointment stores a new appointment. When an address name is given
// it must match exactly one stored address, which the appointment then
// refers to. The result carries the loaded address.
func (s *AppointmentService) AddAppointment(
	ctx context.Context,
	n model.NewAppointment,
) (model.Appointment, error) {
	if err := n.Validate(); err != nil {
		return model.Appointment{}, fmt.Errorf("adding appointment: %w", err)
	}

	var added model.Appointment
	err := s.db.WriteTx(ctx, func(tx *store.Tx) error {
		var addressID *int64
		if n.AddressName != nil {
			address, err := resolveAddress(ctx, tx, *n.AddressName)
			if err != nil {
				return fmt.Errorf("adding appointment %q: %w", n.Name, err)
			}
			addressID = address.ID
		}

		id, err := tx.InsertAppointment(ctx, n, addressID)
		if err != nil {
			return err
		}
		stored, found, err := tx.GetAppointment(ctx, id, true)
		if err != nil {
			return err
		}
		if !found || !stored.HasID() {
			return fmt.Errorf("appointment %d missing right after insert", id)
		}
		added = stored
		return nil
	})
	if err != nil {
		return model.Appointment{}, err
	}

	s.log.WithField("id", *added.ID).Info("added appointment")
	return added, nil
}

// resolveAddress returns the single address called name.
func resolveAddress(ctx context.Context, tx *store.Tx, name string) (model.Address, error) {
	matches, err := tx.FindAddressesByName(ctx, name)
	if err != nil {
		return model.Address{}, err
	}
	if len(matches) != 1 {
		return model.Address{}, fmt.Errorf("address %q matched %d rows, want 1: %w",
			name, len(matches), model.ErrNotFound)
	}
	return matches[0], nil
}

// DeleteAllAppointments removes every appointment.
func (s *AppointmentService) DeleteAllAppointments(ctx context.Context) error {
	var n int64
	err := s.db.WriteTx(ctx, func(tx *store.Tx) error {
		var err error
		n, err = tx.DeleteAllAppointments(ctx)
		return err
	})
	if err != nil {
		return err
	}
	s.log.WithField("deleted", n).Info("deleted all appointments")
	return nil
}
