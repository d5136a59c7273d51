// Package service implements the query and command operations over tasks,
// addresses and appointments. Every operation runs inside exactly one
// store transaction; a failed write leaves nothing committed.
package service

import (
	"context"

	log "github.com/sirupsen/logrus"

	"github.com/nhle/todo/internal/store"
)

// Transactor hands out transaction scopes. *store.Store implements it.
type Transactor interface {
	ReadTx(ctx context.Context, fn func(tx *store.Tx) error) error
	WriteTx(ctx context.Context, fn func(tx *store.Tx) error) error
}

var _ Transactor = (*store.Store)(nil)

// Services groups the three services sharing one store.
type Services struct {
	Tasks        *TaskService
	Addresses    *AddressService
	Appointments *AppointmentService
}

// New wires all services to db.
func New(db Transactor, logger log.FieldLogger) *Services {
	return &Services{
		Tasks:        NewTaskService(db, logger),
		Addresses:    NewAddressService(db, logger),
		Appointments: NewAppointmentService(db, logger),
	}
}
