package service

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/todo/internal/model"
	"github.com/nhle/todo/tests/testutil"
)

func newServices(t *testing.T) *Services {
	t.Helper()
	return New(testutil.NewTestStore(t), testutil.NewTestLogger())
}

func homeAddress() model.Address {
	return model.NewAddress("thuis", []string{"Kerkstraat 1", "", "2e verdieping"},
		"1234 AB", "Amsterdam", "NL")
}

func TestFindAddressesByName(t *testing.T) {
	svcs := newServices(t)
	ctx := context.Background()

	home, err := svcs.Addresses.AddAddress(ctx, homeAddress())
	require.NoError(t, err)
	_, err = svcs.Addresses.AddAddress(ctx, model.NewAddress("werk", []string{"Stationsplein 1"},
		"3511 AA", "Utrecht", "NL"))
	require.NoError(t, err)

	found, err := svcs.Addresses.FindAddressesByName(ctx, "thuis")
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.True(t, found[0].Equal(home))

	found, err = svcs.Addresses.FindAddressesByName(ctx, "Thuis")
	require.NoError(t, err)
	assert.Empty(t, found)
}

func TestAddAddress(t *testing.T) {
	svcs := newServices(t)
	ctx := context.Background()

	added, err := svcs.Addresses.AddAddress(ctx, homeAddress())
	require.NoError(t, err)
	require.NotNil(t, added.ID)
	assert.Equal(t, []string{"Kerkstraat 1", "2e verdieping"}, added.AddressLines)
	assert.True(t, added.Equal(homeAddress().WithID(*added.ID)))

	all, err := svcs.Addresses.FindAllAddresses(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.True(t, all[0].Equal(added))

	_, err = svcs.Addresses.AddAddress(ctx, added)
	assert.ErrorIs(t, err, model.ErrPrecondition)
}

func TestAddAddressRejectsTooManyLines(t *testing.T) {
	svcs := newServices(t)

	a := homeAddress()
	a.AddressLines = []string{"1", "2", "3", "4", "5"}
	_, err := svcs.Addresses.AddAddress(context.Background(), a)
	assert.ErrorIs(t, err, model.ErrPrecondition)
}

func TestDeleteAllAddresses(t *testing.T) {
	svcs := newServices(t)
	ctx := context.Background()

	_, err := svcs.Addresses.AddAddress(ctx, homeAddress())
	require.NoError(t, err)
	require.NoError(t, svcs.Addresses.DeleteAllAddresses(ctx))

	all, err := svcs.Addresses.FindAllAddresses(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestFindAppointmentsBetween(t *testing.T) {
	svcs := newServices(t)
	ctx := context.Background()
	d0 := now

	a, err := svcs.Appointments.AddAppointment(ctx, model.NewAppointment{
		Name: "A", Start: d0, End: d0.AddDate(0, 0, 2),
	})
	require.NoError(t, err)
	_, err = svcs.Appointments.AddAppointment(ctx, model.NewAppointment{
		Name: "B", Start: d0.AddDate(0, 0, 1), End: d0.AddDate(0, 0, 3),
	})
	require.NoError(t, err)

	// The end of A equals the upper bound, which is exclusive.
	between, err := svcs.Appointments.FindAppointmentsBetween(ctx, d0, d0.AddDate(0, 0, 2))
	require.NoError(t, err)
	assert.Empty(t, between)

	between, err = svcs.Appointments.FindAppointmentsBetween(ctx, d0, d0.AddDate(0, 0, 2).Add(1))
	require.NoError(t, err)
	require.Len(t, between, 1)
	assert.True(t, between[0].Equal(a))

	between, err = svcs.Appointments.FindAppointmentsBetween(ctx, d0, d0.AddDate(0, 0, 4))
	require.NoError(t, err)
	assert.Len(t, between, 2)

	between, err = svcs.Appointments.FindAppointmentsBetween(ctx, d0.Add(1), d0.AddDate(0, 0, 4))
	require.NoError(t, err)
	require.Len(t, between, 1)
	assert.Equal(t, "B", between[0].Name)
}

func TestFindAppointmentsByEnd(t *testing.T) {
	svcs := newServices(t)
	ctx := context.Background()

	for i, name := range []string{"tandarts", "kapper", "huisarts"} {
		_, err := svcs.Appointments.AddAppointment(ctx, model.NewAppointment{
			Name:  name,
			Start: now.AddDate(0, 0, i),
			End:   now.AddDate(0, 0, i).Add(time.Hour),
		})
		require.NoError(t, err)
	}

	pivot := now.AddDate(0, 0, 1).Add(time.Hour)

	after, err := svcs.Appointments.FindAppointmentsEndingAfter(ctx, pivot)
	require.NoError(t, err)
	require.Len(t, after, 1)
	assert.Equal(t, "huisarts", after[0].Name)

	before, err := svcs.Appointments.FindAppointmentsEndingBefore(ctx, pivot)
	require.NoError(t, err)
	require.Len(t, before, 1)
	assert.Equal(t, "tandarts", before[0].Name)
}

func TestAddAppointmentResolvesAddress(t *testing.T) {
	svcs := newServices(t)
	ctx := context.Background()

	address, err := svcs.Addresses.AddAddress(ctx, homeAddress())
	require.NoError(t, err)

	added, err := svcs.Appointments.AddAppointment(ctx, model.NewAppointment{
		Name:             "verjaardag",
		Start:            now,
		End:              now.Add(3 * time.Hour),
		AddressName:      model.Ptr("thuis"),
		ExtraInformation: model.Ptr("taart meenemen"),
	})
	require.NoError(t, err)
	require.NotNil(t, added.ID)
	require.NotNil(t, added.Address)
	assert.True(t, added.Address.Equal(address))
	assert.Equal(t, "taart meenemen", *added.ExtraInformation)

	all, err := svcs.Appointments.FindAllAppointments(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.True(t, all[0].Equal(added))
}

func TestAddAppointmentWithoutAddress(t *testing.T) {
	svcs := newServices(t)

	added, err := svcs.Appointments.AddAppointment(context.Background(), model.NewAppointment{
		Name: "bellen", Start: now, End: now.Add(time.Hour),
	})
	require.NoError(t, err)
	assert.Nil(t, added.Address)
	assert.Nil(t, added.ExtraInformation)
}

func TestAddAppointmentUnknownAddress(t *testing.T) {
	svcs := newServices(t)
	ctx := context.Background()

	_, err := svcs.Appointments.AddAppointment(ctx, model.NewAppointment{
		Name: "x", Start: now, End: now.Add(time.Hour), AddressName: model.Ptr("nergens"),
	})
	require.ErrorIs(t, err, model.ErrNotFound)

	all, err := svcs.Appointments.FindAllAppointments(ctx)
	require.NoError(t, err)
	assert.Empty(t, all)
}

func TestAddAppointmentAmbiguousAddress(t *testing.T) {
	svcs := newServices(t)
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		_, err := svcs.Addresses.AddAddress(ctx, homeAddress())
		require.NoError(t, err)
	}

	_, err := svcs.Appointments.AddAppointment(ctx, model.NewAppointment{
		Name: "x", Start: now, End: now.Add(time.Hour), AddressName: model.Ptr("thuis"),
	})
	assert.ErrorIs(t, err, model.ErrNotFound)
}

func TestDeleteAllAppointmentsKeepsAddresses(t *testing.T) {
	svcs := newServices(t)
	ctx := context.Background()

	_, err := svcs.Addresses.AddAddress(ctx, homeAddress())
	require.NoError(t, err)
	_, err = svcs.Appointments.AddAppointment(ctx, model.NewAppointment{
		Name: "x", Start: now, End: now.Add(time.Hour), AddressName: model.Ptr("thuis"),
	})
	require.NoError(t, err)

	require.NoError(t, svcs.Appointments.DeleteAllAppointments(ctx))

	appointments, err := svcs.Appointments.FindAllAppointments(ctx)
	require.NoError(t, err)
	assert.Empty(t, appointments)

	addresses, err := svcs.Addresses.FindAllAddresses(ctx)
	require.NoError(t, err)
	assert.Len(t, addresses, 1)
}

func TestDeleteAllAddressesDetachesAppointments(t *testing.T) {
	svcs := newServices(t)
	ctx := context.Background()

	_, err := svcs.Addresses.AddAddress(ctx, homeAddress())
	require.NoError(t, err)
	_, err = svcs.Appointments.AddAppointment(ctx, model.NewAppointment{
		Name: "x", Start: now, End: now.Add(time.Hour), AddressName: model.Ptr("thuis"),
	})
	require.NoError(t, err)

	require.NoError(t, svcs.Addresses.DeleteAllAddresses(ctx))

	appointments, err := svcs.Appointments.FindAllAppointments(ctx)
	require.NoError(t, err)
	require.Len(t, appointments, 1)
	assert.Nil(t, appointments[0].Address)
}
