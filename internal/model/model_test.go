package model

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestNewTaskNormalizes(t *testing.T) {
	local := time.Date(2025, 1, 1, 12, 0, 0, 0, time.FixedZone("CET", 3600))
	task := NewTask("a", "b", &local, Ptr(" \n"), false)

	assert.Nil(t, task.ExtraInformation)
	assert.Equal(t, time.UTC, task.TargetEnd.Location())
	assert.True(t, task.TargetEnd.Equal(local))
	assert.False(t, task.HasID())
}

func TestTaskValidate(t *testing.T) {
	assert.NoError(t, NewTask("a", "b", nil, nil, false).Validate())
	assert.ErrorIs(t, NewTask("", "b", nil, nil, false).Validate(), ErrValidation)
	assert.ErrorIs(t, NewTask("a", "  ", nil, nil, false).Validate(), ErrValidation)
}

func TestTaskEqual(t *testing.T) {
	end := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	a := NewTask("a", "b", &end, Ptr("n"), true).WithID(1)

	b := a
	b.TargetEnd = Ptr(end.In(time.FixedZone("X", 7200)))
	assert.True(t, a.Equal(b), "same instant in another zone")

	c := a
	c.ExtraInformation = nil
	assert.False(t, a.Equal(c))

	assert.False(t, a.Equal(a.WithID(2)))
	assert.False(t, a.Equal(NewTask("a", "b", &end, Ptr("n"), true)))
}

func TestNewAddressCompactsLines(t *testing.T) {
	a := NewAddress("x", []string{"", "een", "  ", "twee"}, "1000 AA", "Amsterdam", "NL")
	assert.Equal(t, []string{"een", "twee"}, a.AddressLines)
	assert.NoError(t, a.Validate())
}

func TestAddressValidate(t *testing.T) {
	valid := NewAddress("x", []string{"een"}, "1000 AA", "Amsterdam", "NL")

	tests := []struct {
		name   string
		modify func(*Address)
		want   error
	}{
		{"no name", func(a *Address) { a.AddressName = " " }, ErrValidation},
		{"no lines", func(a *Address) { a.AddressLines = nil }, ErrValidation},
		{"five lines", func(a *Address) { a.AddressLines = []string{"1", "2", "3", "4", "5"} }, ErrPrecondition},
		{"no zip", func(a *Address) { a.ZipCode = "" }, ErrValidation},
		{"no city", func(a *Address) { a.City = "" }, ErrValidation},
		{"no country", func(a *Address) { a.CountryCode = "" }, ErrValidation},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := valid
			a.AddressLines = append([]string(nil), valid.AddressLines...)
			tt.modify(&a)
			assert.ErrorIs(t, a.Validate(), tt.want)
		})
	}

	four := valid
	four.AddressLines = []string{"1", "2", "3", "4"}
	assert.NoError(t, four.Validate())
}

func TestAddressWithIDClonesLines(t *testing.T) {
	a := NewAddress("x", []string{"een"}, "1000 AA", "Amsterdam", "NL")
	b := a.WithID(3)
	b.AddressLines[0] = "anders"
	assert.Equal(t, "een", a.AddressLines[0])
}

func TestAppointmentEqualComparesAddress(t *testing.T) {
	start := time.Date(2025, 1, 1, 9, 0, 0, 0, time.UTC)
	addr := NewAddress("x", []string{"een"}, "1000 AA", "Amsterdam", "NL").WithID(1)
	a := Appointment{ID: Ptr(int64(1)), Name: "a", Start: start, End: start.Add(time.Hour), Address: &addr}

	b := a
	other := addr.WithID(2)
	b.Address = &other
	assert.False(t, a.Equal(b))

	c := a
	c.Address = nil
	assert.False(t, a.Equal(c))

	d := a
	same := addr.WithID(1)
	d.Address = &same
	assert.True(t, a.Equal(d))
}

func TestNewAppointmentValidate(t *testing.T) {
	start := time.Date(2025, 1, 1, 9, 0, 0, 0, time.UTC)

	assert.NoError(t, NewAppointment{Name: "a", Start: start, End: start}.Validate())
	assert.ErrorIs(t, NewAppointment{Start: start, End: start}.Validate(), ErrValidation)
	assert.ErrorIs(t, NewAppointment{Name: "a", End: start}.Validate(), ErrValidation)
	assert.ErrorIs(t, NewAppointment{Name: "a", Start: start}.Validate(), ErrValidation)
}

func TestNonBlank(t *testing.T) {
	assert.Nil(t, NonBlank(nil))
	assert.Nil(t, NonBlank(Ptr("")))
	assert.Nil(t, NonBlank(Ptr("\t ")))

	in := Ptr("x")
	out := NonBlank(in)
	assert.Equal(t, "x", *out)
	*in = "y"
	assert.Equal(t, "x", *out, "result must not alias the input")
}
