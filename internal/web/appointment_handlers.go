package web

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/nhle/todo/internal/model"
)

// getAddressesJSON lists all addresses, or only those named exactly ?name=.
func getAddressesJSON(svc AddressService) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()

		var addresses []model.Address
		var err error
		if name := strings.TrimSpace(c.QueryParam("name")); name != "" {
			addresses, err = svc.FindAddressesByName(ctx, name)
		} else {
			addresses, err = svc.FindAllAddresses(ctx)
		}
		if err != nil {
			return err
		}
		if addresses == nil {
			addresses = []model.Address{}
		}
		return c.JSON(http.StatusOK, addresses)
	}
}

func postAddressJSON(svc AddressService) echo.HandlerFunc {
	return func(c echo.Context) error {
		var in model.Address
		if err := c.Bind(&in); err != nil {
			return err
		}

		address := model.NewAddress(in.AddressName, in.AddressLines, in.ZipCode, in.City, in.CountryCode)
		address.ID = in.ID

		added, err := svc.AddAddress(c.Request().Context(), address)
		if err != nil {
			return err
		}
		return c.JSON(http.StatusCreated, added)
	}
}

// parseInstant reads an optional RFC 3339 query parameter.
func parseInstant(c echo.Context, name string) (*time.Time, error) {
	v := strings.TrimSpace(c.QueryParam(name))
	if v == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, v)
	if err != nil {
		return nil, fmt.Errorf("%s %q is not an RFC 3339 time: %w", name, v, model.ErrValidation)
	}
	return &t, nil
}

// getAppointmentsJSON lists all appointments, or those inside [start, end)
// when both bounds are given. Giving only one bound is rejected.
func getAppointmentsJSON(svc AppointmentService) echo.HandlerFunc {
	return func(c echo.Context) error {
		start, err := parseInstant(c, "start")
		if err != nil {
			return err
		}
		end, err := parseInstant(c, "end")
		if err != nil {
			return err
		}

		ctx := c.Request().Context()
		var appointments []model.Appointment
		switch {
		case start == nil && end == nil:
			appointments, err = svc.FindAllAppointments(ctx)
		case start != nil && end != nil:
			appointments, err = svc.FindAppointmentsBetween(ctx, *start, *end)
		default:
			return fmt.Errorf("start and end must be given together: %w", model.ErrPrecondition)
		}
		if err != nil {
			return err
		}
		if appointments == nil {
			appointments = []model.Appointment{}
		}
		return c.JSON(http.StatusOK, appointments)
	}
}

func postAppointmentJSON(svc AppointmentService) echo.HandlerFunc {
	return func(c echo.Context) error {
		var in model.NewAppointment
		if err := c.Bind(&in); err != nil {
			return err
		}

		added, err := svc.AddAppointment(c.Request().Context(), in)
		if err != nil {
			return err
		}
		return c.JSON(http.StatusCreated, added)
	}
}
