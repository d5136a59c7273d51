package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/nhle/todo/internal/model"
	"github.com/nhle/todo/internal/service"
)

func newAddressesCmd(a *app) *cobra.Command {
	var name string
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "addresses",
		Short: "List addresses",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.withServices(func(svcs *service.Services) error {
				var addresses []model.Address
				var err error
				if name != "" {
					addresses, err = svcs.Addresses.FindAddressesByName(cmd.Context(), name)
				} else {
					addresses, err = svcs.Addresses.FindAllAddresses(cmd.Context())
				}
				if err != nil {
					return err
				}
				if asJSON {
					return writeJSON(cmd.OutOrStdout(), addresses)
				}
				_, err = fmt.Fprint(cmd.OutOrStdout(), renderAddresses(addresses))
				return err
			})
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "only list addresses with this exact name")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON instead of a table")

	cmd.AddCommand(newAddressAddCmd(a))
	return cmd
}

func newAddressAddCmd(a *app) *cobra.Command {
	var name, zip, city, country string
	var lines []string

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add an address",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			address := model.NewAddress(name, lines, zip, city, country)
			return a.withServices(func(svcs *service.Services) error {
				added, err := svcs.Addresses.AddAddress(cmd.Context(), address)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "added address %d\n", *added.ID)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "name used to refer to the address")
	cmd.Flags().StringArrayVar(&lines, "line", nil, "address line, repeat for up to four lines")
	cmd.Flags().StringVar(&zip, "zip", "", "zip code")
	cmd.Flags().StringVar(&city, "city", "", "city")
	cmd.Flags().StringVar(&country, "country", "", "country code")
	_ = cmd.MarkFlagRequired("name")
	return cmd
}

func parseInstantFlag(name, value string) (*time.Time, error) {
	if value == "" {
		return nil, nil
	}
	t, err := time.Parse(time.RFC3339, value)
	if err != nil {
		return nil, fmt.Errorf("--%s %q is not an RFC 3339 time: %w", name, value, model.ErrValidation)
	}
	return &t, nil
}

func newAppointmentsCmd(a *app) *cobra.Command {
	var startFlag, endFlag string
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "appointments",
		Short: "List appointments, optionally those within [--start, --end)",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			start, err := parseInstantFlag("start", startFlag)
			if err != nil {
				return err
			}
			end, err := parseInstantFlag("end", endFlag)
			if err != nil {
				return err
			}
			if (start == nil) != (end == nil) {
				return fmt.Errorf("--start and --end must be given together: %w", model.ErrPrecondition)
			}

			return a.withServices(func(svcs *service.Services) error {
				ctx := cmd.Context()

				title := "Appointments"
				var appointments []model.Appointment
				if start != nil {
					title = fmt.Sprintf("Appointments %s to %s", timeText(start), timeText(end))
					appointments, err = svcs.Appointments.FindAppointmentsBetween(ctx, *start, *end)
				} else {
					appointments, err = svcs.Appointments.FindAllAppointments(ctx)
				}
				if err != nil {
					return err
				}

				if asJSON {
					return writeJSON(cmd.OutOrStdout(), appointments)
				}
				_, err = fmt.Fprint(cmd.OutOrStdout(), renderAppointments(title, appointments))
				return err
			})
		},
	}
	cmd.Flags().StringVar(&startFlag, "start", "", "earliest start, RFC 3339")
	cmd.Flags().StringVar(&endFlag, "end", "", "end bound (exclusive), RFC 3339")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON instead of a table")

	cmd.AddCommand(newAppointmentAddCmd(a))
	return cmd
}

func newAppointmentAddCmd(a *app) *cobra.Command {
	var name, startFlag, endFlag, address, note string

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add an appointment",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			start, err := parseInstantFlag("start", startFlag)
			if err != nil {
				return err
			}
			end, err := parseInstantFlag("end", endFlag)
			if err != nil {
				return err
			}
			if start == nil || end == nil {
				return fmt.Errorf("--start and --end are required: %w", model.ErrValidation)
			}

			n := model.NewAppointment{
				Name:             name,
				Start:            start.UTC(),
				End:              end.UTC(),
				ExtraInformation: model.NonBlank(&note),
			}
			if address != "" {
				n.AddressName = &address
			}

			return a.withServices(func(svcs *service.Services) error {
				added, err := svcs.Appointments.AddAppointment(cmd.Context(), n)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "added appointment %d\n", *added.ID)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&name, "name", "", "appointment name")
	cmd.Flags().StringVar(&startFlag, "start", "", "start, RFC 3339")
	cmd.Flags().StringVar(&endFlag, "end", "", "end, RFC 3339")
	cmd.Flags().StringVar(&address, "address", "", "name of a stored address")
	cmd.Flags().StringVar(&note, "note", "", "extra information")
	_ = cmd.MarkFlagRequired("name")
	return cmd
}
