package main

import (
	"fmt"
	"io"
	"strconv"

	"github.com/bytedance/sonic"
	"github.com/spf13/cobra"

	"github.com/nhle/todo/internal/model"
	"github.com/nhle/todo/internal/service"
	"github.com/nhle/todo/internal/theme"
	"github.com/nhle/todo/internal/web"
)

func writeJSON(w io.Writer, v interface{}) error {
	enc := sonic.ConfigStd.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func newTasksCmd(a *app) *cobra.Command {
	var closed string
	var asJSON bool

	cmd := &cobra.Command{
		Use:   "tasks",
		Short: "List tasks",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return a.withServices(func(svcs *service.Services) error {
				ctx := cmd.Context()

				title := "Tasks"
				var tasks []model.Task
				var err error
				switch closed {
				case "":
					tasks, err = svcs.Tasks.FindAllTasks(ctx)
				default:
					c, perr := strconv.ParseBool(closed)
					if perr != nil {
						return fmt.Errorf("--closed %q: %w", closed, model.ErrValidation)
					}
					title = "Open tasks"
					if c {
						title = "Closed tasks"
					}
					tasks, err = svcs.Tasks.FilterTasks(ctx, c)
				}
				if err != nil {
					return err
				}

				if asJSON {
					return writeJSON(cmd.OutOrStdout(), tasks)
				}
				_, err = fmt.Fprint(cmd.OutOrStdout(), renderTasks(title, tasks))
				return err
			})
		},
	}
	cmd.Flags().StringVar(&closed, "closed", "", "only closed (true) or open (false) tasks")
	cmd.Flags().BoolVar(&asJSON, "json", false, "print JSON instead of a table")

	cmd.AddCommand(newTaskAddCmd(a), newTaskCloseCmd(a), newTaskDeleteCmd(a))
	return cmd
}

func newTaskAddCmd(a *app) *cobra.Command {
	var form web.TaskFormData

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Add a task",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			task, err := form.ToModel()
			if err != nil {
				return err
			}
			return a.withServices(func(svcs *service.Services) error {
				added, err := svcs.Tasks.AddTask(cmd.Context(), task)
				if err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "added task %d\n", *added.ID)
				return nil
			})
		},
	}
	cmd.Flags().StringVar(&form.Name, "name", "", "task name")
	cmd.Flags().StringVar(&form.Description, "description", "", "task description")
	cmd.Flags().StringVar(&form.TargetEnd, "target-end", "", "target end in UTC, e.g. 2025-03-14T17:00")
	cmd.Flags().StringVar(&form.ExtraInformation, "note", "", "extra information")
	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("description")
	return cmd
}

func parseIDArg(arg string) (int64, error) {
	id, err := strconv.ParseInt(arg, 10, 64)
	if err != nil {
		return 0, fmt.Errorf("id %q is not a number: %w", arg, model.ErrValidation)
	}
	return id, nil
}

func newTaskCloseCmd(a *app) *cobra.Command {
	var reopen bool

	cmd := &cobra.Command{
		Use:   "close <id>",
		Short: "Mark a task closed",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseIDArg(args[0])
			if err != nil {
				return err
			}
			return a.withServices(func(svcs *service.Services) error {
				ctx := cmd.Context()
				task, found, err := svcs.Tasks.FindTask(ctx, id)
				if err != nil {
					return err
				}
				if !found {
					return fmt.Errorf("task %d: %w", id, model.ErrNotFound)
				}

				task.Closed = !reopen
				if _, err := svcs.Tasks.UpdateTask(ctx, task); err != nil {
					return err
				}
				fmt.Fprintf(cmd.OutOrStdout(), "task %d is %s\n", id, theme.ClosedLabel(task.Closed))
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&reopen, "reopen", false, "mark the task open again")
	return cmd
}

func newTaskDeleteCmd(a *app) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a task",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := parseIDArg(args[0])
			if err != nil {
				return err
			}
			return a.withServices(func(svcs *service.Services) error {
				return svcs.Tasks.DeleteTask(cmd.Context(), id)
			})
		},
	}
}
