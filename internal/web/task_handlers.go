package web

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/nhle/todo/internal/model"
)

type tasksPage struct {
	Title string
	Tasks []model.Task
}

type taskFormPage struct {
	Title  string
	Action string
	Form   TaskFormData
	Error  string
}

// parseClosed reads the optional closed query parameter.
func parseClosed(c echo.Context) (*bool, error) {
	v := strings.TrimSpace(c.QueryParam("closed"))
	if v == "" {
		return nil, nil
	}
	closed, err := strconv.ParseBool(v)
	if err != nil {
		return nil, echo.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("invalid closed parameter %q", v))
	}
	return &closed, nil
}

func findTasks(c echo.Context, svc TaskService) (string, []model.Task, error) {
	closed, err := parseClosed(c)
	if err != nil {
		return "", nil, err
	}

	ctx := c.Request().Context()
	switch {
	case closed == nil:
		tasks, err := svc.FindAllTasks(ctx)
		return "Tasks", tasks, err
	case *closed:
		tasks, err := svc.FilterTasks(ctx, true)
		return "Closed tasks", tasks, err
	default:
		tasks, err := svc.FilterTasks(ctx, false)
		return "Open tasks", tasks, err
	}
}

func listTasks(svc TaskService) echo.HandlerFunc {
	return func(c echo.Context) error {
		title, tasks, err := findTasks(c, svc)
		if err != nil {
			return err
		}
		return c.Render(http.StatusOK, "tasks.html", tasksPage{Title: title, Tasks: tasks})
	}
}

func newTaskForm() echo.HandlerFunc {
	return func(c echo.Context) error {
		return c.Render(http.StatusOK, "task_form.html", taskFormPage{
			Title:  "New task",
			Action: "/newTask",
		})
	}
}

// renderFormError shows the form again with the reason the submission was
// rejected. Errors other than bad input are returned unchanged.
func renderFormError(c echo.Context, page taskFormPage, err error) error {
	if !errors.Is(err, model.ErrValidation) && !errors.Is(err, model.ErrPrecondition) {
		return err
	}
	page.Error = err.Error()
	return c.Render(http.StatusBadRequest, "task_form.html", page)
}

func createTask(svc TaskService) echo.HandlerFunc {
	return func(c echo.Context) error {
		form, err := bindTaskForm(c)
		page := taskFormPage{Title: "New task", Action: "/newTask", Form: form}
		if err != nil {
			return renderFormError(c, page, err)
		}

		task, err := form.ToModel()
		if err != nil {
			return renderFormError(c, page, err)
		}
		if _, err := svc.AddTask(c.Request().Context(), task); err != nil {
			return renderFormError(c, page, err)
		}
		return c.Redirect(http.StatusSeeOther, "/tasks")
	}
}

func parseID(c echo.Context) (int64, error) {
	v := strings.TrimSpace(c.FormValue("id"))
	id, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0, echo.NewHTTPError(http.StatusBadRequest, fmt.Sprintf("invalid id %q", v))
	}
	return id, nil
}

func editTaskForm(svc TaskService) echo.HandlerFunc {
	return func(c echo.Context) error {
		id, err := parseID(c)
		if err != nil {
			return err
		}

		task, found, err := svc.FindTask(c.Request().Context(), id)
		if err != nil {
			return err
		}
		if !found {
			return fmt.Errorf("task %d: %w", id, model.ErrNotFound)
		}

		return c.Render(http.StatusOK, "task_form.html", taskFormPage{
			Title:  "Update task",
			Action: "/updateTask",
			Form:   TaskFormDataFromModel(task),
		})
	}
}

func updateTask(svc TaskService) echo.HandlerFunc {
	return func(c echo.Context) error {
		form, err := bindTaskForm(c)
		page := taskFormPage{Title: "Update task", Action: "/updateTask", Form: form}
		if err != nil {
			return renderFormError(c, page, err)
		}
		if form.ID == nil {
			return renderFormError(c, page,
				fmt.Errorf("task id is required: %w", model.ErrPrecondition))
		}

		task, err := form.ToModel()
		if err != nil {
			return renderFormError(c, page, err)
		}
		if _, err := svc.UpdateTask(c.Request().Context(), task); err != nil {
			return renderFormError(c, page, err)
		}
		return c.Redirect(http.StatusSeeOther, "/tasks")
	}
}

func deleteTask(svc TaskService) echo.HandlerFunc {
	return func(c echo.Context) error {
		id, err := parseID(c)
		if err != nil {
			return err
		}
		if err := svc.DeleteTask(c.Request().Context(), id); err != nil {
			return err
		}
		return c.Redirect(http.StatusSeeOther, "/tasks")
	}
}

func getTasksJSON(svc TaskService) echo.HandlerFunc {
	return func(c echo.Context) error {
		_, tasks, err := findTasks(c, svc)
		if err != nil {
			return err
		}
		if tasks == nil {
			tasks = []model.Task{}
		}
		return c.JSON(http.StatusOK, tasks)
	}
}

func postTaskJSON(svc TaskService) echo.HandlerFunc {
	return func(c echo.Context) error {
		var in model.Task
		if err := c.Bind(&in); err != nil {
			return err
		}

		task := model.NewTask(in.Name, in.Description, in.TargetEnd, in.ExtraInformation, in.Closed)
		task.ID = in.ID

		added, err := svc.AddTask(c.Request().Context(), task)
		if err != nil {
			return err
		}
		return c.JSON(http.StatusCreated, added)
	}
}
