// Package web serves the task pages and the JSON endpoints for tasks,
// addresses and appointments over echo.
package web

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"html/template"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/bytedance/sonic"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	log "github.com/sirupsen/logrus"

	"github.com/nhle/todo/internal/model"
)

//go:embed templates/*.html
var templateFS embed.FS

// TaskService is the part of the task service the handlers use.
type TaskService interface {
	FindAllTasks(ctx context.Context) ([]model.Task, error)
	FilterTasks(ctx context.Context, closed bool) ([]model.Task, error)
	FindTask(ctx context.Context, id int64) (model.Task, bool, error)
	AddTask(ctx context.Context, task model.Task) (model.Task, error)
	UpdateTask(ctx context.Context, task model.Task) (model.Task, error)
	DeleteTask(ctx context.Context, id int64) error
}

// AddressService is the part of the address service the handlers use.
type AddressService interface {
	FindAllAddresses(ctx context.Context) ([]model.Address, error)
	FindAddressesByName(ctx context.Context, name string) ([]model.Address, error)
	AddAddress(ctx context.Context, address model.Address) (model.Address, error)
}

// AppointmentService is the part of the appointment service the handlers use.
type AppointmentService interface {
	FindAllAppointments(ctx context.Context) ([]model.Appointment, error)
	FindAppointmentsBetween(ctx context.Context, start, end time.Time) ([]model.Appointment, error)
	AddAppointment(ctx context.Context, n model.NewAppointment) (model.Appointment, error)
}

// Pinger reports whether the database answers.
type Pinger interface {
	Ping(ctx context.Context) error
}

// Deps holds what the handlers need.
type Deps struct {
	Tasks        TaskService
	Addresses    AddressService
	Appointments AppointmentService
	DB           Pinger
	Log          *log.Logger
}

// NewServer returns an echo instance with the JSON serializer, template
// renderer, error handler and middleware installed and all routes registered.
func NewServer(d Deps) (*echo.Echo, error) {
	renderer, err := newTemplateRenderer()
	if err != nil {
		return nil, err
	}

	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.JSONSerializer = sonicSerializer{}
	e.Renderer = renderer
	e.HTTPErrorHandler = errorHandler(d.Log)

	e.Use(middleware.Recover())
	e.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{
		Generator: uuid.NewString,
	}))
	e.Use(requestLogger(d.Log))

	Register(e, d)
	return e, nil
}

// Register wires up all routes on the provided Echo instance.
func Register(e *echo.Echo, d Deps) {
	e.GET("/", func(c echo.Context) error {
		return c.Redirect(http.StatusFound, "/tasks")
	})

	e.GET("/tasks", listTasks(d.Tasks))
	e.GET("/newTask", newTaskForm())
	e.POST("/newTask", createTask(d.Tasks))
	e.GET("/updateTask", editTaskForm(d.Tasks))
	e.POST("/updateTask", updateTask(d.Tasks))
	e.POST("/deleteTask", deleteTask(d.Tasks))

	e.GET("/tasks.json", getTasksJSON(d.Tasks))
	e.POST("/tasks.json", postTaskJSON(d.Tasks))
	e.GET("/addresses.json", getAddressesJSON(d.Addresses))
	e.POST("/addresses.json", postAddressJSON(d.Addresses))
	e.GET("/appointments.json", getAppointmentsJSON(d.Appointments))
	e.POST("/appointments.json", postAppointmentJSON(d.Appointments))

	e.GET("/healthz", healthz(d.DB))
}

func healthz(db Pinger) echo.HandlerFunc {
	return func(c echo.Context) error {
		if err := db.Ping(c.Request().Context()); err != nil {
			c.Logger().Error(err)
			return c.JSON(http.StatusServiceUnavailable, map[string]string{"status": "unavailable"})
		}
		return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
	}
}

type templateRenderer struct {
	templates *template.Template
}

func newTemplateRenderer() (*templateRenderer, error) {
	t, err := template.New("").Funcs(template.FuncMap{
		"formatTime": formatTime,
	}).ParseFS(templateFS, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("parsing templates: %w", err)
	}
	return &templateRenderer{templates: t}, nil
}

// Render implements echo.Renderer.
func (r *templateRenderer) Render(w io.Writer, name string, data interface{}, _ echo.Context) error {
	return r.templates.ExecuteTemplate(w, name, data)
}

func formatTime(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.UTC().Format("2006-01-02 15:04")
}

// sonicSerializer replaces echo's encoding/json serializer.
type sonicSerializer struct{}

func (sonicSerializer) Serialize(c echo.Context, i interface{}, indent string) error {
	enc := sonic.ConfigStd.NewEncoder(c.Response())
	if indent != "" {
		enc.SetIndent("", indent)
	}
	return enc.Encode(i)
}

func (sonicSerializer) Deserialize(c echo.Context, i interface{}) error {
	if err := sonic.ConfigStd.NewDecoder(c.Request().Body).Decode(i); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid body").SetInternal(err)
	}
	return nil
}

type errorResponse struct {
	Message string `json:"message"`
}

// errorHandler maps errors to status codes. Bad input answers 400, a
// missing entity 404 and anything unexpected 500, which is also logged.
// JSON routes answer with an errorResponse, the rest with plain text.
func errorHandler(logger *log.Logger) echo.HTTPErrorHandler {
	return func(err error, c echo.Context) {
		if c.Response().Committed {
			return
		}

		code, msg := statusFor(err)
		if code >= http.StatusInternalServerError {
			logger.WithFields(log.Fields{
				"method":     c.Request().Method,
				"path":       c.Request().URL.Path,
				"request_id": c.Response().Header().Get(echo.HeaderXRequestID),
			}).WithError(err).Error("request failed")
		}

		var werr error
		switch {
		case c.Request().Method == http.MethodHead:
			werr = c.NoContent(code)
		case strings.HasSuffix(c.Request().URL.Path, ".json"):
			werr = c.JSON(code, errorResponse{Message: msg})
		default:
			werr = c.String(code, msg)
		}
		if werr != nil {
			logger.WithError(werr).Warn("writing error response")
		}
	}
}

func statusFor(err error) (int, string) {
	var he *echo.HTTPError
	switch {
	case errors.As(err, &he):
		return he.Code, fmt.Sprint(he.Message)
	case errors.Is(err, model.ErrValidation), errors.Is(err, model.ErrPrecondition):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, model.ErrNotFound):
		return http.StatusNotFound, err.Error()
	default:
		return http.StatusInternalServerError, http.StatusText(http.StatusInternalServerError)
	}
}

func requestLogger(logger *log.Logger) echo.MiddlewareFunc {
	return middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogMethod:    true,
		LogURI:       true,
		LogStatus:    true,
		LogLatency:   true,
		LogRequestID: true,
		LogError:     true,
		HandleError:  true,
		LogValuesFunc: func(_ echo.Context, v middleware.RequestLoggerValues) error {
			entry := logger.WithFields(log.Fields{
				"method":     v.Method,
				"uri":        v.URI,
				"status":     v.Status,
				"latency":    v.Latency,
				"request_id": v.RequestID,
			})
			if v.Error != nil {
				entry = entry.WithError(v.Error)
			}
			entry.Info("request")
			return nil
		},
	})
}
