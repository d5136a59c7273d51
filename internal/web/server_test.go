package web

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strconv"
	"strings"
	"testing"
	"time"

	"github.com/bytedance/sonic"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nhle/todo/internal/model"
	"github.com/nhle/todo/internal/service"
	"github.com/nhle/todo/tests/testutil"
)

type testServer struct {
	e    *echo.Echo
	svcs *service.Services
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()

	st := testutil.NewTestStore(t)
	logger := testutil.NewTestLogger()
	svcs := service.New(st, logger)

	e, err := NewServer(Deps{
		Tasks:        svcs.Tasks,
		Addresses:    svcs.Addresses,
		Appointments: svcs.Appointments,
		DB:           st,
		Log:          logger,
	})
	require.NoError(t, err)

	return &testServer{e: e, svcs: svcs}
}

func (s *testServer) do(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	s.e.ServeHTTP(rec, req)
	return rec
}

func (s *testServer) get(target string) *httptest.ResponseRecorder {
	return s.do(httptest.NewRequest(http.MethodGet, target, nil))
}

func (s *testServer) postForm(target string, form url.Values) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(form.Encode()))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationForm)
	return s.do(req)
}

func (s *testServer) postJSON(target, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, target, strings.NewReader(body))
	req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	return s.do(req)
}

func (s *testServer) addTask(t *testing.T, name string, closed bool) model.Task {
	t.Helper()
	task, err := s.svcs.Tasks.AddTask(context.Background(),
		model.NewTask(name, name+" doen", nil, nil, closed))
	require.NoError(t, err)
	return task
}

func TestListTasksTitles(t *testing.T) {
	s := newTestServer(t)
	s.addTask(t, "afwassen", false)
	s.addTask(t, "strijken", true)

	tests := []struct {
		target  string
		title   string
		present []string
		absent  []string
	}{
		{"/tasks", "<h1>Tasks</h1>", []string{"afwassen", "strijken"}, nil},
		{"/tasks?closed=false", "<h1>Open tasks</h1>", []string{"afwassen"}, []string{"strijken"}},
		{"/tasks?closed=true", "<h1>Closed tasks</h1>", []string{"strijken"}, []string{"afwassen"}},
	}
	for _, tt := range tests {
		rec := s.get(tt.target)
		require.Equal(t, http.StatusOK, rec.Code, tt.target)
		body := rec.Body.String()
		assert.Contains(t, body, tt.title)
		for _, name := range tt.present {
			assert.Contains(t, body, name, tt.target)
		}
		for _, name := range tt.absent {
			assert.NotContains(t, body, name, tt.target)
		}
	}
}

func TestListTasksRejectsMalformedClosed(t *testing.T) {
	s := newTestServer(t)

	rec := s.get("/tasks?closed=misschien")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestCreateTaskRedirects(t *testing.T) {
	s := newTestServer(t)

	rec := s.postForm("/newTask", url.Values{
		"name":             {"ramen lappen"},
		"description":      {"alle ramen beneden"},
		"targetEnd":        {"2025-04-01T10:00"},
		"extraInformation": {""},
	})
	require.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/tasks", rec.Header().Get(echo.HeaderLocation))

	tasks, err := s.svcs.Tasks.FindAllTasks(context.Background())
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, "ramen lappen", tasks[0].Name)
	assert.Nil(t, tasks[0].ExtraInformation)
	require.NotNil(t, tasks[0].TargetEnd)
	assert.True(t, tasks[0].TargetEnd.Equal(time.Date(2025, 4, 1, 10, 0, 0, 0, time.UTC)))
	assert.False(t, tasks[0].Closed)
}

func TestCreateTaskInvalidRerendersForm(t *testing.T) {
	s := newTestServer(t)

	rec := s.postForm("/newTask", url.Values{"name": {""}, "description": {"iets"}})
	require.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "name is required")
	assert.Contains(t, rec.Body.String(), "iets")

	tasks, err := s.svcs.Tasks.FindAllTasks(context.Background())
	require.NoError(t, err)
	assert.Empty(t, tasks)
}

func TestEditTaskForm(t *testing.T) {
	s := newTestServer(t)
	task := s.addTask(t, "koken", false)

	rec := s.get("/updateTask?id=" + idString(task))
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `value="koken"`)
	assert.Contains(t, rec.Body.String(), `name="id" value="`+idString(task)+`"`)

	rec = s.get("/updateTask?id=9999")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = s.get("/updateTask?id=abc")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestUpdateTaskForm(t *testing.T) {
	s := newTestServer(t)
	task := s.addTask(t, "koken", false)

	rec := s.postForm("/updateTask", url.Values{
		"id":          {idString(task)},
		"name":        {"koken"},
		"description": {"pasta maken"},
		"closed":      {"true"},
	})
	require.Equal(t, http.StatusSeeOther, rec.Code)

	updated, found, err := s.svcs.Tasks.FindTask(context.Background(), *task.ID)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, "pasta maken", updated.Description)
	assert.True(t, updated.Closed)
}

func TestUpdateTaskFormRejectsRename(t *testing.T) {
	s := newTestServer(t)
	task := s.addTask(t, "koken", false)

	rec := s.postForm("/updateTask", url.Values{
		"id":          {idString(task)},
		"name":        {"bakken"},
		"description": {"taart"},
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.postForm("/updateTask", url.Values{"name": {"koken"}, "description": {"x"}})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDeleteTaskForm(t *testing.T) {
	s := newTestServer(t)
	task := s.addTask(t, "koken", false)

	rec := s.postForm("/deleteTask?id="+idString(task), nil)
	require.Equal(t, http.StatusSeeOther, rec.Code)

	tasks, err := s.svcs.Tasks.FindAllTasks(context.Background())
	require.NoError(t, err)
	assert.Empty(t, tasks)
}

func TestTasksJSONFieldNames(t *testing.T) {
	s := newTestServer(t)

	rec := s.get("/tasks.json")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "[]", strings.TrimSpace(rec.Body.String()))

	rec = s.postJSON("/tasks.json",
		`{"name":"fietsen","description":"naar het werk","targetEndOption":"2025-05-01T08:00:00Z","extraInformationOption":null,"closed":false}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = s.get("/tasks.json?closed=false")
	require.Equal(t, http.StatusOK, rec.Code)

	var got []map[string]interface{}
	require.NoError(t, sonic.Unmarshal(rec.Body.Bytes(), &got))
	require.Len(t, got, 1)
	assert.Equal(t, "fietsen", got[0]["name"])
	assert.Equal(t, "2025-05-01T08:00:00Z", got[0]["targetEndOption"])
	assert.Contains(t, got[0], "idOption")
	assert.Contains(t, got[0], "extraInformationOption")
	assert.Nil(t, got[0]["extraInformationOption"])
}

func TestPostTaskJSONErrors(t *testing.T) {
	s := newTestServer(t)

	rec := s.postJSON("/tasks.json", `{"name":`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), `"message"`)

	rec = s.postJSON("/tasks.json", `{"idOption":4,"name":"a","description":"b"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.postJSON("/tasks.json", `{"name":"a","description":" "}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAppointmentsJSON(t *testing.T) {
	s := newTestServer(t)

	rec := s.postJSON("/addresses.json",
		`{"addressName":"kantoor","addressLines":["Dam 1",""],"zipCode":"1012 JS","city":"Amsterdam","countryCode":"NL"}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = s.postJSON("/appointments.json",
		`{"name":"vergadering","start":"2025-03-10T09:00:00Z","end":"2025-03-10T10:00:00Z","addressNameOption":"kantoor","extraInformationOption":null}`)
	require.Equal(t, http.StatusCreated, rec.Code)

	var added map[string]interface{}
	require.NoError(t, sonic.Unmarshal(rec.Body.Bytes(), &added))
	address, ok := added["addressOption"].(map[string]interface{})
	require.True(t, ok, "addressOption missing in %s", rec.Body.String())
	assert.Equal(t, "kantoor", address["addressName"])
	assert.Equal(t, []interface{}{"Dam 1"}, address["addressLines"])

	rec = s.get("/appointments.json?start=2025-03-10T00:00:00Z&end=2025-03-11T00:00:00Z")
	require.Equal(t, http.StatusOK, rec.Code)
	var between []map[string]interface{}
	require.NoError(t, sonic.Unmarshal(rec.Body.Bytes(), &between))
	assert.Len(t, between, 1)

	rec = s.get("/appointments.json?start=2025-03-11T00:00:00Z&end=2025-03-12T00:00:00Z")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "[]", strings.TrimSpace(rec.Body.String()))

	rec = s.get("/addresses.json")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `"zipCode":"1012 JS"`)
}

func TestAddressesJSONFilterByName(t *testing.T) {
	s := newTestServer(t)

	for _, name := range []string{"kantoor", "thuis"} {
		rec := s.postJSON("/addresses.json",
			`{"addressName":"`+name+`","addressLines":["Dam 1"],"zipCode":"1012 JS","city":"Amsterdam","countryCode":"NL"}`)
		require.Equal(t, http.StatusCreated, rec.Code)
	}

	rec := s.get("/addresses.json?name=thuis")
	require.Equal(t, http.StatusOK, rec.Code)

	var got []map[string]interface{}
	require.NoError(t, sonic.Unmarshal(rec.Body.Bytes(), &got))
	require.Len(t, got, 1)
	assert.Equal(t, "thuis", got[0]["addressName"])

	rec = s.get("/addresses.json?name=elders")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "[]", strings.TrimSpace(rec.Body.String()))

	rec = s.get("/addresses.json")
	require.NoError(t, sonic.Unmarshal(rec.Body.Bytes(), &got))
	assert.Len(t, got, 2)
}

func TestAppointmentsJSONRejectsHalfRange(t *testing.T) {
	s := newTestServer(t)

	for _, target := range []string{
		"/appointments.json?start=2025-03-10T00:00:00Z",
		"/appointments.json?end=2025-03-10T00:00:00Z",
		"/appointments.json?start=gisteren&end=2025-03-10T00:00:00Z",
	} {
		rec := s.get(target)
		assert.Equal(t, http.StatusBadRequest, rec.Code, target)

		var resp errorResponse
		require.NoError(t, sonic.Unmarshal(rec.Body.Bytes(), &resp), target)
		assert.NotEmpty(t, resp.Message, target)
	}
}

func TestPostAppointmentUnknownAddress(t *testing.T) {
	s := newTestServer(t)

	rec := s.postJSON("/appointments.json",
		`{"name":"x","start":"2025-03-10T09:00:00Z","end":"2025-03-10T10:00:00Z","addressNameOption":"nergens"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestHealthz(t *testing.T) {
	s := newTestServer(t)

	rec := s.get("/healthz")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "ok")
}

type failingPinger struct{}

func (failingPinger) Ping(context.Context) error { return errors.New("database is locked") }

type failingTasks struct {
	TaskService
}

func (failingTasks) FindAllTasks(context.Context) ([]model.Task, error) {
	return nil, errors.New("disk I/O error")
}

func TestUnexpectedErrorsAreHidden(t *testing.T) {
	logger := testutil.NewTestLogger()
	e, err := NewServer(Deps{Tasks: failingTasks{}, DB: failingPinger{}, Log: logger})
	require.NoError(t, err)

	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/tasks.json", nil))
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.NotContains(t, rec.Body.String(), "disk I/O error")

	rec = httptest.NewRecorder()
	e.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestRequestIDHeader(t *testing.T) {
	s := newTestServer(t)

	rec := s.get("/tasks.json")
	assert.Len(t, rec.Header().Get(echo.HeaderXRequestID), 36)
}

func idString(task model.Task) string {
	return strconv.FormatInt(*task.ID, 10)
}
