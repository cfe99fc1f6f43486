package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net"
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hrconsole/internal/db"
	"hrconsole/internal/domain"
	"hrconsole/internal/engine"
	"hrconsole/internal/migrate"
)

type testServer struct {
	URL    string
	client *http.Client
	close  func()
}

func (s *testServer) Client() *http.Client { return s.client }
func (s *testServer) Close()               { s.close() }

func newTestServer(t *testing.T) (*testServer, func()) {
	t.Helper()
	workspace := t.TempDir()
	conn, err := db.Open(db.Config{Workspace: workspace})
	require.NoError(t, err, "open db")
	_, err = migrate.Migrate(conn)
	require.NoError(t, err, "migrate")
	e := engine.New(conn)
	e.Now = func() time.Time { return time.Date(2024, 3, 15, 9, 0, 0, 0, time.UTC) }
	handler, err := New(Config{Engine: e, Logger: slog.New(slog.NewTextHandler(io.Discard, nil))})
	require.NoError(t, err, "build handler")
	ln, err := net.Listen("tcp4", "127.0.0.1:0")
	require.NoError(t, err, "listen")
	srv := &http.Server{Handler: handler}
	go srv.Serve(ln)
	testSrv := &testServer{
		URL:    "http://" + ln.Addr().String(),
		client: &http.Client{},
		close: func() {
			srv.Shutdown(context.Background())
			ln.Close()
			conn.Close()
		},
	}
	return testSrv, func() { testSrv.Close() }
}

func doJSON(t *testing.T, client *http.Client, method, url string, body any) (*http.Response, []byte) {
	t.Helper()
	var reader io.Reader = bytes.NewReader(nil)
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err, "marshal body")
		reader = bytes.NewReader(b)
	}
	req, err := http.NewRequest(method, url, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")
	res, err := client.Do(req)
	require.NoError(t, err)
	defer res.Body.Close()
	data, err := io.ReadAll(res.Body)
	require.NoError(t, err)
	return res, data
}

func createEmployee(t *testing.T, srv *testServer, code, name string) domain.Employee {
	t.Helper()
	res, data := doJSON(t, srv.Client(), http.MethodPost, srv.URL+"/api/employees", map[string]any{
		"employee_code": code,
		"full_name":     name,
		"department":    "IT",
	})
	require.Equal(t, http.StatusCreated, res.StatusCode, string(data))
	var emp domain.Employee
	require.NoError(t, json.Unmarshal(data, &emp))
	return emp
}

func errorMessage(t *testing.T, data []byte) string {
	t.Helper()
	var body struct {
		Error string `json:"error"`
	}
	require.NoError(t, json.Unmarshal(data, &body), string(data))
	return body.Error
}

func TestEmployeeSearch(t *testing.T) {
	srv, cleanup := newTestServer(t)
	defer cleanup()

	createEmployee(t, srv, "NV001", "Nguyen Van A")
	createEmployee(t, srv, "NV002", "Tran Thi B")
	createEmployee(t, srv, "NV003", "Nguyen Thi C")

	res, data := doJSON(t, srv.Client(), http.MethodGet, srv.URL+"/api/employees?search=Nguyen", nil)
	require.Equal(t, http.StatusOK, res.StatusCode, string(data))
	var found []domain.Employee
	require.NoError(t, json.Unmarshal(data, &found))
	require.Len(t, found, 2)
	assert.Equal(t, "Nguyen Thi C", found[0].FullName, "newest first")
	assert.Equal(t, "Nguyen Van A", found[1].FullName)

	res, data = doJSON(t, srv.Client(), http.MethodGet, srv.URL+"/api/employees?search=nobody", nil)
	require.Equal(t, http.StatusOK, res.StatusCode)
	assert.JSONEq(t, `[]`, string(data))

	res, data = doJSON(t, srv.Client(), http.MethodGet, srv.URL+"/api/employees?search=", nil)
	require.Equal(t, http.StatusOK, res.StatusCode)
	require.NoError(t, json.Unmarshal(data, &found))
	assert.Len(t, found, 3)
}

func TestContractCreateReturnsEmployeeName(t *testing.T) {
	srv, cleanup := newTestServer(t)
	defer cleanup()
	emp := createEmployee(t, srv, "NV003", "Nguyen Van A")

	res, data := doJSON(t, srv.Client(), http.MethodPost, srv.URL+"/api/contracts", map[string]any{
		"employee_id":   emp.ID,
		"contract_code": "HD-001",
		"contract_type": "HĐ chính thức",
		"start_date":    nil,
		"end_date":      nil,
		"status":        "Đang hiệu lực",
	})
	require.Equal(t, http.StatusCreated, res.StatusCode, string(data))
	var c domain.Contract
	require.NoError(t, json.Unmarshal(data, &c))
	assert.NotZero(t, c.ID)
	assert.Equal(t, "Nguyen Van A", c.EmployeeName)
	assert.Nil(t, c.StartDate)

	res, data = doJSON(t, srv.Client(), http.MethodPost, srv.URL+"/api/contracts", map[string]any{
		"employee_id":   emp.ID,
		"contract_code": "HD-001",
	})
	assert.Equal(t, http.StatusConflict, res.StatusCode)
	assert.Contains(t, errorMessage(t, data), "HD-001")
}

func TestAssetRules(t *testing.T) {
	srv, cleanup := newTestServer(t)
	defer cleanup()
	emp := createEmployee(t, srv, "NV001", "Nguyen Van A")

	res, data := doJSON(t, srv.Client(), http.MethodPost, srv.URL+"/api/assets", map[string]any{
		"asset_name":    "Laptop",
		"employee_id":   emp.ID,
		"date_assigned": nil,
	})
	require.Equal(t, http.StatusBadRequest, res.StatusCode, string(data))
	assert.Equal(t, "date required when assigning to holder", errorMessage(t, data))

	res, data = doJSON(t, srv.Client(), http.MethodPost, srv.URL+"/api/assets", map[string]any{
		"asset_name":    "Monitor",
		"employee_id":   nil,
		"date_assigned": "2024-03-01",
	})
	require.Equal(t, http.StatusCreated, res.StatusCode, string(data))
	var a domain.Asset
	require.NoError(t, json.Unmarshal(data, &a))
	assert.Nil(t, a.DateAssigned)
	assert.Nil(t, a.EmployeeName)
	assert.Equal(t, "Trong kho", a.Status)
}

func TestTrainingScoreRange(t *testing.T) {
	srv, cleanup := newTestServer(t)
	defer cleanup()
	emp := createEmployee(t, srv, "NV001", "Nguyen Van A")

	body := map[string]any{
		"employee_id": emp.ID,
		"course_name": "Safety",
		"start_date":  "2024-01-01",
		"end_date":    "2024-01-02",
		"score":       150,
	}
	res, data := doJSON(t, srv.Client(), http.MethodPost, srv.URL+"/api/training", body)
	require.Equal(t, http.StatusBadRequest, res.StatusCode, string(data))
	assert.Equal(t, "score must be 0-100", errorMessage(t, data))

	body["score"] = nil
	res, data = doJSON(t, srv.Client(), http.MethodPost, srv.URL+"/api/training", body)
	require.Equal(t, http.StatusCreated, res.StatusCode, string(data))
	var tr domain.Training
	require.NoError(t, json.Unmarshal(data, &tr))
	assert.Nil(t, tr.Score)
}

func TestUpdateAndDelete(t *testing.T) {
	srv, cleanup := newTestServer(t)
	defer cleanup()
	emp := createEmployee(t, srv, "NV001", "Nguyen Van A")

	res, data := doJSON(t, srv.Client(), http.MethodPut, srv.URL+"/api/employees/"+itoa(emp.ID), map[string]any{
		"employee_code": "NV001",
		"full_name":     "Nguyen Van An",
	})
	require.Equal(t, http.StatusOK, res.StatusCode, string(data))
	var updated domain.Employee
	require.NoError(t, json.Unmarshal(data, &updated))
	assert.Equal(t, "Nguyen Van An", updated.FullName)
	assert.Equal(t, emp.ID, updated.ID)

	res, data = doJSON(t, srv.Client(), http.MethodDelete, srv.URL+"/api/employees/"+itoa(emp.ID), nil)
	require.Equal(t, http.StatusNoContent, res.StatusCode, string(data))
	assert.Empty(t, data)

	res, data = doJSON(t, srv.Client(), http.MethodDelete, srv.URL+"/api/employees/"+itoa(emp.ID), nil)
	require.Equal(t, http.StatusNotFound, res.StatusCode)
	assert.Equal(t, "employee "+itoa(emp.ID)+" not found", errorMessage(t, data))
}

func TestDeleteReferencedEmployeeConflicts(t *testing.T) {
	srv, cleanup := newTestServer(t)
	defer cleanup()
	emp := createEmployee(t, srv, "NV001", "Nguyen Van A")
	res, data := doJSON(t, srv.Client(), http.MethodPost, srv.URL+"/api/attendance", map[string]any{
		"employee_id": emp.ID,
	})
	require.Equal(t, http.StatusCreated, res.StatusCode, string(data))
	var att domain.Attendance
	require.NoError(t, json.Unmarshal(data, &att))
	assert.Equal(t, "2024-03-15", att.Date)
	assert.Equal(t, "Đi làm", att.Status)

	res, data = doJSON(t, srv.Client(), http.MethodDelete, srv.URL+"/api/employees/"+itoa(emp.ID), nil)
	require.Equal(t, http.StatusConflict, res.StatusCode)
	assert.Contains(t, errorMessage(t, data), "1 attendance")
}

func TestMalformedBodyUsesErrorEnvelope(t *testing.T) {
	srv, cleanup := newTestServer(t)
	defer cleanup()

	res, data := doJSON(t, srv.Client(), http.MethodPost, srv.URL+"/api/employees", map[string]any{
		"employee_code": 42,
	})
	assert.Equal(t, http.StatusUnprocessableEntity, res.StatusCode)
	assert.NotEmpty(t, errorMessage(t, data))
}

func TestEventsAreRecorded(t *testing.T) {
	srv, cleanup := newTestServer(t)
	defer cleanup()
	emp := createEmployee(t, srv, "NV001", "Nguyen Van A")
	doJSON(t, srv.Client(), http.MethodDelete, srv.URL+"/api/employees/"+itoa(emp.ID), nil)

	res, data := doJSON(t, srv.Client(), http.MethodGet, srv.URL+"/api/events?limit=10", nil)
	require.Equal(t, http.StatusOK, res.StatusCode, string(data))
	var evts []domain.Event
	require.NoError(t, json.Unmarshal(data, &evts))
	require.Len(t, evts, 2)
	assert.Equal(t, "employee.deleted", evts[0].Type)
	assert.Equal(t, "employee.created", evts[1].Type)
	assert.Equal(t, emp.ID, evts[1].EntityID)
	assert.NotEmpty(t, evts[1].RequestID)
	assert.Equal(t, "NV001", evts[1].Payload["employee_code"])
}

func TestRequestIDHeader(t *testing.T) {
	srv, cleanup := newTestServer(t)
	defer cleanup()
	res, _ := doJSON(t, srv.Client(), http.MethodGet, srv.URL+"/api/health", nil)
	assert.Equal(t, http.StatusOK, res.StatusCode)
	assert.NotEmpty(t, res.Header.Get("X-Request-Id"))
}

func itoa(n int64) string {
	b, _ := json.Marshal(n)
	return string(b)
}

func TestBodiesCarryNoSchemaLink(t *testing.T) {
	srv, cleanup := newTestServer(t)
	defer cleanup()
	emp := createEmployee(t, srv, "NV001", "Nguyen Van A")

	res, data := doJSON(t, srv.Client(), http.MethodPut, srv.URL+"/api/employees/"+itoa(emp.ID), map[string]any{
		"employee_code": "NV001",
		"full_name":     "Nguyen Van An",
	})
	require.Equal(t, http.StatusOK, res.StatusCode, string(data))
	assert.NotContains(t, string(data), "$schema")

	res, data = doJSON(t, srv.Client(), http.MethodPost, srv.URL+"/api/employees", map[string]any{
		"employee_code": "NV001",
		"full_name":     "Duplicate",
	})
	require.Equal(t, http.StatusConflict, res.StatusCode, string(data))
	assert.NotContains(t, string(data), "$schema")

	res, data = doJSON(t, srv.Client(), http.MethodGet, srv.URL+"/api/employees", nil)
	require.Equal(t, http.StatusOK, res.StatusCode)
	assert.NotContains(t, string(data), "$schema")
}
