package console

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"hrconsole/internal/listform"
	"hrconsole/internal/schema"
	hrsdk "hrconsole/sdk/go"
)

type memCollection struct {
	resource string
	mu       sync.Mutex
	items    []hrsdk.Record
	next     int64
}

func (m *memCollection) Resource() string { return m.resource }

func (m *memCollection) List(_ context.Context, term string) ([]hrsdk.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []hrsdk.Record
	for _, r := range m.items {
		if term == "" || strings.Contains(r.String("full_name"), term) {
			out = append(out, r.Clone())
		}
	}
	return out, nil
}

func (m *memCollection) Create(_ context.Context, body any) (hrsdk.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.next++
	rec := hrsdk.Record{"id": m.next}
	for k, v := range body.(map[string]any) {
		rec[k] = v
	}
	m.items = append([]hrsdk.Record{rec}, m.items...)
	return rec.Clone(), nil
}

func (m *memCollection) Update(_ context.Context, id int64, body any) (hrsdk.Record, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, r := range m.items {
		if rid, _ := r.ID(); rid == id {
			rec := hrsdk.Record{"id": id}
			for k, v := range body.(map[string]any) {
				rec[k] = v
			}
			m.items[i] = rec
			return rec.Clone(), nil
		}
	}
	return nil, &hrsdk.Failure{Kind: hrsdk.ServerError, StatusCode: 404, Message: "not found"}
}

func (m *memCollection) Delete(_ context.Context, id int64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i, r := range m.items {
		if rid, _ := r.ID(); rid == id {
			m.items = append(m.items[:i], m.items[i+1:]...)
			return nil
		}
	}
	return &hrsdk.Failure{Kind: hrsdk.ServerError, StatusCode: 404, Message: "not found"}
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestRenderListEmptyState(t *testing.T) {
	var buf bytes.Buffer
	RenderList(&buf, schema.Employees(), nil)
	assert.Equal(t, EmptyMessage+"\n", buf.String())
}

func TestRenderListFormatsDates(t *testing.T) {
	s := schema.Contracts()
	var buf bytes.Buffer
	RenderList(&buf, s, []hrsdk.Record{{
		"id":            int64(7),
		"employee_id":   int64(3),
		"employee_name": "Nguyen Van A",
		"contract_code": "HD-001",
		"start_date":    "2024-01-01T00:00:00.000Z",
		"end_date":      nil,
	}})
	out := buf.String()
	assert.Contains(t, out, "Nguyen Van A")
	assert.Contains(t, out, "2024-01-01")
	assert.NotContains(t, out, "T00:00")
	assert.Equal(t, "Employee", ColumnLabel(s, "employee_name"))
	assert.Equal(t, "Contract code", ColumnLabel(s, "contract_code"))
}

func TestRenderDraftShowsReferenceLabel(t *testing.T) {
	s := schema.Assets()
	st := listform.State{
		Mode:    listform.Creating,
		Draft:   schema.Draft{"asset_name": "Laptop", "employee_id": "3"},
		Options: []listform.ReferenceOption{{Value: "3", Label: "NV003 - Nguyen Van A"}},
	}
	var buf bytes.Buffer
	RenderDraft(&buf, s, st)
	assert.Contains(t, buf.String(), "NV003 - Nguyen Van A")
	assert.Contains(t, buf.String(), "Trong kho | Đang sử dụng")
}

func TestShellSession(t *testing.T) {
	coll := &memCollection{resource: "employees"}
	script := strings.Join([]string{
		"set employee_code NV001",
		"submit",
		"set full_name Nguyen Van A",
		"submit",
		"delete 1",
		"n",
		"edit 1",
		"set full_name Nguyen Van An",
		"submit",
		"delete 1",
		"yes",
		"bogus",
		"quit",
	}, "\n") + "\n"
	var out bytes.Buffer
	sh := NewShell(strings.NewReader(script), &out, false)
	ctrl := listform.New(schema.Employees(), coll, append(sh.Options(), listform.WithLogger(quietLogger()))...)

	require.NoError(t, sh.Run(context.Background(), ctrl))

	text := out.String()
	assert.Contains(t, text, EmptyMessage)
	assert.Contains(t, text, "error: required: full_name")
	assert.Contains(t, text, "saved")
	assert.Contains(t, text, "delete employee 1 (NV001)? [y/N]")
	assert.Contains(t, text, "kept")
	assert.Contains(t, text, "employees[edit 1]> ")
	assert.Contains(t, text, "Nguyen Van An")
	assert.Contains(t, text, "deleted employee 1")
	assert.Contains(t, text, `unknown command "bogus"`)
	assert.Empty(t, ctrl.Items())
	assert.Equal(t, listform.Creating, ctrl.Mode())
}

func TestShellAutoYesAndEOF(t *testing.T) {
	coll := &memCollection{resource: "employees", next: 1, items: []hrsdk.Record{{"id": int64(1), "employee_code": "NV001", "full_name": "A"}}}
	var out bytes.Buffer
	sh := NewShell(strings.NewReader("delete 1\n"), &out, true)
	ctrl := listform.New(schema.Employees(), coll, append(sh.Options(), listform.WithLogger(quietLogger()))...)

	require.NoError(t, sh.Run(context.Background(), ctrl))
	assert.Contains(t, out.String(), "deleted employee 1")
	assert.NotContains(t, out.String(), "[y/N]")
	assert.Empty(t, coll.items)
}

func TestPromptDeclinesByDefault(t *testing.T) {
	s := schema.Employees()
	rec := hrsdk.Record{"id": int64(2), "employee_code": "NV002"}
	var out bytes.Buffer
	confirm := Prompt(s, strings.NewReader("\nY\n"), &out)
	assert.False(t, confirm(rec))
	assert.True(t, confirm(rec))
	assert.False(t, confirm(rec), "end of input declines")
	assert.Contains(t, out.String(), "delete employee 2 (NV002)? [y/N] ")
}

type downCollection struct{ memCollection }

func (d *downCollection) List(context.Context, string) ([]hrsdk.Record, error) {
	return nil, &hrsdk.Failure{Kind: hrsdk.FetchFailed, Message: "could not load employees"}
}

func TestShellReportsMountFailure(t *testing.T) {
	coll := &downCollection{memCollection{resource: "employees"}}
	var out bytes.Buffer
	sh := NewShell(strings.NewReader("quit\n"), &out, false)
	ctrl := listform.New(schema.Employees(), coll, append(sh.Options(), listform.WithLogger(quietLogger()))...)

	require.NoError(t, sh.Run(context.Background(), ctrl))
	assert.Contains(t, out.String(), "error: could not load employees")
	require.NotNil(t, ctrl.LastError())
	assert.Equal(t, hrsdk.FetchFailed, ctrl.LastError().Kind)
}
