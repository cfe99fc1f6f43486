package sheet

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"hrconsole/internal/listform"
	"hrconsole/internal/schema"
	hrsdk "hrconsole/sdk/go"
)

type recordingCollection struct {
	resource string
	next     int64
	created  []map[string]any
	updated  map[int64]map[string]any
}

func (c *recordingCollection) Resource() string { return c.resource }

func (c *recordingCollection) List(context.Context, string) ([]hrsdk.Record, error) {
	return []hrsdk.Record{}, nil
}

func (c *recordingCollection) Create(_ context.Context, body any) (hrsdk.Record, error) {
	c.next++
	m := body.(map[string]any)
	c.created = append(c.created, m)
	rec := hrsdk.Record{"id": c.next}
	for k, v := range m {
		rec[k] = v
	}
	return rec, nil
}

func (c *recordingCollection) Update(_ context.Context, id int64, body any) (hrsdk.Record, error) {
	if c.updated == nil {
		c.updated = map[int64]map[string]any{}
	}
	m := body.(map[string]any)
	c.updated[id] = m
	rec := hrsdk.Record{"id": id}
	for k, v := range m {
		rec[k] = v
	}
	return rec, nil
}

func (c *recordingCollection) Delete(context.Context, int64) error { return nil }

func newController(s *schema.Schema, coll listform.Collection) *listform.Controller {
	return listform.New(s, coll, listform.WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
}

func workbook(t *testing.T, rows [][]any) *bytes.Buffer {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	for i, r := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		require.NoError(t, err)
		row := r
		require.NoError(t, f.SetSheetRow("Sheet1", cell, &row))
	}
	var buf bytes.Buffer
	_, err := f.WriteTo(&buf)
	require.NoError(t, err)
	return &buf
}

func TestExportWritesHeaderAndRows(t *testing.T) {
	s := schema.Contracts()
	var buf bytes.Buffer
	require.NoError(t, Export(&buf, s, []hrsdk.Record{{
		"id":            int64(4),
		"employee_id":   int64(1),
		"employee_name": "Nguyen Van A",
		"contract_code": "HD-001",
		"contract_type": "HĐ chính thức",
		"start_date":    "2024-01-01T00:00:00.000Z",
		"end_date":      nil,
		"status":        "Đang hiệu lực",
	}}))

	rows, err := ReadRows(&buf)
	require.NoError(t, err)
	require.Len(t, rows, 2)
	assert.Equal(t, Header(s), rows[0])
	assert.Equal(t, []string{"id", "employee_id", "contract_code", "contract_type", "start_date", "end_date", "status", "employee_name"}, rows[0])
	assert.Equal(t, "4", rows[1][0])
	assert.Equal(t, "2024-01-01", rows[1][4])
	assert.Equal(t, "Nguyen Van A", rows[1][7])
}

func TestExportEmptyList(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, Export(&buf, schema.Employees(), nil))
	rows, err := ReadRows(&buf)
	require.NoError(t, err)
	assert.Len(t, rows, 1)
}

func TestImportCreatesUpdatesAndReportsRows(t *testing.T) {
	coll := &recordingCollection{resource: "employees", next: 10}
	ctrl := newController(schema.Employees(), coll)

	buf := workbook(t, [][]any{
		{"ID", "Employee_Code", "Full_Name", "Department"},
		{"", "NV001", "Nguyen Van A", "IT"},
		{"5", "NV005", "Tran Thi B", ""},
		{"", "NV006", "", "HR"},
		{"", "", "", ""},
		{"abc", "NV007", "Le Van C", ""},
	})

	res, err := Import(context.Background(), ctrl, buf)
	require.NoError(t, err)
	assert.Equal(t, 1, res.Created)
	assert.Equal(t, 1, res.Updated)
	require.Len(t, res.Errors, 2)
	assert.Equal(t, 4, res.Errors[0].Row)
	assert.ErrorContains(t, res.Errors[0], "required: full_name")
	assert.Equal(t, 6, res.Errors[1].Row)

	require.Len(t, coll.created, 1)
	assert.Equal(t, "NV001", coll.created[0]["employee_code"])
	assert.Equal(t, "IT", coll.created[0]["department"])
	assert.Equal(t, "Tran Thi B", coll.updated[5]["full_name"])
	assert.Equal(t, listform.Creating, ctrl.Mode())
}

func TestImportAssetRuleFailsRow(t *testing.T) {
	coll := &recordingCollection{resource: "assets"}
	ctrl := newController(schema.Assets(), coll)
	buf := workbook(t, [][]any{
		{"asset_name", "employee_id", "date_assigned"},
		{"Laptop", "3", ""},
		{"Monitor", "", "2024-03-01"},
		{"Dock", "3", "45352"},
	})

	res, err := Import(context.Background(), ctrl, buf)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Created)
	require.Len(t, res.Errors, 1)
	assert.ErrorContains(t, res.Errors[0], schema.AssetDateRequiredMessage)

	require.Len(t, coll.created, 2)
	assert.Nil(t, coll.created[0]["date_assigned"])
	assert.Nil(t, coll.created[0]["employee_id"])
	assert.Equal(t, "2024-03-01", coll.created[1]["date_assigned"])
	assert.Equal(t, int64(3), coll.created[1]["employee_id"])
}

func TestImportRejectsForeignHeader(t *testing.T) {
	ctrl := newController(schema.Employees(), &recordingCollection{resource: "employees"})
	_, err := Import(context.Background(), ctrl, workbook(t, [][]any{{"foo", "bar"}, {"1", "2"}}))
	assert.ErrorContains(t, err, "header has none")
}
