package schema

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2024, 3, 15, 9, 30, 0, 0, time.UTC)

func TestDefaults(t *testing.T) {
	d := Attendance().Defaults(fixedNow)
	assert.Equal(t, "2024-03-15", d["date"])
	assert.Equal(t, "Đi làm", d["status"])
	assert.Equal(t, "", d["notes"])
	assert.Equal(t, "", d["employee_id"])

	c := Contracts().Defaults(fixedNow)
	assert.Equal(t, "HĐ chính thức", c["contract_type"])
	assert.Equal(t, "Đang hiệu lực", c["status"])

	a := Assets().Defaults(fixedNow)
	assert.Equal(t, "Trong kho", a["status"])
	assert.Equal(t, "", a["date_assigned"])
}

func TestNormalizeCutsDatesAndNulls(t *testing.T) {
	rec := map[string]any{
		"id":            json.Number("4"),
		"employee_id":   json.Number("12"),
		"employee_name": "Nguyen Van A",
		"course_name":   "Go basics",
		"trainer_name":  nil,
		"score":         json.Number("87"),
		"start_date":    "2024-01-02T00:00:00.000Z",
		"end_date":      "2024-01-05",
	}
	d := Training().Normalize(rec, fixedNow)
	assert.Equal(t, Draft{
		"employee_id":  "12",
		"course_name":  "Go basics",
		"trainer_name": "",
		"score":        "87",
		"start_date":   "2024-01-02",
		"end_date":     "2024-01-05",
	}, d)
}

func TestNormalizeMissingEnumTakesDefault(t *testing.T) {
	d := Attendance().Normalize(map[string]any{"employee_id": float64(3), "date": "2024-02-01"}, fixedNow)
	assert.Equal(t, "3", d["employee_id"])
	assert.Equal(t, "2024-02-01", d["date"])
	assert.Equal(t, "Đi làm", d["status"])
}

func TestSetRejectsUnknownField(t *testing.T) {
	s := Employees()
	d := s.Defaults(fixedNow)
	err := s.Set(d, "salary", "1000")
	var unknown ErrUnknownField
	require.ErrorAs(t, err, &unknown)
	assert.Equal(t, "salary", unknown.Key)
	_, present := d["salary"]
	assert.False(t, present)
}

func TestClearingHolderClearsDateAssigned(t *testing.T) {
	s := Assets()
	d := s.Defaults(fixedNow)
	require.NoError(t, s.Set(d, "employee_id", "5"))
	require.NoError(t, s.Set(d, "date_assigned", "2024-03-01"))
	assert.Equal(t, "2024-03-01", d["date_assigned"])

	require.NoError(t, s.Set(d, "employee_id", ""))
	assert.Equal(t, "", d["date_assigned"])
}

func TestSerializeAsset(t *testing.T) {
	s := Assets()

	t.Run("unassigned sends nulls", func(t *testing.T) {
		d := Draft{"asset_name": "Laptop", "asset_code": "LT-01", "status": "Trong kho", "employee_id": "", "date_assigned": "2024-03-01"}
		out, err := s.Serialize(d)
		require.NoError(t, err)
		assert.Nil(t, out["employee_id"])
		assert.Nil(t, out["date_assigned"])
		assert.Equal(t, "2024-03-01", d["date_assigned"], "draft must not be modified")
	})

	t.Run("assigned without date fails", func(t *testing.T) {
		d := Draft{"asset_name": "Laptop", "status": "Đang sử dụng", "employee_id": "5", "date_assigned": ""}
		_, err := s.Serialize(d)
		var ve *ValidationError
		require.ErrorAs(t, err, &ve)
		assert.Equal(t, AssetDateRequiredMessage, ve.Message)
		assert.Equal(t, "date_assigned", ve.Field)
	})

	t.Run("assigned with date", func(t *testing.T) {
		d := Draft{"asset_name": "Laptop", "status": "Đang sử dụng", "employee_id": "5", "date_assigned": "2024-03-01"}
		out, err := s.Serialize(d)
		require.NoError(t, err)
		assert.Equal(t, int64(5), out["employee_id"])
		assert.Equal(t, "2024-03-01", out["date_assigned"])
	})
}

func TestSerializeTrainingScore(t *testing.T) {
	s := Training()
	base := Draft{"employee_id": "1", "course_name": "Safety", "trainer_name": "", "start_date": "2024-01-01", "end_date": "2024-01-02"}

	cases := []struct {
		score string
		want  any
		fails bool
	}{
		{"", nil, false},
		{"0", 0, false},
		{"100", 100, false},
		{" 42 ", 42, false},
		{"101", nil, true},
		{"-1", nil, true},
		{"abc", nil, true},
	}
	for _, tc := range cases {
		t.Run("score="+tc.score, func(t *testing.T) {
			d := base.Clone()
			d["score"] = tc.score
			out, err := s.Serialize(d)
			if tc.fails {
				var ve *ValidationError
				require.ErrorAs(t, err, &ve)
				assert.Equal(t, ScoreRangeMessage, ve.Message)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, out["score"])
		})
	}
}

func TestSerializeRejectsMalformedDate(t *testing.T) {
	d := Contracts().Defaults(fixedNow)
	d["employee_id"] = "1"
	d["contract_code"] = "HD-001"
	d["start_date"] = "15/03/2024"
	_, err := Contracts().Serialize(d)
	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, "start_date", ve.Field)
}

func TestSerializeEmployeeKeepsText(t *testing.T) {
	d := Draft{"employee_code": "NV001", "full_name": "Nguyen Van A", "department": "", "position": "", "email": "a@example.com", "phone": ""}
	out, err := Employees().Serialize(d)
	require.NoError(t, err)
	assert.Equal(t, "NV001", out["employee_code"])
	assert.Equal(t, "", out["department"])
	assert.Len(t, out, 6)
}

func TestMissingRequired(t *testing.T) {
	d := Training().Defaults(fixedNow)
	d["course_name"] = "Safety"
	assert.Equal(t, []string{"employee_id", "start_date", "end_date"}, Training().MissingRequired(d))
}

func TestOptionLabel(t *testing.T) {
	ref := Contracts().Reference
	require.NotNil(t, ref)
	assert.Equal(t, "NV001 - Nguyen Van A", ref.OptionLabel(map[string]any{"employee_code": "NV001", "full_name": "Nguyen Van A"}))
}

func TestLookup(t *testing.T) {
	assert.Equal(t, []string{"assets", "attendance", "contracts", "employees", "training"}, Resources())
	for _, r := range Resources() {
		s, ok := Lookup(r)
		require.True(t, ok)
		assert.Equal(t, r, s.Resource)
		for _, col := range s.Columns {
			if col == "employee_name" {
				continue
			}
			_, ok := s.Field(col)
			assert.True(t, ok, "%s column %s", r, col)
		}
	}
	_, ok := Lookup("payroll")
	assert.False(t, ok)
}
