package dataset

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func load(t *testing.T) *Dataset {
	t.Helper()
	d, err := Load("testdata/employees.csv")
	require.NoError(t, err)
	return d
}

func TestLoadDecodesRows(t *testing.T) {
	d := load(t)

	require.Equal(t, 10, d.Len())
	assert.Len(t, d.Columns(), 35)

	first := d.Employees()[0]
	assert.Equal(t, 41, first.Age)
	assert.Equal(t, "Sales Executive", first.JobRole)
	assert.Equal(t, 1102, first.DailyRate)
	assert.True(t, first.Left())
}

func TestReadErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name  string
		input string
	}{
		{name: "empty", input: ""},
		{name: "no attrition column", input: "Age,Department\n30,Sales\n"},
		{name: "ragged row", input: "Age,Attrition\n30\n"},
		{name: "bad number", input: "Age,Attrition\nthirty,No\n"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			_, err := Read(strings.NewReader(tt.input))
			assert.Error(t, err)
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load("testdata/absent.csv")
	assert.Error(t, err)
}

func TestPreview(t *testing.T) {
	d := load(t)

	lines := strings.Split(d.Preview(5), "\n")
	require.Len(t, lines, 6)
	assert.True(t, strings.HasPrefix(lines[0], "Age"))
	assert.True(t, strings.HasPrefix(lines[1], "41"))

	assert.Len(t, strings.Split(d.Preview(100), "\n"), 11)
	assert.Empty(t, d.Preview(0))

	var none *Dataset
	assert.Empty(t, none.Preview(5))
}

func TestAttritionByDepartment(t *testing.T) {
	got := load(t).AttritionByDepartment()

	require.Len(t, got, 3)
	assert.Equal(t, GroupCount{Group: "Human Resources", Left: 0, Stay: 1, Total: 1, Rate: 0}, got[0])
	assert.Equal(t, "Research & Development", got[1].Group)
	assert.Equal(t, 1, got[1].Left)
	assert.Equal(t, 6, got[1].Stay)
	assert.InDelta(t, 100.0/7, got[1].Rate, 1e-9)
	assert.Equal(t, GroupCount{Group: "Sales", Left: 2, Stay: 0, Total: 2, Rate: 100}, got[2])
}

func TestAttritionRateByJobRoleIsSortedDescending(t *testing.T) {
	got := load(t).AttritionRateByJobRole()

	names := make([]string, 0, len(got))
	for _, g := range got {
		names = append(names, g.Group)
	}
	assert.Equal(t, []string{
		"Sales Executive",
		"Sales Representative",
		"Laboratory Technician",
		"Human Resources",
		"Research Scientist",
	}, names)
	assert.InDelta(t, 20.0, got[2].Rate, 1e-9)
}

func TestHighRiskGroups(t *testing.T) {
	got := load(t).HighRiskGroups()

	require.Len(t, got, 4)
	assert.Equal(t, RiskGroup{Name: "Overtime Workers", Size: 5, Rate: 60}, got[0])
	assert.Equal(t, RiskGroup{Name: "Low Job Satisfaction", Size: 1, Rate: 0}, got[1])
	assert.Equal(t, RiskGroup{Name: "Long Commute (>20km)", Size: 2, Rate: 50}, got[2])
	assert.Equal(t, "New Employees (<2 years)", got[3].Name)
	assert.Equal(t, 3, got[3].Size)
	assert.InDelta(t, 100.0/3, got[3].Rate, 1e-9)
}

func TestSummary(t *testing.T) {
	s := load(t).Summary()

	assert.Equal(t, 10, s.Rows)
	assert.Equal(t, 3, s.Left)
	assert.InDelta(t, 30.0, s.Rate, 1e-9)

	assert.Equal(t, []Bucket{
		{From: 20, To: 29, Left: 1, Stay: 1, Total: 2},
		{From: 30, To: 39, Left: 1, Stay: 3, Total: 4},
		{From: 40, To: 49, Left: 1, Stay: 2, Total: 3},
		{From: 50, To: 59, Left: 0, Stay: 1, Total: 1},
	}, s.AgeBuckets)
	assert.NotEmpty(t, s.TenureBuckets)
}

func TestEmptyDatasetRates(t *testing.T) {
	d, err := Read(strings.NewReader("Age,Attrition\n"))
	require.NoError(t, err)

	for _, g := range d.HighRiskGroups() {
		assert.Zero(t, g.Rate)
		assert.Zero(t, g.Size)
	}
	assert.Zero(t, d.Summary().Rate)
}
