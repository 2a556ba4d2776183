package dataset

import (
	"sort"
)

// GroupCount is the attrition split of one group.
type GroupCount struct {
	Group string  `json:"group"`
	Left  int     `json:"left"`
	Stay  int     `json:"stayed"`
	Total int     `json:"total"`
	Rate  float64 `json:"rate_percent"`
}

// RiskGroup is the attrition rate inside a filtered population.
type RiskGroup struct {
	Name string  `json:"name"`
	Size int     `json:"size"`
	Rate float64 `json:"rate_percent"`
}

// Bucket is one bar of a histogram split by attrition.
type Bucket struct {
	From  int `json:"from"`
	To    int `json:"to"`
	Left  int `json:"left"`
	Stay  int `json:"stayed"`
	Total int `json:"total"`
}

// Summary collects everything the insights view shows.
type Summary struct {
	Rows          int          `json:"rows"`
	Left          int          `json:"left"`
	Rate          float64      `json:"rate_percent"`
	Departments   []GroupCount `json:"departments"`
	JobRoles      []GroupCount `json:"job_roles"`
	RiskGroups    []RiskGroup  `json:"risk_groups"`
	AgeBuckets    []Bucket     `json:"age_buckets"`
	TenureBuckets []Bucket     `json:"tenure_buckets"`
}

type riskFilter struct {
	name  string
	match func(*Employee) bool
}

var riskFilters = []riskFilter{
	{name: "Overtime Workers", match: func(e *Employee) bool { return e.OverTime == "Yes" }},
	{name: "Low Job Satisfaction", match: func(e *Employee) bool { return e.JobSatisfaction == 1 }},
	{name: "Long Commute (>20km)", match: func(e *Employee) bool { return e.DistanceFromHome > 20 }},
	{name: "New Employees (<2 years)", match: func(e *Employee) bool { return e.YearsAtCompany < 2 }},
}

func (d *Dataset) Summary() Summary {
	s := Summary{
		Rows:          d.Len(),
		Departments:   d.AttritionByDepartment(),
		JobRoles:      d.AttritionRateByJobRole(),
		RiskGroups:    d.HighRiskGroups(),
		AgeBuckets:    d.Histogram(func(e *Employee) int { return e.Age }, 10),
		TenureBuckets: d.Histogram(func(e *Employee) int { return e.YearsAtCompany }, 2),
	}
	for i := range d.employees {
		if d.employees[i].Left() {
			s.Left++
		}
	}
	s.Rate = percent(s.Left, s.Rows)
	return s
}

// AttritionByDepartment returns counts per department, ordered by name.
func (d *Dataset) AttritionByDepartment() []GroupCount {
	return d.groupBy(func(e *Employee) string { return e.Department })
}

// AttritionRateByJobRole returns job roles by descending attrition rate.
func (d *Dataset) AttritionRateByJobRole() []GroupCount {
	groups := d.groupBy(func(e *Employee) string { return e.JobRole })
	sort.SliceStable(groups, func(i, j int) bool {
		return groups[i].Rate > groups[j].Rate
	})
	return groups
}

// HighRiskGroups returns the attrition rate of the four known risk groups.
// An empty group has rate 0.
func (d *Dataset) HighRiskGroups() []RiskGroup {
	out := make([]RiskGroup, 0, len(riskFilters))
	for _, f := range riskFilters {
		var size, left int
		for i := range d.employees {
			e := &d.employees[i]
			if !f.match(e) {
				continue
			}
			size++
			if e.Left() {
				left++
			}
		}
		out = append(out, RiskGroup{Name: f.name, Size: size, Rate: percent(left, size)})
	}
	return out
}

// Histogram buckets value(e) into ranges of the given width.
func (d *Dataset) Histogram(value func(*Employee) int, width int) []Bucket {
	if width <= 0 {
		width = 1
	}

	byStart := make(map[int]*Bucket)
	for i := range d.employees {
		e := &d.employees[i]
		v := value(e)
		start := v - mod(v, width)

		b, ok := byStart[start]
		if !ok {
			b = &Bucket{From: start, To: start + width - 1}
			byStart[start] = b
		}
		b.Total++
		if e.Left() {
			b.Left++
		} else {
			b.Stay++
		}
	}

	out := make([]Bucket, 0, len(byStart))
	for _, b := range byStart {
		out = append(out, *b)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].From < out[j].From })
	return out
}

func (d *Dataset) groupBy(key func(*Employee) string) []GroupCount {
	counts := make(map[string]*GroupCount)
	for i := range d.employees {
		e := &d.employees[i]
		k := key(e)
		g, ok := counts[k]
		if !ok {
			g = &GroupCount{Group: k}
			counts[k] = g
		}
		g.Total++
		if e.Left() {
			g.Left++
		} else {
			g.Stay++
		}
	}

	out := make([]GroupCount, 0, len(counts))
	for _, k := range sortedKeys(counts) {
		g := counts[k]
		g.Rate = percent(g.Left, g.Total)
		out = append(out, *g)
	}
	return out
}

func percent(part, total int) float64 {
	if total == 0 {
		return 0
	}
	return float64(part) / float64(total) * 100
}

func mod(v, m int) int {
	r := v % m
	if r < 0 {
		r += m
	}
	return r
}
