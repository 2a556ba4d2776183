package attrition

// Kind tells whether a column holds a category or a number.
type Kind string

const (
	KindCategorical Kind = "categorical"
	KindNumeric     Kind = "numeric"
)

// Field describes one input column of the record.
type Field struct {
	Name    string   `json:"name"`
	Label   string   `json:"label"`
	Kind    Kind     `json:"kind"`
	Options []string `json:"options,omitempty"`
	Min     float64  `json:"min"`
	Max     float64  `json:"max"`
	Default any      `json:"default,omitempty"`
	// Fixed columns are filled by the service and never asked from the user.
	Fixed bool `json:"fixed,omitempty"`
}

// Fields lists the record columns in training order.
var Fields = []Field{
	numeric("Age", "Age", 18, 65, 35),
	categorical("BusinessTravel", "Business Travel", "Travel_Rarely", "Travel_Rarely", "Travel_Frequently", "Non-Travel"),
	categorical("Department", "Department", "Sales", "Sales", "Research & Development", "Human Resources"),
	numeric("DistanceFromHome", "Distance from Home (km)", 1, 30, 10),
	numeric("Education", "Education (1 Below College .. 5 Doctor)", 1, 5, 1),
	categorical("EducationField", "Education Field", "Life Sciences", "Life Sciences", "Medical", "Marketing", "Technical Degree", "Human Resources", "Other"),
	numeric("EnvironmentSatisfaction", "Environment Satisfaction", 1, 4, 3),
	categorical("Gender", "Gender", "Male", "Male", "Female"),
	numeric("JobInvolvement", "Job Involvement", 1, 4, 3),
	numeric("JobLevel", "Job Level", 1, 5, 2),
	categorical("JobRole", "Job Role", "Sales Executive",
		"Sales Executive", "Research Scientist", "Laboratory Technician",
		"Manufacturing Director", "Healthcare Representative", "Manager",
		"Sales Representative", "Research Director", "Human Resources"),
	numeric("JobSatisfaction", "Job Satisfaction", 1, 4, 3),
	categorical("MaritalStatus", "Marital Status", "Single", "Single", "Married", "Divorced"),
	numeric("MonthlyIncome", "Monthly Income ($)", 1000, 20000, 5000),
	numeric("NumCompaniesWorked", "Previous Companies", 0, 10, 2),
	categorical("OverTime", "Works Overtime?", "Yes", "Yes", "No"),
	numeric("PercentSalaryHike", "Last Salary Hike (%)", 0, 25, 12),
	numeric("PerformanceRating", "Performance Rating", 1, 4, 3),
	numeric("RelationshipSatisfaction", "Relationship Satisfaction", 1, 4, 3),
	numeric("StockOptionLevel", "Stock Option Level", 0, 3, 1),
	numeric("TotalWorkingYears", "Total Working Years", 0, 40, 10),
	numeric("TrainingTimesLastYear", "Training Times Last Year", 0, 6, 2),
	numeric("WorkLifeBalance", "Work-Life Balance", 1, 4, 3),
	numeric("YearsAtCompany", "Years at Company", 0, 40, 5),
	numeric("YearsInCurrentRole", "Years in Current Role", 0, 20, 3),
	numeric("YearsSinceLastPromotion", "Years Since Last Promotion", 0, 15, 2),
	numeric("YearsWithCurrManager", "Years with Current Manager", 0, 20, 3),
	fixed("DailyRate", "Daily Rate", FixedDailyRate),
	fixed("HourlyRate", "Hourly Rate", FixedHourlyRate),
	fixed("MonthlyRate", "Monthly Rate", FixedMonthlyRate),
}

// ColumnNames returns the training column order.
func ColumnNames() []string {
	names := make([]string, 0, len(Fields))
	for _, f := range Fields {
		names = append(names, f.Name)
	}
	return names
}

// CategoricalColumns returns the names of all categorical columns.
func CategoricalColumns() []string {
	names := make([]string, 0)
	for _, f := range Fields {
		if f.Kind == KindCategorical {
			names = append(names, f.Name)
		}
	}
	return names
}

// FixedColumns returns the columns the service fills on its own.
func FixedColumns() []string {
	names := make([]string, 0, 3)
	for _, f := range Fields {
		if f.Fixed {
			names = append(names, f.Name)
		}
	}
	return names
}

// Editable returns the fields a user is asked for.
func Editable() []Field {
	out := make([]Field, 0, len(Fields))
	for _, f := range Fields {
		if !f.Fixed {
			out = append(out, f)
		}
	}
	return out
}

func numeric(name, label string, min, max float64, def int) Field {
	return Field{Name: name, Label: label, Kind: KindNumeric, Min: min, Max: max, Default: def}
}

func categorical(name, label, def string, options ...string) Field {
	return Field{Name: name, Label: label, Kind: KindCategorical, Options: options, Default: def}
}

func fixed(name, label string, value int) Field {
	return Field{Name: name, Label: label, Kind: KindNumeric, Min: float64(value), Max: float64(value), Default: value, Fixed: true}
}
