package attrition

// Values used for the rate columns. They are not collected from the user and
// every parsed record carries them unchanged.
const (
	FixedDailyRate   = 800
	FixedHourlyRate  = 65
	FixedMonthlyRate = 15000
)

// Record is a single employee as the classifier sees it.
type Record struct {
	Age                      int    `json:"Age" mapstructure:"Age"`
	BusinessTravel           string `json:"BusinessTravel" mapstructure:"BusinessTravel"`
	Department               string `json:"Department" mapstructure:"Department"`
	DistanceFromHome         int    `json:"DistanceFromHome" mapstructure:"DistanceFromHome"`
	Education                int    `json:"Education" mapstructure:"Education"`
	EducationField           string `json:"EducationField" mapstructure:"EducationField"`
	EnvironmentSatisfaction  int    `json:"EnvironmentSatisfaction" mapstructure:"EnvironmentSatisfaction"`
	Gender                   string `json:"Gender" mapstructure:"Gender"`
	JobInvolvement           int    `json:"JobInvolvement" mapstructure:"JobInvolvement"`
	JobLevel                 int    `json:"JobLevel" mapstructure:"JobLevel"`
	JobRole                  string `json:"JobRole" mapstructure:"JobRole"`
	JobSatisfaction          int    `json:"JobSatisfaction" mapstructure:"JobSatisfaction"`
	MaritalStatus            string `json:"MaritalStatus" mapstructure:"MaritalStatus"`
	MonthlyIncome            int    `json:"MonthlyIncome" mapstructure:"MonthlyIncome"`
	NumCompaniesWorked       int    `json:"NumCompaniesWorked" mapstructure:"NumCompaniesWorked"`
	OverTime                 string `json:"OverTime" mapstructure:"OverTime"`
	PercentSalaryHike        int    `json:"PercentSalaryHike" mapstructure:"PercentSalaryHike"`
	PerformanceRating        int    `json:"PerformanceRating" mapstructure:"PerformanceRating"`
	RelationshipSatisfaction int    `json:"RelationshipSatisfaction" mapstructure:"RelationshipSatisfaction"`
	StockOptionLevel         int    `json:"StockOptionLevel" mapstructure:"StockOptionLevel"`
	TotalWorkingYears        int    `json:"TotalWorkingYears" mapstructure:"TotalWorkingYears"`
	TrainingTimesLastYear    int    `json:"TrainingTimesLastYear" mapstructure:"TrainingTimesLastYear"`
	WorkLifeBalance          int    `json:"WorkLifeBalance" mapstructure:"WorkLifeBalance"`
	YearsAtCompany           int    `json:"YearsAtCompany" mapstructure:"YearsAtCompany"`
	YearsInCurrentRole       int    `json:"YearsInCurrentRole" mapstructure:"YearsInCurrentRole"`
	YearsSinceLastPromotion  int    `json:"YearsSinceLastPromotion" mapstructure:"YearsSinceLastPromotion"`
	YearsWithCurrManager     int    `json:"YearsWithCurrManager" mapstructure:"YearsWithCurrManager"`
	DailyRate                int    `json:"DailyRate" mapstructure:"DailyRate"`
	HourlyRate               int    `json:"HourlyRate" mapstructure:"HourlyRate"`
	MonthlyRate              int    `json:"MonthlyRate" mapstructure:"MonthlyRate"`
}

// Default returns the record pre-filled with the form defaults.
func Default() *Record {
	values := make(map[string]any, len(Fields))
	for _, f := range Fields {
		if f.Default != nil {
			values[f.Name] = f.Default
		}
	}

	r := &Record{}
	// defaults are declared next to the fields and always decode
	_ = decode(values, r)
	r.ApplyFixedRates()
	return r
}

// ApplyFixedRates overwrites the rate columns with their fixed values.
func (r *Record) ApplyFixedRates() {
	r.DailyRate = FixedDailyRate
	r.HourlyRate = FixedHourlyRate
	r.MonthlyRate = FixedMonthlyRate
}

// Columns returns the record keyed by training column name. Categorical
// values stay strings; numeric values are float64.
func (r *Record) Columns() map[string]any {
	return map[string]any{
		"Age":                      float64(r.Age),
		"BusinessTravel":           r.BusinessTravel,
		"Department":               r.Department,
		"DistanceFromHome":         float64(r.DistanceFromHome),
		"Education":                float64(r.Education),
		"EducationField":           r.EducationField,
		"EnvironmentSatisfaction":  float64(r.EnvironmentSatisfaction),
		"Gender":                   r.Gender,
		"JobInvolvement":           float64(r.JobInvolvement),
		"JobLevel":                 float64(r.JobLevel),
		"JobRole":                  r.JobRole,
		"JobSatisfaction":          float64(r.JobSatisfaction),
		"MaritalStatus":            r.MaritalStatus,
		"MonthlyIncome":            float64(r.MonthlyIncome),
		"NumCompaniesWorked":       float64(r.NumCompaniesWorked),
		"OverTime":                 r.OverTime,
		"PercentSalaryHike":        float64(r.PercentSalaryHike),
		"PerformanceRating":        float64(r.PerformanceRating),
		"RelationshipSatisfaction": float64(r.RelationshipSatisfaction),
		"StockOptionLevel":         float64(r.StockOptionLevel),
		"TotalWorkingYears":        float64(r.TotalWorkingYears),
		"TrainingTimesLastYear":    float64(r.TrainingTimesLastYear),
		"WorkLifeBalance":          float64(r.WorkLifeBalance),
		"YearsAtCompany":           float64(r.YearsAtCompany),
		"YearsInCurrentRole":       float64(r.YearsInCurrentRole),
		"YearsSinceLastPromotion":  float64(r.YearsSinceLastPromotion),
		"YearsWithCurrManager":     float64(r.YearsWithCurrManager),
		"DailyRate":                float64(r.DailyRate),
		"HourlyRate":               float64(r.HourlyRate),
		"MonthlyRate":              float64(r.MonthlyRate),
	}
}
