package docgen

import "time"

// CV is the data printed on a candidate profile
type CV struct {
	Name           string
	Phone          string
	Email          string
	Address        string
	Role           string
	Location       string
	Experience     float64
	CurrentSalary  float64
	ExpectedSalary float64
	Skills         []string
	Education      string
	Notes          string
	Status         string
	RecruiterName  string
}

// PayComponent is one line of the salary annexure
type PayComponent struct {
	Name    string
	Monthly float64
	Annual  float64
}

type OfferLetter struct {
	Reference     string
	Date          time.Time
	CandidateName string
	Address       string
	Designation   string
	StoreName     string
	Location      string
	JoiningDate   time.Time
	AnnualCTC     float64
	Earnings      []PayComponent
	Deductions    []PayComponent
	GrossMonthly  float64
	NetMonthly    float64
}

type WarningLetter struct {
	Reference    string
	Date         time.Time
	EmployeeName string
	Designation  string
	StoreName    string
	Level        string
	Reason       string
	Description  string
	Previous     int
}
