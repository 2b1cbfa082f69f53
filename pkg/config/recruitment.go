package config

import "time"

type RecruitmentConfig struct {
	// DuplicateLineupWindow rejects a new lineup for a phone seen within the window
	DuplicateLineupWindow time.Duration
	ImportMaxRows         int
}

// PayrollConfig holds the CTC split and statutory rates, all in percent
type PayrollConfig struct {
	BasicPercent       float64
	HRAPercent         float64
	EmployerPFPercent  float64
	EmployeePFPercent  float64
	PFWageCeiling      float64
	EmployerESIPercent float64
	EmployeeESIPercent float64
	ESIWageCeiling     float64
	PTAmount           float64
	PTThreshold        float64
	GSTPercent         float64
	InvoiceDueDays     int
}

type SLAConfig struct {
	LowHours           int
	MediumHours        int
	HighHours          int
	CriticalHours      int
	MaxEscalationLevel int
	CheckInterval      time.Duration
}

type AIConfig struct {
	OpenAIKey string
	Model     string
}

func (c AIConfig) Enabled() bool {
	return c.OpenAIKey != ""
}

func loadRecruitmentConfig() RecruitmentConfig {
	return RecruitmentConfig{
		DuplicateLineupWindow: getEnvDuration("LINEUP_DUPLICATE_WINDOW", 30*24*time.Hour),
		ImportMaxRows:         getEnvInt("LINEUP_IMPORT_MAX_ROWS", 5000),
	}
}

func loadPayrollConfig() PayrollConfig {
	return PayrollConfig{
		BasicPercent:       getEnvFloat("PAYROLL_BASIC_PERCENT", 50),
		HRAPercent:         getEnvFloat("PAYROLL_HRA_PERCENT", 40),
		EmployerPFPercent:  getEnvFloat("PAYROLL_EMPLOYER_PF_PERCENT", 12),
		EmployeePFPercent:  getEnvFloat("PAYROLL_EMPLOYEE_PF_PERCENT", 12),
		PFWageCeiling:      getEnvFloat("PAYROLL_PF_WAGE_CEILING", 15000),
		EmployerESIPercent: getEnvFloat("PAYROLL_EMPLOYER_ESI_PERCENT", 3.25),
		EmployeeESIPercent: getEnvFloat("PAYROLL_EMPLOYEE_ESI_PERCENT", 0.75),
		ESIWageCeiling:     getEnvFloat("PAYROLL_ESI_WAGE_CEILING", 21000),
		PTAmount:           getEnvFloat("PAYROLL_PT_AMOUNT", 200),
		PTThreshold:        getEnvFloat("PAYROLL_PT_THRESHOLD", 15000),
		GSTPercent:         getEnvFloat("INVOICE_GST_PERCENT", 18),
		InvoiceDueDays:     getEnvInt("INVOICE_DUE_DAYS", 30),
	}
}

// DefaultPayrollConfig is the statutory split used when nothing is configured
func DefaultPayrollConfig() PayrollConfig {
	return PayrollConfig{
		BasicPercent:       50,
		HRAPercent:         40,
		EmployerPFPercent:  12,
		EmployeePFPercent:  12,
		PFWageCeiling:      15000,
		EmployerESIPercent: 3.25,
		EmployeeESIPercent: 0.75,
		ESIWageCeiling:     21000,
		PTAmount:           200,
		PTThreshold:        15000,
		GSTPercent:         18,
		InvoiceDueDays:     30,
	}
}

func loadSLAConfig() SLAConfig {
	return SLAConfig{
		LowHours:           getEnvInt("SLA_LOW_HOURS", 72),
		MediumHours:        getEnvInt("SLA_MEDIUM_HOURS", 48),
		HighHours:          getEnvInt("SLA_HIGH_HOURS", 24),
		CriticalHours:      getEnvInt("SLA_CRITICAL_HOURS", 4),
		MaxEscalationLevel: getEnvInt("SLA_MAX_ESCALATION_LEVEL", 3),
		CheckInterval:      getEnvDuration("SLA_CHECK_INTERVAL", 5*time.Minute),
	}
}

// DefaultSLAConfig mirrors the environment defaults
func DefaultSLAConfig() SLAConfig {
	return SLAConfig{
		LowHours:           72,
		MediumHours:        48,
		HighHours:          24,
		CriticalHours:      4,
		MaxEscalationLevel: 3,
		CheckInterval:      5 * time.Minute,
	}
}

func loadAIConfig() AIConfig {
	return AIConfig{
		OpenAIKey: getEnv("OPENAI_API_KEY", ""),
		Model:     getEnv("OPENAI_MODEL", "gpt-4o-mini"),
	}
}
