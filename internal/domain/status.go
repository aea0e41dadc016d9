package domain

import "strings"

// ReportKind names a report the engine can assemble.
type ReportKind string

const (
	ReportStoreSales      ReportKind = "store_sales"
	ReportEmployeeSales   ReportKind = "employee_sales"
	ReportStoreDaily      ReportKind = "store_daily"
	ReportEmployeeMTD     ReportKind = "employee_mtd"
	ReportProductAnalysis ReportKind = "product_analysis"
	ReportTargetSetting   ReportKind = "target_setting"
)

var reportKindLabels = map[ReportKind]string{
	ReportStoreSales:      "Store Sales",
	ReportEmployeeSales:   "Employee Sales",
	ReportStoreDaily:      "Store Daily Sales",
	ReportEmployeeMTD:     "Employee MTD Performance",
	ReportProductAnalysis: "Product Analysis",
	ReportTargetSetting:   "Target Setting",
}

// ReportKinds lists every kind in a stable order.
func ReportKinds() []ReportKind {
	return []ReportKind{
		ReportStoreSales,
		ReportEmployeeSales,
		ReportStoreDaily,
		ReportEmployeeMTD,
		ReportProductAnalysis,
		ReportTargetSetting,
	}
}

// ReportKindLabel returns a human-readable label for a report kind.
func ReportKindLabel(kind ReportKind) string {
	if label, ok := reportKindLabels[kind]; ok {
		return label
	}

	return string(kind)
}

// ParseReportKind accepts snake_case or kebab-case names (case-insensitive).
func ParseReportKind(name string) (ReportKind, bool) {
	kind := ReportKind(strings.ReplaceAll(strings.ToLower(strings.TrimSpace(name)), "-", "_"))
	_, ok := reportKindLabels[kind]

	return kind, ok
}

// Role of the requesting user.
type Role string

const (
	RoleAdmin   Role = "admin"
	RoleManager Role = "manager"
)

// User is the identity the report is generated for.
type User struct {
	Name string `json:"name"`
	Role Role   `json:"role"`
}

// IsAdmin reports whether the user sees every store.
func (u User) IsAdmin() bool {
	return strings.EqualFold(string(u.Role), string(RoleAdmin))
}

// RunStatus is the state of a recorded report run.
type RunStatus string

const (
	RunPending   RunStatus = "pending"
	RunRunning   RunStatus = "running"
	RunCompleted RunStatus = "completed"
	RunEmpty     RunStatus = "empty"
	RunFailed    RunStatus = "failed"
)
