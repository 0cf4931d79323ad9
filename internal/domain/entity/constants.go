package entity

// Generation status constants
const (
	GenerationStatusCompleted = "COMPLETED"
	GenerationStatusRefunded  = "REFUNDED"
)

// Plan constants for Account
const (
	PlanFree       = "free"
	PlanProMonthly = "Pro Monthly"
)

// Invoice defaults applied when the extracted data leaves a field out
const (
	DefaultCompanyName = "My Company Inc."
	DefaultClientName  = "Customer"
	DefaultNote        = "Thank you!"
)
