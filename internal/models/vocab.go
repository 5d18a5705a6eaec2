package models

const (
	StatusNotStarted       = "Not Started"
	StatusInProgress       = "In Progress"
	StatusCallArranged     = "Call Arranged"
	StatusSentInfo         = "Sent Info"
	StatusWaitingOnInfo    = "Waiting on Info"
	StatusWaitingOnPartner = "Waiting on Partner"
	StatusFollowedUp       = "Followed Up"
	StatusComplete         = "Complete"
	StatusNA               = "N/A"
	StatusCustom           = "Custom..."

	// StatusCommunicationLogged is written to the audit trail by quick
	// contact logging; it never appears on a task row.
	StatusCommunicationLogged = "Communication Logged"
)

const (
	OverallNotStarted   = "Not Started"
	OverallInProgress   = "In Progress"
	OverallCantOptimise = "Can't Optimise"
	OverallOptimised    = "Optimised"
)

var PredefinedStatuses = []string{
	StatusNotStarted,
	StatusInProgress,
	StatusCallArranged,
	StatusSentInfo,
	StatusWaitingOnInfo,
	StatusWaitingOnPartner,
	StatusFollowedUp,
	StatusComplete,
	StatusNA,
	StatusCustom,
}

var SubCategoryStatuses = []string{OverallNotStarted, OverallInProgress, OverallCantOptimise, OverallOptimised}

var PredefinedCategories = []string{
	"Banking/Saving",
	"Credit Card",
	"Debt",
	"Housing",
	"Insurance",
	"Investment",
	"IRD",
	"Tax",
	"Utilities",
}

var CustomerFlags = []string{"Difficult", "Slow", "VIP", "Priority", "New"}

var CommunicationMethods = []string{"Email", "WhatsApp", "SMS", "Phone", "In-person", "Other"}

var SubCategoriesByCategory = map[string][]string{
	"Banking/Saving": {"Banking Optimisation"},
	"Credit Card":    {"Credit Card - Balance Transfer", "Credit Card - Rewards"},
	"Debt":           {"Debt Consolidation", "New Loan", "Hardship", "Nga Tangata", "Good Shepherd"},
	"Housing":        {"First Home Buyer", "Refinancing Mortgage", "Rent"},
	"Insurance":      {"Car Insurance", "Health Insurance", "House Insurance", "Pet Insurance", "Contents Insurance", "Life Insurance"},
	"Investment":     {"Starting Investing", "Optimising Investments"},
	"IRD":            {"Unclaimed Money"},
	"Tax":            {"Tax - Optimisation"},
	"Utilities":      {"Broadband", "Power", "Mobile", "Gas"},
}

// PredefinedTasks is the checklist created alongside a new sub-category.
var PredefinedTasks = map[string][]string{
	"Banking Optimisation":           {"Review current situation", "Compare banking providers interest rates", "Suggest optimised savings plan"},
	"Credit Card - Balance Transfer": {"Collect recent statements", "Calculate spend vs pay-off", "Compare against other cards on tool", "Suggest new card", "Guide how to switch"},
	"Credit Card - Rewards":          {"Review current rewards program", "Calculate annual expenditure", "Compare rewards cards on tool", "Calculate annual value", "Suggest optimisation", "Guide how to switch"},
	"Nga Tangata":                    {"Check Eligibility (Income)", "Get last 2/3 months bank statement", "Create debt schedules", "Create current & proposed budget", "Collect loan statements and all debts", "ID verification", "Collect proof of income (payslip or MSD breakdown)", "Fill in application website", "Financial well-being questionnaire", "Signed by applicant"},
	"Good Shepherd":                  {"Check Eligibility (Income)", "Get bank statement", "Create current & proposed budget", "Collect loan statements and all debts", "Create debt schedule", "ID verification", "Collect proof of income (payslip or MSD breakdown)", "Fill in application website", "Financial well-being questionnaire", "Signed by applicant"},
	"Debt Consolidation":             {"Collect loan statements and all debts", "Check credit score", "Calculate total debt amount", "Compare consolidation options", "Apply for consolidation loans"},
	"New Loan":                       {"Determine loan amount needed", "Check credit score", "Compare lenders", "Gather income documents", "Submit loan applications", "Choose appropriate loan provider"},
	"Hardship":                       {"Document financial situation", "Send templates for current lenders", "Request hardship variations", "Negotiate payment plans"},
	"First Home Buyer":               {"Collect all documentation", "Send all information to mortgage partner"},
	"Refinancing Mortgage":           {"Collect all documentation", "Send all information to mortgage partner"},
	"Rent":                           {"Review current rental cost", "Research market rates", "Check tenancy agreement", "Negotiate with landlord", "Consider relocation options", "Update bond if moving", "Arrange utilities transfer"},
	"Car Insurance":                  {"Collect vehicle details", "Collect current policy", "Compare quotes online", "Review excess & value options", "Check multi-policy discounts", "Suggest optimisation", "Guide switch"},
	"Health Insurance":               {"Collect relevant documents", "Send to health insurance partner", "Compare providers yourself", "Suggest optimisation"},
	"House Insurance":                {"Collect house details", "Collect current policy", "Compare quotes online", "Review excess & value options", "Check multi-policy discounts", "Suggest optimisation", "Guide switch"},
	"Pet Insurance":                  {"Get pet details", "Compare coverage options", "Review exclusions", "Get quotes", "Suggest optimisation"},
	"Contents Insurance":             {"Collect contents details", "Collect current policy", "Compare quotes online", "Review excess & value options", "Check multi-policy discounts", "Suggest optimisation", "Guide switch"},
	"Life Insurance":                 {"Collect relevant documents", "Send to health insurance partner", "Compare providers yourself", "Suggest optimisation"},
	"Starting Investing":             {"Determine investment goals", "Assess risk tolerance", "Research investment options", "Choose platform/broker", "Open investment account", "Make initial deposit", "Select first investments", "Set up regular contributions"},
	"Optimising Investments":         {"Review current portfolio", "Assess performance", "Rebalance if needed", "Consider tax implications(optional)", "Update investment strategy", "Consolidate if beneficial"},
	"Unclaimed Money":                {"Check IRD unclaimed money database", "Submit claim forms", "Communicate with client"},
	"Tax - Optimisation":             {"Review income", "Send client A&A authority form", "Update client"},
	"Broadband":                      {"Get recent bill", "Compare providers", "Check bundle options", "Suggest optimisation"},
	"Power":                          {"Get recent bills", "Check current rates", "Compare providers", "Check bundle options", "Suggest optimisation", "Guide through switch"},
	"Mobile":                         {"Get recent bill", "Compare plans", "Check coverage maps", "Suggest optimisation", "Guide through switch"},
	"Gas":                            {"Get recent bills", "Check current rates", "Compare providers", "Check bundle options", "Suggest optimisation", "Guide through switch"},
}

// IsTerminal reports whether a task in this status no longer needs work.
func IsTerminal(status string) bool {
	return status == StatusComplete || status == StatusNA
}
