package ledger

// ChartEntry is one row of the default chart of accounts used to seed a
// new company.
type ChartEntry struct {
	Code       string      `json:"code"`
	Name       string      `json:"name"`
	Type       AccountType `json:"type"`
	ParentCode string      `json:"parent_code,omitempty"`
	Control    bool        `json:"control"`
}

// DefaultChart is a minimal five-type chart. Top-level accounts are
// control accounts aggregating their children; children receive direct
// postings.
var DefaultChart = []ChartEntry{
	// Assets (1xxx)
	{Code: "1000", Name: "Assets", Type: TypeAsset, Control: true},
	{Code: "1010", Name: "Cash", Type: TypeAsset, ParentCode: "1000"},
	{Code: "1020", Name: "Bank Deposits", Type: TypeAsset, ParentCode: "1000"},
	{Code: "1030", Name: "Accounts Receivable", Type: TypeAsset, ParentCode: "1000"},
	{Code: "1040", Name: "Inventory", Type: TypeAsset, ParentCode: "1000"},
	{Code: "1050", Name: "Prepaid Expenses", Type: TypeAsset, ParentCode: "1000"},
	{Code: "1060", Name: "Property, Plant & Equipment", Type: TypeAsset, ParentCode: "1000"},

	// Liabilities (2xxx)
	{Code: "2000", Name: "Liabilities", Type: TypeLiability, Control: true},
	{Code: "2010", Name: "Accounts Payable", Type: TypeLiability, ParentCode: "2000"},
	{Code: "2020", Name: "Accrued Expenses", Type: TypeLiability, ParentCode: "2000"},
	{Code: "2030", Name: "Taxes Payable", Type: TypeLiability, ParentCode: "2000"},
	{Code: "2040", Name: "Loans Payable", Type: TypeLiability, ParentCode: "2000"},

	// Equity (3xxx)
	{Code: "3000", Name: "Equity", Type: TypeEquity, Control: true},
	{Code: "3010", Name: "Paid-in Capital", Type: TypeEquity, ParentCode: "3000"},
	{Code: "3020", Name: "Retained Earnings", Type: TypeEquity, ParentCode: "3000"},

	// Revenue (4xxx)
	{Code: "4000", Name: "Revenue", Type: TypeRevenue, Control: true},
	{Code: "4010", Name: "Sales Revenue", Type: TypeRevenue, ParentCode: "4000"},
	{Code: "4020", Name: "Service Revenue", Type: TypeRevenue, ParentCode: "4000"},
	{Code: "4030", Name: "Interest Income", Type: TypeRevenue, ParentCode: "4000"},

	// Expenses (5xxx)
	{Code: "5000", Name: "Expenses", Type: TypeExpense, Control: true},
	{Code: "5010", Name: "Cost of Goods Sold", Type: TypeExpense, ParentCode: "5000"},
	{Code: "5020", Name: "Salaries and Wages", Type: TypeExpense, ParentCode: "5000"},
	{Code: "5030", Name: "Rent Expense", Type: TypeExpense, ParentCode: "5000"},
	{Code: "5040", Name: "Depreciation", Type: TypeExpense, ParentCode: "5000"},
	{Code: "5050", Name: "Operating Expenses", Type: TypeExpense, ParentCode: "5000"},
}
