package model

// CategoryClassification indicates whether a category applies to income or expenses.
type CategoryClassification string

const (
	// ClassificationIncome represents categories for income transactions.
	ClassificationIncome CategoryClassification = "income"
	// ClassificationExpense represents categories for expense transactions.
	ClassificationExpense CategoryClassification = "expense"
)

// Category represents a user-defined transaction category.
type Category struct {
	ID             string
	Name           string
	Description    string
	Classification CategoryClassification
	IsSubcategory  bool
}

// Merchant represents a known merchant the user has assigned before.
type Merchant struct {
	ID   string
	Name string
}
