package core

// Category taxonomy. The lists are fixed per transaction type; a
// category is a label, not a foreign key.

var IncomeCategories = []string{
	"Salary",
	"Gifts",
	"Investment",
	"Freelance",
	"Dividends",
	"Bonus",
	"Other",
}

var ExpenseCategories = []string{
	"Food & Drink",
	"Groceries",
	"Transportation",
	"Housing",
	"Bills & Utilities",
	"Shopping",
	"Entertainment",
	"Health",
	"Education",
	"Travel",
	"Subscriptions",
	"Personal Care",
	"Family",
	"Pets",
	"Other",
}

// CategoriesFor returns the category list for the given transaction type.
func CategoriesFor(tt TransactionType) []string {
	switch tt {
	case Income:
		return IncomeCategories
	case Expense:
		return ExpenseCategories
	}
	return nil
}

func ValidCategory(tt TransactionType, category string) bool {
	for _, c := range CategoriesFor(tt) {
		if c == category {
			return true
		}
	}
	return false
}
