package catalog

import "github.com/shopspring/decimal"

// CreatePortfolioInput carries portfolio master data.
type CreatePortfolioInput struct {
	Name string
}

// ParameterInput is one pricing dimension attached to a service.
type ParameterInput struct {
	Name      string
	UnitPrice decimal.Decimal
}

// CreateServiceInput creates a catalog entry. CategoryName is resolved (and
// created when missing) under the portfolio; the service lands in the
// category's default subcategory.
type CreateServiceInput struct {
	PortfolioID  int64
	CategoryName string
	Name         string
	Description  string
	Activities   []string
	Parameters   []ParameterInput
}

// UpdateServiceInput is a partial update of a catalog entry. Nil fields are
// left untouched; a non-nil Activities slice replaces the whole checklist.
type UpdateServiceInput struct {
	Name        *string
	Description *string
	Activities  []string
}

// CascadeResult reports how many rows each table lost during a cascade.
type CascadeResult map[string]int64

func (c CascadeResult) add(table string, count int64) {
	c[table] += count
}

// Total sums the removed rows across all tables.
func (c CascadeResult) Total() int64 {
	var total int64
	for _, count := range c {
		total += count
	}
	return total
}
