package postgres

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"ventra/internal/core/id"
	"ventra/internal/domain/inventory"
	"ventra/internal/domain/orders"
)

func TestExtractDBColumnsPart(t *testing.T) {
	cols := ExtractDBColumns[inventory.Part]()

	assert.Equal(t, []string{
		"id", "name", "stock_count", "reorder_threshold", "unit_price",
		"created_at", "updated_at",
	}, cols, "column order must follow field order; INSERT value lists rely on it")
}

func TestExtractDBColumnsSkipsIgnoredFields(t *testing.T) {
	type withIgnored struct {
		ID     id.ID  `db:"id"`
		Name   string `db:"name"`
		Hidden string `db:"-"`
		Plain  string
	}

	cols := ExtractDBColumns[withIgnored]()
	assert.Equal(t, []string{"id", "name"}, cols)
}

func TestExtractDBColumnsEmbeddedStruct(t *testing.T) {
	type base struct {
		ID id.ID `db:"id"`
	}
	type outer struct {
		base
		Name string `db:"name"`
	}

	assert.Equal(t, []string{"id", "name"}, ExtractDBColumns[outer]())
}

func TestExtractDBColumnsOrderSkipsExpand(t *testing.T) {
	cols := ExtractDBColumns[orders.Order]()
	assert.NotContains(t, cols, "-")
	assert.NotContains(t, cols, "expand")
	assert.Contains(t, cols, "delivery_fee")
}
