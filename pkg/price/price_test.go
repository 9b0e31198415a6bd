package price_test

import (
	"testing"

	"github.com/niksmo/wheels-shop/pkg/price"
	"github.com/stretchr/testify/assert"
)

func TestFormat(t *testing.T) {
	assert.Equal(t, "25 000 ₽", price.Format(25000))
	assert.Equal(t, "999 ₽", price.Format(999))
	assert.Equal(t, "1 234 567 ₽", price.Format(1234567))
	assert.Equal(t, "0 ₽", price.Format(0))
}

func TestParse(t *testing.T) {
	assert.Equal(t, 25000, price.Parse("25 000 ₽"))
	assert.Equal(t, 45000, price.Parse("45000"))
	assert.Equal(t, 0, price.Parse("free"))
	assert.Equal(t, 0, price.Parse(""))
}
