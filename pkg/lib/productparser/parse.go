package productparser

import (
	"errors"
	"strings"

	"cartstore/internal/models"

	"github.com/shopspring/decimal"
)

const pricePrefix = "Price:"

var (
	ErrEmptyName    = errors.New("product name is empty")
	ErrInvalidPrice = errors.New("invalid price, expected \"Price: $<number>\"")
)

// ParsePrice reads a product price label such as "Price: $12.50".
// Bare amounts ("12.50", "$12.50") are accepted too.
func ParsePrice(label string) (decimal.Decimal, error) {
	s := strings.TrimSpace(label)
	s = strings.TrimSpace(strings.TrimPrefix(s, pricePrefix))
	s = strings.TrimPrefix(s, "$")
	s = strings.ReplaceAll(s, ",", "")

	if s == "" {
		return decimal.Decimal{}, ErrInvalidPrice
	}

	price, err := decimal.NewFromString(s)
	if err != nil {
		return decimal.Decimal{}, ErrInvalidPrice
	}
	if price.IsNegative() {
		return decimal.Decimal{}, ErrInvalidPrice
	}

	return price, nil
}

// FromDetails builds a line item from the product details block: the name
// heading, the price label and the product image source.
func FromDetails(name, priceLabel, image string) (models.LineItem, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return models.LineItem{}, ErrEmptyName
	}

	price, err := ParsePrice(priceLabel)
	if err != nil {
		return models.LineItem{}, err
	}

	return models.LineItem{
		ID:       models.ProductID(name),
		Name:     name,
		Price:    price,
		Image:    strings.TrimSpace(image),
		Quantity: 1,
	}, nil
}
