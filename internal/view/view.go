package view

import (
	"embed"
	"fmt"
	"html/template"
	"io"

	"cartstore/internal/models"

	"github.com/shopspring/decimal"
)

//go:embed templates/*.html
var templates embed.FS

var hundred = decimal.NewFromInt(100)

type Renderer struct {
	tmpl        *template.Template
	checkoutURL string
}

type cartPage struct {
	Cart        models.Cart
	Summary     models.Summary
	Count       int
	Empty       bool
	CheckoutURL string
}

func New(checkoutURL string) (*Renderer, error) {
	const op = "view.New"

	tmpl, err := template.New("view").
		Funcs(template.FuncMap{
			"money":   Money,
			"percent": percent,
		}).
		ParseFS(templates, "templates/*.html")
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}

	return &Renderer{
		tmpl:        tmpl,
		checkoutURL: checkoutURL,
	}, nil
}

// Money formats an amount as a dollar price with two decimals.
func Money(d decimal.Decimal) string {
	return "$" + d.StringFixed(2)
}

func percent(rate decimal.Decimal) string {
	return rate.Mul(hundred).String()
}

// RenderCartCount writes the count badge.
func (r *Renderer) RenderCartCount(w io.Writer, count int) error {
	return r.tmpl.ExecuteTemplate(w, "count", count)
}

// RenderCartPage writes the whole cart page. An empty cart shows the empty
// state and hides the item and summary blocks.
func (r *Renderer) RenderCartPage(w io.Writer, cart models.Cart, summary models.Summary) error {
	return r.tmpl.ExecuteTemplate(w, "cart", cartPage{
		Cart:        cart,
		Summary:     summary,
		Count:       cart.Count(),
		Empty:       len(cart) == 0,
		CheckoutURL: r.checkoutURL,
	})
}
