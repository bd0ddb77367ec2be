package feed

import (
	"errors"
	"fmt"
	"io"

	"goods-be/internal/catalog"

	"github.com/shopspring/decimal"
	"gopkg.in/yaml.v3"
)

// Parse decodes a YAML feed. Field-level rules are checked by the importer.
func Parse(r io.Reader) (*catalog.Feed, error) {
	var doc document
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		if errors.Is(err, io.EOF) {
			return nil, ErrMalformedFeed.With("empty document")
		}
		return nil, ErrMalformedFeed.With(err.Error())
	}
	return toFeed(doc)
}

func toFeed(doc document) (*catalog.Feed, error) {
	f := &catalog.Feed{Shop: doc.Shop}

	if doc.Categories != nil {
		f.Categories = make([]catalog.FeedCategory, 0, len(doc.Categories))
	}
	for _, c := range doc.Categories {
		f.Categories = append(f.Categories, catalog.FeedCategory{ID: c.ID, Name: c.Name})
	}

	if doc.Goods != nil {
		f.Goods = make([]catalog.FeedGood, 0, len(doc.Goods))
	}
	for _, g := range doc.Goods {
		price, err := money(g.Price)
		if err != nil {
			return nil, ErrMalformedFeed.With(fmt.Sprintf("good %d: price: %v", g.ID, err))
		}
		rrc, err := money(g.PriceRRC)
		if err != nil {
			return nil, ErrMalformedFeed.With(fmt.Sprintf("good %d: price_rrc: %v", g.ID, err))
		}
		f.Goods = append(f.Goods, catalog.FeedGood{
			ID:         g.ID,
			Category:   g.Category,
			Name:       g.Name,
			Model:      g.Model,
			Price:      price,
			PriceRRC:   rrc,
			Quantity:   g.Quantity,
			Parameters: g.Parameters,
		})
	}
	return f, nil
}

// money reads a scalar without a float round trip.
func money(n yaml.Node) (decimal.Decimal, error) {
	if n.Kind == 0 {
		return decimal.Decimal{}, errors.New("missing")
	}
	if n.Kind != yaml.ScalarNode {
		return decimal.Decimal{}, errors.New("not a number")
	}
	return decimal.NewFromString(n.Value)
}
