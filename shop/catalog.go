/*
catalog.go - Item catalog management

PURPOSE:
  Validates and mutates catalog items: creation, deletion, renames,
  category moves, price changes, enable/disable. Every operation either
  returns the updated item or fails with no partial mutation.

PRICE INVARIANT:
  The price rules in money.go are enforced identically at creation and at
  every change. There is no path that writes an unvalidated price.

SEE ALSO:
  - money.go: ParsePrice / ValidatePrice
  - authorize.go: Reads items during purchase authorization
*/
package shop

import "context"

// Catalog mutates the item catalog through an ItemStore.
type Catalog struct {
	Items ItemStore
}

// NewCatalog creates a catalog manager over the given store.
func NewCatalog(items ItemStore) *Catalog {
	return &Catalog{Items: items}
}

// CreateItem creates a new, enabled item. Fails on empty fields, a
// duplicate id, or an invalid price.
func (c *Catalog) CreateItem(ctx context.Context, id ItemID, displayName, category, priceText string) (*Item, error) {
	if id == "" || displayName == "" || category == "" {
		return nil, ErrEmptyField
	}
	exists, err := c.Items.ItemExists(ctx, id)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrDuplicateItem
	}
	price, err := ParsePrice(priceText)
	if err != nil {
		return nil, err
	}

	item := Item{
		ID:          id,
		Category:    category,
		DisplayName: displayName,
		Price:       price,
		Enabled:     true,
	}
	if err := c.Items.SaveItem(ctx, item); err != nil {
		return nil, err
	}
	return &item, nil
}

// Delete removes an item and returns it.
func (c *Catalog) Delete(ctx context.Context, id ItemID) (*Item, error) {
	item, err := c.Items.GetItem(ctx, id)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, ErrItemNotFound
	}
	if err := c.Items.DeleteItem(ctx, id); err != nil {
		return nil, err
	}
	return item, nil
}

// ChangeDisplayName sets a new display name. Empty names are rejected.
func (c *Catalog) ChangeDisplayName(ctx context.Context, id ItemID, name string) (*Item, error) {
	if name == "" {
		return nil, ErrEmptyField
	}
	return c.update(ctx, id, func(item *Item) error {
		item.DisplayName = name
		return nil
	})
}

// ChangeCategory moves the item to a new category. Empty categories are rejected.
func (c *Catalog) ChangeCategory(ctx context.Context, id ItemID, category string) (*Item, error) {
	if category == "" {
		return nil, ErrEmptyField
	}
	return c.update(ctx, id, func(item *Item) error {
		item.Category = category
		return nil
	})
}

// ChangePrice parses and validates price text, then applies it.
func (c *Catalog) ChangePrice(ctx context.Context, id ItemID, priceText string) (*Item, error) {
	return c.update(ctx, id, func(item *Item) error {
		price, err := ParsePrice(priceText)
		if err != nil {
			return err
		}
		item.Price = price
		return nil
	})
}

// Enable marks the item purchasable.
func (c *Catalog) Enable(ctx context.Context, id ItemID) (*Item, error) {
	return c.update(ctx, id, func(item *Item) error {
		item.Enabled = true
		return nil
	})
}

// Disable removes the item from sale without deleting it.
func (c *Catalog) Disable(ctx context.Context, id ItemID) (*Item, error) {
	return c.update(ctx, id, func(item *Item) error {
		item.Enabled = false
		return nil
	})
}

// update loads the item, applies fn, and saves. The mutation is applied
// to a copy; nothing is persisted when fn fails.
func (c *Catalog) update(ctx context.Context, id ItemID, fn func(*Item) error) (*Item, error) {
	item, err := c.Items.GetItem(ctx, id)
	if err != nil {
		return nil, err
	}
	if item == nil {
		return nil, ErrItemNotFound
	}
	if err := fn(item); err != nil {
		return nil, err
	}
	if err := c.Items.SaveItem(ctx, *item); err != nil {
		return nil, err
	}
	return item, nil
}
