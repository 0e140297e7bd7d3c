package domain

// CatalogNamespace names one of the override groups an operator can edit.
type CatalogNamespace string

const (
	// NamespaceWebsiteTypes holds website type base prices.
	NamespaceWebsiteTypes CatalogNamespace = "websiteTypes"
	// NamespaceFeatures holds feature prices.
	NamespaceFeatures CatalogNamespace = "features"
	// NamespaceExtras holds extra service prices.
	NamespaceExtras CatalogNamespace = "extras"
	// NamespacePricePerPage holds the singular per-page price.
	NamespacePricePerPage CatalogNamespace = "pricePerPage"
)

// CatalogItem is a priceable entry such as a website type, feature, or extra service.
type CatalogItem struct {
	ID          string
	Name        string
	BasePrice   int64
	Description string
}

// DeliveryOption scales the rule-adjusted subtotal by Multiplier.
type DeliveryOption struct {
	ID          string
	Name        string
	Multiplier  float64
	Duration    string
	Description string
}

// Catalog is an immutable snapshot of effective prices used for one computation.
type Catalog struct {
	WebsiteTypes []CatalogItem
	Features     []CatalogItem
	Extras       []CatalogItem
	Delivery     []DeliveryOption
	PricePerPage int64
}

// CatalogOverrides layers operator prices over the compiled-in defaults.
type CatalogOverrides struct {
	WebsiteTypes map[string]int64
	Features     map[string]int64
	Extras       map[string]int64
	PricePerPage *int64
}

// IsEmpty reports whether no override is set.
func (o CatalogOverrides) IsEmpty() bool {
	return len(o.WebsiteTypes) == 0 && len(o.Features) == 0 && len(o.Extras) == 0 && o.PricePerPage == nil
}

// Clone returns a deep copy so callers can mutate the result freely.
func (o CatalogOverrides) Clone() CatalogOverrides {
	out := CatalogOverrides{
		WebsiteTypes: cloneInt64Map(o.WebsiteTypes),
		Features:     cloneInt64Map(o.Features),
		Extras:       cloneInt64Map(o.Extras),
	}
	if o.PricePerPage != nil {
		v := *o.PricePerPage
		out.PricePerPage = &v
	}
	return out
}

// WebsiteType looks up a website type by id.
func (c Catalog) WebsiteType(id string) (CatalogItem, bool) {
	return findItem(c.WebsiteTypes, id)
}

// Feature looks up a feature by id.
func (c Catalog) Feature(id string) (CatalogItem, bool) {
	return findItem(c.Features, id)
}

// Extra looks up an extra service by id.
func (c Catalog) Extra(id string) (CatalogItem, bool) {
	return findItem(c.Extras, id)
}

// DeliveryOption looks up a delivery option by id.
func (c Catalog) DeliveryOption(id string) (DeliveryOption, bool) {
	for _, option := range c.Delivery {
		if option.ID == id {
			return option, true
		}
	}
	return DeliveryOption{}, false
}

// PriceOf returns the price of a catalog lookup, treating a missing entry as zero.
// Unknown ids are a soft degradation: a config that references a removed item still prices.
func PriceOf(item CatalogItem, found bool) int64 {
	if !found {
		return 0
	}
	return item.BasePrice
}

func findItem(items []CatalogItem, id string) (CatalogItem, bool) {
	if id == "" {
		return CatalogItem{}, false
	}
	for _, item := range items {
		if item.ID == id {
			return item, true
		}
	}
	return CatalogItem{}, false
}

func cloneInt64Map(src map[string]int64) map[string]int64 {
	if len(src) == 0 {
		return nil
	}
	dst := make(map[string]int64, len(src))
	for k, v := range src {
		dst[k] = v
	}
	return dst
}
