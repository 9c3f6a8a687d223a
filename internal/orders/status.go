package orders

type Status string

const (
	StatusPending   Status = "pending"
	StatusShipped   Status = "shipped"
	StatusDelivered Status = "delivered"
	StatusCancelled Status = "cancelled"
)

var validNext = map[Status]map[Status]bool{
	StatusPending:   {StatusShipped: true, StatusDelivered: true, StatusCancelled: true},
	StatusShipped:   {StatusDelivered: true, StatusCancelled: true},
	StatusDelivered: {},
	StatusCancelled: {},
}

func (s Status) Valid() bool {
	_, ok := validNext[s]
	return ok
}

// CanTransition reports whether an order may move from one status to another.
// Re-applying the current status is always allowed.
func CanTransition(from, to Status) bool {
	if from == to {
		return true
	}
	return validNext[from][to]
}

type ProductStatus string

const (
	ProductActive   ProductStatus = "active"
	ProductInactive ProductStatus = "inactive"
)

func (s ProductStatus) Valid() bool {
	return s == ProductActive || s == ProductInactive
}

type MarketplaceType string

const (
	MarketplaceAmazon      MarketplaceType = "amazon"
	MarketplaceEbay        MarketplaceType = "ebay"
	MarketplaceShopify     MarketplaceType = "shopify"
	MarketplaceWooCommerce MarketplaceType = "woocommerce"
	MarketplaceKaufland    MarketplaceType = "kaufland"
	MarketplaceShopware6   MarketplaceType = "shopware6"
	MarketplaceLocal       MarketplaceType = "local"
)

var marketplaceTypes = map[MarketplaceType]bool{
	MarketplaceAmazon:      true,
	MarketplaceEbay:        true,
	MarketplaceShopify:     true,
	MarketplaceWooCommerce: true,
	MarketplaceKaufland:    true,
	MarketplaceShopware6:   true,
	MarketplaceLocal:       true,
}

func (t MarketplaceType) Valid() bool { return marketplaceTypes[t] }
