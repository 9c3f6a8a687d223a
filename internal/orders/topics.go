package orders

const TopicStockChanged = "stock.changed"

// PartitionKey keeps every event of one SKU on one partition, in order.
func PartitionKey(sku string) []byte { return []byte(sku) }
