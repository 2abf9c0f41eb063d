package orders

const (
	TopicOrderCreated = "order.created"
	TopicOrderPaid    = "order.paid"
)

func Topics() []string { return []string{TopicOrderCreated, TopicOrderPaid} }

// Partition key = session_id, so every event of one order keeps its order.
func PartitionKey(sessionID string) []byte { return []byte(sessionID) }
