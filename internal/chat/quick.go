package chat

// QuickAction is a predefined shortcut that submits a canned query.
type QuickAction struct {
	Key   string `json:"key"`
	Label string `json:"label"`
	Query string `json:"query"`
}

const defaultQuickQuery = "Tell me more about this."

// QuickActions lists the shortcuts in display order.
var QuickActions = []QuickAction{
	{Key: "products", Label: "Products", Query: "Tell me about your products"},
	{Key: "services", Label: "Services", Query: "What services do you offer?"},
	{Key: "support", Label: "Support", Query: "I need help or support"},
	{Key: "contact", Label: "Contact", Query: "How can I contact you?"},
}

// QuickQuery returns the query for an action key. Unknown keys map to a
// generic follow-up question.
func QuickQuery(action string) string {
	for _, qa := range QuickActions {
		if qa.Key == action {
			return qa.Query
		}
	}
	return defaultQuickQuery
}
