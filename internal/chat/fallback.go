package chat

import "strings"

// fallbackCategory maps trigger keywords to a canned reply.
type fallbackCategory struct {
	name     string
	keywords []string
	reply    string
}

// Checked in order; the first category with a matching keyword wins.
var fallbackCategories = []fallbackCategory{
	{
		name:     "product",
		keywords: []string{"product"},
		reply: "Our products are designed to meet your needs with the highest quality standards. " +
			"We offer a wide range of solutions tailored to different requirements. " +
			"Would you like to know more about a specific product category?",
	},
	{
		name:     "service",
		keywords: []string{"service"},
		reply: "We provide comprehensive services including consultation, support, and customization. " +
			"Our team is dedicated to ensuring you get the best possible experience. " +
			"What specific service are you interested in?",
	},
	{
		name:     "support",
		keywords: []string{"support", "help"},
		reply: "I'm here to help! You can reach our support team through:\n\n" +
			"• **Email**: support@company.com\n" +
			"• **Phone**: +1 (555) 123-4567\n" +
			"• **Live Chat**: Available during business hours\n\n" +
			"What specific issue can I help you with?",
	},
	{
		name:     "contact",
		keywords: []string{"contact"},
		reply: "You can reach us through multiple channels:\n\n" +
			"• **General Inquiries**: info@company.com\n" +
			"• **Sales**: sales@company.com\n" +
			"• **Support**: support@company.com\n" +
			"• **Phone**: +1 (555) 123-4567\n\n" +
			"We typically respond within 24 hours during business days.",
	},
	{
		name:     "greeting",
		keywords: []string{"hello", "hi", "hey"},
		reply:    "Hello! 👋\n\nHow can I assist you today?",
	},
	{
		name:     "thanks",
		keywords: []string{"thank", "thanks"},
		reply:    "You're most welcome! 🙏\n\nIf you have more questions, feel free to ask anytime!",
	},
}

const clarificationReply = "Thank you for your question! 🤔\n\n" +
	"I'm here to help with information about our products, services, and support. " +
	"Could you please be more specific about what you'd like to know?"

// Fallback produces a reply without the remote service.
type Fallback func(text string) string

// LocalFallback classifies text by case-insensitive substring match against
// the ordered keyword categories and returns that category's canned reply,
// or a request for clarification when nothing matches.
//
// Matching is on substrings, so "hi" also matches "this" or "which".
func LocalFallback(text string) string {
	_, reply := classify(text)
	return reply
}

// FallbackCategory returns the name of the matched category, or "default".
func FallbackCategory(text string) string {
	name, _ := classify(text)
	return name
}

func classify(text string) (string, string) {
	lower := strings.ToLower(text)
	for _, cat := range fallbackCategories {
		for _, kw := range cat.keywords {
			if strings.Contains(lower, kw) {
				return cat.name, cat.reply
			}
		}
	}
	return "default", clarificationReply
}
