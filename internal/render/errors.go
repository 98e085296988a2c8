package render

import (
	"html"

	"github.com/kiranshivaraju/playbook/internal/ai/failure"
)

var messages = map[failure.Category]string{
	failure.CategoryAuth:    "API key is missing or invalid. Please check your .env.local file.",
	failure.CategoryQuota:   "API quota exceeded. Please try again later.",
	failure.CategoryNetwork: "Network error. Please check your connection and try again.",
	failure.CategoryGeneric: "An error occurred while generating your report.",
}

const retryButton = `<button onclick="location.reload()" style="margin-top: 10px; padding: 8px 16px; background: #007bff; color: white; border: none; border-radius: 4px; cursor: pointer;">Try Again</button>`

// Message returns the visitor-facing text for a failure category.
func Message(c failure.Category) string {
	if m, ok := messages[c]; ok {
		return m
	}
	return messages[failure.CategoryGeneric]
}

// ErrorHTML renders the failure message followed by a reload button.
func ErrorHTML(c failure.Category) string {
	return `<p style="color: #ff4d4d;">` + html.EscapeString(Message(c)) + `</p>` + retryButton
}
