// Package schema builds JSON Schema documents for tool parameters and for the
// structured responses requested from the language model.
//
// Example usage:
//
//	classification := schema.Object(map[string]*jsonschema.Schema{
//		"action":   schema.StringEnum("How to handle the question", "direct_answer", "research_required"),
//		"response": schema.String("Reply shown to the user"),
//	}, "action", "response")
package schema
