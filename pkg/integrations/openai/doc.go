// Package openai provides an HTTP client for the OpenAI chat completions
// endpoint, which the place intelligence layer uses to describe places.
//
// # Usage
//
//	client := openai.NewClient(apiKey)
//	text, err := client.Complete(ctx, openai.CompletionRequest{
//	    System: "You are a helpful travel and cultural assistant.",
//	    User:   prompt,
//	})
//
// Completions are not cached here; caching of descriptions happens one
// level up, keyed by place and mode.
package openai
