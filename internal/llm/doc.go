// Package llm fala com qualquer API de chat/completions compatível com a da
// OpenAI (OpenRouter e Ollama em modo openai inclusos). O blog faz duas
// chamadas: o veredito de moderação e o resumo de post, ambas síncronas.
//
//	client, err := llm.NewClient(
//	    llm.WithBaseURL(cfg.LLMBaseURL),
//	    llm.WithModel("gpt-4o-mini"),
//	)
//	resp, err := client.WithMetrics().Generate(ctx, llm.CompletionRequest{
//	    Messages: []llm.Message{
//	        {Role: llm.RoleSystem, Content: "Resuma posts de blog."},
//	        {Role: llm.RoleUser, Content: post.Content},
//	    },
//	    MaxTokens: 200,
//	})
//
// Respostas 5xx são repetidas com backoff; 429 sobe como RateLimitError com
// o retry-after do provedor, para a fila de jobs reagendar.
package llm
