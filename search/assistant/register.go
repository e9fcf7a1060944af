package assistant

import "github.com/ssep-lab/ssep-search/search"

func init() {
	search.NewAssistantStrategyFunc = func(cfg search.AssistantConfig) search.ProposalStrategy {
		client := NewChatClient(cfg.BaseURL, cfg.APIKey, cfg.Model)
		return NewStrategy(client, CompletionOptions{Temperature: cfg.Temperature, MaxTokens: cfg.MaxTokens})
	}
}
