// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// HTTPConfig holds shared HTTP settings used by stages that make network requests.
type HTTPConfig struct {
	// Timeout is the HTTP request timeout (default 30s). Every external
	// call runs under this bound; exceeding it fails the call, not the process.
	Timeout time.Duration `json:"timeout" yaml:"timeout" mapstructure:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "research-radar/0.1"). Crossref in particular expects one.
	UserAgent string `json:"user_agent" yaml:"user_agent" mapstructure:"user_agent"`
}

// SearchConfig holds settings for the search stage.
type SearchConfig struct {
	// Queries is the list of boolean query strings (AND/OR/NOT, quoted
	// phrases) issued against every enabled backend. When LLM query
	// generation is enabled these are the fallback.
	Queries []string `json:"queries" yaml:"queries" mapstructure:"queries"`

	// SearchWindowDays is the lookback window in days. Papers older than
	// now minus this window are dropped at the backend boundary.
	SearchWindowDays int `json:"search_window_days" yaml:"search_window_days" mapstructure:"search_window_days"`

	// MaxResultsPerSource caps results per query per backend (default 12).
	MaxResultsPerSource int `json:"max_results_per_source" yaml:"max_results_per_source" mapstructure:"max_results_per_source"`

	// RequestDelay is the politeness delay between consecutive API
	// requests (default 1s; arXiv asks for 3s, which backends may extend).
	RequestDelay time.Duration `json:"request_delay" yaml:"request_delay" mapstructure:"request_delay"`

	// UseLLMQueryGeneration enables generating queries from ResearchFocus
	// via the language model instead of using Queries directly.
	UseLLMQueryGeneration bool `json:"use_llm_query_generation" yaml:"use_llm_query_generation" mapstructure:"use_llm_query_generation"`

	// ResearchFocus describes the research area for LLM query generation.
	ResearchFocus string `json:"research_focus" yaml:"research_focus" mapstructure:"research_focus"`

	// ExcludeTopics lists topics the generated queries should exclude.
	ExcludeTopics []string `json:"exclude_topics" yaml:"exclude_topics" mapstructure:"exclude_topics"`

	// NumQueries is how many queries to generate (default 7).
	NumQueries int `json:"num_queries" yaml:"num_queries" mapstructure:"num_queries"`
}

// AIConfig holds shared settings for stages that call the Gemini API.
type AIConfig struct {
	// Model is the Gemini model identifier (e.g. "gemini-1.5-flash-latest").
	Model string `json:"model" yaml:"model" mapstructure:"model"`

	// APIKey is the authentication key. Usually supplied via the
	// GEMINI_API_KEY environment variable or the secrets directory,
	// never via the config file in version control.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty" mapstructure:"api_key"`

	// Temperature controls generation randomness (default 0.2).
	Temperature float64 `json:"temperature" yaml:"temperature" mapstructure:"temperature"`

	// MaxTokens bounds the generated output length (default 600).
	MaxTokens int `json:"max_tokens" yaml:"max_tokens" mapstructure:"max_tokens"`
}

// SummarizationConfig holds settings for the summarization stage.
type SummarizationConfig struct {
	AIConfig `yaml:",inline" mapstructure:",squash"`

	// MaxSummaries caps how many papers are summarized and mailed per run
	// (default 12). Truncation is positional over the merged candidate order.
	MaxSummaries int `json:"max_summaries" yaml:"max_summaries" mapstructure:"max_summaries"`
}

// RelevanceConfig holds settings for the optional LLM relevance filter.
type RelevanceConfig struct {
	// Enabled turns relevance scoring on. Off by default; when off the
	// merged candidate list goes straight to summarization.
	Enabled bool `json:"enabled" yaml:"enabled" mapstructure:"enabled"`

	// BusinessContext describes what "relevant" means for this newsletter.
	BusinessContext string `json:"business_context" yaml:"business_context" mapstructure:"business_context"`

	// HighlyRelevantThreshold admits papers unconditionally (default 7.0).
	HighlyRelevantThreshold float64 `json:"highly_relevant_threshold" yaml:"highly_relevant_threshold" mapstructure:"highly_relevant_threshold"`

	// AlsoRelevantThreshold is the floor for papers that may fill the
	// digest up to MinPapers (default 5.0).
	AlsoRelevantThreshold float64 `json:"also_relevant_threshold" yaml:"also_relevant_threshold" mapstructure:"also_relevant_threshold"`

	// MinPapers is the minimum digest size the filter tries to reach by
	// admitting also-relevant papers (default 5).
	MinPapers int `json:"min_total_papers" yaml:"min_total_papers" mapstructure:"min_total_papers"`
}

// EmailConfig holds digest addressing settings.
type EmailConfig struct {
	// Recipients are the digest destination addresses. An empty list
	// skips delivery with a warning.
	Recipients []string `json:"recipients" yaml:"recipients" mapstructure:"recipients"`

	// FromEmail is the envelope sender address.
	FromEmail string `json:"from_email" yaml:"from_email" mapstructure:"from_email"`

	// FromName is the sender display name.
	FromName string `json:"from_name" yaml:"from_name" mapstructure:"from_name"`

	// SubjectPrefix prefixes the digest subject (default "[Research Digest]").
	SubjectPrefix string `json:"subject_prefix" yaml:"subject_prefix" mapstructure:"subject_prefix"`
}

// SMTPConfig holds SMTP transport settings. Credentials come from the
// environment (SMTP_USERNAME, SMTP_PASSWORD) or the secrets directory.
type SMTPConfig struct {
	Host   string `json:"host" yaml:"host" mapstructure:"host"`
	Port   int    `json:"port" yaml:"port" mapstructure:"port"`
	UseSSL bool   `json:"use_ssl" yaml:"use_ssl" mapstructure:"use_ssl"`

	Username string `json:"username,omitempty" yaml:"username,omitempty" mapstructure:"username"`
	Password string `json:"password,omitempty" yaml:"password,omitempty" mapstructure:"password"`
}

// StateConfig locates the persisted seen-state document.
type StateConfig struct {
	// Path is the JSON state file (default "state/seen_ids.json").
	Path string `json:"path" yaml:"path" mapstructure:"path"`
}

// HistoryConfig locates the SQLite digest archive.
type HistoryConfig struct {
	// Path is the SQLite database file (default "state/history.db").
	Path string `json:"path" yaml:"path" mapstructure:"path"`
}

// Config groups all stage configurations for one pipeline run.
type Config struct {
	HTTP          HTTPConfig          `json:"http" yaml:"http" mapstructure:"http"`
	Search        SearchConfig        `json:"search" yaml:"search" mapstructure:"search"`
	Summarization SummarizationConfig `json:"summarization" yaml:"summarization" mapstructure:"summarization"`
	Relevance     RelevanceConfig     `json:"relevance" yaml:"relevance" mapstructure:"relevance"`
	Email         EmailConfig         `json:"email" yaml:"email" mapstructure:"email"`
	SMTP          SMTPConfig          `json:"smtp" yaml:"smtp" mapstructure:"smtp"`
	State         StateConfig         `json:"state" yaml:"state" mapstructure:"state"`
	History       HistoryConfig       `json:"history" yaml:"history" mapstructure:"history"`
}

// Defaults returns a Config with every default the pipeline assumes.
// Viper-decoded values overlay this.
func Defaults() Config {
	return Config{
		HTTP: HTTPConfig{
			Timeout:   30 * time.Second,
			UserAgent: "research-radar/0.1",
		},
		Search: SearchConfig{
			SearchWindowDays:    7,
			MaxResultsPerSource: 12,
			RequestDelay:        time.Second,
			NumQueries:          7,
		},
		Summarization: SummarizationConfig{
			AIConfig: AIConfig{
				Model:       "gemini-1.5-flash-latest",
				Temperature: 0.2,
				MaxTokens:   600,
			},
			MaxSummaries: 12,
		},
		Relevance: RelevanceConfig{
			HighlyRelevantThreshold: 7.0,
			AlsoRelevantThreshold:   5.0,
			MinPapers:               5,
		},
		Email: EmailConfig{
			FromEmail:     "research@example.com",
			FromName:      "Research Radar",
			SubjectPrefix: "[Research Digest]",
		},
		SMTP: SMTPConfig{
			Host:   "smtp.gmail.com",
			Port:   465,
			UseSSL: true,
		},
		State:   StateConfig{Path: "state/seen_ids.json"},
		History: HistoryConfig{Path: "state/history.db"},
	}
}
