package types

import "time"

// HTTPConfig holds shared HTTP settings for the Starter API client.
type HTTPConfig struct {
	// Timeout is the per-request network timeout.
	Timeout time.Duration `json:"timeout" yaml:"timeout"`

	// UserAgent is the User-Agent header sent with HTTP requests
	// (e.g. "starter-export/0.1").
	UserAgent string `json:"user_agent" yaml:"user_agent"`
}

// ErrorClass groups failed attempts that share a backoff policy.
type ErrorClass string

const (
	ClassThrottled ErrorClass = "throttled"
	ClassServer    ErrorClass = "transient_server"
	ClassNetwork   ErrorClass = "network"
	ClassMalformed ErrorClass = "malformed_response"
)

// BackoffConfig parameterizes the delay between attempts for one error class.
type BackoffConfig struct {
	// BaseDelay is the delay before the exponent is applied.
	BaseDelay time.Duration `json:"base_delay" yaml:"base_delay"`

	// Multiplier is raised to the attempt index (default 2).
	Multiplier float64 `json:"multiplier" yaml:"multiplier"`

	// MaxDelay caps the exponential part. Zero means uncapped.
	MaxDelay time.Duration `json:"max_delay" yaml:"max_delay"`

	// Jitter is the upper bound of the uniform random delay added on top.
	Jitter time.Duration `json:"jitter" yaml:"jitter"`

	// MaxRetries is how many failures of this class are retried before
	// the request gives up.
	MaxRetries int `json:"max_retries" yaml:"max_retries"`
}

// RetryConfig holds the rate limit and the per-class backoff policies.
type RetryConfig struct {
	// MinInterval is the floor between logical requests and between attempts.
	MinInterval time.Duration `json:"min_interval" yaml:"min_interval"`

	// TransientStatuses are HTTP statuses retried as ClassServer.
	TransientStatuses []int `json:"transient_statuses" yaml:"transient_statuses"`

	// Backoff maps each error class to its policy.
	Backoff map[ErrorClass]BackoffConfig `json:"backoff" yaml:"backoff"`
}

// DefaultRetryConfig returns the policy used against the Starter API:
// at most 5 requests per second, 5 throttle retries, 6 transient retries.
func DefaultRetryConfig() RetryConfig {
	transient := BackoffConfig{
		BaseDelay:  1 * time.Second,
		Multiplier: 2,
		MaxDelay:   30 * time.Second,
		Jitter:     250 * time.Millisecond,
		MaxRetries: 6,
	}
	return RetryConfig{
		MinInterval:       200 * time.Millisecond,
		TransientStatuses: []int{408, 500, 502, 503, 504},
		Backoff: map[ErrorClass]BackoffConfig{
			ClassThrottled: {
				BaseDelay:  1 * time.Second,
				Multiplier: 2,
				MaxRetries: 5,
			},
			ClassServer:    transient,
			ClassNetwork:   transient,
			ClassMalformed: transient,
		},
	}
}

// MaxAttempts is the shared attempt budget of one logical request: the
// largest per-class retry ceiling plus the initial attempt.
func (c RetryConfig) MaxAttempts() int {
	most := 0
	for _, b := range c.Backoff {
		if b.MaxRetries > most {
			most = b.MaxRetries
		}
	}
	return most + 1
}

// IsTransientStatus reports whether status is retried as a server error.
func (c RetryConfig) IsTransientStatus(status int) bool {
	for _, s := range c.TransientStatuses {
		if s == status {
			return true
		}
	}
	return false
}

// StarterConfig holds settings for the Web of Science Starter API.
type StarterConfig struct {
	HTTPConfig `yaml:",inline"`

	// BaseURL is the API root, e.g. https://api.clarivate.com/apis/wos-starter/v1.
	BaseURL string `json:"base_url" yaml:"base_url"`

	// APIKey is sent in the X-ApiKey header.
	APIKey string `json:"api_key,omitempty" yaml:"api_key,omitempty"`

	// DB is the database code passed with every query (default WOS).
	DB string `json:"db" yaml:"db"`

	// PageSize is the number of records requested per page (max 50).
	PageSize int `json:"page_size" yaml:"page_size"`

	// MaxTotal is the largest declared total a run will fetch.
	MaxTotal int `json:"max_total" yaml:"max_total"`

	// SearchableFields lists the field tags accepted in a query. Only used
	// to explain a rejected query.
	SearchableFields []string `json:"searchable_fields" yaml:"searchable_fields"`

	Retry RetryConfig `json:"retry" yaml:"retry"`
}

// DefaultStarterConfig returns the production Starter API settings.
func DefaultStarterConfig() StarterConfig {
	return StarterConfig{
		HTTPConfig: HTTPConfig{
			Timeout:   60 * time.Second,
			UserAgent: "starter-export/0.1",
		},
		BaseURL:  "https://api.clarivate.com/apis/wos-starter/v1",
		DB:       "WOS",
		PageSize: 50,
		MaxTotal: 50000,
		SearchableFields: []string{
			"AI", "AU", "CS", "DO", "DOP", "DT", "FPY", "IS", "OG", "PG",
			"PMID", "PY", "SO", "TI", "TS", "UT", "VL",
		},
		Retry: DefaultRetryConfig(),
	}
}

// ExportConfig holds the destination limits the sinks must honor.
type ExportConfig struct {
	// CellCharLimit is the longest text a workbook cell may hold.
	CellCharLimit int `json:"cell_char_limit" yaml:"cell_char_limit"`

	// TruncationMarker is appended to clipped cells.
	TruncationMarker string `json:"truncation_marker" yaml:"truncation_marker"`

	// HyperlinkThreshold is the declared total above which only DOI links
	// are rendered as hyperlinks.
	HyperlinkThreshold int `json:"hyperlink_threshold" yaml:"hyperlink_threshold"`

	// ReportPreview is how many record ids each truncation note lists.
	ReportPreview int `json:"report_preview" yaml:"report_preview"`

	// CoreLayout keeps the unavailable WoS Core headers as blank columns
	// in the full sheet.
	CoreLayout bool `json:"core_layout" yaml:"core_layout"`
}

// DefaultExportConfig returns the xlsx limits.
func DefaultExportConfig() ExportConfig {
	return ExportConfig{
		CellCharLimit:      32767,
		TruncationMarker:   " … [truncated]",
		HyperlinkThreshold: 32765,
		ReportPreview:      20,
	}
}
