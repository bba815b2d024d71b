package gemini

import "fmt"

const (
	ProviderGemini = "gemini"
	ProviderMock   = "mock" // локальная разработка без ключа
)

type Config struct {
	Provider string `envconfig:"PROVIDER" default:"gemini"`
	BaseURL  string `envconfig:"BASE_URL" default:"https://generativelanguage.googleapis.com"`
	Version  string `envconfig:"VERSION" default:"v1beta"`
	Model    string `envconfig:"MODEL" default:"gemini-flash-latest"`
	ApiKey   string `envconfig:"API_KEY"`
}

// Validate ключ обязателен только для настоящего провайдера
func (c *Config) Validate() error {
	switch c.Provider {
	case ProviderGemini:
		if c.ApiKey == "" {
			return fmt.Errorf("gemini api key is required for provider %q", c.Provider)
		}
	case ProviderMock:
	default:
		return fmt.Errorf("gemini provider must be either %q or %q, got: %q", ProviderGemini, ProviderMock, c.Provider)
	}
	return nil
}
