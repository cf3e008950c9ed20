package config

const (
	defaultForgeBaseURL = "https://api.github.com"
	defaultAPIListen    = ":8080"
	defaultViewerPort   = 8040
)

// NewDefaultConfig returns a Config with sane defaults for all fields.
// This is the single source of truth for default values.
func NewDefaultConfig() *Config {
	return &Config{
		Version: CurrentV,
		Forge: ForgeConfig{
			BaseURL: defaultForgeBaseURL,
		},
		API: APIConfig{
			Listen: defaultAPIListen,
		},
		Viewer: ViewerConfig{
			Port: defaultViewerPort,
		},
	}
}
