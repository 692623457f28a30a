package config

type Config interface {
	EnvConfig
	CorsConfig
	BackendConfig
	SessionConfig
	LogConfig
}

type EnvConfig interface {
	GetPort() string
	GetAppName() string
	GetEnv() string
}

type CorsConfig interface {
	GetAllowedOrigins() AllowedOrigins
	GetAllowedMethods() string
	GetAllowedHeaders() string
}

type mainConfig struct {
	EnvVars
	Cors
	Backend
	Sessions
	Logging
}

func New() Config {
	return mainConfig{}
}
