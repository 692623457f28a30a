package config

type LogConfig interface {
	GetLogLevel() string
	GetLogFile() string
}

type Logging struct{}

var _ LogConfig = Logging{}

func (Logging) GetLogLevel() string {
	return GetEnv("LOG_LEVEL", "info")
}

// GetLogFile is empty when logs should only go to stdout
func (Logging) GetLogFile() string {
	return GetEnv("LOG_FILE", "")
}
