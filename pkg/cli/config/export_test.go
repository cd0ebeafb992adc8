package config

// NewStorageForTest creates a Storage config for testing purposes
func NewStorageForTest(backend, path, key string) *Storage {
	return &Storage{
		backend: backend,
		path:    path,
		key:     key,
	}
}

// NewLoggerForTest creates a Logger config for testing purposes
func NewLoggerForTest(level, format, output string) *Logger {
	return &Logger{
		level:  level,
		format: format,
		output: output,
	}
}

var ExportHeaders = exportHeaders
