package config

import (
	"time"

	"github.com/renderinc/brewblog/internal/logger"
	"github.com/renderinc/brewblog/internal/search"
	"github.com/renderinc/brewblog/internal/storage"
)

// ToLoggerConfig converts LoggerConfig to logger.Config
func (c LoggerConfig) ToLoggerConfig() logger.Config {
	return logger.Config{
		Level:     c.Level,
		Format:    c.Format,
		Output:    c.Output,
		AddCaller: c.AddCaller,
	}
}

// ToStorageConfig converts DatabaseConfig to storage.Config
func (c DatabaseConfig) ToStorageConfig() storage.Config {
	return storage.Config{
		Driver:       c.Driver,
		Path:         c.Path,
		Host:         c.Host,
		Port:         c.Port,
		User:         c.User,
		Password:     c.Password,
		Name:         c.Name,
		SSLMode:      c.SSLMode,
		MaxOpenConns: c.MaxOpenConns,
		MaxIdleConns: c.MaxIdleConns,
		LogLevel:     c.LogLevel,
	}
}

// ToSearchOptions converts SearchConfig to search.Options
func (c SearchConfig) ToSearchOptions() search.Options {
	return search.Options{
		Backend:   c.Backend,
		BlevePath: c.BlevePath,
		Elastic: search.ElasticConfig{
			Addresses:   c.Elasticsearch.Addresses,
			Username:    c.Elasticsearch.Username,
			Password:    c.Elasticsearch.Password,
			IndexPrefix: c.Elasticsearch.IndexPrefix,
			Refresh:     c.Elasticsearch.Refresh,
			MaxResults:  c.MaxResults,
		},
		Timeout:    c.Timeout,
		MaxResults: c.MaxResults,
	}
}

func (c ServerConfig) Timeouts() (read, write, shutdown time.Duration) {
	return time.Duration(c.ReadTimeout) * time.Second,
		time.Duration(c.WriteTimeout) * time.Second,
		time.Duration(c.ShutdownTimeout) * time.Second
}
