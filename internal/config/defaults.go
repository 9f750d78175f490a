package config

import "time"

// ApplyDefaults sets default values for any zero values in cfg.
func ApplyDefaults(cfg *Config) {
	if cfg.Server.Host == "" {
		cfg.Server.Host = "localhost"
	}
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 8080
	}
	if cfg.Server.RequestTimeout == 0 {
		cfg.Server.RequestTimeout = 60 * time.Second
	}
	if cfg.Storage.Driver == "" {
		cfg.Storage.Driver = DriverSQLite
	}
	if cfg.Storage.DatabasePath == "" {
		cfg.Storage.DatabasePath = "/usr/local/var/mazad/data/db/listings.db"
	}
	if cfg.Storage.BleveIndexPath == "" {
		cfg.Storage.BleveIndexPath = "/usr/local/var/mazad/data/indices/bleve"
	}
	if cfg.Search.DefaultLimit == 0 {
		cfg.Search.DefaultLimit = 20
	}
	if cfg.Search.MaxLimit == 0 {
		cfg.Search.MaxLimit = 100
	}
	if cfg.Search.TopKCandidates == 0 {
		cfg.Search.TopKCandidates = 200
	}
	if cfg.Search.TitleBoost == 0 {
		cfg.Search.TitleBoost = 3.0
	}
	if cfg.Sync.BatchSize == 0 {
		cfg.Sync.BatchSize = 500
	}
	if cfg.ImageSearch.Model == "" {
		cfg.ImageSearch.Model = "gemini-2.0-flash"
	}
}
