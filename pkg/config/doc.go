// Package config loads typed configuration from environment variables with
// github.com/caarlos0/env/v11, reading dotenv files through
// github.com/joho/godotenv.
//
// Load caches one parsed value per struct type, so packages can each call
// Load for their own config without re-parsing:
//
//	var pgCfg pg.Config
//	config.MustLoad(&pgCfg)
//
// Parse skips the cache and accepts options (prefix, dotenv files, an
// explicit variable map), which is what tests use.
package config
