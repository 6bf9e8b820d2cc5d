// Package config loads typed configuration structs from environment variables
// (github.com/caarlos0/env) with optional .env support (github.com/joho/godotenv).
//
// Every infrastructure package in this module exposes a Config struct tagged
// for env parsing; the binary loads each one through Load and passes it on.
package config
