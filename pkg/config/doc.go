// Package config loads environment-driven configuration into typed structs.
//
// Values come from the process environment and, once per process, from a
// .env file in the working directory (github.com/joho/godotenv). Struct
// fields are populated from `env` tags by github.com/caarlos0/env/v11.
// Every package that needs settings owns an env-tagged Config struct;
// cmd/dispatcher loads them all through Load at startup.
package config
