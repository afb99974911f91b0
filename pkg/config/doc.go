// Package config handles server-side configuration loading from an optional
// YAML file, a .env file and environment variables, including defaults and
// validation for the SMTP transport, rate limiter, ledger and HTTP server.
package config
