// Package apiresponses provides the JSON envelope used by every endpoint,
// {ok, error, detail}, and Gin helpers that write it with the right status.
package apiresponses
