// Package config loads and validates the application settings: the HTTP
// server, the relational database, and the AWS resources backing the
// fast-lookup store, attachment storage and notifications. Values come from
// an optional config.yaml overridden by TASKAPI_-prefixed environment
// variables.
package config
