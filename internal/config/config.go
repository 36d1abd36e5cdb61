package config

// Config holds all application configuration.
// It organizes settings into logical groups for better maintainability.
type Config struct {
	Server   ServerConfig   `mapstructure:"server" validate:"required"`
	Database DatabaseConfig `mapstructure:"database" validate:"required"`
	AWS      AWSConfig      `mapstructure:"aws" validate:"required"`
	Dynamo   DynamoConfig   `mapstructure:"dynamo" validate:"required"`
	S3       S3Config       `mapstructure:"s3" validate:"required"`
	SNS      SNSConfig      `mapstructure:"sns" validate:"required"`
}

// ServerConfig contains all server-related configuration settings.
type ServerConfig struct {
	Port     int    `mapstructure:"port" validate:"required,gt=0,lt=65536"`
	LogLevel string `mapstructure:"log_level" validate:"required,oneof=debug info warn error"`
}

// DatabaseConfig contains all relational database settings.
type DatabaseConfig struct {
	URL string `mapstructure:"url" validate:"required,url"`
}

// AWSConfig contains the settings shared by every AWS client: the
// fast-lookup store, the attachment bucket and the notification topic.
// Endpoint overrides the SDK's resolver for local stacks; the static
// credentials are optional and fall back to the default chain when empty.
type AWSConfig struct {
	Region          string `mapstructure:"region" validate:"required"`
	Endpoint        string `mapstructure:"endpoint" validate:"omitempty,url"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
}

// DynamoConfig contains fast-lookup store settings.
type DynamoConfig struct {
	Table string `mapstructure:"table" validate:"required"`
}

// S3Config contains attachment storage settings.
type S3Config struct {
	Bucket string `mapstructure:"bucket" validate:"required"`
}

// SNSConfig contains notification publishing settings.
type SNSConfig struct {
	TopicARN string `mapstructure:"topic_arn" validate:"required"`
}
