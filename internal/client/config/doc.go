// Package config loads runtime configuration for the medialog CLI.
//
// Sources & precedence (later wins)
//
//  1. Built-in defaults (see SetDefaults).
//  2. A config file: the one named by --config, or medialog.{yaml,json,toml}
//     found in the working directory or ~/.medialog.
//  3. MEDIALOG_* environment variables; nested keys use underscores, so
//     s3.bucket is MEDIALOG_S3_BUCKET.
//  4. Command-line flags bound with BindFlags.
//
// # Example file
//
//	server_url: http://127.0.0.1:3000
//	storage_mode: backend
//	fallback_to_local: true
//	auto_sync_interval: 5m
//	s3:
//	  bucket: medialog-exports
//	  endpoint: http://127.0.0.1:9000
//	  use_path_style: true
package config
