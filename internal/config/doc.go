// Package config resolves application settings.
//
// Values come from built-in defaults, an optional dotenv file (ENV_PATH, or
// .env in the working directory), environment variables and command-line
// flags, with later sources taking precedence. Keys are the lower-case form
// of their environment variable names, for example GMAIL_APP_TOKEN_FILE is
// gmail_app_token_file.
package config
