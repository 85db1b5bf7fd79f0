// Package google loads OAuth2 credentials for the Gmail API.
//
// Credentials come from two files: the client secret downloaded from the
// Google Cloud console (GMAIL_APP_CREDENTIALS_FILE) and a token cache
// (GMAIL_APP_TOKEN_FILE). NewHTTPClient wraps the cached token in a token
// source that writes refreshed tokens back to the cache, so a long running
// process never loses its refresh state. AuthorizeInteractive runs the
// installed-app loopback flow to create the cache in the first place.
package google
