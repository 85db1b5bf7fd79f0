package google

import (
	gmail "google.golang.org/api/gmail/v1"
)

// DefaultOAuthScopes is the only scope requested. The mailbox is never
// modified, so read-only access is all the tools need.
var DefaultOAuthScopes = []string{
	gmail.GmailReadonlyScope,
}
