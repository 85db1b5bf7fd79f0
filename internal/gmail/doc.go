// Package gmail is a read-only client for the Gmail REST API.
//
// The client issues single blocking calls (messages.list, messages.get,
// labels.list, labels.get) and flattens the provider's JSON into
// EmailRecord and LabelRecord values. Multi-message operations fetch each
// message one after the other; there is no fan-out, retry or caching.
//
// Extraction is pure: ExtractEmail, WalkBody and WalkAttachments take a
// *gmail.Message or *gmail.MessagePart and return values without touching
// shared state, so they can be tested against hand-built MIME trees.
//
// Query strings are built by the helpers in query.go using Gmail search
// syntax (after:, before:, from:, subject:, has:attachment, is:unread,
// is:important).
//
// Example usage:
//
//	httpClient, err := google.NewHTTPClient(ctx, conf, tokenFile, metrics)
//	if err != nil {
//	    return err
//	}
//	client, err := gmail.NewClient(ctx, httpClient)
//	if err != nil {
//	    return err
//	}
//	emails, err := client.SearchMessages(ctx, "is:unread", 20)
package gmail
