// Package bridge serves the browser front end of the assistant.
//
// A client opens GET /events/:clientId, which starts a live Session from the
// configured Runner and streams its events as server-sent events. Messages
// are posted to POST /send/:clientId as {mime_type, data}, where text/plain
// carries raw text and audio/pcm carries base64 encoded samples.
//
// Sessions are kept in a process-wide registry keyed by client identifier.
// A reconnect replaces the previous session of the same client.
//
// RulesRunner is the built-in runner. It routes each text turn through the
// agents classifier and answers with the result of one Gmail operation.
package bridge
