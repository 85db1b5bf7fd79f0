// Package gmail_tools implements the read-only Gmail operations and
// exposes them as MCP tools.
//
// Every operation returns an Envelope with one of three statuses:
//
//	{"status": "success", "emails": [...], "count": 3, "message": "Found 3 emails"}
//	{"status": "not_found", "message": "No label found with name 'Receipts'"}
//	{"status": "error", "error_message": "Search failed: ..."}
//
// Email operations:
//   - search_emails, get_email_by_id, list_messages
//   - get_emails_by_date_range, get_today_emails, get_recent_emails
//   - get_emails_from_sender, get_unread_emails, get_important_emails
//   - get_emails_with_attachments, get_emails_by_subject
//   - search_emails_with_labels
//
// Label operations:
//   - list_labels, get_label_details, find_label_by_name
//   - get_system_labels, get_user_labels, get_labels_with_unread_count
//   - get_label_statistics, get_emails_by_label
//
// get_current_datetime gives agents a reliable notion of "today".
//
// The catalog returned by Tools is shared by the MCP server, the CLI tool
// command and the realtime bridge, so every surface sees the same names,
// parameters and defaults. Toolbox.Call validates arguments, invokes the
// operation and records the call in metrics and the audit log.
//
// Page sizes are clamped to 50, Gmail's practical ceiling for one listing.
// Non-positive sizes fall back to the operation default.
package gmail_tools
