// Package twitch implements the Twitch API access layer: the low-level
// authenticated client, the OAuth credential flows, the 401-refresh-retry
// executor, the Helix operations the service needs, and the EventSub
// subscription reconciler.
package twitch
