// Package events defines the change-notification payloads emitted after task
// mutations and the Publisher contract for broadcasting them. Delivery is
// best-effort and at-least-once; subscribers must tolerate duplicates.
package events
