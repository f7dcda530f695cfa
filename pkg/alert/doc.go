// Package alert turns pipeline incidents into logs and e-mails.
//
// Notifier implements delivery.Notifier, called when a subscription is
// deactivated after exhausting its retries, and balance.StarvationNotifier,
// called when a shipment has had no eligible tenant for several cycles.
package alert
