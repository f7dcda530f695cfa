// Package httpapi exposes the operational HTTP surface of the dispatcher.
//
// Routes:
//
//	POST   /v1/events                                          queue an event for delivery
//	POST   /v1/rebalance                                       run one balancing cycle now
//	GET    /v1/tenants/{tenantID}/webhooks                     list subscriptions
//	POST   /v1/tenants/{tenantID}/webhooks                     register a subscription
//	GET    /v1/tenants/{tenantID}/webhooks/{webhookID}         read a subscription
//	PATCH  /v1/tenants/{tenantID}/webhooks/{webhookID}         change a subscription
//	DELETE /v1/tenants/{tenantID}/webhooks/{webhookID}         remove a subscription
//	POST   /v1/tenants/{tenantID}/webhooks/{webhookID}/rotate-secret
//	GET    /v1/tenants/{tenantID}/webhooks/{webhookID}/attempts
//	GET    /healthz, /readyz, /metrics
//
// Every JSON response uses the same envelope: {"data": ...} on success and
// {"error": {"code": ..., "message": ...}} on failure. Authentication is
// expected to happen in front of this service.
package httpapi
