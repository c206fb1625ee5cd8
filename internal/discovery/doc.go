// Package discovery resolves trainer endpoints via mDNS.
//
// Dircon trainers advertise the _wahoo-fitness-tnp._tcp service on the local
// network. A slot configured with an instance name instead of a static
// address is resolved here at connect time, so a trainer that changed IP
// (DHCP lease, link-local renumbering) is found again on the next reconnect
// without restarting the bridge.
package discovery
