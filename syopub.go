// Package syopub publishes serialized novels to a hosting site that offers
// no API, only server-rendered HTML pages and form posts. It drives the
// site's web-form workflow (create, configure, describe, draft, publish)
// for many books at once.
//
// This package contains domain types and interfaces following Ben Johnson's
// Standard Package Layout. Implementations live in subdirectories named
// after their primary dependency (e.g., goquery/, resty/, sqlite/).
package syopub
