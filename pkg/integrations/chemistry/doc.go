// Package chemistry is the client of the chemistry service: depictions,
// balance indices, role normalization, identifier conversion, record lookup
// and route search.
//
// Depiction and balance-index results are pure functions of their inputs and
// are cached; lookups and searches always go to the service.
//
// Failures of the enrichment calls ([Client.ReactionSVG],
// [Client.SubstanceSVG], [Client.BalanceIndices], [Client.NormalizeRoles])
// are meant to be recovered by the caller. Lookups and searches return
// structured errors from pkg/errors whose user message is the service's
// detail text.
package chemistry
