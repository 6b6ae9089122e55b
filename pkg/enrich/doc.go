// Package enrich attaches depictions and balance indices to elements.
//
// [Enricher.Enrich] starts one chain per element and waits until every
// chain has settled. Chains run in parallel up to a concurrency limit, and
// their completion order is not defined. A failed service call never fails
// the batch; it is recorded in [Result.Failures] and the element is left
// without the missing attribute.
//
// # Substances
//
// A substance with canonical_smiles is depicted on a 300×300 canvas, or on
// the larger target canvas when its role is tm. Target depictions are shown
// as the node background (type "custom"); other substances only when
// ShowStructures is set.
//
// # Reactions
//
// For a reaction with rxsmiles the chain is:
//
//  1. If the rxsmiles is atom-mapped and NormalizeRoles is set, replace the
//     working copy with the role-normalized rxsmiles.
//  2. Depict the working copy and, if atom-mapped, fetch balance indices.
//     The two requests run concurrently.
//
// The normalized rxsmiles is written back only when every step succeeded.
//
// # Precomputed Depictions
//
// Elements that arrive with an svg keep it when UsePrecomputed is set.
// Otherwise a fresh depiction replaces the precomputed one, which remains
// as the fallback when the fetch fails.
package enrich
