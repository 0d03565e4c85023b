/*
Package crdt implements the seven conflict-free replicated data types
this library exists to provide: GCounter, PNCounter, LWWRegister,
MVRegister, GSet, ORSet, and LWWMap. Each is a pure state-based CRDT
(CvRDT): its states form a join-semilattice under Merge, so Merge is
commutative, associative, and idempotent, and any two replicas that
have observed the same set of updates converge to bitwise-equal state.

Each type comes in two variants:

  - the plain variant (GCounter, ORSet, ...) is single-owner: callers
    must synchronize their own concurrent access. This package does
    not(!) synchronize access by itself for the plain variants.
  - the Atomic variant (AtomicGCounter, AtomicORSet, ...) may be
    mutated and merged concurrently from multiple goroutines without
    external locking, using compare-and-swap loops over
    sync/atomic-backed fields.

Every operation that can fail returns an error from package crdterr's
closed taxonomy; none of them panic on well-formed input, and none of
them log or touch any state outside the receiver.

Construction always takes a config.Capacity and a clock.NodeID. The
constructor checks the node id against the capacity's MaxNodes, once;
it does not call Capacity.Validate, so a capacity profile is validated
only where the caller does so (config.LoadCapacity does).

The observed-removed set design is a practical derivation from its
specification by Shapiro, Preguiça, Baquero and Zawirski, available
under: https://hal.inria.fr/inria-00555588/document
*/
package crdt
