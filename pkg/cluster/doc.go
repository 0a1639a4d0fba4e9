// Package cluster groups entities by embedding similarity using a seed-based
// single pass: each unvisited entity seeds a cluster and collects the
// remaining unvisited entities whose similarity TO THE SEED meets the
// threshold. Membership is decided against the seed only, so clusters are not
// transitive closures, and an entity joins at most one cluster.
package cluster
