// Package traversal implements bounded breadth-first expansion over the
// knowledge graph and shortest-path lookup between two entities.
//
// The start entity is excluded from results. Depth, node limit, edge type
// allow-list, minimum confidence, and direction all bound the walk; ties
// between equal-length paths are broken by the order the store returns edges.
package traversal
