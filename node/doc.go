// Package node provides the concrete conversation steps wired into the
// reference chat graph: a routing heuristic, an arithmetic calculator, and
// four model-backed nodes (chat, sentiment, calming, summarize).
//
// Every node satisfies graph.Node and follows the same failure policy: an
// external call that errors or returns garbage is caught inside the node and
// folded into the returned delta (a fallback assistant turn or a safe
// default value), so a run always reaches the terminal marker.
package node
