// Package funnel aggregates status histories into stage-to-stage counts for
// the hiring funnel report.
package funnel

import (
	"sort"

	"github.com/jonathan/application-tracker/internal/types"
	"github.com/jonathan/application-tracker/internal/workflow"
)

// Stage names used by the report. They are coarser than workflow statuses:
// Responded covers Screen, Interview and Rejected.
const (
	StageApplied    = "Applied"
	StageNoResponse = "No Response"
	StageResponded  = "Responded"
	StageRejected   = "Rejected"
	StageInterview  = "Interview"
	StageOffer      = "Offer"
	StageNoOffer    = "No Offer"
)

// Edge is a directed transition between two report stages with the number of
// applications that made it.
type Edge struct {
	From  string `json:"from"`
	To    string `json:"to"`
	Count int    `json:"count"`
}

// edge indexes, in report order
const (
	appliedNoResponse = iota
	appliedResponded
	respondedRejected
	respondedInterview
	interviewOffer
	interviewNoOffer
)

func newEdges() []Edge {
	return []Edge{
		appliedNoResponse:  {From: StageApplied, To: StageNoResponse},
		appliedResponded:   {From: StageApplied, To: StageResponded},
		respondedRejected:  {From: StageResponded, To: StageRejected},
		respondedInterview: {From: StageResponded, To: StageInterview},
		interviewOffer:     {From: StageInterview, To: StageOffer},
		interviewNoOffer:   {From: StageInterview, To: StageNoOffer},
	}
}

// Generate classifies every application and returns the six funnel edges
// sorted by count, highest first. Equal counts keep report order.
//
// An application with no history contributes nothing. A single event counts
// as no response, whatever the status. Any other application is classified
// on the set of statuses it ever held: a rejection stops after
// Responded→Rejected, and every application that is not rejected ends in
// either Interview→Offer or Interview→No Offer, even when it never reached
// an interview.
func Generate(apps []types.Application) []Edge {
	edges := newEdges()

	for i := range apps {
		history := apps[i].StatusHistory
		if len(history) == 0 {
			continue
		}
		if len(history) == 1 {
			edges[appliedNoResponse].Count++
			continue
		}

		seen := make(map[workflow.Status]bool, len(history))
		for _, e := range history {
			seen[e.Status] = true
		}

		if seen[workflow.StatusRejected] || seen[workflow.StatusScreen] || seen[workflow.StatusInterview] {
			edges[appliedResponded].Count++
		}
		if seen[workflow.StatusRejected] {
			edges[respondedRejected].Count++
			continue
		}
		if seen[workflow.StatusScreen] || seen[workflow.StatusInterview] {
			edges[respondedInterview].Count++
		}
		if seen[workflow.StatusOffer] {
			edges[interviewOffer].Count++
		} else {
			edges[interviewNoOffer].Count++
		}
	}

	sort.SliceStable(edges, func(i, j int) bool {
		return edges[i].Count > edges[j].Count
	})
	return edges
}

// Total sums the counts of the edges leaving stage from.
func Total(edges []Edge, from string) int {
	total := 0
	for _, e := range edges {
		if e.From == from {
			total += e.Count
		}
	}
	return total
}
