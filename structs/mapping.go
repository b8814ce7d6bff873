// Copyright (c) HashiCorp, Inc.
// SPDX-License-Identifier: MPL-2.0

package structs

// FunctionIdentity uniquely names a deployed function. For AWS Lambda this is the
// unqualified function ARN.
type FunctionIdentity string

// MappingRecord is a snapshot of a single event source mapping.
type MappingRecord struct {
	// Target is the identity of the function the mapping invokes.
	Target FunctionIdentity
	// UUID is the mapping identifier used for deletion.
	UUID string

	// EventSourceArn and State are informational only and are included in notices.
	EventSourceArn string
	State          string
}

// LiveFunctionSet is the set of functions present in the region for a single run.
type LiveFunctionSet map[FunctionIdentity]struct{}

// NewLiveFunctionSet returns a set holding the given identities.
func NewLiveFunctionSet(ids ...FunctionIdentity) LiveFunctionSet {
	s := make(LiveFunctionSet, len(ids))
	for _, id := range ids {
		s.Add(id)
	}
	return s
}

func (s LiveFunctionSet) Add(id FunctionIdentity) {
	s[id] = struct{}{}
}

// Contains reports whether id is live. A nil set contains nothing.
func (s LiveFunctionSet) Contains(id FunctionIdentity) bool {
	_, ok := s[id]
	return ok
}
