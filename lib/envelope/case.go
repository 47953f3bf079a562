package envelope

import (
	"encoding/json"
	"fmt"

	"google.golang.org/protobuf/encoding/protowire"
)

// --------------------------------------------------------------------------
// Kind Definition
// --------------------------------------------------------------------------

// Kind tells whether an envelope belongs to the synchronous or the
// asynchronous entry point. Both have their own set of cases.
type Kind uint8

const (
	KindSync Kind = iota
	KindAsync
)

func (k Kind) String() string {
	switch k {
	case KindSync:
		return "sync"
	case KindAsync:
		return "async"
	default:
		return "unknown"
	}
}

// --------------------------------------------------------------------------
// Case Definition
// --------------------------------------------------------------------------

// Case identifies the active variant of an envelope.
type Case uint8

const (
	CaseNone Case = iota // No case selected (malformed)

	// Available on both entry points

	CaseEcho // Returns the payload unchanged

	// Sync operations

	CaseConfigure // Configure the runtime
	CaseLocalUser // Read or write the locally stored user
	CaseAuth      // Store the session of a login

	// Async operations

	CaseTopicList         // List the topics of a forum
	CaseTopicDetails      // Replies of a topic
	CaseSubforumFilter    // Show or hide a sub forum
	CaseForumList         // Categories and forums
	CaseRemoteUser        // Profile of another user
	CasePostVote          // Up- or downvote a post
	CaseTopicHistory      // Locally recorded topic history
	CaseHotTopicList      // Trending topics
	CaseForumSearch       // Search forums by name
	CaseFavoriteTopicList // Bookmarked topics
	CaseTopicFavor        // Add or remove a bookmark

	caseCount
)

var caseNames = [caseCount]string{
	CaseNone:              "none",
	CaseEcho:              "echo",
	CaseConfigure:         "configure",
	CaseLocalUser:         "local_user",
	CaseAuth:              "auth",
	CaseTopicList:         "topic_list",
	CaseTopicDetails:      "topic_details",
	CaseSubforumFilter:    "subforum_filter",
	CaseForumList:         "forum_list",
	CaseRemoteUser:        "remote_user",
	CasePostVote:          "post_vote",
	CaseTopicHistory:      "topic_history",
	CaseHotTopicList:      "hot_topic_list",
	CaseForumSearch:       "forum_search",
	CaseFavoriteTopicList: "favorite_topic_list",
	CaseTopicFavor:        "topic_favor",
}

// String returns the string representation of a Case.
func (c Case) String() string {
	if c < caseCount {
		return caseNames[c]
	}
	return "unknown"
}

// ParseCase converts the string representation back to a Case
func ParseCase(s string) (Case, error) {
	for c := CaseEcho; c < caseCount; c++ {
		if caseNames[c] == s {
			return c, nil
		}
	}
	return CaseNone, fmt.Errorf("unknown case: %s", s)
}

// MarshalJSON serializes a Case as its name.
func (c Case) MarshalJSON() ([]byte, error) {
	return json.Marshal(c.String())
}

// UnmarshalJSON deserializes a Case from its name.
func (c *Case) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseCase(s)
	if err != nil {
		return err
	}
	*c = parsed
	return nil
}

// --------------------------------------------------------------------------
// Wire field numbers (version 1)
// --------------------------------------------------------------------------

// Field numbers of the oneof members. They are part of the wire contract
// with the host and must never be reused for a different case.
var (
	syncFields = map[Case]protowire.Number{
		CaseConfigure: 1,
		CaseLocalUser: 2,
		CaseAuth:      3,
		CaseEcho:      15,
	}
	asyncFields = map[Case]protowire.Number{
		CaseTopicList:         1,
		CaseTopicDetails:      2,
		CaseSubforumFilter:    3,
		CaseForumList:         4,
		CaseRemoteUser:        5,
		CasePostVote:          6,
		CaseTopicHistory:      7,
		CaseHotTopicList:      8,
		CaseForumSearch:       9,
		CaseFavoriteTopicList: 10,
		CaseTopicFavor:        11,
		CaseEcho:              15,
	}
	syncCases  = invert(syncFields)
	asyncCases = invert(asyncFields)
)

func invert(m map[Case]protowire.Number) map[protowire.Number]Case {
	out := make(map[protowire.Number]Case, len(m))
	for c, n := range m {
		out[n] = c
	}
	return out
}

// fieldNumber returns the wire field number of c for the kind
func (k Kind) fieldNumber(c Case) (protowire.Number, bool) {
	var n protowire.Number
	var ok bool
	switch k {
	case KindSync:
		n, ok = syncFields[c]
	case KindAsync:
		n, ok = asyncFields[c]
	}
	return n, ok
}

// caseOf returns the case encoded with field number n for the kind
func (k Kind) caseOf(n protowire.Number) (Case, bool) {
	var c Case
	var ok bool
	switch k {
	case KindSync:
		c, ok = syncCases[n]
	case KindAsync:
		c, ok = asyncCases[n]
	}
	return c, ok
}

// Supports reports whether c is a valid case for the kind
func (k Kind) Supports(c Case) bool {
	_, ok := k.fieldNumber(c)
	return ok
}

// Cases returns all cases of the kind in declaration order
func (k Kind) Cases() []Case {
	var out []Case
	for c := CaseEcho; c < caseCount; c++ {
		if k.Supports(c) {
			out = append(out, c)
		}
	}
	return out
}
