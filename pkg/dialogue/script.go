package dialogue

// EndTarget is the reserved link target that terminates the dialogue
// instead of transitioning to another node.
const EndTarget = "__END__"

// FlagGate redirects node entry to NodeID when every named flag is set
// for the current dialogue. The check runs before the node's actions and
// render, so a gated node can act as a waiting room that never shows its
// own content once its prerequisites are satisfied.
type FlagGate struct {
	Flags  []string `json:"flags"`
	NodeID string   `json:"node_id"`
}

// Node is one unit of dialogue content plus its outgoing transitions and
// entry actions. Title and Description are authoring metadata only.
type Node struct {
	Title       string `json:"title,omitempty"`
	Description string `json:"description,omitempty"`
	SpeakerUID  string `json:"speaker_uid,omitempty"`

	// Lines may embed 【…】 link spans and {…} emphasis spans.
	Lines []string `json:"lines"`

	// Links maps link text to a target node id, or EndTarget.
	Links map[string]string `json:"links,omitempty"`

	// NextOnClick advances to the named node on a non-link click.
	NextOnClick string `json:"next_on_click,omitempty"`

	// Actions run on node entry, before the render call.
	Actions []Action `json:"actions,omitempty"`

	GotoIfAllFlags *FlagGate `json:"goto_if_all_flags,omitempty"`
}

// Script is a named graph of dialogue nodes. Scripts are immutable after
// registration.
type Script struct {
	ID                string          `json:"id"`
	Title             string          `json:"title,omitempty"`
	Description       string          `json:"description,omitempty"`
	DefaultSpeakerUID string          `json:"default_speaker_uid,omitempty"`
	Nodes             map[string]Node `json:"nodes"`
}

// NodeByID returns the named node. The second value is false for unknown
// ids; callers treat that as "no node", never as an error.
func (s *Script) NodeByID(id string) (Node, bool) {
	if s == nil {
		return Node{}, false
	}
	n, ok := s.Nodes[id]
	return n, ok
}

// SpeakerFor returns the node's speaker, falling back to the script default.
func (s *Script) SpeakerFor(n Node) string {
	if n.SpeakerUID != "" {
		return n.SpeakerUID
	}
	if s == nil {
		return ""
	}
	return s.DefaultSpeakerUID
}
