package core

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/mikey-austin/spotify_remote/internal/ports"
	"github.com/mikey-austin/spotify_remote/pkg/sr"
)

// Resolver resolves selectors to bridge presence.
type Resolver struct {
	Presence ports.Broker
	Config   Config
}

// ResolveBridge resolves a bridge selector using config defaults. With no
// selector and a single bridge online, that bridge is used.
func (r Resolver) ResolveBridge(ctx context.Context, selector string) (sr.Presence, error) {
	if selector == "" {
		selector = r.Config.Defaults.Bridge
	}

	presence, err := r.Presence.ListPresence(ctx)
	if err != nil {
		return sr.Presence{}, WrapError(ExitRuntime, "list presence", err)
	}

	bridges := filterPresenceByKind(presence, sr.KindRemoteBridge)
	if selector == "" {
		switch len(bridges) {
		case 1:
			return bridges[0], nil
		case 0:
			return sr.Presence{}, &CLIError{Code: ExitNotFound, Msg: "no bridges online"}
		}
		return sr.Presence{}, &CLIError{Code: ExitUsage, Msg: fmt.Sprintf("bridge selector required: %s", suggestionList(bridges))}
	}
	return resolveSelector(selector, bridges, r.Config.Aliases)
}

func filterPresenceByKind(presence []sr.Presence, kind string) []sr.Presence {
	if kind == "" {
		return presence
	}
	out := make([]sr.Presence, 0, len(presence))
	for _, p := range presence {
		if p.Kind == kind {
			out = append(out, p)
		}
	}
	return out
}

func resolveSelector(selector string, presence []sr.Presence, aliases map[string]string) (sr.Presence, error) {
	selector = strings.TrimSpace(selector)
	if selector == "" {
		return sr.Presence{}, &CLIError{Code: ExitUsage, Msg: "selector required"}
	}

	if strings.HasPrefix(selector, "sr:") {
		return resolveExact(selector, presence)
	}

	if alias, ok := aliases[selector]; ok {
		if strings.HasPrefix(alias, "sr:") {
			return resolveExact(alias, presence)
		}
		selector = alias
	}

	matches := make([]sr.Presence, 0)
	for _, p := range presence {
		if strings.EqualFold(p.Name, selector) || strings.EqualFold(p.NodeID, selector) {
			matches = append(matches, p)
		}
	}

	if len(matches) == 1 {
		return matches[0], nil
	}
	if len(matches) == 0 {
		return sr.Presence{}, &CLIError{Code: ExitNotFound, Msg: fmt.Sprintf("no match for %q", selector)}
	}
	return sr.Presence{}, &CLIError{Code: ExitUsage, Msg: fmt.Sprintf("ambiguous selector %q: %s", selector, suggestionList(matches))}
}

func resolveExact(nodeID string, presence []sr.Presence) (sr.Presence, error) {
	for _, p := range presence {
		if p.NodeID == nodeID {
			return p, nil
		}
	}
	return sr.Presence{}, &CLIError{Code: ExitNotFound, Msg: fmt.Sprintf("node not found: %s", nodeID)}
}

func suggestionList(matches []sr.Presence) string {
	names := make([]string, 0, len(matches))
	for _, p := range matches {
		names = append(names, fmt.Sprintf("%s (%s)", p.Name, p.NodeID))
	}
	sort.Strings(names)
	return strings.Join(names, ", ")
}
