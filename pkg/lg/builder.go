package lg

import (
	"fmt"
	"strings"
)

// Backend endpoints.
const (
	EndpointBird        = "/bird"
	EndpointTraceroute  = "/traceroute"
	EndpointTraceroute6 = "/traceroute6"
)

// Family is the address family shown in history labels.
type Family string

const (
	FamilyIPv4 Family = "ipv4"
	FamilyIPv6 Family = "ipv6"
)

// ParseFamily converts "ipv4"/"ipv6" (case-insensitive) to a Family.
func ParseFamily(s string) (Family, error) {
	switch Family(strings.ToLower(strings.TrimSpace(s))) {
	case FamilyIPv4:
		return FamilyIPv4, nil
	case FamilyIPv6:
		return FamilyIPv6, nil
	default:
		return "", fmt.Errorf("unknown address family %q (want ipv4 or ipv6)", s)
	}
}

// BackendCommand is the text and endpoint a command maps to.
type BackendCommand struct {
	Command  string `json:"command"`
	Endpoint string `json:"endpoint"`
}

// backendTemplates hold the BIRD command text for commands that take an
// argument. The argument is substituted verbatim for %s.
var backendTemplates = map[string]string{
	CmdShowRouteFor:            "show route for %s",
	CmdShowRouteForAll:         "show route for %s all",
	CmdShowRouteForBGPMap:      "show route for %s (bgpmap)",
	CmdShowRouteWhereNet:       "show route where net ~ [%s]",
	CmdShowRouteWhereNetAll:    "show route where net ~ [%s] all",
	CmdShowRouteWhereNetBGPMap: "show route where net ~ [%s] (bgpmap)",
	CmdShowRouteBGPMap:         "show route %s (bgpmap)",
	CmdShowProtocolsAll:        "show protocols all %s",
}

// Build maps a command id and the operator's argument to the backend command.
//
// The argument is not escaped or validated. Callers that need to restrict
// what reaches the backend must check it before calling Build.
func Build(id, arg string) BackendCommand {
	switch id {
	case CmdTraceroute:
		return BackendCommand{Command: arg, Endpoint: EndpointTraceroute}
	case CmdTraceroute6:
		return BackendCommand{Command: arg, Endpoint: EndpointTraceroute6}
	}
	if tmpl, ok := backendTemplates[id]; ok {
		return BackendCommand{Command: fmt.Sprintf(tmpl, arg), Endpoint: EndpointBird}
	}
	return BackendCommand{Command: id, Endpoint: EndpointBird}
}

// Label returns the human-readable form of a command used for display and
// history, e.g. "lg/ipv6: show route for 1.1.1.0/24".
func Label(family Family, id, arg string) string {
	if arg == "" {
		return fmt.Sprintf("lg/%s: %s", family, id)
	}
	return fmt.Sprintf("lg/%s: %s %s", family, id, arg)
}
