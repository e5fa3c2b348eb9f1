// Package lg builds looking-glass commands for a BIRD routing daemon and
// interprets its replies.
//
// The package is the part of birdlg with real contracts: the command
// catalog, the mapping from (command id, argument) to the exact text the
// backend receives, the "show protocols" table parser, the query history,
// and the controller that ties them to a backend call.
package lg

// Well-known command identifiers.
const (
	CmdTraceroute              = "traceroute"
	CmdTraceroute6             = "traceroute6"
	CmdShowProtocols           = "show protocols"
	CmdShowProtocolsAll        = "show protocols all"
	CmdShowRouteFor            = "show route for"
	CmdShowRouteForAll         = "show route for all"
	CmdShowRouteForBGPMap      = "show route for bgpmap"
	CmdShowRouteWhereNet       = "show route where net"
	CmdShowRouteWhereNetAll    = "show route where net all"
	CmdShowRouteWhereNetBGPMap = "show route where net bgpmap"
	CmdShowRoute               = "show route"
	CmdShowRouteBGPMap         = "show route bgpmap"
)

// CommandDescriptor describes how a command is presented to the operator.
type CommandDescriptor struct {
	Prefix        string
	Suffix        string
	Placeholder   string
	NeedsArgument bool
}

const (
	placeholderPrefix = "Prefix (e.g. 1.1.1.0/24)"
)

// catalogOrder is the display order of the catalog.
var catalogOrder = []string{
	CmdTraceroute,
	CmdTraceroute6,
	CmdShowProtocols,
	CmdShowProtocolsAll,
	CmdShowRouteFor,
	CmdShowRouteForAll,
	CmdShowRouteForBGPMap,
	CmdShowRouteWhereNet,
	CmdShowRouteWhereNetAll,
	CmdShowRouteWhereNetBGPMap,
	CmdShowRoute,
	CmdShowRouteBGPMap,
}

// catalog is never written after package initialization.
var catalog = map[string]CommandDescriptor{
	CmdTraceroute:              {Prefix: "traceroute", Placeholder: "IPv4 address (e.g. 8.8.8.8)", NeedsArgument: true},
	CmdTraceroute6:             {Prefix: "traceroute", Placeholder: "IPv6 address (e.g. 2001:4860:4860::8888)", NeedsArgument: true},
	CmdShowProtocols:           {Prefix: "show protocols"},
	CmdShowProtocolsAll:        {Prefix: "show protocols", Suffix: "all", Placeholder: "protocol name (e.g. bgp1)", NeedsArgument: true},
	CmdShowRouteFor:            {Prefix: "show route for", Placeholder: placeholderPrefix, NeedsArgument: true},
	CmdShowRouteForAll:         {Prefix: "show route for", Suffix: "all", Placeholder: placeholderPrefix, NeedsArgument: true},
	CmdShowRouteForBGPMap:      {Prefix: "show route for", Suffix: "(bgpmap)", Placeholder: placeholderPrefix, NeedsArgument: true},
	CmdShowRouteWhereNet:       {Prefix: "show route where net ~ [", Suffix: "]", Placeholder: placeholderPrefix, NeedsArgument: true},
	CmdShowRouteWhereNetAll:    {Prefix: "show route where net ~ [", Suffix: "] all", Placeholder: placeholderPrefix, NeedsArgument: true},
	CmdShowRouteWhereNetBGPMap: {Prefix: "show route where net ~ [", Suffix: "] (bgpmap)", Placeholder: placeholderPrefix, NeedsArgument: true},
	CmdShowRoute:               {Prefix: "show route", Placeholder: placeholderPrefix, NeedsArgument: true},
	CmdShowRouteBGPMap:         {Prefix: "show route", Suffix: "(bgpmap)", Placeholder: placeholderPrefix, NeedsArgument: true},
}

// Resolve returns the descriptor for id. Unknown ids resolve to a descriptor
// whose prefix is the id itself and which takes no argument.
func Resolve(id string) CommandDescriptor {
	if d, ok := catalog[id]; ok {
		return d
	}
	return CommandDescriptor{Prefix: id}
}

// Known reports whether id is a catalog command.
func Known(id string) bool {
	_, ok := catalog[id]
	return ok
}

// Catalog returns the catalog command ids in display order.
func Catalog() []string {
	ids := make([]string, len(catalogOrder))
	copy(ids, catalogOrder)
	return ids
}
