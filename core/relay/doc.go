// Package relay contains the routing state machine of the bot: it consumes
// typed events decoded at the transport boundary and produces outbound
// actions addressed to specific recipients, mutating the session store as a
// side effect. The package never parses transport payloads and never talks
// to the network itself.
package relay
