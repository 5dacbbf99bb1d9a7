// Package transport provides byte links between the agent and a host.
//
// Each agent-side type implements agent.Transport: TryReceive waits at most
// a short poll interval for one byte and Send blocks until the byte is
// accepted.
//
//   - Conn wraps a net.Conn, typically TCP. The poll interval is a read deadline.
//   - Serial drives a tty in raw mode. The poll interval is the tty read timeout.
//   - Loopback pairs an agent end with an in-memory host end over lock-free
//     queues; the agent end never waits.
package transport
