// Package unix implements the Unix domain socket connectors of the transport package.
// The endpoint is the socket path; an existing socket file is removed before listening.
package unix
