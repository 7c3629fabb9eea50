// Package netpool pools client side connections per destination.
//
// every connection handed out holds a ticket of its pool until it is
// closed or detached, idle connections are checked for liveness before
// they are reused.
package netpool
