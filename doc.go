// GoParcAdmin is a web-based inventory tool for municipal IT assets. It
// tracks phone lines, computer equipment and network boxes, authenticates
// users against an LDAP directory gated by a login whitelist, and supports
// an administrator-only maintenance mode. All of it is configured at runtime
// through the web interface; the directory can be disabled entirely for
// closed-network deployments, which opens full anonymous access.
package main
