// Package credentials resolves the cookie, user-agent and token an extraction
// attempt runs with. Values supplied by the caller always win; otherwise the
// locally configured defaults are used for profiles that opt in to them.
package credentials
