// Package agent runs the update workflow: fetch the host's configuration,
// remember the server's commit token, resolve the image and hand it to the
// platform's switch tool.
package agent
