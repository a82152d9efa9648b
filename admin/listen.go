// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package admin

import (
	"net/http"

	"golang.org/x/net/http2"
)

// Serve configures an HTTP/2-capable server around Handler and blocks
// serving it on addr, mirroring cmd/netlog's http2.ConfigureServer call.
func Serve(addr string, s *Server) error {
	var server http.Server
	server.Addr = addr
	server.Handler = s.Handler()

	if err := http2.ConfigureServer(&server, nil); err != nil {
		return err
	}

	return server.ListenAndServe()
}
