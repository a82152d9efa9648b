// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package integration_test

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"testing"
	"time"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"

	"github.com/generalzzd/0-db/admin"
	"github.com/generalzzd/0-db/store"
)

func TestIntegration(t *testing.T) {
	RegisterFailHandler(Fail)
	RunSpecs(t, "Integration Suite")
}

var (
	dataDir string
	st      *store.Store
	server  *httptest.Server
	baseURL string
)

var _ = BeforeSuite(func(done Done) {
	defer close(done)

	var err error
	dataDir, err = os.MkdirTemp("", "zdb-integration-")
	Expect(err).ToNot(HaveOccurred())

	st, err = store.Open(dataDir, store.WithBucketBits(4))
	Expect(err).ToNot(HaveOccurred())

	srv := admin.NewServer(st)
	server = httptest.NewServer(srv.Handler())
	baseURL = server.URL

	for {
		_, err := http.Get(baseURL + "/healthz")
		if err == nil {
			break
		}
		time.Sleep(time.Millisecond * 10)
	}

	fmt.Println("started")
})

var _ = AfterSuite(func(done Done) {
	defer close(done)
	server.Close()
	Expect(st.Close()).ToNot(HaveOccurred())
	Expect(os.RemoveAll(dataDir)).ToNot(HaveOccurred())
})
