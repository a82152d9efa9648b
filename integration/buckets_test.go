// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package integration_test

import (
	"fmt"
	"io/ioutil"
	"net/http"
	"strings"

	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
)

var _ = Describe("Bucket collisions", func() {
	Context("When many keys share the small bucket array configured for this suite", func() {
		var keys []string

		BeforeEach(func() {
			keys = nil
			for i := 0; i < 50; i++ {
				key := fmt.Sprintf("collide-%d", i)
				keys = append(keys, key)

				req, _ := http.NewRequest(http.MethodPut, baseURL+"/kv/"+key, strings.NewReader(key))
				resp, err := http.DefaultClient.Do(req)
				Expect(err).ToNot(HaveOccurred())
				Expect(resp.Body.Close()).ToNot(HaveOccurred())
			}
		})

		It("Should retrieve every key with its own value", func() {
			for _, key := range keys {
				resp, err := http.Get(baseURL + "/kv/" + key)
				Expect(err).ToNot(HaveOccurred())
				body, err := ioutil.ReadAll(resp.Body)
				Expect(resp.Body.Close()).ToNot(HaveOccurred())
				Expect(err).ToNot(HaveOccurred())
				Expect(string(body)).To(Equal(key))
			}
		})

		It("Should respond with 200 on the stats endpoint", func() {
			resp, err := http.Get(baseURL + "/stats")
			Expect(err).ToNot(HaveOccurred())
			defer resp.Body.Close()
			Expect(resp.StatusCode).To(Equal(200))
		})
	})
})
