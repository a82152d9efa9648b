// This Source Code Form is subject to the terms of the Mozilla Public
// License, v. 2.0. If a copy of the MPL was not distributed with this
// file, You can obtain one at http://mozilla.org/MPL/2.0/.

package integration_test

import (
	"io/ioutil"
	"net/http"
	"strings"

	"github.com/comail/go-uuid/uuid"
	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
)

var _ = Describe("Put, Get, Delete", func() {
	Context("When the key does not exist yet", func() {
		var key string
		var response *http.Response

		BeforeEach(func() {
			key = uuid.NewRandom().String()
			req, err := http.NewRequest(http.MethodPut, baseURL+"/kv/"+key, strings.NewReader("hello"))
			Expect(err).ToNot(HaveOccurred())
			response, err = http.DefaultClient.Do(req)
			Expect(err).ToNot(HaveOccurred())
		})

		AfterEach(func() {
			Expect(response.Body.Close()).ToNot(HaveOccurred())
		})

		It("Should respond with 201 status code", func() {
			Expect(response.StatusCode).To(Equal(201))
		})

		It("Should be retrievable afterwards", func() {
			getResp, err := http.Get(baseURL + "/kv/" + key)
			Expect(err).ToNot(HaveOccurred())
			defer getResp.Body.Close()

			body, err := ioutil.ReadAll(getResp.Body)
			Expect(err).ToNot(HaveOccurred())
			Expect(string(body)).To(Equal("hello"))
		})
	})

	Context("When a key is deleted", func() {
		var key string

		BeforeEach(func() {
			key = uuid.NewRandom().String()
			req, _ := http.NewRequest(http.MethodPut, baseURL+"/kv/"+key, strings.NewReader("gone-soon"))
			resp, err := http.DefaultClient.Do(req)
			Expect(err).ToNot(HaveOccurred())
			Expect(resp.Body.Close()).ToNot(HaveOccurred())

			delReq, _ := http.NewRequest(http.MethodDelete, baseURL+"/kv/"+key, nil)
			delResp, err := http.DefaultClient.Do(delReq)
			Expect(err).ToNot(HaveOccurred())
			Expect(delResp.Body.Close()).ToNot(HaveOccurred())
		})

		It("Should respond with 404 on a subsequent GET", func() {
			resp, err := http.Get(baseURL + "/kv/" + key)
			Expect(err).ToNot(HaveOccurred())
			defer resp.Body.Close()
			Expect(resp.StatusCode).To(Equal(404))
		})
	})

	Context("When checking an intact key", func() {
		var key string

		BeforeEach(func() {
			key = uuid.NewRandom().String()
			req, _ := http.NewRequest(http.MethodPut, baseURL+"/kv/"+key, strings.NewReader("checked"))
			resp, err := http.DefaultClient.Do(req)
			Expect(err).ToNot(HaveOccurred())
			Expect(resp.Body.Close()).ToNot(HaveOccurred())
		})

		It("Should respond with 200 on check", func() {
			resp, err := http.Get(baseURL + "/kv/" + key + "/check")
			Expect(err).ToNot(HaveOccurred())
			defer resp.Body.Close()
			Expect(resp.StatusCode).To(Equal(200))
		})
	})
})
