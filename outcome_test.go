package courier_test

import (
	"encoding/json"
	"errors"

	. "github.com/dogmatiq/courier"
	. "github.com/onsi/ginkgo"
	. "github.com/onsi/gomega"
)

var _ = Describe("type Outcome", func() {
	Describe("func UnmarshalResult()", func() {
		It("unmarshals the result", func() {
			out := Outcome{Result: json.RawMessage(`[1, 2, 3]`)}

			var result []int
			err := out.UnmarshalResult(&result)
			Expect(err).ShouldNot(HaveOccurred())
			Expect(result).To(Equal([]int{1, 2, 3}))
		})

		It("returns the outcome's error", func() {
			cause := NewError(7, "boom")
			out := Outcome{Err: cause}

			var result any
			err := out.UnmarshalResult(&result)
			Expect(err).To(BeIdenticalTo(cause))
		})

		It("returns an error if the outcome is for a batch", func() {
			out := Outcome{IsBatch: true}

			var result any
			err := out.UnmarshalResult(&result)
			Expect(err).To(MatchError("unable to unmarshal result: outcome is for a batch response"))
		})

		It("returns an error if the result cannot be unmarshaled", func() {
			out := Outcome{Result: json.RawMessage(`[1, 2, 3]`)}

			var result []string
			err := out.UnmarshalResult(&result)
			Expect(err).To(MatchError("unable to unmarshal result: json: cannot unmarshal number into Go value of type string"))
		})
	})

	Describe("func UnmarshalResultAt()", func() {
		var out Outcome

		BeforeEach(func() {
			out = Outcome{
				IsBatch: true,
				Results: []json.RawMessage{
					json.RawMessage(`"<one>"`),
					nil,
				},
			}
		})

		It("unmarshals the result at the given position", func() {
			var result string
			ok, err := out.UnmarshalResultAt(0, &result)
			Expect(err).ShouldNot(HaveOccurred())
			Expect(ok).To(BeTrue())
			Expect(result).To(Equal("<one>"))
		})

		It("returns false if there is no result at the given position", func() {
			var result string
			ok, err := out.UnmarshalResultAt(1, &result)
			Expect(err).ShouldNot(HaveOccurred())
			Expect(ok).To(BeFalse())

			ok, err = out.UnmarshalResultAt(2, &result)
			Expect(err).ShouldNot(HaveOccurred())
			Expect(ok).To(BeFalse())
		})

		It("unmarshals results even if there is a batch error", func() {
			out.Err = BatchError{NewError(7, "boom")}

			var result string
			ok, err := out.UnmarshalResultAt(0, &result)
			Expect(err).ShouldNot(HaveOccurred())
			Expect(ok).To(BeTrue())
		})

		It("returns the error of a failed single outcome", func() {
			cause := &TransportError{StatusCode: 500}
			out = Outcome{Err: cause}

			var result string
			_, err := out.UnmarshalResultAt(0, &result)
			Expect(errors.Is(err, cause)).To(BeTrue())
		})

		It("returns an error if the outcome is not for a batch", func() {
			out = Outcome{Result: json.RawMessage(`1`)}

			var result int
			_, err := out.UnmarshalResultAt(0, &result)
			Expect(err).To(MatchError("unable to unmarshal result: outcome is not for a batch response"))
		})
	})
})
