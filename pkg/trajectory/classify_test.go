package trajectory

import (
	"encoding/json"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

func mustParse(raw string) any {
	var parsed any
	Expect(json.Unmarshal([]byte(raw), &parsed)).To(Succeed())
	return parsed
}

var _ = Describe("Classify", func() {
	It("returns an already-normalized action sequence as-is", func() {
		parsed := mustParse(`[
			{"action": "run", "source": "agent", "args": {"command": "ls"}},
			{"observation": "run", "source": "env", "content": "total 0"}
		]`)

		normalized := Classify(parsed)
		Expect(normalized.Shape).To(Equal(ShapeItems))
		Expect(normalized.Canonical).To(BeTrue())
		Expect(normalized.Items).To(HaveLen(2))
		Expect(normalized.Items[0].Action).To(Equal("run"))
		Expect(normalized.Items[1].Observation).To(Equal("run"))
	})

	It("recognizes an observation-led normalized sequence", func() {
		parsed := mustParse(`[{"observation": "error", "source": "env", "content": "boom"}]`)

		normalized := Classify(parsed)
		Expect(normalized.Shape).To(Equal(ShapeItems))
		Expect(normalized.Canonical).To(BeTrue())
	})

	It("is idempotent for normalized sequences", func() {
		parsed := mustParse(`[{"action": "finish", "source": "agent"}]`)

		first := Classify(parsed)
		second := Classify(parsed)
		Expect(second.Items).To(Equal(first.Items))
		Expect(second.Shape).To(Equal(first.Shape))
	})

	It("passes other sequences through for the item-level fallback", func() {
		parsed := mustParse(`["one", 2, {"x": true}]`)

		normalized := Classify(parsed)
		Expect(normalized.Shape).To(Equal(ShapeItems))
		Expect(normalized.Canonical).To(BeFalse())
		Expect(normalized.Items).To(HaveLen(3))
		Expect(DetectKind(normalized.Items[0])).To(Equal(KindUnknown))
	})

	It("returns an entries object unchanged", func() {
		parsed := mustParse(`{"entries": [{"a": 1}, {"b": 2}], "meta": "x"}`)

		normalized := Classify(parsed)
		Expect(normalized.Shape).To(Equal(ShapeEntries))
		Expect(normalized.Value).To(Equal(parsed))
		Expect(normalized.Items).To(BeNil())
	})

	It("unwraps a history object one level", func() {
		parsed := mustParse(`{"history": [
			{"action": "run", "source": "agent"},
			{"observation": "run", "source": "env"},
			{"action": "finish", "source": "agent"}
		]}`)

		normalized := Classify(parsed)
		Expect(normalized.Shape).To(Equal(ShapeItems))
		Expect(normalized.Items).To(HaveLen(3))
		Expect(normalized.Items[2].Action).To(Equal("finish"))
	})

	It("checks entries before history", func() {
		parsed := mustParse(`{"entries": [1], "history": [2]}`)

		normalized := Classify(parsed)
		Expect(normalized.Shape).To(Equal(ShapeEntries))
	})

	It("treats everything else as opaque", func() {
		parsed := mustParse(`{"metrics": {"cost": 1.5}}`)

		normalized := Classify(parsed)
		Expect(normalized.Shape).To(Equal(ShapeOpaque))
		Expect(normalized.Value).To(Equal(parsed))
	})

	It("treats scalars as opaque", func() {
		normalized := Classify("just a string")
		Expect(normalized.Shape).To(Equal(ShapeOpaque))
	})
})

var _ = Describe("ParseJSON", func() {
	It("classifies valid payloads", func() {
		normalized, err := ParseJSON([]byte(`[{"action": "run", "source": "agent"}]`))
		Expect(err).NotTo(HaveOccurred())
		Expect(normalized.Shape).To(Equal(ShapeItems))
		Expect(normalized.Items).To(HaveLen(1))
	})

	It("surfaces the decoder error for invalid JSON", func() {
		_, err := ParseJSON([]byte(`not json`))
		Expect(err).To(HaveOccurred())
		Expect(err.Error()).To(ContainSubstring("parsing trajectory JSON"))
	})
})
