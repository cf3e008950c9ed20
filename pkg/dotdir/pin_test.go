package dotdir_test

import (
	"os"
	"path/filepath"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/spoolworks/reel/pkg/dotdir"
)

var _ = Describe("dotdir.Manager pin", func() {
	var tmpDir string
	var m *dotdir.Manager

	BeforeEach(func() {
		var err error
		tmpDir, err = os.MkdirTemp("", "dotdir-test-*")
		Expect(err).NotTo(HaveOccurred())
		m = dotdir.NewManager()
	})

	AfterEach(func() {
		os.RemoveAll(tmpDir)
	})

	Describe("LoadPin", func() {
		It("returns nil when no pin file exists", func() {
			state, err := m.LoadPin(tmpDir)
			Expect(err).NotTo(HaveOccurred())
			Expect(state).To(BeNil())
		})

		It("loads a valid pin state", func() {
			data := `{"owner":"spoolworks","repo":"reel","run_id":42,"artifact_id":7}`
			err := os.WriteFile(filepath.Join(tmpDir, "pin.json"), []byte(data), 0o644)
			Expect(err).NotTo(HaveOccurred())

			state, err := m.LoadPin(tmpDir)
			Expect(err).NotTo(HaveOccurred())
			Expect(state).NotTo(BeNil())
			Expect(state.Owner).To(Equal("spoolworks"))
			Expect(state.Repo).To(Equal("reel"))
			Expect(state.RunID).To(Equal(int64(42)))
			Expect(state.ArtifactID).To(Equal(int64(7)))
			Expect(state.IsRun()).To(BeTrue())
		})

		It("returns error for invalid JSON", func() {
			err := os.WriteFile(filepath.Join(tmpDir, "pin.json"), []byte("not json"), 0o644)
			Expect(err).NotTo(HaveOccurred())

			state, err := m.LoadPin(tmpDir)
			Expect(err).To(HaveOccurred())
			Expect(state).To(BeNil())
		})
	})

	Describe("SavePin", func() {
		It("round-trips a file pin", func() {
			saved := &dotdir.PinState{Path: "/tmp/run.json"}
			Expect(m.SavePin(saved, tmpDir)).To(Succeed())

			loaded, err := m.LoadPin(tmpDir)
			Expect(err).NotTo(HaveOccurred())
			Expect(loaded.Path).To(Equal("/tmp/run.json"))
			Expect(loaded.IsRun()).To(BeFalse())
		})

		It("rejects a nil state", func() {
			Expect(m.SavePin(nil, tmpDir)).To(HaveOccurred())
		})
	})

	Describe("ClearPin", func() {
		It("removes an existing pin", func() {
			Expect(m.SavePin(&dotdir.PinState{Path: "x"}, tmpDir)).To(Succeed())
			Expect(m.ClearPin(tmpDir)).To(Succeed())

			state, err := m.LoadPin(tmpDir)
			Expect(err).NotTo(HaveOccurred())
			Expect(state).To(BeNil())
		})

		It("is a no-op when no pin exists", func() {
			Expect(m.ClearPin(tmpDir)).To(Succeed())
		})
	})
})
