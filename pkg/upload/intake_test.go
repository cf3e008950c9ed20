package upload

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/spoolworks/reel/pkg/trajectory"
)

// blockingReader hands out its payload only after the gate is released.
type blockingReader struct {
	gate <-chan struct{}
	once sync.Once
	r    io.Reader
}

func (b *blockingReader) Read(p []byte) (int, error) {
	b.once.Do(func() { <-b.gate })
	return b.r.Read(p)
}

func sequenceOfLen(n int) string {
	items := make([]map[string]any, n)
	for i := range items {
		items[i] = map[string]any{"action": "run", "source": "agent"}
	}
	data, err := json.Marshal(items)
	Expect(err).NotTo(HaveOccurred())
	return string(data)
}

var _ = Describe("Intake", func() {
	var (
		intake    *Intake
		mu        sync.Mutex
		began     []string
		delivered []Content
		failed    []error
	)

	BeforeEach(func() {
		began = nil
		delivered = nil
		failed = nil
		intake = NewIntake(Config{
			OnBegin: func(_, name string) {
				mu.Lock()
				began = append(began, name)
				mu.Unlock()
			},
			OnContent: func(_ string, content Content) {
				mu.Lock()
				delivered = append(delivered, content)
				mu.Unlock()
			},
			OnError: func(_ string, err error) {
				mu.Lock()
				failed = append(failed, err)
				mu.Unlock()
			},
		})
	})

	It("delivers a classified trajectory and reaches Done", func() {
		payload := `[{"action": "run", "source": "agent", "args": {"command": "ls"}}]`

		err := intake.Drop(File{Name: "run.json", Reader: strings.NewReader(payload)})
		Expect(err).NotTo(HaveOccurred())
		Expect(intake.State()).To(Equal(StateDone))

		Expect(began).To(Equal([]string{"run.json"}))
		Expect(delivered).To(HaveLen(1))
		Expect(delivered[0].FileType).To(Equal("trajectory"))
		Expect(delivered[0].Trajectory.Items).To(HaveLen(1))
		Expect(failed).To(BeEmpty())
	})

	It("notifies the host before the read completes", func() {
		gate := make(chan struct{})
		reader := &blockingReader{gate: gate, r: strings.NewReader(`[]`)}

		done := make(chan struct{})
		go func() {
			defer close(done)
			_ = intake.Drop(File{Name: "slow.json", Reader: reader})
		}()

		Eventually(func() []string {
			mu.Lock()
			defer mu.Unlock()
			return began
		}).Should(Equal([]string{"slow.json"}))

		mu.Lock()
		Expect(delivered).To(BeEmpty())
		mu.Unlock()

		close(gate)
		<-done
		Expect(intake.State()).To(Equal(StateDone))
	})

	It("fails on invalid JSON with the file name in the message", func() {
		err := intake.Drop(File{Name: "broken.json", Reader: strings.NewReader("not json")})
		Expect(err).NotTo(HaveOccurred())

		Expect(intake.State()).To(Equal(StateFailed))
		Expect(failed).To(HaveLen(1))
		Expect(failed[0].Error()).To(ContainSubstring("broken.json"))
		Expect(delivered).To(BeEmpty())
	})

	It("fails on a read error without forwarding content", func() {
		err := intake.Drop(File{Name: "cut.json", Reader: iotestErrReader{}})
		Expect(err).NotTo(HaveOccurred())

		Expect(intake.State()).To(Equal(StateFailed))
		Expect(failed).To(HaveLen(1))
		Expect(failed[0].Error()).To(ContainSubstring("cut.json"))
		Expect(delivered).To(BeEmpty())
	})

	It("rejects drops while processing", func() {
		gate := make(chan struct{})
		reader := &blockingReader{gate: gate, r: strings.NewReader(`[]`)}

		done := make(chan struct{})
		go func() {
			defer close(done)
			_ = intake.Drop(File{Name: "first.json", Reader: reader})
		}()

		Eventually(intake.Enabled).Should(BeFalse())

		err := intake.Drop(File{Name: "second.json", Reader: strings.NewReader(`[]`)})
		Expect(err).To(MatchError(ErrBusy))

		close(gate)
		<-done
	})

	It("accepts a new drop after a failure", func() {
		_ = intake.Drop(File{Name: "broken.json", Reader: strings.NewReader("not json")})
		Expect(intake.State()).To(Equal(StateFailed))

		err := intake.Drop(File{Name: "fine.json", Reader: strings.NewReader(`[]`)})
		Expect(err).NotTo(HaveOccurred())
		Expect(intake.State()).To(Equal(StateDone))
	})

	It("filters by extension and MIME type", func() {
		Expect(Accepts("run.json", "")).To(BeTrue())
		Expect(Accepts("run.JSON", "")).To(BeTrue())
		Expect(Accepts("blob", "application/json")).To(BeTrue())
		Expect(Accepts("run.txt", "text/plain")).To(BeFalse())

		err := intake.Drop(File{Name: "run.txt", MIME: "text/plain", Reader: strings.NewReader(`[]`)})
		Expect(err).To(MatchError(ErrUnsupported))
		Expect(intake.State()).To(Equal(StateIdle))
	})

	It("uses only the first file of a multi-file drop", func() {
		err := intake.DropAll(
			File{Name: "a.json", Reader: strings.NewReader(`[{"role": "user"}]`)},
			File{Name: "b.json", Reader: strings.NewReader(`[{"role": "assistant"}]`)},
		)
		Expect(err).NotTo(HaveOccurred())
		Expect(began).To(Equal([]string{"a.json"}))
		Expect(delivered).To(HaveLen(1))
	})

	Describe("the large-sequence delivery policy", func() {
		It("delivers a threshold-sized sequence synchronously", func() {
			payload := sequenceOfLen(trajectory.LargeSequenceLen)

			err := intake.Drop(File{Name: "exact.json", Reader: strings.NewReader(payload)})
			Expect(err).NotTo(HaveOccurred())

			// Synchronous path: Done before Drop returns.
			Expect(intake.State()).To(Equal(StateDone))
			Expect(delivered).To(HaveLen(1))
		})

		It("delivers an over-threshold sequence asynchronously", func() {
			gate := make(chan struct{})
			var got Content
			async := NewIntake(Config{
				OnContent: func(_ string, content Content) {
					got = content
					<-gate
				},
			})

			payload := sequenceOfLen(trajectory.LargeSequenceLen + 1)
			err := async.Drop(File{Name: "large.json", Reader: strings.NewReader(payload)})
			Expect(err).NotTo(HaveOccurred())

			// Drop has returned while delivery is still in flight.
			Expect(async.State()).To(Equal(StateProcessing))

			close(gate)
			Eventually(async.State).Should(Equal(StateDone))
			Expect(got.Trajectory.Items).To(HaveLen(trajectory.LargeSequenceLen + 1))
		})
	})
})

var _ = Describe("ReadPath", func() {
	It("classifies a JSON file", func() {
		path := filepath.Join(GinkgoT().TempDir(), "run.json")
		Expect(os.WriteFile(path, []byte(`[{"action": "finish", "source": "agent"}]`), 0o600)).To(Succeed())

		content, err := ReadPath(path)
		Expect(err).NotTo(HaveOccurred())
		Expect(content.FileType).To(Equal("trajectory"))
		Expect(content.Trajectory.Items).To(HaveLen(1))
	})

	It("returns jsonl files verbatim", func() {
		path := filepath.Join(GinkgoT().TempDir(), "events.jsonl")
		lines := "{\"a\":1}\n{\"b\":2}\n"
		Expect(os.WriteFile(path, []byte(lines), 0o600)).To(Succeed())

		content, err := ReadPath(path)
		Expect(err).NotTo(HaveOccurred())
		Expect(content.FileType).To(Equal("jsonl"))
		Expect(content.JSONLContent).To(Equal(lines))
	})

	It("names the file in parse failures", func() {
		path := filepath.Join(GinkgoT().TempDir(), "junk.json")
		Expect(os.WriteFile(path, []byte("not json"), 0o600)).To(Succeed())

		_, err := ReadPath(path)
		Expect(err).To(HaveOccurred())
		Expect(err.Error()).To(ContainSubstring("junk.json"))
	})
})

// iotestErrReader always fails, standing in for a file-read error.
type iotestErrReader struct{}

func (iotestErrReader) Read([]byte) (int, error) {
	return 0, fmt.Errorf("device yanked")
}
