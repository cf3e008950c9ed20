package forge

import (
	"archive/zip"
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"

	"github.com/spoolworks/reel/pkg/artifact"
)

func zipWithEntry(name string, data []byte) []byte {
	var buf bytes.Buffer
	w := zip.NewWriter(&buf)
	f, err := w.Create(name)
	Expect(err).NotTo(HaveOccurred())
	_, err = f.Write(data)
	Expect(err).NotTo(HaveOccurred())
	Expect(w.Close()).To(Succeed())
	return buf.Bytes()
}

var _ = Describe("GitHubClient", func() {
	var (
		server  *httptest.Server
		client  *GitHubClient
		handler http.HandlerFunc
	)

	BeforeEach(func() {
		server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			handler(w, r)
		}))
		client = NewGitHubClient(GitHubConfig{BaseURL: server.URL, Token: "test-token"})
	})

	AfterEach(func() {
		server.Close()
	})

	Describe("GetRunDetails", func() {
		It("assembles run, jobs, and artifacts", func() {
			handler = func(w http.ResponseWriter, r *http.Request) {
				Expect(r.Header.Get("Authorization")).To(Equal("Bearer test-token"))
				w.Header().Set("Content-Type", "application/json")

				switch r.URL.Path {
				case "/repos/acme/widgets/actions/runs/42":
					w.Write([]byte(`{"id": 42, "name": "resolver", "status": "completed", "conclusion": "success"}`))
				case "/repos/acme/widgets/actions/runs/42/jobs":
					w.Write([]byte(`{"total_count": 2, "jobs": [{"id": 1, "name": "build"}, {"id": 2, "name": "resolve"}]}`))
				case "/repos/acme/widgets/actions/runs/42/artifacts":
					w.Write([]byte(`{"total_count": 1, "artifacts": [{"id": 9, "name": "output"}]}`))
				default:
					w.WriteHeader(http.StatusNotFound)
				}
			}

			details, err := client.GetRunDetails(context.Background(), "acme", "widgets", 42)
			Expect(err).NotTo(HaveOccurred())
			Expect(details.Run.ID).To(Equal(int64(42)))
			Expect(details.Run.Conclusion).To(Equal("success"))
			Expect(details.Jobs.TotalCount).To(Equal(2))
			Expect(details.Artifacts.Artifacts).To(HaveLen(1))
			Expect(details.Artifacts.Artifacts[0].ID).To(Equal(int64(9)))
		})

		It("maps 404 to ErrNotFound", func() {
			handler = func(w http.ResponseWriter, _ *http.Request) {
				w.WriteHeader(http.StatusNotFound)
			}

			_, err := client.GetRunDetails(context.Background(), "acme", "widgets", 7)
			Expect(err).To(MatchError(ErrNotFound))
		})
	})

	Describe("GetArtifactContent", func() {
		It("decodes an envelope entry", func() {
			payload := []byte(`{"fileType": "trajectory", "trajectoryData": [{"action": "run"}]}`)
			handler = func(w http.ResponseWriter, r *http.Request) {
				Expect(r.URL.Path).To(Equal("/repos/acme/widgets/actions/artifacts/9/zip"))
				w.Write(zipWithEntry("output.json", payload))
			}

			result, err := client.GetArtifactContent(context.Background(), "acme", "widgets", 9)
			Expect(err).NotTo(HaveOccurred())
			Expect(result.Content.FileType).To(Equal(artifact.FileTypeTrajectory))
			Expect(result.Content.HasTrajectoryData()).To(BeTrue())
		})

		It("wraps a bare trajectory array", func() {
			handler = func(w http.ResponseWriter, _ *http.Request) {
				w.Write(zipWithEntry("trajectory.json", []byte(`[{"action": "finish", "source": "agent"}]`)))
			}

			result, err := client.GetArtifactContent(context.Background(), "acme", "widgets", 9)
			Expect(err).NotTo(HaveOccurred())
			Expect(result.Content.FileType).To(Equal(artifact.FileTypeTrajectory))
		})

		It("treats a jsonl entry as verbatim text", func() {
			lines := "{\"a\":1}\n{\"b\":2}\n"
			handler = func(w http.ResponseWriter, _ *http.Request) {
				w.Write(zipWithEntry("events.jsonl", []byte(lines)))
			}

			result, err := client.GetArtifactContent(context.Background(), "acme", "widgets", 9)
			Expect(err).NotTo(HaveOccurred())
			Expect(result.Content.FileType).To(Equal(artifact.FileTypeJSONL))
			Expect(result.Content.JSONLContent).To(Equal(lines))
		})

		It("fails when the archive has no JSON entry", func() {
			handler = func(w http.ResponseWriter, _ *http.Request) {
				w.Write(zipWithEntry("readme.txt", []byte("nothing here")))
			}

			_, err := client.GetArtifactContent(context.Background(), "acme", "widgets", 9)
			Expect(err).To(MatchError(ErrNoPayload))
		})
	})
})
