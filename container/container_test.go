package container

import (
	"context"
	"io"

	"github.com/docker/docker/api/types/container"
	"github.com/docker/go-connections/nat"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("Container", func() {
	var (
		ctx    context.Context
		docker *fakeDocker
		ctr    *Container
	)

	BeforeEach(func() {
		ctx = context.Background()
		docker = &fakeDocker{
			containers: map[string]container.InspectResponse{
				"abc123": running("abc123", "gotest123-hello-1", nat.PortMap{
					"80/tcp": []nat.PortBinding{
						{HostIP: "0.0.0.0", HostPort: "32770"},
						{HostIP: "::", HostPort: "32770"},
					},
				}),
			},
			logs: map[string]string{"abc123": "listening on :80\n"},
		}
		ctr = New(docker, "abc123", "/gotest123-hello-1")
	})

	It("strips the leading slash from the name", func() {
		Expect(ctr.Name()).To(Equal("gotest123-hello-1"))
		Expect(ctr.ID()).To(Equal("abc123"))
	})

	It("falls back to the ID when no name is known", func() {
		Expect(New(docker, "abc123", "").Name()).To(Equal("abc123"))
	})

	It("reports running state from the daemon", func() {
		Expect(ctr.IsRunning(ctx)).To(BeTrue())
	})

	It("reads the published ports on every call", func() {
		ports, err := ctr.Ports(ctx)
		Expect(err).ToNot(HaveOccurred())
		Expect(ports).To(HaveKey("80/tcp"))

		_, err = ctr.Ports(ctx)
		Expect(err).ToNot(HaveOccurred())
		Expect(docker.calls).To(Equal([]string{"Inspect", "Inspect"}))
	})

	It("returns the log stream", func() {
		logs, err := ctr.Logs(ctx, false)
		Expect(err).ToNot(HaveOccurred())
		defer logs.Close()

		raw, err := io.ReadAll(logs)
		Expect(err).ToNot(HaveOccurred())
		Expect(string(raw)).To(ContainSubstring("listening on :80"))
	})

	It("does not panic when dumping logs", func() {
		Expect(func() { ctr.DumpLogs(ctx, "startup failed") }).ToNot(Panic())
		Expect(docker.calls).To(ContainElement("Logs"))
	})

	Context("once the container is removed", func() {
		BeforeEach(func() {
			delete(docker.containers, "abc123")
		})

		It("fails every query with ErrNotFound", func() {
			_, err := ctr.Ports(ctx)
			Expect(err).To(MatchError(ErrNotFound))
			Expect(err.Error()).To(ContainSubstring("gotest123-hello-1"))

			_, err = ctr.IsRunning(ctx)
			Expect(err).To(MatchError(ErrNotFound))

			_, err = ctr.Logs(ctx, false)
			Expect(err).To(MatchError(ErrNotFound))
		})
	})
})

var _ = Describe("Probe", func() {
	It("succeeds when containers can be listed", func() {
		Expect(ProbeWith(context.Background(), &fakeDocker{})).To(Succeed())
	})

	It("fails when the daemon does not answer", func() {
		docker := &fakeDocker{listErr: io.ErrUnexpectedEOF}

		err := ProbeWith(context.Background(), docker)
		Expect(err).To(MatchError(io.ErrUnexpectedEOF))
		Expect(err.Error()).To(HavePrefix("container runtime unavailable"))
	})
})
