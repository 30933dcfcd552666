package container

import (
	"github.com/docker/go-connections/nat"
	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("PortMap", func() {
	DescribeTable("PortKey",
		func(port int, protocol, expected string) {
			Expect(PortKey(port, protocol)).To(Equal(expected))
		},
		Entry("tcp", 80, "tcp", "80/tcp"),
		Entry("default protocol", 80, "", "80/tcp"),
		Entry("udp upper case", 53, "UDP", "53/udp"),
	)

	It("converts the Docker port map", func() {
		ports := FromNat(nat.PortMap{
			"80/tcp":  {{HostIP: "0.0.0.0", HostPort: "32770"}},
			"443/tcp": nil,
		})

		Expect(ports).To(HaveLen(2))
		Expect(ports["80/tcp"]).To(ConsistOf(PortBinding{HostIP: "0.0.0.0", HostPort: "32770"}))
		Expect(ports.Keys()).To(Equal([]string{"443/tcp", "80/tcp"}))
	})

	DescribeTable("HostPorts",
		func(bindings []PortBinding, expected []string) {
			ports := PortMap{"80/tcp": bindings}
			got, ok := ports.HostPorts("80/tcp")
			Expect(ok).To(BeTrue())
			Expect(got).To(Equal(expected))
		},
		Entry("single binding", []PortBinding{{HostIP: "0.0.0.0", HostPort: "32770"}}, []string{"32770"}),
		Entry("ipv4 and ipv6 of the same port", []PortBinding{
			{HostIP: "0.0.0.0", HostPort: "32770"},
			{HostIP: "::", HostPort: "32770"},
		}, []string{"32770"}),
		Entry("two distinct ports", []PortBinding{
			{HostIP: "127.0.0.1", HostPort: "32771"},
			{HostIP: "0.0.0.0", HostPort: "32770"},
		}, []string{"32770", "32771"}),
		Entry("exposed but unpublished", []PortBinding{}, []string{}),
	)

	It("reports missing keys", func() {
		_, ok := PortMap{}.HostPorts("80/tcp")
		Expect(ok).To(BeFalse())
	})
})
